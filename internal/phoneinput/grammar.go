package phoneinput

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	// ErrParse is returned when a digit string cannot be parsed at all.
	ErrParse = errors.New("unparseable phone number")
	// ErrInvalidForRegion is returned when a number parses but fails the
	// numbering plan's validity rules.
	ErrInvalidForRegion = errors.New("phone number not valid for region")
	// ErrNoExample is returned when a region has no example number.
	ErrNoExample = errors.New("no example number for region")
	// ErrEmptyRegion is returned when an operation needs a region and none is selected.
	ErrEmptyRegion = errors.New("no region selected")
	// ErrUnknownRegion is returned when the country directory has no dial code for a region.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrInvalidNumber is returned by SetNumber for input that is not a valid number.
	ErrInvalidNumber = errors.New("invalid phone number")
)

// Format selects one of the canonical textual renderings of a number.
type Format int

const (
	FormatE164 Format = iota
	FormatInternational
	FormatNational
	FormatRFC3966
)

var formatNames = map[Format]string{
	FormatE164:          "e164",
	FormatInternational: "international",
	FormatNational:      "national",
	FormatRFC3966:       "rfc3966",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat maps a case-insensitive name ("e164", "international",
// "national", "rfc3966") to a Format.
func ParseFormat(s string) (Format, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == want {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown number format %q (expected e164, international, national or rfc3966)", s)
}

// Number is a parsed phone number. It holds the structured parts only; the
// textual renderings are produced on demand by a Grammar.
type Number struct {
	CountryCode    int
	NationalNumber uint64
	// LeadingZeros counts zeros that precede NationalNumber when the number
	// is dialled (Italian-style numbers keep their leading "0").
	LeadingZeros int

	pn *phonenumbers.PhoneNumber
}

// National returns the national significant number including any leading zeros.
func (n Number) National() string {
	return strings.Repeat("0", n.LeadingZeros) + strconv.FormatUint(n.NationalNumber, 10)
}

// Canonical returns "+<country code><national number>", the unformatted
// input handed to as-you-type formatters.
func (n Number) Canonical() string {
	return "+" + strconv.Itoa(n.CountryCode) + n.National()
}

// Grammar is the phone-numbering knowledge the engine consults. It is
// satisfied by LibPhoneNumber; tests substitute their own.
type Grammar interface {
	Parse(number, defaultRegion string) (Number, error)
	IsValid(n Number) bool
	Format(n Number, f Format) string
	RegionForNumber(n Number) string
	ExampleNumber(region string) (Number, error)
}

// LibPhoneNumber is a Grammar backed by github.com/nyaruka/phonenumbers.
type LibPhoneNumber struct{}

var _ Grammar = LibPhoneNumber{}

func (LibPhoneNumber) Parse(number, defaultRegion string) (Number, error) {
	pn, err := phonenumbers.Parse(number, defaultRegion)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return fromProto(pn), nil
}

func (LibPhoneNumber) IsValid(n Number) bool {
	pn := toProto(n)
	return pn != nil && phonenumbers.IsValidNumber(pn)
}

func (LibPhoneNumber) Format(n Number, f Format) string {
	pn := toProto(n)
	if pn == nil {
		return ""
	}
	return phonenumbers.Format(pn, libFormat(f))
}

func (LibPhoneNumber) RegionForNumber(n Number) string {
	pn := toProto(n)
	if pn == nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(pn)
}

func (LibPhoneNumber) ExampleNumber(region string) (Number, error) {
	pn := phonenumbers.GetExampleNumber(region)
	if pn == nil {
		return Number{}, fmt.Errorf("%w: %s", ErrNoExample, region)
	}
	return fromProto(pn), nil
}

func libFormat(f Format) phonenumbers.PhoneNumberFormat {
	switch f {
	case FormatInternational:
		return phonenumbers.INTERNATIONAL
	case FormatNational:
		return phonenumbers.NATIONAL
	case FormatRFC3966:
		return phonenumbers.RFC3966
	default:
		return phonenumbers.E164
	}
}

func fromProto(pn *phonenumbers.PhoneNumber) Number {
	n := Number{
		CountryCode:    int(pn.GetCountryCode()),
		NationalNumber: pn.GetNationalNumber(),
		pn:             pn,
	}
	if pn.GetItalianLeadingZero() {
		n.LeadingZeros = int(pn.GetNumberOfLeadingZeros())
		if n.LeadingZeros < 1 {
			n.LeadingZeros = 1
		}
	}
	return n
}

// toProto returns the library representation of n. Numbers built by hand
// (rather than by Parse) are re-parsed from their canonical form.
func toProto(n Number) *phonenumbers.PhoneNumber {
	if n.pn != nil {
		return n.pn
	}
	if n.CountryCode == 0 {
		return nil
	}
	pn, err := phonenumbers.Parse(n.Canonical(), "")
	if err != nil {
		return nil
	}
	return pn
}
