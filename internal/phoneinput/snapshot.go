package phoneinput

// Snapshot is a serializable view of an Engine's state, as returned by the
// HTTP API, the MCP tools and the session command.
type Snapshot struct {
	Region        string `json:"region"`
	DialCode      string `json:"dial_code"`
	Display       string `json:"display"`
	Valid         bool   `json:"valid"`
	Placeholder   string `json:"placeholder,omitempty"`
	E164          string `json:"e164,omitempty"`
	International string `json:"international,omitempty"`
	National      string `json:"national,omitempty"`
	RFC3966       string `json:"rfc3966,omitempty"`
	Raw           string `json:"raw,omitempty"`
}

// Snapshot captures the engine's current state. The formatted fields are
// only filled while the input is valid.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Region:   e.region,
		DialCode: e.dialCode,
		Display:  e.text,
		Valid:    e.Valid(),
	}
	if p, ok := e.Placeholder(); ok {
		s.Placeholder = p
	}
	if e.number != nil {
		s.E164, _ = e.FormattedNumber(FormatE164)
		s.International, _ = e.FormattedNumber(FormatInternational)
		s.National, _ = e.FormattedNumber(FormatNational)
		s.RFC3966, _ = e.FormattedNumber(FormatRFC3966)
		s.Raw, _ = e.RawNumber()
	}
	return s
}
