package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/phonefield/phonefield/internal/countries"
	"github.com/phonefield/phonefield/internal/httputil"
	"github.com/phonefield/phonefield/internal/phoneinput"
)

type reconcileRequest struct {
	Region      string `json:"region"`
	Text        string `json:"text"`
	ShowExample *bool  `json:"show_example,omitempty"` // nil: input.show_example
}

type setNumberRequest struct {
	Number string `json:"number"`
	Region string `json:"region"`
}

type countryListResponse struct {
	Items []countries.Country `json:"items"`
	Total int                 `json:"total"`
}

type exampleResponse struct {
	Region      string `json:"region"`
	DialCode    string `json:"dial_code"`
	Placeholder string `json:"placeholder"`
}

// newEngine builds a request-scoped engine. Engines are not shared between
// requests, so no locking is needed.
func (s *Server) newEngine(region string, showExample *bool) (*phoneinput.Engine, error) {
	if strings.TrimSpace(region) == "" {
		region = s.defaultRegion
	}
	show := s.cfg.Input.ShowExample
	if showExample != nil {
		show = *showExample
	}
	return phoneinput.New(phoneinput.Options{
		Region:      region,
		ShowExample: show,
		Directory:   s.dir,
		Logger:      s.logger,
	})
}

func writeRegionError(w http.ResponseWriter, region string) {
	httputil.WriteFieldError(w, http.StatusBadRequest, "unknown region", "region",
		"unknown_region", "region "+strings.ToUpper(region)+" is not offered")
}

// handleReconcile runs one text edit through a fresh engine and returns the
// reconciled state.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	e, err := s.newEngine(req.Region, req.ShowExample)
	if err != nil {
		writeRegionError(w, req.Region)
		return
	}
	e.TextChanged(req.Text)

	httputil.WriteJSON(w, http.StatusOK, e.Snapshot())
}

// handleSetNumber loads a complete number into a fresh engine; the number's
// own region becomes the selected one.
func (s *Server) handleSetNumber(w http.ResponseWriter, r *http.Request) {
	var req setNumberRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Number) == "" {
		httputil.WriteFieldError(w, http.StatusBadRequest, "number is required", "number",
			"required", "number must not be empty")
		return
	}

	e, err := s.newEngine(req.Region, nil)
	if err != nil {
		writeRegionError(w, req.Region)
		return
	}
	if err := e.SetNumber(req.Number); err != nil {
		switch {
		case errors.Is(err, phoneinput.ErrUnknownRegion):
			httputil.WriteFieldError(w, http.StatusUnprocessableEntity, "number region is not offered", "number",
				"region_not_offered", err.Error())
		default:
			httputil.WriteFieldError(w, http.StatusUnprocessableEntity, "invalid phone number", "number",
				"invalid", err.Error())
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, e.Snapshot())
}

// handleListCountries lists the directory, filtered by the optional q parameter.
func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	items := s.dir.Search(r.URL.Query().Get("q"))
	if items == nil {
		items = []countries.Country{}
	}
	httputil.WriteJSON(w, http.StatusOK, countryListResponse{Items: items, Total: len(items)})
}

func (s *Server) handleGetCountry(w http.ResponseWriter, r *http.Request) {
	c, ok := s.dir.Lookup(chi.URLParam(r, "region"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "country not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// handleExample returns the formatted example number shown as placeholder.
func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	c, ok := s.dir.Lookup(chi.URLParam(r, "region"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "country not found")
		return
	}
	e, err := s.newEngine(c.Code, nil)
	if err != nil {
		writeRegionError(w, c.Code)
		return
	}
	text, ok := e.PlaceholderFor(c.Code)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "no example number for region")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, exampleResponse{Region: c.Code, DialCode: c.DialCode, Placeholder: text})
}
