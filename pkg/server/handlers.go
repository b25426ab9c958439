package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/models"
	"order-analytics/pkg/report"
)

func (s *Server) routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/years", s.handleYears)
		r.Get("/kpis", s.handleKPIs)
		r.Get("/categories", s.handleCategories)
		r.Get("/monthly", s.handleMonthly)
		r.Get("/rfm", s.handleRFM)
		r.Get("/report", s.handleReport)
	})
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Dataset().Years())
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.selection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculator.ComputeKPIs(view))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.selection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := intParam(r, "top", s.cfg.Defaults.TopCategories)
	if err != nil {
		writeError(w, err)
		return
	}
	ranking, err := calculator.RankCategories(view, top)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.selection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculator.MonthlyOrderSeries(view))
}

func (s *Server) handleRFM(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.selection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := intParam(r, "top", s.cfg.Defaults.TopSegments)
	if err != nil {
		writeError(w, err)
		return
	}
	withRecords, err := boolParam(r, "customers")
	if err != nil {
		writeError(w, err)
		return
	}

	records, segments, err := calculator.ComputeRFM(view, top, calculator.WithBinPolicy(s.cfg.Defaults.Policy))
	if err != nil {
		writeError(w, err)
		return
	}
	section := models.RFMSection{Customers: len(records), Segments: segments}
	if withRecords {
		section.Records = records
	}
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	_, years, err := s.selection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := s.cfg.Defaults
	if opts.TopCategories, err = intParam(r, "top_categories", opts.TopCategories); err != nil {
		writeError(w, err)
		return
	}
	if opts.TopSegments, err = intParam(r, "top_segments", opts.TopSegments); err != nil {
		writeError(w, err)
		return
	}
	if opts.IncludeRecords, err = boolParam(r, "customers"); err != nil {
		writeError(w, err)
		return
	}

	rep, err := report.Build(s.Dataset(), years, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// selection applies the years query parameter. Without the parameter every year is
// selected; "years=" selects nothing.
func (s *Server) selection(r *http.Request) (*calculator.Dataset, []int, error) {
	ds := s.Dataset()
	raw, ok := r.URL.Query()["years"]
	if !ok {
		return ds, nil, nil
	}

	years := make([]int, 0)
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			y, err := strconv.Atoi(part)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: years: %q is not a year", calculator.ErrInvalidParameter, part)
			}
			years = append(years, y)
		}
	}
	return ds.FilterYears(years), years, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", calculator.ErrInvalidParameter, name, v)
	}
	return n, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %q is not a boolean", calculator.ErrInvalidParameter, name, v)
	}
	return b, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps analytics errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, calculator.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, calculator.ErrEmptyDataset), errors.Is(err, calculator.ErrInsufficientCardinality):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
