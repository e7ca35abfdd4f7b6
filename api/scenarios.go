/*
scenarios.go - Demo scenarios and dataset uploads

PURPOSE:
  Populates the store with realistic data for demos and manual testing.
  Scenario datasets are defined in factory/scenarios.go; this file only
  lists them, resets the store and seeds the chosen one.

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/load   {"scenario_id": "scope-change", "year": 2025}
	POST /api/scenarios/reset
	POST /api/datasets         <dataset JSON, see factory/dataset.go>

NOTE:

	Loading a scenario resets the store first. Only use in development or
	demo environments.

SEE ALSO:
  - factory/scenarios.go: Scenario datasets
  - factory/dataset.go: Dataset JSON schema and validation
*/
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/warp/timereport/factory"
	"github.com/warp/timereport/generic"
)

// maxDatasetBytes bounds POST /api/datasets bodies.
const maxDatasetBytes = 8 << 20

// ListScenarios returns every available scenario.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list := factory.Scenarios()
	out := make([]ScenarioDTO, 0, len(list))
	for _, s := range list {
		out = append(out, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

// LoadScenario resets the store and seeds one scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, generic.NewParameterError("body", fmt.Errorf("%w: %v", generic.ErrInvalidValue, err)))
		return
	}
	scenario, err := factory.ScenarioByID(req.ScenarioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	year := req.Year
	if year == 0 {
		year = h.currentYear()
	}

	built, err := scenario.Build(year).Build()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.reset(r); err != nil {
		h.writeError(w, err)
		return
	}
	if err := built.Seed(r.Context(), h.Store); err != nil {
		h.writeError(w, err)
		return
	}

	h.Logger.Info("scenario loaded", "scenario", scenario.ID, "year", year, "entries", len(built.Entries))
	res := seedResult(built)
	res.ScenarioID = scenario.ID
	res.Year = year
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "scenario loaded", Data: res})
}

// ResetStore clears every entity.
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r); err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info("store reset")
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "store reset"})
}

// LoadDataset validates and seeds a JSON dataset on top of existing data.
func (h *Handler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDatasetBytes))
	if err != nil {
		h.writeError(w, generic.NewParameterError("body", fmt.Errorf("%w: %v", generic.ErrInvalidValue, err)))
		return
	}
	ds, err := factory.Parse(body)
	if err != nil {
		h.writeError(w, generic.NewParameterError("body", fmt.Errorf("%w: %v", generic.ErrInvalidValue, err)))
		return
	}
	built, err := ds.Build()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := built.Seed(r.Context(), h.Store); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "dataset loaded", Data: seedResult(built)})
}

func (h *Handler) reset(r *http.Request) error {
	rs, ok := h.Store.(Resetter)
	if !ok {
		return &generic.DataError{Status: http.StatusNotImplemented, Err: fmt.Errorf("store %T cannot be reset", h.Store)}
	}
	return rs.Reset(r.Context())
}

func seedResult(b *factory.Built) SeedResult {
	return SeedResult{
		Elements:    len(b.Elements),
		Employments: len(b.Employments),
		Profiles:    len(b.Profiles),
		Holidays:    len(b.Holidays),
		Setpoints:   len(b.Setpoints),
		Entries:     len(b.Entries),
	}
}
