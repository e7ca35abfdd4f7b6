/*
handlers.go - HTTP API handlers for the reporting engine

PURPOSE:
  Exposes the report entry points via REST API. Handles query parsing,
  JSON serialization and error mapping, and delegates to report.Reporter.

ENDPOINTS:
  Reports (all GET, all share the query parameters below):
    /api/reports/indicators    Planned vs. booked static indicators
    /api/reports/elements      Dynamic elements against their setpoints
    /api/reports/timeseries    Per-day target / actual / saldo
    /api/reports/all           Composite report with summary
    /api/reports/generic       Composite projected into sections
    /api/reports/csv           Flat rows (format=json|csv|xlsx)

  Data:
    POST /api/datasets           Seed a JSON dataset
    GET  /api/scenarios          List demo scenarios
    POST /api/scenarios/load     Reset and load a demo scenario
    POST /api/scenarios/reset    Clear the store

QUERY PARAMETERS:
  start, end         YYYY-MM-DD, same calendar year (required)
  user               User id (required, "userId" accepted too)
  enhanced           Day indicators in hours
  yearScope          Iterate the whole year for holidays and targets
  raw                Attach per-day detail
  shape              report | flat | mapped
  position           Narrow to one indicator or element label
  aggregated         CSV: drop day columns
  compact            CSV: keep only days with data
  comments           CSV: add the comments row
  format             CSV: json | csv | xlsx
  delimiter          CSV: single character, default ","

ERROR HANDLING:
  The status comes from generic.StatusOf:
  - 400: Parameter errors, missing profile, invalid values
  - 404: Unknown scenario
  - 409: Write conflicts (overlap, duplicate or closed entry)
  - 500: Persistence failures

SEE ALSO:
  - dto.go: Response envelope
  - scenarios.go: Scenario and dataset handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/warp/timereport/export"
	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter is implemented by stores that can be cleared.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	Reporter *report.Reporter
	Store    generic.ReadWriter
	Logger   *slog.Logger
}

// NewHandler creates a handler whose reporter reads from store.
func NewHandler(store generic.ReadWriter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Reporter: report.NewReporter(store, logger),
		Store:    store,
		Logger:   logger,
	}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// Report serves /api/reports/{kind}.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	p, err := parseParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ctx := r.Context()

	var data any
	switch kind {
	case "indicators":
		var rep report.IndicatorReport
		if rep, err = h.Reporter.Indicators(ctx, p); err == nil {
			data = rep.Output(p.Shape)
		}
	case "elements":
		var rep report.ElementReport
		if rep, err = h.Reporter.Elements(ctx, p); err == nil {
			data = rep.Output(p.Shape)
		}
	case "timeseries":
		var rep report.TimeseriesReport
		if rep, err = h.Reporter.Timeseries(ctx, p); err == nil {
			data = rep.Output(p.Shape)
		}
	case "all":
		data, err = h.Reporter.All(ctx, p)
	case "generic":
		data, err = h.Reporter.Generic(ctx, p)
	case "csv":
		h.csv(w, r, p)
		return
	default:
		writeJSON(w, http.StatusNotFound, Response{
			Error: &ErrorDetail{Code: "NOT_FOUND", Message: fmt.Sprintf("unknown report %q", kind)},
		})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func (h *Handler) csv(w http.ResponseWriter, r *http.Request, p report.Params) {
	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		h.writeError(w, generic.NewParameterError("format", err))
		return
	}
	delimiter, err := parseDelimiter(q.Get("delimiter"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.Reporter.CSV(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if format == export.FormatJSON {
		writeJSON(w, http.StatusOK, Response{Success: true, Data: rows})
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	switch format {
	case export.FormatCSV:
		err = export.WriteCSV(&buf, rows, delimiter)
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, export.DefaultSheet, rows)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	name := fmt.Sprintf("report-%s-%s-%s%s", p.UserID, p.Start, p.End, format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// =============================================================================
// QUERY PARSING
// =============================================================================

func parseParams(r *http.Request) (report.Params, error) {
	q := r.URL.Query()
	p := report.Params{
		Start:    q.Get("start"),
		End:      q.Get("end"),
		UserID:   generic.UserID(q.Get("user")),
		Position: q.Get("position"),
	}
	if p.UserID == "" {
		p.UserID = generic.UserID(q.Get("userId"))
	}

	shape, err := report.ParseShape(q.Get("shape"))
	if err != nil {
		return p, err
	}
	p.Shape = shape

	flags := []struct {
		name string
		dst  *bool
	}{
		{"enhanced", &p.Enhanced},
		{"yearScope", &p.YearScope},
		{"raw", &p.Raw},
		{"aggregated", &p.Aggregated},
		{"compact", &p.Compact},
		{"comments", &p.Comments},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, generic.NewParameterError(f.name, fmt.Errorf("%w: expected a boolean, got %q", generic.ErrInvalidValue, v))
		}
		*f.dst = b
	}
	return p, nil
}

func parseDelimiter(s string) (rune, error) {
	switch {
	case s == "":
		return 0, nil
	case s == `\t` || strings.EqualFold(s, "tab"):
		return '\t', nil
	case utf8.RuneCountInString(s) == 1:
		d, _ := utf8.DecodeRuneInString(s)
		if d == '"' || d == '\r' || d == '\n' {
			break
		}
		return d, nil
	}
	return 0, generic.NewParameterError("delimiter", fmt.Errorf("%w: unsupported delimiter %q", generic.ErrInvalidValue, s))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_ = json.NewEncoder(w).Encode(Response{
			Error: &ErrorDetail{Code: "ENCODING_ERROR", Message: "failed to encode response"},
		})
	}
}

// writeError maps err to its status and envelope. Server errors are logged
// and their message is not leaked.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := generic.StatusOf(err)
	detail := &ErrorDetail{Code: errorCode(status), Message: err.Error()}

	var pe *generic.ParameterError
	if errors.As(err, &pe) && pe.Field != "" {
		detail.Details = map[string]string{pe.Field: pe.Err.Error()}
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", "error", err, "status", status)
		detail.Message = "an unexpected error occurred"
	}
	writeJSON(w, status, Response{Error: detail})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	}
	return "INTERNAL_SERVER_ERROR"
}

// currentYear follows the reporter clock so scenarios land in "this" year.
func (h *Handler) currentYear() int {
	if h.Reporter.Now != nil {
		return h.Reporter.Now().Year()
	}
	return time.Now().Year()
}
