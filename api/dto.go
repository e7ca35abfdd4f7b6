/*
dto.go - Data Transfer Objects for the HTTP API

PURPOSE:
  Request and response envelopes. Report payloads are the report package
  types themselves; this file only holds what wraps or feeds them.

RESPONSE ENVELOPE:
  Every JSON response has the same outer shape:

    {"success": true,  "data": {...}}
    {"success": false, "error": {"code": "BAD_REQUEST", "message": "...", "details": {...}}}

  CSV and XLSX downloads are written raw, without an envelope.

SEE ALSO:
  - handlers.go: Builds these from report results and errors
*/
package api

// Response is the JSON envelope of every non-download endpoint.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	// Year defaults to the current year.
	Year int `json:"year,omitempty"`
}

// SeedResult counts what a scenario or dataset upload wrote.
type SeedResult struct {
	ScenarioID  string `json:"scenario_id,omitempty"`
	Year        int    `json:"year,omitempty"`
	Elements    int    `json:"elements"`
	Employments int    `json:"employments"`
	Profiles    int    `json:"profiles"`
	Holidays    int    `json:"holidays"`
	Setpoints   int    `json:"setpoints"`
	Entries     int    `json:"entries"`
}
