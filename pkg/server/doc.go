// Package server exposes the conversion pipeline over HTTP.
//
// # Endpoints
//
//	GET  /healthz             liveness probe, always {"status":"ok"}
//	GET  /version             build information
//	GET  /metrics             Config.Metrics, when set
//	POST /api/v1/convert      body: unit list, response: one artifact
//
// The convert endpoint reads JSON unless the Content-Type names TOML
// (application/toml, text/toml) or the input query parameter says otherwise.
// Query parameters select the output:
//
//	format       dot, json, svg (default), png or pdf
//	name         DOT graph id
//	font         node font name
//	transparent  true for a transparent background
//	scale        PNG scale factor
//
// # Errors
//
// Failed conversions return a JSON body:
//
//	{"code": "MULTIPLE_HEADS", "message": "...", "unit": 2, "field": "top.kind", "request_id": "..."}
//
// Malformed input maps to 400, head errors to 422, render timeouts to 504 and
// everything else to 500. Bodies larger than Config.MaxBodyBytes get 413.
//
// Every response carries an X-Request-ID header; a client-supplied value is
// kept, otherwise a UUID is generated.
package server
