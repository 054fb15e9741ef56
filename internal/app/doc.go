// Package app wires the license gate service together: configuration,
// logging, telemetry, the license validator and the HTTP router.
//
// Construction order matters. The validator is built before the router so a
// bad trust anchor fails startup instead of surfacing per request. Telemetry
// is optional; when disabled, the application runs without providers and the
// /metrics endpoint is absent.
package app
