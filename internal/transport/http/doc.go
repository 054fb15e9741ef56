// Package http implements the HTTP handlers for the license gate service.
// It is a thin layer between HTTP transport and the license validator,
// keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - delegate all trust decisions to the validator
//	2. HTTP-only concerns - request binding, response formatting
//	3. Status transformation - map validation statuses to HTTP responses
//	4. Consistent patterns - standardized request/response handling
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Validator
//	                                              ↓
//	HTTP Response ← Handler ← ValidationResult ←─┘
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/license/expired",
//	    "title": "License Expired",
//	    "status": 403,
//	    "detail": "The license validity period has ended",
//	    "license_status": "Expired"
//	}
//
// Validation never returns an error to the handler: every outcome,
// including panics inside the validation pipeline, is expressed as a
// terminal status on the result.
//
// # Testing
//
// Handlers are tested using httptest with a real validator built from a
// throwaway RSA key pair, so signature verification runs end to end.
package http
