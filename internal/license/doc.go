// Package license implements the license validation core: it turns a signed
// license envelope plus a configured public key into a trust decision and a
// feature list.
//
// # Architecture Overview
//
// The package is composed leaf to root:
//
//	- Code codec: deterministic generation and parsing of the short
//	  human-typable display code (XXXX-YYYY-ZZZZ-AAAA-BBBB)
//	- SignatureVerifier: RSA SHA-256 PKCS#1 v1.5 verification against one
//	  immutable public key loaded at construction
//	- Payload decoder: base64 + JSON decoding of the license payload
//	- Date evaluator: pure validity-window rules including the grace period
//	- ValidationCache: content-addressed memoization of full results
//	- Validator: the orchestrator composing all of the above
//
// # Validation Flow
//
// A call to Validator.Validate proceeds through ordered checks:
//
//	1. Cache lookup keyed by (publicKeyThumbprint, checksum)
//	2. Signature verification of the payload bytes
//	3. Payload decoding into a License
//	4. Date evaluation with the grace-period branch
//	5. Feature filtering and result caching
//
// Signature verification always precedes trusting any payload field. Every
// failure mode is converted into one of the terminal ValidationStatus
// values; the entry point never returns an error and never panics.
//
// # Concurrency
//
// The Validator is constructed once per process and invoked concurrently.
// The cache is the only shared mutable state; identical concurrent requests
// are collapsed through singleflight, and a benign overwrite race on the
// cache is acceptable because the computation is deterministic.
//
// # Display Codes
//
// The code codec produces support correlation codes only. A display code is
// never an input to a trust decision; the signed envelope is the sole
// authorization artifact.
package license
