// Package http provides the HTTP client that performs the exchanges of a
// resting script.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts
//   - Redirect handling
//   - TLS verification and proxy settings
//   - Optional rate limiting of exchanges
//   - JSON request bodies built from templated values
//   - Response buffering, so bodies can be queried after the exchange
package http
