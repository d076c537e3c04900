// Package auth enforces API key authentication on the framewatch intake
// surfaces: an HTTP middleware for the REST API and a gRPC unary interceptor
// for collectors receiving shipped report batches.
//
// Both follow the same rules, driven by config.AuthConfig:
//   - mode other than "apikey", or an empty resolved key, allows everything;
//   - otherwise the configured header (or metadata key) must equal the key.
package auth
