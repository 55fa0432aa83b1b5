// Package middleware provides HTTP middleware for the media explorer.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with the access token redacted
//   - Prometheus request metrics labeled by route template
//   - Shared-secret token checks (query "token" or header "X-Token")
package middleware
