// Package middleware provides HTTP middleware for the viewer's status server.
//
// It includes:
//   - Request logging in W3C Extended Log Format through the logging package
//   - Prometheus request metrics labelled by route template
package middleware
