// Package auth provides API key authentication middleware for the HTTP API
// and the WebSocket stream. The key is compared against a value resolved
// from the environment; unconfigured auth passes every request through.
package auth
