// Package ws implements the WebSocket hub that streams the evaluation
// history to connected dashboard clients, so every open browser tab sees new
// evaluations without polling.
package ws
