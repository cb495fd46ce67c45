// Package metrics exposes operational counters for noxwise-server in the
// Prometheus text exposition format at GET /metrics: evaluations by risk
// level, prediction-service failures, and the current history depth.
package metrics
