// Package stats derives per-field descriptive statistics from the historical
// turbine readings dataset. The statistics feed the dashboard's "normal
// operating envelope" context; they are computed once at load time and are
// read-only thereafter.
package stats
