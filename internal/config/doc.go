// Package config loads the noxwise-server configuration from config.yaml.
//
// Sections:
//   - server:    HTTP port, API auth, history capacity, ws broadcast interval
//   - predictor: base URL and timeout of the external prediction service
//   - engine:    advisory/action caps, diff threshold, rule thresholds
//   - data:      path to the historical dataset CSV
//   - bands:     one entry per load band — label, prediction endpoint,
//     operating envelope, band medians, yield range, limits
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(path) hot-reloads band and engine tuning on file change.
package config
