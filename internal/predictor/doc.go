// Package predictor is the HTTP client for the external NOx prediction
// service. One band maps to one endpoint; the request body is the nine-field
// parameter vector and the response carries a single predicted value.
//
// A failed prediction is surfaced to the caller as an *UnavailableError with
// the attempted endpoint attached — never silently defaulted.
package predictor
