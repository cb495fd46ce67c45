// Package turbine defines the shared domain types for gas-turbine operating
// data: the canonical measurement field set, the parameter vector exchanged
// between the UI, the prediction service, and the recommendation engine, and
// the field-diff utility used wherever two vectors are compared.
package turbine
