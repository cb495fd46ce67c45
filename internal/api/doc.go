// Package api implements the REST surface of noxwise-server: band and
// statistics lookups, the evaluate endpoint that chains the prediction
// service and the recommendation engine, and the evaluation history with its
// CSV export.
package api
