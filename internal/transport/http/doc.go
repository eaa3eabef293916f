// Package http contains the HTTP handlers for the flowpulse API. Handlers
// translate between the wire and the service layer; all aggregation lives
// in the services package. Errors surface as RFC 7807 problem documents.
package http
