// Package app assembles the flowpulse server: configuration, logging,
// the data service with its cache and pricing client, the websocket hub,
// and the chi router with the full middleware chain.
package app
