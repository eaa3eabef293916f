package services

import "errors"

// Data service errors
var (
	// Snapshot errors
	ErrNoSnapshots  = errors.New("no snapshot files found")
	ErrNotLoaded    = errors.New("market data not loaded")
	ErrReloadFailed = errors.New("snapshot reload failed")

	// Ticker errors
	ErrTickerNotFound = errors.New("ticker not found")
	ErrInvalidTicker  = errors.New("invalid ticker symbol")

	// Pricing errors
	ErrPriceUnavailable = errors.New("price unavailable")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
