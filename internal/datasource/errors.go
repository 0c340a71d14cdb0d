package datasource

import "errors"

var (
	// ErrNoDataFile means the venue has no downloaded race-card file.
	ErrNoDataFile = errors.New("race-card file not found for venue")
	// ErrMalformedCard means the CSV could not be parsed into records.
	ErrMalformedCard = errors.New("race-card file is malformed")
	// ErrCircuitOpen means the upstream API has failed repeatedly and calls
	// are being short-circuited.
	ErrCircuitOpen = errors.New("data source circuit breaker open")
)
