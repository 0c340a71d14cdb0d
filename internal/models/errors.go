package models

import "errors"

// Custom errors
var (
	ErrNoTrainingData   = errors.New("no historical rows with known outcome")
	ErrNothingToPredict = errors.New("no races scheduled for the prediction date")
	ErrNotTrained       = errors.New("ensemble must be trained before predicting")
	ErrNotFound         = errors.New("record not found")
	ErrInvalidID        = errors.New("invalid ID format")
)
