package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrEmptyBatch             = errors.New("no reviews provided for analysis")
	ErrGeneratorNotConfigured = errors.New("text generator is not configured")
	ErrInvalidReview          = errors.New("invalid review")
)
