package service

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPublishInProgress is returned when a publish is requested for a
	// campaign that is already being published.
	ErrPublishInProgress = errors.New("publish already in progress")
)
