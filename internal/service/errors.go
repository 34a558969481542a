package service

import "errors"

var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrMissingClientID = errors.New("missing x-browser-id header")
	ErrSessionNotFound = errors.New("session not found")
)
