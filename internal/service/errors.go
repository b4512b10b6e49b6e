package service

import "errors"

var (
	// ErrRouterBatch marks a partner batch the semantic router failed as a whole
	ErrRouterBatch = errors.New("router batch failed")
	// ErrMissingTarget marks an answer the router could not place on a canonical item
	ErrMissingTarget = errors.New("no canonical target")
	// ErrPersonalization marks a failed program text generation
	ErrPersonalization = errors.New("personalization failed")
	// ErrMalformedOutput marks generator output that could not be parsed
	ErrMalformedOutput = errors.New("malformed model output")

	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrNoAnswers          = errors.New("assessment has no answers")
	ErrNoPrediction       = errors.New("assessment has no prediction yet")
	ErrInvalidAnswer      = errors.New("invalid answer")
)
