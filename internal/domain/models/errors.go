package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies forecast failures.
type ErrorKind string

const (
	KindInputParse          ErrorKind = "InputParseError"
	KindInvalidRequest      ErrorKind = "InvalidRequestError"
	KindInsufficientHistory ErrorKind = "InsufficientHistory"
	KindPredictorFailure    ErrorKind = "PredictorFailure"
	KindUnexpected          ErrorKind = "UnexpectedError"
)

// ForecastError carries a failure category alongside the cause.
type ForecastError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ForecastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ForecastError) Unwrap() error { return e.Err }

// IsClientError reports whether the failure was caused by the request itself.
func (e *ForecastError) IsClientError() bool {
	switch e.Kind {
	case KindInputParse, KindInvalidRequest, KindInsufficientHistory:
		return true
	}
	return false
}

func NewInputParseError(msg string, err error) *ForecastError {
	return &ForecastError{Kind: KindInputParse, Message: msg, Err: err}
}

func NewInvalidRequestError(msg string, err error) *ForecastError {
	return &ForecastError{Kind: KindInvalidRequest, Message: msg, Err: err}
}

func NewInsufficientHistoryError(have, need int) *ForecastError {
	return &ForecastError{
		Kind:    KindInsufficientHistory,
		Message: fmt.Sprintf("Insufficient data. Need at least %d days, got %d", need, have),
	}
}

func NewPredictorFailure(err error) *ForecastError {
	return &ForecastError{Kind: KindPredictorFailure, Message: "predictor failed", Err: err}
}

// AsForecastError unwraps err into a ForecastError, classifying anything else as unexpected.
func AsForecastError(err error) *ForecastError {
	var fe *ForecastError
	if errors.As(err, &fe) {
		return fe
	}
	return &ForecastError{Kind: KindUnexpected, Message: "unexpected error", Err: err}
}
