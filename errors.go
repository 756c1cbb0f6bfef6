package main

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	InvalidRequest ErrorKind = iota + 1
	TransportFailure
	EmptyResponse
	DecodeFailure
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrTransportFailure = errors.New("transport failure")
	ErrEmptyResponse    = errors.New("empty response")
	ErrDecodeFailure    = errors.New("decode failure")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidRequest:
		return ErrInvalidRequest
	case TransportFailure:
		return ErrTransportFailure
	case EmptyResponse:
		return ErrEmptyResponse
	case DecodeFailure:
		return ErrDecodeFailure
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// SearchError is what a failed search surfaces to its caller. Message is
// meant for display; Err keeps the underlying cause for logs.
type SearchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newSearchError(kind ErrorKind, msg string, cause error) *SearchError {
	return &SearchError{Kind: kind, Message: msg, Err: cause}
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SearchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransportFailure) match on the kind.
func (e *SearchError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
