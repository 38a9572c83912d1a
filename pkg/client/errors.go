package client

import (
	"errors"
	"fmt"
)

// TransportMessage is shown to the user for any failure that happened
// before the provider produced an answer.
const TransportMessage = "Failed to fetch weather data."

// ProviderError means the provider answered but signalled failure, e.g. an
// unknown city, an exhausted quota or a rejected API key.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// TransportError wraps network, timeout, circuit breaker and decoding
// failures.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
