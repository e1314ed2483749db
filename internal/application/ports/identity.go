package ports

import (
	"context"
	"fmt"
)

// ProvisionErrorKind classifies why an account key could not be obtained.
type ProvisionErrorKind string

const (
	ProvisionErrorTLS       ProvisionErrorKind = "tls"
	ProvisionErrorTransport ProvisionErrorKind = "transport"
	ProvisionErrorStatus    ProvisionErrorKind = "http_status"
	ProvisionErrorMalformed ProvisionErrorKind = "malformed_response"
)

// ProvisionError is a classified failure from the identity service. Status is 0 when no response was received.
type ProvisionError struct {
	Kind    ProvisionErrorKind
	Status  int
	Message string
}

func (e *ProvisionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AccountKeyResult holds exactly one of AccountKey or Failure.
type AccountKeyResult struct {
	AccountKey string
	Failure    *ProvisionError
}

// AccountKeySucceeded builds a successful result.
func AccountKeySucceeded(accountKey string) AccountKeyResult {
	return AccountKeyResult{AccountKey: accountKey}
}

// AccountKeyFailed builds a failed result.
func AccountKeyFailed(failure *ProvisionError) AccountKeyResult {
	return AccountKeyResult{Failure: failure}
}

// Succeeded reports whether the result carries an account key.
func (r AccountKeyResult) Succeeded() bool {
	return r.Failure == nil
}

// AccountKeyClient obtains an account key from the external identity service.
// It never returns raw transport errors; every failure is classified in the result.
type AccountKeyClient interface {
	FetchAccountKey(ctx context.Context, email, internalKey string) AccountKeyResult
}
