package domain

import "errors"

// GenerationErrorMessage is the only text callers see when the model fails.
const GenerationErrorMessage = "Internal error invoking the model. Please let us know that you are experiencing this error."

var (
	// ErrAuthentication indicates a malformed scheme or a credential without the configured prefix.
	ErrAuthentication = errors.New("Invalid bearer token") //nolint:staticcheck // surfaced verbatim to clients

	// ErrValidation indicates a payload that does not satisfy its schema.
	ErrValidation = errors.New("invalid request payload")

	// ErrGeneration indicates the model engine failed; the message never carries engine detail.
	ErrGeneration = errors.New(GenerationErrorMessage)

	// ErrConfiguration indicates a startup configuration the gateway cannot serve.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAdmission indicates the admission queue is full.
	ErrAdmission = errors.New("too many pending requests, retry later")

	// ErrRequestTimeout indicates the caller stopped waiting for its result.
	ErrRequestTimeout = errors.New("timed out waiting for completion")

	// ErrWorkerStopped indicates the worker shut down before the job ran.
	ErrWorkerStopped = errors.New("completion worker stopped")

	// ErrUnsupportedType indicates a completion type that is not active in this deployment.
	ErrUnsupportedType = errors.New("completion type not enabled")
)
