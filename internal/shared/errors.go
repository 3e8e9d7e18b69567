package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Publication errors. Each kind is surfaced to callers as-is and checked with errors.Is.
	ErrNotFound           = fmt.Errorf("no results found")
	ErrInvalidRecipient   = fmt.Errorf("student has no email on record")
	ErrAccountRestricted  = fmt.Errorf("student account is restricted")
	ErrOrphanedData       = fmt.Errorf("result has no matching student")
	ErrRenderFailure      = fmt.Errorf("failed to generate marksheet")
	ErrDispatchFailure    = fmt.Errorf("failed to send marksheet")
	ErrInternalProcessing = fmt.Errorf("internal processing error")

	// Transport errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
