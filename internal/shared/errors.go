package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrAuthRejected     = fmt.Errorf("session rejected by server")
	ErrUnauthenticated  = fmt.Errorf("not authenticated")
	ErrTransportFailure = fmt.Errorf("service unreachable")

	// Input validation errors
	ErrValidationRejected = fmt.Errorf("rejected by server")
	ErrInvalidPreferences = fmt.Errorf("invalid preferences")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrMissingArgument    = fmt.Errorf("missing required argument")

	// Local state errors
	ErrApplyInFlight = fmt.Errorf("preferences are already being applied")
	ErrNothingToPlay = fmt.Errorf("no podcast available to play")
)
