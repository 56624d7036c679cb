package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionNotReady  = fmt.Errorf("session not ready")
	ErrAuthorizeFailed  = fmt.Errorf("authorization failed")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrFlowSuperseded   = fmt.Errorf("flow superseded")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Popup errors
	ErrPopupBlocked   = fmt.Errorf("popup blocked")
	ErrPopupClosed    = fmt.Errorf("popup closed before completion")
	ErrWindowDetached = fmt.Errorf("window already closed")

	// API and payment errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrChargeFailed       = fmt.Errorf("charge failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
