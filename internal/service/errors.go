package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEditingFrozen is returned when forecast editing is attempted outside
	// the freeze window by a non-privileged role
	ErrEditingFrozen = errors.New("forecast editing is closed outside the allowed window")

	// ErrInvalidProjectNumber is returned when a project number doesn't match DP followed by six digits
	ErrInvalidProjectNumber = errors.New("project number must match DP followed by six digits")

	// ErrInvalidOPID is returned when an OP id doesn't match OP followed by six digits
	ErrInvalidOPID = errors.New("OP id must match OP followed by six digits")

	// ErrProjectNumberRequired is returned when an order-backed forecast is missing its project number
	ErrProjectNumberRequired = errors.New("project number is required for order-backed forecasts")

	// ErrNoPositiveAmounts is returned when a submission carries no positive month amounts
	ErrNoPositiveAmounts = errors.New("at least one positive forecast amount is required")

	// ErrOPForecastExists is returned when the submitted OP id is already
	// registered for the same forecast type
	ErrOPForecastExists = errors.New("OP id already exists for this forecast type")

	// ErrConfirmationRequired is returned when an OP id submission would
	// aggregate onto an existing forecast and the user has not confirmed it
	ErrConfirmationRequired = errors.New("aggregation onto an existing forecast requires confirmation")

	// ErrUnsupportedFile is returned when an upload is not an xlsx workbook
	ErrUnsupportedFile = errors.New("only .xlsx workbooks are supported")
)
