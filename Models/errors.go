package Models

import "errors"

// Failure taxonomy shared by the lifecycle and the capture session. Handlers
// map these onto HTTP statuses; none of them is fatal to the process.
var (
	ErrNotFound           = errors.New("inspection not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrValidationFailed   = errors.New("validation failed")
	ErrDeviceAccessDenied = errors.New("device access denied")
)

// HTTPStatus maps a taxonomy error onto the status code handlers respond
// with. Unknown errors are treated as server faults.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrValidationFailed):
		return 400
	case errors.Is(err, ErrPreconditionFailed):
		return 409
	case errors.Is(err, ErrDeviceAccessDenied):
		return 403
	default:
		return 500
	}
}
