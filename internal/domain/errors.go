package domain

import "errors"

// Sentinel errors shared across modules. Handlers map these onto HTTP
// status codes (validation -> 400/422, not found -> 404).
var (
	ErrUnknownPolicyKind     = errors.New("unknown policy kind")
	ErrPolicyValueOutOfRange = errors.New("policy value out of range")
	ErrNoCalibrationTargets  = errors.New("no calibration targets")
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
)
