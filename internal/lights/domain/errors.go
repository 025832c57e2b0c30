package lights

import "errors"

var (
	// ErrInvalidColorFormat is returned for hex codes that are not #RRGGBB or RRGGBB.
	ErrInvalidColorFormat = errors.New("lights: invalid hex color format, use #RRGGBB or RRGGBB")
	// ErrOutOfRange is returned by the input validators.
	ErrOutOfRange = errors.New("lights: value out of range")
	// ErrUnknownPreset is returned when a preset lookup misses.
	ErrUnknownPreset = errors.New("lights: unknown preset")
	// ErrPartialFleetFailure marks a fleet operation where at least one device failed.
	ErrPartialFleetFailure = errors.New("lights: partial fleet failure")
)
