package lights

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinBrightness = 1
	MaxBrightness = 100
	MinKelvin     = 2200
	MaxKelvin     = 6500
)

// HexToRGB parses #RRGGBB or RRGGBB.
func HexToRGB(code string) (r, g, b int, err error) {
	hex := strings.TrimPrefix(code, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidColorFormat, code)
	}
	var channels [3]int
	for i := range channels {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidColorFormat, code)
		}
		channels[i] = int(v)
	}
	return channels[0], channels[1], channels[2], nil
}

// RGBToHex formats a color as #RRGGBB.
func RGBToHex(r, g, b int) string {
	return fmt.Sprintf("#%02X%02X%02X", r&0xff, g&0xff, b&0xff)
}

// HSVToRGB converts hue (0-360), saturation and value (0-100) to 8-bit RGB
// using integer math.
func HSVToRGB(hue, saturation, value int) (r, g, b int) {
	hue = ((hue % 360) + 360) % 360
	saturation = clampInt(saturation, 0, 100)
	value = clampInt(value, 0, 100)

	v := value * 255 / 100
	if saturation == 0 {
		return v, v, v
	}

	region := hue / 60
	rem := (hue % 60) * 255 / 60
	p := v * (100 - saturation) / 100
	q := v * (100 - saturation*rem/255) / 100
	t := v * (100 - saturation*(255-rem)/255) / 100

	switch region {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// ValidateBrightness checks a dimming level.
func ValidateBrightness(level int) error {
	return validateRange("brightness", level, MinBrightness, MaxBrightness)
}

// ValidateChannel checks one 8-bit color channel.
func ValidateChannel(name string, value int) error {
	return validateRange(name, value, 0, 255)
}

// ValidateKelvin checks a color temperature.
func ValidateKelvin(kelvin int) error {
	return validateRange("kelvin", kelvin, MinKelvin, MaxKelvin)
}

func validateRange(field string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrOutOfRange, field, lo, hi, value)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
