package lights

import (
	"errors"
	"testing"
)

func TestHexToRGB(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
	}{
		{"#FF5733", 255, 87, 51},
		{"FF5733", 255, 87, 51},
		{"#000000", 0, 0, 0},
		{"ffffff", 255, 255, 255},
		{"#0a0B0c", 10, 11, 12},
	}
	for _, tc := range cases {
		r, g, b, err := HexToRGB(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if r != tc.r || g != tc.g || b != tc.b {
			t.Fatalf("%s: expected (%d,%d,%d), got (%d,%d,%d)", tc.in, tc.r, tc.g, tc.b, r, g, b)
		}
	}
}

func TestHexToRGBRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, 15, 16, 127, 128, 200, 254, 255} {
		hex := RGBToHex(v, 255-v, v/2)
		r, g, b, err := HexToRGB(hex)
		if err != nil {
			t.Fatalf("%s: %v", hex, err)
		}
		if r != v || g != 255-v || b != v/2 {
			t.Fatalf("%s: round trip mismatch (%d,%d,%d)", hex, r, g, b)
		}
		if again := RGBToHex(r, g, b); again != hex {
			t.Fatalf("expected %s, got %s", hex, again)
		}
	}
}

func TestHexToRGBInvalid(t *testing.T) {
	for _, in := range []string{"", "#", "FFF", "#FFFFF", "FFFFFFF", "##FFFFFF", "GGGGGG", "#12345Z", "+12345", " 12345"} {
		if _, _, _, err := HexToRGB(in); !errors.Is(err, ErrInvalidColorFormat) {
			t.Fatalf("%q: expected ErrInvalidColorFormat, got %v", in, err)
		}
	}
}

func TestHSVToRGB(t *testing.T) {
	cases := []struct {
		h, s, v int
		want    string
	}{
		{0, 100, 100, "#FF0000"},
		{120, 100, 100, "#00FF00"},
		{240, 100, 100, "#0000FF"},
		{360, 100, 100, "#FF0000"},
		{90, 0, 100, "#FFFFFF"},
		{0, 0, 0, "#000000"},
	}
	for _, tc := range cases {
		r, g, b := HSVToRGB(tc.h, tc.s, tc.v)
		if got := RGBToHex(r, g, b); got != tc.want {
			t.Fatalf("hsv(%d,%d,%d): expected %s, got %s", tc.h, tc.s, tc.v, tc.want, got)
		}
	}
}

func TestValidators(t *testing.T) {
	checks := []struct {
		err  error
		fail bool
	}{
		{ValidateBrightness(1), false},
		{ValidateBrightness(100), false},
		{ValidateBrightness(0), true},
		{ValidateBrightness(101), true},
		{ValidateChannel("r", 0), false},
		{ValidateChannel("r", 255), false},
		{ValidateChannel("g", 256), true},
		{ValidateChannel("b", -1), true},
		{ValidateKelvin(2200), false},
		{ValidateKelvin(6500), false},
		{ValidateKelvin(2199), true},
		{ValidateKelvin(7000), true},
	}
	for i, c := range checks {
		if c.fail && !errors.Is(c.err, ErrOutOfRange) {
			t.Fatalf("check %d: expected ErrOutOfRange, got %v", i, c.err)
		}
		if !c.fail && c.err != nil {
			t.Fatalf("check %d: unexpected error %v", i, c.err)
		}
	}
}

func TestLookupPresets(t *testing.T) {
	for _, in := range []string{"9", "Warm White", "warm-white", " WARM_WHITE "} {
		p, err := LookupColorPreset(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if p.Name != "Warm White" {
			t.Fatalf("%q: got %s", in, p.Name)
		}
	}
	tp, err := LookupTemperaturePreset("daylight")
	if err != nil || tp.Kelvin != 6500 {
		t.Fatalf("expected daylight 6500K, got %+v (%v)", tp, err)
	}
	if _, err := LookupColorPreset("magenta"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	for _, p := range TemperaturePresets() {
		if err := ValidateKelvin(p.Kelvin); err != nil {
			t.Fatalf("preset %s: %v", p.Name, err)
		}
	}
	if got := len(ColorPresets()); got != 9 {
		t.Fatalf("expected 9 color presets, got %d", got)
	}
}
