package lights

import "strings"

// ColorPreset is a named RGB color.
type ColorPreset struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	R    int    `json:"r"`
	G    int    `json:"g"`
	B    int    `json:"b"`
}

// TemperaturePreset is a named white temperature.
type TemperaturePreset struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Kelvin int    `json:"kelvin"`
}

var colorPresets = []ColorPreset{
	{Key: "1", Name: "Red", R: 255, G: 0, B: 0},
	{Key: "2", Name: "Green", R: 0, G: 255, B: 0},
	{Key: "3", Name: "Blue", R: 0, G: 0, B: 255},
	{Key: "4", Name: "Yellow", R: 255, G: 255, B: 0},
	{Key: "5", Name: "Purple", R: 128, G: 0, B: 128},
	{Key: "6", Name: "Cyan", R: 0, G: 255, B: 255},
	{Key: "7", Name: "Orange", R: 255, G: 165, B: 0},
	{Key: "8", Name: "Pink", R: 255, G: 192, B: 203},
	{Key: "9", Name: "Warm White", R: 255, G: 230, B: 200},
}

var temperaturePresets = []TemperaturePreset{
	{Key: "1", Name: "Candle Light", Kelvin: 2200},
	{Key: "2", Name: "Warm White", Kelvin: 2700},
	{Key: "3", Name: "Soft White", Kelvin: 3000},
	{Key: "4", Name: "Neutral White", Kelvin: 4000},
	{Key: "5", Name: "Cool White", Kelvin: 5000},
	{Key: "6", Name: "Daylight", Kelvin: 6500},
}

// ColorPresets lists the color presets in menu order.
func ColorPresets() []ColorPreset {
	out := make([]ColorPreset, len(colorPresets))
	copy(out, colorPresets)
	return out
}

// TemperaturePresets lists the temperature presets in menu order.
func TemperaturePresets() []TemperaturePreset {
	out := make([]TemperaturePreset, len(temperaturePresets))
	copy(out, temperaturePresets)
	return out
}

// LookupColorPreset finds a preset by key or case-insensitive name.
func LookupColorPreset(keyOrName string) (ColorPreset, error) {
	needle := normalizePresetName(keyOrName)
	for _, p := range colorPresets {
		if p.Key == needle || normalizePresetName(p.Name) == needle {
			return p, nil
		}
	}
	return ColorPreset{}, ErrUnknownPreset
}

// LookupTemperaturePreset finds a preset by key or case-insensitive name.
func LookupTemperaturePreset(keyOrName string) (TemperaturePreset, error) {
	needle := normalizePresetName(keyOrName)
	for _, p := range temperaturePresets {
		if p.Key == needle || normalizePresetName(p.Name) == needle {
			return p, nil
		}
	}
	return TemperaturePreset{}, ErrUnknownPreset
}

// "Warm White", "warm-white" and "warm_white" all match.
func normalizePresetName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
