package lights

import (
	"encoding/json"
	"maps"
)

const (
	MethodSetPilot = "setPilot"
	MethodGetPilot = "getPilot"
)

// DefaultBrightness is used when a caller does not pick a dimming level.
const DefaultBrightness = 100

// Command is a single wire request for a fixture.
type Command struct {
	method string
	params map[string]any
}

func newCommand(method string, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	return Command{method: method, params: params}
}

// Method returns the protocol method name.
func (c Command) Method() string { return c.method }

// Params returns a copy of the command parameters.
func (c Command) Params() map[string]any {
	return maps.Clone(c.params)
}

// IsQuery reports whether the command reads state instead of changing it.
func (c Command) IsQuery() bool { return c.method == MethodGetPilot }

// MarshalJSON encodes the command as {"method": ..., "params": {...}}.
func (c Command) MarshalJSON() ([]byte, error) {
	params := c.params
	if params == nil {
		params = map[string]any{}
	}
	return json.Marshal(struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}{Method: c.method, Params: params})
}

// UnmarshalJSON decodes a command stored by MarshalJSON.
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = newCommand(raw.Method, raw.Params)
	return nil
}

// Succeeded applies the success rule for this command to a reply.
// Status queries only need a result object; mutations need result.success.
func (c Command) Succeeded(reply *Reply) bool {
	if reply == nil || reply.Error != nil {
		return false
	}
	if c.IsQuery() {
		return reply.HasResult()
	}
	return reply.Success()
}

// Power switches a fixture on or off.
func Power(on bool) Command {
	return newCommand(MethodSetPilot, map[string]any{"state": on})
}

// Color sets an RGB color. Values are passed through as given.
func Color(r, g, b, brightness int) Command {
	return newCommand(MethodSetPilot, map[string]any{
		"state":   true,
		"r":       r,
		"g":       g,
		"b":       b,
		"dimming": brightness,
	})
}

// Temperature sets a white color temperature in Kelvin.
func Temperature(kelvin, brightness int) Command {
	return newCommand(MethodSetPilot, map[string]any{
		"state":   true,
		"temp":    kelvin,
		"dimming": brightness,
	})
}

// Brightness changes the dimming level only. It never carries a state
// parameter so an off fixture stays off.
func Brightness(level int) Command {
	return newCommand(MethodSetPilot, map[string]any{"dimming": level})
}

// StatusQuery reads the current pilot state.
func StatusQuery() Command {
	return newCommand(MethodGetPilot, nil)
}
