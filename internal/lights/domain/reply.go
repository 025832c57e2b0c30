package lights

import (
	"bytes"
	"encoding/json"
	"errors"
)

// DeviceError is the error object a fixture returns for a rejected request.
type DeviceError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Reply is a decoded reply datagram.
type Reply struct {
	Method string          `json:"method,omitempty"`
	Env    string          `json:"env,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *DeviceError    `json:"error,omitempty"`
}

// Pilot is the state reported by getPilot. Missing fields stay nil.
type Pilot struct {
	Success *bool  `json:"success,omitempty"`
	State   *bool  `json:"state,omitempty"`
	Dimming *int   `json:"dimming,omitempty"`
	Temp    *int   `json:"temp,omitempty"`
	R       *int   `json:"r,omitempty"`
	G       *int   `json:"g,omitempty"`
	B       *int   `json:"b,omitempty"`
	SceneID *int   `json:"sceneId,omitempty"`
	MAC     string `json:"mac,omitempty"`
	RSSI    *int   `json:"rssi,omitempty"`
}

// HasResult reports whether the reply carries a result object.
func (r *Reply) HasResult() bool {
	if r == nil {
		return false
	}
	trimmed := bytes.TrimSpace(r.Result)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Success reports whether result.success is true.
func (r *Reply) Success() bool {
	if !r.HasResult() {
		return false
	}
	pilot, err := r.Pilot()
	if err != nil {
		return false
	}
	return pilot.Success != nil && *pilot.Success
}

// Pilot decodes the result object.
func (r *Reply) Pilot() (Pilot, error) {
	var pilot Pilot
	if !r.HasResult() {
		return pilot, errors.New("lights: reply has no result")
	}
	if err := json.Unmarshal(r.Result, &pilot); err != nil {
		return pilot, err
	}
	return pilot, nil
}
