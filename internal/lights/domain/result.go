package lights

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// Outcome error kinds.
const (
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
)

// Outcome is the per-device record of one fleet operation.
type Outcome struct {
	Address   string          `json:"ip"`
	Reached   bool            `json:"reached"`
	Succeeded bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Result aggregates every outcome of a fleet operation.
type Result struct {
	Status   string    `json:"status"`
	Outcomes []Outcome `json:"results"`
}

// NewResult derives the overall status from the outcomes. An empty fleet
// is a success.
func NewResult(outcomes []Outcome) Result {
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	status := StatusSuccess
	for _, o := range outcomes {
		if !o.Succeeded {
			status = StatusPartial
			break
		}
	}
	return Result{Status: status, Outcomes: outcomes}
}

// AllSucceeded reports whether every device succeeded.
func (r Result) AllSucceeded() bool { return r.Status == StatusSuccess }

// Err returns ErrPartialFleetFailure for partial results.
func (r Result) Err() error {
	if r.Status == StatusPartial {
		return ErrPartialFleetFailure
	}
	return nil
}

// Counts returns the number of succeeded and unreached devices.
func (r Result) Counts() (succeeded, unreached int) {
	for _, o := range r.Outcomes {
		if o.Succeeded {
			succeeded++
		}
		if !o.Reached {
			unreached++
		}
	}
	return succeeded, unreached
}

// LightStatus is the dashboard view of one status query outcome.
type LightStatus struct {
	Address    string `json:"ip"`
	Online     bool   `json:"online"`
	State      bool   `json:"state"`
	Brightness int    `json:"brightness"`
	Temp       *int   `json:"temp,omitempty"`
	Color      string `json:"color,omitempty"`
}

// StatusFromOutcome builds a LightStatus from a getPilot outcome. Online
// fixtures without a dimming field report full brightness; offline ones
// report off at zero.
func StatusFromOutcome(o Outcome) LightStatus {
	status := LightStatus{Address: o.Address}
	if !o.Succeeded {
		return status
	}
	reply := Reply{Result: o.Data}
	pilot, err := reply.Pilot()
	if err != nil {
		return status
	}
	status.Online = true
	status.Brightness = DefaultBrightness
	if pilot.State != nil {
		status.State = *pilot.State
	}
	if pilot.Dimming != nil {
		status.Brightness = *pilot.Dimming
	}
	status.Temp = pilot.Temp
	if pilot.R != nil && pilot.G != nil && pilot.B != nil {
		status.Color = RGBToHex(*pilot.R, *pilot.G, *pilot.B)
	}
	return status
}

// StatusesFromResult maps every outcome of a status query.
func StatusesFromResult(r Result) []LightStatus {
	out := make([]LightStatus, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, StatusFromOutcome(o))
	}
	return out
}
