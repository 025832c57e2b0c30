package lights

import (
	"context"
	"time"
)

// Operation names recorded in run history.
const (
	OperationPowerOn     = "power_on"
	OperationPowerOff    = "power_off"
	OperationColor       = "color"
	OperationTemperature = "temperature"
	OperationBrightness  = "brightness"
	OperationStatus      = "status"
)

// Run is one recorded fleet operation.
type Run struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Command    Command   `json:"command"`
	Status     string    `json:"status"`
	Outcomes   []Outcome `json:"results"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunRepository stores fleet run history.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
}
