package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/observability/metrics"
)

// Clock provides time for run records.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service exposes the fleet operations offered to operators. Inputs are
// validated before any datagram is sent.
type Service struct {
	fleet            *Fleet
	addresses        []string
	runs             lights.RunRepository
	logger           *log.Logger
	clock            Clock
	operationTimeout time.Duration
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithRunRepository records every fleet operation.
func WithRunRepository(repo lights.RunRepository) ServiceOption {
	return func(s *Service) {
		if repo != nil {
			s.runs = repo
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithOperationTimeout bounds each whole fleet operation.
func WithOperationTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.operationTimeout = timeout
		}
	}
}

// NewService constructs a service over a fixed, ordered address list.
func NewService(fleet *Fleet, addresses []string, opts ...ServiceOption) (*Service, error) {
	if fleet == nil {
		return nil, errors.New("lights service: nil fleet")
	}
	s := &Service{
		fleet:     fleet,
		addresses: slices.Clone(addresses),
		logger:    log.New(io.Discard, "", 0),
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addresses returns the configured fixture addresses.
func (s *Service) Addresses() []string { return slices.Clone(s.addresses) }

// TurnOn switches every fixture on.
func (s *Service) TurnOn(ctx context.Context) (lights.Result, error) {
	return s.run(ctx, lights.OperationPowerOn, lights.Power(true)), nil
}

// TurnOff switches every fixture off.
func (s *Service) TurnOff(ctx context.Context) (lights.Result, error) {
	return s.run(ctx, lights.OperationPowerOff, lights.Power(false)), nil
}

// SetColor sets an RGB color on every fixture.
func (s *Service) SetColor(ctx context.Context, r, g, b, brightness int) (lights.Result, error) {
	if err := firstError(
		lights.ValidateChannel("r", r),
		lights.ValidateChannel("g", g),
		lights.ValidateChannel("b", b),
		lights.ValidateBrightness(brightness),
	); err != nil {
		return lights.Result{}, reject(err)
	}
	return s.run(ctx, lights.OperationColor, lights.Color(r, g, b, brightness)), nil
}

// SetColorHex sets a #RRGGBB color on every fixture.
func (s *Service) SetColorHex(ctx context.Context, code string, brightness int) (lights.Result, error) {
	r, g, b, err := lights.HexToRGB(code)
	if err != nil {
		return lights.Result{}, reject(err)
	}
	return s.SetColor(ctx, r, g, b, brightness)
}

// SetColorPreset sets a named color on every fixture.
func (s *Service) SetColorPreset(ctx context.Context, preset string, brightness int) (lights.Result, error) {
	p, err := lights.LookupColorPreset(preset)
	if err != nil {
		return lights.Result{}, reject(fmt.Errorf("%w: color %q", err, preset))
	}
	return s.SetColor(ctx, p.R, p.G, p.B, brightness)
}

// SetHSV sets a hue/saturation color at the given brightness.
func (s *Service) SetHSV(ctx context.Context, hue, saturation, brightness int) (lights.Result, error) {
	if hue < 0 || hue > 360 {
		return lights.Result{}, reject(fmt.Errorf("%w: hue must be between 0 and 360, got %d", lights.ErrOutOfRange, hue))
	}
	if saturation < 0 || saturation > 100 {
		return lights.Result{}, reject(fmt.Errorf("%w: saturation must be between 0 and 100, got %d", lights.ErrOutOfRange, saturation))
	}
	r, g, b := lights.HSVToRGB(hue, saturation, 100)
	return s.SetColor(ctx, r, g, b, brightness)
}

// SetTemperature sets a white temperature on every fixture.
func (s *Service) SetTemperature(ctx context.Context, kelvin, brightness int) (lights.Result, error) {
	if err := firstError(lights.ValidateKelvin(kelvin), lights.ValidateBrightness(brightness)); err != nil {
		return lights.Result{}, reject(err)
	}
	return s.run(ctx, lights.OperationTemperature, lights.Temperature(kelvin, brightness)), nil
}

// SetTemperaturePreset sets a named white temperature on every fixture.
func (s *Service) SetTemperaturePreset(ctx context.Context, preset string, brightness int) (lights.Result, error) {
	p, err := lights.LookupTemperaturePreset(preset)
	if err != nil {
		return lights.Result{}, reject(fmt.Errorf("%w: temperature %q", err, preset))
	}
	return s.SetTemperature(ctx, p.Kelvin, brightness)
}

// SetBrightness changes the dimming level without touching power state.
func (s *Service) SetBrightness(ctx context.Context, level int) (lights.Result, error) {
	if err := lights.ValidateBrightness(level); err != nil {
		return lights.Result{}, reject(err)
	}
	return s.run(ctx, lights.OperationBrightness, lights.Brightness(level)), nil
}

// Status queries every fixture.
func (s *Service) Status(ctx context.Context) (lights.Result, []lights.LightStatus, error) {
	result := s.run(ctx, lights.OperationStatus, lights.StatusQuery())
	return result, lights.StatusesFromResult(result), nil
}

// Runs lists recorded fleet operations, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]lights.Run, error) {
	if s.runs == nil {
		return []lights.Run{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.runs.List(ctx, limit)
}

func (s *Service) run(ctx context.Context, operation string, cmd lights.Command) lights.Result {
	opCtx := ctx
	if s.operationTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, s.operationTimeout)
		defer cancel()
	}

	startedAt := s.clock.Now()
	result := s.fleet.Apply(opCtx, s.addresses, func() lights.Command { return cmd })
	finishedAt := s.clock.Now()

	succeeded, unreached := result.Counts()
	metrics.ObserveFleetOperation(operation, result.Status, unreached, finishedAt.Sub(startedAt))
	s.logger.Printf("fleet %s: status=%s succeeded=%d/%d unreached=%d", operation, result.Status, succeeded, len(result.Outcomes), unreached)

	s.record(context.WithoutCancel(ctx), &lights.Run{
		ID:         newRunID(),
		Operation:  operation,
		Command:    cmd,
		Status:     result.Status,
		Outcomes:   result.Outcomes,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	})
	return result
}

func (s *Service) record(ctx context.Context, run *lights.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(ctx, run); err != nil {
		metrics.IncRunStoreError()
		s.logger.Printf("fleet %s: save run %s: %v", run.Operation, run.ID, err)
	}
}

func reject(err error) error {
	switch {
	case errors.Is(err, lights.ErrInvalidColorFormat):
		metrics.IncRejectedRequest("invalid_color")
	case errors.Is(err, lights.ErrUnknownPreset):
		metrics.IncRejectedRequest("unknown_preset")
	case errors.Is(err, lights.ErrOutOfRange):
		metrics.IncRejectedRequest("out_of_range")
	default:
		metrics.IncRejectedRequest("invalid")
	}
	return err
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func newRunID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "run-" + hex.EncodeToString(buf)
}
