package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/lights/infrastructure/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

type failingRepo struct{}

func (failingRepo) Save(context.Context, *lights.Run) error { return errors.New("disk full") }
func (failingRepo) List(context.Context, int) ([]lights.Run, error) {
	return nil, errors.New("disk full")
}

type recordingExchanger struct {
	*stubExchanger
	commands []lights.Command
}

func (r *recordingExchanger) Send(ctx context.Context, address string, cmd lights.Command) (*lights.Reply, error) {
	r.commands = append(r.commands, cmd)
	return r.stubExchanger.Send(ctx, address, cmd)
}

func newTestService(t *testing.T, addrs []string, opts ...ServiceOption) (*Service, *recordingExchanger) {
	t.Helper()
	stub := &recordingExchanger{stubExchanger: newStubExchanger()}
	for _, a := range addrs {
		stub.set(a, successReply())
	}
	fleet := mustFleet(t, stub, WithDelay(0))
	svc, err := NewService(fleet, addrs, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, stub
}

func TestNewServiceNilFleet(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatalf("expected error for nil fleet")
	}
}

func TestServiceValidationSendsNothing(t *testing.T) {
	svc, stub := newTestService(t, []string{"10.0.0.1"})
	ctx := context.Background()

	cases := []struct {
		name string
		call func() (lights.Result, error)
		want error
	}{
		{"red out of range", func() (lights.Result, error) { return svc.SetColor(ctx, 256, 0, 0, 100) }, lights.ErrOutOfRange},
		{"brightness zero", func() (lights.Result, error) { return svc.SetColor(ctx, 255, 0, 0, 0) }, lights.ErrOutOfRange},
		{"bad hex", func() (lights.Result, error) { return svc.SetColorHex(ctx, "#GG0000", 100) }, lights.ErrInvalidColorFormat},
		{"unknown color preset", func() (lights.Result, error) { return svc.SetColorPreset(ctx, "magenta", 100) }, lights.ErrUnknownPreset},
		{"hue out of range", func() (lights.Result, error) { return svc.SetHSV(ctx, 361, 100, 100) }, lights.ErrOutOfRange},
		{"kelvin too low", func() (lights.Result, error) { return svc.SetTemperature(ctx, 2000, 100) }, lights.ErrOutOfRange},
		{"unknown temp preset", func() (lights.Result, error) { return svc.SetTemperaturePreset(ctx, "sunset", 100) }, lights.ErrUnknownPreset},
		{"brightness too high", func() (lights.Result, error) { return svc.SetBrightness(ctx, 101) }, lights.ErrOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.call(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if calls := stub.Calls(); len(calls) != 0 {
		t.Fatalf("validation failures must not reach the network, got %v", calls)
	}
}

func TestServicePresetsResolveToCommands(t *testing.T) {
	svc, stub := newTestService(t, []string{"10.0.0.1"})
	ctx := context.Background()

	if _, err := svc.SetColorPreset(ctx, "Orange", 60); err != nil {
		t.Fatalf("color preset: %v", err)
	}
	if _, err := svc.SetTemperaturePreset(ctx, "6", 100); err != nil {
		t.Fatalf("temperature preset: %v", err)
	}
	if len(stub.commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(stub.commands))
	}
	color := stub.commands[0].Params()
	if color["r"] != 255 || color["g"] != 165 || color["b"] != 0 || color["dimming"] != 60 {
		t.Fatalf("unexpected color params %v", color)
	}
	if temp := stub.commands[1].Params(); temp["temp"] != 6500 {
		t.Fatalf("unexpected temperature params %v", temp)
	}
}

func TestServiceRecordsRuns(t *testing.T) {
	repo := memory.NewRunRepository(0)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, []string{"10.0.0.1", "10.0.0.2"}, WithRunRepository(repo), WithClock(clock))
	ctx := context.Background()

	if _, err := svc.TurnOn(ctx); err != nil {
		t.Fatalf("turn on: %v", err)
	}
	if _, err := svc.SetBrightness(ctx, 40); err != nil {
		t.Fatalf("brightness: %v", err)
	}

	runs, err := svc.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Operation != lights.OperationBrightness || runs[1].Operation != lights.OperationPowerOn {
		t.Fatalf("unexpected run order %s, %s", runs[0].Operation, runs[1].Operation)
	}
	if !runs[0].FinishedAt.After(runs[0].StartedAt) {
		t.Fatalf("expected finished after started: %+v", runs[0])
	}
	if runs[0].ID == "" || runs[0].ID == runs[1].ID {
		t.Fatalf("expected distinct run ids")
	}
	if _, ok := runs[0].Command.Params()["state"]; ok {
		t.Fatalf("brightness run must not carry state")
	}
}

func TestServiceRunStoreFailureKeepsResult(t *testing.T) {
	svc, _ := newTestService(t, []string{"10.0.0.1"}, WithRunRepository(failingRepo{}))
	res, err := svc.TurnOff(context.Background())
	if err != nil {
		t.Fatalf("turn off: %v", err)
	}
	if res.Status != lights.StatusSuccess {
		t.Fatalf("expected success despite store failure, got %s", res.Status)
	}
}

func TestServiceRunsWithoutRepository(t *testing.T) {
	svc, _ := newTestService(t, nil)
	runs, err := svc.Runs(context.Background(), 10)
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty history, got %v %v", runs, err)
	}
}

func TestServiceStatusMapping(t *testing.T) {
	stub := newStubExchanger()
	stub.set("10.0.0.1", stubReply{reply: &lights.Reply{
		Method: lights.MethodGetPilot,
		Result: json.RawMessage(`{"state":true,"dimming":35,"r":255,"g":0,"b":0}`),
	}})
	stub.set("10.0.0.2", stubReply{reply: &lights.Reply{
		Method: lights.MethodGetPilot,
		Result: json.RawMessage(`{"state":false,"temp":2700}`),
	}})
	fleet := mustFleet(t, stub, WithDelay(0))
	svc, err := NewService(fleet, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, statuses, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if res.Status != lights.StatusPartial {
		t.Fatalf("expected partial, got %s", res.Status)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	first, second, third := statuses[0], statuses[1], statuses[2]
	if !first.Online || !first.State || first.Brightness != 35 || first.Color != "#FF0000" {
		t.Fatalf("unexpected first status %+v", first)
	}
	if !second.Online || second.State || second.Brightness != 100 || second.Temp == nil || *second.Temp != 2700 {
		t.Fatalf("unexpected second status %+v", second)
	}
	if third.Online || third.Brightness != 0 {
		t.Fatalf("unexpected offline status %+v", third)
	}
}

func TestServiceOperationTimeout(t *testing.T) {
	stub := newStubExchanger()
	stub.set("10.0.0.1", stubReply{reply: successReply().reply, wait: time.Second})
	fleet := mustFleet(t, stub, WithDelay(0))
	svc, err := NewService(fleet, []string{"10.0.0.1"}, WithOperationTimeout(30*time.Millisecond))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	start := time.Now()
	res, _ := svc.TurnOn(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("operation timeout not applied")
	}
	if res.Outcomes[0].Error != lights.OutcomeCanceled {
		t.Fatalf("expected canceled outcome, got %+v", res.Outcomes[0])
	}
}
