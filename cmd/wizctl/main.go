// wizctl sends one command to every configured WiZ light and prints the
// per-light outcome. Lights and timing come from the same environment and
// YAML file as the server and can be overridden with flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"wiz-fleet/internal/config"
	"wiz-fleet/internal/lights/application"
	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/lights/infrastructure/udp"
)

const (
	exitPartial    = 3
	exitValidation = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func validation(format string, args ...any) error {
	return &exitError{code: exitValidation, err: fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			if coder.ExitCode() != exitPartial {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return &exitError{code: exitValidation, err: err}
	}

	var lightsFlag string
	var brightness int
	var verbose bool
	flagSet := pflag.NewFlagSet("wizctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&lightsFlag, "lights", "l", strings.Join(cfg.Lights, ","), "comma-separated light IP addresses")
	flagSet.IntVarP(&cfg.UDPPort, "port", "p", cfg.UDPPort, "light UDP port")
	flagSet.DurationVarP(&cfg.Timeout, "timeout", "t", cfg.Timeout, "per-light reply timeout")
	flagSet.DurationVar(&cfg.Delay, "delay", cfg.Delay, "pause between lights")
	flagSet.IntVarP(&cfg.Concurrency, "concurrency", "c", cfg.Concurrency, "lights contacted at once")
	flagSet.IntVarP(&brightness, "brightness", "b", lights.DefaultBrightness, "brightness for color and temperature commands")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every device exchange")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return validation("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return validation("missing command")
	}
	if rest[0] == "presets" {
		printPresets(stdout)
		return nil
	}

	cfg.Lights = splitLights(lightsFlag)
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitValidation, err: err}
	}
	if len(cfg.Lights) == 0 {
		return validation("no lights configured: use --lights or WIZ_LIGHTS")
	}

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(stderr, "", log.LstdFlags)
	}
	client, err := udp.NewClient(cfg.UDPPort, udp.WithTimeout(cfg.Timeout))
	if err != nil {
		return validation("%v", err)
	}
	fleet, err := application.NewFleet(client,
		application.WithDelay(cfg.Delay),
		application.WithConcurrency(cfg.Concurrency),
		application.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	service, err := application.NewService(fleet, cfg.Lights,
		application.WithServiceLogger(logger),
		application.WithOperationTimeout(cfg.OperationTimeout),
	)
	if err != nil {
		return err
	}

	if rest[0] == "status" {
		result, statuses, err := service.Status(ctx)
		if err != nil {
			return err
		}
		printStatuses(stdout, statuses)
		return summarize(stdout, result)
	}

	result, err := dispatch(ctx, service, rest[0], rest[1:], brightness)
	if err != nil {
		if isValidation(err) {
			return &exitError{code: exitValidation, err: err}
		}
		return err
	}
	printOutcomes(stdout, result)
	return summarize(stdout, result)
}

func dispatch(ctx context.Context, service *application.Service, command string, args []string, brightness int) (lights.Result, error) {
	switch command {
	case "on":
		return service.TurnOn(ctx)
	case "off":
		return service.TurnOff(ctx)
	case "color":
		if len(args) != 1 {
			return lights.Result{}, validation("usage: wizctl color <#RRGGBB>")
		}
		return service.SetColorHex(ctx, args[0], brightness)
	case "rgb":
		values, err := parseInts(args, 3, "usage: wizctl rgb <r> <g> <b>")
		if err != nil {
			return lights.Result{}, err
		}
		return service.SetColor(ctx, values[0], values[1], values[2], brightness)
	case "hsv":
		values, err := parseInts(args, 3, "usage: wizctl hsv <hue> <saturation> <brightness>")
		if err != nil {
			return lights.Result{}, err
		}
		return service.SetHSV(ctx, values[0], values[1], values[2])
	case "preset":
		if len(args) == 0 {
			return lights.Result{}, validation("usage: wizctl preset <name>")
		}
		return service.SetColorPreset(ctx, strings.Join(args, " "), brightness)
	case "temp":
		if len(args) == 0 {
			return lights.Result{}, validation("usage: wizctl temp <kelvin|preset>")
		}
		name := strings.Join(args, " ")
		if _, err := lights.LookupTemperaturePreset(name); err == nil {
			return service.SetTemperaturePreset(ctx, name, brightness)
		}
		kelvin, err := strconv.Atoi(name)
		if err != nil {
			return service.SetTemperaturePreset(ctx, name, brightness)
		}
		return service.SetTemperature(ctx, kelvin, brightness)
	case "brightness":
		values, err := parseInts(args, 1, "usage: wizctl brightness <1-100>")
		if err != nil {
			return lights.Result{}, err
		}
		return service.SetBrightness(ctx, values[0])
	default:
		return lights.Result{}, validation("unknown command %q", command)
	}
}

func parseInts(args []string, n int, usage string) ([]int, error) {
	if len(args) != n {
		return nil, validation("%s", usage)
	}
	out := make([]int, n)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, validation("%s: %q is not a number", usage, arg)
		}
		out[i] = v
	}
	return out, nil
}

func isValidation(err error) bool {
	var exit *exitError
	return errors.As(err, &exit) ||
		errors.Is(err, lights.ErrInvalidColorFormat) ||
		errors.Is(err, lights.ErrOutOfRange) ||
		errors.Is(err, lights.ErrUnknownPreset)
}

func summarize(w io.Writer, result lights.Result) error {
	succeeded, _ := result.Counts()
	fmt.Fprintf(w, "%s: %d/%d lights succeeded\n", result.Status, succeeded, len(result.Outcomes))
	if err := result.Err(); err != nil {
		return &exitError{code: exitPartial, err: err}
	}
	return nil
}

func printOutcomes(w io.Writer, result lights.Result) {
	for _, o := range result.Outcomes {
		if o.Succeeded {
			fmt.Fprintf(w, "✓ %s\n", o.Address)
			continue
		}
		reason := o.Error
		if reason == "" {
			reason = "rejected"
		}
		fmt.Fprintf(w, "✗ %s: %s\n", o.Address, reason)
	}
}

func printStatuses(w io.Writer, statuses []lights.LightStatus) {
	for _, s := range statuses {
		if !s.Online {
			fmt.Fprintf(w, "✗ %s: offline\n", s.Address)
			continue
		}
		state := "off"
		if s.State {
			state = "on"
		}
		line := fmt.Sprintf("✓ %s: %s %d%%", s.Address, state, s.Brightness)
		if s.Temp != nil {
			line += fmt.Sprintf(" %dK", *s.Temp)
		} else if s.Color != "" {
			line += " " + s.Color
		}
		fmt.Fprintln(w, line)
	}
}

func printPresets(w io.Writer) {
	fmt.Fprintln(w, "Colors:")
	for _, p := range lights.ColorPresets() {
		fmt.Fprintf(w, "  %s. %-12s %s\n", p.Key, p.Name, lights.RGBToHex(p.R, p.G, p.B))
	}
	fmt.Fprintln(w, "Temperatures:")
	for _, p := range lights.TemperaturePresets() {
		fmt.Fprintf(w, "  %s. %-14s %dK\n", p.Key, p.Name, p.Kelvin)
	}
}

func splitLights(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `wizctl controls every configured WiZ light at once.

Usage:
  wizctl [flags] <command> [args]

Commands:
  on | off                  switch lights on or off
  color <#RRGGBB>           set a hex color
  rgb <r> <g> <b>           set an RGB color (0-255 each)
  hsv <h> <s> <v>           set a color from hue, saturation and brightness
  preset <name|key>         set a color preset
  temp <kelvin|preset>      set a white temperature (2200-6500K)
  brightness <1-100>        change brightness without switching lights on
  status                    query every light
  presets                   list color and temperature presets

Exit status is 3 when at least one light did not succeed and 2 on
invalid input.

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
