package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"wiz-fleet/internal/lights/application"
	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/lights/interfaces"
	"wiz-fleet/internal/observability/metrics"
)

const (
	defaultChannel = 255
	defaultKelvin  = 4000

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler serves the light fleet APIs.
type Handler struct {
	service *application.Service
	logger  *log.Logger
	now     func() time.Time
}

// Option configures the handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock overrides the time stamped on exported reports.
func WithClock(clock application.Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.now = clock.Now
		}
	}
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service, opts ...Option) (*Handler, error) {
	if service == nil {
		return nil, errors.New("lights handler: nil service")
	}
	h := &Handler{
		service: service,
		logger:  log.New(io.Discard, "", 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP routes light endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/lights/on" && r.Method == http.MethodPost:
		h.respondResult(w, r, "on", h.service.TurnOn)
	case r.URL.Path == "/api/lights/off" && r.Method == http.MethodPost:
		h.respondResult(w, r, "off", h.service.TurnOff)
	case r.URL.Path == "/api/lights/color" && r.Method == http.MethodPost:
		h.handleColor(w, r)
	case r.URL.Path == "/api/lights/temperature" && r.Method == http.MethodPost:
		h.handleTemperature(w, r)
	case r.URL.Path == "/api/lights/brightness" && r.Method == http.MethodPost:
		h.handleBrightness(w, r)
	case r.URL.Path == "/api/lights/status" && r.Method == http.MethodGet:
		h.handleStatus(w, r)
	case r.URL.Path == "/api/lights/status/export" && r.Method == http.MethodGet:
		h.handleExport(w, r)
	case r.URL.Path == "/api/lights/runs" && r.Method == http.MethodGet:
		h.handleRuns(w, r)
	case r.URL.Path == "/api/lights/presets" && r.Method == http.MethodGet:
		h.handlePresets(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		R          *int   `json:"r"`
		G          *int   `json:"g"`
		B          *int   `json:"b"`
		Brightness *int   `json:"brightness"`
		Hex        string `json:"hex"`
		Preset     string `json:"preset"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	brightness := intOr(req.Brightness, lights.DefaultBrightness)
	h.respondResult(w, r, "color", func(ctx context.Context) (lights.Result, error) {
		switch {
		case req.Preset != "":
			return h.service.SetColorPreset(ctx, req.Preset, brightness)
		case req.Hex != "":
			return h.service.SetColorHex(ctx, req.Hex, brightness)
		default:
			return h.service.SetColor(ctx,
				intOr(req.R, defaultChannel),
				intOr(req.G, defaultChannel),
				intOr(req.B, defaultChannel),
				brightness)
		}
	})
}

func (h *Handler) handleTemperature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kelvin     *int   `json:"kelvin"`
		Brightness *int   `json:"brightness"`
		Preset     string `json:"preset"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	brightness := intOr(req.Brightness, lights.DefaultBrightness)
	h.respondResult(w, r, "temperature", func(ctx context.Context) (lights.Result, error) {
		if req.Preset != "" {
			return h.service.SetTemperaturePreset(ctx, req.Preset, brightness)
		}
		return h.service.SetTemperature(ctx, intOr(req.Kelvin, defaultKelvin), brightness)
	})
}

func (h *Handler) handleBrightness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Brightness *int `json:"brightness"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	level := intOr(req.Brightness, lights.DefaultBrightness)
	h.respondResult(w, r, "brightness", func(ctx context.Context) (lights.Result, error) {
		return h.service.SetBrightness(ctx, level)
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, statuses, err := h.service.Status(r.Context())
	if err != nil {
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": result.Status,
		"lights": statuses,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "pdf" {
		http.Error(w, "format must be xlsx or pdf", http.StatusBadRequest)
		return
	}

	start := time.Now()
	outcome := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatusExport(format, outcome, time.Since(start))
	}()

	result, statuses, err := h.service.Status(r.Context())
	if err != nil {
		outcome = metrics.ResultError
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}
	report := interfaces.StatusReport{GeneratedAt: h.now(), Status: result.Status, Lights: statuses}

	var data []byte
	contentType := contentTypeXLSX
	if format == "pdf" {
		data, err = interfaces.BuildStatusPDF(report)
		contentType = "application/pdf"
	} else {
		data, err = interfaces.BuildStatusXLSX(report)
	}
	if err != nil {
		outcome = metrics.ResultError
		h.logger.Printf("lights: export %s: %v", format, err)
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\"lights-status."+format+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	runs, err := h.service.Runs(r.Context(), limit)
	if err != nil {
		h.logger.Printf("lights: list runs: %v", err)
		http.Error(w, "query runs error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handlePresets(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"colors":       lights.ColorPresets(),
		"temperatures": lights.TemperaturePresets(),
	})
}

func (h *Handler) respondResult(w http.ResponseWriter, r *http.Request, action string, op func(context.Context) (lights.Result, error)) {
	result, err := op(r.Context())
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Printf("lights: %s: %v", action, err)
		http.Error(w, action+" error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func isValidationError(err error) bool {
	return errors.Is(err, lights.ErrInvalidColorFormat) ||
		errors.Is(err, lights.ErrOutOfRange) ||
		errors.Is(err, lights.ErrUnknownPreset)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	http.Error(w, "invalid json", http.StatusBadRequest)
	return false
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
