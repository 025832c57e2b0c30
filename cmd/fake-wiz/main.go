package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"wiz-fleet/internal/lights/fakedevice"
)

type fakeFleet struct {
	start   time.Time
	devices []*fakedevice.Device
}

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	addrs := splitCSV(getenvDefault("FAKE_WIZ_ADDRS", "127.0.0.1:38899"))
	httpAddr := getenvDefault("FAKE_WIZ_HTTP_ADDR", "")
	latencyMs := getenvIntDefault("FAKE_WIZ_LATENCY_MS", 0)
	dropRate := getenvFloatDefault("FAKE_WIZ_DROP_RATE", 0)
	failRate := getenvFloatDefault("FAKE_WIZ_FAIL_RATE", 0)

	fleet := &fakeFleet{start: time.Now().UTC()}
	for i, addr := range addrs {
		dev, err := fakedevice.Listen(addr,
			fakedevice.WithLatency(time.Duration(latencyMs)*time.Millisecond),
			fakedevice.WithDropRate(dropRate),
			fakedevice.WithFailRate(failRate),
			fakedevice.WithMAC(fakeMAC(i)),
		)
		if err != nil {
			logger.Fatalf("fake wiz listen %s: %v", addr, err)
		}
		defer dev.Close()
		fleet.devices = append(fleet.devices, dev)
		logger.Printf("fake wiz light on udp %s", dev.Addr())
	}

	if httpAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", fleet.handleHealth)
		mux.HandleFunc("/metrics", fleet.handleMetrics)
		go func() {
			logger.Printf("fake wiz http listening on %s", httpAddr)
			if err := http.ListenAndServe(httpAddr, mux); err != nil {
				logger.Printf("fake wiz http: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Printf("fake wiz stopping")
}

func (f *fakeFleet) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (f *fakeFleet) handleMetrics(w http.ResponseWriter, r *http.Request) {
	type deviceStats struct {
		Addr     string         `json:"addr"`
		Requests int            `json:"requests"`
		ByMethod map[string]int `json:"by_method"`
		State    bool           `json:"state"`
		Dimming  int            `json:"dimming"`
	}
	payload := struct {
		StartedAt string        `json:"started_at"`
		Devices   []deviceStats `json:"devices"`
	}{StartedAt: f.start.Format(time.RFC3339)}
	for _, dev := range f.devices {
		reqs := dev.Requests()
		stats := deviceStats{Addr: dev.Addr(), Requests: len(reqs), ByMethod: make(map[string]int)}
		for _, req := range reqs {
			stats.ByMethod[req.Method]++
		}
		stats.State, stats.Dimming = dev.State()
		payload.Devices = append(payload.Devices, stats)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func fakeMAC(i int) string {
	return "a8bb50" + strconv.FormatInt(int64(0x100000+i), 16)
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
