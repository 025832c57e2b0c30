// Package fakedevice is an in-process WiZ fixture that speaks the pilot
// protocol over UDP. It backs the fake-wiz binary and the transport tests.
package fakedevice

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net"
	"sync"
	"time"
)

// Request is a datagram the device received.
type Request struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

type pilot struct {
	State   bool
	Dimming int
	Temp    int
	R, G, B int
}

// Device is a fake fixture bound to one UDP socket.
type Device struct {
	conn net.PacketConn
	mac  string

	latency   time.Duration
	dropRate  float64
	failRate  float64
	silent    bool
	garbage   bool
	closeOnce sync.Once
	done      chan struct{}

	mu       sync.Mutex
	state    pilot
	requests []Request
}

// Option configures a device.
type Option func(*Device)

// WithLatency delays every reply.
func WithLatency(d time.Duration) Option {
	return func(dev *Device) {
		if d > 0 {
			dev.latency = d
		}
	}
}

// WithDropRate drops the given fraction of requests without replying.
func WithDropRate(rate float64) Option {
	return func(dev *Device) {
		if rate > 0 {
			dev.dropRate = rate
		}
	}
}

// WithFailRate answers the given fraction of setPilot requests with success=false.
func WithFailRate(rate float64) Option {
	return func(dev *Device) {
		if rate > 0 {
			dev.failRate = rate
		}
	}
}

// Silent makes the device swallow every request.
func Silent() Option {
	return func(dev *Device) { dev.silent = true }
}

// Garbage makes the device answer with a body that is not JSON.
func Garbage() Option {
	return func(dev *Device) { dev.garbage = true }
}

// WithMAC sets the MAC reported by getPilot.
func WithMAC(mac string) Option {
	return func(dev *Device) {
		if mac != "" {
			dev.mac = mac
		}
	}
}

// WithState seeds the pilot state.
func WithState(on bool, dimming int) Option {
	return func(dev *Device) {
		dev.state.State = on
		dev.state.Dimming = dimming
	}
}

// Listen binds a device to addr, for example "127.0.0.1:0", and starts serving.
func Listen(addr string, opts ...Option) (*Device, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	dev := &Device{
		conn:  conn,
		mac:   "a8bb50000000",
		done:  make(chan struct{}),
		state: pilot{State: false, Dimming: 100, Temp: 4000},
	}
	for _, opt := range opts {
		opt(dev)
	}
	go dev.serve()
	return dev, nil
}

// Addr is the bound socket address.
func (d *Device) Addr() string { return d.conn.LocalAddr().String() }

// Close stops serving and releases the socket.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.conn.Close()
		<-d.done
	})
	return err
}

// Requests returns the requests received so far.
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// State reports the current power state and dimming level.
func (d *Device) State() (on bool, dimming int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.State, d.state.Dimming
}

func (d *Device) serve() {
	defer close(d.done)
	buf := make([]byte, 2048)
	for {
		n, from, err := d.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		reply := d.handle(buf[:n])
		if reply == nil {
			continue
		}
		if d.latency > 0 {
			time.Sleep(d.latency)
		}
		_, _ = d.conn.WriteTo(reply, from)
	}
}

func (d *Device) handle(body []byte) []byte {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return encode(map[string]any{"error": map[string]any{"code": -32700, "message": "Parse error"}})
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if d.silent || (d.dropRate > 0 && rand.Float64() < d.dropRate) {
		return nil
	}
	if d.garbage {
		return []byte("not json")
	}

	switch req.Method {
	case "setPilot":
		success := !(d.failRate > 0 && rand.Float64() < d.failRate)
		if success {
			d.apply(req.Params)
		}
		return encode(map[string]any{
			"method": req.Method,
			"env":    "pro",
			"result": map[string]any{"success": success},
		})
	case "getPilot":
		return encode(map[string]any{
			"method": req.Method,
			"env":    "pro",
			"result": d.snapshot(),
		})
	default:
		return encode(map[string]any{
			"method": req.Method,
			"env":    "pro",
			"error":  map[string]any{"code": -32601, "message": "Method not found"},
		})
	}
}

func (d *Device) apply(params map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := params["state"].(bool); ok {
		d.state.State = v
	}
	if v, ok := number(params["dimming"]); ok {
		d.state.Dimming = v
	}
	if v, ok := number(params["temp"]); ok {
		d.state.Temp = v
		d.state.R, d.state.G, d.state.B = 0, 0, 0
	}
	r, okR := number(params["r"])
	g, okG := number(params["g"])
	b, okB := number(params["b"])
	if okR && okG && okB {
		d.state.R, d.state.G, d.state.B = r, g, b
		d.state.Temp = 0
	}
}

func (d *Device) snapshot() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := map[string]any{
		"mac":     d.mac,
		"rssi":    -58,
		"state":   d.state.State,
		"sceneId": 0,
		"dimming": d.state.Dimming,
	}
	if d.state.Temp > 0 {
		out["temp"] = d.state.Temp
	} else {
		out["r"], out["g"], out["b"] = d.state.R, d.state.G, d.state.B
	}
	return out
}

func number(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func encode(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
