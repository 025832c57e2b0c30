package udp

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/lights/fakedevice"
)

func newRoutedClient(t *testing.T, host string, opts ...fakedevice.Option) (*Client, *fakedevice.Device) {
	t.Helper()
	dev, err := fakedevice.Listen("127.0.0.1:0", opts...)
	if err != nil {
		t.Fatalf("listen fake device: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	router := fakedevice.NewRouter()
	router.Route(host, dev)
	client, err := NewClient(DefaultPort, WithDialer(router), WithTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, dev
}

func TestNewClientRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		if _, err := NewClient(port); err == nil {
			t.Fatalf("expected error for port %d", port)
		}
	}
	c, err := NewClient(DefaultPort, WithTimeout(0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Timeout() != DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", c.Timeout())
	}
}

func TestSendSetPilot(t *testing.T) {
	client, dev := newRoutedClient(t, "10.0.0.1")

	reply, err := client.Send(context.Background(), "10.0.0.1", lights.Color(255, 0, 0, 100))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !reply.Success() {
		t.Fatalf("expected success reply, got %s", reply.Result)
	}

	reqs := dev.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Method != lights.MethodSetPilot || reqs[0].Params["r"] != float64(255) {
		t.Fatalf("unexpected request %+v", reqs[0])
	}
	if on, dimming := dev.State(); !on || dimming != 100 {
		t.Fatalf("expected device on at 100, got %v/%d", on, dimming)
	}
}

func TestSendGetPilot(t *testing.T) {
	client, _ := newRoutedClient(t, "10.0.0.1", fakedevice.WithState(true, 35))

	reply, err := client.Send(context.Background(), "10.0.0.1", lights.StatusQuery())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	pilot, err := reply.Pilot()
	if err != nil {
		t.Fatalf("pilot: %v", err)
	}
	if pilot.State == nil || !*pilot.State || pilot.Dimming == nil || *pilot.Dimming != 35 {
		t.Fatalf("unexpected pilot %+v", pilot)
	}
	if reply.Success() {
		t.Fatalf("getPilot replies carry no success flag")
	}
}

func TestSendTimeout(t *testing.T) {
	client, _ := newRoutedClient(t, "10.0.0.2", fakedevice.Silent())

	start := time.Now()
	_, err := client.Send(context.Background(), "10.0.0.2", lights.Power(true))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

func TestSendMalformedReply(t *testing.T) {
	client, _ := newRoutedClient(t, "10.0.0.3", fakedevice.Garbage())

	_, err := client.Send(context.Background(), "10.0.0.3", lights.Power(true))
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Op != "decode" {
		t.Fatalf("expected decode op, got %s", transportErr.Op)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("decode failure must not look like a timeout")
	}
}

func TestSendDialFailure(t *testing.T) {
	client, err := NewClient(DefaultPort, WithDialer(fakedevice.NewRouter()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Send(context.Background(), "10.0.0.9", lights.Power(true))
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.Op != "dial" {
		t.Fatalf("expected dial TransportError, got %v", err)
	}
}

func TestSendHonoursContextCancel(t *testing.T) {
	client, _ := newRoutedClient(t, "10.0.0.4", fakedevice.Silent())
	client.timeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := client.Send(ctx, "10.0.0.4", lights.Power(true))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancel did not abandon the exchange: %s", elapsed)
	}
}

func TestSendReleasesSocket(t *testing.T) {
	dialer := &countingDialer{}
	client, err := NewClient(DefaultPort, WithDialer(dialer), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	dev, err := fakedevice.Listen("127.0.0.1:0", fakedevice.Silent())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer dev.Close()
	dialer.target = dev.Addr()

	for i := 0; i < 3; i++ {
		if _, err := client.Send(context.Background(), "10.0.0.5", lights.Power(true)); !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected timeout, got %v", err)
		}
	}
	if dialer.opened != 3 || dialer.closed != 3 {
		t.Fatalf("expected 3 sockets opened and closed, got %d/%d", dialer.opened, dialer.closed)
	}
}

type countingDialer struct {
	target string
	opened int
	closed int
}

func (d *countingDialer) DialContext(ctx context.Context, network, _ string) (net.Conn, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, network, d.target)
	if err != nil {
		return nil, err
	}
	d.opened++
	return &closeCounter{Conn: conn, onClose: func() { d.closed++ }}, nil
}

type closeCounter struct {
	net.Conn
	onClose func()
}

func (c *closeCounter) Close() error {
	c.onClose()
	return c.Conn.Close()
}
