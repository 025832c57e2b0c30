package fakedevice

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// Router satisfies the UDP client's dialer and sends traffic for fixed
// fixture addresses to fake devices on loopback.
type Router struct {
	mu     sync.RWMutex
	routes map[string]string
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]string)}
}

// Route sends traffic for host to dev.
func (r *Router) Route(host string, dev *Device) {
	r.mu.Lock()
	r.routes[host] = dev.Addr()
	r.mu.Unlock()
}

// DialContext dials the device routed for the host part of address.
func (r *Router) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	target, ok := r.routes[host]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fakedevice: no route to %s", host)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, target)
}
