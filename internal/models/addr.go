package models

import (
	"fmt"
	"net"
	"strconv"
)

// Addr is a backend address as it appears in sentinel notifications and
// twemproxy server lists.
type Addr struct {
	Host string
	Port uint16
}

func (a Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

func (a Addr) IsZero() bool {
	return a.Host == "" && a.Port == 0
}

// NewAddr validates a host and a decimal port string pair.
func NewAddr(host, port string) (Addr, error) {
	if host == "" {
		return Addr{}, fmt.Errorf("empty host")
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Addr{}, fmt.Errorf("invalid port %q: %w", port, err)
	}
	if p == 0 {
		return Addr{}, fmt.Errorf("invalid port %q: must be non-zero", port)
	}
	return Addr{Host: host, Port: uint16(p)}, nil
}
