package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

const (
	DefaultPort        = 6667
	defaultDialTimeout = 15 * time.Second
	tcpKeepAlive       = 30 * time.Second
)

// Dialer opens plain or TLS TCP connections to one IRC server.
type Dialer struct {
	Host    string
	Port    int
	TLS     bool
	Timeout time.Duration
	// TLSConfig is cloned per dial; ServerName defaults to Host.
	TLSConfig *tls.Config
}

var _ ports.Dialer = Dialer{}

func (d Dialer) Address() string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

func (d Dialer) Dial(ctx context.Context) (ports.Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	netDialer := &net.Dialer{Timeout: timeout, KeepAlive: tcpKeepAlive}

	var (
		conn net.Conn
		err  error
	)
	if d.TLS {
		cfg := &tls.Config{MinVersion: tls.VersionTLS12}
		if d.TLSConfig != nil {
			cfg = d.TLSConfig.Clone()
		}
		if cfg.ServerName == "" {
			cfg.ServerName = d.Host
		}
		tlsDialer := &tls.Dialer{NetDialer: netDialer, Config: cfg}
		conn, err = tlsDialer.DialContext(ctx, "tcp", d.Address())
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", d.Address())
	}
	if err != nil {
		return nil, classifyDialError(d.Address(), err)
	}

	return conn, nil
}

func classifyDialError(addr string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return fmt.Errorf("%w: resolve %s: %w", domain.ErrFatalConfig, addr, err)
	}
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return fmt.Errorf("%w: address %s: %w", domain.ErrFatalConfig, addr, err)
	}
	return fmt.Errorf("%w: dial %s: %w", domain.ErrConnection, addr, err)
}
