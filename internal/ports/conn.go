package ports

import (
	"context"
	"io"
	"time"
)

// Conn is the subset of net.Conn a session needs.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}
