// Package serial talks to the Arduino controller over a line-oriented link.
// A command is one line terminated by "\n"; the controller answers with one line.
package serial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"growdash-agent/agent/internal/config"
)

var (
	ErrReadTimeout = errors.New("serial: no response before timeout")
	ErrClosed      = errors.New("serial: transport closed")
	ErrMultiLine   = errors.New("serial: command contains a line break")
)

// Transport is the hardware-facing capability the executor depends on.
type Transport interface {
	// Discard drops input received so far, such as a reply that arrived
	// after an earlier read timed out.
	Discard(ctx context.Context) error
	Write(ctx context.Context, p []byte) error
	ReadLine(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}

// Exchange sends one command line and waits for the single response line.
// The reply is returned as read, minus its line terminator.
func Exchange(ctx context.Context, t Transport, command string, timeout time.Duration) (string, error) {
	if strings.ContainsAny(command, "\r\n") {
		return "", fmt.Errorf("send %q: %w", command, ErrMultiLine)
	}
	if err := t.Discard(ctx); err != nil {
		return "", fmt.Errorf("discard stale input: %w", err)
	}
	if err := t.Write(ctx, []byte(command+"\n")); err != nil {
		return "", fmt.Errorf("write %q: %w", command, err)
	}
	line, err := t.ReadLine(ctx, timeout)
	if err != nil {
		return "", fmt.Errorf("read response to %q: %w", command, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// New builds the transport selected by agent.serial.mode.
func New(ctx context.Context, cfg config.SerialConfig) (Transport, error) {
	switch cfg.Mode {
	case "", config.SerialSimulate:
		return NewSimulator(), nil
	case config.SerialHardware:
		return Open(ctx, cfg.Port, cfg.Baud, cfg.OpenDelay)
	}
	return nil, fmt.Errorf("serial: unknown mode %q", cfg.Mode)
}
