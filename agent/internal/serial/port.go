package serial

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	bugst "go.bug.st/serial"
)

// readSlice bounds each blocking read so context cancellation is noticed.
const readSlice = 100 * time.Millisecond

type rawPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Port is a Transport backed by a real serial device.
type Port struct {
	path string

	mu  sync.Mutex
	raw rawPort
	buf []byte
}

// Open opens path at baud and waits openDelay; most Arduino boards reset when
// the port is opened and ignore input until the bootloader hands over.
func Open(ctx context.Context, path string, baud int, openDelay time.Duration) (*Port, error) {
	raw, err := bugst.Open(path, &bugst.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := settle(ctx, openDelay); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := raw.ResetInputBuffer(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("reset %s: %w", path, err)
	}
	return newPort(path, raw), nil
}

func newPort(path string, raw rawPort) *Port { return &Port{path: path, raw: raw} }

// settle waits d unless ctx ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Port) Discard(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw == nil {
		return ErrClosed
	}
	p.buf = p.buf[:0]
	if err := p.raw.ResetInputBuffer(); err != nil {
		return fmt.Errorf("%s: %w", p.path, err)
	}
	return nil
}

func (p *Port) Write(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw == nil {
		return ErrClosed
	}
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := p.raw.Write(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p.path, err)
		}
		data = data[n:]
	}
	return nil
}

func (p *Port) ReadLine(ctx context.Context, timeout time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw == nil {
		return "", ErrClosed
	}
	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 128)
	for {
		if i := bytes.IndexByte(p.buf, '\n'); i >= 0 {
			line := string(bytes.TrimRight(p.buf[:i], "\r"))
			p.buf = append(p.buf[:0], p.buf[i+1:]...)
			return line, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrReadTimeout
		}
		if err := p.raw.SetReadTimeout(min(remaining, readSlice)); err != nil {
			return "", fmt.Errorf("%s: %w", p.path, err)
		}
		n, err := p.raw.Read(chunk)
		if n > 0 {
			p.buf = append(p.buf, chunk[:n]...)
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", p.path, err)
		}
	}
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw == nil {
		return nil
	}
	err := p.raw.Close()
	p.raw = nil
	return err
}
