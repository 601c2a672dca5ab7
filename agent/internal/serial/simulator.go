package serial

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	statusResponse = "Arduino Status: Running OK | Uptime: 12345s | Free RAM: 1234"
	tdsResponse    = "TDS: 850 ppm"
)

// Respond is the canned controller behaviour used when no board is attached.
func Respond(command string) string {
	switch {
	case command == "status":
		return statusResponse
	case command == "tds":
		return tdsResponse
	case strings.HasPrefix(command, "spray"):
		duration := "0"
		if fields := strings.Fields(command); len(fields) > 1 {
			duration = fields[1]
		}
		return "Spraying for " + duration + "ms"
	}
	return "Unknown command: " + command
}

// Simulator answers every written line with Respond, one response per line.
type Simulator struct {
	mu      sync.Mutex
	pending []string
	partial strings.Builder
	closed  bool
}

func NewSimulator() *Simulator { return &Simulator{} }

func (s *Simulator) Discard(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.pending = nil
	s.partial.Reset()
	return nil
}

func (s *Simulator) Write(_ context.Context, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, b := range p {
		if b == '\n' {
			s.pending = append(s.pending, s.partial.String())
			s.partial.Reset()
			continue
		}
		s.partial.WriteByte(b)
	}
	return nil
}

func (s *Simulator) ReadLine(ctx context.Context, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	if len(s.pending) == 0 {
		return "", ErrReadTimeout
	}
	line := s.pending[0]
	s.pending = s.pending[1:]
	return Respond(line), nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	s.mu.Unlock()
	return nil
}
