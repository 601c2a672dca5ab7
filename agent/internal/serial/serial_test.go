package serial

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"growdash-agent/agent/internal/config"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"status", "Arduino Status: Running OK | Uptime: 12345s | Free RAM: 1234"},
		{"tds", "TDS: 850 ppm"},
		{"spray 500", "Spraying for 500ms"},
		{"spray", "Spraying for 0ms"},
		{"spray   250   extra", "Spraying for 250ms"},
		{"sprayer 10", "Spraying for 10ms"},
		{"Status", "Unknown command: Status"},
		{"tds now", "Unknown command: tds now"},
		{"FillL 2.5", "Unknown command: FillL 2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got := Respond(tt.command)
			if got != tt.want {
				t.Errorf("Respond(%q) = %q, want %q", tt.command, got, tt.want)
			}
			if again := Respond(tt.command); again != got {
				t.Errorf("Respond(%q) not stable: %q then %q", tt.command, got, again)
			}
		})
	}
}

func TestSimulatorExchange(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()

	got, err := Exchange(ctx, sim, "tds", time.Second)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got != "TDS: 850 ppm" {
		t.Errorf("got %q", got)
	}

	if _, err := sim.ReadLine(ctx, time.Second); !errors.Is(err, ErrReadTimeout) {
		t.Errorf("read with nothing pending: err = %v, want ErrReadTimeout", err)
	}

	_ = sim.Close()
	if _, err := Exchange(ctx, sim, "status", time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("exchange after close: err = %v, want ErrClosed", err)
	}
}

func TestSimulatorQueuesLines(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()
	if err := sim.Write(ctx, []byte("status\nspr")); err != nil {
		t.Fatal(err)
	}
	if err := sim.Write(ctx, []byte("ay 7\n")); err != nil {
		t.Fatal(err)
	}
	first, _ := sim.ReadLine(ctx, time.Second)
	second, _ := sim.ReadLine(ctx, time.Second)
	if first != statusResponse || second != "Spraying for 7ms" {
		t.Errorf("responses = %q, %q", first, second)
	}
}

type fakeRaw struct {
	written  bytes.Buffer
	reads    [][]byte
	timeouts []time.Duration
	closed   bool
	readErr  error
	resets   int
	// reply, when set, queues the controller's answer to each write.
	reply    func(written []byte) [][]byte
}

func (f *fakeRaw) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		if f.readErr != nil {
			return 0, f.readErr
		}
		// go.bug.st/serial reports a read timeout as (0, nil)
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, f.reads[0])
	f.reads = f.reads[1:]
	return n, nil
}

func (f *fakeRaw) Write(p []byte) (int, error) {
	if f.reply != nil {
		f.reads = append(f.reads, f.reply(p)...)
	}
	return f.written.Write(p)
}

func (f *fakeRaw) Close() error { f.closed = true; return nil }

func (f *fakeRaw) SetReadTimeout(t time.Duration) error {
	f.timeouts = append(f.timeouts, t)
	return nil
}

func (f *fakeRaw) ResetInputBuffer() error {
	f.resets++
	f.reads = nil
	return nil
}

func TestPortExchange(t *testing.T) {
	raw := &fakeRaw{reply: func([]byte) [][]byte {
		return [][]byte{[]byte("TDS: 8"), []byte("50 ppm\r\nnext"), []byte(" line\n")}
	}}
	p := newPort("/dev/fake", raw)
	ctx := context.Background()

	got, err := Exchange(ctx, p, "tds", time.Second)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got != "TDS: 850 ppm" {
		t.Errorf("got %q", got)
	}
	if raw.written.String() != "tds\n" {
		t.Errorf("written %q", raw.written.String())
	}
	for _, d := range raw.timeouts {
		if d > readSlice {
			t.Errorf("read timeout %s exceeds slice", d)
		}
	}

	line, err := p.ReadLine(ctx, time.Second)
	if err != nil || line != "next line" {
		t.Errorf("buffered line = %q, %v", line, err)
	}

	if err := p.Close(); err != nil || !raw.closed {
		t.Errorf("close: %v closed=%v", err, raw.closed)
	}
	if _, err := p.ReadLine(ctx, time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("read after close: %v", err)
	}
}

func TestPortReadTimeout(t *testing.T) {
	p := newPort("/dev/fake", &fakeRaw{})
	start := time.Now()
	_, err := p.ReadLine(context.Background(), 30*time.Millisecond)
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("err = %v, want ErrReadTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}
}

func TestPortReadError(t *testing.T) {
	p := newPort("/dev/fake", &fakeRaw{readErr: io.ErrUnexpectedEOF})
	if _, err := p.ReadLine(context.Background(), time.Second); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v", err)
	}
}

func TestExchangeRejectsLineBreaks(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()
	for _, cmd := range []string{"status\nfoo", "tds\r", "\n"} {
		if _, err := Exchange(ctx, sim, cmd, time.Second); !errors.Is(err, ErrMultiLine) {
			t.Errorf("Exchange(%q) err = %v, want ErrMultiLine", cmd, err)
		}
	}
	if _, err := sim.ReadLine(ctx, time.Millisecond); !errors.Is(err, ErrReadTimeout) {
		t.Error("rejected command reached the controller")
	}
	if got, err := Exchange(ctx, sim, "tds", time.Second); err != nil || got != tdsResponse {
		t.Errorf("next exchange = %q, %v", got, err)
	}
}

func TestExchangeKeepsReplyVerbatim(t *testing.T) {
	got, err := Exchange(context.Background(), NewSimulator(), "tds ", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Unknown command: tds " {
		t.Errorf("got %q", got)
	}
}

func TestSimulatorDiscardsStaleReplies(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()
	// a reply nobody read
	if err := sim.Write(ctx, []byte("status\nhalf")); err != nil {
		t.Fatal(err)
	}
	got, err := Exchange(ctx, sim, "tds", time.Second)
	if err != nil || got != tdsResponse {
		t.Errorf("Exchange = %q, %v; want %q", got, err, tdsResponse)
	}
}

func TestPortDiscardsStaleInput(t *testing.T) {
	raw := &fakeRaw{reads: [][]byte{[]byte("Arduino Sta")}}
	p := newPort("/dev/fake", raw)
	ctx := context.Background()

	if _, err := p.ReadLine(ctx, 20*time.Millisecond); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("err = %v, want ErrReadTimeout", err)
	}
	// the rest of the late reply is still in the OS buffer
	raw.reads = [][]byte{[]byte("tus: Running OK\n")}
	raw.reply = func(w []byte) [][]byte {
		if string(w) == "tds\n" {
			return [][]byte{[]byte("TDS: 850 ppm\r\n")}
		}
		return nil
	}

	got, err := Exchange(ctx, p, "tds", time.Second)
	if err != nil || got != "TDS: 850 ppm" {
		t.Fatalf("Exchange = %q, %v", got, err)
	}
	if raw.resets != 1 {
		t.Errorf("input buffer resets = %d, want 1", raw.resets)
	}
}

func TestSettleHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := settle(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("settle ignored cancellation")
	}
	if err := settle(context.Background(), 0); err != nil {
		t.Errorf("zero delay: %v", err)
	}
}

func TestNewSelectsSimulator(t *testing.T) {
	tr, err := New(context.Background(), config.SerialConfig{Mode: config.SerialSimulate})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*Simulator); !ok {
		t.Errorf("New returned %T", tr)
	}
	if _, err := New(context.Background(), config.SerialConfig{Mode: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}
