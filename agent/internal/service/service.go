// Package service runs poll cycles: fetch pending commands, execute them in
// order and report each outcome.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"growdash-agent/agent/internal/command"
	"growdash-agent/agent/internal/config"
	"growdash-agent/agent/internal/db"
	"growdash-agent/agent/internal/logger"
	"growdash-agent/agent/internal/serial"
	"growdash-agent/agent/internal/sysinfo"

	"github.com/google/uuid"
)

// Backend is the part of the GrowDash API the agent uses.
type Backend interface {
	command.Reporter
	PendingCommands(ctx context.Context) ([]command.Command, error)
	Heartbeat(ctx context.Context, lastState any) error
}

type Agent struct {
	backend   Backend
	processor *command.Processor
	journal   *db.Journal
	heartbeat bool

	mu       sync.Mutex
	interval time.Duration
	reset    chan struct{}
}

// New wires an agent. journal may be nil.
func New(cfg config.AppConfig, backend Backend, tr serial.Transport, journal *db.Journal) *Agent {
	var rep command.Reporter = backend
	if journal != nil {
		rep = journal
	}
	proc := command.NewProcessor(rep)
	proc.Register(command.TypeSerial, &command.SerialHandler{
		Transport: tr,
		Timeout:   cfg.Serial.ReadTimeout,
		Strict:    cfg.StrictExecutingReport,
	})

	return &Agent{
		backend:   backend,
		processor: proc,
		journal:   journal,
		heartbeat: cfg.Heartbeat,
		interval:  cfg.PollInterval,
		reset:     make(chan struct{}, 1),
	}
}

// RunOnce performs one poll cycle. The returned error is batch level only;
// per-command failures are in the summary.
func (a *Agent) RunOnce(ctx context.Context) (command.Summary, error) {
	batch := uuid.NewString()
	log := logger.With("batch", batch)
	if a.journal != nil {
		a.journal.SetBatch(batch)
	}

	if a.heartbeat {
		a.sendHeartbeat(ctx)
	}

	cmds, err := a.backend.PendingCommands(ctx)
	if err != nil {
		return command.Summary{}, err
	}
	log.Info().Msgf("Found %d pending commands", len(cmds))

	sum := a.processor.Process(ctx, cmds)
	log.Info().Msgf("Batch done: %s", sum)
	return sum, nil
}

func (a *Agent) sendHeartbeat(ctx context.Context) {
	st, err := sysinfo.Collect(ctx)
	if err != nil {
		logger.Warnf("Collect host state: %v", err)
	}
	if err := a.backend.Heartbeat(ctx, st); err != nil {
		logger.Warnf("Heartbeat failed: %v", err)
	}
}

// SetInterval changes the watch period; a running Watch picks it up at once.
func (a *Agent) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	changed := d != a.interval
	a.interval = d
	a.mu.Unlock()
	if changed {
		select {
		case a.reset <- struct{}{}:
		default:
		}
	}
}

func (a *Agent) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

// Watch runs a cycle immediately and then every interval until ctx is done.
// Batch errors are logged and the loop goes on.
func (a *Agent) Watch(ctx context.Context) error {
	interval := a.Interval()
	if interval <= 0 {
		return fmt.Errorf("invalid poll interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("Watching for commands every %s", interval)
	for {
		if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("Poll cycle failed: %v", err)
		}
		if !a.wait(ctx, ticker) {
			return nil
		}
	}
}

// wait blocks until the next tick. It returns false once ctx is done.
func (a *Agent) wait(ctx context.Context, ticker *time.Ticker) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-a.reset:
			interval := a.Interval()
			ticker.Reset(interval)
			logger.Infof("Poll interval changed to %s", interval)
		case <-ticker.C:
			return true
		}
	}
}
