package command

import (
	"context"
	"fmt"

	"growdash-agent/actuator"
	"growdash-agent/agent/internal/logger"
)

// Reporter pushes one status update for a command back to the backend.
type Reporter interface {
	Report(ctx context.Context, id ID, status Status, message string) error
}

// Handler processes one command type. It may send intermediate reports
// itself; the returned Outcome is reported by the Processor. A nil Outcome
// means nothing is reported for the command.
type Handler interface {
	Handle(ctx context.Context, cmd Command, rep Reporter) *Outcome
}

type HandlerFunc func(ctx context.Context, cmd Command, rep Reporter) *Outcome

func (f HandlerFunc) Handle(ctx context.Context, cmd Command, rep Reporter) *Outcome {
	return f(ctx, cmd, rep)
}

// Processor routes commands to handlers by type, strictly in order.
type Processor struct {
	reporter Reporter
	handlers map[string]Handler
	fallback Handler
}

func NewProcessor(rep Reporter) *Processor {
	return &Processor{
		reporter: rep,
		handlers: map[string]Handler{},
		fallback: HandlerFunc(logOnly),
	}
}

func (p *Processor) Register(typ string, h Handler) { p.handlers[typ] = h }

// Process handles every command of one batch. A failing command never stops
// the ones after it.
func (p *Processor) Process(ctx context.Context, cmds []Command) Summary {
	var sum Summary
	for _, cmd := range cmds {
		if ctx.Err() != nil {
			logger.Warnf("Batch interrupted, %d commands left unprocessed", len(cmds)-sum.Total)
			break
		}
		sum.add(p.Dispatch(ctx, cmd))
	}
	return sum
}

// Dispatch handles one command and reports its outcome.
func (p *Processor) Dispatch(ctx context.Context, cmd Command) (out *Outcome) {
	logger.Infof("Processing command %s: %s", cmd.ID, cmd.Type)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Command %s panicked: %v", cmd.ID, r)
			out = p.finish(ctx, cmd, Failed(fmt.Sprint(r)))
		}
	}()

	h, ok := p.handlers[cmd.Type]
	if !ok {
		h = p.fallback
	}
	o := h.Handle(ctx, cmd, p.reporter)
	if o == nil {
		return nil
	}
	return p.finish(ctx, cmd, *o)
}

func (p *Processor) finish(ctx context.Context, cmd Command, o Outcome) *Outcome {
	if o.Status == StatusFailed {
		logger.Errorf("Command %s failed: %s", cmd.ID, o.Message)
	} else {
		logger.Infof("Command %s %s: %s", cmd.ID, o.Status, o.Message)
	}
	if err := p.reporter.Report(ctx, cmd.ID, o.Status, o.Message); err != nil {
		logger.Warnf("Reporting %s for command %s failed: %v", o.Status, cmd.ID, err)
	}
	return &o
}

// logOnly handles types without a registered handler: it logs the serial
// line the command would translate to and reports nothing.
func logOnly(_ context.Context, cmd Command, _ Reporter) *Outcome {
	if line, ok := actuator.ToSerial(cmd.Type, cmd.Params); ok {
		logger.Infof("Regular actuator command: %s (serial: %s)", cmd.Type, line)
	} else {
		logger.Infof("Regular actuator command: %s", cmd.Type)
	}
	return nil
}
