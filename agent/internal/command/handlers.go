package command

import (
	"context"
	"time"

	"growdash-agent/agent/internal/logger"
	"growdash-agent/agent/internal/serial"
)

const msgNoCommand = "No command string provided"

// SerialHandler forwards serial_command lines to the controller.
type SerialHandler struct {
	Transport serial.Transport
	Timeout   time.Duration
	// Strict turns a failed "executing" report into a failed command.
	Strict bool
}

func (h *SerialHandler) Handle(ctx context.Context, cmd Command, rep Reporter) *Outcome {
	line := cmd.Params.String("command")
	if line == "" {
		o := Failed(msgNoCommand)
		return &o
	}
	logger.Infof("  Executing: %s", line)

	if err := rep.Report(ctx, cmd.ID, StatusExecuting, "Sending: "+line); err != nil {
		if h.Strict {
			o := Failed("report executing status: " + err.Error())
			return &o
		}
		logger.Warnf("Executing report for command %s not delivered: %v", cmd.ID, err)
	}

	resp, err := serial.Exchange(ctx, h.Transport, line, h.Timeout)
	if err != nil {
		o := Failed(err.Error())
		return &o
	}
	logger.Infof("  Response: %s", resp)
	o := Completed(resp)
	return &o
}
