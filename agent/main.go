package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"growdash-agent/agent/internal/config"
	"growdash-agent/agent/internal/db"
	"growdash-agent/agent/internal/growdash"
	"growdash-agent/agent/internal/logger"
	"growdash-agent/agent/internal/serial"
	"growdash-agent/agent/internal/service"
)

const (
	exitOK = iota
	exitConfig
	exitBatch
)

// exitError carries the process exit code out of a cobra RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "growdash-agent",
	Short:         "Execute GrowDash device commands on the local controller",
	Long:          "Polls the GrowDash backend for pending commands, forwards serial commands to the\nArduino and reports each command's status back.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one poll cycle and exit",
	RunE:  runOnce,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll repeatedly until interrupted",
	RunE:  runWatch,
}

var sendCmd = &cobra.Command{
	Use:   "send <command...>",
	Short: "Send one serial command and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to the agent configuration file")
	rootCmd.AddCommand(runCmd, watchCmd, sendCmd, portsCmd)
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command line and maps its error to a process exit code.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	code := exitCode(err)
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// usage errors from cobra
	return exitConfig
}

// setup loads configuration and starts logging. Missing credentials are a
// config error only for commands that talk to the backend. The returned func
// closes the log file.
func setup(needBackend bool) (*config.Loader, config.AppConfig, func(), error) {
	loader := config.NewLoader(cfgPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, cfg, nil, &exitError{code: exitConfig, err: err}
	}
	closeLog, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, cfg, nil, &exitError{code: exitConfig, err: fmt.Errorf("open log file: %w", err)}
	}
	done := func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}
	if needBackend {
		if err := cfg.Validate(); err != nil {
			if errors.Is(err, config.ErrPlaceholderCredentials) {
				logger.Error("Set agent.device_id and agent.device_token in ", loader.Path())
			} else {
				logger.Errorf("Invalid configuration: %v", err)
			}
			done()
			return nil, cfg, nil, &exitError{code: exitConfig, err: err}
		}
	}
	return loader, cfg, done, nil
}

// buildAgent returns the agent and a cleanup func closing what it opened.
func buildAgent(ctx context.Context, cfg config.AppConfig) (*service.Agent, func(), error) {
	client, err := growdash.NewClient(cfg.BaseURL, cfg.DeviceID, cfg.DeviceToken, cfg.HTTPTimeout)
	if err != nil {
		return nil, nil, &exitError{code: exitConfig, err: err}
	}
	tr, err := serial.New(ctx, cfg.Serial)
	if err != nil {
		return nil, nil, &exitError{code: exitConfig, err: err}
	}
	closers := []func() error{tr.Close}

	var journal *db.Journal
	if cfg.JournalPath != "" {
		gdb, err := db.Open(cfg.JournalPath)
		if err != nil {
			_ = tr.Close()
			return nil, nil, &exitError{code: exitConfig, err: err}
		}
		journal = db.NewJournal(gdb, client)
		closers = append(closers, func() error { return db.Close(gdb) })
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warnf("Cleanup: %v", err)
			}
		}
	}
	return service.New(cfg, client, tr, journal), cleanup, nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	_, cfg, closeLog, err := setup(true)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Infof("GrowDash agent polling %s as device %s", cfg.BaseURL, cfg.DeviceID)

	agent, cleanup, err := buildAgent(cmd.Context(), cfg)
	if err != nil {
		logger.Errorf("Startup failed: %v", err)
		return err
	}
	defer cleanup()

	if _, err := agent.RunOnce(cmd.Context()); err != nil {
		logger.Errorf("Batch failed: %v", err)
		return &exitError{code: exitBatch, err: err}
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	loader, cfg, closeLog, err := setup(true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, cleanup, err := buildAgent(ctx, cfg)
	if err != nil {
		logger.Errorf("Startup failed: %v", err)
		return err
	}
	defer cleanup()

	loader.Watch(func(next config.AppConfig) {
		logger.Infof("Configuration %s reloaded", loader.Path())
		logger.SetLevel(next.LogLevel)
		agent.SetInterval(next.PollInterval)
	})

	if err := agent.Watch(ctx); err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	logger.Info("Shutdown signal received, exiting...")
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	_, cfg, closeLog, err := setup(false)
	if err != nil {
		return err
	}
	defer closeLog()
	tr, err := serial.New(cmd.Context(), cfg.Serial)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	defer tr.Close()

	line := strings.Join(args, " ")
	resp, err := serial.Exchange(cmd.Context(), tr, line, cfg.Serial.ReadTimeout)
	if err != nil {
		return &exitError{code: exitBatch, err: fmt.Errorf("send %q: %w", line, err)}
	}
	color.New(color.FgCyan).Printf("> %s\n", line)
	color.New(color.FgGreen).Printf("< %s\n", resp)
	return nil
}

func runPorts(*cobra.Command, []string) error {
	ports, fallback := serial.ListPorts()
	if fallback {
		color.Yellow("No ports detected, showing defaults")
	}
	for _, p := range ports {
		fmt.Printf("%-16s %s\n", p.Path, p.Description)
	}
	return nil
}
