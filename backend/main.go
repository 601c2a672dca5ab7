package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"growdash-agent/backend/app/seed"
	"growdash-agent/backend/global"
	"growdash-agent/backend/initialize"
	"growdash-agent/backend/server"
)

func main() {
	var (
		cfgPath  = flag.String("config", "config/backend.yaml", "Path to configuration file")
		seedPath = flag.String("seed", "", "YAML fixture with devices and commands to load at start")
		logLevel = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	initialize.InitLogger(*logLevel)

	app, err := initialize.Build(*cfgPath)
	if err != nil {
		global.Logger.Error().Err(err).Msg("cannot start backend")
		os.Exit(1)
	}
	defer app.Close()

	if *seedPath == "" {
		*seedPath = app.Cfg.SeedPath
	}
	if *seedPath != "" {
		f, err := seed.Load(*seedPath)
		if err == nil {
			err = seed.Apply(f, app.Devices, app.Commands)
		}
		if err != nil {
			global.Logger.Error().Err(err).Msg("cannot apply seed")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Serve(ctx, app.Cfg.HTTP.Addr(), app.Router); err != nil {
		global.Logger.Error().Err(err).Msg("http server stopped")
		os.Exit(1)
	}
}
