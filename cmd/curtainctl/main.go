package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/curtainlabs/curtainctl/internal/actuator"
	"github.com/curtainlabs/curtainctl/internal/link"
	"github.com/curtainlabs/curtainctl/internal/logging"
	"github.com/curtainlabs/curtainctl/internal/session"
)

const defaultConfigPath = "curtainctl.toml"

func main() {
	logging.ConfigureRuntime()

	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "curtainctl: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "curtainctl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg appConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack := link.NewHostNetStack(cfg.Interface)
	radio := link.NewManagedRadio(stack, link.DefaultPollInterval)
	supervisor := link.NewSupervisor(cfg.Link, radio)
	go func() { _ = supervisor.Run(ctx) }()

	if err := link.WaitReady(ctx, stack, link.DefaultPollInterval); err != nil {
		return err
	}

	act, err := actuator.New(cfg.Actuator)
	if err != nil {
		return err
	}

	mgr, err := session.NewManager(cfg.Session, act)
	if err != nil {
		return err
	}
	log.Info().Str("server", cfg.Session.Address).Msg("starting controller session loop")
	return mgr.Run(ctx)
}
