package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sbilibin2017/gophrt/internal/apps/agent"
	"github.com/sbilibin2017/gophrt/internal/logger"
)

// Build information variables.
// These are set during build time via ldflags.
var (
	buildVersion string = "N/A"
	buildDate    string = "N/A"
	buildCommit  string = "N/A"
)

// Application entry point.
func main() {
	printBuildInfo()

	cfg, err := agent.NewConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

// printBuildInfo prints the build version, date, and commit hash to stdout.
func printBuildInfo() {
	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}

func run(cfg *agent.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer l.Sync()

	l.Info("starting real-time agent",
		zap.String("version", buildVersion),
		zap.String("service_id", cfg.ServiceID),
		zap.Strings("kinds", cfg.Kinds),
	)

	return agent.Run(ctx, cfg, l)
}
