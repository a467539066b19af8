package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/agiangrant/framecore"
	"github.com/agiangrant/framecore/internal/trace"
)

// Replay implements the 'framecore replay' command
func Replay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	tracePath := fs.String("trace", "", "YAML trace to replay")
	configPath := fs.String("config", framecore.DefaultConfigFile, "Config file (.toml or .yaml)")
	level := fs.String("level", "", "Log level override (debug, info, warn, error)")
	fs.Parse(args)

	if *tracePath == "" {
		return errors.New("--trace is required")
	}

	config, err := framecore.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *level != "" {
		config.Log.Level = *level
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runReplay(ctx, *tracePath, config, os.Stdout, os.Stderr)
}

func runReplay(ctx context.Context, tracePath string, config framecore.Config, out, logs io.Writer) error {
	logger := config.Log.NewLogger(logs).With("run", uuid.NewString())

	tr, err := trace.Load(tracePath)
	if err != nil {
		return err
	}
	logger.Info("replaying trace", "trace", tracePath, "name", tr.Name, "frames", len(tr.Frames))

	results, err := trace.Replay(ctx, tr, config.LoopConfig(logger))
	if err != nil {
		return fmt.Errorf("replay %s: %w", tracePath, err)
	}

	enc := yaml.NewEncoder(out)
	defer enc.Close()
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Info("replay finished", "frames", len(results))
	return nil
}
