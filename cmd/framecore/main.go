package main

import (
	"fmt"
	"os"

	"github.com/agiangrant/framecore/cmd/framecore/commands"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = commands.Init(args)
	case "replay":
		err = commands.Replay(args)
	case "version", "-v", "--version":
		fmt.Printf("framecore version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`framecore - frame core tooling

Usage: framecore <command> [options]

Commands:
  init       Write a default framecore.toml
  replay     Replay a recorded YAML input trace and print one report per frame
  version    Print version information
  help       Show this help message

Examples:
  framecore init
  framecore replay --trace click.yaml
  framecore replay --trace click.yaml --config framecore.yaml --level debug

Configuration:
  framecore.toml (or .yaml) in the working directory tunes gestures,
  scrolling, IFrame thresholds, worker delivery and logging.`)
}
