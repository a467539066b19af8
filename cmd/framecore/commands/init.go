package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/agiangrant/framecore"
)

// Init implements the 'framecore init' command
func Init(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", framecore.DefaultConfigFile, "Config file to write")
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}

	if err := framecore.SaveConfig(*path, framecore.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("  ✓ Created %s\n", *path)
	return nil
}
