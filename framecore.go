// Package framecore is the event and state core of a UI engine. Each frame
// it folds raw window input into a snapshot, hit tests it against the
// laid-out DOMs, synthesizes semantic events by diffing snapshots, runs
// callbacks, timers and worker write-backs, animates scrolling, re-invokes
// lazy IFrame content and collects unused renderer resources.
//
// The subpackages can be used on their own; this package wires them to a
// config file and a logger.
package framecore

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/agiangrant/framecore/dom"
	"github.com/agiangrant/framecore/frame"
	"github.com/agiangrant/framecore/resources"
)

// New creates the frame loop of one window.
func New(provider dom.Provider, holder resources.Holder, config Config, logger *slog.Logger) *frame.Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return frame.NewLoop(provider, holder, config.LoopConfig(logger))
}

// Open loads the config at path and creates a loop logging to w.
func Open(path string, provider dom.Provider, holder resources.Holder, w io.Writer) (*frame.Loop, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return New(provider, holder, config, config.Log.NewLogger(w)), nil
}
