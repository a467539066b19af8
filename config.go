package framecore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/agiangrant/framecore/frame"
	"github.com/agiangrant/framecore/scroll"
)

// DefaultConfigFile is the file name written by the CLI's init command.
const DefaultConfigFile = "framecore.toml"

// ErrUnknownFormat is returned for config files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

// Config is the on-disk configuration. Durations are whole milliseconds.
type Config struct {
	Events   EventsConfig   `toml:"events" yaml:"events"`
	HitTest  HitTestConfig  `toml:"hittest" yaml:"hittest"`
	Scroll   ScrollConfig   `toml:"scroll" yaml:"scroll"`
	Callback CallbackConfig `toml:"callback" yaml:"callback"`
	Focus    FocusConfig    `toml:"focus" yaml:"focus"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

type EventsConfig struct {
	DragThreshold       float32 `toml:"drag_threshold" yaml:"drag_threshold"`
	DoubleClickWindowMs int64   `toml:"double_click_window_ms" yaml:"double_click_window_ms"`
	DoubleClickDistance float32 `toml:"double_click_distance" yaml:"double_click_distance"`
}

type HitTestConfig struct {
	ScrollbarWidth float32 `toml:"scrollbar_width" yaml:"scrollbar_width"`
	MinThumbLength float32 `toml:"min_thumb_length" yaml:"min_thumb_length"`
}

// ScrollConfig covers scroll animation and IFrame re-invocation.
type ScrollConfig struct {
	EdgeThreshold    float32 `toml:"edge_threshold" yaml:"edge_threshold"`
	HysteresisFactor float32 `toml:"hysteresis_factor" yaml:"hysteresis_factor"`
	DurationMs       int64   `toml:"duration_ms" yaml:"duration_ms"`

	// Easing is a name understood by scroll.EasingByName.
	Easing string `toml:"easing" yaml:"easing"`

	WheelLineHeight float32 `toml:"wheel_line_height" yaml:"wheel_line_height"`
	Padding         float32 `toml:"padding" yaml:"padding"`
}

type CallbackConfig struct {
	MaxThreadMessages int `toml:"max_thread_messages" yaml:"max_thread_messages"`
	ThreadBuffer      int `toml:"thread_buffer" yaml:"thread_buffer"`
}

type FocusConfig struct {
	OnClick bool `toml:"on_click" yaml:"on_click"`
}

// LogConfig selects the handler built by NewLogger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
}

// DefaultConfig mirrors frame.DefaultLoopConfig.
func DefaultConfig() Config {
	lc := frame.DefaultLoopConfig()
	return Config{
		Events: EventsConfig{
			DragThreshold:       lc.Events.DragThreshold,
			DoubleClickWindowMs: lc.Events.DoubleClickWindow.Milliseconds(),
			DoubleClickDistance: lc.Events.DoubleClickDistance,
		},
		HitTest: HitTestConfig{
			ScrollbarWidth: lc.HitTest.ScrollbarWidth,
			MinThumbLength: lc.HitTest.MinThumbLength,
		},
		Scroll: ScrollConfig{
			EdgeThreshold:    lc.Scroll.EdgeThreshold,
			HysteresisFactor: lc.Scroll.HysteresisFactor,
			DurationMs:       lc.Scroll.Duration.Milliseconds(),
			Easing:           "ease-out",
			WheelLineHeight:  lc.Scroll.WheelLineHeight,
			Padding:          lc.Scroll.Padding,
		},
		Callback: CallbackConfig{
			MaxThreadMessages: lc.Callback.MaxThreadMessages,
			ThreadBuffer:      lc.Callback.ThreadBuffer,
		},
		Focus: FocusConfig{OnClick: lc.FocusOnClick},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads a TOML or YAML config file, chosen by extension. Values
// missing from the file keep their defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return config, fmt.Errorf("load %s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return config, nil
}

// SaveConfig writes the config as TOML.
func SaveConfig(path string, config Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoopConfig converts the file schema to a frame.LoopConfig. Invalid or
// zero values fall back to the package defaults.
func (c Config) LoopConfig(logger *slog.Logger) frame.LoopConfig {
	lc := frame.DefaultLoopConfig()
	lc.Logger = logger
	lc.FocusOnClick = c.Focus.OnClick

	if c.Events.DragThreshold > 0 {
		lc.Events.DragThreshold = c.Events.DragThreshold
	}
	if c.Events.DoubleClickWindowMs > 0 {
		lc.Events.DoubleClickWindow = time.Duration(c.Events.DoubleClickWindowMs) * time.Millisecond
	}
	if c.Events.DoubleClickDistance > 0 {
		lc.Events.DoubleClickDistance = c.Events.DoubleClickDistance
	}

	if c.HitTest.ScrollbarWidth > 0 {
		lc.HitTest.ScrollbarWidth = c.HitTest.ScrollbarWidth
	}
	if c.HitTest.MinThumbLength > 0 {
		lc.HitTest.MinThumbLength = c.HitTest.MinThumbLength
	}

	if c.Scroll.EdgeThreshold > 0 {
		lc.Scroll.EdgeThreshold = c.Scroll.EdgeThreshold
	}
	if c.Scroll.HysteresisFactor >= 1 {
		lc.Scroll.HysteresisFactor = c.Scroll.HysteresisFactor
	}
	if c.Scroll.DurationMs > 0 {
		lc.Scroll.Duration = time.Duration(c.Scroll.DurationMs) * time.Millisecond
	}
	if e := scroll.EasingByName(c.Scroll.Easing); e != nil {
		lc.Scroll.Easing = e
	}
	if c.Scroll.WheelLineHeight > 0 {
		lc.Scroll.WheelLineHeight = c.Scroll.WheelLineHeight
	}
	if c.Scroll.Padding > 0 {
		lc.Scroll.Padding = c.Scroll.Padding
	}

	if c.Callback.MaxThreadMessages != 0 {
		lc.Callback.MaxThreadMessages = c.Callback.MaxThreadMessages
	}
	if c.Callback.ThreadBuffer > 0 {
		lc.Callback.ThreadBuffer = c.Callback.ThreadBuffer
	}
	return lc
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds the logger described by the log section.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
