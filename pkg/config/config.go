// Package config handles loading and saving graphsketch configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/graphsketch/config.yaml (or config.toml)
//   - Data:    ~/.local/share/graphsketch/ (graph.json, library.db)
//   - State:   ~/.local/state/graphsketch/ (debug log)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

const appName = "graphsketch"

// Duration is a time.Duration written as "600ms" in both YAML and TOML.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// GraphRef is a registered graph file, opened by name from the CLI or by
// favorite number in the editor.
type GraphRef struct {
	Name string `yaml:"name" toml:"name"`
	Path string `yaml:"path" toml:"path"`
}

// InteractionConfig tunes gesture recognition.
type InteractionConfig struct {
	HoldDuration     Duration `yaml:"hold_duration,omitempty" toml:"hold_duration,omitempty"`
	DragThreshold    float64  `yaml:"drag_threshold,omitempty" toml:"drag_threshold,omitempty"`
	KeepOutMargin    float64  `yaml:"keep_out_margin,omitempty" toml:"keep_out_margin,omitempty"`
	ClickSuppression Duration `yaml:"click_suppression,omitempty" toml:"click_suppression,omitempty"`
	// Canvas size in graph units. Zero means the terminal size.
	CanvasWidth  float64 `yaml:"canvas_width,omitempty" toml:"canvas_width,omitempty"`
	CanvasHeight float64 `yaml:"canvas_height,omitempty" toml:"canvas_height,omitempty"`
}

// TraversalConfig holds search animation settings.
type TraversalConfig struct {
	StepDelay Duration `yaml:"step_delay,omitempty" toml:"step_delay,omitempty"`
	Algorithm string   `yaml:"algorithm,omitempty" toml:"algorithm,omitempty"` // bfs or dfs
}

// StorageConfig says where graphs are kept.
type StorageConfig struct {
	GraphFile        string   `yaml:"graph_file,omitempty" toml:"graph_file,omitempty"`
	Library          string   `yaml:"library,omitempty" toml:"library,omitempty"`
	LibrarySlot      string   `yaml:"library_slot,omitempty" toml:"library_slot,omitempty"` // mirror autosaves here when set
	AutosaveInterval Duration `yaml:"autosave_interval,omitempty" toml:"autosave_interval,omitempty"`
	Watch            bool     `yaml:"watch" toml:"watch"`
}

// CanvasConfig maps terminal cells to graph units.
type CanvasConfig struct {
	CellWidth  float64 `yaml:"cell_width,omitempty" toml:"cell_width,omitempty"`
	CellHeight float64 `yaml:"cell_height,omitempty" toml:"cell_height,omitempty"`
}

// DefaultsConfig seeds the graph settings of new graphs.
type DefaultsConfig struct {
	EdgeType   string   `yaml:"edge_type,omitempty" toml:"edge_type,omitempty"`
	Direction  string   `yaml:"direction,omitempty" toml:"direction,omitempty"`
	VertexSize float64  `yaml:"vertex_size,omitempty" toml:"vertex_size,omitempty"`
	Weight     *float64 `yaml:"weight,omitempty" toml:"weight,omitempty"`
}

// AnalysisConfig controls the summary footer.
type AnalysisConfig struct {
	Footer         bool `yaml:"footer" toml:"footer"`
	SkipCentrality bool `yaml:"skip_centrality,omitempty" toml:"skip_centrality,omitempty"`
}

// ExperimentalConfig holds experimental feature flags.
type ExperimentalConfig struct {
	ForcePoll *bool `yaml:"force_poll,omitempty" toml:"force_poll,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Graphs       []GraphRef         `yaml:"graphs,omitempty" toml:"graphs,omitempty"`
	Favorites    map[int]string     `yaml:"favorites,omitempty" toml:"-"` // number key (1-9) -> graph name
	Interaction  InteractionConfig  `yaml:"interaction,omitempty" toml:"interaction"`
	Traversal    TraversalConfig    `yaml:"traversal,omitempty" toml:"traversal"`
	Storage      StorageConfig      `yaml:"storage,omitempty" toml:"storage"`
	Canvas       CanvasConfig       `yaml:"canvas,omitempty" toml:"canvas"`
	Defaults     DefaultsConfig     `yaml:"defaults,omitempty" toml:"defaults"`
	Analysis     AnalysisConfig     `yaml:"analysis,omitempty" toml:"analysis"`
	Experimental ExperimentalConfig `yaml:"experimental,omitempty" toml:"experimental"`
}

// DefaultConfig returns a Config with the stock settings.
func DefaultConfig() Config {
	opts := interaction.DefaultOptions()
	settings := model.DefaultSettings()
	data := DataDir()
	return Config{
		Favorites: make(map[int]string),
		Interaction: InteractionConfig{
			HoldDuration:     Duration(opts.HoldDuration),
			DragThreshold:    opts.DragThreshold,
			KeepOutMargin:    opts.KeepOutMargin,
			ClickSuppression: Duration(opts.ClickSuppression),
		},
		Traversal: TraversalConfig{
			StepDelay: Duration(500 * time.Millisecond),
			Algorithm: "bfs",
		},
		Storage: StorageConfig{
			GraphFile:        joinIfSet(data, "graph.json"),
			Library:          joinIfSet(data, "library.db"),
			AutosaveInterval: Duration(10 * time.Second),
			Watch:            true,
		},
		Canvas: CanvasConfig{CellWidth: 10, CellHeight: 20},
		Defaults: DefaultsConfig{
			EdgeType:   string(settings.EdgeType),
			Direction:  string(settings.Direction),
			VertexSize: settings.VertexSize,
		},
		Analysis: AnalysisConfig{Footer: true},
	}
}

func joinIfSet(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{home}, append(fallback, appName)...)...)
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string { return xdgDir("XDG_CONFIG_HOME", ".config") }

// DataDir returns the XDG data directory.
func DataDir() string { return xdgDir("XDG_DATA_HOME", ".local", "share") }

// StateDir returns the XDG state directory.
func StateDir() string { return xdgDir("XDG_STATE_HOME", ".local", "state") }

// ConfigPath returns the config file path. config.toml is used when it
// exists and config.yaml does not.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	yml := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yml); err != nil {
		tml := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(tml); err == nil {
			return tml
		}
	}
	return yml
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadFrom reads config from a specific path. Files ending in .toml are
// parsed as TOML, everything else as YAML. Returns DefaultConfig if the
// file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}
	for i := range cfg.Graphs {
		cfg.Graphs[i].Path = expandHome(cfg.Graphs[i].Path)
	}
	cfg.Storage.GraphFile = expandHome(cfg.Storage.GraphFile)
	cfg.Storage.Library = expandHome(cfg.Storage.Library)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path, as TOML when the path ends
// in .toml.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var data []byte
	var err error
	if isTOML(path) {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	if c.Interaction.HoldDuration < 0 || c.Interaction.ClickSuppression < 0 {
		return fmt.Errorf("interaction durations cannot be negative")
	}
	if c.Interaction.DragThreshold < 0 || c.Interaction.KeepOutMargin < 0 {
		return fmt.Errorf("interaction distances cannot be negative")
	}
	if c.Traversal.StepDelay < 0 || c.Storage.AutosaveInterval < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	if a := strings.ToLower(c.Traversal.Algorithm); a != "" && a != "bfs" && a != "dfs" {
		return fmt.Errorf("unknown traversal algorithm %q", c.Traversal.Algorithm)
	}
	if c.Canvas.CellWidth < 0 || c.Canvas.CellHeight < 0 {
		return fmt.Errorf("cell size cannot be negative")
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}

// InteractionOptions converts the interaction section, falling back to
// the stock value for every zero field.
func (c Config) InteractionOptions() interaction.Options {
	opts := interaction.DefaultOptions()
	ic := c.Interaction
	if ic.HoldDuration > 0 {
		opts.HoldDuration = ic.HoldDuration.D()
	}
	if ic.DragThreshold > 0 {
		opts.DragThreshold = ic.DragThreshold
	}
	if ic.KeepOutMargin > 0 {
		opts.KeepOutMargin = ic.KeepOutMargin
	}
	if ic.ClickSuppression > 0 {
		opts.ClickSuppression = ic.ClickSuppression.D()
	}
	if ic.CanvasWidth > 0 && ic.CanvasHeight > 0 {
		opts.Bounds = interaction.Bounds{MaxX: ic.CanvasWidth, MaxY: ic.CanvasHeight}
	}
	return opts
}

// Settings converts the defaults section into graph settings.
func (c Config) Settings() model.Settings {
	s := model.DefaultSettings()
	if c.Defaults.EdgeType != "" {
		s.EdgeType = model.EdgeType(c.Defaults.EdgeType)
	}
	if c.Defaults.Direction != "" {
		s.Direction = model.Direction(c.Defaults.Direction)
	}
	if c.Defaults.VertexSize > 0 {
		s.VertexSize = c.Defaults.VertexSize
	}
	s.Weight = c.Defaults.Weight
	return s
}

// StepDelay returns the traversal step delay, or the stock 500ms.
func (c Config) StepDelay() time.Duration {
	if c.Traversal.StepDelay > 0 {
		return c.Traversal.StepDelay.D()
	}
	return 500 * time.Millisecond
}

// ForcePoll reports whether the file watcher should poll.
func (c Config) ForcePoll() bool {
	return c.Experimental.ForcePoll != nil && *c.Experimental.ForcePoll
}

// FindGraph returns the registered graph with the given name, or nil.
func (c Config) FindGraph(name string) *GraphRef {
	for i := range c.Graphs {
		if strings.EqualFold(c.Graphs[i].Name, name) {
			return &c.Graphs[i]
		}
	}
	return nil
}

// AddGraph registers or updates a named graph file.
func (c *Config) AddGraph(name, path string) {
	if g := c.FindGraph(name); g != nil {
		g.Path = path
		return
	}
	c.Graphs = append(c.Graphs, GraphRef{Name: name, Path: path})
}

// FavoriteGraph returns the graph assigned to number key n (1-9), or nil.
func (c Config) FavoriteGraph(n int) *GraphRef {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindGraph(name)
}

// SetFavorite assigns a graph name to a number key (1-9). An empty name
// clears the key.
func (c *Config) SetFavorite(n int, name string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if name == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = name
	}
}

// ResolvedPath returns the graph path with ~ expanded.
func (g GraphRef) ResolvedPath() string {
	return expandHome(g.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
