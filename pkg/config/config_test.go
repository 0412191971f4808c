package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := DefaultConfig()

	if cfg.Interaction.HoldDuration.D() != 600*time.Millisecond {
		t.Errorf("hold duration = %v", cfg.Interaction.HoldDuration.D())
	}
	if cfg.Interaction.DragThreshold != 5 || cfg.Interaction.KeepOutMargin != 10 {
		t.Errorf("drag=%v margin=%v", cfg.Interaction.DragThreshold, cfg.Interaction.KeepOutMargin)
	}
	if cfg.StepDelay() != 500*time.Millisecond {
		t.Errorf("step delay = %v", cfg.StepDelay())
	}
	if cfg.Storage.AutosaveInterval.D() != 10*time.Second {
		t.Errorf("autosave = %v", cfg.Storage.AutosaveInterval.D())
	}
	if cfg.Storage.GraphFile != "/data/graphsketch/graph.json" {
		t.Errorf("graph file = %q", cfg.Storage.GraphFile)
	}
	if cfg.Favorites == nil {
		t.Error("expected favorites map to be initialized")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Traversal.Algorithm != "bfs" {
		t.Errorf("expected default config, got algorithm %q", cfg.Traversal.Algorithm)
	}
}

func TestLoadFrom_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
graphs:
  - name: lecture
    path: ~/graphs/lecture.json
favorites:
  1: lecture
interaction:
  hold_duration: 1s
  drag_threshold: 8
traversal:
  step_delay: 120ms
  algorithm: dfs
defaults:
  edge_type: curved
  direction: directed-forward
  weight: 2.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	opts := cfg.InteractionOptions()
	if opts.HoldDuration != time.Second || opts.DragThreshold != 8 {
		t.Errorf("options = %+v", opts)
	}
	// unset fields keep their defaults
	if opts.KeepOutMargin != 10 || opts.ClickSuppression != 250*time.Millisecond {
		t.Errorf("defaults lost: %+v", opts)
	}
	if cfg.StepDelay() != 120*time.Millisecond || cfg.Traversal.Algorithm != "dfs" {
		t.Errorf("traversal = %+v", cfg.Traversal)
	}

	s := cfg.Settings()
	if s.EdgeType != model.EdgeCurved || s.Direction != model.DirectedForward {
		t.Errorf("settings = %+v", s)
	}
	if s.Weight == nil || *s.Weight != 2.5 {
		t.Errorf("weight = %v", s.Weight)
	}

	home, _ := os.UserHomeDir()
	g := cfg.FavoriteGraph(1)
	if g == nil || g.Path != filepath.Join(home, "graphs/lecture.json") {
		t.Errorf("favorite 1 = %+v", g)
	}
}

func TestLoadFrom_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[interaction]
hold_duration = "750ms"
canvas_width = 800
canvas_height = 600

[storage]
autosave_interval = "30s"
watch = false

[[graphs]]
name = "demo"
path = "/tmp/demo.json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	opts := cfg.InteractionOptions()
	if opts.HoldDuration != 750*time.Millisecond {
		t.Errorf("hold = %v", opts.HoldDuration)
	}
	if opts.Bounds != (interaction.Bounds{MaxX: 800, MaxY: 600}) {
		t.Errorf("bounds = %+v", opts.Bounds)
	}
	if cfg.Storage.AutosaveInterval.D() != 30*time.Second || cfg.Storage.Watch {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.FindGraph("DEMO") == nil {
		t.Error("graph lookup should ignore case")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad.yaml":    "interaction: [not a map",
		"algo.yaml":   "traversal:\n  algorithm: astar\n",
		"dur.yaml":    "traversal:\n  step_delay: soon\n",
		"edge.yaml":   "defaults:\n  edge_type: zigzag\n",
		"neg.toml":    "[interaction]\ndrag_threshold = -1\n",
		"inf.toml":    "[defaults]\nweight = inf\n",
		"nan.yaml":    "defaults:\n  weight: .nan\n",
		"broken.toml": "[interaction\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			os.WriteFile(path, []byte(content), 0o644)
			if _, err := LoadFrom(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			cfg := DefaultConfig()
			cfg.Interaction.HoldDuration = Duration(900 * time.Millisecond)
			cfg.Defaults.Direction = string(model.DirectedBackward)
			cfg.AddGraph("demo", "/tmp/demo.json")
			force := true
			cfg.Experimental.ForcePoll = &force

			if err := SaveTo(cfg, path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}
			data, _ := os.ReadFile(path)
			if !strings.Contains(string(data), "900ms") {
				t.Errorf("duration not written as text:\n%s", data)
			}

			got, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom: %v", err)
			}
			if got.Interaction.HoldDuration != cfg.Interaction.HoldDuration {
				t.Errorf("hold = %v", got.Interaction.HoldDuration.D())
			}
			if got.Settings().Direction != model.DirectedBackward {
				t.Errorf("direction = %v", got.Settings().Direction)
			}
			if got.FindGraph("demo") == nil || !got.ForcePoll() {
				t.Errorf("graphs=%v forcePoll=%v", got.Graphs, got.ForcePoll())
			}
		})
	}
}

func TestConfigPath_PrefersYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	base := filepath.Join(dir, "graphsketch")

	if got := ConfigPath(); got != filepath.Join(base, "config.yaml") {
		t.Errorf("no files: %s", got)
	}
	os.MkdirAll(base, 0o755)
	os.WriteFile(filepath.Join(base, "config.toml"), []byte(""), 0o644)
	if got := ConfigPath(); got != filepath.Join(base, "config.toml") {
		t.Errorf("toml only: %s", got)
	}
	os.WriteFile(filepath.Join(base, "config.yaml"), []byte(""), 0o644)
	if got := ConfigPath(); got != filepath.Join(base, "config.yaml") {
		t.Errorf("both: %s", got)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if ConfigDir() != "/cfg/graphsketch" || DataDir() != "/data/graphsketch" || StateDir() != "/state/graphsketch" {
		t.Errorf("dirs = %s %s %s", ConfigDir(), DataDir(), StateDir())
	}
}

func TestFavorites(t *testing.T) {
	cfg := Config{}
	cfg.AddGraph("a", "/a.json")
	cfg.AddGraph("a", "/b.json")
	if len(cfg.Graphs) != 1 || cfg.Graphs[0].Path != "/b.json" {
		t.Errorf("AddGraph should update in place: %v", cfg.Graphs)
	}
	cfg.SetFavorite(2, "a")
	if g := cfg.FavoriteGraph(2); g == nil || g.Name != "a" {
		t.Errorf("favorite 2 = %v", g)
	}
	cfg.SetFavorite(2, "")
	if cfg.FavoriteGraph(2) != nil {
		t.Error("favorite not cleared")
	}
	if cfg.FavoriteGraph(9) != nil {
		t.Error("unset favorite should be nil")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandHome("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("absolute path changed: %q", got)
	}
}
