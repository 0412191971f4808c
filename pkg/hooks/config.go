// Package hooks runs user shell commands around graph exports. Hooks are
// configured in hooks.yaml next to the config file and run before the
// export is written (pre-export) and after it succeeded (post-export).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Phase is when a hook runs.
type Phase string

const (
	// PreExport runs before the export is written. Failure cancels the
	// export by default.
	PreExport Phase = "pre-export"
	// PostExport runs after the export is written. Failure is reported but
	// does not undo the export.
	PostExport Phase = "post-export"
)

// OnError values.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout bounds a hook without its own timeout.
const DefaultTimeout = 30 * time.Second

// FileName is the hooks file looked up in the config directory.
const FileName = "hooks.yaml"

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"` // run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"` // values may reference $GS_* variables
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config holds the hooks by phase.
type Config struct {
	Hooks ByPhase `yaml:"hooks" json:"hooks"`
}

// ByPhase organizes hooks by when they run.
type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// Get returns the hooks of phase.
func (c *Config) Get(phase Phase) []Hook {
	if c == nil {
		return nil
	}
	switch phase {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// ExportContext describes the export to the hooks through the environment.
type ExportContext struct {
	Path     string    // GS_EXPORT_PATH
	Format   string    // GS_EXPORT_FORMAT: json or library
	Source   string    // GS_GRAPH: locator of the exported graph
	Vertices int       // GS_VERTEX_COUNT
	Edges    int       // GS_EDGE_COUNT
	Time     time.Time // GS_TIMESTAMP, RFC3339
}

// Env returns the context as environment assignments.
func (c ExportContext) Env() []string {
	return []string{
		"GS_EXPORT_PATH=" + c.Path,
		"GS_EXPORT_FORMAT=" + c.Format,
		"GS_GRAPH=" + c.Source,
		"GS_VERTEX_COUNT=" + strconv.Itoa(c.Vertices),
		"GS_EDGE_COUNT=" + strconv.Itoa(c.Edges),
		"GS_TIMESTAMP=" + c.Time.Format(time.RFC3339),
	}
}

// Load reads dir/hooks.yaml. A missing file is an empty config. Warnings
// name hooks that were skipped.
func Load(dir string) (*Config, []string, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var warnings []string
	cfg.Hooks.PreExport, warnings = normalize(cfg.Hooks.PreExport, PreExport, warnings)
	cfg.Hooks.PostExport, warnings = normalize(cfg.Hooks.PostExport, PostExport, warnings)
	return &cfg, warnings, nil
}

// normalize applies defaults and drops hooks without a command.
func normalize(hooks []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		switch h.OnError {
		case OnErrorFail, OnErrorContinue:
		case "":
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		default:
			warnings = append(warnings, fmt.Sprintf("%s hook %d: unknown on_error %q, using %q", phase, i+1, h.OnError, OnErrorFail))
			h.OnError = OnErrorFail
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out, warnings
}

// UnmarshalYAML accepts timeouts as durations ("5s") or plain seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}
	h.Name, h.Command, h.Env, h.OnError = dto.Name, dto.Command, dto.Env, dto.OnError

	if dto.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(dto.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	seconds, err := strconv.ParseFloat(dto.Timeout, 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %q", dto.Timeout)
	}
	h.Timeout = time.Duration(seconds * float64(time.Second))
	return nil
}
