package analysis

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment overrides for the centrality pass.
const (
	EnvSkipCentrality    = "GS_SKIP_CENTRALITY"
	EnvAnalysisTimeout   = "GS_ANALYSIS_TIMEOUT_SECONDS"
	defaultCentralityCap = 2000
)

// Config controls the optional, more expensive parts of a summary.
type Config struct {
	// PageRank and betweenness over the undirected graph.
	ComputeCentrality bool
	// Betweenness is O(V*E); it is skipped above this many vertices.
	BetweennessMaxVertices int
	// CentralityTimeout bounds each centrality computation. Zero waits
	// forever.
	CentralityTimeout time.Duration

	ComputeCores        bool
	ComputeArticulation bool

	// SkipReason is set when ComputeCentrality was switched off by an
	// override.
	SkipReason string
}

// DefaultConfig enables everything with a half-second budget per
// centrality metric, then applies environment overrides.
func DefaultConfig() Config {
	cfg := Config{
		ComputeCentrality:      true,
		BetweennessMaxVertices: defaultCentralityCap,
		CentralityTimeout:      500 * time.Millisecond,
		ComputeCores:           true,
		ComputeArticulation:    true,
	}
	return ApplyEnvOverrides(cfg)
}

// FastConfig is used for the live footer: structure only.
func FastConfig() Config {
	return Config{ComputeArticulation: true}
}

// ApplyEnvOverrides honours GS_SKIP_CENTRALITY and
// GS_ANALYSIS_TIMEOUT_SECONDS.
func ApplyEnvOverrides(cfg Config) Config {
	if envBool(EnvSkipCentrality) {
		cfg.ComputeCentrality = false
		cfg.SkipReason = EnvSkipCentrality + " set"
	}
	if seconds, ok := envPositiveInt(EnvAnalysisTimeout); ok {
		cfg.CentralityTimeout = time.Duration(seconds) * time.Second
	}
	return cfg
}

func envPositiveInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
