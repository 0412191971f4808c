package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/graphsketch/pkg/analysis"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
)

// insightsMsg carries a summary computed off the event loop.
type insightsMsg struct {
	summary analysis.Summary
	rev     uint64
}

// analysisConfig is the full analysis used by the insights panel.
func (m Model) analysisConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	if m.cfg.Analysis.SkipCentrality {
		cfg.ComputeCentrality = false
		cfg.SkipReason = "disabled in config"
	}
	return cfg
}

// refreshInsights starts a background analysis when the panel is open and
// the graph changed since the last one. The store is cloned so the event
// loop can keep mutating it.
func (m *Model) refreshInsights() tea.Cmd {
	if !m.showInsights || m.analyzing {
		return nil
	}
	store := m.session.Store()
	rev := store.Revision()
	if m.insights != nil && m.insightsRev == rev {
		return nil
	}
	m.analyzing = true
	return analyzeCmd(store.Clone(), m.analysisConfig(), rev)
}

func analyzeCmd(store *graph.Store, cfg analysis.Config, rev uint64) tea.Cmd {
	return func() tea.Msg {
		return insightsMsg{summary: analysis.Summarize(store, cfg), rev: rev}
	}
}

func (m Model) renderInsights(width int) string {
	r := m.theme.Renderer
	header := r.NewStyle().Bold(true).Foreground(m.theme.Primary)
	muted := r.NewStyle().Foreground(m.theme.Muted)
	inner := max(width-4, 10)

	var b strings.Builder
	b.WriteString(header.Render("Insights"))
	b.WriteString("\n\n")

	s := m.insights
	if s == nil {
		b.WriteString(muted.Render("analyzing…"))
		return PanelStyle.Width(max(width-2, 10)).Render(b.String())
	}

	row := func(k, v string) {
		fmt.Fprintf(&b, "%s %s\n", padRight(k, 12), truncate(v, inner-13))
	}
	row("vertices", fmt.Sprint(s.Vertices))
	row("edges", fmt.Sprint(s.Edges))
	row("components", fmt.Sprint(len(s.Components)))
	row("density", fmt.Sprintf("%.3f", s.Density))
	row("max degree", fmt.Sprint(s.MaxDegree))
	row("avg degree", fmt.Sprintf("%.2f", s.AvgDegree))
	row("cyclic", yesNo(s.Cyclic))
	if s.DirectedEdges > 0 {
		row("DAG", yesNo(s.DirectedAcyclic))
	}
	if len(s.Isolated) > 0 {
		row("isolated", strings.Join(s.Isolated, " "))
	}
	if len(s.Articulation) > 0 {
		row("cut", strings.Join(s.Articulation, " "))
	}
	if s.MaxCore > 0 {
		row("max core", fmt.Sprint(s.MaxCore))
	}

	switch s.CentralityStatus {
	case analysis.StatusComputed:
		b.WriteString("\n")
		b.WriteString(header.Render("PageRank"))
		b.WriteString("\n")
		for _, rk := range analysis.Top(s.PageRank, 5) {
			row(truncate(rk.Label, 12), fmt.Sprintf("%.3f", rk.Score))
		}
		if len(s.Betweenness) > 0 {
			b.WriteString(header.Render("Betweenness"))
			b.WriteString("\n")
			for _, rk := range analysis.Top(s.Betweenness, 3) {
				row(truncate(rk.Label, 12), fmt.Sprintf("%.1f", rk.Score))
			}
		}
	default:
		if s.CentralityComment != "" {
			b.WriteString("\n")
			b.WriteString(muted.Render(truncate("centrality: "+s.CentralityComment, inner)))
		}
	}
	if m.analyzing {
		b.WriteString("\n" + muted.Render("updating…"))
	}
	return PanelStyle.Width(max(width-2, 10)).Render(strings.TrimRight(b.String(), "\n"))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
