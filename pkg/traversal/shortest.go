package traversal

import (
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// Unreachable is the distance reported when no path exists.
const Unreachable = -1

// HopResult is the answer to a distance query. Distance counts edges and
// ignores weights.
type HopResult struct {
	Distance int
	Path     []*model.Vertex
}

// Reachable reports whether a path was found.
func (r HopResult) Reachable() bool { return r.Distance != Unreachable }

// ShortestHopPath returns the fewest-edges path from v1 to v2. Equal
// endpoints give distance 0 and path [v1]; unreachable endpoints give
// distance -1 and an empty path.
func ShortestHopPath(adj Adjacency, v1, v2 *model.Vertex) HopResult {
	defer metrics.Timer(metrics.ShortestPath)()

	if v1 == nil || v2 == nil {
		return HopResult{Distance: Unreachable}
	}
	if v1 == v2 {
		return HopResult{Distance: 0, Path: []*model.Vertex{v1}}
	}

	dist := map[int]int{v1.ID: 0}
	parent := make(map[int]*model.Vertex)
	queue := []*model.Vertex{v1}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nbr := range adj[cur.ID] {
			if _, ok := dist[nbr.ID]; ok {
				continue
			}
			dist[nbr.ID] = dist[cur.ID] + 1
			parent[nbr.ID] = cur
			if nbr == v2 {
				return HopResult{Distance: dist[nbr.ID], Path: buildPath(parent, v1, v2)}
			}
			queue = append(queue, nbr)
		}
	}
	return HopResult{Distance: Unreachable}
}
