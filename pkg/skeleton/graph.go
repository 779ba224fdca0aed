// Package skeleton maintains the node/edge graph of a keypoint template:
// adjacency grouping, edge resolution against live nodes, resynchronization
// after node mutations and the template load/finalize contract.
package skeleton

import (
	"github.com/menta2k/pose-template/pkg/types"
)

// GroupByFirstNode builds an adjacency list keyed by the first node of every
// descriptor. Duplicate pairs collapse, self loops and descriptors with fewer
// than two nodes are dropped.
func GroupByFirstNode(edges []types.EdgeDescriptor) map[string][]string {
	grouped := make(map[string][]string)
	seen := make(map[[2]string]struct{})

	for _, edge := range edges {
		if len(edge.Nodes) < 2 {
			continue
		}
		from, to := edge.Nodes[0], edge.Nodes[1]
		if from == to {
			continue
		}
		key := [2]string{from, to}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		grouped[from] = append(grouped[from], to)
	}

	return grouped
}

// EdgeEnd is one resolved endpoint of an edge
type EdgeEnd struct {
	LabelID string  `json:"labelId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// ResolvedEdge carries the current coordinates of both endpoints
type ResolvedEdge struct {
	From EdgeEnd `json:"from"`
	To   EdgeEnd `json:"to"`
}

// GetPointsEdges resolves descriptors of label ids against the live nodes.
// Descriptors with a missing endpoint are dropped and identical edges are
// returned once.
func GetPointsEdges(nodes []types.KeypointNode, edges []types.EdgeDescriptor) []ResolvedEdge {
	byID := indexByLabelID(nodes)
	resolved := make([]ResolvedEdge, 0, len(edges))

	for _, adj := range groupInOrder(edges) {
		fromNode, ok := byID[adj.from]
		if !ok {
			continue
		}
		for _, to := range adj.to {
			toNode, ok := byID[to]
			if !ok {
				continue
			}
			resolved = append(resolved, ResolvedEdge{
				From: EdgeEnd{LabelID: fromNode.Label.ID, X: fromNode.X, Y: fromNode.Y},
				To:   EdgeEnd{LabelID: toNode.Label.ID, X: toNode.X, Y: toNode.Y},
			})
		}
	}

	return resolved
}

type adjacency struct {
	from string
	to   []string
}

// groupInOrder is GroupByFirstNode with the first-seen order of source nodes kept
func groupInOrder(edges []types.EdgeDescriptor) []adjacency {
	grouped := GroupByFirstNode(edges)
	order := make([]adjacency, 0, len(grouped))
	added := make(map[string]struct{}, len(grouped))

	for _, edge := range edges {
		if len(edge.Nodes) < 2 {
			continue
		}
		from := edge.Nodes[0]
		targets, ok := grouped[from]
		if !ok {
			continue
		}
		if _, ok := added[from]; ok {
			continue
		}
		added[from] = struct{}{}
		order = append(order, adjacency{from: from, to: targets})
	}

	return order
}

// UpdateWithLatestPoints returns a mapper that refreshes an edge's endpoints
// from the given points by label id. Endpoints that no longer exist are kept
// as they are; IsValidEdge reports such edges.
func UpdateWithLatestPoints(points []types.KeypointNode) func(types.EdgeLine) types.EdgeLine {
	byID := indexByLabelID(points)
	return func(edge types.EdgeLine) types.EdgeLine {
		if from, ok := byID[edge.From.Label.ID]; ok {
			edge.From = from
		}
		if to, ok := byID[edge.To.Label.ID]; ok {
			edge.To = to
		}
		return edge
	}
}

// IsValidEdge reports whether both endpoints exist in points and differ
func IsValidEdge(points []types.KeypointNode, edge types.EdgeLine) bool {
	if edge.From.Label.ID == edge.To.Label.ID {
		return false
	}
	byID := indexByLabelID(points)
	_, hasFrom := byID[edge.From.Label.ID]
	_, hasTo := byID[edge.To.Label.ID]
	return hasFrom && hasTo
}

// SyncEdges refreshes every edge from points, drops invalid edges and
// duplicates (in either direction), and recomputes each node's EdgeEnds.
func SyncEdges(points []types.KeypointNode, edges []types.EdgeLine) ([]types.KeypointNode, []types.EdgeLine) {
	byID := indexByLabelID(points)
	seen := make(map[[2]string]struct{}, len(edges))
	ends := make(map[string][]string, len(points))
	synced := make([]types.EdgeLine, 0, len(edges))

	for _, edge := range edges {
		fromID, toID := edge.From.Label.ID, edge.To.Label.ID
		from, okFrom := byID[fromID]
		to, okTo := byID[toID]
		if !okFrom || !okTo || fromID == toID {
			continue
		}
		if _, dup := seen[pairKey(fromID, toID)]; dup {
			continue
		}
		seen[pairKey(fromID, toID)] = struct{}{}
		ends[fromID] = append(ends[fromID], toID)
		ends[toID] = append(ends[toID], fromID)
		synced = append(synced, types.EdgeLine{ID: edge.ID, From: from, To: to})
	}

	nodes := make([]types.KeypointNode, len(points))
	for i, p := range points {
		p.EdgeEnds = ends[p.Label.ID]
		nodes[i] = p
	}

	// endpoints must carry the refreshed EdgeEnds too
	update := UpdateWithLatestPoints(nodes)
	for i := range synced {
		synced[i] = update(synced[i])
	}

	return nodes, synced
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func indexByLabelID(points []types.KeypointNode) map[string]types.KeypointNode {
	byID := make(map[string]types.KeypointNode, len(points))
	for _, p := range points {
		byID[p.Label.ID] = p
	}
	return byID
}

// FindPoint returns the index of the node with the given label id, or -1
func FindPoint(points []types.KeypointNode, labelID string) int {
	for i, p := range points {
		if p.Label.ID == labelID {
			return i
		}
	}
	return -1
}
