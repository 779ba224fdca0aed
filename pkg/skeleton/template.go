package skeleton

import (
	"github.com/google/uuid"

	"github.com/menta2k/pose-template/pkg/geometry"
	"github.com/menta2k/pose-template/pkg/types"
)

// Palette is used for template labels that the label service does not know yet
var Palette = []string{
	"#ff7d00", "#00a5ff", "#26d980", "#ff5662", "#9d3b1a",
	"#708541", "#e96115", "#8bdd35", "#548fad", "#c9e649",
}

// NewEdge creates an edge with a fresh id
func NewEdge(from, to types.KeypointNode) types.EdgeLine {
	return types.EdgeLine{ID: uuid.New().String(), From: from, To: to}
}

// FormatTemplate turns a persisted keypoint structure into an editable state.
// Positions are denormalized into roi. Labels are matched by name; unknown
// names get a new label. Edges whose endpoints are missing or equal are
// dropped instead of failing the load.
func FormatTemplate(structure types.KeypointStructure, labels []types.Label, roi types.ROI) types.TemplateState {
	byName := make(map[string]types.Label, len(labels))
	for _, l := range labels {
		if _, ok := byName[l.Name]; !ok {
			byName[l.Name] = l
		}
	}

	points := make([]types.KeypointNode, 0, len(structure.Positions))
	nodeByName := make(map[string]types.KeypointNode, len(structure.Positions))
	for _, pos := range structure.Positions {
		if _, dup := nodeByName[pos.Label]; dup {
			continue
		}
		label, ok := byName[pos.Label]
		if !ok {
			label = types.Label{
				ID:    uuid.New().String(),
				Name:  pos.Label,
				Color: Palette[len(points)%len(Palette)],
			}
		}
		p := geometry.DenormalizePoint(types.Point{X: pos.X, Y: pos.Y}, roi)
		node := types.KeypointNode{X: p.X, Y: p.Y, Label: label, IsVisible: true}
		nodeByName[pos.Label] = node
		points = append(points, node)
	}

	edges := make([]types.EdgeLine, 0, len(structure.Edges))
	for _, adj := range groupInOrder(structure.Edges) {
		from, ok := nodeByName[adj.from]
		if !ok {
			continue
		}
		for _, toName := range adj.to {
			to, ok := nodeByName[toName]
			if !ok {
				continue
			}
			edges = append(edges, NewEdge(from, to))
		}
	}

	points, edges = SyncEdges(points, edges)
	return types.TemplateState{Points: points, Edges: edges}
}

// ToKeypointStructure serializes a state into the persisted shape: label
// names and positions normalized to roi.
func ToKeypointStructure(state types.TemplateState, roi types.ROI) types.KeypointStructure {
	positions := make([]types.Position, len(state.Points))
	for i, p := range state.Points {
		n := geometry.NormalizePoint(p.Point(), roi)
		positions[i] = types.Position{Label: p.Label.Name, X: n.X, Y: n.Y}
	}

	_, edges := SyncEdges(state.Points, state.Edges)
	descriptors := make([]types.EdgeDescriptor, len(edges))
	for i, e := range edges {
		descriptors[i] = types.EdgeDescriptor{Nodes: []string{e.From.Label.Name, e.To.Label.Name}}
	}

	return types.KeypointStructure{Edges: descriptors, Positions: positions}
}
