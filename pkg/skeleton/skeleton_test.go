package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/pose-template/pkg/types"
)

func node(id string, x, y float64) types.KeypointNode {
	return types.KeypointNode{X: x, Y: y, Label: types.Label{ID: id, Name: id}, IsVisible: true}
}

func desc(nodes ...string) types.EdgeDescriptor {
	return types.EdgeDescriptor{Nodes: nodes}
}

func TestGroupByFirstNode(t *testing.T) {
	t.Run("deduplicates pairs", func(t *testing.T) {
		got := GroupByFirstNode([]types.EdgeDescriptor{desc("A", "B"), desc("A", "B"), desc("A", "C")})
		assert.Equal(t, map[string][]string{"A": {"B", "C"}}, got)
	})

	t.Run("drops self loops", func(t *testing.T) {
		got := GroupByFirstNode([]types.EdgeDescriptor{desc("A", "B"), desc("A", "A")})
		assert.Equal(t, map[string][]string{"A": {"B"}}, got)
	})

	t.Run("tolerates malformed descriptors", func(t *testing.T) {
		got := GroupByFirstNode([]types.EdgeDescriptor{desc("A"), desc(), desc("B", "C")})
		assert.Equal(t, map[string][]string{"B": {"C"}}, got)
	})
}

func TestGetPointsEdges(t *testing.T) {
	nodes := []types.KeypointNode{node("a", 1, 2), node("b", 3, 4), node("c", 5, 6)}
	edges := []types.EdgeDescriptor{desc("a", "b"), desc("a", "b"), desc("b", "c"), desc("c", "missing")}

	got := GetPointsEdges(nodes, edges)
	assert.Equal(t, []ResolvedEdge{
		{From: EdgeEnd{LabelID: "a", X: 1, Y: 2}, To: EdgeEnd{LabelID: "b", X: 3, Y: 4}},
		{From: EdgeEnd{LabelID: "b", X: 3, Y: 4}, To: EdgeEnd{LabelID: "c", X: 5, Y: 6}},
	}, got)
}

func TestUpdateWithLatestPoints(t *testing.T) {
	edge := types.EdgeLine{ID: "e1", From: node("a", 0, 0), To: node("b", 1, 1)}
	moved := []types.KeypointNode{node("a", 10, 10), node("b", 20, 20)}

	got := UpdateWithLatestPoints(moved)(edge)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, 10.0, got.From.X)
	assert.Equal(t, 20.0, got.To.Y)
}

func TestIsValidEdge(t *testing.T) {
	points := []types.KeypointNode{node("a", 0, 0), node("b", 1, 1)}

	assert.True(t, IsValidEdge(points, types.EdgeLine{From: points[0], To: points[1]}))
	assert.False(t, IsValidEdge(points, types.EdgeLine{From: points[0], To: points[0]}))
	assert.False(t, IsValidEdge(points, types.EdgeLine{From: points[0], To: node("z", 0, 0)}))
}

func TestSyncEdges(t *testing.T) {
	points := []types.KeypointNode{node("a", 0, 0), node("b", 1, 1), node("c", 2, 2)}
	edges := []types.EdgeLine{
		{ID: "1", From: node("a", 9, 9), To: node("b", 9, 9)},
		{ID: "2", From: node("b", 0, 0), To: node("a", 0, 0)},
		{ID: "3", From: node("c", 0, 0), To: node("gone", 0, 0)},
		{ID: "4", From: node("b", 0, 0), To: node("c", 0, 0)},
	}

	nodes, synced := SyncEdges(points, edges)
	require.Len(t, synced, 2)
	assert.Equal(t, "1", synced[0].ID)
	assert.Equal(t, 0.0, synced[0].From.X)
	assert.Equal(t, "4", synced[1].ID)

	assert.Equal(t, []string{"b"}, nodes[0].EdgeEnds)
	assert.Equal(t, []string{"a", "c"}, nodes[1].EdgeEnds)
	assert.Equal(t, []string{"b"}, nodes[2].EdgeEnds)
}

func TestFormatTemplate(t *testing.T) {
	roi := types.ROI{X: 100, Y: 100, Width: 200, Height: 100}
	labels := []types.Label{{ID: "id-head", Name: "head", Color: "#ff0000"}}
	structure := types.KeypointStructure{
		Positions: []types.Position{
			{Label: "head", X: 0.5, Y: 0},
			{Label: "neck", X: 0.5, Y: 0.5},
			{Label: "hip", X: 0.5, Y: 1},
		},
		Edges: []types.EdgeDescriptor{
			desc("head", "neck"),
			desc("neck", "hip"),
			desc("neck", "neck"),
			desc("hip", "tail"),
			desc("hip"),
		},
	}

	state := FormatTemplate(structure, labels, roi)
	require.Len(t, state.Points, 3)
	assert.Equal(t, "id-head", state.Points[0].Label.ID)
	assert.Equal(t, types.Point{X: 200, Y: 100}, state.Points[0].Point())
	assert.Equal(t, types.Point{X: 200, Y: 200}, state.Points[2].Point())
	assert.NotEmpty(t, state.Points[1].Label.ID)
	assert.True(t, state.Points[1].IsVisible)

	require.Len(t, state.Edges, 2)
	for _, e := range state.Edges {
		assert.NotEmpty(t, e.ID)
		assert.True(t, IsValidEdge(state.Points, e))
	}
	assert.Equal(t, "head", state.Edges[0].From.Label.Name)
	assert.Equal(t, "hip", state.Edges[1].To.Label.Name)
}

func TestFormatTemplateFiltersOnlyInvalidEntries(t *testing.T) {
	structure := types.KeypointStructure{
		Positions: []types.Position{{Label: "a", X: 0, Y: 0}, {Label: "b", X: 1, Y: 1}},
		Edges:     []types.EdgeDescriptor{desc("a", "missing"), desc("b", "b"), desc("a", "b")},
	}

	state := FormatTemplate(structure, nil, types.ROI{Width: 10, Height: 10})
	require.Len(t, state.Edges, 1)
	assert.Equal(t, "a", state.Edges[0].From.Label.Name)
	assert.Equal(t, "b", state.Edges[0].To.Label.Name)
}

func TestKeypointStructureRoundTrip(t *testing.T) {
	roi := types.ROI{X: 10, Y: 20, Width: 400, Height: 200}
	structure := types.KeypointStructure{
		Positions: []types.Position{{Label: "l", X: 0.25, Y: 0.5}, {Label: "r", X: 0.75, Y: 0.5}},
		Edges:     []types.EdgeDescriptor{desc("l", "r")},
	}

	got := ToKeypointStructure(FormatTemplate(structure, nil, roi), roi)
	assert.Equal(t, structure, got)
}

func TestSelectionSet(t *testing.T) {
	var s SelectionSet
	assert.False(t, s.Contains("a"))

	s.Add("b")
	s.Add("a")
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	assert.False(t, s.Toggle("a"))
	assert.True(t, s.Toggle("c"))
	assert.Equal(t, []string{"b", "c"}, s.IDs())

	s.Replace("z")
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("z"))

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestNextEdgeState(t *testing.T) {
	tests := []struct {
		name       string
		state      EdgeState
		event      EdgeEvent
		onKeypoint bool
		want       EdgeState
		menu       bool
	}{
		{"click selects", EdgeUnselected, EdgeClick, false, EdgeSelected, false},
		{"click again deselects", EdgeSelected, EdgeClick, false, EdgeUnselected, false},
		{"outside click deselects", EdgeSelected, EdgeClickOutside, false, EdgeUnselected, false},
		{"click on keypoint keeps selection", EdgeSelected, EdgeClickOutside, true, EdgeSelected, false},
		{"context menu on selected", EdgeSelected, EdgeContextMenu, false, EdgeSelected, true},
		{"context menu on unselected", EdgeUnselected, EdgeContextMenu, false, EdgeUnselected, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, menu := NextEdgeState(tt.state, tt.event, tt.onKeypoint)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.menu, menu)
		})
	}
}

func TestHandleEdgeEvent(t *testing.T) {
	s := NewSelectionSet()

	assert.False(t, HandleEdgeEvent(s, "e1", EdgeClick, false))
	assert.True(t, s.Contains("e1"))
	assert.True(t, HandleEdgeEvent(s, "e1", EdgeContextMenu, false))
	assert.True(t, s.Contains("e1"))
	HandleEdgeEvent(s, "e1", EdgeClickOutside, false)
	assert.False(t, s.Contains("e1"))
}

func TestValidateLabelName(t *testing.T) {
	points := []types.KeypointNode{node("a", 0, 0), node("b", 0, 0)}

	assert.Equal(t, MsgEmptyLabelName, ValidateLabelName("  ", points, "a"))
	assert.Equal(t, MsgDuplicateLabelName, ValidateLabelName("B", points, "a"))
	assert.Equal(t, "", ValidateLabelName("a", points, "a"))
	assert.Equal(t, "", ValidateLabelName("elbow", points, "a"))
}
