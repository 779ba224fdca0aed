// Package editor implements a pose template editing session. Pointer
// gestures are turned into new coordinates by the geometry package, edges are
// resynchronized by the skeleton package and every committed state is pushed
// into the session's undo/redo history. Updates flagged to skip history are
// kept as a preview on top of the last checkpoint until the gesture commits.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/menta2k/pose-template/pkg/geometry"
	"github.com/menta2k/pose-template/pkg/history"
	"github.com/menta2k/pose-template/pkg/skeleton"
	"github.com/menta2k/pose-template/pkg/types"
)

var (
	ErrUnknownPoint     = errors.New("unknown point")
	ErrUnknownEdge      = errors.New("unknown edge")
	ErrDuplicatePoint   = errors.New("point already exists")
	ErrInvalidLabelName = errors.New("invalid label name")
)

// TemplateEditor owns the state of one template editing session
type TemplateEditor struct {
	roi       types.ROI
	history   *history.History[types.TemplateState]
	preview   *types.TemplateState
	selection *skeleton.SelectionSet
	logger    *slog.Logger

	historyLimit int
	onTravel     func(types.TemplateState)
	clampToROI   bool
}

// Option configures a TemplateEditor
type Option func(*TemplateEditor)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(e *TemplateEditor) {
		e.logger = logger
	}
}

// WithHistoryLimit bounds the number of undo checkpoints
func WithHistoryLimit(limit int) Option {
	return func(e *TemplateEditor) {
		e.historyLimit = limit
	}
}

// WithTimeTravel registers a callback invoked with the state reached by undo or redo
func WithTimeTravel(fn func(types.TemplateState)) Option {
	return func(e *TemplateEditor) {
		e.onTravel = fn
	}
}

// WithClampToROI controls whether moved and added points are kept inside the ROI
func WithClampToROI(clamp bool) Option {
	return func(e *TemplateEditor) {
		e.clampToROI = clamp
	}
}

// New creates an editing session starting from initial
func New(initial types.TemplateState, roi types.ROI, opts ...Option) *TemplateEditor {
	e := &TemplateEditor{
		roi:          roi,
		selection:    skeleton.NewSelectionSet(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		historyLimit: history.DefaultLimit,
		clampToROI:   true,
	}
	for _, opt := range opts {
		opt(e)
	}

	points, edges := skeleton.SyncEdges(initial.Points, initial.Edges)
	hopts := []history.Option[types.TemplateState]{history.WithLimit[types.TemplateState](e.historyLimit)}
	if e.onTravel != nil {
		hopts = append(hopts, history.WithTimeTravel(e.onTravel))
	}
	e.history = history.New(types.TemplateState{Points: points, Edges: edges}, hopts...)

	return e
}

// Load replaces the session with a persisted template laid out in the
// current ROI. History and selection start over.
func (e *TemplateEditor) Load(structure types.KeypointStructure, labels []types.Label) {
	state := skeleton.FormatTemplate(structure, labels, e.roi)
	e.Reset(state)
	e.logger.Debug("template loaded", "points", len(state.Points), "edges", len(state.Edges))
}

// Reset replaces the history with state as its only checkpoint
func (e *TemplateEditor) Reset(state types.TemplateState) {
	points, edges := skeleton.SyncEdges(state.Points, state.Edges)
	e.history.Reset(types.TemplateState{Points: points, Edges: edges})
	e.preview = nil
	e.selection.Clear()
}

// ROI returns the frame the template is laid out in
func (e *TemplateEditor) ROI() types.ROI {
	return e.roi
}

// SetROI relays the current template out in a resized frame. Checkpoints are
// stored in pixels of the old frame, so the history restarts.
func (e *TemplateEditor) SetROI(roi types.ROI) {
	state := e.current()
	points := make([]types.KeypointNode, len(state.Points))
	for i, p := range state.Points {
		n := geometry.NormalizePoint(p.Point(), e.roi)
		points[i] = p.WithPoint(geometry.DenormalizePoint(n, roi))
	}
	e.roi = roi

	selected := e.selection.IDs()
	e.Reset(types.TemplateState{Points: points, Edges: state.Edges})
	e.selection.Replace(selected...)
}

// Selection returns the session's selection set
func (e *TemplateEditor) Selection() *skeleton.SelectionSet {
	return e.selection
}

// State returns a copy of the current state with IsSelected reflecting the selection
func (e *TemplateEditor) State() types.TemplateState {
	state := e.current().Clone()
	for i := range state.Points {
		state.Points[i].IsSelected = e.selection.Contains(state.Points[i].Label.ID)
	}
	return state
}

// Committed returns a copy of the last undo checkpoint, ignoring any preview
// and without selection flags
func (e *TemplateEditor) Committed() types.TemplateState {
	return e.history.State().Clone()
}

// Previewing reports whether an uncommitted gesture preview is shown
func (e *TemplateEditor) Previewing() bool {
	return e.preview != nil
}

// CancelPreview drops an uncommitted gesture preview and returns the last
// committed state.
func (e *TemplateEditor) CancelPreview() types.TemplateState {
	e.preview = nil
	return e.State()
}

// CommitPreview turns the gesture preview into an undo checkpoint. It reports
// false when no gesture is in progress.
func (e *TemplateEditor) CommitPreview() bool {
	if e.preview == nil {
		return false
	}
	state := *e.preview
	e.preview = nil
	e.history.Push(state, false)
	e.logger.Debug("commit preview", "checkpoints", e.history.Len())
	return true
}

// SetState applies an externally computed state
func (e *TemplateEditor) SetState(update types.TemplateStateWithHistory) {
	e.commit(update.Points, update.Edges, update.SkipHistory, "set state")
}

// AddPoint adds a node for label at the given canvas position. When
// connectFrom names an existing node, an edge from it to the new node is
// created as well. The new node becomes the selection.
func (e *TemplateEditor) AddPoint(at types.Point, label types.Label, connectFrom string) (types.KeypointNode, error) {
	state := e.current()
	if skeleton.FindPoint(state.Points, label.ID) >= 0 {
		return types.KeypointNode{}, fmt.Errorf("add %q: %w", label.ID, ErrDuplicatePoint)
	}
	if msg := skeleton.ValidateLabelName(label.Name, state.Points, label.ID); msg != "" {
		return types.KeypointNode{}, fmt.Errorf("%w: %s", ErrInvalidLabelName, msg)
	}

	node := types.KeypointNode{Label: label, IsVisible: true}.WithPoint(e.place(at))
	points := append(append([]types.KeypointNode(nil), state.Points...), node)
	edges := state.Edges
	if from := skeleton.FindPoint(points, connectFrom); connectFrom != "" && from >= 0 {
		edges = append(append([]types.EdgeLine(nil), edges...), skeleton.NewEdge(points[from], node))
	}

	e.commit(points, edges, false, "add point")
	e.selection.Replace(label.ID)
	return node, nil
}

// MovePoint moves a node. Intermediate drag positions pass skipHistory so only
// the final position becomes an undo checkpoint.
func (e *TemplateEditor) MovePoint(labelID string, to types.Point, skipHistory bool) error {
	state := e.current()
	idx := skeleton.FindPoint(state.Points, labelID)
	if idx < 0 {
		return fmt.Errorf("move %q: %w", labelID, ErrUnknownPoint)
	}

	points := append([]types.KeypointNode(nil), state.Points...)
	points[idx] = points[idx].WithPoint(e.place(to))
	e.commit(points, state.Edges, skipHistory, "move point")
	return nil
}

// DeletePoint removes a node and every edge attached to it
func (e *TemplateEditor) DeletePoint(labelID string) error {
	state := e.current()
	idx := skeleton.FindPoint(state.Points, labelID)
	if idx < 0 {
		return fmt.Errorf("delete %q: %w", labelID, ErrUnknownPoint)
	}

	points := make([]types.KeypointNode, 0, len(state.Points)-1)
	points = append(points, state.Points[:idx]...)
	points = append(points, state.Points[idx+1:]...)
	e.commit(points, state.Edges, false, "delete point")

	e.selection.Remove(labelID)
	for _, edge := range state.Edges {
		if edge.From.Label.ID == labelID || edge.To.Label.ID == labelID {
			e.selection.Remove(edge.ID)
		}
	}
	return nil
}

// Connect adds an edge between two nodes. It reports false, leaving the state
// untouched, for self loops, missing nodes or an existing connection.
func (e *TemplateEditor) Connect(fromID, toID string) (types.EdgeLine, bool) {
	state := e.current()
	from := skeleton.FindPoint(state.Points, fromID)
	to := skeleton.FindPoint(state.Points, toID)
	if from < 0 || to < 0 || fromID == toID {
		return types.EdgeLine{}, false
	}
	for _, edge := range state.Edges {
		a, b := edge.From.Label.ID, edge.To.Label.ID
		if (a == fromID && b == toID) || (a == toID && b == fromID) {
			return types.EdgeLine{}, false
		}
	}

	edge := skeleton.NewEdge(state.Points[from], state.Points[to])
	edges := append(append([]types.EdgeLine(nil), state.Edges...), edge)
	e.commit(state.Points, edges, false, "connect")
	return edge, true
}

// DeleteEdge removes an edge by id
func (e *TemplateEditor) DeleteEdge(edgeID string) error {
	state := e.current()
	edges := make([]types.EdgeLine, 0, len(state.Edges))
	for _, edge := range state.Edges {
		if edge.ID != edgeID {
			edges = append(edges, edge)
		}
	}
	if len(edges) == len(state.Edges) {
		return fmt.Errorf("delete edge %q: %w", edgeID, ErrUnknownEdge)
	}

	e.commit(state.Points, edges, false, "delete edge")
	e.selection.Remove(edgeID)
	return nil
}

// UpdateLabel renames and recolors the label of a node. An empty color keeps
// the current one.
func (e *TemplateEditor) UpdateLabel(labelID, name, color string) error {
	state := e.current()
	idx := skeleton.FindPoint(state.Points, labelID)
	if idx < 0 {
		return fmt.Errorf("update %q: %w", labelID, ErrUnknownPoint)
	}
	if msg := skeleton.ValidateLabelName(name, state.Points, labelID); msg != "" {
		return fmt.Errorf("%w: %s", ErrInvalidLabelName, msg)
	}

	points := append([]types.KeypointNode(nil), state.Points...)
	points[idx].Label.Name = strings.TrimSpace(name)
	if color != "" {
		points[idx].Label.Color = color
	}
	e.commit(points, state.Edges, false, "update label")
	return nil
}

// ToggleVisibility flips whether a node is marked visible
func (e *TemplateEditor) ToggleVisibility(labelID string) error {
	state := e.current()
	idx := skeleton.FindPoint(state.Points, labelID)
	if idx < 0 {
		return fmt.Errorf("toggle %q: %w", labelID, ErrUnknownPoint)
	}

	points := append([]types.KeypointNode(nil), state.Points...)
	points[idx].IsVisible = !points[idx].IsVisible
	e.commit(points, state.Edges, false, "toggle visibility")
	return nil
}

// Mirror reflects the whole template across axis
func (e *TemplateEditor) Mirror(axis geometry.Axis) {
	state := e.current()
	e.commit(withPositions(state.Points, geometry.MirrorPointsAcrossAxis(positions(state.Points), axis)),
		state.Edges, false, "mirror")
}

// Rotate turns the template by degrees around the middle of its extent.
// A rotation handle passes skipHistory while it is being dragged. Each call
// rotates what is currently shown, preview included, so degrees is the change
// since the previous event and not the angle since the gesture started.
func (e *TemplateEditor) Rotate(degrees float64, skipHistory bool) {
	state := e.current()
	if len(state.Points) == 0 {
		return
	}
	pts := positions(state.Points)
	pivot := geometry.GetPoseLocations(pts, 0).Middle
	e.commit(withPositions(state.Points, geometry.RotatePointsAroundPivot(pts, pivot, degrees)),
		state.Edges, skipHistory, "rotate")
}

// PlaceTemplate lays the template out in the box spanned by a drag from start
// to end, mirrored so it unfolds towards the drag direction. Every event of
// the drag lays out the last checkpoint, so a preview is never mirrored twice.
func (e *TemplateEditor) PlaceTemplate(start, end types.Point, skipHistory bool) {
	state := e.history.State()
	if len(state.Points) == 0 {
		return
	}

	start, end = e.place(start), e.place(end)
	direction := geometry.GetDirection(start, end)
	target := geometry.BoundingBox([]types.Point{start, end})

	pts := geometry.GetTemplateWithDirection(positions(state.Points), direction)
	e.commit(withPositions(state.Points, geometry.GetAnnotationInBoundingBox(pts, target)),
		state.Edges, skipHistory, "place template")
}

// Undo drops any preview and returns to the previous checkpoint
func (e *TemplateEditor) Undo() (types.TemplateState, bool) {
	e.preview = nil
	return e.history.Undo()
}

// Redo drops any preview and returns to the next checkpoint
func (e *TemplateEditor) Redo() (types.TemplateState, bool) {
	e.preview = nil
	return e.history.Redo()
}

// CanUndo reports whether Undo would change the state
func (e *TemplateEditor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change the state
func (e *TemplateEditor) CanRedo() bool {
	return e.history.CanRedo()
}

// Structure serializes the current template for the project service
func (e *TemplateEditor) Structure() types.KeypointStructure {
	return skeleton.ToKeypointStructure(e.current(), e.roi)
}

// current is the state operations build on: the preview while a gesture is
// in progress, the history head otherwise.
func (e *TemplateEditor) current() types.TemplateState {
	if e.preview != nil {
		return *e.preview
	}
	return e.history.State()
}

// commit applies a new state. Skipped updates become the preview and leave
// the history alone, so the checkpoint before a gesture stays intact and the
// final update of the gesture is the only one that can be undone.
func (e *TemplateEditor) commit(points []types.KeypointNode, edges []types.EdgeLine, skipHistory bool, op string) {
	undecorated := make([]types.KeypointNode, len(points))
	for i, p := range points {
		p.IsSelected = false
		undecorated[i] = p
	}
	points, edges = skeleton.SyncEdges(undecorated, edges)
	state := types.TemplateState{Points: points, Edges: edges}
	if skipHistory {
		e.preview = &state
	} else {
		e.preview = nil
		e.history.Push(state, false)
	}
	e.logger.Debug(op, "points", len(points), "edges", len(edges), "skipHistory", skipHistory,
		"checkpoints", e.history.Len())
}

func (e *TemplateEditor) place(p types.Point) types.Point {
	if !e.clampToROI {
		return p
	}
	return geometry.ClampPointToROI(p, e.roi)
}

func positions(points []types.KeypointNode) []types.Point {
	out := make([]types.Point, len(points))
	for i, p := range points {
		out[i] = p.Point()
	}
	return out
}

func withPositions(points []types.KeypointNode, pts []types.Point) []types.KeypointNode {
	out := make([]types.KeypointNode, len(points))
	for i, p := range points {
		out[i] = p.WithPoint(pts[i])
	}
	return out
}
