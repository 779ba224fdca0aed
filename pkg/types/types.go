package types

// Point is a 2D coordinate. Depending on context it is either canvas pixels
// or a normalized fraction; conversions are always explicit.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ROI is the rectangular pixel frame normalized coordinates are interpreted against
type ROI struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Label is the label entity provided by the project service
type Label struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Color         string `json:"color"`
	Group         string `json:"group,omitempty"`
	ParentLabelID string `json:"parentLabelId,omitempty"`
}

// KeypointNode is one joint of a skeleton. Nodes are identified by Label.ID.
type KeypointNode struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Label      Label    `json:"label"`
	IsVisible  bool     `json:"isVisible"`
	IsSelected bool     `json:"isSelected"`
	EdgeEnds   []string `json:"edgeEnds,omitempty"`
}

// Point returns the node position
func (n KeypointNode) Point() Point {
	return Point{X: n.X, Y: n.Y}
}

// WithPoint returns a copy of the node moved to p
func (n KeypointNode) WithPoint(p Point) KeypointNode {
	n.X, n.Y = p.X, p.Y
	return n
}

// EdgeLine connects two skeleton nodes. The endpoints are copies of the nodes
// and must be resynchronized whenever the node list changes.
type EdgeLine struct {
	ID   string       `json:"id"`
	From KeypointNode `json:"from"`
	To   KeypointNode `json:"to"`
}

// TemplateState is the complete shape of one pose template
type TemplateState struct {
	Points []KeypointNode `json:"points"`
	Edges  []EdgeLine     `json:"edges"`
}

// Clone returns a deep copy of the state
func (s TemplateState) Clone() TemplateState {
	out := TemplateState{
		Points: make([]KeypointNode, len(s.Points)),
		Edges:  make([]EdgeLine, len(s.Edges)),
	}
	for i, p := range s.Points {
		p.EdgeEnds = append([]string(nil), p.EdgeEnds...)
		out.Points[i] = p
	}
	copy(out.Edges, s.Edges)
	return out
}

// TemplateStateWithHistory carries a state update together with the request
// to apply it without creating a new undo checkpoint.
type TemplateStateWithHistory struct {
	TemplateState
	SkipHistory bool `json:"skipHistory"`
}

// EdgeDescriptor names the two endpoints of an edge
type EdgeDescriptor struct {
	Nodes []string `json:"nodes"`
}

// Position is a label's normalized location inside the template ROI
type Position struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// KeypointStructure is the persisted template shape exchanged with the
// project-creation service.
type KeypointStructure struct {
	Edges     []EdgeDescriptor `json:"edges"`
	Positions []Position       `json:"positions"`
}

// ShapeType identifies the drawing tool that produced an annotation shape
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
	ShapePolygon   ShapeType = "polygon"
	ShapeKeypoint  ShapeType = "keypoint"
)

// Shape is the geometry of an annotation. Rectangles store top-left and
// bottom-right corners, circles store the center and a point on the rim.
type Shape struct {
	Type   ShapeType `json:"type"`
	Points []Point   `json:"points"`
}

// Annotation is an annotation list entry. Only ZIndex is managed here.
type Annotation struct {
	ID       string  `json:"id"`
	ZIndex   int     `json:"zIndex"`
	Labels   []Label `json:"labels,omitempty"`
	Shape    Shape   `json:"shape"`
	IsHidden bool    `json:"isHidden,omitempty"`
	IsLocked bool    `json:"isLocked,omitempty"`
}

// PredictedKeypoint is one keypoint returned by a vision model, normalized to [0,1]
type PredictedKeypoint struct {
	Label      string  `json:"label"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// KeypointPrediction contains the keypoints a vision model located for a template
type KeypointPrediction struct {
	Keypoints   []PredictedKeypoint `json:"keypoints"`
	Box         Box                 `json:"box"`
	Description string              `json:"description"`
}
