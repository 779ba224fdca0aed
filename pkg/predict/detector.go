// Package predict asks a vision model where the keypoints of a pose template
// are in an image. Predictions come back normalized to the image and turn into
// a keypoint structure that loads like any saved template.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/menta2k/pose-template/pkg/client"
	"github.com/menta2k/pose-template/pkg/types"
)

// SimpleTestPrompt checks whether the model can see images at all
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

const keypointPrompt = `You are a pose keypoint locator.

Locate these keypoints in the image: %s

Return JSON only:
{
  "keypoints": [
    {"label": "string", "x": 0.0, "y": 0.0, "confidence": 0.0}
  ],
  "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels), origin at the top-left corner.
- Use the keypoint labels exactly as given. Each label appears at most once.
- Leave out keypoints that are not visible instead of guessing.
- "box" tightly encloses the subject the keypoints belong to.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ErrNoKeypoints is returned when the model answer contains no usable keypoint
var ErrNoKeypoints = errors.New("no keypoints in model response")

// Config controls prediction filtering
type Config struct {
	// MinConfidence drops keypoints the model is less sure about
	MinConfidence float64 `json:"min_confidence" toml:"min_confidence" yaml:"min_confidence"`
}

// DefaultConfig returns the default prediction settings
func DefaultConfig() Config {
	return Config{MinConfidence: 0.3}
}

// Detector locates template keypoints using a vision model
type Detector struct {
	client client.VisionClient
	config Config
}

// NewDetector creates a detector with the default config
func NewDetector(c client.VisionClient) *Detector {
	return NewDetectorWithConfig(c, DefaultConfig())
}

// NewDetectorWithConfig creates a detector with a custom config
func NewDetectorWithConfig(c client.VisionClient, cfg Config) *Detector {
	return &Detector{client: c, config: cfg}
}

// BuildPrompt returns the prompt asking for the given keypoint labels
func BuildPrompt(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(keypointPrompt, strings.Join(quoted, ", "))
}

// DetectKeypoints asks the model for the positions of labels in the image
func (d *Detector) DetectKeypoints(ctx context.Context, model, imageB64 string, labels []string) (*types.KeypointPrediction, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no keypoint labels to look for")
	}

	raw, err := d.client.QueryJSON(ctx, model, BuildPrompt(labels), imageB64)
	if err != nil {
		return nil, err
	}
	return parsePrediction(raw, labels, d.config.MinConfidence)
}

// TestVision checks that the model can see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// modelKeypoint leaves confidence nil when the model omits it
type modelKeypoint struct {
	Label      string   `json:"label"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Confidence *float64 `json:"confidence"`
}

type modelPrediction struct {
	Keypoints   []modelKeypoint `json:"keypoints"`
	Box         types.Box       `json:"box"`
	Description string          `json:"description"`
}

// parsePrediction keeps the first keypoint of each requested label whose
// confidence reaches minConfidence. Labels match case-insensitively and are
// reported with the requested spelling.
func parsePrediction(raw string, labels []string, minConfidence float64) (*types.KeypointPrediction, error) {
	var answer modelPrediction
	if err := json.Unmarshal([]byte(client.SanitizeModelJSON(raw)), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	canonical := make(map[string]string, len(labels))
	for _, l := range labels {
		canonical[normalizeLabel(l)] = l
	}

	seen := make(map[string]bool, len(labels))
	out := &types.KeypointPrediction{
		Box:         normalizeBox(answer.Box),
		Description: strings.TrimSpace(answer.Description),
	}
	for _, kp := range answer.Keypoints {
		label, ok := canonical[normalizeLabel(kp.Label)]
		if !ok || seen[label] {
			continue
		}
		confidence := 1.0
		if kp.Confidence != nil {
			confidence = clamp(*kp.Confidence, 0, 1)
		}
		if confidence < minConfidence || math.IsNaN(kp.X) || math.IsNaN(kp.Y) {
			continue
		}
		seen[label] = true
		out.Keypoints = append(out.Keypoints, types.PredictedKeypoint{
			Label:      label,
			X:          clamp(kp.X, 0, 1),
			Y:          clamp(kp.Y, 0, 1),
			Confidence: confidence,
		})
	}

	if len(out.Keypoints) == 0 {
		return out, ErrNoKeypoints
	}
	return out, nil
}

// ToStructure turns a prediction into a keypoint structure using the template's
// edges. Edges whose nodes were not predicted are left out.
func ToStructure(pred *types.KeypointPrediction, edges []types.EdgeDescriptor) types.KeypointStructure {
	present := make(map[string]bool, len(pred.Keypoints))
	structure := types.KeypointStructure{
		Positions: make([]types.Position, 0, len(pred.Keypoints)),
		Edges:     []types.EdgeDescriptor{},
	}
	for _, kp := range pred.Keypoints {
		present[kp.Label] = true
		structure.Positions = append(structure.Positions, types.Position{Label: kp.Label, X: kp.X, Y: kp.Y})
	}
	for _, e := range edges {
		if len(e.Nodes) < 2 || !present[e.Nodes[0]] || !present[e.Nodes[1]] {
			continue
		}
		structure.Edges = append(structure.Edges, types.EdgeDescriptor{Nodes: []string{e.Nodes[0], e.Nodes[1]}})
	}
	return structure
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
