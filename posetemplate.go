// Package posetemplate edits keypoint pose templates on top of images.
//
// A template is a set of labelled keypoints connected by edges. Templates are
// stored as label names with positions normalized to a region of interest and
// are edited in canvas pixels.
//
// Basic usage:
//
//	pt := posetemplate.New(types.ROI{X: 0, Y: 0, Width: 640, Height: 480})
//	if err := pt.LoadFile("person.json"); err != nil {
//		log.Fatal(err)
//	}
//	pt.Editor().Mirror(geometry.AxisX)
//	if err := pt.RenderFile("photo.jpg", "photo_pose.png", "png", 90, false); err != nil {
//		log.Fatal(err)
//	}
//	if err := pt.SaveFile("person_mirrored.json"); err != nil {
//		log.Fatal(err)
//	}
//
// The package ties together:
//
//  1. Editor (pkg/editor): editing session with undo/redo
//  2. Render (pkg/render): drawing templates onto images
//  3. Predict (pkg/predict): keypoint positions suggested by a vision model
package posetemplate

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/pose-template/internal/templatefile"
	"github.com/menta2k/pose-template/pkg/client"
	"github.com/menta2k/pose-template/pkg/editor"
	"github.com/menta2k/pose-template/pkg/geometry"
	"github.com/menta2k/pose-template/pkg/predict"
	"github.com/menta2k/pose-template/pkg/render"
	"github.com/menta2k/pose-template/pkg/types"
)

// Version of the pose template library
const Version = "1.0.0"

// ErrNoPredictor is returned by Predict when no vision client was configured
var ErrNoPredictor = errors.New("no vision client configured")

// Options configures a PoseTemplate
type Options struct {
	Editor  []editor.Option
	Render  render.Config
	Predict predict.Config
	// Client enables Predict when set
	Client client.VisionClient
}

// PoseTemplate provides a high-level interface for editing and rendering templates
type PoseTemplate struct {
	editor   *editor.TemplateEditor
	renderer *render.Renderer
	detector *predict.Detector
}

// New creates a PoseTemplate with an empty template laid out in roi
func New(roi types.ROI) *PoseTemplate {
	return NewWithConfig(roi, Options{Render: render.DefaultConfig(), Predict: predict.DefaultConfig()})
}

// NewWithConfig creates a PoseTemplate with custom options
func NewWithConfig(roi types.ROI, opts Options) *PoseTemplate {
	pt := &PoseTemplate{
		editor:   editor.New(types.TemplateState{}, roi, opts.Editor...),
		renderer: render.NewRendererWithConfig(opts.Render),
	}
	if opts.Client != nil {
		pt.detector = predict.NewDetectorWithConfig(opts.Client, opts.Predict)
	}
	return pt
}

// Editor returns the underlying editing session
func (pt *PoseTemplate) Editor() *editor.TemplateEditor {
	return pt.editor
}

// Load replaces the template with structure. Labels are matched by name.
func (pt *PoseTemplate) Load(structure types.KeypointStructure, labels []types.Label) {
	pt.editor.Load(structure, labels)
}

// LoadFile reads a template file into the editor
func (pt *PoseTemplate) LoadFile(path string) error {
	structure, err := templatefile.Load(path)
	if err != nil {
		return err
	}
	pt.editor.Load(structure, nil)
	return nil
}

// SaveFile writes the current template to path
func (pt *PoseTemplate) SaveFile(path string) error {
	return templatefile.Save(path, pt.editor.Structure())
}

// Render draws the current template onto a copy of img
func (pt *PoseTemplate) Render(img image.Image) *image.NRGBA {
	return pt.renderer.DrawTemplate(img, pt.editor.State())
}

// RenderFile draws the current template onto the image at imagePath and saves
// the result to outPath
func (pt *PoseTemplate) RenderFile(imagePath, outPath, format string, quality int, lossless bool) error {
	img, err := render.LoadImageSmart(imagePath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	if err := render.SaveImage(pt.Render(img), outPath, format, quality, lossless); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// LabelNames returns the label names of the current template in node order
func (pt *PoseTemplate) LabelNames() []string {
	state := pt.editor.State()
	names := make([]string, len(state.Points))
	for i, p := range state.Points {
		names[i] = p.Label.Name
	}
	return names
}

// Predict asks the vision model where the template's keypoints are in img.
// The image is sent as sendFormat, downsized to sendSize on its longer side.
func (pt *PoseTemplate) Predict(ctx context.Context, model string, img image.Image, sendFormat string, sendSize, sendQuality int) (*types.KeypointPrediction, error) {
	if pt.detector == nil {
		return nil, ErrNoPredictor
	}
	imgB64, err := predict.EncodeForModel(img, sendFormat, sendSize, sendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return pt.detector.DetectKeypoints(ctx, model, imgB64, pt.LabelNames())
}

// ApplyPrediction moves the predicted keypoints to their positions in an
// image with the given bounds. Keypoints the model did not find stay where
// they are. The change is a single undo step.
func (pt *PoseTemplate) ApplyPrediction(pred *types.KeypointPrediction, bounds image.Rectangle) {
	frame := types.ROI{
		X:      float64(bounds.Min.X),
		Y:      float64(bounds.Min.Y),
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}

	predicted := make(map[string]types.Point, len(pred.Keypoints))
	for _, kp := range pred.Keypoints {
		predicted[kp.Label] = geometry.DenormalizePoint(types.Point{X: kp.X, Y: kp.Y}, frame)
	}

	state := pt.editor.Committed()
	for i, p := range state.Points {
		if at, ok := predicted[p.Label.Name]; ok {
			state.Points[i] = p.WithPoint(at)
		}
	}
	pt.editor.SetState(types.TemplateStateWithHistory{TemplateState: state})
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
