package posetemplate

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/menta2k/pose-template/internal/templatefile"
	"github.com/menta2k/pose-template/pkg/geometry"
	"github.com/menta2k/pose-template/pkg/render"
	"github.com/menta2k/pose-template/pkg/types"
)

var testROI = types.ROI{X: 0, Y: 0, Width: 100, Height: 100}

var person = types.KeypointStructure{
	Edges: []types.EdgeDescriptor{
		{Nodes: []string{"head", "neck"}},
		{Nodes: []string{"neck", "hand"}},
	},
	Positions: []types.Position{
		{Label: "head", X: 0.2, Y: 0.1},
		{Label: "neck", X: 0.2, Y: 0.5},
		{Label: "hand", X: 0.6, Y: 0.5},
	},
}

type fakeClient struct {
	reply string
}

func (f *fakeClient) SimpleQuery(context.Context, string, string, string) (string, error) {
	return f.reply, nil
}

func (f *fakeClient) QueryJSON(context.Context, string, string, string) (string, error) {
	return f.reply, nil
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "person.json")
	if err := templatefile.Save(path, person); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	pt := New(testROI)
	if pt == nil {
		t.Fatal("New() returned nil")
	}
	if pt.editor == nil || pt.renderer == nil {
		t.Error("components are nil")
	}
	if pt.detector != nil {
		t.Error("detector must be nil without a client")
	}
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %s, want %s", GetVersion(), Version)
	}
}

func TestLoadEditSave(t *testing.T) {
	pt := New(testROI)
	if err := pt.LoadFile(writeTemplate(t)); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	names := pt.LabelNames()
	if len(names) != 3 || names[0] != "head" || names[2] != "hand" {
		t.Fatalf("unexpected labels %v", names)
	}

	pt.Editor().Mirror(geometry.AxisX)

	out := filepath.Join(t.TempDir(), "mirrored.json")
	if err := pt.SaveFile(out); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	saved, err := templatefile.Load(out)
	if err != nil {
		t.Fatalf("failed to reload template: %v", err)
	}

	want := map[string]float64{"head": 0.6, "neck": 0.6, "hand": 0.2}
	for _, pos := range saved.Positions {
		if diff := pos.X - want[pos.Label]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s x = %f, want %f", pos.Label, pos.X, want[pos.Label])
		}
	}
	if len(saved.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(saved.Edges))
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "blank.png")
	if err := render.SaveImage(render.Blank(100, 100, color.Black), src, "png", 90, false); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	pt := New(testROI)
	pt.Load(person, []types.Label{{ID: "h", Name: "head", Color: "#00ff00"}})

	dst := filepath.Join(dir, "blank_pose.png")
	if err := pt.RenderFile(src, dst, "png", 90, false); err != nil {
		t.Fatalf("RenderFile failed: %v", err)
	}

	img, err := render.LoadImage(dst)
	if err != nil {
		t.Fatalf("failed to load rendered image: %v", err)
	}
	got := color.NRGBAModel.Convert(img.At(20, 10)).(color.NRGBA)
	if got.G < 230 || got.R > 25 || got.B > 25 {
		t.Errorf("head pixel = %v, want the head label color", got)
	}
}

func TestPredictWithoutClient(t *testing.T) {
	pt := New(testROI)
	_, err := pt.Predict(context.Background(), "m", render.Blank(10, 10, color.White), "jpg", 0, 80)
	if !errors.Is(err, ErrNoPredictor) {
		t.Errorf("expected ErrNoPredictor, got %v", err)
	}
}

func TestPredictAndApply(t *testing.T) {
	fc := &fakeClient{reply: `{"keypoints":[{"label":"head","x":0.5,"y":0.5,"confidence":0.8}]}`}
	pt := NewWithConfig(testROI, Options{Render: render.DefaultConfig(), Client: fc})
	pt.Load(person, nil)
	head := pt.Editor().State().Points[0].Label.ID
	pt.Editor().Selection().Add(head)

	img := render.Blank(200, 100, color.White)
	pred, err := pt.Predict(context.Background(), "m", img, "png", 0, 80)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	pt.ApplyPrediction(pred, img.Bounds())

	state := pt.Editor().State()
	if p := state.Points[0].Point(); p != (types.Point{X: 100, Y: 50}) {
		t.Errorf("head = %v, want {100 50}", p)
	}
	if p := state.Points[1].Point(); p != (types.Point{X: 20, Y: 50}) {
		t.Errorf("neck moved to %v", p)
	}
	if !state.Points[0].IsSelected {
		t.Error("head should still be shown as selected")
	}
	for _, p := range pt.Editor().Committed().Points {
		if p.IsSelected {
			t.Errorf("checkpoint stored selection flag for %s", p.Label.Name)
		}
	}

	undone, ok := pt.Editor().Undo()
	if !ok {
		t.Fatal("prediction must be undoable")
	}
	if p := undone.Points[0].Point(); p != (types.Point{X: 20, Y: 10}) {
		t.Errorf("undo head = %v, want {20 10}", p)
	}
}
