package render

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/menta2k/pose-template/pkg/types"
)

var (
	black = color.NRGBA{0, 0, 0, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

// near allows for antialiased edges of stroked shapes
func near(got, want color.NRGBA) bool {
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return d(got.R, want.R) <= 24 && d(got.G, want.G) <= 24 && d(got.B, want.B) <= 24 && d(got.A, want.A) <= 24
}

func node(id string, x, y float64, hex string, visible bool) types.KeypointNode {
	return types.KeypointNode{X: x, Y: y, Label: types.Label{ID: id, Name: id, Color: hex}, IsVisible: visible}
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#ff0000":   red,
		"#00f":      blue,
		"11223344":  {0x11, 0x22, 0x33, 0x44},
		" #000000 ": black,
	}
	for in, want := range cases {
		got, err := ParseHexColor(in)
		if err != nil {
			t.Errorf("ParseHexColor(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "#12", "#gggggg"} {
		if _, err := ParseHexColor(in); err == nil {
			t.Errorf("ParseHexColor(%q) expected error", in)
		}
	}
}

func TestDrawTemplate(t *testing.T) {
	src := Blank(60, 60, black)
	a := node("a", 10, 30, "#ff0000", true)
	b := node("b", 50, 30, "#0000ff", true)
	state := types.TemplateState{
		Points: []types.KeypointNode{a, b},
		Edges:  []types.EdgeLine{{ID: "e", From: a, To: b}},
	}

	r := NewRendererWithConfig(Config{NodeRadius: 4, LineWidth: 2})
	out := r.DrawTemplate(src, state)

	if got := out.NRGBAAt(10, 30); !near(got, red) {
		t.Errorf("node a pixel = %v, want red", got)
	}
	if got := out.NRGBAAt(50, 30); !near(got, blue) {
		t.Errorf("node b pixel = %v, want blue", got)
	}
	if got := out.NRGBAAt(30, 30); !near(got, red) {
		t.Errorf("edge pixel = %v, want the color of its first node", got)
	}
	if got := out.NRGBAAt(30, 5); got != black {
		t.Errorf("background pixel = %v, want black", got)
	}
	if got := src.NRGBAAt(10, 30); got != black {
		t.Error("DrawTemplate modified the source image")
	}
}

func TestDrawTemplateHiddenNodeIsHollow(t *testing.T) {
	src := Blank(60, 60, black)
	state := types.TemplateState{Points: []types.KeypointNode{node("a", 30, 30, "#ff0000", false)}}

	out := NewRendererWithConfig(Config{NodeRadius: 6, LineWidth: 2}).DrawTemplate(src, state)
	if got := out.NRGBAAt(30, 30); got != black {
		t.Errorf("hidden node center = %v, want background", got)
	}
	if got := out.NRGBAAt(35, 30); !near(got, red) {
		t.Errorf("hidden node rim = %v, want red", got)
	}
}

func TestDrawTemplateLabels(t *testing.T) {
	src := Blank(80, 60, black)
	state := types.TemplateState{Points: []types.KeypointNode{node("nose", 20, 30, "#ffffff", true)}}

	plain := NewRendererWithConfig(Config{NodeRadius: 3, LineWidth: 1}).DrawTemplate(src, state)
	labelled := NewRendererWithConfig(Config{NodeRadius: 3, LineWidth: 1, ShowLabels: true}).DrawTemplate(src, state)
	if bytes.Equal(plain.Pix, labelled.Pix) {
		t.Error("expected label text to be drawn")
	}
}

func TestDrawAnnotationsPaintsInZOrder(t *testing.T) {
	src := Blank(20, 20, black)
	at := []types.Point{{X: 10, Y: 10}}
	annotations := []types.Annotation{
		{ID: "top", ZIndex: 1, Labels: []types.Label{{Color: "#ff0000"}}, Shape: types.Shape{Type: types.ShapeKeypoint, Points: at}},
		{ID: "bottom", ZIndex: 0, Labels: []types.Label{{Color: "#0000ff"}}, Shape: types.Shape{Type: types.ShapeKeypoint, Points: at}},
		{ID: "hidden", ZIndex: 5, IsHidden: true, Labels: []types.Label{{Color: "#00ff00"}}, Shape: types.Shape{Type: types.ShapeKeypoint, Points: at}},
	}

	out := NewRenderer().DrawAnnotations(src, annotations)
	if got := out.NRGBAAt(10, 10); !near(got, red) {
		t.Errorf("overlap pixel = %v, want the annotation with the highest z-index", got)
	}
}

func TestDrawAnnotationsRectangle(t *testing.T) {
	src := Blank(20, 20, black)
	annotations := []types.Annotation{{
		ID:     "box",
		Labels: []types.Label{{Color: "#0000ff"}},
		Shape:  types.Shape{Type: types.ShapeRectangle, Points: []types.Point{{X: 2, Y: 2}, {X: 17, Y: 17}}},
	}}

	out := NewRendererWithConfig(Config{NodeRadius: 1, LineWidth: 1}).DrawAnnotations(src, annotations)
	if got := out.NRGBAAt(2, 10); got.B < 100 || got.R != 0 || got.G != 0 {
		t.Errorf("left border = %v, want blue", got)
	}
	if got := out.NRGBAAt(10, 10); got != black {
		t.Errorf("interior = %v, want background", got)
	}
}

func TestDrawAnnotationsPolygonAndCircle(t *testing.T) {
	src := Blank(40, 40, black)
	annotations := []types.Annotation{
		{
			ID:     "poly",
			Labels: []types.Label{{Color: "#ff0000"}},
			Shape:  types.Shape{Type: types.ShapePolygon, Points: []types.Point{{X: 5, Y: 5}, {X: 35, Y: 5}, {X: 35, Y: 35}}},
		},
		{
			ID:    "ring",
			Shape: types.Shape{Type: types.ShapeCircle, Points: []types.Point{{X: 15, Y: 25}, {X: 20, Y: 25}}},
		},
	}

	out := NewRendererWithConfig(Config{NodeRadius: 1, LineWidth: 2}).DrawAnnotations(src, annotations)
	if got := out.NRGBAAt(20, 4); !near(got, red) {
		t.Errorf("polygon edge = %v, want red", got)
	}
	if got := out.NRGBAAt(15, 25); got != black {
		t.Errorf("circle center = %v, want background", got)
	}
	if got := out.NRGBAAt(20, 25); got.R < 150 || got.B != 0 {
		t.Errorf("circle rim = %v, want the fallback color", got)
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	img := Blank(8, 6, red)

	for _, format := range []string{"png", "webp"} {
		path := filepath.Join(dir, "out."+format)
		if err := SaveImage(img, path, format, 90, true); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}
		loaded, err := LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", format, err)
		}
		if b := loaded.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
			t.Errorf("%s bounds = %v, want 8x6", format, b)
		}
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Error("expected an error for garbage input")
	}
}
