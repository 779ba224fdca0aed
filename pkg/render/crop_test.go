package render

import (
	"testing"

	"github.com/menta2k/pose-template/pkg/types"
)

func twoPoints(x0, y0, x1, y1 float64) types.TemplateState {
	return types.TemplateState{Points: []types.KeypointNode{
		node("a", x0, y0, "#ffffff", true),
		node("b", x1, y1, "#ffffff", true),
	}}
}

func TestCropToTemplate(t *testing.T) {
	img := Blank(200, 200, black)

	// a 100x50 pose is padded by 10% of its short side on every edge
	cropped, err := CropToTemplate(img, twoPoints(50, 50, 150, 100), 1, 0, 0)
	if err != nil {
		t.Fatalf("CropToTemplate failed: %v", err)
	}
	if b := cropped.Bounds(); b.Dx() != 110 || b.Dy() != 60 {
		t.Errorf("crop size = %dx%d, want 110x60", b.Dx(), b.Dy())
	}

	filled, err := CropToTemplate(img, twoPoints(50, 50, 150, 100), 1, 32, 32)
	if err != nil {
		t.Fatalf("CropToTemplate failed: %v", err)
	}
	if b := filled.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("filled size = %dx%d, want 32x32", b.Dx(), b.Dy())
	}
}

func TestCropToTemplateErrors(t *testing.T) {
	img := Blank(100, 100, black)
	if _, err := CropToTemplate(img, types.TemplateState{}, 1, 0, 0); err == nil {
		t.Error("expected an error for an empty template")
	}
	if _, err := CropToTemplate(img, twoPoints(500, 500, 600, 600), 1, 0, 0); err == nil {
		t.Error("expected an error for a template outside the image")
	}
}
