package render

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/pose-template/pkg/geometry"
	"github.com/menta2k/pose-template/pkg/types"
)

// TemplateFrame returns the padded box around the template's keypoints at the
// given zoom scale, the frame a view zoomed onto the template shows
func TemplateFrame(state types.TemplateState, scale float64) (types.ROI, error) {
	if len(state.Points) == 0 {
		return types.ROI{}, fmt.Errorf("template has no keypoints")
	}
	pts := make([]types.Point, len(state.Points))
	for i, p := range state.Points {
		pts[i] = p.Point()
	}
	return geometry.GetOuterPaddedBoundingBox(geometry.BoundingBox(pts), scale), nil
}

// CropToTemplate crops img to the template's padded frame. When targetWidth
// and targetHeight are set the crop is filled to that size.
func CropToTemplate(img image.Image, state types.TemplateState, scale float64, targetWidth, targetHeight int) (image.Image, error) {
	frame, err := TemplateFrame(state, scale)
	if err != nil {
		return nil, err
	}

	rect := image.Rect(
		int(math.Floor(frame.X)),
		int(math.Floor(frame.Y)),
		int(math.Ceil(frame.X+frame.Width)),
		int(math.Ceil(frame.Y+frame.Height)),
	).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("template frame %v is outside the image", frame)
	}

	cropped := imaging.Crop(img, rect)
	if targetWidth > 0 && targetHeight > 0 {
		cropped = imaging.Fill(cropped, targetWidth, targetHeight, imaging.Center, imaging.Lanczos)
	}
	return cropped, nil
}
