// Package geometry provides the coordinate math used by the pose template
// editor: percentage/pixel conversion, padded boxes, mirroring, rotation and
// fitting a template into a target region.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/pose-template/pkg/types"
)

// PaddingMultiplier is the padding, in screen pixels, applied around boxes
// that are large enough on screen.
const PaddingMultiplier = 10.0

// paddingRatio is the padding used for small boxes, as a fraction of their smallest side
const paddingRatio = 0.1

// Axis selects the coordinate a mirror operation reflects
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Direction is the quadrant a drag gesture points to
type Direction int

const (
	SouthEast Direction = iota
	SouthWest
	NorthEast
	NorthWest
)

func (d Direction) String() string {
	switch d {
	case SouthEast:
		return "south-east"
	case SouthWest:
		return "south-west"
	case NorthEast:
		return "north-east"
	case NorthWest:
		return "north-west"
	}
	return "unknown"
}

// GetPercentageFromPoint converts a canvas point to percentages (0..100) of the ROI
func GetPercentageFromPoint(point types.Point, roi types.ROI) types.Point {
	return types.Point{
		X: (point.X - roi.X) / roi.Width * 100,
		Y: (point.Y - roi.Y) / roi.Height * 100,
	}
}

// GetPointFromPercentage converts percentages (0..100) of the ROI back to a canvas point
func GetPointFromPercentage(percent types.Point, roi types.ROI) types.Point {
	return types.Point{
		X: roi.X + percent.X/100*roi.Width,
		Y: roi.Y + percent.Y/100*roi.Height,
	}
}

// NormalizePoint converts a canvas point to a [0,1] fraction of the ROI
func NormalizePoint(point types.Point, roi types.ROI) types.Point {
	return types.Point{
		X: (point.X - roi.X) / roi.Width,
		Y: (point.Y - roi.Y) / roi.Height,
	}
}

// DenormalizePoint converts a [0,1] fraction of the ROI to a canvas point
func DenormalizePoint(point types.Point, roi types.ROI) types.Point {
	return types.Point{
		X: roi.X + point.X*roi.Width,
		Y: roi.Y + point.Y*roi.Height,
	}
}

// GetOuterPaddedBoundingBox grows the box by the padding for the given zoom scale
func GetOuterPaddedBoundingBox(roi types.ROI, scale float64) types.ROI {
	padding := outerPadding(roi, scale)
	return types.ROI{
		X:      roi.X - padding,
		Y:      roi.Y - padding,
		Width:  roi.Width + 2*padding,
		Height: roi.Height + 2*padding,
	}
}

// GetInnerPaddedBoundingBox shrinks a box produced by GetOuterPaddedBoundingBox
// back to the original box.
func GetInnerPaddedBoundingBox(roi types.ROI, scale float64) types.ROI {
	padding := innerPadding(roi, scale)
	return types.ROI{
		X:      roi.X + padding,
		Y:      roi.Y + padding,
		Width:  roi.Width - 2*padding,
		Height: roi.Height - 2*padding,
	}
}

func fixedPadding(scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return PaddingMultiplier / scale
}

func outerPadding(roi types.ROI, scale float64) float64 {
	fixed := fixedPadding(scale)
	minSide := math.Min(roi.Width, roi.Height)
	if minSide > fixed/paddingRatio {
		return fixed
	}
	return minSide * paddingRatio
}

// innerPadding recovers the padding from the padded box. The padded side is
// side+2*fixed in the fixed regime and side*(1+2*ratio) otherwise.
func innerPadding(roi types.ROI, scale float64) float64 {
	fixed := fixedPadding(scale)
	minSide := math.Min(roi.Width, roi.Height)
	if minSide-2*fixed > fixed/paddingRatio {
		return fixed
	}
	return minSide * paddingRatio / (1 + 2*paddingRatio)
}

// BoundingBox returns the axis-aligned bounding box of the points
func BoundingBox(points []types.Point) types.ROI {
	if len(points) == 0 {
		return types.ROI{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return types.ROI{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ClampPointToROI moves a point onto the nearest position inside the ROI
func ClampPointToROI(point types.Point, roi types.ROI) types.Point {
	return types.Point{
		X: clamp(point.X, roi.X, roi.X+roi.Width),
		Y: clamp(point.Y, roi.Y, roi.Y+roi.Height),
	}
}

// GetAnnotationInBoundingBox rescales the points so that their bounding box
// matches the target ROI. An axis without extent is centered in the target.
func GetAnnotationInBoundingBox(points []types.Point, target types.ROI) []types.Point {
	bounds := BoundingBox(points)
	out := make([]types.Point, len(points))
	for i, p := range points {
		out[i] = types.Point{
			X: fitAxis(p.X, bounds.X, bounds.Width, target.X, target.Width),
			Y: fitAxis(p.Y, bounds.Y, bounds.Height, target.Y, target.Height),
		}
	}
	return out
}

func fitAxis(v, srcStart, srcSize, dstStart, dstSize float64) float64 {
	if srcSize == 0 {
		return dstStart + dstSize/2
	}
	return clamp(dstStart+(v-srcStart)/srcSize*dstSize, dstStart, dstStart+dstSize)
}

// MirrorPointsAcrossAxis reflects the points about the middle of their extent
// on the given axis. The other coordinate is left untouched.
func MirrorPointsAcrossAxis(points []types.Point, axis Axis) []types.Point {
	bounds := BoundingBox(points)
	out := make([]types.Point, len(points))
	for i, p := range points {
		switch axis {
		case AxisX:
			p.X = bounds.X + (bounds.X + bounds.Width) - p.X
		case AxisY:
			p.Y = bounds.Y + (bounds.Y + bounds.Height) - p.Y
		}
		out[i] = p
	}
	return out
}

// GetDirection returns the quadrant from start to end. Zero deltas count as
// east and south.
func GetDirection(start, end types.Point) Direction {
	east := end.X-start.X >= 0
	south := end.Y-start.Y >= 0
	switch {
	case east && south:
		return SouthEast
	case !east && south:
		return SouthWest
	case east && !south:
		return NorthEast
	default:
		return NorthWest
	}
}

// GetTemplateWithDirection mirrors the template so it unfolds naturally when
// dragged out towards the given direction.
func GetTemplateWithDirection(points []types.Point, direction Direction) []types.Point {
	switch direction {
	case SouthWest:
		return MirrorPointsAcrossAxis(points, AxisX)
	case NorthEast:
		return MirrorPointsAcrossAxis(points, AxisY)
	case NorthWest:
		return MirrorPointsAcrossAxis(MirrorPointsAcrossAxis(points, AxisX), AxisY)
	default:
		return append([]types.Point(nil), points...)
	}
}

// RotatePointsAroundPivot rotates the points by degrees around pivot. Positive
// angles turn clockwise on a y-down canvas.
func RotatePointsAroundPivot(points []types.Point, pivot types.Point, degrees float64) []types.Point {
	out := make([]types.Point, len(points))
	if degrees == 0 {
		copy(out, points)
		return out
	}

	rot := r2.NewRotation(degrees*math.Pi/180, r2.Vec{X: pivot.X, Y: pivot.Y})
	for i, p := range points {
		v := rot.Rotate(r2.Vec{X: p.X, Y: p.Y})
		out[i] = types.Point{X: v.X, Y: v.Y}
	}
	return out
}

// PoseLocations summarizes the extent of a pose
type PoseLocations struct {
	Top        types.Point
	Bottom     types.Point
	Middle     types.Point
	TopWithGap types.Point
}

// GetPoseLocations reduces the points to their component-wise minimum (Top),
// maximum (Bottom), the mean of both (Middle) and Top shifted up by gap.
// An empty input yields infinite Top/Bottom and a NaN Middle.
func GetPoseLocations(points []types.Point, gap float64) PoseLocations {
	top := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	bottom := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range points {
		top.X = math.Min(top.X, p.X)
		top.Y = math.Min(top.Y, p.Y)
		bottom.X = math.Max(bottom.X, p.X)
		bottom.Y = math.Max(bottom.Y, p.Y)
	}
	middle := r2.Scale(0.5, r2.Add(top, bottom))

	return PoseLocations{
		Top:        types.Point{X: top.X, Y: top.Y},
		Bottom:     types.Point{X: bottom.X, Y: bottom.Y},
		Middle:     types.Point{X: middle.X, Y: middle.Y},
		TopWithGap: types.Point{X: top.X, Y: top.Y - gap},
	}
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
