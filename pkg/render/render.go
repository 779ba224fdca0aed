// Package render draws pose templates and annotation shapes onto images.
// Coordinates are canvas pixels, so the image is expected to cover the
// canvas the template was laid out on.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/menta2k/pose-template/pkg/ordering"
	"github.com/menta2k/pose-template/pkg/types"
)

// Config controls how templates are drawn
type Config struct {
	NodeRadius float64 `json:"node_radius" toml:"node_radius" yaml:"node_radius"`
	LineWidth  float64 `json:"line_width" toml:"line_width" yaml:"line_width"`
	ShowLabels bool    `json:"show_labels" toml:"show_labels" yaml:"show_labels"`
}

// DefaultConfig returns the drawing settings used by the CLI
func DefaultConfig() Config {
	return Config{
		NodeRadius: 5,
		LineWidth:  2,
		ShowLabels: true,
	}
}

var (
	fallbackColor  = color.NRGBA{255, 204, 0, 255}
	selectionColor = color.NRGBA{255, 255, 255, 255}
)

// Renderer draws templates and annotations
type Renderer struct {
	cfg Config
}

// NewRenderer creates a renderer with the default config
func NewRenderer() *Renderer {
	return NewRendererWithConfig(DefaultConfig())
}

// NewRendererWithConfig creates a renderer with a custom config
func NewRendererWithConfig(cfg Config) *Renderer {
	if cfg.NodeRadius <= 0 {
		cfg.NodeRadius = DefaultConfig().NodeRadius
	}
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = DefaultConfig().LineWidth
	}
	return &Renderer{cfg: cfg}
}

// DrawTemplate returns a copy of img with the template's edges, nodes and
// label names drawn on top. Hidden nodes are drawn hollow and selected nodes
// get a white ring.
func (r *Renderer) DrawTemplate(img image.Image, state types.TemplateState) *image.NRGBA {
	dc := newCanvas(img)

	for _, edge := range state.Edges {
		strokeLine(dc, edge.From.X, edge.From.Y, edge.To.X, edge.To.Y, r.cfg.LineWidth, labelColor(edge.From.Label))
	}

	for _, p := range state.Points {
		c := labelColor(p.Label)
		if p.IsVisible {
			fillCircle(dc, p.X, p.Y, r.cfg.NodeRadius, c)
		} else {
			strokeCircle(dc, p.X, p.Y, r.cfg.NodeRadius, r.cfg.LineWidth, c)
		}
		if p.IsSelected {
			strokeCircle(dc, p.X, p.Y, r.cfg.NodeRadius+r.cfg.LineWidth*1.5, r.cfg.LineWidth, selectionColor)
		}
		if r.cfg.ShowLabels && p.Label.Name != "" {
			offset := math.Ceil(r.cfg.NodeRadius) + 2
			dc.SetColor(c)
			dc.DrawString(p.Label.Name, p.X+offset, p.Y-offset)
		}
	}
	return toNRGBA(dc)
}

// DrawAnnotations returns a copy of img with the annotation shapes painted in
// z-index order, so annotations with a higher z-index end up on top. Hidden
// annotations are skipped.
func (r *Renderer) DrawAnnotations(img image.Image, annotations []types.Annotation) *image.NRGBA {
	dc := newCanvas(img)
	for _, a := range ordering.SortByZIndex(annotations) {
		if a.IsHidden {
			continue
		}
		c := fallbackColor
		if len(a.Labels) > 0 {
			c = labelColor(a.Labels[0])
		}
		r.drawShape(dc, a.Shape, c)
	}
	return toNRGBA(dc)
}

func (r *Renderer) drawShape(dc *gg.Context, shape types.Shape, c color.NRGBA) {
	pts := shape.Points
	dc.SetColor(c)
	dc.SetLineWidth(r.cfg.LineWidth)

	switch shape.Type {
	case types.ShapeRectangle:
		if len(pts) < 2 {
			return
		}
		x, y := math.Min(pts[0].X, pts[1].X), math.Min(pts[0].Y, pts[1].Y)
		dc.DrawRectangle(x, y, math.Abs(pts[1].X-pts[0].X), math.Abs(pts[1].Y-pts[0].Y))
		dc.Stroke()
	case types.ShapeCircle:
		if len(pts) < 2 {
			return
		}
		radius := math.Hypot(pts[1].X-pts[0].X, pts[1].Y-pts[0].Y)
		strokeCircle(dc, pts[0].X, pts[0].Y, radius, r.cfg.LineWidth, c)
	case types.ShapePolygon:
		if len(pts) < 2 {
			return
		}
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		dc.Stroke()
	case types.ShapeKeypoint:
		for _, p := range pts {
			fillCircle(dc, p.X, p.Y, r.cfg.NodeRadius, c)
		}
	}
}

func labelColor(label types.Label) color.NRGBA {
	c, err := ParseHexColor(label.Color)
	if err != nil {
		return fallbackColor
	}
	return c
}
