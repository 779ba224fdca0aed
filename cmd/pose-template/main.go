package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	posetemplate "github.com/menta2k/pose-template"
	"github.com/menta2k/pose-template/internal/config"
	"github.com/menta2k/pose-template/internal/templatefile"
	"github.com/menta2k/pose-template/internal/utils"
	"github.com/menta2k/pose-template/pkg/client"
	"github.com/menta2k/pose-template/pkg/editor"
	"github.com/menta2k/pose-template/pkg/geometry"
	"github.com/menta2k/pose-template/pkg/llamacpp"
	"github.com/menta2k/pose-template/pkg/ollama"
	"github.com/menta2k/pose-template/pkg/predict"
	"github.com/menta2k/pose-template/pkg/render"
	"github.com/menta2k/pose-template/pkg/types"
)

func main() {
	var templatePath, imagePath, configPath, outDir, savePath string
	var ext, roiFlag, mirror, placeFlag string
	var rotate float64
	var quality int
	var lossless, doPredict, watch, verbose, crop bool
	var backend, url, model string

	flag.StringVar(&templatePath, "template", "", "keypoint template file (json)")
	flag.StringVar(&imagePath, "image", "", "image path or URL to draw the template on (jpg/png/webp)")
	flag.StringVar(&configPath, "config", "", "config file (json, toml or yaml); defaults to "+config.GetConfigPath())
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&savePath, "save", "", "write the edited template to this file")

	flag.StringVar(&ext, "ext", "", "output image format: png|jpg|webp (default from config)")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100, default from config)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&crop, "crop", false, "also write the rendered image cropped to the template")

	flag.StringVar(&roiFlag, "roi", "", "template frame as x,y,w,h in pixels (default: whole image)")
	flag.StringVar(&mirror, "mirror", "", "mirror the template across an axis: x|y")
	flag.Float64Var(&rotate, "rotate", 0, "rotate the template around its middle (degrees)")
	flag.StringVar(&placeFlag, "place", "", "place the template by a drag from x0,y0 to x1,y1")

	flag.BoolVar(&doPredict, "predict", false, "move keypoints to positions predicted by a vision model")
	flag.StringVar(&backend, "backend", "", "prediction backend: ollama or llamacpp (default from config)")
	flag.StringVar(&url, "url", "", "prediction server URL (default from config)")
	flag.StringVar(&model, "model", "", "vision model name (default from config)")

	flag.BoolVar(&watch, "watch", false, "re-render whenever the template file changes")
	flag.BoolVar(&verbose, "v", false, "log editor operations")

	flag.Parse()
	if templatePath == "" {
		log.Fatalf("usage: %s -template person.json [-image photo.jpg] [-roi x,y,w,h] [-mirror x|y] [-rotate deg] [-place x0,y0,x1,y1] [-predict] [-save out.json] [-watch]", filepath.Base(os.Args[0]))
	}

	cfg := loadConfig(configPath)
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if ext != "" {
		cfg.Output.DefaultFormat = ext
	}
	if quality > 0 {
		cfg.Output.Quality = quality
	}
	if lossless {
		cfg.Output.Lossless = true
	}
	if backend != "" {
		cfg.Predict.Backend = backend
	}
	if url != "" {
		cfg.Predict.URL = url
	}
	if model != "" {
		cfg.Predict.Model = model
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var img image.Image
	if imagePath != "" {
		if !utils.IsURL(imagePath) && !utils.IsImageFile(imagePath) {
			log.Fatalf("not an image file: %s", imagePath)
		}
		var err error
		img, err = render.LoadImageSmart(imagePath)
		if err != nil {
			log.Fatal(err)
		}
	}

	roi, err := resolveROI(roiFlag, img)
	if err != nil {
		log.Fatal(err)
	}

	opts := posetemplate.Options{
		Editor: []editor.Option{
			editor.WithHistoryLimit(cfg.Editor.HistoryLimit),
			editor.WithClampToROI(cfg.Editor.ClampToROI),
			editor.WithLogger(newLogger(verbose)),
		},
		Render:  cfg.Render,
		Predict: predict.Config{MinConfidence: cfg.Predict.MinConfidence},
	}
	if doPredict {
		if img == nil {
			log.Fatal("-predict needs -image")
		}
		opts.Client = newVisionClient(cfg.Predict)
	}
	pt := posetemplate.NewWithConfig(roi, opts)

	process := func() {
		if err := edit(pt, mirror, rotate, placeFlag); err != nil {
			log.Fatal(err)
		}
		if doPredict {
			predictKeypoints(pt, cfg, img, imagePath)
		}
		if img != nil {
			renderImage(pt, cfg, img, imagePath, crop)
		}
		if savePath != "" {
			if err := pt.SaveFile(savePath); err != nil {
				log.Fatal(err)
			}
			log.Printf("wrote %s", savePath)
		}
	}

	if err := pt.LoadFile(templatePath); err != nil {
		log.Fatal(err)
	}
	log.Printf("template %s: %d keypoints %v", templatePath, len(pt.LabelNames()), pt.LabelNames())
	process()

	if !watch {
		return
	}
	watchTemplate(templatePath, func(structure types.KeypointStructure) {
		pt.Load(structure, nil)
		log.Printf("template reloaded: %d keypoints", len(structure.Positions))
		process()
	})
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newVisionClient(cfg config.PredictConfig) client.VisionClient {
	switch cfg.Backend {
	case "ollama":
		c, err := ollama.NewClient(cfg.URL)
		if err != nil {
			log.Fatalf("Failed to create Ollama client: %v", err)
		}
		return c
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			log.Fatalf("Failed to create llama.cpp client: %v", err)
		}
		return c
	default:
		log.Fatalf("Unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Backend)
		return nil
	}
}

// resolveROI parses x,y,w,h or falls back to the image bounds
func resolveROI(flagValue string, img image.Image) (types.ROI, error) {
	if flagValue == "" {
		if img == nil {
			return types.ROI{Width: 1000, Height: 1000}, nil
		}
		b := img.Bounds()
		return types.ROI{X: float64(b.Min.X), Y: float64(b.Min.Y), Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
	}
	v, err := parseFloats(flagValue, 4)
	if err != nil {
		return types.ROI{}, fmt.Errorf("-roi: %w", err)
	}
	if v[2] <= 0 || v[3] <= 0 {
		return types.ROI{}, fmt.Errorf("-roi: width and height must be positive")
	}
	return types.ROI{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func edit(pt *posetemplate.PoseTemplate, mirror string, rotate float64, place string) error {
	e := pt.Editor()
	switch strings.ToLower(mirror) {
	case "":
	case "x":
		e.Mirror(geometry.AxisX)
	case "y":
		e.Mirror(geometry.AxisY)
	default:
		return fmt.Errorf("-mirror must be x or y, got %q", mirror)
	}
	if rotate != 0 {
		e.Rotate(rotate, false)
	}
	if place != "" {
		v, err := parseFloats(place, 4)
		if err != nil {
			return fmt.Errorf("-place: %w", err)
		}
		start, end := types.Point{X: v[0], Y: v[1]}, types.Point{X: v[2], Y: v[3]}
		e.PlaceTemplate(start, end, false)
		log.Printf("placed template towards %s", geometry.GetDirection(start, end))
	}
	return nil
}

func predictKeypoints(pt *posetemplate.PoseTemplate, cfg *config.Config, img image.Image, imagePath string) {
	pred, err := pt.Predict(context.Background(), cfg.Predict.Model, img,
		cfg.Predict.SendFormat, cfg.Predict.SendSize, cfg.Predict.SendQuality)
	if err != nil {
		log.Printf("prediction failed: %v", err)
		return
	}
	for _, kp := range pred.Keypoints {
		log.Printf("predicted %q at %.3f,%.3f conf=%.2f", kp.Label, kp.X, kp.Y, kp.Confidence)
	}
	if pred.Description != "" {
		log.Printf("description: %s", pred.Description)
	}
	pt.ApplyPrediction(pred, img.Bounds())

	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}
	out := utils.GenerateOutputFilename(imagePath, cfg.Output.OutputDir, "", "_prediction", "json")
	structure := predict.ToStructure(pred, pt.Editor().Structure().Edges)
	if err := templatefile.Save(out, structure); err != nil {
		log.Printf("prediction save failed: %v", err)
		return
	}
	log.Printf("wrote %s", out)
}

func renderImage(pt *posetemplate.PoseTemplate, cfg *config.Config, img image.Image, imagePath string, crop bool) {
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}
	format := strings.ToLower(cfg.Output.DefaultFormat)
	rendered := pt.Render(img)
	out := utils.GenerateOutputFilename(imagePath, cfg.Output.OutputDir, "", cfg.Output.Suffix, format)
	if err := render.SaveImage(rendered, out, format, cfg.Output.Quality, cfg.Output.Lossless); err != nil {
		log.Fatalf("save failed: %v", err)
	}
	log.Printf("wrote %s", out)

	if !crop {
		return
	}
	cropped, err := render.CropToTemplate(rendered, pt.Editor().State(), 1, 0, 0)
	if err != nil {
		log.Printf("crop failed: %v", err)
		return
	}
	out = utils.GenerateOutputFilename(imagePath, cfg.Output.OutputDir, "", cfg.Output.Suffix+"_crop", format)
	if err := render.SaveImage(cropped, out, format, cfg.Output.Quality, cfg.Output.Lossless); err != nil {
		log.Fatalf("save failed: %v", err)
	}
	log.Printf("wrote %s", out)
}

// watchTemplate delivers template reloads on the calling goroutine until
// SIGINT or SIGTERM
func watchTemplate(path string, onChange func(types.KeypointStructure)) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := templatefile.Watch(path)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()
	log.Printf("watching %s", path)

	for {
		select {
		case <-ctx.Done():
			return
		case structure := <-w.Changes():
			onChange(structure)
		case err := <-w.Errors():
			log.Printf("watch: %v", err)
		}
	}
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
