// Command primdemo renders a scene of 2D primitives offscreen and saves the
// last frame as an image.
//
// Usage:
//
//	primdemo [-config scene.yaml] [-frames 60] [-backend vulkan|noop] [-output frame.png]
//	primdemo -init scene.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gogpu/prim"
	"github.com/gogpu/prim/config"
	"github.com/gogpu/prim/render"
)

func main() {
	var (
		configPath = flag.String("config", "", "scene file (.yaml, .yml or .toml); empty uses the built-in scene")
		initPath   = flag.String("init", "", "write the built-in scene to this file and exit")
		frames     = flag.Int("frames", -1, "frames to render, 0 renders until interrupted (overrides the scene)")
		backend    = flag.String("backend", "", "GPU backend: vulkan or noop (overrides the scene)")
		output     = flag.String("output", "frame.png", "output image (.png, .bmp or .tiff)")
		scale      = flag.Float64("scale", 1, "output scale factor")
		fps        = flag.Bool("fps", false, "log the frame rate")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	prim.SetLogger(logger)

	if *initPath != "" {
		if err := writeDefault(*initPath); err != nil {
			log.Fatalf("Failed to write scene: %v", err)
		}
		log.Printf("Scene written to %s\n", *initPath)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *fps {
		cfg.LogFPS = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	img, err := run(ctx, cfg)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}
	if *scale != 1 {
		img = resize(img, *scale)
	}
	if err := save(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	b := img.Bounds()
	log.Printf("Frame saved to %s (%dx%d)\n", *output, b.Dx(), b.Dy())
}

// run renders cfg.Frames frames and returns the contents of the last one.
func run(ctx context.Context, cfg *config.Config) (image.Image, error) {
	b, err := render.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	device, err := render.Open(b)
	if err != nil {
		return nil, err
	}
	defer device.Close()

	surface, err := render.NewOffscreenSurface(device, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	defer surface.Destroy()

	var opts []prim.Option
	if cfg.SharePipelines {
		cache := prim.NewPipelineCache(device.HalDevice())
		defer cache.Destroy()
		opts = append(opts, prim.WithPipelineCache(cache))
	}

	prims := make([]*prim.Primitive, 0, len(cfg.Primitives))
	defer func() {
		for _, p := range prims {
			p.Destroy()
		}
	}()
	for i := range cfg.Primitives {
		p, err := cfg.Primitives[i].Build(device.HalDevice(), device.HalQueue(), opts...)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		prims = append(prims, p)
	}

	total := int64(cfg.Frames)
	if total == 0 {
		total = -1
	}
	bar := progressbar.Default(total, "rendering")
	defer bar.Close()

	loopOpts := []render.LoopOption{
		render.WithMaxFrames(cfg.Frames),
		render.WithFPSLogging(cfg.LogFPS),
		render.WithFrameCallback(func(render.FrameStats) {
			_ = bar.Add(1)
		}),
	}
	if clear, ok := cfg.ClearValue(); ok {
		loopOpts = append(loopOpts, render.WithClearColor(clear))
	}

	loop := render.NewLoop(device, loopOpts...)
	if err := loop.Run(ctx, surface, prims); err != nil {
		return nil, err
	}
	if loop.Frames() == 0 {
		if _, err := loop.RenderFrame(surface, prims); err != nil {
			return nil, err
		}
	}
	return surface.ReadPixels()
}

func writeDefault(path string) error {
	format, err := config.FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.Default().Write(f, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func resize(src image.Image, factor float64) image.Image {
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, filepath.Ext(path), img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.New("unsupported image format " + ext)
	}
}
