package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	photoeditor "github.com/menta2k/photo-editor"
	"github.com/menta2k/photo-editor/internal/config"
	"github.com/menta2k/photo-editor/internal/utils"
	"github.com/menta2k/photo-editor/pkg/edit"
	"github.com/menta2k/photo-editor/pkg/mask"
	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/types"
)

func main() {
	var in, op, out, cfgPath string
	var scale, scaleY, ratio, quality float64
	var keepAspect, verbose, debug bool
	var cropSpec, fill, format, prompt, maskPath string

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&op, "op", "transform", "operation: transform|crop|expand|enhance|inpaint|outpaint|export")
	flag.StringVar(&out, "out", "", "output file (default: <output_dir>/<input>_<op>.<format>)")
	flag.StringVar(&cfgPath, "config", "", "config file (default: "+config.GetConfigPath()+" if present)")

	flag.Float64Var(&scale, "scale", 1, "scale factor (0.1..4)")
	flag.Float64Var(&scaleY, "scale-y", 0, "vertical scale factor when -keep-aspect=false")
	flag.BoolVar(&keepAspect, "keep-aspect", true, "use -scale for both axes")
	flag.StringVar(&cropSpec, "crop", "", "crop region x,y,w,h in pixels, or with a % suffix in percent")

	flag.Float64Var(&ratio, "ratio", 16.0/9.0, "target width/height for expand and outpaint")
	flag.StringVar(&fill, "fill", "", "expand fill color (#rrggbb)")

	flag.StringVar(&format, "format", "", "output format: png|jpg|webp (default from config)")
	flag.Float64Var(&quality, "quality", 0, "output quality 0.1..1 (default from config)")

	flag.StringVar(&prompt, "prompt", "", "instruction for AI edits")
	flag.StringVar(&maskPath, "mask", "", "JSON file with mask strokes for inpaint")

	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&debug, "debug", false, "write a crop overlay preview next to the output")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL [-op transform|crop|expand|enhance|inpaint|outpaint|export] [-scale 0.5] [-crop 10,10,50,50%%] [-ratio 1.78] [-prompt text] [-mask strokes.json] [-out file]", filepath.Base(os.Args[0]))
	}

	if verbose {
		photoeditor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if fill != "" {
		cfg.Processing.ExpandFill = fill
	}
	if format != "" {
		cfg.Processing.DefaultFormat = format
	}
	if quality != 0 {
		cfg.Processing.DefaultQuality = quality
	}

	pe, err := photoeditor.NewWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	if !strings.Contains(in, "://") && !utils.IsEditableImage(in) {
		log.Printf("warning: %s does not have a jpg, png or webp extension; the content decides", in)
	}

	img, err := pe.Load(ctx, in)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %s: %dx%d %s (%s)", in, img.Width, img.Height, img.Type, utils.FormatFileSize(int64(img.ByteSize)))

	opts := pe.DefaultOptions()
	var region *types.CropRegion
	if cropSpec != "" {
		r, err := parseCrop(cropSpec)
		if err != nil {
			log.Fatal(err)
		}
		region = &r
	}

	var result types.Image
	switch op {
	case "transform":
		opts.Scale = scale
		opts.ScaleY = scaleY
		opts.MaintainAspect = keepAspect
		opts.Crop = region
		result, err = pe.Transform(ctx, img, opts)
	case "crop":
		if region == nil {
			log.Fatal("-crop is required for the crop operation")
		}
		result, err = pe.Crop(ctx, img, *region)
	case "expand":
		result, err = pe.Expand(ctx, img, ratio)
	case "export":
		result = img
	default:
		var editOp edit.Operation
		editOp, err = edit.ParseOperation(op)
		if err != nil {
			log.Fatal(err)
		}
		var strokes []mask.Stroke
		if editOp == edit.Inpaint {
			if strokes, err = loadStrokes(maskPath); err != nil {
				log.Fatal(err)
			}
		}
		result, err = pe.Edit(ctx, editOp, img, prompt, strokes, ratio)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", op, err)
	}

	if out == "" {
		out = utils.GenerateOutputFilename(in, cfg.Output.OutputDir, "_"+op, opts.Format.Extension())
	}
	path, err := pe.Save(ctx, result, out, opts.Format, opts.Quality)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s (%dx%d)", path, result.Width, result.Height)

	if debug && region != nil {
		px := region.ToPixels(img.Width, img.Height)
		rect := processing.SourceRect(img.Raster.Bounds(), &px)
		overlay := processing.CropOverlay(img.Raster, rect, 12)
		dbgPath := strings.TrimSuffix(path, filepath.Ext(path)) + "_crop_debug.png"
		data, err := processing.Encode(overlay, types.PNG, 1)
		if err == nil {
			err = utils.WriteFile(dbgPath, data)
		}
		if err != nil {
			log.Printf("debug overlay save failed: %v", err)
		} else {
			log.Printf("wrote %s", dbgPath)
		}
	}
}

// loadConfig reads an explicit config file, else the default path if it exists
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			cfg := config.Default()
			cfg.ApplyEnv()
			return cfg, nil
		}
	}
	return config.LoadFromFile(path)
}

// parseCrop parses "x,y,w,h" or "x,y,w,h%"
func parseCrop(s string) (types.CropRegion, error) {
	r := types.CropRegion{Unit: types.Pixels}
	if strings.HasSuffix(s, "%") {
		r.Unit = types.Percent
		s = strings.TrimSuffix(s, "%")
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return r, fmt.Errorf("crop must be x,y,w,h, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r, fmt.Errorf("invalid crop value %q: %w", p, err)
		}
		vals[i] = v
	}
	r.X, r.Y, r.Width, r.Height = vals[0], vals[1], vals[2], vals[3]
	return r, nil
}

// loadStrokes reads mask strokes in image pixel coordinates
func loadStrokes(path string) ([]mask.Stroke, error) {
	if path == "" {
		return nil, fmt.Errorf("-mask is required for inpaint")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var strokes []mask.Stroke
	if err := json.Unmarshal(data, &strokes); err != nil {
		return nil, fmt.Errorf("failed to parse mask file: %w", err)
	}
	for i := range strokes {
		if strokes[i].Size <= 0 {
			strokes[i].Size = mask.DefaultSize
		}
		if strokes[i].Color.A == 0 {
			strokes[i].Color = mask.DefaultColor
		}
	}
	return strokes, nil
}
