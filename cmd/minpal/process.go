package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/setanarut/minpal"
	"github.com/setanarut/minpal/quant"
	"github.com/setanarut/minpal/utils"
)

var (
	opts          minpal.Options
	level         int
	optimizeAlpha bool
	verbose       bool

	inputImages []string
	outPath     string
	outIsDir    bool

	outFileFlags int // for os.OpenFile
)

// preProcess validates every parameter before any pixel work.
func preProcess(c *cli.Context) error {
	var err error

	opts = minpal.DefaultOptions()
	opts.MaxDeltaE = c.Float64("lossy")
	opts.LossyFraction = c.Float64("fraction")

	opts.Mode, err = minpal.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	if opts.Mode == minpal.ModeBisect && c.IsSet("fraction") && !c.IsSet("mode") {
		// A fraction with no explicit mode means the coverage variant.
		opts.Mode = minpal.ModeCoverage
	}
	opts.Optimizer, err = quant.ParseOptimizer(c.String("optimizer"))
	if err != nil {
		return err
	}
	opts.Ditherer, err = quant.ParseDitherer(c.String("ditherer"))
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	level = c.Int("level")
	if _, err := utils.CompressionLevel(level); err != nil {
		return err
	}
	optimizeAlpha = c.Bool("alpha")
	verbose = c.Bool("verbose")
	if c.Bool("strip") && verbose {
		fmt.Println("note: the PNG encoder writes no ancillary chunks, --strip has nothing to remove")
	}

	inputImages = make([]string, 0)
	for _, path := range c.StringSlice("in") {
		if strings.Contains(path, "*") {
			paths, err := filepath.Glob(path)
			if err != nil {
				return fmt.Errorf("bad glob pattern '%s': %w", path, err)
			}
			inputImages = append(inputImages, paths...)
		} else {
			inputImages = append(inputImages, path)
		}
	}
	if len(inputImages) == 0 {
		return errors.New("no input images")
	}

	outPath = c.String("out")
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outIsDir = true
	}
	if len(inputImages) > 1 && !outIsDir {
		return errors.New("multiple input images need an existing output directory")
	}

	if c.Bool("no-overwrite") {
		outFileFlags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	} else {
		outFileFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	return nil
}

func run(c *cli.Context) error {
	for _, inPath := range inputImages {
		if err := processImage(inPath, outputPath(inPath)); err != nil {
			return err
		}
	}
	return nil
}

// outputPath maps an input path to where its result is written.
func outputPath(inPath string) string {
	if !outIsDir {
		return outPath
	}
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath)) + ".png"
	return filepath.Join(outPath, base)
}

func processImage(inPath, dstPath string) error {
	pixels, w, h, err := utils.ReadPixels(inPath)
	if err != nil {
		return err
	}
	if optimizeAlpha {
		utils.OptimizeAlpha(pixels)
	}

	res, err := minpal.Preprocess(pixels, w, opts)
	if err != nil {
		return fmt.Errorf("'%s': %w", inPath, err)
	}

	file, err := os.OpenFile(dstPath, outFileFlags, 0644)
	if err != nil {
		return fmt.Errorf("'%s': %w", dstPath, err)
	}
	if len(res.Palette) > 0 {
		// Dark-to-bright palette order keeps output files stable across
		// runs with the same settings.
		utils.SortPalette(res.Palette, res.Index)
		err = utils.WritePNG(file, utils.ToPaletted(res.Palette, res.Index, w, h), level)
	} else {
		err = utils.WritePNG(file, utils.ToImage(res.Pixels, w, h), level)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("'%s': %w", dstPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("'%s': %w", dstPath, err)
	}

	if verbose {
		reportSizes(inPath, dstPath, res)
	}
	return nil
}

func reportSizes(inPath, dstPath string, res *minpal.Result) {
	inSize := fileSize(inPath)
	outSize := fileSize(dstPath)
	if inSize <= 0 {
		return
	}
	reduction := (float64(inSize) - float64(outSize)) / float64(inSize) * 100.0
	sign := "-"
	if outSize > inSize {
		sign = "+"
	}
	pathDisplay := dstPath
	if inPath != dstPath {
		pathDisplay = inPath + " -> " + dstPath
	}
	fmt.Printf("%s | %s -> %s (%s%.1f%%)", pathDisplay,
		formatBytes(inSize), formatBytes(outSize), sign, math.Abs(reduction))
	if res.Size > 0 {
		fmt.Printf(" | %d colors, dE %.2f", res.Size, res.DeltaE)
	}
	fmt.Println()
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// formatBytes renders a byte count in human-readable form.
func formatBytes(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	if n <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	return fmt.Sprintf("%.1f %s", float64(n)/math.Pow(1024, float64(i)), units[i])
}
