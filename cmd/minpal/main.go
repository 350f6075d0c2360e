// Command minpal reduces PNG palettes under a perceptual error budget and
// rewrites the files losslessly compressed.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	version = "v0.1.0"
	commit  = "unknown"
)

func main() {
	app := &cli.App{
		Name:                   "minpal",
		Usage:                  "shrink image palettes within a perceptual error budget",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "input image path or glob (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "output file, or existing directory for multiple inputs",
				Required: true,
			},
			&cli.Float64Flag{
				Name:    "lossy",
				Aliases: []string{"l"},
				Usage:   "CIE76 Delta-E budget; 0 keeps the image lossless",
			},
			&cli.Float64Flag{
				Name:  "fraction",
				Usage: "pixel share the coverage mode may remap, in [0,1]",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   "bisect",
				Usage:   "reduction mode: bisect, coverage or prune",
			},
			&cli.StringFlag{
				Name:  "optimizer",
				Value: "k-means",
				Usage: "clustering strategy: none, k-means, weighted-k-means or dominant",
			},
			&cli.StringFlag{
				Name:  "ditherer",
				Value: "floyd-steinberg",
				Usage: "output mapping: none, ordered or a floyd-steinberg variant",
			},
			&cli.IntFlag{
				Name:  "level",
				Value: 4,
				Usage: "PNG optimization level 0-6",
			},
			&cli.BoolFlag{
				Name:  "alpha",
				Usage: "zero the color channels of fully transparent pixels",
			},
			&cli.BoolFlag{
				Name:  "strip",
				Usage: "strip metadata (the PNG encoder writes none either way)",
			},
			&cli.BoolFlag{
				Name: "no-overwrite",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
			},
			&cli.BoolFlag{
				Name:  "version",
				Usage: "print version and exit",
			},
		},
		Before: preProcess,
		Action: run,
	}

	if len(os.Args) == 2 && (os.Args[1] == "--version") {
		fmt.Println("minpal", version)
		fmt.Println("Commit:", commit)
		return
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
