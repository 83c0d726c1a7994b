// Command mapscii wires config, style, tilesource and renderer into a
// single headless frame render. The interactive event loop (key/mouse
// capture, terminal raw-mode, redraw-on-input) is an external collaborator
// per spec.md §1's scope cut; this entrypoint exercises the rendering
// pipeline end to end and prints one frame, which is what spec.md §6's
// "headless" option names: "disables keyboard/mouse init; used for
// snapshot output."
package main

import (
	"flag"
	"fmt"
	"os"

	"mapscii/config"
	"mapscii/mbtiles"
	"mapscii/renderer"
	"mapscii/style"
	"mapscii/tilesource"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	source := flag.String("source", cfg.Source, "tile origin URL or .mbtiles archive path")
	styleFile := flag.String("style", cfg.StyleFile, "path to the Mapbox-GL-style JSON document")
	lat := flag.Float64("lat", cfg.InitialLat, "initial latitude")
	lon := flag.Float64("lon", cfg.InitialLon, "initial longitude")
	zoom := flag.Float64("zoom", cfg.InitialZoom, "initial zoom level")
	width := flag.Int("width", 80, "canvas width in terminal columns")
	height := flag.Int("height", 24, "canvas height in terminal rows")
	flag.Parse()

	cfg.Source = *source
	cfg.StyleFile = *styleFile

	if cfg.StyleFile == "" {
		fmt.Fprintln(os.Stderr, "error: -style is required (path to a Mapbox GL style document)")
		os.Exit(1)
	}

	styleBytes, err := os.ReadFile(cfg.StyleFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading style file: %v\n", err)
		os.Exit(1)
	}
	doc, err := style.Compile(styleBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: compiling style: %v\n", err)
		os.Exit(1)
	}

	cacheDir := ""
	if cfg.PersistDownloadedTiles {
		cacheDir = config.CacheDir()
	}

	src, err := tilesource.New(tilesource.Config{
		Source:                 cfg.Source,
		CacheSize:              cfg.CacheSize,
		PersistDownloadedTiles: cfg.PersistDownloadedTiles,
		CacheDir:               cacheDir,
		Language:               cfg.Language,
		Archive:                mbtiles.Archive{},
	}, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: configuring tile source: %v\n", err)
		os.Exit(1)
	}

	r := renderer.New(cfg, doc, src, *width*2, *height*4)
	frame, err := r.Draw(*lon, *lat, *zoom)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: rendering frame: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(frame)
}
