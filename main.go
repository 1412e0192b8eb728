// Package main provides the entry point for the card scanner viewer, which
// replays a directory of camera frames through the scanner.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"cardscan/internal/app"
	"cardscan/internal/detect"
	"cardscan/internal/model"
	"cardscan/internal/pipeline"
	"cardscan/internal/version"
	"cardscan/ui/mainwindow"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	fs := ff.NewFlagSet("cardscan-viewer")
	var (
		modelPath = fs.StringLong("models", "", "Classifier bundle (CBOR); template classifiers when empty")
		minFocus  = fs.Float64Long("min-focus", pipeline.DefaultMinFocus, "Focus score below which frames are skipped")
		debug     = fs.BoolLong("debug", "Enable debug logging")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("CARDSCAN")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Info("Starting viewer", "version", version.Version)

	models := model.DefaultSet()
	if *modelPath != "" {
		b, err := model.LoadBundle(*modelPath)
		if err != nil {
			slog.Error("Failed to load models", "error", err)
			os.Exit(1)
		}
		models = b.Set()
	}

	a := fyneapp.NewWithID("org.cardscan.viewer")
	a.Settings().SetTheme(&app.CardscanTheme{})

	cfg := pipeline.DefaultConfig()
	cfg.MinFocus = *minFocus
	if o, ok := detect.ParseOrientation(a.Preferences().String("orientation")); ok {
		cfg.Orientation = o
	}
	state := app.NewState(models, cfg)

	win := mainwindow.New(a, state)
	dir := a.Preferences().String("lastDirectory")
	if args := fs.GetArgs(); len(args) > 0 {
		dir = args[0]
	}
	if dir != "" {
		if err := win.OpenDir(dir); err != nil {
			slog.Warn("Failed to open frames", "dir", dir, "error", err)
		}
	}
	win.ShowAndRun()
}
