// Command cardscan reads a card number from a sequence of camera frames.
//
// Frames are read from a directory or listed as arguments, and scanned in
// order until the number is confirmed.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cardscan/internal/version"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	fs := ff.NewFlagSet("cardscan")
	var (
		frameDir    = fs.StringLong("frames", "", "Directory of frames to scan in name order")
		orientation = fs.StringLong("orientation", "landscape-left", "Device orientation: portrait, portrait-upside-down, landscape-left or landscape-right")
		modelPath   = fs.StringLong("models", "", "Classifier bundle (CBOR); template classifiers when empty")
		warper      = fs.StringLong("warp", "cpu", "Perspective warp backend: cpu or opencv")
		filter      = fs.StringLong("filter", "auto", "Filter strategy: auto, scalar or vector")
		combine     = fs.StringLong("combine", "votes", "Digit classifier merge: votes or mean")
		minFocus    = fs.Float64Long("min-focus", 6, "Focus score below which frames are skipped")
		noFlip      = fs.BoolLong("no-flip", "Do not rescan upside-down cards turned around")
		dbPath      = fs.StringLong("analytics", "", "Record scan sessions in this database file")
		useOCR      = fs.BoolLong("ocr", "Fall back to Tesseract when the scanner does not confirm a number")
		ocrLang     = fs.StringLong("ocr-lang", "eng", "Tesseract trained data language")
		debugDir    = fs.StringLong("debug-dir", "", "Write overlays and rectified cards to this directory")
		unblurred   = fs.IntLong("unblurred", 4, "Trailing digits left readable in debug images; -1 disables redaction")
		debug       = fs.BoolLong("debug", "Enable debug logging")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("CARDSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := options{
		FrameDir:    *frameDir,
		Paths:       fs.GetArgs(),
		Orientation: *orientation,
		ModelPath:   *modelPath,
		Warp:        *warper,
		Filter:      *filter,
		Combine:     *combine,
		MinFocus:    *minFocus,
		NoFlip:      *noFlip,
		DBPath:      *dbPath,
		OCR:         *useOCR,
		OCRLang:     *ocrLang,
		DebugDir:    *debugDir,
		Unblurred:   *unblurred,
	}

	err := run(opts, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errNoNumber):
		os.Exit(2)
	default:
		slog.Error("Scan failed", "error", err)
		os.Exit(1)
	}
}
