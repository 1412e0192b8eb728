// Command edgetest runs card edge detection on one frame and prints what it
// found. With -out it also writes the overlay and the rectified card.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/frames"
	"cardscan/internal/warp"
	"cardscan/pkg/geometry"
)

func main() {
	framePath := flag.String("frame", "", "Path to a camera frame (PNG, JPEG, TIFF or PGM)")
	orientation := flag.String("orientation", "landscape-left", "Device orientation")
	slop := flag.Float64("slop", 0.03, "Search box slop as a fraction of the card size")
	outDir := flag.String("out", "", "Directory for the overlay and rectified card")
	flag.Parse()

	if *framePath == "" {
		fmt.Println("Usage: edgetest -frame <path> [-orientation landscape-left] [-slop 0.03] [-out dir]")
		os.Exit(1)
	}

	o, ok := detect.ParseOrientation(*orientation)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown orientation: %s\n", *orientation)
		os.Exit(1)
	}

	f, err := frames.Load(*framePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	w, h := f.Size()
	fmt.Printf("Loaded frame: %dx%d pixels, chroma: %v\n", w, h, f.Cb != nil)
	fmt.Printf("Orientation: %s\n", o)

	insets := detect.DefaultInsets().WithSlop(*slop)
	boxes := detect.DetectionBoxes(geometry.NewSize(w, h), o, insets)
	fmt.Printf("\nSearch boxes:\n")
	for i, name := range []string{"top", "bottom", "left", "right"} {
		b := boxes.Array()[i]
		fmt.Printf("  %-7s x=%d y=%d w=%d h=%d\n", name, b.X, b.Y, b.Width, b.Height)
	}

	fmt.Printf("\nFocus: %.2f  Brightness: %.1f\n", cv.FocusScore(f.Y, false), cv.BrightnessScore(f.Y, false))

	edges, found := detect.DetectEdges(f.Planes(), o, insets, nil)
	fmt.Printf("\n%-8s %6s %10s %10s %6s\n", "Edge", "Found", "Rho", "Theta", "Plane")
	for _, e := range []struct {
		name string
		edge detect.Edge
	}{{"top", edges.Top}, {"bottom", edges.Bottom}, {"left", edges.Left}, {"right", edges.Right}} {
		fmt.Printf("%-8s %6v %10.2f %10.4f %6d\n", e.name, e.edge.Found, e.edge.Line.Rho, e.edge.Line.Theta, e.edge.Plane)
	}

	var card *cv.Image
	if found {
		c := edges.Corners
		fmt.Printf("\nCorners:\n")
		fmt.Printf("  top-left     (%.1f, %.1f)\n", c.TopLeft.X, c.TopLeft.Y)
		fmt.Printf("  top-right    (%.1f, %.1f)\n", c.TopRight.X, c.TopRight.Y)
		fmt.Printf("  bottom-left  (%.1f, %.1f)\n", c.BottomLeft.X, c.BottomLeft.Y)
		fmt.Printf("  bottom-right (%.1f, %.1f)\n", c.BottomRight.X, c.BottomRight.Y)
		fmt.Printf("  area %.0f, convex %v\n", c.Area(), c.IsConvex())

		card, err = warp.TransformCard(f.Y, c, o, warp.CPUWarper{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rectification failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("\nOnly %d of 4 edges found\n", edges.Count())
	}

	if *outDir == "" {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	overlay, err := frames.Overlay(f, boxes, edges)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Overlay failed: %v\n", err)
		os.Exit(1)
	}
	if err := frames.SavePNG(filepath.Join(*outDir, "overlay.png"), overlay); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nWrote %s\n", filepath.Join(*outDir, "overlay.png"))
	if card != nil {
		if err := frames.SavePGM(filepath.Join(*outDir, "card.pgm"), card); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", filepath.Join(*outDir, "card.pgm"))
	}
}
