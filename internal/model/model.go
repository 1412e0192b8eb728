// Package model holds the learned components of the scanner: the strip
// classifier that finds the card-number row, the digit classifiers, and the
// feature extraction that feeds them.
//
// Trained weights are loaded from a CBOR bundle. When none is available the
// deterministic template classifiers in this package stand in for them.
package model

import (
	"gonum.org/v1/gonum/mat"
)

const (
	// StripX is the left edge of the row sampled on a rectified card.
	StripX = 10
	// StripWidth is the width of the row sampled on a rectified card.
	StripWidth = 408
	// StripFeatures is the length of a strip feature vector.
	StripFeatures = StripWidth / 2

	// DigitWidth and DigitHeight are the size of one digit cell.
	DigitWidth  = 19
	DigitHeight = 27
)

// Strip classifier output indices.
const (
	NotNumber = iota
	VisaLike
	AmexLike
)

// StripClassifier scores one row of the card. The result holds the
// not-number, visa-like and amex-like scores in that order.
type StripClassifier interface {
	ScoreStrip(features []float32) [3]float32
}

// DigitClassifier scores a DigitHeight x DigitWidth feature tile against the
// ten digits.
type DigitClassifier interface {
	Classify(tile *mat.Dense) [10]float32
}

// Set is the collection of models one scanner runs with.
type Set struct {
	Strip  StripClassifier
	Digits []DigitClassifier
}

// DefaultSet returns the template classifiers: one strip classifier and
// regular, thin and bold digit templates for the scanner to vote across.
func DefaultSet() Set {
	return Set{
		Strip: NewTemplateStripClassifier(),
		Digits: []DigitClassifier{
			NewWeightedDigitClassifier(Regular),
			NewWeightedDigitClassifier(Thin),
			NewWeightedDigitClassifier(Bold),
		},
	}
}

// StripClassifierFunc adapts a function to StripClassifier.
type StripClassifierFunc func(features []float32) [3]float32

func (f StripClassifierFunc) ScoreStrip(features []float32) [3]float32 { return f(features) }

// DigitClassifierFunc adapts a function to DigitClassifier.
type DigitClassifierFunc func(tile *mat.Dense) [10]float32

func (f DigitClassifierFunc) Classify(tile *mat.Dense) [10]float32 { return f(tile) }
