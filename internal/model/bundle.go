package model

import (
	"fmt"
	"os"

	cbor "github.com/brianolson/cbor_go"
	"gonum.org/v1/gonum/mat"
)

// bundleVersion is bumped whenever the record layout changes.
const bundleVersion = 1

// Bundle is a set of trained networks. Either part may be absent, in which
// case Set substitutes the template classifier.
type Bundle struct {
	Strip  *Network
	Digits []*Network
}

type layerRecord struct {
	Rows       int       `cbor:"r"`
	Cols       int       `cbor:"c"`
	Weights    []float64 `cbor:"w"`
	Bias       []float64 `cbor:"b"`
	Activation string    `cbor:"a"`
}

type networkRecord struct {
	Layers []layerRecord `cbor:"l"`
}

type bundleRecord struct {
	Version int             `cbor:"v"`
	Strip   networkRecord   `cbor:"s"`
	Digits  []networkRecord `cbor:"d"`
}

// Set returns the classifiers for a scanner, falling back to the template
// classifiers for anything the bundle does not carry.
func (b *Bundle) Set() Set {
	s := DefaultSet()
	if b == nil {
		return s
	}
	if b.Strip != nil {
		s.Strip = b.Strip
	}
	if len(b.Digits) > 0 {
		s.Digits = s.Digits[:0]
		for _, d := range b.Digits {
			s.Digits = append(s.Digits, d)
		}
	}
	return s
}

// Validate checks every network's shape against the classifier it serves.
func (b *Bundle) Validate() error {
	if b.Strip != nil {
		if err := b.Strip.Validate(StripFeatures, 3); err != nil {
			return fmt.Errorf("strip network: %w", err)
		}
	}
	for i, d := range b.Digits {
		if err := d.Validate(DigitWidth*DigitHeight, 10); err != nil {
			return fmt.Errorf("digit network %d: %w", i, err)
		}
	}
	return nil
}

func toRecord(n *Network) networkRecord {
	var rec networkRecord
	if n == nil {
		return rec
	}
	for _, l := range n.Layers {
		r, c := l.Weights.Dims()
		lr := layerRecord{Rows: r, Cols: c, Activation: string(l.Activation)}
		lr.Weights = make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			lr.Weights = append(lr.Weights, l.Weights.RawRowView(i)[:c]...)
		}
		lr.Bias = append([]float64(nil), l.Bias.RawVector().Data[:l.Bias.Len()]...)
		rec.Layers = append(rec.Layers, lr)
	}
	return rec
}

func fromRecord(rec networkRecord) (*Network, error) {
	n := &Network{}
	for i, lr := range rec.Layers {
		if lr.Rows <= 0 || lr.Cols <= 0 || len(lr.Weights) != lr.Rows*lr.Cols {
			return nil, fmt.Errorf("layer %d: %d weights for a %dx%d matrix", i, len(lr.Weights), lr.Rows, lr.Cols)
		}
		if len(lr.Bias) != lr.Rows {
			return nil, fmt.Errorf("layer %d: %d biases for %d outputs", i, len(lr.Bias), lr.Rows)
		}
		n.Layers = append(n.Layers, Layer{
			Weights:    mat.NewDense(lr.Rows, lr.Cols, lr.Weights),
			Bias:       mat.NewVecDense(lr.Rows, lr.Bias),
			Activation: Activation(lr.Activation),
		})
	}
	return n, nil
}

// Encode serializes the bundle as CBOR.
func Encode(b *Bundle) ([]byte, error) {
	rec := bundleRecord{Version: bundleVersion, Strip: toRecord(b.Strip)}
	for _, d := range b.Digits {
		rec.Digits = append(rec.Digits, toRecord(d))
	}
	data, err := cbor.Dumps(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model bundle: %w", err)
	}
	return data, nil
}

// Decode parses and validates a CBOR bundle.
func Decode(data []byte) (*Bundle, error) {
	var rec bundleRecord
	if err := cbor.Loads(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode model bundle: %w", err)
	}
	if rec.Version != bundleVersion {
		return nil, fmt.Errorf("unsupported model bundle version %d", rec.Version)
	}

	b := &Bundle{}
	if len(rec.Strip.Layers) > 0 {
		n, err := fromRecord(rec.Strip)
		if err != nil {
			return nil, fmt.Errorf("strip network: %w", err)
		}
		b.Strip = n
	}
	for i, dr := range rec.Digits {
		n, err := fromRecord(dr)
		if err != nil {
			return nil, fmt.Errorf("digit network %d: %w", i, err)
		}
		b.Digits = append(b.Digits, n)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadBundle reads a bundle file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model bundle: %w", err)
	}
	return Decode(data)
}

// SaveBundle writes a bundle file.
func SaveBundle(path string, b *Bundle) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model bundle: %w", err)
	}
	return nil
}
