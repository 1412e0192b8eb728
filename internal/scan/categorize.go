package scan

import (
	"cardscan/internal/cv"
	"cardscan/internal/model"
	"cardscan/pkg/geometry"
)

// NumberScores holds one row of digit scores per digit position.
type NumberScores [MaxDigits][10]float32

// Sum returns the total of all scores.
func (s *NumberScores) Sum() float32 {
	var total float32
	for i := range s {
		for _, v := range s[i] {
			total += v
		}
	}
	return total
}

// Scale multiplies every score by f.
func (s *NumberScores) Scale(f float32) {
	for i := range s {
		for j := range s[i] {
			s[i][j] *= f
		}
	}
}

// AddScaled adds f times o.
func (s *NumberScores) AddScaled(o *NumberScores, f float32) {
	for i := range s {
		for j := range s[i] {
			s[i][j] += o[i][j] * f
		}
	}
}

// RowArgMax returns the best digit at position i, its score and the row
// total. Ties go to the lower digit.
func (s *NumberScores) RowArgMax(i int) (digit int, peak, sum float32) {
	row := &s[i]
	for d, v := range row {
		if v > row[digit] {
			digit = d
		}
		sum += v
	}
	return digit, row[digit], sum
}

// Combiner merges the outputs of several digit classifiers for one cell.
type Combiner func(results [][10]float32) [10]float32

// CombineVotes adds the classifiers' scores and drops the largest one for
// each digit before averaging the rest. With three classifiers a digit all
// three agree on scores near 1, a two-vote digit near 0.5, and a lone vote
// near 0.
func CombineVotes(results [][10]float32) [10]float32 {
	var out [10]float32
	if len(results) == 0 {
		return out
	}
	if len(results) == 1 {
		return results[0]
	}
	for d := range out {
		var sum, peak float32
		for _, r := range results {
			sum += r[d]
			peak = max(peak, r[d])
		}
		out[d] = (sum - peak) / float32(len(results)-1)
	}
	return out
}

// CombineMean averages the classifiers' scores.
func CombineMean(results [][10]float32) [10]float32 {
	var out [10]float32
	if len(results) == 0 {
		return out
	}
	for _, r := range results {
		for d, v := range r {
			out[d] += v
		}
	}
	for d := range out {
		out[d] /= float32(len(results))
	}
	return out
}

// Categorize scores every digit cell located by hseg in the strip starting
// at vseg.YOffset. Each DigitWidth x DigitHeight cell is featurized and run
// through every digit classifier; combine merges their outputs.
func Categorize(card *cv.Image, vseg VSeg, hseg HSeg, digits []model.DigitClassifier, combine Combiner, ws *Workspace) NumberScores {
	mustCard(card)
	ws = orNew(ws)
	if combine == nil {
		combine = CombineVotes
	}
	defer card.ResetROI()

	var scores NumberScores
	n := min(hseg.NOffsets, MaxDigits)
	for i := 0; i < n; i++ {
		card.SetROI(geometry.NewRectInt(hseg.Offsets[i], vseg.YOffset, model.DigitWidth, model.DigitHeight))
		tile := ws.features.Tile(card)
		ws.results = ws.results[:0]
		for _, c := range digits {
			ws.results = append(ws.results, c.Classify(tile))
		}
		scores[i] = combine(ws.results)
	}
	return scores
}
