package cv

import (
	"math"

	"cardscan/pkg/geometry"
)

// HoughParams configures the restricted line search.
type HoughParams struct {
	RhoRes   float64 // accumulator rho step in pixels
	ThetaRes float64 // accumulator theta step in radians
	ThetaMin float64
	ThetaMax float64

	// Threshold is the vote count a line must exceed.
	Threshold int

	// Vertical selects the expected orientation; pixels whose gradient is
	// dominated by the other axis are skipped.
	Vertical bool

	// AngleThreshold is the largest difference, in degrees, allowed between a
	// pixel's gradient direction and a candidate line normal.
	AngleThreshold float64
}

// DefaultHoughParams returns the search used for card edges: one pixel and
// one degree resolution, +/-5 degrees around the expected angle, and a 10
// degree gradient agreement window. Vertical edges have normals at pi,
// horizontal ones at pi/2.
func DefaultHoughParams(vertical bool, threshold int) HoughParams {
	base := math.Pi / 2
	if vertical {
		base = math.Pi
	}
	dev := 5 * math.Pi / 180
	return HoughParams{
		RhoRes:         1,
		ThetaRes:       math.Pi / 180,
		ThetaMin:       base - dev,
		ThetaMax:       base + dev,
		Threshold:      threshold,
		Vertical:       vertical,
		AngleThreshold: 10,
	}
}

// HoughLine returns the best-supported line through the edge pixels of
// edges, in the coordinate frame of its region of interest, or the null line
// if no bin collects more than p.Threshold votes. Ties go to the first bin in
// angle-major order.
func HoughLine(edges, dx, dy *Image, p HoughParams, ws *Workspace) geometry.ParametricLine {
	mustGray(edges, DepthU8)
	mustGray(dx, DepthS16)
	mustGray(dy, DepthS16)
	mustSameSize(edges, dx)
	mustSameSize(edges, dy)
	ws = orNew(ws)

	w, h := edges.Size()
	numAngle := int(math.Floor((p.ThetaMax-p.ThetaMin)/p.ThetaRes+0.5)) + 1
	numRho := int(math.Round(float64((w+h)*2+1) / p.RhoRes))
	if numAngle <= 0 || numRho <= 0 {
		return geometry.NullLine()
	}
	rhoOffset := (numRho - 1) / 2

	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		theta := p.ThetaMin + float64(n)*p.ThetaRes
		cosTab[n] = math.Cos(theta) / p.RhoRes
		sinTab[n] = math.Sin(theta) / p.RhoRes
	}
	normals := make([]float64, numAngle)
	for n := range normals {
		normals[n] = math.Mod(p.ThetaMin+float64(n)*p.ThetaRes, math.Pi)
		if normals[n] < 0 {
			normals[n] += math.Pi
		}
	}
	tolerance := p.AngleThreshold * math.Pi / 180

	accum := ws.accumulator(numAngle * numRho)
	for y := 0; y < h; y++ {
		row := edges.RowU8(y)
		rdx, rdy := dx.RowS16(y), dy.RowS16(y)
		for x, v := range row {
			if v == 0 {
				continue
			}
			gx, gy := float64(rdx[x]), float64(rdy[x])
			if p.Vertical && math.Abs(gx) < math.Abs(gy) {
				continue
			}
			if !p.Vertical && math.Abs(gy) < math.Abs(gx) {
				continue
			}
			grad := math.Atan2(gy, gx)
			if grad < 0 {
				grad += math.Pi
			}
			for n := 0; n < numAngle; n++ {
				d := math.Abs(grad - normals[n])
				d = math.Min(d, math.Pi-d)
				if d > tolerance {
					continue
				}
				r := int(math.Round(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + rhoOffset
				if r < 0 || r >= numRho {
					continue
				}
				accum[n*numRho+r]++
			}
		}
	}

	best, bestVotes := -1, int32(p.Threshold)
	for i, votes := range accum {
		if votes > bestVotes {
			best, bestVotes = i, votes
		}
	}
	if best < 0 {
		return geometry.NullLine()
	}
	n, r := best/numRho, best%numRho
	return geometry.ParametricLine{
		Rho:   float64(r-rhoOffset) * p.RhoRes,
		Theta: p.ThetaMin + float64(n)*p.ThetaRes,
	}
}
