// Package match implements pixel-pattern search over captured rasters:
// exact color scans, greedy feature clustering, fuzzy sliding-window search,
// anchored scoring and region extraction. Every function is pure and safe to
// call concurrently on shared rasters.
package match

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/glimpse/internal/raster"
)

var (
	// ErrEmptyFeature is returned by operations that need at least one pixel.
	ErrEmptyFeature = errors.New("feature has no pixels")
	// ErrStartOutOfBounds marks a region whose near corner misses the raster.
	ErrStartOutOfBounds = errors.New("start point is outside raster bounds")
	// ErrEndOutOfBounds marks a region whose far corner misses the raster.
	ErrEndOutOfBounds = errors.New("end point is outside raster bounds")
	// ErrCoordsOutOfBounds marks a histogram region outside the raster.
	ErrCoordsOutOfBounds = errors.New("coordinates are outside raster bounds")
	// ErrFeatureOutOfBounds marks an anchored feature extending past the raster.
	ErrFeatureOutOfBounds = errors.New("feature placed at this point extends beyond raster bounds")
)

// MaxColorDistance is the largest possible Euclidean distance between two
// RGBA colors with alpha included: sqrt(255^2 * 4). Tolerance percentages
// are converted to absolute thresholds against this maximum for both sliding
// and anchored search.
const MaxColorDistance = 510.0

// clusterRadius bounds, in pixels, how far apart two hits may sit and still
// join the same extracted feature. Compared squared to avoid the sqrt.
const clusterRadius = 5

// Pixel is a sampled point. Coordinates are absolute within the source
// raster, except inside a Feature produced by GetFeature, where they are
// relative to the region's top-left corner.
type Pixel struct {
	X    uint32 `json:"x"`
	Y    uint32 `json:"y"`
	RGBA uint32 `json:"rgba"`
}

// Feature is a sparse pixel pattern used for matching. Coordinates may be
// region-relative or absolute; only their spacing matters to search.
type Feature struct {
	Pixels []Pixel `json:"pixels"`
}

// ColourFrequency is one histogram entry over a rectangular region.
type ColourFrequency struct {
	RGBA  uint32 `json:"rgba"`
	Count uint32 `json:"count"`
}

func colorDistance(c1, c2 uint32) float64 {
	r1, g1, b1, a1 := raster.Unpack(c1)
	r2, g2, b2, a2 := raster.Unpack(c2)

	dr := float64(r1) - float64(r2)
	dg := float64(g1) - float64(g2)
	db := float64(b1) - float64(b2)
	da := float64(a1) - float64(a2)

	return math.Sqrt(dr*dr + dg*dg + db*db + da*da)
}

// bounds returns the feature's bounding corners. Callers must have rejected
// empty features first.
func (f Feature) bounds() (minX, minY, maxX, maxY uint32) {
	minX, minY = f.Pixels[0].X, f.Pixels[0].Y
	maxX, maxY = minX, minY
	for _, p := range f.Pixels[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// FindColor returns every pixel whose stored color equals rgba exactly.
// The scan is row-major, so results are (y, x)-ordered and stable across
// runs.
func FindColor(r *raster.Raster, rgba uint32) []Pixel {
	var out []Pixel
	for y := uint32(0); y < r.Height(); y++ {
		for x := uint32(0); x < r.Width(); x++ {
			c, _ := r.RGBAAt(x, y)
			if c == rgba {
				out = append(out, Pixel{X: x, Y: y, RGBA: c})
			}
		}
	}
	return out
}

// ExtractFeatures finds every exact occurrence of rgba and clusters the hits
// into features. Clustering is a single greedy pass over the hits sorted by
// (x, y): each pixel joins the first group holding any member within
// clusterRadius, else it starts a new group. This is an order-dependent
// approximation of connected-component labeling, kept deliberately: pixels
// of one true blob can land in separate groups when the sorted scan reaches
// them out of proximity order.
func ExtractFeatures(r *raster.Raster, rgba uint32) []Feature {
	pixels := FindColor(r, rgba)
	sort.Slice(pixels, func(i, j int) bool {
		if pixels[i].X != pixels[j].X {
			return pixels[i].X < pixels[j].X
		}
		return pixels[i].Y < pixels[j].Y
	})

	const maxDistSq = clusterRadius * clusterRadius
	var groups [][]Pixel
	for _, p := range pixels {
		placed := false
		for gi := range groups {
			for _, gp := range groups[gi] {
				dx := int64(gp.X) - int64(p.X)
				dy := int64(gp.Y) - int64(p.Y)
				if dx*dx+dy*dy <= maxDistSq {
					groups[gi] = append(groups[gi], p)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			groups = append(groups, []Pixel{p})
		}
	}

	features := make([]Feature, len(groups))
	for i, g := range groups {
		features[i] = Feature{Pixels: g}
	}
	return features
}

// FindFeature slides the feature's bounding box over every valid top-left
// position in the raster and reports the positions whose mismatch count
// stays within budget. The budget is round(len(pixels) * maxMismatchPct),
// rounding half away from zero; a feature pixel mismatches when its color
// distance exceeds MaxColorDistance * colorTolerancePct or it falls outside
// the raster. Each hit carries the raster's color at the hit's top-left
// corner. An empty feature, or one larger than the raster in either
// dimension, yields an empty result and no error.
func FindFeature(r *raster.Raster, f Feature, colorTolerancePct, maxMismatchPct float64) []Pixel {
	var hits []Pixel
	if len(f.Pixels) == 0 {
		return hits
	}

	minX, minY, maxX, maxY := f.bounds()
	fw := maxX - minX + 1
	fh := maxY - minY + 1
	if fw > r.Width() || fh > r.Height() {
		return hits
	}

	tolerance := MaxColorDistance * colorTolerancePct
	budget := uint32(math.Round(float64(len(f.Pixels)) * maxMismatchPct))

	for sy := uint32(0); sy <= r.Height()-fh; sy++ {
		for sx := uint32(0); sx <= r.Width()-fw; sx++ {
			var mismatches uint32
			for _, fp := range f.Pixels {
				c, ok := r.RGBAAt(sx+(fp.X-minX), sy+(fp.Y-minY))
				if !ok || colorDistance(fp.RGBA, c) > tolerance {
					mismatches++
					if mismatches > budget {
						break
					}
				}
			}
			if mismatches <= budget {
				c, _ := r.RGBAAt(sx, sy)
				hits = append(hits, Pixel{X: sx, Y: sy, RGBA: c})
			}
		}
	}
	return hits
}

// CheckFeature scores the feature anchored at (x, y) and returns the
// fraction of its pixels whose color distance stays within
// MaxColorDistance * colorTolerancePct. Feature pixels that land outside
// the raster count as non-matching. It fails on an empty feature, or when
// the feature's bounding box placed at (x, y) extends beyond the raster.
func CheckFeature(r *raster.Raster, x, y uint32, f Feature, colorTolerancePct float64) (float64, error) {
	if len(f.Pixels) == 0 {
		return 0, ErrEmptyFeature
	}

	minX, minY, maxX, maxY := f.bounds()
	fw := maxX - minX + 1
	fh := maxY - minY + 1
	if uint64(x)+uint64(fw) > uint64(r.Width()) || uint64(y)+uint64(fh) > uint64(r.Height()) {
		return 0, ErrFeatureOutOfBounds
	}

	tolerance := MaxColorDistance * colorTolerancePct
	matched := 0
	for _, fp := range f.Pixels {
		c, ok := r.RGBAAt(x+(fp.X-minX), y+(fp.Y-minY))
		if ok && colorDistance(fp.RGBA, c) <= tolerance {
			matched++
		}
	}
	return float64(matched) / float64(len(f.Pixels)), nil
}

// GetFeature samples the rectangle spanned by the two corners, in either
// order, and returns its pixels with coordinates relative to the rectangle's
// top-left corner. Both corners must lie inside the raster; the region is
// inclusive of its far edge.
func GetFeature(r *raster.Raster, x0, y0, x1, y1 uint32) (Feature, error) {
	minX, maxX := min(x0, x1), max(x0, x1)
	minY, maxY := min(y0, y1), max(y0, y1)

	if minX >= r.Width() || minY >= r.Height() {
		return Feature{}, ErrStartOutOfBounds
	}
	if maxX >= r.Width() || maxY >= r.Height() {
		return Feature{}, ErrEndOutOfBounds
	}

	pixels := make([]Pixel, 0, int(maxX-minX+1)*int(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c, _ := r.RGBAAt(x, y)
			pixels = append(pixels, Pixel{X: x - minX, Y: y - minY, RGBA: c})
		}
	}
	return Feature{Pixels: pixels}, nil
}

// ColourFrequencies counts exact RGBA occurrences within the rectangle
// spanned by the two corners, in either order and inclusive of the far
// edge. Entry order is arbitrary.
func ColourFrequencies(r *raster.Raster, x0, y0, x1, y1 uint32) ([]ColourFrequency, error) {
	minX, maxX := min(x0, x1), max(x0, x1)
	minY, maxY := min(y0, y1), max(y0, y1)

	if minX >= r.Width() || minY >= r.Height() || maxX >= r.Width() || maxY >= r.Height() {
		return nil, ErrCoordsOutOfBounds
	}

	counts := make(map[uint32]uint32)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c, _ := r.RGBAAt(x, y)
			counts[c]++
		}
	}

	out := make([]ColourFrequency, 0, len(counts))
	for c, n := range counts {
		out = append(out, ColourFrequency{RGBA: c, Count: n})
	}
	return out, nil
}

// SortColourFrequencies orders a histogram by descending count, breaking
// ties on the packed color value so equal counts still sort stably.
func SortColourFrequencies(freqs []ColourFrequency) {
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].RGBA < freqs[j].RGBA
	})
}

// ParseHexColor accepts #RRGGBB or #RRGGBBAA, with or without the leading
// hash. Six-digit colors get an opaque alpha.
func ParseHexColor(s string) (uint32, error) {
	t := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(t) {
	case 6:
		v, err := strconv.ParseUint(t, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q", s)
		}
		return uint32(v)<<8 | 0xFF, nil
	case 8:
		v, err := strconv.ParseUint(t, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q", s)
		}
		return uint32(v), nil
	default:
		return 0, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
}
