// Package pointer plans humanlike cursor trajectories: a quadratic Bezier
// arc toward a slightly overshot target, eased whole-pixel steps, then a
// correction leg that lands exactly on the requested point. The package only
// produces coordinates and delays; feeding them to an input-injection layer
// is the caller's business.
package pointer

import (
	"math"
	"math/rand/v2"
	"time"
)

// Point is a screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p shifted by -q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both components by f, truncating to whole pixels.
func (p Point) Scale(f float64) Point {
	return Point{X: int(float64(p.X) * f), Y: int(float64(p.Y) * f)}
}

// Magnitude returns the distance from the origin.
func (p Point) Magnitude() float64 {
	return math.Sqrt(float64(p.X*p.X + p.Y*p.Y))
}

// Clamp limits the point to the rectangle spanned by lo and hi.
func (p Point) Clamp(lo, hi Point) Point {
	return Point{
		X: min(max(p.X, lo.X), hi.X),
		Y: min(max(p.Y, lo.Y), hi.Y),
	}
}

// Distance returns the whole-pixel distance between two points.
func Distance(a, b Point) int {
	return int(a.Sub(b).Magnitude())
}

// FromPolar converts an angle in turns (1.0 is a full circle) and a
// magnitude into a point, rounded to whole pixels.
func FromPolar(turns, magnitude float64) Point {
	rad := turns * 2 * math.Pi
	return Point{
		X: int(math.Round(magnitude * math.Cos(rad))),
		Y: int(math.Round(magnitude * math.Sin(rad))),
	}
}

// EaseOutQuad is a quadratic ease-out curve over [0, 1]; input is clamped.
func EaseOutQuad(t float64) float64 {
	t = min(max(t, 0), 1)
	return t * (2 - t)
}

// EaseOutCubic is a cubic ease-out curve over [0, 1]; input is clamped.
func EaseOutCubic(t float64) float64 {
	t = min(max(t, 0), 1)
	return 1 - math.Pow(1-t, 3)
}

// interpolate evaluates the quadratic Bezier through start, control and end
// at t, rounded to whole pixels.
func interpolate(start, end, control Point, t float64) Point {
	mt := 1 - t
	x := mt*mt*float64(start.X) + 2*mt*t*float64(control.X) + t*t*float64(end.X)
	y := mt*mt*float64(start.Y) + 2*mt*t*float64(control.Y) + t*t*float64(end.Y)
	return Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// arcControlPoint picks a Bezier control point perpendicular to the straight
// line at its midpoint, on a random side, up to maxArcFactor of the straight
// distance out.
func arcControlPoint(start, end Point, maxArcFactor float64, rng *rand.Rand) Point {
	mid := start.Add(end).Scale(0.5)
	diff := end.Sub(start)
	dist := float64(Distance(start, end))

	perp := Point{X: -diff.Y, Y: diff.X}
	if rng.IntN(2) == 0 {
		perp = Point{X: diff.Y, Y: -diff.X}
	}

	var ux, uy float64
	if m := perp.Magnitude(); m != 0 {
		ux = float64(perp.X) / m
		uy = float64(perp.Y) / m
	}

	arc := rng.Float64() * dist * maxArcFactor
	return Point{
		X: int(math.Round(float64(mid.X) + ux*arc)),
		Y: int(math.Round(float64(mid.Y) + uy*arc)),
	}
}

// Step is one planned cursor move: a position, then a pause.
type Step struct {
	Pos   Point         `json:"pos"`
	Delay time.Duration `json:"delay"`
}

// Rect bounds planned points, inclusive on both corners.
type Rect struct {
	Min Point
	Max Point
}

// Planner generates trajectories. Zero fields fall back to defaults; set
// Rand to a seeded source for reproducible plans.
type Planner struct {
	// Step is the pause between moves. Default 10ms.
	Step time.Duration
	// MinOvershootDistance is the straight distance above which a move
	// overshoots before correcting. Default 50.
	MinOvershootDistance int
	// MaxOvershootFactor caps the overshoot magnitude as a share of the
	// straight distance. Default 0.1.
	MaxOvershootFactor float64
	// MaxArcFactor caps the Bezier bow as a share of the straight distance.
	// Default 0.1.
	MaxArcFactor float64
	// Bounds clamps overshot targets when non-zero.
	Bounds Rect
	// Easing shapes step pacing along the curve. Default EaseOutCubic.
	Easing func(float64) float64
	// Rand drives overshoot and arc randomness.
	Rand *rand.Rand
}

func (pl Planner) withDefaults() Planner {
	if pl.Step <= 0 {
		pl.Step = 10 * time.Millisecond
	}
	if pl.MinOvershootDistance <= 0 {
		pl.MinOvershootDistance = 50
	}
	if pl.MaxOvershootFactor <= 0 {
		pl.MaxOvershootFactor = 0.1
	}
	if pl.MaxArcFactor <= 0 {
		pl.MaxArcFactor = 0.1
	}
	if pl.Easing == nil {
		pl.Easing = EaseOutCubic
	}
	if pl.Rand == nil {
		pl.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return pl
}

// Plan returns the timed steps of a humanlike move from from to to taking
// roughly total. Moves longer than MinOvershootDistance first aim at an
// overshot target with a proportionally shortened duration, then correct;
// the final step always lands exactly on to.
func (pl Planner) Plan(from, to Point, total time.Duration) []Step {
	pl = pl.withDefaults()

	var steps []Step
	pl.leg(&steps, from, to, total, true)
	return steps
}

func (pl Planner) leg(steps *[]Step, from, to Point, total time.Duration, allowOvershoot bool) {
	target := to
	legTotal := total

	overshot := false
	if dist := Distance(from, to); allowOvershoot && dist > pl.MinOvershootDistance {
		turns := pl.Rand.Float64()
		factor := pl.Rand.Float64() * pl.MaxOvershootFactor
		target = to.Sub(FromPolar(turns, float64(dist)*factor))
		if pl.Bounds != (Rect{}) {
			target = target.Clamp(pl.Bounds.Min, pl.Bounds.Max)
		}
		legTotal = time.Duration(float64(total) * (1 - factor))
		overshot = target != to
	}

	n := int(legTotal / pl.Step)
	control := arcControlPoint(from, target, pl.MaxArcFactor, pl.Rand)
	for t := 0; t < n; t++ {
		pos := interpolate(from, target, control, pl.Easing(float64(t)/float64(n)))
		*steps = append(*steps, Step{Pos: pos, Delay: pl.Step})
	}

	if overshot {
		last := target
		if len(*steps) > 0 {
			last = (*steps)[len(*steps)-1].Pos
		}
		pl.leg(steps, last, to, total-legTotal, false)
		return
	}
	if len(*steps) == 0 || (*steps)[len(*steps)-1].Pos != to {
		*steps = append(*steps, Step{Pos: to, Delay: pl.Step})
	}
}
