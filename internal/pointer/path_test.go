package pointer

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestPointArithmetic(t *testing.T) {
	p := Point{X: 3, Y: 4}
	require.Equal(t, Point{X: 4, Y: 6}, p.Add(Point{X: 1, Y: 2}))
	require.Equal(t, Point{X: 2, Y: 2}, p.Sub(Point{X: 1, Y: 2}))
	require.Equal(t, 5.0, p.Magnitude())

	// Scale truncates toward zero.
	require.Equal(t, Point{X: 1, Y: 2}, Point{X: 3, Y: 4}.Scale(0.5))
}

func TestDistanceTruncates(t *testing.T) {
	require.Equal(t, 5, Distance(Point{}, Point{X: 3, Y: 4}))
	require.Equal(t, 1, Distance(Point{}, Point{X: 1, Y: 1}))
}

func TestFromPolarQuarterTurns(t *testing.T) {
	require.Equal(t, Point{X: 10, Y: 0}, FromPolar(0, 10))
	require.Equal(t, Point{X: 0, Y: 10}, FromPolar(0.25, 10))
	require.Equal(t, Point{X: -10, Y: 0}, FromPolar(0.5, 10))
	require.Equal(t, Point{X: 0, Y: -10}, FromPolar(0.75, 10))
}

func TestClamp(t *testing.T) {
	lo, hi := Point{X: 0, Y: 0}, Point{X: 100, Y: 50}
	require.Equal(t, Point{X: 0, Y: 50}, Point{X: -5, Y: 80}.Clamp(lo, hi))
	require.Equal(t, Point{X: 30, Y: 20}, Point{X: 30, Y: 20}.Clamp(lo, hi))
}

func TestEasingBoundsAndClamping(t *testing.T) {
	for _, ease := range []func(float64) float64{EaseOutQuad, EaseOutCubic} {
		require.Equal(t, 0.0, ease(0))
		require.Equal(t, 1.0, ease(1))
		require.Equal(t, 0.0, ease(-3))
		require.Equal(t, 1.0, ease(2))
	}
	require.Equal(t, 0.75, EaseOutQuad(0.5))
	require.Equal(t, 0.875, EaseOutCubic(0.5))
}

func TestInterpolateEndpoints(t *testing.T) {
	start, end, control := Point{X: 0, Y: 0}, Point{X: 100, Y: 40}, Point{X: 50, Y: 90}
	require.Equal(t, start, interpolate(start, end, control, 0))
	require.Equal(t, end, interpolate(start, end, control, 1))
}

func TestPlanLandsExactlyOnTarget(t *testing.T) {
	pl := Planner{Rand: seeded(1)}
	to := Point{X: 320, Y: 180}

	steps := pl.Plan(Point{X: 0, Y: 0}, to, 500*time.Millisecond)
	require.NotEmpty(t, steps)
	require.Equal(t, to, steps[len(steps)-1].Pos)
}

func TestPlanShortMoveSkipsOvershoot(t *testing.T) {
	pl := Planner{Rand: seeded(7)}
	to := Point{X: 20, Y: 10}

	steps := pl.Plan(Point{X: 0, Y: 0}, to, 100*time.Millisecond)
	require.Equal(t, to, steps[len(steps)-1].Pos)

	// 100ms at the 10ms default step: ten eased points plus at most the
	// exact landing step.
	require.LessOrEqual(t, len(steps), 11)
}

func TestPlanDeterministicUnderSeed(t *testing.T) {
	from, to := Point{X: 10, Y: 10}, Point{X: 400, Y: 300}

	a := Planner{Rand: seeded(42)}.Plan(from, to, 300*time.Millisecond)
	b := Planner{Rand: seeded(42)}.Plan(from, to, 300*time.Millisecond)
	require.Equal(t, a, b)

	c := Planner{Rand: seeded(43)}.Plan(from, to, 300*time.Millisecond)
	require.NotEqual(t, a, c, "different seeds should bend the path differently")
}

func TestPlanRespectsBoundsForOvershoot(t *testing.T) {
	bounds := Rect{Min: Point{X: 0, Y: 0}, Max: Point{X: 1920, Y: 1080}}
	pl := Planner{Rand: seeded(3), Bounds: bounds}

	// Aim at the corner so any overshoot would leave the screen.
	steps := pl.Plan(Point{X: 500, Y: 500}, Point{X: 1919, Y: 1079}, 400*time.Millisecond)
	require.Equal(t, Point{X: 1919, Y: 1079}, steps[len(steps)-1].Pos)

	for _, s := range steps {
		require.GreaterOrEqual(t, s.Pos.X, -192, "arc may bow slightly, never wildly")
		require.LessOrEqual(t, s.Pos.X, 1920+192)
		require.GreaterOrEqual(t, s.Pos.Y, -108)
		require.LessOrEqual(t, s.Pos.Y, 1080+108)
	}
}

func TestPlanStepDelays(t *testing.T) {
	pl := Planner{Step: 5 * time.Millisecond, Rand: seeded(9)}
	steps := pl.Plan(Point{}, Point{X: 30, Y: 0}, 50*time.Millisecond)
	for _, s := range steps {
		require.Equal(t, 5*time.Millisecond, s.Delay)
	}
}

func TestPlanZeroDurationStillArrives(t *testing.T) {
	pl := Planner{Rand: seeded(5)}
	steps := pl.Plan(Point{}, Point{X: 3, Y: 3}, 0)
	require.Equal(t, []Step{{Pos: Point{X: 3, Y: 3}, Delay: 10 * time.Millisecond}}, steps)
}
