package geometry

import "math"

const (
	// MinSamples rejects taps and accidental clicks.
	MinSamples = 10
	// CoverageRatio is the fraction of a polygon's length that must be traced.
	CoverageRatio = 0.7
	// BucketDegrees is the angular bucket width for round shapes.
	BucketDegrees = 5
	// RequiredDegrees is 70% of a full turn.
	RequiredDegrees = 252
)

// Evaluate decides whether path traces shape within threshold pixels.
// It has no side effects.
func Evaluate(path []Point, shape Shape, threshold float64) bool {
	if len(path) < MinSamples || shape == nil {
		return false
	}
	s := scorer{path: path, threshold: threshold}
	shape.Accept(&s)
	return s.ok
}

type scorer struct {
	path      []Point
	threshold float64
	ok        bool
}

func (s *scorer) VisitPolygon(p Polygon) {
	s.ok = PolygonCoverage(s.path, p, s.threshold) >= CoverageRatio
}

func (s *scorer) VisitCircle(c Circle) {
	buckets := make(map[int]struct{})
	for _, pt := range s.path {
		d := pt.Dist(c.Center)
		if math.Abs(d-c.Radius) <= s.threshold {
			buckets[angleBucket(pt, c.Center)] = struct{}{}
		}
	}
	s.ok = len(buckets)*BucketDegrees >= RequiredDegrees
}

func (s *scorer) VisitEllipse(e Ellipse) {
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		s.ok = false
		return
	}
	normThreshold := s.threshold / math.Max(e.RadiusX, e.RadiusY)
	buckets := make(map[int]struct{})
	for _, pt := range s.path {
		dx := (pt.X - e.Center.X) / e.RadiusX
		dy := (pt.Y - e.Center.Y) / e.RadiusY
		d := math.Sqrt(dx*dx + dy*dy)
		if math.Abs(d-1) <= normThreshold {
			buckets[angleBucket(pt, e.Center)] = struct{}{}
		}
	}
	s.ok = len(buckets)*BucketDegrees >= RequiredDegrees
}

// PolygonCoverage returns the traced fraction of a polygon's total length.
// Each sample counts toward its nearest segment only, and a segment
// contributes at most its own length: the span between the extreme
// projections of the samples that landed on it. A polygon with no length
// has zero coverage.
func PolygonCoverage(path []Point, p Polygon, threshold float64) float64 {
	segs := p.Segments()
	if len(segs) == 0 {
		return 0
	}
	lengths := make([]float64, len(segs))
	for i, seg := range segs {
		lengths[i] = seg[0].Dist(seg[1])
	}
	total := PathLength(p.Points)
	if total <= 0 {
		return 0
	}

	type span struct {
		lo, hi  float64
		covered bool
	}
	spans := make([]span, len(segs))
	for _, pt := range path {
		best, bestT := math.Inf(1), 0.0
		bestIdx := -1
		for i, seg := range segs {
			d, t := SegmentDistance(pt, seg[0], seg[1])
			if d < best {
				best, bestT, bestIdx = d, t, i
			}
		}
		if bestIdx < 0 || best > threshold {
			continue
		}
		sp := &spans[bestIdx]
		if !sp.covered {
			sp.lo, sp.hi, sp.covered = bestT, bestT, true
			continue
		}
		sp.lo = math.Min(sp.lo, bestT)
		sp.hi = math.Max(sp.hi, bestT)
	}

	covered := 0.0
	for i, sp := range spans {
		if sp.covered {
			covered += (sp.hi - sp.lo) * lengths[i]
		}
	}
	return covered / total
}

// angleBucket rounds the angle of pt around center to the nearest bucket.
// Rounding is half-up, and 360 stays distinct from 0.
func angleBucket(pt, center Point) int {
	deg := math.Atan2(pt.Y-center.Y, pt.X-center.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return int(math.Floor(deg/BucketDegrees+0.5)) * BucketDegrees
}
