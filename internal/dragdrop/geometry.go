package dragdrop

// Point is a pointer position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a bounding rectangle reported by the UI for a drop zone.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// relative returns p's offset inside r as fractions of width and height.
func (r Rect) relative(p Point) (fx, fy float64) {
	if r.Width > 0 {
		fx = (p.X - r.X) / r.Width
	}
	if r.Height > 0 {
		fy = (p.Y - r.Y) / r.Height
	}
	return fx, fy
}

// Placement is where a drop lands relative to the hovered block.
type Placement string

const (
	PlaceBefore Placement = "before"
	PlaceAfter  Placement = "after"
	PlaceInside Placement = "inside"
)

const (
	beforeThreshold = 0.25
	afterThreshold  = 0.75
)

// PlacementFor maps the pointer's relative vertical position inside a zone:
// the top quarter inserts before, the bottom quarter after, the middle inside.
func PlacementFor(r Rect, p Point) Placement {
	_, fy := r.relative(p)
	switch {
	case fy < beforeThreshold:
		return PlaceBefore
	case fy > afterThreshold:
		return PlaceAfter
	default:
		return PlaceInside
	}
}
