package view

// MotionMode selects the animation parameters for one render pass.
type MotionMode int

const (
	MotionNormal MotionMode = iota
	MotionReduced
)

func ModeFor(reduced bool) MotionMode {
	if reduced {
		return MotionReduced
	}
	return MotionNormal
}

func (m MotionMode) String() string {
	if m == MotionReduced {
		return "reduced"
	}
	return "normal"
}

// Entrance is a section's fade-and-rise transition. A zero Entrance means the
// section renders in its final state with no transition.
type Entrance struct {
	Animated    bool
	OffsetY     float64
	FromOpacity float64
	ToOpacity   float64
	Duration    float64
	Delay       float64
}

// Hover is the pointer-hover effect on a project card.
type Hover struct {
	Animated  bool
	Scale     float64
	Stiffness float64
}

const (
	entranceOffsetY      = 40
	entranceDuration     = 0.6
	entranceStagger      = 0.2
	hoverScale           = 1.03
	hoverSpringStiffness = 300
)

// Animation is the full set of parameters for a render pass.
type Animation struct {
	Mode  MotionMode
	Hover Hover
}

// SelectAnimation picks the parameter set for the current motion preference.
func SelectAnimation(reduced bool) Animation {
	mode := ModeFor(reduced)
	if mode == MotionReduced {
		return Animation{Mode: mode}
	}
	return Animation{
		Mode: mode,
		Hover: Hover{
			Animated:  true,
			Scale:     hoverScale,
			Stiffness: hoverSpringStiffness,
		},
	}
}

// Entrance returns the transition for the section at position i (0-based).
func (a Animation) Entrance(i int) Entrance {
	if a.Mode == MotionReduced {
		return Entrance{}
	}
	return Entrance{
		Animated:    true,
		OffsetY:     entranceOffsetY,
		FromOpacity: 0,
		ToOpacity:   1,
		Duration:    entranceDuration,
		Delay:       roundTenths(float64(i) * entranceStagger),
	}
}

// roundTenths keeps 0.2*3 at 0.6 rather than 0.6000000000000001.
func roundTenths(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
