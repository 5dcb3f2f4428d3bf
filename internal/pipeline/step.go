package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshtools/pkg/solidify"
	"github.com/Faultbox/meshtools/pkg/transform"
)

// Step is one operation of a pipeline. Steps print in the same syntax
// ParseStep accepts.
type Step interface {
	fmt.Stringer
	run(s *Session) (StepResult, error)
}

// Rotate turns the primary mesh about a principal axis.
type Rotate struct {
	Axis    transform.Axis
	Degrees float64
}

func (r Rotate) String() string {
	return "rotate:" + r.Axis.String() + ":" + strconv.FormatFloat(r.Degrees, 'g', -1, 64)
}

// Solidify closes the primary mesh, or a copy of the open surface when an
// earlier Solidify already closed the primary. Depth applies to Flat only;
// nil means the session default.
type Solidify struct {
	Mode  solidify.Mode
	Depth *float64
}

func (s Solidify) String() string {
	if s.Mode == solidify.Mirror {
		return "mirror-back"
	}
	if s.Depth != nil {
		return "flat:" + strconv.FormatFloat(*s.Depth, 'g', -1, 64)
	}
	return "flat"
}

// Mirror produces a reflected copy of the primary mesh as an auxiliary
// output. The primary is not changed.
type Mirror struct {
	Axis transform.Axis
}

func (m Mirror) String() string {
	return "mirror:" + m.Axis.String()
}

// Repair runs the repair engine on the primary mesh. Normals forces normal
// fixing on even when the session options leave it off.
type Repair struct {
	Normals bool
}

func (r Repair) String() string {
	if r.Normals {
		return "fix:normals"
	}
	return "fix"
}

// ParseStep parses one step:
//
//	rotate:<axis>:<degrees>
//	flat | flat:<depth>
//	mirror-back
//	mirror:<axis>
//	fix | fix:normals
func ParseStep(s string) (Step, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), ":")
	name, args := parts[0], parts[1:]

	switch name {
	case "rotate":
		if len(args) != 2 {
			return nil, fmt.Errorf("step %q: want rotate:<axis>:<degrees>", s)
		}
		axis, err := transform.ParseAxis(args[0])
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s, err)
		}
		deg, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid angle: %w", s, err)
		}
		return Rotate{Axis: axis, Degrees: deg}, nil

	case "flat":
		switch len(args) {
		case 0:
			return Solidify{Mode: solidify.Flat}, nil
		case 1:
			depth, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return nil, fmt.Errorf("step %q: invalid depth: %w", s, err)
			}
			return Solidify{Mode: solidify.Flat, Depth: &depth}, nil
		}

	case "mirror-back":
		if len(args) == 0 {
			return Solidify{Mode: solidify.Mirror}, nil
		}

	case "mirror":
		if len(args) != 1 {
			return nil, fmt.Errorf("step %q: want mirror:<axis> (or mirror-back to solidify)", s)
		}
		axis, err := transform.ParseAxis(args[0])
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s, err)
		}
		return Mirror{Axis: axis}, nil

	case "fix":
		switch {
		case len(args) == 0:
			return Repair{}, nil
		case len(args) == 1 && args[0] == "normals":
			return Repair{Normals: true}, nil
		}

	default:
		return nil, fmt.Errorf("unknown step %q", s)
	}
	return nil, fmt.Errorf("step %q: unexpected arguments", s)
}

// ParseSteps parses every entry of specs and reports all malformed ones
// together.
func ParseSteps(specs []string) ([]Step, error) {
	steps := make([]Step, 0, len(specs))
	var errs error
	for _, spec := range specs {
		step, err := ParseStep(spec)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		steps = append(steps, step)
	}
	if errs != nil {
		return nil, errs
	}
	return steps, nil
}
