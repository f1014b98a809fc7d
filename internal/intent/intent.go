// Package intent defines the closed set of recognized command shapes and
// the validation/defaulting rules applied to the interpreter's raw JSON
// output before execution.
//
// Parsing never fails: any payload that cannot be decoded, or whose command
// tag is not recognized, downgrades to Unsure. Executors can therefore
// treat every Intent as well-formed.
package intent

import (
	"encoding/json"
	"strings"
)

// Command is the tag of an intent variant.
type Command string

const (
	CommandQuestion        Command = "QUESTION"
	CommandScale           Command = "SCALE"
	CommandMove            Command = "MOVE"
	CommandDelete          Command = "DELETE"
	CommandResizeFeature   Command = "RESIZE_FEATURE"
	CommandRotate          Command = "ROTATE"
	CommandScaleNonUniform Command = "SCALE_NON_UNIFORM"
	CommandMassProps       Command = "GET_MASS_PROPS"
	CommandColor           Command = "COLOR"
	CommandUnsure          Command = "UNSURE"
	CommandUnknown         Command = "UNKNOWN"
)

// Intent is a validated, defaulted command. Exactly one tag is active;
// fields are meaningful only for their tag.
type Intent struct {
	Command Command

	// SCALE
	Factor float64

	// MOVE
	DX, DY, DZ float64

	// DELETE. -1 means "no specific index given"; the executor resolves
	// that to the first solid.
	Index int

	// RESIZE_FEATURE. Exactly one of NewRadius or Scale should be set;
	// nil pointers mean the field was absent from the payload.
	FeatureType string
	NewRadius   *float64
	Scale       *float64

	// ROTATE
	Axis         string
	AngleDegrees float64

	// SCALE_NON_UNIFORM. AxisFactor non-nil selects the axis-relative
	// input shape; otherwise the full triple applies.
	AxisFactor                *float64
	FactorX, FactorY, FactorZ float64

	// COLOR
	Color string
}

// payload mirrors the interpreter's JSON contract. Pointer fields
// distinguish absent from zero, which the defaulting rules depend on.
type payload struct {
	Command      *string  `json:"command"`
	Factor       *float64 `json:"factor"`
	DX           *float64 `json:"dx"`
	DY           *float64 `json:"dy"`
	DZ           *float64 `json:"dz"`
	Index        *int     `json:"index"`
	FeatureType  *string  `json:"feature_type"`
	NewRadius    *float64 `json:"new_radius"`
	Scale        *float64 `json:"scale"`
	Axis         *string  `json:"axis"`
	AngleDegrees *float64 `json:"angle_degrees"`
	AxisFactor   *float64 `json:"axis_factor"`
	FactorX      *float64 `json:"factor_x"`
	FactorY      *float64 `json:"factor_y"`
	FactorZ      *float64 `json:"factor_z"`
	Color        *string  `json:"color"`
}

// Unsure is the downgrade target for anything unparseable.
func Unsure() Intent {
	return Intent{Command: CommandUnsure}
}

// Parse validates and defaults a raw interpreter response.
func Parse(raw []byte) Intent {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Command == nil {
		return Unsure()
	}

	cmd := Command(strings.ToUpper(strings.TrimSpace(*p.Command)))
	switch cmd {
	case CommandQuestion, CommandUnknown, CommandUnsure, CommandMassProps:
		return Intent{Command: cmd}

	case CommandScale:
		return Intent{Command: cmd, Factor: floatOr(p.Factor, 1.0)}

	case CommandMove:
		return Intent{
			Command: cmd,
			DX:      floatOr(p.DX, 0),
			DY:      floatOr(p.DY, 0),
			DZ:      floatOr(p.DZ, 0),
		}

	case CommandDelete:
		idx := -1
		if p.Index != nil {
			idx = *p.Index
		}
		return Intent{Command: cmd, Index: idx}

	case CommandResizeFeature:
		in := Intent{
			Command:     cmd,
			FeatureType: stringOr(p.FeatureType, "hole"),
			NewRadius:   p.NewRadius,
			Scale:       p.Scale,
		}
		if p.Index != nil {
			in.Index = *p.Index
		}
		return in

	case CommandRotate:
		axis := strings.ToUpper(stringOr(p.Axis, "Z"))
		if axis != "X" && axis != "Y" {
			axis = "Z"
		}
		return Intent{Command: cmd, Axis: axis, AngleDegrees: floatOr(p.AngleDegrees, 90)}

	case CommandScaleNonUniform:
		in := Intent{
			Command: cmd,
			FactorX: floatOr(p.FactorX, 1.0),
			FactorY: floatOr(p.FactorY, 1.0),
			FactorZ: floatOr(p.FactorZ, 1.0),
		}
		if p.Axis != nil {
			// Axis-relative shape: only the named axis scales.
			axis := strings.ToUpper(*p.Axis)
			if axis != "X" && axis != "Y" && axis != "Z" {
				axis = "Z"
			}
			in.Axis = axis
			in.AxisFactor = p.AxisFactor
			factor := floatOr(p.AxisFactor, 1.0)
			in.FactorX, in.FactorY, in.FactorZ = 1.0, 1.0, 1.0
			switch axis {
			case "X":
				in.FactorX = factor
			case "Y":
				in.FactorY = factor
			default:
				in.FactorZ = factor
			}
		}
		return in

	case CommandColor:
		return Intent{Command: cmd, Color: stringOr(p.Color, "")}

	default:
		return Unsure()
	}
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
