package domain

// FlowUnit is one of EPANET's ten flow units. The unit determines the unit
// system (US customary or metric) for every other quantity in the model.
type FlowUnit string

const (
	FlowCFS  FlowUnit = "CFS"  // cubic feet / second
	FlowGPM  FlowUnit = "GPM"  // gallons / minute
	FlowMGD  FlowUnit = "MGD"  // million gallons / day
	FlowIMGD FlowUnit = "IMGD" // imperial MGD
	FlowAFD  FlowUnit = "AFD"  // acre-feet / day
	FlowLPS  FlowUnit = "LPS"  // liters / second
	FlowLPM  FlowUnit = "LPM"  // liters / minute
	FlowMLD  FlowUnit = "MLD"  // megaliters / day
	FlowCMH  FlowUnit = "CMH"  // cubic meters / hour
	FlowCMD  FlowUnit = "CMD"  // cubic meters / day
)

// IsUS reports whether the flow unit belongs to the US customary group.
func (u FlowUnit) IsUS() bool {
	switch u {
	case FlowCFS, FlowGPM, FlowMGD, FlowIMGD, FlowAFD:
		return true
	default:
		return false
	}
}

// HeadlossFormula selects the friction-loss equation used by the simulator.
type HeadlossFormula string

const (
	HeadlossHazenWilliams HeadlossFormula = "H-W"
	HeadlossDarcyWeisbach HeadlossFormula = "D-W"
	HeadlossChezyManning  HeadlossFormula = "C-M"
)

// ModelSettings carries the two global choices that drive unit labels and
// schema defaults for the whole build.
type ModelSettings struct {
	FlowUnit        FlowUnit        `json:"flowUnit" yaml:"flowUnit" validate:"required,oneof=CFS GPM MGD IMGD AFD LPS LPM MLD CMH CMD"`
	HeadlossFormula HeadlossFormula `json:"headlossFormula" yaml:"headlossFormula" validate:"required,oneof=H-W D-W C-M"`
}

// DefaultRoughness returns the pipe roughness constant implied by the
// headloss formula. The three formulas use incompatible coefficient scales,
// so there is no single sensible default.
func (s ModelSettings) DefaultRoughness() float64 {
	switch s.HeadlossFormula {
	case HeadlossDarcyWeisbach:
		return 0.01
	case HeadlossChezyManning:
		return 0.013
	default:
		return 100
	}
}

// UnitClass groups attributes that share a display unit.
type UnitClass string

const (
	UnitNone      UnitClass = ""
	UnitDiameter  UnitClass = "diameter"
	UnitElevation UnitClass = "elevation" // also levels and heads
	UnitLength    UnitClass = "length"
	UnitFlow      UnitClass = "flow"
	UnitPower     UnitClass = "power"
	UnitRoughness UnitClass = "roughness"
	UnitVolume    UnitClass = "volume"
)

// UnitLabel returns the display unit for a class under the active settings.
// Labels are presentation metadata only; stored values are never converted.
func (s ModelSettings) UnitLabel(class UnitClass) string {
	us := s.FlowUnit.IsUS()
	switch class {
	case UnitDiameter:
		if us {
			return "in"
		}
		return "mm"
	case UnitElevation, UnitLength:
		if us {
			return "ft"
		}
		return "m"
	case UnitFlow:
		return string(s.FlowUnit)
	case UnitPower:
		if us {
			return "hp"
		}
		return "kW"
	case UnitRoughness:
		if s.HeadlossFormula == HeadlossDarcyWeisbach {
			if us {
				return "ft"
			}
			return "mm"
		}
		return ""
	case UnitVolume:
		if us {
			return "ft³"
		}
		return "m³"
	default:
		return ""
	}
}
