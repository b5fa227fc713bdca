package voice

import "math"

// ----- Controllers ----- //

// SFGeneralController is one of the SF2.04 "general" modulator sources,
// addressed instead of a 7-bit MIDI CC number. Numeric values match the
// format's general-controller palette.
type SFGeneralController uint8

const (
	CtrlNone                  SFGeneralController = 0
	CtrlNoteOnVelocity        SFGeneralController = 2
	CtrlNoteOnKeyNumber       SFGeneralController = 3
	CtrlPolyPressure          SFGeneralController = 10
	CtrlChannelPressure       SFGeneralController = 13
	CtrlPitchWheel            SFGeneralController = 14
	CtrlPitchWheelSensitivity SFGeneralController = 16
	CtrlLink                  SFGeneralController = 127
)

// CurveType is the SF2.04 modulator source transform curve (§4.6).
type CurveType uint8

const (
	CurveLinear CurveType = iota
	CurveConcave
	CurveConvex
	CurveSwitch
)

// TransformType is the whole-modulator output transform (§4.6): identity
// or absolute value, applied to the source term only.
type TransformType uint8

const (
	TransformLinear TransformType = iota
	TransformAbsoluteValue
)

// ModulatorOperator packs a single source operator: which controller it
// reads, and how its raw value is normalized into [-1,1] or [0,1].
type ModulatorOperator struct {
	IsMIDI     bool // true: Controller is a 7-bit MIDI CC number
	Controller uint8
	Polarity   bool // false: unipolar [0,1], true: bipolar [-1,1]
	Direction  bool // true: invert the normalized output
	Curve      CurveType
}

// GeneralOperator builds an operator sourced from a general SF controller.
func GeneralOperator(c SFGeneralController, polarity, direction bool, curve CurveType) ModulatorOperator {
	return ModulatorOperator{IsMIDI: false, Controller: uint8(c), Polarity: polarity, Direction: direction, Curve: curve}
}

// MIDIOperator builds an operator sourced from a 7-bit MIDI CC number.
func MIDIOperator(cc uint8, polarity, direction bool, curve CurveType) ModulatorOperator {
	return ModulatorOperator{IsMIDI: true, Controller: cc, Polarity: polarity, Direction: direction, Curve: curve}
}

func (op ModulatorOperator) isGeneral(c SFGeneralController) bool {
	return !op.IsMIDI && op.Controller == uint8(c)
}
func (op ModulatorOperator) isMIDI(cc uint8) bool {
	return op.IsMIDI && op.Controller == cc
}

// normalizeUnipolar maps a pre-scaled x in [0,1] through the operator's
// curve and direction/polarity bits.
func (op ModulatorOperator) normalizeUnipolar(x float64) float64 {
	var v float64
	switch op.Curve {
	case CurveLinear:
		v = x
	case CurveConcave:
		v = concaveCurve(x)
	case CurveConvex:
		v = 1 - concaveCurve(1-x)
	case CurveSwitch:
		if x < 0.5 {
			v = 0
		} else {
			v = 1
		}
	}
	if op.Direction {
		v = 1 - v
	}
	if op.Polarity {
		return 2*v - 1
	}
	return v
}

func concaveCurve(x float64) float64 {
	if x >= 1 {
		return 1
	}
	if x <= 0 {
		return 0
	}
	v := -(20.0 / 96.0) * math.Log10(1-x*x)
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// normalizeGeneral converts a raw general-controller value to [-1,1] or
// [0,1]. pitchWheelSensitivity is passed through unscaled: by SF2
// convention it is read in its natural semitone units when it drives an
// amount source, never through the curve machinery.
func normalizeGeneral(controller SFGeneralController, raw int16, op ModulatorOperator) float64 {
	if controller == CtrlPitchWheelSensitivity {
		return float64(raw)
	}
	var x float64
	switch controller {
	case CtrlPitchWheel:
		x = (float64(raw) + 8192.0) / 16384.0
	default:
		x = float64(raw) / 127.0
	}
	return op.normalizeUnipolar(x)
}

func normalizeMIDI(raw uint8, op ModulatorOperator) float64 {
	return op.normalizeUnipolar(float64(raw) / 127.0)
}

// ----- Modulator ----- //

// ModulatorDescriptor is an immutable modulator definition: two source
// operators, a destination generator, a signed amount, and an output
// transform.
type ModulatorDescriptor struct {
	Source       ModulatorOperator
	AmountSource ModulatorOperator
	Destination  SFGenerator
	Amount       int16
	Transform    TransformType
}

// ModulatorParameterSet is an iterable list of modulator descriptors,
// typically supplied by a preset/instrument zone merge.
type ModulatorParameterSet []ModulatorDescriptor

// Modulator is the runtime instance of a ModulatorDescriptor: a
// descriptor plus the cached source/amountSource/value triple, created
// once with its owning Voice and never shared.
type Modulator struct {
	desc         ModulatorDescriptor
	source       float64
	amountSource float64
	value        float64
}

// NewModulator builds a Modulator at source=amountSource=value=0, except
// that an operator whose controller is CtrlNone (the SF2 "no controller"
// sentinel) is seeded at 1 rather than 0: CtrlNone never fires a
// controller event, and per the SF2.04 convention a missing amount
// source must read as a neutral multiplier, not a permanently muted one.
func NewModulator(desc ModulatorDescriptor) *Modulator {
	m := &Modulator{desc: desc}
	if desc.Source.isGeneral(CtrlNone) {
		m.source = 1
	}
	if desc.AmountSource.isGeneral(CtrlNone) {
		m.amountSource = 1
	}
	m.calculateValue()
	return m
}

// GetDestination returns the modulator's constant destination.
func (m *Modulator) GetDestination() SFGenerator {
	return m.desc.Destination
}

// GetValue returns the modulator's current computed contribution.
func (m *Modulator) GetValue() float64 {
	return m.value
}

// IsSourceSFController reports whether either operator reads controller c.
func (m *Modulator) IsSourceSFController(c SFGeneralController) bool {
	return m.desc.Source.isGeneral(c) || m.desc.AmountSource.isGeneral(c)
}

// IsSourceMIDIController reports whether either operator reads MIDI CC cc.
func (m *Modulator) IsSourceMIDIController(cc uint8) bool {
	return m.desc.Source.isMIDI(cc) || m.desc.AmountSource.isMIDI(cc)
}

// UpdateSFController feeds a new general-controller value into whichever
// operator(s) match, then recomputes value.
func (m *Modulator) UpdateSFController(c SFGeneralController, value int16) {
	if m.desc.Source.isGeneral(c) {
		m.source = normalizeGeneral(c, value, m.desc.Source)
	}
	if m.desc.AmountSource.isGeneral(c) {
		m.amountSource = normalizeGeneral(c, value, m.desc.AmountSource)
	}
	m.calculateValue()
}

// UpdateMIDIController feeds a new 7-bit MIDI CC value into whichever
// operator(s) match, then recomputes value.
func (m *Modulator) UpdateMIDIController(cc uint8, value uint8) {
	if m.desc.Source.isMIDI(cc) {
		m.source = normalizeMIDI(value, m.desc.Source)
	}
	if m.desc.AmountSource.isMIDI(cc) {
		m.amountSource = normalizeMIDI(value, m.desc.AmountSource)
	}
	m.calculateValue()
}

func (m *Modulator) calculateValue() {
	src := m.source
	if m.desc.Transform == TransformAbsoluteValue {
		src = math.Abs(src)
	}
	m.value = float64(m.desc.Amount) * src * m.amountSource
}
