package voice

import "testing"

func TestModulatorNoneSourceActsAsNeutralMultiplier(t *testing.T) {
	desc := ModulatorDescriptor{
		Source:       GeneralOperator(CtrlNone, false, false, CurveLinear),
		AmountSource: GeneralOperator(CtrlNone, false, false, CurveLinear),
		Destination:  GenInitialAttenuation,
		Amount:       250,
	}
	m := NewModulator(desc)
	expectClose(t, m.GetValue(), 250.0, 1e-9)
}

func TestModulatorVelocityToAttenuation(t *testing.T) {
	desc := ModulatorDescriptor{
		Source:       GeneralOperator(CtrlNoteOnVelocity, false, true, CurveConcave),
		AmountSource: GeneralOperator(CtrlNone, false, false, CurveLinear),
		Destination:  GenInitialAttenuation,
		Amount:       960,
	}
	m := NewModulator(desc)
	if got := m.GetValue(); got != 0 {
		t.Errorf("before any velocity event, GetValue() = %v, want 0", got)
	}
	m.UpdateSFController(CtrlNoteOnVelocity, 127)
	// direction=true inverts the curve so full velocity yields minimal
	// attenuation, close to zero.
	expectClose(t, m.GetValue(), 0.0, 1.0)

	m.UpdateSFController(CtrlNoteOnVelocity, 1)
	if got := m.GetValue(); got <= 0 {
		t.Errorf("low velocity should yield significant positive attenuation, got %v", got)
	}
}

func TestModulatorPitchWheelSensitivityUnscaled(t *testing.T) {
	desc := ModulatorDescriptor{
		Source:       GeneralOperator(CtrlPitchWheel, true, false, CurveLinear),
		AmountSource: GeneralOperator(CtrlPitchWheelSensitivity, false, false, CurveLinear),
		Destination:  GenPitch,
		Amount:       10000,
	}
	m := NewModulator(desc)
	m.UpdateSFController(CtrlPitchWheelSensitivity, 2)
	m.UpdateSFController(CtrlPitchWheel, 8192) // maximum positive bend

	// amount(10000) * source(~1.0 bipolar) * amountSource(2, unscaled)
	// then the voice scales by 1e-4 to land in semitones -- here we only
	// check the raw modulator value lands near amount*amountSource.
	expectClose(t, m.GetValue(), 20000.0, 50.0)
}

func TestModulatorAbsoluteValueTransform(t *testing.T) {
	desc := ModulatorDescriptor{
		Source:       GeneralOperator(CtrlPitchWheel, true, false, CurveLinear),
		AmountSource: GeneralOperator(CtrlNone, false, false, CurveLinear),
		Destination:  GenPitch,
		Amount:       100,
		Transform:    TransformAbsoluteValue,
	}
	m := NewModulator(desc)
	m.UpdateSFController(CtrlPitchWheel, -8192) // minimum bend, source == -1
	if got := m.GetValue(); got < 0 {
		t.Errorf("absolute-value transform must never yield a negative value, got %v", got)
	}
}

func TestModulatorIgnoresUnrelatedController(t *testing.T) {
	desc := ModulatorDescriptor{
		Source:       GeneralOperator(CtrlNoteOnVelocity, false, false, CurveLinear),
		AmountSource: GeneralOperator(CtrlNone, false, false, CurveLinear),
		Destination:  GenPan,
		Amount:       500,
	}
	m := NewModulator(desc)
	before := m.GetValue()
	m.UpdateMIDIController(1, 64) // mod wheel, not wired to this modulator
	if got := m.GetValue(); got != before {
		t.Errorf("unrelated controller update changed value: before=%v after=%v", before, got)
	}
}
