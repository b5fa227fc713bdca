package voice

import "testing"

func TestEnvelopeStartsAtZero(t *testing.T) {
	e := NewEnvelope(48000)
	if got := e.GetValue(); got != 0 {
		t.Errorf("GetValue() = %v, want 0 before any Update", got)
	}
	if e.IsFinished() {
		t.Errorf("a freshly built envelope must not report finished")
	}
}

func TestEnvelopeReachesFullAttack(t *testing.T) {
	e := NewEnvelope(1000)
	e.SetParameter(SectionDelay, -12000)  // ~0s
	e.SetParameter(SectionAttack, 0)      // 1s at 1000Hz == 1000 samples
	e.SetParameter(SectionHold, -12000)
	e.SetParameter(SectionDecay, -12000)
	e.SetParameter(SectionSustain, 0) // 0cB attenuation == full level
	e.SetParameter(SectionRelease, -12000)

	for i := 0; i < 1100; i++ {
		e.Update()
	}
	expectClose(t, e.GetValue(), 1.0, 0.01)
}

func TestEnvelopeDecaysTowardSustain(t *testing.T) {
	e := NewEnvelope(1000)
	e.SetParameter(SectionDelay, -12000)
	e.SetParameter(SectionAttack, -12000)
	e.SetParameter(SectionHold, -12000)
	e.SetParameter(SectionDecay, 0) // 1s decay
	e.SetParameter(SectionSustain, 200)
	e.SetParameter(SectionRelease, -12000)

	for i := 0; i < 2000; i++ {
		e.Update()
	}
	expectClose(t, e.GetValue(), centibelToRatio(200), 0.01)
}

func TestEnvelopeReleaseReachesFinished(t *testing.T) {
	e := NewEnvelope(1000)
	e.SetParameter(SectionDelay, -12000)
	e.SetParameter(SectionAttack, -12000)
	e.SetParameter(SectionHold, -12000)
	e.SetParameter(SectionDecay, -12000)
	e.SetParameter(SectionSustain, 0)
	e.SetParameter(SectionRelease, 0) // 1s release

	for i := 0; i < 10; i++ {
		e.Update() // delay, attack, hold and decay each last ~1 sample: enter sustain at full level
	}
	e.Release()
	for i := 0; i < 5000 && !e.IsFinished(); i++ {
		e.Update()
	}
	if !e.IsFinished() {
		t.Errorf("envelope should have finished releasing by now")
	}
	if got := e.GetValue(); got != 0 {
		t.Errorf("GetValue() after Finished = %v, want 0", got)
	}
}

func TestEnvelopeReleaseFromAnySection(t *testing.T) {
	e := NewEnvelope(1000)
	e.SetParameter(SectionDelay, 0)
	e.Update()
	if e.IsFinished() {
		t.Fatalf("envelope finished too early")
	}
	e.Release()
	if e.IsFinished() {
		t.Errorf("Release must not finish the envelope immediately")
	}
}

func TestEnvelopeFinishIsImmediate(t *testing.T) {
	e := NewEnvelope(1000)
	e.SetParameter(SectionDelay, -12000)
	e.SetParameter(SectionAttack, -12000)
	e.Update()
	e.Finish()
	if !e.IsFinished() {
		t.Errorf("Finish() must put the envelope in the finished state immediately")
	}
	if e.GetValue() != 0 {
		t.Errorf("GetValue() after Finish() = %v, want 0", e.GetValue())
	}
}
