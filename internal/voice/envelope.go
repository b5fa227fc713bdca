package voice

import "math"

// ----- Envelope ----- //
//
// Envelope is the six-section DAHDSR envelope that drives a note's
// amplitude or modulation depth over time: Delay, Attack, Hold, Decay,
// Sustain, Release. Each section is counted in elapsed-time-since-
// section-start rather than a running wall clock, and amounts are given
// in timecents (seconds via timecentToSecond) except Sustain, which is a
// centibel attenuation.
//
// Decay and release approach their target exponentially, at a per-sample
// rate derived from the convention that a decay/release time constant is
// the time to fall a nominal 100dB (1000 centibels) -- see
// fullDecayCentibels below.

type envelopeSection int

const (
	SectionDelay envelopeSection = iota
	SectionAttack
	SectionHold
	SectionDecay
	SectionSustain
	SectionRelease
	sectionFinished
)

// fullDecayCentibels is the nominal attenuation (100dB) that an SF2
// decay/release time constant represents.
const fullDecayCentibels = 1000.0

// Envelope is a single DAHDSR envelope generator instance.
type Envelope struct {
	outputRate float64

	delaySeconds, attackSeconds, holdSeconds, decaySeconds, releaseSeconds float64
	sustainLevel                                                          float64 // 0-1, from centibelToRatio(sustain cB)

	decayCoeff, releaseCoeff float64 // per-sample exponential-approach coefficients

	state            envelopeSection
	elapsedSamples   float64
	attackStartLevel float64
	value            float64
}

// NewEnvelope returns an Envelope ticking at outputRate samples/second,
// starting in the Delay section with a level of 0.
func NewEnvelope(outputRate float64) *Envelope {
	return &Envelope{
		outputRate:   outputRate,
		state:        SectionDelay,
		sustainLevel: 1.0,
	}
}

// SetParameter sets one section's native-unit value (timecents for every
// section but Sustain, centibels for Sustain), affecting the current and
// future occurrences of that section.
func (e *Envelope) SetParameter(section envelopeSection, value float64) {
	switch section {
	case SectionDelay:
		e.delaySeconds = timecentToSecond(value)
	case SectionAttack:
		e.attackSeconds = timecentToSecond(value)
	case SectionHold:
		e.holdSeconds = timecentToSecond(value)
	case SectionDecay:
		e.decaySeconds = timecentToSecond(value)
		e.decayCoeff = approachCoeff(e.decaySeconds, e.outputRate)
	case SectionSustain:
		e.sustainLevel = centibelToRatio(value)
	case SectionRelease:
		e.releaseSeconds = timecentToSecond(value)
		e.releaseCoeff = approachCoeff(e.releaseSeconds, e.outputRate)
	}
}

// approachCoeff returns the per-sample multiplier such that, after
// seconds*outputRate samples, the remaining distance to target has
// shrunk by fullDecayCentibels worth of amplitude ratio.
func approachCoeff(seconds, outputRate float64) float64 {
	samples := seconds * outputRate
	if samples < 1 {
		samples = 1
	}
	return math.Pow(centibelToRatio(fullDecayCentibels), 1.0/samples)
}

// Update advances the envelope by exactly one output sample period.
func (e *Envelope) Update() {
	switch e.state {
	case sectionFinished:
		e.value = 0
		return
	case SectionDelay:
		if e.elapsedSamples >= e.delaySeconds*e.outputRate {
			e.state = SectionAttack
			e.elapsedSamples = 0
			e.attackStartLevel = e.value
		} else {
			e.elapsedSamples++
			e.value = 0
		}
	case SectionAttack:
		if e.attackSeconds <= 0 {
			e.value = 1
			e.state = SectionHold
			e.elapsedSamples = 0
		} else {
			t := e.elapsedSamples / (e.attackSeconds * e.outputRate)
			if t >= 1 {
				e.value = 1
				e.state = SectionHold
				e.elapsedSamples = 0
			} else {
				e.value = t*1 + (1-t)*e.attackStartLevel
				e.elapsedSamples++
			}
		}
	case SectionHold:
		if e.elapsedSamples >= e.holdSeconds*e.outputRate {
			e.state = SectionDecay
			e.elapsedSamples = 0
		} else {
			e.elapsedSamples++
			e.value = 1
		}
	case SectionDecay:
		if e.decaySeconds <= 0 {
			e.value = e.sustainLevel
			e.state = SectionSustain
			e.elapsedSamples = 0
		} else {
			e.value = e.sustainLevel + (e.value-e.sustainLevel)*e.decayCoeff
			if math.Abs(e.value-e.sustainLevel) < 0.001 {
				e.value = e.sustainLevel
				e.state = SectionSustain
				e.elapsedSamples = 0
			} else {
				e.elapsedSamples++
			}
		}
	case SectionSustain:
		e.value = e.sustainLevel
	case SectionRelease:
		if e.releaseSeconds <= 0 {
			e.state = sectionFinished
			e.value = 0
		} else {
			e.value = e.value * e.releaseCoeff
			if e.value < 0.001 {
				e.state = sectionFinished
				e.value = 0
			} else {
				e.elapsedSamples++
			}
		}
	}
}

// Release forces a transition to the Release section from any earlier
// state, preserving the current level as the release-start level.
func (e *Envelope) Release() {
	if e.state == sectionFinished {
		return
	}
	e.state = SectionRelease
	e.elapsedSamples = 0
}

// Finish forces an immediate transition to Finished; GetValue returns 0
// from this point on.
func (e *Envelope) Finish() {
	e.state = sectionFinished
	e.value = 0
}

// GetValue returns the current envelope level in [0,1].
func (e *Envelope) GetValue() float64 {
	return e.value
}

// IsFinished reports whether the envelope has reached the Finished state.
func (e *Envelope) IsFinished() bool {
	return e.state == sectionFinished
}
