package voice

// Voice is the single-note rendering unit: one sample, its generator and
// modulator set, two envelopes, two LFOs, and the fixed-point playback
// phase that survives notes lasting far longer a float64 mantissa could
// track without drift. A bank/mixer layer owns voice pooling and
// stealing; Voice itself only ever plays the one note it was built for.
type Voice struct {
	sample *SampleMetadata
	gens   *GeneratorSet
	mods   []*Modulator

	modEnv, volEnv *Envelope
	modLFO, vibLFO *LFO

	outputRate       float64
	deltaPhaseFactor float64
	phase            FixedPoint
	deltaPhase       FixedPoint

	voicePitch float64 // semitones, before LFO/envelope pitch modulation
	actualKey  int     // as played by the MIDI note-on, never overridden
	key        int     // actualKey, or the keynum generator's override if positive
	volume     Stereo

	modulations [numGenerators]float64

	noteID   uint64
	released bool
}

// initGenerators lists every destination a newly built Voice must resolve
// once before its first Update/Render call, matching the set a reference
// voice constructor seeds immediately after wiring up its modulators.
var initGenerators = []SFGenerator{
	GenPan,
	GenInitialAttenuation,
	GenDelayModLFO, GenFreqModLFO,
	GenDelayVibLFO, GenFreqVibLFO,
	GenDelayModEnv, GenAttackModEnv, GenHoldModEnv, GenDecayModEnv, GenSustainModEnv, GenReleaseModEnv,
	GenDelayVolEnv, GenAttackVolEnv, GenHoldVolEnv, GenDecayVolEnv, GenSustainVolEnv, GenReleaseVolEnv,
	GenCoarseTune,
}

// NewVoice builds a Voice ready to Update/Render. key and velocity are the
// MIDI note-on values; positive keynum/velocity generators override them
// for the note-on key/velocity modulator sources and the keynum-to-envelope
// scaling. Pitch and GetActualKey always use the key as played. The voice
// keeps its own copy of gens.
func NewVoice(sample *SampleMetadata, gens *GeneratorSet, modSet ModulatorParameterSet, key, velocity uint8, outputRate float64, noteID uint64) *Voice {
	actualKey := int(key)
	overriddenKey := actualKey
	if k := gens.Get(GenKeynum); k > 0 {
		overriddenKey = int(k)
	}
	actualVelocity := velocity
	if v := gens.Get(GenVelocity); v > 0 {
		actualVelocity = uint8(v)
	}

	v := &Voice{
		sample:     sample,
		gens:       gens.Clone(),
		modEnv:     NewEnvelope(outputRate),
		volEnv:     NewEnvelope(outputRate),
		modLFO:     NewLFO(outputRate),
		vibLFO:     NewLFO(outputRate),
		outputRate: outputRate,
		voicePitch: sample.Pitch,
		actualKey:  actualKey,
		key:        overriddenKey,
		noteID:     noteID,
	}
	v.deltaPhaseFactor = 1.0 / keyToHz(sample.Pitch) * float64(sample.SampleRate) / outputRate
	v.phase = NewFixedPointFrames(sample.Start)

	v.mods = make([]*Modulator, len(modSet))
	for i, desc := range modSet {
		v.mods[i] = NewModulator(desc)
	}

	v.UpdateSFController(CtrlNoteOnVelocity, int16(actualVelocity))
	v.UpdateSFController(CtrlNoteOnKeyNumber, int16(overriddenKey))
	v.UpdateSFController(CtrlPitchWheelSensitivity, 2)

	for _, dest := range initGenerators {
		v.UpdateModulatedParams(dest)
	}
	v.deltaPhase = NewFixedPoint(v.deltaPhaseFactor * keyToHz(v.voicePitch))

	return v
}

// GetModulatedGenerator returns a generator's base amount plus the summed
// contribution of every modulator currently targeting it.
func (v *Voice) GetModulatedGenerator(dest SFGenerator) float64 {
	return float64(v.gens.Get(dest)) + v.modulations[dest]
}

// OverrideGenerator writes a generator's base amount directly, as an
// exclusive-class kill or a soft note-off would. It does not itself
// trigger recomputation of whatever derived state depends on dest — call
// UpdateModulatedParams(dest) afterward if the change needs to take
// effect before the next controller event would have recomputed it anyway.
func (v *Voice) OverrideGenerator(dest SFGenerator, value int16) {
	v.gens.Set(dest, value)
}

// UpdateSFController feeds a new general-controller value to every
// modulator that reads it, then recomputes the destinations those
// modulators affect.
func (v *Voice) UpdateSFController(c SFGeneralController, value int16) {
	for _, m := range v.mods {
		if m.IsSourceSFController(c) {
			m.UpdateSFController(c, value)
			v.UpdateModulatedParams(m.GetDestination())
		}
	}
}

// UpdateMIDIController feeds a new 7-bit MIDI CC value to every modulator
// that reads it, then recomputes the destinations those modulators affect.
func (v *Voice) UpdateMIDIController(cc uint8, value uint8) {
	for _, m := range v.mods {
		if m.IsSourceMIDIController(cc) {
			m.UpdateMIDIController(cc, value)
			v.UpdateModulatedParams(m.GetDestination())
		}
	}
}

// UpdateModulatedParams recomputes the cached modulation sum for dest and
// propagates it into whichever cached derived state (pan/volume, LFO
// timing, envelope section lengths, pitch) that destination feeds.
func (v *Voice) UpdateModulatedParams(dest SFGenerator) {
	var sum float64
	for _, m := range v.mods {
		if m.GetDestination() == dest {
			sum += m.GetValue()
		}
	}
	v.modulations[dest] = sum

	switch dest {
	case GenPan, GenInitialAttenuation:
		genAtten := float64(v.gens.Get(GenInitialAttenuation))
		modAtten := v.modulations[GenInitialAttenuation]
		pan := v.GetModulatedGenerator(GenPan)
		v.volume = pannedVolume(pan).Scale(centibelToRatio(0.4*genAtten + modAtten))

	case GenDelayModLFO:
		v.modLFO.SetDelay(v.GetModulatedGenerator(dest))
	case GenFreqModLFO:
		v.modLFO.SetFrequency(v.GetModulatedGenerator(dest))
	case GenDelayVibLFO:
		v.vibLFO.SetDelay(v.GetModulatedGenerator(dest))
	case GenFreqVibLFO:
		v.vibLFO.SetFrequency(v.GetModulatedGenerator(dest))

	case GenDelayModEnv:
		v.modEnv.SetParameter(SectionDelay, v.GetModulatedGenerator(dest))
	case GenAttackModEnv:
		v.modEnv.SetParameter(SectionAttack, v.GetModulatedGenerator(dest))
	case GenHoldModEnv, GenKeynumToModEnvHold:
		h := v.GetModulatedGenerator(GenHoldModEnv) + v.GetModulatedGenerator(GenKeynumToModEnvHold)*float64(60-v.key)
		v.modEnv.SetParameter(SectionHold, h)
	case GenDecayModEnv, GenKeynumToModEnvDecay:
		d := v.GetModulatedGenerator(GenDecayModEnv) + v.GetModulatedGenerator(GenKeynumToModEnvDecay)*float64(60-v.key)
		v.modEnv.SetParameter(SectionDecay, d)
	case GenSustainModEnv:
		v.modEnv.SetParameter(SectionSustain, v.GetModulatedGenerator(dest))
	case GenReleaseModEnv:
		v.modEnv.SetParameter(SectionRelease, v.GetModulatedGenerator(dest))

	case GenDelayVolEnv:
		v.volEnv.SetParameter(SectionDelay, v.GetModulatedGenerator(dest))
	case GenAttackVolEnv:
		v.volEnv.SetParameter(SectionAttack, v.GetModulatedGenerator(dest))
	case GenHoldVolEnv, GenKeynumToVolEnvHold:
		h := v.GetModulatedGenerator(GenHoldVolEnv) + v.GetModulatedGenerator(GenKeynumToVolEnvHold)*float64(60-v.key)
		v.volEnv.SetParameter(SectionHold, h)
	case GenDecayVolEnv, GenKeynumToVolEnvDecay:
		d := v.GetModulatedGenerator(GenDecayVolEnv) + v.GetModulatedGenerator(GenKeynumToVolEnvDecay)*float64(60-v.key)
		v.volEnv.SetParameter(SectionDecay, d)
	case GenSustainVolEnv:
		v.volEnv.SetParameter(SectionSustain, v.GetModulatedGenerator(dest))
	case GenReleaseVolEnv:
		v.volEnv.SetParameter(SectionRelease, v.GetModulatedGenerator(dest))

	case GenCoarseTune, GenFineTune, GenScaleTuning, GenPitch:
		scaleTuning := v.GetModulatedGenerator(GenScaleTuning)
		coarseTune := v.GetModulatedGenerator(GenCoarseTune)
		fineTune := v.GetModulatedGenerator(GenFineTune)
		v.voicePitch = v.sample.Pitch +
			1e-4*v.modulations[GenPitch] +
			0.01*scaleTuning*(float64(v.actualKey)-v.sample.Pitch) +
			coarseTune + 0.01*fineTune
	}
}

// Update advances playback by exactly one output sample period: phase,
// loop-mode wraparound/termination, both LFOs, both envelopes, and the
// pitch-modulated playback rate for the next call.
func (v *Voice) Update() {
	if v.volEnv.IsFinished() {
		return
	}
	v.phase = v.phase.Add(v.deltaPhase)

	switch v.sample.Mode {
	case SampleModeUnused, SampleModeUnLooped:
		if v.phase.Integer() > v.sample.End-1 {
			v.volEnv.Finish()
			return
		}
	case SampleModeLooped:
		if v.phase.Integer() > v.sample.EndLoop-1 {
			if v.released {
				v.volEnv.Finish()
				return
			}
			v.phase = v.phase.SubFrames(v.sample.EndLoop - v.sample.StartLoop)
		}
	case SampleModeLoopedWithRemainder:
		if v.released {
			if v.phase.Integer() > v.sample.End-1 {
				v.volEnv.Finish()
				return
			}
		} else if v.phase.Integer() > v.sample.EndLoop-1 {
			v.phase = v.phase.SubFrames(v.sample.EndLoop - v.sample.StartLoop)
		}
	}

	v.modLFO.Update()
	v.vibLFO.Update()
	v.volEnv.Update()
	v.modEnv.Update()

	pitchCents := v.GetModulatedGenerator(GenModEnvToPitch)*v.modEnv.GetValue() +
		v.GetModulatedGenerator(GenVibLfoToPitch)*v.vibLFO.GetValue() +
		v.GetModulatedGenerator(GenModLfoToPitch)*v.modLFO.GetValue()
	v.deltaPhase = NewFixedPoint(v.deltaPhaseFactor * keyToHz(v.voicePitch+0.01*pitchCents))
}

// Render returns this voice's contribution to the current output sample,
// linearly interpolated from the sample buffer and scaled by the volume
// envelope, the modulated LFO-to-volume tremolo, and the panned gain.
func (v *Voice) Render() Stereo {
	if v.volEnv.IsFinished() {
		return Stereo{}
	}

	buf := v.sample.Waveform.Buffer
	i := v.phase.Integer()
	frac := v.phase.Fractional()
	a := float64(buf[i])
	b := a
	if int(i)+1 < len(buf) {
		b = float64(buf[i+1])
	}
	interpolated := a + (b-a)*frac

	ampLFO := centibelToRatio(v.GetModulatedGenerator(GenModLfoToVolume) * v.modLFO.GetValue())
	gain := v.volEnv.GetValue() * ampLFO * (interpolated / 32767.0)
	return v.volume.Scale(gain)
}

// Release transitions both envelopes into their release sections and
// flips the released flag a looped sample's Update checks before it
// decides whether to keep wrapping or let the remainder play out.
func (v *Voice) Release() {
	v.released = true
	v.volEnv.Release()
	v.modEnv.Release()
}

// IsSounding reports whether this voice still contributes nonzero audio.
func (v *Voice) IsSounding() bool {
	return !v.volEnv.IsFinished()
}

// GetNoteID returns the identifier the caller assigned at construction,
// used to route a later note-off/controller event to the right voice(s).
func (v *Voice) GetNoteID() uint64 {
	return v.noteID
}

// GetActualKey returns the key as played by the MIDI note-on, regardless
// of any keynum generator override.
func (v *Voice) GetActualKey() int {
	return v.actualKey
}

// GetExclusiveClass returns the exclusive class generator's current
// modulated value, or 0 if the voice belongs to none. It is computed live
// so that a later OverrideGenerator(GenExclusiveClass, ...) or a modulator
// targeting that destination is visible immediately.
func (v *Voice) GetExclusiveClass() int16 {
	return int16(v.GetModulatedGenerator(GenExclusiveClass))
}
