package voice

import "fmt"

// Waveform is the immutable, shared sample buffer an external bank owns
// and every voice playing that sample reads by reference. It never
// changes after construction, so it needs no locking even though many
// voices on the render thread read it concurrently with whatever
// goroutine eventually lets it go out of scope.
type Waveform struct {
	Buffer     []int16
	SampleRate uint32
	RootKey    uint8
	Correction int8
	Start, End uint32
	StartLoop, EndLoop uint32
}

// SampleMetadata is the voice-local view of a sample: the bank's
// waveform reference plus the address/loop-mode fields a voice's own
// generator overrides have already been folded into.
type SampleMetadata struct {
	Waveform  *Waveform
	Start, End, StartLoop, EndLoop uint32
	Pitch     float64 // rootKey - correction/100, in semitones
	Mode      SampleMode
	SampleRate uint32
}

// NewSampleMetadata applies a voice's address-offset generators to a
// shared Waveform, enforcing that the resulting addresses stay ordered
// (start <= startLoop < endLoop <= end). On violation it returns an error
// so the caller can refuse to build the voice rather than render garbage.
func NewSampleMetadata(w *Waveform, gens *GeneratorSet) (*SampleMetadata, error) {
	start := w.Start + addOffset(gens, GenStartAddrsCoarseOffset, GenStartAddrsOffset)
	end := w.End + addOffset(gens, GenEndAddrsCoarseOffset, GenEndAddrsOffset)
	startLoop := w.StartLoop + addOffset(gens, GenStartloopAddrsCoarseOffset, GenStartloopAddrsOffset)
	endLoop := w.EndLoop + addOffset(gens, GenEndloopAddrsCoarseOffset, GenEndloopAddrsOffset)

	if !(start <= startLoop && startLoop < endLoop && endLoop <= end) {
		return nil, fmt.Errorf("voice: invalid sample addresses after offsets: start=%d startLoop=%d endLoop=%d end=%d",
			start, startLoop, endLoop, end)
	}
	if end > uint32(len(w.Buffer)) {
		return nil, fmt.Errorf("voice: sample end %d exceeds buffer length %d", end, len(w.Buffer))
	}

	rootKey := int16(w.RootKey)
	if overridden := gens.Get(GenOverridingRootKey); overridden > 0 {
		rootKey = overridden
	}
	pitch := float64(rootKey) - 0.01*float64(w.Correction)

	return &SampleMetadata{
		Waveform:   w,
		Start:      start,
		End:        end,
		StartLoop:  startLoop,
		EndLoop:    endLoop,
		Pitch:      pitch,
		Mode:       SampleMode(gens.Get(GenSampleModes)),
		SampleRate: w.SampleRate,
	}, nil
}

func addOffset(gens *GeneratorSet, coarse, fine SFGenerator) uint32 {
	return uint32(int64(gens.Get(coarse))*32768 + int64(gens.Get(fine)))
}
