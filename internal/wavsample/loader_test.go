package wavsample

import (
	"bytes"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func expectNoError(t *testing.T, err error) {
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func encodeTestWav(t *testing.T, samples []int, sampleRate int) []byte {
	f, err := os.CreateTemp(t.TempDir(), "wavsample-*.wav")
	expectNoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	ib := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   samples,
	}
	expectNoError(t, enc.Write(ib))
	expectNoError(t, enc.Close())

	data, err := os.ReadFile(f.Name())
	expectNoError(t, err)
	return data
}

func TestLoadMonoWav(t *testing.T) {
	samples := make([]int, 1000)
	for i := range samples {
		samples[i] = i - 500
	}
	data := encodeTestWav(t, samples, 44100)

	w, err := Load(bytes.NewReader(data), Options{RootKey: 69})
	expectNoError(t, err)
	if w.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", w.SampleRate)
	}
	if len(w.Buffer) != 1000 {
		t.Errorf("len(Buffer) = %d, want 1000", len(w.Buffer))
	}
	if w.End != 1000 {
		t.Errorf("End = %d, want 1000", w.End)
	}
	if w.EndLoop != 1000 {
		t.Errorf("EndLoop with no explicit loop should default to End, got %d", w.EndLoop)
	}
}

func TestLoadHonorsExplicitLoopPoints(t *testing.T) {
	samples := make([]int, 1000)
	data := encodeTestWav(t, samples, 44100)

	w, err := Load(bytes.NewReader(data), Options{RootKey: 60, StartLoop: 100, EndLoop: 900})
	expectNoError(t, err)
	if w.StartLoop != 100 || w.EndLoop != 900 {
		t.Errorf("StartLoop/EndLoop = %d/%d, want 100/900", w.StartLoop, w.EndLoop)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not a wav file")), Options{}); err == nil {
		t.Errorf("expected an error decoding a non-WAV stream")
	}
}
