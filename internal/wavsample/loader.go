// Package wavsample loads a mono WAV file into a voice.Waveform,
// standing in for the SoundFont "sdta"/"shdr" chunks a full bank reader
// would otherwise parse: this kernel takes no stance on file format, so
// any source of int16 PCM plus loop points can feed it.
package wavsample

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/jinjor/sf2voice/internal/voice"
)

// Options carries the per-sample metadata a WAV container has no room for:
// root key, fine-tune correction in cents, and loop points as frame
// indices into the decoded buffer. Zero loop points mean "no loop"; the
// caller is expected to pick a SampleMode generator accordingly.
type Options struct {
	RootKey            uint8
	Correction         int8
	StartLoop, EndLoop uint32
}

// Load decodes a PCM WAV stream into a voice.Waveform. Only mono input is
// supported: a synthesizer voice plays one channel per Waveform, so a
// stereo file would need splitting before it gets here, which is a bank
// authoring concern, not this loader's.
func Load(r io.ReadSeeker, opts Options) (*voice.Waveform, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavsample: not a valid WAV stream")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavsample: decode PCM: %w", err)
	}
	if buf.Format.NumChannels != 1 {
		return nil, fmt.Errorf("wavsample: %d channels, want mono", buf.Format.NumChannels)
	}

	samples := make([]int16, len(buf.Data))
	switch dec.BitDepth {
	case 8:
		for i, v := range buf.Data {
			samples[i] = int16(v << 8)
		}
	case 16:
		for i, v := range buf.Data {
			samples[i] = int16(v)
		}
	case 24:
		for i, v := range buf.Data {
			samples[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range buf.Data {
			samples[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("wavsample: unsupported bit depth %d", dec.BitDepth)
	}

	end := uint32(len(samples))
	startLoop, endLoop := opts.StartLoop, opts.EndLoop
	if endLoop == 0 || endLoop > end {
		endLoop = end
	}
	if startLoop >= endLoop {
		startLoop = 0
	}

	return &voice.Waveform{
		Buffer:     samples,
		SampleRate: uint32(buf.Format.SampleRate),
		RootKey:    opts.RootKey,
		Correction: opts.Correction,
		Start:      0,
		End:        end,
		StartLoop:  startLoop,
		EndLoop:    endLoop,
	}, nil
}
