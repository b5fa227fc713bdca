package main

import (
	"context"
	"encoding/binary"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/hajimehoshi/oto"
	"golang.org/x/sync/errgroup"

	"github.com/jinjor/sf2voice/internal/midi"
	"github.com/jinjor/sf2voice/internal/voice"
	"github.com/jinjor/sf2voice/internal/wavsample"
)

const (
	numChannels       = 2
	bytesPerSample    = 2
	bufferSizeInBytes = 4096
)

var (
	wavPath    = flag.String("wav", "", "path to a mono PCM WAV file to play")
	rootKey    = flag.Uint("rootkey", 60, "MIDI root key of the sample")
	sampleRate = flag.Int("rate", 44100, "output sample rate")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	if *wavPath == "" {
		log.Fatal("error: -wav is required")
	}
	f, err := os.Open(*wavPath)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer f.Close()
	sample, err := wavsample.Load(f, wavsample.Options{RootKey: uint8(*rootKey)})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	otoCtx, err := oto.NewContext(*sampleRate, numChannels, bytesPerSample, bufferSizeInBytes)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer otoCtx.Close()
	player := otoCtx.NewPlayer()
	defer player.Close()

	eng := newEngine(sample, float64(*sampleRate))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return playLoop(ctx, player, eng)
	})
	g.Go(func() error {
		return listenMIDI(ctx, eng)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func playLoop(ctx context.Context, player io.Writer, eng *engine) error {
	buf := make([]byte, bufferSizeInBytes)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		eng.render(buf)
		if _, err := player.Write(buf); err != nil {
			return err
		}
	}
}

func listenMIDI(ctx context.Context, eng *engine) error {
	ch := midi.Listen(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			ev, ok := midi.Decode(data)
			if !ok {
				continue
			}
			switch ev.Kind {
			case midi.EventNoteOn:
				eng.noteOn(ev.Key, ev.Velocity)
			case midi.EventNoteOff:
				eng.noteOff(ev.Key)
			case midi.EventPitchBend:
				eng.pitchBend(ev.Bend)
			}
		}
	}
}

// engine is the thinnest possible glue between decoded MIDI events and a
// handful of voice.Voice instances: one voice per currently-held key, no
// pooling, no stealing, no bus routing. A real bank player needs all of
// that; this demo only needs enough polyphony to hear what the voice
// kernel renders.
type engine struct {
	mu     sync.Mutex
	sample *voice.Waveform
	voices map[uint8]*voice.Voice
	rate   float64
	nextID uint64
}

func newEngine(sample *voice.Waveform, rate float64) *engine {
	return &engine{sample: sample, voices: map[uint8]*voice.Voice{}, rate: rate}
}

func defaultGenerators() *voice.GeneratorSet {
	g := voice.NewGeneratorSet()
	g.Set(voice.GenAttackVolEnv, -8000)
	g.Set(voice.GenHoldVolEnv, -12000)
	g.Set(voice.GenDecayVolEnv, 2000)
	g.Set(voice.GenSustainVolEnv, 100)
	g.Set(voice.GenReleaseVolEnv, -1200)
	return g
}

func defaultModulators() voice.ModulatorParameterSet {
	return voice.ModulatorParameterSet{
		{
			Source:       voice.GeneralOperator(voice.CtrlNoteOnVelocity, false, true, voice.CurveConcave),
			AmountSource: voice.GeneralOperator(voice.CtrlNone, false, false, voice.CurveLinear),
			Destination:  voice.GenInitialAttenuation,
			Amount:       960,
		},
		{
			Source:       voice.GeneralOperator(voice.CtrlPitchWheel, true, false, voice.CurveLinear),
			AmountSource: voice.GeneralOperator(voice.CtrlPitchWheelSensitivity, false, false, voice.CurveLinear),
			Destination:  voice.GenPitch,
			Amount:       10000,
		},
	}
}

func (e *engine) noteOn(key, velocity uint8) {
	gens := defaultGenerators()
	meta, err := voice.NewSampleMetadata(e.sample, gens)
	if err != nil {
		log.Printf("engine: skipping note-on, invalid sample addresses: %v\n", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.voices[key] = voice.NewVoice(meta, gens, defaultModulators(), key, velocity, e.rate, e.nextID)
}

func (e *engine) noteOff(key uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.voices[key]; ok {
		v.Release()
	}
}

func (e *engine) pitchBend(bend int16) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.voices {
		v.UpdateSFController(voice.CtrlPitchWheel, bend)
	}
}

func (e *engine) render(out []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	frames := len(out) / (numChannels * bytesPerSample)
	for f := 0; f < frames; f++ {
		var mix voice.Stereo
		for key, v := range e.voices {
			v.Update()
			mix = mix.Add(v.Render())
			if !v.IsSounding() {
				delete(e.voices, key)
			}
		}
		o := f * numChannels * bytesPerSample
		binary.LittleEndian.PutUint16(out[o:], uint16(int16(clamp(mix.Left)*32767)))
		binary.LittleEndian.PutUint16(out[o+2:], uint16(int16(clamp(mix.Right)*32767)))
	}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
