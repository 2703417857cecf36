// ABOUTME: Shared fixtures for engine tests
// ABOUTME: In-memory clip loader, constant-signal PCM and float mixing helpers
package adaptive

import (
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
	"github.com/charmbracelet/log"
)

// testRate keeps bars short: at 120 bpm and 4 beats per bar a bar is 2000 frames
const testRate = 1000

const barLen = 2000

type memLoader map[string]*audio.PCM

func (m memLoader) Load(name string) (*audio.PCM, error) {
	pcm, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", name)
	}
	return pcm, nil
}

func constPCM(frames int, v float32) *audio.PCM {
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = v
	}
	return &audio.PCM{SampleRate: testRate, Channels: 1, Samples: samples}
}

func testConfig(files FileLoader) Config {
	return Config{
		Format: audio.Format{SampleRate: testRate, Channels: 1, BytesPerSample: 4, Float: true},
		Files:  files,
		Logger: log.New(io.Discard),
		Seed:   1,
		Volume: 100,
	}
}

func newTestEngine(t *testing.T, files FileLoader, project *defs.Project) *Engine {
	t.Helper()

	e, err := New(testConfig(files))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if project != nil {
		if err := e.Load(project); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	return e
}

func clip(name string, kind int, file string, bars int) defs.Audio {
	a := defs.NewAudio(name, kind)
	a.Bars = bars
	if file != "" {
		a.Files = []defs.File{{Filename: file, RandomChance: defs.InheritChance}}
	}
	return a
}

func withCond(a defs.Audio, id, typ, v1, v2 int) defs.Audio {
	a.Cond = &defs.Cond{ID: id, Type: typ, Value: v1, Value2: v2}
	return a
}

func project(tracks ...defs.Track) *defs.Project {
	return &defs.Project{BPM: 120, BeatsPerBar: 4, Tracks: tracks}
}

func musicTrack(name string, audios ...defs.Audio) defs.Track {
	t := defs.NewTrack(name, false)
	t.Audios = audios
	return t
}

// mix renders frames of mono float output from a silent buffer
func mix(e *Engine, frames int) []float32 {
	buf := make([]byte, frames*4)
	e.MixToBuffer(buf, frames)

	out := make([]float32, frames)
	for i := range out {
		out[i] = audio.ReadFloat(buf, i)
	}
	return out
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

// expectLevel fails unless every sample in out equals want
func expectLevel(t *testing.T, what string, out []float32, want float32) {
	t.Helper()
	for i, s := range out {
		if !near(s, want) {
			t.Fatalf("%s: sample %d = %f, want %f", what, i, s, want)
		}
	}
}
