// ABOUTME: Real-time mixing into host output buffers
// ABOUTME: Sfx and music accumulate per frame, then compressor, volume and overflow-safe encoding
package adaptive

import (
	"fmt"
	"math/rand/v2"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/encode"
)

type cmdKind uint8

const (
	cmdPlay cmdKind = iota
	cmdStop
	cmdFinish
	cmdSfx
	cmdStopSfx
)

type command struct {
	kind  cmdKind
	track *Track
	clip  *clipDef
	vol   float32
	pan   float32
}

// mixState is owned by the goroutine calling MixToBuffer
type mixState struct {
	set    *trackSet
	format *audio.Format
	music  *player
	sfx    sfxPool
	rng    *rand.Rand
	acc    [8]float32
}

// MixToBuffer mixes frames of audio into buf, adding to what it already holds.
// buf is laid out in the format given to SetAudioFormat. Nothing happens while
// the format is unsupported. While paused, queued commands are applied but buf
// is left alone. The call does not allocate, lock or block.
func (e *Engine) MixToBuffer(buf []byte, frames int) {
	f := e.format.Load()
	if f == nil || !f.Supported() {
		return
	}

	m := &e.mix
	if f != m.format {
		m.format = f
		m.music.stop()
		m.sfx.reset()
	}
	if set := e.tracks.Load(); set != m.set {
		if m.music.track != nil && !set.contains(m.music.track) {
			m.music.stop()
		}
		m.set = set
	}
	e.drain(f)
	if e.paused.Load() {
		return
	}

	frameSize := f.FrameSize()
	if n := len(buf) / frameSize; frames > n {
		frames = n
	}

	if m.music.track != nil {
		m.music.def = m.music.track.def.Load()
	}

	vol := float32(e.volume.Load()) / 100
	var comp Compressor
	if box := e.compressor.Load(); box != nil {
		comp = box.c
	}

	ch := f.Channels
	var clipped int64
	for i := 0; i < frames; i++ {
		m.acc = [8]float32{}
		m.sfx.mixFrame(&m.acc, ch, m.rng)
		m.music.mixFrame(&m.acc, ch)

		if comp != nil {
			comp.Process(m.acc[:ch])
		}

		for c := 0; c < ch; c++ {
			s := m.acc[c] * vol
			idx := i*ch + c
			if f.Float {
				audio.WriteFloat(buf, idx, audio.ReadFloat(buf, idx)+s)
				continue
			}

			sum, clip := audio.SafeAdd(audio.ReadSample(buf, idx, f.BytesPerSample), audio.FloatToInteger24(s)<<8)
			if clip {
				clipped++
			}
			audio.WriteSample(buf, idx, f.BytesPerSample, sum)
		}
	}

	if clipped > 0 && e.debugClipping.Load() {
		e.clipping.Add(clipped)
		e.clipPending.Add(clipped)
	}

	if d := e.dump.Load(); d != nil && d.channels == ch && d.rate == f.SampleRate {
		d.samples, _ = encode.AppendInt16(d.samples, buf[:frames*frameSize], *f)
	}

	m.music.publish(&e.status)
	e.status.sfx.Store(int32(m.sfx.playing()))
}

// drain applies queued host commands
func (e *Engine) drain(f *audio.Format) {
	m := &e.mix
	for {
		select {
		case cmd := <-e.cmds:
			switch cmd.kind {
			case cmdPlay:
				if !m.set.contains(cmd.track) {
					cmd.track.active.Store(false)
					continue
				}
				m.music.play(cmd.track, *e.project.Load(), f.SampleRate)
			case cmdStop:
				m.music.stop()
			case cmdFinish:
				m.music.finish()
			case cmdSfx:
				m.sfx.play(cmd.clip, cmd.vol, cmd.pan, m.rng)
			case cmdStopSfx:
				m.sfx.reset()
			}
		default:
			return
		}
	}
}

func (e *Engine) send(cmd command) error {
	select {
	case e.cmds <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// ClippingEvents returns the number of clipped samples counted so far
func (e *Engine) ClippingEvents() int64 {
	return e.clipping.Load()
}

// TakeClipping reports clipping since the previous call, wrapping ErrClippingDetected
func (e *Engine) TakeClipping() error {
	if n := e.clipPending.Swap(0); n > 0 {
		return fmt.Errorf("%w: %d samples", ErrClippingDetected, n)
	}
	return nil
}
