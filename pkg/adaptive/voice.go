// ABOUTME: Sample-accurate clip playback with gain ramps
// ABOUTME: A voice renders one clip's enabled files, ringing the loop tail after each wrap
package adaptive

import (
	"math/rand/v2"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

// ramp is a linear gain envelope advanced once per frame
type ramp struct {
	from, to float32
	n, k     int
}

func (r *ramp) set(from, to float32, frames int) {
	r.from, r.to = from, to
	r.n, r.k = frames, 0
}

func (r *ramp) value() float32 {
	if r.k >= r.n {
		return r.to
	}
	return r.from + (r.to-r.from)*float32(r.k)/float32(r.n)
}

func (r *ramp) step() {
	if r.k < r.n {
		r.k++
	}
}

func (r *ramp) done() bool { return r.k >= r.n }

type voiceRole uint8

const (
	roleNone voiceRole = iota
	roleIntro
	roleMain
	roleCond
	roleEnd
	roleSfx
)

type voice struct {
	clip     *clipDef
	role     voiceRole
	mask     uint64
	ringMask uint64
	pos      int
	ring     int // cursor in the previous pass's tail, -1 when idle
	loopEnd  int
	loop     bool
	stopping bool
	gain     ramp
	bars     int // bar boundaries since start
	age      uint64
	left     float32
	right    float32
}

func (v *voice) active() bool { return v.clip != nil }

func (v *voice) free() {
	*v = voice{ring: -1}
}

func (v *voice) start(c *clipDef, role voiceRole, loopEnd, seek, fadeFrames int, loop bool, rng *rand.Rand) {
	*v = voice{
		clip:    c,
		role:    role,
		pos:     seek,
		ring:    -1,
		loopEnd: loopEnd,
		loop:    loop,
		left:    1,
		right:   1,
		mask:    rollMask(c, rng),
	}
	if fadeFrames > 0 {
		v.gain.set(0, 1, fadeFrames)
	} else {
		v.gain.set(1, 1, 0)
	}
}

// atLoopEnd reports whether the main cursor sits on the loop point
func (v *voice) atLoopEnd() bool { return v.pos >= v.loopEnd }

// stop fades the voice out over fadeFrames. A voice stopped on its loop point
// plays its tail; a voice stopped mid-loop without a fade is cut.
func (v *voice) stop(fadeFrames int) {
	atEnd := v.atLoopEnd()
	v.loop = false
	v.stopping = true

	switch {
	case fadeFrames > 0:
		v.gain.set(v.gain.value(), 0, fadeFrames)
	case atEnd:
		// ring out
	default:
		v.free()
	}
}

// render adds one frame into acc and advances the cursors
func (v *voice) render(acc *[8]float32, channels int, scale float32, rng *rand.Rand) {
	if v.loop && v.pos >= v.loopEnd {
		if v.loopEnd < v.clip.frames {
			v.ring = v.loopEnd
			v.ringMask = v.mask
		}
		v.pos = 0
		v.mask = rollMask(v.clip, rng)
	}

	g := v.gain.value() * scale * v.clip.volume
	if g != 0 {
		gl, gr := g*v.left, g*v.right
		for i, f := range v.clip.files {
			bit := uint64(1) << uint(i)
			fg := f.gain()
			if v.mask&bit != 0 {
				addFrame(acc, channels, f.pcm, v.pos, gl*fg, gr*fg)
			}
			if v.ring >= 0 && v.ringMask&bit != 0 {
				addFrame(acc, channels, f.pcm, v.ring, gl*fg, gr*fg)
			}
		}
	}

	v.gain.step()
	v.pos++
	if v.ring >= 0 {
		v.ring++
		if v.ring >= v.clip.frames {
			v.ring = -1
		}
	}

	if v.stopping && v.gain.done() && v.gain.to == 0 {
		v.free()
		return
	}
	if !v.loop && v.pos >= v.clip.frames && v.ring < 0 {
		v.free()
	}
}

// addFrame mixes one source frame into acc, mapping mono and stereo sources
// to the output channel count
func addFrame(acc *[8]float32, channels int, pcm *audio.PCM, frame int, gl, gr float32) {
	if pcm == nil {
		return
	}
	src := pcm.Channels
	i := frame * src
	if frame < 0 || i+src > len(pcm.Samples) {
		return
	}

	if src == 1 {
		s := pcm.Samples[i]
		if channels == 1 {
			acc[0] += s * (gl + gr) * 0.5
			return
		}
		acc[0] += s * gl
		acc[1] += s * gr
		return
	}

	l, r := pcm.Samples[i], pcm.Samples[i+1]
	if channels == 1 {
		acc[0] += (l*gl + r*gr) * 0.5
		return
	}
	acc[0] += l * gl
	acc[1] += r * gr
}

// roll draws against a percent chance
func roll(rng *rand.Rand, chance int) bool {
	if chance >= 100 {
		return true
	}
	if chance <= 0 {
		return false
	}
	return rng.IntN(100) < chance
}

func rollMask(c *clipDef, rng *rand.Rand) uint64 {
	var mask uint64
	for i, f := range c.files {
		if roll(rng, f.chance()) {
			mask |= uint64(1) << uint(i)
		}
	}
	return mask
}

// panGains returns left and right gains for pan in [-1, 1]
func panGains(pan float32) (float32, float32) {
	if pan > 1 {
		pan = 1
	} else if pan < -1 {
		pan = -1
	}
	left, right := float32(1), float32(1)
	if pan > 0 {
		left = 1 - pan
	} else if pan < 0 {
		right = 1 + pan
	}
	return left, right
}
