// ABOUTME: One-shot sound effect voices
// ABOUTME: Fixed pool with oldest-voice stealing, per-voice volume and pan
package adaptive

import "math/rand/v2"

const sfxVoices = 16

type sfxPool struct {
	voices [sfxVoices]voice
	age    uint64
}

func (s *sfxPool) reset() {
	for i := range s.voices {
		s.voices[i].free()
	}
}

func (s *sfxPool) play(c *clipDef, vol, pan float32, rng *rand.Rand) {
	v := &s.voices[0]
	for i := range s.voices {
		cand := &s.voices[i]
		if !cand.active() {
			v = cand
			break
		}
		if cand.age < v.age {
			v = cand
		}
	}

	v.start(c, roleSfx, c.frames, 0, 0, false, rng)
	v.left, v.right = panGains(pan)
	v.left *= vol
	v.right *= vol
	s.age++
	v.age = s.age
}

func (s *sfxPool) mixFrame(acc *[8]float32, channels int, rng *rand.Rand) {
	for i := range s.voices {
		if s.voices[i].active() {
			s.voices[i].render(acc, channels, 1, rng)
		}
	}
}

func (s *sfxPool) playing() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active() {
			n++
		}
	}
	return n
}
