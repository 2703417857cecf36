// ABOUTME: Music track state machine driven by the mixer
// ABOUTME: Intro, bar-quantized loop and conditional selection, crossfades and the end clip
package adaptive

import (
	"math/rand/v2"
	"sync/atomic"
)

// State is the playback state of a music track
type State int32

const (
	Stopped State = iota
	PlayingIntro
	PlayingBody
	Crossfading
	PlayingEnd
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case PlayingIntro:
		return "intro"
	case PlayingBody:
		return "playing"
	case Crossfading:
		return "crossfading"
	case PlayingEnd:
		return "ending"
	}
	return "unknown"
}

const musicVoices = 32

type projectInfo struct {
	bpm         float64
	beatsPerBar int
}

// playStatus is what the mixer publishes for diagnostics
type playStatus struct {
	state atomic.Int32
	track atomic.Pointer[string]
	main  atomic.Pointer[string]
	tail  atomic.Pointer[string]
	bars  atomic.Int64
	sfx   atomic.Int32
}

// player runs the playing music track. It is owned by the mixing goroutine.
type player struct {
	track     *Track
	def       *trackDef
	conds     *Conditions
	rng       *rand.Rand
	state     State
	rate      int
	barFrames int
	barPos    int
	bars      int
	finishing bool
	age       uint64
	voices    [musicVoices]voice
}

func newPlayer(conds *Conditions, rng *rand.Rand) *player {
	p := &player{conds: conds, rng: rng}
	p.reset()
	return p
}

func (p *player) reset() {
	for i := range p.voices {
		p.voices[i].free()
	}
	p.track = nil
	p.def = nil
	p.state = Stopped
	p.barFrames = 0
	p.barPos = 0
	p.bars = 0
	p.finishing = false
}

func (p *player) play(t *Track, proj projectInfo, rate int) {
	p.stop()

	p.track = t
	p.def = t.def.Load()
	p.rate = rate
	p.barFrames = barFrames(p.def, proj, rate)
	t.active.Store(true)

	fade := p.ms(p.def.cfg.FadeIn)
	if intro := p.def.intro; intro != nil {
		p.state = PlayingIntro
		p.launch(intro, roleIntro, p.loopEnd(intro), 0, fade, false)
		return
	}
	p.startBody(fade)
}

func (p *player) stop() {
	if p.track != nil {
		p.track.active.Store(false)
	}
	p.reset()
}

// finish hands over to the end clip at the next bar boundary
func (p *player) finish() {
	if p.state == Stopped || p.state == PlayingEnd {
		return
	}
	if p.barFrames <= 0 {
		p.handOver()
		return
	}
	p.finishing = true
}

// startBody begins the loop section. A negative fade uses each clip's crossfade.
func (p *player) startBody(fade int) {
	p.state = PlayingBody
	p.barPos = 0
	p.bars = 0

	if c := p.selectLoop(nil); c != nil {
		if fade < 0 {
			fade = p.inFade(c)
		}
		p.startMain(c, fade)
	}
	p.updateConds()
}

func (p *player) startMain(c *clipDef, fade int) {
	p.launch(c, roleMain, p.loopEnd(c), 0, fade, true)
	if fade > 0 {
		p.state = Crossfading
	}
}

func (p *player) launch(c *clipDef, role voiceRole, loopEnd, seek, fade int, loop bool) *voice {
	v := p.alloc()
	v.start(c, role, loopEnd, seek, fade, loop, p.rng)
	p.age++
	v.age = p.age
	return v
}

// alloc returns a free voice, stealing the oldest one that is not the main loop
func (p *player) alloc() *voice {
	var victim *voice
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active() {
			return v
		}
		if v.role == roleMain && !v.stopping {
			continue
		}
		if victim == nil || v.age < victim.age {
			victim = v
		}
	}
	if victim == nil {
		victim = &p.voices[0]
	}
	return victim
}

func (p *player) find(role voiceRole, name string) *voice {
	for i := range p.voices {
		v := &p.voices[i]
		if v.active() && !v.stopping && v.role == role && (name == "" || v.clip.cfg.Name == name) {
			return v
		}
	}
	return nil
}

func (p *player) mainVoice() *voice { return p.find(roleMain, "") }

// boundary runs once per bar of mixed audio
func (p *player) boundary() {
	p.bars++
	for i := range p.voices {
		if p.voices[i].active() {
			p.voices[i].bars++
		}
	}

	switch p.state {
	case PlayingIntro:
		if p.finishing {
			p.handOver()
		}
	case PlayingBody, Crossfading:
		if p.finishing {
			p.handOver()
			return
		}
		p.playNext()
	}
}

// playNext re-evaluates the loop and the conditional clips
func (p *player) playNext() {
	p.updateConds()

	// Loop changes wait for the running crossfade
	if p.state == Crossfading {
		return
	}

	m := p.mainVoice()
	if m == nil {
		if c := p.selectLoop(nil); c != nil {
			p.startMain(c, p.inFade(c))
		}
		return
	}

	cur := p.def.loop(m.clip.cfg.Name)
	atEnd := m.atLoopEnd()
	if cur != nil && !atEnd && Evaluate(cur.trigger, p.conds) {
		return
	}
	if cur != nil && m.bars < cur.cfg.MinMovementBars {
		return
	}

	next := p.selectLoop(m.clip)
	if next != nil && next.cfg.Name == m.clip.cfg.Name {
		if atEnd {
			// Pick up edits made while the loop was playing
			m.clip = next
			m.loopEnd = p.loopEnd(next)
		}
		return
	}

	m.stop(p.outFade(m.clip))
	if next != nil {
		p.startMain(next, p.inFade(next))
	}
}

// selectLoop picks the next loop. Loops with a play order run in sequence;
// otherwise one loop is drawn uniformly among those passing their random
// chance, falling back to the first eligible loop.
func (p *player) selectLoop(cur *clipDef) *clipDef {
	var next, first *clipDef
	for _, c := range p.def.loops {
		if c.cfg.PlayOrder <= 0 || !Evaluate(c.trigger, p.conds) {
			continue
		}
		if first == nil || c.cfg.PlayOrder < first.cfg.PlayOrder {
			first = c
		}
		if cur != nil && c.cfg.PlayOrder > cur.cfg.PlayOrder && (next == nil || c.cfg.PlayOrder < next.cfg.PlayOrder) {
			next = c
		}
	}
	if next != nil && cur.cfg.PlayOrder > 0 {
		return next
	}
	if first != nil {
		return first
	}

	var pick, fallback *clipDef
	n := 0
	for _, c := range p.def.loops {
		if !Evaluate(c.trigger, p.conds) {
			continue
		}
		if fallback == nil {
			fallback = c
		}
		if !roll(p.rng, c.cfg.RandomChance) {
			continue
		}
		n++
		if p.rng.IntN(n) == 0 {
			pick = c
		}
	}
	if pick == nil {
		return fallback
	}
	return pick
}

func (p *player) updateConds() {
	for _, c := range p.def.conds {
		v := p.find(roleCond, c.cfg.Name)
		on := Evaluate(c.trigger, p.conds)

		switch {
		case on && v == nil:
			if roll(p.rng, c.cfg.RandomChance) {
				end := p.loopEnd(c)
				p.launch(c, roleCond, end, p.condSeek(c, end), p.inFade(c), true)
			}
		case !on && v != nil && v.bars >= c.cfg.MinMovementBars:
			v.stop(p.outFade(v.clip))
		}
	}

	for i := range p.voices {
		v := &p.voices[i]
		if v.active() && v.role == roleCond && !v.stopping && p.def.cond(v.clip.cfg.Name) == nil {
			v.stop(p.outFade(v.clip))
		}
	}
}

// handOver stops the body and starts the end clip, or fades out when there is none
func (p *player) handOver() {
	p.finishing = false
	p.state = PlayingEnd

	end := p.def.end
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active() || v.stopping {
			continue
		}
		if end == nil && p.def.cfg.FadeOut > 0 {
			v.stop(p.ms(p.def.cfg.FadeOut))
		} else {
			v.stop(p.outFade(v.clip))
		}
	}

	if end != nil {
		p.launch(end, roleEnd, end.frames, 0, p.inFade(end), false)
	}
}

// mixFrame adds the track's next frame into acc
func (p *player) mixFrame(acc *[8]float32, channels int) {
	if p.state == Stopped {
		return
	}

	if p.state == PlayingIntro {
		if v := p.find(roleIntro, ""); v == nil || v.atLoopEnd() {
			if v != nil {
				// The rest of the intro rings under the body
				v.stopping = true
			}
			p.startBody(-1)
		}
	}

	if p.barFrames > 0 {
		if p.barPos >= p.barFrames {
			p.barPos = 0
			p.boundary()
		}
		p.barPos++
	}

	scale := p.def.volume
	for i := range p.voices {
		if p.voices[i].active() {
			p.voices[i].render(acc, channels, scale, p.rng)
		}
	}

	switch p.state {
	case Crossfading:
		if m := p.mainVoice(); m == nil || m.gain.done() {
			p.state = PlayingBody
		}
	case PlayingEnd:
		if !p.anyActive() {
			p.stop()
		}
	}
}

func (p *player) anyActive() bool {
	for i := range p.voices {
		if p.voices[i].active() {
			return true
		}
	}
	return false
}

func (p *player) publish(s *playStatus) {
	s.state.Store(int32(p.state))
	s.bars.Store(int64(p.bars))
	if p.def == nil {
		s.track.Store(nil)
		s.main.Store(nil)
		s.tail.Store(nil)
		return
	}

	s.track.Store(&p.def.cfg.Name)
	if m := p.mainVoice(); m != nil {
		s.main.Store(&m.clip.cfg.Name)
	} else if v := p.find(roleIntro, ""); v != nil {
		s.main.Store(&v.clip.cfg.Name)
	} else if v := p.find(roleEnd, ""); v != nil {
		s.main.Store(&v.clip.cfg.Name)
	} else {
		s.main.Store(nil)
	}

	var tail *string
	for i := range p.voices {
		v := &p.voices[i]
		if v.active() && v.stopping && v.role != roleCond {
			tail = &v.clip.cfg.Name
			break
		}
	}
	s.tail.Store(tail)
}

func (p *player) ms(ms int) int {
	if ms <= 0 {
		return 0
	}
	return ms * p.rate / 1000
}

func (p *player) inFade(c *clipDef) int {
	if c.cfg.XFadeIn > 0 {
		return p.ms(c.cfg.XFadeIn)
	}
	return p.ms(p.def.cfg.XFadeIn)
}

func (p *player) outFade(c *clipDef) int {
	if c.cfg.XFadeOut > 0 {
		return p.ms(c.cfg.XFadeOut)
	}
	return p.ms(p.def.cfg.XFadeOut)
}

// loopEnd is where a clip wraps: its bar count when that fits the data, else
// the whole bars the data holds, else the data length. Frames past the wrap
// ring out as the tail.
func (p *player) loopEnd(c *clipDef) int {
	if p.barFrames > 0 {
		if c.cfg.Bars > 0 {
			if n := c.cfg.Bars * p.barFrames; n <= c.frames {
				return n
			}
		}
		if n := (c.frames / p.barFrames) * p.barFrames; n > 0 {
			return n
		}
	}
	return c.frames
}

// condSeek aligns a conditional clip to the bar the body is on
func (p *player) condSeek(c *clipDef, end int) int {
	if p.barFrames <= 0 {
		return 0
	}
	bars := c.cfg.Bars
	if bars <= 0 {
		bars = end / p.barFrames
	}
	if bars <= 0 {
		return 0
	}
	seek := (p.bars % bars) * p.barFrames
	if seek >= end {
		return 0
	}
	return seek
}

// barFrames computes the bar length in frames. The tempo comes from the track,
// then the project, then the first clip that declares one. Without any tempo
// the first loop's length is taken as its bar count.
func barFrames(def *trackDef, proj projectInfo, rate int) int {
	bpm, bpb := def.cfg.BPM, def.cfg.BeatsPerBar
	if bpm <= 0 {
		bpm = proj.bpm
	}
	if bpb <= 0 {
		bpb = proj.beatsPerBar
	}
	if bpm <= 0 {
		for _, c := range def.clips {
			if c.cfg.BPM > 0 {
				bpm = c.cfg.BPM
				if bpb <= 0 {
					bpb = c.cfg.BeatsPerBar
				}
				break
			}
		}
	}
	if bpb <= 0 {
		bpb = 4
	}

	if bpm > 0 && rate > 0 {
		return int(float64(rate)*60/bpm*float64(bpb) + 0.5)
	}

	if len(def.loops) > 0 {
		c := def.loops[0]
		if c.cfg.Bars > 0 {
			return c.frames / c.cfg.Bars
		}
		return c.frames
	}
	return 0
}
