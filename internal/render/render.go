// ABOUTME: Offline rendering of a track without an audio device
// ABOUTME: Drives the mixer in blocks on a virtual clock and collects 16-bit samples
package render

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/pkg/adaptive"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/encode"
)

// DefaultBlockFrames matches a typical device period
const DefaultBlockFrames = 1024

// Clock is a manually advanced wall clock for Engine.Update
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the virtual time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Event is a condition change applied once the render reaches At
type Event struct {
	At    time.Duration
	Cond  int
	Value int
}

// Options controls a render
type Options struct {
	Track    string
	Duration time.Duration

	// FinishAfter requests the track's ending; zero never finishes
	FinishAfter time.Duration

	// Tension is added when the render starts
	Tension int
	Events  []Event

	BlockFrames int
}

// Result is the rendered audio
type Result struct {
	Samples  []int16
	Format   audio.Format
	Frames   int
	Finished bool // the track ended before Duration
	Clipping int64
}

// Duration returns the rendered length
func (r *Result) Duration() time.Duration {
	if r.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(r.Frames) * time.Second / time.Duration(r.Format.SampleRate)
}

// Render plays opts.Track on e and mixes until opts.Duration or the track ends.
// clock must be the engine's Config.Now source.
func Render(e *adaptive.Engine, clock *Clock, opts Options) (*Result, error) {
	format := e.Format()
	if !format.Supported() {
		return nil, fmt.Errorf("unsupported output format %v", format)
	}
	if opts.Duration <= 0 {
		return nil, errors.New("render duration must be positive")
	}
	if opts.BlockFrames <= 0 {
		opts.BlockFrames = DefaultBlockFrames
	}

	if err := e.PlayTrack(opts.Track); err != nil {
		return nil, err
	}
	if opts.Tension != 0 {
		e.AddTension(opts.Tension)
	}

	total := int(opts.Duration * time.Duration(format.SampleRate) / time.Second)
	res := &Result{
		Samples: make([]int16, 0, total*format.Channels),
		Format:  format,
	}

	buf := make([]byte, opts.BlockFrames*format.FrameSize())
	events := slices.Clone(opts.Events)
	slices.SortStableFunc(events, func(a, b Event) int { return cmp.Compare(a.At, b.At) })
	finishing := false
	started := false

	for res.Frames < total {
		elapsed := time.Duration(res.Frames) * time.Second / time.Duration(format.SampleRate)

		for len(events) > 0 && events[0].At <= elapsed {
			e.SetCondition(events[0].Cond, events[0].Value)
			events = events[1:]
		}
		if opts.FinishAfter > 0 && !finishing && elapsed >= opts.FinishAfter {
			if err := e.FinishTrack(); err != nil {
				return nil, fmt.Errorf("failed to finish track: %w", err)
			}
			finishing = true
		}

		frames := min(opts.BlockFrames, total-res.Frames)
		block := buf[:frames*format.FrameSize()]
		audio.Silence(block, format)
		e.MixToBuffer(block, frames)

		res.Samples, _ = encode.AppendInt16(res.Samples, block, format)
		res.Frames += frames

		clock.Advance(time.Duration(frames) * time.Second / time.Duration(format.SampleRate))
		e.Update()

		playing := e.IsPlaying()
		if playing {
			started = true
		}
		if started && !playing {
			res.Finished = true
			break
		}
	}

	res.Clipping = e.ClippingEvents()
	return res, nil
}
