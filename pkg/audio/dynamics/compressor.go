// ABOUTME: Dynamic range compressor
// ABOUTME: Peak envelope follower with threshold/ratio gain reduction per frame
package dynamics

import (
	"math"
	"time"
)

const (
	DefaultThreshold = -3.0 // dBFS
	DefaultRatio     = 4.0
	DefaultAttack    = 5 * time.Millisecond
	DefaultRelease   = 100 * time.Millisecond
)

// Compressor reduces the level of frames whose peak envelope exceeds the threshold.
// Process runs on the audio thread; configure it before mixing starts.
type Compressor struct {
	channels   int
	sampleRate int

	threshold float64 // dBFS
	ratio     float64
	attack    time.Duration
	release   time.Duration

	attackCoef  float64
	releaseCoef float64
	envelope    float64
	gain        float64
}

// New creates a compressor with default settings
func New() *Compressor {
	c := &Compressor{
		channels:   2,
		sampleRate: 44100,
		threshold:  DefaultThreshold,
		ratio:      DefaultRatio,
		attack:     DefaultAttack,
		release:    DefaultRelease,
		gain:       1,
	}
	c.updateCoefficients()
	return c
}

// SetAudioFormat configures channel count and sample rate
func (c *Compressor) SetAudioFormat(channels, sampleRate int) {
	if channels > 0 {
		c.channels = channels
	}
	if sampleRate > 0 {
		c.sampleRate = sampleRate
	}
	c.updateCoefficients()
}

// SetThreshold sets the threshold in dBFS
func (c *Compressor) SetThreshold(db float64) {
	if db > 0 {
		db = 0
	}
	c.threshold = db
}

// SetRatio sets the compression ratio, values below 1 mean no compression
func (c *Compressor) SetRatio(ratio float64) {
	if ratio < 1 {
		ratio = 1
	}
	c.ratio = ratio
}

// SetTimes sets attack and release times
func (c *Compressor) SetTimes(attack, release time.Duration) {
	c.attack = attack
	c.release = release
	c.updateCoefficients()
}

// Threshold returns the threshold in dBFS
func (c *Compressor) Threshold() float64 {
	return c.threshold
}

// Ratio returns the compression ratio
func (c *Compressor) Ratio() float64 {
	return c.ratio
}

// Gain returns the linear gain applied to the last frame
func (c *Compressor) Gain() float64 {
	return c.gain
}

// Process compresses one interleaved frame in place
func (c *Compressor) Process(frame []float32) {
	peak := 0.0
	for ch := 0; ch < c.channels && ch < len(frame); ch++ {
		if v := math.Abs(float64(frame[ch])); v > peak {
			peak = v
		}
	}

	coef := c.releaseCoef
	if peak > c.envelope {
		coef = c.attackCoef
	}
	c.envelope = peak + coef*(c.envelope-peak)

	c.gain = 1
	if c.envelope > 0 {
		level := 20 * math.Log10(c.envelope)
		if level > c.threshold {
			reduction := (c.threshold - level) * (1 - 1/c.ratio)
			c.gain = math.Pow(10, reduction/20)
		}
	}

	if c.gain == 1 {
		return
	}
	for ch := 0; ch < c.channels && ch < len(frame); ch++ {
		frame[ch] *= float32(c.gain)
	}
}

// Reset clears the envelope
func (c *Compressor) Reset() {
	c.envelope = 0
	c.gain = 1
}

func (c *Compressor) updateCoefficients() {
	c.attackCoef = timeCoefficient(c.attack, c.sampleRate)
	c.releaseCoef = timeCoefficient(c.release, c.sampleRate)
}

// timeCoefficient returns the one-pole smoothing factor for a time constant
func timeCoefficient(d time.Duration, sampleRate int) float64 {
	samples := d.Seconds() * float64(sampleRate)
	if samples <= 0 {
		return 0
	}
	return math.Exp(-1 / samples)
}
