package dynamics

import (
	"math"
	"testing"
	"time"
)

func TestQuietSignalUntouched(t *testing.T) {
	c := New()
	c.SetAudioFormat(2, 1000)

	for i := 0; i < 100; i++ {
		frame := []float32{0.1, -0.1}
		c.Process(frame)
		if frame[0] != 0.1 || frame[1] != -0.1 {
			t.Fatalf("frame %d changed below threshold: %v", i, frame)
		}
	}
}

func TestLoudSignalReduced(t *testing.T) {
	c := New()
	c.SetAudioFormat(1, 1000)
	c.SetThreshold(-6)
	c.SetRatio(4)
	c.SetTimes(0, 0)

	frame := []float32{1}
	c.Process(frame)

	// 6dB over the threshold at 4:1 leaves 1.5dB over: -4.5dBFS
	want := math.Pow(10, -4.5/20)
	if math.Abs(float64(frame[0])-want) > 1e-4 {
		t.Errorf("expected %f, got %f", want, frame[0])
	}
	if c.Gain() >= 1 {
		t.Errorf("expected gain reduction, got %f", c.Gain())
	}
}

func TestAttackSmoothsOnset(t *testing.T) {
	c := New()
	c.SetAudioFormat(1, 1000)
	c.SetThreshold(-20)
	c.SetTimes(50*time.Millisecond, 50*time.Millisecond)

	first := []float32{1}
	c.Process(first)
	for i := 0; i < 200; i++ {
		c.Process([]float32{1})
	}
	settled := []float32{1}
	c.Process(settled)

	if settled[0] >= first[0] {
		t.Errorf("expected more reduction once the envelope settles: first=%f settled=%f", first[0], settled[0])
	}
}

func TestRatioAndThresholdClamp(t *testing.T) {
	c := New()
	c.SetRatio(0.5)
	if c.Ratio() != 1 {
		t.Errorf("expected ratio clamped to 1, got %f", c.Ratio())
	}
	c.SetThreshold(6)
	if c.Threshold() != 0 {
		t.Errorf("expected threshold clamped to 0, got %f", c.Threshold())
	}
}

func TestUnityRatioIsTransparent(t *testing.T) {
	c := New()
	c.SetAudioFormat(1, 1000)
	c.SetThreshold(-40)
	c.SetRatio(1)

	frame := []float32{0.9}
	c.Process(frame)
	if frame[0] != 0.9 {
		t.Errorf("expected untouched frame, got %f", frame[0])
	}
}
