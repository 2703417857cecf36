// ABOUTME: Linear sample rate conversion for decoded clips
// ABOUTME: Converts a whole PCM buffer once, when clips are prepared for an output format
package resample

import "github.com/Resonate-Protocol/adaptive-go/pkg/audio"

// Frames returns the length in frames of inFrames converted from one rate to another
func Frames(inFrames, fromRate, toRate int) int {
	if fromRate <= 0 || toRate <= 0 || inFrames <= 0 {
		return 0
	}
	return int(int64(inFrames) * int64(toRate) / int64(fromRate))
}

// Convert returns pcm at sampleRate. The input is returned unchanged when the rates already match.
func Convert(pcm *audio.PCM, sampleRate int) *audio.PCM {
	if pcm == nil || pcm.SampleRate == sampleRate || pcm.SampleRate <= 0 || sampleRate <= 0 || pcm.Channels <= 0 {
		return pcm
	}

	ch := pcm.Channels
	in := pcm.Samples
	inFrames := len(in) / ch
	outFrames := Frames(inFrames, pcm.SampleRate, sampleRate)
	out := make([]float32, outFrames*ch)

	step := float64(pcm.SampleRate) / float64(sampleRate)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		idx := int(pos)
		frac := float32(pos - float64(idx))

		// The last input frame is held rather than interpolated past the end
		next := min(idx+1, inFrames-1)
		for c := 0; c < ch; c++ {
			a := in[idx*ch+c]
			b := in[next*ch+c]
			out[i*ch+c] = a + (b-a)*frac
		}
	}

	return &audio.PCM{
		SampleRate: sampleRate,
		Channels:   ch,
		Samples:    out,
	}
}
