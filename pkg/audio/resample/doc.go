// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts clip audio between sample rates
// Package resample converts decoded clips to the output sample rate.
//
// Conversion happens once per clip when the output format is set, so the
// whole buffer is converted in one call:
//
//	prepared := resample.Convert(pcm, 48000)
package resample
