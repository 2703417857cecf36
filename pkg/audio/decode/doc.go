// ABOUTME: Audio decoder package for clip files
// ABOUTME: Provides decoders for WAV, MP3, FLAC, Opus and raw PCM
// Package decode turns encoded clip files into float PCM.
//
// Supports: WAV (8/16/24/32-bit integer and float), MP3, FLAC, Ogg Opus and
// raw little-endian PCM.
//
// Clips are decoded whole when a definition is loaded so that the real-time
// mixer never touches a codec. Files with more than two channels keep the
// first two.
//
// Example:
//
//	pcm, err := decode.Open(os.DirFS("music"), "battle/loop1.ogg")
//	loader := decode.FSLoader{FS: os.DirFS("music")}
package decode
