// ABOUTME: Maps command-line words to control protocol messages
// ABOUTME: Validates argument counts and numeric values before anything is sent
package main

import (
	"fmt"
	"strconv"

	"github.com/Resonate-Protocol/adaptive-go/pkg/protocol"
)

func buildCommand(args []string) (string, interface{}, error) {
	cmd, rest := args[0], args[1:]

	need := func(lo, hi int) error {
		if len(rest) < lo || len(rest) > hi {
			return fmt.Errorf("%s: wrong number of arguments", cmd)
		}
		return nil
	}

	switch cmd {
	case "play":
		if err := need(1, 1); err != nil {
			return "", nil, err
		}
		return protocol.TypeTrackPlay, protocol.TrackPlay{Name: rest[0]}, nil

	case "play-id":
		if err := need(1, 1); err != nil {
			return "", nil, err
		}
		id, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", nil, fmt.Errorf("play-id: %w", err)
		}
		return protocol.TypeTrackPlay, protocol.TrackPlay{ID: &id}, nil

	case "play-contains":
		if err := need(1, 1); err != nil {
			return "", nil, err
		}
		return protocol.TypeTrackPlay, protocol.TrackPlay{Contains: rest[0]}, nil

	case "play-group":
		if err := need(1, 2); err != nil {
			return "", nil, err
		}
		p := protocol.TrackPlay{Group: rest[0]}
		if len(rest) == 2 {
			p.Subgroup = rest[1]
		}
		return protocol.TypeTrackPlay, p, nil

	case "stop":
		return protocol.TypeTrackStop, nil, need(0, 0)
	case "finish":
		return protocol.TypeTrackFinish, nil, need(0, 0)
	case "sfx-stop":
		return protocol.TypeSfxStop, nil, need(0, 0)
	case "pause":
		return protocol.TypePlaybackPause, nil, need(0, 0)
	case "resume":
		return protocol.TypePlaybackResume, nil, need(0, 0)
	case "toggle":
		return protocol.TypePlaybackToggle, nil, need(0, 0)

	case "sfx":
		if err := need(1, 3); err != nil {
			return "", nil, err
		}
		p := protocol.SfxPlay{Name: rest[0]}
		if len(rest) > 1 {
			v, err := parseFloat32(rest[1])
			if err != nil {
				return "", nil, fmt.Errorf("sfx volume: %w", err)
			}
			p.Volume = &v
		}
		if len(rest) > 2 {
			pan, err := parseFloat32(rest[2])
			if err != nil {
				return "", nil, fmt.Errorf("sfx pan: %w", err)
			}
			p.Pan = pan
		}
		return protocol.TypeSfxPlay, p, nil

	case "cond":
		if err := need(2, 2); err != nil {
			return "", nil, err
		}
		id, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", nil, fmt.Errorf("cond id: %w", err)
		}
		value, err := strconv.Atoi(rest[1])
		if err != nil {
			return "", nil, fmt.Errorf("cond value: %w", err)
		}
		return protocol.TypeConditionSet, protocol.ConditionSet{ID: id, Value: value}, nil

	case "tension":
		if err := need(2, 2); err != nil {
			return "", nil, err
		}
		value, err := strconv.Atoi(rest[1])
		if err != nil {
			return "", nil, fmt.Errorf("tension: %w", err)
		}
		switch rest[0] {
		case "add":
			return protocol.TypeTensionAdd, protocol.TensionValue{Value: value}, nil
		case "set":
			return protocol.TypeTensionSet, protocol.TensionValue{Value: value}, nil
		}
		return "", nil, fmt.Errorf("tension: want add or set, got %q", rest[0])

	case "volume":
		if err := need(1, 1); err != nil {
			return "", nil, err
		}
		vol, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", nil, fmt.Errorf("volume: %w", err)
		}
		return protocol.TypeVolumeSet, protocol.VolumeSet{Volume: vol}, nil

	case "layer":
		if err := need(2, 2); err != nil {
			return "", nil, err
		}
		gain, err := parseFloat32(rest[1])
		if err != nil {
			return "", nil, fmt.Errorf("layer gain: %w", err)
		}
		return protocol.TypeLayerGain, protocol.LayerGain{Layer: rest[0], Gain: gain}, nil
	}

	return "", nil, fmt.Errorf("unknown command %q", cmd)
}

func parseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}
