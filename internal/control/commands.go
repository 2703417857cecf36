// ABOUTME: Applies control protocol commands to the engine
// ABOUTME: One case per message type, payloads decoded into protocol structs
package control

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/adaptive-go/pkg/protocol"
)

var (
	errUnknownType = errors.New("unknown message type")
	errBadPayload  = errors.New("bad payload")
)

func decode(msg protocol.Message, v interface{}) error {
	if err := protocol.DecodePayload(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// apply runs one command against the engine
func (s *Server) apply(msg protocol.Message) error {
	e := s.engine

	switch msg.Type {
	case protocol.TypeTrackPlay:
		var p protocol.TrackPlay
		if err := decode(msg, &p); err != nil {
			return err
		}
		switch {
		case p.Name != "":
			return e.PlayTrack(p.Name)
		case p.ID != nil:
			return e.PlayTrackID(*p.ID)
		case p.Contains != "":
			return e.PlayTrackWithStringRandom(p.Contains)
		case p.Group != "" && p.Subgroup != "":
			return e.PlayTrackByGroupAndSubgroupRandom(p.Group, p.Subgroup)
		case p.Group != "":
			return e.PlayTrackByGroupRandom(p.Group)
		}
		return fmt.Errorf("%w: track/play needs a name, id, contains or group", errBadPayload)

	case protocol.TypeTrackStop:
		return e.StopPlaying()

	case protocol.TypeTrackFinish:
		return e.FinishTrack()

	case protocol.TypeSfxPlay:
		var p protocol.SfxPlay
		if err := decode(msg, &p); err != nil {
			return err
		}
		if p.Name == "" {
			return fmt.Errorf("%w: sfx/play needs a name", errBadPayload)
		}
		if pos := p.Position; pos != nil {
			return e.PlaySfx2D(p.Name, pos.X, pos.Y, pos.Width, pos.Height)
		}
		vol := float32(1)
		if p.Volume != nil {
			vol = *p.Volume
		}
		return e.PlaySfxEx(p.Name, vol, p.Pan)

	case protocol.TypeSfxStop:
		return e.StopSfx()

	case protocol.TypeConditionSet:
		var p protocol.ConditionSet
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.SetCondition(p.ID, p.Value)

	case protocol.TypeTensionAdd:
		var p protocol.TensionValue
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.AddTension(p.Value)

	case protocol.TypeTensionSet:
		var p protocol.TensionValue
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.SetTension(p.Value)

	case protocol.TypeVolumeSet:
		var p protocol.VolumeSet
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.SetVolume(p.Volume)

	case protocol.TypeLayerGain:
		var p protocol.LayerGain
		if err := decode(msg, &p); err != nil {
			return err
		}
		return e.SetLayerGain(p.Layer, p.Gain)

	case protocol.TypePlaybackPause:
		e.Pause()
	case protocol.TypePlaybackResume:
		e.Resume()
	case protocol.TypePlaybackToggle:
		e.PauseToggle()

	default:
		return fmt.Errorf("%w: %s", errUnknownType, msg.Type)
	}
	return nil
}
