// ABOUTME: Control protocol message definitions
// ABOUTME: JSON envelopes and payloads exchanged between players and remote controllers
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the control protocol version
const Version = 1

// Path is the websocket endpoint of a player
const Path = "/adaptive"

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeServerState = "server/state"
	TypeServerError = "server/error"

	TypeTrackPlay   = "track/play"
	TypeTrackStop   = "track/stop"
	TypeTrackFinish = "track/finish"

	TypeSfxPlay = "sfx/play"
	TypeSfxStop = "sfx/stop"

	TypeConditionSet = "condition/set"
	TypeTensionAdd   = "tension/add"
	TypeTensionSet   = "tension/set"
	TypeVolumeSet    = "volume/set"
	TypeLayerGain    = "layer/gain"

	TypePlaybackPause  = "playback/pause"
	TypePlaybackResume = "playback/resume"
	TypePlaybackToggle = "playback/toggle"
)

// Error codes carried by server/error
const (
	ErrorBadMessage    = "bad_message"
	ErrorUnknownType   = "unknown_type"
	ErrorNotFound      = "not_found"
	ErrorCommandFailed = "command_failed"
	ErrorDuplicateID   = "duplicate_client_id"
	ErrorHelloRequired = "hello_required"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// DecodePayload converts a decoded payload into v
func DecodePayload(payload interface{}, v interface{}) error {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// ClientHello opens a control session
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello answers client/hello with what the player has loaded
type ServerHello struct {
	ServerID string   `json:"server_id"`
	Name     string   `json:"name"`
	Version  int      `json:"version"`
	Product  string   `json:"product"`
	Software string   `json:"software_version"`
	Tracks   []string `json:"tracks"`
}

// TrackPlay selects a music track. Exactly one selector should be set;
// Name wins over ID, ID over Contains, Contains over Group.
type TrackPlay struct {
	Name     string `json:"name,omitempty"`
	ID       *int   `json:"id,omitempty"`
	Contains string `json:"contains,omitempty"`
	Group    string `json:"group,omitempty"`
	Subgroup string `json:"subgroup,omitempty"`
}

// SfxPlay triggers a sound effect. A Position places it on a 2D plane and
// replaces Volume and Pan.
type SfxPlay struct {
	Name     string    `json:"name"`
	Volume   *float32  `json:"volume,omitempty"` // 0-1, default 1
	Pan      float32   `json:"pan,omitempty"`    // -1 left to 1 right
	Position *Position `json:"position,omitempty"`
}

// Position is a point on a width x height plane
type Position struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ConditionSet sets a condition value
type ConditionSet struct {
	ID    int `json:"id"`
	Value int `json:"value"`
}

// TensionValue is the payload of tension/add and tension/set
type TensionValue struct {
	Value int `json:"value"`
}

// VolumeSet sets the master volume 0-100
type VolumeSet struct {
	Volume int `json:"volume"`
}

// LayerGain sets the gain of a layer
type LayerGain struct {
	Layer string  `json:"layer"`
	Gain  float32 `json:"gain"`
}

// ServerState is broadcast to every controller once per second
type ServerState struct {
	State    string `json:"state"` // stopped, intro, playing, crossfading, ending
	Track    string `json:"track,omitempty"`
	Audio    string `json:"audio,omitempty"`
	Tail     string `json:"tail,omitempty"`
	Bars     int    `json:"bars"`
	Sfx      int    `json:"sfx"`
	Tension  int    `json:"tension"`
	Volume   int    `json:"volume"`
	Paused   bool   `json:"paused"`
	Clipping int64  `json:"clipping"`
	Info     string `json:"info,omitempty"`
}

// ServerError reports a rejected message
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"` // type of the rejected message
}
