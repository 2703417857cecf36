// ABOUTME: XML definition loader
// ABOUTME: Reads project files and the legacy list-of-tracks format
package defs

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// XMLLoader parses the XML definition format
type XMLLoader struct {
	Logger *log.Logger
}

type xmlFilename struct {
	Layer        string `xml:"layer,attr"`
	RandomChance string `xml:"randomChance,attr"`
	Name         string `xml:",chardata"`
}

// Load parses data into a project
func (l XMLLoader) Load(data []byte) (*Project, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	project := &Project{}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		switch start.Name.Local {
		case "project":
			if err := l.readProject(dec, project); err != nil {
				return nil, err
			}
		case "track":
			// Old format: tracks at the top level
			track, err := l.readTrack(dec, start)
			if err != nil {
				return nil, err
			}
			project.Tracks = append(project.Tracks, track)
		default:
			l.logger().Warn("Unknown root tag", "tag", start.Name.Local)
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("error parsing xml: %w", err)
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("no project or track elements found")
	}
	return project, nil
}

func (l XMLLoader) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

func (l XMLLoader) readProject(dec *xml.Decoder, project *Project) error {
	return eachChild(dec, func(start xml.StartElement) error {
		switch start.Name.Local {
		case "track":
			track, err := l.readTrack(dec, start)
			if err != nil {
				return err
			}
			project.Tracks = append(project.Tracks, track)
			return nil
		case "bpm":
			return decodeFloat(dec, start, &project.BPM)
		case "beatsPerBar":
			return decodeInt(dec, start, &project.BeatsPerBar)
		default:
			l.logger().Warn("Unknown project tag", "tag", start.Name.Local)
			return dec.Skip()
		}
	})
}

func (l XMLLoader) readTrack(dec *xml.Decoder, el xml.StartElement) (Track, error) {
	track := NewTrack("", false)
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" && attr.Value == "sfx" {
			track.Sfx = true
		}
	}

	err := eachChild(dec, func(start xml.StartElement) error {
		switch start.Name.Local {
		case "name":
			return decodeString(dec, start, &track.Name)
		case "group":
			var s string
			if err := decodeString(dec, start, &s); err != nil {
				return err
			}
			track.Groups = append(track.Groups, s)
			return nil
		case "subgroup":
			var s string
			if err := decodeString(dec, start, &s); err != nil {
				return err
			}
			track.Subgroups = append(track.Subgroups, s)
			return nil
		case "bpm":
			return decodeFloat(dec, start, &track.BPM)
		case "beatsPerBar":
			return decodeInt(dec, start, &track.BeatsPerBar)
		case "fadeIn":
			return decodeInt(dec, start, &track.FadeIn)
		case "fadeOut":
			return decodeInt(dec, start, &track.FadeOut)
		case "xfadeIn":
			return decodeInt(dec, start, &track.XFadeIn)
		case "xfadeOut":
			return decodeInt(dec, start, &track.XFadeOut)
		case "volume":
			return decodeFloat(dec, start, &track.Volume)
		case "audio":
			audio, err := l.readAudio(dec)
			if err != nil {
				return err
			}
			if audio.Name == "" || hasAudio(track.Audios, audio.Name) {
				audio.Name = fmt.Sprintf("audio%d", len(track.Audios))
			}
			track.Audios = append(track.Audios, audio)
			return nil
		default:
			l.logger().Warn("Unknown track tag", "tag", start.Name.Local)
			return dec.Skip()
		}
	})
	return track, err
}

func (l XMLLoader) readAudio(dec *xml.Decoder) (Audio, error) {
	audio := NewAudio("", AudioLoop)
	cond := Cond{}
	hasCond := false

	err := eachChild(dec, func(start xml.StartElement) error {
		switch start.Name.Local {
		case "name":
			return decodeString(dec, start, &audio.Name)
		case "filename":
			var f xmlFilename
			if err := dec.DecodeElement(&f, &start); err != nil {
				return fmt.Errorf("error parsing filename: %w", err)
			}
			file := File{Filename: strings.TrimSpace(f.Name), Layer: f.Layer, RandomChance: InheritChance}
			if f.RandomChance != "" {
				v, err := parseInt(f.RandomChance)
				if err != nil {
					return fmt.Errorf("invalid randomChance attribute: %w", err)
				}
				file.RandomChance = v
			}
			audio.Files = append(audio.Files, file)
			return nil
		case "type":
			return decodeInt(dec, start, &audio.Type)
		case "bars":
			return decodeInt(dec, start, &audio.Bars)
		case "volume":
			return decodeFloat(dec, start, &audio.Volume)
		case "bpm":
			return decodeFloat(dec, start, &audio.BPM)
		case "beatsPerBar":
			return decodeInt(dec, start, &audio.BeatsPerBar)
		case "minMovementBars":
			return decodeInt(dec, start, &audio.MinMovementBars)
		case "randomChance":
			return decodeInt(dec, start, &audio.RandomChance)
		case "playOrder":
			return decodeInt(dec, start, &audio.PlayOrder)
		case "fadeIn":
			return decodeInt(dec, start, &audio.FadeIn)
		case "fadeOut":
			return decodeInt(dec, start, &audio.FadeOut)
		case "xfadeIn":
			return decodeInt(dec, start, &audio.XFadeIn)
		case "xfadeOut":
			return decodeInt(dec, start, &audio.XFadeOut)
		case "condId":
			hasCond = true
			return decodeInt(dec, start, &cond.ID)
		case "condType":
			hasCond = true
			return decodeInt(dec, start, &cond.Type)
		case "condValue":
			hasCond = true
			return decodeInt(dec, start, &cond.Value)
		case "condValue2":
			hasCond = true
			return decodeInt(dec, start, &cond.Value2)
		default:
			l.logger().Warn("Unknown audio tag", "tag", start.Name.Local)
			return dec.Skip()
		}
	})
	if hasCond {
		audio.Cond = &cond
	}
	return audio, err
}

// ParseInternal reads the optional engine settings document rooted at <base>
func ParseInternal(data []byte) (Internal, error) {
	var doc struct {
		WriteAudioAtShutdown string `xml:"writeAudioAtShutdown"`
		DebugClipping        string `xml:"debugClipping"`
		Verbose              string `xml:"verbose"`
	}
	var settings Internal
	if err := xml.Unmarshal(data, &doc); err != nil {
		return settings, fmt.Errorf("error parsing internal defs: %w", err)
	}

	settings.WriteAudioAtShutdown = strings.TrimSpace(doc.WriteAudioAtShutdown) == "1"
	settings.DebugClipping = strings.TrimSpace(doc.DebugClipping) == "1"
	settings.Verbose = strings.TrimSpace(doc.Verbose) == "1"
	return settings, nil
}

func hasAudio(audios []Audio, name string) bool {
	for _, a := range audios {
		if a.Name == name {
			return true
		}
	}
	return false
}

// eachChild calls fn for every child element until the parent closes.
// fn must consume the element it is given.
func eachChild(dec *xml.Decoder, fn func(xml.StartElement) error) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("error parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeString(dec *xml.Decoder, start xml.StartElement, dst *string) error {
	var s string
	if err := dec.DecodeElement(&s, &start); err != nil {
		return fmt.Errorf("error parsing %s: %w", start.Name.Local, err)
	}
	*dst = strings.TrimSpace(s)
	return nil
}

func decodeInt(dec *xml.Decoder, start xml.StartElement, dst *int) error {
	var s string
	if err := decodeString(dec, start, &s); err != nil {
		return err
	}
	v, err := parseInt(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", start.Name.Local, err)
	}
	*dst = v
	return nil
}

func decodeFloat(dec *xml.Decoder, start xml.StartElement, dst *float64) error {
	var s string
	if err := decodeString(dec, start, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", start.Name.Local, err)
	}
	*dst = v
	return nil
}

// parseInt accepts decimal, 0x hex and 0 octal like the C library
func parseInt(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
