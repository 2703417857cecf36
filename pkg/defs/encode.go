// ABOUTME: Writes a project back to the XML definition format
// ABOUTME: Used by authoring tools to save edited projects
package defs

import (
	"encoding/xml"
	"fmt"
	"io"
)

type outProject struct {
	XMLName     xml.Name   `xml:"project"`
	BPM         float64    `xml:"bpm,omitempty"`
	BeatsPerBar int        `xml:"beatsPerBar,omitempty"`
	Tracks      []outTrack `xml:"track"`
}

type outTrack struct {
	Type      string     `xml:"type,attr,omitempty"`
	Name      string     `xml:"name"`
	Groups    []string   `xml:"group"`
	Subgroups []string   `xml:"subgroup"`
	BPM       float64    `xml:"bpm,omitempty"`
	BPB       int        `xml:"beatsPerBar,omitempty"`
	FadeIn    int        `xml:"fadeIn,omitempty"`
	FadeOut   int        `xml:"fadeOut,omitempty"`
	XFadeIn   int        `xml:"xfadeIn,omitempty"`
	XFadeOut  int        `xml:"xfadeOut,omitempty"`
	Volume    float64    `xml:"volume"`
	Audios    []outAudio `xml:"audio"`
}

type outFile struct {
	Layer        string `xml:"layer,attr,omitempty"`
	RandomChance *int   `xml:"randomChance,attr"`
	Name         string `xml:",chardata"`
}

type outAudio struct {
	Name            string    `xml:"name"`
	Files           []outFile `xml:"filename"`
	Type            int       `xml:"type"`
	Bars            int       `xml:"bars,omitempty"`
	Volume          float64   `xml:"volume"`
	BPM             float64   `xml:"bpm,omitempty"`
	BeatsPerBar     int       `xml:"beatsPerBar,omitempty"`
	MinMovementBars int       `xml:"minMovementBars,omitempty"`
	RandomChance    int       `xml:"randomChance"`
	PlayOrder       int       `xml:"playOrder,omitempty"`
	FadeIn          int       `xml:"fadeIn,omitempty"`
	FadeOut         int       `xml:"fadeOut,omitempty"`
	XFadeIn         int       `xml:"xfadeIn,omitempty"`
	XFadeOut        int       `xml:"xfadeOut,omitempty"`
	CondID          *int      `xml:"condId"`
	CondType        *int      `xml:"condType"`
	CondValue       *int      `xml:"condValue"`
	CondValue2      *int      `xml:"condValue2"`
}

// Encode writes p as an indented XML project document
func Encode(w io.Writer, p *Project) error {
	out := outProject{BPM: p.BPM, BeatsPerBar: p.BeatsPerBar}
	for _, t := range p.Tracks {
		ot := outTrack{
			Name:      t.Name,
			Groups:    t.Groups,
			Subgroups: t.Subgroups,
			BPM:       t.BPM,
			BPB:       t.BeatsPerBar,
			FadeIn:    t.FadeIn,
			FadeOut:   t.FadeOut,
			XFadeIn:   t.XFadeIn,
			XFadeOut:  t.XFadeOut,
			Volume:    t.Volume,
		}
		if t.Sfx {
			ot.Type = "sfx"
		}
		for _, a := range t.Audios {
			oa := outAudio{
				Name:            a.Name,
				Type:            a.Type,
				Bars:            a.Bars,
				Volume:          a.Volume,
				BPM:             a.BPM,
				BeatsPerBar:     a.BeatsPerBar,
				MinMovementBars: a.MinMovementBars,
				RandomChance:    a.RandomChance,
				PlayOrder:       a.PlayOrder,
				FadeIn:          a.FadeIn,
				FadeOut:         a.FadeOut,
				XFadeIn:         a.XFadeIn,
				XFadeOut:        a.XFadeOut,
			}
			for _, f := range a.Files {
				of := outFile{Layer: f.Layer, Name: f.Filename}
				if f.RandomChance != InheritChance {
					chance := f.RandomChance
					of.RandomChance = &chance
				}
				oa.Files = append(oa.Files, of)
			}
			if a.Cond != nil {
				c := *a.Cond
				oa.CondID, oa.CondType, oa.CondValue, oa.CondValue2 = &c.ID, &c.Type, &c.Value, &c.Value2
			}
			ot.Audios = append(ot.Audios, oa)
		}
		out.Tracks = append(out.Tracks, ot)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return enc.Close()
}
