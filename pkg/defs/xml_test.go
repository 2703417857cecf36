// ABOUTME: Tests for the XML definition loader
// ABOUTME: Covers both layouts, attributes, naming rules and internal settings
package defs

import (
	"bytes"
	"testing"
)

const projectXML = `<?xml version="1.0"?>
<project>
	<bpm>120</bpm>
	<beatsPerBar>4</beatsPerBar>
	<track>
		<name>forest</name>
		<group>outdoor</group>
		<fadeIn>500</fadeIn>
		<xfadeOut>250</xfadeOut>
		<audio>
			<name>intro</name>
			<filename>forest_intro.ogg</filename>
			<type>1</type>
			<bars>2</bars>
		</audio>
		<audio>
			<name>main</name>
			<filename layer="drums" randomChance="50">forest_drums.wav</filename>
			<filename layer="pads">forest_pads.wav</filename>
			<type>2</type>
			<bars>8</bars>
			<randomChance>75</randomChance>
			<minMovementBars>4</minMovementBars>
		</audio>
		<audio>
			<filename>danger.wav</filename>
			<type>3</type>
			<bars>4</bars>
			<condId>5</condId>
			<condType>3</condType>
			<condValue>10</condValue>
			<condValue2>20</condValue2>
		</audio>
		<sparkles>yes</sparkles>
	</track>
	<track type="sfx">
		<name>ui</name>
		<audio>
			<name>click</name>
			<filename>click.wav</filename>
		</audio>
	</track>
</project>`

func TestLoadProject(t *testing.T) {
	p, err := XMLLoader{}.Load([]byte(projectXML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.BPM != 120 || p.BeatsPerBar != 4 {
		t.Errorf("project tempo = %v/%d, want 120/4", p.BPM, p.BeatsPerBar)
	}
	if len(p.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(p.Tracks))
	}

	forest := p.Track("forest")
	if forest == nil {
		t.Fatal("forest track missing")
	}
	if forest.Sfx {
		t.Error("forest should be a music track")
	}
	if forest.FadeIn != 500 || forest.XFadeOut != 250 {
		t.Errorf("fades = %d/%d", forest.FadeIn, forest.XFadeOut)
	}
	if len(forest.Groups) != 1 || forest.Groups[0] != "outdoor" {
		t.Errorf("groups = %v", forest.Groups)
	}
	if len(forest.Audios) != 3 {
		t.Fatalf("got %d audios, want 3", len(forest.Audios))
	}

	main := forest.Audios[1]
	if main.Type != AudioLoop || main.Bars != 8 || main.RandomChance != 75 || main.MinMovementBars != 4 {
		t.Errorf("main = %+v", main)
	}
	if len(main.Files) != 2 {
		t.Fatalf("main files = %d", len(main.Files))
	}
	if f := main.Files[0]; f.Filename != "forest_drums.wav" || f.Layer != "drums" || f.RandomChance != 50 {
		t.Errorf("first file = %+v", f)
	}
	if f := main.Files[1]; f.Layer != "pads" || f.RandomChance != InheritChance {
		t.Errorf("second file = %+v", f)
	}

	cond := forest.Audios[2]
	if cond.Name != "audio2" {
		t.Errorf("unnamed audio got %q, want audio2", cond.Name)
	}
	if cond.Cond == nil || *cond.Cond != (Cond{ID: 5, Type: CondRange, Value: 10, Value2: 20}) {
		t.Errorf("cond = %+v", cond.Cond)
	}
	if forest.Audios[0].Cond != nil {
		t.Error("intro should have no trigger")
	}

	ui := p.Track("ui")
	if ui == nil || !ui.Sfx {
		t.Fatalf("ui track = %+v", ui)
	}
	if ui.Audios[0].Volume != 1 || ui.Audios[0].RandomChance != 100 {
		t.Errorf("defaults not applied: %+v", ui.Audios[0])
	}
}

func TestLoadLegacyTracks(t *testing.T) {
	data := `<track><name>a</name><audio><name>x</name><filename>a.wav</filename></audio><audio><name>x</name><filename>b.wav</filename></audio></track>
<track><name>b</name></track>`

	p, err := XMLLoader{}.Load([]byte(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(p.Tracks))
	}
	audios := p.Tracks[0].Audios
	if audios[0].Name != "x" || audios[1].Name != "audio1" {
		t.Errorf("names = %q, %q", audios[0].Name, audios[1].Name)
	}
	if p.BPM != 0 {
		t.Errorf("legacy project bpm = %v, want 0", p.BPM)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"truncated", "<project><track><name>x</name>"},
		{"bad int", "<project><track><audio><bars>many</bars></audio></track></project>"},
		{"bad float", "<project><bpm>fast</bpm></project>"},
		{"bad attribute", `<project><track><audio><filename randomChance="x">a</filename></audio></track></project>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (XMLLoader{}).Load([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHexValues(t *testing.T) {
	p, err := XMLLoader{}.Load([]byte("<project><track><name>t</name><audio><bars>0x10</bars></audio></track></project>"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := p.Tracks[0].Audios[0].Bars; got != 16 {
		t.Errorf("bars = %d, want 16", got)
	}
}

func TestParseInternal(t *testing.T) {
	s, err := ParseInternal([]byte("<base><writeAudioAtShutdown>1</writeAudioAtShutdown><verbose>0</verbose><debugClipping> 1 </debugClipping></base>"))
	if err != nil {
		t.Fatalf("ParseInternal: %v", err)
	}
	want := Internal{WriteAudioAtShutdown: true, DebugClipping: true}
	if s != want {
		t.Errorf("got %+v, want %+v", s, want)
	}

	if _, err := ParseInternal([]byte("<base>")); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestEncodeReload(t *testing.T) {
	p, err := XMLLoader{}.Load([]byte(projectXML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	again, err := XMLLoader{}.Load(buf.Bytes())
	if err != nil {
		t.Fatalf("reload: %v\n%s", err, buf.String())
	}
	if len(again.Tracks) != 2 || !again.Tracks[1].Sfx {
		t.Fatalf("reloaded tracks = %+v", again.Tracks)
	}
	main := again.Tracks[0].Audios[1]
	if main.Files[0].RandomChance != 50 || main.Files[1].RandomChance != InheritChance {
		t.Errorf("file chances = %d, %d", main.Files[0].RandomChance, main.Files[1].RandomChance)
	}
	if c := again.Tracks[0].Audios[2].Cond; c == nil || c.Value2 != 20 {
		t.Errorf("cond lost: %+v", c)
	}
}
