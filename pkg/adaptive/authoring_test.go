package adaptive

import (
	"errors"
	"slices"
	"testing"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
)

func TestTrackEditing(t *testing.T) {
	e := newTestEngine(t, memLoader{}, nil)

	if err := e.TrackNew("forest", false); err != nil {
		t.Fatalf("TrackNew: %v", err)
	}
	if err := e.TrackNew("forest", false); err == nil {
		t.Error("duplicate TrackNew succeeded")
	}
	if err := e.TrackNew("ui", true); err != nil {
		t.Fatalf("TrackNew sfx: %v", err)
	}

	if err := e.TrackSetVolume("forest", 0.8); err != nil {
		t.Fatalf("TrackSetVolume: %v", err)
	}
	e.TrackSetFadeIn("forest", 100)
	e.TrackSetFadeOut("forest", 200)
	e.TrackSetXFadeIn("forest", 300)
	e.TrackSetXFadeOut("forest", 400)
	e.TrackAddGroup("forest", "outdoor", "calm")
	e.TrackAddGroup("forest", "outdoor", "")

	if e.TrackVolume("forest") != 0.8 || e.TrackFadeIn("forest") != 100 || e.TrackFadeOut("forest") != 200 ||
		e.TrackXFadeIn("forest") != 300 || e.TrackXFadeOut("forest") != 400 {
		t.Error("track setters did not stick")
	}
	if info := e.TracksInfo(); len(info.Tracks[0].Groups) != 1 || info.Tracks[0].Subgroups[0] != "calm" {
		t.Errorf("groups = %v / %v", info.Tracks[0].Groups, info.Tracks[0].Subgroups)
	}

	if err := e.TrackRename("forest", "ui"); err != nil {
		t.Errorf("renaming a music track to an sfx name: %v", err)
	}
	if err := e.TrackNew("cave", false); err != nil {
		t.Fatalf("TrackNew: %v", err)
	}
	if err := e.TrackRename("cave", "ui"); err == nil {
		t.Error("rename onto an existing music track succeeded")
	}

	if err := e.TrackRemove("cave"); err != nil {
		t.Fatalf("TrackRemove: %v", err)
	}
	if err := e.TrackRemove("cave"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second TrackRemove err = %v", err)
	}
	if got := e.TrackList(); !slices.Equal(got, []string{"ui", "ui"}) {
		t.Errorf("TrackList = %v", got)
	}
	if err := e.TrackSetVolume("nope", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown track err = %v", err)
	}
}

func TestAudioEditing(t *testing.T) {
	files := memLoader{"a.wav": constPCM(barLen, 0.5), "b.wav": constPCM(barLen, 0.25)}
	e := newTestEngine(t, files, nil)
	e.TrackNew("forest", false)

	if err := e.AudioNew("forest", "main", ClipLoop); err != nil {
		t.Fatalf("AudioNew: %v", err)
	}
	e.AudioNew("forest", "main", ClipCond)
	e.AudioNew("forest", "", ClipEnd)
	if got := e.TrackAudioList("forest"); !slices.Equal(got, []string{"main", "audio1", "audio2"}) {
		t.Fatalf("TrackAudioList = %v", got)
	}
	if e.AudioKind("forest", "audio2") != ClipEnd {
		t.Errorf("kind = %v", e.AudioKind("forest", "audio2"))
	}

	if err := e.AudioAddFile("forest", "main", "a.wav", "drums"); err != nil {
		t.Fatalf("AudioAddFile: %v", err)
	}
	if err := e.AudioAddFile("forest", "main", "a.wav", ""); err == nil {
		t.Error("adding a file twice succeeded")
	}
	if err := e.AudioAddFile("forest", "main", "missing.wav", ""); err == nil {
		t.Error("adding an undecodable file succeeded")
	}
	e.AudioAddFile("forest", "main", "b.wav", "")
	if got := e.AudioFileList("forest", "main"); !slices.Equal(got, []string{"a.wav", "b.wav"}) {
		t.Errorf("AudioFileList = %v", got)
	}
	if e.LayerID("drums") < 0 {
		t.Error("file layer not registered")
	}

	e.AudioFileSetLayer("forest", "main", "b.wav", "pads")
	e.AudioFileSetRandomChance("forest", "main", "b.wav", 30)
	if e.AudioFileLayer("forest", "main", "b.wav") != "pads" || e.AudioFileRandomChance("forest", "main", "b.wav") != 30 {
		t.Error("file setters did not stick")
	}
	if e.AudioFileRandomChance("forest", "main", "a.wav") != defs.InheritChance {
		t.Error("new files inherit their layer chance")
	}
	if err := e.AudioFileRemove("forest", "main", "b.wav"); err != nil {
		t.Fatalf("AudioFileRemove: %v", err)
	}
	if err := e.AudioFileSetLayer("forest", "main", "b.wav", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("removed file err = %v", err)
	}

	e.AudioSetVolume("forest", "main", 0.5)
	e.AudioSetBPM("forest", "main", 90)
	e.AudioSetBeatsPerBar("forest", "main", 3)
	e.AudioSetBars("forest", "main", 2)
	e.AudioSetMinMovementBars("forest", "main", 4)
	e.AudioSetRandomChance("forest", "main", 60)
	e.AudioSetPlayOrder("forest", "main", 2)
	e.AudioSetFadeIn("forest", "main", 10)
	e.AudioSetFadeOut("forest", "main", 20)
	e.AudioSetXFadeIn("forest", "main", 30)
	e.AudioSetXFadeOut("forest", "main", 40)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"volume", e.AudioVolume("forest", "main"), 0.5},
		{"bpm", e.AudioBPM("forest", "main"), 90},
		{"beats per bar", float64(e.AudioBeatsPerBar("forest", "main")), 3},
		{"bars", float64(e.AudioBars("forest", "main")), 2},
		{"min movement", float64(e.AudioMinMovementBars("forest", "main")), 4},
		{"random chance", float64(e.AudioRandomChance("forest", "main")), 60},
		{"play order", float64(e.AudioPlayOrder("forest", "main")), 2},
		{"fade in", float64(e.AudioFadeIn("forest", "main")), 10},
		{"fade out", float64(e.AudioFadeOut("forest", "main")), 20},
		{"xfade in", float64(e.AudioXFadeIn("forest", "main")), 30},
		{"xfade out", float64(e.AudioXFadeOut("forest", "main")), 40},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	e.AudioSetCondID("forest", "audio1", 5)
	e.AudioSetCondType("forest", "audio1", CondRange)
	e.AudioSetCondValue("forest", "audio1", 10)
	e.AudioSetCondValue2("forest", "audio1", 20)
	want := Trigger{ID: 5, Type: CondRange, Value: 10, Value2: 20}
	if tr := e.AudioCondition("forest", "audio1"); tr == nil || *tr != want {
		t.Errorf("AudioCondition = %+v", tr)
	}
	if e.AudioCondID("forest", "audio1") != 5 || e.AudioCondType("forest", "audio1") != CondRange ||
		e.AudioCondValue("forest", "audio1") != 10 || e.AudioCondValue2("forest", "audio1") != 20 {
		t.Error("condition getters disagree")
	}
	e.AudioClearCondition("forest", "audio1")
	if e.AudioCondition("forest", "audio1") != nil {
		t.Error("condition not cleared")
	}

	if err := e.AudioSetName("forest", "audio1", "main"); err == nil {
		t.Error("renaming onto an existing audio succeeded")
	}
	if err := e.AudioSetName("forest", "audio1", "danger"); err != nil {
		t.Fatalf("AudioSetName: %v", err)
	}
	if !e.AudioExists("forest", "danger") || e.AudioExists("forest", "audio1") {
		t.Error("rename did not stick")
	}

	if err := e.AudioRemove("forest", "danger"); err != nil {
		t.Fatalf("AudioRemove: %v", err)
	}
	if err := e.AudioRemove("forest", "danger"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second AudioRemove err = %v", err)
	}
}

func TestEditWhilePlaying(t *testing.T) {
	files := memLoader{"a.wav": constPCM(barLen, 0.5)}
	e := newTestEngine(t, files, project(musicTrack("forest", clip("main", defs.AudioLoop, "a.wav", 1))))
	e.PlayTrack("forest")
	expectLevel(t, "before", mix(e, 10), 0.5)

	// Track volume applies at once
	e.TrackSetVolume("forest", 0.5)
	expectLevel(t, "track volume", mix(e, 10), 0.25)

	// Clip edits are picked up when the loop wraps
	e.AudioSetVolume("forest", "main", 0.5)
	expectLevel(t, "rest of pass", mix(e, barLen-20), 0.25)
	expectLevel(t, "next pass", mix(e, 10), 0.125)

	// Removing the playing track stops it
	if err := e.TrackRemove("forest"); err != nil {
		t.Fatalf("TrackRemove: %v", err)
	}
	expectLevel(t, "removed", mix(e, 10), 0)
	if e.IsPlaying() {
		t.Error("removed track still playing")
	}
}

func TestSaveDefsRoundTrip(t *testing.T) {
	files := memLoader{"a.wav": constPCM(barLen, 0.5), "b.wav": constPCM(barLen, 0.5)}
	main := clip("main", defs.AudioLoop, "a.wav", 1)
	main.Files = append(main.Files, defs.File{Filename: "b.wav", Layer: "pads", RandomChance: 40})
	main.MinMovementBars = 2
	track := musicTrack("forest", main, withCond(clip("danger", defs.AudioCond, "b.wav", 1), 5, defs.CondGreater, 3, 0))
	track.Groups = []string{"outdoor"}
	track.XFadeIn = 250
	src := project(track)

	e := newTestEngine(t, files, src)
	data, err := e.SaveDefs()
	if err != nil {
		t.Fatalf("SaveDefs: %v", err)
	}

	e2 := newTestEngine(t, files, nil)
	if err := e2.InitString(string(data)); err != nil {
		t.Fatalf("InitString: %v\n%s", err, data)
	}

	got := e2.Project()
	if got.BPM != 120 || got.BeatsPerBar != 4 || len(got.Tracks) != 1 {
		t.Fatalf("project = %+v", got)
	}
	tr := got.Tracks[0]
	if tr.Name != "forest" || tr.XFadeIn != 250 || !slices.Equal(tr.Groups, []string{"outdoor"}) || len(tr.Audios) != 2 {
		t.Fatalf("track = %+v", tr)
	}
	m := tr.Audios[0]
	if m.MinMovementBars != 2 || len(m.Files) != 2 || m.Files[1].Layer != "pads" || m.Files[1].RandomChance != 40 ||
		m.Files[0].RandomChance != defs.InheritChance {
		t.Errorf("main audio = %+v", m)
	}
	if c := tr.Audios[1].Cond; c == nil || *c != (defs.Cond{ID: 5, Type: defs.CondGreater, Value: 3}) {
		t.Errorf("danger cond = %+v", c)
	}
}

func TestTracksInfo(t *testing.T) {
	files := memLoader{"a.wav": constPCM(barLen, 0.5)}
	fx := defs.NewTrack("ui", true)
	fx.Audios = []defs.Audio{clip("click", defs.AudioLoop, "a.wav", 0)}
	e := newTestEngine(t, files, project(musicTrack("forest", clip("main", defs.AudioLoop, "a.wav", 1)), fx))
	e.PlayTrack("forest")

	info := e.TracksInfo()
	if info.BPM != 120 || len(info.Tracks) != 2 {
		t.Fatalf("info = %+v", info)
	}
	forest, ui := info.Tracks[0], info.Tracks[1]
	if forest.ID != 0 || !forest.Playing || forest.Sfx {
		t.Errorf("forest = %+v", forest)
	}
	if ui.ID != -1 || !ui.Sfx {
		t.Errorf("ui = %+v", ui)
	}
	if a := forest.Audios[0]; a.Kind != ClipLoop || a.Duration.Seconds() != 2 || a.Files[0] != "a.wav" {
		t.Errorf("audio = %+v", a)
	}
}

func TestResampledClipLength(t *testing.T) {
	half := &audio.PCM{SampleRate: testRate / 2, Channels: 1, Samples: make([]float32, barLen/2)}
	e := newTestEngine(t, memLoader{"half.wav": half}, project(musicTrack("forest", clip("main", defs.AudioLoop, "half.wav", 0))))

	c := e.findClip("forest", "main")
	if c.files[0].pcm.SampleRate != testRate {
		t.Errorf("clip rate = %d", c.files[0].pcm.SampleRate)
	}
	if c.frames < barLen-4 || c.frames > barLen+4 {
		t.Errorf("clip frames = %d, want about %d", c.frames, barLen)
	}
}

func TestLayerRegistry(t *testing.T) {
	e := newTestEngine(t, memLoader{}, nil)

	id := e.LayerNew("drums")
	if e.LayerNew("drums") != id || e.LayerID("drums") != id {
		t.Error("LayerNew is not idempotent")
	}
	if e.LayerID("pads") != -1 {
		t.Error("unknown layer has an id")
	}
	if err := e.LayerRename("drums", "perc"); err != nil {
		t.Fatalf("LayerRename: %v", err)
	}
	if e.LayerID("perc") != id || e.LayerID("drums") != -1 {
		t.Error("rename did not move the layer")
	}

	e.SetLayerGain("perc", 0.3)
	e.SetLayerRandomChance("perc", 150)
	if !near(e.LayerGain("perc"), 0.3) || e.LayerRandomChance("perc") != 100 {
		t.Errorf("layer = %f / %d", e.LayerGain("perc"), e.LayerRandomChance("perc"))
	}
}
