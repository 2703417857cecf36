// Package adaptive is an adaptive music engine for games and other
// interactive hosts.
//
// A project holds music and sfx tracks. A music track plays an optional intro,
// then a body made of one loop clip plus any conditional clips whose triggers
// hold, and finally an optional end clip. Loop and conditional changes happen
// on bar boundaries derived from the track tempo, with linear crossfades.
// Conditions are integers set by the host; tension is a reserved condition
// that decays on its own once raised.
//
// Threading: host methods (PlayTrack, SetCondition, the authoring calls and so
// on) may be called from any goroutine. MixToBuffer runs on the audio callback
// and never allocates, locks or blocks. Track changes reach it through a
// bounded command queue, everything else through atomics.
//
// Example:
//
//	engine, err := adaptive.New(adaptive.Config{FS: os.DirFS("music")})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := engine.SetAudioFormat(48000, 2, 2, false); err != nil {
//		log.Fatal(err)
//	}
//	if err := engine.Init("project.defs"); err != nil {
//		log.Fatal(err)
//	}
//	engine.PlayTrack("forest")
//	engine.SetCondition(adaptive.CondUser, 1)
//
//	// in the audio callback
//	engine.MixToBuffer(buf, frames)
package adaptive
