// ABOUTME: Parsed definition tree for adaptive music projects
// ABOUTME: Plain data handed to the engine, independent of the file format
package defs

// Audio clip kinds
const (
	AudioIntro = 1
	AudioLoop  = 2
	AudioCond  = 3
	AudioEnd   = 4
)

// Condition comparison types
const (
	CondEqual   = 0
	CondGreater = 1
	CondLess    = 2
	CondRange   = 3
)

// InheritChance marks a file that uses its layer's random chance
const InheritChance = -1

// Project is the root of a definition file
type Project struct {
	BPM         float64
	BeatsPerBar int
	Tracks      []Track
}

// Track describes one music or sfx track. A zero BPM or BeatsPerBar
// inherits the project tempo.
type Track struct {
	Name        string
	Sfx         bool
	Groups      []string
	Subgroups   []string
	BPM         float64
	BeatsPerBar int
	FadeIn      int // ms
	FadeOut     int
	XFadeIn     int
	XFadeOut    int
	Volume      float64
	Audios      []Audio
}

// Audio describes one clip of a track
type Audio struct {
	Name            string
	Files           []File
	Type            int
	Bars            int
	Volume          float64
	BPM             float64
	BeatsPerBar     int
	MinMovementBars int
	RandomChance    int
	PlayOrder       int
	FadeIn          int
	FadeOut         int
	XFadeIn         int
	XFadeOut        int
	Cond            *Cond
}

// Cond is a clip trigger
type Cond struct {
	ID     int
	Type   int
	Value  int
	Value2 int
}

// File is one source file of a clip
type File struct {
	Filename     string
	Layer        string
	RandomChance int
}

// Internal holds engine debug settings
type Internal struct {
	WriteAudioAtShutdown bool
	DebugClipping        bool
	Verbose              bool
}

// Loader parses a definition document
type Loader interface {
	Load(data []byte) (*Project, error)
}

// NewTrack returns a track with default volume
func NewTrack(name string, sfx bool) Track {
	return Track{Name: name, Sfx: sfx, Volume: 1}
}

// NewAudio returns a clip with default volume and random chance
func NewAudio(name string, kind int) Audio {
	return Audio{Name: name, Type: kind, Volume: 1, RandomChance: 100}
}

// Track returns the named track or nil
func (p *Project) Track(name string) *Track {
	for i := range p.Tracks {
		if p.Tracks[i].Name == name {
			return &p.Tracks[i]
		}
	}
	return nil
}
