// ABOUTME: Offline renderer for adaptive music definitions
// ABOUTME: Mixes a track to a WAV file without an audio device, or validates a project
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/internal/render"
	"github.com/Resonate-Protocol/adaptive-go/pkg/adaptive"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/encode"
	"github.com/charmbracelet/log"
)

var (
	defsPath    = flag.String("defs", "music.xml", "Music definition file")
	track       = flag.String("track", "", "Track to render (default: first music track)")
	outPath     = flag.String("out", "render.wav", "Output WAV file")
	duration    = flag.Duration("duration", 60*time.Second, "Maximum render length")
	finishAfter = flag.Duration("finish-after", 0, "Request the track ending after this long (0 never)")
	tension     = flag.Int("tension", 0, "Tension to add when the render starts")
	conds       = flag.String("cond", "", "Condition events as at:id=value, comma separated (e.g. 4s:100=1,10s:100=0)")
	sampleRate  = flag.Int("rate", 44100, "Output sample rate")
	channels    = flag.Int("channels", 2, "Output channels (1 or 2)")
	volume      = flag.Int("volume", 100, "Master volume 0-100")
	seed        = flag.Uint64("seed", 1, "Random seed for clip selection")
	compressor  = flag.Bool("compressor", false, "Enable the output compressor")
	check       = flag.Bool("check", false, "Only load and validate the definitions")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}
	log.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Fatal("Render failed", "err", err)
	}
}

func run(logger *log.Logger) error {
	events, err := parseEvents(*conds)
	if err != nil {
		return err
	}
	if err := encode.CheckWAVFormat(*channels, *sampleRate); err != nil {
		return err
	}

	clock := render.NewClock(time.Now())
	e, err := adaptive.New(adaptive.Config{
		Format: audio.Format{SampleRate: *sampleRate, Channels: *channels, BytesPerSample: 2},
		FS:     os.DirFS(filepath.Dir(*defsPath)),
		Logger: logger,
		Seed:   *seed,
		Volume: *volume,
		Muted:  *volume <= 0,
		Now:    clock.Now,
	})
	if err != nil {
		return err
	}
	if err := e.Init(filepath.Base(*defsPath)); err != nil {
		return err
	}

	info := e.TracksInfo()
	if *check {
		printProject(info)
		return nil
	}

	name := *track
	if name == "" {
		for _, t := range info.Tracks {
			if !t.Sfx {
				name = t.Name
				break
			}
		}
		if name == "" {
			return fmt.Errorf("%s has no music tracks", *defsPath)
		}
	}

	if *compressor {
		e.EnableDynamicCompressor(true, -3, 4)
	}
	e.SetDebugClipping(true)

	res, err := render.Render(e, clock, render.Options{
		Track:       name,
		Duration:    *duration,
		FinishAfter: *finishAfter,
		Tension:     *tension,
		Events:      events,
	})
	if err != nil {
		return err
	}

	if err := encode.WriteWAVFile(*outPath, res.Samples, *channels, *sampleRate); err != nil {
		return err
	}
	logger.Info("Rendered", "track", name, "file", *outPath, "length", res.Duration().Round(time.Millisecond),
		"finished", res.Finished, "clipping", res.Clipping)
	return nil
}

// parseEvents reads "4s:100=1,10s:100=0"
func parseEvents(s string) ([]render.Event, error) {
	var events []render.Event
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		at, cond, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("bad condition event %q: want at:id=value", field)
		}
		when, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("bad condition event %q: %w", field, err)
		}
		idStr, valStr, ok := strings.Cut(cond, "=")
		if !ok {
			return nil, fmt.Errorf("bad condition event %q: want at:id=value", field)
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("bad condition id in %q: %w", field, err)
		}
		value, err := strconv.Atoi(valStr)
		if err != nil {
			return nil, fmt.Errorf("bad condition value in %q: %w", field, err)
		}
		events = append(events, render.Event{At: when, Cond: id, Value: value})
	}
	return events, nil
}

func printProject(info adaptive.TracksInfo) {
	fmt.Printf("%.1f bpm, %d beats per bar, %d tracks\n", info.BPM, info.BeatsPerBar, len(info.Tracks))
	for _, t := range info.Tracks {
		kind := "music"
		if t.Sfx {
			kind = "sfx"
		}
		fmt.Printf("  %s (%s)\n", t.Name, kind)
		for _, a := range t.Audios {
			fmt.Printf("    %-16s %-6s %3d bars %8s %v\n", a.Name, a.Kind, a.Bars, a.Duration.Round(time.Millisecond), a.Files)
		}
	}
}
