// ABOUTME: Entry point for the adaptive music player
// ABOUTME: Parses CLI flags, sets up logging and runs the player application
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Resonate-Protocol/adaptive-go/internal/app"
	"github.com/Resonate-Protocol/adaptive-go/internal/version"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/charmbracelet/log"
)

var (
	defsPath     = flag.String("defs", "music.xml", "Music definition file; clip paths are relative to its directory")
	internalDefs = flag.String("internal-defs", "", "Optional engine settings file (<base> document)")
	port         = flag.Int("port", 8930, "Control server port (-1 disables remote control)")
	name         = flag.String("name", "", "Player friendly name (default: hostname-adaptive-player)")
	sampleRate   = flag.Int("rate", 48000, "Output sample rate")
	channels     = flag.Int("channels", 2, "Output channels (1 or 2)")
	bits         = flag.Int("bits", 16, "Output bits per sample (8, 16 or 32 with -float)")
	float        = flag.Bool("float", false, "Output 32-bit float samples")
	bufferMs     = flag.Int("buffer-ms", 0, "Device buffer in milliseconds (0 uses the driver default)")
	volume       = flag.Int("volume", 50, "Initial master volume 0-100")
	track        = flag.String("track", "", "Track to start playing")
	seed         = flag.Uint64("seed", 0, "Random seed for clip selection (0 seeds from the clock)")
	compressor   = flag.Bool("compressor", false, "Enable the output compressor")
	dumpDir      = flag.String("dump-dir", ".", "Directory for the shutdown capture")
	logFile      = flag.String("log-file", "adaptive-player.log", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	noMDNS       = flag.Bool("no-mdns", false, "Do not advertise the player via mDNS")
	verbose      = flag.Bool("verbose", false, "Log playing state every second")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("error opening log file", "err", err)
	}
	defer func() { _ = f.Close() }()

	var out io.Writer = f
	if !useTUI {
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := log.NewWithOptions(out, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	log.SetDefault(logger)

	playerName := *name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-adaptive-player", hostname)
	}

	bytesPerSample := *bits / 8
	if *float {
		bytesPerSample = 4
	}

	logger.Info("Starting adaptive player", "name", playerName, "version", version.Version, "defs", *defsPath)

	player, err := app.New(app.Config{
		FS:           os.DirFS(filepath.Dir(*defsPath)),
		DefsPath:     filepath.Base(*defsPath),
		InternalDefs: *internalDefs,
		Name:         playerName,
		Port:         *port,
		Format: audio.Format{
			SampleRate:     *sampleRate,
			Channels:       *channels,
			BytesPerSample: bytesPerSample,
			Float:          *float,
		},
		Volume:     *volume,
		Seed:       *seed,
		BufferMs:   *bufferMs,
		StartTrack: *track,
		Compressor: *compressor,
		Verbose:    *verbose,
		DumpDir:    *dumpDir,
		UseTUI:     useTUI,
		Advertise:  !*noMDNS && *port >= 0,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to create player", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := player.Run(ctx); err != nil {
		logger.Error("Player failed", "err", err)
		if useTUI {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
