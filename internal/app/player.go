// ABOUTME: Adaptive player application orchestration
// ABOUTME: Wires engine, audio output, control server, discovery and TUI together
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/internal/control"
	"github.com/Resonate-Protocol/adaptive-go/internal/discovery"
	"github.com/Resonate-Protocol/adaptive-go/internal/ui"
	"github.com/Resonate-Protocol/adaptive-go/pkg/adaptive"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/output"
	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
	"github.com/Resonate-Protocol/adaptive-go/pkg/protocol"
	"github.com/charmbracelet/log"
)

// Config holds player configuration
type Config struct {
	// FS holds the definition file and the clip audio it names
	FS       fs.FS
	DefsPath string

	// InternalDefs is an optional settings file on the host file system
	InternalDefs string

	Name   string
	Port   int // control port, 0 picks a free one, negative disables the server
	Format audio.Format
	Volume int // 0 means muted
	Seed   uint64

	BufferMs   int
	StartTrack string
	Compressor bool
	Verbose    bool
	DumpDir    string

	UseTUI    bool
	Advertise bool

	// Output defaults to the system device through oto
	Output output.Output
	Logger *log.Logger
}

// Player represents the running adaptive player
type Player struct {
	config  Config
	logger  *log.Logger
	engine  *adaptive.Engine
	output  output.Output
	control *control.Server

	mu   sync.Mutex
	addr net.Addr
}

// New creates a player. Nothing is loaded or opened until Run.
func New(config Config) (*Player, error) {
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Output == nil {
		config.Output = output.NewOto(time.Duration(config.BufferMs) * time.Millisecond)
	}

	engine, err := adaptive.New(adaptive.Config{
		Format:  config.Format,
		FS:      config.FS,
		Logger:  config.Logger.WithPrefix("engine"),
		Seed:    config.Seed,
		Volume:  config.Volume,
		Muted:   config.Volume <= 0,
		Verbose: config.Verbose,
		DumpDir: config.DumpDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	p := &Player{
		config: config,
		logger: config.Logger,
		engine: engine,
		output: config.Output,
	}
	if config.Port >= 0 {
		p.control = control.New(control.Config{
			Port:   config.Port,
			Name:   config.Name,
			Logger: config.Logger.WithPrefix("control"),
		}, engine)
	}
	return p, nil
}

// Engine returns the player's engine
func (p *Player) Engine() *adaptive.Engine { return p.engine }

// Addr returns the control server address once it is listening
func (p *Player) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}

// Run loads the project and plays until ctx is done or the user quits
func (p *Player) Run(ctx context.Context) error {
	if err := p.load(); err != nil {
		return err
	}

	if err := p.output.Open(p.engine.Format(), p.engine); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}

	if p.config.StartTrack != "" {
		if err := p.engine.PlayTrack(p.config.StartTrack); err != nil {
			p.logger.Warn("Cannot start track", "track", p.config.StartTrack, "err", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.updateLoop(ctx)
	}()

	errChan := make(chan error, 1)
	port := 0
	if p.control != nil {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p.config.Port))
		if err != nil {
			cancel()
			wg.Wait()
			return errors.Join(fmt.Errorf("failed to listen: %w", err), p.shutdown())
		}
		port = ln.Addr().(*net.TCPAddr).Port

		p.mu.Lock()
		p.addr = ln.Addr()
		p.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.control.Serve(ctx, ln); err != nil {
				errChan <- err
			}
		}()

		if p.config.Advertise {
			disc := discovery.NewManager(discovery.Config{
				ServiceName: p.config.Name,
				Port:        port,
				Path:        protocol.Path,
				Logger:      p.logger.WithPrefix("mdns"),
			})
			if err := disc.Advertise(); err != nil {
				p.logger.Warn("mDNS advertisement failed", "err", err)
			} else {
				defer disc.Stop()
			}
		}
	}

	var quit <-chan struct{}
	var tui *ui.TUI
	if p.config.UseTUI {
		tui = ui.New(p.engine, p.config.Name, port)
		quit = tui.QuitChan()
		go func() {
			if err := tui.Run(); err != nil {
				p.logger.Error("TUI error", "err", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		p.logger.Info("Shutdown requested")
	case <-quit:
		p.logger.Info("Received quit signal from TUI")
	case runErr = <-errChan:
	}

	if tui != nil {
		tui.Stop()
	}
	cancel()
	wg.Wait()

	return errors.Join(runErr, p.shutdown())
}

// load reads the definitions and optional settings
func (p *Player) load() error {
	if err := p.engine.Init(p.config.DefsPath); err != nil {
		return fmt.Errorf("failed to load definitions: %w", err)
	}

	if p.config.InternalDefs != "" {
		data, err := os.ReadFile(p.config.InternalDefs)
		if err != nil {
			return fmt.Errorf("failed to read internal definitions: %w", err)
		}
		settings, err := defs.ParseInternal(data)
		if err != nil {
			return fmt.Errorf("failed to parse internal definitions: %w", err)
		}
		p.engine.ApplySettings(settings)
		if p.config.Verbose {
			p.engine.SetVerbose(true)
		}
	}

	if p.config.Compressor {
		p.engine.EnableDynamicCompressor(true, -3, 4)
	}

	info := p.engine.TracksInfo()
	p.logger.Info("Project loaded", "file", p.engine.DefsFile(), "tracks", len(info.Tracks),
		"bpm", info.BPM, "beats_per_bar", info.BeatsPerBar)
	return nil
}

// updateLoop drives tension decay and periodic reports
func (p *Player) updateLoop(ctx context.Context) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.engine.Update()
		case <-ctx.Done():
			return
		}
	}
}

// shutdown closes the device before the engine writes its capture
func (p *Player) shutdown() error {
	var errs []error
	if err := p.output.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close audio output: %w", err))
	}
	if err := p.engine.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("engine shutdown: %w", err))
	}
	p.logger.Info("Player stopped")
	return errors.Join(errs...)
}
