// ABOUTME: Command-line remote control for adaptive music players
// ABOUTME: Finds a player via mDNS or address, sends one command or watches state
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/internal/discovery"
	"github.com/Resonate-Protocol/adaptive-go/pkg/protocol"
	"github.com/charmbracelet/log"
)

var (
	serverAddr = flag.String("server", "", "Player address host:port (skip mDNS)")
	playerName = flag.String("player", "", "Pick the discovered player with this name")
	timeout    = flag.Duration("timeout", 3*time.Second, "mDNS browse timeout")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

const usage = `usage: adaptive-ctl [flags] <command> [args]

commands:
  list                         list players on the network
  state                        print the player state once
  watch                        print state updates until interrupted
  tracks                       list the player's tracks
  play <name>                  play a track by name
  play-id <id>                 play a track by index
  play-contains <text>         play a random track whose name contains text
  play-group <group> [sub]     play a random track of a group
  stop | finish                stop now, or at the next bar through the ending
  sfx <name> [volume] [pan]    play a sound effect
  sfx-stop                     silence all sound effects
  cond <id> <value>            set a condition
  tension add|set <value>      change tension
  volume <0-100>               set master volume
  layer <name> <gain>          set a layer's gain
  pause | resume | toggle      pause control

flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, args []string) error {
	if args[0] == "list" {
		players, err := discovery.Browse(ctx, *timeout)
		if err != nil {
			return err
		}
		if len(players) == 0 {
			fmt.Println("no players found")
		}
		for _, p := range players {
			fmt.Printf("%-30s %s%s\n", p.Name, p.Addr(), p.Path)
		}
		return nil
	}

	addr, err := resolve(ctx)
	if err != nil {
		return err
	}

	c := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		Name:       "adaptive-ctl",
		Logger:     logger,
	})
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	switch args[0] {
	case "tracks":
		for _, t := range c.Hello.Tracks {
			fmt.Println(t)
		}
		return nil
	case "state", "watch":
		return printStates(ctx, c, args[0] == "watch")
	}

	msgType, payload, err := buildCommand(args)
	if err != nil {
		return err
	}
	if err := c.Send(msgType, payload); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	// Commands are acknowledged only by errors; wait briefly for one
	select {
	case e := <-c.Errors:
		return fmt.Errorf("%s: %s", e.Error, e.Message)
	case <-time.After(300 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return nil
	}
}

// resolve picks the player address from -server or mDNS
func resolve(ctx context.Context) (string, error) {
	if *serverAddr != "" {
		return *serverAddr, nil
	}

	players, err := discovery.Browse(ctx, *timeout)
	if err != nil {
		return "", err
	}
	for _, p := range players {
		if *playerName == "" || strings.EqualFold(p.Name, *playerName) {
			return p.Addr(), nil
		}
	}
	if *playerName != "" {
		return "", fmt.Errorf("player %q not found", *playerName)
	}
	return "", errors.New("no players found, use -server")
}

func printStates(ctx context.Context, c *protocol.Client, follow bool) error {
	for {
		select {
		case s := <-c.States:
			fmt.Println(formatState(s))
			if !follow {
				return nil
			}
		case e := <-c.Errors:
			return fmt.Errorf("%s: %s", e.Error, e.Message)
		case <-c.Done():
			return errors.New("connection closed")
		case <-ctx.Done():
			return nil
		}
	}
}

func formatState(s protocol.ServerState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", s.State)
	if s.Paused {
		b.WriteString(" (paused)")
	}
	if s.Track != "" {
		fmt.Fprintf(&b, " track=%s", s.Track)
	}
	if s.Audio != "" {
		fmt.Fprintf(&b, " audio=%s", s.Audio)
	}
	if s.Tail != "" {
		fmt.Fprintf(&b, " tail=%s", s.Tail)
	}
	fmt.Fprintf(&b, " bar=%d tension=%d volume=%d sfx=%d", s.Bars, s.Tension, s.Volume, s.Sfx)
	if s.Clipping > 0 {
		fmt.Fprintf(&b, " clipping=%d", s.Clipping)
	}
	return b.String()
}
