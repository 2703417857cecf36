// ABOUTME: mDNS discovery for adaptive music players
// ABOUTME: Players advertise their control endpoint, controllers browse for them
package discovery

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service players advertise
const ServiceType = "_adaptive-music._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // control endpoint, advertised as path=<Path>
	Logger      *log.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	players chan *Player

	mu     sync.Mutex
	server *mdns.Server
}

// Player describes a discovered player
type Player struct {
	Name string
	Host string
	Port int
	Path string
}

// Addr returns host:port
func (p *Player) Addr() string {
	return net.JoinHostPort(p.Host, fmt.Sprint(p.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/"
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *Player, 10),
	}
}

// Advertise announces this player until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	m.logger.Info("Advertising mDNS service", "name", m.config.ServiceName, "port", m.config.Port, "type", ServiceType)
	return nil
}

// Browse queries once and returns the players that answered within timeout
func Browse(ctx context.Context, timeout time.Duration) ([]*Player, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var found []*Player
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			p := playerFromEntry(entry)
			if p == nil || seen[p.Addr()] {
				continue
			}
			seen[p.Addr()] = true
			found = append(found, p)
		}
	}()

	err := query(ctx, timeout, entries)
	close(entries)
	<-done

	if err != nil {
		return found, fmt.Errorf("mdns query failed: %w", err)
	}
	return found, nil
}

// Watch browses continuously, sending new players to Players()
func (m *Manager) Watch() {
	go m.watchLoop()
}

func (m *Manager) watchLoop() {
	seen := make(map[string]bool)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				p := playerFromEntry(entry)
				if p == nil || seen[p.Addr()] {
					continue
				}
				seen[p.Addr()] = true
				m.logger.Info("Discovered player", "name", p.Name, "addr", p.Addr())

				select {
				case m.players <- p:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		if err := query(m.ctx, 3*time.Second, entries); err != nil {
			m.logger.Debug("mDNS query failed", "err", err)
		}
		close(entries)
		<-done
	}
}

func query(ctx context.Context, timeout time.Duration, entries chan<- *mdns.ServiceEntry) error {
	params := mdns.DefaultParams(ServiceType)
	params.Domain = "local"
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	errChan := make(chan error, 1)
	go func() { errChan <- mdns.Query(params) }()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		// Query returns on its own once timeout elapses
		return <-errChan
	}
}

// playerFromEntry converts an mDNS answer, nil when it has no usable address
func playerFromEntry(entry *mdns.ServiceEntry) *Player {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		return nil
	}

	p := &Player{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: host,
		Port: entry.Port,
		Path: "/",
	}
	for _, field := range entry.InfoFields {
		if v, ok := strings.CutPrefix(field, "path="); ok && v != "" {
			p.Path = v
		}
	}
	return p
}

// Players returns the channel of players found by Watch
func (m *Manager) Players() <-chan *Player {
	return m.players
}

// Stop ends advertisement and browsing
func (m *Manager) Stop() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}
}

// getLocalIPs returns the IPv4 addresses of the up, non-loopback interfaces
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
