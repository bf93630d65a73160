package server

import (
	"fmt"
	"net"
	"strings"
	"time"

	"songmesh/internal/config"

	"go.uber.org/zap"
)

const discoveryDelimiter = "|"

// Discovery announces this node on a UDP multicast group and surfaces
// addresses announced by others, so nodes on the same network find each
// other without static configuration.
type Discovery struct {
	cfg      *config.MainConfig
	log      *zap.Logger
	conn     *net.UDPConn
	mcast    *net.UDPAddr
	selfAddr string
	found    func(addr string)
	stop     chan struct{}
}

func NewDiscovery(cfg *config.MainConfig, logger *zap.Logger, selfAddr string, found func(addr string)) (*Discovery, error) {
	mcastAddr, err := net.ResolveUDPAddr("udp", cfg.Discovery.MulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve multicast addr %s: %w", cfg.Discovery.MulticastAddr, err)
	}

	conn, err := net.ListenMulticastUDP("udp", nil, mcastAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to join multicast group %s: %w", cfg.Discovery.MulticastAddr, err)
	}

	return &Discovery{
		cfg:      cfg,
		log:      logger,
		conn:     conn,
		mcast:    mcastAddr,
		selfAddr: selfAddr,
		found:    found,
		stop:     make(chan struct{}),
	}, nil
}

func (d *Discovery) Start() {
	d.log.Info("auto-discovery enabled", zap.String("group", d.cfg.Discovery.MulticastAddr))
	go d.announcePresence()
	go d.listen()
}

func (d *Discovery) Stop() {
	close(d.stop)
	if err := d.conn.Close(); err != nil {
		d.log.Warn("failed to close discovery socket", zap.Error(err))
	}
}

func (d *Discovery) announcePresence() {
	interval := time.Duration(d.cfg.Discovery.AnnounceIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			message := strings.Join([]string{"ANNOUNCE", d.cfg.NodeName, d.selfAddr}, discoveryDelimiter)
			if _, err := d.conn.WriteToUDP([]byte(message), d.mcast); err != nil {
				d.log.Warn("discovery announce failed", zap.Error(err))
			}
		case <-d.stop:
			return
		}
	}
}

func (d *Discovery) listen() {
	buf := make([]byte, 1024)
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if err := d.conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			d.log.Warn("discovery deadline failed", zap.Error(err))
			return
		}
		n, _, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-d.stop:
				return
			default:
				d.log.Warn("discovery read error", zap.Error(err))
				continue
			}
		}

		parts := strings.Split(string(buf[:n]), discoveryDelimiter)
		if len(parts) != 3 || parts[0] != "ANNOUNCE" {
			continue
		}
		name, addr := parts[1], parts[2]
		if name == d.cfg.NodeName || addr == d.selfAddr || addr == "" {
			continue
		}
		d.found(addr)
	}
}
