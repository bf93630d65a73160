package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"songmesh/internal/config"
	"songmesh/internal/dataType"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PeerIdentity is exchanged in the join handshake so both sides learn each
// other's name and dial address.
type PeerIdentity struct {
	NodeName string `json:"node_name"`
	Address  string `json:"address"`
}

// HTTPTransport pushes gossip envelopes to peers over plain HTTP POSTs and
// feeds inbound envelopes and membership changes into the node's mailbox.
// Delivery is best effort: unreachable peers are logged and skipped.
type HTTPTransport struct {
	cfg      *config.MainConfig
	log      *zap.Logger
	events   chan<- Event
	selfAddr string

	mu    sync.RWMutex
	addrs map[string]string // peer name -> base address

	client *http.Client
	srv    *http.Server
}

func NewHTTPTransport(cfg *config.MainConfig, logger *zap.Logger, events chan<- Event, selfAddr string) *HTTPTransport {
	t := &HTTPTransport{
		cfg:      cfg,
		log:      logger,
		events:   events,
		selfAddr: selfAddr,
		addrs:    make(map[string]string),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, p := range cfg.Peers {
		if p.Name != "" {
			t.addrs[p.Name] = p.Address
		}
	}
	return t
}

func (t *HTTPTransport) Router() *mux.Router {
	r := mux.NewRouter()
	sub := r.PathPrefix(t.cfg.WebPath).Subrouter()
	sub.HandleFunc("/gossip", t.handleGossip).Methods(http.MethodPost)
	sub.HandleFunc("/join", t.handleJoin).Methods(http.MethodPost)
	sub.HandleFunc("/leave", t.handleLeave).Methods(http.MethodPost)
	sub.HandleFunc("/health_check", t.handleHealthCheck).Methods(http.MethodGet)
	return r
}

func (t *HTTPTransport) ListenAndServe() error {
	t.srv = &http.Server{
		Addr:    ":" + t.cfg.Port,
		Handler: t.Router(),
	}
	t.log.Info("transport listening", zap.String("port", t.cfg.Port))
	return t.srv.ListenAndServe()
}

func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	if t.srv == nil {
		return nil
	}
	return t.srv.Shutdown(ctx)
}

// Broadcast sends the envelope to every registered peer. The caller does
// not wait for delivery.
func (t *HTTPTransport) Broadcast(msg dataType.GossipMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		t.log.Error("failed to marshal gossip envelope", zap.Error(err))
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for name, addr := range t.addrs {
		go t.send(name, addr, data)
	}
}

func (t *HTTPTransport) send(name, addr string, data []byte) {
	url := addr + t.cfg.WebPath + "/gossip"

	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		t.log.Warn("peer unreachable",
			zap.String("peer", name),
			zap.String("address", addr),
			zap.Error(err))
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.log.Warn("failed to close response body", zap.String("peer", name), zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		t.log.Warn("peer rejected gossip",
			zap.String("peer", name),
			zap.Int("status", resp.StatusCode))
	}
}

// Join performs the handshake with a peer at addr: we present our identity,
// the peer answers with its own, and both sides register each other.
func (t *HTTPTransport) Join(addr string) error {
	self := PeerIdentity{NodeName: t.cfg.NodeName, Address: t.selfAddr}
	data, err := json.Marshal(self)
	if err != nil {
		return err
	}

	resp, err := t.client.Post(addr+t.cfg.WebPath+"/join", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("join %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("join %s: status %d", addr, resp.StatusCode)
	}

	var peer PeerIdentity
	if err := json.NewDecoder(resp.Body).Decode(&peer); err != nil {
		return fmt.Errorf("join %s: %w", addr, err)
	}
	if peer.NodeName == "" {
		return fmt.Errorf("join %s: peer sent no name", addr)
	}

	t.register(peer.NodeName, addr)
	t.emit(Event{Kind: PeerJoined, PeerID: peer.NodeName})
	return nil
}

// JoinAll dials every statically configured peer. Unreachable ones are
// logged and retried never; discovery or a later inbound join picks them up.
func (t *HTTPTransport) JoinAll() {
	for _, p := range t.cfg.Peers {
		go func(addr string) {
			if err := t.Join(addr); err != nil {
				t.log.Warn("bootstrap join failed", zap.Error(err))
			}
		}(p.Address)
	}
}

// Discovered is the discovery callback: dial addresses we have not yet
// registered.
func (t *HTTPTransport) Discovered(addr string) {
	if addr == t.selfAddr {
		return
	}
	t.mu.RLock()
	for _, known := range t.addrs {
		if known == addr {
			t.mu.RUnlock()
			return
		}
	}
	t.mu.RUnlock()

	if err := t.Join(addr); err != nil {
		t.log.Warn("discovered peer join failed", zap.Error(err))
	}
}

// NotifyLeave tells all peers this node is going away. Best effort, used
// on shutdown.
func (t *HTTPTransport) NotifyLeave() {
	data, err := json.Marshal(PeerIdentity{NodeName: t.cfg.NodeName})
	if err != nil {
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for name, addr := range t.addrs {
		resp, err := t.client.Post(addr+t.cfg.WebPath+"/leave", "application/json", bytes.NewBuffer(data))
		if err != nil {
			t.log.Warn("leave notify failed", zap.String("peer", name), zap.Error(err))
			continue
		}
		resp.Body.Close()
	}
}

func (t *HTTPTransport) register(name, addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addrs[name] = addr
}

func (t *HTTPTransport) unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.addrs, name)
}

// emit delivers an event into the node's mailbox without blocking the
// HTTP handler; a full mailbox drops the event.
func (t *HTTPTransport) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		t.log.Warn("event mailbox full, dropping event", zap.Int("kind", int(ev.Kind)))
	}
}

func (t *HTTPTransport) handleGossip(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			t.log.Warn("failed to close request body", zap.Error(err))
		}
	}()

	var msg dataType.GossipMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if msg.OriginNode == "" {
		http.Error(w, "Missing origin_node", http.StatusBadRequest)
		return
	}

	switch msg.Type {
	case dataType.GossipTypeCatalog:
		t.emit(Event{Kind: CatalogReceived, PeerID: msg.OriginNode, Envelope: msg})
	case dataType.GossipTypeChat:
		t.emit(Event{Kind: ChatReceived, PeerID: msg.OriginNode, Envelope: msg})
	default:
		// Unknown types are acknowledged and dropped; a peer speaking a
		// newer protocol is not an error on our side.
		t.log.Warn("dropped gossip envelope with unknown type",
			zap.String("type", msg.Type),
			zap.String("origin", msg.OriginNode))
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ACK")); err != nil {
		t.log.Error("failed to write ACK response", zap.Error(err))
	}
}

func (t *HTTPTransport) handleJoin(w http.ResponseWriter, r *http.Request) {
	var peer PeerIdentity
	if err := json.NewDecoder(r.Body).Decode(&peer); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if peer.NodeName == "" || peer.Address == "" {
		http.Error(w, "Missing node_name or address", http.StatusBadRequest)
		return
	}

	t.register(peer.NodeName, peer.Address)
	t.emit(Event{Kind: PeerJoined, PeerID: peer.NodeName})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(PeerIdentity{NodeName: t.cfg.NodeName, Address: t.selfAddr}); err != nil {
		t.log.Error("failed to write join response", zap.Error(err))
	}
}

func (t *HTTPTransport) handleLeave(w http.ResponseWriter, r *http.Request) {
	var peer PeerIdentity
	if err := json.NewDecoder(r.Body).Decode(&peer); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if peer.NodeName == "" {
		http.Error(w, "Missing node_name", http.StatusBadRequest)
		return
	}

	t.unregister(peer.NodeName)
	t.emit(Event{Kind: PeerLeft, PeerID: peer.NodeName})

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ACK")); err != nil {
		t.log.Error("failed to write ACK response", zap.Error(err))
	}
}

func (t *HTTPTransport) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		t.log.Error("failed to write health response", zap.Error(err))
	}
}

// AdvertiseAddr builds the address peers should dial to reach this node,
// preferring the first non-loopback IPv4 interface.
func AdvertiseAddr(port string) string {
	host := "127.0.0.1"
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if v4 := ipNet.IP.To4(); v4 != nil {
				host = v4.String()
				break
			}
		}
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}
