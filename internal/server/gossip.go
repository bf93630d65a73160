package server

import (
	"encoding/json"
	"sync"
	"time"

	"songmesh/internal/config"
	"songmesh/internal/dataType"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport delivers a message to all currently known peers, best effort.
// Failures are the transport's to log; the caller never waits on delivery.
type Transport interface {
	Broadcast(msg dataType.GossipMessage)
}

// GossipManager implements the catalog replication protocol: full-state,
// push-based, last-writer-wins per catalog. Every announce carries the
// complete public snapshot, and each node's latest announce is authoritative
// for that node's records.
type GossipManager struct {
	cfg       *config.MainConfig
	log       *zap.Logger
	songs     *dataType.SongStore
	remote    *dataType.RemoteView
	transport Transport

	// announceMu spans snapshot capture and sequence assignment: a higher
	// sequence number must never carry an older snapshot.
	announceMu sync.Mutex
	localSeq   int64

	mu      sync.Mutex
	lastSeq map[string]int64
}

func NewGossipManager(cfg *config.MainConfig, logger *zap.Logger, songs *dataType.SongStore, remote *dataType.RemoteView, transport Transport) *GossipManager {
	return &GossipManager{
		cfg:       cfg,
		log:       logger,
		songs:     songs,
		remote:    remote,
		transport: transport,
		lastSeq:   make(map[string]int64),
	}
}

// AnnounceCatalog serializes the public snapshot and hands it to the
// transport. Fire-and-forget: no retry, no acknowledgment.
func (gm *GossipManager) AnnounceCatalog() {
	gm.announceMu.Lock()
	snapshot := gm.songs.PublicSnapshot()
	gm.localSeq++
	seq := gm.localSeq
	gm.announceMu.Unlock()

	payload := make([]dataType.RemoteSong, 0, len(snapshot))
	for _, s := range snapshot {
		payload = append(payload, dataType.RemoteSong{
			Title:    s.Title,
			Artist:   s.Artist,
			Lyrics:   s.Lyrics,
			Explicit: s.Explicit,
		})
	}

	content, err := json.Marshal(payload)
	if err != nil {
		gm.log.Error("failed to marshal catalog announce", zap.Error(err))
		return
	}

	msg := dataType.GossipMessage{
		Type:       dataType.GossipTypeCatalog,
		ID:         uuid.New().String(),
		Seq:        seq,
		Timestamp:  time.Now().Unix(),
		OriginNode: gm.cfg.NodeName,
		Content:    string(content),
	}

	gm.transport.Broadcast(msg)
}

// HandleCatalog applies one inbound announce: the origin's snapshot is
// replaced wholesale. Malformed payloads are logged and dropped without
// touching existing snapshots.
func (gm *GossipManager) HandleCatalog(msg dataType.GossipMessage) {
	if msg.OriginNode == gm.cfg.NodeName {
		// Loopback from a flooding transport; our own records never
		// enter the remote view.
		return
	}

	// Unmarshal before the ordering check so a corrupted copy never
	// consumes its sequence number; a clean retransmission of the same
	// announce must still be accepted.
	var songs []dataType.RemoteSong
	if err := json.Unmarshal([]byte(msg.Content), &songs); err != nil {
		gm.log.Error("failed to unmarshal catalog announce",
			zap.String("origin", msg.OriginNode),
			zap.Error(err))
		return
	}

	if !gm.acceptSeq(msg.OriginNode, msg.Seq) {
		gm.log.Debug("dropped stale catalog announce",
			zap.String("origin", msg.OriginNode),
			zap.Int64("seq", msg.Seq))
		return
	}

	gm.remote.Replace(msg.OriginNode, songs)
	gm.log.Info("catalog snapshot replaced",
		zap.String("origin", msg.OriginNode),
		zap.Int("songs", len(songs)))
}

// acceptSeq enforces per-origin announce ordering. With
// trust_transport_order set the check is skipped entirely, for transports
// that already deliver in order.
func (gm *GossipManager) acceptSeq(origin string, seq int64) bool {
	if gm.cfg.TrustTransportOrder {
		return true
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	if seq <= gm.lastSeq[origin] {
		return false
	}
	gm.lastSeq[origin] = seq
	return true
}

// ForgetPeer clears ordering state for a departed peer so a restarted
// instance of it is not rejected for reusing low sequence numbers.
func (gm *GossipManager) ForgetPeer(origin string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	delete(gm.lastSeq, origin)
}
