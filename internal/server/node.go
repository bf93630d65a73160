package server

import (
	"fmt"
	"sync"

	"songmesh/internal/config"
	"songmesh/internal/dataType"

	"go.uber.org/zap"
)

type EventKind int

const (
	PeerJoined EventKind = iota
	PeerLeft
	CatalogReceived
	ChatReceived
)

// Event is one inbound notification from the transport layer. All core
// state mutation caused by the network is funneled through the node's
// mailbox as Events and applied by a single consumer goroutine.
type Event struct {
	Kind     EventKind
	PeerID   string
	Envelope dataType.GossipMessage
}

// Node ties the record store, peer registry, remote view and gossip engine
// together behind one event loop.
type Node struct {
	cfg      *config.MainConfig
	log      *zap.Logger
	songs    *dataType.SongStore
	registry *dataType.PeerRegistry
	remote   *dataType.RemoteView
	seen     *dataType.SeenSet
	gossip   *GossipManager

	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	display func(sender, text string)
}

// NewNode wires the stores and the gossip engine to a shared mailbox. The
// transport delivers Events into the same channel; the node's run loop is
// its single consumer.
func NewNode(cfg *config.MainConfig, logger *zap.Logger, transport Transport, events chan Event) *Node {
	songs := dataType.NewSongStore()
	remote := dataType.NewRemoteView()

	n := &Node{
		cfg:      cfg,
		log:      logger,
		songs:    songs,
		registry: dataType.NewPeerRegistry(),
		remote:   remote,
		seen:     dataType.NewSeenSet(cfg.SeenCacheSize),
		gossip:   NewGossipManager(cfg, logger, songs, remote, transport),
		events:   events,
		stop:     make(chan struct{}),
		display: func(sender, text string) {
			fmt.Printf("[%s] %s\n", sender, text)
		},
	}
	return n
}

// SetDisplay replaces the chat display sink.
func (n *Node) SetDisplay(display func(sender, text string)) {
	n.display = display
}

func (n *Node) Start() {
	n.wg.Add(1)
	go n.run()
}

func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		close(n.stop)
	})
	n.wg.Wait()
}

func (n *Node) run() {
	defer n.wg.Done()

	for {
		select {
		case ev := <-n.events:
			n.handleEvent(ev)
		case <-n.stop:
			return
		}
	}
}

func (n *Node) handleEvent(ev Event) {
	switch ev.Kind {
	case PeerJoined:
		if n.registry.Join(ev.PeerID) {
			n.log.Info("peer joined", zap.String("peer", ev.PeerID))
		}
		// A newcomer has no snapshot of us yet; announce unconditionally.
		n.gossip.AnnounceCatalog()

	case PeerLeft:
		n.registry.Leave(ev.PeerID)
		n.remote.Drop(ev.PeerID)
		n.gossip.ForgetPeer(ev.PeerID)
		n.log.Info("peer left", zap.String("peer", ev.PeerID))

	case CatalogReceived:
		// A flooding transport can loop our own envelope back; we never
		// register ourselves as a peer.
		if ev.Envelope.OriginNode != n.cfg.NodeName {
			n.registry.Touch(ev.Envelope.OriginNode)
		}
		n.gossip.HandleCatalog(ev.Envelope)

	case ChatReceived:
		if ev.Envelope.OriginNode != n.cfg.NodeName {
			n.registry.Touch(ev.Envelope.OriginNode)
		}
		n.handleChat(ev.Envelope)
	}
}

// --- command entry points (the surface the interactive interface calls) ---

func (n *Node) CreateSong(title, artist, lyrics string, explicit bool) dataType.Song {
	id := n.songs.Create(title, artist, lyrics, explicit)
	song, _ := n.songs.Get(id)
	return song
}

func (n *Node) PublishSong(id uint64) error {
	changed, err := n.songs.Publish(id)
	if err != nil {
		return err
	}
	if changed {
		n.gossip.AnnounceCatalog()
	}
	return nil
}

func (n *Node) PrivatizeSong(id uint64) error {
	changed, err := n.songs.Privatize(id)
	if err != nil {
		return err
	}
	if changed {
		n.gossip.AnnounceCatalog()
	}
	return nil
}

func (n *Node) DeleteSong(id uint64) error {
	wasPublic, err := n.songs.Delete(id)
	if err != nil {
		return err
	}
	if wasPublic {
		// Peers replace snapshots wholesale, so announcing the reduced
		// catalog is enough for them to converge on the removal.
		n.gossip.AnnounceCatalog()
	}
	return nil
}

func (n *Node) GetSong(id uint64) (dataType.Song, error) {
	return n.songs.Get(id)
}

func (n *Node) LocalSongs() []dataType.Song {
	return n.songs.ListLocal()
}

func (n *Node) RemoteSongs(peerID string) []dataType.RemoteSong {
	return n.remote.Snapshot(peerID)
}

func (n *Node) RemotePeers() []string {
	return n.remote.Peers()
}

func (n *Node) Peers() []dataType.PeerEntry {
	return n.registry.List()
}
