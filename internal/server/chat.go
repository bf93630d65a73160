package server

import (
	"encoding/json"
	"time"

	"songmesh/internal/dataType"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendChat broadcasts a chat message to all known peers and displays it
// locally right away, so the sender sees it even on transports that do not
// loop messages back.
func (n *Node) SendChat(text string) {
	content, err := json.Marshal(dataType.ChatPayload{Text: text})
	if err != nil {
		n.log.Error("failed to marshal chat payload", zap.Error(err))
		return
	}

	msg := dataType.GossipMessage{
		Type:       dataType.GossipTypeChat,
		ID:         uuid.New().String(),
		Timestamp:  time.Now().Unix(),
		OriginNode: n.cfg.NodeName,
		Content:    string(content),
	}

	// Mark our own nonce seen so a loopback copy is not shown twice.
	n.seen.Observe(msg.OriginNode, msg.ID)
	n.display(msg.OriginNode, text)
	n.gossip.transport.Broadcast(msg)
}

// handleChat displays an inbound chat envelope unless its (origin, nonce)
// pair was already seen, which happens under flooding or rebroadcast
// topologies.
func (n *Node) handleChat(msg dataType.GossipMessage) {
	var payload dataType.ChatPayload
	if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
		n.log.Error("failed to unmarshal chat payload",
			zap.String("origin", msg.OriginNode),
			zap.Error(err))
		return
	}

	if !n.seen.Observe(msg.OriginNode, msg.ID) {
		return
	}
	n.display(msg.OriginNode, payload.Text)
}
