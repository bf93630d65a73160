package dataType

type GossipMessage struct {
	Type       string `json:"type"`        // e.g., "CATALOG_ANNOUNCE", "CHAT"
	ID         string `json:"id"`          // UUID, doubles as the chat nonce
	Seq        int64  `json:"seq"`         // Per-node announce sequence number
	Timestamp  int64  `json:"timestamp"`   // Creation time
	OriginNode string `json:"origin_node"` // Node that originated the message
	Content    string `json:"content"`     // JSON payload
}

const (
	GossipTypeCatalog = "CATALOG_ANNOUNCE"
	GossipTypeChat    = "CHAT"
)

// RemoteSong is one entry of a catalog announce. Ids are deliberately
// absent: the id space is local to the owning node, remote records are
// addressed by peer plus position.
type RemoteSong struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Lyrics   string `json:"lyrics"`
	Explicit bool   `json:"explicit"`
}

type ChatPayload struct {
	Text string `json:"text"`
}
