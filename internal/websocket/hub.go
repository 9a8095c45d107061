package websocket

import (
	"context"
	"sync"
)

// ChannelKind names a broadcast scope.
type ChannelKind string

const (
	// ChannelKindSession carries events for one session: participant
	// joins and leaves, role changes, status transitions.
	ChannelKindSession ChannelKind = "session"
	// ChannelKindDocument carries events for one document: new
	// versions, restores, comment activity across its sessions.
	ChannelKindDocument ChannelKind = "document"
)

// Channel identifies one broadcast scope, the live feed of a single
// session or a single document.
type Channel struct {
	Kind ChannelKind
	ID   string
}

func SessionChannel(sessionID string) Channel {
	return Channel{Kind: ChannelKindSession, ID: sessionID}
}

func DocumentChannel(documentID string) Channel {
	return Channel{Kind: ChannelKindDocument, ID: documentID}
}

func (ch Channel) String() string {
	return string(ch.Kind) + ":" + ch.ID
}

// subChange asks the hub to add or drop one client on one channel.
type subChange struct {
	client  *Client
	channel Channel
	join    bool
}

// Hub tracks live connections and fans broadcasts out by channel. All
// membership changes flow through the Run loop; Broadcast only takes
// the read lock.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	channels map[Channel]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	changes    chan subChange
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[Channel]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		changes:    make(chan subChange, 512),
	}
}

// Run drives the hub until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.changes:
			if req.join {
				h.joinChannel(req.client, req.channel)
			} else {
				h.leaveChannel(req.client, req.channel)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(client *Client, ch Channel) {
	h.changes <- subChange{client: client, channel: ch, join: true}
}

func (h *Hub) Unsubscribe(client *Client, ch Channel) {
	h.changes <- subChange{client: client, channel: ch, join: false}
}

// Broadcast delivers a payload to every client on the channel. Clients
// with a full outbound buffer miss the message rather than stall the
// hub.
func (h *Hub) Broadcast(ch Channel, payload []byte) {
	h.mu.RLock()
	for c := range h.channels[ch] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SubscriberCount(ch Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[ch])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

// removeClient drops the client from every channel it joined and
// closes its outbound stream.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range client.channels {
		if members, ok := h.channels[ch]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.channels, ch)
			}
		}
	}

	delete(h.clients, client.ID)
	close(client.send)
}

func (h *Hub) joinChannel(client *Client, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[ch]; !ok {
		h.channels[ch] = make(map[*Client]struct{})
	}
	h.channels[ch][client] = struct{}{}
	client.joined(ch)
}

func (h *Hub) leaveChannel(client *Client, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.channels[ch]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.channels, ch)
		}
	}
	client.left(ch)
}
