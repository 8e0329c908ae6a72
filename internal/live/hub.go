// Package live streams intents from websocket clients into editing sessions
// and pushes the resulting state back to every connection of the session.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/metrics"
	"github.com/mydraft/mydraft/backend-go/internal/session"
)

// Room is the set of connections open on one session.
type Room struct {
	sessionID   string
	clients     map[string]*Client // clientID -> client
	unsubscribe func()
}

type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]*Room // sessionID -> room
	sessions *session.Manager
	metrics  *metrics.Metrics

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(sessions *session.Manager, m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		sessions:   sessions,
		metrics:    m,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	view, err := h.sessions.View(ctx, client.SessionID)
	if err != nil {
		client.Send(errorMessage(0, err))
		client.closeSend()
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		room = &Room{sessionID: client.SessionID, clients: make(map[string]*Client)}
		sessionID := client.SessionID
		room.unsubscribe = h.sessions.Subscribe(sessionID, func(v session.View) {
			h.broadcastToRoom(sessionID, stateMessage(TypeState, v))
		})
		h.rooms[client.SessionID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.LiveClients.Inc()
	}
	client.Send(stateMessage(TypeWelcome, view))
	slog.Info("client joined", "session", client.SessionID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()

	var unsubscribe func()
	if len(room.clients) == 0 {
		unsubscribe = room.unsubscribe
		delete(h.rooms, client.SessionID)
	}
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if h.metrics != nil {
		h.metrics.LiveClients.Dec()
	}
	slog.Info("client left", "session", client.SessionID, "client", client.ClientID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			c.closeSend()
			if h.metrics != nil {
				h.metrics.LiveClients.Dec()
			}
		}
		room.unsubscribe()
		delete(h.rooms, id)
	}
}

// Clients reports how many connections are open on a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[sessionID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	var err error
	switch msg.Type {
	case TypeIntent:
		err = h.handleIntents(ctx, sender, msg, []json.RawMessage{msg.Payload})
	case TypeIntents:
		var batch []json.RawMessage
		if err = json.Unmarshal(msg.Payload, &batch); err == nil {
			err = h.handleIntents(ctx, sender, msg, batch)
		}
	case TypeTransaction:
		err = h.handleTransaction(ctx, sender, msg)
	case TypeSave:
		err = h.handleSave(ctx, sender, msg)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		slog.Debug("message rejected", "type", msg.Type, "error", err, "session", sender.SessionID)
		sender.Send(errorMessage(msg.Seq, err))
	}
}

func decodeIntents(raw []json.RawMessage) ([]editor.Intent, error) {
	intents := make([]editor.Intent, 0, len(raw))
	for _, r := range raw {
		in, err := editor.DecodeIntent(r)
		if err != nil {
			return nil, err
		}
		intents = append(intents, in)
	}
	return intents, nil
}

func (h *Hub) handleIntents(ctx context.Context, sender *Client, msg *Message, raw []json.RawMessage) error {
	intents, err := decodeIntents(raw)
	if err != nil {
		return err
	}
	view, err := h.sessions.Dispatch(ctx, sender.SessionID, intents...)
	if err != nil {
		return err
	}
	sender.Send(ackMessage(msg.Seq, view.Revision))
	return nil
}

func (h *Hub) handleTransaction(ctx context.Context, sender *Client, msg *Message) error {
	var tx TransactionPayload
	if err := json.Unmarshal(msg.Payload, &tx); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}
	intents, err := decodeIntents(tx.Intents)
	if err != nil {
		return err
	}
	view, err := h.sessions.Transact(ctx, sender.SessionID, tx.Label, intents...)
	if err != nil {
		return err
	}
	sender.Send(ackMessage(msg.Seq, view.Revision))
	return nil
}

func (h *Hub) handleSave(ctx context.Context, sender *Client, msg *Message) error {
	snap, err := h.sessions.Save(ctx, sender.SessionID)
	if err != nil {
		return err
	}
	payload, _ := json.Marshal(snap)
	sender.Send(&Message{Type: TypeSaved, Seq: msg.Seq, Payload: payload})
	return nil
}

func (h *Hub) broadcastToRoom(sessionID string, msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		c.Send(msg)
	}
}

func stateMessage(typ string, v session.View) *Message {
	payload, err := json.Marshal(v)
	if err != nil {
		return errorMessage(0, err)
	}
	return &Message{Type: typ, SessionID: v.SessionID, Payload: payload}
}

func ackMessage(seq int64, revision uint64) *Message {
	payload, _ := json.Marshal(AckPayload{Revision: revision})
	return &Message{Type: TypeAck, Seq: seq, Payload: payload}
}

func errorMessage(seq int64, err error) *Message {
	payload, _ := json.Marshal(ErrorPayload{Error: err.Error()})
	return &Message{Type: TypeError, Seq: seq, Payload: payload}
}
