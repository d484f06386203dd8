package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vbonduro/pantrysync/internal/domain"
)

// Envelope is the inbound sync message. Clients send their complete list;
// the hub replaces shared state with it wholesale.
type Envelope struct {
	Type string        `json:"type"`
	Data []domain.Item `json:"data"`
}

// Broadcast is the server-originated message fanned out to every client
// after a replacement, including the sender.
type Broadcast struct {
	Type      string        `json:"type"`
	Data      []domain.Item `json:"data"`
	SavedToDB bool          `json:"savedToDB"`
	Timestamp string        `json:"timestamp"`
}

// Classifier enriches a list of items. Implementations must treat items
// independently and never fail the batch.
type Classifier interface {
	ClassifyAll(ctx context.Context, items []domain.Item) []domain.Item
}

// Saver is the persistence collaborator. Failure is non-fatal; the hub only
// records it as the savedToDB flag on the next broadcast.
type Saver interface {
	Save(ctx context.Context, items []domain.Item, updatedAt time.Time) error
}

// Hub owns the shared inventory state and the sync protocol: it validates
// inbound messages, applies last-writer-wins replacement, enriches and
// persists the result best-effort, and fans the outcome out to all clients.
type Hub struct {
	registry   *Registry
	state      *StateStore
	classifier Classifier
	saver      Saver
	logger     *slog.Logger
	now        func() time.Time

	lastSaveOK atomic.Bool
	pipelines  sync.WaitGroup
}

func New(state *StateStore, classifier Classifier, saver Saver, logger *slog.Logger) *Hub {
	h := &Hub{
		registry:   NewRegistry(),
		state:      state,
		classifier: classifier,
		saver:      saver,
		logger:     logger,
		now:        time.Now,
	}
	h.lastSaveOK.Store(true)
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// HandleConnection registers conn, pushes the current state to it, then
// reads sync messages until the connection closes. It blocks for the
// connection's lifetime; the caller runs it per connection.
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	client := h.registry.Add(conn)
	session := client.Session()
	h.logger.Info("client connected", "session", session.ID, "clients", h.registry.Len())

	defer func() {
		h.registry.Remove(conn)
		_ = conn.Close()
		h.logger.Info("client disconnected", "session", session.ID, "clients", h.registry.Len())
	}()

	// New clients render from the authoritative copy straight away.
	if items, _ := h.state.Snapshot(); len(items) > 0 {
		if err := client.Send(h.newBroadcast(items, h.lastSaveOK.Load())); err != nil {
			h.logger.Warn("failed to send initial state", "session", session.ID, "error", err)
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Normal close and transport errors both just end this session;
			// other connections and shared state are unaffected.
			return
		}
		h.handleMessage(context.Background(), session, data)
	}
}

// handleMessage validates and applies one inbound message, then kicks off
// the enrich/persist/broadcast continuation. Apply happens synchronously in
// the reader goroutine so messages from one connection keep their order.
func (h *Hub) handleMessage(ctx context.Context, session *domain.Session, data []byte) {
	items, ok := decodeEnvelope(data)
	if !ok {
		// Malformed messages are dropped; the connection stays open.
		h.logger.Warn("discarding malformed sync message", "session", session.ID, "bytes", len(data))
		return
	}

	seq := h.state.Replace(items)
	h.logger.Info("inventory replaced", "session", session.ID, "items", len(items), "seq", seq)

	h.pipelines.Add(1)
	go func() {
		defer h.pipelines.Done()
		h.runPipeline(ctx, seq)
	}()
}

// runPipeline enriches the state version seq, persists best-effort, and
// broadcasts. If a newer replacement landed while enrichment was in flight
// the enriched result is discarded and the current state is broadcast
// instead: last-writer-wins, never a merge.
func (h *Hub) runPipeline(ctx context.Context, seq uint64) {
	items, current := h.state.Snapshot()
	if current == seq {
		enriched := h.classifier.ClassifyAll(ctx, items)
		if !h.state.ReplaceIfCurrent(seq, enriched) {
			h.logger.Debug("enrichment superseded by newer state", "seq", seq, "current", h.state.Seq())
		}
	}

	final, _ := h.state.Snapshot()

	saved := false
	if err := h.saver.Save(ctx, final, h.state.UpdatedAt()); err != nil {
		h.logger.Error("failed to persist inventory", "error", err)
	} else {
		saved = true
	}
	h.lastSaveOK.Store(saved)

	h.broadcast(final, saved)
}

// broadcast fans the payload out to a snapshot of the open connections. A
// failed send is not retried; that connection's own read loop cleans it up.
func (h *Hub) broadcast(items []domain.Item, saved bool) {
	payload := h.newBroadcast(items, saved)
	for _, client := range h.registry.Snapshot() {
		if err := client.Send(payload); err != nil {
			h.logger.Warn("broadcast send failed", "session", client.Session().ID, "error", err)
		}
	}
}

func (h *Hub) newBroadcast(items []domain.Item, saved bool) Broadcast {
	if items == nil {
		items = []domain.Item{}
	}
	return Broadcast{
		Type:      "update",
		Data:      items,
		SavedToDB: saved,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
}

// Wait blocks until all in-flight pipelines have finished.
func (h *Hub) Wait() {
	h.pipelines.Wait()
}

// Shutdown closes every open connection with a going-away frame, then waits
// for in-flight pipelines to drain. The server stops accepting upgrades
// before calling this.
func (h *Hub) Shutdown() {
	for _, client := range h.registry.Snapshot() {
		client.Close()
	}
	h.pipelines.Wait()
}

// decodeEnvelope reports whether data is a valid sync message and returns
// its item list. Accepted types are "sync" and "update"; anything else, or
// a payload whose data is missing or not a list of item-shaped records, is
// rejected.
func decodeEnvelope(data []byte) ([]domain.Item, bool) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	if env.Type != "sync" && env.Type != "update" {
		return nil, false
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, false
	}
	var items []domain.Item
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, false
	}
	return items, true
}
