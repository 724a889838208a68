// Package sse streams vocabulary and graph changes to clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Vocabulary change kinds accepted by PublishVocabularyEvent.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Event types emitted outside the vocabulary.* family.
const (
	EventGraphReloaded  = "graph.reloaded"
	EventGraphActivated = "graph.activated"
)

const (
	clientBuffer = 64
	historySize  = 128
)

// Event is one message for connected clients. Data is sent as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type subscription struct {
	ch     chan []byte
	lastID uint64
}

type vocabularyChange struct {
	kind string
	name string
}

// Broker fans events out to SSE clients.
//
// One loop goroutine owns the client set, the event history used to resume
// reconnecting clients, and the reload throttle. graph.reloaded is emitted
// at most once per throttle window; changes inside a window collapse into a
// single trailing event carrying the most recent vocabulary name.
type Broker struct {
	reloadMin time.Duration
	keepAlive time.Duration

	joinCh   chan subscription
	leaveCh  chan chan []byte
	eventCh  chan Event
	changeCh chan vocabularyChange
	countCh  chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. A non-positive reloadThrottle means 2s.
func NewBroker(reloadThrottle time.Duration) *Broker {
	if reloadThrottle <= 0 {
		reloadThrottle = 2 * time.Second
	}
	b := &Broker{
		reloadMin: reloadThrottle,
		keepAlive: 30 * time.Second,
		joinCh:    make(chan subscription),
		leaveCh:   make(chan chan []byte),
		eventCh:   make(chan Event, 256),
		changeCh:  make(chan vocabularyChange, 256),
		countCh:   make(chan chan int),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.loop()
	return b
}

type frame struct {
	id  uint64
	raw []byte
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, historySize)
	var nextID uint64

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Slow client; it can catch up through Last-Event-ID.
		}
	}
	emit := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		nextID++
		f := frame{id: nextID, raw: fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", nextID, ev.Type, payload)}
		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, f)
		for ch := range clients {
			send(ch, f.raw)
		}
	}

	var (
		lastReload    time.Time
		pendingReload string
		trailing      *time.Timer
		trailingC     <-chan time.Time
	)
	reload := func(name string) {
		lastReload = time.Now()
		emit(Event{Type: EventGraphReloaded, Data: map[string]string{"name": name}})
	}
	defer func() {
		if trailing != nil {
			trailing.Stop()
		}
	}()

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.joinCh:
			clients[sub.ch] = struct{}{}
			if sub.lastID > 0 {
				for _, f := range history {
					if f.id > sub.lastID {
						send(sub.ch, f.raw)
					}
				}
			}

		case ch := <-b.leaveCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.eventCh:
			emit(ev)

		case c := <-b.changeCh:
			emit(Event{Type: "vocabulary." + c.kind, Data: map[string]string{"name": c.name}})
			wait := b.reloadMin - time.Since(lastReload)
			switch {
			case wait <= 0 && trailingC == nil:
				reload(c.name)
			case trailingC == nil:
				pendingReload = c.name
				trailing = time.NewTimer(wait)
				trailingC = trailing.C
			default:
				pendingReload = c.name
			}

		case <-trailingC:
			trailingC = nil
			reload(pendingReload)

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client for new events.
func (b *Broker) Subscribe() chan []byte {
	return b.Resume(0)
}

// Resume registers a client and first replays retained events newer than
// lastID. Zero means no replay.
func (b *Broker) Resume(lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.joinCh <- subscription{ch: ch, lastID: lastID}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leaveCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.eventCh <- event:
	case <-b.stopped:
	}
}

// PublishVocabularyEvent announces a vocabulary file change and schedules a
// graph.reloaded event. Unknown kinds are ignored.
func (b *Broker) PublishVocabularyEvent(kind, name string) {
	switch kind {
	case KindCreated, KindUpdated, KindDeleted:
	default:
		return
	}
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- vocabularyChange{kind: kind, name: name}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events). A Last-Event-ID
// header resumes after the given event.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Resume(lastID)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
