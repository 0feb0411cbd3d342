// Package statusapi exposes an optional, off-by-default HTTP+WebSocket
// surface over an in-progress extraction run: GET /status and GET /reports
// for a point-in-time snapshot, and GET /events for a live feed of reports
// as they are produced. Grounded on api/api.go's httprouter.New() wiring
// and api/websocket.go's WebsocketHub/Subscriber/SocketWriter broadcast
// pattern, repurposed from broadcasting blocks/transactions to broadcasting
// report.Report values.
package statusapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/ARDIEY21/unblob/report"
)

// WriteTimeout bounds how long a subscriber write may block.
const WriteTimeout = 5 * time.Second

// Upgrader upgrades an HTTP connection to a WebSocket for /events.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Source is whatever the status surface reads run state from; *report.Reports
// satisfies it via Snapshot/ExitCode.
type Source interface {
	Snapshot() []report.Report
	ExitCode() int
}

// Hub broadcasts newly produced reports to any connected /events
// subscribers, and answers /status and /reports from a Source snapshot.
type Hub struct {
	source Source

	subscribers map[*subscriber]bool
	register    chan *subscriber
	unregister  chan *subscriber
	broadcast   chan report.Report
}

type subscriber struct {
	conn *websocket.Conn
	send chan report.Report
}

// NewHub returns a Hub reading run state from source.
func NewHub(source Source) *Hub {
	return &Hub{
		source:      source,
		subscribers: make(map[*subscriber]bool),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan report.Report, 64),
	}
}

// Broadcast fans rep out to every connected /events subscriber. Safe to
// call concurrently with Run.
func (h *Hub) Broadcast(rep report.Report) {
	h.broadcast <- rep
}

// Run services registration and broadcast until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case s := <-h.register:
			h.subscribers[s] = true
		case s := <-h.unregister:
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.send)
			}
		case rep := <-h.broadcast:
			for s := range h.subscribers {
				select {
				case s.send <- rep:
				default:
					close(s.send)
					delete(h.subscribers, s)
				}
			}
		case <-stop:
			return
		}
	}
}

// Handler builds the httprouter mux serving /status, /reports and /events.
func (h *Hub) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/status", h.statusHandler)
	router.GET("/reports", h.reportsHandler)
	router.GET("/events", h.eventsHandler)
	return router
}

func (h *Hub) statusHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]interface{}{
		"exit_code":    h.source.ExitCode(),
		"report_count": len(h.source.Snapshot()),
	})
}

func (h *Hub) reportsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, h.source.Snapshot())
}

func (h *Hub) eventsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("statusapi: upgrade failed: %s", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan report.Report, 32)}
	h.register <- s
	go s.writeLoop(h)
}

func (s *subscriber) writeLoop(h *Hub) {
	defer s.conn.Close()
	for rep := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if err := s.conn.WriteJSON(rep); err != nil {
			h.unregister <- s
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
