// Package monitor serves an optional dashboard over the run driver: a
// JSON snapshot endpoint and a websocket Hub that broadcasts each Run as
// it completes. Entirely a local, opt-in observation surface over this
// engine's own synthetic output — it never touches chain data.
//
// The Hub shape is adapted from broadcasting block-scanner CoinJoin
// alerts to broadcasting completed Runs instead.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboard only
	},
}

// Hub maintains the set of active websocket clients and broadcasts
// completed runs to all of them.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex

	completedRuns []models.Run
}

// NewHub constructs an idle Hub; callers must start Run in a goroutine
// before the runs OnRunComplete broadcasts reach any client.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Run drains the broadcast channel, fanning each message out to every
// connected client. Blocks; call it in its own goroutine.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[monitor] websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request to a websocket and registers the
// connection until the client disconnects.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[monitor] failed to upgrade websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()
	log.Printf("[monitor] client connected, total %d", len(h.clients))

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("[monitor] client disconnected, total %d", len(h.clients))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// OnRunComplete is the rundriver.Config.OnRunComplete hook: it records
// the run for the /runs snapshot endpoint and broadcasts it to every
// connected client as JSON.
func (h *Hub) OnRunComplete(run models.Run) {
	h.mutex.Lock()
	h.completedRuns = append(h.completedRuns, run)
	h.mutex.Unlock()

	payload, err := json.Marshal(run)
	if err != nil {
		log.Printf("[monitor] failed to marshal run: %v", err)
		return
	}
	h.broadcast <- payload
}

// Runs returns a snapshot copy of every run recorded so far.
func (h *Hub) Runs() []models.Run {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	out := make([]models.Run, len(h.completedRuns))
	copy(out, h.completedRuns)
	return out
}
