package events

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// safeConn wraps a WebSocket connection with a write mutex so the event
// fan-out and ping replies never write concurrently.
type safeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	return sc.conn.WriteJSON(v)
}

func (sc *safeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}

// Broadcaster exposes a Bus over WebSocket so external observers can watch
// run progress. Observer failures are logged and never reach the run.
type Broadcaster struct {
	bus      *Bus
	upgrader websocket.Upgrader
}

// NewBroadcaster creates a broadcaster over the given bus.
func NewBroadcaster(bus *Bus) *Broadcaster {
	return &Broadcaster{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	sc := &safeConn{conn: conn}
	defer sc.Close()

	subscriber := fmt.Sprintf("ws_%d", time.Now().UnixNano())
	eventCh := b.bus.Subscribe(subscriber)
	defer b.bus.Unsubscribe(subscriber)

	sc.WriteJSON(map[string]any{
		"type": "connection_status",
		"data": map[string]any{"connected": true, "subscriber": subscriber},
	})

	// Reader goroutine: drain client messages and keep the connection alive
	// with pings on read timeout.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		conn.SetReadLimit(64 * 1024)
		for {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					if err := sc.WriteJSON(map[string]any{"type": "ping", "data": time.Now().Unix()}); err != nil {
						return
					}
					continue
				}
				if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket %s read error: %v", subscriber, err)
				}
				return
			}
			if t, _ := msg["type"].(string); t == "ping" {
				sc.WriteJSON(map[string]any{"type": "pong", "data": time.Now().Unix()})
			}
		}
	}()

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := sc.WriteJSON(event); err != nil {
				log.Printf("websocket %s write error: %v", subscriber, err)
				return
			}
		case <-readDone:
			return
		}
	}
}
