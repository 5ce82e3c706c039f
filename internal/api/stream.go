package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"saferoute/internal/model"
	"saferoute/internal/poi"
)

// WebSocket stream that fetches POIs for whichever route the client currently
// has selected. Rapid re-selection is debounced server-side and stale results
// are never delivered.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	RouteID string          `json:"routeId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type selectPayload struct {
	Path model.Polyline `json:"path"`
}

// POIStreamHandler handles /v1/pois/stream.
func (s *Server) POIStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteJSON(v)
	}

	sf := poi.NewSelectionFetcher(s.Fetcher, s.Cfg.POI.Debounce.Std(), func(res poi.SelectionResult) {
		if res.Err != nil {
			_ = write(wsMessage{Type: "error", Seq: res.Selection.Seq, RouteID: res.Selection.RouteID,
				Payload: []byte(`{"message":"poi fetch failed"}`)})
			return
		}
		payload, err := json.Marshal(res.POIs)
		if err != nil {
			return
		}
		_ = write(wsMessage{Type: "pois", Seq: res.Selection.Seq, RouteID: res.Selection.RouteID, Payload: payload})
	})
	defer sf.Close()

	// keepalive
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := write(wsMessage{Type: "ping"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "select":
			var pl selectPayload
			if err := json.Unmarshal(msg.Payload, &pl); err != nil || len(pl.Path) < 2 {
				_ = write(wsMessage{Type: "error", Seq: msg.Seq, Payload: []byte(`{"message":"select requires a path with at least 2 points"}`)})
				continue
			}
			sf.Select(poi.Selection{Seq: msg.Seq, RouteID: msg.RouteID, Path: pl.Path})
		default:
			// ignore
		}
	}
}
