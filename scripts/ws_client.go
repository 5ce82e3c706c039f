// Package main runs a demo WebSocket client for the live POI stream.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	RouteID string          `json:"routeId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Plan a walk to get candidate routes
	body := []byte(`{"origin":{"coord":{"lat":52.2297,"lng":21.0122}},"destination":{"coord":{"lat":52.2370,"lng":21.0175}}}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/routes/plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var plan struct {
		Routes []struct {
			RouteID string `json:"routeId"`
			Path    []struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"path"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		log.Fatal(err)
	}
	if len(plan.Routes) == 0 {
		log.Fatal("no routes returned")
	}

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/pois/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s seq=%d route=%s: %s", m.Type, m.Seq, m.RouteID, string(m.Payload))
		}
	}()

	// Flip through each route quickly; the server debounces and only the
	// last selection should produce a POI payload
	for i, rt := range plan.Routes {
		payload, _ := json.Marshal(map[string]any{"path": rt.Path})
		if err := c.WriteJSON(wsMessage{Type: "select", Seq: uint64(i + 1), RouteID: rt.RouteID, Payload: payload}); err != nil {
			log.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	// Wait briefly to receive the result
	select {
	case <-time.After(3 * time.Second):
	case <-done:
	}
}
