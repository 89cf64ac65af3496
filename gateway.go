// Pairup session gateway
//
// Two players share a room identified by a 6-character code and answer the
// same question at the same time. Once both answers are in, the server
// reveals them side by side, awards points for a match, and after a short
// pacing beat deals out a random challenge for the pair to do together.
//
// Features:
// - One websocket endpoint: /pair/ws; rooms are created and joined by event
// - Room codes are crypto-random, uppercase alphanumeric, collision-checked
// - Answer matching is whitespace- and case-insensitive
// - Discussion prompt shown only when answers disagree
// - Disconnects tear down empty rooms and notify the remaining player
// - In-browser QR button to share the join link, backed by go-qrcode

package main

import (
	_ "embed"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type Client struct {
	conn *websocket.Conn
	send chan any
	id   ConnID
}

// wsGateway routes outbound events to live websocket connections. It is
// the Gateway the Registry broadcasts through.
type wsGateway struct {
	mu      sync.RWMutex
	clients map[ConnID]*Client
}

func newWSGateway() *wsGateway {
	return &wsGateway{
		clients: make(map[ConnID]*Client),
	}
}

// Send delivers msg to one connection without blocking; clients that can't
// keep up are dropped rather than stalling a room.
func (gw *wsGateway) Send(id ConnID, msg any) {
	gw.mu.RLock()

	c := gw.clients[id]
	if c == nil {
		gw.mu.RUnlock()
		return
	}

	// The channel is only closed under the write lock, so holding the
	// read lock across the send keeps this race-free.
	select {
	case c.send <- msg:
		gw.mu.RUnlock()
	default:
		gw.mu.RUnlock()
		gw.drop(c)
	}
}

// drop unregisters a client and closes its send channel exactly once.
func (gw *wsGateway) drop(c *Client) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	if gw.clients[c.id] == c {
		delete(gw.clients, c.id)
		close(c.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades the connection, assigns it an opaque connection ID, and
// pumps events between the socket and the Registry.
func serveWS(cfg *Config, gw *wsGateway, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
			id:   ConnID(uuid.NewString()),
		}

		gw.mu.Lock()
		gw.clients[client.id] = client
		gw.mu.Unlock()

		logf(cfg, "CONNS: Connection %s opened from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(cfg, gw, reg)
	}
}

func (c *Client) readPump(cfg *Config, gw *wsGateway, reg *Registry) {
	defer func() {
		if code, ok := reg.RemovePlayer(c.id); ok {
			logf(cfg, "CONNS: Connection %s left room %s", c.id, code)
		}
		gw.drop(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "create-room":
			reg.CreateRoom(c.id, msg.Name)
		case "join-room":
			if err := reg.JoinRoom(msg.RoomCode, c.id, msg.Name); err != nil {
				gw.Send(c.id, ErrorMessage{
					Type:    "error",
					Message: err.Error(),
				})
			}
		case "start-game":
			reg.StartGame(msg.RoomCode)
		case "submit-answer":
			reg.SubmitAnswer(msg.RoomCode, c.id, msg.Answer)
		case "next-round":
			reg.NextRound(msg.RoomCode)
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the room join URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := normalizeCode(ps.ByName("code"))
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr/:code; strip the trailing "/qr/:code" to get the
	// game URL and pass the room code as a query parameter.
	path := strings.TrimSuffix(r.URL.Path, "/qr/"+ps.ByName("code"))

	url := scheme + "://" + r.Host + path + "?code=" + code

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed web/index.html
var indexHTML []byte

//go:embed web/app.css
var pairupCSS []byte

//go:embed web/app.js
var pairupJS []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(pairupCSS)
	}
}

func getJsHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(pairupJS)
	}
}

// registerPairGame sets up routes so that:
//   - $path            → HTML client
//   - $path/ws         → WebSocket carrying all game events
//   - $path/qr/:code   → PNG QR code for the room join URL
func registerPairGame(cfg *Config, path string, mux *httprouter.Router, content *ContentStore) *Registry {
	gw := newWSGateway()
	reg := newRegistry(cfg, content, gw)

	// Client view (HTML)
	mux.GET(cfg.prefix+path, getIndexHandler(cfg))

	// Shared assets
	mux.GET(cfg.prefix+"/assets/pair/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/pair/app.js", getJsHandler(cfg))

	// Game websocket
	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, gw, reg))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/qr/:code", qrHandler)

	return reg
}
