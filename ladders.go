/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/Seednode/ladders/game"
	"github.com/Seednode/ladders/tasks"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 32
	qrSize         = 320
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func newLimiter(cfg *Config) *rate.Limiter {
	if cfg.rateLimit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(cfg.rateLimit), max(cfg.rateBurst, 1))
}

func serveWS(cfg *Config, hub *game.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := game.NewClient(uuid.NewString(), sendBuffer, newLimiter(cfg))

		if err := hub.Register(r.Context(), client); err != nil {
			_ = conn.Close()
			return
		}

		logf(cfg, "WS: Client %s connected from %s", client.ID, realIP(r))

		go writePump(conn, client)
		readPump(r.Context(), conn, hub, client)

		logf(cfg, "WS: Client %s disconnected", client.ID)
	}
}

func readPump(ctx context.Context, conn *websocket.Conn, hub *game.Hub, c *game.Client) {
	defer func() {
		hub.Unregister(c)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if err := hub.Submit(ctx, c, data); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, c *game.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Outbox():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// baseURL derives the public address of the server, respecting TLS and
// X-Forwarded-Proto if present.
func baseURL(cfg *Config, r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix
}

func writeQR(cfg *Config, w http.ResponseWriter, content string, errs chan<- error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	securityHeaders(cfg, w)

	if _, err := w.Write(png); err != nil {
		errs <- err
	}
}

// serveJoinQR encodes the address players open to join the lobby.
func serveJoinQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeQR(cfg, w, baseURL(cfg, r)+"/", errs)
	}
}

// serveTaskQR renders the card printed for a special tile. Scanning it
// yields the task id the client sends back with its answer.
func serveTaskQR(cfg *Config, bank *tasks.Bank, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("taskid")
		if _, ok := bank.ByID(id); !ok {
			http.Error(w, "unknown task", http.StatusNotFound)
			return
		}

		writeQR(cfg, w, tasks.QRPayload(id), errs)
	}
}

func serveState(cfg *Config, hub *game.Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		snap, err := hub.State(ctx)
		if err != nil {
			http.Error(w, "game server unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(snap); err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: State to %s in %s", realIP(r), time.Since(startTime).Round(time.Microsecond))
	}
}

// registerLadders sets up routes so that:
//   - $prefix/ws               → WebSocket for lobby, games and admin
//   - $prefix/game/:playerid   → page linked from a player's gameStart
//   - $prefix/api/state        → JSON snapshot of lobby and games
//   - $prefix/qr/join          → PNG QR code for the join URL
//   - $prefix/qr/tasks/:taskid → PNG QR code for a task card
func registerLadders(cfg *Config, hub *game.Hub, bank *tasks.Bank, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, hub))

	mux.GET(cfg.prefix+"/game/:playerid", serveHomePage(cfg, hub, errs))

	mux.GET(cfg.prefix+"/api/state", serveState(cfg, hub, errs))

	mux.GET(cfg.prefix+"/qr/join", serveJoinQR(cfg, errs))

	mux.GET(cfg.prefix+"/qr/tasks/:taskid", serveTaskQR(cfg, bank, errs))
}
