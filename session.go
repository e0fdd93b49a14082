/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Pokenator widget sessions
//
// Every browser tab opens one websocket and gets its own widget: its own
// game session, point cloud, viewport and detail cache. The browser only
// renders; it forwards pointer, wheel and button events and draws whatever
// the widget sends back.
//
// Features:
// - WebSocket per tab: /ws
// - Widget state lives in a single event loop per connection
// - Widgets auto-reaped after configurable idle timeout
// - In-browser QR button to share the game, backed by go-qrcode

package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/pokenator/widget"
)

const writeWait = 10 * time.Second

type Client struct {
	conn *websocket.Conn
	send chan any
}

type liveWidget struct {
	w      *widget.Widget
	cancel context.CancelFunc
}

// WidgetManager tracks connected widgets so idle ones can be reaped.
type WidgetManager struct {
	mu          sync.Mutex
	widgets     map[string]*liveWidget
	idleTimeout time.Duration

	ctx     context.Context
	backend widget.Backend
	details widget.Details
	opts    widget.Options
}

func newWidgetManager(ctx context.Context, cfg *Config, b widget.Backend, d widget.Details, m *widget.Metrics) *WidgetManager {
	wm := &WidgetManager{
		widgets:     make(map[string]*liveWidget),
		idleTimeout: cfg.sessionTimeout,
		ctx:         ctx,
		backend:     b,
		details:     d,
		opts: widget.Options{
			MaxLabels:      cfg.maxLabels,
			RequestTimeout: cfg.requestTimeout,
			Screen:         cfg.screenOptions(),
			Metrics:        m,
			Logger:         log.Logger,
		},
	}
	if wm.idleTimeout > 0 {
		go wm.reaperLoop()
	}
	return wm
}

// open creates a widget bound to out and a context that ends with the
// server, the reaper, or the caller's cancel.
func (wm *WidgetManager) open(out chan<- any, width float64) (*widget.Widget, context.Context, context.CancelFunc) {
	opts := wm.opts
	opts.InitialWidth = width

	w := widget.New(wm.backend, wm.details, out, opts)
	ctx, cancel := context.WithCancel(wm.ctx)

	wm.mu.Lock()
	wm.widgets[w.ID] = &liveWidget{w: w, cancel: cancel}
	wm.mu.Unlock()

	return w, ctx, cancel
}

func (wm *WidgetManager) close(id string) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if lw, ok := wm.widgets[id]; ok {
		lw.cancel()
		delete(wm.widgets, id)
	}
}

func (wm *WidgetManager) count() int {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	return len(wm.widgets)
}

// reaperLoop periodically ends widgets that have been idle longer than idleTimeout.
func (wm *WidgetManager) reaperLoop() {
	ticker := time.NewTicker(wm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-wm.ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-wm.idleTimeout)

		wm.mu.Lock()
		for id, lw := range wm.widgets {
			if lw.w.LastActive().Before(cutoff) {
				log.Info().Str("widget", id).Msg("GAMES: Reaping idle widget")
				lw.cancel()
				delete(wm.widgets, id)
			}
		}
		wm.mu.Unlock()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWidget(cfg *Config, wm *WidgetManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("client", realIP(r)).Msg("SERVE: Websocket upgrade failed")
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 64),
		}

		wd, ctx, cancel := wm.open(client.send, initialWidth(r))
		defer wm.close(wd.ID)

		logf(cfg, "GAMES: Widget %s connected from %s (%d live)", wd.ID, realIP(r), wm.count())

		in := make(chan widget.Event)

		go client.writePump()
		go client.readPump(ctx, cancel, in)

		if err := wd.Run(ctx, in); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("widget", wd.ID).Msg("GAMES: Widget stopped")
		}
		cancel()

		// Run has returned, so nothing else writes to send.
		close(client.send)

		logf(cfg, "GAMES: Widget %s disconnected", wd.ID)
	}
}

func initialWidth(r *http.Request) float64 {
	if v, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64); err == nil && v > 0 {
		return v
	}

	return 0
}

func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc, in chan<- widget.Event) {
	defer func() {
		cancel()
		close(in)
		_ = c.conn.Close()
	}()

	for {
		var ev widget.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			return
		}

		select {
		case in <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			// keep draining so the widget never blocks on a dead connection
			for range c.send {
			}
			return
		}
	}
}

// QR handler: generates a PNG QR code for the game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr") + "/"

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerWidget sets up routes so that:
//   - $prefix/ws  → WebSocket driving one widget
//   - $prefix/qr  → PNG QR code for the game URL
func registerWidget(cfg *Config, mux *httprouter.Router, wm *WidgetManager) {
	mux.GET(cfg.prefix+"/ws", serveWidget(cfg, wm))

	mux.GET(cfg.prefix+"/qr", qrHandler)
}
