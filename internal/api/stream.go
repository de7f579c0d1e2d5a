// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/internal/search"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamIdleTimeout  = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// streamRequest is one client message: the current input text. Submit
// skips the debounce, as pressing Enter does.
type streamRequest struct {
	Query  string `json:"query"`
	Submit bool   `json:"submit,omitempty"`
}

// searchStream serves a search bar over a websocket. Each message updates
// the input; the connection receives the latest state after every change,
// loading states included. A connection owns its own dispatcher.
func (s *Server) searchStream(w http.ResponseWriter, r *http.Request) {
	if s.d.Registry == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "search is not configured")
		return
	}
	log := logger.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	kick := make(chan struct{}, 1)
	opts := append(append([]search.Option{}, s.d.DispatchOptions...),
		search.WithOnChange(func(search.Snapshot) {
			select {
			case kick <- struct{}{}:
			default:
			}
		}))
	d := search.NewDispatcher(s.d.Registry, opts...)
	defer d.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(streamIdleTimeout))
			var msg streamRequest
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("search stream read ended", zap.Error(err))
				}
				return
			}
			d.SetQuery(msg.Query)
			if msg.Submit {
				d.Flush()
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-kick:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(render(s.d.Registry, d.Snapshot())); err != nil {
				log.Debug("search stream write failed", zap.Error(err))
				return
			}
		}
	}
}
