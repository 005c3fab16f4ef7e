package handlers

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"adwin-rewards/middleware"
	"adwin-rewards/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

func newUpgrader(allowed []string) *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowed) > 0 {
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, err := url.Parse(origin); err != nil {
				return false
			}
			return slices.Contains(allowed, origin)
		}
	}
	return u
}

// Notices streams notices, balance updates and layout changes of the
// signed-in user over a websocket.
func Notices(env *Env) http.HandlerFunc {
	upgrader := newUpgrader(env.AllowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied to the client.
			env.Logger.Warn("websocket upgrade failed", "user_id", uid, "error", err)
			return
		}
		defer conn.Close()

		events, cancel := env.Hub.Subscribe(uid, 0)
		defer cancel()
		env.Logger.Debug("notice stream opened",
			"user_id", uid, "streams", env.Hub.SubscriberCount(uid))

		// Reader: only control frames are expected. It ends the stream when
		// the client goes away.
		done := make(chan struct{})
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
					return
				}
				if err := writeEvent(conn, ev); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev models.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
