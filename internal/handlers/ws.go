package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type progressMessage struct {
	Type     string            `json:"type"`
	Progress progress.Snapshot `json:"progress"`
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(deps.Config.Server.AllowedOrigins, origin)
}

// ProgressSocket streams progress snapshots for an upload until it finishes
// or the client goes away.
func ProgressSocket(c *gin.Context) {
	uploadID := c.Param("upload_id")

	if _, ok := visibleProgress(c); !ok {
		return
	}

	updates, unsubscribe, ok := deps.Progress.Subscribe(uploadID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return
	}
	defer unsubscribe()

	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		deps.Log.Warn("WebSocket upgrade failed", "upload_id", uploadID, "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		deps.Log.Warn("Failed to set initial read deadline", "upload_id", uploadID, "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The read loop only serves control frames and notices the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					deps.Log.Debug("WebSocket read failed", "upload_id", uploadID, "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, open := <-updates:
			if !open {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "upload finished"))
				return
			}

			msgType := "progress"
			if snap.Done() {
				msgType = "finished"
			}

			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(progressMessage{Type: msgType, Progress: snap}); err != nil {
				deps.Log.Debug("Failed to write progress", "upload_id", uploadID, "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				deps.Log.Debug("Ping failed", "upload_id", uploadID, "error", err)
				return
			}

		case <-closed:
			return
		}
	}
}
