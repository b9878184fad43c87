package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/synth"
)

// Client represents a single WebSocket peer of the demo stream.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte // closed by stream, its only writer
	hub    *Hub
	cancel context.CancelFunc
}

// stream generates one bar per interval, runs it through the streaming
// indicators and queues the frame. It closes send when done.
func (c *Client) stream(ctx context.Context, p DemoParams) {
	defer close(c.send)

	walker := synth.NewWalker(p.walkParams())
	eng := indicator.NewEngine(p.indicatorConfigs())

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var seq int64
	for p.Bars == 0 || seq < int64(p.Bars) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		bar := walker.Next()
		seq++
		frame, err := json.Marshal(DemoFrame{
			Type:       "bar",
			Seq:        seq,
			Bar:        &bar,
			Indicators: eng.Process(bar),
		})
		if err != nil {
			c.hub.log.Error("encode demo frame", slog.Any("err", err))
			return
		}
		if !c.queue(ctx, frame) {
			return
		}
	}

	done, _ := json.Marshal(DemoFrame{Type: "done", Seq: seq})
	c.queue(ctx, done)
}

// queue blocks until the frame is accepted or the client goes away.
func (c *Client) queue(ctx context.Context, frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream finished"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			if c.hub.metrics != nil {
				c.hub.metrics.WSFramesTotal.Inc()
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; the demo stream takes no
// commands.
func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
