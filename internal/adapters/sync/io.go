package sync

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the session until the transport
// drops. The client-token cookie set by the HTTP layer identifies the
// session in logs.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	sid := c.GetString("client_token")
	if sid == "" {
		sid = uuid.NewString()
	}
	log.Info().Str("module", "sync").Str("sid", sid).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("ws upgrade")
		return
	}

	conn := NewWsConn(ws)
	sess := NewSession(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, conn)
	ctl.readPump(ctx, sess, conn)
	cancel()
}

func (ctl *Controller) writePump(ctx context.Context, cancel context.CancelFunc, c *WsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Str("module", "sync").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "sync").Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump is the single reader for the connection, so protocol messages of
// one session are handled strictly in arrival order. A read error of any
// kind counts as a transport disconnect.
func (ctl *Controller) readPump(ctx context.Context, sess *Session, c *WsConn) {
	defer func() {
		ctl.disconnect(sess)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("readPump closed")
				return
			}
			ctl.handle(sess, data)
		}
	}
}
