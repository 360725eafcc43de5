package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/metrics"
	"github.com/haowjy/thesis-llm-go/profile"
)

const (
	wsWriteWait  = 10 * time.Second
	wsReadWait   = 60 * time.Second
	wsMaxMessage = 1 << 20
)

// WebSocket message types.
const (
	wsTypeDelta = "delta"
	wsTypeDone  = "done"
	wsTypeError = "error"
)

// wsMessage is one server-to-client message.
type wsMessage struct {
	Type   string            `json:"type"`
	Update *assistant.Update `json:"update,omitempty"`
	Result *assistant.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	Status int               `json:"status,omitempty"`
}

// Origins are enforced by the CORS middleware before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// generateWS runs one generation over a WebSocket. The client sends a single
// generateRequest; the server answers with delta messages and one done or
// error message, then closes. Closing the socket early cancels the
// generation.
func (s *Server) generateWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamingConnections.Inc()
	defer metrics.StreamingConnections.Dec()

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsReadWait))

	var body generateRequest
	if err := conn.ReadJSON(&body); err != nil {
		s.logger.Debug("websocket request unreadable", "error", err)
		s.writeWS(conn, wsMessage{Type: wsTypeError, Error: "请求格式错误"})
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client sends nothing more; any read result, including its close
	// frame or a dropped connection, ends the generation.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	req := assistant.Request{
		UseCase: c.Param("useCase"),
		Profile: body.Profile,
		Query:   profile.FromQuery(c.Request.URL.Query()),
		Input:   body.Input,
	}

	res, err := s.svc.Generate(ctx, req, func(u assistant.Update) {
		if err := s.writeWS(conn, wsMessage{Type: wsTypeDelta, Update: &u}); err != nil {
			cancel()
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("websocket generation stopped", "error", err)
			return
		}
		s.writeWS(conn, wsMessage{
			Type:   wsTypeError,
			Error:  llmprovider.UserMessage(err),
			Status: llmprovider.StatusCode(err),
		})
	} else {
		s.writeWS(conn, wsMessage{Type: wsTypeDone, Result: res})
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
}

func (s *Server) writeWS(conn *websocket.Conn, msg wsMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("websocket write failed", "type", msg.Type, "error", err)
		return err
	}
	return nil
}
