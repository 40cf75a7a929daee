package echoapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core/alert"
)

const (
	eventRegister      = "register"
	eventRegisterAlias = "registerUser"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the API serves browsers on a different origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn is a registered websocket client. Writes are serialized; gorilla
// allows only one concurrent writer.
type wsConn struct {
	id   string
	sock *websocket.Conn

	mu sync.Mutex
}

var _ alert.Conn = (*wsConn)(nil)

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Wrap(c.sock.WriteJSON(wsEvent{Event: event, Data: data}), "writing ws event")
}

type wsEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type wsInbound struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

// serveWS upgrades the connection and pumps inbound events until the client
// goes away; the connection is unregistered on any read error.
func (api *alertApi) serveWS(ctx echo.Context) error {
	sock, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading websocket")
	}

	conn := &wsConn{id: uuid.New().String(), sock: sock}
	defer func() {
		api.registry.Unregister(conn.id)
		_ = sock.Close()
	}()

	for {
		var in wsInbound
		if err := sock.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				api.logger.Debug("websocket closed unexpectedly", "conn", conn.id, "err", err)
			}
			return nil
		}

		switch in.Event {
		case eventRegister, eventRegisterAlias:
			if in.UserID != "" {
				api.registry.Register(in.UserID, conn)
			}
		default:
			// unknown events are ignored
		}
	}
}
