package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/users"
	"github.com/GoMudEngine/npcchat/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {

	name := r.URL.Query().Get(`name`)
	if err := wire.ValidateName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		mudlog.Error("Web", "upgrade", err)
		return
	}

	user := s.env.Users.Connect(name)

	user.SendFrame(wire.ServerFrame{Kind: wire.KindWelcome, UserId: user.UserId.String(), Name: user.Name})
	s.env.Queue.AddToQueue(events.PlayerConnect{UserId: user.UserId, Name: user.Name})

	go writePump(conn, user)
	readPump(conn, user, s.env.Queue)
}

// readPump turns client frames into Input events until the connection drops
func readPump(conn *websocket.Conn, user *users.UserRecord, q *events.Queue) {

	defer q.AddToQueue(events.PlayerDisconnect{UserId: user.UserId})

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				mudlog.Warn("Web", "userId", user.UserId, "read", err)
			}
			return
		}

		frame, err := wire.DecodeClientFrame(data)
		if err != nil {
			mudlog.Debug("Web", "userId", user.UserId, "bad frame", err)
			user.SendText(`That message could not be understood.`)
			continue
		}

		input := events.Input{UserId: user.UserId, Text: frame.Text}
		if frame.Kind == wire.KindChat {
			input.SubjectId = uuid.MustParse(frame.Subject)
		}
		q.AddToQueue(input)
	}
}

// writePump sends queued frames until the user's outbound channel is closed
func writePump(conn *websocket.Conn, user *users.UserRecord) {

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-user.Outbound():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ``))
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				mudlog.Debug("Web", "userId", user.UserId, "write", err)
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
