package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/GoMudEngine/npcchat/internal/wire"
)

func main() {

	addr := flag.String(`addr`, `ws://localhost:8080/ws`, `server websocket address`)
	name := flag.String(`name`, ``, `your name`)
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad address:", err)
		os.Exit(1)
	}
	q := u.Query()
	q.Set(`name`, *name)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not connect:", err)
		os.Exit(1)
	}
	defer conn.Close()

	m := newModel(func(f wire.ClientFrame) error {
		return conn.WriteJSON(f)
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	go readFrames(conn, p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ``))
}

// readFrames forwards everything the server sends into the program
func readFrames(conn *websocket.Conn, p *tea.Program) {
	for {
		f := wire.ServerFrame{}
		if err := conn.ReadJSON(&f); err != nil {
			p.Send(disconnectedMsg{err: err})
			return
		}
		p.Send(frameMsg(f))
	}
}
