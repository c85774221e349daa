package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// wsConn speaks the engine protocol through a websocket relay. A relay
// forwards each text frame to the engine's input and may batch several
// output lines into one frame.
type wsConn struct {
	conn    *websocket.Conn
	pending []string

	once sync.Once
	err  error
}

// DialWebsocket connects to a relay at url that fronts a remote engine.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "engine: dialing %s", url)
	}
	log.Info().Str("url", url).Msg("engine relay connected")
	return &wsConn{conn: c}, nil
}

func (c *wsConn) WriteLine(line string) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return errors.Wrap(err, "engine: websocket write")
	}
	return nil
}

func (c *wsConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		c.pending = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return strings.TrimRight(line, "\r"), nil
}

func (c *wsConn) Close() error {
	c.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
		c.err = c.conn.Close()
	})
	return c.err
}
