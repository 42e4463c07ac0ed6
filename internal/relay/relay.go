// Package relay connects a local game to a remote opponent over a plain
// line-based TCP protocol: one move in compass notation per line. The
// client joins a named game on the relay server, then moves flow both ways
// as they are played. A broken connection is fatal to the game, never
// silently retried.
package relay

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"connect3/internal/board"
)

// ErrDisconnected reports that the relay connection is gone. The game in
// progress cannot continue.
var ErrDisconnected = errors.New("relay connection lost")

// Client is one end of a relayed game.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
	log     zerolog.Logger
}

// Dial connects to a relay server and joins the named game. The first line
// on the wire is the game id; the server pairs the two clients that sent
// the same id. timeout bounds the dial and every subsequent send; receives
// wait indefinitely, the opponent may think for a long time.
func Dial(addr, gameID string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dialing relay %s: %w", addr, err)
	}
	c := NewClient(conn, timeout, log)
	if err := c.sendLine(gameID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("joining game %q: %w", gameID, err)
	}
	log.Info().Str("addr", addr).Str("game", gameID).Msg("joined relayed game")
	return c, nil
}

// NewClient wraps an established connection. Used directly by tests.
func NewClient(conn net.Conn, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn), timeout: timeout, log: log}
}

// SendMove transmits one move.
func (c *Client) SendMove(m board.Move, sz board.Size) error {
	return c.sendLine(m.Format(sz))
}

// RecvMove blocks until the opponent's next move arrives.
func (c *Client) RecvMove(sz board.Size) (board.Move, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return board.NoMove, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	m, err := board.ParseMove(strings.TrimSpace(line), sz)
	if err != nil {
		return board.NoMove, fmt.Errorf("remote sent %q: %w", strings.TrimSpace(line), err)
	}
	c.log.Debug().Str("move", m.Format(sz)).Msg("received remote move")
	return m, nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) sendLine(s string) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
	}
	if _, err := fmt.Fprintln(c.conn, s); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

// RemoteAgent plays the remote opponent's side in a local Match. Its own
// moves come off the wire; the local side's moves are forwarded as they are
// observed.
type RemoteAgent struct {
	client *Client
	side   board.Player
}

// NewRemoteAgent wraps a client as the agent for the given side.
func NewRemoteAgent(c *Client, side board.Player) *RemoteAgent {
	return &RemoteAgent{client: c, side: side}
}

func (a *RemoteAgent) ChooseMove(b board.Board, _ time.Duration) (board.Move, error) {
	return a.client.RecvMove(b.Size())
}

func (a *RemoteAgent) Observe(mover board.Player, m board.Move, after board.Board) error {
	if mover == a.side {
		return nil
	}
	return a.client.SendMove(m, after.Size())
}
