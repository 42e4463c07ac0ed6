package game

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"connect3/internal/board"
)

// Mover is the engine entry point the game loop depends on. *search.Engine
// satisfies it; trainers substitute stubs.
type Mover interface {
	ChooseMove(b board.Board, budget time.Duration) (board.Move, error)
}

// Agent plays one side of a game. Observe is called after every ply, for
// both sides' moves, so remote proxies can relay the local player's moves.
type Agent interface {
	ChooseMove(b board.Board, budget time.Duration) (board.Move, error)
	Observe(mover board.Player, m board.Move, after board.Board) error
}

// EngineAgent adapts a Mover into an Agent.
type EngineAgent struct {
	mover Mover
}

// NewEngineAgent wraps an engine (or stub) as an agent.
func NewEngineAgent(m Mover) *EngineAgent {
	return &EngineAgent{mover: m}
}

func (a *EngineAgent) ChooseMove(b board.Board, budget time.Duration) (board.Move, error) {
	return a.mover.ChooseMove(b, budget)
}

func (a *EngineAgent) Observe(board.Player, board.Move, board.Board) error { return nil }

// HumanAgent reads moves in compass notation from an input stream,
// prompting on the output stream. Invalid input is re-prompted, not fatal.
type HumanAgent struct {
	side board.Player
	in   *bufio.Reader
	out  io.Writer
}

// NewHumanAgent creates a human agent reading from in and prompting on out.
func NewHumanAgent(side board.Player, in io.Reader, out io.Writer) *HumanAgent {
	return &HumanAgent{side: side, in: bufio.NewReader(in), out: out}
}

func (a *HumanAgent) ChooseMove(b board.Board, _ time.Duration) (board.Move, error) {
	for {
		fmt.Fprintf(a.out, "%s's turn. Enter a move (e.g. 13N): ", a.side)
		line, err := a.in.ReadString('\n')
		if err != nil {
			return board.NoMove, fmt.Errorf("reading move: %w", err)
		}
		m, err := board.ParseMove(strings.TrimSpace(line), b.Size())
		if err != nil {
			fmt.Fprintln(a.out, err)
			continue
		}
		if _, err := b.Apply(m); err != nil {
			fmt.Fprintln(a.out, err)
			continue
		}
		return m, nil
	}
}

func (a *HumanAgent) Observe(board.Player, board.Move, board.Board) error { return nil }
