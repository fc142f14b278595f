package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mark is one side of a tri-state cell: empty, X or O.
type Mark string

const (
	MarkNone Mark = ""
	MarkX    Mark = "X"
	MarkO    Mark = "O"
	// MarkTie is only valid in a WinInfo, never on a board.
	MarkTie Mark = "Tie"
)

func otherMark(m Mark) Mark {
	if m == MarkX {
		return MarkO
	}
	return MarkX
}

// WinInfo records how a finished grid game ended.
type WinInfo struct {
	Player Mark   `json:"player"` // X, O or Tie
	Reason string `json:"reason"`
}

// TTTState is the tic-tac-toe state machine.
//
// joining: FirstPlayer set. playing/won: Board, Player, Players set, Win set
// once won. canceled: Initiator set.
type TTTState struct {
	Mode        Mode            `json:"mode"`
	FirstPlayer UserID          `json:"first_player,omitempty"`
	Board       Grid[Mark]      `json:"board,omitempty"`
	Player      Mark            `json:"player,omitempty"`
	Players     map[Mark]UserID `json:"players,omitempty"`
	Win         *WinInfo        `json:"win,omitempty"`
	Initiator   UserID          `json:"initiator,omitempty"`
}

func (*TTTState) gameState() {}

type ticTacToe struct{}

func (ticTacToe) Kind() Kind    { return KindTicTacToe }
func (ticTacToe) Title() string { return "Tic Tac Toe" }

func (ticTacToe) NewState(host UserID) State {
	return &TTTState{Mode: ModeJoining, FirstPlayer: host}
}

func (ticTacToe) DecodeState(data []byte) (State, error) {
	var s TTTState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("tictactoe state: %w", err)
	}
	switch s.Mode {
	case ModeJoining:
		if s.FirstPlayer == "" {
			return nil, fmt.Errorf("tictactoe state: joining without first player")
		}
	case ModePlaying, ModeWon:
		if !s.Board.Rect(3, 3) {
			return nil, fmt.Errorf("tictactoe state: board is not 3x3")
		}
		if s.Player != MarkX && s.Player != MarkO {
			return nil, fmt.Errorf("tictactoe state: bad turn mark %q", s.Player)
		}
		if s.Players[MarkX] == "" || s.Players[MarkO] == "" {
			return nil, fmt.Errorf("tictactoe state: missing players")
		}
	case ModeCanceled:
	default:
		return nil, fmt.Errorf("tictactoe state: unknown mode %q", s.Mode)
	}
	return &s, nil
}

func tttCellStyle(m Mark) Style {
	switch m {
	case MarkX:
		return StylePrimary
	case MarkO:
		return StyleAccept
	default:
		return StyleSecondary
	}
}

func tttCellLabel(m Mark) string {
	if m == MarkNone {
		return " "
	}
	return string(m)
}

func (g ticTacToe) Render(st State, k Key) Message {
	s, ok := st.(*TTTState)
	if !ok {
		return unsupportedState("")
	}
	switch s.Mode {
	case ModeJoining:
		return renderLobby(Mention(s.FirstPlayer)+" is starting a game of "+g.Title(), k, false)
	case ModePlaying, ModeWon:
		var content string
		switch {
		case s.Mode == ModePlaying:
			content = "It's your turn " + Mention(s.Players[s.Player]) + ", You are " + string(s.Player)
		case s.Win == nil:
			content = "Someone won but I'm not sure who."
		case s.Win.Player == MarkTie:
			content = "There was a tie. (" + s.Win.Reason + "). Players: X " +
				Mention(s.Players[MarkX]) + ", O: " + Mention(s.Players[MarkO])
		default:
			content = Mention(s.Players[s.Win.Player]) + " won! (" + s.Win.Reason + "). Players: X " +
				Mention(s.Players[MarkX]) + ", O: " + Mention(s.Players[MarkO])
		}
		rows := make([]Row, 0, 4)
		for y, line := range s.Board {
			row := Row{}
			for x, cell := range line {
				name := "T," + strconv.Itoa(x) + "," + strconv.Itoa(y)
				row.Buttons = append(row.Buttons, Btn(k.Action(name), tttCellLabel(cell), tttCellStyle(cell)))
			}
			rows = append(rows, row)
		}
		if s.Mode == ModePlaying {
			rows = append(rows, NewRow(Btn(k.Action(actGiveUp), "Give Up", StyleDeny)))
		}
		return Message{Content: content, Rows: rows}
	case ModeCanceled:
		return canceledMessage()
	default:
		return unsupportedState(s.Mode)
	}
}

func (g ticTacToe) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*TTTState)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	switch s.Mode {
	case ModeJoining:
		out, handled := handleLobby(s.FirstPlayer, action, actor, k,
			func(opponent UserID) State {
				return &TTTState{
					Mode:    ModePlaying,
					Board:   NewGrid(3, 3, MarkNone),
					Player:  MarkX,
					Players: map[Mark]UserID{MarkX: s.FirstPlayer, MarkO: opponent},
				}
			},
			func() State {
				return &TTTState{Mode: ModeCanceled, Initiator: s.FirstPlayer}
			})
		if handled {
			return out
		}
		return Reject("Error! Unsupported " + action)
	case ModePlaying:
		if actor != s.Players[s.Player] {
			if actor != s.Players[otherMark(s.Player)] {
				return Reject("You're not in this game")
			}
			return Reject("It's not your turn")
		}
		if cx, cy, ok := parseCellAction(action, "T"); ok {
			if !s.Board.InBounds(cx, cy) {
				return Reject("That space is not on the board")
			}
			if s.Board[cy][cx] != MarkNone {
				return Reject("You must click an empty tile")
			}
			next := s.clone()
			next.Board[cy][cx] = s.Player
			switch {
			case LongestRun(next.Board, cx, cy) >= 3:
				next.Mode = ModeWon
				next.Win = &WinInfo{Player: s.Player, Reason: "Three in a row"}
			case next.Board.Full(MarkNone):
				next.Mode = ModeWon
				next.Win = &WinInfo{Player: MarkTie, Reason: "All spaces filled"}
			default:
				next.Player = otherMark(s.Player)
			}
			return Advance(next)
		}
		if action == actGiveUp {
			next := s.clone()
			next.Mode = ModeWon
			next.Win = &WinInfo{Player: otherMark(s.Player), Reason: "Other player gave up."}
			return Advance(next)
		}
		return Reject("Error! Unsupported " + action)
	case ModeWon:
		return Reject("This game is over.")
	case ModeCanceled:
		return Reject("This game was not started.")
	default:
		return Reject("Unsupported " + string(s.Mode))
	}
}

func (s *TTTState) clone() *TTTState {
	next := *s
	next.Board = make(Grid[Mark], len(s.Board))
	for y, row := range s.Board {
		next.Board[y] = append([]Mark(nil), row...)
	}
	next.Players = make(map[Mark]UserID, len(s.Players))
	for m, u := range s.Players {
		next.Players[m] = u
	}
	return &next
}

// parseCellAction decodes "<prefix>,<x>,<y>" cell actions.
func parseCellAction(action, prefix string) (x, y int, ok bool) {
	rest, found := strings.CutPrefix(action, prefix+",")
	if !found {
		return 0, 0, false
	}
	xs, ys, found := strings.Cut(rest, ",")
	if !found {
		return 0, 0, false
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, false
	}
	y, err = strconv.Atoi(ys)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}
