package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	c4Cols = 7
	c4Rows = 6
)

// C4State is connect 4: X drops red discs, O yellow, first run of 4 wins.
// The mark-to-disc mapping only matters for rendering.
type C4State struct {
	Mode      Mode            `json:"mode"`
	Initiator UserID          `json:"initiator,omitempty"`
	Board     Grid[Mark]      `json:"board,omitempty"`
	Player    Mark            `json:"player,omitempty"`
	Players   map[Mark]UserID `json:"players,omitempty"`
	Win       *WinInfo        `json:"win,omitempty"`
}

func (*C4State) gameState() {}

type connect4 struct{}

func (connect4) Kind() Kind    { return KindConnect4 }
func (connect4) Title() string { return "Connect 4" }

func (connect4) NewState(host UserID) State {
	return &C4State{Mode: ModeJoining, Initiator: host}
}

func (connect4) DecodeState(data []byte) (State, error) {
	var s C4State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("connect4 state: %w", err)
	}
	switch s.Mode {
	case ModeJoining:
		if s.Initiator == "" {
			return nil, fmt.Errorf("connect4 state: joining without initiator")
		}
	case ModePlaying, ModeWon:
		if !s.Board.Rect(c4Cols, c4Rows) {
			return nil, fmt.Errorf("connect4 state: board is not %dx%d", c4Cols, c4Rows)
		}
		if s.Player != MarkX && s.Player != MarkO {
			return nil, fmt.Errorf("connect4 state: bad turn mark %q", s.Player)
		}
		if s.Players[MarkX] == "" || s.Players[MarkO] == "" {
			return nil, fmt.Errorf("connect4 state: missing players")
		}
	case ModeCanceled:
	default:
		return nil, fmt.Errorf("connect4 state: unknown mode %q", s.Mode)
	}
	return &s, nil
}

// c4Drop returns the landing row for a disc in col, or -1 when full.
func c4Drop(board Grid[Mark], col int) int {
	for y := c4Rows - 1; y >= 0; y-- {
		if board[y][col] == MarkNone {
			return y
		}
	}
	return -1
}

func c4Disc(m Mark) string {
	switch m {
	case MarkX:
		return "🔴"
	case MarkO:
		return "🟡"
	default:
		return "⚫"
	}
}

func (g connect4) renderBoard(s *C4State) string {
	var b strings.Builder
	switch {
	case s.Win == nil:
		b.WriteString("It's your turn " + Mention(s.Players[s.Player]) + ", You are " + c4Disc(s.Player) + "\n")
	case s.Win.Player == MarkTie:
		b.WriteString("There was a tie. (" + s.Win.Reason + "). Players: " +
			c4Disc(MarkX) + " " + Mention(s.Players[MarkX]) + ", " + c4Disc(MarkO) + " " + Mention(s.Players[MarkO]) + "\n")
	default:
		b.WriteString(Mention(s.Players[s.Win.Player]) + " won! (" + s.Win.Reason + "). Players: " +
			c4Disc(MarkX) + " " + Mention(s.Players[MarkX]) + ", " + c4Disc(MarkO) + " " + Mention(s.Players[MarkO]) + "\n")
	}
	b.WriteString("1️⃣2️⃣3️⃣4️⃣5️⃣6️⃣7️⃣\n")
	for _, row := range s.Board {
		for _, cell := range row {
			b.WriteString(c4Disc(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (g connect4) Render(st State, k Key) Message {
	s, ok := st.(*C4State)
	if !ok {
		return unsupportedState("")
	}
	switch s.Mode {
	case ModeJoining:
		return renderLobby(Mention(s.Initiator)+" is starting a game of "+g.Title(), k, true)
	case ModePlaying, ModeWon:
		rulesBtn := Btn(k.Action(actRules), "Rules", StyleSecondary)
		if s.Mode == ModeWon {
			return Message{Content: g.renderBoard(s), Rows: []Row{NewRow(rulesBtn)}}
		}
		drop := func(col int) Button {
			name := "d," + strconv.Itoa(col)
			return Btn(k.Action(name), strconv.Itoa(col+1), StyleSecondary).
				OffIf(c4Drop(s.Board, col) < 0)
		}
		return Message{Content: g.renderBoard(s), Rows: []Row{
			NewRow(drop(0), drop(1), drop(2), drop(3)),
			NewRow(drop(4), drop(5), drop(6)),
			NewRow(rulesBtn, Btn(k.Action(actGiveUp), "Give Up", StyleDeny)),
		}}
	case ModeCanceled:
		return canceledMessage()
	default:
		return unsupportedState(s.Mode)
	}
}

func (g connect4) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*C4State)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	if action == actRules {
		return Handled("Try to get 4 in a row in any direction, including diagonal.")
	}
	switch s.Mode {
	case ModeJoining:
		out, handled := handleLobby(s.Initiator, action, actor, k,
			func(opponent UserID) State {
				return &C4State{
					Mode:    ModePlaying,
					Board:   NewGrid(c4Cols, c4Rows, MarkNone),
					Player:  MarkX,
					Players: map[Mark]UserID{MarkX: s.Initiator, MarkO: opponent},
				}
			},
			func() State { return &C4State{Mode: ModeCanceled} })
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
		if colStr, found := strings.CutPrefix(action, "d,"); found {
			col, err := strconv.Atoi(colStr)
			if err != nil || col < 0 || col >= c4Cols {
				return Reject("That column does not exist")
			}
			row := c4Drop(s.Board, col)
			if row < 0 {
				return Reject("That column is full")
			}
			next := s.clone()
			next.Board[row][col] = s.Player
			switch {
			case LongestRun(next.Board, col, row) >= 4:
				next.Mode = ModeWon
				next.Win = &WinInfo{Player: s.Player, Reason: "Four in a row"}
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
			next.Win = &WinInfo{Player: otherMark(s.Player), Reason: "Other player gave up"}
			return Advance(next)
		}
		return Reject("Error! Unsupported " + action)
	case ModeWon:
		return Reject("The game is over")
	case ModeCanceled:
		return Reject("This game was not started.")
	default:
		return Reject("Unsupported " + string(s.Mode))
	}
}

func (s *C4State) clone() *C4State {
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
