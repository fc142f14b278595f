package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// utttPickTarget means the mover chooses which sub-board to play on.
const utttPickTarget = -1

// UTTTState is ultimate tic-tac-toe: nine tic-tac-toe sub-boards arranged in
// a 3×3 macro grid. A turn is one or two presses: pick a sub-board (when the
// previous move left a free choice) and place a mark. The placed cell's index
// names the sub-board the opponent must play on next, unless that board is
// already decided.
type UTTTState struct {
	Mode      Mode            `json:"mode"`
	Initiator UserID          `json:"initiator,omitempty"`
	Boards    []Grid[Mark]    `json:"boards,omitempty"`     // 9 sub-boards, each 3×3
	BoardWins []Mark          `json:"board_wins,omitempty"` // "", X, O or Tie per sub-board
	Player    Mark            `json:"player,omitempty"`
	Players   map[Mark]UserID `json:"players,omitempty"`
	Target    int             `json:"target,omitempty"` // sub-board in play, or utttPickTarget
	Picked    bool            `json:"picked,omitempty"` // target was self-chosen this turn
	Win       *WinInfo        `json:"win,omitempty"`
}

func (*UTTTState) gameState() {}

type ultimate struct{}

func (ultimate) Kind() Kind    { return KindUltimate }
func (ultimate) Title() string { return "Ultimate Tic Tac Toe" }

func (ultimate) NewState(host UserID) State {
	return &UTTTState{Mode: ModeJoining, Initiator: host}
}

func (ultimate) DecodeState(data []byte) (State, error) {
	var s UTTTState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("uttt state: %w", err)
	}
	switch s.Mode {
	case ModeJoining:
		if s.Initiator == "" {
			return nil, fmt.Errorf("uttt state: joining without initiator")
		}
	case ModePlaying, ModeWon:
		if len(s.Boards) != 9 || len(s.BoardWins) != 9 {
			return nil, fmt.Errorf("uttt state: want 9 sub-boards")
		}
		for i, b := range s.Boards {
			if !b.Rect(3, 3) {
				return nil, fmt.Errorf("uttt state: sub-board %d is not 3x3", i)
			}
		}
		if s.Player != MarkX && s.Player != MarkO {
			return nil, fmt.Errorf("uttt state: bad turn mark %q", s.Player)
		}
		if s.Players[MarkX] == "" || s.Players[MarkO] == "" {
			return nil, fmt.Errorf("uttt state: missing players")
		}
		if s.Target < utttPickTarget || s.Target > 8 {
			return nil, fmt.Errorf("uttt state: bad target %d", s.Target)
		}
	case ModeCanceled:
	default:
		return nil, fmt.Errorf("uttt state: unknown mode %q", s.Mode)
	}
	return &s, nil
}

// boardOpen reports whether sub-board i can still be played on.
func (s *UTTTState) boardOpen(i int) bool {
	return s.BoardWins[i] == MarkNone
}

func utttCellChar(m Mark) string {
	switch m {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return "·"
	}
}

// renderMacro draws the nine sub-boards in a 3×3 layout.
func (s *UTTTState) renderMacro() string {
	var b strings.Builder
	b.WriteString("```\n")
	for by := 0; by < 3; by++ {
		for cy := 0; cy < 3; cy++ {
			for bx := 0; bx < 3; bx++ {
				if bx > 0 {
					b.WriteString(" | ")
				}
				board := s.Boards[by*3+bx]
				for cx := 0; cx < 3; cx++ {
					b.WriteString(utttCellChar(board[cy][cx]))
				}
			}
			b.WriteString("\n")
		}
		if by < 2 {
			b.WriteString("----+-----+----\n")
		}
	}
	b.WriteString("```\n")
	return b.String()
}

const utttRules = "- On your turn, select which board to play on (if you have a choice) and then play your x/o.\n" +
	"- When you get 3 in a row on a small board, you win that board.\n" +
	"- To win the game, win 3 small boards in a row (up/down, left/right, or diagonal)\n" +
	"- The square you play on determines which board your opponent must play on next."

func (g ultimate) Render(st State, k Key) Message {
	s, ok := st.(*UTTTState)
	if !ok {
		return unsupportedState("")
	}
	switch s.Mode {
	case ModeJoining:
		return renderLobby(Mention(s.Initiator)+" is starting a game of "+g.Title(), k, true)
	case ModePlaying, ModeWon:
		rulesBtn := Btn(k.Action(actRules), "Rules", StyleSecondary)
		content := s.renderMacro()
		if s.Mode == ModeWon {
			switch {
			case s.Win == nil:
				content += "Someone won but I'm not sure who."
			case s.Win.Player == MarkTie:
				content += "There was a tie. (" + s.Win.Reason + ")"
			default:
				content += Mention(s.Players[s.Win.Player]) + " won! (" + s.Win.Reason + ")"
			}
			return Message{Content: content, Rows: []Row{NewRow(rulesBtn)}}
		}
		picking := s.Target == utttPickTarget
		if picking {
			content += "It's your turn " + Mention(s.Players[s.Player]) + ", You are " + string(s.Player) + ". Pick a board."
		} else {
			content += "It's your turn " + Mention(s.Players[s.Player]) + ", You are " + string(s.Player) +
				". Playing on board " + strconv.Itoa(s.Target+1) + "."
		}
		style := StyleSecondary
		if picking {
			style = StylePrimary
		}
		cell := func(n int) Button {
			enabled := false
			if picking {
				enabled = s.boardOpen(n)
			} else {
				x, y := n%3, n/3
				enabled = s.Boards[s.Target][y][x] == MarkNone
			}
			return Btn(k.Action("E,"+strconv.Itoa(n)), strconv.Itoa(n+1), style).OffIf(!enabled)
		}
		return Message{Content: content, Rows: []Row{
			NewRow(cell(0), cell(1), cell(2)),
			NewRow(cell(3), cell(4), cell(5)),
			NewRow(cell(6), cell(7), cell(8)),
			NewRow(
				Btn(k.Action("E,back"), "⎌", StylePrimary).OffIf(!s.Picked),
				rulesBtn,
				Btn(k.Action(actGiveUp), "Give Up", StyleDeny),
			),
		}}
	case ModeCanceled:
		return canceledMessage()
	default:
		return unsupportedState(s.Mode)
	}
}

func (g ultimate) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*UTTTState)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	if action == actRules {
		return Handled(utttRules)
	}
	switch s.Mode {
	case ModeJoining:
		out, handled := handleLobby(s.Initiator, action, actor, k,
			func(opponent UserID) State {
				boards := make([]Grid[Mark], 9)
				for i := range boards {
					boards[i] = NewGrid(3, 3, MarkNone)
				}
				return &UTTTState{
					Mode:      ModePlaying,
					Boards:    boards,
					BoardWins: make([]Mark, 9),
					Player:    MarkX,
					Players:   map[Mark]UserID{MarkX: s.Initiator, MarkO: opponent},
					Target:    utttPickTarget,
				}
			},
			func() State { return &UTTTState{Mode: ModeCanceled} })
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
		if action == actGiveUp {
			next := s.clone()
			next.Mode = ModeWon
			next.Win = &WinInfo{Player: otherMark(s.Player), Reason: "Other player gave up"}
			return Advance(next)
		}
		if action == "E,back" {
			if !s.Picked {
				return Reject("You can't do that.")
			}
			next := s.clone()
			next.Target = utttPickTarget
			next.Picked = false
			return Advance(next)
		}
		if nStr, found := strings.CutPrefix(action, "E,"); found {
			n, err := strconv.Atoi(nStr)
			if err != nil || n < 0 || n > 8 {
				return Reject("You can't do that.")
			}
			if s.Target == utttPickTarget {
				if !s.boardOpen(n) {
					return Reject("That board is already decided")
				}
				next := s.clone()
				next.Target = n
				next.Picked = true
				return Advance(next)
			}
			return g.place(s, n)
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

// place puts the mover's mark on cell n of the target sub-board and resolves
// sub-board wins, the macro win, and the opponent's next target.
func (g ultimate) place(s *UTTTState, n int) Outcome {
	x, y := n%3, n/3
	if s.Boards[s.Target][y][x] != MarkNone {
		return Reject("You must click an empty square")
	}
	next := s.clone()
	t := next.Target
	next.Boards[t][y][x] = s.Player

	if LongestRun(next.Boards[t], x, y) >= 3 {
		next.BoardWins[t] = s.Player
	} else if next.Boards[t].Full(MarkNone) {
		next.BoardWins[t] = MarkTie
	}

	if next.BoardWins[t] == s.Player {
		macro := Grid[Mark]{next.BoardWins[0:3], next.BoardWins[3:6], next.BoardWins[6:9]}
		if LongestRun(macro, t%3, t/3) >= 3 {
			next.Mode = ModeWon
			next.Win = &WinInfo{Player: s.Player, Reason: "Three boards in a row"}
			return Advance(next)
		}
	}
	decided := true
	for _, w := range next.BoardWins {
		if w == MarkNone {
			decided = false
			break
		}
	}
	if decided {
		next.Mode = ModeWon
		next.Win = &WinInfo{Player: MarkTie, Reason: "All boards decided"}
		return Advance(next)
	}

	next.Player = otherMark(s.Player)
	next.Picked = false
	if next.BoardWins[n] == MarkNone {
		next.Target = n // forced by the placed cell
	} else {
		next.Target = utttPickTarget
	}
	return Advance(next)
}

func (s *UTTTState) clone() *UTTTState {
	next := *s
	next.Boards = make([]Grid[Mark], len(s.Boards))
	for i, b := range s.Boards {
		next.Boards[i] = make(Grid[Mark], len(b))
		for y, row := range b {
			next.Boards[i][y] = append([]Mark(nil), row...)
		}
	}
	next.BoardWins = append([]Mark(nil), s.BoardWins...)
	next.Players = make(map[Mark]UserID, len(s.Players))
	for m, u := range s.Players {
		next.Players[m] = u
	}
	return &next
}
