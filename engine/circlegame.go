package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CGOver records how a circle game ended. The mode stays "playing"; a set
// Over pointer is what makes the state terminal.
type CGOver struct {
	Winner Mark   `json:"winner"` // X, O or Tie
	Reason string `json:"reason"`
}

// CGState is the circle game: five rows of 1..5 circles, a press takes some
// circles from its row, whoever takes the last circle wins.
//
// Within a row, free circles occupy the left prefix and taken circles the
// right suffix; a take fills the rightmost free slots with the mover's mark.
type CGState struct {
	Mode      Mode            `json:"mode"`
	Initiator UserID          `json:"initiator,omitempty"`
	Lines     [][]Mark        `json:"lines,omitempty"`
	Player    Mark            `json:"player,omitempty"`
	Players   map[Mark]UserID `json:"players,omitempty"`
	Over      *CGOver         `json:"over,omitempty"`
}

func (*CGState) gameState() {}

type circleGame struct{}

func (circleGame) Kind() Kind    { return KindCircleGame }
func (circleGame) Title() string { return "circle game" }

func (circleGame) NewState(host UserID) State {
	return &CGState{Mode: ModeJoining, Initiator: host}
}

func (circleGame) DecodeState(data []byte) (State, error) {
	var s CGState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("circlegame state: %w", err)
	}
	switch s.Mode {
	case ModeJoining:
		if s.Initiator == "" {
			return nil, fmt.Errorf("circlegame state: joining without initiator")
		}
	case ModePlaying:
		if len(s.Lines) != 5 {
			return nil, fmt.Errorf("circlegame state: want 5 lines, got %d", len(s.Lines))
		}
		for i, line := range s.Lines {
			if len(line) != i+1 {
				return nil, fmt.Errorf("circlegame state: line %d has %d circles", i, len(line))
			}
		}
		if s.Player != MarkX && s.Player != MarkO {
			return nil, fmt.Errorf("circlegame state: bad turn mark %q", s.Player)
		}
		if s.Players[MarkX] == "" || s.Players[MarkO] == "" {
			return nil, fmt.Errorf("circlegame state: missing players")
		}
	case ModeCanceled:
	default:
		return nil, fmt.Errorf("circlegame state: unknown mode %q", s.Mode)
	}
	return &s, nil
}

// freeCircles counts the free prefix of a line.
func freeCircles(line []Mark) int {
	n := 0
	for _, c := range line {
		if c == MarkNone {
			n++
		}
	}
	return n
}

func (g circleGame) Render(st State, k Key) Message {
	s, ok := st.(*CGState)
	if !ok {
		return unsupportedState("")
	}
	switch s.Mode {
	case ModeJoining:
		return renderLobby(Mention(s.Initiator)+" is starting a "+g.Title(), k, false)
	case ModePlaying:
		var content string
		if s.Over == nil {
			content = "It's your turn " + Mention(s.Players[s.Player]) + "\n" +
				"Try to be the last player to take a circle."
		} else if s.Over.Winner == MarkTie {
			content = "There was a tie. (" + s.Over.Reason + "). Players: " +
				Mention(s.Players[MarkX]) + ", " + Mention(s.Players[MarkO])
		} else {
			content = Mention(s.Players[s.Over.Winner]) + " won! (" + s.Over.Reason + "). Players: " +
				Mention(s.Players[MarkX]) + ", " + Mention(s.Players[MarkO])
		}
		rows := make([]Row, 0, 5)
		for y, line := range s.Lines {
			free := freeCircles(line)
			row := Row{}
			for x, circle := range line {
				label, take := " ", free-x
				if circle == MarkNone {
					label = strconv.Itoa(take)
				}
				name := "C," + strconv.Itoa(take) + "," + strconv.Itoa(y)
				row.Buttons = append(row.Buttons,
					Btn(k.Action(name), label, tttCellStyle(circle)).OffIf(circle != MarkNone))
			}
			if y == 0 && s.Over == nil {
				row.Buttons = append(row.Buttons, Btn(k.Action(actGiveUp), "Give Up", StyleDeny))
			}
			rows = append(rows, row)
		}
		return Message{Content: content, Rows: rows}
	case ModeCanceled:
		return canceledMessage()
	default:
		return unsupportedState(s.Mode)
	}
}

func (g circleGame) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*CGState)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	switch s.Mode {
	case ModeJoining:
		out, handled := handleLobby(s.Initiator, action, actor, k,
			func(opponent UserID) State {
				lines := make([][]Mark, 5)
				for i := range lines {
					lines[i] = make([]Mark, i+1)
				}
				return &CGState{
					Mode:    ModePlaying,
					Lines:   lines,
					Player:  MarkX,
					Players: map[Mark]UserID{MarkX: s.Initiator, MarkO: opponent},
				}
			},
			func() State { return &CGState{Mode: ModeCanceled} })
		if handled {
			return out
		}
		return Reject("Error! Unsupported " + action)
	case ModePlaying:
		if s.Over != nil {
			return Reject("This game is over.")
		}
		if actor != s.Players[s.Player] {
			if actor != s.Players[otherMark(s.Player)] {
				return Reject("You're not in this game")
			}
			return Reject("It's not your turn")
		}
		if take, y, ok := parseCellAction(action, "C"); ok {
			if y < 0 || y >= len(s.Lines) {
				return Reject("That row does not exist")
			}
			next := s.clone()
			line := next.Lines[y]
			free := freeCircles(line)
			if take < 1 || take > free {
				return Reject("Those circles are already taken")
			}
			for i := free - take; i < free; i++ {
				line[i] = s.Player
			}
			left := 0
			for _, l := range next.Lines {
				left += freeCircles(l)
			}
			if left == 0 {
				next.Over = &CGOver{Winner: s.Player, Reason: "Took the last circle"}
			} else {
				next.Player = otherMark(s.Player)
			}
			return Advance(next)
		}
		if action == actGiveUp {
			next := s.clone()
			next.Over = &CGOver{Winner: otherMark(s.Player), Reason: "Other player gave up."}
			return Advance(next)
		}
		return Reject("Error! Unsupported " + action)
	case ModeCanceled:
		return Reject("This game was not started.")
	default:
		return Reject("Unsupported " + string(s.Mode))
	}
}

func (s *CGState) clone() *CGState {
	next := *s
	next.Lines = make([][]Mark, len(s.Lines))
	for i, line := range s.Lines {
		next.Lines[i] = append([]Mark(nil), line...)
	}
	next.Players = make(map[Mark]UserID, len(s.Players))
	for m, u := range s.Players {
		next.Players[m] = u
	}
	return &next
}
