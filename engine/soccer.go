package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Paper soccer board geometry. Points live on an integer lattice: the field
// spans x 1..9, y 2..12, with three-point goal rows at y=1 (player 1 scores
// there) and y=13 (player 2). The ball kicks off at the center point (5, 7).
const (
	psLeft      = 1
	psRight     = 9
	psTop       = 2
	psBottom    = 12
	psGoalTop   = 1
	psGoalBot   = 13
	psMouthLeft = 4
	psMouthRight = 6
	psKickoffX  = 5
	psKickoffY  = 7
)

// psDirs maps compass codes to lattice deltas. y grows downward.
var psDirs = map[string][2]int{
	"nw": {-1, -1}, "n": {0, -1}, "ne": {1, -1},
	"w": {-1, 0}, "e": {1, 0},
	"sw": {-1, 1}, "s": {0, 1}, "se": {1, 1},
}

// psPointExists reports whether (x, y) is a point of the board graph.
func psPointExists(x, y int) bool {
	if y >= psTop && y <= psBottom {
		return x >= psLeft && x <= psRight
	}
	if y == psGoalTop || y == psGoalBot {
		return x >= psMouthLeft && x <= psMouthRight
	}
	return false
}

// psEdgeKey canonicalizes an undirected edge between two points.
func psEdgeKey(x1, y1, x2, y2 int) string {
	if y2 < y1 || (y2 == y1 && x2 < x1) {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	return fmt.Sprintf("%d,%d-%d,%d", x1, y1, x2, y2)
}

// psEdgeExists reports whether the two points are joined by an edge. Goal
// points connect only into the field, never to each other.
func psEdgeExists(x1, y1, x2, y2 int) bool {
	if !psPointExists(x1, y1) || !psPointExists(x2, y2) {
		return false
	}
	dx, dy := x2-x1, y2-y1
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return false
	}
	if (y1 == psGoalTop && y2 == psGoalTop) || (y1 == psGoalBot && y2 == psGoalBot) {
		return false
	}
	return true
}

// psWalls returns the pre-drawn boundary edges: the side lines and the top
// and bottom lines outside the goal mouths. Boundary points therefore start
// out "visited", which is what makes bouncing off a wall grant an extra
// move.
func psWalls() map[string]bool {
	walls := make(map[string]bool)
	for y := psTop; y < psBottom; y++ {
		walls[psEdgeKey(psLeft, y, psLeft, y+1)] = true
		walls[psEdgeKey(psRight, y, psRight, y+1)] = true
	}
	for x := psLeft; x < psRight; x++ {
		if x >= psMouthLeft && x < psMouthRight {
			continue // goal mouths stay open
		}
		walls[psEdgeKey(x, psTop, x+1, psTop)] = true
		walls[psEdgeKey(x, psBottom, x+1, psBottom)] = true
	}
	return walls
}

// PSOver marks a finished paper soccer game; Player holds the winner's seat.
type PSOver struct {
	Reason string `json:"reason"`
}

// PSState is paper soccer. Drawn holds every drawn edge including the
// initial walls; the ball moves one point per press along an undrawn edge.
type PSState struct {
	Mode      Mode            `json:"mode"`
	Initiator UserID          `json:"initiator,omitempty"`
	Drawn     map[string]bool `json:"drawn,omitempty"`
	Ball      [2]int          `json:"ball,omitempty"`
	Player    int             `json:"player,omitempty"` // seat 0 or 1; on game end, the winner
	Players   []UserID        `json:"players,omitempty"`
	Over      *PSOver         `json:"over,omitempty"`
}

func (*PSState) gameState() {}

// drawnCount counts drawn edges incident to a point.
func (s *PSState) drawnCount(x, y int) int {
	n := 0
	for _, d := range psDirs {
		if psEdgeExists(x, y, x+d[0], y+d[1]) && s.Drawn[psEdgeKey(x, y, x+d[0], y+d[1])] {
			n++
		}
	}
	return n
}

// undrawnCount counts playable edges remaining at a point.
func (s *PSState) undrawnCount(x, y int) int {
	n := 0
	for _, d := range psDirs {
		if psEdgeExists(x, y, x+d[0], y+d[1]) && !s.Drawn[psEdgeKey(x, y, x+d[0], y+d[1])] {
			n++
		}
	}
	return n
}

type paperSoccer struct{}

func (paperSoccer) Kind() Kind    { return KindPaperSoccer }
func (paperSoccer) Title() string { return "paper soccer" }

func (paperSoccer) NewState(host UserID) State {
	return &PSState{Mode: ModeJoining, Initiator: host}
}

func (paperSoccer) DecodeState(data []byte) (State, error) {
	var s PSState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("papersoccer state: %w", err)
	}
	switch s.Mode {
	case ModeJoining:
		if s.Initiator == "" {
			return nil, fmt.Errorf("papersoccer state: joining without initiator")
		}
	case ModePlaying:
		if len(s.Players) != 2 {
			return nil, fmt.Errorf("papersoccer state: want 2 players, got %d", len(s.Players))
		}
		if s.Player < 0 || s.Player > 1 {
			return nil, fmt.Errorf("papersoccer state: bad seat %d", s.Player)
		}
		if !psPointExists(s.Ball[0], s.Ball[1]) {
			return nil, fmt.Errorf("papersoccer state: ball off the board at %v", s.Ball)
		}
		if s.Drawn == nil {
			return nil, fmt.Errorf("papersoccer state: missing edge set")
		}
	case ModeCanceled:
	default:
		return nil, fmt.Errorf("papersoccer state: unknown mode %q", s.Mode)
	}
	return &s, nil
}

func (s *PSState) renderBoard() string {
	var b strings.Builder
	b.WriteString("```\n")
	for y := psGoalTop; y <= psGoalBot; y++ {
		for x := psLeft; x <= psRight; x++ {
			switch {
			case !psPointExists(x, y):
				b.WriteString(" ")
			case s.Ball[0] == x && s.Ball[1] == y:
				b.WriteString("●")
			case s.drawnCount(x, y) > 0:
				b.WriteString("+")
			default:
				b.WriteString("·")
			}
		}
		switch y {
		case psGoalTop:
			b.WriteString("  ← goal of player 2")
		case psGoalBot:
			b.WriteString("  ← goal of player 1")
		}
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}

func (g paperSoccer) rulesText(s *PSState) string {
	text := "== **Paper Soccer** ==\n" +
		"⬆️ " + Mention(s.Players[0]) + " wins by getting the ball to the **top** of the screen.\n" +
		"⬇️ " + Mention(s.Players[1]) + " wins by getting the ball to the **bottom** of the screen.\n" +
		"You cannot move across a line that has already been drawn.\n" +
		"If the location you move to already has a line, you get to keep going.\n" +
		"If you get the ball stuck, your opponent wins."
	if s.Over != nil {
		text += "\n\nThis game is over. " + Mention(s.Players[s.Player]) + " won (" + s.Over.Reason + ")"
	}
	return text
}

func (g paperSoccer) Render(st State, k Key) Message {
	s, ok := st.(*PSState)
	if !ok {
		return unsupportedState("")
	}
	switch s.Mode {
	case ModeJoining:
		return renderLobby(Mention(s.Initiator)+" is starting a "+g.Title(), k, false)
	case ModePlaying:
		rulesBtn := Btn(k.Action(actRules), "Rules", StyleSecondary)
		content := s.renderBoard()
		if s.Over != nil {
			content += Mention(s.Players[s.Player]) + " won! (" + s.Over.Reason + ")"
			return Message{Content: content, Rows: []Row{NewRow(rulesBtn)}}
		}
		goal := "top"
		if s.Player == 1 {
			goal = "bottom"
		}
		content += "It's your turn " + Mention(s.Players[s.Player]) + ". Your goal is the " + goal + "."
		dir := func(code, glyph string) Button {
			d := psDirs[code]
			tx, ty := s.Ball[0]+d[0], s.Ball[1]+d[1]
			blocked := !psEdgeExists(s.Ball[0], s.Ball[1], tx, ty) ||
				s.Drawn[psEdgeKey(s.Ball[0], s.Ball[1], tx, ty)]
			return Btn(k.Action("mv,"+code), glyph, StyleSecondary).OffIf(blocked)
		}
		pad := Btn(k.Action("none"), " ", StyleSecondary).Off()
		return Message{Content: content, Rows: []Row{
			NewRow(dir("nw", "↖"), dir("n", "↑"), dir("ne", "↗")),
			NewRow(dir("w", "←"), pad, dir("e", "→")),
			NewRow(dir("sw", "↙"), dir("s", "↓"), dir("se", "↘")),
			NewRow(rulesBtn, Btn(k.Action(actGiveUp), "Give Up", StyleDeny)),
		}}
	case ModeCanceled:
		return canceledMessage()
	default:
		return unsupportedState(s.Mode)
	}
}

func (g paperSoccer) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*PSState)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	switch s.Mode {
	case ModeJoining:
		out, handled := handleLobby(s.Initiator, action, actor, k,
			func(opponent UserID) State {
				return &PSState{
					Mode:    ModePlaying,
					Drawn:   psWalls(),
					Ball:    [2]int{psKickoffX, psKickoffY},
					Player:  0,
					Players: []UserID{s.Initiator, opponent},
				}
			},
			func() State { return &PSState{Mode: ModeCanceled} })
		if handled {
			return out
		}
		return Reject("Error! Unsupported " + action)
	case ModePlaying:
		if action == actRules {
			return Handled(g.rulesText(s))
		}
		if s.Over != nil {
			return Reject("This game is over.")
		}
		if actor != s.Players[s.Player] {
			if actor != s.Players[1-s.Player] {
				return Reject("You're not in this game")
			}
			return Reject("It's not your turn")
		}
		if action == actGiveUp {
			next := s.clone()
			next.Player = 1 - s.Player
			next.Over = &PSOver{Reason: "Other player gave up"}
			return Advance(next)
		}
		if code, found := strings.CutPrefix(action, "mv,"); found {
			d, knownDir := psDirs[code]
			if !knownDir {
				return Reject("Error! Unsupported " + action)
			}
			tx, ty := s.Ball[0]+d[0], s.Ball[1]+d[1]
			if !psEdgeExists(s.Ball[0], s.Ball[1], tx, ty) {
				return Reject("You can't go off the edge of the board")
			}
			edge := psEdgeKey(s.Ball[0], s.Ball[1], tx, ty)
			if s.Drawn[edge] {
				return Reject("You can't go over a line")
			}
			next := s.clone()
			visited := next.drawnCount(tx, ty) > 0
			next.Drawn[edge] = true
			next.Ball = [2]int{tx, ty}
			switch {
			case ty == psGoalTop:
				next.Player = 0
				next.Over = &PSOver{Reason: "Got in goal"}
			case ty == psGoalBot:
				next.Player = 1
				next.Over = &PSOver{Reason: "Got in goal"}
			case next.undrawnCount(tx, ty) == 0:
				next.Player = 1 - s.Player
				next.Over = &PSOver{Reason: "Other player was unable to move"}
			case visited:
				// bounce: the mover goes again
			default:
				next.Player = 1 - s.Player
			}
			return Advance(next)
		}
		return Reject("Error! Unsupported " + action)
	case ModeCanceled:
		return Reject("This game was not started.")
	default:
		return Reject("Unsupported " + string(s.Mode))
	}
}

func (s *PSState) clone() *PSState {
	next := *s
	next.Drawn = make(map[string]bool, len(s.Drawn))
	for e, v := range s.Drawn {
		next.Drawn[e] = v
	}
	next.Players = append([]UserID(nil), s.Players...)
	return &next
}
