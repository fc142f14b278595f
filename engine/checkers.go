package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Checker is one cell of the checkers board: empty, a man, or a king.
type Checker string

const (
	chkNone      Checker = ""
	chkRedMan    Checker = "r"
	chkBlackMan  Checker = "b"
	chkRedKing   Checker = "R"
	chkBlackKing Checker = "B"
)

// ChkColor is a checkers side. Red is the initiator and moves first, from
// the bottom of the board upward; black moves downward.
type ChkColor string

const (
	ChkRed   ChkColor = "red"
	ChkBlack ChkColor = "black"
)

func otherChkColor(c ChkColor) ChkColor {
	if c == ChkRed {
		return ChkBlack
	}
	return ChkRed
}

func chkColorOf(c Checker) (ChkColor, bool) {
	switch c {
	case chkRedMan, chkRedKing:
		return ChkRed, true
	case chkBlackMan, chkBlackKing:
		return ChkBlack, true
	}
	return "", false
}

func chkIsKing(c Checker) bool { return c == chkRedKing || c == chkBlackKing }

// CHKWin records how a checkers game ended.
type CHKWin struct {
	Winner ChkColor `json:"winner"`
	Reason string   `json:"reason"`
}

// CHKState is checkers. A turn is piece selection (a press of its numbered
// button) followed by a direction arrow. Captures are mandatory and chain:
// after a jump the same piece must keep jumping while it can, unless the
// jump promoted it.
type CHKState struct {
	Mode      Mode                `json:"mode"`
	Initiator UserID              `json:"initiator,omitempty"`
	Board     Grid[Checker]       `json:"board,omitempty"`
	Turn      ChkColor            `json:"turn,omitempty"`
	Players   map[ChkColor]UserID `json:"players,omitempty"`
	Selected  *int                `json:"selected,omitempty"` // cell index y*8+x
	Chain     bool                `json:"chain,omitempty"`    // mid-capture, Selected is locked
	Win       *CHKWin             `json:"win,omitempty"`
}

func (*CHKState) gameState() {}

type checkers struct{}

func (checkers) Kind() Kind    { return KindCheckers }
func (checkers) Title() string { return "Checkers" }

func (checkers) NewState(host UserID) State {
	return &CHKState{Mode: ModeJoining, Initiator: host}
}

func (checkers) DecodeState(data []byte) (State, error) {
	var s CHKState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("checkers state: %w", err)
	}
	switch s.Mode {
	case ModeJoining:
		if s.Initiator == "" {
			return nil, fmt.Errorf("checkers state: joining without initiator")
		}
	case ModePlaying, ModeWon:
		if !s.Board.Rect(8, 8) {
			return nil, fmt.Errorf("checkers state: board is not 8x8")
		}
		if s.Turn != ChkRed && s.Turn != ChkBlack {
			return nil, fmt.Errorf("checkers state: bad turn %q", s.Turn)
		}
		if s.Players[ChkRed] == "" || s.Players[ChkBlack] == "" {
			return nil, fmt.Errorf("checkers state: missing players")
		}
		if s.Selected != nil && (*s.Selected < 0 || *s.Selected > 63) {
			return nil, fmt.Errorf("checkers state: bad selection %d", *s.Selected)
		}
	case ModeCanceled:
	default:
		return nil, fmt.Errorf("checkers state: unknown mode %q", s.Mode)
	}
	return &s, nil
}

// chkInitialBoard places black on rows 0-2 and red on rows 5-7, dark
// squares only.
func chkInitialBoard() Grid[Checker] {
	b := NewGrid(8, 8, chkNone)
	for y := 0; y < 3; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 1 {
				b[y][x] = chkBlackMan
			}
		}
	}
	for y := 5; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 1 {
				b[y][x] = chkRedMan
			}
		}
	}
	return b
}

var chkDirs = map[string][2]int{
	"ul": {-1, -1},
	"ur": {1, -1},
	"dl": {-1, 1},
	"dr": {1, 1},
}

// chkMove is one legal move of the selected piece.
type chkMove struct {
	from, to int
	mid      int // jumped cell for captures, -1 otherwise
}

func (m chkMove) capture() bool { return m.mid >= 0 }

// forwardOK reports whether a man of color may move with vertical delta dy.
func forwardOK(color ChkColor, dy int) bool {
	if color == ChkRed {
		return dy < 0
	}
	return dy > 0
}

// rawMoves lists the piece's moves ignoring the mandatory-capture rule.
func (s *CHKState) rawMoves(cell int) []chkMove {
	piece := s.Board[cell/8][cell%8]
	color, ok := chkColorOf(piece)
	if !ok {
		return nil
	}
	var moves []chkMove
	for _, d := range chkDirs {
		if !chkIsKing(piece) && !forwardOK(color, d[1]) {
			continue
		}
		x, y := cell%8+d[0], cell/8+d[1]
		if !s.Board.InBounds(x, y) {
			continue
		}
		if s.Board[y][x] == chkNone {
			moves = append(moves, chkMove{from: cell, to: y*8 + x, mid: -1})
			continue
		}
		if midColor, ok := chkColorOf(s.Board[y][x]); ok && midColor != color {
			lx, ly := x+d[0], y+d[1]
			if s.Board.InBounds(lx, ly) && s.Board[ly][lx] == chkNone {
				moves = append(moves, chkMove{from: cell, to: ly*8 + lx, mid: y*8 + x})
			}
		}
	}
	return moves
}

// captureExists reports whether any piece of color has a jump.
func (s *CHKState) captureExists(color ChkColor) bool {
	for cell := 0; cell < 64; cell++ {
		if c, ok := chkColorOf(s.Board[cell/8][cell%8]); !ok || c != color {
			continue
		}
		for _, m := range s.rawMoves(cell) {
			if m.capture() {
				return true
			}
		}
	}
	return false
}

// legalMoves applies the mandatory-capture and chain constraints.
func (s *CHKState) legalMoves(cell int) []chkMove {
	if s.Chain && (s.Selected == nil || *s.Selected != cell) {
		return nil
	}
	raw := s.rawMoves(cell)
	mustCapture := s.Chain || s.captureExists(s.Turn)
	if !mustCapture {
		return raw
	}
	var jumps []chkMove
	for _, m := range raw {
		if m.capture() {
			jumps = append(jumps, m)
		}
	}
	return jumps
}

// pieceCells lists the current player's pieces in row-major order; the list
// index is the piece's button number.
func (s *CHKState) pieceCells() []int {
	var cells []int
	for cell := 0; cell < 64; cell++ {
		if c, ok := chkColorOf(s.Board[cell/8][cell%8]); ok && c == s.Turn {
			cells = append(cells, cell)
		}
	}
	return cells
}

func (s *CHKState) hasAnyMove(color ChkColor) bool {
	for cell := 0; cell < 64; cell++ {
		if c, ok := chkColorOf(s.Board[cell/8][cell%8]); ok && c == color {
			if len(s.rawMoves(cell)) > 0 {
				return true
			}
		}
	}
	return false
}

var chkPieceLabels = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "A", "B", "C"}

func (s *CHKState) renderBoard() string {
	pieces := s.pieceCells()
	label := make(map[int]string, len(pieces))
	for i, cell := range pieces {
		if i < len(chkPieceLabels) {
			label[cell] = chkPieceLabels[i]
		}
	}
	var b strings.Builder
	b.WriteString("```\n")
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			cell := y*8 + x
			c := s.Board[y][x]
			switch {
			case c == chkNone && (x+y)%2 == 1:
				b.WriteString("·")
			case c == chkNone:
				b.WriteString(" ")
			case label[cell] != "":
				b.WriteString(label[cell])
			case chkIsKing(c):
				b.WriteString("X")
			default:
				b.WriteString("x")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}

func (g checkers) Render(st State, k Key) Message {
	s, ok := st.(*CHKState)
	if !ok {
		return unsupportedState("")
	}
	switch s.Mode {
	case ModeJoining:
		return renderLobby(Mention(s.Initiator)+" is starting a game of "+g.Title(), k, true)
	case ModePlaying, ModeWon:
		rulesBtn := Btn(k.Action(actRules), "Rules", StyleSecondary)
		content := s.renderBoard()
		if s.Mode == ModeWon {
			if s.Win != nil {
				content += Mention(s.Players[s.Win.Winner]) + " won! (" + s.Win.Reason + ")"
			} else {
				content += "The game is over."
			}
			return Message{Content: content, Rows: []Row{NewRow(rulesBtn)}}
		}
		content += "It's your turn " + Mention(s.Players[s.Turn]) + ", You are " + string(s.Turn) +
			". Your pieces are numbered; opponent pieces are x (X for kings)."
		switch {
		case s.Chain && s.Selected != nil:
			content += "\nPiece " + s.pieceLabelAt(*s.Selected) + " must keep jumping."
		case s.Selected != nil:
			content += "\nSelected piece " + s.pieceLabelAt(*s.Selected) + ". Pick a direction."
		default:
			content += "\nSelect a piece."
		}

		pieces := s.pieceCells()
		arrow := func(dir, glyph string) Button {
			enabled := false
			if s.Selected != nil {
				d := chkDirs[dir]
				for _, m := range s.legalMoves(*s.Selected) {
					if m.to == moveTarget(*s.Selected, d, m.capture()) {
						enabled = true
						break
					}
				}
			}
			return Btn(k.Action("m,"+dir), glyph, StyleSecondary).OffIf(!enabled)
		}
		pieceBtn := func(i int) Button {
			enabled := i < len(pieces) && len(s.legalMoves(pieces[i])) > 0
			return Btn(k.Action("p,"+strconv.Itoa(i)), chkPieceLabels[i], StyleSecondary).OffIf(!enabled)
		}
		return Message{Content: content, Rows: []Row{
			NewRow(arrow("ul", "↖"), arrow("ur", "↗"), rulesBtn),
			NewRow(arrow("dl", "↙"), arrow("dr", "↘"), Btn(k.Action(actGiveUp), "Give Up", StyleDeny)),
			NewRow(pieceBtn(0), pieceBtn(1), pieceBtn(2), pieceBtn(3)),
			NewRow(pieceBtn(4), pieceBtn(5), pieceBtn(6), pieceBtn(7)),
			NewRow(pieceBtn(8), pieceBtn(9), pieceBtn(10), pieceBtn(11)),
		}}
	case ModeCanceled:
		return canceledMessage()
	default:
		return unsupportedState(s.Mode)
	}
}

func (s *CHKState) pieceLabelAt(cell int) string {
	for i, c := range s.pieceCells() {
		if c == cell && i < len(chkPieceLabels) {
			return chkPieceLabels[i]
		}
	}
	return "?"
}

// moveTarget computes the landing cell for a direction, one step for plain
// moves and two for jumps.
func moveTarget(from int, d [2]int, capture bool) int {
	steps := 1
	if capture {
		steps = 2
	}
	x, y := from%8+d[0]*steps, from/8+d[1]*steps
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return -1
	}
	return y*8 + x
}

func (g checkers) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*CHKState)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	if action == actRules {
		return Handled("Try to capture all your opponent's pieces. Captures are mandatory, and a jumping piece keeps jumping while it can.")
	}
	switch s.Mode {
	case ModeJoining:
		out, handled := handleLobby(s.Initiator, action, actor, k,
			func(opponent UserID) State {
				return &CHKState{
					Mode:    ModePlaying,
					Board:   chkInitialBoard(),
					Turn:    ChkRed,
					Players: map[ChkColor]UserID{ChkRed: s.Initiator, ChkBlack: opponent},
				}
			},
			func() State { return &CHKState{Mode: ModeCanceled} })
		if handled {
			return out
		}
		return Reject("Error! Unsupported " + action)
	case ModePlaying:
		if actor != s.Players[s.Turn] {
			if actor != s.Players[otherChkColor(s.Turn)] {
				return Reject("You're not in this game")
			}
			return Reject("It's not your turn")
		}
		if action == actGiveUp {
			next := s.clone()
			next.Mode = ModeWon
			next.Selected = nil
			next.Chain = false
			next.Win = &CHKWin{Winner: otherChkColor(s.Turn), Reason: "Other player gave up"}
			return Advance(next)
		}
		if iStr, found := strings.CutPrefix(action, "p,"); found {
			if s.Chain {
				return Reject("You must keep jumping with the same piece")
			}
			i, err := strconv.Atoi(iStr)
			pieces := s.pieceCells()
			if err != nil || i < 0 || i >= len(pieces) {
				return Reject("You can't do that.")
			}
			cell := pieces[i]
			if len(s.legalMoves(cell)) == 0 {
				return Reject("That piece has no legal moves")
			}
			next := s.clone()
			next.Selected = &cell
			return Advance(next)
		}
		if dir, found := strings.CutPrefix(action, "m,"); found {
			d, knownDir := chkDirs[dir]
			if !knownDir {
				return Reject("You can't do that.")
			}
			if s.Selected == nil {
				return Reject("Select a piece first")
			}
			var move *chkMove
			for _, m := range s.legalMoves(*s.Selected) {
				if m.to == moveTarget(*s.Selected, d, m.capture()) && m.to >= 0 {
					move = &m
					break
				}
			}
			if move == nil {
				return Reject("You can't move there")
			}
			return g.apply(s, *move)
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

// apply executes a validated move, resolving promotion, capture chains and
// the end-of-game checks.
func (g checkers) apply(s *CHKState, m chkMove) Outcome {
	next := s.clone()
	piece := next.Board[m.from/8][m.from%8]
	next.Board[m.from/8][m.from%8] = chkNone
	if m.capture() {
		next.Board[m.mid/8][m.mid%8] = chkNone
	}

	promoted := false
	if piece == chkRedMan && m.to/8 == 0 {
		piece = chkRedKing
		promoted = true
	}
	if piece == chkBlackMan && m.to/8 == 7 {
		piece = chkBlackKing
		promoted = true
	}
	next.Board[m.to/8][m.to%8] = piece

	// A capture chain continues with the same piece unless the jump
	// promoted it.
	if m.capture() && !promoted {
		to := m.to
		next.Selected = &to
		next.Chain = true
		for _, cm := range next.rawMoves(to) {
			if cm.capture() {
				return Advance(next)
			}
		}
	}

	next.Selected = nil
	next.Chain = false
	mover := next.Turn
	next.Turn = otherChkColor(mover)
	if len(next.pieceCells()) == 0 {
		next.Mode = ModeWon
		next.Win = &CHKWin{Winner: mover, Reason: "No pieces left"}
	} else if !next.hasAnyMove(next.Turn) {
		next.Mode = ModeWon
		next.Win = &CHKWin{Winner: mover, Reason: "No moves left"}
	}
	return Advance(next)
}

func (s *CHKState) clone() *CHKState {
	next := *s
	next.Board = make(Grid[Checker], len(s.Board))
	for y, row := range s.Board {
		next.Board[y] = append([]Checker(nil), row...)
	}
	next.Players = make(map[ChkColor]UserID, len(s.Players))
	for c, u := range s.Players {
		next.Players[c] = u
	}
	if s.Selected != nil {
		sel := *s.Selected
		next.Selected = &sel
	}
	return &next
}
