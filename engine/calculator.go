package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Calculator operator codes as stored in state and action names.
var calcOps = map[string]string{
	"+": "+",
	"-": "-",
	"*": "×",
	"/": "÷",
	"^": "^",
}

// CalcPending is an operator waiting for its right-hand side.
type CalcPending struct {
	Op     string `json:"op"`
	Number string `json:"number"`
}

// CalcEq remembers the last evaluated operation so that "=" can repeat it
// and backspace can unwind it.
type CalcEq struct {
	Op     string `json:"op"`
	Lhs    string `json:"lhs"`
	Number string `json:"number"`
}

// CalcState is the shared calculator: a running total evaluated strictly
// left to right, no operator precedence. Unlike the board games it has no
// players and no terminal state; anyone may press its buttons.
type CalcState struct {
	Current  string       `json:"current"`
	Previous *CalcPending `json:"previous,omitempty"`
	BeforeEq *CalcEq      `json:"before_eq,omitempty"`
}

func (*CalcState) gameState() {}

type calculator struct{}

func (calculator) Kind() Kind    { return KindCalculator }
func (calculator) Title() string { return "calculator" }

func (calculator) NewState(host UserID) State {
	return &CalcState{Current: ""}
}

func (calculator) DecodeState(data []byte) (State, error) {
	var s CalcState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("calculator state: %w", err)
	}
	if s.Previous != nil && calcOps[s.Previous.Op] == "" {
		return nil, fmt.Errorf("calculator state: unknown operator %q", s.Previous.Op)
	}
	if s.BeforeEq != nil && calcOps[s.BeforeEq.Op] == "" {
		return nil, fmt.Errorf("calculator state: unknown operator %q", s.BeforeEq.Op)
	}
	return &s, nil
}

// calcNum parses a display string the forgiving way: empty means zero,
// anything unparseable is NaN.
func calcNum(s string) float64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

func calcFormat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func calcEval(lhs, op, rhs string) string {
	a, b := calcNum(lhs), calcNum(rhs)
	switch op {
	case "+":
		return calcFormat(a + b)
	case "-":
		return calcFormat(a - b)
	case "*":
		return calcFormat(a * b)
	case "/":
		return calcFormat(a / b)
	case "^":
		return calcFormat(math.Pow(a, b))
	}
	return calcFormat(math.NaN())
}

// calculate folds the pending operation into Current and remembers it in
// BeforeEq. Returns false when there is nothing to evaluate, which is also
// what decides whether the "=" button is enabled.
func (s *CalcState) calculate() bool {
	var lhs, rhs, op string
	if s.Previous != nil {
		lhs, rhs, op = s.Previous.Number, s.Current, s.Previous.Op
	} else if s.BeforeEq != nil {
		lhs, rhs, op = s.Current, s.BeforeEq.Number, s.BeforeEq.Op
	} else {
		return false
	}
	s.BeforeEq = &CalcEq{Op: op, Lhs: lhs, Number: rhs}
	s.Previous = nil
	s.Current = calcEval(lhs, op, rhs)
	return true
}

var superDigits = map[rune]string{
	'0': "⁰", '1': "¹", '2': "²", '3': "³", '4': "⁴",
	'5': "⁵", '6': "⁶", '7': "⁷", '8': "⁸", '9': "⁹", '.': "·",
}

func superscript(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		sup, ok := superDigits[r]
		if !ok {
			return "", false
		}
		b.WriteString(sup)
	}
	return b.String(), true
}

func (g calculator) Render(st State, k Key) Message {
	s, ok := st.(*CalcState)
	if !ok {
		return unsupportedState("")
	}
	current := s.Current
	if current == "" {
		current = "0"
	}
	display := current
	if s.Previous != nil {
		sup, plain := superscript(current)
		if s.Previous.Op == "^" && s.Current != "" && plain {
			display = s.Previous.Number + sup
		} else {
			display = s.Previous.Number + " " + calcOps[s.Previous.Op] + " " + current
		}
	}
	if s.BeforeEq != nil {
		display = "= " + display
		if s.Previous == nil {
			display = calcOps[s.BeforeEq.Op] + " " + s.BeforeEq.Number + " " + display
		}
	}

	opsOn := s.Current != ""
	probe := *s // calculate mutates, so probe a copy
	eqOn := probe.calculate()
	op := func(code, label string) Button {
		return Btn(k.Action("O,"+code), label, StyleSecondary).OffIf(!opsOn)
	}
	digit := func(d string) Button {
		return Btn(k.Action("I,"+d), d, StyleSecondary)
	}
	eqStyle := StyleSecondary
	if eqOn {
		eqStyle = StylePrimary
	}
	return Message{
		Content: "```\n" + display + "\n```",
		Rows: []Row{
			NewRow(
				op("^", "xʸ"),
				Btn(k.Action("negative"), "±", StyleSecondary),
				Btn(k.Action("bksp"), "⌫", StyleSecondary),
				Btn(k.Action("ac"), "AC", StyleDeny),
			),
			NewRow(digit("7"), digit("8"), digit("9"), op("/", "÷")),
			NewRow(digit("4"), digit("5"), digit("6"), op("*", "×")),
			NewRow(digit("1"), digit("2"), digit("3"), op("-", "-")),
			NewRow(
				digit("0"),
				Btn(k.Action("I,."), ".", StyleSecondary).OffIf(strings.Contains(s.Current, ".")),
				Btn(k.Action("eq"), "=", eqStyle).OffIf(!eqOn),
				op("+", "+"),
			),
		},
	}
}

func (g calculator) Handle(st State, action string, actor UserID, k Key) Outcome {
	s, ok := st.(*CalcState)
	if !ok {
		return Reject("This game is in an unsupported state.")
	}
	switch {
	case strings.HasPrefix(action, "I,"):
		insert := strings.TrimPrefix(action, "I,")
		if insert != "." && (len(insert) != 1 || insert[0] < '0' || insert[0] > '9') {
			return Reject("Error! Unsupported " + action)
		}
		if insert == "." && strings.Contains(s.Current, ".") {
			return Reject("Already has a decimal point")
		}
		next := s.clone()
		next.Current += insert
		return Advance(next)
	case strings.HasPrefix(action, "O,"):
		code := strings.TrimPrefix(action, "O,")
		if calcOps[code] == "" {
			return Reject("Error! Unsupported " + action)
		}
		if s.Current == "" {
			return Reject("Enter a number first")
		}
		next := s.clone()
		if next.Previous != nil {
			if !next.calculate() {
				return Reject("Never.")
			}
		}
		next.Previous = &CalcPending{Op: code, Number: next.Current}
		next.Current = ""
		return Advance(next)
	case action == "ac":
		return Advance(&CalcState{Current: ""})
	case action == "bksp":
		next := s.clone()
		if next.Current == "" {
			// Unwind the most recent transition instead of editing text.
			switch {
			case next.Previous != nil:
				next.Current = next.Previous.Number
				next.Previous = nil
			case next.BeforeEq != nil:
				next.Current = next.BeforeEq.Number
				next.Previous = &CalcPending{Op: next.BeforeEq.Op, Number: next.BeforeEq.Lhs}
				next.BeforeEq = nil
			}
		} else {
			next.Current = next.Current[:len(next.Current)-1]
		}
		return Advance(next)
	case action == "eq":
		next := s.clone()
		if !next.calculate() {
			return Reject("Cannot = nothing")
		}
		return Advance(next)
	case action == "negative":
		next := s.clone()
		if strings.Contains(next.Current, "-") {
			next.Current = strings.Replace(next.Current, "-", "", 1)
		} else {
			next.Current = "-" + next.Current
		}
		return Advance(next)
	default:
		return Reject("Error! Unsupported " + action)
	}
}

func (s *CalcState) clone() *CalcState {
	next := *s
	if s.Previous != nil {
		p := *s.Previous
		next.Previous = &p
	}
	if s.BeforeEq != nil {
		e := *s.BeforeEq
		next.BeforeEq = &e
	}
	return &next
}
