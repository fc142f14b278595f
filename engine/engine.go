// Package engine implements the button-game rules.
//
// Each game kind is a pure state machine: Render turns a state into a text
// message plus button rows, Handle applies one untrusted button press and
// reports the result as an Outcome. Nothing in this package performs I/O;
// persistence and delivery live in the driver.
package engine

// Kind selects which rule set governs a game instance.
type Kind string

const (
	KindTicTacToe   Kind = "TTT"
	KindUltimate    Kind = "UTTT"
	KindConnect4    Kind = "C4"
	KindCheckers    Kind = "CHK"
	KindCircleGame  Kind = "CG"
	KindPaperSoccer Kind = "PS"
	KindCalculator  Kind = "CALC"
)

// Valid reports whether k is one of the seven known kinds.
func (k Kind) Valid() bool {
	_, ok := registry[k]
	return ok
}

// UserID identifies a user on the chat platform. Opaque to this package.
type UserID string

// State is the kind-specific game state. Each implementation is a tagged
// struct that round-trips through JSON; DecodeState validates the tag.
type State interface {
	gameState()
}

// OutcomeType discriminates the three results of a button press.
type OutcomeType uint8

const (
	OutcomeAdvance OutcomeType = iota // state progresses, stage +1
	OutcomeReject                     // illegal press, private notice, no change
	OutcomeHandled                    // side-channel reply, no state change
)

// Outcome is the result of Handle. Exactly one of the three constructors
// below produces it; engines never return errors for in-game conditions.
type Outcome struct {
	Type   OutcomeType
	Next   State  // set for OutcomeAdvance
	Notice string // private text for OutcomeReject / OutcomeHandled
	Rows   []Row  // optional button rows attached to the notice
}

// Advance reports a valid move producing the next state.
func Advance(next State) Outcome {
	return Outcome{Type: OutcomeAdvance, Next: next}
}

// Reject reports an illegal press. The notice goes privately to the actor.
func Reject(notice string) Outcome {
	return Outcome{Type: OutcomeReject, Notice: notice}
}

// Handled reports a press that was answered privately without touching the
// shared state, e.g. a rules reply or a confirmation prompt.
func Handled(notice string, rows ...Row) Outcome {
	return Outcome{Type: OutcomeHandled, Notice: notice, Rows: rows}
}

// Game is the two-operation interface every kind implements.
type Game interface {
	Kind() Kind
	// Title is the human name used in lobby messages.
	Title() string
	// NewState returns the stage-0 state for a game started by host.
	NewState(host UserID) State
	// DecodeState parses and validates a stored state blob. Records that do
	// not parse into a known variant are rejected, never trusted.
	DecodeState(data []byte) (State, error)
	// Render is total and deterministic: same state and key, same message.
	// Unknown state variants render a visible fallback rather than failing.
	Render(st State, k Key) Message
	// Handle applies one button press. action and actor are untrusted: the
	// display the press came from may be stale or spoofed, so every
	// invariant the UI already enforces is re-checked here. k is the key of
	// the revision being acted on, used to mint buttons for private replies.
	Handle(st State, action string, actor UserID, k Key) Outcome
}

// The kind set is closed: dispatch is by explicit tag, never by open
// registration.
var registry = map[Kind]Game{
	KindTicTacToe:   ticTacToe{},
	KindUltimate:    ultimate{},
	KindConnect4:    connect4{},
	KindCheckers:    checkers{},
	KindCircleGame:  circleGame{},
	KindPaperSoccer: paperSoccer{},
	KindCalculator:  calculator{},
}

// ByKind returns the rule engine for k.
func ByKind(k Kind) (Game, bool) {
	g, ok := registry[k]
	return g, ok
}

// Kinds returns all kinds in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindTicTacToe, KindUltimate, KindConnect4, KindCheckers,
		KindCircleGame, KindPaperSoccer, KindCalculator,
	}
}
