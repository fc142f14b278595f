package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

const (
	alice UserID = "100"
	bob   UserID = "200"
	carol UserID = "300"
)

func tttKey(stage int) Key {
	return Key{GameID: 1, Kind: KindTicTacToe, Stage: stage}
}

// startTTT drives the joining flow to a fresh playing state.
func startTTT(t *testing.T) *TTTState {
	t.Helper()
	g, _ := ByKind(KindTicTacToe)
	st := g.NewState(alice)
	out := g.Handle(st, "join", bob, tttKey(0))
	if out.Type != OutcomeAdvance {
		t.Fatalf("join: got outcome %d, want advance", out.Type)
	}
	return out.Next.(*TTTState)
}

// TestTTTJoinFlow covers the spec'd join transitions: a distinct joiner
// starts the game with {X: initiator, O: joiner}; the initiator clicking
// Join gets a prompt, not a transition.
func TestTTTJoinFlow(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)

	s := startTTT(t)
	if s.Mode != ModePlaying {
		t.Fatalf("mode = %q, want playing", s.Mode)
	}
	if s.Players[MarkX] != alice || s.Players[MarkO] != bob {
		t.Errorf("players = %v, want X:alice O:bob", s.Players)
	}
	if s.Player != MarkX {
		t.Errorf("first turn = %q, want X", s.Player)
	}

	// The initiator joining their own game gets the self-play prompt.
	st := g.NewState(alice)
	out := g.Handle(st, "join", alice, tttKey(0))
	if out.Type != OutcomeHandled {
		t.Fatalf("self join: got outcome %d, want handled", out.Type)
	}
	if len(out.Rows) != 1 || len(out.Rows[0].Buttons) != 1 {
		t.Fatalf("self join prompt: want exactly one button, got %+v", out.Rows)
	}
	promptKey, err := ParseKey(out.Rows[0].Buttons[0].ID)
	if err != nil {
		t.Fatalf("prompt button id: %v", err)
	}
	if promptKey.Name != "join_anyway" {
		t.Errorf("prompt action = %q, want join_anyway", promptKey.Name)
	}

	// Confirming the prompt starts a self-game.
	out = g.Handle(st, "join_anyway", alice, tttKey(0))
	if out.Type != OutcomeAdvance {
		t.Fatalf("join_anyway: got outcome %d, want advance", out.Type)
	}
	self := out.Next.(*TTTState)
	if self.Players[MarkX] != alice || self.Players[MarkO] != alice {
		t.Errorf("self game players = %v", self.Players)
	}
}

func TestTTTCancel(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)
	st := g.NewState(alice)

	out := g.Handle(st, "end", bob, tttKey(0))
	if out.Type != OutcomeReject {
		t.Fatalf("cancel by non-initiator: got outcome %d, want reject", out.Type)
	}

	out = g.Handle(st, "end", alice, tttKey(0))
	if out.Type != OutcomeAdvance {
		t.Fatalf("cancel by initiator: got outcome %d, want advance", out.Type)
	}
	if s := out.Next.(*TTTState); s.Mode != ModeCanceled {
		t.Errorf("mode = %q, want canceled", s.Mode)
	}
}

func playTTT(t *testing.T, s *TTTState, actor UserID, action string) *TTTState {
	t.Helper()
	g, _ := ByKind(KindTicTacToe)
	out := g.Handle(s, action, actor, tttKey(1))
	if out.Type != OutcomeAdvance {
		t.Fatalf("%s by %s: got outcome %d (%q), want advance", action, actor, out.Type, out.Notice)
	}
	return out.Next.(*TTTState)
}

// TestTTTDiagonalWin plays (0,0) (1,1) (2,2) for X and expects the
// "Three in a row" win.
func TestTTTDiagonalWin(t *testing.T) {
	s := startTTT(t)
	s = playTTT(t, s, alice, "T,0,0")
	s = playTTT(t, s, bob, "T,1,0")
	s = playTTT(t, s, alice, "T,1,1")
	s = playTTT(t, s, bob, "T,2,0")
	s = playTTT(t, s, alice, "T,2,2")
	if s.Mode != ModeWon {
		t.Fatalf("mode = %q, want won", s.Mode)
	}
	if s.Win == nil || s.Win.Player != MarkX || s.Win.Reason != "Three in a row" {
		t.Fatalf("win = %+v, want X / Three in a row", s.Win)
	}
}

// TestTTTTie fills all nine cells without a line.
func TestTTTTie(t *testing.T) {
	s := startTTT(t)
	// X X O / O O X / X O X — no three in a row.
	moves := []struct {
		actor  UserID
		action string
	}{
		{alice, "T,0,0"}, {bob, "T,2,0"}, {alice, "T,1,0"}, {bob, "T,0,1"},
		{alice, "T,2,1"}, {bob, "T,1,1"}, {alice, "T,0,2"}, {bob, "T,1,2"},
		{alice, "T,2,2"},
	}
	for _, m := range moves {
		s = playTTT(t, s, m.actor, m.action)
	}
	if s.Mode != ModeWon || s.Win == nil || s.Win.Player != MarkTie {
		t.Fatalf("want tie, got mode=%q win=%+v", s.Mode, s.Win)
	}
	if s.Win.Reason != "All spaces filled" {
		t.Errorf("tie reason = %q", s.Win.Reason)
	}
}

func TestTTTValidatesUntrustedPresses(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)
	s := startTTT(t)

	// Not your turn.
	if out := g.Handle(s, "T,0,0", bob, tttKey(1)); out.Type != OutcomeReject {
		t.Errorf("out-of-turn press: got %d, want reject", out.Type)
	}
	// Not in the game at all.
	if out := g.Handle(s, "T,0,0", carol, tttKey(1)); out.Type != OutcomeReject {
		t.Errorf("outsider press: got %d, want reject", out.Type)
	}
	// Occupied cell.
	s = playTTT(t, s, alice, "T,0,0")
	if out := g.Handle(s, "T,0,0", bob, tttKey(2)); out.Type != OutcomeReject {
		t.Errorf("occupied cell press: got %d, want reject", out.Type)
	}
	// Off-board coordinates from a spoofed key.
	if out := g.Handle(s, "T,9,9", bob, tttKey(2)); out.Type != OutcomeReject {
		t.Errorf("off-board press: got %d, want reject", out.Type)
	}
}

func TestTTTGiveUp(t *testing.T) {
	s := startTTT(t)
	s = playTTT(t, s, alice, "give_up")
	if s.Mode != ModeWon || s.Win == nil || s.Win.Player != MarkO {
		t.Fatalf("give up: want O wins, got %+v", s.Win)
	}
}

func TestTTTTerminalStatesReject(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)
	s := startTTT(t)
	s = playTTT(t, s, alice, "give_up")
	if out := g.Handle(s, "T,1,1", bob, tttKey(2)); out.Type != OutcomeReject {
		t.Errorf("press on won game: got %d, want reject", out.Type)
	}

	canceled := &TTTState{Mode: ModeCanceled, Initiator: alice}
	if out := g.Handle(canceled, "join", bob, tttKey(1)); out.Type != OutcomeReject {
		t.Errorf("press on canceled game: got %d, want reject", out.Type)
	}
}

// TestTTTRenderIdempotent re-renders the same state and expects identical
// output: no hidden counters besides the explicit stage.
func TestTTTRenderIdempotent(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)
	s := startTTT(t)
	k := tttKey(1)
	a, b := g.Render(s, k), g.Render(s, k)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two renders of the same state differ")
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("rendered message violates platform limits: %v", err)
	}
}

func TestTTTStateRoundTrip(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)
	s := startTTT(t)
	s = playTTT(t, s, alice, "T,1,1")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := g.DecodeState(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(back, s) {
		t.Fatalf("state round trip mismatch:\n got %+v\nwant %+v", back, s)
	}
}

func TestTTTDecodeRejectsCorruptState(t *testing.T) {
	g, _ := ByKind(KindTicTacToe)
	bad := []string{
		`{`,
		`{"mode":"flying"}`,
		`{"mode":"joining"}`,
		`{"mode":"playing","board":[[""]],"player":"X","players":{"X":"1","O":"2"}}`,
		`{"mode":"playing","board":[["","",""],["","",""],["","",""]],"player":"Q","players":{"X":"1","O":"2"}}`,
		`{"mode":"playing","board":[["","",""],["","",""],["","",""]],"player":"X","players":{"X":"1"}}`,
	}
	for _, b := range bad {
		if _, err := g.DecodeState([]byte(b)); err == nil {
			t.Errorf("DecodeState(%s): expected error", b)
		}
	}
}
