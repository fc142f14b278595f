package engine

import (
	"strings"
	"testing"
)

// TestKeyRoundTrip verifies decode(encode(k)) == k across representative
// field values, including an 80-char action name.
func TestKeyRoundTrip(t *testing.T) {
	longName := strings.Repeat("a", 80)
	cases := []ParsedKey{
		{GameID: 0, Kind: KindTicTacToe, Stage: 0, Name: "join"},
		{GameID: 1, Kind: KindCalculator, Stage: 42, Name: "O,+"},
		{GameID: 35, Kind: KindPaperSoccer, Stage: 7, Name: "mv,nw"},
		{GameID: 1 << 40, Kind: KindUltimate, Stage: 999999, Name: "E,back"},
		{GameID: 12345, Kind: KindCheckers, Stage: 3, Name: longName},
	}
	for _, want := range cases {
		token, err := EncodeKey(want.GameID, want.Kind, want.Stage, want.Name)
		if err != nil {
			t.Fatalf("EncodeKey(%+v) error: %v", want, err)
		}
		got, err := ParseKey(token)
		if err != nil {
			t.Fatalf("ParseKey(%q) error: %v", token, err)
		}
		if got != want {
			t.Errorf("round trip: got %+v, want %+v", got, want)
		}
	}
}

// TestKeyLengthBound verifies the hard 100-char ceiling.
func TestKeyLengthBound(t *testing.T) {
	name := strings.Repeat("x", 95)
	if _, err := EncodeKey(1, KindTicTacToe, 0, name); err != ErrKeyTooLong {
		t.Fatalf("EncodeKey with %d-char name: got %v, want ErrKeyTooLong", len(name), err)
	}
}

func TestEncodeKeyRejectsBadInput(t *testing.T) {
	cases := []struct {
		id    GameID
		kind  Kind
		stage int
		name  string
	}{
		{-1, KindTicTacToe, 0, "join"},
		{1, "NOPE", 0, "join"},
		{1, KindTicTacToe, -1, "join"},
		{1, KindTicTacToe, 0, ""},
		{1, KindTicTacToe, 0, "a|b"},
	}
	for _, c := range cases {
		if _, err := EncodeKey(c.id, c.kind, c.stage, c.name); err == nil {
			t.Errorf("EncodeKey(%d, %q, %d, %q): expected error", c.id, c.kind, c.stage, c.name)
		}
	}
}

func TestParseKeyRejectsMalformedTokens(t *testing.T) {
	bad := []string{
		"",
		"GAME",
		"GAME|1|TTT|0",
		"NOTGAME|1|TTT|0|join",
		"GAME|!!|TTT|0|join",
		"GAME|1|XYZ|0|join",
		"GAME|1|TTT|-1|join",
		"GAME|1|TTT|x|join",
		"GAME|1|TTT|0|",
		"GAME|1|TTT|0|a|b",
	}
	for _, token := range bad {
		if _, err := ParseKey(token); err == nil {
			t.Errorf("ParseKey(%q): expected error", token)
		}
	}
}

// TestKeyActionPanicsOnViolation documents that Action treats codec
// violations as programming errors.
func TestKeyActionPanicsOnViolation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Action with a separator in the name should panic")
		}
	}()
	Key{GameID: 1, Kind: KindTicTacToe}.Action("a|b")
}

func TestGameIDFormats(t *testing.T) {
	for _, id := range []GameID{0, 1, 35, 36, 1 << 50} {
		got, err := ParseGameID(FormatGameID(id))
		if err != nil {
			t.Fatalf("ParseGameID(FormatGameID(%d)) error: %v", id, err)
		}
		if got != id {
			t.Errorf("game id round trip: got %d, want %d", got, id)
		}
	}
}
