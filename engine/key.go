package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxKeyLen is the chat platform's ceiling on a control identifier.
const MaxKeyLen = 100

const (
	keyPrefix = "GAME"
	keySep    = "|"
)

var (
	// ErrKeyTooLong means the encoded key would exceed MaxKeyLen. Callers
	// keep action names short enough that this never fires at runtime.
	ErrKeyTooLong = errors.New("interaction key too long")
	// ErrBadKey means a token did not parse as an interaction key.
	ErrBadKey = errors.New("malformed interaction key")
)

// GameID is the store-assigned identifier of one game instance.
type GameID int64

// FormatGameID renders an ID in base 36, the compact form used inside keys.
func FormatGameID(id GameID) string {
	return strconv.FormatInt(int64(id), 36)
}

// ParseGameID parses the base-36 form produced by FormatGameID.
func ParseGameID(s string) (GameID, error) {
	n, err := strconv.ParseInt(s, 36, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad game id %q", ErrBadKey, s)
	}
	return GameID(n), nil
}

// Key identifies one rendered revision of one game. Every button rendered
// for that revision embeds it; once the stage advances, all of them are
// permanently stale.
type Key struct {
	GameID GameID
	Kind   Kind
	Stage  int
}

// Action encodes a button identifier for the named action. Action names are
// engine-authored constants, so a violation here is a programming error.
func (k Key) Action(name string) string {
	s, err := EncodeKey(k.GameID, k.Kind, k.Stage, name)
	if err != nil {
		panic(err)
	}
	return s
}

// EncodeKey builds the wire form GAME|<id36>|<kind>|<stage>|<name>.
// The separator is forbidden inside name, which keeps decoding unambiguous.
func EncodeKey(id GameID, kind Kind, stage int, name string) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("negative game id %d", id)
	}
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	if stage < 0 {
		return "", fmt.Errorf("negative stage %d", stage)
	}
	if name == "" || strings.Contains(name, keySep) {
		return "", fmt.Errorf("bad action name %q", name)
	}
	s := keyPrefix + keySep + FormatGameID(id) + keySep + string(kind) +
		keySep + strconv.Itoa(stage) + keySep + name
	if len(s) > MaxKeyLen {
		return "", ErrKeyTooLong
	}
	return s, nil
}

// ParsedKey is a decoded interaction key.
type ParsedKey struct {
	GameID GameID
	Kind   Kind
	Stage  int
	Name   string
}

// ParseKey decodes a token previously produced by EncodeKey. It round-trips
// losslessly for every valid key.
func ParseKey(token string) (ParsedKey, error) {
	if len(token) > MaxKeyLen {
		return ParsedKey{}, fmt.Errorf("%w: %d chars", ErrBadKey, len(token))
	}
	parts := strings.Split(token, keySep)
	if len(parts) != 5 || parts[0] != keyPrefix {
		return ParsedKey{}, fmt.Errorf("%w: %q", ErrBadKey, token)
	}
	id, err := ParseGameID(parts[1])
	if err != nil {
		return ParsedKey{}, err
	}
	kind := Kind(parts[2])
	if !kind.Valid() {
		return ParsedKey{}, fmt.Errorf("%w: unknown kind %q", ErrBadKey, parts[2])
	}
	stage, err := strconv.Atoi(parts[3])
	if err != nil || stage < 0 {
		return ParsedKey{}, fmt.Errorf("%w: bad stage %q", ErrBadKey, parts[3])
	}
	if parts[4] == "" {
		return ParsedKey{}, fmt.Errorf("%w: empty action", ErrBadKey)
	}
	return ParsedKey{GameID: id, Kind: kind, Stage: stage, Name: parts[4]}, nil
}
