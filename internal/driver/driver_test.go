package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macabreb0b/interpunctbot/engine"
	"github.com/macabreb0b/interpunctbot/internal/guard"
	"github.com/macabreb0b/interpunctbot/internal/store"
)

const (
	alice engine.UserID = "100"
	bob   engine.UserID = "200"
)

// mockSurface records every delivery.
type mockSurface struct {
	posts   []engine.Message
	updates []engine.Message
	notices map[engine.UserID][]Notice
}

func newMockSurface() *mockSurface {
	return &mockSurface{notices: make(map[engine.UserID][]Notice)}
}

func (m *mockSurface) Post(ctx context.Context, id engine.GameID, msg engine.Message) error {
	m.posts = append(m.posts, msg)
	return nil
}

func (m *mockSurface) Update(ctx context.Context, id engine.GameID, msg engine.Message) error {
	m.updates = append(m.updates, msg)
	return nil
}

func (m *mockSurface) Notify(ctx context.Context, user engine.UserID, n Notice) error {
	m.notices[user] = append(m.notices[user], n)
	return nil
}

// lastNotice returns the most recent notice sent to user, failing if none.
func (m *mockSurface) lastNotice(t *testing.T, user engine.UserID) Notice {
	t.Helper()
	ns := m.notices[user]
	require.NotEmpty(t, ns, "no notices for %s", user)
	return ns[len(ns)-1]
}

// findAction digs a live token for the named action out of a message.
func findAction(t *testing.T, msg engine.Message, name string) string {
	t.Helper()
	for _, row := range msg.Rows {
		for _, b := range row.Buttons {
			pk, err := engine.ParseKey(b.ID)
			if err == nil && pk.Name == name {
				return b.ID
			}
		}
	}
	t.Fatalf("no %q button in message %+v", name, msg)
	return ""
}

func newTestDriver(t *testing.T) (*Driver, *mockSurface, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	surface := newMockSurface()
	logger := log.New()
	logger.SetOutput(io.Discard)
	d := New(st, guard.NewMemory(), surface, logger)
	return d, surface, st
}

func TestCreatePostsLobby(t *testing.T) {
	ctx := context.Background()
	d, surface, st := newTestDriver(t)

	id, err := d.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	require.Len(t, surface.posts, 1)

	token := findAction(t, surface.posts[0], "join")
	pk, err := engine.ParseKey(token)
	require.NoError(t, err)
	assert.Equal(t, id, pk.GameID)
	assert.Equal(t, 0, pk.Stage)

	rec, err := st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Stage)
	assert.Equal(t, engine.KindTicTacToe, rec.Kind)
}

func TestPressAdvancesStage(t *testing.T) {
	ctx := context.Background()
	d, surface, st := newTestDriver(t)

	id, err := d.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	token := findAction(t, surface.posts[0], "join")

	require.NoError(t, d.Press(ctx, token, bob))
	require.Len(t, surface.updates, 1)

	rec, err := st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Stage)

	// Every button in the replacement message carries the new stage.
	for _, row := range surface.updates[0].Rows {
		for _, b := range row.Buttons {
			pk, err := engine.ParseKey(b.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, pk.Stage, "button %q", b.ID)
		}
	}
}

func TestStalePressNeverReachesEngine(t *testing.T) {
	ctx := context.Background()
	d, surface, st := newTestDriver(t)

	id, err := d.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	token := findAction(t, surface.posts[0], "join")

	require.NoError(t, d.Press(ctx, token, bob))
	before, err := st.Load(ctx, id)
	require.NoError(t, err)

	// Replaying the stage-0 token against the stage-1 record.
	require.NoError(t, d.Press(ctx, token, bob))
	assert.Equal(t, "This button is no longer active.", surface.lastNotice(t, bob).Text)
	assert.Len(t, surface.updates, 1, "stale press must not update the shared message")

	after, err := st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after, "stale press must not mutate the record")
}

func TestRejectBecomesPrivateNotice(t *testing.T) {
	ctx := context.Background()
	d, surface, st := newTestDriver(t)

	id, err := d.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	token := findAction(t, surface.posts[0], "join")
	require.NoError(t, d.Press(ctx, token, bob))

	// Bob (O) presses out of turn on the fresh board.
	cell := findAction(t, surface.updates[0], "T,0,0")
	require.NoError(t, d.Press(ctx, cell, bob))
	assert.Equal(t, "It's not your turn", surface.lastNotice(t, bob).Text)

	rec, err := st.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Stage, "a reject must not advance the stage")
}

func TestHandledNoticeCarriesButtons(t *testing.T) {
	ctx := context.Background()
	d, surface, _ := newTestDriver(t)

	_, err := d.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	token := findAction(t, surface.posts[0], "join")

	// The initiator joining their own game gets a private prompt whose
	// join-anyway button is itself a live stage-0 token.
	require.NoError(t, d.Press(ctx, token, alice))
	n := surface.lastNotice(t, alice)
	require.NotEmpty(t, n.Rows)
	prompt := engine.Message{Content: n.Text, Rows: n.Rows}
	again := findAction(t, prompt, "join_anyway")
	require.NoError(t, d.Press(ctx, again, alice))
	assert.Len(t, surface.updates, 1, "join anyway should start the game")
}

func TestPressOnMissingGame(t *testing.T) {
	ctx := context.Background()
	d, surface, _ := newTestDriver(t)

	token, err := engine.EncodeKey(41, engine.KindConnect4, 0, "join")
	require.NoError(t, err)
	require.NoError(t, d.Press(ctx, token, alice))
	assert.Equal(t, "That game no longer exists.", surface.lastNotice(t, alice).Text)
}

func TestMalformedTokenIsHardError(t *testing.T) {
	ctx := context.Background()
	d, surface, _ := newTestDriver(t)

	for _, token := range []string{
		"",
		"GAME|1|TTT|0",
		"NOPE|1|TTT|0|join",
		"GAME|1|TTT|0|join|extra",
		"GAME|1|XYZ|0|join",
	} {
		err := d.Press(ctx, token, alice)
		assert.ErrorIs(t, err, engine.ErrBadKey, "token %q", token)
	}
	assert.Empty(t, surface.notices, "codec violations get no polite notice")
}

func TestCorruptStateIsHardError(t *testing.T) {
	ctx := context.Background()
	d, _, st := newTestDriver(t)

	id, err := st.Create(ctx, engine.KindTicTacToe, json.RawMessage(`{"mode":"playing"}`))
	require.NoError(t, err)
	token, err := engine.EncodeKey(id, engine.KindTicTacToe, 0, "T,0,0")
	require.NoError(t, err)
	require.Error(t, d.Press(ctx, token, alice))
}

// heldGuard refuses every acquisition, as if the user already has a press in
// flight.
type heldGuard struct{}

func (heldGuard) Acquire(ctx context.Context, gameID engine.GameID, userID engine.UserID) (func(), bool, error) {
	return nil, false, nil
}

func TestBusyGuardNotice(t *testing.T) {
	ctx := context.Background()
	surface := newMockSurface()
	logger := log.New()
	logger.SetOutput(io.Discard)
	d := New(store.NewMemory(), heldGuard{}, surface, logger)

	token, err := engine.EncodeKey(1, engine.KindTicTacToe, 0, "join")
	require.NoError(t, err)
	require.NoError(t, d.Press(ctx, token, alice))
	assert.Contains(t, surface.lastNotice(t, alice).Text, "Hold on")
}

// countingGuard wraps the memory guard to verify every acquisition is
// released.
type countingGuard struct {
	inner    guard.Guard
	acquired int
	released int
}

func (c *countingGuard) Acquire(ctx context.Context, gameID engine.GameID, userID engine.UserID) (func(), bool, error) {
	release, ok, err := c.inner.Acquire(ctx, gameID, userID)
	if !ok || err != nil {
		return release, ok, err
	}
	c.acquired++
	return func() { c.released++; release() }, true, nil
}

func TestGuardReleasedOnEveryPath(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	surface := newMockSurface()
	g := &countingGuard{inner: guard.NewMemory()}
	logger := log.New()
	logger.SetOutput(io.Discard)
	d := New(st, g, surface, logger)

	id, err := d.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	token := findAction(t, surface.posts[0], "join")

	require.NoError(t, d.Press(ctx, token, bob))            // advance
	require.NoError(t, d.Press(ctx, token, bob))            // stale
	missing, _ := engine.EncodeKey(id+1, engine.KindTicTacToe, 0, "join")
	require.NoError(t, d.Press(ctx, missing, bob))          // not found
	cell := findAction(t, surface.updates[0], "T,1,1")
	require.NoError(t, d.Press(ctx, cell, bob))             // reject (not bob's turn)

	assert.Equal(t, g.acquired, g.released)
	assert.Equal(t, 4, g.acquired)
}

// failingStore fails Update to simulate persistence loss after the render
// went out.
type failingStore struct {
	*store.Memory
}

func (f failingStore) Update(ctx context.Context, id engine.GameID, stage int, state json.RawMessage) error {
	return fmt.Errorf("disk on fire")
}

func TestPersistFailureAfterRenderIsFatal(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	surface := newMockSurface()
	logger := log.New()
	logger.SetOutput(io.Discard)

	seed := New(mem, guard.NewMemory(), surface, logger)
	_, err := seed.Create(ctx, engine.KindTicTacToe, alice)
	require.NoError(t, err)
	token := findAction(t, surface.posts[0], "join")

	d := New(failingStore{mem}, guard.NewMemory(), surface, logger)
	err = d.Press(ctx, token, bob)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "persist"), "got %v", err)
	assert.Len(t, surface.updates, 1, "the render was already delivered")
}

func TestCreateUnknownKind(t *testing.T) {
	ctx := context.Background()
	d, _, _ := newTestDriver(t)
	_, err := d.Create(ctx, engine.Kind("XYZ"), alice)
	require.Error(t, err)
}
