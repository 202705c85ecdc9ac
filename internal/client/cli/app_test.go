package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/client/api"
	"github.com/dmitrijs2005/studymatch/internal/client/config"
	"github.com/dmitrijs2005/studymatch/internal/client/models"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/studymatch/internal/client/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	user     *models.User
	loginErr error
	gotEmail string
	gotPass  string

	signedUp []string

	rooms      []models.RoomSummary
	openRoomID string
	created    bool

	history    []models.Message
	historyErr error

	sent    []string
	sendErr error

	loggedOut bool
}

func (f *fakeAPI) Signup(_ context.Context, email, password, name string) (*models.User, error) {
	f.signedUp = append(f.signedUp, email, password, name)
	return &models.User{ID: "u-new", Email: email, Name: name}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*models.User, error) {
	f.gotEmail, f.gotPass = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.user, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.loggedOut = true
	return nil
}

func (f *fakeAPI) Me(context.Context) (*models.User, error) {
	if f.user == nil {
		return nil, api.ErrUnauthorized
	}
	return f.user, nil
}

func (f *fakeAPI) OpenRoom(_ context.Context, other string) (string, bool, error) {
	return f.openRoomID, f.created, nil
}

func (f *fakeAPI) Rooms(context.Context) ([]models.RoomSummary, error) {
	return f.rooms, nil
}

func (f *fakeAPI) Send(_ context.Context, roomID, text string) error {
	f.sent = append(f.sent, roomID+":"+text)
	return f.sendErr
}

func (f *fakeAPI) History(context.Context, string) ([]models.Message, error) {
	return f.history, f.historyErr
}

type fakeFollower struct {
	switched []string
	updates  chan models.Message
	closed   bool
}

func (f *fakeFollower) Switch(_ context.Context, roomID string) error {
	f.switched = append(f.switched, roomID)
	return nil
}

func (f *fakeFollower) Updates() <-chan models.Message { return f.updates }

func (f *fakeFollower) Close() error {
	if !f.closed {
		f.closed = true
		close(f.updates)
	}
	return nil
}

func stubInputs(t *testing.T, lines []string, password string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		l := lines[0]
		lines = lines[1:]
		return l, nil
	}
	getPassword = func(io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func newTestApp(t *testing.T, fa *fakeAPI, input string) (*App, *bytes.Buffer) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	return &App{
		api:      fa,
		store:    store,
		metadata: store.Metadata,
		cache:    store.Messages,
		reader:   rdr(input),
		out:      out,
	}, out
}

func TestNewApp_OpensCacheAndClient(t *testing.T) {
	cfg := &config.Config{ServerURL: "http://127.0.0.1:1", RequestTimeout: time.Second, CachePath: ":memory:"}
	a, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.store.Close()

	assert.NotNil(t, a.api)
	assert.False(t, a.isLoggedIn())

	cfg.ServerURL = "ftp://nope"
	_, err = NewApp(context.Background(), cfg)
	require.Error(t, err)
}

func TestSignup(t *testing.T) {
	fa := &fakeAPI{}
	a, out := newTestApp(t, fa, "")
	stubInputs(t, []string{"bob@example.com", "Bob"}, "secret1")

	require.NoError(t, a.Signup(context.Background()))
	assert.Equal(t, []string{"bob@example.com", "secret1", "Bob"}, fa.signedUp)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Account created")
}

func TestLogin_RemembersEmailAndRoom(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAPI{user: &models.User{ID: "u1", Email: "alice@example.com", Name: "Alice"}}
	a, _ := newTestApp(t, fa, "")
	require.NoError(t, a.metadata.Set(ctx, metadata.KeyLastRoom, "room-1"))

	stubInputs(t, []string{"alice@example.com"}, "secret1")
	require.NoError(t, a.Login(ctx))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "room-1", a.room)
	assert.Equal(t, ModeOnline, a.Mode)

	last, err := a.metadata.Get(ctx, metadata.KeyLastEmail)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", last)

	// An empty answer reuses the remembered email.
	a.user = nil
	stubInputs(t, []string{""}, "secret1")
	require.NoError(t, a.Login(ctx))
	assert.Equal(t, "alice@example.com", fa.gotEmail)
	assert.Contains(t, a.getStatus(), "alice@example.com")
}

func TestLogin_Failures(t *testing.T) {
	fa := &fakeAPI{loginErr: &api.StatusError{Code: 429}}
	a, _ := newTestApp(t, fa, "")

	stubInputs(t, []string{"a@x.io"}, "pw")
	err := a.Login(context.Background())
	require.ErrorContains(t, err, "too many login attempts")
	assert.False(t, a.isLoggedIn())

	fa.loginErr = fmt.Errorf("%w: dial", api.ErrUnavailable)
	stubInputs(t, []string{"a@x.io"}, "pw")
	require.ErrorIs(t, a.Login(context.Background()), api.ErrUnavailable)
	assert.Equal(t, ModeOffline, a.Mode)
}

func TestWhoami(t *testing.T) {
	fa := &fakeAPI{}
	a, out := newTestApp(t, fa, "")

	require.NoError(t, a.Whoami(context.Background()))
	assert.Contains(t, out.String(), "Not logged in")

	fa.user = &models.User{ID: "u1", Email: "a@x.io", Name: "Alice"}
	require.NoError(t, a.Whoami(context.Background()))
	assert.Contains(t, out.String(), "Alice <a@x.io> id=u1")
	assert.True(t, a.isLoggedIn())
}

func TestRoomsOpenAndUse(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAPI{
		rooms: []models.RoomSummary{{
			RoomID:           "room-1",
			OtherParticipant: models.Participant{ID: "u2", Name: "Bob"},
			CreatedAt:        time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC),
		}},
		openRoomID: "room-2",
		created:    true,
	}
	a, out := newTestApp(t, fa, "")

	require.NoError(t, a.Rooms(ctx))
	assert.Contains(t, out.String(), "room-1")
	assert.Contains(t, out.String(), "Bob")

	require.NoError(t, a.Open(ctx, "u3"))
	assert.Equal(t, "room-2", a.room)
	assert.Contains(t, out.String(), "Chat room created")

	last, err := a.metadata.Get(ctx, metadata.KeyLastRoom)
	require.NoError(t, err)
	assert.Equal(t, "room-2", last)

	require.NoError(t, a.Use(ctx, "room-1"))
	assert.Equal(t, "room-1", a.room)
}

func TestSendAndHistory_RequireRoom(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "")

	assert.ErrorIs(t, a.Send(context.Background(), "hi"), errNoRoom)
	assert.ErrorIs(t, a.History(context.Background()), errNoRoom)
	assert.ErrorIs(t, a.Follow(context.Background()), errNoRoom)
}

func TestHistory_CachesAndFallsBackOffline(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	fa := &fakeAPI{
		user: &models.User{ID: "u1"},
		history: []models.Message{
			{ID: "m1", RoomID: "room-1", SenderID: "u1", Text: "hello", Timestamp: t0},
			{ID: "m2", RoomID: "room-1", SenderID: "u2-long-identifier", Text: "hi back", Timestamp: t0.Add(time.Second)},
		},
	}
	a, out := newTestApp(t, fa, "")
	a.user = fa.user
	a.room = "room-1"

	require.NoError(t, a.Send(ctx, "hello"))
	assert.Equal(t, []string{"room-1:hello"}, fa.sent)

	require.NoError(t, a.History(ctx))
	assert.Contains(t, out.String(), "me: hello")
	assert.Contains(t, out.String(), "u2-long-: hi back")

	out.Reset()
	fa.historyErr = fmt.Errorf("%w: refused", api.ErrUnavailable)
	require.NoError(t, a.History(ctx))
	assert.Equal(t, ModeOffline, a.Mode)
	assert.Contains(t, out.String(), "(cached)")
	assert.Contains(t, out.String(), "hi back")
	assert.Less(t, strings.Index(out.String(), "hello"), strings.Index(out.String(), "hi back"))
}

func TestFollow_PrintsUntilEnter(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAPI{}
	a, out := newTestApp(t, fa, "\n")
	a.room = "room-1"

	f := &fakeFollower{updates: make(chan models.Message, 2)}
	f.updates <- models.Message{ID: "m1", RoomID: "room-1", SenderID: "u2", Text: "live one"}
	f.updates <- models.Message{ID: "m2", RoomID: "room-1", SenderID: "u2", Text: "live two"}
	a.subscribe = func(context.Context) (roomFollower, error) { return f, nil }

	require.NoError(t, a.Follow(ctx))
	assert.Equal(t, []string{"room-1"}, f.switched)
	assert.True(t, f.closed)

	cached, err := a.cache.ListByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Contains(t, out.String(), "live two")
}

func TestLogout_ClearsSessionAndCache(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAPI{}
	a, _ := newTestApp(t, fa, "")
	a.user = &models.User{ID: "u1"}
	a.room = "room-1"
	require.NoError(t, a.cache.Save(ctx, models.Message{ID: "m1", RoomID: "room-1", Timestamp: time.Now()}))
	require.NoError(t, a.metadata.Set(ctx, metadata.KeyLastRoom, "room-1"))

	require.NoError(t, a.Logout(ctx))
	assert.True(t, fa.loggedOut)
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.room)

	cached, err := a.cache.ListByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Empty(t, cached)
	last, err := a.metadata.Get(ctx, metadata.KeyLastRoom)
	require.NoError(t, err)
	assert.Empty(t, last)
}
