package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	rooms  *ChatRoomService
	svc    *MessageService
	rm     *fakeRepoManager
	pub    *fakePublisher
	roomID string
	clock  time.Time
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	rooms, rm := newChatRoomFixture(nil)
	f := &relayFixture{rooms: rooms, rm: rm, pub: &fakePublisher{}}
	f.svc = NewMessageService(nil, rm, rooms, f.pub, time.Second, logging.Nop{})
	f.clock = time.Date(2026, 2, 3, 4, 5, 6, 123456789, time.UTC)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Millisecond)
		return f.clock
	}

	id, _, err := rooms.ResolveOrCreate(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	f.roomID = id
	return f
}

func TestSend_PersistsThenPublishes(t *testing.T) {
	f := newRelayFixture(t)

	msg, err := f.svc.Send(context.Background(), f.roomID, aliceID, "hello bob")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, f.roomID, msg.RoomID)
	assert.Equal(t, aliceID, msg.SenderID)
	assert.Equal(t, "hello bob", msg.Text)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.Zero(t, msg.Timestamp.Nanosecond()%1000, "timestamp is truncated to microseconds")

	require.Len(t, f.rm.m.log, 1)
	assert.Equal(t, *msg, f.rm.m.log[0])

	require.Equal(t, 1, f.pub.count())
	ev := f.pub.events[0]
	assert.Equal(t, f.roomID, ev.channel)
	assert.Equal(t, common.NewMessageEvent, ev.event)
	assert.Equal(t, msg, ev.payload)
}

func TestSend_ReadAfterWrite(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	texts := []string{"one", "two", "three"}
	var sent []models.Message
	for i, text := range texts {
		sender := aliceID
		if i%2 == 1 {
			sender = bobID
		}
		msg, err := f.svc.Send(ctx, f.roomID, sender, text)
		require.NoError(t, err)
		sent = append(sent, *msg)
	}

	history, err := f.svc.History(ctx, f.roomID, bobID)
	require.NoError(t, err)
	assert.Equal(t, sent, history)
}

func TestSend_RejectsBlankText(t *testing.T) {
	f := newRelayFixture(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.Send(context.Background(), f.roomID, aliceID, text)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}
	_, err := f.svc.Send(context.Background(), "", aliceID, "hi")
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Empty(t, f.rm.m.log)
	assert.Equal(t, 0, f.pub.count())
}

func TestSend_UnknownRoomAndOutsider(t *testing.T) {
	f := newRelayFixture(t)

	_, err := f.svc.Send(context.Background(), "eeeeeeee-0000-0000-0000-000000000005", aliceID, "hi")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.Send(context.Background(), f.roomID, carolID, "let me in")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	assert.Empty(t, f.rm.m.log)
	assert.Equal(t, 0, f.pub.count())
}

func TestSend_StoreFailureDoesNotPublish(t *testing.T) {
	f := newRelayFixture(t)
	f.rm.m.createErr = errors.New("db error: down")

	_, err := f.svc.Send(context.Background(), f.roomID, aliceID, "hi")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Equal(t, 0, f.pub.count())
}

func TestSend_PublishFailureStillReturnsMessage(t *testing.T) {
	f := newRelayFixture(t)
	f.pub.err = errors.New("hub closed")

	msg, err := f.svc.Send(context.Background(), f.roomID, aliceID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.Len(t, f.rm.m.log, 1)
}

type requestKey struct{}

func TestSend_PublishUsesRequestContext(t *testing.T) {
	f := newRelayFixture(t)

	reqCtx, cancel := context.WithTimeout(context.WithValue(context.Background(), requestKey{}, "req-1"), 200*time.Millisecond)
	defer cancel()
	reqDeadline, _ := reqCtx.Deadline()

	_, err := f.svc.Send(reqCtx, f.roomID, aliceID, "hi")
	require.NoError(t, err)

	require.Len(t, f.pub.ctxs, 1)
	pubCtx := f.pub.ctxs[0]
	assert.Equal(t, "req-1", pubCtx.Value(requestKey{}))
	deadline, ok := pubCtx.Deadline()
	require.True(t, ok)
	assert.False(t, deadline.After(reqDeadline), "publish must not outlive the request")
	assert.Error(t, pubCtx.Err(), "publish context is released when Send returns")
}

func TestHistory(t *testing.T) {
	f := newRelayFixture(t)

	empty, err := f.svc.History(context.Background(), f.roomID, aliceID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.svc.History(context.Background(), f.roomID, carolID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.svc.History(context.Background(), "", aliceID)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.History(context.Background(), "eeeeeeee-0000-0000-0000-000000000005", aliceID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.rm.m.listErr = errors.New("db error: down")
	_, err = f.svc.History(context.Background(), f.roomID, aliceID)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestHistory_OnlyOwnRoom(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	other, _, err := f.rooms.ResolveOrCreate(ctx, aliceID, carolID)
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, f.roomID, aliceID, "to bob")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, other, carolID, "to alice")
	require.NoError(t, err)

	history, err := f.svc.History(ctx, other, aliceID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "to alice", history[0].Text)
}
