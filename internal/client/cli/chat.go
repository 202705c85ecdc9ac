package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/client/api"
	"github.com/dmitrijs2005/studymatch/internal/client/models"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/metadata"
)

var errNoRoom = errors.New("no room selected, use 'open <userId>' or 'use <roomId>'")

func (a *App) Rooms(ctx context.Context) error {
	rooms, err := a.api.Rooms(ctx)
	a.track(err)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		a.println("No chat rooms yet")
		return nil
	}
	for _, r := range rooms {
		a.printf("%s  %-20s since %s\n", r.RoomID, r.OtherParticipant.Name, r.CreatedAt.Local().Format(time.DateOnly))
	}
	return nil
}

// Open resolves the room shared with otherUserID and makes it current.
func (a *App) Open(ctx context.Context, otherUserID string) error {
	roomID, created, err := a.api.OpenRoom(ctx, otherUserID)
	a.track(err)
	if err != nil {
		return err
	}
	if created {
		a.println("Chat room created")
	}
	return a.Use(ctx, roomID)
}

// Use makes roomID current without contacting the server.
func (a *App) Use(ctx context.Context, roomID string) error {
	a.room = roomID
	if err := a.metadata.Set(ctx, metadata.KeyLastRoom, roomID); err != nil {
		return err
	}
	a.printf("Current room: %s\n", roomID)
	return nil
}

// History prints the current room oldest first. While offline it prints
// the cached copy instead.
func (a *App) History(ctx context.Context) error {
	if a.room == "" {
		return errNoRoom
	}

	msgs, err := a.api.History(ctx, a.room)
	a.track(err)
	switch {
	case errors.Is(err, api.ErrUnavailable):
		msgs, err = a.cache.ListByRoom(ctx, a.room)
		if err != nil {
			return err
		}
		a.println("(cached)")
	case err != nil:
		return err
	default:
		if err := a.cache.Save(ctx, msgs...); err != nil {
			return err
		}
	}

	if len(msgs) == 0 {
		a.println("No messages yet")
		return nil
	}
	for _, m := range msgs {
		a.printMessage(m)
	}
	return nil
}

func (a *App) Send(ctx context.Context, text string) error {
	if a.room == "" {
		return errNoRoom
	}
	err := a.api.Send(ctx, a.room, text)
	a.track(err)
	return err
}

// Follow prints messages of the current room as they arrive until the user
// presses Enter.
func (a *App) Follow(ctx context.Context) error {
	if a.room == "" {
		return errNoRoom
	}

	f, err := a.subscribe(ctx)
	a.track(err)
	if err != nil {
		return err
	}
	if err := f.Switch(ctx, a.room); err != nil {
		_ = f.Close()
		return err
	}
	a.println("Following, press Enter to stop")

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for m := range f.Updates() {
			a.printMessage(m)
			_ = a.cache.Save(ctx, m)
		}
	}()

	_, _ = a.reader.ReadString('\n')
	_ = f.Close()
	<-printed
	return nil
}

func (a *App) printMessage(m models.Message) {
	who := shortID(m.SenderID)
	if a.user != nil && m.SenderID == a.user.ID {
		who = "me"
	}
	a.printf("[%s] %s: %s\n", m.Timestamp.Local().Format(time.DateTime), who, m.Text)
}
