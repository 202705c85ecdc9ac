package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/studymatch/internal/client/api"
	"github.com/dmitrijs2005/studymatch/internal/client/config"
	"github.com/dmitrijs2005/studymatch/internal/client/models"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/messages"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/studymatch/internal/client/storage"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// chatAPI is the server surface the CLI uses; *api.Client satisfies it.
type chatAPI interface {
	Signup(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	OpenRoom(ctx context.Context, otherUserID string) (string, bool, error)
	Rooms(ctx context.Context) ([]models.RoomSummary, error)
	Send(ctx context.Context, roomID, text string) error
	History(ctx context.Context, roomID string) ([]models.Message, error)
}

// roomFollower is the part of *api.Subscriber used by the follow command.
type roomFollower interface {
	Switch(ctx context.Context, roomID string) error
	Updates() <-chan models.Message
	Close() error
}

type App struct {
	config    *config.Config
	api       chatAPI
	subscribe func(ctx context.Context) (roomFollower, error)
	store     *storage.Store
	metadata  metadata.Repository
	cache     messages.Repository

	user   *models.User
	room   string
	Mode   Mode
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	store, err := storage.Open(ctx, c.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	client, err := api.NewClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		config: c,
		api:    client,
		subscribe: func(ctx context.Context) (roomFollower, error) {
			return client.Subscribe(ctx)
		},
		store:    store,
		metadata: store.Metadata,
		cache:    store.Messages,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.store.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.printf("Switched to %s mode\n", mode)
	}
}

// track records reachability from the outcome of an API call.
func (a *App) track(err error) {
	switch {
	case err == nil:
		a.setMode(ModeOnline)
	case errors.Is(err, api.ErrUnavailable):
		a.setMode(ModeOffline)
	default:
		// The server answered.
		a.setMode(ModeOnline)
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.user != nil {
		s = a.user.Email + " "
	}
	if a.room != "" {
		s += "#" + shortID(a.room) + " "
	}
	if a.Mode != "" {
		s += string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", strings.TrimSpace(s))
	}
	return s
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
