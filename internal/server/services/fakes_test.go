package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/dbx"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/chatrooms"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/messages"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- in-memory repositories shared by the service tests ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	getErr  error
	lookups int
}

func newFakeUsersRepo(list ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range list {
		r.byID[u.ID] = u
	}
	return r
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeRoomsRepo struct {
	mu     sync.Mutex
	rooms  map[[2]string]*models.ChatRoom
	images map[string]string
	names  map[string]string

	findErr   error
	createErr error
	// raceOnCreate simulates a concurrent writer inserting the pair first.
	raceOnCreate bool
	creates      int
}

func newFakeRoomsRepo() *fakeRoomsRepo {
	return &fakeRoomsRepo{
		rooms:  map[[2]string]*models.ChatRoom{},
		images: map[string]string{},
		names:  map[string]string{},
	}
}

func (f *fakeRoomsRepo) FindByPair(ctx context.Context, a, b string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.rooms[[2]string{a, b}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoomsRepo) GetByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRoomsRepo) Create(ctx context.Context, room *models.ChatRoom) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	key := [2]string{room.ParticipantA, room.ParticipantB}
	if f.raceOnCreate {
		f.raceOnCreate = false
		f.rooms[key] = &models.ChatRoom{ID: uuid.NewString(), ParticipantA: key[0], ParticipantB: key[1], CreatedAt: time.Now()}
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := f.rooms[key]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *room
	cp.CreatedAt = time.Now()
	f.rooms[key] = &cp
	return &cp, nil
}

func (f *fakeRoomsRepo) ListForUser(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RoomSummary{}
	for _, r := range f.rooms {
		if !r.HasParticipant(userID) {
			continue
		}
		other := r.Other(userID)
		out = append(out, models.RoomSummary{
			RoomID:           r.ID,
			OtherParticipant: models.Participant{ID: other, Name: f.names[other]},
			CreatedAt:        r.CreatedAt,
			ImageKey:         f.images[other],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

type fakeMessagesRepo struct {
	mu        sync.Mutex
	log       []models.Message
	createErr error
	listErr   error
}

func (f *fakeMessagesRepo) Create(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.log = append(f.log, *msg)
	return nil
}

func (f *fakeMessagesRepo) ListByRoom(ctx context.Context, roomID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Message{}
	for _, m := range f.log {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	c *fakeRoomsRepo
	m *fakeMessagesRepo
}

func newFakeRepoManager(list ...*models.User) *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(list...),
		c: newFakeRoomsRepo(),
		m: &fakeMessagesRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) ChatRooms(db dbx.DBTX) chatrooms.Repository   { return m.c }
func (m *fakeRepoManager) Messages(db dbx.DBTX) messages.Repository     { return m.m }

type published struct {
	channel string
	event   string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	ctxs   []context.Context
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctxs = append(p.ctxs, ctx)
	if p.err != nil {
		return p.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.events = append(p.events, published{channel: channel, event: event, payload: payload})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeSigner struct {
	err error
}

func (s *fakeSigner) PresignGet(ctx context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://img.local/" + key, nil
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (l *fakeLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}
