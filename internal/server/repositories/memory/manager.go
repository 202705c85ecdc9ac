// Package memory is a process-local RepositoryManager. Every repository it
// vends shares one store regardless of the DBTX passed in, so transactions
// are not isolated. The server uses it when no database DSN is configured.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/studymatch/internal/dbx"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/chatrooms"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/messages"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/users"
)

type store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	images   map[string]string
	rooms    map[string]models.ChatRoom
	messages []models.Message
}

type InMemoryRepositoryManager struct {
	s *store
}

var _ repomanager.RepositoryManager = (*InMemoryRepositoryManager)(nil)

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{s: &store{
		users:  map[string]models.User{},
		images: map[string]string{},
		rooms:  map[string]models.ChatRoom{},
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return &userRepo{s: m.s}
}

func (m *InMemoryRepositoryManager) ChatRooms(dbx.DBTX) chatrooms.Repository {
	return &roomRepo{s: m.s}
}

func (m *InMemoryRepositoryManager) Messages(dbx.DBTX) messages.Repository {
	return &messageRepo{s: m.s}
}

// SetProfileImage records the storage key of a user's profile image, the
// way the profile feature populates the profiles table.
func (m *InMemoryRepositoryManager) SetProfileImage(userID, key string) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.images[userID] = key
}
