package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/safepazz/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/recoveries"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps all state in process memory; nothing
// survives a restart. Atomic blocks are serialized against each other but
// there is no rollback, so callers order their writes with the
// compare-and-set step first.
type MemoryRepositoryManager struct {
	mu    sync.Mutex
	repos Repositories
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		repos: Repositories{
			Users:       users.NewMemoryRepository(),
			Sessions:    sessions.NewMemoryRepository(),
			Recoveries:  recoveries.NewMemoryRepository(),
			Credentials: credentials.NewMemoryRepository(),
		},
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository             { return m.repos.Users }
func (m *MemoryRepositoryManager) Sessions() sessions.Repository       { return m.repos.Sessions }
func (m *MemoryRepositoryManager) Recoveries() recoveries.Repository   { return m.repos.Recoveries }
func (m *MemoryRepositoryManager) Credentials() credentials.Repository { return m.repos.Credentials }

func (m *MemoryRepositoryManager) Atomic(ctx context.Context, fn func(r Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m.repos)
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
