// Package repomanager bundles the SafePazz repositories behind one handle
// and offers a transactional boundary for operations that touch more than
// one of them.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/safepazz/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/recoveries"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/users"
)

// Repositories is a set of repositories sharing one unit of work.
type Repositories struct {
	Users       users.Repository
	Sessions    sessions.Repository
	Recoveries  recoveries.Repository
	Credentials credentials.Repository
}

type RepositoryManager interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Recoveries() recoveries.Repository
	Credentials() credentials.Repository
	// Atomic runs fn against repositories that commit together. An error
	// from fn discards the work where the backend supports it.
	Atomic(ctx context.Context, fn func(r Repositories) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
