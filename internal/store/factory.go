package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Stores struct {
	pool *pgxpool.Pool
}

func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{pool: pool}
}

func (s *Stores) Workspaces() WorkspaceStore {
	return &workspaceStore{pool: s.pool}
}

func (s *Stores) ScheduledMessages() ScheduledMessageStore {
	return &scheduledMessageStore{pool: s.pool}
}
