package postgres

import (
	"context"
	"database/sql"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/postgres/repository"
	"gorm.io/gorm"
)

// Store binds the repositories to one *gorm.DB, which is a transaction
// inside InTransaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Members() domain.MemberRepository {
	return repository.NewDefaultMemberRepository(s.db)
}

func (s *Store) VolumeEntries() domain.VolumeEntryRepository {
	return repository.NewDefaultVolumeEntryRepository(s.db)
}

func (s *Store) Runs() domain.ReconciliationRunRepository {
	return repository.NewDefaultReconciliationRunRepository(s.db)
}

func (s *Store) InTransaction(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Snapshot reads the population inside one REPEATABLE READ read-only
// transaction so the batch job sees a single point in time.
func (s *Store) Snapshot(ctx context.Context) ([]*domain.Member, error) {
	var members []*domain.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		members, err = repository.NewDefaultMemberRepository(tx).ListMembers(ctx)
		return err
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	return members, err
}
