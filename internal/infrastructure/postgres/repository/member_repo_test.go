package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (*DefaultMemberRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewDefaultMemberRepository(db), mock
}

func TestMemberRepository_GetMember(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"key", "member_id", "status", "position", "sponsor_leg", "personal_bv", "left_team_count", "version"}).
		AddRow("5f0c1d9e-3b1a-4f4e-9d0e-6a1b2c3d4e5f", "A", "active", "left", "left", "125.5", 4, 7)
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE member_id = \$1`).WillReturnRows(rows)

	m, err := repo.GetMember(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, "A", m.MemberID)
	require.Equal(t, domain.MemberStatusActive, m.Status)
	require.Equal(t, domain.LegLeft, m.SponsorLeg)
	require.Equal(t, "125.5", m.Volume.PersonalBV.String())
	require.Equal(t, int64(4), m.Team.LeftTeamCount)
	require.Equal(t, int64(7), m.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_GetMemberNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT \* FROM "members"`).WillReturnRows(sqlmock.NewRows([]string{"key"}))

	_, err := repo.GetMember(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_LockMemberSelectsForUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE member_id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "status"}).AddRow("R", "active"))

	m, err := repo.LockMember(context.Background(), "R")
	require.NoError(t, err)
	require.Equal(t, "R", m.MemberID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_AttachChild(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE "members" SET .* WHERE member_id = \$\d+ AND version = \$\d+ AND left_child_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AttachChild(ctx, "R", domain.PositionLeft, "A", 1))

	mock.ExpectExec(`UPDATE "members" SET .* AND right_child_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.AttachChild(ctx, "R", domain.PositionRight, "B", 1)
	require.ErrorIs(t, err, domain.ErrConcurrentSlotConflict)

	err = repo.AttachChild(ctx, "R", domain.PositionRoot, "C", 2)
	require.ErrorIs(t, err, domain.ErrInvalidSide)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_SaveLedgersSkipsStaleRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	fresh := &domain.Member{MemberID: "A", Version: 3}
	stale := &domain.Member{MemberID: "B", Version: 5}

	mock.ExpectExec(`UPDATE "members" SET .* WHERE member_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "members" SET .* WHERE member_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	skipped, err := repo.SaveLedgers(context.Background(), []*domain.Member{fresh, stale})
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Equal(t, int64(4), fresh.Version)
	require.Equal(t, int64(5), stale.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
