package domain

import "context"

// MemberRepository is the node store. Structural fields (parent, position,
// sponsor) are written once by CreateMember and AttachChild; SaveMember only
// writes status, personal volume and the derived ledgers.
type MemberRepository interface {
	GetMember(ctx context.Context, memberID string) (*Member, error)
	// LockMember reads the member and holds a write lock on it until the
	// surrounding transaction ends.
	LockMember(ctx context.Context, memberID string) (*Member, error)
	ListMembers(ctx context.Context) ([]*Member, error)
	ListBySponsor(ctx context.Context, sponsorID string) ([]*Member, error)
	CountMembers(ctx context.Context) (int64, error)
	CreateMember(ctx context.Context, member *Member) error
	// AttachChild fills the parent's open slot only if the parent is still at
	// expectedVersion; otherwise ErrConcurrentSlotConflict.
	AttachChild(ctx context.Context, parentID string, side Position, childID string, expectedVersion int64) error
	SaveMember(ctx context.Context, member *Member) error
	// SaveLedgers writes derived ledgers of members still at the version they
	// were read with and returns how many rows were skipped. Saved members
	// get their new version.
	SaveLedgers(ctx context.Context, members []*Member) (skipped int, err error)
}

type VolumeEntryRepository interface {
	// CreateEntry returns false when the member already has an entry with the
	// same reference id.
	CreateEntry(ctx context.Context, entry *VolumeEntry) (bool, error)
	ListEntries(ctx context.Context, memberID string, limit int) ([]*VolumeEntry, error)
}

type ReconciliationRunRepository interface {
	CreateRun(ctx context.Context, run *ReconciliationRun) error
	LastRun(ctx context.Context) (*ReconciliationRun, error)
}

// Store groups the repositories that must commit together.
type Store interface {
	Members() MemberRepository
	VolumeEntries() VolumeEntryRepository
	Runs() ReconciliationRunRepository
	InTransaction(ctx context.Context, fn func(tx Store) error) error
	// Snapshot returns a consistent copy of the whole population.
	Snapshot(ctx context.Context) ([]*Member, error)
}
