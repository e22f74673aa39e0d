package memory

import (
	"context"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/google/uuid"
)

type volumeEntryRepo struct {
	store *Store
}

func (r *volumeEntryRepo) CreateEntry(ctx context.Context, entry *domain.VolumeEntry) (bool, error) {
	defer r.store.lock()()
	if entry.ReferenceID != "" {
		ref := entryRef{memberID: entry.MemberID, referenceID: entry.ReferenceID}
		if _, dup := r.store.state.refs[ref]; dup {
			return false, nil
		}
		r.store.state.refs[ref] = struct{}{}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.store.now()
	}
	cp := *entry
	r.store.state.entries = append(r.store.state.entries, &cp)
	return true, nil
}

// ListEntries returns newest entries first.
func (r *volumeEntryRepo) ListEntries(ctx context.Context, memberID string, limit int) ([]*domain.VolumeEntry, error) {
	defer r.store.lock()()
	var out []*domain.VolumeEntry
	entries := r.store.state.entries
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].MemberID != memberID {
			continue
		}
		cp := *entries[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
