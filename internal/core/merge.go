package core

import (
	"slices"

	"gtasync/pkg/domain"
)

// indexOf returns the position of the first record whose id matches, or -1.
// It is the lookup shared by every id-keyed operation, the nested patcher
// included.
func indexOf[T Identified](held []*T, id int64) int {
	return slices.IndexFunc(held, func(r *T) bool {
		return r != nil && (*r).RecordID() == id
	})
}

// upsert reconciles incoming patches against held by id. Matches are merged
// in place so pointers held elsewhere observe the update; the rest are
// appended in incoming order. Nothing is removed.
func upsert[T Identified, P domain.Patch[T]](held []*T, incoming []P) []*T {
	for _, patch := range incoming {
		if i := indexOf(held, patch.RecordID()); i >= 0 {
			patch.ApplyTo(held[i])
			continue
		}
		held = append(held, patch.Materialize())
	}
	return held
}

// refreshExisting merges incoming patches into matching records and drops
// the ones with no match.
func refreshExisting[T Identified, P domain.Patch[T]](held []*T, incoming []P) {
	for _, patch := range incoming {
		if i := indexOf(held, patch.RecordID()); i >= 0 {
			patch.ApplyTo(held[i])
		}
	}
}

// replaceAll substitutes incoming for the held sequence. The slice header is
// copied so later appends never write into the caller's backing array.
func replaceAll[T any](incoming []*T) []*T {
	if incoming == nil {
		return []*T{}
	}
	return append(make([]*T, 0, len(incoming)), incoming...)
}

// removeIDs deletes the first record matching each id. The remainder keeps
// its order and unknown ids are ignored.
func removeIDs[T Identified](held []*T, ids []int64) []*T {
	for _, id := range ids {
		if i := indexOf(held, id); i >= 0 {
			held = slices.Delete(held, i, i+1)
		}
	}
	return held
}

func recordIDs[T Identified](records []T) []int64 {
	if len(records) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RecordID())
	}
	return ids
}
