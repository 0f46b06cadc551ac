package amm

import "fmt"

// Patcher constructs a new pair registry by applying a diff to a previous
// one. The previous registry is never mutated, and every entry of the result
// owns its own big.Int values, so old and new states can be held side by
// side safely.
//
// An update for a pair the previous registry does not contain means the diff
// was computed against a different base state; that is an integrity error,
// not something to silently upsert.
func Patcher(prev Registry, diff Diff) (Registry, error) {
	next := make(Registry, len(prev)+len(diff.Additions))
	for id, pair := range prev {
		next[id] = pair.Clone()
	}

	for _, id := range diff.Deletions {
		delete(next, id)
	}

	for _, updated := range diff.Updates {
		if _, exists := next[updated.ID]; !exists {
			return nil, fmt.Errorf("amm: update for unknown pair %d", updated.ID)
		}
		next[updated.ID] = updated.Clone()
	}

	for _, added := range diff.Additions {
		next[added.ID] = added.Clone()
	}

	return next, nil
}
