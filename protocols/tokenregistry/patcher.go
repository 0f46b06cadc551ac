package tokenregistry

import "fmt"

// Patcher constructs a new token registry by applying a diff to a previous
// one. The previous registry is never mutated; Token carries no pointer
// fields, so value copies are safe.
//
// An update for a token the previous registry does not contain means the
// diff was computed against a different base state; that is an integrity
// error, not something to silently upsert.
func Patcher(prev Registry, diff Diff) (Registry, error) {
	next := make(Registry, len(prev)+len(diff.Additions))
	for id, token := range prev {
		next[id] = token
	}

	for _, id := range diff.Deletions {
		delete(next, id)
	}

	for _, updated := range diff.Updates {
		if _, exists := next[updated.ID]; !exists {
			return nil, fmt.Errorf("tokenregistry: update for unknown token %d", updated.ID)
		}
		next[updated.ID] = updated
	}

	for _, added := range diff.Additions {
		next[added.ID] = added
	}

	return next, nil
}
