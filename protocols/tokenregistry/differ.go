package tokenregistry

// Diff describes the changes that turn one token registry into another.
type Diff struct {
	Additions []Token  `json:"additions,omitempty"`
	Updates   []Token  `json:"updates,omitempty"`
	Deletions []uint64 `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d Diff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

// Size returns the total number of changes in the diff.
func (d Diff) Size() int {
	return len(d.Additions) + len(d.Updates) + len(d.Deletions)
}

// Differ calculates the difference between two token registries. Token
// metadata changes are rare but real: a registry may correct a name, symbol,
// or decimal count, and a stale decimal count silently corrupts every
// scaling computation downstream, so all three are compared.
func Differ(old, new Registry) Diff {
	var additions, updates []Token
	var deletions []uint64

	for id, newToken := range new {
		oldToken, exists := old[id]
		if !exists {
			additions = append(additions, newToken)
			continue
		}
		if oldToken.Name != newToken.Name ||
			oldToken.Symbol != newToken.Symbol ||
			oldToken.Decimals != newToken.Decimals ||
			oldToken.Address != newToken.Address {
			updates = append(updates, newToken)
		}
	}

	for id := range old {
		if _, exists := new[id]; !exists {
			deletions = append(deletions, id)
		}
	}

	return Diff{
		Additions: additions,
		Updates:   updates,
		Deletions: deletions,
	}
}
