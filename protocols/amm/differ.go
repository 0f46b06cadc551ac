package amm

// Diff describes the changes that turn one pair registry into another.
type Diff struct {
	Additions []Pair   `json:"additions,omitempty"`
	Updates   []Pair   `json:"updates,omitempty"`
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

// Differ calculates the difference between two pair registries. Pairs
// present in both are compared only on the high-churn fields, the reserves
// and the total supply: identity fields (tokens, fee) are fixed when a pair
// is created, so comparing them on every refresh would be wasted work.
func Differ(old, new Registry) Diff {
	var additions, updates []Pair
	var deletions []uint64

	for id, newPair := range new {
		oldPair, exists := old[id]
		if !exists {
			additions = append(additions, newPair)
			continue
		}
		if !bigIntEqual(oldPair.Reserve0, newPair.Reserve0) ||
			!bigIntEqual(oldPair.Reserve1, newPair.Reserve1) ||
			!bigIntEqual(oldPair.TotalSupply, newPair.TotalSupply) {
			updates = append(updates, newPair)
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
