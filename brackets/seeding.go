package brackets

import (
	"sort"

	"github.com/compevent/compete-system/models"
)

// orderBySeed returns participants ordered by explicit seed where present,
// falling back to registration order. Explicitly seeded participants come
// first, ranked by seed number; the rest follow in the order they signed up.
func orderBySeed(participants []*models.Participant) []*models.Participant {
	ordered := make([]*models.Participant, len(participants))
	copy(ordered, participants)

	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i].Seed, ordered[j].Seed
		switch {
		case si != nil && sj != nil:
			return *si < *sj
		case si != nil:
			return true
		case sj != nil:
			return false
		default:
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
	})
	return ordered
}

// nextPowerOfTwo rounds n up to the nearest power of two.
func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// seedPositions computes the standard bracket placement for a field of
// bracketSize seeds: expanding from the final backwards, each seed is paired
// with its complement so the top seeds can only meet in late rounds.
// The returned slice lists seed indices in slot order; slots (2i, 2i+1) form
// the i-th first-round pairing, e.g. for 8: {0,7},{3,4},{1,6},{2,5}.
func seedPositions(bracketSize int) []int {
	if bracketSize < 1 {
		return nil
	}
	positions := []int{0}
	for len(positions) < bracketSize {
		doubled := len(positions) * 2
		next := make([]int, 0, doubled)
		for _, seed := range positions {
			next = append(next, seed, doubled-1-seed)
		}
		positions = next
	}
	return positions
}
