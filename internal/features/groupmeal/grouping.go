package groupmeal

import (
	"sort"

	"github.com/google/uuid"
)

// MaxAutoGroupSize bounds every proposed group, seed included.
const MaxAutoGroupSize = 6

const (
	scoreMutualYes   = 20
	scoreOneWayYes   = 10
	scoreSameArea    = 2
	maxSharedHobbies = 3
	maxSharedMeals   = 2
)

// Candidate is one pool member with the profile tags the score reads.
type Candidate struct {
	UserID        uuid.UUID
	MainArea      string
	Hobbies       []string
	FavoriteMeals []string
}

// YesEdges holds directed YES answers, keyed from -> to.
type YesEdges map[uuid.UUID]map[uuid.UUID]bool

func (e YesEdges) Add(from, to uuid.UUID) {
	if e[from] == nil {
		e[from] = map[uuid.UUID]bool{}
	}
	e[from][to] = true
}

func (e YesEdges) Has(from, to uuid.UUID) bool {
	return e[from][to]
}

// Affinity scores how well two candidates fit together. It is symmetric.
func Affinity(a, b Candidate, edges YesEdges) int {
	score := 0
	ab, ba := edges.Has(a.UserID, b.UserID), edges.Has(b.UserID, a.UserID)
	switch {
	case ab && ba:
		score += scoreMutualYes
	case ab || ba:
		score += scoreOneWayYes
	}
	if a.MainArea != "" && a.MainArea == b.MainArea {
		score += scoreSameArea
	}
	score += min(shared(a.Hobbies, b.Hobbies), maxSharedHobbies)
	score += min(shared(a.FavoriteMeals, b.FavoriteMeals), maxSharedMeals)
	return score
}

// Partition splits the pool into groups of at most MaxAutoGroupSize. The
// first remaining candidate seeds each group and pulls in the five others
// with the highest affinity to it; ties keep pool order. A trailing single
// candidate joins the non-full group it fits best on average, or stays alone
// when every group is full.
func Partition(pool []Candidate, edges YesEdges) [][]Candidate {
	if len(pool) == 0 {
		return nil
	}
	if len(pool) <= MaxAutoGroupSize {
		return [][]Candidate{append([]Candidate(nil), pool...)}
	}

	remaining := append([]Candidate(nil), pool...)
	var groups [][]Candidate
	for len(remaining) > 0 {
		seed := remaining[0]
		rest := remaining[1:]
		sort.SliceStable(rest, func(i, j int) bool {
			return Affinity(seed, rest[i], edges) > Affinity(seed, rest[j], edges)
		})
		take := min(MaxAutoGroupSize-1, len(rest))
		group := make([]Candidate, 0, take+1)
		group = append(group, seed)
		group = append(group, rest[:take]...)
		groups = append(groups, group)
		remaining = rest[take:]
	}

	last := groups[len(groups)-1]
	if len(last) != 1 || len(groups) == 1 {
		return groups
	}

	single := last[0]
	groups = groups[:len(groups)-1]
	best, bestAvg := -1, -1.0
	for i, g := range groups {
		if len(g) >= MaxAutoGroupSize {
			continue
		}
		total := 0
		for _, m := range g {
			total += Affinity(single, m, edges)
		}
		if avg := float64(total) / float64(len(g)); avg > bestAvg {
			best, bestAvg = i, avg
		}
	}
	if best < 0 {
		return append(groups, last)
	}
	groups[best] = append(groups[best], single)
	return groups
}

func shared(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}
