package groupmeal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{UserID: uuid.New()}
	}
	return out
}

func TestAffinity(t *testing.T) {
	a := Candidate{UserID: uuid.New(), MainArea: "Shibuya", Hobbies: []string{"run", "golf", "chess", "go"}, FavoriteMeals: []string{"ramen", "sushi", "curry"}}
	b := Candidate{UserID: uuid.New(), MainArea: "Shibuya", Hobbies: []string{"run", "golf", "chess", "go"}, FavoriteMeals: []string{"ramen", "sushi", "curry"}}

	edges := YesEdges{}
	assert.Equal(t, 2+3+2, Affinity(a, b, edges))

	edges.Add(a.UserID, b.UserID)
	assert.Equal(t, 10+7, Affinity(a, b, edges))
	assert.Equal(t, Affinity(a, b, edges), Affinity(b, a, edges))

	edges.Add(b.UserID, a.UserID)
	assert.Equal(t, 20+7, Affinity(a, b, edges))

	assert.Zero(t, Affinity(Candidate{UserID: uuid.New()}, Candidate{UserID: uuid.New()}, YesEdges{}))
}

func TestPartitionSmallPoolIsOneGroup(t *testing.T) {
	assert.Nil(t, Partition(nil, YesEdges{}))

	pool := candidates(MaxAutoGroupSize)
	groups := Partition(pool, YesEdges{})
	require.Len(t, groups, 1)
	assert.Equal(t, pool, groups[0])
}

func TestPartitionCoversPoolWithinBounds(t *testing.T) {
	for _, n := range []int{7, 8, 12, 13, 20} {
		pool := candidates(n)
		groups := Partition(pool, YesEdges{})

		seen := map[uuid.UUID]int{}
		for i, g := range groups {
			assert.LessOrEqual(t, len(g), MaxAutoGroupSize)
			if len(g) == 1 {
				assert.Equal(t, len(groups)-1, i, "only the last group may be a singleton")
			}
			for _, c := range g {
				seen[c.UserID]++
			}
		}
		assert.Len(t, seen, n)
		for _, count := range seen {
			assert.Equal(t, 1, count)
		}
	}
}

func TestPartitionKeepsSingletonWhenGroupsAreFull(t *testing.T) {
	pool := candidates(7)
	groups := Partition(pool, YesEdges{})
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 6)
	assert.Equal(t, []Candidate{pool[6]}, groups[1])
}

func TestPartitionSeedPullsHighestAffinity(t *testing.T) {
	pool := candidates(9)
	seed := pool[0]
	edges := YesEdges{}
	edges.Add(seed.UserID, pool[8].UserID)
	edges.Add(pool[8].UserID, seed.UserID)
	edges.Add(pool[7].UserID, seed.UserID)
	pool[6].MainArea, seed.MainArea = "Ebisu", "Ebisu"
	pool[0] = seed

	groups := Partition(pool, edges)
	require.Len(t, groups, 2)
	first := groups[0]
	require.Len(t, first, 6)
	assert.Equal(t, seed.UserID, first[0].UserID)
	assert.Equal(t, pool[8].UserID, first[1].UserID)
	assert.Equal(t, pool[7].UserID, first[2].UserID)
	assert.Equal(t, pool[6].UserID, first[3].UserID)
	// ties keep pool order
	assert.Equal(t, pool[1].UserID, first[4].UserID)
	assert.Equal(t, pool[2].UserID, first[5].UserID)

	assert.Equal(t, []uuid.UUID{pool[3].UserID, pool[4].UserID, pool[5].UserID}, ids(groups[1]))
}

func TestPartitionDoesNotMutatePool(t *testing.T) {
	pool := candidates(10)
	edges := YesEdges{}
	edges.Add(pool[0].UserID, pool[9].UserID)
	before := append([]Candidate(nil), pool...)
	Partition(pool, edges)
	assert.Equal(t, before, pool)
}

func ids(g []Candidate) []uuid.UUID {
	out := make([]uuid.UUID, len(g))
	for i, c := range g {
		out[i] = c.UserID
	}
	return out
}
