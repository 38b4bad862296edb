package board

import (
	"testing"
	"time"

	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/locale"
	"github.com/robby/roadmap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id int64, status domain.Status, votes int, created domain.Date) domain.Item {
	item := domain.Item{
		ID:        id,
		Title:     "item",
		Status:    status,
		Votes:     &votes,
		CreatedAt: created,
	}
	if status == domain.StatusShipped {
		shipped := domain.NewDate(2024, time.April, 2)
		item.ShippedAt = &shipped
	}
	return item
}

func jan(day int) domain.Date { return domain.NewDate(2024, time.January, day) }

func TestSpecs_FixedOrder(t *testing.T) {
	specs := Specs()
	require.Len(t, specs, 4)
	assert.Equal(t, domain.StatusIdea, specs[0].Status)
	assert.Equal(t, domain.StatusPlanned, specs[1].Status)
	assert.Equal(t, domain.StatusInProgress, specs[2].Status)
	assert.Equal(t, domain.StatusShipped, specs[3].Status)

	for _, spec := range specs {
		assert.NotEmpty(t, spec.Accent)
		assert.NotEmpty(t, spec.Glow)
		assert.NotEmpty(t, spec.Text)
		assert.NotEmpty(t, spec.Background)
	}
}

func TestSpecFor(t *testing.T) {
	spec, ok := SpecFor(domain.StatusShipped)
	require.True(t, ok)
	assert.Equal(t, domain.StatusShipped, spec.Status)

	_, ok = SpecFor(domain.Status("nope"))
	assert.False(t, ok)
}

func TestProject_Partition(t *testing.T) {
	set := store.NewItemSet([]domain.Item{
		testItem(1, domain.StatusIdea, 5, jan(1)),
		testItem(2, domain.StatusShipped, 9, jan(2)),
		testItem(3, domain.StatusPlanned, 2, jan(3)),
	})

	columns := Project(set, locale.English, SortFeed)
	require.Len(t, columns, 4)

	// idea:[1], planned:[3], in-progress:[], shipped:[2]
	require.Len(t, columns[0].Items, 1)
	assert.Equal(t, int64(1), columns[0].Items[0].ID)
	require.Len(t, columns[1].Items, 1)
	assert.Equal(t, int64(3), columns[1].Items[0].ID)
	assert.Empty(t, columns[2].Items)
	require.Len(t, columns[3].Items, 1)
	assert.Equal(t, int64(2), columns[3].Items[0].ID)

	// Union of all columns equals the input, partition is disjoint.
	seen := make(map[int64]int)
	total := 0
	for _, col := range columns {
		for _, item := range col.Items {
			seen[item.ID]++
			total++
		}
	}
	assert.Equal(t, set.Len(), total)
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %d appears in more than one column", id)
	}
}

func TestProject_EmptySet(t *testing.T) {
	columns := Project(store.EmptyItemSet(), locale.English, SortFeed)
	require.Len(t, columns, 4)
	for _, col := range columns {
		assert.Empty(t, col.Items)
	}
}

func TestProject_LocalizedLabels(t *testing.T) {
	columns := Project(store.EmptyItemSet(), locale.English, SortFeed)
	assert.Equal(t, "Ideas", columns[0].Label)
	assert.Equal(t, "Under consideration", columns[0].Subtitle)
	assert.Equal(t, "Shipped", columns[3].Label)

	// A sparse catalog leaves keys visible rather than blank.
	columns = Project(store.EmptyItemSet(), locale.Catalog{}, SortFeed)
	assert.Equal(t, "roadmap.column.idea.label", columns[0].Label)
}

func TestProject_SortVotes(t *testing.T) {
	up, down := 8, 1
	set := store.NewItemSet([]domain.Item{
		testItem(1, domain.StatusIdea, 3, jan(1)),
		testItem(2, domain.StatusIdea, 10, jan(2)),
		{ID: 3, Title: "split only", Status: domain.StatusIdea, VotesUp: &up, VotesDown: &down, CreatedAt: jan(3)},
	})

	columns := Project(set, locale.English, SortVotes)
	ids := []int64{columns[0].Items[0].ID, columns[0].Items[1].ID, columns[0].Items[2].ID}
	assert.Equal(t, []int64{2, 3, 1}, ids, "10 > (8-1) > 3")
}

func TestProject_SortCreated(t *testing.T) {
	set := store.NewItemSet([]domain.Item{
		testItem(1, domain.StatusPlanned, 0, jan(5)),
		testItem(2, domain.StatusPlanned, 0, jan(20)),
		testItem(3, domain.StatusPlanned, 0, jan(11)),
	})

	columns := Project(set, locale.English, SortCreated)
	ids := []int64{columns[1].Items[0].ID, columns[1].Items[1].ID, columns[1].Items[2].ID}
	assert.Equal(t, []int64{2, 3, 1}, ids, "newest first")
}

func TestProject_Deterministic(t *testing.T) {
	set := store.NewItemSet([]domain.Item{
		testItem(1, domain.StatusIdea, 5, jan(1)),
		testItem(2, domain.StatusIdea, 5, jan(2)),
	})

	first := Project(set, locale.English, SortVotes)
	second := Project(set, locale.English, SortVotes)
	assert.Equal(t, first, second)
}
