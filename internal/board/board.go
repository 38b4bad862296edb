// Package board projects a reconciled item set into the four-column roadmap
// view. Projection is stateless and deterministic; columns are recomputed on
// every call and hold no identity across calls.
package board

import (
	"sort"

	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/locale"
	"github.com/robby/roadmap/internal/store"
)

// ColumnSpec carries the presentation metadata for one status column. Specs
// are a static lookup keyed by status, never derived from item content. The
// style tokens are terminal color values consumed by lipgloss styles.
type ColumnSpec struct {
	Status     domain.Status
	LabelKey   string // Locale identifier for the column label
	SubKey     string // Locale identifier for the column subtitle
	Accent     string // Border / highlight token
	Glow       string // Selection / emphasis token
	Text       string // Card text token
	Background string // Column background token
}

// columnSpecs is the fixed column order: idea, planned, in-progress, shipped.
var columnSpecs = []ColumnSpec{
	{
		Status:     domain.StatusIdea,
		LabelKey:   "roadmap.column.idea.label",
		SubKey:     "roadmap.column.idea.subtitle",
		Accent:     "99",
		Glow:       "105",
		Text:       "252",
		Background: "236",
	},
	{
		Status:     domain.StatusPlanned,
		LabelKey:   "roadmap.column.planned.label",
		SubKey:     "roadmap.column.planned.subtitle",
		Accent:     "75",
		Glow:       "81",
		Text:       "252",
		Background: "236",
	},
	{
		Status:     domain.StatusInProgress,
		LabelKey:   "roadmap.column.in-progress.label",
		SubKey:     "roadmap.column.in-progress.subtitle",
		Accent:     "214",
		Glow:       "220",
		Text:       "252",
		Background: "236",
	},
	{
		Status:     domain.StatusShipped,
		LabelKey:   "roadmap.column.shipped.label",
		SubKey:     "roadmap.column.shipped.subtitle",
		Accent:     "78",
		Glow:       "84",
		Text:       "252",
		Background: "236",
	},
}

// Specs returns the column specs in board order.
func Specs() []ColumnSpec {
	specs := make([]ColumnSpec, len(columnSpecs))
	copy(specs, columnSpecs)
	return specs
}

// SpecFor returns the spec for a status.
func SpecFor(status domain.Status) (ColumnSpec, bool) {
	for _, spec := range columnSpecs {
		if spec.Status == status {
			return spec, true
		}
	}
	return ColumnSpec{}, false
}

// Column is one projected board column: its spec, resolved display strings,
// and the items currently in that status.
type Column struct {
	Spec     ColumnSpec
	Label    string
	Subtitle string
	Items    []domain.Item
}

// Sort selects the intra-column item ordering. Sorting is a projection
// concern; the reconciled set always keeps feed order.
type Sort int

const (
	SortFeed    Sort = iota // Feed order as published
	SortVotes               // Highest vote score first
	SortCreated             // Newest first
)

// Project partitions the item set into the four fixed columns. By the time
// projection runs every item is guaranteed well-formed, so an item always
// lands in exactly one column: the partition is disjoint and complete.
func Project(set *store.ItemSet, tr locale.Translator, order Sort) []Column {
	columns := make([]Column, len(columnSpecs))
	for idx, spec := range columnSpecs {
		columns[idx] = Column{
			Spec:     spec,
			Label:    tr.T(spec.LabelKey),
			Subtitle: tr.T(spec.SubKey),
		}
	}

	byStatus := make(map[domain.Status]int, len(columnSpecs))
	for idx, spec := range columnSpecs {
		byStatus[spec.Status] = idx
	}

	for _, item := range set.Items() {
		idx := byStatus[item.Status]
		columns[idx].Items = append(columns[idx].Items, item)
	}

	for idx := range columns {
		sortItems(columns[idx].Items, order)
	}

	return columns
}

// sortItems reorders items in place. Stable so feed order breaks ties.
func sortItems(items []domain.Item, order Sort) {
	switch order {
	case SortVotes:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].VoteScore() > items[j].VoteScore()
		})
	case SortCreated:
		sort.SliceStable(items, func(i, j int) bool {
			return items[j].CreatedAt.Before(items[i].CreatedAt)
		})
	}
}
