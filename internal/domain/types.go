// Package domain defines the normalized domain types for the roadmap feed.
// These types mirror the CDN JSON contract independent of where a payload
// came from (CDN snapshot or the GitHub project behind it).
package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Status is the lifecycle stage of a roadmap item. The set is closed;
// payloads carrying anything else are rejected at validation time.
type Status string

const (
	StatusIdea       Status = "idea"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusShipped    Status = "shipped"
)

// Statuses lists all valid statuses in board column order.
var Statuses = []Status{StatusIdea, StatusPlanned, StatusInProgress, StatusShipped}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIdea, StatusPlanned, StatusInProgress, StatusShipped:
		return true
	}
	return false
}

// MaxDescriptionLen bounds the item description as published by the feed.
const MaxDescriptionLen = 150

// Item represents a single tracked roadmap entry.
type Item struct {
	ID          int64    `json:"id"`                    // Stable across syncs
	Title       string   `json:"title"`                 // Required
	AITitle     string   `json:"ai_title,omitempty"`    // Optional AI-friendly override
	Description string   `json:"description,omitempty"` // ≤150 chars, may embed light markup
	Status      Status   `json:"status"`
	Votes       *int     `json:"votes,omitempty"`      // Aggregate, authoritative when present
	VotesUp     *int     `json:"votes_up,omitempty"`   // Optional split, additive fields
	VotesDown   *int     `json:"votes_down,omitempty"` //
	Comments    int      `json:"comments"`
	URL         string   `json:"url,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Author      string   `json:"author,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	CreatedAt   Date     `json:"created_at"`
	ShippedAt   *Date    `json:"shipped_at,omitempty"` // Present iff Status == shipped
}

// DisplayTitle returns the AI-friendly title when one is published,
// otherwise the regular title.
func (i *Item) DisplayTitle() string {
	if i.AITitle != "" {
		return i.AITitle
	}
	return i.Title
}

// VoteScore returns the vote total for display and sorting.
//
// Policy for diverging counts: the explicit aggregate wins whenever the feed
// published one, including an explicit zero; the up-down difference is only a
// fallback for payloads that carry the split fields without an aggregate.
// Divergence between the two is not an error.
func (i *Item) VoteScore() int {
	if i.Votes != nil {
		return *i.Votes
	}
	if i.VotesUp != nil && i.VotesDown != nil {
		return *i.VotesUp - *i.VotesDown
	}
	return 0
}

// Validate checks the item invariants. A payload containing any invalid item
// is rejected wholesale by the fetcher.
func (i *Item) Validate() error {
	if i.ID == 0 {
		return errors.New("item is missing an id")
	}
	if i.Title == "" {
		return fmt.Errorf("item %d has no title", i.ID)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("item %d has unknown status %q", i.ID, i.Status)
	}
	if utf8.RuneCountInString(i.Description) > MaxDescriptionLen {
		return fmt.Errorf("item %d description exceeds %d characters", i.ID, MaxDescriptionLen)
	}
	if i.Status == StatusShipped && (i.ShippedAt == nil || i.ShippedAt.IsZero()) {
		return fmt.Errorf("item %d is shipped but has no shipped_at date", i.ID)
	}
	if i.Status != StatusShipped && i.ShippedAt != nil {
		return fmt.Errorf("item %d has shipped_at but status %q", i.ID, i.Status)
	}
	return nil
}

// Source identifies the project the feed is generated from.
type Source struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	ProjectNumber int    `json:"project_number"`
}

// Snapshot is one full roadmap payload from the dataset endpoint.
// It is owned by the fetcher until handed to the reconciler.
type Snapshot struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      Source    `json:"source"`
	Items       []Item    `json:"items"`
}

// Meta is the lightweight probe result from the metadata endpoint.
// It is compared once against the local fingerprint and discarded,
// never merged into the board.
type Meta struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	ItemsCount  int       `json:"items_count"`
	ContentHash string    `json:"content_hash"`
}

// Fingerprint returns the identity used for staleness comparison:
// the content hash when the feed publishes one, the version otherwise.
func (m *Meta) Fingerprint() string {
	if m.ContentHash != "" {
		return m.ContentHash
	}
	return m.Version
}
