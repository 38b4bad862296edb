package gh

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/machinebox/graphql"
	"github.com/robby/roadmap/internal/domain"
)

// statusFieldName is the single-select project field carrying the roadmap
// stage.
const statusFieldName = "Status"

// itemsPageSize is how many project items each GraphQL page requests.
const itemsPageSize = 100

// Logger matches the sync package's logging surface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Origin adapts a GitHub project to the prober/fetcher contract the sync loop
// expects. The project's updatedAt timestamp doubles as the staleness
// fingerprint: GitHub bumps it on any item change.
//
// The origin feed is advisory: project items whose status option does not map
// onto a roadmap stage, or that lack the dates the invariants require, are
// skipped and counted rather than failing the snapshot.
type Origin struct {
	client *Client
	source domain.Source
	logger Logger

	now func() time.Time
}

// NewOrigin wires an origin against the project named by source. logger may
// be nil.
func NewOrigin(client *Client, source domain.Source, logger Logger) *Origin {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Origin{client: client, source: source, logger: logger, now: time.Now}
}

// projectInfo is the resolved identity of the source project.
type projectInfo struct {
	ID         string
	UpdatedAt  time.Time
	ItemsCount int
}

// FetchMeta implements the probe: one cheap query for the project's identity,
// update time and item count. No item data is transferred.
func (o *Origin) FetchMeta(ctx context.Context) (domain.Meta, error) {
	info, err := o.resolveProject(ctx)
	if err != nil {
		return domain.Meta{}, err
	}

	return domain.Meta{
		Version:     info.UpdatedAt.UTC().Format(time.RFC3339),
		GeneratedAt: info.UpdatedAt,
		ItemsCount:  info.ItemsCount,
		// No content hash; Fingerprint() falls back to the version string.
	}, nil
}

// FetchSnapshot pulls all project items and maps them onto roadmap items.
// The fingerprint is the project updatedAt captured in the same resolution,
// so it pairs with what FetchMeta reports.
func (o *Origin) FetchSnapshot(ctx context.Context) (*domain.Snapshot, string, error) {
	info, err := o.resolveProject(ctx)
	if err != nil {
		return nil, "", err
	}

	var items []domain.Item
	skipped := 0
	cursor := ""

	for {
		page, nextCursor, hasMore, err := o.fetchItemsPage(ctx, info.ID, cursor)
		if err != nil {
			return nil, "", err
		}

		for _, node := range page {
			item, ok := mapItem(node)
			if !ok {
				skipped++
				continue
			}
			items = append(items, item)
		}

		if !hasMore || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	if skipped > 0 {
		o.logger.Printf("[gh] skipped %d project items without a mappable roadmap stage", skipped)
	}

	fingerprint := info.UpdatedAt.UTC().Format(time.RFC3339)
	snap := &domain.Snapshot{
		Version:     fingerprint,
		GeneratedAt: o.now().UTC(),
		Source:      o.source,
		Items:       items,
	}

	return snap, fingerprint, nil
}

// resolveProject finds the project by owner login and number. Owner may be an
// organization or a user; both are queried at once.
func (o *Origin) resolveProject(ctx context.Context) (projectInfo, error) {
	req := graphql.NewRequest(`
		query($owner: String!, $number: Int!) {
			organization(login: $owner) {
				projectV2(number: $number) {
					id
					updatedAt
					items(first: 1) {
						totalCount
					}
				}
			}
			user(login: $owner) {
				projectV2(number: $number) {
					id
					updatedAt
					items(first: 1) {
						totalCount
					}
				}
			}
		}
	`)
	req.Var("owner", o.source.Owner)
	req.Var("number", o.source.ProjectNumber)

	type project struct {
		ID        string    `json:"id"`
		UpdatedAt time.Time `json:"updatedAt"`
		Items     struct {
			TotalCount int `json:"totalCount"`
		} `json:"items"`
	}
	var resp struct {
		Organization *struct {
			ProjectV2 *project `json:"projectV2"`
		} `json:"organization"`
		User *struct {
			ProjectV2 *project `json:"projectV2"`
		} `json:"user"`
	}

	if err := o.client.run(ctx, req, &resp); err != nil {
		return projectInfo{}, fmt.Errorf("failed to resolve project %s/#%d: %w",
			o.source.Owner, o.source.ProjectNumber, err)
	}

	var found *project
	if resp.Organization != nil && resp.Organization.ProjectV2 != nil {
		found = resp.Organization.ProjectV2
	} else if resp.User != nil && resp.User.ProjectV2 != nil {
		found = resp.User.ProjectV2
	}
	if found == nil {
		return projectInfo{}, fmt.Errorf("project #%d not found for owner '%s'",
			o.source.ProjectNumber, o.source.Owner)
	}

	return projectInfo{
		ID:         found.ID,
		UpdatedAt:  found.UpdatedAt,
		ItemsCount: found.Items.TotalCount,
	}, nil
}

// itemNode is one project item as returned by fetchItemsPage.
type itemNode struct {
	StatusName string
	Content    *issueContent
}

// issueContent is the issue behind a project item.
type issueContent struct {
	DatabaseID int64  `json:"databaseId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	URL        string `json:"url"`
	CreatedAt  string `json:"createdAt"`
	ClosedAt   string `json:"closedAt"`
	Author     *struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatarUrl"`
	} `json:"author"`
	Labels *struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Comments struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	ThumbsUp struct {
		TotalCount int `json:"totalCount"`
	} `json:"thumbsUp"`
	ThumbsDown struct {
		TotalCount int `json:"totalCount"`
	} `json:"thumbsDown"`
}

// fetchItemsPage fetches one page of project items with their status option
// and issue content.
func (o *Origin) fetchItemsPage(ctx context.Context, projectID, cursor string) ([]itemNode, string, bool, error) {
	req := graphql.NewRequest(`
		query($projectId: ID!, $first: Int!, $after: String, $fieldName: String!) {
			node(id: $projectId) {
				... on ProjectV2 {
					items(first: $first, after: $after) {
						pageInfo {
							hasNextPage
							endCursor
						}
						nodes {
							fieldValueByName(name: $fieldName) {
								... on ProjectV2ItemFieldSingleSelectValue {
									name
								}
							}
							content {
								__typename
								... on Issue {
									databaseId
									title
									body
									url
									createdAt
									closedAt
									author {
										login
										avatarUrl
									}
									labels(first: 10) {
										nodes {
											name
										}
									}
									comments {
										totalCount
									}
									thumbsUp: reactions(content: THUMBS_UP) {
										totalCount
									}
									thumbsDown: reactions(content: THUMBS_DOWN) {
										totalCount
									}
								}
							}
						}
					}
				}
			}
		}
	`)
	req.Var("projectId", projectID)
	req.Var("first", itemsPageSize)
	req.Var("fieldName", statusFieldName)
	if cursor != "" {
		req.Var("after", cursor)
	} else {
		req.Var("after", nil)
	}

	var resp struct {
		Node struct {
			Items struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []struct {
					FieldValueByName *struct {
						Name string `json:"name"`
					} `json:"fieldValueByName"`
					Content *struct {
						Typename string `json:"__typename"`
						issueContent
					} `json:"content"`
				} `json:"nodes"`
			} `json:"items"`
		} `json:"node"`
	}

	if err := o.client.run(ctx, req, &resp); err != nil {
		return nil, "", false, fmt.Errorf("failed to fetch project items: %w", err)
	}

	nodes := make([]itemNode, 0, len(resp.Node.Items.Nodes))
	for _, n := range resp.Node.Items.Nodes {
		node := itemNode{}
		if n.FieldValueByName != nil {
			node.StatusName = n.FieldValueByName.Name
		}
		if n.Content != nil && n.Content.Typename == "Issue" {
			content := n.Content.issueContent
			node.Content = &content
		}
		nodes = append(nodes, node)
	}

	return nodes, resp.Node.Items.PageInfo.EndCursor, resp.Node.Items.PageInfo.HasNextPage, nil
}

// statusAliases maps normalized project option names onto roadmap stages.
var statusAliases = map[string]domain.Status{
	"idea":        domain.StatusIdea,
	"ideas":       domain.StatusIdea,
	"planned":     domain.StatusPlanned,
	"in-progress": domain.StatusInProgress,
	"in progress": domain.StatusInProgress,
	"shipped":     domain.StatusShipped,
	"done":        domain.StatusShipped,
}

// mapStatus resolves a project option name to a roadmap stage.
func mapStatus(name string) (domain.Status, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(name))]
	return status, ok
}

// mapItem converts one project item into a roadmap item. Returns false when
// the item cannot satisfy the roadmap invariants (no issue content, no
// mappable stage, shipped without a close date).
func mapItem(node itemNode) (domain.Item, bool) {
	if node.Content == nil || node.Content.DatabaseID == 0 {
		return domain.Item{}, false
	}

	status, ok := mapStatus(node.StatusName)
	if !ok {
		return domain.Item{}, false
	}

	content := node.Content

	created, err := dateOf(content.CreatedAt)
	if err != nil {
		return domain.Item{}, false
	}

	item := domain.Item{
		ID:          content.DatabaseID,
		Title:       content.Title,
		Description: truncate(content.Body, domain.MaxDescriptionLen),
		Status:      status,
		Comments:    content.Comments.TotalCount,
		URL:         content.URL,
		CreatedAt:   created,
	}

	// Reactions are the only vote channel here; no aggregate is published, so
	// the score falls out of the split counts.
	up := content.ThumbsUp.TotalCount
	down := content.ThumbsDown.TotalCount
	item.VotesUp = &up
	item.VotesDown = &down

	if content.Author != nil {
		item.Author = content.Author.Login
		item.AvatarURL = content.Author.AvatarURL
	}
	if content.Labels != nil {
		for _, l := range content.Labels.Nodes {
			item.Labels = append(item.Labels, l.Name)
		}
	}

	if status == domain.StatusShipped {
		shipped, err := dateOf(content.ClosedAt)
		if err != nil {
			return domain.Item{}, false
		}
		item.ShippedAt = &shipped
	}

	if err := item.Validate(); err != nil {
		return domain.Item{}, false
	}

	return item, true
}

// dateOf reduces an RFC3339 timestamp to its calendar date.
func dateOf(stamp string) (domain.Date, error) {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return domain.Date{}, err
	}
	t = t.UTC()
	return domain.NewDate(t.Year(), t.Month(), t.Day()), nil
}

// truncate clips s to at most max characters, matching the character bound
// the feed schema puts on descriptions.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}
