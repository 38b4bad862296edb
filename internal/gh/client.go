// Package gh pulls the roadmap straight from the GitHub Projects v2 board the
// CDN feed is generated from. It is the alternate origin for operators running
// without a CDN in front; the CDN feed remains authoritative where both exist.
package gh

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
	"github.com/robby/roadmap/internal/auth"
)

// DefaultEndpoint is the public GitHub GraphQL API.
const DefaultEndpoint = "https://api.github.com/graphql"

// Client is a thin authenticated wrapper around the GitHub GraphQL API.
type Client struct {
	gql   *graphql.Client
	token string
}

// New creates a client against the public API, resolving a token through the
// auth package.
func New() (*Client, error) {
	token, err := auth.GetToken()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain GitHub token: %w", err)
	}
	return NewWithEndpoint(DefaultEndpoint, token), nil
}

// NewWithEndpoint creates a client against an explicit endpoint. Tests point
// this at a local server.
func NewWithEndpoint(endpoint, token string) *Client {
	return &Client{
		gql:   graphql.NewClient(endpoint),
		token: token,
	}
}

// run executes a GraphQL request with the bearer token attached.
func (c *Client) run(ctx context.Context, req *graphql.Request, resp interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.gql.Run(ctx, req, resp)
}
