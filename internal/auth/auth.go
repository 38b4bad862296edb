// Package auth resolves the GitHub token used by the origin fetcher. The
// origin feed is optional, so token discovery is best effort with a clear
// error when every source comes up empty.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// TokenProvider obtains a GitHub authentication token from one source.
type TokenProvider interface {
	GetToken() (string, error)
}

// EnvProvider reads ROADMAP_GITHUB_TOKEN, falling back to GITHUB_TOKEN. The
// dedicated variable lets operators scope a read-only token to the roadmap
// feed without touching their general GitHub credentials.
type EnvProvider struct{}

// GetToken reads the environment. Returns an error if neither variable is set.
func (e *EnvProvider) GetToken() (string, error) {
	for _, name := range []string{"ROADMAP_GITHUB_TOKEN", "GITHUB_TOKEN"} {
		if token := os.Getenv(name); token != "" {
			return token, nil
		}
	}
	return "", errors.New("neither ROADMAP_GITHUB_TOKEN nor GITHUB_TOKEN is set")
}

// GhCliProvider shells out to the GitHub CLI (`gh auth token`), picking up
// whatever the user is already authenticated as.
type GhCliProvider struct{}

// GetToken runs `gh auth token`. Returns an error if gh is missing, not
// authenticated, or prints nothing.
func (g *GhCliProvider) GetToken() (string, error) {
	cmd := exec.Command("gh", "auth", "token", "--hostname", "github.com")
	output, err := cmd.Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", errors.New("gh CLI not found in PATH")
		}
		return "", fmt.Errorf("gh auth token failed: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("gh auth token returned empty token")
	}

	return token, nil
}

// GetToken tries the environment first (explicit configuration wins), then
// the gh CLI. The combined error names both remedies.
func GetToken() (string, error) {
	env := &EnvProvider{}
	token, envErr := env.GetToken()
	if envErr == nil {
		return token, nil
	}

	cli := &GhCliProvider{}
	token, cliErr := cli.GetToken()
	if cliErr == nil {
		return token, nil
	}

	return "", fmt.Errorf(
		"no GitHub token for the origin feed: %v; %v.\n"+
			"Either set ROADMAP_GITHUB_TOKEN (or GITHUB_TOKEN), or run 'gh auth login'",
		envErr, cliErr,
	)
}
