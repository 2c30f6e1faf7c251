package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
)

// Scheme prefixes sources read from a GitHub repository through the gh CLI.
const Scheme = "github://"

// Location identifies one file in a GitHub repository.
// Format: github://owner/repo/path/to/file[@ref]
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// ParseLocation parses a github:// source.
func ParseLocation(source string) (Location, error) {
	if !IsGitHubURL(source) {
		return Location{}, fmt.Errorf("invalid GitHub URL format: %s", source)
	}
	rest := strings.TrimPrefix(source, Scheme)

	var loc Location
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		loc.Ref = rest[i+1:]
		rest = rest[:i]
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Location{}, fmt.Errorf("invalid GitHub URL format: expected github://owner/repo/path/to/file")
	}
	loc.Owner, loc.Repo, loc.Path = parts[0], parts[1], parts[2]
	return loc, nil
}

// contentsPath is the REST path of the file for `gh api`.
func (l Location) contentsPath() string {
	p := fmt.Sprintf("repos/%s/%s/contents/%s", l.Owner, l.Repo, l.Path)
	if l.Ref != "" {
		p += "?ref=" + url.QueryEscape(l.Ref)
	}
	return p
}

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client reads repository files with the gh CLI, so private repositories
// work with whatever credentials gh is logged in with.
type Client struct {
	run runFunc
}

// NewClient creates a new GitHub client.
func NewClient() *Client {
	return &Client{run: runCommand}
}

// FetchFile returns the raw contents of the file at source.
func (c *Client) FetchFile(ctx context.Context, source string) ([]byte, error) {
	loc, err := ParseLocation(source)
	if err != nil {
		return nil, err
	}

	out, err := c.run(ctx, "gh", "api", "-H", "Accept: application/vnd.github.raw", loc.contentsPath())
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("gh CLI is not installed. Please install it from https://cli.github.com/")
		}
		if strings.Contains(err.Error(), "not logged in") {
			return nil, fmt.Errorf("gh CLI is not authenticated. Please run 'gh auth login' first")
		}
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty response from GitHub for %s", source)
	}
	return out, nil
}

// ReadFile reads source from GitHub when it is a github:// URL and from the
// local filesystem otherwise.
func (c *Client) ReadFile(ctx context.Context, source string) ([]byte, error) {
	if IsGitHubURL(source) {
		content, err := c.FetchFile(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s from GitHub: %w", source, err)
		}
		return content, nil
	}
	return os.ReadFile(source)
}

// IsGitHubURL checks if a URL is a GitHub URL
func IsGitHubURL(source string) bool {
	return strings.HasPrefix(source, Scheme)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("gh command failed: %s", strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("gh command failed: %w", err)
	}
	return stdout.Bytes(), nil
}
