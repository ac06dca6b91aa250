// Package update checks GitHub releases for a newer distcheck build.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Owner and Repo identify the release feed for distcheck.
const (
	Owner = "moasq"
	Repo  = "distcheck"
)

// apiBase is the GitHub API root; tests point it at a local server.
var apiBase = "https://api.github.com"

// Release describes the latest published release relative to the running build.
type Release struct {
	Latest  string `json:"latest"`
	Current string `json:"current"`
	URL     string `json:"url"`
}

// Newer reports whether the published release is ahead of the running build.
func (r *Release) Newer() bool {
	return r != nil && compareVersions(r.Latest, r.Current) > 0
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Latest fetches the latest release of owner/repo and pairs it with current.
// Development builds ("dev") never report as outdated.
func Latest(ctx context.Context, owner, repo, current string) (*Release, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", apiBase, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned %s", resp.Status)
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}

	return &Release{
		Latest:  strings.TrimPrefix(rel.TagName, "v"),
		Current: strings.TrimPrefix(current, "v"),
		URL:     rel.HTMLURL,
	}, nil
}

// compareVersions compares two major.minor.patch strings, ignoring any
// pre-release or build suffix. "dev" sorts above every release.
func compareVersions(a, b string) int {
	if a == b {
		return 0
	}
	if b == "dev" {
		return -1
	}
	if a == "dev" {
		return 1
	}
	ap, bp := parseVersion(a), parseVersion(b)
	for i := range ap {
		if ap[i] != bp[i] {
			return ap[i] - bp[i]
		}
	}
	return 0
}

// parseVersion splits "1.2.3-rc.1" into [1, 2, 3]. Missing parts default to 0.
func parseVersion(v string) [3]int {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var parts [3]int
	for i, s := range strings.SplitN(v, ".", 3) {
		n, _ := strconv.Atoi(s)
		parts[i] = n
	}
	return parts
}
