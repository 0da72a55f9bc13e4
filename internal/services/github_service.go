package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alimgiray/prreport/pkg/config"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ErrEmptyBody is returned when GitHub answers 200 OK without a body
var ErrEmptyBody = errors.New("empty response body")

// StatusError is returned when GitHub answers with anything but 200 OK
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: %s (%s)", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// IsRecoverable reports whether err came from a completed request that
// GitHub answered unsuccessfully, as opposed to a transport or decode failure.
func IsRecoverable(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) || errors.Is(err, ErrEmptyBody)
}

type GitHubService struct {
	client *github.Client
}

// NewGitHubService creates a GitHub API client authenticated with a static token
func NewGitHubService(ctx context.Context, cfg config.GitHubConfig) (*GitHubService, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	return &GitHubService{client: client}, nil
}

// ListClosedPullRequests fetches one page of closed pull requests and reports
// whether the Link header advertises a next page.
func (s *GitHubService) ListClosedPullRequests(ctx context.Context, owner, repo string, page int) ([]*github.PullRequest, bool, error) {
	query := url.Values{}
	query.Set("state", "closed")
	query.Set("per_page", "100")
	query.Set("page", fmt.Sprint(page))
	u := fmt.Sprintf("repos/%s/%s/pulls?%s", url.PathEscape(owner), url.PathEscape(repo), query.Encode())

	var prs []*github.PullRequest
	resp, err := s.getJSON(ctx, u, &prs)
	if err != nil {
		return nil, false, err
	}

	return prs, strings.Contains(resp.Header.Get("Link"), `rel="next"`), nil
}

// GetPullRequest fetches the full pull request behind its API URL
func (s *GitHubService) GetPullRequest(ctx context.Context, prURL string) (*github.PullRequest, error) {
	var pr github.PullRequest
	if _, err := s.getJSON(ctx, prURL, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListReviews fetches the reviews of the pull request behind prURL
func (s *GitHubService) ListReviews(ctx context.Context, prURL string) ([]*github.PullRequestReview, error) {
	var reviews []*github.PullRequestReview
	if _, err := s.getJSON(ctx, prURL+"/reviews", &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListCommits fetches the commits of the pull request behind prURL
func (s *GitHubService) ListCommits(ctx context.Context, prURL string) ([]*github.RepositoryCommit, error) {
	var commits []*github.RepositoryCommit
	if _, err := s.getJSON(ctx, prURL+"/commits", &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// getJSON issues a GET and decodes the body into v. Unsuccessful statuses
// yield a *StatusError and an empty 200 body yields ErrEmptyBody; in both
// cases the body is never decoded.
func (s *GitHubService) getJSON(ctx context.Context, urlStr string, v interface{}) (*github.Response, error) {
	req, err := s.client.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", urlStr, err)
	}

	resp, err := s.client.BareDo(ctx, req)
	if err != nil {
		if resp != nil && resp.Response != nil {
			return resp, newStatusError(urlStr, resp.Response, err)
		}
		return nil, fmt.Errorf("request to %s failed: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp, newStatusError(urlStr, resp.Response, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, fmt.Errorf("failed to read response body from %s: %w", urlStr, err)
	}
	if len(body) == 0 {
		return resp, ErrEmptyBody
	}

	if err := json.Unmarshal(body, v); err != nil {
		return resp, fmt.Errorf("failed to unmarshal response from %s: %w", urlStr, err)
	}

	return resp, nil
}

func newStatusError(urlStr string, resp *http.Response, cause error) *StatusError {
	statusErr := &StatusError{
		URL:        urlStr,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	if statusErr.Status == "" {
		statusErr.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var errResp *github.ErrorResponse
	if errors.As(cause, &errResp) {
		statusErr.Message = errResp.Message
	}
	return statusErr
}
