package services

import (
	"context"
	"errors"

	"github.com/alimgiray/prreport/internal/models"
	"github.com/alimgiray/prreport/internal/workers"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
)

// PullRequestClient defines the GitHub lookups the report needs
type PullRequestClient interface {
	ListClosedPullRequests(ctx context.Context, owner, repo string, page int) ([]*github.PullRequest, bool, error)
	GetPullRequest(ctx context.Context, prURL string) (*github.PullRequest, error)
	ListReviews(ctx context.Context, prURL string) ([]*github.PullRequestReview, error)
	ListCommits(ctx context.Context, prURL string) ([]*github.RepositoryCommit, error)
}

type PullRequestService struct {
	client PullRequestClient
	pool   *workers.EnrichmentPool
	log    *logrus.Entry
}

func NewPullRequestService(client PullRequestClient, pool *workers.EnrichmentPool, log *logrus.Entry) *PullRequestService {
	return &PullRequestService{
		client: client,
		pool:   pool,
		log:    log,
	}
}

// Collect gathers records for every repository in the given order. Only
// transport and decode failures are returned; unsuccessful responses are
// logged and skipped.
func (s *PullRequestService) Collect(ctx context.Context, owner string, repos []string, window models.TimeWindow) ([]*models.PullRequestRecord, error) {
	var records []*models.PullRequestRecord
	for _, repo := range repos {
		repoRecords, err := s.CollectRepository(ctx, owner, repo, window)
		if err != nil {
			return nil, err
		}
		records = append(records, repoRecords...)
	}
	return records, nil
}

// CollectRepository pages through the closed pull requests of one repository
// and returns a record for every PR merged inside window.
func (s *PullRequestService) CollectRepository(ctx context.Context, owner, repo string, window models.TimeWindow) ([]*models.PullRequestRecord, error) {
	repoLog := s.log.WithField("repo", repo)
	repoLog.Info("Processing repository")

	var records []*models.PullRequestRecord
	for page := 1; ; page++ {
		pageLog := repoLog.WithField("page", page)
		pageLog.Info("Fetching page of closed PRs")

		prs, hasNext, err := s.client.ListClosedPullRequests(ctx, owner, repo, page)
		if err != nil {
			var statusErr *StatusError
			switch {
			case errors.Is(err, ErrEmptyBody):
				pageLog.Warn("Response body is empty")
			case errors.As(err, &statusErr):
				pageLog.WithFields(logrus.Fields{
					"status":  statusErr.Status,
					"message": statusErr.Message,
				}).Error("Error fetching PRs")
			default:
				return nil, err
			}
			break
		}

		if len(prs) == 0 {
			break
		}

		pageRecords, err := s.enrichPage(ctx, repo, prs, window)
		if err != nil {
			return nil, err
		}
		records = append(records, pageRecords...)

		if !hasNext {
			break
		}
	}

	repoLog.WithField("records", len(records)).Info("Finished repository")
	return records, nil
}

// enrichPage builds records for the admitted PRs of one page, keeping page order
func (s *PullRequestService) enrichPage(ctx context.Context, repo string, prs []*github.PullRequest, window models.TimeWindow) ([]*models.PullRequestRecord, error) {
	var admitted []*github.PullRequest
	for _, pr := range prs {
		if IsMergedWithin(pr, window) {
			admitted = append(admitted, pr)
		}
	}

	slots := make([]*models.PullRequestRecord, len(admitted))
	err := s.pool.Run(ctx, len(admitted), func(ctx context.Context, i int) error {
		record, err := s.BuildRecord(ctx, repo, admitted[i])
		if err != nil {
			return err
		}
		slots[i] = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]*models.PullRequestRecord, 0, len(slots))
	for _, record := range slots {
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// IsMergedWithin reports whether pr was merged inside window
func IsMergedWithin(pr *github.PullRequest, window models.TimeWindow) bool {
	if pr.MergedAt == nil {
		return false
	}
	return window.Contains(pr.MergedAt.Time)
}

// BuildRecord fetches details, reviews and commits for pr and assembles its
// record. A nil record with a nil error means the detail lookup was
// unsuccessful and the PR is skipped.
func (s *PullRequestService) BuildRecord(ctx context.Context, repo string, pr *github.PullRequest) (*models.PullRequestRecord, error) {
	prLog := s.log.WithFields(logrus.Fields{"repo": repo, "pr": pr.GetNumber()})
	prLog.Info("Processing PR")

	prURL := pr.GetURL()

	detail, err := s.client.GetPullRequest(ctx, prURL)
	if err != nil {
		if !IsRecoverable(err) {
			return nil, err
		}
		prLog.WithError(err).Warn("Skipping PR, failed to fetch details")
		return nil, nil
	}

	reviews, err := s.client.ListReviews(ctx, prURL)
	if err != nil {
		if !IsRecoverable(err) {
			return nil, err
		}
		prLog.WithError(err).Warn("Failed to fetch reviews")
		reviews = nil
	}

	commits, err := s.client.ListCommits(ctx, prURL)
	if err != nil {
		if !IsRecoverable(err) {
			return nil, err
		}
		prLog.WithError(err).Warn("Failed to fetch commits")
		commits = nil
	}

	branchType, branchName := models.SplitBranchRef(pr.GetHead().GetRef())
	record := &models.PullRequestRecord{
		Repository:  repo,
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		BranchType:  branchType,
		BranchName:  branchName,
		Description: detail.Body,
		Author:      pr.GetUser().GetLogin(),
		Reviewers:   reviewerLogins(reviews),
		MergedBy:    detail.GetMergedBy().GetLogin(),
		MergedAt:    pr.GetMergedAt().Time,
		CreatedAt:   pr.GetCreatedAt().Time,
	}

	if len(commits) > 0 {
		if date := commits[0].GetCommit().GetAuthor().GetDate(); !date.IsZero() {
			firstCommitAt := date.Time
			record.FirstCommitAt = &firstCommitAt
		}
	}
	if len(reviews) > 0 {
		if submitted := reviews[0].GetSubmittedAt(); !submitted.IsZero() {
			firstReviewAt := submitted.Time
			record.FirstReviewSubmittedAt = &firstReviewAt
		}
	}

	prLog.Info("Added PR to the list")
	return record, nil
}

func reviewerLogins(reviews []*github.PullRequestReview) []string {
	logins := make([]string, 0, len(reviews))
	for _, review := range reviews {
		if login := review.GetUser().GetLogin(); login != "" {
			logins = append(logins, login)
		}
	}
	return models.UniqueLogins(logins)
}
