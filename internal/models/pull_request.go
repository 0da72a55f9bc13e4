package models

import (
	"strconv"
	"strings"
	"time"
)

// WireTimeFormat is the timestamp layout GitHub uses on the wire
const WireTimeFormat = time.RFC3339

// PullRequestRecord is one exported row describing a merged pull request
type PullRequestRecord struct {
	Repository             string     `json:"repo"`
	Number                 int        `json:"pr_number"`
	Title                  string     `json:"pr_name"`
	BranchType             string     `json:"branch_type"`
	BranchName             string     `json:"branch_name"`
	Description            *string    `json:"description"`
	Author                 string     `json:"author"`
	Reviewers              []string   `json:"reviewers"`
	MergedBy               string     `json:"merged_by"`
	MergedAt               time.Time  `json:"merged_date"`
	CreatedAt              time.Time  `json:"created_date"`
	FirstCommitAt          *time.Time `json:"first_commit_date"`
	FirstReviewSubmittedAt *time.Time `json:"first_review_comment_date"`
}

// Field is a named column value of a record. Null values render as "".
type Field struct {
	Name  string
	Value string
}

// Fields returns the record's columns in export order
func (r *PullRequestRecord) Fields() []Field {
	return []Field{
		{"repo", r.Repository},
		{"pr_number", strconv.Itoa(r.Number)},
		{"pr_name", r.Title},
		{"branch_type", r.BranchType},
		{"branch_name", r.BranchName},
		{"description", derefString(r.Description)},
		{"author", r.Author},
		{"reviewers", strings.Join(r.Reviewers, ", ")},
		{"merged_by", r.MergedBy},
		{"merged_date", formatTime(&r.MergedAt)},
		{"created_date", formatTime(&r.CreatedAt)},
		{"first_commit_date", formatTime(r.FirstCommitAt)},
		{"first_review_comment_date", formatTime(r.FirstReviewSubmittedAt)},
	}
}

// SplitBranchRef splits a head ref like "feature/login-fix" into its type
// (first segment) and name (last segment). A ref without "/" yields the
// same value for both.
func SplitBranchRef(ref string) (branchType, branchName string) {
	parts := strings.Split(ref, "/")
	return parts[0], parts[len(parts)-1]
}

// UniqueLogins removes duplicate logins, keeping first-seen order
func UniqueLogins(logins []string) []string {
	seen := make(map[string]bool, len(logins))
	unique := make([]string, 0, len(logins))
	for _, login := range logins {
		if seen[login] {
			continue
		}
		seen[login] = true
		unique = append(unique, login)
	}
	return unique
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(WireTimeFormat)
}
