package userview

import (
	"context"
	"fmt"
	"strings"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Batch action names used in summaries.
const (
	ActionRemove                = "Remove"
	ActionUpdatePassword        = "Update password of"
	ActionUpdateVirtualClusters = "Update virtual clusters of"
)

// BatchResult is the outcome of one per-user call.
type BatchResult struct {
	Username string
	Err      error
}

// BatchSummary collects every outcome of a batch action in selection order.
type BatchSummary struct {
	Action  string
	Results []BatchResult
}

func (s BatchSummary) Total() int {
	return len(s.Results)
}

func (s BatchSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func (s BatchSummary) Succeeded() int {
	return s.Total() - s.Failed()
}

// Err aggregates the failures, or returns nil if every call succeeded.
func (s BatchSummary) Err() error {
	var merr *multierror.Error
	for _, r := range s.Results {
		if r.Err != nil {
			merr = multierror.Append(merr, r.Err)
		}
	}
	if merr == nil {
		return nil
	}
	merr.ErrorFormat = joinLines
	return merr
}

func joinLines(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// Message renders the summary shown to the operator, e.g.
// "Remove users successfully." or "Remove users with 1 failed.\n<error>".
func (s BatchSummary) Message() string {
	noun := "user"
	if s.Total() > 1 {
		noun = "users"
	}
	err := s.Err()
	if err == nil {
		return fmt.Sprintf("%s %s successfully.", s.Action, noun)
	}
	return fmt.Sprintf("%s %s with %d failed.\n%s", s.Action, noun, s.Failed(), err.Error())
}

// RunBatch calls op once per user without waiting for the others, then waits for
// every call to settle. A failing call never cancels or hides the rest. limit bounds
// the number of calls in flight; zero or less means unbounded.
func RunBatch(ctx context.Context, action string, users []*models.User, limit int, op func(context.Context, *models.User) error) BatchSummary {
	results := make([]BatchResult, len(users))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, u := range users {
		g.Go(func() error {
			results[i] = BatchResult{Username: u.Username, Err: op(ctx, u)}
			return nil
		})
	}
	_ = g.Wait()

	return BatchSummary{Action: action, Results: results}
}
