package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/submission"
)

type SubmissionService struct {
	c *Client
}

func (s *SubmissionService) list(ctx context.Context, path string) ([]submission.Submission, error) {
	var subs []submission.Submission
	return subs, s.c.Do(ctx, http.MethodGet, path, nil, &subs)
}

func (s *SubmissionService) List(ctx context.Context) ([]submission.Submission, error) {
	return s.list(ctx, "/submissions")
}

func (s *SubmissionService) Get(ctx context.Context, id int64) (*submission.Submission, error) {
	var sub submission.Submission
	if err := s.c.Do(ctx, http.MethodGet, idPath("/submissions", id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionService) ByTask(ctx context.Context, taskID int64) ([]submission.Submission, error) {
	return s.list(ctx, idPath("/submissions/task", taskID))
}

func (s *SubmissionService) ByUser(ctx context.Context, userID int64) ([]submission.Submission, error) {
	return s.list(ctx, idPath("/submissions/user", userID))
}

func (s *SubmissionService) ByStatus(ctx context.Context, status submission.Status) ([]submission.Submission, error) {
	return s.list(ctx, "/submissions/status/"+url.PathEscape(string(status)))
}

func (s *SubmissionService) Create(ctx context.Context, ns submission.NewSubmission) (*submission.Submission, error) {
	if err := ns.Validate(s.c.validator); err != nil {
		return nil, err
	}
	var sub submission.Submission
	if err := s.c.Do(ctx, http.MethodPost, "/submissions", ns, &sub); err != nil {
		return nil, errors.Wrap(err, "creating submission")
	}
	return &sub, nil
}

func (s *SubmissionService) Update(ctx context.Context, id int64, ns submission.NewSubmission) (*submission.Submission, error) {
	if err := ns.Validate(s.c.validator); err != nil {
		return nil, err
	}
	var sub submission.Submission
	if err := s.c.Do(ctx, http.MethodPut, idPath("/submissions", id), ns, &sub); err != nil {
		return nil, errors.Wrap(err, "updating submission")
	}
	return &sub, nil
}

// Grade rejects grades outside [0, 20] before any request is sent.
func (s *SubmissionService) Grade(ctx context.Context, id int64, gs submission.GradeSubmission) (*submission.Submission, error) {
	if err := gs.Validate(s.c.validator); err != nil {
		return nil, err
	}
	var sub submission.Submission
	if err := s.c.Do(ctx, http.MethodPut, idPath("/submissions", id)+"/grade", gs, &sub); err != nil {
		return nil, errors.Wrap(err, "grading submission")
	}
	return &sub, nil
}

func (s *SubmissionService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, idPath("/submissions", id), nil, nil)
}
