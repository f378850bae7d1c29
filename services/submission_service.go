package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
)

type SubmitInput struct {
	ContestID int    `json:"contest_id"`
	TaskURL   string `json:"task_url"`
}

type SubmissionService interface {
	// Submit records the actor's task entry. It requires a prior
	// payment for the contest; reaching the endpoint without having
	// paid is rejected rather than silently accepted.
	Submit(ctx context.Context, actor *models.User, input SubmitInput) (*models.Submission, error)
	// ListForContest is visible to admins and to the contest's creator.
	ListForContest(ctx context.Context, actor *models.User, contestID int) ([]models.Submission, error)
}

type submissionService struct {
	submissionRepo repositories.SubmissionRepository
	paymentRepo    repositories.PaymentRepository
	contestRepo    repositories.ContestRepository
}

func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	paymentRepo repositories.PaymentRepository,
	contestRepo repositories.ContestRepository,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		paymentRepo:    paymentRepo,
		contestRepo:    contestRepo,
	}
}

func (s *submissionService) Submit(ctx context.Context, actor *models.User, input SubmitInput) (*models.Submission, error) {
	if input.ContestID <= 0 || strings.TrimSpace(input.TaskURL) == "" {
		return nil, fmt.Errorf("%w: contest_id and task_url are required", ErrValidationFailed)
	}

	contest, err := s.contestRepo.GetByID(ctx, input.ContestID)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	if contest.Status != models.StatusApproved {
		return nil, ErrContestNotApproved
	}
	if time.Now().After(contest.Deadline) {
		return nil, ErrContestDeadlinePassed
	}

	paid, err := s.paymentRepo.Exists(ctx, actor.ID, contest.ID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, ErrPaymentRequired
	}

	submission := &models.Submission{
		ContestID: contest.ID,
		UserID:    actor.ID,
		TaskURL:   input.TaskURL,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		if errors.Is(err, repositories.ErrSubmissionInvalidContest) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	submission.UserName = actor.Name
	submission.UserEmail = actor.Email
	submission.UserPhoto = actor.Photo
	submission.ContestName = contest.Name
	return submission, nil
}

func (s *submissionService) ListForContest(ctx context.Context, actor *models.User, contestID int) ([]models.Submission, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	if actor.Role != models.RoleAdmin && contest.CreatorID != actor.ID {
		return nil, ErrForbiddenOperation
	}
	return s.submissionRepo.ListByContest(ctx, contestID)
}
