package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
	"github.com/contesthub/server/storage"
)

// popularLimit caps the popular-contests listing.
const popularLimit = 8

// Live event types broadcast to a contest's websocket room.
const (
	EventContestStatusUpdated = "CONTEST_STATUS_UPDATED"
	EventParticipantJoined    = "PARTICIPANT_JOINED"
	EventWinnerDeclared       = "WINNER_DECLARED"
)

// EventPublisher pushes contest events to subscribed clients. The
// websocket hub satisfies it; a nil publisher disables broadcasting.
type EventPublisher interface {
	BroadcastToContest(contestID int, event interface{})
}

type ContestEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type CreateContestInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Instruction string    `json:"instruction"`
	Price       float64   `json:"price"`
	Prize       string    `json:"prize"`
	Type        string    `json:"type"`
	Deadline    time.Time `json:"deadline"`
}

type ContestService interface {
	Create(ctx context.Context, actor *models.User, input CreateContestInput) (*models.Contest, error)
	GetByID(ctx context.Context, id int) (*models.Contest, error)
	ListApproved(ctx context.Context, search, contestType string) ([]models.Contest, error)
	ListPopular(ctx context.Context) ([]models.Contest, error)
	ListAll(ctx context.Context) ([]models.Contest, error)
	ListByCreator(ctx context.Context, actor *models.User) ([]models.Contest, error)
	SetStatus(ctx context.Context, actor *models.User, id int, status models.ContestStatus) (*models.Contest, error)
	Update(ctx context.Context, actor *models.User, id int, input CreateContestInput) (*models.Contest, error)
	Delete(ctx context.Context, actor *models.User, id int) error
	DeclareWinner(ctx context.Context, actor *models.User, id int, winnerEmail string) (*models.Contest, error)
	UploadImage(ctx context.Context, actor *models.User, id int, file io.Reader, contentType string) (*models.Contest, error)
}

type contestService struct {
	contestRepo repositories.ContestRepository
	userRepo    repositories.UserRepository
	uploader    storage.FileUploader
	publisher   EventPublisher
}

func NewContestService(
	contestRepo repositories.ContestRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	publisher EventPublisher,
) ContestService {
	return &contestService{
		contestRepo: contestRepo,
		userRepo:    userRepo,
		uploader:    uploader,
		publisher:   publisher,
	}
}

func validateContestInput(input CreateContestInput) error {
	missing := []string{}
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(input.Instruction) == "" {
		missing = append(missing, "instruction")
	}
	if strings.TrimSpace(input.Prize) == "" {
		missing = append(missing, "prize")
	}
	if strings.TrimSpace(input.Type) == "" {
		missing = append(missing, "type")
	}
	if input.Deadline.IsZero() {
		missing = append(missing, "deadline")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidationFailed, strings.Join(missing, ", "))
	}
	if input.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidationFailed)
	}
	return nil
}

func (s *contestService) Create(ctx context.Context, actor *models.User, input CreateContestInput) (*models.Contest, error) {
	if err := validateContestInput(input); err != nil {
		return nil, err
	}
	if !input.Deadline.After(time.Now()) {
		return nil, ErrContestInvalidDeadline
	}

	contest := &models.Contest{
		Name:        input.Name,
		Description: input.Description,
		Instruction: input.Instruction,
		Price:       input.Price,
		Prize:       input.Prize,
		Type:        input.Type,
		Deadline:    input.Deadline,
		CreatorID:   actor.ID,
		Status:      models.StatusPending,
	}

	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	contest.Creator = actor
	return contest, nil
}

func (s *contestService) GetByID(ctx context.Context, id int) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	s.populateImageURL(contest)
	return contest, nil
}

func (s *contestService) ListApproved(ctx context.Context, search, contestType string) ([]models.Contest, error) {
	status := models.StatusApproved
	contests, err := s.contestRepo.List(ctx, repositories.ListContestsFilter{
		Status: &status,
		Type:   contestType,
		Search: search,
	})
	if err != nil {
		return nil, err
	}
	s.populateImageURLs(contests)
	return contests, nil
}

func (s *contestService) ListPopular(ctx context.Context) ([]models.Contest, error) {
	status := models.StatusApproved
	contests, err := s.contestRepo.List(ctx, repositories.ListContestsFilter{
		Status:       &status,
		ByPopularity: true,
		Limit:        popularLimit,
	})
	if err != nil {
		return nil, err
	}
	s.populateImageURLs(contests)
	return contests, nil
}

func (s *contestService) ListAll(ctx context.Context) ([]models.Contest, error) {
	contests, err := s.contestRepo.List(ctx, repositories.ListContestsFilter{})
	if err != nil {
		return nil, err
	}
	s.populateImageURLs(contests)
	return contests, nil
}

func (s *contestService) ListByCreator(ctx context.Context, actor *models.User) ([]models.Contest, error) {
	contests, err := s.contestRepo.List(ctx, repositories.ListContestsFilter{CreatorID: &actor.ID})
	if err != nil {
		return nil, err
	}
	s.populateImageURLs(contests)
	return contests, nil
}

// SetStatus moves a pending contest to approved or rejected. Setting
// the status a contest already has is a no-op rather than an error.
func (s *contestService) SetStatus(ctx context.Context, actor *models.User, id int, status models.ContestStatus) (*models.Contest, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, ErrContestInvalidStatus
	}
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	contest, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.Status == status {
		return contest, nil
	}
	if contest.Status != models.StatusPending {
		return nil, ErrContestInvalidStatus
	}

	if err := s.contestRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	contest.Status = status

	s.broadcast(id, EventContestStatusUpdated, contest)
	return contest, nil
}

func (s *contestService) Update(ctx context.Context, actor *models.User, id int, input CreateContestInput) (*models.Contest, error) {
	if err := validateContestInput(input); err != nil {
		return nil, err
	}

	contest, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(actor, contest); err != nil {
		return nil, err
	}

	contest.Name = input.Name
	contest.Description = input.Description
	contest.Instruction = input.Instruction
	contest.Price = input.Price
	contest.Prize = input.Prize
	contest.Type = input.Type
	contest.Deadline = input.Deadline

	if err := s.contestRepo.Update(ctx, contest); err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	return contest, nil
}

func (s *contestService) Delete(ctx context.Context, actor *models.User, id int) error {
	contest, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(actor, contest); err != nil {
		return err
	}

	if err := s.contestRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return ErrContestNotFound
		}
		return err
	}

	if contest.ImageKey != nil && s.uploader != nil {
		// Best effort: the contest row is already gone, a failed object
		// delete just leaves an orphan in the bucket.
		_ = s.uploader.Delete(ctx, *contest.ImageKey)
	}
	return nil
}

// DeclareWinner records the winner and ends the contest. An admin may
// declare for any contest, a creator only for their own. Re-declaring
// overwrites the previous winner.
func (s *contestService) DeclareWinner(ctx context.Context, actor *models.User, id int, winnerEmail string) (*models.Contest, error) {
	if strings.TrimSpace(winnerEmail) == "" {
		return nil, fmt.Errorf("%w: winner email is required", ErrValidationFailed)
	}

	contest, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && contest.CreatorID != actor.ID {
		return nil, ErrForbiddenOperation
	}

	winner, err := s.userRepo.GetByEmail(ctx, winnerEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrWinnerNotFound
		}
		return nil, err
	}

	if err := s.contestRepo.SetWinner(ctx, nil, id, winner.ID); err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	contest.Status = models.StatusEnded
	contest.WinnerID = &winner.ID
	contest.Winner = winner

	s.broadcast(id, EventWinnerDeclared, contest)
	return contest, nil
}

func (s *contestService) UploadImage(ctx context.Context, actor *models.User, id int, file io.Reader, contentType string) (*models.Contest, error) {
	if s.uploader == nil {
		return nil, ErrUploaderUnavailable
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", ErrValidationFailed, contentType)
	}

	contest, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && contest.CreatorID != actor.ID {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("contests/%d/banner-%d%s", id, time.Now().Unix(), extensionFor(contentType))
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload contest image: %w", err)
	}

	oldKey := contest.ImageKey
	if err := s.contestRepo.UpdateImageKey(ctx, id, &result.Key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	contest.ImageKey = &result.Key
	s.populateImageURL(contest)
	return contest, nil
}

// authorizeMutation implements the edit/delete policy: admins may
// mutate any contest, a creator only their own and only while it is
// still pending.
func (s *contestService) authorizeMutation(actor *models.User, contest *models.Contest) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if contest.CreatorID != actor.ID {
		return ErrForbiddenOperation
	}
	if contest.Status != models.StatusPending {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *contestService) broadcast(contestID int, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.BroadcastToContest(contestID, ContestEvent{Type: eventType, Payload: payload})
}

func (s *contestService) populateImageURL(c *models.Contest) {
	if c.ImageKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*c.ImageKey)
	if url != "" {
		c.ImageURL = &url
	}
}

func (s *contestService) populateImageURLs(contests []models.Contest) {
	for i := range contests {
		s.populateImageURL(&contests[i])
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
