package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/contesthub/server/billing"
	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
)

type RecordPaymentInput struct {
	ContestID     int    `json:"contest_id"`
	TransactionID string `json:"transaction_id"`
}

type PaymentService interface {
	// CreatePaymentIntent asks the gateway for a charge intent and
	// returns the client secret. No idempotency key is attached, so a
	// double-submit can create two intents; only one of them can ever
	// be recorded as a participation.
	CreatePaymentIntent(ctx context.Context, price float64) (string, error)
	// Record stores the payment and increments the contest's
	// participant counter inside one transaction.
	Record(ctx context.Context, actor *models.User, input RecordPaymentInput) (*models.Payment, error)
	// ListForUser returns the actor's own payments joined with contest
	// metadata, ordered by contest deadline.
	ListForUser(ctx context.Context, actor *models.User, email string) ([]models.Payment, error)
}

type paymentService struct {
	db          *sql.DB
	paymentRepo repositories.PaymentRepository
	contestRepo repositories.ContestRepository
	gateway     billing.Gateway
	publisher   EventPublisher
}

func NewPaymentService(
	db *sql.DB,
	paymentRepo repositories.PaymentRepository,
	contestRepo repositories.ContestRepository,
	gateway billing.Gateway,
	publisher EventPublisher,
) PaymentService {
	return &paymentService{
		db:          db,
		paymentRepo: paymentRepo,
		contestRepo: contestRepo,
		gateway:     gateway,
		publisher:   publisher,
	}
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	amount := int64(math.Round(price * 100))
	if amount < 1 {
		return "", ErrPaymentInvalidAmount
	}

	secret, err := s.gateway.CreatePaymentIntent(ctx, amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if secret == "" {
		return "", ErrPaymentGateway
	}
	return secret, nil
}

func (s *paymentService) Record(ctx context.Context, actor *models.User, input RecordPaymentInput) (*models.Payment, error) {
	if input.ContestID <= 0 || strings.TrimSpace(input.TransactionID) == "" {
		return nil, fmt.Errorf("%w: contest_id and transaction_id are required", ErrValidationFailed)
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

	// The entry fee is taken from the contest row, never from the
	// client payload.
	payment := &models.Payment{
		UserID:        actor.ID,
		ContestID:     contest.ID,
		Price:         contest.Price,
		TransactionID: input.TransactionID,
		Status:        "paid",
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		if errors.Is(err, repositories.ErrPaymentDuplicate) {
			return nil, ErrAlreadyParticipating
		}
		if errors.Is(err, repositories.ErrPaymentInvalidContest) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	if err := s.contestRepo.IncrementParticipants(ctx, tx, contest.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	payment.UserName = actor.Name
	payment.UserEmail = actor.Email
	payment.ContestName = contest.Name

	if s.publisher != nil {
		s.publisher.BroadcastToContest(contest.ID, ContestEvent{
			Type: EventParticipantJoined,
			Payload: map[string]interface{}{
				"contest_id":         contest.ID,
				"participants_count": contest.ParticipantsCount + 1,
			},
		})
	}
	return payment, nil
}

func (s *paymentService) ListForUser(ctx context.Context, actor *models.User, email string) ([]models.Payment, error) {
	if !strings.EqualFold(strings.TrimSpace(email), actor.Email) {
		return nil, ErrForbiddenOperation
	}
	return s.paymentRepo.ListByUser(ctx, actor.ID)
}
