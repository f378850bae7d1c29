package services

import (
	"context"

	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
	"golang.org/x/sync/errgroup"
)

const leaderboardLimit = 10

type StatsService interface {
	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type statsService struct {
	userRepo       repositories.UserRepository
	contestRepo    repositories.ContestRepository
	paymentRepo    repositories.PaymentRepository
	submissionRepo repositories.SubmissionRepository
}

func NewStatsService(
	userRepo repositories.UserRepository,
	contestRepo repositories.ContestRepository,
	paymentRepo repositories.PaymentRepository,
	submissionRepo repositories.SubmissionRepository,
) StatsService {
	return &statsService{
		userRepo:       userRepo,
		contestRepo:    contestRepo,
		paymentRepo:    paymentRepo,
		submissionRepo: submissionRepo,
	}
}

// GetPlatformStats gathers the dashboard counters. The counts are
// independent queries, so they run concurrently on the pool.
func (s *statsService) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{}
	pending := models.StatusPending
	approved := models.StatusApproved
	ended := models.StatusEnded

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.userRepo.Count(gctx)
		stats.UsersTotal = n
		return err
	})
	g.Go(func() error {
		n, err := s.contestRepo.CountByStatus(gctx, nil)
		stats.ContestsTotal = n
		return err
	})
	g.Go(func() error {
		n, err := s.contestRepo.CountByStatus(gctx, &pending)
		stats.PendingContests = n
		return err
	})
	g.Go(func() error {
		n, err := s.contestRepo.CountByStatus(gctx, &approved)
		stats.ApprovedContests = n
		return err
	})
	g.Go(func() error {
		n, err := s.contestRepo.CountByStatus(gctx, &ended)
		stats.EndedContests = n
		return err
	})
	g.Go(func() error {
		n, err := s.paymentRepo.Count(gctx)
		stats.PaymentsTotal = n
		return err
	})
	g.Go(func() error {
		revenue, err := s.paymentRepo.Revenue(gctx)
		stats.Revenue = revenue
		return err
	})
	g.Go(func() error {
		n, err := s.submissionRepo.Count(gctx)
		stats.SubmissionsTotal = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *statsService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return s.contestRepo.WinnersLeaderboard(ctx, leaderboardLimit)
}
