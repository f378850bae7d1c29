package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
	"github.com/contesthub/server/storage"
)

// In-memory repository fakes used across the service tests. They model
// just enough of the Postgres behavior (not-found sentinels, the
// one-payment-per-user-per-contest constraint) to exercise the service
// logic without a database.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo(seed ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{nextID: 1, users: map[int]*models.User{}}
	for _, u := range seed {
		if u.ID == 0 {
			u.ID = r.nextID
		}
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
		u.Email = strings.ToLower(u.Email)
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateIfAbsent(_ context.Context, user *models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(user.Email)
	for _, existing := range r.users {
		if existing.Email == email {
			*user = *existing
			return false, nil
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.Email = email
	stored := *user
	r.users[user.ID] = &stored
	return true, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id int, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.Photo = user.Photo
	stored.Address = user.Address
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type fakeContestRepo struct {
	mu         sync.Mutex
	nextID     int
	contests   map[int]*models.Contest
	lastFilter repositories.ListContestsFilter
}

func newFakeContestRepo(seed ...*models.Contest) *fakeContestRepo {
	r := &fakeContestRepo{nextID: 1, contests: map[int]*models.Contest{}}
	for _, c := range seed {
		if c.ID == 0 {
			c.ID = r.nextID
		}
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.contests[c.ID] = c
	}
	return r
}

func (r *fakeContestRepo) Create(_ context.Context, contest *models.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contest.ID = r.nextID
	r.nextID++
	stored := *contest
	r.contests[contest.ID] = &stored
	return nil
}

func (r *fakeContestRepo) GetByID(_ context.Context, id int) (*models.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return nil, repositories.ErrContestNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeContestRepo) List(_ context.Context, filter repositories.ListContestsFilter) ([]models.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	out := []models.Contest{}
	for _, c := range r.contests {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.CreatorID != nil && c.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		out = append(out, *c)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeContestRepo) Update(_ context.Context, contest *models.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[contest.ID]; !ok {
		return repositories.ErrContestNotFound
	}
	stored := *contest
	r.contests[contest.ID] = &stored
	return nil
}

func (r *fakeContestRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.ContestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeContestRepo) SetWinner(_ context.Context, _ repositories.SQLExecutor, id int, winnerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.WinnerID = &winnerID
	c.Status = models.StatusEnded
	return nil
}

func (r *fakeContestRepo) UpdateImageKey(_ context.Context, id int, imageKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.ImageKey = imageKey
	return nil
}

func (r *fakeContestRepo) IncrementParticipants(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.ParticipantsCount++
	return nil
}

func (r *fakeContestRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[id]; !ok {
		return repositories.ErrContestNotFound
	}
	delete(r.contests, id)
	return nil
}

func (r *fakeContestRepo) CountByStatus(_ context.Context, status *models.ContestStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status == nil {
		return len(r.contests), nil
	}
	n := 0
	for _, c := range r.contests {
		if c.Status == *status {
			n++
		}
	}
	return n, nil
}

func (r *fakeContestRepo) WinnersLeaderboard(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   int
	payments []models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1}
}

func (r *fakePaymentRepo) Create(_ context.Context, _ repositories.SQLExecutor, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.UserID == payment.UserID && p.ContestID == payment.ContestID {
			return repositories.ErrPaymentDuplicate
		}
	}
	payment.ID = r.nextID
	r.nextID++
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *fakePaymentRepo) ListByUser(_ context.Context, userID int) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Payment{}
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Exists(_ context.Context, userID, contestID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.UserID == userID && p.ContestID == contestID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments), nil
}

func (r *fakePaymentRepo) Revenue(_ context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, p := range r.payments {
		total += p.Price
	}
	return total, nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	nextID      int
	submissions []models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{nextID: 1}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	r.submissions = append(r.submissions, *s)
	return nil
}

func (r *fakeSubmissionRepo) ListByContest(_ context.Context, contestID int) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Submission{}
	for _, s := range r.submissions {
		if s.ContestID == contestID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submissions), nil
}

type recordedEvent struct {
	contestID int
	event     ContestEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) BroadcastToContest(contestID int, event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ce, _ := event.(ContestEvent)
	p.events = append(p.events, recordedEvent{contestID: contestID, event: ce})
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.event.Type)
	}
	return types
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	baseURL  string
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, _ io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: u.baseURL + "/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	if u.baseURL == "" {
		return "https://cdn.test/" + key
	}
	return u.baseURL + "/" + key
}

type fakeGateway struct {
	secret string
	err    error
	calls  []int64
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, amountCents int64) (string, error) {
	g.calls = append(g.calls, amountCents)
	if g.err != nil {
		return "", g.err
	}
	if g.secret == "" {
		return "", errors.New("no secret configured")
	}
	return g.secret, nil
}

var errGatewayDown = fmt.Errorf("gateway unreachable")
