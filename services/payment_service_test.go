package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/contesthub/server/models"
)

// The payment service owns the transaction boundary, so Record needs a
// real *sql.DB. The noop driver hands out connections whose
// transactions commit and roll back without doing anything; the fake
// repositories ignore the executor they are given.

type noopDriver struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (noopConn) Close() error                        { return nil }
func (noopConn) Begin() (driver.Tx, error)           { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var registerNoopDriver sync.Once

func noopDB(t *testing.T) *sql.DB {
	t.Helper()
	registerNoopDriver.Do(func() { sql.Register("noop", noopDriver{}) })
	db, err := sql.Open("noop", "")
	if err != nil {
		t.Fatalf("failed to open noop db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreatePaymentIntent(t *testing.T) {
	tests := []struct {
		name       string
		price      float64
		gateway    *fakeGateway
		wantSecret string
		wantErr    error
		wantCents  int64
	}{
		{"valid price", 25, &fakeGateway{secret: "pi_secret"}, "pi_secret", nil, 2500},
		{"fractional price rounds", 9.99, &fakeGateway{secret: "pi_secret"}, "pi_secret", nil, 999},
		{"zero price", 0, &fakeGateway{secret: "pi_secret"}, "", ErrPaymentInvalidAmount, 0},
		{"negative price", -3, &fakeGateway{secret: "pi_secret"}, "", ErrPaymentInvalidAmount, 0},
		{"sub-cent price", 0.004, &fakeGateway{secret: "pi_secret"}, "", ErrPaymentInvalidAmount, 0},
		{"gateway failure", 25, &fakeGateway{err: errGatewayDown}, "", ErrPaymentGateway, 2500},
		{"empty secret from gateway", 25, &fakeGateway{}, "", ErrPaymentGateway, 2500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewPaymentService(nil, newFakePaymentRepo(), newFakeContestRepo(), tc.gateway, nil)

			secret, err := svc.CreatePaymentIntent(context.Background(), tc.price)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("CreatePaymentIntent() error = %v, want %v", err, tc.wantErr)
			}
			if secret != tc.wantSecret {
				t.Errorf("secret = %q, want %q", secret, tc.wantSecret)
			}
			if tc.wantCents == 0 {
				if len(tc.gateway.calls) != 0 {
					t.Errorf("gateway called with %v, want no calls", tc.gateway.calls)
				}
			} else if len(tc.gateway.calls) != 1 || tc.gateway.calls[0] != tc.wantCents {
				t.Errorf("gateway called with %v, want [%d]", tc.gateway.calls, tc.wantCents)
			}
		})
	}
}

func TestRecordPayment(t *testing.T) {
	actor := &models.User{ID: 5, Name: "Pat", Email: "pat@test.dev", Role: models.RoleUser}

	t.Run("records and increments once", func(t *testing.T) {
		contests := newFakeContestRepo(&models.Contest{
			ID: 1, Name: "X", Price: 30, Status: models.StatusApproved,
			Deadline: time.Now().Add(time.Hour), ParticipantsCount: 2,
		})
		payments := newFakePaymentRepo()
		publisher := &fakePublisher{}
		svc := NewPaymentService(noopDB(t), payments, contests, &fakeGateway{secret: "s"}, publisher)

		payment, err := svc.Record(context.Background(), actor, RecordPaymentInput{ContestID: 1, TransactionID: "txn_1"})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if payment.Price != 30 {
			t.Errorf("payment price = %v, want the contest's fee 30", payment.Price)
		}
		if payment.UserID != actor.ID || payment.ContestID != 1 {
			t.Errorf("payment keyed to user %d contest %d, want %d/1", payment.UserID, payment.ContestID, actor.ID)
		}

		stored, _ := contests.GetByID(context.Background(), 1)
		if stored.ParticipantsCount != 3 {
			t.Errorf("participants_count = %d, want 3", stored.ParticipantsCount)
		}
		types := publisher.eventTypes()
		if len(types) != 1 || types[0] != EventParticipantJoined {
			t.Errorf("broadcast events = %v, want [%s]", types, EventParticipantJoined)
		}
	})

	t.Run("second payment for the same contest conflicts", func(t *testing.T) {
		contests := newFakeContestRepo(&models.Contest{
			ID: 1, Price: 30, Status: models.StatusApproved, Deadline: time.Now().Add(time.Hour),
		})
		payments := newFakePaymentRepo()
		svc := NewPaymentService(noopDB(t), payments, contests, &fakeGateway{secret: "s"}, nil)

		if _, err := svc.Record(context.Background(), actor, RecordPaymentInput{ContestID: 1, TransactionID: "txn_1"}); err != nil {
			t.Fatalf("first Record() error = %v", err)
		}
		_, err := svc.Record(context.Background(), actor, RecordPaymentInput{ContestID: 1, TransactionID: "txn_2"})
		if !errors.Is(err, ErrAlreadyParticipating) {
			t.Fatalf("second Record() error = %v, want %v", err, ErrAlreadyParticipating)
		}

		stored, _ := contests.GetByID(context.Background(), 1)
		if stored.ParticipantsCount != 1 {
			t.Errorf("participants_count = %d after duplicate, want 1", stored.ParticipantsCount)
		}
	})

	t.Run("rejections before any transaction", func(t *testing.T) {
		tests := []struct {
			name    string
			contest *models.Contest
			input   RecordPaymentInput
			wantErr error
		}{
			{
				"missing transaction id",
				&models.Contest{ID: 1, Status: models.StatusApproved, Deadline: time.Now().Add(time.Hour)},
				RecordPaymentInput{ContestID: 1},
				ErrValidationFailed,
			},
			{
				"missing contest id",
				&models.Contest{ID: 1, Status: models.StatusApproved, Deadline: time.Now().Add(time.Hour)},
				RecordPaymentInput{TransactionID: "txn"},
				ErrValidationFailed,
			},
			{
				"unknown contest",
				&models.Contest{ID: 1, Status: models.StatusApproved, Deadline: time.Now().Add(time.Hour)},
				RecordPaymentInput{ContestID: 99, TransactionID: "txn"},
				ErrContestNotFound,
			},
			{
				"pending contest",
				&models.Contest{ID: 1, Status: models.StatusPending, Deadline: time.Now().Add(time.Hour)},
				RecordPaymentInput{ContestID: 1, TransactionID: "txn"},
				ErrContestNotApproved,
			},
			{
				"ended contest",
				&models.Contest{ID: 1, Status: models.StatusEnded, Deadline: time.Now().Add(time.Hour)},
				RecordPaymentInput{ContestID: 1, TransactionID: "txn"},
				ErrContestNotApproved,
			},
			{
				"deadline passed",
				&models.Contest{ID: 1, Status: models.StatusApproved, Deadline: time.Now().Add(-time.Minute)},
				RecordPaymentInput{ContestID: 1, TransactionID: "txn"},
				ErrContestDeadlinePassed,
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				contests := newFakeContestRepo(tc.contest)
				// A nil db proves these paths never open a transaction.
				svc := NewPaymentService(nil, newFakePaymentRepo(), contests, &fakeGateway{secret: "s"}, nil)

				_, err := svc.Record(context.Background(), actor, tc.input)
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Record() error = %v, want %v", err, tc.wantErr)
				}
			})
		}
	})
}

func TestListForUser(t *testing.T) {
	actor := &models.User{ID: 5, Email: "pat@test.dev", Role: models.RoleUser}
	payments := newFakePaymentRepo()
	_ = payments.Create(context.Background(), nil, &models.Payment{UserID: 5, ContestID: 1, Price: 10})
	_ = payments.Create(context.Background(), nil, &models.Payment{UserID: 6, ContestID: 1, Price: 10})
	svc := NewPaymentService(nil, payments, newFakeContestRepo(), &fakeGateway{secret: "s"}, nil)

	t.Run("own email", func(t *testing.T) {
		got, err := svc.ListForUser(context.Background(), actor, "pat@test.dev")
		if err != nil {
			t.Fatalf("ListForUser() error = %v", err)
		}
		if len(got) != 1 || got[0].UserID != actor.ID {
			t.Errorf("got %d payments, want only the actor's", len(got))
		}
	})

	t.Run("email case does not matter", func(t *testing.T) {
		if _, err := svc.ListForUser(context.Background(), actor, "Pat@Test.Dev"); err != nil {
			t.Fatalf("ListForUser() error = %v", err)
		}
	})

	t.Run("someone else's email forbidden", func(t *testing.T) {
		_, err := svc.ListForUser(context.Background(), actor, "other@test.dev")
		if !errors.Is(err, ErrForbiddenOperation) {
			t.Fatalf("ListForUser() error = %v, want %v", err, ErrForbiddenOperation)
		}
	})
}
