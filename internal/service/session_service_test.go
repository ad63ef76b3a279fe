package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

type sessionFixture struct {
	users         *memoryUserRepo
	sessions      *memorySessionRepo
	notifications *memoryNotificationRepo
	wallet        WalletService
	service       *sessionService
	student       models.User
	faculty       models.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	users := newMemoryUserRepo()
	sessions := newMemorySessionRepo()
	notifications := &memoryNotificationRepo{}
	payments := newMemoryPaymentRepo()
	wallet := NewWalletService(users, payments, zerolog.Nop())
	notify := NewNotificationService(notifications, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSessionService(sessions, users, wallet, notify, validate, zerolog.Nop())

	f := &sessionFixture{
		users:         users,
		sessions:      sessions,
		notifications: notifications,
		wallet:        wallet,
		service:       svc.(*sessionService),
	}

	f.student = models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleStudent, Verified: true, WalletBalance: 1000}
	require.NoError(t, users.Create(context.Background(), &f.student))
	f.faculty = models.User{Name: "Prof Rao", Email: "rao@example.com", Role: models.RoleFaculty, Verified: true}
	require.NoError(t, users.Create(context.Background(), &f.faculty))
	return f
}

func (f *sessionFixture) bookRequest() dto.SessionBookRequest {
	return dto.SessionBookRequest{
		FacultyID:       f.faculty.ID,
		Subject:         "Mathematics",
		Topic:           "Laplace transforms",
		ScheduledAt:     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		DurationMinutes: 60,
		Amount:          400,
	}
}

func (f *sessionFixture) balance(t *testing.T) float64 {
	t.Helper()

	balance, err := f.wallet.Balance(context.Background(), f.student.ID)
	require.NoError(t, err)
	return balance.Balance
}

func TestSessionBook(t *testing.T) {
	f := newSessionFixture(t)

	booked, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)
	require.Regexp(t, `^sess_[0-9a-f]{16}$`, booked.SessionID)
	require.Equal(t, models.SessionPending, booked.Status)
	require.Equal(t, models.SessionPaymentPending, booked.PaymentStatus)
	require.Equal(t, 600.0, f.balance(t))

	// The faculty member is told about the request.
	faculty, err := f.notifications.ListByUser(context.Background(), f.faculty.ID, false)
	require.NoError(t, err)
	require.Len(t, faculty, 1)
}

func TestSessionBookInsufficientFunds(t *testing.T) {
	f := newSessionFixture(t)

	payload := f.bookRequest()
	payload.Amount = 5000
	_, err := f.service.Book(context.Background(), f.student.ID, payload)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, 1000.0, f.balance(t))
}

// flakySessionRepo fails Create so the booking refund path can be exercised.
type flakySessionRepo struct {
	repository.SessionRepository
	failCreates bool
}

func (r *flakySessionRepo) Create(ctx context.Context, session *models.Session) error {
	if r.failCreates {
		return errors.New("insert lost")
	}
	return r.SessionRepository.Create(ctx, session)
}

func TestSessionBookCreateFailureRestoresWallet(t *testing.T) {
	f := newSessionFixture(t)

	flaky := &flakySessionRepo{SessionRepository: f.sessions, failCreates: true}
	validate := validator.New(validator.WithRequiredStructEnabled())
	notify := NewNotificationService(f.notifications, zerolog.Nop())
	svc := NewSessionService(flaky, f.users, f.wallet, notify, validate, zerolog.Nop())

	_, err := svc.Book(context.Background(), f.student.ID, f.bookRequest())
	require.Error(t, err)

	// The up-front debit was put back and nothing was booked.
	require.Equal(t, 1000.0, f.balance(t))
	sessions, err := f.sessions.ListByStudent(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestSessionBookScheduleInPast(t *testing.T) {
	f := newSessionFixture(t)

	payload := f.bookRequest()
	payload.ScheduledAt = time.Now().Add(-time.Hour).Format(time.RFC3339)
	_, err := f.service.Book(context.Background(), f.student.ID, payload)
	require.ErrorIs(t, err, ErrScheduleInPast)
}

func TestSessionBookFacultyNotAvailable(t *testing.T) {
	f := newSessionFixture(t)

	unverified := models.User{Name: "New Prof", Email: "new@example.com", Role: models.RoleFaculty, Verified: false}
	require.NoError(t, f.users.Create(context.Background(), &unverified))

	payload := f.bookRequest()
	payload.FacultyID = unverified.ID
	_, err := f.service.Book(context.Background(), f.student.ID, payload)
	require.ErrorIs(t, err, ErrFacultyNotAvailable)

	payload.FacultyID = 9999
	_, err = f.service.Book(context.Background(), f.student.ID, payload)
	require.ErrorIs(t, err, ErrFacultyNotAvailable)
}

func TestSessionAccept(t *testing.T) {
	f := newSessionFixture(t)

	booked, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)

	_, err = f.service.Accept(context.Background(), f.faculty.ID+1, booked.SessionID, dto.SessionDecisionRequest{})
	require.ErrorIs(t, err, ErrNotSessionFaculty)

	accepted, err := f.service.Accept(context.Background(), f.faculty.ID, booked.SessionID, dto.SessionDecisionRequest{Notes: "See you then"})
	require.NoError(t, err)
	require.Equal(t, models.SessionAccepted, accepted.Status)
	require.Equal(t, models.SessionPaymentCompleted, accepted.PaymentStatus)
	require.Equal(t, "See you then", accepted.Notes)

	// Accept only applies to a pending session.
	_, err = f.service.Accept(context.Background(), f.faculty.ID, booked.SessionID, dto.SessionDecisionRequest{})
	require.ErrorIs(t, err, ErrSessionNotPending)
}

func TestSessionRejectRefunds(t *testing.T) {
	f := newSessionFixture(t)

	booked, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)
	require.Equal(t, 600.0, f.balance(t))

	rejected, err := f.service.Reject(context.Background(), f.faculty.ID, booked.SessionID, dto.SessionDecisionRequest{Notes: "Out of town"})
	require.NoError(t, err)
	require.Equal(t, models.SessionRejected, rejected.Status)
	require.Equal(t, models.SessionPaymentRefunded, rejected.PaymentStatus)
	require.Equal(t, 1000.0, f.balance(t))
}

func TestSessionCancelRefundsOnce(t *testing.T) {
	f := newSessionFixture(t)

	booked, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(context.Background(), f.student.ID, booked.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.SessionCancelled, cancelled.Status)
	require.Equal(t, models.SessionPaymentRefunded, cancelled.PaymentStatus)
	require.Equal(t, 1000.0, f.balance(t))

	// A closed session cannot be cancelled again, so no double refund.
	_, err = f.service.Cancel(context.Background(), f.student.ID, booked.SessionID)
	require.ErrorIs(t, err, ErrSessionTerminal)
	require.Equal(t, 1000.0, f.balance(t))
}

func TestSessionCancelOwnership(t *testing.T) {
	f := newSessionFixture(t)

	booked, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), f.student.ID+10, booked.SessionID)
	require.ErrorIs(t, err, ErrNotSessionStudent)
}

func TestSessionComplete(t *testing.T) {
	f := newSessionFixture(t)

	booked, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)

	_, err = f.service.Complete(context.Background(), f.faculty.ID, booked.SessionID)
	require.ErrorIs(t, err, ErrSessionNotAccepted)

	_, err = f.service.Accept(context.Background(), f.faculty.ID, booked.SessionID, dto.SessionDecisionRequest{})
	require.NoError(t, err)

	completed, err := f.service.Complete(context.Background(), f.faculty.ID, booked.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.SessionCompleted, completed.Status)
	// The accepted payment stays with the faculty member.
	require.Equal(t, 600.0, f.balance(t))
}

func TestSessionListFiltersByStatus(t *testing.T) {
	f := newSessionFixture(t)

	first, err := f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)
	_, err = f.service.Book(context.Background(), f.student.ID, f.bookRequest())
	require.NoError(t, err)

	_, err = f.service.Accept(context.Background(), f.faculty.ID, first.SessionID, dto.SessionDecisionRequest{})
	require.NoError(t, err)

	pending, err := f.service.ListForFaculty(context.Background(), f.faculty.ID, models.SessionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	all, err := f.service.ListForFaculty(context.Background(), f.faculty.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := f.service.ListForStudent(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
}
