package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// Session failures.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotPending   = errors.New("session is not pending")
	ErrSessionTerminal     = errors.New("session is already closed")
	ErrNotSessionFaculty   = errors.New("session belongs to another faculty member")
	ErrNotSessionStudent   = errors.New("session belongs to another student")
	ErrFacultyNotAvailable = errors.New("faculty member not found or not verified")
	ErrSessionNotAccepted  = errors.New("session has not been accepted")
	ErrScheduleInPast      = errors.New("session must be scheduled in the future")
)

// SessionService manages one-on-one tutoring bookings. Booking debits the
// student's wallet up front; rejection and cancellation refund it once.
type SessionService interface {
	Book(ctx context.Context, studentID uint, payload dto.SessionBookRequest) (dto.SessionResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.SessionResponse, error)
	ListForFaculty(ctx context.Context, facultyID uint, status string) ([]dto.SessionResponse, error)
	Accept(ctx context.Context, facultyID uint, sessionID string, payload dto.SessionDecisionRequest) (dto.SessionResponse, error)
	Reject(ctx context.Context, facultyID uint, sessionID string, payload dto.SessionDecisionRequest) (dto.SessionResponse, error)
	Complete(ctx context.Context, facultyID uint, sessionID string) (dto.SessionResponse, error)
	Cancel(ctx context.Context, studentID uint, sessionID string) (dto.SessionResponse, error)
}

type sessionService struct {
	repo          repository.SessionRepository
	users         repository.UserRepository
	wallet        WalletService
	notifications NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewSessionService builds a new session service.
func NewSessionService(
	repo repository.SessionRepository,
	users repository.UserRepository,
	wallet WalletService,
	notifications NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		repo:          repo,
		users:         users,
		wallet:        wallet,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "session_service").Logger(),
		now:           time.Now,
	}
}

func (s *sessionService) Book(ctx context.Context, studentID uint, payload dto.SessionBookRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	scheduledAt, err := time.Parse(time.RFC3339, payload.ScheduledAt)
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("invalid schedule time: %w", err)
	}
	if !scheduledAt.After(s.now()) {
		return dto.SessionResponse{}, ErrScheduleInPast
	}

	faculty, err := s.users.GetByID(ctx, payload.FacultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrFacultyNotAvailable
		}
		return dto.SessionResponse{}, err
	}
	if !faculty.IsFaculty() || !faculty.Verified {
		return dto.SessionResponse{}, ErrFacultyNotAvailable
	}

	sessionID, err := newGatewayID("sess_")
	if err != nil {
		return dto.SessionResponse{}, err
	}

	// The wallet is charged up front; the money is only kept once the
	// faculty member accepts.
	err = s.wallet.Debit(ctx, studentID, payload.Amount,
		fmt.Sprintf("Session booking with %s", faculty.Name), sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	session := models.Session{
		SessionID:     sessionID,
		StudentID:     studentID,
		FacultyID:     payload.FacultyID,
		Subject:       payload.Subject,
		Topic:         payload.Topic,
		ScheduledAt:   scheduledAt,
		DurationMins:  payload.DurationMinutes,
		Amount:        payload.Amount,
		Status:        models.SessionPending,
		PaymentStatus: models.SessionPaymentPending,
	}
	if err := s.repo.Create(ctx, &session); err != nil {
		// The debit already went through, so put the money back before
		// surfacing the failure.
		creditErr := s.wallet.Credit(ctx, studentID, payload.Amount,
			"Refund: session booking failed", sessionID)
		if creditErr != nil {
			s.logger.Error().Err(creditErr).Str("session_id", sessionID).
				Uint("student_id", studentID).Msg("failed to restore wallet after booking error")
		}
		return dto.SessionResponse{}, err
	}

	s.notifications.Notify(ctx, payload.FacultyID, "New session request",
		fmt.Sprintf("A student requested a session on %q.", payload.Topic), models.NotificationInfo)

	s.logger.Info().Str("session_id", sessionID).Uint("student_id", studentID).Msg("session booked")
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) ListForStudent(ctx context.Context, studentID uint) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSessionResponseSlice(sessions), nil
}

func (s *sessionService) ListForFaculty(ctx context.Context, facultyID uint, status string) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ListByFaculty(ctx, facultyID, status)
	if err != nil {
		return nil, err
	}

	return dto.NewSessionResponseSlice(sessions), nil
}

func (s *sessionService) Accept(ctx context.Context, facultyID uint, sessionID string, payload dto.SessionDecisionRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	session, err := s.facultySession(ctx, facultyID, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if session.Status != models.SessionPending {
		return dto.SessionResponse{}, ErrSessionNotPending
	}

	session.Status = models.SessionAccepted
	session.PaymentStatus = models.SessionPaymentCompleted
	session.Notes = payload.Notes
	if err := s.repo.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.notifications.Notify(ctx, session.StudentID, "Session accepted",
		fmt.Sprintf("Your session on %q was accepted.", session.Topic), models.NotificationSuccess)

	s.logger.Info().Str("session_id", sessionID).Msg("session accepted")
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) Reject(ctx context.Context, facultyID uint, sessionID string, payload dto.SessionDecisionRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	session, err := s.facultySession(ctx, facultyID, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if session.Status != models.SessionPending {
		return dto.SessionResponse{}, ErrSessionNotPending
	}

	session.Status = models.SessionRejected
	session.Notes = payload.Notes
	if err := s.refundOnce(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}
	if err := s.repo.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.notifications.Notify(ctx, session.StudentID, "Session rejected",
		fmt.Sprintf("Your session on %q was rejected and refunded.", session.Topic), models.NotificationWarning)

	s.logger.Info().Str("session_id", sessionID).Msg("session rejected")
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) Complete(ctx context.Context, facultyID uint, sessionID string) (dto.SessionResponse, error) {
	session, err := s.facultySession(ctx, facultyID, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if session.Status != models.SessionAccepted {
		return dto.SessionResponse{}, ErrSessionNotAccepted
	}

	session.Status = models.SessionCompleted
	if err := s.repo.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.notifications.Notify(ctx, session.StudentID, "Session completed",
		fmt.Sprintf("Your session on %q is complete.", session.Topic), models.NotificationSuccess)

	s.logger.Info().Str("session_id", sessionID).Msg("session completed")
	return dto.NewSessionResponse(session), nil
}

// Cancel lets the student back out of a session that has not completed. The
// wallet is refunded at most once across reject and cancel.
func (s *sessionService) Cancel(ctx context.Context, studentID uint, sessionID string) (dto.SessionResponse, error) {
	session, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}
	if session.StudentID != studentID {
		return dto.SessionResponse{}, ErrNotSessionStudent
	}
	if session.Terminal() {
		return dto.SessionResponse{}, ErrSessionTerminal
	}

	session.Status = models.SessionCancelled
	if err := s.refundOnce(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}
	if err := s.repo.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.notifications.Notify(ctx, session.FacultyID, "Session cancelled",
		fmt.Sprintf("The session on %q was cancelled by the student.", session.Topic), models.NotificationWarning)

	s.logger.Info().Str("session_id", sessionID).Msg("session cancelled")
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) facultySession(ctx context.Context, facultyID uint, sessionID string) (models.Session, error) {
	session, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	if session.FacultyID != facultyID {
		return models.Session{}, ErrNotSessionFaculty
	}

	return session, nil
}

func (s *sessionService) refundOnce(ctx context.Context, session *models.Session) error {
	if session.PaymentStatus == models.SessionPaymentRefunded {
		return nil
	}

	err := s.wallet.Credit(ctx, session.StudentID, session.Amount,
		fmt.Sprintf("Refund for session %q", session.Topic), session.SessionID)
	if err != nil {
		return err
	}

	session.PaymentStatus = models.SessionPaymentRefunded
	return nil
}
