package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// ErrCannotDeleteAdmin guards the last line of defence on user removal.
var ErrCannotDeleteAdmin = errors.New("admin accounts cannot be deleted")

const (
	overviewCacheKey    = "reports:overview"
	activityCacheKeyFmt = "reports:activity:%d"
	pendingCacheKey     = "reports:pending_faculty"

	recentActivityWindow = 30 * 24 * time.Hour
)

// AdminService covers faculty verification, platform reports and user
// administration. Reports are cached in Redis for the configured TTL.
type AdminService interface {
	PendingFaculty(ctx context.Context, limit, offset int) (dto.PendingFacultyPage, error)
	VerifyFaculty(ctx context.Context, adminID, facultyID uint, payload dto.FacultyVerifyRequest) (dto.UserResponse, error)
	Overview(ctx context.Context) (dto.OverviewReport, error)
	UserActivity(ctx context.Context, userID uint) (dto.UserActivityReport, error)
	TestAnalytics(ctx context.Context, testID uint) (dto.TestAnalyticsReport, error)
	TransactionReport(ctx context.Context, from, to *time.Time) (dto.TransactionReport, error)
	ListUsers(ctx context.Context, role string) ([]dto.UserResponse, error)
	DeleteUser(ctx context.Context, userID uint) error
}

type adminService struct {
	users         repository.UserRepository
	colleges      repository.CollegeRepository
	courses       repository.CourseRepository
	enrollments   repository.EnrollmentRepository
	materials     repository.MaterialRepository
	sessions      repository.SessionRepository
	payments      repository.PaymentRepository
	queries       repository.QueryRepository
	tests         repository.TestRepository
	notifications NotificationService
	cache         *redis.Client
	cacheTTL      time.Duration
	pendingTTL    time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAdminService builds a new admin service.
func NewAdminService(
	users repository.UserRepository,
	colleges repository.CollegeRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	materials repository.MaterialRepository,
	sessions repository.SessionRepository,
	payments repository.PaymentRepository,
	queries repository.QueryRepository,
	tests repository.TestRepository,
	notifications NotificationService,
	cache *redis.Client,
	cacheTTL, pendingTTL time.Duration,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		users:         users,
		colleges:      colleges,
		courses:       courses,
		enrollments:   enrollments,
		materials:     materials,
		sessions:      sessions,
		payments:      payments,
		queries:       queries,
		tests:         tests,
		notifications: notifications,
		cache:         cache,
		cacheTTL:      cacheTTL,
		pendingTTL:    pendingTTL,
		logger:        logger.With().Str("component", "admin_service").Logger(),
		now:           time.Now,
	}
}

// PendingFaculty pages through unverified faculty accounts. The full list is
// cached so repeated dashboard polls skip the database.
func (s *adminService) PendingFaculty(ctx context.Context, limit, offset int) (dto.PendingFacultyPage, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var faculty []dto.UserResponse
	if cached, err := s.cache.Get(ctx, pendingCacheKey).Result(); err == nil {
		if err := json.Unmarshal([]byte(cached), &faculty); err != nil {
			faculty = nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("pending faculty cache read failed")
	}

	if faculty == nil {
		users, err := s.users.ListUnverifiedFaculty(ctx)
		if err != nil {
			return dto.PendingFacultyPage{}, err
		}
		faculty = dto.NewUserResponseSlice(users)

		if raw, err := json.Marshal(faculty); err == nil {
			if err := s.cache.Set(ctx, pendingCacheKey, raw, s.pendingTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("pending faculty cache write failed")
			}
		}
	}

	page := dto.PendingFacultyPage{
		Faculty: []dto.UserResponse{},
		Total:   len(faculty),
		Limit:   limit,
		Offset:  offset,
	}
	if offset < len(faculty) {
		end := offset + limit
		if end > len(faculty) {
			end = len(faculty)
		}
		page.Faculty = faculty[offset:end]
	}

	return page, nil
}

func (s *adminService) VerifyFaculty(ctx context.Context, adminID, facultyID uint, payload dto.FacultyVerifyRequest) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	if !user.IsFaculty() || user.Verified {
		return dto.UserResponse{}, ErrUserNotFound
	}

	if payload.Approve {
		verified := s.now()
		user.Verified = true
		user.VerifiedAt = &verified
		user.VerifiedBy = &adminID
		if err := s.users.Update(ctx, &user); err != nil {
			return dto.UserResponse{}, err
		}

		s.notifications.Notify(ctx, user.ID, "Account verified",
			"Your faculty account has been verified. You can now log in.", models.NotificationSuccess)

		if err := s.cache.Del(ctx, pendingCacheKey).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("pending faculty cache invalidation failed")
		}
	} else {
		reason := payload.Reason
		if reason == "" {
			reason = "Your faculty verification was declined."
		}
		s.notifications.Notify(ctx, user.ID, "Verification declined", reason, models.NotificationWarning)
	}

	s.logger.Info().
		Uint("faculty_id", facultyID).
		Bool("approved", payload.Approve).
		Msg("faculty verification decided")
	return dto.NewUserResponse(user), nil
}

// Overview assembles platform-wide totals, served from cache when fresh.
func (s *adminService) Overview(ctx context.Context) (dto.OverviewReport, error) {
	if cached, err := s.cache.Get(ctx, overviewCacheKey).Result(); err == nil {
		var report dto.OverviewReport
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			return report, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("overview cache read failed")
	}

	report := dto.OverviewReport{GeneratedAt: s.now()}
	var err error
	if report.TotalStudents, err = s.users.CountByRole(ctx, models.RoleStudent); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalFaculty, err = s.users.CountByRole(ctx, models.RoleFaculty); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalColleges, err = s.colleges.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalCourses, err = s.courses.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalEnrollments, err = s.enrollments.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalMaterials, err = s.materials.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalQueries, err = s.queries.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalTests, err = s.tests.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalSessions, err = s.sessions.Count(ctx); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.CompletedSessions, err = s.sessions.CountByStatus(ctx, models.SessionCompleted); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.PendingSessions, err = s.sessions.CountByStatus(ctx, models.SessionPending); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.TotalSessions > 0 {
		report.SessionCompletionRate = roundTwo(float64(report.CompletedSessions) / float64(report.TotalSessions) * 100)
	}
	if report.TotalRevenue, err = s.payments.SumCompleted(ctx); err != nil {
		return dto.OverviewReport{}, err
	}

	pending, err := s.users.ListUnverifiedFaculty(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}
	report.PendingFaculty = int64(len(pending))
	report.VerifiedFaculty = report.TotalFaculty - report.PendingFaculty

	since := s.now().Add(-recentActivityWindow)
	if report.RecentActivity.NewSignups, err = s.users.CountCreatedSince(ctx, since); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.RecentActivity.NewMaterials, err = s.materials.CountCreatedSince(ctx, since); err != nil {
		return dto.OverviewReport{}, err
	}
	if report.RecentActivity.NewQueries, err = s.queries.CountCreatedSince(ctx, since); err != nil {
		return dto.OverviewReport{}, err
	}

	if raw, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, overviewCacheKey, raw, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("overview cache write failed")
		}
	}

	return report, nil
}

// UserActivity summarises one user's footprint, cached per user.
func (s *adminService) UserActivity(ctx context.Context, userID uint) (dto.UserActivityReport, error) {
	key := fmt.Sprintf(activityCacheKeyFmt, userID)
	if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
		var report dto.UserActivityReport
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			return report, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("activity cache read failed")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserActivityReport{}, ErrUserNotFound
		}
		return dto.UserActivityReport{}, err
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, userID)
	if err != nil {
		return dto.UserActivityReport{}, err
	}
	materials, err := s.materials.ListByUploader(ctx, userID)
	if err != nil {
		return dto.UserActivityReport{}, err
	}
	queries, err := s.queries.List(ctx, repository.QueryFilter{AskedBy: userID})
	if err != nil {
		return dto.UserActivityReport{}, err
	}
	attempts, err := s.tests.ListAttemptsByStudent(ctx, userID)
	if err != nil {
		return dto.UserActivityReport{}, err
	}
	sessions, err := s.sessions.ListByStudent(ctx, userID)
	if err != nil {
		return dto.UserActivityReport{}, err
	}

	report := dto.UserActivityReport{
		User:            dto.NewUserResponse(user),
		Enrollments:     len(enrollments),
		MaterialsShared: len(materials),
		QueriesAsked:    len(queries),
		TestsAttempted:  len(attempts),
		SessionsBooked:  len(sessions),
		GeneratedAt:     s.now(),
	}

	if raw, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("activity cache write failed")
		}
	}

	return report, nil
}

// TestAnalytics reports on one test, or on every test when testID is zero.
func (s *adminService) TestAnalytics(ctx context.Context, testID uint) (dto.TestAnalyticsReport, error) {
	if testID == 0 {
		report := dto.TestAnalyticsReport{}
		var err error
		if report.TotalTests, err = s.tests.Count(ctx); err != nil {
			return dto.TestAnalyticsReport{}, err
		}
		if report.TotalAttempts, err = s.tests.CountAttempts(ctx); err != nil {
			return dto.TestAnalyticsReport{}, err
		}
		score, percentage, err := s.tests.AttemptAverages(ctx)
		if err != nil {
			return dto.TestAnalyticsReport{}, err
		}
		report.AverageScore = roundTwo(score)
		report.AveragePercentage = roundTwo(percentage)
		return report, nil
	}

	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestAnalyticsReport{}, ErrTestNotFound
		}
		return dto.TestAnalyticsReport{}, err
	}

	attempts, err := s.tests.ListAttemptsByTest(ctx, testID)
	if err != nil {
		return dto.TestAnalyticsReport{}, err
	}

	report := dto.TestAnalyticsReport{
		TestID:        test.ID,
		TestTitle:     test.Title,
		TotalAttempts: int64(len(attempts)),
	}
	if len(attempts) == 0 {
		return report, nil
	}

	var scoreSum, percentSum float64
	report.HighestScore = attempts[0].Score
	report.LowestScore = attempts[0].Score
	for _, attempt := range attempts {
		scoreSum += attempt.Score
		percentSum += attempt.Percentage
		if attempt.Score > report.HighestScore {
			report.HighestScore = attempt.Score
		}
		if attempt.Score < report.LowestScore {
			report.LowestScore = attempt.Score
		}
	}
	report.AverageScore = roundTwo(scoreSum / float64(len(attempts)))
	report.AveragePercentage = roundTwo(percentSum / float64(len(attempts)))

	return report, nil
}

// TransactionReport sums the wallet ledger over an optional date window.
func (s *adminService) TransactionReport(ctx context.Context, from, to *time.Time) (dto.TransactionReport, error) {
	txns, err := s.payments.ListTransactionsBetween(ctx, from, to)
	if err != nil {
		return dto.TransactionReport{}, err
	}

	report := dto.TransactionReport{
		Transactions:      dto.NewTransactionResponseSlice(txns),
		TotalTransactions: len(txns),
		From:              from,
		To:                to,
	}
	for _, txn := range txns {
		switch txn.Type {
		case models.TransactionCredit:
			report.TotalCredits += txn.Amount
		case models.TransactionDebit:
			report.TotalDebits += txn.Amount
		}
	}
	report.TotalCredits = roundTwo(report.TotalCredits)
	report.TotalDebits = roundTwo(report.TotalDebits)
	report.NetAmount = roundTwo(report.TotalCredits - report.TotalDebits)

	return report, nil
}

func (s *adminService) ListUsers(ctx context.Context, role string) ([]dto.UserResponse, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponseSlice(users), nil
}

func (s *adminService) DeleteUser(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role == models.RoleAdmin {
		return ErrCannotDeleteAdmin
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.cache.Del(ctx, fmt.Sprintf(activityCacheKeyFmt, userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("activity cache invalidation failed")
	}

	s.logger.Info().Uint("user_id", userID).Msg("user deleted")
	return nil
}
