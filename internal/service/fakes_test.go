package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/pkg/ai"
)

// In-memory fakes backing the service tests.

type capturedMail struct {
	To      string
	Subject string
	Plain   string
}

type fakeMailer struct {
	sent []capturedMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, plain, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, capturedMail{To: to, Subject: subject, Plain: plain})
	return nil
}

type fakeQueryIndexer struct {
	indexed []models.Query
	removed []uint
	err     error
}

func (f *fakeQueryIndexer) IndexQuery(ctx context.Context, query models.Query) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, query)
	return nil
}

func (f *fakeQueryIndexer) RemoveQuery(ctx context.Context, queryID uint) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, queryID)
	return nil
}

type fakeAssistant struct {
	reply     string
	embedding []float32
	err       error
	prompts   []string
}

func (f *fakeAssistant) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, m := range messages {
		f.prompts = append(f.prompts, m.Content)
	}
	return f.reply, nil
}

func (f *fakeAssistant) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.embedding != nil {
		return f.embedding, nil
	}
	return []float32{1, 0, 0}, nil
}

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	results := make([]models.User, 0)
	for _, user := range m.users {
		if role == "" || user.Role == role {
			results = append(results, user)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryUserRepo) ListUnverifiedFaculty(ctx context.Context) ([]models.User, error) {
	results := make([]models.User, 0)
	for _, user := range m.users {
		if user.Role == models.RoleFaculty && !user.Verified {
			results = append(results, user)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	m.nextID++
	return nil
}

func (m *memoryUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	for _, user := range m.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *memoryUserRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	for _, user := range m.users {
		if !user.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memoryUserRepo) AdjustWallet(ctx context.Context, id uint, delta float64) (float64, error) {
	user, ok := m.users[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	next := user.WalletBalance + delta
	if next < 0 {
		return 0, gorm.ErrInvalidValue
	}
	user.WalletBalance = next
	m.users[id] = user
	return next, nil
}

type memoryOTPRepo struct {
	otps     []models.OTP
	pending  map[string]models.PendingRegistration
	attempts []models.PasswordResetAttempt
	nextID   uint
}

func newMemoryOTPRepo() *memoryOTPRepo {
	return &memoryOTPRepo{pending: make(map[string]models.PendingRegistration), nextID: 1}
}

func (m *memoryOTPRepo) Create(ctx context.Context, otp *models.OTP) error {
	otp.ID = m.nextID
	otp.CreatedAt = time.Now()
	m.nextID++
	m.otps = append(m.otps, *otp)
	return nil
}

func (m *memoryOTPRepo) Latest(ctx context.Context, email, purpose string) (models.OTP, error) {
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].Email == email && m.otps[i].Purpose == purpose {
			return m.otps[i], nil
		}
	}
	return models.OTP{}, gorm.ErrRecordNotFound
}

func (m *memoryOTPRepo) Update(ctx context.Context, otp *models.OTP) error {
	for i := range m.otps {
		if m.otps[i].ID == otp.ID {
			m.otps[i] = *otp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryOTPRepo) InvalidateAll(ctx context.Context, email, purpose string) error {
	for i := range m.otps {
		if m.otps[i].Email == email && m.otps[i].Purpose == purpose {
			m.otps[i].Used = true
		}
	}
	return nil
}

func (m *memoryOTPRepo) SavePending(ctx context.Context, pending *models.PendingRegistration) error {
	m.pending[pending.Email] = *pending
	return nil
}

func (m *memoryOTPRepo) GetPending(ctx context.Context, email string) (models.PendingRegistration, error) {
	pending, ok := m.pending[email]
	if !ok {
		return models.PendingRegistration{}, gorm.ErrRecordNotFound
	}
	return pending, nil
}

func (m *memoryOTPRepo) DeletePending(ctx context.Context, email string) error {
	delete(m.pending, email)
	return nil
}

func (m *memoryOTPRepo) RecordResetAttempt(ctx context.Context, email string) error {
	m.attempts = append(m.attempts, models.PasswordResetAttempt{Email: email, CreatedAt: time.Now()})
	return nil
}

func (m *memoryOTPRepo) CountResetAttempts(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	for _, attempt := range m.attempts {
		if attempt.Email == email && attempt.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

type memoryPaymentRepo struct {
	payments     map[string]models.Payment
	refunds      []models.Refund
	transactions []models.Transaction
	nextID       uint
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{payments: make(map[string]models.Payment), nextID: 1}
}

func (m *memoryPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = m.nextID
	payment.CreatedAt = time.Now()
	m.nextID++
	m.payments[payment.PaymentID] = *payment
	return nil
}

func (m *memoryPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	if _, ok := m.payments[payment.PaymentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.payments[payment.PaymentID] = *payment
	return nil
}

func (m *memoryPaymentRepo) GetByPaymentID(ctx context.Context, paymentID string) (models.Payment, error) {
	payment, ok := m.payments[paymentID]
	if !ok {
		return models.Payment{}, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (m *memoryPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (models.Payment, error) {
	for _, payment := range m.payments {
		if payment.OrderID == orderID {
			return payment, nil
		}
	}
	return models.Payment{}, gorm.ErrRecordNotFound
}

func (m *memoryPaymentRepo) ListByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	results := make([]models.Payment, 0)
	for _, payment := range m.payments {
		if payment.UserID == userID {
			results = append(results, payment)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	return results, nil
}

func (m *memoryPaymentRepo) SumCompleted(ctx context.Context) (float64, error) {
	var sum float64
	for _, payment := range m.payments {
		if payment.Status == models.PaymentCompleted || payment.Status == models.PaymentRefunded {
			sum += payment.Amount
		}
	}
	return sum, nil
}

func (m *memoryPaymentRepo) CreateRefund(ctx context.Context, refund *models.Refund) error {
	refund.ID = uint(len(m.refunds) + 1)
	refund.CreatedAt = time.Now()
	m.refunds = append(m.refunds, *refund)
	return nil
}

func (m *memoryPaymentRepo) SumRefunds(ctx context.Context, paymentID string) (float64, error) {
	var sum float64
	for _, refund := range m.refunds {
		if refund.PaymentID == paymentID {
			sum += refund.Amount
		}
	}
	return sum, nil
}

func (m *memoryPaymentRepo) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.ID = uint(len(m.transactions) + 1)
	txn.CreatedAt = time.Now()
	m.transactions = append(m.transactions, *txn)
	return nil
}

func (m *memoryPaymentRepo) ListTransactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	results := make([]models.Transaction, 0)
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			results = append(results, m.transactions[i])
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (m *memoryPaymentRepo) ListTransactionsBetween(ctx context.Context, from, to *time.Time) ([]models.Transaction, error) {
	results := make([]models.Transaction, 0)
	for i := len(m.transactions) - 1; i >= 0; i-- {
		txn := m.transactions[i]
		if from != nil && txn.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && txn.CreatedAt.After(*to) {
			continue
		}
		results = append(results, txn)
	}
	return results, nil
}

type memoryNotificationRepo struct {
	notifications []models.Notification
}

func (m *memoryNotificationRepo) ListByUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	results := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		results = append(results, n)
	}
	return results, nil
}

func (m *memoryNotificationRepo) GetByID(ctx context.Context, id uint) (models.Notification, error) {
	for _, n := range m.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (m *memoryNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = uint(len(m.notifications) + 1)
	notification.CreatedAt = time.Now()
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *memoryNotificationRepo) MarkRead(ctx context.Context, id uint) error {
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].Read = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryNotificationRepo) MarkAllRead(ctx context.Context, userID uint) error {
	for i := range m.notifications {
		if m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
		}
	}
	return nil
}

func (m *memoryNotificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

type memorySessionRepo struct {
	sessions map[string]models.Session
	nextID   uint
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string]models.Session), nextID: 1}
}

func (m *memorySessionRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Session, error) {
	results := make([]models.Session, 0)
	for _, s := range m.sessions {
		if s.StudentID == studentID {
			results = append(results, s)
		}
	}
	return results, nil
}

func (m *memorySessionRepo) ListByFaculty(ctx context.Context, facultyID uint, status string) ([]models.Session, error) {
	results := make([]models.Session, 0)
	for _, s := range m.sessions {
		if s.FacultyID != facultyID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		results = append(results, s)
	}
	return results, nil
}

func (m *memorySessionRepo) GetBySessionID(ctx context.Context, sessionID string) (models.Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return models.Session{}, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *memorySessionRepo) Create(ctx context.Context, session *models.Session) error {
	session.ID = m.nextID
	session.CreatedAt = time.Now()
	m.nextID++
	m.sessions[session.SessionID] = *session
	return nil
}

func (m *memorySessionRepo) Update(ctx context.Context, session *models.Session) error {
	if _, ok := m.sessions[session.SessionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.sessions[session.SessionID] = *session
	return nil
}

func (m *memorySessionRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.sessions)), nil
}

func (m *memorySessionRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	for _, s := range m.sessions {
		if s.Status == status {
			count++
		}
	}
	return count, nil
}

type memoryTestRepo struct {
	tests    map[uint]models.MockTest
	attempts []models.TestAttempt
	nextID   uint
}

func newMemoryTestRepo() *memoryTestRepo {
	return &memoryTestRepo{tests: make(map[uint]models.MockTest), nextID: 1}
}

func (m *memoryTestRepo) List(ctx context.Context, subject string) ([]models.MockTest, error) {
	results := make([]models.MockTest, 0)
	for _, t := range m.tests {
		if subject == "" || strings.EqualFold(t.Subject, subject) {
			results = append(results, t)
		}
	}
	return results, nil
}

func (m *memoryTestRepo) ListByCreator(ctx context.Context, creatorID uint) ([]models.MockTest, error) {
	results := make([]models.MockTest, 0)
	for _, t := range m.tests {
		if t.CreatedBy == creatorID {
			results = append(results, t)
		}
	}
	return results, nil
}

func (m *memoryTestRepo) GetByID(ctx context.Context, id uint) (models.MockTest, error) {
	t, ok := m.tests[id]
	if !ok {
		return models.MockTest{}, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *memoryTestRepo) Create(ctx context.Context, test *models.MockTest) error {
	test.ID = m.nextID
	test.CreatedAt = time.Now()
	m.tests[test.ID] = *test
	m.nextID++
	return nil
}

func (m *memoryTestRepo) Update(ctx context.Context, test *models.MockTest) error {
	if _, ok := m.tests[test.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.tests[test.ID] = *test
	return nil
}

func (m *memoryTestRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.tests[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.tests, id)
	return nil
}

func (m *memoryTestRepo) CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error {
	attempt.ID = uint(len(m.attempts) + 1)
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *memoryTestRepo) GetAttempt(ctx context.Context, testID, studentID uint) (models.TestAttempt, error) {
	for _, a := range m.attempts {
		if a.TestID == testID && a.StudentID == studentID {
			return a, nil
		}
	}
	return models.TestAttempt{}, gorm.ErrRecordNotFound
}

func (m *memoryTestRepo) ListAttemptsByTest(ctx context.Context, testID uint) ([]models.TestAttempt, error) {
	results := make([]models.TestAttempt, 0)
	for _, a := range m.attempts {
		if a.TestID == testID {
			results = append(results, a)
		}
	}
	return results, nil
}

func (m *memoryTestRepo) ListAttemptsByStudent(ctx context.Context, studentID uint) ([]models.TestAttempt, error) {
	results := make([]models.TestAttempt, 0)
	for _, a := range m.attempts {
		if a.StudentID == studentID {
			results = append(results, a)
		}
	}
	return results, nil
}

func (m *memoryTestRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.tests)), nil
}

func (m *memoryTestRepo) CountAttempts(ctx context.Context) (int64, error) {
	return int64(len(m.attempts)), nil
}

func (m *memoryTestRepo) AttemptAverages(ctx context.Context) (float64, float64, error) {
	if len(m.attempts) == 0 {
		return 0, 0, nil
	}
	var score, percentage float64
	for _, a := range m.attempts {
		score += a.Score
		percentage += a.Percentage
	}
	n := float64(len(m.attempts))
	return score / n, percentage / n, nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	submissions []models.Submission
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) List(ctx context.Context, subject string) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0)
	for _, a := range m.assignments {
		if subject == "" || strings.EqualFold(a.Subject, subject) {
			results = append(results, a)
		}
	}
	return results, nil
}

func (m *memoryAssignmentRepo) ListByCreator(ctx context.Context, creatorID uint) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0)
	for _, a := range m.assignments {
		if a.CreatedBy == creatorID {
			results = append(results, a)
		}
	}
	return results, nil
}

func (m *memoryAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	assignment.CreatedAt = time.Now()
	m.assignments[assignment.ID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *memoryAssignmentRepo) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	submission.ID = uint(len(m.submissions) + 1)
	m.submissions = append(m.submissions, *submission)
	return nil
}

func (m *memoryAssignmentRepo) UpdateSubmission(ctx context.Context, submission *models.Submission) error {
	for i := range m.submissions {
		if m.submissions[i].ID == submission.ID {
			m.submissions[i] = *submission
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryAssignmentRepo) GetSubmission(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			return s, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memoryAssignmentRepo) GetSubmissionByID(ctx context.Context, id uint) (models.Submission, error) {
	for _, s := range m.submissions {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memoryAssignmentRepo) ListSubmissions(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			results = append(results, s)
		}
	}
	return results, nil
}

func (m *memoryAssignmentRepo) ListSubmissionsByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			results = append(results, s)
		}
	}
	return results, nil
}

type memoryCollegeRepo struct {
	colleges map[uint]models.College
	subjects *memorySubjectRepo
	users    *memoryUserRepo
	nextID   uint
}

func newMemoryCollegeRepo(subjects *memorySubjectRepo, users *memoryUserRepo) *memoryCollegeRepo {
	return &memoryCollegeRepo{colleges: make(map[uint]models.College), subjects: subjects, users: users, nextID: 1}
}

func (m *memoryCollegeRepo) List(ctx context.Context) ([]models.College, error) {
	results := make([]models.College, 0, len(m.colleges))
	for _, c := range m.colleges {
		results = append(results, c)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryCollegeRepo) GetByID(ctx context.Context, id uint) (models.College, error) {
	c, ok := m.colleges[id]
	if !ok {
		return models.College{}, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *memoryCollegeRepo) GetByName(ctx context.Context, name string) (models.College, error) {
	for _, c := range m.colleges {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return models.College{}, gorm.ErrRecordNotFound
}

func (m *memoryCollegeRepo) Create(ctx context.Context, college *models.College) error {
	college.ID = m.nextID
	m.colleges[college.ID] = *college
	m.nextID++
	return nil
}

func (m *memoryCollegeRepo) Update(ctx context.Context, college *models.College) error {
	if _, ok := m.colleges[college.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.colleges[college.ID] = *college
	return nil
}

func (m *memoryCollegeRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.colleges[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.colleges, id)
	return nil
}

func (m *memoryCollegeRepo) CountSubjects(ctx context.Context, collegeID uint) (int64, error) {
	if m.subjects == nil {
		return 0, nil
	}
	var count int64
	for _, s := range m.subjects.subjects {
		if s.CollegeID == collegeID {
			count++
		}
	}
	return count, nil
}

func (m *memoryCollegeRepo) CountUsers(ctx context.Context, collegeID uint) (int64, error) {
	if m.users == nil {
		return 0, nil
	}
	var count int64
	for _, u := range m.users.users {
		if u.CollegeID != nil && *u.CollegeID == collegeID {
			count++
		}
	}
	return count, nil
}

func (m *memoryCollegeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.colleges)), nil
}

type memorySubjectRepo struct {
	subjects map[uint]models.Subject
	courses  *memoryCourseRepo
	nextID   uint
}

func newMemorySubjectRepo(courses *memoryCourseRepo) *memorySubjectRepo {
	return &memorySubjectRepo{subjects: make(map[uint]models.Subject), courses: courses, nextID: 1}
}

func (m *memorySubjectRepo) List(ctx context.Context, collegeID uint) ([]models.Subject, error) {
	results := make([]models.Subject, 0)
	for _, s := range m.subjects {
		if s.CollegeID == collegeID {
			results = append(results, s)
		}
	}
	return results, nil
}

func (m *memorySubjectRepo) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	s, ok := m.subjects[id]
	if !ok {
		return models.Subject{}, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *memorySubjectRepo) GetByName(ctx context.Context, collegeID uint, name string) (models.Subject, error) {
	for _, s := range m.subjects {
		if s.CollegeID == collegeID && strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return models.Subject{}, gorm.ErrRecordNotFound
}

func (m *memorySubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = m.nextID
	m.subjects[subject.ID] = *subject
	m.nextID++
	return nil
}

func (m *memorySubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := m.subjects[subject.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *memorySubjectRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.subjects, id)
	return nil
}

func (m *memorySubjectRepo) CountCourses(ctx context.Context, subjectID uint) (int64, error) {
	if m.courses == nil {
		return 0, nil
	}
	var count int64
	for _, c := range m.courses.courses {
		if c.SubjectID == subjectID {
			count++
		}
	}
	return count, nil
}

type memoryCourseRepo struct {
	courses     map[uint]models.Course
	enrollments *memoryEnrollmentRepo
	materials   *memoryMaterialRepo
	tests       *memoryTestRepo
	assignments *memoryAssignmentRepo
	nextID      uint
}

func newMemoryCourseRepo(enrollments *memoryEnrollmentRepo) *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), enrollments: enrollments, nextID: 1}
}

func (m *memoryCourseRepo) List(ctx context.Context, filter repository.CourseFilter) ([]models.Course, error) {
	results := make([]models.Course, 0)
	for _, c := range m.courses {
		if filter.CollegeID != 0 && c.CollegeID != filter.CollegeID {
			continue
		}
		if filter.SubjectID != 0 && c.SubjectID != filter.SubjectID {
			continue
		}
		if filter.FacultyID != 0 && c.FacultyID != filter.FacultyID {
			continue
		}
		results = append(results, c)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *memoryCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = m.nextID
	m.courses[course.ID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *memoryCourseRepo) CountEnrollments(ctx context.Context, courseID uint) (int64, error) {
	if m.enrollments == nil {
		return 0, nil
	}
	var count int64
	for _, e := range m.enrollments.enrollments {
		if e.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *memoryCourseRepo) CountMaterials(ctx context.Context, courseID uint) (int64, error) {
	if m.materials == nil {
		return 0, nil
	}
	var count int64
	for _, mat := range m.materials.materials {
		if mat.CourseID != nil && *mat.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *memoryCourseRepo) CountTests(ctx context.Context, courseID uint) (int64, error) {
	if m.tests == nil {
		return 0, nil
	}
	var count int64
	for _, t := range m.tests.tests {
		if t.CourseID != nil && *t.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *memoryCourseRepo) CountAssignments(ctx context.Context, courseID uint) (int64, error) {
	if m.assignments == nil {
		return 0, nil
	}
	var count int64
	for _, a := range m.assignments.assignments {
		if a.CourseID != nil && *a.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *memoryCourseRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.courses)), nil
}

type memoryEnrollmentRepo struct {
	enrollments []models.Enrollment
	nextID      uint
}

func newMemoryEnrollmentRepo() *memoryEnrollmentRepo {
	return &memoryEnrollmentRepo{nextID: 1}
}

func (m *memoryEnrollmentRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	results := make([]models.Enrollment, 0)
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			results = append(results, e)
		}
	}
	return results, nil
}

func (m *memoryEnrollmentRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	results := make([]models.Enrollment, 0)
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			results = append(results, e)
		}
	}
	return results, nil
}

func (m *memoryEnrollmentRepo) Get(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = m.nextID
	m.nextID++
	m.enrollments = append(m.enrollments, *enrollment)
	return nil
}

func (m *memoryEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	for i := range m.enrollments {
		if m.enrollments[i].ID == enrollment.ID {
			m.enrollments[i] = *enrollment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.enrollments)), nil
}

type memoryQueryRepo struct {
	queries map[uint]models.Query
	nextID  uint
}

func newMemoryQueryRepo() *memoryQueryRepo {
	return &memoryQueryRepo{queries: make(map[uint]models.Query), nextID: 1}
}

func (m *memoryQueryRepo) List(ctx context.Context, filter repository.QueryFilter) ([]models.Query, error) {
	results := make([]models.Query, 0)
	for _, q := range m.queries {
		if filter.Subject != "" && !strings.EqualFold(q.Subject, filter.Subject) {
			continue
		}
		if filter.AskedBy != 0 && q.AskedBy != filter.AskedBy {
			continue
		}
		if filter.Unanswered && q.Answered() {
			continue
		}
		if filter.AnsweredByType != "" && q.AnsweredByType != filter.AnsweredByType {
			continue
		}
		results = append(results, q)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (m *memoryQueryRepo) ListRecentByUser(ctx context.Context, userID uint, limit int) ([]models.Query, error) {
	all, _ := m.List(ctx, repository.QueryFilter{AskedBy: userID})
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryQueryRepo) GetByID(ctx context.Context, id uint) (models.Query, error) {
	q, ok := m.queries[id]
	if !ok {
		return models.Query{}, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (m *memoryQueryRepo) Create(ctx context.Context, query *models.Query) error {
	query.ID = m.nextID
	query.CreatedAt = time.Now()
	m.queries[query.ID] = *query
	m.nextID++
	return nil
}

func (m *memoryQueryRepo) Update(ctx context.Context, query *models.Query) error {
	if _, ok := m.queries[query.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.queries[query.ID] = *query
	return nil
}

func (m *memoryQueryRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.queries[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.queries, id)
	return nil
}

func (m *memoryQueryRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.queries)), nil
}

func (m *memoryQueryRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	for _, q := range m.queries {
		if !q.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type memoryChatRepo struct {
	conversations map[uint]models.ChatConversation
	nextID        uint
}

func newMemoryChatRepo() *memoryChatRepo {
	return &memoryChatRepo{conversations: make(map[uint]models.ChatConversation), nextID: 1}
}

func (m *memoryChatRepo) ListByUser(ctx context.Context, userID uint) ([]models.ChatConversation, error) {
	results := make([]models.ChatConversation, 0)
	for _, c := range m.conversations {
		if c.UserID == userID {
			results = append(results, c)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryChatRepo) GetByID(ctx context.Context, id uint) (models.ChatConversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return models.ChatConversation{}, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *memoryChatRepo) Create(ctx context.Context, conversation *models.ChatConversation) error {
	conversation.ID = m.nextID
	conversation.CreatedAt = time.Now()
	m.conversations[conversation.ID] = *conversation
	m.nextID++
	return nil
}

func (m *memoryChatRepo) Update(ctx context.Context, conversation *models.ChatConversation) error {
	if _, ok := m.conversations[conversation.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.conversations[conversation.ID] = *conversation
	return nil
}

func (m *memoryChatRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.conversations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.conversations, id)
	return nil
}

type memoryMaterialRepo struct {
	materials map[uint]models.Material
	nextID    uint
}

func newMemoryMaterialRepo() *memoryMaterialRepo {
	return &memoryMaterialRepo{materials: make(map[uint]models.Material), nextID: 1}
}

func (m *memoryMaterialRepo) List(ctx context.Context, filter repository.MaterialFilter) ([]models.Material, error) {
	results := make([]models.Material, 0)
	for _, mat := range m.materials {
		if mat.Visibility != models.VisibilityPublic && mat.UploadedBy != filter.OwnerID {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(mat.Subject, filter.Subject) {
			continue
		}
		if filter.CourseID != 0 && (mat.CourseID == nil || *mat.CourseID != filter.CourseID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(mat.Title), strings.ToLower(filter.Search)) {
			continue
		}
		results = append(results, mat)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryMaterialRepo) ListByUploader(ctx context.Context, uploaderID uint) ([]models.Material, error) {
	results := make([]models.Material, 0)
	for _, mat := range m.materials {
		if mat.UploadedBy == uploaderID {
			results = append(results, mat)
		}
	}
	return results, nil
}

func (m *memoryMaterialRepo) GetByID(ctx context.Context, id uint) (models.Material, error) {
	mat, ok := m.materials[id]
	if !ok {
		return models.Material{}, gorm.ErrRecordNotFound
	}
	return mat, nil
}

func (m *memoryMaterialRepo) Create(ctx context.Context, material *models.Material) error {
	material.ID = m.nextID
	material.CreatedAt = time.Now()
	m.materials[material.ID] = *material
	m.nextID++
	return nil
}

func (m *memoryMaterialRepo) Update(ctx context.Context, material *models.Material) error {
	if _, ok := m.materials[material.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.materials[material.ID] = *material
	return nil
}

func (m *memoryMaterialRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.materials[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.materials, id)
	return nil
}

func (m *memoryMaterialRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.materials)), nil
}

func (m *memoryMaterialRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	for _, mat := range m.materials {
		if !mat.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
