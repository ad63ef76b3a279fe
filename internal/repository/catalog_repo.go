package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// CollegeRepository defines persistence operations for colleges.
type CollegeRepository interface {
	List(ctx context.Context) ([]models.College, error)
	GetByID(ctx context.Context, id uint) (models.College, error)
	GetByName(ctx context.Context, name string) (models.College, error)
	Create(ctx context.Context, college *models.College) error
	Update(ctx context.Context, college *models.College) error
	Delete(ctx context.Context, id uint) error
	CountSubjects(ctx context.Context, collegeID uint) (int64, error)
	CountUsers(ctx context.Context, collegeID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type collegeRepository struct {
	db *gorm.DB
}

// NewCollegeRepository instantiates a GORM-backed repository.
func NewCollegeRepository(db *gorm.DB) CollegeRepository {
	return &collegeRepository{db: db}
}

func (r *collegeRepository) List(ctx context.Context) ([]models.College, error) {
	var colleges []models.College
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&colleges).Error; err != nil {
		return nil, err
	}

	return colleges, nil
}

func (r *collegeRepository) GetByID(ctx context.Context, id uint) (models.College, error) {
	var college models.College
	if err := r.db.WithContext(ctx).First(&college, id).Error; err != nil {
		return models.College{}, err
	}

	return college, nil
}

func (r *collegeRepository) GetByName(ctx context.Context, name string) (models.College, error) {
	var college models.College
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&college).Error; err != nil {
		return models.College{}, err
	}

	return college, nil
}

func (r *collegeRepository) Create(ctx context.Context, college *models.College) error {
	return r.db.WithContext(ctx).Create(college).Error
}

func (r *collegeRepository) Update(ctx context.Context, college *models.College) error {
	return r.db.WithContext(ctx).Save(college).Error
}

func (r *collegeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.College{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *collegeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.College{}).Count(&total).Error
	return total, err
}

func (r *collegeRepository) CountSubjects(ctx context.Context, collegeID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Subject{}).Where("college_id = ?", collegeID).Count(&total).Error
	return total, err
}

func (r *collegeRepository) CountUsers(ctx context.Context, collegeID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("college_id = ?", collegeID).Count(&total).Error
	return total, err
}

// SubjectRepository defines persistence operations for subjects.
type SubjectRepository interface {
	List(ctx context.Context, collegeID uint) ([]models.Subject, error)
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	GetByName(ctx context.Context, collegeID uint, name string) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
	CountCourses(ctx context.Context, subjectID uint) (int64, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository instantiates a GORM-backed repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context, collegeID uint) ([]models.Subject, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if collegeID != 0 {
		query = query.Where("college_id = ?", collegeID)
	}

	var subjects []models.Subject
	if err := query.Find(&subjects).Error; err != nil {
		return nil, err
	}

	return subjects, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}

	return subject, nil
}

func (r *subjectRepository) GetByName(ctx context.Context, collegeID uint, name string) (models.Subject, error) {
	var subject models.Subject
	err := r.db.WithContext(ctx).
		Where("college_id = ? AND name = ?", collegeID, name).
		First(&subject).Error
	if err != nil {
		return models.Subject{}, err
	}

	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subjectRepository) CountCourses(ctx context.Context, subjectID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("subject_id = ?", subjectID).Count(&total).Error
	return total, err
}

// CourseFilter describes course listing options.
type CourseFilter struct {
	CollegeID uint
	SubjectID uint
	FacultyID uint
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	CountEnrollments(ctx context.Context, courseID uint) (int64, error)
	CountMaterials(ctx context.Context, courseID uint) (int64, error)
	CountTests(ctx context.Context, courseID uint) (int64, error)
	CountAssignments(ctx context.Context, courseID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Order("title ASC")
	if filter.CollegeID != 0 {
		query = query.Where("college_id = ?", filter.CollegeID)
	}
	if filter.SubjectID != 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.FacultyID != 0 {
		query = query.Where("faculty_id = ?", filter.FacultyID)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&total).Error
	return total, err
}

func (r *courseRepository) CountEnrollments(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&total).Error
	return total, err
}

func (r *courseRepository) CountMaterials(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Material{}).Where("course_id = ?", courseID).Count(&total).Error
	return total, err
}

func (r *courseRepository) CountTests(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.MockTest{}).Where("course_id = ?", courseID).Count(&total).Error
	return total, err
}

func (r *courseRepository) CountAssignments(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("course_id = ?", courseID).Count(&total).Error
	return total, err
}
