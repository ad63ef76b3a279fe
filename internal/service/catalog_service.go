package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// Catalog failures.
var (
	ErrCollegeNotFound = errors.New("college not found")
	ErrCollegeTaken    = errors.New("college name already exists")
	ErrCollegeInUse    = errors.New("college still has subjects or users")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrSubjectTaken    = errors.New("subject already exists in this college")
	ErrSubjectInUse    = errors.New("subject still has courses")
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseInUse        = errors.New("course still has enrollments or content")
	ErrFacultyNotEligible = errors.New("course faculty must be a verified faculty account")
)

// CatalogService manages colleges, subjects and courses. Deletion is guarded:
// a record with dependants cannot be removed.
type CatalogService interface {
	ListColleges(ctx context.Context) ([]dto.CollegeResponse, error)
	GetCollege(ctx context.Context, id uint) (dto.CollegeResponse, error)
	CreateCollege(ctx context.Context, payload dto.CollegeCreateRequest) (dto.CollegeResponse, error)
	UpdateCollege(ctx context.Context, id uint, payload dto.CollegeUpdateRequest) (dto.CollegeResponse, error)
	DeleteCollege(ctx context.Context, id uint) error

	ListSubjects(ctx context.Context, collegeID uint) ([]dto.SubjectResponse, error)
	CreateSubject(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	UpdateSubject(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	DeleteSubject(ctx context.Context, id uint) error

	ListCourses(ctx context.Context, filter repository.CourseFilter) ([]dto.CourseResponse, error)
	GetCourse(ctx context.Context, id uint) (dto.CourseResponse, error)
	CreateCourse(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, id uint) error
}

// ContentIndexer pushes course content into the semantic search index.
type ContentIndexer interface {
	IndexCourse(ctx context.Context, course models.Course) error
	RemoveCourse(ctx context.Context, courseID uint) error
}

type catalogService struct {
	colleges  repository.CollegeRepository
	subjects  repository.SubjectRepository
	courses   repository.CourseRepository
	users     repository.UserRepository
	indexer   ContentIndexer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatalogService builds a new catalog service. The indexer may be nil when
// semantic search is disabled.
func NewCatalogService(
	colleges repository.CollegeRepository,
	subjects repository.SubjectRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	indexer ContentIndexer,
	validate *validator.Validate,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		colleges:  colleges,
		subjects:  subjects,
		courses:   courses,
		users:     users,
		indexer:   indexer,
		validator: validate,
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) ListColleges(ctx context.Context) ([]dto.CollegeResponse, error) {
	colleges, err := s.colleges.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCollegeResponseSlice(colleges), nil
}

func (s *catalogService) GetCollege(ctx context.Context, id uint) (dto.CollegeResponse, error) {
	college, err := s.colleges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CollegeResponse{}, ErrCollegeNotFound
		}
		return dto.CollegeResponse{}, err
	}

	return dto.NewCollegeResponse(college), nil
}

func (s *catalogService) CreateCollege(ctx context.Context, payload dto.CollegeCreateRequest) (dto.CollegeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CollegeResponse{}, err
	}

	if _, err := s.colleges.GetByName(ctx, payload.Name); err == nil {
		return dto.CollegeResponse{}, ErrCollegeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CollegeResponse{}, err
	}

	college := models.College{
		Name:     payload.Name,
		Location: payload.Location,
		Website:  payload.Website,
	}
	if err := s.colleges.Create(ctx, &college); err != nil {
		return dto.CollegeResponse{}, err
	}

	s.logger.Info().Uint("college_id", college.ID).Msg("college created")
	return dto.NewCollegeResponse(college), nil
}

func (s *catalogService) UpdateCollege(ctx context.Context, id uint, payload dto.CollegeUpdateRequest) (dto.CollegeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CollegeResponse{}, err
	}

	college, err := s.colleges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CollegeResponse{}, ErrCollegeNotFound
		}
		return dto.CollegeResponse{}, err
	}

	if payload.Name != nil && *payload.Name != college.Name {
		if _, err := s.colleges.GetByName(ctx, *payload.Name); err == nil {
			return dto.CollegeResponse{}, ErrCollegeTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CollegeResponse{}, err
		}
		college.Name = *payload.Name
	}
	if payload.Location != nil {
		college.Location = *payload.Location
	}
	if payload.Website != nil {
		college.Website = *payload.Website
	}

	if err := s.colleges.Update(ctx, &college); err != nil {
		return dto.CollegeResponse{}, err
	}

	return dto.NewCollegeResponse(college), nil
}

func (s *catalogService) DeleteCollege(ctx context.Context, id uint) error {
	subjects, err := s.colleges.CountSubjects(ctx, id)
	if err != nil {
		return err
	}
	users, err := s.colleges.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if subjects > 0 || users > 0 {
		return ErrCollegeInUse
	}

	if err := s.colleges.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollegeNotFound
		}
		return err
	}

	s.logger.Info().Uint("college_id", id).Msg("college deleted")
	return nil
}

func (s *catalogService) ListSubjects(ctx context.Context, collegeID uint) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.List(ctx, collegeID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubjectResponseSlice(subjects), nil
}

func (s *catalogService) CreateSubject(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	if _, err := s.colleges.GetByID(ctx, payload.CollegeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrCollegeNotFound
		}
		return dto.SubjectResponse{}, err
	}

	if _, err := s.subjects.GetByName(ctx, payload.CollegeID, payload.Name); err == nil {
		return dto.SubjectResponse{}, ErrSubjectTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name:        payload.Name,
		CollegeID:   payload.CollegeID,
		Description: payload.Description,
	}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("subject_id", subject.ID).Msg("subject created")
	return dto.NewSubjectResponse(subject), nil
}

func (s *catalogService) UpdateSubject(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrSubjectNotFound
		}
		return dto.SubjectResponse{}, err
	}

	if payload.Name != nil && *payload.Name != subject.Name {
		if _, err := s.subjects.GetByName(ctx, subject.CollegeID, *payload.Name); err == nil {
			return dto.SubjectResponse{}, ErrSubjectTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, err
		}
		subject.Name = *payload.Name
	}
	if payload.Description != nil {
		subject.Description = *payload.Description
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *catalogService) DeleteSubject(ctx context.Context, id uint) error {
	courses, err := s.subjects.CountCourses(ctx, id)
	if err != nil {
		return err
	}
	if courses > 0 {
		return ErrSubjectInUse
	}

	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	s.logger.Info().Uint("subject_id", id).Msg("subject deleted")
	return nil
}

func (s *catalogService) ListCourses(ctx context.Context, filter repository.CourseFilter) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *catalogService) GetCourse(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *catalogService) CreateCourse(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	faculty, err := s.users.GetByID(ctx, payload.FacultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrFacultyNotEligible
		}
		return dto.CourseResponse{}, err
	}
	if !faculty.IsFaculty() || !faculty.Verified {
		return dto.CourseResponse{}, ErrFacultyNotEligible
	}

	subject, err := s.subjects.GetByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrSubjectNotFound
		}
		return dto.CourseResponse{}, err
	}
	if subject.CollegeID != payload.CollegeID {
		return dto.CourseResponse{}, fmt.Errorf("subject does not belong to the given college")
	}

	course := models.Course{
		Name:            payload.Name,
		Description:     payload.Description,
		CollegeID:       payload.CollegeID,
		SubjectID:       payload.SubjectID,
		FacultyID:       payload.FacultyID,
		Syllabus:        payload.Syllabus,
		DurationWeeks:   payload.DurationWeeks,
		DifficultyLevel: payload.DifficultyLevel,
		Price:           payload.Price,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	if s.indexer != nil {
		if err := s.indexer.IndexCourse(ctx, course); err != nil {
			s.logger.Warn().Err(err).Uint("course_id", course.ID).Msg("course indexing failed")
		}
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("faculty_id", payload.FacultyID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *catalogService) UpdateCourse(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if payload.Name != nil {
		course.Name = *payload.Name
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}
	if payload.Syllabus != nil {
		course.Syllabus = *payload.Syllabus
	}
	if payload.DurationWeeks != nil {
		course.DurationWeeks = *payload.DurationWeeks
	}
	if payload.DifficultyLevel != nil {
		course.DifficultyLevel = *payload.DifficultyLevel
	}
	if payload.Price != nil {
		course.Price = *payload.Price
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	if s.indexer != nil {
		if err := s.indexer.IndexCourse(ctx, course); err != nil {
			s.logger.Warn().Err(err).Uint("course_id", course.ID).Msg("course reindexing failed")
		}
	}

	return dto.NewCourseResponse(course), nil
}

func (s *catalogService) DeleteCourse(ctx context.Context, id uint) error {
	if _, err := s.courses.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	// Removal is blocked while anything still hangs off the course.
	counters := []func(context.Context, uint) (int64, error){
		s.courses.CountEnrollments,
		s.courses.CountMaterials,
		s.courses.CountTests,
		s.courses.CountAssignments,
	}
	for _, count := range counters {
		total, err := count(ctx, id)
		if err != nil {
			return err
		}
		if total > 0 {
			return ErrCourseInUse
		}
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.RemoveCourse(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("course_id", id).Msg("course index removal failed")
		}
	}

	s.logger.Info().Uint("course_id", id).Msg("course deleted")
	return nil
}
