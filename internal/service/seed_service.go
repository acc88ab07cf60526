package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// SeedService loads a demo catalog into an empty or partially seeded database.
type SeedService interface {
	SeedCatalog(ctx context.Context, token string) (dto.SeedResult, error)
}

type seedInstructor struct {
	Email     string
	FirstName string
	LastName  string
	Courses   []seedCourse
}

type seedCourse struct {
	Title       string
	Summary     string
	Category    string
	Level       string
	Price       float64
	Hours       float64
	ModuleNames []string
}

var demoCatalog = []seedInstructor{
	{
		Email: "ada.instructor@learnhub.local", FirstName: "Ada", LastName: "Lovelace",
		Courses: []seedCourse{
			{Title: "Go for Backend Engineers", Summary: "Build production HTTP services in Go.", Category: "programming", Level: models.LevelIntermediate, Price: 49.99, Hours: 12, ModuleNames: []string{"Foundations", "HTTP Services", "Persistence"}},
			{Title: "SQL Fundamentals", Summary: "Query, join and model relational data.", Category: "data", Level: models.LevelBeginner, Price: 0, Hours: 6, ModuleNames: []string{"Selecting Data", "Joins"}},
		},
	},
	{
		Email: "grace.instructor@learnhub.local", FirstName: "Grace", LastName: "Hopper",
		Courses: []seedCourse{
			{Title: "Distributed Systems in Practice", Summary: "Consensus, queues and failure handling.", Category: "programming", Level: models.LevelAdvanced, Price: 89, Hours: 18, ModuleNames: []string{"Messaging", "Replication", "Observability"}},
			{Title: "Product Design Basics", Summary: "From user research to clickable prototypes.", Category: "design", Level: models.LevelBeginner, Price: 19.5, Hours: 5, ModuleNames: []string{"Research", "Prototyping"}},
		},
	},
}

const seedLessonsPerModule = 3

type seedService struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	enabled bool
	token   string
	cost    int
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, courses repository.CourseRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		users:   users,
		courses: courses,
		enabled: enabled,
		token:   token,
		cost:    PasswordCost,
		logger:  logger.With().Str("component", "seed_service").Logger(),
		now:     time.Now,
	}
}

// SeedCatalog creates missing demo instructors and courses. Existing rows, matched by
// instructor email and course title, are left untouched so repeated runs converge.
func (s *seedService) SeedCatalog(ctx context.Context, token string) (dto.SeedResult, error) {
	if !s.enabled {
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResult{}, ErrSeedUnauthorized
	}

	var result dto.SeedResult
	for _, entry := range demoCatalog {
		instructor, created, err := s.ensureInstructor(ctx, entry)
		if err != nil {
			return result, err
		}
		if created {
			result.Instructors++
		}

		for _, course := range entry.Courses {
			lessons, created, err := s.ensureCourse(ctx, instructor.ID, course)
			if err != nil {
				return result, err
			}
			if created {
				result.Courses++
				result.Lessons += lessons
			}
		}
	}

	s.logger.Info().
		Int("instructors", result.Instructors).
		Int("courses", result.Courses).
		Int("lessons", result.Lessons).
		Msg("catalog seeded")
	return result, nil
}

func (s *seedService) ensureInstructor(ctx context.Context, entry seedInstructor) (models.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, entry.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, false, err
	}

	// Seeded accounts get an unguessable password; they exist to own demo courses.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cost)
	if err != nil {
		return models.User{}, false, err
	}
	user := models.User{
		Email:        entry.Email,
		PasswordHash: string(hash),
		FirstName:    entry.FirstName,
		LastName:     entry.LastName,
		Role:         models.RoleInstructor,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (s *seedService) ensureCourse(ctx context.Context, instructorID uint, entry seedCourse) (int, bool, error) {
	existing, _, err := s.courses.List(ctx, repository.CourseFilter{InstructorID: &instructorID, Search: entry.Title, Limit: 50})
	if err != nil {
		return 0, false, err
	}
	for _, course := range existing {
		if strings.EqualFold(course.Title, entry.Title) {
			return 0, false, nil
		}
	}

	publishedAt := s.now().UTC()
	course := models.Course{
		InstructorID:     instructorID,
		Title:            entry.Title,
		Description:      entry.Summary,
		ShortDescription: entry.Summary,
		Category:         entry.Category,
		Level:            entry.Level,
		Price:            entry.Price,
		Currency:         "usd",
		Status:           models.CourseStatusPublished,
		DurationHours:    entry.Hours,
		PublishedAt:      &publishedAt,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return 0, false, err
	}

	lessons := 0
	for moduleIndex, name := range entry.ModuleNames {
		module := models.CourseModule{CourseID: course.ID, Title: name, OrderIndex: moduleIndex}
		if err := s.courses.CreateModule(ctx, &module); err != nil {
			return lessons, true, err
		}
		for lessonIndex := 0; lessonIndex < seedLessonsPerModule; lessonIndex++ {
			lesson := models.CourseLesson{
				ModuleID:        module.ID,
				Title:           fmt.Sprintf("%s %d", name, lessonIndex+1),
				LessonType:      models.LessonTypeVideo,
				DurationMinutes: 10 + 5*lessonIndex,
				OrderIndex:      lessonIndex,
				IsFree:          moduleIndex == 0 && lessonIndex == 0,
			}
			if err := s.courses.CreateLesson(ctx, &lesson); err != nil {
				return lessons, true, err
			}
			lessons++
		}
	}
	return lessons, true, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
