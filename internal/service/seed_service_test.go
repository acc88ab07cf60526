package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

func newTestSeedService(t *testing.T, enabled bool) (*seedService, repository.CourseRepository) {
	t.Helper()
	db := setupServiceDB(t)
	courses := repository.NewCourseRepository(db)
	svc := NewSeedService(repository.NewUserRepository(db), courses, enabled, "secret", testLogger()).(*seedService)
	svc.cost = bcrypt.MinCost
	return svc, courses
}

func TestSeedServiceTokenGuard(t *testing.T) {
	svc, _ := newTestSeedService(t, true)

	_, err := svc.SeedCatalog(context.Background(), "wrong")
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	disabled, _ := newTestSeedService(t, false)
	_, err = disabled.SeedCatalog(context.Background(), "secret")
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedServiceCatalogIsIdempotent(t *testing.T) {
	svc, courses := newTestSeedService(t, true)
	ctx := context.Background()

	first, err := svc.SeedCatalog(ctx, " secret ")
	require.NoError(t, err)
	require.Equal(t, 2, first.Instructors)
	require.Equal(t, 4, first.Courses)
	require.Equal(t, 30, first.Lessons)

	again, err := svc.SeedCatalog(ctx, "secret")
	require.NoError(t, err)
	require.Zero(t, again.Instructors)
	require.Zero(t, again.Courses)

	published, total, err := courses.List(ctx, repository.CourseFilter{Status: models.CourseStatusPublished})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)

	detail, err := courses.GetWithCurriculum(ctx, published[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, detail.Modules)
	require.True(t, detail.Modules[0].Lessons[0].IsFree)
	require.False(t, detail.Modules[0].Lessons[1].IsFree)
}
