package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type testEnv struct {
	ctx       context.Context
	repo      repositories.Repository
	tokens    *auth.TokenManager
	publisher *events.MockEventPublisher
	sm        ServiceManager

	admin   *models.User
	student *models.User
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, cacheManager *cache.CacheManager) *testEnv {
	t.Helper()
	ctx := context.Background()

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	e := &testEnv{
		ctx:       ctx,
		repo:      testutil.NewRepository(t),
		tokens:    tokens,
		publisher: events.NewMockEventPublisher(discardLogger()),
	}
	e.sm = NewServiceManager(ServiceManagerConfig{
		Repo:      e.repo,
		Tokens:    tokens,
		Cache:     cacheManager,
		Publisher: e.publisher,
		Logger:    discardLogger(),
	})
	require.NoError(t, e.sm.Initialize(ctx))

	admin, created, err := e.sm.Auth().EnsureAdmin(ctx, "Admin", "admin@example.com", "adminpass1")
	require.NoError(t, err)
	require.True(t, created)
	e.admin = admin

	resp, err := e.sm.Auth().Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	e.student = resp.User
	return e
}

func (e *testEnv) adminViewer() Viewer   { return Viewer{UserID: e.admin.ID, Role: models.RoleAdmin} }
func (e *testEnv) studentViewer() Viewer { return Viewer{UserID: e.student.ID, Role: models.RoleStudent} }

// publishedCourse creates a published course with one module and two lessons
func (e *testEnv) publishedCourse(t *testing.T, title string) (*models.Course, *models.Module, []*models.Lesson) {
	t.Helper()
	courses := e.sm.Course()

	course, err := courses.Create(e.ctx, &CreateCourseRequest{Title: title, Description: "desc"}, e.admin.ID)
	require.NoError(t, err)

	module, err := courses.CreateModule(e.ctx, course.ID, &CreateModuleRequest{Title: "Basics"})
	require.NoError(t, err)

	var lessons []*models.Lesson
	for _, lt := range []string{"First", "Second"} {
		lesson, err := courses.CreateLesson(e.ctx, module.ID, &CreateLessonRequest{Title: lt, DurationMinutes: 5})
		require.NoError(t, err)
		lessons = append(lessons, lesson)
	}

	published := true
	course, err = courses.Update(e.ctx, course.ID, &UpdateCourseRequest{Published: &published})
	require.NoError(t, err)
	return course, module, lessons
}

func TestAuthService(t *testing.T) {
	e := newTestEnv(t, nil)
	svc := e.sm.Auth()

	t.Run("register issues a verifiable token", func(t *testing.T) {
		resp, err := svc.Register(e.ctx, &RegisterRequest{Name: "Grace", Email: "Grace@Example.com", Password: "hopper123"})
		require.NoError(t, err)
		assert.Equal(t, "grace@example.com", resp.User.Email)
		assert.Equal(t, models.RoleStudent, resp.User.Role)

		claims, err := e.tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(e.ctx, &RegisterRequest{Name: "Ada", Email: "ADA@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := svc.Register(e.ctx, &RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "short"})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("login", func(t *testing.T) {
		resp, err := svc.Login(e.ctx, &LoginRequest{Email: "ADA@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.Equal(t, e.student.ID, resp.User.ID)

		_, err = svc.Login(e.ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong-pass1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Login(e.ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email still compares a password hash", func(t *testing.T) {
		svc := NewAuthService(e.repo, e.tokens, discardLogger(), validator.New()).(*authService)
		var hashes []string
		svc.checkPassword = func(hash, plain string) (bool, error) {
			hashes = append(hashes, hash)
			return auth.CheckPassword(hash, plain)
		}

		_, err := svc.Login(e.ctx, &LoginRequest{Email: "ghost@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, []string{auth.DummyHash()}, hashes)
	})

	t.Run("change password", func(t *testing.T) {
		err := svc.ChangePassword(e.ctx, e.student.ID, &ChangePasswordRequest{CurrentPassword: "nope12345", NewPassword: "better456"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		require.NoError(t, svc.ChangePassword(e.ctx, e.student.ID, &ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "better456"}))
		_, err = svc.Login(e.ctx, &LoginRequest{Email: "ada@example.com", Password: "better456"})
		assert.NoError(t, err)
	})

	t.Run("ensure admin promotes existing user", func(t *testing.T) {
		user, created, err := svc.EnsureAdmin(e.ctx, "Ada L", "ada@example.com", "adminpass2")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, models.RoleAdmin, user.Role)

		me, err := svc.Me(e.ctx, e.student.ID)
		require.NoError(t, err)
		assert.True(t, me.IsAdmin())
		assert.Equal(t, "Ada L", me.Name)
	})

	t.Run("me for unknown user", func(t *testing.T) {
		_, err := svc.Me(e.ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestCourseService_Catalog(t *testing.T) {
	e := newTestEnv(t, nil)
	courses := e.sm.Course()

	draft, err := courses.Create(e.ctx, &CreateCourseRequest{Title: "Intro to Go!"}, e.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go", draft.Slug)
	assert.False(t, draft.Published)

	_, err = courses.Create(e.ctx, &CreateCourseRequest{Title: "Intro to Go"}, e.admin.ID)
	assert.ErrorIs(t, err, ErrSlugTaken)

	// Drafts are hidden from students
	_, err = courses.Get(e.ctx, e.studentViewer(), draft.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = courses.Get(e.ctx, e.adminViewer(), draft.ID)
	assert.NoError(t, err)

	// Publishing requires content
	publish := true
	_, err = courses.Update(e.ctx, draft.ID, &UpdateCourseRequest{Published: &publish})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "published", verrs[0].Field)

	// Positions are appended
	m1, err := courses.CreateModule(e.ctx, draft.ID, &CreateModuleRequest{Title: "One"})
	require.NoError(t, err)
	m2, err := courses.CreateModule(e.ctx, draft.ID, &CreateModuleRequest{Title: "Two"})
	require.NoError(t, err)
	assert.Equal(t, 1, m1.Position)
	assert.Equal(t, 2, m2.Position)

	l1, err := courses.CreateLesson(e.ctx, m2.ID, &CreateLessonRequest{Title: "Later"})
	require.NoError(t, err)
	l0, err := courses.CreateLesson(e.ctx, m1.ID, &CreateLessonRequest{
		Title:     "Sooner",
		Resources: []validator.LessonResourceRequest{{Title: "Docs", URL: "https://go.dev/doc"}},
	})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, l0.CourseID)

	published, err := courses.Update(e.ctx, draft.ID, &UpdateCourseRequest{Published: &publish})
	require.NoError(t, err)
	assert.True(t, published.Published)
	assert.Equal(t, 2, published.LessonCount)
	assert.Equal(t, []string{l0.ID, l1.ID}, published.LessonIDs())

	// Slug lookup
	bySlug, err := courses.Get(e.ctx, e.studentViewer(), "intro-to-go")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, bySlug.ID)
	require.Len(t, bySlug.Modules, 2)
	require.Len(t, bySlug.Modules[0].Lessons, 1)
	assert.Equal(t, "Docs", bySlug.Modules[0].Lessons[0].Resources[0].Title)

	// Listing
	_, err = courses.Create(e.ctx, &CreateCourseRequest{Title: "Hidden draft"}, e.admin.ID)
	require.NoError(t, err)

	studentList, err := courses.List(e.ctx, e.studentViewer(), CourseListParams{IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), studentList.Total)
	assert.Equal(t, 1, studentList.Page)
	assert.Equal(t, defaultPageSize, studentList.Size)

	adminList, err := courses.List(e.ctx, e.adminViewer(), CourseListParams{IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), adminList.Total)

	searched, err := courses.List(e.ctx, e.adminViewer(), CourseListParams{Query: "HIDDEN", IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), searched.Total)

	// Module delete takes its lessons with it
	require.NoError(t, courses.DeleteModule(e.ctx, m2.ID))
	_, err = courses.GetLesson(e.ctx, e.adminViewer(), l1.ID)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	require.NoError(t, courses.Delete(e.ctx, draft.ID))
	assert.ErrorIs(t, courses.Delete(e.ctx, draft.ID), ErrCourseNotFound)
	_, err = courses.CreateModule(e.ctx, draft.ID, &CreateModuleRequest{Title: "Orphan"})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseService_LessonAccess(t *testing.T) {
	e := newTestEnv(t, nil)
	course, _, lessons := e.publishedCourse(t, "Access")

	_, err := e.sm.Course().GetLesson(e.ctx, e.studentViewer(), lessons[0].ID)
	assert.True(t, IsPermissionError(err), "got %v", err)

	_, err = e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
	require.NoError(t, err)

	lesson, err := e.sm.Course().GetLesson(e.ctx, e.studentViewer(), lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "First", lesson.Title)

	title := "Renamed"
	updated, err := e.sm.Course().UpdateLesson(e.ctx, lessons[0].ID, &UpdateLessonRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestCourseService_CacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	e := newTestEnv(t, cache.NewCacheManager(client))
	course, _, _ := e.publishedCourse(t, "Cached")

	_, err := e.sm.Course().Get(e.ctx, e.studentViewer(), course.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.CourseCacheConfig.Prefix+cache.CourseDetailKey(course.ID)))

	title := "Fresh title"
	_, err = e.sm.Course().Update(e.ctx, course.ID, &UpdateCourseRequest{Title: &title})
	require.NoError(t, err)

	got, err := e.sm.Course().Get(e.ctx, e.studentViewer(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh title", got.Title)
}

func TestEnrollmentAndProgress(t *testing.T) {
	e := newTestEnv(t, nil)
	course, module, lessons := e.publishedCourse(t, "Progress")
	enrollments := e.sm.Enrollment()
	progress := e.sm.Progress()
	userID := e.student.ID

	// Unpublished courses do not accept students
	draft, err := e.sm.Course().Create(e.ctx, &CreateCourseRequest{Title: "Draft"}, e.admin.ID)
	require.NoError(t, err)
	_, err = enrollments.Enroll(e.ctx, userID, draft.ID)
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = enrollments.Enroll(e.ctx, userID, "missing")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = progress.CompleteLesson(e.ctx, userID, lessons[0].ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	enrollment, err := enrollments.Enroll(e.ctx, userID, course.ID)
	require.NoError(t, err)
	assert.Len(t, e.publisher.EventsOfType(events.EventEnrollmentCreated), 1)

	_, err = enrollments.Enroll(e.ctx, userID, course.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	enrolled, err := enrollments.IsEnrolled(e.ctx, userID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	// Completion is idempotent
	p, err := progress.CompleteLesson(e.ctx, userID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Percentage)
	assert.Equal(t, []string{lessons[0].ID}, p.CompletedLessonIDs)

	p, err = progress.CompleteLesson(e.ctx, userID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedLessons)
	assert.Len(t, e.publisher.EventsOfType(events.EventLessonCompleted), 1)

	// Finishing the course stamps the enrollment
	p, err = progress.CompleteLesson(e.ctx, userID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Percentage)
	assert.True(t, p.Completed)
	assert.NotNil(t, p.CompletedAt)
	assert.Len(t, e.publisher.EventsOfType(events.EventCourseCompleted), 1)

	mine, err := enrollments.ListMine(e.ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, enrollment.ID, mine[0].ID)
	assert.True(t, mine[0].Summary.Completed)
	assert.NotNil(t, mine[0].Summary.CompletedAt)
	require.NotNil(t, mine[0].Course)
	assert.Equal(t, course.Title, mine[0].Course.Title)

	// Un-completing clears it
	p, err = progress.UncompleteLesson(e.ctx, userID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Percentage)
	assert.False(t, p.Completed)

	stored, err := e.repo.Enrollment().Get(e.ctx, userID, course.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CompletedAt)

	_, err = progress.CompleteLesson(e.ctx, userID, lessons[1].ID)
	require.NoError(t, err)
	assert.Len(t, e.publisher.EventsOfType(events.EventCourseCompleted), 2)

	// New lessons lower the percentage, removed ones stop counting
	extra, err := e.sm.Course().CreateLesson(e.ctx, module.ID, &CreateLessonRequest{Title: "Third"})
	require.NoError(t, err)
	p, err = progress.CourseProgress(e.ctx, userID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, p.Percentage)
	assert.False(t, p.Completed)
	assert.Nil(t, p.CompletedAt)

	require.NoError(t, e.sm.Course().DeleteLesson(e.ctx, extra.ID))
	p, err = progress.CourseProgress(e.ctx, userID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Percentage)
	assert.Equal(t, 2, p.TotalLessons)

	_, err = progress.CompleteLesson(e.ctx, userID, "missing")
	assert.ErrorIs(t, err, ErrLessonNotFound)

	// Unenroll drops progress
	require.NoError(t, enrollments.Unenroll(e.ctx, userID, course.ID))
	assert.ErrorIs(t, enrollments.Unenroll(e.ctx, userID, course.ID), ErrNotEnrolled)
	_, err = progress.CourseProgress(e.ctx, userID, course.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.Len(t, e.publisher.EventsOfType(events.EventEnrollmentRemoved), 1)

	_, err = enrollments.Enroll(e.ctx, userID, course.ID)
	require.NoError(t, err)
	p, err = progress.CourseProgress(e.ctx, userID, course.ID)
	require.NoError(t, err)
	assert.Zero(t, p.CompletedLessons)
}

func TestCourseService_LessonChangesResyncCompletion(t *testing.T) {
	t.Run("deleting the last open lesson completes the course", func(t *testing.T) {
		e := newTestEnv(t, nil)
		course, _, lessons := e.publishedCourse(t, "Shrinking")
		_, err := e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
		require.NoError(t, err)
		_, err = e.sm.Progress().CompleteLesson(e.ctx, e.student.ID, lessons[0].ID)
		require.NoError(t, err)

		require.NoError(t, e.sm.Course().DeleteLesson(e.ctx, lessons[1].ID))

		p, err := e.sm.Progress().CourseProgress(e.ctx, e.student.ID, course.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, p.Percentage)
		assert.True(t, p.Completed)
		assert.NotNil(t, p.CompletedAt)

		stats, err := e.sm.Admin().Stats(e.ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.CompletedEnrollments)
	})

	t.Run("adding a lesson reopens a finished course", func(t *testing.T) {
		e := newTestEnv(t, nil)
		course, module, lessons := e.publishedCourse(t, "Growing")
		_, err := e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
		require.NoError(t, err)
		for _, l := range lessons {
			_, err = e.sm.Progress().CompleteLesson(e.ctx, e.student.ID, l.ID)
			require.NoError(t, err)
		}

		_, err = e.sm.Course().CreateLesson(e.ctx, module.ID, &CreateLessonRequest{Title: "Bonus"})
		require.NoError(t, err)

		stored, err := e.repo.Enrollment().Get(e.ctx, e.student.ID, course.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CompletedAt)

		stats, err := e.sm.Admin().Stats(e.ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.CompletedEnrollments)
	})

	t.Run("deleting a module with open lessons completes the course", func(t *testing.T) {
		e := newTestEnv(t, nil)
		course, _, lessons := e.publishedCourse(t, "Pruned")
		extra, err := e.sm.Course().CreateModule(e.ctx, course.ID, &CreateModuleRequest{Title: "Extras"})
		require.NoError(t, err)
		_, err = e.sm.Course().CreateLesson(e.ctx, extra.ID, &CreateLessonRequest{Title: "Optional"})
		require.NoError(t, err)

		_, err = e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
		require.NoError(t, err)
		for _, l := range lessons {
			_, err = e.sm.Progress().CompleteLesson(e.ctx, e.student.ID, l.ID)
			require.NoError(t, err)
		}

		require.NoError(t, e.sm.Course().DeleteModule(e.ctx, extra.ID))

		stored, err := e.repo.Enrollment().Get(e.ctx, e.student.ID, course.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.CompletedAt)
	})
}

func TestProgress_PublishFailureDoesNotFailCompletion(t *testing.T) {
	e := newTestEnv(t, nil)
	course, _, lessons := e.publishedCourse(t, "Broker down")

	_, err := e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
	require.NoError(t, err)

	e.publisher.FailWith(assert.AnError)
	p, err := e.sm.Progress().CompleteLesson(e.ctx, e.student.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedLessons)
}

func TestCommentService(t *testing.T) {
	e := newTestEnv(t, nil)
	course, _, lessons := e.publishedCourse(t, "Discussion")
	comments := e.sm.Comment()
	lessonID := lessons[0].ID

	_, err := comments.Create(e.ctx, e.studentViewer(), lessonID, &CommentRequest{Body: "Hello"})
	assert.True(t, IsPermissionError(err), "got %v", err)

	_, err = e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
	require.NoError(t, err)

	first, err := comments.Create(e.ctx, e.studentViewer(), lessonID, &CommentRequest{Body: "  First question  "})
	require.NoError(t, err)
	assert.Equal(t, "First question", first.Body)
	assert.Equal(t, "Ada", first.AuthorName)

	time.Sleep(10 * time.Millisecond)
	second, err := comments.Create(e.ctx, e.studentViewer(), lessonID, &CommentRequest{Body: "Second question"})
	require.NoError(t, err)
	assert.Len(t, e.publisher.EventsOfType(events.EventCommentCreated), 2)

	list, err := comments.List(e.ctx, e.studentViewer(), lessonID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Comments, 2)
	assert.Equal(t, second.ID, list.Comments[0].ID)

	replied, err := comments.Reply(e.ctx, e.admin.ID, first.ID, &ReplyRequest{Reply: "Answer"})
	require.NoError(t, err)
	assert.True(t, replied.HasReply())
	assert.Equal(t, e.admin.ID, *replied.RepliedBy)

	stored, err := e.repo.Comment().GetByID(e.ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Reply)
	assert.Equal(t, "Answer", *stored.Reply)

	_, err = comments.Reply(e.ctx, e.admin.ID, "missing", &ReplyRequest{Reply: "x"})
	assert.ErrorIs(t, err, ErrCommentNotFound)

	// Only the author or an admin may delete
	other := Viewer{UserID: "someone-else", Role: models.RoleStudent}
	assert.True(t, IsPermissionError(comments.Delete(e.ctx, other, first.ID)))
	require.NoError(t, comments.Delete(e.ctx, e.studentViewer(), first.ID))
	require.NoError(t, comments.Delete(e.ctx, e.adminViewer(), second.ID))
	assert.ErrorIs(t, comments.Delete(e.ctx, e.adminViewer(), second.ID), ErrCommentNotFound)

	_, err = comments.List(e.ctx, e.adminViewer(), "missing", 1, 10)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestAdminService(t *testing.T) {
	e := newTestEnv(t, nil)
	course, _, lessons := e.publishedCourse(t, "Reported")
	admin := e.sm.Admin()

	_, err := e.sm.Enrollment().Enroll(e.ctx, e.student.ID, course.ID)
	require.NoError(t, err)
	_, err = e.sm.Progress().CompleteLesson(e.ctx, e.student.ID, lessons[0].ID)
	require.NoError(t, err)

	stats, err := admin.Stats(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalCourses)
	assert.Equal(t, int64(2), stats.TotalLessons)
	assert.Equal(t, int64(1), stats.TotalEnrollments)
	assert.Zero(t, stats.CompletedEnrollments)

	role := models.RoleAdmin
	users, err := admin.ListUsers(e.ctx, UserListParams{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, int64(1), users.Total)
	assert.Equal(t, e.admin.ID, users.Users[0].ID)

	rows, err := admin.ProgressReport(e.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ada@example.com", rows[0].Email)
	assert.Equal(t, 50, rows[0].Percentage)

	report, err := admin.ExportProgressReport(e.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "reported-progress.xlsx", report.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer f.Close()
	sheetRows, err := f.GetRows(progressSheetName)
	require.NoError(t, err)
	require.Len(t, sheetRows, 2)
	assert.Equal(t, "Email", sheetRows[0][2])
	assert.Equal(t, "ada@example.com", sheetRows[1][2])
	assert.Equal(t, "50", sheetRows[1][6])

	_, err = admin.ExportProgressReport(e.ctx, "missing")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestServiceManager_RequiresInitialize(t *testing.T) {
	sm := NewServiceManager(ServiceManagerConfig{})
	assert.Panics(t, func() { sm.Auth() })
	assert.Error(t, sm.Initialize(context.Background()))
}
