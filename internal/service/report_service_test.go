package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/models"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

type mockReportRepo struct {
	enrollments []models.EnrollmentDetail
	tutorStats  []models.SessionStats
	rangeStats  []models.SessionStats
	rangeFrom   time.Time
	rangeTo     time.Time
}

func (m *mockReportRepo) StudentEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return m.enrollments, nil
}

func (m *mockReportRepo) TutorSessionStats(ctx context.Context, tutorID string) ([]models.SessionStats, error) {
	return m.tutorStats, nil
}

func (m *mockReportRepo) RangeSessionStats(ctx context.Context, from, to time.Time) ([]models.SessionStats, error) {
	m.rangeFrom, m.rangeTo = from, to
	return m.rangeStats, nil
}

type mockReportCache struct {
	entries map[string][]byte
	hits    []string
	stored  []string
}

func (m *mockReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	if _, ok := m.entries[key]; ok {
		m.hits = append(m.hits, key)
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (m *mockReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.stored = append(m.stored, key)
	return nil
}

func adminActor() models.Actor {
	return models.Actor{UserID: "user-admin", Role: models.RoleAdmin}
}

func ratedEnrollment(subject string, attendance models.AttendanceStatus, rating *int) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment:     models.Enrollment{Attendance: attendance, Rating: rating},
		SessionSubject: subject,
	}
}

func reportFixture() (*ReportService, *mockReportRepo, *mockReportCache) {
	repo := &mockReportRepo{}
	cache := &mockReportCache{entries: map[string][]byte{}}
	svc := NewReportService(
		repo,
		&mockStudentReader{
			details: map[string]*models.StudentDetail{testStudentID: {}},
			byUser:  map[string]*models.Student{"user-student": {ID: testStudentID, UserID: "user-student"}},
		},
		&mockTutorReader{
			details: map[string]*models.TutorDetail{testTutorID: {}},
			byUser:  map[string]*models.Tutor{"user-tutor": {ID: testTutorID, UserID: "user-tutor"}},
		},
		cache,
		5*time.Minute,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return time.Date(2026, 9, 3, 15, 30, 0, 0, time.UTC) }
	return svc, repo, cache
}

func TestStudentReportAverageNullWithoutRatings(t *testing.T) {
	svc, repo, _ := reportFixture()
	repo.enrollments = []models.EnrollmentDetail{
		ratedEnrollment("Calculo", models.AttendanceShowed, nil),
		ratedEnrollment("Calculo", models.AttendancePending, nil),
	}

	report, err := svc.StudentReport(context.Background(), adminActor(), testStudentID)
	require.NoError(t, err)
	assert.Nil(t, report.Summary.AverageRating)
	assert.Equal(t, 2, report.Summary.TotalEnrollments)
}

func TestStudentReportAttendanceBreakdown(t *testing.T) {
	svc, repo, _ := reportFixture()
	five := 5
	three := 3
	repo.enrollments = []models.EnrollmentDetail{
		ratedEnrollment("Calculo", models.AttendanceShowed, &five),
		ratedEnrollment("Fisica", models.AttendanceShowed, &three),
		ratedEnrollment("Calculo", models.AttendanceMissed, nil),
		ratedEnrollment("Quimica", models.AttendanceExcused, nil),
		ratedEnrollment("Quimica", models.AttendancePending, nil),
	}

	report, err := svc.StudentReport(context.Background(), adminActor(), testStudentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceBreakdown{Showed: 2, Missed: 1, Excused: 1, Pending: 1}, report.Summary.Attendance)
	require.NotNil(t, report.Summary.AverageRating)
	assert.InDelta(t, 4.0, *report.Summary.AverageRating, 0.0001)
}

func TestStudentReportTopSubjectsTieOrder(t *testing.T) {
	svc, repo, _ := reportFixture()
	repo.enrollments = []models.EnrollmentDetail{
		ratedEnrollment("Algebra", models.AttendanceShowed, nil),
		ratedEnrollment("Biologia", models.AttendanceShowed, nil),
		ratedEnrollment("Calculo", models.AttendanceShowed, nil),
		ratedEnrollment("Biologia", models.AttendanceShowed, nil),
		ratedEnrollment("Quimica", models.AttendanceShowed, nil),
		ratedEnrollment("Historia", models.AttendanceShowed, nil),
		ratedEnrollment("Geografia", models.AttendanceShowed, nil),
	}

	report, err := svc.StudentReport(context.Background(), adminActor(), testStudentID)
	require.NoError(t, err)

	top := report.Summary.TopSubjects
	require.Len(t, top, 5)
	assert.Equal(t, models.KeyCount{Key: "Biologia", Count: 2}, top[0])
	assert.Equal(t, "Algebra", top[1].Key)
	assert.Equal(t, "Calculo", top[2].Key)
	assert.Equal(t, "Quimica", top[3].Key)
	assert.Equal(t, "Historia", top[4].Key)
}

func TestStudentReportForbiddenForOtherStudent(t *testing.T) {
	svc, _, _ := reportFixture()

	_, err := svc.StudentReport(context.Background(), studentActor(), testTutorID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentReportCacheRoundTrip(t *testing.T) {
	svc, _, cache := reportFixture()

	_, err := svc.StudentReport(context.Background(), adminActor(), testStudentID)
	require.NoError(t, err)
	require.Len(t, cache.stored, 1)
	assert.Equal(t, "reports:student:"+testStudentID, cache.stored[0])

	cache.entries[cache.stored[0]] = []byte("{}")
	_, err = svc.StudentReport(context.Background(), adminActor(), testStudentID)
	require.NoError(t, err)
	assert.Len(t, cache.hits, 1)
	assert.Len(t, cache.stored, 1)
}

func TestTutorReportWeightedAverage(t *testing.T) {
	svc, repo, _ := reportFixture()
	repo.tutorStats = []models.SessionStats{
		{ID: "s1", Subject: "Calculo", Status: models.SessionCompleted, Enrolled: 10, RatingSum: 45, RatedCount: 9},
		{ID: "s2", Subject: "Calculo", Status: models.SessionCompleted, Enrolled: 5, RatingSum: 3, RatedCount: 1},
		{ID: "s3", Subject: "Fisica", Status: models.SessionCancelled, Enrolled: 0},
	}

	report, err := svc.TutorReport(context.Background(), adminActor(), testTutorID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.TotalSessions)
	assert.Equal(t, 15, report.Summary.TotalEnrolled)
	require.NotNil(t, report.Summary.AverageRating)
	assert.InDelta(t, 4.8, *report.Summary.AverageRating, 0.0001)

	require.Len(t, report.Sessions, 3)
	assert.Nil(t, report.Sessions[2].AverageRating)
	assert.Equal(t, []models.KeyCount{
		{Key: "finalizada", Count: 2},
		{Key: "cancelada", Count: 1},
	}, report.Summary.ByStatus)
}

func TestTutorReportOwnerAllowed(t *testing.T) {
	svc, _, _ := reportFixture()

	_, err := svc.TutorReport(context.Background(), tutorActor(), testTutorID)
	require.NoError(t, err)

	other := models.Actor{UserID: "user-other", Role: models.RoleTutor}
	_, err = svc.TutorReport(context.Background(), other, testTutorID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRangeReportDefaultsToCurrentWeek(t *testing.T) {
	svc, repo, _ := reportFixture()

	report, err := svc.RangeReport(context.Background(), adminActor(), nil, nil)
	require.NoError(t, err)

	wantFrom := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 9, 6, 23, 59, 59, 999000000, time.UTC)
	assert.True(t, repo.rangeFrom.Equal(wantFrom), "got %s", repo.rangeFrom)
	assert.True(t, repo.rangeTo.Equal(wantTo), "got %s", repo.rangeTo)
	assert.Equal(t, wantFrom, report.Range.From)
	assert.Equal(t, wantTo, report.Range.To)
}

func TestRangeReportExplicitWindow(t *testing.T) {
	svc, repo, _ := reportFixture()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.RangeReport(context.Background(), adminActor(), &from, &to)
	require.NoError(t, err)
	assert.True(t, repo.rangeFrom.Equal(from))
	assert.True(t, repo.rangeTo.Equal(to))
}

func TestRangeReportInvertedWindowRejected(t *testing.T) {
	svc, _, _ := reportFixture()
	from := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.RangeReport(context.Background(), adminActor(), &from, &to)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRangeReportAdminOnly(t *testing.T) {
	svc, _, _ := reportFixture()

	_, err := svc.RangeReport(context.Background(), tutorActor(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRangeReportTopTutors(t *testing.T) {
	svc, repo, _ := reportFixture()
	repo.rangeStats = []models.SessionStats{
		{ID: "s1", TutorID: "t-mario", TutorName: "Mario Ruiz", Subject: "Calculo", Status: models.SessionCompleted, Enrolled: 8},
		{ID: "s2", TutorID: "t-lucia", TutorName: "Lucia Vega", Subject: "Fisica", Status: models.SessionCompleted, Enrolled: 6},
		{ID: "s3", TutorID: "t-mario", TutorName: "Mario Ruiz", Subject: "Calculo", Status: models.SessionScheduled, Enrolled: 4},
	}

	report, err := svc.RangeReport(context.Background(), adminActor(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 18, report.Summary.TotalEnrolled)
	require.NotEmpty(t, report.Summary.TopTutors)
	assert.Equal(t, models.KeyCount{Key: "Mario Ruiz", Count: 2}, report.Summary.TopTutors[0])
}

func TestRangeReportHomonymTutorsRankSeparately(t *testing.T) {
	svc, repo, _ := reportFixture()
	repo.rangeStats = []models.SessionStats{
		{ID: "s1", TutorID: "t-garcia-1", TutorName: "Carlos Garcia", Status: models.SessionCompleted, Enrolled: 3},
		{ID: "s2", TutorID: "t-garcia-2", TutorName: "Carlos Garcia", Status: models.SessionCompleted, Enrolled: 2},
		{ID: "s3", TutorID: "t-garcia-1", TutorName: "Carlos Garcia", Status: models.SessionScheduled, Enrolled: 1},
	}

	report, err := svc.RangeReport(context.Background(), adminActor(), nil, nil)
	require.NoError(t, err)
	require.Len(t, report.Summary.TopTutors, 2)
	assert.Equal(t, models.KeyCount{Key: "Carlos Garcia", Count: 2}, report.Summary.TopTutors[0])
	assert.Equal(t, models.KeyCount{Key: "Carlos Garcia", Count: 1}, report.Summary.TopTutors[1])
}
