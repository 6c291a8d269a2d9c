package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/models"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

type reportRepository interface {
	StudentEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	TutorSessionStats(ctx context.Context, tutorID string) ([]models.SessionStats, error)
	RangeSessionStats(ctx context.Context, from, to time.Time) ([]models.SessionStats, error)
}

type reportStudentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type reportTutorRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.TutorDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Tutor, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// topSubjectsLimit bounds every frequency ranking in report summaries.
const topSubjectsLimit = 5

// ReportService builds the aggregate documents for students, tutors and
// date ranges. Aggregation happens in memory over flat rows so averages
// with no samples stay null instead of zero.
type ReportService struct {
	reports  reportRepository
	students reportStudentRepository
	tutors   reportTutorRepository
	cache    reportCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs a ReportService instance. cache may be nil.
func NewReportService(reports reportRepository, students reportStudentRepository, tutors reportTutorRepository, cache reportCache, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:  reports,
		students: students,
		tutors:   tutors,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// StudentReport aggregates a student's full enrollment history.
func (s *ReportService) StudentReport(ctx context.Context, actor models.Actor, studentID string) (*models.StudentReport, error) {
	if err := s.authorizeStudentReport(ctx, actor, studentID); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reports:student:%s", studentID)
	if s.cache != nil {
		var cached models.StudentReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.students.FindDetailByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollments, err := s.reports.StudentEnrollments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	summary := models.StudentSummary{TotalEnrollments: len(enrollments)}
	var ratingSum, ratedCount int
	subjects := newFrequencyCounter()
	for _, e := range enrollments {
		switch e.Attendance {
		case models.AttendanceShowed:
			summary.Attendance.Showed++
		case models.AttendanceMissed:
			summary.Attendance.Missed++
		case models.AttendanceExcused:
			summary.Attendance.Excused++
		default:
			summary.Attendance.Pending++
		}
		if e.Rating != nil {
			ratingSum += *e.Rating
			ratedCount++
		}
		subjects.Add(e.SessionSubject, 1)
	}
	summary.AverageRating = average(ratingSum, ratedCount)
	summary.TopSubjects = subjects.Top(topSubjectsLimit)

	report := &models.StudentReport{
		Student:     *student,
		Summary:     summary,
		Enrollments: enrollments,
	}
	s.store(ctx, cacheKey, report)
	return report, nil
}

// TutorReport aggregates every session a tutor owns.
func (s *ReportService) TutorReport(ctx context.Context, actor models.Actor, tutorID string) (*models.TutorReport, error) {
	if err := s.authorizeTutorReport(ctx, actor, tutorID); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reports:tutor:%s", tutorID)
	if s.cache != nil {
		var cached models.TutorReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	tutor, err := s.tutors.FindDetailByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	stats, err := s.reports.TutorSessionStats(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session stats")
	}

	summary := models.TutorSummary{TotalSessions: len(stats)}
	sessions := make([]models.SessionSummary, 0, len(stats))
	var ratingSum, ratedCount int
	statuses := newFrequencyCounter()
	subjects := newFrequencyCounter()
	for _, st := range stats {
		summary.TotalEnrolled += st.Enrolled
		ratingSum += st.RatingSum
		ratedCount += st.RatedCount
		statuses.Add(string(st.Status), 1)
		subjects.Add(st.Subject, 1)
		sessions = append(sessions, sessionSummary(st))
	}
	summary.AverageRating = average(ratingSum, ratedCount)
	summary.ByStatus = statuses.Top(0)
	summary.TopSubjects = subjects.Top(topSubjectsLimit)

	report := &models.TutorReport{
		Tutor:    *tutor,
		Summary:  summary,
		Sessions: sessions,
	}
	s.store(ctx, cacheKey, report)
	return report, nil
}

// RangeReport aggregates every session starting inside the window. A nil
// window defaults to the current civil week, Monday through Sunday.
func (s *ReportService) RangeReport(ctx context.Context, actor models.Actor, from, to *time.Time) (*models.RangeReport, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may run range reports")
	}

	start, end := s.resolveWindow(from, to)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the range end precedes its start")
	}

	cacheKey := fmt.Sprintf("reports:range:%s:%s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	if s.cache != nil {
		var cached models.RangeReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.reports.RangeSessionStats(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session stats")
	}

	summary := models.RangeSummary{TotalSessions: len(stats)}
	sessions := make([]models.SessionSummary, 0, len(stats))
	var ratingSum, ratedCount int
	statuses := newFrequencyCounter()
	subjects := newFrequencyCounter()
	tutors := newFrequencyCounter()
	tutorNames := make(map[string]string)
	for _, st := range stats {
		summary.TotalEnrolled += st.Enrolled
		ratingSum += st.RatingSum
		ratedCount += st.RatedCount
		statuses.Add(string(st.Status), 1)
		subjects.Add(st.Subject, 1)
		// Tutors are counted by id so homonyms rank separately.
		tutors.Add(st.TutorID, 1)
		tutorNames[st.TutorID] = st.TutorName
		sessions = append(sessions, sessionSummary(st))
	}
	summary.AverageRating = average(ratingSum, ratedCount)
	summary.ByStatus = statuses.Top(0)
	summary.TopSubjects = subjects.Top(topSubjectsLimit)
	topTutors := tutors.Top(topSubjectsLimit)
	for i := range topTutors {
		topTutors[i].Key = tutorNames[topTutors[i].Key]
	}
	summary.TopTutors = topTutors

	report := &models.RangeReport{
		Range:    models.DateRange{From: start, To: end},
		Summary:  summary,
		Sessions: sessions,
	}
	s.store(ctx, cacheKey, report)
	return report, nil
}

// resolveWindow fills missing bounds with the current civil week. The week
// runs from the most recent Monday at midnight through Sunday end of day,
// in server-local time.
func (s *ReportService) resolveWindow(from, to *time.Time) (time.Time, time.Time) {
	if from != nil && to != nil {
		return *from, *to
	}

	now := s.now()
	offset := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 7).Add(-time.Millisecond)

	start, end := monday, sunday
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	return start, end
}

func (s *ReportService) authorizeStudentReport(ctx context.Context, actor models.Actor, studentID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleStudent {
		student, err := s.students.FindByUserID(ctx, actor.UserID)
		if err == nil && student.ID == studentID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you may only view your own report")
}

func (s *ReportService) authorizeTutorReport(ctx context.Context, actor models.Actor, tutorID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleTutor {
		tutor, err := s.tutors.FindByUserID(ctx, actor.UserID)
		if err == nil && tutor.ID == tutorID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you may only view your own report")
}

func (s *ReportService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache report", zap.String("key", key), zap.Error(err))
	}
}

func sessionSummary(st models.SessionStats) models.SessionSummary {
	return models.SessionSummary{
		ID:            st.ID,
		StartsAt:      st.StartsAt,
		Subject:       st.Subject,
		Topic:         st.Topic,
		Status:        st.Status,
		Enrolled:      st.Enrolled,
		AverageRating: average(st.RatingSum, st.RatedCount),
	}
}

// average returns nil when there are no samples so JSON renders null
// rather than a misleading zero.
func average(sum, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}

// frequencyCounter counts keys while remembering first-encounter order so
// ties rank deterministically.
type frequencyCounter struct {
	counts map[string]int
	order  []string
}

func newFrequencyCounter() *frequencyCounter {
	return &frequencyCounter{counts: make(map[string]int)}
}

func (c *frequencyCounter) Add(key string, n int) {
	if key == "" {
		return
	}
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// Top returns the highest-count entries, ties broken by first encounter.
// limit <= 0 returns every entry.
func (c *frequencyCounter) Top(limit int) []models.KeyCount {
	entries := make([]models.KeyCount, 0, len(c.order))
	for _, key := range c.order {
		entries = append(entries, models.KeyCount{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
