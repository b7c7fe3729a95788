package course

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

var (
	ErrStudentNotEnrolled = errors.New("student is not enrolled in this course")
	ErrIllegalRoleAccess  = errors.New("only students have a course progress view")
)

// Evaluator derives a student's completion status and final grade from the
// current lesson/submission state. Nothing is persisted; every evaluation is
// reproducible and idempotent.
type Evaluator struct {
	repo Repository
}

func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// GetCourseStatus computes the status record for one (course, student) pair.
// It fails with ErrStudentNotEnrolled when no enrollment exists, regardless
// of submission data.
func (e *Evaluator) GetCourseStatus(ctx context.Context, courseID, studentID string) (Progress, error) {
	enrolled, err := e.repo.ExistsEnrollment(ctx, courseID, studentID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Progress{}, ErrStudentNotEnrolled
	}
	return e.evaluate(ctx, courseID, studentID)
}

// GetMyCourses computes one status record per course the student is enrolled
// in. Only students have a personal completion view.
func (e *Evaluator) GetMyCourses(ctx context.Context, usr user.User) ([]Progress, error) {
	if !usr.IsStudent() {
		return nil, ErrIllegalRoleAccess
	}

	courses, err := e.repo.QueryCoursesByStudent(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrolled courses")
	}

	records := make([]Progress, 0, len(courses))
	for _, crs := range courses {
		rec, err := e.evaluate(ctx, crs.ID, usr.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// evaluate applies the status state machine:
//
//	|S| < L  -> IN_PROGRESS, no grade
//	|S| >= L -> COMPLETED iff average >= 80.0, else FAILED
//
// where L is the course's lesson count and S the student's submissions for
// that course. An ungraded submission counts as 0 toward the average; this is
// a business rule, not error suppression. A course with no lessons stays
// IN_PROGRESS: there is nothing to average and nothing to complete.
func (e *Evaluator) evaluate(ctx context.Context, courseID, studentID string) (Progress, error) {
	lessonCount, err := e.repo.CountLessons(ctx, courseID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "counting lessons")
	}

	subs, err := e.repo.FindSubmissions(ctx, studentID, courseID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "finding submissions")
	}

	if lessonCount == 0 || len(subs) < lessonCount {
		return Progress{CourseID: courseID, Status: StatusInProgress}, nil
	}

	var sum float64
	for _, sub := range subs {
		sum += sub.Grade.Float64 // invalid grade reads as 0
	}
	finalGrade := sum / float64(len(subs))

	status := StatusFailed
	if finalGrade >= passingGrade {
		status = StatusCompleted
	}
	return Progress{
		CourseID:   courseID,
		Status:     status,
		FinalGrade: null.Float64From(finalGrade),
	}, nil
}
