package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrSubmissionNotFound = errors.New("submission not found")
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// id-links resolved by the store on reads; membership questions are
	// answered by queries, never by traversing an object graph.
	LessonIDs     []string `json:"lesson_ids,omitempty"`
	StudentIDs    []string `json:"student_ids,omitempty"`
	InstructorIDs []string `json:"instructor_ids,omitempty"`
}

// Lesson belongs to exactly one Course.
type Lesson struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
}

// Submission is keyed by (StudentID, LessonID): at most one per student per
// lesson. Grade is absent until an instructor grades it.
type Submission struct {
	StudentID string       `json:"student_id"`
	LessonID  string       `json:"lesson_id"`
	Grade     null.Float64 `json:"grade"`
	CreatedAt time.Time    `json:"created_at"` // UTC
	UpdatedAt time.Time    `json:"updated_at"` // UTC
}

// Status is the derived completion state of a student's progress through a
// course. It is computed on demand, never persisted, and always reproducible
// from the current lesson/submission state.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// passingGrade is the COMPLETED threshold; inclusive, no rounding applied.
const passingGrade = 80.0

// Progress is one status record per (course, student) pair. FinalGrade is
// set only once every lesson of the course has a submission.
type Progress struct {
	CourseID   string       `json:"course_id"`
	Status     Status       `json:"status"`
	FinalGrade null.Float64 `json:"final_grade"`
}

type Repository interface {
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	GetCourseByID(ctx context.Context, id string) (Course, error)
	QueryAllCourses(ctx context.Context) ([]Course, error)

	CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
	GetLessonByID(ctx context.Context, id string) (Lesson, error)
	CountLessons(ctx context.Context, courseID string) (int, error)

	AddStudent(ctx context.Context, courseID, studentID string) error
	AddInstructor(ctx context.Context, courseID, instructorID string) error
	ExistsEnrollment(ctx context.Context, courseID, studentID string) (bool, error)
	ExistsInstructor(ctx context.Context, courseID, instructorID string) (bool, error)
	QueryCoursesByStudent(ctx context.Context, studentID string) ([]Course, error)

	// UpsertSubmission saves the submission for its (student, lesson) pair,
	// replacing any previous one (last write wins at the store layer).
	UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
	GetSubmission(ctx context.Context, studentID, lessonID string) (Submission, error)
	// FindSubmissions returns the student's submissions restricted to lessons
	// belonging to the given course.
	FindSubmissions(ctx context.Context, studentID, courseID string) ([]Submission, error)
}
