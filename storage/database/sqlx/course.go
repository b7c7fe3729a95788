package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hotaru-ritsuki/course-api-sub000/core/course"
)

type (
	courseRow struct {
		ID          string    `db:"id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	lessonRow struct {
		ID       string `db:"id"`
		CourseID string `db:"course_id"`
		Title    string `db:"title"`
	}

	submissionRow struct {
		StudentID string       `db:"student_id"`
		LessonID  string       `db:"lesson_id"`
		Grade     null.Float64 `db:"grade"`
		CreatedAt time.Time    `db:"created_at"`
		UpdatedAt time.Time    `db:"updated_at"`
	}
)

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r submissionRow) toSubmission() course.Submission {
	return course.Submission{
		StudentID: r.StudentID,
		LessonID:  r.LessonID,
		Grade:     r.Grade,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	crs.CreatedAt, crs.UpdatedAt = now, now

	q := `
INSERT INTO course (id, title, description, created_at, updated_at)
VALUES (:id, :title, :description, :created_at, :updated_at)`
	row := courseRow{ID: crs.ID, Title: crs.Title, Description: crs.Description, CreatedAt: crs.CreatedAt, UpdatedAt: crs.UpdatedAt}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return repo.link(ctx, row.toCourse())
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return repo.linkAll(ctx, rows)
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	if lsn.ID == "" {
		lsn.ID = uuid.New().String()
	}
	q := `INSERT INTO lesson (id, course_id, title) VALUES (:id, :course_id, :title)`
	row := lessonRow{ID: lsn.ID, CourseID: lsn.CourseID, Title: lsn.Title}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Lesson{}, course.ErrLessonNotFound
		}
		return course.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return course.Lesson{ID: row.ID, CourseID: row.CourseID, Title: row.Title}, nil
}

func (repo *courseRepository) CountLessons(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM lesson WHERE course_id = $1`, courseID); err != nil {
		return 0, errors.Wrap(err, "counting lessons")
	}
	return count, nil
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID, studentID string) error {
	q := `INSERT INTO enrollment (course_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, courseID, studentID); err != nil {
		return errors.Wrap(err, "inserting enrollment")
	}
	return nil
}

func (repo *courseRepository) AddInstructor(ctx context.Context, courseID, instructorID string) error {
	q := `INSERT INTO assignment (course_id, instructor_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, courseID, instructorID); err != nil {
		return errors.Wrap(err, "inserting assignment")
	}
	return nil
}

func (repo *courseRepository) ExistsEnrollment(ctx context.Context, courseID, studentID string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM enrollment WHERE course_id = $1 AND student_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, q, courseID, studentID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return exists, nil
}

func (repo *courseRepository) ExistsInstructor(ctx context.Context, courseID, instructorID string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM assignment WHERE course_id = $1 AND instructor_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, q, courseID, instructorID); err != nil {
		return false, errors.Wrap(err, "checking instructor assignment")
	}
	return exists, nil
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	var rows []courseRow
	q := `
SELECT c.* FROM course c
JOIN enrollment e ON e.course_id = c.id
WHERE e.student_id = $1
ORDER BY c.id`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying courses by student")
	}
	return repo.linkAll(ctx, rows)
}

func (repo *courseRepository) UpsertSubmission(ctx context.Context, sub course.Submission) (course.Submission, error) {
	now := time.Now().UTC()
	sub.CreatedAt, sub.UpdatedAt = now, now

	q := `
INSERT INTO submission (student_id, lesson_id, grade, created_at, updated_at)
VALUES (:student_id, :lesson_id, :grade, :created_at, :updated_at)
ON CONFLICT (student_id, lesson_id)
DO UPDATE SET grade = EXCLUDED.grade, updated_at = EXCLUDED.updated_at`
	row := submissionRow{StudentID: sub.StudentID, LessonID: sub.LessonID, Grade: sub.Grade, CreatedAt: sub.CreatedAt, UpdatedAt: sub.UpdatedAt}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return repo.GetSubmission(ctx, sub.StudentID, sub.LessonID)
}

func (repo *courseRepository) GetSubmission(ctx context.Context, studentID, lessonID string) (course.Submission, error) {
	var row submissionRow
	q := `SELECT * FROM submission WHERE student_id = $1 AND lesson_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, studentID, lessonID); err != nil {
		if err == sql.ErrNoRows {
			return course.Submission{}, course.ErrSubmissionNotFound
		}
		return course.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.toSubmission(), nil
}

func (repo *courseRepository) FindSubmissions(ctx context.Context, studentID, courseID string) ([]course.Submission, error) {
	var rows []submissionRow
	q := `
SELECT s.* FROM submission s
JOIN lesson l ON l.id = s.lesson_id
WHERE s.student_id = $1 AND l.course_id = $2
ORDER BY s.lesson_id`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID, courseID); err != nil {
		return nil, errors.Wrap(err, "finding submissions")
	}
	subs := make([]course.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toSubmission())
	}
	return subs, nil
}

// link resolves the course's id-link slices.
func (repo *courseRepository) link(ctx context.Context, crs course.Course) (course.Course, error) {
	if err := repo.db.SelectContext(ctx, &crs.LessonIDs,
		`SELECT id FROM lesson WHERE course_id = $1 ORDER BY id`, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying lesson ids")
	}
	if err := repo.db.SelectContext(ctx, &crs.StudentIDs,
		`SELECT student_id FROM enrollment WHERE course_id = $1 ORDER BY student_id`, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying student ids")
	}
	if err := repo.db.SelectContext(ctx, &crs.InstructorIDs,
		`SELECT instructor_id FROM assignment WHERE course_id = $1 ORDER BY instructor_id`, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying instructor ids")
	}
	return crs, nil
}

func (repo *courseRepository) linkAll(ctx context.Context, rows []courseRow) ([]course.Course, error) {
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		crs, err := repo.link(ctx, row.toCourse())
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}
