package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hotaru-ritsuki/course-api-sub000/core/course"
)

type courseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	crs.CreatedAt, crs.UpdatedAt = now, now
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return repo.link(*crs), nil
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, repo.link(*crs))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *courseRepository) CreateLesson(_ context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[lsn.CourseID]; !ok {
		return course.Lesson{}, course.ErrNotFound
	}
	if lsn.ID == "" {
		lsn.ID = uuid.New().String()
	}
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) GetLessonByID(_ context.Context, id string) (course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lsn, ok := repo.db.lessons[id]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	return *lsn, nil
}

func (repo *courseRepository) CountLessons(_ context.Context, courseID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, lsn := range repo.db.lessons {
		if lsn.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (repo *courseRepository) AddStudent(_ context.Context, courseID, studentID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[courseID]; !ok {
		return course.ErrNotFound
	}
	repo.db.enrollments[linkKey{courseID, studentID}] = struct{}{}
	return nil
}

func (repo *courseRepository) AddInstructor(_ context.Context, courseID, instructorID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[courseID]; !ok {
		return course.ErrNotFound
	}
	repo.db.assignments[linkKey{courseID, instructorID}] = struct{}{}
	return nil
}

func (repo *courseRepository) ExistsEnrollment(_ context.Context, courseID, studentID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.enrollments[linkKey{courseID, studentID}]
	return ok, nil
}

func (repo *courseRepository) ExistsInstructor(_ context.Context, courseID, instructorID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.assignments[linkKey{courseID, instructorID}]
	return ok, nil
}

func (repo *courseRepository) QueryCoursesByStudent(_ context.Context, studentID string) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var courses []course.Course
	for key := range repo.db.enrollments {
		if key.userID != studentID {
			continue
		}
		if crs, ok := repo.db.courses[key.courseID]; ok {
			courses = append(courses, repo.link(*crs))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *courseRepository) UpsertSubmission(_ context.Context, sub course.Submission) (course.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.lessons[sub.LessonID]; !ok {
		return course.Submission{}, course.ErrLessonNotFound
	}
	now := time.Now().UTC()
	key := submissionKey{sub.StudentID, sub.LessonID}
	if prev, ok := repo.db.submissions[key]; ok {
		sub.CreatedAt = prev.CreatedAt
	} else {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	repo.db.submissions[key] = &sub
	return sub, nil
}

func (repo *courseRepository) GetSubmission(_ context.Context, studentID, lessonID string) (course.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sub, ok := repo.db.submissions[submissionKey{studentID, lessonID}]
	if !ok {
		return course.Submission{}, course.ErrSubmissionNotFound
	}
	return *sub, nil
}

func (repo *courseRepository) FindSubmissions(_ context.Context, studentID, courseID string) ([]course.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var subs []course.Submission
	for key, sub := range repo.db.submissions {
		if key.studentID != studentID {
			continue
		}
		if lsn, ok := repo.db.lessons[key.lessonID]; ok && lsn.CourseID == courseID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].LessonID < subs[j].LessonID })
	return subs, nil
}

// link fills the course's id-link slices from the link tables.
func (repo *courseRepository) link(crs course.Course) course.Course {
	for id, lsn := range repo.db.lessons {
		if lsn.CourseID == crs.ID {
			crs.LessonIDs = append(crs.LessonIDs, id)
		}
	}
	for key := range repo.db.enrollments {
		if key.courseID == crs.ID {
			crs.StudentIDs = append(crs.StudentIDs, key.userID)
		}
	}
	for key := range repo.db.assignments {
		if key.courseID == crs.ID {
			crs.InstructorIDs = append(crs.InstructorIDs, key.userID)
		}
	}
	sort.Strings(crs.LessonIDs)
	sort.Strings(crs.StudentIDs)
	sort.Strings(crs.InstructorIDs)
	return crs
}
