// Package inmemdb is a mutex-guarded in-memory store used in dev mode and as
// the test fixture. It honors read-your-writes: anything saved is visible to
// the immediately following check.
package inmemdb

import (
	"sync"

	"github.com/hotaru-ritsuki/course-api-sub000/core/course"
	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

type (
	linkKey struct {
		courseID string
		userID   string
	}

	submissionKey struct {
		studentID string
		lessonID  string
	}

	DB struct {
		mu          sync.RWMutex
		users       map[string]*user.User
		courses     map[string]*course.Course
		lessons     map[string]*course.Lesson
		enrollments map[linkKey]struct{}
		assignments map[linkKey]struct{}
		submissions map[submissionKey]*course.Submission
	}
)

func Open() (*DB, error) {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		lessons:     make(map[string]*course.Lesson),
		enrollments: make(map[linkKey]struct{}),
		assignments: make(map[linkKey]struct{}),
		submissions: make(map[submissionKey]*course.Submission),
	}, nil
}
