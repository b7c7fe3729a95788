package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/hotaru-ritsuki/course-api-sub000/core/course"
	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

type courseFixture struct {
	crs        course.Course
	lessonIDs  []string
	student    user.User
	instructor user.User
	admin      user.User
	outsider   user.User
}

// seedCourse creates a course with graded lessons for one enrolled student,
// plus an assigned instructor, an admin and an unaffiliated student.
func seedCourse(t *testing.T, lessonCount int, grades []float64) courseFixture {
	t.Helper()
	ctx := context.Background()

	fix := courseFixture{
		student:    createUser(t, "student@test.cd", "Sup€rStr0ng", user.RoleStudent),
		instructor: createUser(t, "prof@test.cd", "Sup€rStr0ng", user.RoleInstructor),
		admin:      createUser(t, "boss@test.cd", "Sup€rStr0ng", user.RoleAdmin),
		outsider:   createUser(t, "other@test.cd", "Sup€rStr0ng", user.RoleStudent),
	}

	crs, err := crsRepo.CreateCourse(ctx, course.Course{Title: "Algorithms 101"})
	require.NoError(t, err)
	fix.crs = crs

	for i := 0; i < lessonCount; i++ {
		lsn, err := crsRepo.CreateLesson(ctx, course.Lesson{CourseID: crs.ID, Title: fmt.Sprintf("Lesson %d", i+1)})
		require.NoError(t, err)
		fix.lessonIDs = append(fix.lessonIDs, lsn.ID)
	}

	require.NoError(t, crsRepo.AddStudent(ctx, crs.ID, fix.student.ID))
	require.NoError(t, crsRepo.AddInstructor(ctx, crs.ID, fix.instructor.ID))

	for i, grade := range grades {
		_, err = crsRepo.UpsertSubmission(ctx, course.Submission{
			StudentID: fix.student.ID,
			LessonID:  fix.lessonIDs[i],
			Grade:     null.Float64From(grade),
		})
		require.NoError(t, err)
	}
	return fix
}

func TestCourseAPI_courseStatus(t *testing.T) {
	app := setup(t)
	fix := seedCourse(t, 5, []float64{85, 90, 82, 88, 91})
	statusPath := fmt.Sprintf("/v1/courses/%s/status", fix.crs.ID)

	t.Run("completed course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, statusPath, getToken(t, fix.student))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rec2 course.Progress
		decodeBody(t, rec, &rec2)
		assert.Equal(t, course.StatusCompleted, rec2.Status)
		assert.Equal(t, 87.2, rec2.FinalGrade.Float64)
	})

	t.Run("instructor asks for a student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, statusPath+"?student_id="+fix.student.ID, getToken(t, fix.instructor))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("student asks for another student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, statusPath+"?student_id="+fix.outsider.ID, getToken(t, fix.student))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unenrolled student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, statusPath, getToken(t, fix.outsider))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin asks for an unenrolled student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, statusPath+"?student_id="+fix.outsider.ID, getToken(t, fix.admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "enrollment check still applies")
	})

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, statusPath)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCourseAPI_myCourses(t *testing.T) {
	app := setup(t)
	fix := seedCourse(t, 2, []float64{90, 80})

	t.Run("student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/mine", getToken(t, fix.student))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var records []course.Progress
		decodeBody(t, rec, &records)
		require.Len(t, records, 1)
		assert.Equal(t, fix.crs.ID, records[0].CourseID)
		assert.Equal(t, course.StatusCompleted, records[0].Status)
		assert.Equal(t, 85.0, records[0].FinalGrade.Float64)
	})

	t.Run("student with no enrollments", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/mine", getToken(t, fix.outsider))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var records []course.Progress
		decodeBody(t, rec, &records)
		assert.Empty(t, records)
	})

	t.Run("instructor has no completion view", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/mine", getToken(t, fix.instructor))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin has no completion view", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/mine", getToken(t, fix.admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCourseAPI_retrieve(t *testing.T) {
	app := setup(t)
	fix := seedCourse(t, 1, nil)

	coursePath := "/v1/courses/" + fix.crs.ID
	lessonPath := "/v1/lessons/" + fix.lessonIDs[0]

	tests := []httpTest{
		{name: "course: enrolled student", method: http.MethodGet, path: coursePath, token: getToken(t, fix.student), wantCode: http.StatusOK},
		{name: "course: assigned instructor", method: http.MethodGet, path: coursePath, token: getToken(t, fix.instructor), wantCode: http.StatusOK},
		{name: "course: admin", method: http.MethodGet, path: coursePath, token: getToken(t, fix.admin), wantCode: http.StatusOK},
		{name: "course: unenrolled student", method: http.MethodGet, path: coursePath, token: getToken(t, fix.outsider), wantCode: http.StatusForbidden},
		{name: "course: no token", method: http.MethodGet, path: coursePath, wantCode: http.StatusUnauthorized},
		{name: "course: unknown id", method: http.MethodGet, path: "/v1/courses/nope", token: getToken(t, fix.admin), wantCode: http.StatusNotFound},
		{name: "lesson: enrolled student", method: http.MethodGet, path: lessonPath, token: getToken(t, fix.student), wantCode: http.StatusOK},
		{name: "lesson: unenrolled student", method: http.MethodGet, path: lessonPath, token: getToken(t, fix.outsider), wantCode: http.StatusForbidden},
		{name: "lesson: unknown id", method: http.MethodGet, path: "/v1/lessons/nope", token: getToken(t, fix.admin), wantCode: http.StatusForbidden},
		{name: "all courses: admin", method: http.MethodGet, path: "/v1/courses", token: getToken(t, fix.admin), wantCode: http.StatusOK},
		{name: "all courses: student", method: http.MethodGet, path: "/v1/courses", token: getToken(t, fix.student), wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestCourseAPI_retrieveSubmission(t *testing.T) {
	app := setup(t)
	fix := seedCourse(t, 1, []float64{75})
	path := fmt.Sprintf("/v1/lessons/%s/submissions/%s", fix.lessonIDs[0], fix.student.ID)

	t.Run("own submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, fix.student))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sub course.Submission
		decodeBody(t, rec, &sub)
		assert.Equal(t, 75.0, sub.Grade.Float64)
	})

	t.Run("assigned instructor", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, fix.instructor))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("another student's submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, fix.outsider))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ungraded lesson has no submission", func(t *testing.T) {
		missing := fmt.Sprintf("/v1/lessons/%s/submissions/%s", fix.lessonIDs[0], fix.outsider.ID)
		req, rec := newAuthRequest(http.MethodGet, missing, getToken(t, fix.admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
