package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

// ErrAccessDenied is returned for every authorization failure: missing
// principal, missing resource, or an ownership chain that cannot be resolved.
var ErrAccessDenied = errors.New("access denied")

// Validator answers "may this principal perform this operation on this
// resource?" from identifiers only. Every check is fail-closed: any ambiguity
// denies rather than defaulting to permit.
//
// The principal is always an explicit parameter; a nil principal is the
// "no authenticated context" case and denies unconditionally.
type Validator struct {
	repo Repository
}

func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo}
}

// CurrentPrincipal resolves the authenticated principal from the request
// context. Outside of an authenticated request scope it always fails.
func (v *Validator) CurrentPrincipal(ctx context.Context) (user.User, error) {
	usr, ok := user.FromContext(ctx)
	if !ok {
		return user.User{}, ErrAccessDenied
	}
	return usr, nil
}

// AuthorizeCourseAccess checks that usr's role is one of allowedRoles and,
// for non-admin roles, that usr is linked to the course (student enrolled /
// instructor assigned). Admins bypass the ownership check.
func (v *Validator) AuthorizeCourseAccess(ctx context.Context, usr *user.User, courseID string, allowedRoles ...string) error {
	if usr == nil || usr.ID == "" {
		return ErrAccessDenied
	}
	if !roleAllowed(usr.Role, allowedRoles) {
		return ErrAccessDenied
	}
	if usr.IsAdmin() {
		return nil
	}

	// the course must exist for any ownership edge to resolve
	if _, err := v.repo.GetCourseByID(ctx, courseID); err != nil {
		return ErrAccessDenied
	}

	switch {
	case usr.IsStudent():
		return v.requireLink(v.repo.ExistsEnrollment(ctx, courseID, usr.ID))
	case usr.IsInstructor():
		return v.requireLink(v.repo.ExistsInstructor(ctx, courseID, usr.ID))
	}
	return ErrAccessDenied
}

// AuthorizeCourseFeedbackAccess allows any principal linked to the course to
// read or leave feedback.
func (v *Validator) AuthorizeCourseFeedbackAccess(ctx context.Context, usr *user.User, courseID string) error {
	return v.AuthorizeCourseAccess(ctx, usr, courseID, user.AllRoles...)
}

// AuthorizeLessonAccess resolves the lesson's owning course and applies the
// course access rule.
func (v *Validator) AuthorizeLessonAccess(ctx context.Context, usr *user.User, lessonID string) error {
	if usr == nil || usr.ID == "" {
		return ErrAccessDenied
	}
	lsn, err := v.repo.GetLessonByID(ctx, lessonID)
	if err != nil {
		return ErrAccessDenied
	}
	return v.AuthorizeCourseAccess(ctx, usr, lsn.CourseID, user.AllRoles...)
}

// AuthorizeHomeworkAccess guards a student's homework upload for a lesson.
// A student may only act on their own homework; instructors must be assigned
// to the owning course; admins bypass.
func (v *Validator) AuthorizeHomeworkAccess(ctx context.Context, usr *user.User, lessonID, studentID string) error {
	return v.authorizeStudentScoped(ctx, usr, lessonID, studentID)
}

// AuthorizeSubmissionAccess guards submission reads/grading for a lesson.
// When studentID is omitted a student acts on their own submission.
func (v *Validator) AuthorizeSubmissionAccess(ctx context.Context, usr *user.User, lessonID string, studentID ...string) error {
	if usr == nil || usr.ID == "" {
		return ErrAccessDenied
	}
	sid := usr.ID
	if len(studentID) > 0 && studentID[0] != "" {
		sid = studentID[0]
	}
	return v.authorizeStudentScoped(ctx, usr, lessonID, sid)
}

func (v *Validator) authorizeStudentScoped(ctx context.Context, usr *user.User, lessonID, studentID string) error {
	if usr == nil || usr.ID == "" {
		return ErrAccessDenied
	}
	lsn, err := v.repo.GetLessonByID(ctx, lessonID)
	if err != nil {
		return ErrAccessDenied
	}

	switch {
	case usr.IsAdmin():
		return nil
	case usr.IsStudent():
		if usr.ID != studentID {
			return ErrAccessDenied
		}
		return v.requireLink(v.repo.ExistsEnrollment(ctx, lsn.CourseID, usr.ID))
	case usr.IsInstructor():
		return v.requireLink(v.repo.ExistsInstructor(ctx, lsn.CourseID, usr.ID))
	}
	return ErrAccessDenied
}

func (v *Validator) requireLink(linked bool, err error) error {
	if err != nil || !linked {
		return ErrAccessDenied
	}
	return nil
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
