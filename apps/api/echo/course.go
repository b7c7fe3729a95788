package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core/course"
	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

type courseApi struct {
	repo      course.Repository
	access    *course.Validator
	evaluator *course.Evaluator
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, repo course.Repository) {
	api := courseApi{
		repo:      repo,
		access:    course.NewValidator(repo),
		evaluator: course.NewEvaluator(repo),
	}

	authed := []echo.MiddlewareFunc{jwt, accessTokenMiddleware(), principalMiddleware(svc)}

	cg := g.Group("/courses", authed...)
	cg.GET("", api.queryCourses)
	cg.GET("/mine", api.myCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.GET("/:id/status", api.courseStatus)

	lg := g.Group("/lessons", authed...)
	lg.GET("/:id", api.retrieveLesson)
	lg.GET("/:id/submissions/:studentId", api.retrieveSubmission)
}

// principalMiddleware resolves the authenticated principal and makes it
// available to the domain layer through the request context.
func principalMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(user.NewContext(req.Context(), usr)))
			return next(ctx)
		}
	}
}

// Handlers

// queryCourses lists all courses; admin only. Students and instructors only
// ever see courses they are linked to.
func (api *courseApi) queryCourses(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.access.CurrentPrincipal(reqCtx)
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return course.ErrAccessDenied
	}

	courses, err := api.repo.QueryAllCourses(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) myCourses(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.access.CurrentPrincipal(reqCtx)
	if err != nil {
		return err
	}

	records, err := api.evaluator.GetMyCourses(reqCtx, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *courseApi) retrieveCourse(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.access.CurrentPrincipal(reqCtx)
	if err != nil {
		return err
	}

	courseID := ctx.Param("id")
	if err = api.access.AuthorizeCourseAccess(reqCtx, &usr, courseID, user.AllRoles...); err != nil {
		return err
	}

	crs, err := api.repo.GetCourseByID(reqCtx, courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

// courseStatus reports the calling student's progress; instructors and admins
// may ask for a specific student via ?student_id=.
func (api *courseApi) courseStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.access.CurrentPrincipal(reqCtx)
	if err != nil {
		return err
	}

	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		studentID = usr.ID
	}
	if usr.IsStudent() && studentID != usr.ID {
		return course.ErrAccessDenied
	}

	courseID := ctx.Param("id")
	if err = api.access.AuthorizeCourseAccess(reqCtx, &usr, courseID, user.AllRoles...); err != nil {
		return err
	}

	rec, err := api.evaluator.GetCourseStatus(reqCtx, courseID, studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *courseApi) retrieveLesson(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.access.CurrentPrincipal(reqCtx)
	if err != nil {
		return err
	}

	lessonID := ctx.Param("id")
	if err = api.access.AuthorizeLessonAccess(reqCtx, &usr, lessonID); err != nil {
		return err
	}

	lsn, err := api.repo.GetLessonByID(reqCtx, lessonID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) retrieveSubmission(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.access.CurrentPrincipal(reqCtx)
	if err != nil {
		return err
	}

	lessonID := ctx.Param("id")
	studentID := ctx.Param("studentId")
	if err = api.access.AuthorizeSubmissionAccess(reqCtx, &usr, lessonID, studentID); err != nil {
		return err
	}

	sub, err := api.repo.GetSubmission(reqCtx, studentID, lessonID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
