package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/middleware"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth            *AuthHandler
	GradeLevels     *GradeLevelHandler
	Subjects        *SubjectHandler
	Semesters       *SemesterHandler
	AssessmentTypes *AssessmentTypeHandler
	YearParameters  *YearParametersHandler
	Classes         *ClassHandler
	Enrollments     *EnrollmentHandler
	Students        *StudentHandler
	Scores          *ScoreHandler
	Lookups         *LookupHandler
	Reports         *ReportHandler
}

// RegisterRoutes mounts the API on api. Download links carry their own signature and stay public.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/reports/download/:token", h.Reports.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(tokens))
	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/grade-levels", h.GradeLevels.List)
		admin.POST("/grade-levels", h.GradeLevels.Create)
		admin.PUT("/grade-levels/:id", h.GradeLevels.Update)
		admin.DELETE("/grade-levels/:id", h.GradeLevels.Delete)

		admin.GET("/subjects", h.Subjects.List)
		admin.POST("/subjects", h.Subjects.Create)
		admin.GET("/subjects/:id", h.Subjects.Get)
		admin.PUT("/subjects/:id", h.Subjects.Update)
		admin.DELETE("/subjects/:id", h.Subjects.Delete)

		admin.GET("/semesters", h.Semesters.List)
		admin.POST("/semesters", h.Semesters.Create)
		admin.GET("/semesters/:id", h.Semesters.Get)
		admin.PUT("/semesters/:id", h.Semesters.Update)
		admin.DELETE("/semesters/:id", h.Semesters.Delete)

		admin.GET("/assessment-types", h.AssessmentTypes.List)
		admin.POST("/assessment-types", h.AssessmentTypes.Create)
		admin.PUT("/assessment-types/:id", h.AssessmentTypes.Update)
		admin.DELETE("/assessment-types/:id", h.AssessmentTypes.Delete)

		admin.GET("/year-parameters", h.YearParameters.List)
		admin.POST("/year-parameters", h.YearParameters.Create)
		admin.GET("/year-parameters/years/:yearId", h.YearParameters.GetByYear)
		admin.PUT("/year-parameters/years/:yearId", h.YearParameters.UpdateByYear)
		admin.PUT("/year-parameters/years/:yearId/upsert", h.YearParameters.Upsert)
		admin.DELETE("/year-parameters/years/:yearId", h.YearParameters.DeleteByYear)
		admin.GET("/year-parameters/:id", h.YearParameters.Get)
		admin.PUT("/year-parameters/:id", h.YearParameters.Update)
		admin.DELETE("/year-parameters/:id", h.YearParameters.Delete)

		admin.POST("/classes", h.Classes.Create)
	}

	staff := authed.Group("")
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		staff.GET("/classes", h.Classes.List)
		staff.GET("/classes/:classId", h.Classes.Get)
		staff.GET("/classes/:classId/semesters/:semesterId/students", h.Enrollments.List)
		staff.POST("/classes/:classId/semesters/:semesterId/students", h.Enrollments.Enroll)
		staff.POST("/classes/:classId/semesters/:semesterId/subjects/:subjectId/scores", h.Scores.Enter)

		staff.GET("/students/search", h.Students.Search)
		staff.GET("/students/:id", h.Students.Get)
		staff.PUT("/students/:id", h.Students.Update)
		staff.DELETE("/students/:id", h.Students.Delete)

		staff.POST("/reports/gradebook", h.Reports.Generate)
	}

	authed.GET("/students/:id/scores",
		middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.SelfStudent),
		h.Lookups.StudentScores)

	me := authed.Group("/me")
	me.Use(middleware.RequireRoles(models.RoleStudent))
	{
		me.GET("/classes", h.Lookups.MyClasses)
		me.GET("/semesters/:semesterId/scores", h.Lookups.MyScores)
	}
}
