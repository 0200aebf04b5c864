package main

import (
	"net/url"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-portal-api/pkg/middleware/requestid"
)

type handlers struct {
	auth         *handler.AuthHandler
	users        *handler.UserHandler
	classes      *handler.ClassHandler
	subjects     *handler.SubjectHandler
	students     *handler.StudentHandler
	results      *handler.ResultHandler
	publications *handler.PublicationHandler
	publicResult *handler.PublicResultHandler
	news         *handler.NewsHandler
	gallery      *handler.GalleryHandler
	slides       *handler.SlideHandler
	facilities   *handler.FacilityHandler
	admissions   *handler.AdmissionHandler
	dashboard    *handler.DashboardHandler
	audit        *handler.AuditHandler
	metrics      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, tokens middleware.TokenValidator, audit middleware.AuditRecorder, observer middleware.HTTPObserver, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Media.Driver == config.MediaDriverLocal || cfg.Media.Driver == "" {
		r.Static(localMediaPath(cfg.Media.PublicBaseURL), cfg.Media.LocalDir)
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/public")
	{
		public.POST("/results/search", h.publicResult.Search)
		public.GET("/results/marksheet/:token", h.publicResult.Marksheet)
		public.GET("/news", h.news.PublicList)
		public.GET("/news/:slug", h.news.PublicGet)
		public.GET("/gallery", h.gallery.PublicCategories)
		public.GET("/gallery/:slug", h.gallery.PublicAlbum)
		public.GET("/slides", h.slides.PublicList)
		public.GET("/facilities", h.facilities.PublicList)
		public.GET("/facilities/:slug", h.facilities.PublicGet)
		public.POST("/admissions", h.admissions.Submit)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)
		auth.POST("/logout", h.auth.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(tokens, cfg.Cookie.AccessName))
	protected.GET("/auth/me", h.auth.Me)
	protected.POST("/auth/change-password", h.auth.ChangePassword)

	superadmin := protected.Group("")
	superadmin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	{
		superadmin.GET("/users", h.users.List)
		superadmin.GET("/users/:id", h.users.Get)
		superadmin.POST("/users", h.users.Create)
		superadmin.PUT("/users/:id", h.users.Update)
		superadmin.DELETE("/users/:id", h.users.Delete)
		superadmin.GET("/audit-logs", h.audit.List)
	}

	admin := protected.Group("")
	admin.Use(middleware.RequireAtLeast(models.RoleAdmin))
	{
		admin.GET("/classes", h.classes.List)
		admin.GET("/classes/:id", h.classes.Get)
		admin.POST("/classes", h.classes.Create)
		admin.PUT("/classes/:id", h.classes.Update)
		admin.DELETE("/classes/:id", h.classes.Delete)

		admin.GET("/classes/:id/subjects", h.subjects.ListByClass)
		admin.POST("/classes/:id/subjects", h.subjects.Create)
		admin.PUT("/classes/:id/subjects/reorder", h.subjects.Reorder)
		admin.GET("/subjects/:id", h.subjects.Get)
		admin.PUT("/subjects/:id", h.subjects.Update)
		admin.DELETE("/subjects/:id", h.subjects.Delete)

		admin.GET("/students", h.students.List)
		admin.GET("/students/:id", h.students.Get)
		admin.POST("/students", h.students.Create)
		admin.PUT("/students/:id", h.students.Update)
		admin.DELETE("/students/:id", h.students.Delete)

		admin.GET("/results", h.results.List)
		admin.GET("/results/export", middleware.Audit(audit, logr, models.AuditActionExport, models.AuditResourceResult), h.results.Export)
		admin.POST("/results/import", h.results.Import)
		admin.POST("/results/recalculate", h.results.Recalculate)
		admin.GET("/results/students/:studentId", h.results.GetByStudent)
		admin.PUT("/results/students/:studentId", h.results.UpsertMarks)
		admin.DELETE("/results/:id", h.results.Delete)

		admin.GET("/result-publications", h.publications.List)
		admin.GET("/result-publications/:academicYear", h.publications.Get)
		admin.PUT("/result-publications/:academicYear", h.publications.Upsert)
		admin.POST("/result-publications/:academicYear/publish", h.publications.Publish)
		admin.POST("/result-publications/:academicYear/unpublish", h.publications.Unpublish)
		admin.DELETE("/result-publications/:academicYear", h.publications.Delete)

		admin.GET("/admissions", h.admissions.List)
		admin.GET("/admissions/:id", h.admissions.Get)
		admin.PATCH("/admissions/:id/status", h.admissions.UpdateStatus)
	}

	editor := protected.Group("")
	editor.Use(middleware.RequireAtLeast(models.RoleEditor))
	{
		editor.GET("/dashboard", h.dashboard.Summary)

		editor.GET("/news", h.news.List)
		editor.GET("/news/:id", h.news.Get)
		editor.POST("/news", h.news.Create)
		editor.PUT("/news/:id", h.news.Update)
		editor.POST("/news/:id/cover", h.news.UploadCover)
		editor.DELETE("/news/:id", h.news.Delete)

		editor.GET("/gallery/categories", h.gallery.ListCategories)
		editor.GET("/gallery/categories/:id", h.gallery.Album)
		editor.POST("/gallery/categories", h.gallery.CreateCategory)
		editor.PUT("/gallery/categories/:id", h.gallery.UpdateCategory)
		editor.DELETE("/gallery/categories/:id", h.gallery.DeleteCategory)
		editor.POST("/gallery/categories/:id/images", h.gallery.UploadImage)
		editor.DELETE("/gallery/images/:id", h.gallery.DeleteImage)

		editor.GET("/slides", h.slides.List)
		editor.PUT("/slides/reorder", h.slides.Reorder)
		editor.GET("/slides/:id", h.slides.Get)
		editor.POST("/slides", h.slides.Create)
		editor.PUT("/slides/:id", h.slides.Update)
		editor.PATCH("/slides/:id/active", h.slides.SetActive)
		editor.POST("/slides/:id/image", h.slides.UploadImage)
		editor.DELETE("/slides/:id", h.slides.Delete)

		editor.GET("/facilities", h.facilities.List)
		editor.GET("/facilities/:id", h.facilities.Get)
		editor.POST("/facilities", h.facilities.Create)
		editor.PUT("/facilities/:id", h.facilities.Update)
		editor.POST("/facilities/:id/image", h.facilities.UploadImage)
		editor.DELETE("/facilities/:id", h.facilities.Delete)
	}

	return r
}

// localMediaPath returns the URL path the local media directory is served on.
func localMediaPath(publicBaseURL string) string {
	u, err := url.Parse(publicBaseURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/uploads"
	}
	return u.Path
}
