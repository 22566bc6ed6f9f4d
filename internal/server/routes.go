// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"prepsphere-backend/internal/auth"
	"prepsphere-backend/internal/controller/event"
	"prepsphere-backend/internal/controller/file"
	"prepsphere-backend/internal/controller/job"
	"prepsphere-backend/internal/controller/notification"
	"prepsphere-backend/internal/controller/tpo"
	"prepsphere-backend/internal/controller/user"
	"prepsphere-backend/internal/controller/webhook"
	"prepsphere-backend/internal/middleware"
	"prepsphere-backend/internal/model"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	allowOriginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrigins := strings.Split(allowOriginsStr, ",")

	lAuth := auth.NewLocalAuthHandler(s.DB)
	userCtrl := user.NewUserController(s.DB)
	tpoCtrl := tpo.NewTPOController(s.DB, s.Mail)
	jobCtrl := job.NewJobController(s.DB)
	eventCtrl := event.NewEventController(s.DB)
	fileCtrl := file.NewFileController(s.DB, s.Store, s.Mail)
	notifCtrl := notification.NewNotificationController(s.DB, s.Mail)
	hookCtrl := webhook.NewWebhookController(s.DB)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.SafeHeader())

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)

	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("login", lAuth.LocalLoginHandler)
		}

		v1.POST("/webhooks/clerk", hookCtrl.HandleClerkWebhook)
		v1.POST("/users/register", userCtrl.Register)

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.RequireAuth(s.DB), middleware.EnvRateLimitMiddleware())

			userRoute := needAuth.Group("/users")
			{
				userRoute.GET(":user_id", userCtrl.GetUserByID)
				userRoute.GET("clerk/:clerk_user_id", userCtrl.GetUserByClerkID)
				userRoute.GET("by-email/:email", userCtrl.GetUserByEmail)
				userRoute.PUT(":user_id", userCtrl.UpdateUser)
				userRoute.GET(":user_id/profile", userCtrl.GetProfile)
				userRoute.POST(":user_id/profile", userCtrl.SubmitProfile)
				userRoute.DELETE(":user_id", middleware.CheckRole(model.RoleAdmin), userCtrl.DeleteUser)
			}

			jobRoute := needAuth.Group("/jobs")
			{
				jobRoute.GET("", jobCtrl.ListJobs)
				jobRoute.GET("all", jobCtrl.ListAllJobs)
				jobRoute.GET(":job_id", jobCtrl.GetJob)
				jobRoute.POST(":job_id/apply", jobCtrl.Apply)

				jobRoute.Use(middleware.CheckRole(model.RoleTPO, model.RoleAdmin))
				jobRoute.POST("", jobCtrl.CreateJob)
				jobRoute.PUT(":job_id", jobCtrl.UpdateJob)
				jobRoute.DELETE(":job_id", jobCtrl.DeleteJob)
				jobRoute.GET(":job_id/applications", jobCtrl.JobApplications)
			}

			eventRoute := needAuth.Group("/events")
			{
				eventRoute.GET("", eventCtrl.ListEvents)
				eventRoute.GET(":event_id", eventCtrl.GetEvent)
				eventRoute.POST(":event_id/register", eventCtrl.Register)

				eventRoute.Use(middleware.CheckRole(model.RoleTPO, model.RoleAdmin))
				eventRoute.POST("", eventCtrl.CreateEvent)
				eventRoute.PUT(":event_id", eventCtrl.UpdateEvent)
				eventRoute.GET(":event_id/registrations", eventCtrl.Registrations)
				eventRoute.POST(":event_id/remind", eventCtrl.SendReminders)
			}

			fileRoute := needAuth.Group("/files")
			{
				fileRoute.POST("upload", middleware.SizeLimit(1<<20), fileCtrl.Upload)
				fileRoute.POST("upload/form", middleware.SizeLimit(1<<20), fileCtrl.UploadMultipart)
				fileRoute.GET("user/:user_id", fileCtrl.ListByUser)
				fileRoute.GET(":file_id", fileCtrl.GetFile)
				fileRoute.GET(":file_id/download", fileCtrl.Download)
				fileRoute.GET(":file_id/url", fileCtrl.Presigned)
				fileRoute.POST(":file_id/primary", fileCtrl.SetPrimary)

				fileRoute.Use(middleware.CheckRole(model.RoleTPO, model.RoleAdmin))
				fileRoute.POST(":file_id/verify", fileCtrl.Verify)
				fileRoute.POST(":file_id/reject", fileCtrl.Reject)
				fileRoute.DELETE(":file_id", fileCtrl.DeleteFile)
			}

			notifRoute := needAuth.Group("/notifications")
			{
				notifRoute.GET("user/:user_id", notifCtrl.ListByUser)
				notifRoute.PUT(":notification_id/read", notifCtrl.MarkRead)
				notifRoute.PUT("user/:user_id/read-all", notifCtrl.MarkAllRead)
				notifRoute.DELETE(":notification_id", notifCtrl.Delete)

				notifRoute.Use(middleware.CheckRole(model.RoleTPO, model.RoleAdmin))
				notifRoute.POST("", notifCtrl.Create)
				notifRoute.POST("broadcast", notifCtrl.Broadcast)
			}

			needTPO := needAuth.Group("/tpo")
			{
				needTPO.Use(middleware.CheckRole(model.RoleTPO, model.RoleAdmin))
				needTPO.GET("profiles/pending", tpoCtrl.PendingProfiles)
				needTPO.POST("profiles/:user_id/approve", tpoCtrl.ApproveProfile)
				needTPO.POST("profiles/:user_id/reject", tpoCtrl.RejectProfile)
				needTPO.GET("students/approved", tpoCtrl.ApprovedStudents)
				needTPO.PUT("students/:user_id/placement", tpoCtrl.UpdatePlacement)
				needTPO.GET("files/pending", tpoCtrl.PendingFiles)
				needTPO.GET("files/verified", tpoCtrl.VerifiedFiles)
				needTPO.GET("stats/summary", tpoCtrl.StatsSummary)
				needTPO.GET("stats/summary.csv", tpoCtrl.StatsSummaryCSV)
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return a service banner
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "PrepSphere API"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
