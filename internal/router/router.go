package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/handlers"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
	"github.com/powerbrief-dev/powerbrief/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Metrics())

	r.MaxMultipartMemory = 32 << 20

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Local storage serves uploaded files itself.
	if cfg.Storage.Type == config.StorageTypeLocal && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(strings.TrimSuffix(cfg.Storage.PublicBaseURL, "/"), cfg.Storage.LocalDir)
	}

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PATCH("/me", middleware.AuthMiddleware(), handlers.UpdateUser)
			auth.DELETE("/me", middleware.AuthMiddleware(), handlers.DeleteUser)
		}

		public := api.Group("/public")
		{
			public.POST("/brands/:brand_id/creators/apply", handlers.ApplyAsCreator)

			public.GET("/scripts/:share_id", handlers.GetPublicScript)
			public.POST("/scripts/:share_id/respond", handlers.RespondToScript)
			public.POST("/scripts/:share_id/submit", handlers.SubmitScriptContent)

			public.GET("/contracts/:contract_id", handlers.GetPublicContract)
			public.POST("/contracts/:contract_id/sign", handlers.SignContract)
		}

		webhooks := api.Group("/webhooks", middleware.WebhookSecret(cfg.N8N.CallbackSecret))
		{
			webhooks.POST("/n8n/executions/:execution_id", handlers.CompleteWorkflowExecution)
		}

		api.GET("/progress/:upload_id", middleware.AuthMiddleware(), handlers.GetProgress)
		api.GET("/ws/progress/:upload_id", middleware.AuthMiddleware(), handlers.ProgressSocket)

		brands := api.Group("/brands", middleware.AuthMiddleware())
		{
			brands.POST("", handlers.CreateBrand)
			brands.GET("", handlers.ListBrands)
			brands.GET("/:brand_id", handlers.GetBrand)
			brands.PATCH("/:brand_id", handlers.UpdateBrand)
			brands.DELETE("/:brand_id", handlers.DeleteBrand)

			brands.POST("/:brand_id/shares", handlers.CreateBrandShare)
			brands.GET("/:brand_id/shares", handlers.ListBrandShares)
			brands.DELETE("/:brand_id/shares/:share_id", handlers.DeleteBrandShare)

			brands.POST("/:brand_id/uploads", handlers.UploadFile)

			registerUGCRoutes(brands.Group("/:brand_id"))
			registerContractRoutes(brands.Group("/:brand_id/contracts"))
			registerAdRoutes(brands.Group("/:brand_id"))
			registerInsightRoutes(brands.Group("/:brand_id"))
		}
	}

	return r
}

func registerUGCRoutes(brand *gin.RouterGroup) {
	creators := brand.Group("/creators")
	{
		creators.POST("", handlers.CreateCreator)
		creators.GET("", handlers.ListCreators)
		creators.GET("/:creator_id", handlers.GetCreator)
		creators.PATCH("/:creator_id", handlers.UpdateCreator)
		creators.DELETE("/:creator_id", handlers.DeleteCreator)
		creators.PATCH("/:creator_id/status", handlers.UpdateCreatorStatus)
		creators.POST("/:creator_id/email", handlers.EmailCreator)
	}

	scripts := brand.Group("/scripts")
	{
		scripts.POST("", handlers.CreateScript)
		scripts.GET("", handlers.ListScripts)
		scripts.POST("/generate", handlers.GenerateScript)
		scripts.GET("/:script_id", handlers.GetScript)
		scripts.PATCH("/:script_id", handlers.UpdateScript)
		scripts.DELETE("/:script_id", handlers.DeleteScript)
		scripts.POST("/:script_id/approve", handlers.ApproveScript)
		scripts.POST("/:script_id/request-revision", handlers.RequestScriptRevision)
		scripts.POST("/:script_id/assign", handlers.AssignScript)
		scripts.POST("/:script_id/approve-content", handlers.ApproveScriptContent)
		scripts.POST("/:script_id/request-content-revision", handlers.RequestContentRevision)
		scripts.POST("/:script_id/voiceover", handlers.GenerateVoiceover)
	}

	coordinator := brand.Group("/ugc/coordinator")
	{
		coordinator.POST("/run", handlers.RunCoordinator)
		coordinator.GET("/actions", handlers.ListCoordinatorActions)
		coordinator.POST("/actions/:action_id/execute", handlers.ExecuteCoordinatorAction)
		coordinator.POST("/actions/:action_id/dismiss", handlers.DismissCoordinatorAction)
	}

	automations := brand.Group("/automations")
	{
		automations.GET("/executions", handlers.ListWorkflowExecutions)
		automations.POST("/:workflow/trigger", handlers.TriggerWorkflow)
	}

	notifications := brand.Group("/notifications")
	{
		notifications.GET("", handlers.ListNotifications)
		notifications.POST("/slack/test", handlers.TestSlack)
	}
}

func registerContractRoutes(contracts *gin.RouterGroup) {
	contracts.POST("", handlers.CreateContract)
	contracts.GET("", handlers.ListContracts)
	contracts.GET("/:contract_id", handlers.GetContract)
	contracts.POST("/:contract_id/send", handlers.SendContract)
	contracts.POST("/:contract_id/void", handlers.VoidContract)
	contracts.GET("/:contract_id/audit", handlers.GetContractAudit)
}

func registerAdRoutes(brand *gin.RouterGroup) {
	batches := brand.Group("/ad-batches")
	{
		batches.POST("", handlers.CreateAdBatch)
		batches.GET("", handlers.ListAdBatches)
		batches.GET("/:batch_id", handlers.GetAdBatch)
		batches.PATCH("/:batch_id", handlers.UpdateAdBatch)
		batches.DELETE("/:batch_id", handlers.DeleteAdBatch)
		batches.POST("/:batch_id/launch", handlers.LaunchAdBatch)

		batches.POST("/:batch_id/drafts", handlers.CreateAdDraft)
		batches.GET("/:batch_id/drafts", handlers.ListAdDrafts)
		batches.PATCH("/:batch_id/drafts/:draft_id", handlers.UpdateAdDraft)
		batches.DELETE("/:batch_id/drafts/:draft_id", handlers.DeleteAdDraft)
		batches.POST("/:batch_id/drafts/:draft_id/assets", handlers.UploadDraftAsset)
		batches.DELETE("/:batch_id/drafts/:draft_id/assets/:asset_id", handlers.DeleteDraftAsset)
	}

	meta := brand.Group("/meta")
	{
		meta.GET("/campaigns", handlers.ListMetaCampaigns)
		meta.GET("/campaigns/:campaign_id/adsets", handlers.ListMetaAdSets)
	}
}

func registerInsightRoutes(brand *gin.RouterGroup) {
	onesheets := brand.Group("/onesheets")
	{
		onesheets.POST("", handlers.CreateOneSheet)
		onesheets.GET("", handlers.ListOneSheets)
		onesheets.GET("/:onesheet_id", handlers.GetOneSheet)
		onesheets.PATCH("/:onesheet_id", handlers.UpdateOneSheet)
		onesheets.DELETE("/:onesheet_id", handlers.DeleteOneSheet)
		onesheets.POST("/:onesheet_id/synthesize", handlers.SynthesizeOneSheetSection)
	}

	scorecard := brand.Group("/scorecard")
	{
		scorecard.GET("", handlers.GetScorecard)
		scorecard.POST("/sync", handlers.SyncScorecard)
		scorecard.POST("/metrics", handlers.CreateScorecardMetric)
		scorecard.GET("/metrics", handlers.ListScorecardMetrics)
		scorecard.PATCH("/metrics/:metric_id", handlers.UpdateScorecardMetric)
		scorecard.DELETE("/metrics/:metric_id", handlers.DeleteScorecardMetric)
	}
}
