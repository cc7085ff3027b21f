package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/api/handlers"
	"github.com/orrn/printdesk/internal/api/middleware"
)

type Handlers struct {
	Print  *handlers.PrintHandler
	Admin  *handlers.AdminHandler
	Worker *handlers.WorkerHandler
	Orders *handlers.OrderHandler
	Health *handlers.HealthHandler
	// Archive is optional.
	Archive *handlers.ArchiveHandler
}

// SetupRouter wires every route. Worker and shop calls authenticate with the
// shared worker token, operator calls with an admin JWT.
func SetupRouter(h Handlers, auth *middleware.AuthMiddleware, workerToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("[api] recovered from panic: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
	}))

	router.GET("/healthz", h.Health.Healthz)

	requireWorker := middleware.RequireWorker(workerToken)

	printer := router.Group("/printer", auth.RequireWorkerOrAdmin(workerToken))
	{
		printer.POST("", h.Print.AdmitOrder)
		printer.GET("/status", h.Print.Status)
		printer.POST("/process-pending", h.Print.ProcessPending)
	}

	orders := router.Group("/orders", requireWorker)
	{
		orders.PUT("/:id", h.Orders.PutOrder)
		orders.GET("/:id", h.Orders.GetOrder)
	}

	worker := router.Group("/worker", requireWorker)
	{
		worker.POST("/orders/:id/claim", h.Worker.Claim)
		worker.POST("/orders/:id/heartbeat", h.Worker.Heartbeat)
		worker.POST("/orders/:id/complete", h.Worker.Complete)
		worker.POST("/orders/:id/fail", h.Worker.Fail)
	}
	router.POST("/printers/heartbeat", requireWorker, h.Worker.PrinterHeartbeat)

	authGroup := router.Group("/admin/auth")
	{
		authGroup.POST("/setup", auth.SetupHandler)
		authGroup.POST("/login", auth.LoginHandler)
		authGroup.POST("/logout", auth.LogoutHandler)
		authGroup.GET("/status", auth.StatusHandler)
		authGroup.POST("/password", auth.RequireAdmin(), auth.ChangePasswordHandler)
	}

	admin := router.Group("/admin", auth.RequireAdmin())
	{
		admin.GET("/printer-monitor-data", h.Admin.MonitorData)
		admin.GET("/orders/escalated", h.Admin.ListEscalated)
		admin.POST("/orders/:id/reset", h.Admin.ResetOrder)
		admin.POST("/orders/:id/force-complete", h.Admin.ForceComplete)
		admin.POST("/orders/:id/reprint", h.Admin.Reprint)
		admin.POST("/leases/sweep", h.Admin.SweepLeases)
		admin.GET("/print-logs", h.Admin.ListPrintLogs)
		admin.POST("/alerts/:id/ack", h.Admin.AcknowledgeAlert)
		admin.GET("/printers", h.Admin.ListPrinters)

		if h.Archive != nil {
			admin.GET("/archives", h.Archive.ListArchives)
			admin.POST("/archives/run", h.Archive.RunArchive)
			admin.DELETE("/archives/:filename", h.Archive.DeleteArchive)
		}
	}

	return router
}
