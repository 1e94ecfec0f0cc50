package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-scheduler/internal/audit"
	"github.com/BruksfildServices01/service-scheduler/internal/handlers"
	infraRepo "github.com/BruksfildServices01/service-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/service-scheduler/internal/middleware"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
	ucAvailability "github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
	ucBooking "github.com/BruksfildServices01/service-scheduler/internal/usecase/booking"
)

// Deps agrupa tudo que o bootstrap monta antes das rotas.
type Deps struct {
	DB     *gorm.DB
	Logger *zap.Logger

	Engine *ucAvailability.Engine
	Queue  notify.Queue
	Worker *notify.Worker
}

func RegisterRoutes(r *gin.Engine, deps Deps) {

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// 🔧 INFRA
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(deps.DB)

	auditLogger := audit.New(deps.DB)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	// ======================================================
	// 🧠 USE CASES — BOOKINGS
	// ======================================================
	validator := ucBooking.NewValidator(bookingRepo, deps.Engine)

	createBookingUC := ucBooking.NewCreateBooking(
		bookingRepo,
		validator,
		deps.Engine,
		deps.Queue,
		auditDispatcher,
		deps.Logger,
	)

	cancelBookingUC := ucBooking.NewCancelBooking(
		bookingRepo,
		deps.Engine,
		deps.Queue,
		auditDispatcher,
		deps.Logger,
	)

	completeBookingUC := ucBooking.NewCompleteBooking(
		bookingRepo,
		auditDispatcher,
	)

	rescheduleBookingUC := ucBooking.NewRescheduleBooking(
		bookingRepo,
		validator,
		deps.Engine,
		deps.Queue,
		auditDispatcher,
		deps.Logger,
	)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	availabilityHandler := handlers.NewAvailabilityHandler(deps.Engine)
	bookingHandler := handlers.NewBookingHandler(
		createBookingUC,
		cancelBookingUC,
		completeBookingUC,
		rescheduleBookingUC,
		validator,
	)
	workingHoursHandler := handlers.NewWorkingHoursHandler(deps.DB)
	blockHandler := handlers.NewScheduleBlockHandler(bookingRepo, deps.Engine)
	queueHandler := handlers.NewQueueHandler(deps.Queue, deps.Worker)
	auditLogsHandler := handlers.NewAuditLogsHandler(deps.DB)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		companies := api.Group("/companies/:companyId")
		{
			companies.GET("/availability", availabilityHandler.Get)
			companies.GET("/availability/check", availabilityHandler.Check)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			companies.POST("/appointments", bookingHandler.Create)
			companies.PATCH("/appointments/:id/cancel", bookingHandler.Cancel)
			companies.PATCH("/appointments/:id/complete", bookingHandler.Complete)
			companies.PATCH("/appointments/:id/reschedule", bookingHandler.Reschedule)

			// ------------------------------
			// AGENDA (STAFF)
			// ------------------------------
			companies.GET("/working-hours", workingHoursHandler.Get)
			companies.PUT("/working-hours", workingHoursHandler.Update)

			companies.GET("/blocks", blockHandler.List)
			companies.POST("/blocks", blockHandler.Create)
			companies.PATCH("/blocks/:id/deactivate", blockHandler.Deactivate)

			companies.GET("/audit-logs", auditLogsHandler.List)
		}

		// ------------------------------
		// FILA DE NOTIFICAÇÕES (ADMIN)
		// ------------------------------
		queue := api.Group("/queue")
		{
			queue.GET("/stats", queueHandler.Stats)
			queue.GET("/dead-letters", queueHandler.DeadLetters)
			queue.POST("/dead-letters/:id/requeue", queueHandler.Requeue)
		}
	}
}
