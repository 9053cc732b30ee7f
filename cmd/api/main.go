package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "erpapi/api/swagger" // swagger docs
	"erpapi/internal/database"
	"erpapi/internal/handler"
	"erpapi/internal/middleware"
	"erpapi/internal/model"
	"erpapi/internal/repository"
	"erpapi/internal/service"
	"erpapi/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Accounting & Approvals API
// @version         1.0
// @description     Multi-tenant accounting API with a unified approval workflow engine.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("no configs/.env file found")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	middleware.InitPermissionMiddleware(db)

	// WebSocket hub pushes pending-approval notifications to approvers
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	productRepo := repository.NewProductRepository(db)
	inventoryTxRepo := repository.NewInventoryTxRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	defRepo := repository.NewWorkflowDefinitionRepository(db)
	requestRepo := repository.NewApprovalRequestRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)

	// Workflow engine
	evaluator := service.NewConditionEvaluator()
	store := service.NewWorkflowDefinitionStore(defRepo, evaluator)
	resolver := service.NewApproverResolver(userRepo)
	callbacks := service.NewCallbackRegistry()
	approvalService := service.NewApprovalService(
		requestRepo, approvalRepo, defRepo, store, resolver,
		auditRepo, txManager, wsHub, callbacks, log,
	)

	// Domain services
	userService := service.NewUserService(userRepo, roleRepo)
	roleService := service.NewRoleService(roleRepo)
	accountService := service.NewAccountService(accountRepo, auditRepo)
	journalService := service.NewJournalService(journalRepo, accountRepo, approvalService, auditRepo, txManager)
	invoiceService := service.NewInvoiceService(invoiceRepo, partnerRepo, taxRuleRepo, approvalService, auditRepo, txManager)
	orderService := service.NewPurchaseOrderService(orderRepo, productRepo, partnerRepo, inventoryTxRepo, approvalService, auditRepo, txManager)
	expenseService := service.NewExpenseService(expenseRepo, partnerRepo, approvalService, auditRepo)
	inventoryService := service.NewInventoryService(productRepo, inventoryTxRepo, txManager)
	partnerService := service.NewPartnerService(partnerRepo)
	taxService := service.NewTaxService(taxRuleRepo, auditRepo)
	workflowService := service.NewWorkflowAdminService(defRepo, userRepo)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo)

	// Workflow outcomes flow back to the owning entity through these callbacks
	callbacks.Register(model.EntityTypeJournalEntry, service.EntityStatusCallbackFunc(journalService.HandleWorkflowOutcome))
	callbacks.Register(model.EntityTypeInvoice, service.EntityStatusCallbackFunc(invoiceService.HandleWorkflowOutcome))
	callbacks.Register(model.EntityTypePurchaseOrder, service.EntityStatusCallbackFunc(orderService.HandleWorkflowOutcome))
	callbacks.Register(model.EntityTypeExpense, service.EntityStatusCallbackFunc(expenseService.HandleWorkflowOutcome))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Escalation sweep
	scheduler := service.NewEscalationScheduler(approvalRepo, approvalService, log)
	go scheduler.Run(ctx, time.Minute)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	accountHandler := handler.NewAccountHandler(accountService)
	journalHandler := handler.NewJournalHandler(journalService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	orderHandler := handler.NewPurchaseOrderHandler(orderService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	taxHandler := handler.NewTaxHandler(taxService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	accountHandler.RegisterRoutes(router.Group(""))
	journalHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	expenseHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	partnerHandler.RegisterRoutes(router.Group(""))
	taxHandler.RegisterRoutes(router.Group(""))
	workflowHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
