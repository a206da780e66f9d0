// internal/api/routes/routes.go
package routes

import (
	"context"
	"time"

	"po-bridge-api-server/config"
	"po-bridge-api-server/internal/api/handlers"
	"po-bridge-api-server/internal/api/middleware"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/portal"
	"po-bridge-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const buyerHome = "/api/v1/buyer/orders"

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Config   config.Config
	Portal   *portal.Service
	Identity *identity.Service
	Hub      *socket.Hub
	Log      *logger.Logger
	Checks   map[string]func(ctx context.Context) error
}

func SetupRouter(deps Dependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(log))
	router.Use(middleware.Logging(log))
	if origins := deps.Config.Server.CORSOrigins; len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.MaxMultipartMemory = deps.Config.Server.MaxUploadBytes()

	maxUpload := deps.Config.Server.MaxUploadBytes()
	rootHandler := &handlers.RootHandler{Portal: deps.Portal, Log: log, BuyerHome: buyerHome}
	healthHandler := &handlers.HealthHandler{Checks: deps.Checks}
	supplierHandler := &handlers.SupplierHandler{Portal: deps.Portal, Log: log, MaxUploadBytes: maxUpload}
	buyerHandler := &handlers.BuyerHandler{Portal: deps.Portal, Log: log, MaxUploadBytes: maxUpload}
	authHandler := &handlers.AuthHandler{Identity: deps.Identity, Log: log}
	webSocketHandler := &handlers.WebSocketHandler{Hub: deps.Hub, Sessions: deps.Identity, Log: log}

	router.GET("/", rootHandler.Dispatch)
	router.GET("/healthz", healthHandler.Healthz)

	apiV1 := router.Group("/api/v1")
	{
		// token-only routes, no login
		supplier := apiV1.Group("/supplier/:token")
		{
			supplier.GET("", supplierHandler.GetLines)
			supplier.POST("/lines/:id/document", supplierHandler.SubmitDocument)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.Authenticate(deps.Identity, log), authHandler.Logout)
			auth.GET("/me", middleware.Authenticate(deps.Identity, log), authHandler.Me)
		}

		buyer := apiV1.Group("/buyer")
		{
			buyer.GET("/ws", webSocketHandler.ServeWs)

			orders := buyer.Group("/orders")
			orders.Use(middleware.Authenticate(deps.Identity, log))
			{
				orders.POST("/import", buyerHandler.ImportOrders)
				orders.GET("", buyerHandler.ListOrders)
				orders.GET("/summary", buyerHandler.Summary)
				orders.PATCH("", buyerHandler.EditOrders)
				orders.DELETE("/:id", buyerHandler.DeleteOrder)
				orders.POST("/:id/approve", buyerHandler.ApproveOrder)
			}
		}
	}

	return router
}
