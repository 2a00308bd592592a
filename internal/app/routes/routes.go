package routes

import (
	"time"

	"condo-http-service/internal/app/controllers"
	"condo-http-service/internal/app/middleware"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/response"
	"condo-http-service/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter 初始化并返回配置好的路由。stop 关闭时停止限流器的清理协程
func SetupRouter(container *container.ServiceContainer, db controllers.DBChecker, stop <-chan struct{}) *gin.Engine {
	cfg := container.GetConfig()
	log := container.GetLogger()

	metrics.InitMetrics()
	if err := middleware.RegisterValidators(); err != nil {
		log.Warn("register validators failed", zap.Error(err))
	}

	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))

	// 添加 CORS 中间件
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.MediaRoot != "" {
		r.Static(cfg.MediaURLPrefix, cfg.MediaRoot)
	}

	registerRoutes(r, container, db, stop)

	// 未匹配的路径同样返回统一的响应格式
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
	db controllers.DBChecker,
	stop <-chan struct{},
) {
	cfg := container.GetConfig()
	jwtService := container.GetService("jwt").(services.InterfaceJWTService)

	// API 路由根路径，限流后识别调用者；未携带令牌的请求以匿名身份继续
	api := r.Group("/api")
	api.Use(middleware.IPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, stop))
	api.Use(middleware.Identify(jwtService))

	registerPublicRoutes(api, container, db)
	registerResourceRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	db controllers.DBChecker,
) {
	health := controllers.NewHealthCheckController(db, container.GetRedis())
	api.GET("/ping", health.Ping)
	api.GET("/health", health.Health)

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
}

// registerResourceRoutes 注册资源路由，权限由各控制器的 Rules 检查
func registerResourceRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 用户路由，固定路径需在 /:id 之前注册
	userGroup := api.Group("/users")
	userGroup.GET("", controllers.HandleUserFunc(container, "getUsers"))
	userGroup.GET("/me", controllers.HandleUserFunc(container, "getMe"))
	userGroup.POST("/me/avatar", controllers.HandleUserFunc(container, "uploadAvatar"))
	userGroup.POST("/change-password", controllers.HandleUserFunc(container, "changePassword"))
	userGroup.GET("/:id", controllers.HandleUserFunc(container, "getUser"))
	userGroup.GET("/:id/payment-total", controllers.HandleUserFunc(container, "getPaymentTotal"))
	userGroup.POST("", controllers.HandleUserFunc(container, "createUser"))
	userGroup.PUT("/:id", controllers.HandleUserFunc(container, "updateUser"))
	userGroup.DELETE("/:id", controllers.HandleUserFunc(container, "deleteUser"))

	// 公寓路由
	apartmentGroup := api.Group("/apartments")
	apartmentGroup.GET("", controllers.HandleApartmentFunc(container, "getApartments"))
	apartmentGroup.GET("/:id", controllers.HandleApartmentFunc(container, "getApartment"))
	apartmentGroup.POST("", controllers.HandleApartmentFunc(container, "createApartment"))
	apartmentGroup.PUT("/:id", controllers.HandleApartmentFunc(container, "updateApartment"))
	apartmentGroup.DELETE("/:id", controllers.HandleApartmentFunc(container, "deleteApartment"))
	apartmentGroup.POST("/:id/transfer-ownership", controllers.HandleApartmentFunc(container, "transferOwnership"))

	// 账单路由
	invoiceGroup := api.Group("/invoices")
	invoiceGroup.GET("", controllers.HandleInvoiceFunc(container, "getInvoices"))
	invoiceGroup.GET("/export", controllers.HandleInvoiceFunc(container, "exportInvoices"))
	invoiceGroup.GET("/:id", controllers.HandleInvoiceFunc(container, "getInvoice"))
	invoiceGroup.POST("", controllers.HandleInvoiceFunc(container, "createInvoice"))
	invoiceGroup.PUT("/:id", controllers.HandleInvoiceFunc(container, "updateInvoice"))
	invoiceGroup.DELETE("/:id", controllers.HandleInvoiceFunc(container, "deleteInvoice"))
	invoiceGroup.POST("/:id/proof", controllers.HandleInvoiceFunc(container, "uploadProof"))

	// 储物柜路由
	lockerGroup := api.Group("/locker-items")
	lockerGroup.GET("", controllers.HandleLockerItemFunc(container, "getLockerItems"))
	lockerGroup.GET("/:id", controllers.HandleLockerItemFunc(container, "getLockerItem"))
	lockerGroup.POST("", controllers.HandleLockerItemFunc(container, "createLockerItem"))
	lockerGroup.PUT("/:id", controllers.HandleLockerItemFunc(container, "updateLockerItem"))
	lockerGroup.DELETE("/:id", controllers.HandleLockerItemFunc(container, "deleteLockerItem"))
	lockerGroup.POST("/:id/receive", controllers.HandleLockerItemFunc(container, "receiveLockerItem"))

	// 投诉路由
	complaintGroup := api.Group("/complaints")
	complaintGroup.GET("", controllers.HandleComplaintFunc(container, "getComplaints"))
	complaintGroup.GET("/:id", controllers.HandleComplaintFunc(container, "getComplaint"))
	complaintGroup.POST("", controllers.HandleComplaintFunc(container, "createComplaint"))
	complaintGroup.PUT("/:id", controllers.HandleComplaintFunc(container, "updateComplaint"))
	complaintGroup.DELETE("/:id", controllers.HandleComplaintFunc(container, "deleteComplaint"))

	// 问卷路由
	surveyGroup := api.Group("/surveys")
	surveyGroup.GET("", controllers.HandleSurveyFunc(container, "getSurveys"))
	surveyGroup.GET("/:id", controllers.HandleSurveyFunc(container, "getSurvey"))
	surveyGroup.GET("/:id/results", controllers.HandleSurveyFunc(container, "getSurveyResults"))
	surveyGroup.POST("", controllers.HandleSurveyFunc(container, "createSurvey"))
	surveyGroup.PUT("/:id", controllers.HandleSurveyFunc(container, "updateSurvey"))
	surveyGroup.DELETE("/:id", controllers.HandleSurveyFunc(container, "deleteSurvey"))

	// 问卷答复路由，答复提交后不可修改
	responseGroup := api.Group("/survey-responses")
	responseGroup.GET("", controllers.HandleSurveyResponseFunc(container, "getResponses"))
	responseGroup.GET("/:id", controllers.HandleSurveyResponseFunc(container, "getResponse"))
	responseGroup.POST("", controllers.HandleSurveyResponseFunc(container, "createResponse"))
	responseGroup.DELETE("/:id", controllers.HandleSurveyResponseFunc(container, "deleteResponse"))
}
