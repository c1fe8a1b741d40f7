package router

import (
	"context"
	"net/http"
	"time"

	"pontox/config"
	"pontox/internal/cache"
	"pontox/internal/catalog"
	"pontox/internal/handler"
	"pontox/internal/middleware"
	"pontox/internal/repository"
	"pontox/internal/service"
	"pontox/internal/ws"
	"pontox/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

// Services is the wired service graph. main uses it for startup seeding.
type Services struct {
	Settings     *service.SettingsService
	Notify       *service.NotificationService
	Ledger       *service.LedgerService
	Achievements *service.AchievementService
	Referrals    *service.ReferralService
	Rewards      *service.RewardService
	CheckIns     *service.CheckInService
	Spots        *service.SpotService
	Reviews      *service.ReviewService
	Leaderboard  *service.LeaderboardService
	Stats        *service.StatsService
	Auth         *service.AuthService
	Accounts     *service.AccountService
	Admin        *service.AdminService
}

// NewServices builds every service over store. cloud and pusher may be nil when
// Cloudinary or Firebase are not configured.
func NewServices(cfg *config.Config, store repository.Store, cat *catalog.Catalog, cloud cloudinary.Client, pusher service.Pusher, hub *ws.Hub) *Services {
	c := cache.New(cfg.Points.StatsCacheTTL)
	s := &Services{}
	s.Settings = service.NewSettingsService(store)
	s.Notify = service.NewNotificationService(store, pusher)
	s.Ledger = service.NewLedgerService(store, s.Notify, hub, c)
	s.Achievements = service.NewAchievementService(store, cat, s.Ledger, s.Notify, hub)
	s.Referrals = service.NewReferralService(store, s.Ledger, s.Settings, s.Achievements, s.Notify, cfg.Server.PublicURL)
	s.Rewards = service.NewRewardService(store, cat, s.Ledger, s.Settings, s.Notify)
	s.CheckIns = service.NewCheckInService(store, s.Ledger, s.Settings, s.Achievements, cfg.Points.CheckinRadiusMeters)
	s.Spots = service.NewSpotService(store, cloud, cfg.Cloudinary.Folder)
	s.Reviews = service.NewReviewService(store, s.Ledger, s.Settings, s.Achievements)
	s.Leaderboard = service.NewLeaderboardService(store, c)
	s.Stats = service.NewStatsService(store, s.Achievements, c)
	s.Auth = service.NewAuthService(cfg, store, s.Ledger, s.Settings, s.Referrals, s.Achievements)
	s.Accounts = service.NewAccountService(store, s.Ledger, s.Achievements, s.Referrals, s.Rewards)
	s.Admin = service.NewAdminService(store, s.Ledger, s.Accounts, s.Achievements, s.Referrals, s.Rewards, s.Notify)
	return s
}

// Setup mounts the API on a gin engine. ctx bounds the rate limiters' cleanup loops.
func Setup(ctx context.Context, cfg *config.Config, svc *Services, hub *ws.Hub) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; RequestID logs failed requests only
	r.Use(middleware.RequestID())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(ctx, cfg.Server.RateLimit, time.Minute)))
	authLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(ctx, cfg.Server.AuthLimit, time.Minute))
	// Per-account limit on point-earning writes.
	userLimit := middleware.RateLimitByUser(middleware.NewInMemoryRateLimiter(ctx, cfg.Server.AuthLimit, time.Minute))

	authHandler := handler.NewAuthHandler(svc.Auth)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, svc.Auth)
	meHandler := handler.NewMeHandler(svc.Accounts, svc.Ledger, svc.Achievements, svc.Rewards, svc.CheckIns)
	referralHandler := handler.NewReferralHandler(svc.Referrals)
	rewardHandler := handler.NewRewardHandler(svc.Rewards)
	spotHandler := handler.NewSpotHandler(svc.Spots, svc.CheckIns, svc.Reviews)
	leaderboardHandler := handler.NewLeaderboardHandler(svc.Leaderboard)
	notificationHandler := handler.NewNotificationHandler(svc.Notify)
	adminHandler := handler.NewAdminHandler(svc.Admin, svc.Stats, svc.Settings, svc.Rewards, svc.Spots, svc.Achievements)
	uploadHandler := handler.NewUploadHandler(svc.Spots)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(authLimit)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}
		api.POST("/admin/login", authLimit, authHandler.AdminLogin)

		api.GET("/rewards", rewardHandler.Catalog)
		api.GET("/spots", spotHandler.List)
		api.GET("/spots/nearby", spotHandler.Nearby)
		api.GET("/spots/:id", spotHandler.Get)
		api.GET("/spots/:id/reviews", spotHandler.Reviews)
		api.GET("/leaderboard", leaderboardHandler.Get)
		api.GET("/referral-codes/:code", referralHandler.Validate)

		api.POST("/rewards/:id/redeem", authMw, userLimit, rewardHandler.Redeem)
		api.POST("/spots/:id/checkin", authMw, userLimit, spotHandler.CheckIn)
		api.POST("/spots/:id/reviews", authMw, userLimit, spotHandler.CreateReview)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.GetProfile)
			me.PATCH("", meHandler.UpdateProfile)
			me.GET("/dashboard", meHandler.Dashboard)
			me.GET("/points", meHandler.Points)
			me.GET("/points/history", meHandler.PointsHistory)
			me.GET("/achievements", meHandler.Achievements)
			me.GET("/redemptions", meHandler.Redemptions)
			me.GET("/checkins", meHandler.CheckIns)
			me.GET("/referral-code", referralHandler.GetMyReferralCode)
			me.GET("/referral-code/share", referralHandler.ShareLinks)
			me.GET("/referrals", referralHandler.GetMyReferrals)
			me.POST("/referral", referralHandler.Apply)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/fcm-token", notificationHandler.RegisterFCMToken)
			me.POST("/password", authHandler.ChangePassword)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.POST("/users/:id/points", adminHandler.AdjustPoints)
			admin.GET("/transactions", adminHandler.Transactions)
			admin.GET("/referrals", adminHandler.Referrals)
			admin.GET("/redemptions", adminHandler.Redemptions)
			admin.POST("/redemptions/:code/use", adminHandler.UseRedemption)
			admin.GET("/spots", adminHandler.ListSpots)
			admin.POST("/spots", adminHandler.CreateSpot)
			admin.PATCH("/spots/:id", adminHandler.UpdateSpot)
			admin.DELETE("/spots/:id", adminHandler.DeleteSpot)
			admin.POST("/spots/:id/image", uploadHandler.UploadSpotImage)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.POST("/reconcile", adminHandler.Reconcile)
			admin.GET("/achievements/rates", adminHandler.AchievementRates)
			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}
	}

	r.GET("/ws/points", ws.UpgradePointsWS(&cfg.JWT, hub, func(c *gin.Context, userID uint) (interface{}, error) {
		p, err := svc.Accounts.Profile(c.Request.Context(), userID)
		if err != nil {
			return nil, err
		}
		return gin.H{"points": p.Points, "lifetime_points": p.LifetimePoints, "level": p.Level, "level_progress": p.LevelProgress}, nil
	}))

	return r
}
