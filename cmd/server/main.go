package main

import (
	"log"
	"net/http"

	"github.com/saeidsamfoladi/Telegrambot/internal/config"
	"github.com/saeidsamfoladi/Telegrambot/internal/database"
	"github.com/saeidsamfoladi/Telegrambot/internal/handlers"
	"github.com/saeidsamfoladi/Telegrambot/internal/middleware"
	"github.com/saeidsamfoladi/Telegrambot/internal/services"
	"github.com/saeidsamfoladi/Telegrambot/internal/telegram"
	"github.com/saeidsamfoladi/Telegrambot/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	codeService := services.NewCodeService(db)
	memberService := services.NewMemberService(db, codeService)
	screeningService := services.NewScreeningService(db)
	inviteService := services.NewInviteService(db, codeService)
	questionService := services.NewQuestionService(db)
	authService := services.NewAuthService(db, cfg.JWTSecret)

	if err := codeService.RepairAll(); err != nil {
		log.Fatalf("failed to repair member codes: %v", err)
	}

	client := telegram.NewClient(cfg.BotToken)
	inputs := telegram.NewInputRegister()
	updateHandler := telegram.NewUpdateHandler(
		client, inputs,
		memberService, screeningService, inviteService, codeService,
		hub, cfg.AdminIDs, cfg.RequireInvite,
	)
	bot := telegram.NewBot(cfg.BotToken, cfg.WebhookSecret, updateHandler)

	authHandler := handlers.NewAuthHandler(authService)
	memberHandler := handlers.NewMemberHandler(memberService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	wsHandler := handlers.NewWSHandler(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/admin", wsHandler.HandleWebSocket)
	r.POST("/webhook/bot/:secret", bot.HandleWebhook)

	if cfg.WebhookBaseURL != "" {
		if err := bot.RegisterWebhook(cfg.WebhookBaseURL); err != nil {
			log.Fatalf("failed to register webhook: %v", err)
		}
		defer bot.Shutdown()
	} else {
		log.Println("WEBHOOK_BASE_URL not set, webhook registration skipped")
	}

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		members := api.Group("/members")
		members.Use(middleware.JWTAuth(authService))
		{
			members.GET("", memberHandler.ListMembers)
			members.GET("/count", memberHandler.CountMembers)
			members.GET("/by-code/:code", memberHandler.GetByCode)
		}

		questions := api.Group("/questions")
		questions.Use(middleware.JWTAuth(authService))
		{
			questions.GET("", questionHandler.ListQuestions)
			questions.POST("", questionHandler.CreateQuestion)
			questions.PUT("/:id", questionHandler.UpdateQuestion)
			questions.DELETE("/:id", questionHandler.DeleteQuestion)
		}

		invites := api.Group("/invites")
		invites.Use(middleware.JWTAuth(authService))
		{
			invites.GET("", inviteHandler.ListInvites)
			invites.POST("", inviteHandler.MintInvite)
			invites.POST("/:code/revoke", inviteHandler.RevokeInvite)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
