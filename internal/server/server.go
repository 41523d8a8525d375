package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/handlers"
	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	tokens  middleware.TokenParser
	handler *handlers.Handler
	limiter *middleware.RateLimiter
}

// New wires the handlers over svc. Close releases the rate limiter.
func New(cfg *config.Config, db database.Service, svc *service.Services) *Server {
	return &Server{
		cfg:     cfg,
		db:      db,
		tokens:  svc.Tokens,
		handler: handlers.NewHandler(svc),
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// HTTPServer builds the listener for the configured port.
func (s *Server) HTTPServer() *http.Server {
	log.Infof("Server listening on port %s", s.cfg.Port)
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) Close() {
	s.limiter.Close()
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Access-Token", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	h := s.handler
	auth := middleware.Auth(s.tokens)

	api := r.Group("/api", s.limiter.Handler())
	{
		// Auth routes (public)
		api.POST("/authenticate", h.Auth.Login)
		api.POST("/fb-authenticate", h.Auth.FacebookLogin)
		api.POST("/gg-authenticate", h.Auth.GoogleLogin)

		// Account routes (public)
		api.POST("/users", h.User.Register)
		api.POST("/users/active", h.User.Activate)
		api.POST("/users/active/resend-code", h.User.ResendActivationCode)
		api.POST("/users/password/forgot", h.User.ForgotPassword)
		api.PATCH("/users/password/update-by-code", h.User.ResetPassword)

		// Public reads
		api.GET("/question-tags", h.Tag.ListTags)
		api.GET("/question-tags/:id", h.Tag.GetTag)
		api.GET("/questions", h.Question.ListQuestions)

		// Protected routes (authentication required)
		protected := api.Group("", auth)
		{
			protected.PATCH("/users/password/change", h.User.ChangePassword)
			protected.GET("/users/profile", h.User.GetProfile)
			protected.PATCH("/users/profile", h.User.UpdateProfile)

			protected.POST("/questions", h.Question.CreateQuestion)
			protected.GET("/questions/my-questions", h.Question.ListMyQuestions)
			protected.GET("/questions/:id", h.Question.GetQuestion)
			protected.PATCH("/questions/:id", h.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", h.Question.DeleteQuestion)
			protected.POST("/questions/:id/votes", h.Question.Vote)
			protected.DELETE("/questions/:id/votes", h.Question.Unvote)

			protected.POST("/question-answers", h.Answer.CreateAnswer)
			protected.GET("/question-answers", h.Answer.ListAnswers)
			protected.GET("/question-answers/:id", h.Answer.GetAnswer)
			protected.PATCH("/question-answers/:id", h.Answer.UpdateAnswer)
			protected.DELETE("/question-answers/:id", h.Answer.DeleteAnswer)
			protected.POST("/question-answers/:id/votes", h.Answer.Vote)
			protected.DELETE("/question-answers/:id/votes", h.Answer.Unvote)

			protected.POST("/topics", h.Topic.CreateTopic)
			protected.GET("/topics", h.Topic.ListMyTopics)
			protected.GET("/topics/joined", h.Topic.ListJoinedTopics)
			protected.GET("/topics/:id", h.Topic.GetTopic)
			protected.PATCH("/topics/:id", h.Topic.UpdateTopic)
			protected.DELETE("/topics/:id", h.Topic.DeleteTopic)
			protected.GET("/topics/:id/members", h.Topic.ListMembers)
			protected.POST("/topics/:id/members", h.Topic.AddMember)
			protected.DELETE("/topics/:id/members", h.Topic.RemoveMembers)
			protected.POST("/topics/:id/questions", h.Topic.CreateQuestion)
		}
	}

	return r
}

// health reports the database status; 503 when it is down.
func (s *Server) health(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
