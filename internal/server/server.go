package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/recipebox/backend/internal/api"
	"github.com/recipebox/backend/internal/middleware"
	"github.com/recipebox/backend/internal/service"
)

// Server wires the HTTP surface together. redisClient and imageService
// are optional: without Redis, recipe creation is not rate limited;
// without S3, image upload answers 503.
type Server struct {
	router *gin.Engine
	http   *http.Server
}

func NewServer(db *gorm.DB, jwtSecret string, redisClient *redis.Client, imageService *service.ImageService) *Server {
	router := gin.Default()
	router.Use(middleware.CORS())

	authService := service.NewAuthService(db, jwtSecret)
	recipeService := service.NewRecipeService(db)
	mealPlanService := service.NewMealPlanService(db)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRecipeCreationRateLimiter(redisClient)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	api.NewAuthHandler(authService).RegisterRoutes(v1)
	api.NewRecipeHandler(recipeService, authService, imageService, rateLimiter).RegisterRoutes(v1)
	api.NewTagHandler(recipeService, authService).RegisterRoutes(v1)
	api.NewUserHandler(recipeService).RegisterRoutes(v1)
	api.NewMealPlanHandler(mealPlanService, authService).RegisterRoutes(v1)

	return &Server{router: router}
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until ListenAndServe returns.
func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}

	log.Printf("Listening on :%s", port)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
