package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/estatex/estatex/internal/analytics"
	"github.com/estatex/estatex/internal/governance"
	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/ledger"
	"github.com/estatex/estatex/internal/marketdata"
	"github.com/estatex/estatex/internal/marketplace"
	"github.com/estatex/estatex/internal/portfolio"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/pkg/errs"
	"github.com/estatex/estatex/pkg/models"
)

const userContextKey = "user"

// Server is the HTTP API over the platform services.
type Server struct {
	router      *gin.Engine
	logger      *zap.Logger
	identities  *identities.Service
	registry    *registry.Service
	ledger      *ledger.Service
	marketplace *marketplace.Service
	portfolio   *portfolio.Service
	marketdata  *marketdata.Service
	governance  *governance.Service
	analytics   *analytics.Service
}

// NewServer creates the API server with injected services.
func NewServer(
	logger *zap.Logger,
	identities *identities.Service,
	registry *registry.Service,
	ledger *ledger.Service,
	marketplace *marketplace.Service,
	portfolio *portfolio.Service,
	marketdata *marketdata.Service,
	governance *governance.Service,
	analytics *analytics.Service,
) *Server {
	server := &Server{
		logger:      logger,
		identities:  identities,
		registry:    registry,
		ledger:      ledger,
		marketplace: marketplace,
		portfolio:   portfolio,
		marketdata:  marketdata,
		governance:  governance,
		analytics:   analytics,
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	public := s.router.Group("/api/v1")
	{
		public.GET("/metrics", gin.WrapH(promhttp.Handler()))
		public.GET("/health", s.healthCheck)

		public.POST("/users", s.createUser)
		public.GET("/properties", s.listProperties)
		public.GET("/properties/:id", s.getProperty)
		public.GET("/properties/:id/orders", s.activeOrders)
		public.GET("/properties/:id/market", s.getMarketData)
		public.GET("/properties/:id/proposals", s.listProposals)
		public.GET("/stats", s.platformStats)
	}

	authed := s.router.Group("/api/v1")
	authed.Use(s.authenticate())
	{
		authed.GET("/me", s.currentUser)
		authed.POST("/kyc/documents", s.submitKYCDocuments)
		authed.PUT("/users/:id/kyc", s.reviewKYC)

		authed.POST("/properties", s.createProperty)
		authed.POST("/investments", s.invest)
		authed.GET("/me/investments", s.myInvestments)

		authed.POST("/orders", s.placeOrder)
		authed.POST("/orders/:id/execute", s.executeOrder)
		authed.DELETE("/orders/:id", s.cancelOrder)
		authed.GET("/me/orders", s.myOrders)
		authed.GET("/me/portfolio", s.myPortfolio)

		authed.POST("/proposals", s.createProposal)
		authed.POST("/proposals/:id/votes", s.voteOnProposal)
	}
}

// authenticate resolves the bearer API key to a user profile. Anonymous
// requests fail closed.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		apiKey := strings.TrimPrefix(header, "Bearer ")
		if header == "" || apiKey == header {
			s.problem(c, errs.ErrAuthenticationRequired)
			c.Abort()
			return
		}
		user, err := s.identities.Authenticate(c.Request.Context(), apiKey)
		if err != nil {
			s.problem(c, err)
			c.Abort()
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func callerFrom(c *gin.Context) *models.UserProfile {
	v, _ := c.Get(userContextKey)
	user, _ := v.(*models.UserProfile)
	return user
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
