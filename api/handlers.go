package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estatex/estatex/internal/governance"
	"github.com/estatex/estatex/internal/marketplace"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/pkg/models"
)

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type createUserResponse struct {
	User   *models.UserProfile `json:"user"`
	APIKey string              `json:"api_key"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	user, apiKey, err := s.identities.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusCreated, createUserResponse{User: user, APIKey: apiKey})
}

func (s *Server) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, callerFrom(c))
}

type submitKYCRequest struct {
	Documents []string `json:"documents" binding:"required,min=1"`
}

func (s *Server) submitKYCDocuments(c *gin.Context) {
	var req submitKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	caller := callerFrom(c)
	if err := s.identities.SubmitKYCDocuments(c.Request.Context(), caller.ID, req.Documents); err != nil {
		s.problem(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type reviewKYCRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) reviewKYC(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	var req reviewKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.identities.SetKYCStatus(c.Request.Context(), userID, req.Status); err != nil {
		s.problem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createProperty(c *gin.Context) {
	var payload registry.CreatePropertyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.badRequest(c, err)
		return
	}
	property, err := s.registry.CreateProperty(c.Request.Context(), callerFrom(c).ID, payload)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

func (s *Server) listProperties(c *gin.Context) {
	properties, err := s.registry.ListProperties(c.Request.Context())
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (s *Server) getProperty(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	property, err := s.registry.GetProperty(c.Request.Context(), id)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

type investRequest struct {
	PropertyID  uint64 `json:"property_id" binding:"required"`
	TokenAmount uint64 `json:"token_amount" binding:"required,gt=0"`
}

func (s *Server) invest(c *gin.Context) {
	var req investRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	investment, err := s.ledger.Invest(c.Request.Context(), callerFrom(c).ID, req.PropertyID, req.TokenAmount)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusCreated, investment)
}

func (s *Server) myInvestments(c *gin.Context) {
	investments, err := s.ledger.InvestmentsFor(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, investments)
}

func (s *Server) placeOrder(c *gin.Context) {
	var payload marketplace.CreateOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.badRequest(c, err)
		return
	}
	order, err := s.marketplace.PlaceOrder(c.Request.Context(), callerFrom(c).ID, payload)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) executeOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	order, err := s.marketplace.ExecuteOrder(c.Request.Context(), callerFrom(c).ID, id)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) cancelOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.marketplace.CancelOrder(c.Request.Context(), callerFrom(c).ID, id); err != nil {
		s.problem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) activeOrders(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	orders, err := s.marketplace.ActiveOrders(c.Request.Context(), id)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) myOrders(c *gin.Context) {
	orders, err := s.marketplace.OrdersFor(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) myPortfolio(c *gin.Context) {
	p, err := s.portfolio.Get(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) getMarketData(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	data, err := s.marketdata.GetMarketData(c.Request.Context(), id)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) createProposal(c *gin.Context) {
	var payload governance.CreateProposalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.badRequest(c, err)
		return
	}
	proposal, err := s.governance.CreateProposal(c.Request.Context(), callerFrom(c).ID, payload)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

type voteRequest struct {
	VoteFor *bool `json:"vote_for" binding:"required"`
}

func (s *Server) voteOnProposal(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.governance.Vote(c.Request.Context(), callerFrom(c).ID, id, *req.VoteFor); err != nil {
		s.problem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listProposals(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	proposals, err := s.governance.ProposalsFor(c.Request.Context(), id)
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (s *Server) platformStats(c *gin.Context) {
	stats, err := s.analytics.PlatformStats(c.Request.Context())
	if err != nil {
		s.problem(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
