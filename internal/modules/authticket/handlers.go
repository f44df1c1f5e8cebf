package authticket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/restaurant-bff/core/internal/middleware"
)

// RegisterRoutes mounts POST /auth/token and POST /ws-ticket.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/token", s.handleIssueToken)
	rg.POST("/ws-ticket", middleware.Auth(s.verifier), s.handleIssueWsTicket)
}

type issueTokenRequest struct {
	UserID *string `json:"userId,omitempty"`
}

type issueTokenResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	TraceID   string `json:"traceId"`
}

func (s *Service) handleIssueToken(c *gin.Context) {
	var req issueTokenRequest
	_ = c.ShouldBindJSON(&req)

	token, sessionID, err := s.IssueSessionToken(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, issueTokenResponse{Token: token, SessionID: sessionID, TraceID: uuid.NewString()})
}

type issueWsTicketResponse struct {
	Ticket            string `json:"ticket"`
	ExpiresInSeconds  int    `json:"expiresInSeconds"`
}

func (s *Service) handleIssueWsTicket(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing session identity"})
		return
	}

	ticket, expiresIn, err := s.IssueWsTicket(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "failed to issue ws ticket"})
		return
	}

	c.JSON(http.StatusOK, issueWsTicketResponse{Ticket: ticket, ExpiresInSeconds: int(expiresIn.Seconds())})
}
