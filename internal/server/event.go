package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
)

type createEventRequest struct {
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	StartsAt  time.Time      `json:"starts_at"`
	BasePrice float64        `json:"base_price"`
	Currency  string         `json:"currency"`
	Capacity  int            `json:"capacity"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *Server) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.eventSvc.Create(c.Request.Context(), eventdomain.CreateRequest{
		Name:      strings.TrimSpace(req.Name),
		Slug:      strings.TrimSpace(req.Slug),
		StartsAt:  req.StartsAt,
		BasePrice: req.BasePrice,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		Capacity:  req.Capacity,
		Metadata:  req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetEventByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.eventSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RegisterAttendees(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req eventdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.eventSvc.Register(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
