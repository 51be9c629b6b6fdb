package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
)

func (s *Server) CreatePricingRule(c *gin.Context) {
	eventID := strings.TrimSpace(c.Param("id"))

	var req ruledomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RuleType = strings.TrimSpace(req.RuleType)

	resp, err := s.ruleSvc.Create(c.Request.Context(), eventID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPricingRules(c *gin.Context) {
	eventID := strings.TrimSpace(c.Param("id"))

	resp, err := s.ruleSvc.List(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPricingRule(c *gin.Context) {
	eventID := strings.TrimSpace(c.Param("id"))
	ruleID := strings.TrimSpace(c.Param("ruleId"))

	resp, err := s.ruleSvc.Get(c.Request.Context(), eventID, ruleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePricingRule(c *gin.Context) {
	eventID := strings.TrimSpace(c.Param("id"))
	ruleID := strings.TrimSpace(c.Param("ruleId"))

	var req ruledomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RuleType = trimStringPtr(req.RuleType)

	resp, err := s.ruleSvc.Update(c.Request.Context(), eventID, ruleID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePricingRule(c *gin.Context) {
	eventID := strings.TrimSpace(c.Param("id"))
	ruleID := strings.TrimSpace(c.Param("ruleId"))

	if err := s.ruleSvc.Delete(c.Request.Context(), eventID, ruleID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func trimStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
