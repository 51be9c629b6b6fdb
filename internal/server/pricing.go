package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetPrice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.pricingSvc.Quote(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPriceForecast(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.pricingSvc.Forecast(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
