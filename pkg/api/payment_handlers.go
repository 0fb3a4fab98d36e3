package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createPaymentRequest struct {
	Provider string `json:"provider" binding:"required"`
}

func (s *Server) createPaymentAttempt(c *gin.Context) {
	order, err := s.loadOrder(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order == nil {
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, attempt, err := s.gateway.RecordAttempt(c.Request.Context(), order.ID, req.Provider)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": rec, "attempt": attempt})
}

func (s *Server) pollPayment(c *gin.Context) {
	order, err := s.loadOrder(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order == nil {
		return
	}

	rec, err := s.gateway.ConfirmPoll(c.Request.Context(), order.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": rec})
}

// providerReturn handles the customer's browser coming back from a
// redirect provider with the signed result in the query string.
func (s *Server) providerReturn(c *gin.Context) {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	rec, err := s.gateway.HandleCallback(c.Request.Context(), c.Param("provider"), params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": rec})
}

// providerNotify handles server-to-server callbacks.
func (s *Server) providerNotify(c *gin.Context) {
	var params map[string]string
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := s.gateway.HandleCallback(c.Request.Context(), c.Param("provider"), params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": rec})
}
