package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseUintIDParam reads a non-negative numeric path parameter. On failure it
// writes the error response and returns false: 404 for a number too large to
// be any id, 400 for anything else.
func ParseUintIDParam(c *gin.Context, param string) (uint, bool) {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 0)
	if err == nil {
		return uint(id), true
	}

	if errors.Is(err, strconv.ErrRange) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
			Details: "no question has id " + idStr,
			Code:    CodeNotFound,
		})
		return 0, false
	}

	details := "ID must be a non-negative integer"
	if idStr == "" {
		details = "ID cannot be empty"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Message: "Invalid " + param,
		Details: details,
		Code:    CodeBadRequest,
	})
	return 0, false
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "question-bank-service",
	})
}
