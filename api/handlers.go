package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
)

const readyTimeout = 3 * time.Second

type processQueryRequest struct {
	Username string `json:"username"`
	Query    string `json:"query" binding:"required"`
}

type credentialsRequest struct {
	Database string `json:"database"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProcessQuery answers 200 for every orchestrator outcome; the status field
// of the body tells success from failure.
func (h *Handler) ProcessQuery(c *gin.Context) {
	var body processQueryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	resp := h.svc.HandleRequest(c.Request.Context(), contract.Request{
		Username: body.Username,
		Text:     body.Query,
	})
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) StoreCredentials(c *gin.Context) {
	var body credentialsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	err := h.svc.StoreCredentials(c.Request.Context(), state.Credentials{
		Database: body.Database,
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credentials stored successfully."})
}

func (h *Handler) SessionStatus(c *gin.Context) {
	status, err := h.svc.SessionStatus(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) Login(c *gin.Context) {
	username := c.Param("username")
	uid, err := h.svc.Login(c.Request.Context(), username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "user_id": uid})
}

func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	entries, err := h.history.Recent(c.Request.Context(), c.Param("username"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for _, check := range h.checks {
		if err := check.Pinger.Ping(ctx); err != nil {
			failed[check.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	res := contract.ErrorResultFrom(err)
	status := httpStatus(res.Code)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		res.Message = "internal error"
	}
	c.JSON(status, gin.H{"error": res})
}

func httpStatus(code int) int {
	switch code {
	case contract.CodeMissingCredentials, contract.CodeInvalidArguments:
		return http.StatusBadRequest
	case contract.CodeInvalidCredentials, contract.CodeNoSession, contract.CodeSessionExpired:
		return http.StatusUnauthorized
	case contract.CodeNotFound:
		return http.StatusNotFound
	case contract.CodeRemoteFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
