package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"po-bridge-api-server/internal/api/respond"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/portal"

	"github.com/gin-gonic/gin"
)

// RootHandler serves the secret link. A request carrying access_token is a supplier;
// anything else is sent to the buyer order list.
type RootHandler struct {
	Portal    *portal.Service
	Log       *logger.Logger
	BuyerHome string
}

func (h *RootHandler) Dispatch(c *gin.Context) {
	token, present := c.GetQuery("access_token")
	if !present {
		c.Redirect(http.StatusFound, h.BuyerHome)
		return
	}

	view, err := h.Portal.SupplierView(c.Request.Context(), token)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HealthHandler reports liveness plus the state of each named dependency.
type HealthHandler struct {
	Checks map[string]func(ctx context.Context) error
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := gin.H{}
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
