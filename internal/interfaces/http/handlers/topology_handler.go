package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/HexaTopo/internal/application/query"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

// TopologyHandler serves the four predicate operations.  The operation is
// the final path segment; both predicates arrive in the request body.
type TopologyHandler struct {
	service query.Service
	logger  logging.Logger
}

func NewTopologyHandler(service query.Service, log logging.Logger) *TopologyHandler {
	return &TopologyHandler{
		service: service,
		logger:  log.Named("topology-handler"),
	}
}

// QueryRequest carries the two attribute predicates of a topology query.
type QueryRequest struct {
	A string `json:"a" binding:"required"`
	B string `json:"b" binding:"required"`
}

// RegisterRoutes mounts the topology endpoints on the given group.
func (h *TopologyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/topology/:operation", h.Query)
}

// Query handles POST /v1/topology/{operation}.
func (h *TopologyHandler) Query(c *gin.Context) {
	op := common.Operation(c.Param("operation"))
	if !op.Valid() {
		respondError(c, errors.Newf(errors.ErrCodeUnknownOperation, "unknown operation %q", op))
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "both predicates are required"))
		return
	}

	result, err := h.service.Execute(c.Request.Context(), op, common.Predicate(req.A), common.Predicate(req.B))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, result)
}
