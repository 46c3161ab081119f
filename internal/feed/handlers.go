package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/protocol"
	"github.com/whoomp/whoomp/internal/version"
)

// DefaultSource tags frames posted without a source.
const DefaultSource = "http"

type frameRequest struct {
	Hex    string `json:"hex" binding:"required"`
	Source string `json:"source"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}

type commandEntry struct {
	Type        uint8  `json:"type"`
	TypeName    string `json:"type_name"`
	Command     uint8  `json:"command"`
	CommandName string `json:"command_name"`
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.engine.Group("/v1")
	v1.POST("/frames", s.handlePostFrame)
	v1.GET("/series", s.handleSeries)
	v1.GET("/commands", s.handleCommands)

	s.engine.GET("/ws", s.handleWebSocket)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     version.Get(),
		"frames":      s.store.Total(),
		"retained":    s.store.Len(),
		"subscribers": s.hub.Count(),
	})
}

func (s *Server) handlePostFrame(c *gin.Context) {
	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), ErrorKind: "invalid_request"})
		return
	}
	raw, err := capture.ParseHex(req.Hex)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), ErrorKind: "invalid_hex"})
		return
	}

	source := req.Source
	if source == "" {
		source = DefaultSource
	}

	ev := s.Ingest(source, raw)
	if ev.Kind == EventRejected {
		c.JSON(http.StatusBadRequest, ev)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (s *Server) handleSeries(c *gin.Context) {
	samples := s.store.Series()
	c.JSON(http.StatusOK, gin.H{"count": len(samples), "samples": samples})
}

func (s *Server) handleCommands(c *gin.Context) {
	keys := s.store.Commands()
	entries := make([]commandEntry, len(keys))
	for i, k := range keys {
		entries[i] = commandEntry{
			Type:        uint8(k.Type),
			TypeName:    k.Type.String(),
			Command:     k.Command,
			CommandName: protocol.CommandName(k.Type, k.Command),
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "commands": entries})
}
