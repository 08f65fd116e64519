package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/engine"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/specialistvlad/flowgrid/internal/persist"
)

var errBadRequest = errors.New("bad request")

// Server binds HTTP routes to an engine.
type Server struct {
	mu     sync.Mutex
	engine *engine.Engine
	state  *persist.Dir
	logger *slog.Logger
}

// New creates a server. state may be nil to keep everything in memory.
func New(e *engine.Engine, state *persist.Dir, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: e, state: state, logger: logger}
}

// Router builds the gin router with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.serialize())

	r.GET("/health", s.handleHealth)

	r.GET("/workflows", s.handleListWorkflows)
	r.POST("/workflows", s.handleCreateWorkflow)
	r.POST("/workflows/import", s.handleImportWorkflow)
	r.GET("/workflows/:id", s.handleGetWorkflow)
	r.PUT("/workflows/:id", s.handleRenameWorkflow)
	r.GET("/workflows/:id/export", s.handleExportWorkflow)
	r.DELETE("/workflows/:id", s.handleDeleteWorkflow)
	r.POST("/workflows/:id/switch", s.handleSwitchWorkflow)

	r.GET("/canvas", s.handleGetCanvas)
	r.POST("/canvas/nodes", s.handleAddNode)
	r.PUT("/canvas/nodes", s.handleSetNodes)
	r.DELETE("/canvas/nodes", s.handleRemoveNodes)
	r.POST("/canvas/edges", s.handleAddEdge)
	r.PUT("/canvas/edges", s.handleSetEdges)
	r.DELETE("/canvas/edges", s.handleRemoveEdges)
	r.POST("/canvas/save", s.handleSave)
	r.GET("/canvas/validate", s.handleValidate)
	r.GET("/canvas/order", s.handleOrder)

	r.PUT("/configs/:type", s.handleSetConfig)
	r.PUT("/headers/:nodeId", s.handleSetHeader)
	r.GET("/headers", s.handleHeaders)

	r.POST("/plan", s.handlePlan)
	r.POST("/run", s.handleRun)
	return r
}

// ListenAndServe serves the router on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening.", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP API.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), s.logger))
		c.Next()
		s.logger.Debug("HTTP request served.",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) serialize() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.Next()
	}
}

// commit writes persisted state after a successful mutation.
func (s *Server) commit(c *gin.Context) error {
	if s.state == nil {
		return nil
	}
	if err := s.engine.Save(c.Request.Context(), s.state); err != nil {
		s.logger.Error("Failed to persist state.", "error", err)
		return err
	}
	return nil
}

func bind(c *gin.Context, out any) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	sendSuccess(c, http.StatusOK, gin.H{"status": "healthy"})
}

type workflowSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Server) handleListWorkflows(c *gin.Context) {
	list := s.engine.Workflows().List()
	out := make([]workflowSummary, len(list))
	for i, w := range list {
		out[i] = workflowSummary{ID: w.ID, Name: w.Name, Nodes: len(w.Nodes), CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt}
	}
	sendSuccess(c, http.StatusOK, gin.H{"currentId": s.engine.Workflows().CurrentID(), "workflows": out})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateWorkflow(c *gin.Context) {
	var req nameRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	id, err := s.engine.CreateWorkflow(req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"id": id})
}

func (s *Server) handleImportWorkflow(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	w, err := s.engine.ImportWorkflow(data)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"workflow": w})
}

func (s *Server) handleGetWorkflow(c *gin.Context) {
	w, err := s.engine.Workflows().GetWorkflowData(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"workflow": w})
}

func (s *Server) handleRenameWorkflow(c *gin.Context) {
	var req nameRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := s.engine.RenameWorkflow(c.Param("id"), req.Name); err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) handleExportWorkflow(c *gin.Context) {
	data, err := s.engine.ExportWorkflow(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Param("id")+".json"))
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleDeleteWorkflow(c *gin.Context) {
	if err := s.engine.RemoveWorkflow(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"currentId": s.engine.Workflows().CurrentID()})
}

func (s *Server) handleSwitchWorkflow(c *gin.Context) {
	discarded := s.engine.Dirty()
	w, err := s.engine.SwitchWorkflow(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"workflow": w, "discardedUnsaved": discarded})
}

func (s *Server) handleGetCanvas(c *gin.Context) {
	nodes, edges := s.engine.Canvas()
	sendSuccess(c, http.StatusOK, gin.H{
		"workflowId": s.engine.Workflows().CurrentID(),
		"nodes":      nonNilNodes(nodes),
		"edges":      nonNilEdges(edges),
		"dirty":      s.engine.Dirty(),
	})
}

func (s *Server) handleAddNode(c *gin.Context) {
	var n node.Node
	if err := bind(c, &n); err != nil {
		fail(c, err)
		return
	}
	if err := s.engine.AddNode(n); err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"node": n})
}

type nodesRequest struct {
	Nodes []node.Node `json:"nodes"`
}

func (s *Server) handleSetNodes(c *gin.Context) {
	var req nodesRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := s.engine.SetNodes(req.Nodes); err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"dirty": s.engine.Dirty()})
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleRemoveNodes(c *gin.Context) {
	var req idsRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	removed := s.engine.RemoveNodes(req.IDs)
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	sendSuccess(c, http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleAddEdge(c *gin.Context) {
	var e node.Edge
	if err := bind(c, &e); err != nil {
		fail(c, err)
		return
	}
	stored, err := s.engine.AddEdge(e)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, gin.H{"edge": stored})
}

type edgesRequest struct {
	Edges []node.Edge `json:"edges"`
}

func (s *Server) handleSetEdges(c *gin.Context) {
	var req edgesRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := s.engine.SetEdges(req.Edges); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"dirty": s.engine.Dirty()})
}

func (s *Server) handleRemoveEdges(c *gin.Context) {
	var req idsRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	removed := s.engine.RemoveEdges(req.IDs)
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleSave(c *gin.Context) {
	if err := s.engine.SaveCanvas(); err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"workflowId": s.engine.Workflows().CurrentID()})
}

func (s *Server) handleValidate(c *gin.Context) {
	result := s.engine.Validate()
	data := gin.H{"isValid": result.Valid, "path": result.Path}
	if !result.Valid {
		data["reason"] = result.Reason
		data["message"] = result.Reason.Message()
	}
	sendSuccess(c, http.StatusOK, data)
}

func (s *Server) handleOrder(c *gin.Context) {
	sendSuccess(c, http.StatusOK, gin.H{"nodes": nonNilNodes(s.engine.Order())})
}

func (s *Server) handleSetConfig(c *gin.Context) {
	typ := node.ParseType(c.Param("type"))
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cfg, err := nodeconfig.Decode(typ, data)
	if err != nil {
		fail(c, err)
		return
	}
	stored, err := s.engine.SetConfig(cfg)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"config": stored})
}

type labelRequest struct {
	Label string `json:"label"`
}

func (s *Server) handleSetHeader(c *gin.Context) {
	var req labelRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	label := s.engine.SetHeader(c.Param("nodeId"), req.Label)
	if err := s.commit(c); err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"label": label})
}

func (s *Server) handleHeaders(c *gin.Context) {
	sendSuccess(c, http.StatusOK, gin.H{"headers": s.engine.Headers(), "labels": s.engine.Labels()})
}

func (s *Server) handlePlan(c *gin.Context) {
	p, err := s.engine.Plan(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, p)
}

type runRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.Path == "" {
		fail(c, fmt.Errorf("%w: path is required", errBadRequest))
		return
	}
	res, p, err := s.engine.Run(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"elapsed": res.Elapsed, "operations": p.Operations, "unresolved": p.Unresolved})
}

func nonNilNodes(nodes []node.Node) []node.Node {
	if nodes == nil {
		return []node.Node{}
	}
	return nodes
}

func nonNilEdges(edges []node.Edge) []node.Edge {
	if edges == nil {
		return []node.Edge{}
	}
	return edges
}
