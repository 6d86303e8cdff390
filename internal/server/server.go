// Package server exposes a service.Service over the /todos HTTP protocol
// spoken by the remote backend.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tasklist/internal/service"
)

// Server serves the todos API.
type Server struct {
	svc     service.Service
	log     *logrus.Logger
	router  *gin.Engine
	metrics *metrics

	// lists coalesces concurrent GET /todos into one backend read.
	lists singleflight.Group
}

// New builds the router for svc.
func New(svc service.Service, log *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	reg := prometheus.NewRegistry()
	s := &Server{
		svc:     svc,
		log:     log,
		router:  gin.New(),
		metrics: newMetrics(reg),
	}

	s.router.Use(gin.Recovery(), requestLogger(log), s.metrics.middleware())
	s.router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Accept"},
	}))

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	s.router.GET("/todos", s.list)
	s.router.POST("/todos", s.create)
	s.router.PUT("/todos/:id", s.update)
	s.router.DELETE("/todos/:id", s.delete)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createRequest struct {
	Title string `json:"title"`
}

func (s *Server) list(c *gin.Context) {
	ctx := c.Request.Context()
	// The shared read must outlive any single caller; each caller still
	// stops waiting when its own request goes away.
	ch := s.lists.DoChan("list", func() (interface{}, error) {
		return s.svc.List(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		c.Abort()
		return
	}
	if res.Err != nil {
		s.fail(c, res.Err)
		return
	}
	tasks, _ := res.Val.([]service.Task)
	if tasks == nil {
		tasks = []service.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := s.svc.Create(c.Request.Context(), req.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) update(c *gin.Context) {
	var patch service.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := s.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) delete(c *gin.Context) {
	if err := s.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps a service error to a status code.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrEmptyTitle):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
