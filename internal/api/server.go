package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/voxelflow/posemb/internal/posemb"
)

// Server exposes embedding generation over HTTP.
type Server struct {
	provider EmbedderProvider
	defaults string
	clock    func() time.Time
}

func NewServer(provider EmbedderProvider) *Server {
	s := &Server{
		provider: provider,
		clock:    time.Now,
	}
	if p, ok := provider.(*CachedEmbedderProvider); ok {
		s.defaults = p.Default()
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/embeddings", s.handleCreateEmbedding)
	e.GET("/v1/variants", s.handleListVariants)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleCreateEmbedding(c *echo.Context) error {
	if s.provider == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "embedder provider not configured", "", "")
	}
	req, err := decodeJSON[EmbedRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Shape) != 5 {
		return writeBadRequest(c, "shape must be [B,T,H,W,C]")
	}
	for _, d := range req.Shape {
		if d <= 0 {
			return writeBadRequest(c, "shape extents must be positive")
		}
	}
	shape := posemb.Shape{B: req.Shape[0], T: req.Shape[1], H: req.Shape[2], W: req.Shape[3], C: req.Shape[4]}
	opts := &posemb.GenerateOptions{FPS: req.FPS}
	if req.NTK != nil {
		opts.NTK = &posemb.NTKOverrides{H: req.NTK.H, W: req.NTK.W, T: req.NTK.T}
	}

	var resp EmbedResponse
	err = s.provider.WithEmbedder(req.Variant, func(variant string, emb posemb.Embedder) error {
		out, genErr := emb.Generate(shape, opts)
		if genErr != nil {
			return genErr
		}
		resp = EmbedResponse{
			ID:        "emb-" + uuid.NewString(),
			Object:    "positional.embedding",
			CreatedAt: s.clock().Unix(),
			Variant:   variant,
			Dims:      out.Dims,
			Elements:  out.NumElems(),
			Stats:     tensorStats(out),
		}
		if req.ReturnData {
			resp.Data = out.Data
		}
		return nil
	})
	if err != nil {
		// Generation failures are configuration or shape mistakes on the
		// caller's side, never server state.
		return writeBadRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListVariants(c *echo.Context) error {
	return c.JSON(http.StatusOK, VariantsResponse{
		Object:   "list",
		Default:  s.defaults,
		Variants: posemb.Variants,
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
