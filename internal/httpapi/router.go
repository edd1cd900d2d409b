package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/edirooss/seqcrdt/internal/config"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	crdtranges "github.com/edirooss/seqcrdt/internal/crdt/ranges"
	"github.com/edirooss/seqcrdt/internal/crdt/storage"
	"github.com/edirooss/seqcrdt/internal/snapshot"
	"github.com/edirooss/seqcrdt/pkg/jsonx"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// NewRouter builds the gin.Engine serving reg's documents. Middleware order
// is deliberate: Recovery first, then CORS in dev, then request logging.
func NewRouter(cfg config.Config, log *zap.Logger, reg *Registry) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())

	if cfg.Env == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(ZapLogger(log))

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	docs := r.Group("/api/docs/:id")
	docs.GET("", handleView(reg))
	docs.GET("/lines", handleLines(reg))
	docs.POST("/insert", handleInsert(reg))
	docs.POST("/remove", handleRemove(reg))

	return r
}

type insertReq struct {
	Ch string `json:"ch"`
	// Before is tri-state: omitted means "append at the document's end"
	// (pos.Last()), an explicit Position anchors the insert there, and an
	// explicit JSON null is rejected as a malformed request.
	Before jsonx.Field[PositionDTO] `json:"before"`
}

type removeReq struct {
	Position PositionDTO `json:"position"`
}

func handleInsert(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req insertReq
		if err := jsonx.ParseJSONObject(c.Request.Body, &req); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		runes := []rune(req.Ch)
		if len(runes) != 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "ch must be exactly one character"})
			return
		}

		before := pos.Last()
		if req.Before.IsNull() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "before must not be null"})
			return
		}
		if dto, ok := req.Before.Value(); ok {
			p, err := dto.toPosition()
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
				return
			}
			before = p
		}

		s, err := reg.Open(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		p, err := s.Insert(c.Request.Context(), runes[0], before)
		if err != nil {
			_ = c.Error(err)
			if errors.Is(err, snapshot.ErrNotFound) {
				c.JSON(http.StatusConflict, gin.H{"message": "anchor not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, fromPosition(p))
	}
}

func handleRemove(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req removeReq
		if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		p, err := req.Position.toPosition()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}

		s, err := reg.Open(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		ch, err := s.Remove(c.Request.Context(), p)
		if err != nil {
			_ = c.Error(err)
			if errors.Is(err, snapshot.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "position not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ch": string(ch)})
	}
}

func handleView(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := reg.Open(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		var out string
		s.View(func(st *storage.Storage) {
			out = crdtranges.String(st, storage.Unbounded())
		})
		c.JSON(http.StatusOK, gin.H{"text": out})
	}
}

func handleLines(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := reg.Open(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		var lines []string
		s.View(func(st *storage.Storage) {
			for _, lr := range crdtranges.Lines(st, storage.Unbounded()) {
				lines = append(lines, crdtranges.String(st, storage.Between(lr.Start, lr.End)))
			}
		})
		c.JSON(http.StatusOK, gin.H{"lines": lines})
	}
}
