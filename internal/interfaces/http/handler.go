// @title           Bond Calculator API
// @version         1.0
// @description     MOEX bond catalog search and bond trade yield calculator
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8050
// @BasePath  /api/v1

package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	appinterfaces "bondscalc/internal/application/interfaces"
	appbonds "bondscalc/internal/application/service/bonds"
	domainbonds "bondscalc/internal/domain/entity/bonds"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	apiBasePath   = "/api/v1"
	bondsBasePath = apiBasePath + "/bonds"
)

var (
	errMissingSecID = errors.New("missing secid")
	errBadSellPrice = errors.New("sell_price must be a number")
	errBadBuyDate   = errors.New("buy_date must be YYYY-MM-DD or DD.MM.YYYY")
	errBadSellType  = errors.New("sell_type must be one of offer, maturity, sell")
)

type Handler struct {
	router   *gin.Engine
	bonds    *appbonds.Service
	cache    *redis.Client
	cacheTTL time.Duration
	now      func() time.Time
}

var _ appinterfaces.HTTPHandler = (*Handler)(nil)

func NewHandler(bonds *appbonds.Service, cache *redis.Client, cacheTTL time.Duration) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		bonds:    bonds,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	bonds := h.router.Group(bondsBasePath)
	if h.cache != nil {
		bonds.Use(h.cacheMiddleware())
	}
	{
		bonds.GET("/search", h.searchBonds)
		bonds.GET("/:secid", h.getBond)
		bonds.GET("/:secid/calc", h.prefillCalc)
	}

	h.router.POST(apiBasePath+"/calc", h.calculate)
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbonds.ErrNotFound):
		writeError(c, http.StatusNotFound, err)
	case errors.Is(err, appbonds.ErrQueryTooShort), errors.Is(err, appbonds.ErrEmptySecID):
		writeError(c, http.StatusBadRequest, err)
	default:
		writeError(c, http.StatusInternalServerError, err)
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			_ = h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err()
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

// cacheKey uses the request path rather than the route pattern so that
// different SECIDs do not share an entry.
func cacheKey(r *http.Request) string {
	return fmt.Sprintf("cache:%s:%s?%s", r.Method, r.URL.Path, r.URL.RawQuery)
}
