package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gateway-service/internal/api/middleware"
	"gateway-service/internal/ws"
)

type Router struct {
	engine    *gin.Engine
	wsHandler *ws.Handler
}

func NewRouter(wsHandler *ws.Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.LogApi())

	return &Router{
		engine:    engine,
		wsHandler: wsHandler,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/ws", r.wsHandler.Serve)
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
