// Package http wires the gin surface: health, catalog search proxy, durable
// room lookup, websocket upgrade and static UI serving.
package http

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	roomsync "github.com/audiospace/audiospace-backend/internal/adapters/sync"
	"github.com/audiospace/audiospace-backend/internal/config"
	"github.com/audiospace/audiospace-backend/internal/core"
)

// ClientTokenMiddleware tags each browser with a cookie token so websocket
// sessions are correlatable in logs. Usernames stay self-asserted; this is
// not authentication.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *roomsync.Controller, memb core.MembershipStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	if cfg.AllowOrigins == "" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.AllowOrigins}
	}
	r.Use(cors.New(corsCfg))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("AudiospaceSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/health", Health)

	search := NewSearchProxy(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey)
	r.GET("/search", search.Handle)

	r.GET("/rooms/:user", RoomsOf(memb))

	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	return r
}
