package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/audiospace/audiospace-backend/internal/core"
	"github.com/audiospace/audiospace-backend/internal/domain"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RoomsOf lists the room ids a user holds a durable membership record for,
// so a returning participant can rediscover rooms across server restarts.
func RoomsOf(memb core.MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if memb == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "DB not ready"})
			return
		}

		ids, err := memb.RoomsOf(c.Request.Context(), c.Param("user"))
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("rooms lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "DB not ready"})
			return
		}
		if ids == nil {
			ids = []domain.RoomID{}
		}
		c.JSON(http.StatusOK, ids)
	}
}
