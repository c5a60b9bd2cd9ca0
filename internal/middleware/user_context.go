package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/models"
)

const currentUserKey = "CurrentUser"

// UserLoader resolves the session's user id.
type UserLoader interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

// InjectUser loads the session user, if any, into the gin context. A session
// pointing at a deleted user is cleared.
func InjectUser(users UserLoader, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uidRaw := sess.Get(SessionUserID); uidRaw != nil {
			if uid, ok := uidRaw.(uint); ok && uid > 0 {
				user, err := users.User(c.Request.Context(), uid)
				if err == nil {
					c.Set(currentUserKey, user)
				} else {
					log.DebugContext(c.Request.Context(), "dropping session of unknown user", "user_id", uid, "error", err)
					sess.Clear()
					_ = sess.Save()
				}
			}
		}

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
