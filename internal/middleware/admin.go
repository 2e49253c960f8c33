package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// AdminPINHeader carries the device-local maintenance PIN.
const AdminPINHeader = "X-Admin-PIN"

// AdminPIN guards maintenance endpoints with a bcrypt-hashed PIN set at
// deploy time. An empty hash disables the guarded routes entirely rather
// than leaving them open.
func AdminPIN(pinHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pinHash == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "maintenance access is not configured"))
			c.Abort()
			return
		}

		pin := c.GetHeader(AdminPINHeader)
		if pin == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "a maintenance PIN is required"))
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin)); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "incorrect maintenance PIN"))
			c.Abort()
			return
		}

		c.Next()
	}
}
