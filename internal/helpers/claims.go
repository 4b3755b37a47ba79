package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified caller, as asserted by the identity provider.
// It is passed explicitly into every authorization check; nothing in the
// services reads ambient session state.
type Identity struct {
	UID   string
	Email string
	Admin bool
}

// CanManage reports whether this identity may mutate a record owned by
// hostID: the owner or an admin.
func (id Identity) CanManage(hostID string) bool {
	return id.Admin || (id.UID != "" && id.UID == hostID)
}

// AuthClaims is the token payload the identity provider issues.
type AuthClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

func (c *AuthClaims) Identity() Identity {
	return Identity{
		UID:   c.Subject,
		Email: c.Email,
		Admin: c.Admin,
	}
}

const identityKey = "identity"

// SetIdentity stores the verified identity on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// CurrentIdentity returns the identity placed by the auth middleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
