package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"tugasku/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Context keys set by jwtAuthMiddleware.
const (
	ctxUserID = "userID"
	ctxSalt   = "salt"
)

// Token type claims. A refresh token must never pass as an access token.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Token lifetimes, overridable via env (see loadTokenTTLs in main.go).
var (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

var errInvalidCredentials = errors.New("invalid credentials")

// Authenticate verifies email/password against the stored bcrypt hash. The
// returned user carries the hash the login key is derived from.
func Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return &user, nil
}

// issueAccessToken signs an access token asserting identity and, when minted
// at login, the session salt. Tokens minted by refresh carry no salt, so a
// new salt always requires a new login.
func issueAccessToken(userID uint, salt string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  float64(userID),
		"type": tokenTypeAccess,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	}
	if salt != "" {
		claims["salt"] = salt
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// issueRefreshToken signs a long-lived token asserting identity only.
func issueRefreshToken(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(userID),
		"type": tokenTypeRefresh,
		"exp":  time.Now().Add(refreshTokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// parseToken verifies signature and expiry and returns the claims.
func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// claimsUserID extracts the sub claim. JSON numbers arrive as float64.
func claimsUserID(claims jwt.MapClaims) (uint, bool) {
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, false
	}
	return uint(sub), true
}

// currentUserID returns the authenticated caller's id set by the middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// hashToken produces the storage form of a refresh token for the revocation
// table; raw tokens are never persisted.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// revokeRefreshToken records a refresh token as revoked until its expiry.
// Inserting the same token twice is a no-op conflict, not an error.
func revokeRefreshToken(userID uint, token string, expiresAt time.Time) error {
	rt := models.RevokedToken{UserID: userID, TokenHash: hashToken(token), ExpiresAt: expiresAt}
	if err := db.Create(&rt).Error; err != nil && !isUniqueConstraintError(err) {
		return err
	}
	return nil
}

// refreshTokenRevoked reports whether a refresh token was revoked at logout.
func refreshTokenRevoked(token string) bool {
	var count int64
	db.Model(&models.RevokedToken{}).Where("token_hash = ?", hashToken(token)).Count(&count)
	return count > 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
