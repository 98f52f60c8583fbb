package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := issueAccessToken(42, "the-salt")
	require.NoError(t, err)

	claims, err := parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenTypeAccess, claims["type"])
	assert.Equal(t, "the-salt", claims["salt"])

	userID, ok := claimsUserID(claims)
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)
}

func TestAccessTokenWithoutSaltOmitsClaim(t *testing.T) {
	token, err := issueAccessToken(42, "")
	require.NoError(t, err)

	claims, err := parseToken(token)
	require.NoError(t, err)
	_, present := claims["salt"]
	assert.False(t, present, "refresh-minted tokens must not carry a salt claim")
}

func TestRefreshTokenCarriesIdentityOnly(t *testing.T) {
	token, err := issueRefreshToken(42)
	require.NoError(t, err)

	claims, err := parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenTypeRefresh, claims["type"])
	_, present := claims["salt"]
	assert.False(t, present)
}

func TestParseTokenRejectsBadSignature(t *testing.T) {
	token, err := issueAccessToken(42, "salt")
	require.NoError(t, err)

	old := jwtSecret
	jwtSecret = []byte("a-different-secret")
	t.Cleanup(func() { jwtSecret = old })

	_, err = parseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	old := accessTokenTTL
	accessTokenTTL = -time.Minute
	token, err := issueAccessToken(42, "salt")
	accessTokenTTL = old
	require.NoError(t, err)

	_, err = parseToken(token)
	assert.Error(t, err)
}

func middlewareRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(jwtAuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := currentUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id, "salt": c.GetString(ctxSalt)})
	})
	return r
}

func TestAuthMiddlewareAcceptsAccessToken(t *testing.T) {
	r := middlewareRouter(t)
	token, err := issueAccessToken(7, "salt-7")
	require.NoError(t, err)

	rec := performRequest(r, http.MethodGet, "/whoami", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	r := middlewareRouter(t)
	token, err := issueRefreshToken(7)
	require.NoError(t, err)

	rec := performRequest(r, http.MethodGet, "/whoami", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, msgAuthRequired, env.Msg)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	r := middlewareRouter(t)
	rec := performRequest(r, http.MethodGet, "/whoami", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsGarbage(t *testing.T) {
	r := middlewareRouter(t)
	rec := performRequest(r, http.MethodGet, "/whoami", nil, "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordPolicy(t *testing.T) {
	cases := map[string]bool{
		"Abcdef12":   true,
		"Str0ngPass": true,
		"short1A":    false, // 7 runes
		"alllower1":  false, // no upper
		"ALLUPPER1":  false, // no lower
		"NoDigitsAa": false,
	}
	for pw, want := range cases {
		assert.Equal(t, want, passwordOK(pw), "password %q", pw)
	}
}
