package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(expiration time.Duration) *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:      "test-secret",
		ExpirationTime: expiration,
		Issuer:         "bookmarket",
	})
}

func TestJWTRoundTrip(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	token, err := svc.GenerateToken("user-1", "张三", "zhangsan@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "张三", claims.Name)
	assert.Equal(t, "zhangsan@example.com", claims.Email)
	assert.Equal(t, "bookmarket", claims.Issuer)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestJWTExpiration(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	token, err := svc.GenerateToken("user-1", "张三", "zhangsan@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	// 过期时间应落在 签发时间+1小时 附近
	expectedExpiry := claims.IssuedAt.Time.Add(time.Hour)
	assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, time.Second)
}

func TestJWTExpiredTokenRejected(t *testing.T) {
	svc := newTestJWTService(-time.Minute)

	token, err := svc.GenerateToken("user-1", "张三", "zhangsan@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTTamperedSignatureRejected(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	token, err := svc.GenerateToken("user-1", "张三", "zhangsan@example.com")
	require.NoError(t, err)

	// 换一个签名密钥校验，必须失败
	other := NewJWTService(&JWTConfig{
		SecretKey:      "another-secret",
		ExpirationTime: time.Hour,
		Issuer:         "bookmarket",
	})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTGarbageTokenRejected(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	_, err := svc.ValidateToken("not-a-jwt-at-all")
	assert.Error(t, err)
}
