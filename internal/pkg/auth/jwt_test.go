package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/your-org/forms-backend/internal/config"
)

func testManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:            "0123456789abcdef0123456789abcdef",
		Issuer:            "forms-auth",
		AccessTokenExpiry: time.Hour,
	})
}

func TestGenerateAndValidate(t *testing.T) {
	m := testManager()
	token, err := m.GenerateAccessToken(42, "asha", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "asha" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.HasRole("ADMIN") {
		t.Error("expected admin role")
	}
}

func TestValidateRejects(t *testing.T) {
	m := testManager()

	expired := testManager()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _ := expired.GenerateAccessToken(1, "old")

	other := NewJWTManager(config.JWTConfig{Secret: "another-secret-another-secret-xx", Issuer: "forms-auth", AccessTokenExpiry: time.Hour})
	foreignToken, _ := other.GenerateAccessToken(1, "x")

	wrongIssuer := NewJWTManager(config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Issuer: "elsewhere", AccessTokenExpiry: time.Hour})
	wrongIssuerToken, _ := wrongIssuer.GenerateAccessToken(1, "x")

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1, TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "forms-auth", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	refreshToken, _ := refresh.SignedString([]byte("0123456789abcdef0123456789abcdef"))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"expired", expiredToken, ErrInvalidToken},
		{"wrong secret", foreignToken, ErrInvalidToken},
		{"wrong issuer", wrongIssuerToken, ErrInvalidToken},
		{"refresh token", refreshToken, ErrTokenType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateAccessToken(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearer":     "",
		"":           "",
	}
	for header, want := range tests {
		if got := ExtractTokenFromHeader(header); got != want {
			t.Errorf("ExtractTokenFromHeader(%q) = %q, want %q", header, got, want)
		}
	}
}
