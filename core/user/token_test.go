package user

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core"
)

func testTokenService() *TokenService {
	return NewTokenService(&core.Config{
		AppName:   "CourseAPI",
		SecretKey: []byte("secret"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        30 * time.Minute,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		},
	})
}

func testUser(t *testing.T, email, role string) User {
	t.Helper()
	now := time.Now().UTC()
	usr := User{
		ID:        "4f5e4a2e-0000-4000-8000-000000000001",
		FirstName: "Tsepo",
		LastName:  "Mok",
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword("Sup€rStr0ng"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	return usr
}

func TestTokenService_roundTrip(t *testing.T) {
	ts := testTokenService()
	usr := testUser(t, "tsepo@test.cd", RoleStudent)
	other := testUser(t, "other@test.cd", RoleStudent)

	access, err := ts.IssueAccessToken(usr)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	refresh, err := ts.IssueRefreshToken(usr)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	tests := []struct {
		name        string
		token       string
		usr         User
		wantValid   bool
		wantRefresh bool
	}{
		{name: "access validates as access", token: access, usr: usr, wantValid: true},
		{name: "refresh validates as refresh", token: refresh, usr: usr, wantRefresh: true},
		{name: "subject mismatch", token: access, usr: other},
		{name: "garbage", token: "lol.lmao.rofl", usr: usr},
		{name: "empty", token: "", usr: usr},
		{name: "tampered", token: tamper(access), usr: usr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ts.Validate(tt.token, tt.usr); got != tt.wantValid {
				t.Errorf("Validate() = %v, want %v", got, tt.wantValid)
			}
			if got := ts.IsRefreshTokenValid(tt.token, tt.usr); got != tt.wantRefresh {
				t.Errorf("IsRefreshTokenValid() = %v, want %v", got, tt.wantRefresh)
			}
		})
	}
}

func TestTokenService_expiry(t *testing.T) {
	ts := testTokenService()
	usr := testUser(t, "tsepo@test.cd", RoleStudent)

	// issue tokens in the past, beyond both lifetimes
	nowFunc = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	access, _ := ts.IssueAccessToken(usr)
	refresh, _ := ts.IssueRefreshToken(usr)
	nowFunc = time.Now // reset

	if ts.Validate(access, usr) {
		t.Error("Validate() = true for an expired access token")
	}
	if ts.IsRefreshTokenValid(refresh, usr) {
		t.Error("IsRefreshTokenValid() = true for an expired refresh token")
	}

	// an expired-but-authentic token still surrenders its subject
	subject, err := ts.ExtractSubject(refresh)
	if err != nil {
		t.Fatalf("ExtractSubject() error = %v", err)
	}
	if subject != usr.Email {
		t.Errorf("ExtractSubject() = %q, want %q", subject, usr.Email)
	}
}

func TestTokenService_ExtractSubject(t *testing.T) {
	ts := testTokenService()
	usr := testUser(t, "tsepo@test.cd", RoleInstructor)

	access, err := ts.IssueAccessToken(usr)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	tests := []struct {
		name        string
		token       string
		wantSubject string
		wantErr     error
	}{
		{name: "valid", token: access, wantSubject: usr.Email},
		{name: "empty", token: "", wantErr: ErrTokenMalformed},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrTokenMalformed},
		{name: "tampered", token: tamper(access), wantErr: ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := ts.ExtractSubject(tt.token)
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("ExtractSubject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if subject != tt.wantSubject {
				t.Errorf("ExtractSubject() = %q, want %q", subject, tt.wantSubject)
			}
		})
	}
}

func TestTokenService_differentKeys(t *testing.T) {
	ts := testTokenService()
	evil := NewTokenService(&core.Config{
		SecretKey: []byte("other-secret"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        30 * time.Minute,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		},
	})
	usr := testUser(t, "tsepo@test.cd", RoleStudent)

	forged, err := evil.IssueAccessToken(usr)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if ts.Validate(forged, usr) {
		t.Error("Validate() = true for a token signed with another key")
	}
	if _, err = ts.ExtractSubject(forged); errors.Cause(err) != ErrTokenMalformed {
		t.Errorf("ExtractSubject() error = %v, want ErrTokenMalformed", err)
	}
}

// tamper flips the last character of the token payload.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token + "x"
	}
	payload := parts[1]
	c := byte('A')
	if payload[len(payload)-1] == 'A' {
		c = 'B'
	}
	parts[1] = payload[:len(payload)-1] + string(c)
	return strings.Join(parts, ".")
}
