package user

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core"
)

// Token type discriminator. Access tokens authenticate single requests;
// refresh tokens are used solely to mint new pairs.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenMalformed = errors.New("token is malformed")

	nowFunc = time.Now // mockable
)

// Claims represents the authorization claims transmitted via a JWT.
// The role claim carries enough information for coarse-grained checks so that
// downstream authorization does not need a second store lookup; identity
// sensitive checks still re-resolve the principal from the store.
type Claims struct {
	jwt.StandardClaims
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type,omitempty"`
}

// TokenService issues and verifies signed, time-bounded tokens.
// Tokens are never persisted; expiry is the only invalidation mechanism.
type TokenService struct {
	signingKey   []byte
	issuer       string
	accessDelta  time.Duration
	refreshDelta time.Duration
}

func NewTokenService(conf *core.Config) *TokenService {
	return &TokenService{
		signingKey:   conf.SecretKey,
		issuer:       conf.AppName,
		accessDelta:  conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
	}
}

// GetUserClaims builds the claims for usr with the given type and lifetime.
func (ts *TokenService) GetUserClaims(usr User, tokenType string, delta time.Duration) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ts.issuer,
			Subject:   usr.Email,
			Audience:  "Courses",
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(delta).Unix(),
		},
		Email:     usr.Email,
		Role:      usr.Role,
		TokenType: tokenType,
	}
}

// GenerateToken generates a signed JWT token string representing the claims.
func (ts *TokenService) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// IssueAccessToken issues a short-lived access token for usr.
// It never fails for a well-formed user.
func (ts *TokenService) IssueAccessToken(usr User) (string, error) {
	return ts.GenerateToken(ts.GetUserClaims(usr, TokenTypeAccess, ts.accessDelta))
}

// IssueRefreshToken issues a long-lived refresh token for usr.
func (ts *TokenService) IssueRefreshToken(usr User) (string, error) {
	return ts.GenerateToken(ts.GetUserClaims(usr, TokenTypeRefresh, ts.refreshDelta))
}

func (ts *TokenService) parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Validate reports whether tokenStr is a valid access token for usr.
// Malformed, tampered, expired, wrong-type and subject-mismatched tokens are
// all treated as invalid; no error is ever surfaced.
func (ts *TokenService) Validate(tokenStr string, usr User) bool {
	return ts.validate(tokenStr, usr, TokenTypeAccess)
}

// IsRefreshTokenValid is Validate for refresh tokens.
func (ts *TokenService) IsRefreshTokenValid(tokenStr string, usr User) bool {
	return ts.validate(tokenStr, usr, TokenTypeRefresh)
}

func (ts *TokenService) validate(tokenStr string, usr User, tokenType string) bool {
	claims, err := ts.parse(tokenStr)
	if err != nil {
		return false
	}
	if claims.TokenType != tokenType {
		return false
	}
	return claims.Subject != "" && claims.Subject == usr.Email
}

// ExtractSubject returns the subject claim of tokenStr.
// It fails with ErrTokenMalformed if the token cannot be parsed or verified.
// A token whose only defect is expiry still yields its subject: the refresh
// flow needs the original claim email to resolve the principal before
// rejecting the token as invalid.
func (ts *TokenService) ExtractSubject(tokenStr string) (string, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.signingKey, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors == jwt.ValidationErrorExpired {
			return claims.Subject, nil
		}
		return "", errors.Wrap(ErrTokenMalformed, err.Error())
	}
	return claims.Subject, nil
}
