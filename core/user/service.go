package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		ExistsUserByEmail(ctx context.Context, email string) (bool, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// Authenticator verifies a credential pair against the stored secret.
	// It answers yes/no only; principal resolution stays with the caller.
	Authenticator interface {
		Authenticate(ctx context.Context, email, password string) error
	}

	Service struct {
		repo    Repository
		tokens  *TokenService
		auth    Authenticator
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(
	conf *core.Config,
	repo Repository,
	tokens *TokenService,
	auth Authenticator,
	mailSvc core.EmailService,
) *Service {
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &Service{
		repo:    repo,
		tokens:  tokens,
		auth:    auth,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) Tokens() *TokenService { return svc.tokens }

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register persists a new Student-role principal with a hashed secret.
// The email uniqueness check is repeated at the store layer; a duplicate
// surfaces as ErrEmailExists wrapped in a ValidationError.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		Role:      RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{usr.Name()},
	})
	return usr, nil
}

// Login verifies credentials and issues an access+refresh token pair.
//
// Credential verification is delegated to the Authenticator; a failure is
// client-facing (ErrInvalidCredentials). A principal that cannot be found
// right after its credentials verified is an inconsistent store and surfaces
// as a SystemError: fatal for the request, reported, never retried.
func (svc *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = core.CleanString(email, true /* lower */)

	if err := svc.auth.Authenticate(ctx, email, password); err != nil {
		if errors.Cause(err) == ErrInvalidCredentials {
			return TokenPair{}, err
		}
		return TokenPair{}, errors.Wrap(err, "authenticating")
	}

	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return TokenPair{}, core.NewSystemError(
				fmt.Sprintf("user %q absent after successful credential check", email), err)
		}
		return TokenPair{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.IsActive {
		return TokenPair{}, ErrAccountDeactivated
	}

	if usr, err = svc.setLastLogin(ctx, usr); err != nil {
		return TokenPair{}, errors.Wrap(err, "setting last login")
	}
	return svc.issuePair(usr)
}

// Refresh mints a fresh access+refresh pair from a valid refresh token.
// The previous refresh token is not revoked: refresh is stateless and expiry
// is the only invalidation mechanism.
func (svc *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	subject, err := svc.tokens.ExtractSubject(refreshToken)
	if err != nil {
		return TokenPair{}, core.NewSystemError("extracting refresh token subject", err)
	}
	if subject == "" {
		return TokenPair{}, ErrInvalidToken
	}

	usr, err := svc.repo.GetUserByEmail(ctx, subject)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, errors.Wrap(err, "finding user by email")
	}
	if !svc.tokens.IsRefreshTokenValid(refreshToken, usr) {
		return TokenPair{}, ErrInvalidToken
	}
	if !usr.IsActive {
		return TokenPair{}, ErrAccountDeactivated
	}
	return svc.issuePair(usr)
}

func (svc *Service) issuePair(usr User) (TokenPair, error) {
	access, err := svc.tokens.IssueAccessToken(usr)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "issuing access token")
	}
	refresh, err := svc.tokens.IssueRefreshToken(usr)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "issuing refresh token")
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (svc *Service) setLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetRole applies an explicit admin-granted role change, the only mutation
// path for the role tag.
func (svc *Service) SetRole(ctx context.Context, id, role string) (User, error) {
	if !ValidRole(role) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a reset link to the given address if an active
// account exists for it. Callers hide ErrNotFound from the requester.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: struct{ Name, UID, Token string }{usr.Name(), EncodeUID(usr), makeToken(usr)},
	})
	return nil
}

// ResetPassword sets a new password when the reset token checks out.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

// repoAuthenticator is the default Authenticator: a bcrypt comparison against
// the stored hash.
type repoAuthenticator struct {
	repo Repository
}

func NewRepositoryAuthenticator(repo Repository) Authenticator {
	return &repoAuthenticator{repo: repo}
}

func (a *repoAuthenticator) Authenticate(ctx context.Context, email, password string) error {
	usr, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
