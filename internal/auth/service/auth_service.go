// Package service implements the passwordless authentication core: OTP
// issuance and verification, federated (Google) sign-in, and session minting.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"notes-backend/internal/security"
	userdomain "notes-backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP status codes.
var (
	// ErrValidation marks malformed input (bad email shape, empty name or code).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by the login-OTP path for unknown or unverified
	// accounts. The handler surfaces one message for both so responses do not
	// reveal whether an address is registered.
	ErrNotFound = errors.New("account not found or not verified")
	// ErrNoPendingOTP is returned when no unconsumed code is stored for the account.
	ErrNoPendingOTP = errors.New("no pending one-time code")
	// ErrOTPExpired is returned when the stored code's window has passed.
	ErrOTPExpired = errors.New("one-time code expired")
	// ErrInvalidOTP is returned when the submitted code does not match the stored hash.
	ErrInvalidOTP = errors.New("invalid one-time code")
	// ErrNotVerified is returned by the login verifier for accounts that never completed registration.
	ErrNotVerified = errors.New("account not verified")
	// ErrDelivery is returned when the notifier fails. The pending code has
	// already been persisted by then and stays valid until expiry or supersession.
	ErrDelivery = errors.New("failed to deliver one-time code")
)

// Session is the minted bearer token plus the claims and user it was minted for.
type Session struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
	Name      string
	Email     string
	Role      userdomain.Role
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Save(ctx context.Context, u *userdomain.User) error
}

// Notifier delivers a plaintext one-time code out of band. Implementations
// must not log the code.
type Notifier interface {
	SendOTPEmail(ctx context.Context, to, code string) error
}

// CodeSink optionally records issued plaintext codes for dev-mode retrieval.
// Nil in production.
type CodeSink interface {
	Put(ctx context.Context, key, otp string, expiresAt time.Time)
}

// AuthService implements OTP request/verify for registration and login, and
// federated sign-in. Pending-OTP state is always persisted before the
// notifier is called, so a stalled or failed delivery cannot corrupt stored
// state (it only leaves a pending code with no delivered message).
type AuthService struct {
	users    UserRepo
	notifier Notifier
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	otpTTL   time.Duration
	devSink  CodeSink
	now      func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
// devSink may be nil; when set, issued codes are also recorded there.
func NewAuthService(
	users UserRepo,
	notifier Notifier,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	otpTTL time.Duration,
	devSink CodeSink,
) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	return &AuthService{
		users:    users,
		notifier: notifier,
		hasher:   hasher,
		tokens:   tokens,
		otpTTL:   otpTTL,
		devSink:  devSink,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestOTP starts (or restarts) passwordless registration for email.
// It creates the account on first contact; on an existing account it
// overwrites the name and resets verification, so re-running registration
// always invalidates prior verification state. The new code supersedes any
// earlier pending code.
func (s *AuthService) RequestOTP(ctx context.Context, email, name string) error {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	now := s.now()
	if user == nil {
		user = &userdomain.User{
			ID:        uuid.New().String(),
			Email:     email,
			Name:      name,
			Role:      userdomain.RoleUser,
			CreatedAt: now,
		}
	} else {
		user.Name = name
		user.IsVerified = false
	}

	return s.issueOTP(ctx, user, now)
}

// RequestLoginOTP issues a login code for an existing verified account.
// It never creates accounts.
func (s *AuthService) RequestLoginOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || !user.IsVerified {
		return ErrNotFound
	}

	return s.issueOTP(ctx, user, s.now())
}

// issueOTP generates, hashes, and stores a fresh code on user, persists the
// record, and only then dispatches the plaintext code. The persisted pending
// state is deliberately not rolled back on delivery failure.
func (s *AuthService) issueOTP(ctx context.Context, user *userdomain.User, now time.Time) error {
	code, err := security.GenerateOTP()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash([]byte(code))
	if err != nil {
		return err
	}
	expiresAt := now.Add(s.otpTTL)
	user.SetPendingOTP(hash, expiresAt)
	user.UpdatedAt = now
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}

	if s.devSink != nil {
		s.devSink.Put(ctx, user.Email, code, expiresAt)
	}

	if err := s.notifier.SendOTPEmail(ctx, user.Email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// VerifyRegistration completes registration: checks the pending code, marks
// the account verified, takes the final name, clears both pending fields in
// the same write, and mints a session.
func (s *AuthService) VerifyRegistration(ctx context.Context, email, name, code string) (*Session, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.checkOTP(user, code); err != nil {
		return nil, err
	}

	user.Name = name
	user.IsVerified = true
	user.ClearPendingOTP()
	user.UpdatedAt = s.now()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return s.mint(user)
}

// VerifyLogin completes a login: the account must already be verified and the
// pending code must match. The code is consumed either way only on success.
func (s *AuthService) VerifyLogin(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil && !user.IsVerified {
		return nil, ErrNotVerified
	}
	if err := s.checkOTP(user, code); err != nil {
		return nil, err
	}

	user.ClearPendingOTP()
	user.UpdatedAt = s.now()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return s.mint(user)
}

// checkOTP validates presence, expiry, and the bcrypt match, in that order.
func (s *AuthService) checkOTP(user *userdomain.User, code string) error {
	if user == nil || !user.HasPendingOTP() {
		return ErrNoPendingOTP
	}
	if s.now().After(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if err := s.hasher.Compare(user.OTPCodeHash, []byte(code)); err != nil {
		return ErrInvalidOTP
	}
	return nil
}

// SignInFederated maps a pre-validated external assertion to a local account.
// The caller must already have verified the assertion's authenticity (the
// Google provider does). A new account is created verified with the default
// role; an existing account is logged in as-is — role, google ID, and
// verification state are never changed here.
func (s *AuthService) SignInFederated(ctx context.Context, providerID, email, name string) (*Session, error) {
	providerID = strings.TrimSpace(providerID)
	email = normalizeEmail(email)
	if providerID == "" {
		return nil, fmt.Errorf("%w: provider id is required", ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		now := s.now()
		user = &userdomain.User{
			ID:         uuid.New().String(),
			Email:      email,
			Name:       strings.TrimSpace(name),
			Role:       userdomain.RoleUser,
			IsVerified: true,
			GoogleID:   providerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := user.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := s.users.Save(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.mint(user)
}

// mint issues a session token. Unverified accounts are never minted one.
func (s *AuthService) mint(user *userdomain.User) (*Session, error) {
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	token, expiresAt, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`

var emailRe = regexp.MustCompile(simpleEmail)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}
