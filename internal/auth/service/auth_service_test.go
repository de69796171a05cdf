package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"notes-backend/internal/security"
	userdomain "notes-backend/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*userdomain.User)}
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Save(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byEmail[u.Email] = &cp
	return nil
}

type memNotifier struct {
	mu   sync.Mutex
	sent []string // codes in send order
	to   []string
	fail error
}

func (n *memNotifier) SendOTPEmail(ctx context.Context, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, code)
	n.to = append(n.to, to)
	return nil
}

func (n *memNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no OTP was dispatched")
	}
	return n.sent[len(n.sent)-1]
}

func newTestService(t *testing.T) (*AuthService, *memUserRepo, *memNotifier) {
	t.Helper()
	tokens, err := security.NewTokenProvider([]byte("test-secret"), "notes-auth", "notes-api", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	users := newMemUserRepo()
	notifier := &memNotifier{}
	svc := NewAuthService(users, notifier, security.NewHasher(4), tokens, 10*time.Minute, nil)
	return svc, users, notifier
}

func TestRequestOTP_CreatesUnverifiedUserWithPendingCode(t *testing.T) {
	svc, users, notifier := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "A@X.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}

	u, _ := users.GetByEmail(ctx, "a@x.com")
	if u == nil {
		t.Fatal("user not created")
	}
	if u.IsVerified {
		t.Error("new user should not be verified")
	}
	if !u.HasPendingOTP() {
		t.Error("pending OTP fields should both be set")
	}
	if u.Role != userdomain.RoleUser {
		t.Errorf("role = %q, want user", u.Role)
	}
	code := notifier.lastCode(t)
	if len(code) != 6 {
		t.Errorf("dispatched code %q, want 6 digits", code)
	}
	if strings.Contains(u.OTPCodeHash, code) {
		t.Error("stored hash contains the plaintext code")
	}
}

func TestRequestOTP_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "not-an-email", "Ann"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad email: want ErrValidation, got %v", err)
	}
	if err := svc.RequestOTP(ctx, "a@x.com", "   "); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name: want ErrValidation, got %v", err)
	}
}

func TestRequestOTP_ExistingUserResetsVerification(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	// Pre-existing verified admin; re-running registration resets verification
	// but must never touch the role.
	_ = users.Save(ctx, &userdomain.User{
		ID: "admin-1", Email: "root@x.com", Name: "Root",
		Role: userdomain.RoleAdmin, IsVerified: true,
	})

	if err := svc.RequestOTP(ctx, "root@x.com", "New Name"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	u, _ := users.GetByEmail(ctx, "root@x.com")
	if u.IsVerified {
		t.Error("re-registration should reset IsVerified")
	}
	if u.Name != "New Name" {
		t.Errorf("name = %q, want overwrite", u.Name)
	}
	if u.Role != userdomain.RoleAdmin {
		t.Errorf("role = %q; self-service flows must never change role", u.Role)
	}
	if u.ID != "admin-1" {
		t.Errorf("id = %q, want unchanged", u.ID)
	}
}

func TestRequestOTP_DeliveryFailureKeepsPendingState(t *testing.T) {
	svc, users, notifier := newTestService(t)
	ctx := context.Background()
	notifier.fail = errors.New("smtp down")

	err := svc.RequestOTP(ctx, "a@x.com", "Ann")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("want ErrDelivery, got %v", err)
	}
	u, _ := users.GetByEmail(ctx, "a@x.com")
	if u == nil || !u.HasPendingOTP() {
		t.Error("pending OTP state must be persisted before delivery is attempted")
	}
}

func TestVerifyRegistration_FullFlow(t *testing.T) {
	svc, users, notifier := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := notifier.lastCode(t)

	sess, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", code)
	if err != nil {
		t.Fatalf("VerifyRegistration: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("session token empty")
	}
	if sess.Role != userdomain.RoleUser {
		t.Errorf("session role = %q, want user", sess.Role)
	}

	u, _ := users.GetByEmail(ctx, "a@x.com")
	if !u.IsVerified {
		t.Error("user should be verified")
	}
	if u.HasPendingOTP() || u.OTPCodeHash != "" || u.OTPExpiresAt != nil {
		t.Error("both pending fields should be cleared")
	}

	// The code is consumed exactly once.
	_, err = svc.VerifyRegistration(ctx, "a@x.com", "Ann", code)
	if !errors.Is(err, ErrNoPendingOTP) {
		t.Errorf("second verification: want ErrNoPendingOTP, got %v", err)
	}
}

func TestVerifyRegistration_WrongCode(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := notifier.lastCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", wrong); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("want ErrInvalidOTP, got %v", err)
	}
	// Padding or case tweaks never match a numeric code.
	if _, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", " "+code); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("padded code: want ErrInvalidOTP, got %v", err)
	}
}

func TestVerifyRegistration_NoPendingOTP(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.VerifyRegistration(ctx, "ghost@x.com", "Ghost", "123456"); !errors.Is(err, ErrNoPendingOTP) {
		t.Errorf("unknown account: want ErrNoPendingOTP, got %v", err)
	}
}

func TestVerifyRegistration_ExpiryBoundary(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := notifier.lastCode(t)
	expiry := base.Add(10 * time.Minute)

	// Just inside the window: succeeds.
	svc.now = func() time.Time { return expiry.Add(-time.Millisecond) }
	if _, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", code); err != nil {
		t.Fatalf("verify at expiry-1ms: %v", err)
	}

	// Fresh code, just outside the window: expired.
	svc.now = func() time.Time { return base }
	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code = notifier.lastCode(t)
	svc.now = func() time.Time { return expiry.Add(time.Millisecond) }
	if _, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", code); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("verify at expiry+1ms: want ErrOTPExpired, got %v", err)
	}
}

func TestRequestOTP_SupersedesEarlierCode(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	first := notifier.lastCode(t)
	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("second RequestOTP: %v", err)
	}
	second := notifier.lastCode(t)

	if first != second {
		if _, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", first); !errors.Is(err, ErrInvalidOTP) {
			t.Errorf("first code after supersession: want ErrInvalidOTP, got %v", err)
		}
	}
	if _, err := svc.VerifyRegistration(ctx, "a@x.com", "Ann", second); err != nil {
		t.Errorf("second code should verify: %v", err)
	}
}

func TestRequestLoginOTP_UnknownOrUnverified(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.RequestLoginOTP(ctx, "unknown@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: want ErrNotFound, got %v", err)
	}

	_ = users.Save(ctx, &userdomain.User{
		ID: "u1", Email: "pending@x.com", Name: "Pending", Role: userdomain.RoleUser,
	})
	if err := svc.RequestLoginOTP(ctx, "pending@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unverified account: want ErrNotFound, got %v", err)
	}

	// No account is created on the login path.
	if u, _ := users.GetByEmail(ctx, "unknown@x.com"); u != nil {
		t.Error("login path must not create accounts")
	}
}

func TestVerifyLogin_FullFlow(t *testing.T) {
	svc, users, notifier := newTestService(t)
	ctx := context.Background()

	_ = users.Save(ctx, &userdomain.User{
		ID: "u1", Email: "a@x.com", Name: "Ann", Role: userdomain.RoleUser, IsVerified: true,
	})
	if err := svc.RequestLoginOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestLoginOTP: %v", err)
	}
	code := notifier.lastCode(t)

	sess, err := svc.VerifyLogin(ctx, "a@x.com", code)
	if err != nil {
		t.Fatalf("VerifyLogin: %v", err)
	}
	if sess.UserID != "u1" || sess.Role != userdomain.RoleUser {
		t.Errorf("session = %+v", sess)
	}

	u, _ := users.GetByEmail(ctx, "a@x.com")
	if u.HasPendingOTP() {
		t.Error("pending fields should be cleared after login")
	}
}

func TestVerifyLogin_UnverifiedAccount(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	exp := time.Now().UTC().Add(10 * time.Minute)
	hash, _ := security.NewHasher(4).Hash([]byte("123456"))
	_ = users.Save(ctx, &userdomain.User{
		ID: "u1", Email: "a@x.com", Name: "Ann", Role: userdomain.RoleUser,
		OTPCodeHash: hash, OTPExpiresAt: &exp,
	})

	if _, err := svc.VerifyLogin(ctx, "a@x.com", "123456"); !errors.Is(err, ErrNotVerified) {
		t.Errorf("want ErrNotVerified, got %v", err)
	}
}

func TestSignInFederated_CreatesVerifiedUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignInFederated(ctx, "google-sub-1", "g@x.com", "Gee")
	if err != nil {
		t.Fatalf("SignInFederated: %v", err)
	}
	if sess.Role != userdomain.RoleUser {
		t.Errorf("role = %q, want user", sess.Role)
	}

	u, _ := users.GetByEmail(ctx, "g@x.com")
	if u == nil || !u.IsVerified {
		t.Fatal("federated user should be created verified")
	}
	if u.GoogleID != "google-sub-1" {
		t.Errorf("google id = %q", u.GoogleID)
	}
	if u.PasswordHash != "" {
		t.Error("federated user must have no password")
	}
}

func TestSignInFederated_ExistingAdminKeepsRole(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	_ = users.Save(ctx, &userdomain.User{
		ID: "admin-1", Email: "root@x.com", Name: "Root",
		Role: userdomain.RoleAdmin, IsVerified: true, GoogleID: "original-sub",
	})

	// Manipulated providerID/name must not change anything on the stored account.
	sess, err := svc.SignInFederated(ctx, "attacker-sub", "root@x.com", "Mallory")
	if err != nil {
		t.Fatalf("SignInFederated: %v", err)
	}
	if sess.Role != userdomain.RoleAdmin {
		t.Errorf("session role = %q, want admin", sess.Role)
	}

	u, _ := users.GetByEmail(ctx, "root@x.com")
	if u.Role != userdomain.RoleAdmin {
		t.Error("stored role changed by federated sign-in")
	}
	if u.GoogleID != "original-sub" {
		t.Errorf("google id overwritten: %q", u.GoogleID)
	}
	if u.Name != "Root" {
		t.Errorf("name overwritten: %q", u.Name)
	}
}

func TestSignInFederated_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignInFederated(ctx, "", "g@x.com", "Gee"); !errors.Is(err, ErrValidation) {
		t.Errorf("empty provider id: want ErrValidation, got %v", err)
	}
	if _, err := svc.SignInFederated(ctx, "sub", "nope", "Gee"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad email: want ErrValidation, got %v", err)
	}
}

type memSink struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *memSink) Put(ctx context.Context, key, otp string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = otp
}

func TestRequestOTP_DevSinkReceivesCode(t *testing.T) {
	tokens, err := security.NewTokenProvider([]byte("test-secret"), "notes-auth", "notes-api", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	notifier := &memNotifier{}
	sink := &memSink{m: make(map[string]string)}
	svc := NewAuthService(newMemUserRepo(), notifier, security.NewHasher(4), tokens, 10*time.Minute, sink)

	ctx := context.Background()
	if err := svc.RequestOTP(ctx, "a@x.com", "Ann"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if sink.m["a@x.com"] != notifier.lastCode(t) {
		t.Error("dev sink should hold the dispatched code")
	}
}
