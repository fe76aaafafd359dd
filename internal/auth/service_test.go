package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/internal/users"
	pkgAuth "github.com/mateoherrera/threadline-backend/pkg/auth"
	"github.com/mateoherrera/threadline-backend/pkg/auth/session"
	"github.com/mateoherrera/threadline-backend/pkg/config"
	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
	"github.com/mateoherrera/threadline-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "threadline",
	ExpirationMinutes: 30,
}

var testOTPConfig = config.OTPConfig{
	TTL:           10 * time.Minute,
	MaxAttempts:   5,
	ResetTokenTTL: 30 * time.Minute,
}

func TestRegisterCreatesInactiveUserAndSendsOTP(t *testing.T) {
	svc, repo, _, mail := buildTestService(t, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Mara",
		LastName:  "Lin",
		Email:     "Mara.Lin@Example.com",
		Password:  "super-secret-1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.IsActive || resp.User.EmailVerified {
		t.Fatal("new account must start unverified and inactive")
	}
	if resp.User.Email != "mara.lin@example.com" {
		t.Fatalf("expected normalized email, got %s", resp.User.Email)
	}

	stored := repo.byEmail["mara.lin@example.com"]
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.PasswordHash == "super-secret-1" || stored.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if stored.OTPHash == nil || *stored.OTPHash == mail.lastOTP {
		t.Fatal("otp must be stored hashed")
	}
	if mail.lastOTP == "" || len(mail.lastOTP) != security.OTPLength {
		t.Fatalf("expected emailed otp code, got %q", mail.lastOTP)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := activeUser(t, "taken@example.com", "whatever-123")
	svc, _, _, _ := buildTestService(t, existing)

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Dup",
		LastName:  "User",
		Email:     "taken@example.com",
		Password:  "super-secret-1",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestVerifyOTPActivatesAndMintsSession(t *testing.T) {
	svc, repo, _, mail := buildTestService(t, nil)
	registerUser(t, svc, "verify@example.com")

	resp, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "verify@example.com",
		OTP:   mail.lastOTP,
	})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	stored := repo.byEmail["verify@example.com"]
	if !stored.IsActive || !stored.EmailVerified {
		t.Fatal("expected user activated")
	}
	if stored.OTPHash != nil || stored.OTPAttempts != 0 {
		t.Fatal("challenge must be cleared after success")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", claims.Role)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
}

func TestVerifyOTPWrongCodeIncrementsAttemptsThenLocks(t *testing.T) {
	svc, repo, _, mail := buildTestService(t, nil)
	registerUser(t, svc, "locked@example.com")

	wrong := "000000"
	if wrong == mail.lastOTP {
		wrong = "000001"
	}

	for i := 1; i <= testOTPConfig.MaxAttempts; i++ {
		_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
			Email: "locked@example.com",
			OTP:   wrong,
		})
		assertCode(t, err, pkgerrors.CodeUnauthorized)
		if got := repo.byEmail["locked@example.com"].OTPAttempts; got != i {
			t.Fatalf("expected %d attempts recorded, got %d", i, got)
		}
	}

	// Even the correct code is rejected once the cap is hit.
	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "locked@example.com",
		OTP:   mail.lastOTP,
	})
	assertCode(t, err, pkgerrors.CodeTooManyTries)
}

func TestVerifyOTPExpiredCodeRejected(t *testing.T) {
	svc, _, _, mail := buildTestService(t, nil)
	registerUser(t, svc, "late@example.com")

	svc.(*service).now = func() time.Time {
		return time.Now().UTC().Add(testOTPConfig.TTL + time.Minute)
	}

	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "late@example.com",
		OTP:   mail.lastOTP,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestResendOTPIssuesFreshChallenge(t *testing.T) {
	svc, repo, _, mail := buildTestService(t, nil)
	registerUser(t, svc, "resend@example.com")

	wrong := "000000"
	if wrong == mail.lastOTP {
		wrong = "000001"
	}
	for i := 0; i < testOTPConfig.MaxAttempts; i++ {
		_, _ = svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: "resend@example.com", OTP: wrong})
	}

	if err := svc.ResendOTP(context.Background(), ResendOTPRequest{Email: "resend@example.com"}); err != nil {
		t.Fatalf("resend otp: %v", err)
	}
	if repo.byEmail["resend@example.com"].OTPAttempts != 0 {
		t.Fatal("resend must reset the attempt counter")
	}

	resp, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "resend@example.com",
		OTP:   mail.lastOTP,
	})
	if err != nil {
		t.Fatalf("verify after resend: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected session after fresh code")
	}
}

func TestLoginValidCredentials(t *testing.T) {
	user := activeUser(t, "login@example.com", "correct-horse-1")
	svc, repo, _, _ := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Login@Example.com",
		Password: "correct-horse-1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Fatal("unexpected user in response")
	}
	if repo.byEmail["login@example.com"].LastLoginAt == nil {
		t.Fatal("expected last login recorded")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := activeUser(t, "wrongpw@example.com", "correct-horse-1")
	svc, _, _, _ := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "wrongpw@example.com",
		Password: "not-the-password",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginInactiveUser(t *testing.T) {
	user := activeUser(t, "inactive@example.com", "correct-horse-1")
	user.IsActive = false
	svc, _, _, _ := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "inactive@example.com",
		Password: "correct-horse-1",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRotatesSession(t *testing.T) {
	user := activeUser(t, "refresh@example.com", "correct-horse-1")
	svc, _, sessions, _ := buildTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "refresh@example.com",
		Password: "correct-horse-1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.AccessToken == login.AccessToken {
		t.Fatal("expected a new access token")
	}
	if resp.RefreshToken == login.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if sessions.rotations != 1 {
		t.Fatalf("expected one rotation, got %d", sessions.rotations)
	}

	// Old pair is dead after rotation.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc, _, _, mail := buildTestService(t, nil)

	if err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("forgot password must not reveal account existence: %v", err)
	}
	if mail.lastResetToken != "" {
		t.Fatal("no reset email should be sent for unknown accounts")
	}
}

func TestResetPasswordWithValidToken(t *testing.T) {
	user := activeUser(t, "reset@example.com", "old-password-1")
	svc, repo, _, mail := buildTestService(t, user)

	if err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "reset@example.com"}); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if mail.lastResetToken == "" {
		t.Fatal("expected reset email")
	}
	if stored := repo.byEmail["reset@example.com"]; stored.ResetTokenHash == nil || *stored.ResetTokenHash == mail.lastResetToken {
		t.Fatal("reset token must be stored hashed")
	}

	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:    mail.lastResetToken,
		Password: "brand-new-pass-1",
	}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "reset@example.com",
		Password: "brand-new-pass-1",
	}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "reset@example.com",
		Password: "old-password-1",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	// Token is single use.
	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:    mail.lastResetToken,
		Password: "another-pass-123",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	user := activeUser(t, "expired@example.com", "old-password-1")
	svc, _, _, mail := buildTestService(t, user)

	if err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "expired@example.com"}); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	svc.(*service).now = func() time.Time {
		return time.Now().UTC().Add(testOTPConfig.ResetTokenTTL + time.Minute)
	}

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:    mail.lastResetToken,
		Password: "brand-new-pass-1",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func buildTestService(t *testing.T, seed *models.User) (Service, *stubUserRepo, *stubSessionManager, *stubMailer) {
	t.Helper()
	repo := newStubUserRepo()
	if seed != nil {
		repo.byEmail[seed.Email] = seed
	}
	sessions := newStubSessionManager()
	mail := &stubMailer{}

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Mailer:         mail,
		JWTConfig:      testJWTConfig,
		PasswordConfig: config.PasswordConfig{},
		OTPConfig:      testOTPConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions, mail
}

func registerUser(t *testing.T, svc Service, email string) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "super-secret-1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
}

func activeUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Seed",
		LastName:      "User",
		Role:          enums.UserRoleCustomer,
		IsActive:      true,
		EmailVerified: true,
	}
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
}

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByResetTokenHash(_ context.Context, hash string) (*models.User, error) {
	for _, user := range r.byEmail {
		if user.ResetTokenHash != nil && *user.ResetTokenHash == hash {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, user := range r.byEmail {
		if user.ID == id {
			user.LastLoginAt = &at
		}
	}
	return nil
}

func (r *stubUserRepo) SaveChallengeState(_ context.Context, user *models.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	for _, user := range r.byEmail {
		if user.ID == id {
			user.PasswordHash = passwordHash
		}
	}
	return nil
}

type stubSessionManager struct {
	tokens    map[string]string
	rotations int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + uuid.NewString()
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := uuid.NewString()
	token := "refresh-" + uuid.NewString()
	s.tokens[newAccessID] = token
	s.rotations++
	return newAccessID, token, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

type stubMailer struct {
	lastOTP        string
	lastResetToken string
}

func (m *stubMailer) SendOTP(_ context.Context, _ string, code string) error {
	m.lastOTP = code
	return nil
}

func (m *stubMailer) SendPasswordReset(_ context.Context, _ string, token string) error {
	m.lastResetToken = token
	return nil
}
