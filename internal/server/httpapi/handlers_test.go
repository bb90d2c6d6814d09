package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmarenkov/screenid/internal/common"
	"github.com/dmarenkov/screenid/internal/logging"
	"github.com/dmarenkov/screenid/internal/server/auth"
	"github.com/dmarenkov/screenid/internal/server/config"
	"github.com/dmarenkov/screenid/internal/server/models"
	"github.com/dmarenkov/screenid/internal/server/services"
)

// fakeIdentity implements Identity with per-test function fields.
type fakeIdentity struct {
	signUpFn             func(ctx context.Context, name, email, password string) (*services.PublicProfile, error)
	verifyEmailFn        func(ctx context.Context, userID, otp string) (*services.AuthResult, error)
	resendVerificationFn func(ctx context.Context, userID string) error
	forgotPasswordFn     func(ctx context.Context, email string) error
	validateResetTokenFn func(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error)
	resetPasswordFn      func(ctx context.Context, userID, newPassword string, token *models.PasswordResetToken) error
	signInFn             func(ctx context.Context, email, password string) (*services.AuthResult, error)
	profileFn            func(ctx context.Context, userID string) (*services.PublicProfile, error)
}

func (f *fakeIdentity) SignUp(ctx context.Context, name, email, password string) (*services.PublicProfile, error) {
	return f.signUpFn(ctx, name, email, password)
}

func (f *fakeIdentity) VerifyEmail(ctx context.Context, userID, otp string) (*services.AuthResult, error) {
	return f.verifyEmailFn(ctx, userID, otp)
}

func (f *fakeIdentity) ResendVerification(ctx context.Context, userID string) error {
	return f.resendVerificationFn(ctx, userID)
}

func (f *fakeIdentity) ForgotPassword(ctx context.Context, email string) error {
	return f.forgotPasswordFn(ctx, email)
}

func (f *fakeIdentity) ValidateResetToken(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
	return f.validateResetTokenFn(ctx, userID, candidate)
}

func (f *fakeIdentity) ResetPassword(ctx context.Context, userID, newPassword string, token *models.PasswordResetToken) error {
	return f.resetPasswordFn(ctx, userID, newPassword, token)
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*services.AuthResult, error) {
	return f.signInFn(ctx, email, password)
}

func (f *fakeIdentity) Profile(ctx context.Context, userID string) (*services.PublicProfile, error) {
	return f.profileFn(ctx, userID)
}

const testSecret = "test-secret"

func newTestServer(identity Identity) *Server {
	cfg := &config.Config{EndpointAddrHTTP: ":0", SecretKey: testSecret}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(identity, logger, cfg)
}

func doJSON(t *testing.T, s *Server, method, target string, body any, header http.Header) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func wantErrorKind(t *testing.T, resp *http.Response, status int, kind string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	var body errorBody
	decodeBody(t, resp, &body)
	if body.Error.Kind != kind {
		t.Fatalf("expected error kind %q, got %q", kind, body.Error.Kind)
	}
	if body.Error.Message == "" {
		t.Fatal("expected a human-readable error message")
	}
}

var testProfile = &services.PublicProfile{
	ID:         "u-1",
	Name:       "Ann",
	Email:      "ann@x.com",
	Role:       models.RoleStandard,
	IsVerified: false,
}

// --- /api/user/create ---

func TestHandleCreate_Success(t *testing.T) {
	identity := &fakeIdentity{
		signUpFn: func(ctx context.Context, name, email, password string) (*services.PublicProfile, error) {
			if name != "Ann" || email != "ann@x.com" || password != "longenough1" {
				t.Errorf("unexpected arguments: %q %q %q", name, email, password)
			}
			return testProfile, nil
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/create",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "longenough1"}, nil)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		User userPayload `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.ID != "u-1" || body.User.Email != "ann@x.com" {
		t.Fatalf("unexpected user payload: %+v", body.User)
	}
	if body.User.Token != "" {
		t.Fatal("sign-up must not mint a session token")
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	s := newTestServer(&fakeIdentity{})

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "ann@x.com", "password": "longenough1"}},
		{"bad email", map[string]string{"name": "Ann", "email": "not-an-email", "password": "longenough1"}},
		{"short password", map[string]string{"name": "Ann", "email": "ann@x.com", "password": "short"}},
		{"long password", map[string]string{"name": "Ann", "email": "ann@x.com", "password": "123456789012345678901"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, s, http.MethodPost, "/api/user/create", tc.body, nil)
			wantErrorKind(t, resp, http.StatusBadRequest, KindValidationFailed)
		})
	}
}

func TestHandleCreate_DuplicateEmail(t *testing.T) {
	identity := &fakeIdentity{
		signUpFn: func(ctx context.Context, name, email, password string) (*services.PublicProfile, error) {
			return nil, common.ErrorEmailTaken
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/create",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "longenough1"}, nil)

	wantErrorKind(t, resp, http.StatusConflict, KindConflict)
}

// --- /api/user/sign-in ---

func TestHandleSignIn_Success(t *testing.T) {
	identity := &fakeIdentity{
		signInFn: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return &services.AuthResult{Profile: *testProfile, SessionToken: "jwt-token"}, nil
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/sign-in",
		map[string]string{"email": "ann@x.com", "password": "longenough1"}, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		User userPayload `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.Token != "jwt-token" {
		t.Fatalf("expected session token in payload, got %+v", body.User)
	}
}

func TestHandleSignIn_BadCredentials(t *testing.T) {
	identity := &fakeIdentity{
		signInFn: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return nil, common.ErrorUnauthorized
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/sign-in",
		map[string]string{"email": "ann@x.com", "password": "wrong-pass"}, nil)

	wantErrorKind(t, resp, http.StatusUnauthorized, KindUnauthorized)
}

// --- /api/user/verify-email ---

func TestHandleVerifyEmail_Success(t *testing.T) {
	verified := *testProfile
	verified.IsVerified = true
	identity := &fakeIdentity{
		verifyEmailFn: func(ctx context.Context, userID, otp string) (*services.AuthResult, error) {
			if userID != "u-1" || otp != "123456" {
				t.Errorf("unexpected arguments: %q %q", userID, otp)
			}
			return &services.AuthResult{Profile: verified, SessionToken: "jwt-token"}, nil
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/verify-email",
		map[string]string{"userId": "u-1", "OTP": "123456"}, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		User    userPayload `json:"user"`
		Message string      `json:"message"`
	}
	decodeBody(t, resp, &body)
	if !body.User.IsVerified || body.User.Token == "" {
		t.Fatalf("unexpected user payload: %+v", body.User)
	}
	if body.Message == "" {
		t.Fatal("expected a confirmation message")
	}
}

func TestHandleVerifyEmail_Errors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantKind   string
	}{
		{"already verified", common.ErrorAlreadyVerified, http.StatusConflict, KindConflict},
		{"no live token", common.ErrorNotFound, http.StatusNotFound, KindNotFound},
		{"wrong code", common.ErrorInvalidOTP, http.StatusBadRequest, KindValidationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			identity := &fakeIdentity{
				verifyEmailFn: func(ctx context.Context, userID, otp string) (*services.AuthResult, error) {
					return nil, tc.serviceErr
				},
			}
			s := newTestServer(identity)

			resp := doJSON(t, s, http.MethodPost, "/api/user/verify-email",
				map[string]string{"userId": "u-1", "OTP": "000000"}, nil)

			wantErrorKind(t, resp, tc.wantStatus, tc.wantKind)
		})
	}
}

// --- /api/user/resend-email-verification-token ---

func TestHandleResendVerification_Cooldown(t *testing.T) {
	identity := &fakeIdentity{
		resendVerificationFn: func(ctx context.Context, userID string) error {
			return common.ErrorTokenCooldown
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/resend-email-verification-token",
		map[string]string{"userId": "u-1"}, nil)

	wantErrorKind(t, resp, http.StatusConflict, KindConflict)
}

func TestHandleResendVerification_Success(t *testing.T) {
	identity := &fakeIdentity{
		resendVerificationFn: func(ctx context.Context, userID string) error { return nil },
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/resend-email-verification-token",
		map[string]string{"userId": "u-1"}, nil)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}

// --- /api/user/forgot-password ---

func TestHandleForgotPassword(t *testing.T) {
	identity := &fakeIdentity{
		forgotPasswordFn: func(ctx context.Context, email string) error {
			if email != "ann@x.com" {
				t.Errorf("unexpected email %q", email)
			}
			return nil
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/forgot-password",
		map[string]string{"email": "ann@x.com"}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, s, http.MethodPost, "/api/user/forgot-password", map[string]string{}, nil)
	wantErrorKind(t, resp, http.StatusBadRequest, KindValidationFailed)
}

func TestHandleForgotPassword_UnknownEmail(t *testing.T) {
	identity := &fakeIdentity{
		forgotPasswordFn: func(ctx context.Context, email string) error {
			return common.ErrorNotFound
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/forgot-password",
		map[string]string{"email": "ghost@x.com"}, nil)

	wantErrorKind(t, resp, http.StatusNotFound, KindNotFound)
}

// --- /api/user/verify-password-reset-token ---

func TestHandleResetTokenStatus(t *testing.T) {
	record := &models.PasswordResetToken{ID: "t-1", UserID: "u-1"}
	identity := &fakeIdentity{
		validateResetTokenFn: func(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
			if userID != "u-1" || candidate != "abcdef" {
				t.Errorf("unexpected arguments: %q %q", userID, candidate)
			}
			return record, nil
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/verify-password-reset-token",
		map[string]string{"userId": "u-1", "token": "abcdef"}, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Valid bool `json:"valid"`
	}
	decodeBody(t, resp, &body)
	if !body.Valid {
		t.Fatal("expected valid=true")
	}
}

func TestHandleResetTokenStatus_Rejections(t *testing.T) {
	identity := &fakeIdentity{
		validateResetTokenFn: func(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
			return nil, common.ErrorInvalidResetToken
		},
	}
	s := newTestServer(identity)

	// Mismatching token reaches the service and is classified there.
	resp := doJSON(t, s, http.MethodPost, "/api/user/verify-password-reset-token",
		map[string]string{"userId": "u-1", "token": "wrong"}, nil)
	wantErrorKind(t, resp, http.StatusBadRequest, KindValidationFailed)

	// A blank token never reaches the service.
	resp = doJSON(t, s, http.MethodPost, "/api/user/verify-password-reset-token",
		map[string]string{"userId": "u-1", "token": "  "}, nil)
	wantErrorKind(t, resp, http.StatusBadRequest, KindValidationFailed)
}

// --- /api/user/reset-password ---

func TestHandleResetPassword_Success(t *testing.T) {
	record := &models.PasswordResetToken{ID: "t-1", UserID: "u-1"}
	identity := &fakeIdentity{
		validateResetTokenFn: func(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
			return record, nil
		},
		resetPasswordFn: func(ctx context.Context, userID, newPassword string, token *models.PasswordResetToken) error {
			if token != record {
				t.Error("handler must pass the validated token record through")
			}
			if newPassword != "brandnewpass2" {
				t.Errorf("unexpected password %q", newPassword)
			}
			return nil
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/reset-password",
		map[string]string{"userId": "u-1", "token": "abcdef", "newPassword": "brandnewpass2"}, nil)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}

func TestHandleResetPassword_PasswordCheckedBeforeToken(t *testing.T) {
	validated := false
	identity := &fakeIdentity{
		validateResetTokenFn: func(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
			validated = true
			return nil, common.ErrorNotFound
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/reset-password",
		map[string]string{"userId": "u-1", "token": "abcdef", "newPassword": "short"}, nil)

	wantErrorKind(t, resp, http.StatusBadRequest, KindValidationFailed)
	if validated {
		t.Fatal("token must not be validated when the password is malformed")
	}
}

func TestHandleResetPassword_SamePassword(t *testing.T) {
	record := &models.PasswordResetToken{ID: "t-1", UserID: "u-1"}
	identity := &fakeIdentity{
		validateResetTokenFn: func(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
			return record, nil
		},
		resetPasswordFn: func(ctx context.Context, userID, newPassword string, token *models.PasswordResetToken) error {
			return common.ErrorSamePassword
		},
	}
	s := newTestServer(identity)

	resp := doJSON(t, s, http.MethodPost, "/api/user/reset-password",
		map[string]string{"userId": "u-1", "token": "abcdef", "newPassword": "same-as-before1"}, nil)

	wantErrorKind(t, resp, http.StatusBadRequest, KindValidationFailed)
}

// --- /api/user/is-auth ---

func TestHandleIsAuth(t *testing.T) {
	identity := &fakeIdentity{
		profileFn: func(ctx context.Context, userID string) (*services.PublicProfile, error) {
			if userID != "u-1" {
				t.Errorf("unexpected user id %q", userID)
			}
			return testProfile, nil
		},
	}
	s := newTestServer(identity)

	token, err := auth.GenerateToken("u-1", []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	resp := doJSON(t, s, http.MethodGet, "/api/user/is-auth", nil, header)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		User userPayload `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.ID != "u-1" {
		t.Fatalf("unexpected user payload: %+v", body.User)
	}
}

func TestHandleIsAuth_Rejections(t *testing.T) {
	identity := &fakeIdentity{
		profileFn: func(ctx context.Context, userID string) (*services.PublicProfile, error) {
			return testProfile, nil
		},
	}
	s := newTestServer(identity)

	// No header.
	resp := doJSON(t, s, http.MethodGet, "/api/user/is-auth", nil, nil)
	wantErrorKind(t, resp, http.StatusUnauthorized, KindUnauthorized)

	// Garbage token.
	header := http.Header{}
	header.Set("Authorization", "Bearer not-a-jwt")
	resp = doJSON(t, s, http.MethodGet, "/api/user/is-auth", nil, header)
	wantErrorKind(t, resp, http.StatusUnauthorized, KindUnauthorized)

	// Expired token.
	expired, err := auth.GenerateToken("u-1", []byte(testSecret), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	header.Set("Authorization", "Bearer "+expired)
	resp = doJSON(t, s, http.MethodGet, "/api/user/is-auth", nil, header)
	wantErrorKind(t, resp, http.StatusUnauthorized, KindUnauthorized)
}
