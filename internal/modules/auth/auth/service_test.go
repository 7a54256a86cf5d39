package auth

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecosphere/core/internal/database"
	"github.com/ecosphere/core/internal/models"
	jwtpkg "github.com/ecosphere/core/internal/pkg/jwt"
	sessionpkg "github.com/ecosphere/core/internal/pkg/session"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func register(t *testing.T, svc *Service, username string) *models.UserModel {
	t.Helper()
	u, err := svc.Register(&RegisterDTO{
		Username: username,
		Password: "hunter22",
		Mail:     username + "@example.com",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterFirstUserBecomesModerator(t *testing.T) {
	svc := NewService(setupTestDB(t))

	if svc.HasOwner() {
		t.Fatal("fresh install reports an owner")
	}

	first := register(t, svc, "ada")
	if first.Role != models.RoleModerator {
		t.Errorf("first user role = %q, want moderator", first.Role)
	}
	if !svc.HasOwner() {
		t.Error("HasOwner false after first registration")
	}

	second := register(t, svc, "grace")
	if second.Role != models.RoleUser {
		t.Errorf("second user role = %q, want user", second.Role)
	}
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	svc := NewService(setupTestDB(t))
	register(t, svc, "ada")

	_, err := svc.Register(&RegisterDTO{Username: "  ada  ", Password: "hunter22"})
	if err != errUsernameTaken {
		t.Errorf("duplicate username err = %v, want %v", err, errUsernameTaken)
	}
}

func TestRegisterFallsBackToUsernameAsName(t *testing.T) {
	svc := NewService(setupTestDB(t))

	u := register(t, svc, "ada")
	if u.Name != "ada" {
		t.Errorf("name = %q, want username fallback", u.Name)
	}

	named, err := svc.Register(&RegisterDTO{Username: "grace", Password: "hunter22", Name: "Grace H"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if named.Name != "Grace H" {
		t.Errorf("name = %q, want explicit name kept", named.Name)
	}
}

func TestLoginIssuesSessionBoundToken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	register(t, svc, "ada")

	token, u, err := svc.Login("ada", "hunter22", "10.0.0.1", "go-test")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.LastLoginIP != "10.0.0.1" {
		t.Errorf("last login ip = %q", u.LastLoginIP)
	}

	claims, err := jwtpkg.Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != u.ID {
		t.Errorf("token uid = %q, want %q", claims.UserID, u.ID)
	}
	if claims.SessionID == "" {
		t.Fatal("token has no session id")
	}

	active, err := sessionpkg.IsActive(db, u.ID, claims.SessionID)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if !active {
		t.Error("issued session not active")
	}
}

func TestTokenLifecycle(t *testing.T) {
	svc := NewService(setupTestDB(t))
	u := register(t, svc, "ada")

	created, err := svc.CreateToken(u.ID, &CreateTokenDTO{Name: "ci"})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if len(created.Token) < 10 || created.Token[:3] != "txo" {
		t.Errorf("token format off: %q", created.Token)
	}

	ok, err := svc.VerifyTokenString(created.Token)
	if err != nil || !ok {
		t.Fatalf("verify = %v, %v, want valid", ok, err)
	}

	tokens, err := svc.ListTokens(u.ID)
	if err != nil || len(tokens) != 1 {
		t.Fatalf("list tokens = %d, %v, want 1", len(tokens), err)
	}

	got, err := svc.GetToken(u.ID, created.ID)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if got == nil || got.Name != "ci" {
		t.Errorf("get token = %+v", got)
	}

	if err := svc.DeleteToken(u.ID, created.ID); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if ok, _ := svc.VerifyTokenString(created.Token); ok {
		t.Error("deleted token still verifies")
	}
	if err := svc.DeleteToken(u.ID, created.ID); err == nil {
		t.Error("double delete should fail")
	}
}

func TestExpiredTokenIsInvisible(t *testing.T) {
	svc := NewService(setupTestDB(t))
	u := register(t, svc, "ada")

	past := time.Now().Add(-time.Hour)
	created, err := svc.CreateToken(u.ID, &CreateTokenDTO{Name: "stale", ExpiredAt: &past})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	if ok, _ := svc.VerifyTokenString(created.Token); ok {
		t.Error("expired token verifies")
	}
	tokens, err := svc.ListTokens(u.ID)
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expired token listed: %d", len(tokens))
	}
	if got, _ := svc.GetToken(u.ID, created.ID); got != nil {
		t.Error("expired token fetched by id")
	}
}
