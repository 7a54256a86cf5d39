package user

import (
	"testing"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecosphere/core/internal/database"
	"github.com/ecosphere/core/internal/models"
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

func seedUser(t *testing.T, db *gorm.DB, password string) *models.UserModel {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.UserModel{
		Username: "ada",
		Password: string(hash),
		Name:     "Ada",
		Role:     models.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func TestUpdateProfileOnlyTouchesProvidedFields(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	u := seedUser(t, db, "hunter22")

	updated, err := svc.UpdateProfile(u.ID, &UpdateProfileDTO{
		Name:      strPtr("Ada L"),
		Introduce: strPtr("composting enthusiast"),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Ada L" || updated.Introduce != "composting enthusiast" {
		t.Errorf("updates not applied: %+v", updated)
	}

	reloaded, err := svc.GetByID(u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "Ada L" {
		t.Errorf("name not persisted: %q", reloaded.Name)
	}
	if reloaded.Username != "ada" {
		t.Errorf("untouched field changed: %q", reloaded.Username)
	}

	// Empty DTO is a no-op, not an error.
	if _, err := svc.UpdateProfile(u.ID, &UpdateProfileDTO{}); err != nil {
		t.Errorf("empty update: %v", err)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc := NewService(setupTestDB(t))
	if _, err := svc.UpdateProfile("nope", &UpdateProfileDTO{Name: strPtr("x")}); err != errUserNotFound {
		t.Errorf("err = %v, want %v", err, errUserNotFound)
	}
}

func TestChangePasswordRejectsWrongAndUnchanged(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	u := seedUser(t, db, "hunter22")

	if err := svc.ChangePassword(u.ID, "", "wrong", "newpass1"); err != errWrongPassword {
		t.Errorf("wrong old password err = %v, want %v", err, errWrongPassword)
	}
	if err := svc.ChangePassword(u.ID, "", "hunter22", "hunter22"); err != errPasswordSameAsOld {
		t.Errorf("same password err = %v, want %v", err, errPasswordSameAsOld)
	}
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	u := seedUser(t, db, "hunter22")

	_, current, err := sessionpkg.Issue(db, u.ID, "10.0.0.1", "laptop", 0)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	_, other, err := sessionpkg.Issue(db, u.ID, "10.0.0.2", "phone", 0)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	if err := svc.ChangePassword(u.ID, current.ID, "hunter22", "newpass1"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if active, _ := sessionpkg.IsActive(db, u.ID, current.ID); !active {
		t.Error("current session was revoked")
	}
	if active, _ := sessionpkg.IsActive(db, u.ID, other.ID); active {
		t.Error("other session survived password change")
	}

	reloaded, err := svc.GetByID(u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(reloaded.Password), []byte("newpass1")) != nil {
		t.Error("new password hash not stored")
	}
}
