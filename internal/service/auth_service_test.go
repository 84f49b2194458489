package service

import (
	"testing"
	"time"

	"gamified_ds_backend/internal/config"
	"gamified_ds_backend/internal/model"
	"gamified_ds_backend/internal/repository"
	"gamified_ds_backend/internal/util"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user := &model.User{Username: "alice", Email: "alice@example.com", Password: "secret123"}
	if err := svc.Register(user); err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Password == "secret123" {
		t.Error("password stored in plaintext")
	}

	token, logged, err := svc.Login("alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Error("empty token")
	}
	if logged.Username != "alice" {
		t.Errorf("username = %q, want alice", logged.Username)
	}

	claims, err := util.ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims userID = %d, want %d", claims.UserID, user.ID)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newTestAuthService(t)

	first := &model.User{Username: "bob", Email: "bob@example.com", Password: "secret123"}
	if err := svc.Register(first); err != nil {
		t.Fatalf("register: %v", err)
	}

	sameEmail := &model.User{Username: "other", Email: "bob@example.com", Password: "secret123"}
	if err := svc.Register(sameEmail); err != util.ErrEmailRegistered {
		t.Errorf("err = %v, want ErrEmailRegistered", err)
	}

	sameName := &model.User{Username: "bob", Email: "bob2@example.com", Password: "secret123"}
	if err := svc.Register(sameName); err != util.ErrUsernameTaken {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)

	user := &model.User{Username: "carol", Email: "carol@example.com", Password: "secret123"}
	if err := svc.Register(user); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login("carol@example.com", "wrong"); err != util.ErrInvalidCredentials {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login("nobody@example.com", "secret123"); err != util.ErrInvalidCredentials {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}
