package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
)

func TestAuth_Register_OK(t *testing.T) {
	users := &fakeUserRepo{}
	s := NewAuthService(users, []byte("k"), time.Hour)

	id, err := s.Register(context.Background(), "a@b.c", "Alice", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.FromString(id); err != nil {
		t.Fatalf("want uuid user id, got %q", id)
	}
	u := users.created
	if u == nil || u.Email != "a@b.c" || u.Role != model.RoleUser {
		t.Fatalf("user not stored correctly: %+v", u)
	}
	if bcrypt.CompareHashAndPassword(u.PwdHash, []byte("secret1")) != nil {
		t.Fatalf("stored hash does not verify the password")
	}
}

func TestAuth_Register_Validation(t *testing.T) {
	s := NewAuthService(&fakeUserRepo{}, []byte("k"), time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "", "Alice", "secret1"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty email: want ErrValidation, got %v", err)
	}
	if _, err := s.Register(ctx, "a@b.c", "Alice", "short"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("short password: want ErrValidation, got %v", err)
	}
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	users := &fakeUserRepo{createErr: errs.ErrAlreadyExists}
	s := NewAuthService(users, []byte("k"), time.Hour)

	_, err := s.Register(context.Background(), "a@b.c", "Alice", "secret1")
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestAuth_Login_OKAndTokenRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	uid := uuid.Must(uuid.NewV4())
	users := &fakeUserRepo{byEmail: map[string]*model.User{
		"a@b.c": {ID: uid, Email: "a@b.c", PwdHash: hash, Role: model.RoleAdmin},
	}}
	signKey := []byte("k")
	s := NewAuthService(users, signKey, time.Hour)

	tokens, u, err := s.Login(context.Background(), "a@b.c", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != uid {
		t.Fatalf("want logged-in user returned")
	}
	if !tokens.ExpiresAt.After(time.Now()) {
		t.Fatalf("token already expired: %v", tokens.ExpiresAt)
	}

	p, err := ParsePrincipal(tokens.AccessToken, signKey)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if p.UserID != uid || p.Role != model.RoleAdmin {
		t.Fatalf("principal mismatch: %+v", p)
	}
	if !p.IsAdmin() {
		t.Fatalf("admin role lost in the token")
	}
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	users := &fakeUserRepo{byEmail: map[string]*model.User{
		"a@b.c": {ID: uuid.Must(uuid.NewV4()), PwdHash: hash, Role: model.RoleUser},
	}}
	s := NewAuthService(users, []byte("k"), time.Hour)

	_, _, err := s.Login(context.Background(), "a@b.c", "nope")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestAuth_Login_UnknownEmailMasked(t *testing.T) {
	s := NewAuthService(&fakeUserRepo{}, []byte("k"), time.Hour)
	_, _, err := s.Login(context.Background(), "ghost@b.c", "whatever")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestParsePrincipal_WrongKey(t *testing.T) {
	users := &fakeUserRepo{}
	s := NewAuthService(users, []byte("k"), time.Hour)
	access, _, err := s.issueAccessToken(uuid.Must(uuid.NewV4()), model.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParsePrincipal(access, []byte("other")); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestParsePrincipal_Garbage(t *testing.T) {
	if _, err := ParsePrincipal("not-a-token", []byte("k")); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}
