package application

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bizit/internal/testhelpers"
	"bizit/internal/user/domain"
)

func newUserService(t *testing.T) (*UserService, *testhelpers.TestContext) {
	t.Helper()
	tc := testhelpers.SetupTestContext(t)
	return NewUserService(tc.UserRepo, bcrypt.MinCost, zap.NewNop()), tc
}

func signup() domain.Signup {
	return domain.Signup{Email: "Owner@BizIT.kr", Password: "s3cret", BizName: "역삼 카페", UserName: "김사장"}
}

func TestUserService_SignupAndSignin(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, signup())
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.Email != "owner@bizit.kr" || u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Errorf("user = %+v", u)
	}

	session, err := svc.Signin(ctx, " OWNER@bizit.kr", "s3cret")
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}
	if session.Token != "owner@bizit.kr" || session.UserName != "김사장" {
		t.Errorf("session = %+v", session)
	}

	userID, err := svc.Authenticate(ctx, session.Token)
	if err != nil || userID != "owner@bizit.kr" {
		t.Errorf("Authenticate() = %q, %v", userID, err)
	}
}

func TestUserService_SignupDuplicate(t *testing.T) {
	svc, tc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, signup()); err != nil {
		t.Fatal(err)
	}
	dup := signup()
	dup.Email = "owner@bizit.kr"
	if _, err := svc.Signup(ctx, dup); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
	if n := tc.CountRows(t, "users"); n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestUserService_SigninFailures(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, signup()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Signin(ctx, "owner@bizit.kr", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Signin(ctx, "ghost@bizit.kr", "s3cret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestUserService_AuthenticateFailures(t *testing.T) {
	svc, _ := newUserService(t)
	for _, token := range []string{"", "   ", "ghost@bizit.kr"} {
		if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Authenticate(%q) err = %v", token, err)
		}
	}
}

func TestUserService_InvalidSignup(t *testing.T) {
	svc, tc := newUserService(t)
	in := signup()
	in.Password = ""
	if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrInvalidSignup) {
		t.Errorf("err = %v", err)
	}
	if n := tc.CountRows(t, "users"); n != 0 {
		t.Errorf("users = %d, want 0", n)
	}
}
