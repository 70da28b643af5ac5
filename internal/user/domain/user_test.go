package domain

import (
	"errors"
	"testing"
)

func TestSignup_Validate(t *testing.T) {
	s := Signup{Email: "  Owner@BizIT.kr ", Password: "pw", BizName: "역삼 카페", UserName: "김사장"}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.Email != "owner@bizit.kr" {
		t.Errorf("email not normalized: %q", s.Email)
	}

	tests := map[string]Signup{
		"bad email":    {Email: "owner", Password: "pw", BizName: "b", UserName: "u"},
		"no password":  {Email: "a@b.kr", BizName: "b", UserName: "u"},
		"no biz name":  {Email: "a@b.kr", Password: "pw", BizName: " ", UserName: "u"},
		"no user name": {Email: "a@b.kr", Password: "pw", BizName: "b"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if err := in.Validate(); !errors.Is(err, ErrInvalidSignup) {
				t.Errorf("err = %v, want ErrInvalidSignup", err)
			}
		})
	}
}
