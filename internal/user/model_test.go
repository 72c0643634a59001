package user

import "testing"

func TestSetAndCheckPassword(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	if u.PasswordHash == "" {
		t.Fatal("expected password hash to be set")
	}
	if u.PasswordHash == "correct horse battery" {
		t.Fatal("password must not be stored in plaintext")
	}

	if !u.CheckPassword("correct horse battery") {
		t.Error("expected correct password to verify")
	}
	if u.CheckPassword("wrong password") {
		t.Error("expected wrong password to fail")
	}
}

func TestCheckPassword_NoHash(t *testing.T) {
	u := &User{}
	if u.CheckPassword("anything") {
		t.Error("account without a password hash must never verify")
	}
}
