package utils

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("topsecret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !VerifyPassword("topsecret", hash) {
		t.Errorf("VerifyPassword(correct) = false, want true")
	}
	if VerifyPassword("other", hash) {
		t.Errorf("VerifyPassword(wrong) = true, want false")
	}
}

func TestConstantTimeEquals(t *testing.T) {
	if !ConstantTimeEquals("abc", "abc") {
		t.Errorf("ConstantTimeEquals(equal) = false, want true")
	}
	if ConstantTimeEquals("abc", "abd") {
		t.Errorf("ConstantTimeEquals(diff) = true, want false")
	}
	if ConstantTimeEquals("abc", "abcd") {
		t.Errorf("ConstantTimeEquals(len diff) = true, want false")
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("sid-123", "secret", "galleria-go", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	claims, err := ParseSessionToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseSessionToken() error = %v", err)
	}
	if claims.SessionID != "sid-123" {
		t.Errorf("SessionID = %q, want sid-123", claims.SessionID)
	}
	if claims.Issuer != "galleria-go" {
		t.Errorf("Issuer = %q, want galleria-go", claims.Issuer)
	}
}

func TestParseSessionTokenErrors(t *testing.T) {
	token, err := GenerateSessionToken("sid", "secret", "galleria-go", time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	if _, err := ParseSessionToken(token, "wrong-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret error = %v, want ErrInvalidToken", err)
	}

	expired, err := GenerateSessionToken("sid", "secret", "galleria-go", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}
	if _, err := ParseSessionToken(expired, "secret"); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expired error = %v, want ErrExpiredToken", err)
	}

	if _, err := ParseSessionToken("garbage", "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage error = %v, want ErrInvalidToken", err)
	}
}
