package crypto

import (
	"errors"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, _ := GenerateToken()
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64", len(a))
	}
	if a == b {
		t.Errorf("two tokens are equal")
	}
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashToken("abc"); got != want {
		t.Errorf("HashToken(abc) = %s", got)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	encoded, err := EncodePassword("hunter2")
	if err != nil {
		t.Fatalf("EncodePassword: %v", err)
	}

	ok, err := VerifyPassword(encoded, "hunter2")
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = (%v, %v)", ok, err)
	}
	ok, err = VerifyPassword(encoded, "hunter3")
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = (%v, %v)", ok, err)
	}

	other, _ := EncodePassword("hunter2")
	if other == encoded {
		t.Errorf("salts are not random")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{"", "nodollar", "!!$!!", "c2FsdA$c2hvcnQ"} {
		if _, err := VerifyPassword(encoded, "x"); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("VerifyPassword(%q) error = %v, want ErrMalformedHash", encoded, err)
		}
	}
}
