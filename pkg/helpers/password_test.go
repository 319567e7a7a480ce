package helpers

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CompareHashAndPassword(hash, "password123") {
		t.Error("correct password rejected")
	}
	if CompareHashAndPassword(hash, "password124") {
		t.Error("wrong password accepted")
	}
	if CompareHashAndPassword("not-a-bcrypt-hash", "password123") {
		t.Error("malformed hash accepted")
	}
}
