package hubcloud

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSignCanonicalOrder(t *testing.T) {
	params := map[string]string{
		"time":        "1757998800000",
		"appid":       "APP-1",
		"nonce":       "abc123",
		"keyid":       "K.99",
		"accesstoken": "TOKEN",
	}

	// Keys sorted, pairs joined by '&', secret appended, lower-cased.
	canonical := strings.ToLower("accesstoken=TOKEN&appid=APP-1&keyid=K.99&nonce=abc123&time=1757998800000&SECRET")
	sum := md5.Sum([]byte(canonical))
	expected := hex.EncodeToString(sum[:])

	if got := Sign(params, "SECRET"); got != expected {
		t.Fatalf("Sign = %s, expected %s", got, expected)
	}
}

func TestSignIsCaseInsensitive(t *testing.T) {
	lower := Sign(map[string]string{"appid": "app-1", "nonce": "n"}, "secret")
	upper := Sign(map[string]string{"appid": "APP-1", "nonce": "N"}, "SECRET")
	if lower != upper {
		t.Fatal("expected identical signatures for case-differing inputs")
	}
}

func TestSignDependsOnSecret(t *testing.T) {
	params := map[string]string{"appid": "app-1", "nonce": "n"}
	if Sign(params, "secret-a") == Sign(params, "secret-b") {
		t.Fatal("expected different signatures for different secrets")
	}
}
