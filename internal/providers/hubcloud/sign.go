package hubcloud

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes the request signature: the auth headers are canonicalized as
// sorted key=value pairs joined by '&', the shared secret is appended, and the
// whole string is lower-cased before hashing. Sorting makes the signature
// independent of header order.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	pairs = append(pairs, secret)

	canonical := strings.ToLower(strings.Join(pairs, "&"))
	sum := md5.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
