package paymentgateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// The gateway signs the URI-component-encoded parameter set, sorted by
// encoded key, with every encoded space rendered as "+". Both sides compute
// the exact same string independently, so any divergence here breaks every
// signature. Empty values stay in the canonical string.

// encodeComponent percent-encodes s the way encodeURIComponent does, with
// spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// canonicalize renders params as "k=v&k=v" with keys encoded and sorted in
// ascending byte order and values encoded with spaces as "+".
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	encoded := make(map[string]string, len(params))
	for k, v := range params {
		ek := encodeComponent(k)
		keys = append(keys, ek)
		encoded[ek] = strings.ReplaceAll(encodeComponent(v), "%20", "+")
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encoded[k])
	}
	return b.String()
}

// sign computes the lowercase hex HMAC-SHA512 of the canonical parameter
// string keyed by secret.
func sign(params map[string]string, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(canonicalize(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature recomputes the MAC over params (which must already have the
// hash fields removed) and compares it to received in constant time.
func verifySignature(params map[string]string, received, secret string) bool {
	expected := sign(params, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}
