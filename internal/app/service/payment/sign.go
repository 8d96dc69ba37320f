package payment

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Signature field names are excluded from the string being signed, on both
// the outbound and callback sides.
var signExcludedFields = map[string]bool{
	"sign":      true,
	"sign_type": true,
}

// Sign computes the gateway signature: parameters sorted by name, joined as
// key=value pairs with '&', shared secret appended as key=SECRET, md5,
// lowercase hex. Empty values and the sign fields themselves are skipped.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || signExcludedFields[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte('&')
	}
	b.WriteString("key=")
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature over the callback parameters and compares
// it to the supplied sign field.
func Verify(params map[string]string, secret string) bool {
	supplied := params["sign"]
	if supplied == "" {
		return false
	}
	return Sign(params, secret) == strings.ToLower(supplied)
}
