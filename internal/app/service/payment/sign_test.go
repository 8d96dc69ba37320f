package payment

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

func TestSign_SortedConcatenation(t *testing.T) {
	params := map[string]string{
		"out_trade_no": "20240101120000123456",
		"total_fee":    "990",
		"merchant_id":  "m-1",
	}

	// merchant_id < out_trade_no < total_fee
	raw := "merchant_id=m-1&out_trade_no=20240101120000123456&total_fee=990&key=" + testSecret
	sum := md5.Sum([]byte(raw))
	want := hex.EncodeToString(sum[:])

	got := Sign(params, testSecret)
	assert.Equal(t, want, got)
	assert.Equal(t, strings.ToLower(got), got, "signature must be lowercase hex")
}

func TestSign_SkipsEmptyAndSignFields(t *testing.T) {
	base := map[string]string{"a": "1", "b": "2"}
	withNoise := map[string]string{"a": "1", "b": "2", "c": "", "sign": "junk", "sign_type": "MD5"}

	assert.Equal(t, Sign(base, testSecret), Sign(withNoise, testSecret))
}

func TestVerify(t *testing.T) {
	params := map[string]string{
		"out_trade_no": "t-1",
		"trade_no":     "gw-9",
		"total_fee":    "100",
	}
	params["sign"] = Sign(params, testSecret)
	params["sign_type"] = "MD5"

	require.True(t, Verify(params, testSecret))

	t.Run("tampered parameter rejected", func(t *testing.T) {
		tampered := map[string]string{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered["total_fee"] = "1"
		assert.False(t, Verify(tampered, testSecret))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		assert.False(t, Verify(params, "other"))
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		unsigned := map[string]string{"out_trade_no": "t-1"}
		assert.False(t, Verify(unsigned, testSecret))
	})

	t.Run("uppercase supplied signature accepted", func(t *testing.T) {
		upper := map[string]string{}
		for k, v := range params {
			upper[k] = v
		}
		upper["sign"] = strings.ToUpper(params["sign"])
		assert.True(t, Verify(upper, testSecret))
	})
}
