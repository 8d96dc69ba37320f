package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSentinelErrors_AreWrapFriendly(t *testing.T) {
	for _, sentinel := range []error{
		ErrItemNotFound,
		ErrOrderNotFound,
		ErrSignatureMismatch,
		ErrDuplicateTrade,
		ErrCreditingFailed,
		ErrGatewayRejected,
	} {
		err := fmt.Errorf("wrapped: %w", sentinel)
		require.True(t, errors.Is(err, sentinel))
	}
}

func TestIsDuplicateKey(t *testing.T) {
	// trade-number collisions surface as the translated unique violation,
	// possibly wrapped by the transaction body
	require.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	require.True(t, isDuplicateKey(fmt.Errorf("failed to create inner order: %w", gorm.ErrDuplicatedKey)))
	require.False(t, isDuplicateKey(nil))
	require.False(t, isDuplicateKey(errors.New("connection reset")))
}
