package inventory

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// Two cuts racing on the last piece must resolve as one success and one
// ErrInsufficientQuantity. At read committed the lock loser re-reads the
// committed row and sees quantity 0; a stricter isolation level would abort
// it with a serialization failure before the quantity guard ever runs.
func TestCutTransactionRunsAtReadCommitted(t *testing.T) {
	require.Equal(t, pgx.ReadCommitted, cutTxOptions.IsoLevel)
}
