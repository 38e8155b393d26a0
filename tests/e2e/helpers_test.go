package e2e

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
	"github.com/nzb155/nomulus/internal/pkg/legacystore"
	"github.com/nzb155/nomulus/internal/testutil"
)

// seedLegacyStore captures n contacts whose ids start with prefix, plus a
// registrar named after prefix, into a fresh legacy store.
func seedLegacyStore(t *testing.T, clk clock.Clock, prefix string, n int) *legacystore.Store {
	t.Helper()
	ctx := context.Background()

	store, err := legacystore.Open(filepath.Join(t.TempDir(), "legacy"), encoding.CBOR, clk)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := testutil.Registrar()
	reg.ClientID = prefix + "Registrar"
	_, err = store.Capture(ctx, domain.KindRegistrar, reg.ClientID, reg)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		c := testutil.Contact(i)
		c.ContactID = fmt.Sprintf("%s_%s", prefix, c.ContactID)
		c.SponsorClientID = reg.ClientID
		_, err := store.Capture(ctx, domain.KindContact, c.ContactID, c)
		require.NoError(t, err)
	}
	return store
}
