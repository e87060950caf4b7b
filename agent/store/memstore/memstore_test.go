package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	storex "github.com/tanpawarit/chative-support/agent/store"
	"github.com/tanpawarit/chative-support/agent/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storex.Store {
		s := New()
		require.NoError(t, s.Seed(context.Background()))
		return s
	})
}

func TestStoreWithFAQCache(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storex.Store {
		s := New()
		require.NoError(t, s.Seed(context.Background()))
		return storex.WithFAQCache(s, 16, 0)
	})
}
