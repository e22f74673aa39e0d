package setup

import (
	"testing"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/config"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
	"github.com/stretchr/testify/require"
)

func TestGenealogyOptions(t *testing.T) {
	cfg := &config.GenealogyConfig{
		Placement:      config.Placement{MaxDepth: 64, MaxRetries: 9, RetryBaseDelay: 5 * time.Millisecond},
		Reconciliation: config.Reconciliation{Flashout: "subtree", OrphanPolicy: "use-position", WriteChunkSize: 50},
	}
	options, err := GenealogyOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, genealogy.Policy{Flashout: genealogy.FlashoutSubtree, Orphans: genealogy.OrphanUsePosition, MaxDepth: 64}, options.Policy)
	require.Equal(t, 9, options.MaxRetries)
	require.Equal(t, 5*time.Millisecond, options.RetryBaseDelay)
	require.Equal(t, 50, options.WriteChunkSize)

	cfg.Reconciliation.Flashout = "everything"
	_, err = GenealogyOptions(cfg)
	require.Error(t, err)
}
