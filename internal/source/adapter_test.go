package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jobharvest/internal/config"
)

func TestRegistryKinds(t *testing.T) {
	require.Equal(t, []string{"inthiswork", "saramin", "wanted"}, Kinds())
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(config.Source{ID: "x", Kind: "linkedin"}, newTestClient())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown adapter kind")
}

func TestNewBuildsRegisteredKind(t *testing.T) {
	a, err := New(config.Source{ID: "itw", Kind: "inthiswork"}, newTestClient())
	require.NoError(t, err)
	require.Equal(t, "itw", a.SourceID())
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a b \n\t c  "))
	require.Equal(t, "", CleanText("    "))
}
