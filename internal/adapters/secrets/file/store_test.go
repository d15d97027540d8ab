package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidRefs(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, ref := range []string{"", "   ", "/absolute/path", "../escape", "kbtrain://agents/../../escape"} {
		t.Run(ref, func(t *testing.T) {
			err := store.Put(context.Background(), ref, "value")
			require.ErrorIs(t, err, domain.ErrInvalidSecretRef)
		})
	}
}

func TestStorePutGetAgentKeyRevision(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	ref := domain.AgentKeySecretRef("support", domain.KeyTargetKB, 1)

	require.NoError(t, store.Put(context.Background(), ref, "kb-key"))

	got, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "kb-key", got)

	info, err := os.Stat(filepath.Join(root, "kbtrain", "agents", "support", "kb_key", "1"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretMode), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(root, "kbtrain", "agents", "support", "kb_key", ".secret-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStorePutReplacesExistingValue(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ref := domain.AgentKeySecretRef("support", domain.KeyTargetChat, 2)

	require.NoError(t, store.Put(context.Background(), ref, "first"))
	require.NoError(t, store.Put(context.Background(), ref, "second"))

	got, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestStoreDeletePrunesEmptyAgentDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	kbRef := domain.AgentKeySecretRef("support", domain.KeyTargetKB, 1)
	chatRef := domain.AgentKeySecretRef("support", domain.KeyTargetChat, 1)

	require.NoError(t, store.Put(context.Background(), kbRef, "kb"))
	require.NoError(t, store.Put(context.Background(), chatRef, "chat"))

	require.NoError(t, store.Delete(context.Background(), kbRef))
	assert.NoDirExists(t, filepath.Join(root, "kbtrain", "agents", "support", "kb_key"))
	assert.DirExists(t, filepath.Join(root, "kbtrain", "agents", "support", "chat_key"))

	require.NoError(t, store.Delete(context.Background(), chatRef))
	assert.NoDirExists(t, filepath.Join(root, "kbtrain"))
	assert.DirExists(t, root)
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ref := domain.AgentKeySecretRef("support", domain.KeyTargetKB, 1)

	require.NoError(t, store.Delete(context.Background(), ref))
	require.NoError(t, store.Delete(context.Background(), ref))
}

func TestStoreGetMissingSecretReturnsSecretNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Get(context.Background(), "kbtrain://identity/oauth_tokens")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore(t.TempDir())
	require.ErrorIs(t, store.Put(ctx, "kbtrain://identity/oauth_tokens", "x"), context.Canceled)
	_, err := store.Get(ctx, "kbtrain://identity/oauth_tokens")
	require.ErrorIs(t, err, context.Canceled)
}
