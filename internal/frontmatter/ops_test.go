package frontmatter

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, in string) *Doc {
	t.Helper()
	doc, err := Parse([]byte(in))
	require.NoError(t, err)
	return doc
}

func TestEnsureUID_GeneratesOnce(t *testing.T) {
	doc := mustParse(t, "---\ntitle: T\n---\nBody.\n")

	uid, changed, err := doc.EnsureUID()
	require.NoError(t, err)
	require.True(t, changed)
	_, err = uuid.Parse(uid)
	require.NoError(t, err)

	again, changed, err := doc.EnsureUID()
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, uid, again)
}

func TestSetContributors_ChangeDetection(t *testing.T) {
	doc := mustParse(t, "---\ntitle: T\n---\nBody.\n")

	changed, err := doc.SetContributors([]string{"alice", "bob"})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, []string{"alice", "bob"}, doc.Contributors())

	changed, err = doc.SetContributors([]string{"alice", "bob"})
	require.NoError(t, err)
	require.False(t, changed)

	changed, err = doc.SetContributors(nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Empty(t, doc.Contributors())
}

func TestUpsertFingerprint_StableAcrossDerivedFields(t *testing.T) {
	doc := mustParse(t, "---\ntitle: T\n---\nBody.\n")
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	fp, changed, err := doc.UpsertFingerprint(now)
	require.NoError(t, err)
	require.True(t, changed)
	require.NotEmpty(t, fp)
	require.Equal(t, "2026-03-14", doc.Fields["lastmod"])

	// uid and contributors are excluded from the hash, so adding them must
	// not move the fingerprint or lastmod.
	_, _, err = doc.EnsureUID()
	require.NoError(t, err)
	_, err2 := doc.SetContributors([]string{"alice"})
	require.NoError(t, err2)

	later := now.Add(48 * time.Hour)
	fp2, changed, err := doc.UpsertFingerprint(later)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, fp, fp2)
	require.Equal(t, "2026-03-14", doc.Fields["lastmod"])
}

func TestUpsertFingerprint_ContentChangeMovesLastmod(t *testing.T) {
	doc := mustParse(t, "---\ntitle: T\n---\nBody.\n")
	now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	fp, _, err := doc.UpsertFingerprint(now)
	require.NoError(t, err)

	doc.Body = []byte("Edited body.\n")
	later := now.Add(24 * time.Hour)
	fp2, changed, err := doc.UpsertFingerprint(later)
	require.NoError(t, err)
	require.True(t, changed)
	require.NotEqual(t, fp, fp2)
	require.Equal(t, "2026-03-15", doc.Fields["lastmod"])
}
