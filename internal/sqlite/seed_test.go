package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
users:
  - id: alice
    display_name: Alice
  - id: bob
    display_name: Bob
    api_keys: [bob-token]
nodes:
  - owner: alice
    path: /Photos
    folder: true
  - owner: alice
    path: /Photos/cat.png
shares:
  - owner: alice
    path: /Photos
    recipient: bob
    mount_path: /Photos
`

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	require.Equal(t, []string{"bob-token"}, seed.Users[1].APIKeys)
	require.True(t, seed.Nodes[0].Folder)

	db := NewTestDB(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db, seed))

	user, err := NewUserRepository(db, nil).ResolveUser(ctx, "bob-token")
	require.NoError(t, err)
	require.Equal(t, "bob", user)

	node, err := NewNodeRepository(db).GetNode(ctx, "bob", "/Photos/cat.png")
	require.NoError(t, err)
	require.Equal(t, "alice", node.Owner)
	require.Equal(t, owner.StorageLocal, node.Storage)

	// A second run leaves the populated database alone.
	require.NoError(t, Seed(ctx, db, seed))
}

func TestSeed_UnknownShareSource(t *testing.T) {
	db := NewTestDB(t)
	seed := &SeedData{
		Users:  []SeedUser{{ID: "bob"}},
		Shares: []SeedShare{{Owner: "alice", Path: "/missing", Recipient: "bob", MountPath: "/missing"}},
	}
	require.Error(t, Seed(context.Background(), db, seed))
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
