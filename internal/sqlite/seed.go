package sqlite

import (
	"context"
	"fmt"
	"os"

	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"gopkg.in/yaml.v3"
)

// SeedData is the initial directory of users, their files and their shares.
type SeedData struct {
	Users  []SeedUser  `yaml:"users"`
	Nodes  []SeedNode  `yaml:"nodes"`
	Shares []SeedShare `yaml:"shares"`
}

type SeedUser struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	APIKeys     []string `yaml:"api_keys"`
}

type SeedNode struct {
	Owner  string `yaml:"owner"`
	Path   string `yaml:"path"`
	Folder bool   `yaml:"folder"`
}

type SeedShare struct {
	Owner     string `yaml:"owner"`
	Path      string `yaml:"path"`
	Recipient string `yaml:"recipient"`
	MountPath string `yaml:"mount_path"`
	// Storage is "local" or "external"; empty means local.
	Storage string `yaml:"storage"`
}

// LoadSeedFile reads seed data from a YAML file.
func LoadSeedFile(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed loads seed into an empty database. It does nothing when users exist.
func Seed(ctx context.Context, db *DB, seed *SeedData) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 || seed == nil {
		return nil
	}

	users := NewUserRepository(db, nil)
	nodes := NewNodeRepository(db)

	for _, u := range seed.Users {
		if err := users.Create(ctx, u.ID, u.DisplayName); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		for _, key := range u.APIKeys {
			if err := users.CreateAPIKey(ctx, key, u.ID, "seed"); err != nil {
				return fmt.Errorf("seed api key for %s: %w", u.ID, err)
			}
		}
	}

	ids := make(map[[2]string]int64, len(seed.Nodes))
	for _, n := range seed.Nodes {
		id, err := nodes.CreateNode(ctx, n.Owner, n.Path, n.Folder)
		if err != nil {
			return fmt.Errorf("seed node %s: %w", n.Path, err)
		}
		ids[[2]string{n.Owner, n.Path}] = id
	}

	for _, s := range seed.Shares {
		id, ok := ids[[2]string{s.Owner, s.Path}]
		if !ok {
			return fmt.Errorf("seed share %s: no node %s owned by %s", s.MountPath, s.Path, s.Owner)
		}
		storage := owner.StorageKind(s.Storage)
		if storage == "" {
			storage = owner.StorageLocal
		}
		if err := nodes.CreateMount(ctx, s.Recipient, id, s.MountPath, storage); err != nil {
			return fmt.Errorf("seed share %s: %w", s.MountPath, err)
		}
	}

	return nil
}
