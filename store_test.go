package zipstock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.SeedDefaults = false
	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testFields(serial string) ItemFields {
	return ItemFields{
		MaterialType:  "SSD",
		Manufacturer:  "Samsung",
		Model:         "870 EVO",
		PartNumber:    "MZ-77E1T0",
		SerialNumber:  serial,
		Capacity:      "1TB",
		InterfaceType: "SATA III",
		Notes:         "spare for rack 3",
		ArrivalDate:   "2025-03-15",
		InvoiceNumber: "INV-1042",
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	s := setupTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, 3, version)

	for _, table := range []string{"material_types", "manufacturers", "models", "inventory", "write_off_history"} {
		require.True(t, s.tableExists(table), "table %s should exist", table)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.SeedDefaults = false

	s, err := Open(cfg, nil)
	require.NoError(t, err)
	id, err := s.Add(testFields("SN-1"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	item, err := s.ItemByID(id)
	require.NoError(t, err)
	require.Equal(t, "SN-1", item.SerialNumber)
}

func TestSeedDefaultsOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.SeedDefaults = true

	s, err := Open(cfg, nil)
	require.NoError(t, err)

	types, err := s.ListNames(MaterialTypes)
	require.NoError(t, err)
	require.NotEmpty(t, types)
	mfrs, err := s.ListNames(Manufacturers)
	require.NoError(t, err)
	require.Contains(t, mfrs, "Intel")

	// A user deletion must survive a reopen: seeding only runs against
	// empty tables.
	require.NoError(t, s.DeleteName(Manufacturers, "Intel"))
	require.NoError(t, s.Close())

	s, err = Open(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	mfrs, err = s.ListNames(Manufacturers)
	require.NoError(t, err)
	require.NotContains(t, mfrs, "Intel")
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
