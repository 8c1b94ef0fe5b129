package zipstock

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Schema evolution is driven by a stored version (PRAGMA user_version) and
// an ordered chain of idempotent migrations. Databases created by older
// builds of the application start at version 0 and are converged by the
// chain; the individual steps tolerate partial legacy schemas.
var migrations = []struct {
	version int
	name    string
	run     func(*Store) error
}{
	{1, "base schema", (*Store).createBaseSchema},
	{2, "legacy column convergence", (*Store).convergeLegacySchema},
	{3, "drop serial_number uniqueness", (*Store).rebuildWithoutSerialUnique},
}

func (s *Store) migrate() error {
	if err := s.recoverInterruptedRebuild(); err != nil {
		return &SchemaError{Step: "rebuild recovery", Err: err}
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return &SchemaError{Step: "read schema version", Err: err}
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		s.log.Info("applying schema migration",
			zap.Int("version", m.version),
			zap.String("name", m.name))
		if err := m.run(s); err != nil {
			return &SchemaError{Step: m.name, Err: err}
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return &SchemaError{Step: "store schema version", Err: err}
		}
		version = m.version
	}
	return nil
}

func (s *Store) createBaseSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS material_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS manufacturers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			material_type_id INTEGER NOT NULL,
			manufacturer_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			FOREIGN KEY (material_type_id) REFERENCES material_types(id),
			FOREIGN KEY (manufacturer_id) REFERENCES manufacturers(id),
			UNIQUE(material_type_id, manufacturer_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			material_type_id INTEGER NOT NULL,
			manufacturer_id INTEGER NOT NULL,
			model_id INTEGER NOT NULL,
			part_number TEXT,
			serial_number TEXT,
			capacity TEXT,
			interface_type TEXT,
			notes TEXT,
			arrival_date DATE NOT NULL,
			invoice_number TEXT,
			status TEXT DEFAULT 'available',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (material_type_id) REFERENCES material_types(id),
			FOREIGN KEY (manufacturer_id) REFERENCES manufacturers(id),
			FOREIGN KEY (model_id) REFERENCES models(id)
		)`,
		`CREATE TABLE IF NOT EXISTS write_off_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			inventory_id INTEGER NOT NULL,
			issued_to TEXT NOT NULL,
			issue_date DATE NOT NULL,
			comments TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (inventory_id) REFERENCES inventory(id)
		)`,
	}
	for _, t := range tables {
		if _, err := s.db.Exec(t); err != nil {
			return fmt.Errorf("create tables: %w\nSQL: %s", err, t)
		}
	}

	// On a legacy database updated_at does not exist until the next
	// migration adds it, so trigger creation may fail here; it is
	// retried after the column converges.
	if err := s.createUpdateTrigger(); err != nil {
		s.log.Warn("trigger creation deferred", zap.Error(err))
	}
	s.createIndexes()
	return nil
}

// convergeLegacySchema brings pre-versioning databases up to the full
// column set. Each step is best-effort: a failure is logged and skipped so
// one stubborn column cannot brick startup.
func (s *Store) convergeLegacySchema() error {
	columns, err := s.tableColumns("inventory")
	if err != nil {
		return fmt.Errorf("inspect inventory columns: %w", err)
	}

	// SQLite refuses ADD COLUMN with a non-constant default, so the
	// timestamp columns are added bare and backfilled.
	adds := []struct {
		column   string
		stmt     string
		backfill string
	}{
		{"status", "ALTER TABLE inventory ADD COLUMN status TEXT DEFAULT 'available'", ""},
		{"capacity", "ALTER TABLE inventory ADD COLUMN capacity TEXT", ""},
		{"created_at", "ALTER TABLE inventory ADD COLUMN created_at TIMESTAMP",
			"UPDATE inventory SET created_at = CURRENT_TIMESTAMP WHERE created_at IS NULL"},
		{"updated_at", "ALTER TABLE inventory ADD COLUMN updated_at TIMESTAMP",
			"UPDATE inventory SET updated_at = CURRENT_TIMESTAMP WHERE updated_at IS NULL"},
	}
	for _, a := range adds {
		if contains(columns, a.column) {
			continue
		}
		if _, err := s.db.Exec(a.stmt); err != nil {
			if !strings.Contains(err.Error(), "duplicate column") {
				s.log.Warn("legacy column migration failed",
					zap.String("sql", a.stmt), zap.Error(err))
			}
			continue
		}
		if a.backfill != "" {
			if _, err := s.db.Exec(a.backfill); err != nil {
				s.log.Warn("legacy column backfill failed",
					zap.String("sql", a.backfill), zap.Error(err))
			}
		}
	}

	if err := s.createUpdateTrigger(); err != nil {
		s.log.Warn("trigger creation failed", zap.Error(err))
	}
	s.createIndexes()
	return nil
}

// rebuildWithoutSerialUnique removes the obsolete UNIQUE constraint on
// inventory.serial_number by rebuilding the table: copy rows to a backup,
// drop, recreate without the constraint, reinsert, drop the backup, then
// recreate indexes and the update trigger. Failure here is fatal to
// initialization; a crash mid-rebuild leaves the backup table for
// recoverInterruptedRebuild to pick up on the next start.
func (s *Store) rebuildWithoutSerialUnique() error {
	var createSQL string
	err := s.db.QueryRow("SELECT sql FROM sqlite_master WHERE type='table' AND name='inventory'").Scan(&createSQL)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read inventory DDL: %w", err)
	}

	variants := []string{
		"serial_number TEXT UNIQUE NOT NULL",
		"serial_number TEXT NOT NULL UNIQUE",
		"serial_number TEXT UNIQUE",
	}
	found := false
	newSQL := createSQL
	for _, v := range variants {
		if strings.Contains(newSQL, v) {
			newSQL = strings.ReplaceAll(newSQL, v, "serial_number TEXT")
			found = true
		}
	}
	if !found {
		return nil
	}

	s.log.Info("removing UNIQUE constraint on inventory.serial_number")

	if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS inventory_backup AS SELECT * FROM inventory"); err != nil {
		return fmt.Errorf("back up inventory: %w", err)
	}
	if _, err := s.db.Exec("DROP TABLE inventory"); err != nil {
		return fmt.Errorf("drop inventory: %w", err)
	}
	if _, err := s.db.Exec(newSQL); err != nil {
		// Best-effort restore so the data survives even though the
		// constraint is still in place.
		s.log.Error("recreate inventory failed, restoring backup",
			zap.String("sql", newSQL), zap.Error(err))
		s.db.Exec("CREATE TABLE inventory AS SELECT * FROM inventory_backup")
		s.db.Exec("DROP TABLE inventory_backup")
		return fmt.Errorf("recreate inventory: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO inventory SELECT * FROM inventory_backup"); err != nil {
		return fmt.Errorf("restore inventory rows: %w", err)
	}
	if _, err := s.db.Exec("DROP TABLE inventory_backup"); err != nil {
		return fmt.Errorf("drop backup table: %w", err)
	}

	s.createIndexes()
	if _, err := s.db.Exec("DROP TRIGGER IF EXISTS update_inventory_timestamp"); err != nil {
		s.log.Warn("drop trigger failed", zap.Error(err))
	}
	return s.createUpdateTrigger()
}

// recoverInterruptedRebuild handles a database left behind by a crash in
// the middle of a table rebuild. A leftover inventory_backup alongside a
// live inventory table is stale and dropped; a backup without the live
// table is restored.
func (s *Store) recoverInterruptedRebuild() error {
	if !s.tableExists("inventory_backup") {
		return nil
	}
	if s.tableExists("inventory") {
		s.log.Warn("dropping stale inventory_backup from interrupted rebuild")
		_, err := s.db.Exec("DROP TABLE inventory_backup")
		return err
	}
	s.log.Warn("restoring inventory from interrupted rebuild")
	if _, err := s.db.Exec("CREATE TABLE inventory AS SELECT * FROM inventory_backup"); err != nil {
		return err
	}
	if _, err := s.db.Exec("DROP TABLE inventory_backup"); err != nil {
		return err
	}
	s.createIndexes()
	if err := s.createUpdateTrigger(); err != nil {
		s.log.Warn("trigger creation failed after restore", zap.Error(err))
	}
	return nil
}

func (s *Store) createUpdateTrigger() error {
	_, err := s.db.Exec(`CREATE TRIGGER IF NOT EXISTS update_inventory_timestamp
		AFTER UPDATE ON inventory
		BEGIN
			UPDATE inventory SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
		END`)
	if err != nil {
		return fmt.Errorf("create update trigger: %w", err)
	}
	return nil
}

// createIndexes is best-effort: a failed index is logged and skipped.
func (s *Store) createIndexes() {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_inventory_serial ON inventory(serial_number)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_part_number ON inventory(part_number)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_capacity ON inventory(capacity)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_arrival_date ON inventory(arrival_date)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_status ON inventory(status)",
		"CREATE INDEX IF NOT EXISTS idx_models_composite ON models(material_type_id, manufacturer_id)",
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			s.log.Warn("index creation failed", zap.String("sql", idx), zap.Error(err))
		}
	}
}

func (s *Store) tableExists(name string) bool {
	var found string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&found)
	return err == nil
}

func (s *Store) tableColumns(table string) ([]string, error) {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
