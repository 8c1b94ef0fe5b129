package zipstock

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Kind selects one of the two flat reference tables.
type Kind int

const (
	MaterialTypes Kind = iota
	Manufacturers
)

func (k Kind) table() string {
	switch k {
	case MaterialTypes:
		return "material_types"
	case Manufacturers:
		return "manufacturers"
	}
	panic(fmt.Sprintf("unknown catalog kind %d", k))
}

func (k Kind) fkColumn() string {
	switch k {
	case MaterialTypes:
		return "material_type_id"
	case Manufacturers:
		return "manufacturer_id"
	}
	panic(fmt.Sprintf("unknown catalog kind %d", k))
}

// Resolve returns the id of a catalog entry by exact name, or ErrNotFound.
func (s *Store) Resolve(k Kind, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM "+k.table()+" WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve %s %q: %w", k.table(), name, err)
	}
	return id, nil
}

// Ensure returns the id of a catalog entry, creating it if missing. The
// insert uses OR IGNORE so a concurrent (or repeated) ensure of the same
// name converges on one row.
func (s *Store) Ensure(k Kind, name string) (int64, error) {
	ve := &ValidationErrors{}
	requireField(ve, "name", name)
	if ve.HasErrors() {
		return 0, ve
	}

	if _, err := s.db.Exec("INSERT OR IGNORE INTO "+k.table()+" (name) VALUES (?)", name); err != nil {
		return 0, fmt.Errorf("ensure %s %q: %w", k.table(), name, err)
	}
	return s.Resolve(k, name)
}

// ListNames returns all entry names of a catalog table, sorted.
func (s *Store) ListNames(k Kind) ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM " + k.table() + " ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", k.table(), err)
	}
	defer rows.Close()
	return scanNames(rows)
}

// UsageCount reports how many rows reference a catalog entry: inventory
// items plus models registered under it. An unknown name counts as zero.
func (s *Store) UsageCount(k Kind, name string) (int, error) {
	id, err := s.Resolve(k, name)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRow(
		"SELECT (SELECT COUNT(*) FROM inventory WHERE "+k.fkColumn()+" = ?) + (SELECT COUNT(*) FROM models WHERE "+k.fkColumn()+" = ?)",
		id, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("usage count %s %q: %w", k.table(), name, err)
	}
	return count, nil
}

// DeleteName removes a catalog entry by name. ErrNotFound if the name does
// not exist; ErrInUse if any inventory item or model still references it.
func (s *Store) DeleteName(k Kind, name string) error {
	id, err := s.Resolve(k, name)
	if err != nil {
		return err
	}

	var refs int
	err = s.db.QueryRow(
		"SELECT (SELECT COUNT(*) FROM inventory WHERE "+k.fkColumn()+" = ?) + (SELECT COUNT(*) FROM models WHERE "+k.fkColumn()+" = ?)",
		id, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("delete check %s %q: %w", k.table(), name, err)
	}
	if refs > 0 {
		return ErrInUse
	}

	if _, err := s.db.Exec("DELETE FROM "+k.table()+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete %s %q: %w", k.table(), name, err)
	}
	s.log.Info("catalog entry deleted", zap.String("table", k.table()), zap.String("name", name))
	return nil
}

// ResolveModel returns the id of a model under the given type/manufacturer
// pair, or ErrNotFound if the model (or either parent) does not exist.
func (s *Store) ResolveModel(materialType, manufacturer, model string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT mo.id FROM models mo
		JOIN material_types mt ON mo.material_type_id = mt.id
		JOIN manufacturers mf ON mo.manufacturer_id = mf.id
		WHERE mt.name = ? AND mf.name = ? AND mo.name = ?`,
		materialType, manufacturer, model).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve model %q: %w", model, err)
	}
	return id, nil
}

// EnsureModel returns the id of a model, creating it (and its parent type
// and manufacturer entries) if missing.
func (s *Store) EnsureModel(materialType, manufacturer, model string) (int64, error) {
	ve := &ValidationErrors{}
	requireField(ve, "material_type", materialType)
	requireField(ve, "manufacturer", manufacturer)
	requireField(ve, "model", model)
	if ve.HasErrors() {
		return 0, ve
	}

	typeID, err := s.Ensure(MaterialTypes, materialType)
	if err != nil {
		return 0, err
	}
	mfrID, err := s.Ensure(Manufacturers, manufacturer)
	if err != nil {
		return 0, err
	}

	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO models (material_type_id, manufacturer_id, name) VALUES (?, ?, ?)",
		typeID, mfrID, model); err != nil {
		return 0, fmt.Errorf("ensure model %q: %w", model, err)
	}

	var id int64
	err = s.db.QueryRow(
		"SELECT id FROM models WHERE material_type_id = ? AND manufacturer_id = ? AND name = ?",
		typeID, mfrID, model).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure model %q: %w", model, err)
	}
	return id, nil
}

// ListModels returns the model names under a type/manufacturer pair,
// sorted. An unknown pair yields an empty list, not an error.
func (s *Store) ListModels(materialType, manufacturer string) ([]string, error) {
	rows, err := s.db.Query(`SELECT mo.name FROM models mo
		JOIN material_types mt ON mo.material_type_id = mt.id
		JOIN manufacturers mf ON mo.manufacturer_id = mf.id
		WHERE mt.name = ? AND mf.name = ?
		ORDER BY mo.name`, materialType, manufacturer)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()
	return scanNames(rows)
}

// ListModelsByType returns the distinct model names under a material type
// across all manufacturers, sorted.
func (s *Store) ListModelsByType(materialType string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT mo.name FROM models mo
		JOIN material_types mt ON mo.material_type_id = mt.id
		WHERE mt.name = ?
		ORDER BY mo.name`, materialType)
	if err != nil {
		return nil, fmt.Errorf("list models by type: %w", err)
	}
	defer rows.Close()
	return scanNames(rows)
}

// ModelUsage reports how many inventory items reference a model. An
// unknown model counts as zero.
func (s *Store) ModelUsage(materialType, manufacturer, model string) (int, error) {
	id, err := s.ResolveModel(materialType, manufacturer, model)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRow("SELECT COUNT(*) FROM inventory WHERE model_id = ?", id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("model usage %q: %w", model, err)
	}
	return count, nil
}

// DeleteModel removes a model. ErrNotFound if it does not exist; ErrInUse
// if any inventory item still references it.
func (s *Store) DeleteModel(materialType, manufacturer, model string) error {
	id, err := s.ResolveModel(materialType, manufacturer, model)
	if err != nil {
		return err
	}

	var refs int
	err = s.db.QueryRow("SELECT COUNT(*) FROM inventory WHERE model_id = ?", id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("delete check model %q: %w", model, err)
	}
	if refs > 0 {
		return ErrInUse
	}

	if _, err := s.db.Exec("DELETE FROM models WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete model %q: %w", model, err)
	}
	s.log.Info("model deleted", zap.String("name", model))
	return nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
