package zipstock

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Item is a denormalized inventory row: catalog references are resolved to
// their names, missing references read as "Unknown". Dates and timestamps
// keep SQLite's text representation.
type Item struct {
	ID            int64
	MaterialType  string
	Manufacturer  string
	Model         string
	PartNumber    string
	SerialNumber  string
	Capacity      string
	InterfaceType string
	Notes         string
	ArrivalDate   string
	InvoiceNumber string
	Status        string
	CreatedAt     string
	UpdatedAt     string
}

// ItemFields is the caller-supplied part of an item for add and update.
// MaterialType, Manufacturer, Model and ArrivalDate are required; catalog
// entries are created on demand.
type ItemFields struct {
	MaterialType  string
	Manufacturer  string
	Model         string
	PartNumber    string
	SerialNumber  string
	Capacity      string
	InterfaceType string
	Notes         string
	ArrivalDate   string
	InvoiceNumber string
}

func (f ItemFields) validate() error {
	ve := &ValidationErrors{}
	requireField(ve, "material_type", f.MaterialType)
	requireField(ve, "manufacturer", f.Manufacturer)
	requireField(ve, "model", f.Model)
	requireField(ve, "arrival_date", f.ArrivalDate)
	validateDate(ve, "arrival_date", f.ArrivalDate)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

const itemColumns = `i.id,
	COALESCE(mt.name, 'Unknown') as material_type,
	COALESCE(man.name, 'Unknown') as manufacturer,
	COALESCE(m.name, 'Unknown') as model,
	COALESCE(i.part_number, '') as part_number,
	COALESCE(i.serial_number, '') as serial_number,
	COALESCE(i.capacity, '') as capacity,
	COALESCE(i.interface_type, '') as interface_type,
	COALESCE(i.notes, '') as notes,
	i.arrival_date,
	COALESCE(i.invoice_number, '') as invoice_number,
	COALESCE(i.status, 'available') as status,
	COALESCE(i.created_at, '') as created_at,
	COALESCE(i.updated_at, '') as updated_at`

const itemJoins = `FROM inventory i
	LEFT JOIN material_types mt ON i.material_type_id = mt.id
	LEFT JOIN manufacturers man ON i.manufacturer_id = man.id
	LEFT JOIN models m ON i.model_id = m.id`

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.MaterialType, &it.Manufacturer, &it.Model,
		&it.PartNumber, &it.SerialNumber, &it.Capacity, &it.InterfaceType,
		&it.Notes, &it.ArrivalDate, &it.InvoiceNumber, &it.Status,
		&it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (s *Store) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// serialTaken reports whether another item (excluding excludeID, pass 0 for
// inserts) already carries the serial number. Empty serials never collide.
func (s *Store) serialTaken(serial string, excludeID int64) (bool, error) {
	if serial == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM inventory WHERE serial_number = ? AND id != ?",
		serial, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("serial check: %w", err)
	}
	return count > 0, nil
}

// Add inserts a new inventory item, creating catalog entries as needed.
// Returns the new item id, or ErrDuplicateSerial if a non-empty serial
// number is already on another item.
func (s *Store) Add(f ItemFields) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	taken, err := s.serialTaken(f.SerialNumber, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrDuplicateSerial
	}

	modelID, err := s.EnsureModel(f.MaterialType, f.Manufacturer, f.Model)
	if err != nil {
		return 0, err
	}
	typeID, err := s.Resolve(MaterialTypes, f.MaterialType)
	if err != nil {
		return 0, err
	}
	mfrID, err := s.Resolve(Manufacturers, f.Manufacturer)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Exec(`INSERT INTO inventory
		(material_type_id, manufacturer_id, model_id, part_number, serial_number,
		 capacity, interface_type, notes, arrival_date, invoice_number,
		 status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'available', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		typeID, mfrID, modelID, nullString(f.PartNumber), nullString(f.SerialNumber),
		nullString(f.Capacity), nullString(f.InterfaceType), nullString(f.Notes),
		f.ArrivalDate, nullString(f.InvoiceNumber))
	if err != nil {
		return 0, fmt.Errorf("add item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.log.Info("item added", zap.Int64("id", id),
		zap.String("model", f.Model), zap.String("serial", f.SerialNumber))
	return id, nil
}

// Update rewrites all caller-editable fields of an item. Status and the
// write-off history are untouched. ErrNotFound if the id does not exist.
func (s *Store) Update(id int64, f ItemFields) error {
	if err := f.validate(); err != nil {
		return err
	}
	taken, err := s.serialTaken(f.SerialNumber, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateSerial
	}

	modelID, err := s.EnsureModel(f.MaterialType, f.Manufacturer, f.Model)
	if err != nil {
		return err
	}
	typeID, err := s.Resolve(MaterialTypes, f.MaterialType)
	if err != nil {
		return err
	}
	mfrID, err := s.Resolve(Manufacturers, f.Manufacturer)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`UPDATE inventory SET
		material_type_id = ?, manufacturer_id = ?, model_id = ?,
		part_number = ?, serial_number = ?, capacity = ?, interface_type = ?,
		notes = ?, arrival_date = ?, invoice_number = ?
		WHERE id = ?`,
		typeID, mfrID, modelID,
		nullString(f.PartNumber), nullString(f.SerialNumber), nullString(f.Capacity),
		nullString(f.InterfaceType), nullString(f.Notes), f.ArrivalDate,
		nullString(f.InvoiceNumber), id)
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an item and its write-off history.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec("DELETE FROM write_off_history WHERE inventory_id = ?", id); err != nil {
		return fmt.Errorf("delete item history %d: %w", id, err)
	}
	res, err := s.db.Exec("DELETE FROM inventory WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.log.Info("item deleted", zap.Int64("id", id))
	return nil
}

// ItemByID returns one item, or ErrNotFound.
func (s *Store) ItemByID(id int64) (Item, error) {
	row := s.db.QueryRow("SELECT "+itemColumns+" "+itemJoins+" WHERE i.id = ?", id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// ItemExists reports whether an item id is present.
func (s *Store) ItemExists(id int64) (bool, error) {
	var found int64
	err := s.db.QueryRow("SELECT id FROM inventory WHERE id = ?", id).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Items returns all inventory, newest arrivals first.
func (s *Store) Items() ([]Item, error) {
	return s.queryItems("SELECT " + itemColumns + " " + itemJoins +
		" ORDER BY i.arrival_date DESC, i.id DESC")
}

// ItemsByIDs returns the items with the given ids, in arrival order. Ids
// that match nothing are silently skipped.
func (s *Store) ItemsByIDs(ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryItems("SELECT "+itemColumns+" "+itemJoins+
		" WHERE i.id IN ("+placeholders+") ORDER BY i.arrival_date DESC, i.id DESC", args...)
}

// Search matches a free-text term as a substring across serial number,
// part number, capacity, the three catalog names, notes and invoice
// number. An empty term returns everything.
func (s *Store) Search(text string) ([]Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Items()
	}
	pattern := "%" + text + "%"
	fields := []string{
		"i.serial_number", "i.part_number", "i.capacity",
		"mt.name", "man.name", "m.name",
		"i.notes", "i.invoice_number",
	}
	conds := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		conds[i] = f + " LIKE ?"
		args[i] = pattern
	}
	return s.queryItems("SELECT "+itemColumns+" "+itemJoins+
		" WHERE "+strings.Join(conds, " OR ")+
		" ORDER BY i.arrival_date DESC, i.id DESC", args...)
}

// FilterParams are the optional criteria for Filter. Empty fields are not
// applied; Status accepts "all" as a synonym for unset.
type FilterParams struct {
	MaterialType string
	Manufacturer string
	Model        string
	PartNumber   string
	SerialNumber string
	Status       string
	DateFrom     string
	DateTo       string
}

// Filter returns the items matching every supplied criterion. Catalog
// criteria match by exact name, part and serial numbers by substring, the
// date range bounds arrival_date inclusively. With no criteria it is
// equivalent to Items.
func (s *Store) Filter(p FilterParams) ([]Item, error) {
	query := "SELECT " + itemColumns + " " + itemJoins + " WHERE 1=1"
	var args []any

	if p.MaterialType != "" {
		query += " AND mt.name = ?"
		args = append(args, p.MaterialType)
	}
	if p.Manufacturer != "" {
		query += " AND man.name = ?"
		args = append(args, p.Manufacturer)
	}
	if p.Model != "" {
		query += " AND m.name = ?"
		args = append(args, p.Model)
	}
	if p.PartNumber != "" {
		query += " AND i.part_number LIKE ?"
		args = append(args, "%"+p.PartNumber+"%")
	}
	if p.SerialNumber != "" {
		query += " AND i.serial_number LIKE ?"
		args = append(args, "%"+p.SerialNumber+"%")
	}
	if p.Status != "" && p.Status != "all" {
		query += " AND COALESCE(i.status, 'available') = ?"
		args = append(args, p.Status)
	}
	if p.DateFrom != "" {
		query += " AND i.arrival_date >= ?"
		args = append(args, p.DateFrom)
	}
	if p.DateTo != "" {
		query += " AND i.arrival_date <= ?"
		args = append(args, p.DateTo)
	}

	query += " ORDER BY i.arrival_date DESC, i.id DESC"
	return s.queryItems(query, args...)
}
