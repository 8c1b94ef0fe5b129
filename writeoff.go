package zipstock

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	StatusAvailable  = "available"
	StatusWrittenOff = "written_off"
)

// ItemStatus is the current status of an item together with the most
// recent write-off details. The write-off fields are empty when the item
// has never been written off.
type ItemStatus struct {
	Status       string
	IssuedTo     string
	IssueDate    string
	Comments     string
	WriteOffDate string
}

// WriteOffRecord is one history entry joined with identifying item fields.
type WriteOffRecord struct {
	ID           int64
	InventoryID  int64
	SerialNumber string
	PartNumber   string
	MaterialType string
	Manufacturer string
	Model        string
	IssuedTo     string
	IssueDate    string
	Comments     string
	CreatedAt    string
}

// WriteOff marks an item as written off and appends a history record, both
// inside one transaction. IssuedTo is required; an empty issueDate defaults
// to today. ErrNotFound if the item does not exist.
func (s *Store) WriteOff(itemID int64, issuedTo, issueDate, comments string) error {
	issuedTo = strings.TrimSpace(issuedTo)
	comments = strings.TrimSpace(comments)
	if issueDate == "" {
		issueDate = time.Now().Format(dateLayout)
	}

	ve := &ValidationErrors{}
	requireField(ve, "issued_to", issuedTo)
	validateDate(ve, "issue_date", issueDate)
	if ve.HasErrors() {
		return ve
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("write off item %d: %w", itemID, err)
	}

	res, err := tx.Exec("UPDATE inventory SET status = ? WHERE id = ?", StatusWrittenOff, itemID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("write off item %d: %w", itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	if _, err := tx.Exec(
		"INSERT INTO write_off_history (inventory_id, issued_to, issue_date, comments) VALUES (?, ?, ?, ?)",
		itemID, issuedTo, issueDate, comments); err != nil {
		tx.Rollback()
		return fmt.Errorf("record write-off of item %d: %w", itemID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write off item %d: %w", itemID, err)
	}
	s.log.Info("item written off",
		zap.Int64("id", itemID), zap.String("issued_to", issuedTo))
	return nil
}

// ReturnToStock flips an item back to available. The write-off history is
// kept as an archive. ErrNotFound if the item does not exist.
func (s *Store) ReturnToStock(itemID int64) error {
	res, err := s.db.Exec("UPDATE inventory SET status = ? WHERE id = ?", StatusAvailable, itemID)
	if err != nil {
		return fmt.Errorf("return item %d: %w", itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.log.Info("item returned to stock", zap.Int64("id", itemID))
	return nil
}

// IsWrittenOff reports whether an item currently has written_off status.
// An unknown id reads as false, not an error.
func (s *Store) IsWrittenOff(itemID int64) (bool, error) {
	var status string
	err := s.db.QueryRow(
		"SELECT COALESCE(status, 'available') FROM inventory WHERE id = ?", itemID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("status of item %d: %w", itemID, err)
	}
	return status == StatusWrittenOff, nil
}

// CurrentStatus returns the item's status and its most recent write-off
// record. ErrNotFound if the item does not exist.
func (s *Store) CurrentStatus(itemID int64) (ItemStatus, error) {
	var st ItemStatus
	err := s.db.QueryRow(`SELECT
		COALESCE(i.status, 'available') as status,
		COALESCE(w.issued_to, '') as issued_to,
		COALESCE(w.issue_date, '') as issue_date,
		COALESCE(w.comments, '') as comments,
		COALESCE(w.created_at, '') as write_off_date
		FROM inventory i
		LEFT JOIN write_off_history w ON i.id = w.inventory_id
		WHERE i.id = ?
		ORDER BY w.created_at DESC, w.id DESC LIMIT 1`, itemID).
		Scan(&st.Status, &st.IssuedTo, &st.IssueDate, &st.Comments, &st.WriteOffDate)
	if err == sql.ErrNoRows {
		return ItemStatus{}, ErrNotFound
	}
	if err != nil {
		return ItemStatus{}, fmt.Errorf("status of item %d: %w", itemID, err)
	}
	return st, nil
}

// History returns write-off records newest first, joined with identifying
// item fields. itemID <= 0 returns the full ledger.
func (s *Store) History(itemID int64) ([]WriteOffRecord, error) {
	query := `SELECT
		w.id, w.inventory_id,
		COALESCE(i.serial_number, '') as serial_number,
		COALESCE(i.part_number, '') as part_number,
		mt.name as material_type,
		man.name as manufacturer,
		m.name as model,
		w.issued_to, w.issue_date,
		COALESCE(w.comments, '') as comments,
		w.created_at
		FROM write_off_history w
		JOIN inventory i ON w.inventory_id = i.id
		JOIN material_types mt ON i.material_type_id = mt.id
		JOIN manufacturers man ON i.manufacturer_id = man.id
		JOIN models m ON i.model_id = m.id
		WHERE 1=1`
	var args []any
	if itemID > 0 {
		query += " AND w.inventory_id = ?"
		args = append(args, itemID)
	}
	query += " ORDER BY w.created_at DESC, w.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("write-off history: %w", err)
	}
	defer rows.Close()

	records := []WriteOffRecord{}
	for rows.Next() {
		var r WriteOffRecord
		if err := rows.Scan(&r.ID, &r.InventoryID, &r.SerialNumber, &r.PartNumber,
			&r.MaterialType, &r.Manufacturer, &r.Model,
			&r.IssuedTo, &r.IssueDate, &r.Comments, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
