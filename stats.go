package zipstock

import "fmt"

// DashboardStats is a point-in-time summary of the whole inventory.
type DashboardStats struct {
	TotalItems          int
	AvailableItems      int
	WrittenOffItems     int
	ItemsByType         map[string]int
	ItemsByManufacturer map[string]int
	RecentActivity      []Activity
}

// Activity is one recent event, either an arrival or a write-off.
type Activity struct {
	Description string
	Timestamp   string
}

// MonthCount is the number of arrivals in one calendar month
// ("YYYY-MM").
type MonthCount struct {
	Month string
	Count int
}

// Dashboard computes the summary counts, per-type and per-manufacturer
// breakdowns, and the ten most recent events (arrivals and write-offs
// merged, newest first).
func (s *Store) Dashboard() (DashboardStats, error) {
	stats := DashboardStats{
		ItemsByType:         map[string]int{},
		ItemsByManufacturer: map[string]int{},
		RecentActivity:      []Activity{},
	}

	err := s.db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN COALESCE(status, 'available') = 'available' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'written_off' THEN 1 ELSE 0 END), 0)
		FROM inventory`).
		Scan(&stats.TotalItems, &stats.AvailableItems, &stats.WrittenOffItems)
	if err != nil {
		return stats, fmt.Errorf("dashboard totals: %w", err)
	}

	if err := s.countGroups(`SELECT COALESCE(mt.name, 'Unknown'), COUNT(*)
		FROM inventory i LEFT JOIN material_types mt ON i.material_type_id = mt.id
		GROUP BY mt.name`, stats.ItemsByType); err != nil {
		return stats, fmt.Errorf("dashboard type counts: %w", err)
	}
	if err := s.countGroups(`SELECT COALESCE(man.name, 'Unknown'), COUNT(*)
		FROM inventory i LEFT JOIN manufacturers man ON i.manufacturer_id = man.id
		GROUP BY man.name`, stats.ItemsByManufacturer); err != nil {
		return stats, fmt.Errorf("dashboard manufacturer counts: %w", err)
	}

	rows, err := s.db.Query(`SELECT description, ts FROM (
		SELECT 'Added ' || COALESCE(mt.name, 'Unknown') || ' ' || COALESCE(m.name, 'Unknown') as description,
			COALESCE(i.created_at, i.arrival_date) as ts
		FROM inventory i
		LEFT JOIN material_types mt ON i.material_type_id = mt.id
		LEFT JOIN models m ON i.model_id = m.id
		UNION ALL
		SELECT 'Written off to ' || w.issued_to as description, w.created_at as ts
		FROM write_off_history w
	) ORDER BY ts DESC LIMIT 10`)
	if err != nil {
		return stats, fmt.Errorf("dashboard activity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.Description, &a.Timestamp); err != nil {
			return stats, err
		}
		stats.RecentActivity = append(stats.RecentActivity, a)
	}
	return stats, rows.Err()
}

func (s *Store) countGroups(query string, dest map[string]int) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return err
		}
		dest[name] = count
	}
	return rows.Err()
}

// MonthlyStats buckets arrivals by calendar month for the trailing months
// window (including the current month), oldest first. Months with no
// arrivals are omitted. months <= 0 defaults to 6.
func (s *Store) MonthlyStats(months int) ([]MonthCount, error) {
	if months <= 0 {
		months = 6
	}

	rows, err := s.db.Query(`SELECT strftime('%Y-%m', arrival_date) as month, COUNT(*)
		FROM inventory
		WHERE arrival_date >= date('now', 'start of month', ?)
		GROUP BY month
		ORDER BY month`, fmt.Sprintf("-%d months", months-1))
	if err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}
	defer rows.Close()

	counts := []MonthCount{}
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, mc)
	}
	return counts, rows.Err()
}
