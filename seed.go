package zipstock

import "go.uber.org/zap"

var defaultMaterialTypes = []string{
	"Power Supply",
	"Hard Drive",
	"SSD",
	"RAM Module",
	"Motherboard",
	"Processor",
	"Graphics Card",
	"Network Card",
	"RAID Controller",
	"Cooling Fan",
	"Optical Drive",
	"Tape Drive",
	"UPS Battery",
	"Monitor",
	"Keyboard",
	"Mouse",
	"Cable",
	"Switch",
	"Router",
	"Access Point",
	"Printer Cartridge",
	"Server Chassis",
}

var defaultManufacturers = []string{
	"Intel", "AMD", "ASUS", "Gigabyte", "MSI", "ASRock",
	"Samsung", "Kingston", "Crucial", "Corsair", "G.Skill",
	"Western Digital", "Seagate", "Toshiba", "Hitachi",
	"Seasonic", "be quiet!", "Thermaltake", "Cooler Master",
	"HP", "Dell", "Lenovo", "Supermicro", "Fujitsu",
	"Cisco", "TP-Link", "D-Link", "MikroTik", "Ubiquiti",
	"APC", "Eaton", "Synology", "QNAP",
}

// seedDefaults populates the reference catalog with a stock set of material
// types and manufacturers. It only runs against empty tables, so user edits
// (including deletions) are never reintroduced on a later start.
func (s *Store) seedDefaults() {
	s.seedNames("material_types", defaultMaterialTypes)
	s.seedNames("manufacturers", defaultManufacturers)
}

func (s *Store) seedNames(table string, names []string) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		s.log.Warn("seed count failed", zap.String("table", table), zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	s.log.Info("seeding default catalog", zap.String("table", table), zap.Int("entries", len(names)))
	for _, name := range names {
		if _, err := s.db.Exec("INSERT OR IGNORE INTO "+table+" (name) VALUES (?)", name); err != nil {
			s.log.Warn("seed insert failed",
				zap.String("table", table), zap.String("name", name), zap.Error(err))
		}
	}
}
