package zipstock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGet(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add(testFields("SN-100"))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	item, err := s.ItemByID(id)
	require.NoError(t, err)
	assert.Equal(t, "SSD", item.MaterialType)
	assert.Equal(t, "Samsung", item.Manufacturer)
	assert.Equal(t, "870 EVO", item.Model)
	assert.Equal(t, "MZ-77E1T0", item.PartNumber)
	assert.Equal(t, "SN-100", item.SerialNumber)
	assert.Equal(t, "1TB", item.Capacity)
	assert.Equal(t, "SATA III", item.InterfaceType)
	assert.Equal(t, "2025-03-15", item.ArrivalDate)
	assert.Equal(t, "INV-1042", item.InvoiceNumber)
	assert.Equal(t, StatusAvailable, item.Status)
	assert.NotEmpty(t, item.CreatedAt)
	assert.NotEmpty(t, item.UpdatedAt)
}

func TestAddValidation(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Add(ItemFields{})
	require.True(t, IsValidation(err))

	f := testFields("SN-101")
	f.ArrivalDate = "15.03.2025"
	_, err = s.Add(f)
	require.True(t, IsValidation(err))
}

func TestDuplicateSerialRejected(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Add(testFields("SN-DUP"))
	require.NoError(t, err)
	_, err = s.Add(testFields("SN-DUP"))
	require.ErrorIs(t, err, ErrDuplicateSerial)

	// Empty serials never collide.
	_, err = s.Add(testFields(""))
	require.NoError(t, err)
	_, err = s.Add(testFields(""))
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.Add(testFields("SN-200"))
	require.NoError(t, err)

	f := testFields("SN-200")
	f.Notes = "reassigned to rack 7"
	f.Capacity = "2TB"
	require.NoError(t, s.Update(id, f))

	item, err := s.ItemByID(id)
	require.NoError(t, err)
	assert.Equal(t, "reassigned to rack 7", item.Notes)
	assert.Equal(t, "2TB", item.Capacity)
	// Keeping its own serial is not a collision.
	assert.Equal(t, "SN-200", item.SerialNumber)
}

func TestUpdateSerialCollision(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Add(testFields("SN-A"))
	require.NoError(t, err)
	id, err := s.Add(testFields("SN-B"))
	require.NoError(t, err)

	f := testFields("SN-A")
	require.ErrorIs(t, s.Update(id, f), ErrDuplicateSerial)
}

func TestUpdateUnknownItem(t *testing.T) {
	s := setupTestStore(t)
	require.ErrorIs(t, s.Update(9999, testFields("SN-X")), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.Add(testFields("SN-300"))
	require.NoError(t, err)
	require.NoError(t, s.WriteOff(id, "I. Sidorov", "", ""))

	require.NoError(t, s.Delete(id))
	_, err = s.ItemByID(id)
	require.ErrorIs(t, err, ErrNotFound)

	// History rows go with the item.
	records, err := s.History(id)
	require.NoError(t, err)
	require.Empty(t, records)

	require.ErrorIs(t, s.Delete(id), ErrNotFound)
}

func TestItemsOrderedByArrival(t *testing.T) {
	s := setupTestStore(t)

	f := testFields("SN-OLD")
	f.ArrivalDate = "2024-01-10"
	oldID, err := s.Add(f)
	require.NoError(t, err)

	f = testFields("SN-NEW")
	f.ArrivalDate = "2025-06-01"
	newID, err := s.Add(f)
	require.NoError(t, err)

	// Same arrival date: higher id first.
	f = testFields("SN-NEW2")
	f.ArrivalDate = "2025-06-01"
	new2ID, err := s.Add(f)
	require.NoError(t, err)

	items, err := s.Items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, new2ID, items[0].ID)
	assert.Equal(t, newID, items[1].ID)
	assert.Equal(t, oldID, items[2].ID)
}

func TestItemExists(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.Add(testFields("SN-400"))
	require.NoError(t, err)

	ok, err := s.ItemExists(id)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.ItemExists(9999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestItemsByIDs(t *testing.T) {
	s := setupTestStore(t)
	id1, err := s.Add(testFields("SN-L1"))
	require.NoError(t, err)
	_, err = s.Add(testFields("SN-L2"))
	require.NoError(t, err)
	id3, err := s.Add(testFields("SN-L3"))
	require.NoError(t, err)

	items, err := s.ItemsByIDs([]int64{id1, id3, 9999})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = s.ItemsByIDs(nil)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSearch(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Add(testFields("SN-ALPHA"))
	require.NoError(t, err)

	f := ItemFields{
		MaterialType: "Hard Drive",
		Manufacturer: "Seagate",
		Model:        "Exos X18",
		SerialNumber: "SN-BETA",
		Notes:        "warranty until 2027",
		ArrivalDate:  "2025-02-20",
	}
	_, err = s.Add(f)
	require.NoError(t, err)

	// By serial substring.
	items, err := s.Search("BETA")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SN-BETA", items[0].SerialNumber)

	// By manufacturer name.
	items, err = s.Search("Seagate")
	require.NoError(t, err)
	require.Len(t, items, 1)

	// By notes.
	items, err = s.Search("warranty")
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Empty text returns everything.
	items, err = s.Search("  ")
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = s.Search("no such thing")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestFilter(t *testing.T) {
	s := setupTestStore(t)

	ssdID, err := s.Add(testFields("SN-F1"))
	require.NoError(t, err)

	f := ItemFields{
		MaterialType: "Hard Drive",
		Manufacturer: "Seagate",
		Model:        "Exos X18",
		PartNumber:   "ST18000NM000J",
		SerialNumber: "SN-F2",
		ArrivalDate:  "2024-08-01",
	}
	hddID, err := s.Add(f)
	require.NoError(t, err)

	// No criteria behaves like Items.
	items, err := s.Filter(FilterParams{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = s.Filter(FilterParams{MaterialType: "Hard Drive"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, hddID, items[0].ID)

	items, err = s.Filter(FilterParams{PartNumber: "18000"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = s.Filter(FilterParams{DateFrom: "2025-01-01", DateTo: "2025-12-31"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ssdID, items[0].ID)

	// Inclusive bounds.
	items, err = s.Filter(FilterParams{DateFrom: "2024-08-01", DateTo: "2025-03-15"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, s.WriteOff(hddID, "A. Ivanov", "", ""))

	items, err = s.Filter(FilterParams{Status: StatusWrittenOff})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, hddID, items[0].ID)

	items, err = s.Filter(FilterParams{Status: StatusAvailable})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ssdID, items[0].ID)

	// "all" disables the status criterion.
	items, err = s.Filter(FilterParams{Status: "all"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = s.Filter(FilterParams{Manufacturer: "Seagate", Status: StatusWrittenOff})
	require.NoError(t, err)
	require.Len(t, items, 1)
}
