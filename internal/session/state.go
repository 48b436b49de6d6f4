package session

import (
	"sort"

	"github.com/dfsouza/patrimonio-api/internal/models"
)

// state is the session's local mirror of the rows the actor can see.
// It is only ever touched through the Session operations, which keep
// the pre-mutation value around until the persist attempt settles.
type state struct {
	items      []models.InventoryItem
	categories []models.Category
	sectors    []models.Sector
	loans      []models.Loan
}

func (st *state) findItem(id uint) (int, *models.InventoryItem) {
	for i := range st.items {
		if st.items[i].ID == id {
			return i, &st.items[i]
		}
	}
	return -1, nil
}

func (st *state) findLoan(id uint) (int, *models.Loan) {
	for i := range st.loans {
		if st.loans[i].ID == id {
			return i, &st.loans[i]
		}
	}
	return -1, nil
}

// upsertItem replaces the stored copy or prepends a new one (items are
// shown newest first).
func (st *state) upsertItem(item models.InventoryItem) {
	if i, _ := st.findItem(item.ID); i >= 0 {
		st.items[i] = item
		return
	}
	st.items = append([]models.InventoryItem{item}, st.items...)
}

func (st *state) removeItem(id uint) {
	if i, _ := st.findItem(id); i >= 0 {
		st.items = append(st.items[:i], st.items[i+1:]...)
	}
}

func (st *state) removeCategory(id uint) {
	for i := range st.categories {
		if st.categories[i].ID == id {
			st.categories = append(st.categories[:i], st.categories[i+1:]...)
			return
		}
	}
}

func (st *state) removeSector(id uint) {
	for i := range st.sectors {
		if st.sectors[i].ID == id {
			st.sectors = append(st.sectors[:i], st.sectors[i+1:]...)
			return
		}
	}
}

// insertCategory keeps the by-name ordering the list contract promises
func (st *state) insertCategory(category models.Category) {
	st.categories = append(st.categories, category)
	sort.Slice(st.categories, func(i, j int) bool {
		return st.categories[i].Name < st.categories[j].Name
	})
}

func (st *state) insertSector(sector models.Sector) {
	st.sectors = append(st.sectors, sector)
	sort.Slice(st.sectors, func(i, j int) bool {
		return st.sectors[i].Name < st.sectors[j].Name
	})
}

// snapshots used for rollback. Slices of structs copy by value, so a
// copied slice is a full pre-mutation image of that entity set.

func copyItems(items []models.InventoryItem) []models.InventoryItem {
	out := make([]models.InventoryItem, len(items))
	copy(out, items)
	return out
}

func copyCategories(categories []models.Category) []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)
	return out
}

func copySectors(sectors []models.Sector) []models.Sector {
	out := make([]models.Sector, len(sectors))
	copy(out, sectors)
	return out
}

func copyLoans(loans []models.Loan) []models.Loan {
	out := make([]models.Loan, len(loans))
	copy(out, loans)
	return out
}
