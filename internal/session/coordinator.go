package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/statemachine"
	"github.com/dfsouza/patrimonio-api/pkg/logger"
)

// Session coordinates optimistic mutations over a local mirror of the
// actor's visible data. Every mutation runs the same cycle: validate
// first, apply the change locally, persist with retry, then either
// confirm with the server-stamped row or roll the local state back to
// its pre-mutation image.
//
// Mutations serialize against each other; reads only take the read
// lock, so listing stays responsive while a save is retrying.
type Session struct {
	actor  *models.User
	svcs   *services.Services
	policy services.RetryPolicy

	mu    sync.RWMutex // guards st
	mutMu sync.Mutex   // serializes mutations end to end

	st state
}

// New creates a session for the given actor. Call Refresh before the
// first read.
func New(actor *models.User, svcs *services.Services) *Session {
	return &Session{
		actor:  actor,
		svcs:   svcs,
		policy: svcs.SavePolicy,
	}
}

// Actor returns the user this session belongs to
func (s *Session) Actor() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor
}

// setActor swaps in a freshly loaded actor row
func (s *Session) setActor(actor *models.User) {
	s.mu.Lock()
	s.actor = actor
	s.mu.Unlock()
}

// Refresh reloads the full mirror from storage. Everything comes back
// already filtered by the actor's scope.
func (s *Session) Refresh(ctx context.Context) error {
	actor := s.Actor()
	query := repository.NewListQuery()
	query.PerPage = 0

	items, _, err := s.svcs.Inventory.List(ctx, actor, query)
	if err != nil {
		return err
	}
	categories, err := s.svcs.Taxonomy.ListCategories(ctx, actor)
	if err != nil {
		return err
	}
	sectors, err := s.svcs.Taxonomy.ListSectors(ctx, actor)
	if err != nil {
		return err
	}
	loans, _, err := s.svcs.Loan.List(ctx, actor, query)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.st = state{items: items, categories: categories, sectors: sectors, loans: loans}
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the mirrored items
func (s *Session) Items() []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.st.items)
}

// ItemsForCampus filters the mirror to one campus. For a technician
// the mirror already holds a single campus; for an admin this is the
// active-campus view, a pure presentation filter over the same data.
func (s *Session) ItemsForCampus(campusID uint) []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InventoryItem, 0, len(s.st.items))
	for _, item := range s.st.items {
		if item.CampusID == campusID {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns a copy of the mirrored categories
func (s *Session) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCategories(s.st.categories)
}

// Sectors returns a copy of the mirrored sectors
func (s *Session) Sectors() []models.Sector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySectors(s.st.sectors)
}

// Loans returns a copy of the mirrored loans
func (s *Session) Loans() []models.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyLoans(s.st.loans)
}

// Item looks an item up in the mirror
func (s *Session) Item(id uint) (models.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, item := s.st.findItem(id); item != nil {
		return *item, true
	}
	return models.InventoryItem{}, false
}

// SaveItem creates or updates an item through the optimistic cycle.
// The returned item is the server-stamped row.
func (s *Session) SaveItem(ctx context.Context, in *services.ItemInput) (*models.InventoryItem, error) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	actor := s.Actor()

	// Pre-validation: nothing is applied locally until the payload is
	// known to be resolvable and legal.
	if err := s.svcs.Inventory.Validate(ctx, actor, in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	before := copyItems(s.st.items)
	s.applyItemInput(in)
	s.mu.Unlock()

	var saved *models.InventoryItem
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		saved, opErr = s.svcs.Inventory.Save(ctx, actor, in)
		return opErr
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.items = before
		return nil, err
	}
	if in.ID == 0 {
		// The provisional create image carries no id; drop it so the
		// stamped row does not sit next to its own ghost.
		s.st.removeItem(0)
	}
	s.st.upsertItem(*saved)
	return saved, nil
}

// applyItemInput writes the optimistic image of the input into the
// mirror. Callers hold s.mu.
func (s *Session) applyItemInput(in *services.ItemInput) {
	var item models.InventoryItem
	if _, stored := s.st.findItem(in.ID); stored != nil {
		item = *stored
	}
	item.ID = in.ID
	if in.CampusID != 0 {
		item.CampusID = in.CampusID
	}
	if in.CategoryID != 0 {
		item.CategoryID = in.CategoryID
	}
	if in.SectorID != 0 {
		item.SectorID = in.SectorID
	}
	item.Room = in.Room
	item.Brand = in.Brand
	item.SerialNumber = in.SerialNumber
	item.PatrimonyTag = in.PatrimonyTag
	if in.Status != "" {
		item.Status = in.Status
	}
	item.ResponsibleID = in.ResponsibleID
	item.ResponsibleName = in.ResponsibleName
	item.Observation = in.Observation
	item.IsFixed = in.IsFixed

	if in.ID == 0 {
		// Provisional create: no id yet, the confirm step replaces this
		// image with the stamped row.
		s.st.items = append([]models.InventoryItem{item}, s.st.items...)
		return
	}
	s.st.upsertItem(item)
}

// ChangeItemStatus applies a direct status edit optimistically
func (s *Session) ChangeItemStatus(ctx context.Context, id uint, newStatus string) (*models.InventoryItem, error) {
	actor := s.Actor()
	return s.mutateItem(ctx, id,
		func(item models.InventoryItem) error {
			return statemachine.NewItemFSM(&item).ChangeTo(ctx, newStatus)
		},
		func(item *models.InventoryItem) { item.Status = newStatus },
		func(ctx context.Context) (*models.InventoryItem, error) {
			return s.svcs.Inventory.ChangeStatus(ctx, actor, id, newStatus)
		})
}

// RegisterItemUse places an item in local use
func (s *Session) RegisterItemUse(ctx context.Context, id uint, usedBy string) (*models.InventoryItem, error) {
	actor := s.Actor()
	return s.mutateItem(ctx, id,
		func(item models.InventoryItem) error {
			if item.IsFixed {
				return &services.ValidationError{Msg: "item fixo não pode ser registrado em uso"}
			}
			return statemachine.NewItemFSM(&item).Use(ctx)
		},
		func(item *models.InventoryItem) { item.Status = models.ItemStatusEmUso },
		func(ctx context.Context) (*models.InventoryItem, error) {
			return s.svcs.Inventory.RegisterUse(ctx, actor, id, usedBy)
		})
}

// ReturnItemFromUse brings an item back from local use
func (s *Session) ReturnItemFromUse(ctx context.Context, id uint) (*models.InventoryItem, error) {
	actor := s.Actor()
	return s.mutateItem(ctx, id,
		func(item models.InventoryItem) error {
			return statemachine.NewItemFSM(&item).UseReturn(ctx)
		},
		func(item *models.InventoryItem) { item.Status = models.ItemStatusFuncionando },
		func(ctx context.Context) (*models.InventoryItem, error) {
			return s.svcs.Inventory.ReturnFromUse(ctx, actor, id)
		})
}

// mutateItem is the shared optimistic cycle for single-item mutations.
// check runs against a copy of the mirrored row first; a rejection is
// synchronous and touches neither the mirror nor storage. Only a
// legal mutation is applied locally, persisted with retry, then
// confirmed or rolled back.
func (s *Session) mutateItem(ctx context.Context, id uint, check func(models.InventoryItem) error, apply func(*models.InventoryItem), persist func(context.Context) (*models.InventoryItem, error)) (*models.InventoryItem, error) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	s.mu.Lock()
	idx, stored := s.st.findItem(id)
	if stored == nil {
		s.mu.Unlock()
		return nil, services.ErrNotFound
	}
	if err := check(*stored); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	before := *stored
	apply(&s.st.items[idx])
	s.mu.Unlock()

	var saved *models.InventoryItem
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		saved, opErr = persist(ctx)
		return opErr
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if i, _ := s.st.findItem(id); i >= 0 {
			s.st.items[i] = before
		}
		return nil, err
	}
	s.st.upsertItem(*saved)
	return saved, nil
}

// DeleteItem discards or permanently removes an item
func (s *Session) DeleteItem(ctx context.Context, id uint, permanent bool) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	s.mu.Lock()
	idx, stored := s.st.findItem(id)
	if stored == nil {
		s.mu.Unlock()
		return services.ErrNotFound
	}
	if permanent {
		if stored.InCirculation() {
			s.mu.Unlock()
			return &services.DependencyExistsError{Kind: "empréstimo ou uso ativo", Count: 1}
		}
	} else {
		check := *stored
		if err := statemachine.NewItemFSM(&check).ChangeTo(ctx, models.ItemStatusDescarte); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	before := *stored
	if permanent {
		s.st.removeItem(id)
	} else {
		s.st.items[idx].Status = models.ItemStatusDescarte
	}
	s.mu.Unlock()

	actor := s.Actor()
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.svcs.Inventory.Delete(ctx, actor, id, permanent)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.upsertItem(before)
		return err
	}
	return nil
}

// CreateLoan loans items out and mirrors both the new loan rows and
// the status flips.
func (s *Session) CreateLoan(ctx context.Context, itemIDs []uint, borrower services.BorrowerInput) ([]models.Loan, error) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	if len(itemIDs) == 0 {
		return nil, &services.ValidationError{Msg: "selecione ao menos um item para emprestar"}
	}
	if borrower.Name == "" {
		return nil, &services.ValidationError{Msg: "nome do solicitante é obrigatório"}
	}

	s.mu.Lock()
	// Every item in the batch must be loanable before any flip is
	// mirrored; one bad item rejects the request without side effects.
	for _, id := range itemIDs {
		_, stored := s.st.findItem(id)
		if stored == nil {
			s.mu.Unlock()
			return nil, services.ErrNotFound
		}
		if stored.IsFixed {
			s.mu.Unlock()
			return nil, &services.ValidationError{Msg: fmt.Sprintf("item fixo %s não pode ser emprestado", stored.SerialNumber)}
		}
		if !stored.MayLoan() {
			s.mu.Unlock()
			return nil, &statemachine.TransitionError{From: stored.Status, To: models.ItemStatusEmprestado}
		}
	}
	beforeItems := copyItems(s.st.items)
	for _, id := range itemIDs {
		if i, _ := s.st.findItem(id); i >= 0 {
			s.st.items[i].Status = models.ItemStatusEmprestado
		}
	}
	s.mu.Unlock()

	var loans []models.Loan
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		loans, opErr = s.svcs.Loan.Create(ctx, s.Actor(), itemIDs, borrower)
		return opErr
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// A batch can fail midway; the mirror rolls back wholesale and a
		// refresh picks up whatever did land.
		s.st.items = beforeItems
		if len(loans) > 0 {
			logger.Warn("loan batch partially applied, mirror rolled back pending refresh",
				"loans_created", len(loans), "requested", len(itemIDs))
		}
		return loans, err
	}

	for i := range loans {
		s.st.loans = append([]models.Loan{loans[i]}, s.st.loans...)
		if loans[i].ItemID != nil {
			if j, _ := s.st.findItem(*loans[i].ItemID); j >= 0 {
				s.st.items[j].Status = models.ItemStatusEmprestado
			}
		}
	}
	return loans, nil
}

// ReturnLoan closes a loan and flips the item back
func (s *Session) ReturnLoan(ctx context.Context, loanID uint) (*models.Loan, error) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	s.mu.Lock()
	loanIdx, stored := s.st.findLoan(loanID)
	if stored == nil {
		s.mu.Unlock()
		return nil, services.ErrNotFound
	}
	if stored.IsReturned() {
		s.mu.Unlock()
		return nil, &services.ValidationError{Msg: "este empréstimo já foi devolvido"}
	}
	beforeLoan := *stored
	beforeItems := copyItems(s.st.items)

	s.st.loans[loanIdx].Status = models.LoanStatusReturned
	if stored.ItemID != nil {
		if i, _ := s.st.findItem(*stored.ItemID); i >= 0 {
			s.st.items[i].Status = models.ItemStatusFuncionando
		}
	}
	s.mu.Unlock()

	var returned *models.Loan
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		returned, opErr = s.svcs.Loan.Return(ctx, s.Actor(), loanID)
		return opErr
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.st.loans[loanIdx] = beforeLoan
		s.st.items = beforeItems
		return nil, err
	}
	s.st.loans[loanIdx] = *returned
	return returned, nil
}

// AddCategory registers a category and mirrors it on success. No
// optimistic insert here: the row has no identity until the server
// assigns one, so the mirror only moves on confirmation.
func (s *Session) AddCategory(ctx context.Context, name string, campusID uint) (*models.Category, error) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	var created *models.Category
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		created, opErr = s.svcs.Taxonomy.AddCategory(ctx, s.Actor(), name, campusID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.st.insertCategory(*created)
	s.mu.Unlock()
	return created, nil
}

// AddSector registers a sector and mirrors it on success
func (s *Session) AddSector(ctx context.Context, name string, campusID uint) (*models.Sector, error) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	var created *models.Sector
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		created, opErr = s.svcs.Taxonomy.AddSector(ctx, s.Actor(), name, campusID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.st.insertSector(*created)
	s.mu.Unlock()
	return created, nil
}

// DeleteCategory removes a category optimistically
func (s *Session) DeleteCategory(ctx context.Context, id uint) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	s.mu.Lock()
	before := copyCategories(s.st.categories)
	s.st.removeCategory(id)
	s.mu.Unlock()

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.svcs.Taxonomy.DeleteCategory(ctx, s.Actor(), id)
	})
	if err != nil {
		s.mu.Lock()
		s.st.categories = before
		s.mu.Unlock()
		return err
	}
	return nil
}

// DeleteSector removes a sector optimistically
func (s *Session) DeleteSector(ctx context.Context, id uint) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	s.mu.Lock()
	before := copySectors(s.st.sectors)
	s.st.removeSector(id)
	s.mu.Unlock()

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.svcs.Taxonomy.DeleteSector(ctx, s.Actor(), id)
	})
	if err != nil {
		s.mu.Lock()
		s.st.sectors = before
		s.mu.Unlock()
		return err
	}
	return nil
}
