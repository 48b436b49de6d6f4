package statemachine

import (
	"context"
	"fmt"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/looplab/fsm"
)

// TransitionError reports an illegal status transition. The stored
// status is left untouched when it is returned.
type TransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transição de status inválida: %s → %s (%s)", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("transição de status inválida: %s → %s", e.From, e.To)
}

// Event names. Direct status edits use the to_* events; the loan/use
// side channel has its own events so emprestado/emuso are unreachable
// by a plain status change.
const (
	eventToFuncionando = "to_funcionando"
	eventToDefeito     = "to_defeito"
	eventToManutencao  = "to_manutencao"
	eventToBackup      = "to_backup"
	eventDiscard       = "discard"
	EventLoan          = "loan"
	EventLoanReturn    = "loan_return"
	EventUse           = "use"
	EventUseReturn     = "use_return"
)

// directEvents maps a target status to its direct-change event
var directEvents = map[string]string{
	models.ItemStatusFuncionando: eventToFuncionando,
	models.ItemStatusDefeito:     eventToDefeito,
	models.ItemStatusManutencao:  eventToManutencao,
	models.ItemStatusBackup:      eventToBackup,
	models.ItemStatusDescarte:    eventDiscard,
}

// ItemFSM wraps an inventory item with its status state machine
type ItemFSM struct {
	item *models.InventoryItem
	fsm  *fsm.FSM
}

// NewItemFSM creates the state machine seeded with the item's current status
func NewItemFSM(item *models.InventoryItem) *ItemFSM {
	// Direct edits move freely between the workshop states; descarte is
	// reachable from all of them but is itself terminal for direct edits.
	editable := []string{
		models.ItemStatusFuncionando,
		models.ItemStatusDefeito,
		models.ItemStatusManutencao,
		models.ItemStatusBackup,
	}
	loanable := []string{models.ItemStatusFuncionando, models.ItemStatusBackup}

	f := fsm.NewFSM(
		item.Status,
		fsm.Events{
			{Name: eventToFuncionando, Src: editable, Dst: models.ItemStatusFuncionando},
			{Name: eventToDefeito, Src: editable, Dst: models.ItemStatusDefeito},
			{Name: eventToManutencao, Src: editable, Dst: models.ItemStatusManutencao},
			{Name: eventToBackup, Src: editable, Dst: models.ItemStatusBackup},
			{Name: eventDiscard, Src: editable, Dst: models.ItemStatusDescarte},

			{Name: EventLoan, Src: loanable, Dst: models.ItemStatusEmprestado},
			{Name: EventLoanReturn, Src: []string{models.ItemStatusEmprestado}, Dst: models.ItemStatusFuncionando},
			{Name: EventUse, Src: loanable, Dst: models.ItemStatusEmUso},
			{Name: EventUseReturn, Src: []string{models.ItemStatusEmUso}, Dst: models.ItemStatusFuncionando},
		},
		fsm.Callbacks{},
	)

	return &ItemFSM{item: item, fsm: f}
}

// ChangeTo performs a direct status edit. Loan/use states are never a
// legal target here; leaving them requires the return operations.
func (m *ItemFSM) ChangeTo(ctx context.Context, status string) error {
	if status == m.item.Status {
		// Saving a form without touching the status is a no-op
		return nil
	}

	event, ok := directEvents[status]
	if !ok {
		return &TransitionError{From: m.item.Status, To: status, Reason: "status só alcançável pela operação de empréstimo/uso"}
	}

	if m.item.InCirculation() {
		return &TransitionError{From: m.item.Status, To: status, Reason: "devolva o empréstimo/uso antes de alterar o status"}
	}

	if err := m.fsm.Event(ctx, event); err != nil {
		return &TransitionError{From: m.item.Status, To: status}
	}

	m.item.Status = m.fsm.Current()
	return nil
}

// Loan transitions the item to emprestado via the loan operation
func (m *ItemFSM) Loan(ctx context.Context) error {
	if err := m.fsm.Event(ctx, EventLoan); err != nil {
		return &TransitionError{From: m.item.Status, To: models.ItemStatusEmprestado}
	}
	m.item.Status = m.fsm.Current()
	return nil
}

// LoanReturn transitions the item back to funcionando on loan return
func (m *ItemFSM) LoanReturn(ctx context.Context) error {
	if err := m.fsm.Event(ctx, EventLoanReturn); err != nil {
		return &TransitionError{From: m.item.Status, To: models.ItemStatusFuncionando, Reason: "item não está emprestado"}
	}
	m.item.Status = m.fsm.Current()
	return nil
}

// Use transitions the item to emuso via the register-local-use operation
func (m *ItemFSM) Use(ctx context.Context) error {
	if err := m.fsm.Event(ctx, EventUse); err != nil {
		return &TransitionError{From: m.item.Status, To: models.ItemStatusEmUso}
	}
	m.item.Status = m.fsm.Current()
	return nil
}

// UseReturn transitions the item back to funcionando on return from use
func (m *ItemFSM) UseReturn(ctx context.Context) error {
	if err := m.fsm.Event(ctx, EventUseReturn); err != nil {
		return &TransitionError{From: m.item.Status, To: models.ItemStatusFuncionando, Reason: "item não está em uso"}
	}
	m.item.Status = m.fsm.Current()
	return nil
}

// Current returns the current state
func (m *ItemFSM) Current() string {
	return m.fsm.Current()
}

// Can checks if an event is possible from the current state
func (m *ItemFSM) Can(event string) bool {
	return m.fsm.Can(event)
}
