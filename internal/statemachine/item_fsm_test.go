package statemachine

import (
	"context"
	"testing"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func newItem(status string) *models.InventoryItem {
	return &models.InventoryItem{ID: 1, SerialNumber: "SN-001", Status: status}
}

func TestChangeTo_BetweenEditableStates(t *testing.T) {
	ctx := context.Background()
	editable := []string{
		models.ItemStatusFuncionando,
		models.ItemStatusDefeito,
		models.ItemStatusManutencao,
		models.ItemStatusBackup,
	}

	for _, from := range editable {
		for _, to := range editable {
			item := newItem(from)
			err := NewItemFSM(item).ChangeTo(ctx, to)
			assert.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, item.Status)
		}
	}
}

func TestChangeTo_SameStatusIsNoOp(t *testing.T) {
	item := newItem(models.ItemStatusDefeito)
	err := NewItemFSM(item).ChangeTo(context.Background(), models.ItemStatusDefeito)
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusDefeito, item.Status)
}

func TestChangeTo_DiscardFromEditable(t *testing.T) {
	item := newItem(models.ItemStatusManutencao)
	err := NewItemFSM(item).ChangeTo(context.Background(), models.ItemStatusDescarte)
	assert.NoError(t, err)
	assert.Equal(t, models.ItemStatusDescarte, item.Status)
}

func TestChangeTo_DiscardIsTerminalForDirectEdits(t *testing.T) {
	item := newItem(models.ItemStatusDescarte)
	err := NewItemFSM(item).ChangeTo(context.Background(), models.ItemStatusFuncionando)

	var transitionErr *TransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.ItemStatusDescarte, item.Status)
}

func TestChangeTo_SideChannelStatesUnreachable(t *testing.T) {
	for _, target := range []string{models.ItemStatusEmprestado, models.ItemStatusEmUso} {
		item := newItem(models.ItemStatusFuncionando)
		err := NewItemFSM(item).ChangeTo(context.Background(), target)

		var transitionErr *TransitionError
		assert.ErrorAs(t, err, &transitionErr)
		assert.Contains(t, transitionErr.Reason, "empréstimo/uso")
		assert.Equal(t, models.ItemStatusFuncionando, item.Status)
	}
}

func TestChangeTo_BlockedWhileInCirculation(t *testing.T) {
	for _, from := range []string{models.ItemStatusEmprestado, models.ItemStatusEmUso} {
		item := newItem(from)
		err := NewItemFSM(item).ChangeTo(context.Background(), models.ItemStatusDefeito)

		var transitionErr *TransitionError
		assert.ErrorAs(t, err, &transitionErr)
		assert.Contains(t, transitionErr.Reason, "devolva")
		assert.Equal(t, from, item.Status)
	}
}

func TestLoan_FromLoanableStates(t *testing.T) {
	for _, from := range []string{models.ItemStatusFuncionando, models.ItemStatusBackup} {
		item := newItem(from)
		err := NewItemFSM(item).Loan(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, models.ItemStatusEmprestado, item.Status)
	}
}

func TestLoan_RejectedFromOtherStates(t *testing.T) {
	for _, from := range []string{
		models.ItemStatusDefeito,
		models.ItemStatusManutencao,
		models.ItemStatusDescarte,
		models.ItemStatusEmprestado,
		models.ItemStatusEmUso,
	} {
		item := newItem(from)
		err := NewItemFSM(item).Loan(context.Background())

		var transitionErr *TransitionError
		assert.ErrorAs(t, err, &transitionErr, "loan from %s", from)
		assert.Equal(t, from, item.Status)
	}
}

func TestLoanRoundTrip(t *testing.T) {
	ctx := context.Background()
	item := newItem(models.ItemStatusBackup)

	assert.NoError(t, NewItemFSM(item).Loan(ctx))
	assert.Equal(t, models.ItemStatusEmprestado, item.Status)

	// Return always lands on funcionando, even when loaned from backup
	assert.NoError(t, NewItemFSM(item).LoanReturn(ctx))
	assert.Equal(t, models.ItemStatusFuncionando, item.Status)
}

func TestLoanReturn_RejectedWhenNotLoaned(t *testing.T) {
	item := newItem(models.ItemStatusFuncionando)
	err := NewItemFSM(item).LoanReturn(context.Background())

	var transitionErr *TransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Contains(t, transitionErr.Reason, "não está emprestado")
}

func TestUseRoundTrip(t *testing.T) {
	ctx := context.Background()
	item := newItem(models.ItemStatusFuncionando)

	assert.NoError(t, NewItemFSM(item).Use(ctx))
	assert.Equal(t, models.ItemStatusEmUso, item.Status)

	assert.NoError(t, NewItemFSM(item).UseReturn(ctx))
	assert.Equal(t, models.ItemStatusFuncionando, item.Status)
}

func TestUseReturn_RejectedWhenNotInUse(t *testing.T) {
	item := newItem(models.ItemStatusBackup)
	err := NewItemFSM(item).UseReturn(context.Background())

	var transitionErr *TransitionError
	assert.ErrorAs(t, err, &transitionErr)
	assert.Contains(t, transitionErr.Reason, "não está em uso")
}

func TestCan_ReflectsCurrentState(t *testing.T) {
	m := NewItemFSM(newItem(models.ItemStatusEmprestado))
	assert.True(t, m.Can(EventLoanReturn))
	assert.False(t, m.Can(EventLoan))
	assert.Equal(t, models.ItemStatusEmprestado, m.Current())
}
