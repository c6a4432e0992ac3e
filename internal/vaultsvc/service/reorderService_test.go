package service

import (
	"context"
	"math"
	"testing"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner    = int64(1)
	stranger = int64(2)
	binderID = int64(10)
)

func TestReorderAppliesWholeBatch(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, false)
	a := fs.seedCard(binderID, 1, 0)
	b := fs.seedCard(binderID, 1, 1)
	events := &recordingPublisher{}

	svc := NewReorderService(fs, events)
	err := svc.Reorder(context.Background(), owner, binderID, []models.Move{
		{BinderCardID: a, Page: 2, Slot: 5},
		{BinderCardID: b, Page: 1, Slot: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Placement{Page: 2, Slot: 5}, fs.placementOf(a))
	assert.Equal(t, models.Placement{Page: 1, Slot: 0}, fs.placementOf(b))
	assert.Equal(t, []string{comm.TypeReordered}, events.types())
}

func TestReorderSwapWithinBatch(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, false)
	a := fs.seedCard(binderID, 1, 0)
	b := fs.seedCard(binderID, 1, 1)

	svc := NewReorderService(fs, nil)
	err := svc.Reorder(context.Background(), owner, binderID, []models.Move{
		{BinderCardID: a, Page: 1, Slot: 1},
		{BinderCardID: b, Page: 1, Slot: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Placement{Page: 1, Slot: 1}, fs.placementOf(a))
	assert.Equal(t, models.Placement{Page: 1, Slot: 0}, fs.placementOf(b))
}

func TestReorderRollsBackOnStorageFailure(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, false)
	a := fs.seedCard(binderID, 1, 0)
	b := fs.seedCard(binderID, 1, 1)
	c := fs.seedCard(binderID, 1, 2)
	fs.failMoveOf = c
	events := &recordingPublisher{}

	svc := NewReorderService(fs, events)
	err := svc.Reorder(context.Background(), owner, binderID, []models.Move{
		{BinderCardID: a, Page: 3, Slot: 0},
		{BinderCardID: b, Page: 3, Slot: 1},
		{BinderCardID: c, Page: 3, Slot: 2},
	})

	var txErr *models.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "reorder", txErr.Op)
	assert.ErrorIs(t, err, errStorage)

	assert.Equal(t, models.Placement{Page: 1, Slot: 0}, fs.placementOf(a))
	assert.Equal(t, models.Placement{Page: 1, Slot: 1}, fs.placementOf(b))
	assert.Equal(t, models.Placement{Page: 1, Slot: 2}, fs.placementOf(c))
	assert.Empty(t, events.types())
}

func TestReorderCardOutsideBinder(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, false)
	fs.addBinder(binderID+1, owner, false)
	a := fs.seedCard(binderID, 1, 0)
	foreign := fs.seedCard(binderID+1, 1, 0)

	svc := NewReorderService(fs, nil)
	err := svc.Reorder(context.Background(), owner, binderID, []models.Move{
		{BinderCardID: a, Page: 1, Slot: 4},
		{BinderCardID: foreign, Page: 1, Slot: 5},
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, models.Placement{Page: 1, Slot: 0}, fs.placementOf(a))
}

func TestReorderTargetHeldOutsideBatch(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, false)
	a := fs.seedCard(binderID, 1, 0)
	fs.seedCard(binderID, 1, 1)

	svc := NewReorderService(fs, nil)
	err := svc.Reorder(context.Background(), owner, binderID, []models.Move{
		{BinderCardID: a, Page: 1, Slot: 1},
	})
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, models.Placement{Page: 1, Slot: 0}, fs.placementOf(a))
}

func TestReorderNotOwner(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, true)
	a := fs.seedCard(binderID, 1, 0)

	svc := NewReorderService(fs, nil)
	err := svc.Reorder(context.Background(), stranger, binderID, []models.Move{
		{BinderCardID: a, Page: 2, Slot: 0},
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, models.Placement{Page: 1, Slot: 0}, fs.placementOf(a))
}

func TestReorderValidationSkipsStorage(t *testing.T) {
	fs := newFakeBinderStore()
	fs.addBinder(binderID, owner, false)

	svc := NewReorderService(fs, nil)
	err := svc.Reorder(context.Background(), owner, binderID, nil)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, fs.txCount)
}

func TestValidateMoves(t *testing.T) {
	big := make([]models.Move, MaxReorderBatch+1)
	for i := range big {
		big[i] = models.Move{BinderCardID: int64(i + 1), Page: i/models.SlotsPerPage + 1, Slot: i % models.SlotsPerPage}
	}

	tests := []struct {
		name  string
		moves []models.Move
		field string
	}{
		{"empty", []models.Move{}, "cards"},
		{"too many", big, "cards"},
		{"missing id", []models.Move{{Page: 1, Slot: 0}}, "cards[0]"},
		{"page zero", []models.Move{{BinderCardID: 1, Page: 0, Slot: 0}}, "cards[0]"},
		{"slot nine", []models.Move{{BinderCardID: 1, Page: 1, Slot: 9}}, "cards[0]"},
		{"negative slot", []models.Move{{BinderCardID: 1, Page: 1, Slot: -1}}, "cards[0]"},
		{"page beyond int4", []models.Move{{BinderCardID: 1, Page: math.MaxInt32 + 1, Slot: 0}}, "cards[0]"},
		{"duplicate card", []models.Move{
			{BinderCardID: 1, Page: 1, Slot: 0},
			{BinderCardID: 1, Page: 1, Slot: 1},
		}, "cards[1]"},
		{"duplicate cell", []models.Move{
			{BinderCardID: 1, Page: 2, Slot: 3},
			{BinderCardID: 2, Page: 2, Slot: 3},
		}, "cards[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMoves(tt.moves)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.NoError(t, ValidateMoves(big[:MaxReorderBatch]))
	assert.NoError(t, ValidateMoves([]models.Move{{BinderCardID: 1, Page: MaxPage, Slot: 8}}))
}
