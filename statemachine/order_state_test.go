package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
)

func TestLookup(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		tr, err := Lookup(models.OrderActive, models.OrderCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, tr.PaymentStatus)
		assert.False(t, tr.RestoresStock)
	})

	t.Run("cancel restores stock", func(t *testing.T) {
		tr, err := Lookup(models.OrderActive, models.OrderCancelled)
		require.NoError(t, err)
		assert.True(t, tr.RestoresStock)
		assert.Equal(t, models.PaymentStatus(""), tr.PaymentStatus)
	})

	t.Run("refund", func(t *testing.T) {
		tr, err := Lookup(models.OrderCompleted, models.OrderRefunded)
		require.NoError(t, err)
		assert.True(t, tr.RestoresStock)
		assert.Equal(t, models.PaymentRefunded, tr.PaymentStatus)
	})

	illegal := []struct{ from, to models.OrderStatus }{
		{models.OrderCancelled, models.OrderCancelled},
		{models.OrderCancelled, models.OrderActive},
		{models.OrderCompleted, models.OrderCancelled},
		{models.OrderRefunded, models.OrderCompleted},
		{models.OrderActive, models.OrderRefunded},
		{models.OrderActive, models.OrderActive},
	}
	for _, tc := range illegal {
		_, err := Lookup(tc.from, tc.to)
		assert.Error(t, err, "%s -> %s", tc.from, tc.to)
	}
}

func TestLookupErrorNamesNextStates(t *testing.T) {
	_, err := Lookup(models.OrderActive, models.OrderRefunded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completed, cancelled")

	_, err = Lookup(models.OrderRefunded, models.OrderActive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(models.OrderActive))
	assert.False(t, IsTerminal(models.OrderCompleted))
	assert.True(t, IsTerminal(models.OrderCancelled))
	assert.True(t, IsTerminal(models.OrderRefunded))
}
