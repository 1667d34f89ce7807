// ABOUTME: Tests for procurement data models
// ABOUTME: Covers the PO transition chain, vocabulary parsing and metadata storage
package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
)

func TestNextPOStatus(t *testing.T) {
	tests := []struct {
		current POStatus
		want    POStatus
		ok      bool
	}{
		{POApprovedByClient, POCreated, true},
		{POCreated, POPaymentPending, true},
		{POPaymentPending, POPaymentReceived, true},
		{POPaymentReceived, POSupplierConfirmed, true},
		{POSupplierConfirmed, POInTransit, true},
		{POInTransit, PODelivered, true},
		{PODelivered, POClosed, true},
		{POClosed, "", false},
		{POCancelled, "", false},
		{POStatus("bogus"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			next, ok := NextPOStatus(tt.current)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestPOStatusChainIsLinear(t *testing.T) {
	chain := POStatusChain()
	require.Len(t, chain, 8)
	assert.Equal(t, POApprovedByClient, chain[0])
	assert.Equal(t, POClosed, chain[len(chain)-1])

	for i := 0; i < len(chain)-1; i++ {
		next, ok := NextPOStatus(chain[i])
		require.True(t, ok)
		assert.Equal(t, chain[i+1], next)
		assert.Equal(t, i, chain[i].ChainIndex())
	}

	assert.Equal(t, -1, POCancelled.ChainIndex())
	assert.True(t, POCancelled.Valid())
	assert.True(t, POCancelled.Terminal())
	assert.True(t, POClosed.Terminal())
	assert.False(t, PODelivered.Terminal())
}

func TestPOStatusChainReturnsCopy(t *testing.T) {
	chain := POStatusChain()
	chain[0] = POCancelled
	assert.Equal(t, POApprovedByClient, POStatusChain()[0])
}

func TestVocabularySizes(t *testing.T) {
	assert.Len(t, requestStatuses, 14)
	assert.Len(t, PipelineStages(), 8)
	assert.Len(t, paymentStatuses, 5)
	assert.Len(t, requestSources, 6)
}

func TestParsePipelineStage(t *testing.T) {
	stage, err := ParsePipelineStage("quoting")
	require.NoError(t, err)
	assert.Equal(t, StageQuoting, stage)

	_, err = ParsePipelineStage("")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))

	_, err = ParsePipelineStage("shipping")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestTerminalStages(t *testing.T) {
	for _, s := range PipelineStages() {
		want := s == StageCompleted || s == StageLost
		assert.Equal(t, want, s.Terminal(), string(s))
	}
}

func TestParseUrgencyDefaultsToNormal(t *testing.T) {
	u, err := ParseUrgency("")
	require.NoError(t, err)
	assert.Equal(t, UrgencyNormal, u)

	_, err = ParseUrgency("asap")
	assert.Error(t, err)
}

func TestMetadataValueAndScan(t *testing.T) {
	m := Metadata{"carrier": "DHL", "tracking": "123", "pieces": float64(3)}
	v, err := m.Value()
	require.NoError(t, err)

	var back Metadata
	require.NoError(t, back.Scan(v))
	assert.Equal(t, m, back)

	var empty Metadata
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, back.Scan(nil))
	assert.Nil(t, back)

	assert.Error(t, back.Scan(42))
}

func TestQuoteExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Quote{ValidUntil: &past}).Expired(now))
	assert.False(t, (&Quote{ValidUntil: &future}).Expired(now))
	assert.False(t, (&Quote{}).Expired(now))
}

func TestQuoteItemLineTotal(t *testing.T) {
	item := QuoteItem{Quantity: 12, UnitPrice: 250}
	assert.Equal(t, int64(3000), item.LineTotal())
}
