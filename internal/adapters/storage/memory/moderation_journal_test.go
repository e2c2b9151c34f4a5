package memory_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/vetra-proxy/internal/adapters/storage/memory"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

func TestModerationJournal_RecentReturnsTail(t *testing.T) {
	j := memory.NewModerationJournal(0)
	for i := range 5 {
		require.NoError(t, j.Record(&domain.BlockedAttempt{Text: fmt.Sprint(i)}))
	}

	got, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].Text)
	assert.Equal(t, "4", got[1].Text)
	assert.False(t, got[1].At.IsZero())

	all, err := j.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestModerationJournal_DropsOldestPastCapacity(t *testing.T) {
	j := memory.NewModerationJournal(3)
	for i := range 5 {
		require.NoError(t, j.Record(&domain.BlockedAttempt{Text: fmt.Sprint(i)}))
	}

	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Text)
}

func TestModerationJournal_NilIsIgnored(t *testing.T) {
	j := memory.NewModerationJournal(0)
	require.NoError(t, j.Record(nil))
	got, err := j.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestModerationJournal_EntriesAreCopied(t *testing.T) {
	j := memory.NewModerationJournal(0)

	event := &domain.BlockedAttempt{Text: "refund please", Phrase: "refund"}
	require.NoError(t, j.Record(event))
	event.Text = "changed by caller"

	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "refund please", got[0].Text)

	got[0].Text = "changed by reader"
	again, err := j.Recent(0)
	require.NoError(t, err)
	assert.Equal(t, "refund please", again[0].Text)
	assert.False(t, again[0].At.IsZero())
}
