package studio

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(i int) Entry {
	return Entry{
		ResultReference: fmt.Sprintf("https://img.example/%d.png", i),
		SourceText:      fmt.Sprintf("prompt %d", i),
		Timestamp:       time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC),
	}
}

func TestHistoryAppend_EvictsOldestFirst(t *testing.T) {
	var h History
	for i := 1; i <= 6; i++ {
		h = h.Append(entry(i), 5)
	}
	require.Len(t, h, 5)
	for i, e := range h {
		assert.Equal(t, entry(i+2), e, "position %d", i)
	}
}

func TestHistoryAppend_DoesNotMutateReceiver(t *testing.T) {
	var h History
	for i := 1; i <= 5; i++ {
		h = h.Append(entry(i), 5)
	}
	snapshot := append(History(nil), h...)

	next := h.Append(entry(6), 5)
	assert.Equal(t, snapshot, h)
	assert.Equal(t, entry(6), next[4])
	assert.Equal(t, entry(2), next[0])
}

func TestHistoryAppend_NoDedupAndDefaultLimit(t *testing.T) {
	var h History
	for i := 0; i < 7; i++ {
		h = h.Append(entry(1), 0)
	}
	assert.Len(t, h, DefaultHistoryLimit)
}

func TestHistoryAppend_LimitOne(t *testing.T) {
	h := History{entry(1), entry(2)}.Append(entry(3), 1)
	assert.Equal(t, History{entry(3)}, h)
}

func TestHistoryLast(t *testing.T) {
	h := History{entry(1), entry(2), entry(3)}
	assert.Equal(t, History{entry(2), entry(3)}, h.Last(2))
	assert.Equal(t, h, h.Last(0))
	assert.Equal(t, h, h.Last(10))
	assert.Empty(t, History(nil).Last(3))
}

func TestNewState(t *testing.T) {
	st := NewState()
	assert.Equal(t, ScreenAuth, st.Screen)
	assert.False(t, st.Authenticated)
	assert.Empty(t, st.History)
}
