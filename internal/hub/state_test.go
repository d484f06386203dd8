package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pantrysync/internal/domain"
)

func TestStateStoreReplaceBumpsSeq(t *testing.T) {
	s := NewStateStore()

	assert.Equal(t, uint64(0), s.Seq())
	seq := s.Replace([]domain.Item{{Name: "Pasta"}})
	assert.Equal(t, uint64(1), seq)
	seq = s.Replace([]domain.Item{{Name: "Couscous"}})
	assert.Equal(t, uint64(2), seq)

	items, cur := s.Snapshot()
	assert.Equal(t, uint64(2), cur)
	require.Len(t, items, 1)
	assert.Equal(t, "Couscous", items[0].Name)
}

func TestStateStoreSnapshotIsACopy(t *testing.T) {
	s := NewStateStore()
	s.Replace([]domain.Item{{Name: "Pasta"}})

	items, _ := s.Snapshot()
	items[0].Name = "mutated"

	fresh, _ := s.Snapshot()
	assert.Equal(t, "Pasta", fresh[0].Name)
}

func TestStateStoreReplaceIfCurrent(t *testing.T) {
	s := NewStateStore()
	seq := s.Replace([]domain.Item{{Name: "Pasta"}})

	ok := s.ReplaceIfCurrent(seq, []domain.Item{{Name: "Pasta", Category: domain.CategoryPasta}})
	assert.True(t, ok)

	// Annotating a version must not advance the sequence number.
	assert.Equal(t, seq, s.Seq())

	items, _ := s.Snapshot()
	assert.Equal(t, domain.CategoryPasta, items[0].Category)
}

func TestStateStoreReplaceIfCurrentSuperseded(t *testing.T) {
	s := NewStateStore()
	stale := s.Replace([]domain.Item{{Name: "Pasta"}})
	s.Replace([]domain.Item{{Name: "Couscous"}})

	ok := s.ReplaceIfCurrent(stale, []domain.Item{{Name: "Pasta", Category: domain.CategoryPasta}})
	assert.False(t, ok)

	items, _ := s.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, "Couscous", items[0].Name)
}

func TestStateStoreEmptyReplace(t *testing.T) {
	s := NewStateStore()
	s.Replace([]domain.Item{{Name: "Pasta"}})
	s.Replace(nil)

	items, _ := s.Snapshot()
	assert.Empty(t, items)
}
