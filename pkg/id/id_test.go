package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Len(t, ids[0], 26)
}

func TestAtEmbedsTime(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	got, err := Time(At(when))
	require.NoError(t, err)
	assert.True(t, when.Equal(got))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
