package resultlog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogAccumulatesAndCounts(t *testing.T) {
	l := New()
	l.Info("note-1", "resolved via crossref")
	l.Warn("note-2", "ibid without precedent", fmt.Errorf("note 2: %w", ErrIbidWithoutPrecedent))
	l.Error("note-3", "resolution miss", fmt.Errorf("note 3: %w", ErrResolutionMiss))

	assert.Len(t, l.Entries(), 3)
	assert.Equal(t, 1, l.ErrorCount())
	assert.True(t, l.HasErrors())
	assert.True(t, errors.Is(l.Entries()[1].Err, ErrIbidWithoutPrecedent))
	assert.True(t, errors.Is(l.Entries()[2].Err, ErrResolutionMiss))
}

func TestEmptyLogHasNoErrors(t *testing.T) {
	l := New()
	assert.False(t, l.HasErrors())
	assert.Equal(t, 0, l.ErrorCount())
	assert.Empty(t, l.Messages())
}
