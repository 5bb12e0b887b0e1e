package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsEnabled(ModelScoring), "unknown flags are disabled")

	m.Register(ModelScoring, true, "use prediction oracle")
	assert.True(t, m.IsEnabled(ModelScoring))

	assert.True(t, m.Set(ModelScoring, false))
	assert.False(t, m.IsEnabled(ModelScoring))
	assert.False(t, m.Set("missing", true))

	m.Register("a_flag", true, "")
	all := m.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "a_flag", all[0].Name)

	var nilManager *Manager
	assert.True(t, nilManager.IsEnabled(ModelScoring))
}
