package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "tab cycles agent", key: "tab", want: true},
		{name: "enter does not", key: "enter", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, km.CycleAgent))
		})
	}

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("ctrl+x", km.ClearScope))
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 3)
	assert.Len(t, km.AnswerHelp(), 4)
	assert.Len(t, km.FullHelp(), 3)
}
