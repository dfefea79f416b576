package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPanelIsShown(t *testing.T) {
	p := NewPanel()
	assert.Equal(t, true, p.State().Visible)
	assert.Equal(t, HideLabel, p.State().ButtonLabel)
}

func TestToggle(t *testing.T) {
	p := NewPanel()

	hidden := p.Toggle()
	assert.False(t, hidden.Visible)
	assert.Equal(t, "Show Setting", hidden.ButtonLabel)

	shown := p.Toggle()
	assert.True(t, shown.Visible)
	assert.Equal(t, "Hide Setting", shown.ButtonLabel)
}

func TestToggleTwiceRestoresState(t *testing.T) {
	p := NewPanel()
	before := p.State()
	p.Toggle()
	p.Toggle()
	assert.Equal(t, before, p.State())
}
