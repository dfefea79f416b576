// Package settings holds the show/hide state of the settings panel.
package settings

import "github.com/menta2k/image-annotator/pkg/types"

// Button labels for the toggle
const (
	ShowLabel = "Show Setting"
	HideLabel = "Hide Setting"
)

// Panel is a two-state flip-flop, shown or hidden
type Panel struct {
	visible bool
}

// NewPanel returns a panel in the shown state
func NewPanel() *Panel {
	return &Panel{visible: true}
}

// Toggle flips the panel and returns the resulting visibility and button label
func (p *Panel) Toggle() types.PanelUpdate {
	p.visible = !p.visible
	return p.State()
}

// State returns the current visibility and button label
func (p *Panel) State() types.PanelUpdate {
	if p.visible {
		return types.PanelUpdate{Visible: true, ButtonLabel: HideLabel}
	}
	return types.PanelUpdate{Visible: false, ButtonLabel: ShowLabel}
}
