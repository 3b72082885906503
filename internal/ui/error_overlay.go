package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// ErrorDialogModel represents the error dialog overlay foreground
type ErrorDialogModel struct {
	err    error
	width  int
	height int
}

// RetryRequested is sent when the user asks to resend the failed question
type RetryRequested struct{}

// ErrorDismissed is sent when the dialog is closed without retrying
type ErrorDismissed struct{}

var (
	retryKey   = key.NewBinding(key.WithKeys("r"))
	dismissKey = key.NewBinding(key.WithKeys("esc"))
)

func (m ErrorDialogModel) Init() tea.Cmd {
	return nil
}

func (m ErrorDialogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, retryKey):
		return m, func() tea.Msg { return RetryRequested{} }
	case key.Matches(keyMsg, dismissKey):
		return m, func() tea.Msg { return ErrorDismissed{} }
	}
	return m, nil
}

func (m ErrorDialogModel) View() string {
	dialogWidth := m.width / 2
	if dialogWidth < 40 {
		dialogWidth = 40
	}

	title := "Something went wrong"
	if errors.Is(m.err, context.Canceled) {
		title = "Request cancelled"
	} else if errors.Is(m.err, context.DeadlineExceeded) {
		title = "Request timed out"
	}

	var content strings.Builder
	content.WriteString(ErrorDialogTitleStyle.Render(title))
	content.WriteString("\n\n")
	if m.err != nil {
		content.WriteString(GetErrorDialogMessageStyle(dialogWidth).Render(m.err.Error()))
		content.WriteString("\n\n")
	}
	content.WriteString(HelpTextSimpleStyle.Render("r: Retry • Esc: Dismiss"))

	return GetErrorDialogBorderStyle(dialogWidth).Render(content.String())
}

// ErrorOverlayModel wraps the error dialog with the overlay library
type ErrorOverlayModel struct {
	dialog  ErrorDialogModel
	visible bool
}

func NewErrorOverlayModel() ErrorOverlayModel {
	return ErrorOverlayModel{}
}

func (m *ErrorOverlayModel) Show(err error) {
	m.dialog.err = err
	m.visible = true
}

func (m *ErrorOverlayModel) Hide() {
	m.dialog.err = nil
	m.visible = false
}

func (m *ErrorOverlayModel) IsVisible() bool {
	return m.visible
}

func (m *ErrorOverlayModel) UpdateSize(width, height int) {
	m.dialog.width = width
	m.dialog.height = height
}

func (m *ErrorOverlayModel) UpdateDialog(msg tea.Msg) tea.Cmd {
	if !m.visible {
		return nil
	}

	mdl, cmd := m.dialog.Update(msg)
	m.dialog = mdl.(ErrorDialogModel)
	return cmd
}

func (m ErrorOverlayModel) RenderOverlay(backgroundView string) string {
	if !m.visible {
		return backgroundView
	}

	overlayModel := overlay.New(
		m.dialog,
		&staticViewModel{content: backgroundView},
		overlay.Center,
		overlay.Center,
		0,
		0,
	)

	return overlayModel.View()
}

// staticViewModel renders a fixed background underneath an overlay
type staticViewModel struct {
	content string
}

func (m staticViewModel) Init() tea.Cmd {
	return nil
}

func (m staticViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m staticViewModel) View() string {
	return m.content
}
