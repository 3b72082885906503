package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"persona-chat/internal/chat"
	"persona-chat/internal/logging"
	"persona-chat/internal/models"
)

const (
	titleHeight    = 4
	textareaHeight = 5
	helpHeight     = 2
	padding        = 2

	// timestampLayout renders as e.g. "Tue 3:04 PM"
	timestampLayout = "Mon 3:04 PM"
)

// ChatInfo describes the backend shown in the status bar
type ChatInfo struct {
	Title      string
	LLMModel   string
	EmbedModel string
	TopK       int
	Chunks     int
}

// bubble is one rendered utterance
type bubble struct {
	speaker models.Speaker
	text    string
	at      time.Time
	failed  bool
}

type ChatViewModel struct {
	controller   *chat.Controller
	info         ChatInfo
	bubbles      []bubble
	viewport     viewport.Model
	textarea     textarea.Model
	spinner      spinner.Model
	errorOverlay ErrorOverlayModel
	mdRenderer   *glamour.TermRenderer
	width        int
	height       int
	loading      bool
	quitting     bool
	cancelFunc   context.CancelFunc
	// failedQuestion is resent by a retry
	failedQuestion string
	now            func() time.Time
}

// ExchangeComplete carries the assistant answer for the exchange in flight
type ExchangeComplete struct {
	Answer string
}

// ExchangeFailed reports that the exchange in flight produced no answer
type ExchangeFailed struct {
	Question string
	Err      error
}

// createMarkdownRenderer creates a markdown renderer with fallback handling
func createMarkdownRenderer(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)
	if err == nil {
		return renderer
	}

	logging.Error("Failed to create markdown renderer with auto style: %v, trying fallback", err)

	renderer, err = glamour.NewTermRenderer(
		glamour.WithWordWrap(width - 10),
	)
	if err != nil {
		logging.Error("Failed to create markdown renderer: %v, using plain text", err)
		return nil
	}

	return renderer
}

// safeRenderMarkdown safely renders markdown with panic recovery and fallback
func (m *ChatViewModel) safeRenderMarkdown(content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic in markdown rendering: %v", r)
			out = content
		}
	}()

	if m.mdRenderer == nil || content == "" {
		return content
	}

	rendered, err := m.mdRenderer.Render(content)
	if err != nil {
		logging.Error("Markdown rendering error: %v, falling back to plain text", err)
		return content
	}

	return strings.Trim(rendered, "\n")
}

func NewChatViewModel(controller *chat.Controller, info ChatInfo, width, height int) ChatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.Focus()
	ta.CharLimit = 2000
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	// Enter submits, so the textarea keeps only essential editing keys
	ta.KeyMap.CharacterForward = key.NewBinding(key.WithKeys("right"))
	ta.KeyMap.CharacterBackward = key.NewBinding(key.WithKeys("left"))
	ta.KeyMap.LineStart = key.NewBinding(key.WithKeys("home"))
	ta.KeyMap.LineEnd = key.NewBinding(key.WithKeys("end"))
	ta.KeyMap.DeleteCharacterBackward = key.NewBinding(key.WithKeys("backspace"))
	ta.KeyMap.DeleteCharacterForward = key.NewBinding(key.WithKeys("delete"))
	ta.KeyMap.LineNext = key.NewBinding()
	ta.KeyMap.LinePrevious = key.NewBinding()
	ta.KeyMap.InsertNewline = key.NewBinding()

	viewportHeight := height - titleHeight - textareaHeight - helpHeight - padding
	vp := viewport.New(width-6, viewportHeight)
	vp.SetContent("")
	vp.MouseWheelDelta = 2

	vp.KeyMap.Down = key.NewBinding(key.WithKeys("down"))
	vp.KeyMap.Up = key.NewBinding(key.WithKeys("up"))
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	vp.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
	vp.KeyMap.HalfPageDown = key.NewBinding()
	vp.KeyMap.HalfPageUp = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	eo := NewErrorOverlayModel()
	eo.UpdateSize(width, height)

	if info.Title == "" {
		info.Title = "persona-chat"
	}

	return ChatViewModel{
		controller:   controller,
		info:         info,
		viewport:     vp,
		textarea:     ta,
		spinner:      sp,
		errorOverlay: eo,
		mdRenderer:   createMarkdownRenderer(width),
		width:        width,
		height:       height,
		now:          time.Now,
	}
}

func (m ChatViewModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m ChatViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.(type) {
	case RetryRequested:
		m.errorOverlay.Hide()
		return m.retry()

	case ErrorDismissed:
		m.errorOverlay.Hide()
		m.failedQuestion = ""
		m.textarea.Focus()
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		if !m.loading {
			return m, tea.Quit
		}
		// Quit once the cancelled exchange has returned, so the store is not
		// closed underneath it
		m.quitting = true
		m.cancelExchange()
		return m, nil
	}

	if m.errorOverlay.IsVisible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, m.errorOverlay.UpdateDialog(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = msg.Height - titleHeight - textareaHeight - helpHeight - padding
		m.textarea.SetWidth(msg.Width - 4)
		m.errorOverlay.UpdateSize(msg.Width, msg.Height)
		m.mdRenderer = createMarkdownRenderer(msg.Width)
		m.renderBubbles()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.loading {
				m.cancelExchange()
			}
			return m, nil

		case "enter":
			if m.loading {
				return m, nil
			}
			question := m.textarea.Value()
			m.textarea.Reset()
			return m.submit(question)
		}

	case ExchangeComplete:
		m.finishExchange()
		if m.quitting {
			return m, tea.Quit
		}
		m.bubbles = append(m.bubbles, bubble{
			speaker: models.Assistant,
			text:    msg.Answer,
			at:      m.now(),
		})
		m.renderBubbles()
		m.viewport.GotoBottom()
		return m, nil

	case ExchangeFailed:
		m.finishExchange()
		if m.quitting {
			return m, tea.Quit
		}
		// The failed question is always the most recent human bubble
		for i := len(m.bubbles) - 1; i >= 0; i-- {
			if m.bubbles[i].speaker == models.Human {
				m.bubbles[i].failed = true
				break
			}
		}
		m.failedQuestion = msg.Question
		m.errorOverlay.Show(msg.Err)
		m.renderBubbles()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.renderBubbles()
		return m, cmd
	}

	if !m.loading {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit starts an exchange for question. The human bubble is rendered before the
// pipeline runs.
func (m ChatViewModel) submit(question string) (tea.Model, tea.Cmd) {
	ex, err := m.controller.Begin(question)
	if errors.Is(err, chat.ErrEmptyQuestion) {
		return m, nil
	}
	if err != nil {
		logging.Error("Failed to start exchange: %v", err)
		m.errorOverlay.Show(err)
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFunc = cancel
	m.loading = true
	m.textarea.Blur()

	m.bubbles = append(m.bubbles, bubble{
		speaker: models.Human,
		text:    ex.Question,
		at:      m.now(),
	})
	m.renderBubbles()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, runExchange(ctx, ex))
}

// retry drops the failed bubble and resubmits its question
func (m ChatViewModel) retry() (tea.Model, tea.Cmd) {
	question := m.failedQuestion
	m.failedQuestion = ""
	if question == "" {
		m.textarea.Focus()
		return m, nil
	}

	if n := len(m.bubbles); n > 0 && m.bubbles[n-1].failed {
		m.bubbles = m.bubbles[:n-1]
	}
	return m.submit(question)
}

func runExchange(ctx context.Context, ex *chat.Exchange) tea.Cmd {
	return func() tea.Msg {
		answer, err := ex.Run(ctx)
		if err != nil {
			return ExchangeFailed{Question: ex.Question, Err: err}
		}
		return ExchangeComplete{Answer: answer}
	}
}

func (m *ChatViewModel) finishExchange() {
	m.cancelExchange()
	m.loading = false
	m.textarea.Focus()
}

func (m *ChatViewModel) cancelExchange() {
	if m.cancelFunc != nil {
		m.cancelFunc()
		m.cancelFunc = nil
	}
}

func (m ChatViewModel) View() string {
	var b strings.Builder

	b.WriteString(TitleWithPaddingStyle.Render(m.info.Title) + "\n")

	statusLine := fmt.Sprintf("LLM: %s | Embedding: %s | TopK: %d | Chunks: %d",
		m.info.LLMModel,
		m.info.EmbedModel,
		m.info.TopK,
		m.info.Chunks,
	)
	if m.quitting {
		statusLine += " | " + m.spinner.View() + " Stopping..."
	} else if m.loading {
		statusLine += " | " + m.spinner.View() + " Thinking..."
	}
	b.WriteString(statusBarStyle.Render(statusLine) + "\n\n")

	b.WriteString(RenderViewportWithBorder(m.viewport.View()))
	b.WriteString("\n")

	if scrollInfo := m.renderScrollIndicator(); scrollInfo != "" {
		b.WriteString(scrollInfo)
	}
	b.WriteString("\n\n")

	b.WriteString(m.textarea.View() + "\n")

	helpText := "Enter: Send • ↑/↓: Scroll • PgUp/PgDn: Page Scroll • Esc: Cancel • Ctrl+C: Exit"
	b.WriteString(helpStyle.Render(helpText))

	return m.errorOverlay.RenderOverlay(b.String())
}

func (m *ChatViewModel) renderBubbles() {
	var b strings.Builder

	for _, msg := range m.bubbles {
		timestamp := TimestampStyle.Render(msg.at.Format(timestampLayout))

		if msg.speaker == models.Human {
			label := UserMessageLabelStyle.Render("You")
			if msg.failed {
				label = FailedMessageLabelStyle.Render("✗ Not sent")
			}
			// Questions are shown verbatim
			b.WriteString(GetUserMessageContentStyle(m.width).Render(label + " " + timestamp + "\n" + msg.text))
		} else {
			label := AssistantMessageLabelStyle.Render("Assistant")
			b.WriteString(GetAssistantMessageContentStyle(m.width).Render(label + " " + timestamp + "\n" + m.safeRenderMarkdown(msg.text)))
		}
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(GetAssistantMessageContentStyle(m.width).Render(m.spinner.View() + " Thinking..."))
	}

	m.viewport.SetContent(b.String())
}

func (m ChatViewModel) renderScrollIndicator() string {
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		return ""
	}

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	return ScrollIndicatorStyle.Render(fmt.Sprintf("Scroll: %d%% ↕", scrollPercent))
}
