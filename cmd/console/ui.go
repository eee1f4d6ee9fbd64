package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/npc-engine/internal/handlers"
	"github.com/jwebster45206/npc-engine/pkg/chat"
)

const PlaceHolderText = "Say something..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	transcript   []chat.ChatMessage
	npcName      string
	npcID        string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	status       string

	// Entity selection state
	showEntityModal bool
	entities        []handlers.EntityInfo
	selectedEntity  int
	loadingEntities bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type chatResponseMsg struct {
	response *handlers.ChatResponse
	err      error
}

type entitiesLoadedMsg struct {
	entities []handlers.EntityInfo
	err      error
}

type sessionStartedMsg struct {
	response *handlers.SessionResponse
	entity   handlers.EntityInfo
	err      error
}

type sessionEndedMsg struct{}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	npcNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:          cfg,
		client:          client,
		textarea:        ta,
		chatViewport:    chatVp,
		metaViewport:    metaVp,
		ready:           false,
		showEntityModal: true,
		loadingEntities: true,
		selectedEntity:  0,
	}
}

func (m *ConsoleUI) writeIntro(chatWidth int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("NPC ENGINE") + "\n\n")
	content.WriteString(fmt.Sprintf("You are talking to %s.\n\n", m.npcName))
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")
	return content.String()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CONVERSATION") + "\n\n")

	content.WriteString("Actor:\n")
	content.WriteString(m.config.ActorID + "\n\n")

	content.WriteString("Talking to:\n")
	content.WriteString(fmt.Sprintf("%s (%s)\n\n", m.npcName, m.npcID))

	content.WriteString("Messages:\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", len(m.transcript)))

	if m.status != "" {
		content.WriteString("Status:\n")
		content.WriteString(m.status + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy transcript\n")
	content.WriteString("• /end: End conversation\n")

	return content.String()
}

// writeChatContent rebuilds the chat panel from the transcript for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(m.writeIntro(chatWidth + 6))

	for _, msg := range m.transcript {
		switch msg.Role {
		case chat.ChatRoleNPC:
			prefix := npcNameStyle.Render(m.npcName + ": ")
			content.WriteString(prefix + npcStyle.Render(wordwrap.String(msg.Content, chatWidth-len(m.npcName)-2)) + "\n\n")
		case chat.ChatRoleUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
		case chat.ChatRoleSystem:
			content.WriteString(promptStyle.Render(wordwrap.String(msg.Content, chatWidth)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showEntityModal {
		return m.loadEntities()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showEntityModal {
		return m.updateEntityModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.transcript = append(m.transcript, chat.ChatMessage{
				Role:    chat.ChatRoleUser,
				Content: input,
			})
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())

			return m, tea.Batch(m.sendChatMessage(input), progressTick())
		}

	case chatResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.transcript = append(m.transcript, chat.ChatMessage{
				Role:    chat.ChatRoleNPC,
				Content: msg.response.Message,
			})
			m.writeChatContent()
		}
		m.metaViewport.SetContent(m.writeMetadata())
		m.chatViewport.GotoBottom()
		return m, nil

	case sessionEndedMsg:
		m.transcript = append(m.transcript, chat.ChatMessage{
			Role:    chat.ChatRoleSystem,
			Content: "The conversation has ended.",
		})
		m.status = "ended"
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /copy - Copy the transcript to the clipboard
• /end - End the conversation
• Ctrl+C - Quit

How to talk:
• Type a message and press Enter
• The NPC may act on what you say, not just answer
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/copy":
		var sb strings.Builder
		for _, msg := range m.transcript {
			speaker := "You"
			if msg.Role == chat.ChatRoleNPC {
				speaker = m.npcName
			} else if msg.Role == chat.ChatRoleSystem {
				speaker = "*"
			}
			sb.WriteString(fmt.Sprintf("%s: %s\n", speaker, msg.Content))
		}
		if err := clipboard.WriteAll(sb.String()); err != nil {
			m.status = "copy failed"
		} else {
			m.status = "transcript copied"
		}
		m.metaViewport.SetContent(m.writeMetadata())

	case "/end":
		m.textarea.Reset()
		return m, m.endSession()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendChatMessage(message string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendChat(m.client, m.config.APIBaseURL, handlers.ChatRequest{
			ActorID: m.config.ActorID,
			Message: message,
		})
		return chatResponseMsg{resp, err}
	}
}

func (m ConsoleUI) endSession() tea.Cmd {
	return func() tea.Msg {
		_, _ = postSession(m.client, m.config.APIBaseURL, handlers.SessionRequest{
			ActorID: m.config.ActorID,
			Action:  "end",
		})
		return sessionEndedMsg{}
	}
}

func (m ConsoleUI) loadEntities() tea.Cmd {
	return func() tea.Msg {
		entities, err := listEntities(m.client, m.config.APIBaseURL)
		return entitiesLoadedMsg{entities, err}
	}
}

func (m ConsoleUI) startSession(entity handlers.EntityInfo) tea.Cmd {
	return func() tea.Msg {
		resp, err := postSession(m.client, m.config.APIBaseURL, handlers.SessionRequest{
			ActorID:  m.config.ActorID,
			EntityID: entity.ID,
			Action:   "start",
		})
		return sessionStartedMsg{resp, entity, err}
	}
}

func (m ConsoleUI) updateEntityModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case entitiesLoadedMsg:
		m.loadingEntities = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.entities = msg.entities
		}

	case sessionStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if !msg.response.Active {
			// Refused start: show the reason and stay in the modal.
			m.err = fmt.Errorf("%s", msg.response.Reason)
			return m, nil
		}
		m.npcName = msg.entity.Name
		m.npcID = msg.entity.ID
		m.showEntityModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingEntities {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedEntity > 0 {
				m.selectedEntity--
			}
		case tea.KeyDown:
			if m.selectedEntity < len(m.entities)-1 {
				m.selectedEntity++
			}
		case tea.KeyEnter:
			if len(m.entities) > 0 {
				m.err = nil
				m.loading = true
				return m, m.startSession(m.entities[m.selectedEntity])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave?"))
	content.WriteString("\n\n")
	content.WriteString("Walk away from the conversation?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep talking"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderEntityModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingEntities {
		content.WriteString(modalTitleStyle.Render("Looking Around..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Finding someone to talk to..."))
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Walking Over..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Starting the conversation..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Who do you want to talk to?"))
		content.WriteString("\n\n")

		for i, entity := range m.entities {
			line := fmt.Sprintf("%s the %s (%s)", entity.Name, entity.Role, entity.Region)
			if i == m.selectedEntity {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
			} else {
				content.WriteString(modalItemStyle.Render("  " + line))
			}
			content.WriteString("\n")
		}

		if m.err != nil {
			content.WriteString("\n")
			content.WriteString(errorStyle.Render(m.err.Error()))
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showEntityModal {
		return m.renderEntityModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar draws the animated bar shown while a turn is in
// flight.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
