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

	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/travel"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *session.GameSession
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Travel outcome of the most recent turn, for the meta panel
	lastTravel *travel.Validation

	// Module selection state
	showModuleModal bool
	modules         []string
	moduleMap       map[string]string
	selectedModule  int
	loadingModules  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type sessionMsg struct {
	session *session.GameSession
	err     error
}

type modulesLoadedMsg struct {
	modules   []string
	moduleMap map[string]string
	err       error
}

type sessionCreatedMsg struct {
	session *session.GameSession
	err     error
}

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

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	recapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")). // grey
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	acceptedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // bright green

	rejectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")) // salmon

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
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

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
		showModuleModal: true,
		loadingModules:  true,
		selectedModule:  0,
	}
}

func writeMetadata(gs *session.GameSession, lastTravel *travel.Validation) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CAMPAIGN") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("Module:\n")
	content.WriteString(gs.Module + "\n\n")

	content.WriteString("Location:\n")
	content.WriteString(gs.Location + "\n\n")

	if lastTravel != nil {
		content.WriteString("Last travel:\n")
		if lastTravel.Accepted() {
			content.WriteString(acceptedStyle.Render(string(lastTravel.Outcome)) + "\n")
			content.WriteString(strings.Join(lastTravel.Path, " → ") + "\n\n")
		} else {
			content.WriteString(rejectedStyle.Render(string(lastTravel.Outcome)) + "\n\n")
		}
	}

	if len(gs.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		for _, item := range gs.Inventory {
			content.WriteString("• " + item + "\n")
		}
		content.WriteString("\n")
	}

	if len(gs.Flags) > 0 {
		content.WriteString("Flags:\n")
		for k, v := range gs.Flags {
			content.WriteString(fmt.Sprintf("• %s: %v\n", k, v))
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy last reply\n")

	return content.String()
}

// writeChatContent builds the chat content from the session log for the
// current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("DMENGINE") + "\n\n")
	content.WriteString("Type your actions below to play.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.session != nil && m.session.Log != nil {
		for _, turn := range m.session.Log.Turns {
			if turn.IsTransition() {
				continue
			}
			switch turn.Role {
			case chat.ChatRoleNarrator:
				content.WriteString(narratorStyle.Render(AgentName+": ") + wordwrap.String(turn.Content, chatWidth-6) + "\n\n")
			case chat.ChatRolePlayer:
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(turn.Content, chatWidth-6) + "\n\n")
			case chat.ChatRoleSystem:
				content.WriteString(recapStyle.Render(wordwrap.String(turn.Content, chatWidth-6)) + "\n\n")
			}
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showModuleModal {
		return m.loadModules()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle module modal first
	if m.showModuleModal {
		return m.updateModuleModal(msg)
	}

	// Handle quit modal second
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
		// Pass mouse events to all components; each ignores events
		// outside its bounds
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.writeChatContent()
		if m.session != nil {
			m.metaViewport.SetContent(writeMetadata(m.session, m.lastTravel))
		}
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

			// Echo the player turn locally before the API round trip
			m.session.Log.Append(chat.ChatRolePlayer, input)
			m.writeChatContent()

			return m, tea.Batch(m.sendTurnMessage(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.session.Log.Append(chat.ChatRoleNarrator, msg.response.Message)
			m.session.Location = msg.response.Location
			m.lastTravel = msg.response.Travel
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.session, m.lastTravel))
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.session, m.lastTravel))
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
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
• /copy - Copy the DM's last reply to the clipboard
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• The DM narrates the world and moves the party when you travel
• Be descriptive for better responses
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/copy":
		reply := m.lastNarratorReply()
		currentContent := m.chatViewport.View()
		if reply == "" {
			m.chatViewport.SetContent(currentContent + promptStyle.Render("Nothing to copy yet.") + "\n\n")
		} else if err := clipboard.WriteAll(reply); err != nil {
			m.chatViewport.SetContent(currentContent + errorStyle.Render("Copy failed: "+err.Error()) + "\n\n")
		} else {
			m.chatViewport.SetContent(currentContent + promptStyle.Render("Copied last reply to clipboard.") + "\n\n")
		}
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) lastNarratorReply() string {
	if m.session == nil || m.session.Log == nil {
		return ""
	}
	turns := m.session.Log.Turns
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chat.ChatRoleNarrator && !turns[i].IsTransition() {
			return turns[i].Content
		}
	}
	return ""
}

func (m ConsoleUI) sendTurnMessage(message string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.session.ID, message)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		gs, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionMsg{gs, err}
	}
}

func (m ConsoleUI) loadModules() tea.Cmd {
	return func() tea.Msg {
		orderedNames, moduleMap, err := listModules(m.client, m.config.APIBaseURL)
		return modulesLoadedMsg{orderedNames, moduleMap, err}
	}
}

func (m ConsoleUI) createSessionFromModule(module string) tea.Cmd {
	return func() tea.Msg {
		gs, err := createSession(m.client, m.config.APIBaseURL, module)
		return sessionCreatedMsg{gs, err}
	}
}

func (m ConsoleUI) updateModuleModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case modulesLoadedMsg:
		m.loadingModules = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.modules = msg.modules
			m.moduleMap = msg.moduleMap
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showModuleModal = false
			if m.width > 0 && m.height > 0 {
				m.resizePanels()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.session, nil))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingModules {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedModule > 0 {
				m.selectedModule--
			}
		case tea.KeyDown:
			if m.selectedModule < len(m.modules)-1 {
				m.selectedModule++
			}
		case tea.KeyEnter:
			if len(m.modules) > 0 {
				displayName := m.modules[m.selectedModule]
				m.loading = true
				return m, m.createSessionFromModule(m.moduleMap[displayName])
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
				if m.showModuleModal {
					return m, nil
				}
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
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the campaign?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderModuleModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingModules {
		content.WriteString(modalTitleStyle.Render("Loading Modules..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available world modules..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load modules: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Starting Campaign..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your session..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a World Module"))
		content.WriteString("\n\n")

		for i, module := range m.modules {
			if i == m.selectedModule {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", module)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", module)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showModuleModal {
		return m.renderModuleModal()
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
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
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

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
