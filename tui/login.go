package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"courierflow/auth"
)

// authMode selects which unauthenticated flow the view renders.
type authMode int

const (
	modeSignIn authMode = iota
	modeRegister
	modeRegisterOTP
	modeForgotEmail
	modeResetOTP
	modeResetPassword
)

// Flow progress messages, one per completed step.
type registerSubmittedMsg struct{ email string }
type registrationVerifiedMsg struct{}
type resetRequestedMsg struct{ email string }
type resetOTPVerifiedMsg struct{}
type passwordResetMsg struct{}

// Register form field order.
const (
	regFirstName = iota
	regLastName
	regEmail
	regPhone
	regPassword
	regConfirm
)

// LoginModel hosts the unauthenticated flows: sign-in, the two-step
// registration and the three-step password reset. The input set is rebuilt
// whenever the mode changes.
type LoginModel struct {
	mode   authMode
	inputs []textinput.Model
	focus  int
	busy   bool

	// email carries the address into the OTP and reset steps.
	email string
	info  string
}

// NewLoginModel builds the sign-in form with the email field focused.
func NewLoginModel() LoginModel {
	m, _ := LoginModel{}.toSignIn("")
	return m
}

// Init implements the view contract.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func textField(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 120
	return in
}

func passwordField(placeholder string) textinput.Model {
	in := textField(placeholder)
	in.EchoMode = textinput.EchoPassword
	return in
}

// enter switches to the given mode with a fresh input set.
func (m LoginModel) enter(mode authMode, info string, inputs ...textinput.Model) (LoginModel, tea.Cmd) {
	m.mode = mode
	m.inputs = inputs
	m.focus = 0
	m.busy = false
	m.info = info
	return m, m.inputs[0].Focus()
}

func (m LoginModel) toSignIn(info string) (LoginModel, tea.Cmd) {
	m.email = ""
	return m.enter(modeSignIn, info, textField("email"), passwordField("password"))
}

func (m LoginModel) toRegister() (LoginModel, tea.Cmd) {
	return m.enter(modeRegister, "",
		textField("first name"), textField("last name"), textField("email"),
		textField("phone"), passwordField("password"), passwordField("confirm password"))
}

// Update handles form input, mode switching and submission.
func (m LoginModel) Update(msg tea.Msg, app App) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlR:
			if m.mode == modeSignIn && !m.busy {
				return m.toRegister()
			}
		case tea.KeyCtrlF:
			if m.mode == modeSignIn && !m.busy {
				return m.enter(modeForgotEmail,
					"enter your account email to receive a reset code", textField("email"))
			}
		case tea.KeyEsc:
			if m.mode != modeSignIn && !m.busy {
				return m.toSignIn("")
			}
		case tea.KeyTab, tea.KeyDown:
			return m.setFocus(m.focus + 1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m.setFocus(m.focus - 1)
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			if m.focus < len(m.inputs)-1 {
				return m.setFocus(m.focus + 1)
			}
			return m.submit(app)
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case registerSubmittedMsg:
		m.email = msg.email
		return m.enter(modeRegisterOTP, "enter the code emailed to "+msg.email, textField("otp"))

	case registrationVerifiedMsg:
		return m.toSignIn("account verified, sign in")

	case resetRequestedMsg:
		m.email = msg.email
		return m.enter(modeResetOTP, "enter the code emailed to "+msg.email, textField("otp"))

	case resetOTPVerifiedMsg:
		return m.enter(modeResetPassword, "set a new password for "+m.email,
			passwordField("new password"), passwordField("confirm password"))

	case passwordResetMsg:
		return m.toSignIn("password updated, sign in")

	case errMsg:
		m.busy = false
		return m, nil
	}
	return m, nil
}

func (m LoginModel) setFocus(focus int) (LoginModel, tea.Cmd) {
	n := len(m.inputs)
	m.focus = ((focus % n) + n) % n
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m, cmd
}

func (m LoginModel) submit(app App) (LoginModel, tea.Cmd) {
	m.busy = true
	s := app.services
	switch m.mode {
	case modeSignIn:
		return m, submitLogin(s, m.inputs[0].Value(), m.inputs[1].Value())
	case modeRegister:
		return m, submitRegister(s, auth.RegisterRequest{
			FirstName:       m.inputs[regFirstName].Value(),
			LastName:        m.inputs[regLastName].Value(),
			Email:           m.inputs[regEmail].Value(),
			Phone:           m.inputs[regPhone].Value(),
			Password:        m.inputs[regPassword].Value(),
			ConfirmPassword: m.inputs[regConfirm].Value(),
		})
	case modeRegisterOTP:
		return m, submitRegisterOTP(s, m.email, m.inputs[0].Value())
	case modeForgotEmail:
		return m, submitForgotPassword(s, m.inputs[0].Value())
	case modeResetOTP:
		return m, submitResetOTP(s, m.email, m.inputs[0].Value())
	default:
		return m, submitResetPassword(s, m.email, m.inputs[0].Value(), m.inputs[1].Value())
	}
}

func submitLogin(s Services, email, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := s.Auth.Login(context.Background(), s.Session, email, password)
		if err != nil {
			return errMsg{err}
		}
		if s.Transport != nil {
			s.Transport.SetToken(s.Session.Token())
		}
		return sessionStartedMsg{user: user}
	}
}

func submitRegister(s Services, req auth.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		if err := s.Auth.Register(context.Background(), req); err != nil {
			return errMsg{err}
		}
		return registerSubmittedMsg{email: req.Email}
	}
}

func submitRegisterOTP(s Services, email, otp string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Auth.VerifyRegistration(context.Background(), email, otp); err != nil {
			return errMsg{err}
		}
		return registrationVerifiedMsg{}
	}
}

func submitForgotPassword(s Services, email string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Auth.ForgotPassword(context.Background(), email); err != nil {
			return errMsg{err}
		}
		return resetRequestedMsg{email: email}
	}
}

func submitResetOTP(s Services, email, otp string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Auth.VerifyResetOTP(context.Background(), email, otp); err != nil {
			return errMsg{err}
		}
		return resetOTPVerifiedMsg{}
	}
}

func submitResetPassword(s Services, email, password, confirm string) tea.Cmd {
	return func() tea.Msg {
		if password != confirm {
			return errMsg{auth.ErrPasswordMismatch}
		}
		if err := s.Auth.ResetPassword(context.Background(), email, password); err != nil {
			return errMsg{err}
		}
		return passwordResetMsg{}
	}
}

var authTitles = map[authMode]string{
	modeSignIn:        "Courier — sign in",
	modeRegister:      "Courier — create account",
	modeRegisterOTP:   "Courier — verify email",
	modeForgotEmail:   "Courier — forgot password",
	modeResetOTP:      "Courier — verify reset code",
	modeResetPassword: "Courier — new password",
}

// View renders the active flow.
func (m LoginModel) View(app App) string {
	var b strings.Builder
	b.WriteString(app.theme.titleStyle().Render(authTitles[m.mode]))
	b.WriteString("\n\n")
	if m.info != "" {
		b.WriteString(app.theme.faintStyle().Render(m.info))
		b.WriteString("\n\n")
	}
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(app.theme.faintStyle().Render("working..."))
	case m.mode == modeSignIn:
		b.WriteString(app.theme.faintStyle().Render(
			"enter sign in · ctrl+r register · ctrl+f forgot password · ctrl+c quit"))
	default:
		b.WriteString(app.theme.faintStyle().Render("enter submit · tab next field · esc back"))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
