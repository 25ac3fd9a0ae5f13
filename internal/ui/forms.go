package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/teltube/internal/shared"
)

type field struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

// form is a vertical stack of text inputs with one focused field.
// Only the first visible fields take part in focus cycling and rendering.
type form struct {
	labels  []string
	inputs  []textinput.Model
	focus   int
	visible int
	err     error
}

func newForm(fields ...field) form {
	f := form{visible: len(fields)}
	for _, fd := range fields {
		in := textinput.New()
		in.Placeholder = fd.placeholder
		in.CharLimit = fd.limit
		in.Width = 48
		if fd.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, in)
	}
	f.inputs[0].Focus()
	return f
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) raw(i int) string {
	return f.inputs[i].Value()
}

// move shifts focus by delta within the visible fields.
func (f *form) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + f.visible) % f.visible
	return f.inputs[f.focus].Focus()
}

func (f *form) setVisible(n int) tea.Cmd {
	f.visible = n
	if f.focus < n {
		return nil
	}
	f.inputs[f.focus].Blur()
	f.focus = n - 1
	return f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
		f.inputs[i].Blur()
	}
	f.focus = 0
	f.err = nil
	f.inputs[0].Focus()
}

func (f *form) view() string {
	var b strings.Builder
	for i := 0; i < f.visible; i++ {
		label := styles.label.Render(f.labels[i])
		if i == f.focus {
			label = styles.focus.Render(f.labels[i])
		}
		fmt.Fprintf(&b, "%s %s\n", label, f.inputs[i].View())
	}
	if f.err != nil {
		fmt.Fprintf(&b, "\n%s\n", styles.err.Render(shared.UserMessage(f.err)))
	}
	return b.String()
}

const (
	loginEmail = iota
	loginPassword
	loginName
)

// loginForm signs in with email and password, or registers with an additional name.
type loginForm struct {
	form
	register bool
}

func newLoginForm() loginForm {
	f := loginForm{form: newForm(
		field{label: "Email", placeholder: "you@example.com", limit: 254},
		field{label: "Password", secret: true, limit: 128},
		field{label: "Name", placeholder: "shown on your channel", limit: 64},
	)}
	f.setVisible(2)
	return f
}

func (f *loginForm) toggleRegister() tea.Cmd {
	f.register = !f.register
	f.err = nil
	if f.register {
		return f.setVisible(3)
	}
	return f.setVisible(2)
}

// credentials returns the trimmed email and name and the password as typed.
func (f *loginForm) credentials() (email, password, name string) {
	return f.value(loginEmail), f.raw(loginPassword), f.value(loginName)
}

func (f *loginForm) title() string {
	if f.register {
		return "Create account"
	}
	return "Sign in"
}

const (
	uploadTitle = iota
	uploadDescription
	uploadMedia
	uploadThumbnail
)

// uploadForm collects a draft's fields. Media and thumbnail are local file paths.
type uploadForm struct {
	form
}

func newUploadForm() uploadForm {
	return uploadForm{form: newForm(
		field{label: "Title", placeholder: "required", limit: 200},
		field{label: "Description", placeholder: "optional", limit: 2000},
		field{label: "Video", placeholder: "path to the video file"},
		field{label: "Thumbnail", placeholder: "optional path to an image"},
	)}
}
