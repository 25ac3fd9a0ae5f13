package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
	"github.com/desertthunder/teltube/internal/tasks"
)

// Session is what the TUI needs from the session controller.
type Session interface {
	CanUpload() bool
	Identity() *models.Identity
	Busy() bool
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, email, password, name string) (*models.Session, error)
	Logout() error
	Publish(ctx context.Context, draft *models.Draft, progress chan<- tasks.ProgressUpdate) (*models.CatalogEntryRef, error)
	RegisterUploaded(ctx context.Context, draft *models.Draft, uploaded *models.UploadResult, progress chan<- tasks.ProgressUpdate) (*models.CatalogEntryRef, error)
	Catalog(ctx context.Context) (*tasks.FeedResult, error)
	Channel(ctx context.Context, ownerID *int64) (*tasks.FeedResult, error)
}

// ViewCounter records a view of a catalog entry.
type ViewCounter interface {
	RecordView(ctx context.Context, videoID int64) (int64, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	LoginView
	UploadView
	PublishView
	ResultView
)

// Options configures a [Model]. Views may be nil to disable view counting.
type Options struct {
	Session  Session
	Views    ViewCounter
	MaxBytes int64
}

type publishRun struct {
	title    string
	progress chan tasks.ProgressUpdate
	done     chan publishComplete
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	session  Session
	views    ViewCounter
	maxBytes int64
	width    int
	height   int

	videos   list.Model
	channel  bool
	stale    bool
	cachedAt time.Time
	loading  bool

	login     loginForm
	signingIn bool
	upload    uploadForm
	draft     *models.Draft

	run      *publishRun
	progress tasks.ProgressUpdate
	ref      *models.CatalogEntryRef
	err      error
	status   string

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	videos := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	videos.Title = "Latest videos"
	videos.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		view:     CatalogView,
		session:  opts.Session,
		views:    opts.Views,
		maxBytes: opts.MaxBytes,
		videos:   videos,
		login:    newLoginForm(),
		upload:   newUploadForm(),
		spinner:  sp,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// State returns the active view.
func (m *Model) State() ViewState {
	return m.view
}

// Init starts the spinner and loads the catalog.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCatalog())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.videos.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.kill) {
			return m, tea.Quit
		}
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case LoginView:
			return m.handleLoginKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogLoaded:
		data := msg.data.(catalogLoaded)
		m.loading = false
		if data.err != nil {
			m.status = styles.err.Render(shared.UserMessage(data.err))
			return m, nil
		}
		m.stale = data.feed.Stale
		m.cachedAt = data.feed.CachedAt
		return m, m.videos.SetItems(videoItems(data.feed.Entries))

	case MsgSignedIn:
		data := msg.data.(signedIn)
		m.signingIn = false
		if data.err != nil {
			m.login.err = data.err
			return m, nil
		}
		m.login.reset()
		m.view = CatalogView
		m.status = styles.ok.Render("Signed in as " + data.session.Identity.DisplayName())
		if m.channel {
			return m, m.loadCatalog()
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForPublish()

	case MsgPublishComplete:
		data := msg.data.(publishComplete)
		m.run = nil
		m.ref = data.ref
		m.err = data.err
		m.view = ResultView
		if data.err != nil {
			return m, nil
		}
		m.draft = nil
		m.upload.reset()
		return m, m.loadCatalog()

	case MsgViewRecorded:
		data := msg.data.(viewRecorded)
		if data.err != nil {
			m.status = styles.err.Render(shared.UserMessage(data.err))
			return m, nil
		}
		m.status = fmt.Sprintf("%d views", data.views)
		items := m.videos.Items()
		for i, it := range items {
			if v, ok := it.(videoItem); ok && v.entry.ID == data.id {
				v.entry.Views = data.views
				return m, m.videos.SetItem(i, v)
			}
		}
	}
	return m, nil
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.videos.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.videos, cmd = m.videos.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.loadCatalog()
	case key.Matches(msg, m.keys.channel):
		if !m.channel && m.session.Identity() == nil {
			m.status = styles.warn.Render("sign in to view your channel")
			return m, nil
		}
		m.channel = !m.channel
		return m, m.loadCatalog()
	case key.Matches(msg, m.keys.upload):
		if !m.session.CanUpload() {
			m.status = styles.warn.Render("sign in to upload")
			return m, nil
		}
		return m, m.openUpload()
	case key.Matches(msg, m.keys.login):
		if m.session.Identity() != nil {
			return m, nil
		}
		m.view = LoginView
		m.status = ""
		return m, m.login.move(0)
	case key.Matches(msg, m.keys.logout):
		if m.session.Identity() == nil {
			return m, nil
		}
		if err := m.session.Logout(); err != nil {
			m.status = styles.warn.Render("signed out, but stored credentials could not be removed")
		} else {
			m.status = "Signed out"
		}
		m.draft = nil
		m.upload.reset()
		if m.channel {
			m.channel = false
			return m, m.loadCatalog()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.videos.SelectedItem().(videoItem); ok {
			return m, m.recordView(it.entry.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.videos, cmd = m.videos.Update(msg)
	return m, cmd
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if m.signingIn {
			return m, nil
		}
		m.login.err = nil
		m.view = CatalogView
		return m, nil
	case key.Matches(msg, m.keys.register):
		return m, m.login.toggleRegister()
	case key.Matches(msg, m.keys.submit):
		if m.signingIn || m.session.Busy() {
			return m, nil
		}
		m.signingIn = true
		m.login.err = nil
		return m, m.signIn()
	case key.Matches(msg, m.keys.next):
		return m, m.login.move(1)
	case key.Matches(msg, m.keys.prev):
		return m, m.login.move(-1)
	}
	return m, m.login.update(msg)
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.draft = nil
		m.upload.reset()
		m.view = CatalogView
		return m, nil
	case key.Matches(msg, m.keys.submit):
		if err := m.fillDraft(); err != nil {
			m.upload.err = err
			return m, nil
		}
		m.upload.err = nil
		return m, m.startPublish(nil)
	case key.Matches(msg, m.keys.next):
		return m, m.upload.move(1)
	case key.Matches(msg, m.keys.prev):
		return m, m.upload.move(-1)
	}
	return m, m.upload.update(msg)
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.relink):
		var pe *tasks.PublishError
		if errors.As(m.err, &pe) && pe.CanRegisterOnly() && m.session.CanUpload() {
			return m, m.startPublish(pe.Uploaded)
		}
	case key.Matches(msg, m.keys.retry):
		if m.err != nil && m.draft != nil && m.session.CanUpload() {
			return m, m.startPublish(nil)
		}
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.submit):
		if m.err != nil && m.draft != nil && m.session.CanUpload() {
			m.view = UploadView
			return m, nil
		}
		m.err = nil
		m.ref = nil
		m.view = CatalogView
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CatalogView:
		m.videos, cmd = m.videos.Update(msg)
	case LoginView:
		cmd = m.login.update(msg)
	case UploadView:
		cmd = m.upload.update(msg)
	}
	return m, cmd
}

// openUpload creates the draft that lives until it is published or the view is closed.
func (m *Model) openUpload() tea.Cmd {
	if m.draft == nil {
		m.draft = models.NewDraft()
		m.draft.MaxBytes = m.maxBytes
	}
	m.status = ""
	m.view = UploadView
	return m.upload.move(0)
}

// fillDraft copies the form into the draft, reading the media files from disk.
func (m *Model) fillDraft() error {
	if m.draft == nil {
		m.draft = models.NewDraft()
		m.draft.MaxBytes = m.maxBytes
	}
	m.draft.Title = m.upload.value(uploadTitle)
	m.draft.Description = m.upload.value(uploadDescription)
	if err := m.draft.AttachMedia(m.upload.value(uploadMedia)); err != nil {
		return err
	}
	if err := m.draft.AttachThumbnail(m.upload.value(uploadThumbnail)); err != nil {
		return err
	}
	return m.draft.Validate()
}

func (m *Model) loadCatalog() tea.Cmd {
	m.loading = true
	if m.channel {
		m.videos.Title = "Your channel"
	} else {
		m.videos.Title = "Latest videos"
	}
	channel := m.channel
	return func() tea.Msg {
		if channel {
			feed, err := m.session.Channel(m.ctx, nil)
			return catalogLoadedMsg(feed, err)
		}
		feed, err := m.session.Catalog(m.ctx)
		return catalogLoadedMsg(feed, err)
	}
}

func (m *Model) signIn() tea.Cmd {
	email, password, name := m.login.credentials()
	register := m.login.register
	return func() tea.Msg {
		if register {
			session, err := m.session.Register(m.ctx, email, password, name)
			return signedInMsg(session, err)
		}
		session, err := m.session.Login(m.ctx, email, password)
		return signedInMsg(session, err)
	}
}

func (m *Model) recordView(id int64) tea.Cmd {
	if m.views == nil {
		return nil
	}
	return func() tea.Msg {
		views, err := m.views.RecordView(m.ctx, id)
		return viewRecordedMsg(id, views, err)
	}
}

// startPublish runs a publish, or only the registration when uploaded is non-nil, in the background.
func (m *Model) startPublish(uploaded *models.UploadResult) tea.Cmd {
	run := &publishRun{
		title:    m.draft.Title,
		progress: make(chan tasks.ProgressUpdate, 16),
		done:     make(chan publishComplete, 1),
	}
	m.run = run
	m.err = nil
	m.ref = nil
	m.progress = tasks.ProgressUpdate{Message: "Starting..."}
	m.view = PublishView

	ctx, session, draft := m.ctx, m.session, m.draft
	go func() {
		var (
			ref *models.CatalogEntryRef
			err error
		)
		if uploaded != nil {
			ref, err = session.RegisterUploaded(ctx, draft, uploaded, run.progress)
		} else {
			ref, err = session.Publish(ctx, draft, run.progress)
		}
		run.done <- publishComplete{ref: ref, err: err}
	}()

	return tea.Batch(m.spinner.Tick, m.waitForPublish())
}

func (m *Model) waitForPublish() tea.Cmd {
	run := m.run
	if run == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-run.progress:
			return progressUpdateMsg(update)
		case out := <-run.done:
			return publishCompleteMsg(out.ref, out.err)
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case CatalogView:
		return m.renderCatalog()
	case LoginView:
		return m.renderLogin()
	case UploadView:
		return m.renderUpload()
	case PublishView:
		return m.renderPublish()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderHeader() string {
	if identity := m.session.Identity(); identity != nil {
		return styles.ok.Render("● " + identity.DisplayName())
	}
	return styles.help.Render("○ not signed in")
}

func (m *Model) renderCatalog() string {
	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n\n")
	if m.stale {
		cached := fmt.Sprintf(" showing videos cached %s", m.cachedAt.Local().Format(time.DateTime))
		b.WriteString(badge("OFFLINE", colorWarn) + styles.warn.Render(cached) + "\n\n")
	}
	if m.loading && len(m.videos.Items()) == 0 {
		b.WriteString(m.spinner.View() + " Loading videos...\n")
	} else {
		b.WriteString(m.videos.View() + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh}
	if m.session.CanUpload() {
		helpKeys = append(helpKeys, m.keys.upload, m.keys.channel, m.keys.logout)
	} else {
		helpKeys = append(helpKeys, m.keys.login)
	}
	helpKeys = append(helpKeys, m.keys.quit)
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.login.title()) + "\n")
	b.WriteString(m.login.view())
	if m.signingIn {
		b.WriteString("\n" + m.spinner.View() + " Contacting server...\n")
	}
	helpKeys := []key.Binding{m.keys.submit, m.keys.next, m.keys.register, m.keys.back, m.keys.kill}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Upload video") + "\n")
	b.WriteString(m.upload.view())
	if m.maxBytes > 0 {
		b.WriteString("\n" + styles.help.Render("Files up to "+shared.FormatBytes(m.maxBytes)) + "\n")
	}
	helpKeys := []key.Binding{m.keys.submit, m.keys.next, m.keys.back, m.keys.kill}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderPublish() string {
	title := "Publishing"
	if m.run != nil && m.run.title != "" {
		title = fmt.Sprintf("Publishing '%s'", m.run.title)
	}

	step := ""
	if m.progress.Total > 0 {
		step = fmt.Sprintf("[%d/%d] ", m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n%s %s%s\n", styles.title.Render(title), m.spinner.View(), step, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err == nil {
		title := styles.ok.Render("✓ Published")
		info := ""
		if m.ref != nil {
			info = fmt.Sprintf("\nID: %d\nTitle: %s\nURL: %s\n", m.ref.ID, m.ref.Title, m.ref.VideoURL)
		}
		helpKeys := []key.Binding{m.keys.back, m.keys.quit}
		return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
	}

	var b strings.Builder
	b.WriteString(styles.err.Render("✗ "+shared.UserMessage(m.err)) + "\n\n")

	helpKeys := []key.Binding{m.keys.back}
	var pe *tasks.PublishError
	switch {
	case errors.Is(m.err, shared.ErrTokenRejected):
		b.WriteString(styles.warn.Render("Your session has expired. Sign in again to continue.") + "\n")
	case errors.As(m.err, &pe) && pe.CanRegisterOnly():
		b.WriteString(styles.warn.Render("The video was stored but is not listed yet.") + "\n")
		b.WriteString("Register only to list it, or publish again to upload a new copy.\n")
		helpKeys = append(helpKeys, m.keys.relink, m.keys.retry)
	case errors.Is(m.err, shared.ErrValidation), errors.Is(m.err, shared.ErrPublishInFlight):
	default:
		helpKeys = append(helpKeys, m.keys.retry)
	}

	helpKeys = append(helpKeys, m.keys.quit)
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
