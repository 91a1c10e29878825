package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"daybook/internal/clock"
	"daybook/internal/config"
	"daybook/internal/notes"
	"daybook/internal/notify"
	"daybook/internal/reminders"
	"daybook/internal/tasks"
)

type tab int

const (
	tabTasks tab = iota
	tabNotes
	tabReminders
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabTasks:
		return "Tasks"
	case tabNotes:
		return "Notes"
	case tabReminders:
		return "Reminders"
	default:
		return ""
	}
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeDate
	modeReminderTime
	modeReminderMessage
)

const (
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
)

type Deps struct {
	Tasks     *tasks.Manager
	Notes     *notes.Manager
	Reminders *reminders.Manager
	Clock     clock.Clock
}

type pendingDelete struct {
	tab    tab
	date   string
	taskID int64
	id     string
	label  string
}

type Model struct {
	deps       Deps
	keys       config.Keymap
	tab        tab
	cursor     [tabCount]int
	mode       mode
	input      textinput.Model
	status     string
	alert      bool
	dark       bool
	confirmDel bool
	pendingDel *pendingDelete
	remindAt   time.Time
}

func New(deps Deps, cfg config.Config) Model {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Tasks.Selected() == "" {
		deps.Tasks.ShiftDate(0)
	}

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 40

	return Model{
		deps:   deps,
		keys:   cfg.Keys,
		input:  ti,
		mode:   modeList,
		dark:   cfg.DarkMode,
		status: fmt.Sprintf("Press '%s' to add, '%s' to switch tabs.", cfg.Keys.Add, cfg.Keys.NextTab),
	}
}

func Run(deps Deps, cfg config.Config, bridge *Bridge) error {
	program := tea.NewProgram(New(deps, cfg))
	if bridge != nil {
		bridge.attach(program)
	}
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == m.keys.Quit {
			return m, tea.Quit
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case noticeMsg:
		m.setStatus(msg.Message, msg.Level == notify.Alert)
	case refreshMsg:
		m.cursor[tabReminders] = clampCursor(m.cursor[tabReminders], len(m.deps.Reminders.Visible()))
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.mode == modeList {
		return m.updateListMode(key)
	}
	switch key {
	case m.keys.Cancel:
		return m.cancelInput(), nil
	case m.keys.Confirm:
		return m.confirmInput()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	n := m.listLen()
	switch key {
	case m.keys.NextTab:
		m.tab = (m.tab + 1) % tabCount
		m.setStatus(m.tab.String(), false)
	case m.keys.PrevTab:
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.setStatus(m.tab.String(), false)
	case m.keys.Down, "down":
		if n > 0 {
			m.cursor[m.tab] = clampCursor(m.cursor[m.tab]+1, n)
		}
	case m.keys.Up, "up":
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab] = clampCursor(m.cursor[m.tab]-1, n)
		}
	case m.keys.Theme:
		m.dark = !m.dark
	case m.keys.Add:
		return m.startAdd(), nil
	case m.keys.Toggle:
		if m.tab != tabTasks || n == 0 {
			return m, nil
		}
		t := m.visibleTasks()[m.cursor[tabTasks]]
		if m.deps.Tasks.ToggleCheck(t.ID) {
			m.setStatus("Checked task", false)
		} else {
			m.setStatus("Unchecked task", false)
		}
	case m.keys.Edit:
		if m.tab != tabNotes || n == 0 {
			return m, nil
		}
		note := m.deps.Notes.Notes()[m.cursor[tabNotes]]
		text, err := m.deps.Notes.BeginEdit(note.ID)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.mode = modeAdd
		m.input.Placeholder = "Note"
		m.input.SetValue(text)
		m.input.Focus()
		m.setStatus("Editing note: Enter to save, Esc to cancel", false)
	case m.keys.Delete:
		if n == 0 {
			return m, nil
		}
		m.pendingDel = m.deleteTarget()
		m.confirmDel = true
		m.setStatus(fmt.Sprintf("Delete %q? y/n", m.pendingDel.label), false)
	}
	if m.tab == tabTasks {
		switch key {
		case m.keys.DayForward:
			m.deps.Tasks.ShiftDate(1)
			m.cursor[tabTasks] = 0
		case m.keys.DayBack:
			m.deps.Tasks.ShiftDate(-1)
			m.cursor[tabTasks] = 0
		case m.keys.PickDate:
			m.mode = modeDate
			m.input.Placeholder = "YYYY-MM-DD"
			m.input.SetValue(m.deps.Tasks.Selected())
			m.input.Focus()
			m.setStatus("Type a date and press Enter", false)
		}
	}
	return m, nil
}

func (m Model) startAdd() Model {
	m.input.SetValue("")
	m.input.Focus()
	switch m.tab {
	case tabTasks:
		m.mode = modeAdd
		m.input.Placeholder = "Task"
		m.setStatus("Add task for "+m.deps.Tasks.Selected(), false)
	case tabNotes:
		m.deps.Notes.CancelEdit()
		m.mode = modeAdd
		m.input.Placeholder = "Write your note..."
		m.setStatus("New note: Enter to save, Esc to cancel", false)
	case tabReminders:
		m.mode = modeReminderTime
		m.input.Placeholder = "HH:MM or YYYY-MM-DD HH:MM"
		m.setStatus("Select reminder time", false)
	}
	return m
}

func (m Model) cancelInput() Model {
	if m.tab == tabNotes {
		m.deps.Notes.CancelEdit()
	}
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.remindAt = time.Time{}
	m.setStatus("Cancelled", false)
	return m
}

func (m Model) confirmInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	switch m.mode {
	case modeDate:
		date := strings.TrimSpace(value)
		if _, err := time.Parse(tasks.DateLayout, date); err != nil {
			m.setStatus(tasks.ErrBadDate.Error(), true)
			return m, nil
		}
		m.deps.Tasks.SelectDate(date)
		m.cursor[tabTasks] = 0
		return m.finishInput("Showing " + date), nil

	case modeReminderTime:
		at, err := parseWhen(value, m.deps.Clock.Now())
		if err != nil {
			m.setStatus("Error: "+err.Error(), true)
			return m, nil
		}
		m.remindAt = at
		m.mode = modeReminderMessage
		m.input.SetValue("")
		m.input.Placeholder = "Enter your reminder message"
		m.setStatus("Reminder at "+at.Format(dateTimeLayout)+": type a message", false)
		return m, nil

	case modeReminderMessage:
		r, err := m.deps.Reminders.Set(m.remindAt, value)
		if err != nil {
			m.setStatus("Error: "+err.Error(), true)
			if errors.Is(err, reminders.ErrPastTime) || errors.Is(err, reminders.ErrNoTime) {
				m.mode = modeReminderTime
				m.input.SetValue("")
				m.input.Placeholder = "HH:MM or YYYY-MM-DD HH:MM"
			}
			return m, nil
		}
		m.remindAt = time.Time{}
		return m.finishInput("Reminder set for " + r.Time.Format(timeLayout)), nil
	}

	switch m.tab {
	case tabTasks:
		date := m.deps.Tasks.Selected()
		if _, err := m.deps.Tasks.AddTask(date, value); err != nil {
			// Rejected tasks are dropped without a message.
			return m, nil
		}
		m.cursor[tabTasks] = clampCursor(len(m.visibleTasks())-1, len(m.visibleTasks()))
		return m.finishInput("Added task"), nil
	case tabNotes:
		_, editing := m.deps.Notes.Editing()
		if _, err := m.deps.Notes.Save(value); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		if editing {
			return m.finishInput("Note updated"), nil
		}
		m.cursor[tabNotes] = clampCursor(m.deps.Notes.Len()-1, m.deps.Notes.Len())
		return m.finishInput("Note created"), nil
	}
	return m, nil
}

func (m Model) finishInput(status string) Model {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.setStatus(status, false)
	return m
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.keys.Cancel:
		m.setStatus("Delete cancelled", false)
	case "y", "Y":
		if m.pendingDel == nil {
			m.setStatus("Nothing to delete", false)
			break
		}
		d := m.pendingDel
		var ok bool
		switch d.tab {
		case tabTasks:
			ok = m.deps.Tasks.DeleteTask(d.date, d.taskID)
		case tabNotes:
			ok = m.deps.Notes.Delete(d.id)
		case tabReminders:
			ok = m.deps.Reminders.Delete(d.id)
		}
		if ok {
			m.setStatus("Deleted", false)
		} else {
			m.setStatus("Already gone", false)
		}
		m.cursor[d.tab] = clampCursor(m.cursor[d.tab], m.listLenFor(d.tab))
	default:
		return m, nil
	}
	m.confirmDel = false
	m.pendingDel = nil
	return m, nil
}

func (m Model) deleteTarget() *pendingDelete {
	i := m.cursor[m.tab]
	switch m.tab {
	case tabTasks:
		t := m.visibleTasks()[i]
		return &pendingDelete{tab: tabTasks, date: m.deps.Tasks.Selected(), taskID: t.ID, label: t.Text}
	case tabNotes:
		n := m.deps.Notes.Notes()[i]
		return &pendingDelete{tab: tabNotes, id: n.ID, label: firstLine(n.Text)}
	default:
		r := m.deps.Reminders.Visible()[i]
		return &pendingDelete{tab: tabReminders, id: r.ID, label: r.Message}
	}
}

func (m *Model) setStatus(s string, alert bool) {
	m.status = s
	m.alert = alert
}

func (m Model) visibleTasks() []tasks.Task {
	return m.deps.Tasks.VisibleTasks(m.deps.Tasks.Selected())
}

func (m Model) listLen() int {
	return m.listLenFor(m.tab)
}

func (m Model) listLenFor(t tab) int {
	switch t {
	case tabTasks:
		return len(m.visibleTasks())
	case tabNotes:
		return m.deps.Notes.Len()
	default:
		return len(m.deps.Reminders.Visible())
	}
}

func (m Model) View() string {
	th := themes[m.dark]
	var b strings.Builder

	for t := tab(0); t < tabCount; t++ {
		if t == m.tab {
			b.WriteString(th.tabOn.Render(t.String()))
		} else {
			b.WriteString(th.tabOff.Render(t.String()))
		}
	}
	b.WriteString("\n\n")

	switch m.tab {
	case tabTasks:
		b.WriteString(m.renderTasks(th))
	case tabNotes:
		b.WriteString(m.renderNotes(th))
	case tabReminders:
		b.WriteString(m.renderReminders(th))
	}

	b.WriteString("\n")
	if m.mode != modeList {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.alert {
		b.WriteString(th.alert.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(th.muted.Render(renderHelp(m.keys, m.tab)))
	return b.String()
}

func (m Model) renderTasks(th theme) string {
	var b strings.Builder
	date := m.deps.Tasks.Selected()
	b.WriteString(th.title.Render("Day " + date))
	if dates := m.deps.Tasks.Dates(); len(dates) > 0 {
		b.WriteString(th.muted.Render("  (tasks on " + strings.Join(dates, ", ") + ")"))
	}
	b.WriteString("\n\n")

	list := m.visibleTasks()
	if len(list) == 0 {
		b.WriteString(th.muted.Render("No tasks for this day."))
		b.WriteString("\n")
		return b.String()
	}
	for i, t := range list {
		cursor := " "
		if m.cursor[tabTasks] == i && m.mode == modeList {
			cursor = th.cursor.Render(">")
		}
		line := "[ ] " + t.Text
		if m.deps.Tasks.IsChecked(t.ID) {
			line = th.done.Render("[x] " + t.Text)
		}
		b.WriteString(cursor + " " + line + "\n")
	}
	return b.String()
}

func (m Model) renderNotes(th theme) string {
	var b strings.Builder
	b.WriteString(th.title.Render("Notes"))
	b.WriteString("\n\n")

	list := m.deps.Notes.Notes()
	if len(list) == 0 {
		b.WriteString(th.muted.Render("No notes yet."))
		b.WriteString("\n")
		return b.String()
	}
	editing, _ := m.deps.Notes.Editing()
	for i, n := range list {
		cursor := " "
		if m.cursor[tabNotes] == i && m.mode == modeList {
			cursor = th.cursor.Render(">")
		}
		text := firstLine(n.Text)
		if n.ID == editing {
			text = th.selected.Render(text + " (editing)")
		}
		b.WriteString(cursor + " " + text + "\n")
	}
	return b.String()
}

func (m Model) renderReminders(th theme) string {
	var b strings.Builder
	b.WriteString(th.title.Render("Set Reminder"))
	b.WriteString("\n\n")

	list := m.deps.Reminders.Visible()
	if len(list) == 0 {
		b.WriteString(th.muted.Render("No reminders."))
		b.WriteString("\n")
		return b.String()
	}
	for i, r := range list {
		cursor := " "
		if m.cursor[tabReminders] == i && m.mode == modeList {
			cursor = th.cursor.Render(">")
		}
		style := th.pending
		if r.IsExpired {
			style = th.expired
		}
		b.WriteString(cursor + " " + style.Render(r.Time.Format(timeLayout)+"  "+r.Message) + "\n")
	}
	return b.String()
}

func renderHelp(k config.Keymap, t tab) string {
	common := fmt.Sprintf("%s/%s tabs • %s/%s move • %s add • %s delete • %s theme • %s quit",
		k.NextTab, k.PrevTab, k.Up, k.Down, k.Add, k.Delete, k.Theme, k.Quit)
	switch t {
	case tabTasks:
		return common + fmt.Sprintf(" • %q toggle • %s/%s day • %s date", k.Toggle, k.DayBack, k.DayForward, k.PickDate)
	case tabNotes:
		return common + fmt.Sprintf(" • %s edit", k.Edit)
	default:
		return common
	}
}

// parseWhen reads "15:04" as that time on now's day, or a full
// "2006-01-02 15:04", both in now's location.
func parseWhen(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, reminders.ErrNoTime
	}
	if t, err := time.ParseInLocation(dateTimeLayout, v, now.Location()); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(timeLayout, v, now.Location())
	if err != nil {
		return time.Time{}, errors.New("time must look like HH:MM or YYYY-MM-DD HH:MM")
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
