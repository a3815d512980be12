package ui

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"querydesk/sqltext"
)

type RunQueryFunc func(connection, sql string)

type queryTab struct {
	editor     *SQLEditor
	cancel     func()
	connection string
}

type Editor struct {
	tabs        *container.DocTabs
	connections *widget.Select
	runBtn      *widget.Button
	runStmtBtn  *widget.Button
	stopBtn     *widget.Button
	status      *widget.Label

	mu       sync.Mutex
	tabData  map[*container.TabItem]*queryTab
	tabCount int
	catalog  *sqltext.Catalog

	RunQuery RunQueryFunc
	OnStop   func()

	// OnConnectionSelected is called when the user picks a connection in the
	// toolbar dropdown.
	OnConnectionSelected func(name string)

	Container fyne.CanvasObject
}

func NewEditor() *Editor {
	e := &Editor{
		tabData: make(map[*container.TabItem]*queryTab),
	}

	e.connections = widget.NewSelect([]string{}, func(s string) {
		e.mu.Lock()
		if tab := e.tabs.Selected(); tab != nil {
			if qt, ok := e.tabData[tab]; ok {
				qt.connection = s
			}
		}
		fn := e.OnConnectionSelected
		e.mu.Unlock()
		if fn != nil {
			fn(s)
		}
	})
	e.connections.PlaceHolder = "Select Connection"

	e.runBtn = widget.NewButton("Run", e.run)
	e.runStmtBtn = widget.NewButton("Run Statement", e.runStatement)
	e.stopBtn = widget.NewButton("Stop", func() {
		if e.OnStop != nil {
			e.OnStop()
		}
	})
	e.status = widget.NewLabel("Ln 1, Col 1")

	e.tabs = container.NewDocTabs()
	e.tabs.OnClosed = func(tab *container.TabItem) {
		e.mu.Lock()
		delete(e.tabData, tab)
		e.mu.Unlock()
	}
	e.tabs.CreateTab = func() *container.TabItem {
		return e.newTab()
	}

	// Start with one tab
	first := e.newTab()
	e.tabs.Append(first)
	e.tabs.Select(first)

	toolbar := container.NewHBox(e.connections, e.runBtn, e.runStmtBtn, e.stopBtn, layout.NewSpacer(), e.status)
	e.Container = container.NewBorder(toolbar, nil, nil, nil, e.tabs)

	return e
}

func (e *Editor) newTab() *container.TabItem {
	e.tabCount++
	editor := NewSQLEditor()
	editor.SetPlaceHolder("Enter SQL query...")
	editor.OnSubmit = e.run
	editor.OnCursorMoved = func(line, col int) {
		fyne.Do(func() {
			e.status.SetText(fmt.Sprintf("Ln %d, Col %d", line, col))
		})
	}

	tab := container.NewTabItem(fmt.Sprintf("Query %d", e.tabCount), editor)

	e.mu.Lock()
	editor.SetCatalog(e.catalog)
	e.tabData[tab] = &queryTab{
		editor:     editor,
		connection: e.connections.Selected,
	}
	e.mu.Unlock()
	return tab
}

func (e *Editor) currentTab() (*queryTab, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab := e.tabs.Selected()
	qt, ok := e.tabData[tab]
	return qt, ok
}

// run executes the selection when one exists, otherwise the whole buffer.
func (e *Editor) run() {
	qt, ok := e.currentTab()
	if !ok {
		return
	}
	sql := strings.TrimSpace(qt.editor.SelectedText())
	if sql == "" {
		sql = strings.TrimSpace(qt.editor.Text())
	}
	e.dispatch(qt, sql)
}

// runStatement executes the selection when one exists, otherwise the
// statement containing the cursor.
func (e *Editor) runStatement() {
	qt, ok := e.currentTab()
	if !ok {
		return
	}
	if sql := strings.TrimSpace(qt.editor.SelectedText()); sql != "" {
		e.dispatch(qt, sql)
		return
	}
	text := qt.editor.Text()
	st, found := sqltext.StatementAt(text, qt.editor.CursorOffset())
	if !found {
		return
	}
	e.dispatch(qt, st.Text(text))
}

func (e *Editor) dispatch(qt *queryTab, sql string) {
	connection := qt.connection
	if connection == "" {
		connection = e.connections.Selected
	}
	if sql == "" || connection == "" {
		return
	}
	if e.RunQuery != nil {
		e.RunQuery(connection, sql)
	}
}

func (e *Editor) SetConnections(names []string) {
	fyne.Do(func() {
		e.connections.Options = names
		if len(names) > 0 && e.connections.Selected == "" {
			e.connections.SetSelected(names[0])
		}
	})
}

func (e *Editor) SetConnection(name string) {
	fyne.Do(func() {
		e.connections.SetSelected(name)
	})
}

func (e *Editor) GetCurrentSQL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab := e.tabs.Selected()
	if qt, ok := e.tabData[tab]; ok {
		return qt.editor.Text()
	}
	return ""
}

func (e *Editor) GetCurrentConnection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab := e.tabs.Selected()
	if qt, ok := e.tabData[tab]; ok && qt.connection != "" {
		return qt.connection
	}
	return e.connections.Selected
}

func (e *Editor) SetSQL(sql string) {
	e.mu.Lock()
	tab := e.tabs.Selected()
	qt, ok := e.tabData[tab]
	e.mu.Unlock()
	if ok {
		fyne.Do(func() {
			qt.editor.SetText(sql)
		})
	}
}

// SetCatalog distributes a fresh schema snapshot to every open tab.
func (e *Editor) SetCatalog(cat *sqltext.Catalog) {
	e.mu.Lock()
	e.catalog = cat
	editors := make([]*SQLEditor, 0, len(e.tabData))
	for _, qt := range e.tabData {
		editors = append(editors, qt.editor)
	}
	e.mu.Unlock()
	for _, ed := range editors {
		ed.SetCatalog(cat)
	}
}
