package main

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"querydesk/ai"
	"querydesk/db"
	"querydesk/sqltext"
	"querydesk/store"
	"querydesk/ui"
)

// aiRowLimit caps rows returned to the assistant's run_sql_query tool.
const aiRowLimit = 50

type App struct {
	window fyne.Window
	store  *store.Store

	tree      *ui.ConnectionTree
	editor    *ui.Editor
	results   *ui.Results
	schema    *ui.SchemaView
	history   *ui.History
	favorites *ui.Favorites
	assistant *ui.Assistant

	ctx       context.Context
	cancelRun context.CancelFunc

	mu       sync.Mutex
	configs  map[string]store.Connection
	conns    map[string]*db.Conn
	catalogs map[string]*sqltext.Catalog
	aiClient *ai.Client
}

func NewApp(window fyne.Window, st *store.Store, ctx context.Context) *App {
	a := &App{
		window:   window,
		store:    st,
		ctx:      ctx,
		configs:  make(map[string]store.Connection),
		conns:    make(map[string]*db.Conn),
		catalogs: make(map[string]*sqltext.Catalog),
	}

	a.tree = ui.NewConnectionTree()
	a.editor = ui.NewEditor()
	a.results = ui.NewResults()
	a.schema = ui.NewSchemaView()
	a.history = ui.NewHistory()
	a.favorites = ui.NewFavorites()
	a.assistant = ui.NewAssistant()

	a.wireCallbacks()
	return a
}

func connConfig(c store.Connection) db.Config {
	return db.Config{
		Name:     c.Name,
		Driver:   c.Driver,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		Path:     c.Path,
	}
}

// testConnection dials with the form input and closes right away.
func (a *App) testConnection(in ui.ConnectionInput) error {
	ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
	defer cancel()
	c, err := db.Open(ctx, db.Config{
		Name:     in.Name,
		Driver:   in.Driver,
		Host:     in.Host,
		Port:     in.Port,
		User:     in.User,
		Password: in.Password,
		Database: in.Database,
		Path:     in.Path,
	})
	if err != nil {
		return err
	}
	return c.Close()
}

// conn returns the open connection for a saved name, dialing on first use.
func (a *App) conn(name string) (*db.Conn, error) {
	a.mu.Lock()
	if c, ok := a.conns[name]; ok {
		a.mu.Unlock()
		return c, nil
	}
	cfg, ok := a.configs[name]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown connection %q", name)
	}

	c, err := db.Open(a.ctx, connConfig(cfg))
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.conns[name] = c
	a.mu.Unlock()
	return c, nil
}

func (a *App) wireCallbacks() {
	// Connection tree: lazy table loading
	a.tree.LoadTables = func(connection string) ([]string, error) {
		cat, err := a.loadCatalog(connection)
		if err != nil {
			return nil, err
		}
		return tableNames(cat), nil
	}

	// Connection tree: connection clicked -> select it in the editor
	a.tree.OnConnectionSelected = func(connection string) {
		a.editor.SetConnection(connection)
	}

	// Connection tree: table selected -> show schema + generate SELECT query
	a.tree.OnTableSelected = func(connection, table string) {
		go func() {
			cat, err := a.loadCatalog(connection)
			if err != nil {
				a.showError("Schema Error", err)
				return
			}
			tbl := cat.Table(table)
			if tbl == nil {
				return
			}
			a.schema.SetSchema(connection, table, tbl.Columns)

			sql := fmt.Sprintf("SELECT *\nFROM %s\nLIMIT 100", table)
			a.editor.SetSQL(sql)
			a.editor.SetConnection(connection)
		}()
	}

	a.tree.OnAddConnection = func() {
		ui.ShowConnectionDialog(a.window, a.testConnection, func(in ui.ConnectionInput) {
			_, err := a.store.SaveConnection(store.Connection{
				Name:     in.Name,
				Driver:   in.Driver,
				Host:     in.Host,
				Port:     in.Port,
				User:     in.User,
				Password: in.Password,
				Database: in.Database,
				Path:     in.Path,
			})
			if err != nil {
				a.showError("Save Error", err)
				return
			}
			go a.refreshConnections()
		})
	}

	a.tree.OnDeleteConnection = func(connection string) {
		dialog.ShowConfirm("Delete Connection",
			fmt.Sprintf("Delete connection %q?", connection),
			func(ok bool) {
				if !ok {
					return
				}
				go a.deleteConnection(connection)
			},
			a.window,
		)
	}

	// Editor: run query
	a.editor.RunQuery = func(connection, sql string) {
		go a.runQuery(connection, sql)
	}

	// Editor: stop
	a.editor.OnStop = func() {
		if a.cancelRun != nil {
			a.cancelRun()
		}
	}

	// Editor: connection changed in the dropdown -> refresh the schema
	// snapshot feeding autocomplete, and restore any saved draft.
	a.editor.OnConnectionSelected = func(connection string) {
		go func() {
			if draft, err := a.store.GetDraft(connection); err == nil && draft != "" && a.editor.GetCurrentSQL() == "" {
				a.editor.SetSQL(draft)
			}
			cat, err := a.loadCatalog(connection)
			if err != nil {
				log.Printf("app: catalog for %s: %v", connection, err)
				return
			}
			a.editor.SetCatalog(cat)
			a.tree.SetTables(connection, tableNames(cat))
		}()
	}

	// History: select -> load SQL
	a.history.OnSelect = func(sql string) {
		a.editor.SetSQL(sql)
	}
	a.history.OnRefresh = func() {
		go a.refreshHistory()
	}
	a.history.OnClear = func() {
		go func() {
			if err := a.store.ClearHistory(); err != nil {
				a.showError("History Error", err)
				return
			}
			a.refreshHistory()
		}()
	}

	// Favorites: select -> load SQL
	a.favorites.OnSelect = func(sql string) {
		a.editor.SetSQL(sql)
	}
	a.favorites.OnDelete = func(id int64) {
		_ = a.store.DeleteFavorite(id)
		go a.refreshFavorites()
	}
	a.favorites.OnRefresh = func() {
		go a.refreshFavorites()
	}

	// Assistant
	a.assistant.OnSendMessage = func(userMsg string) {
		go a.handleAssistantMessage(userMsg)
	}
	a.assistant.OnRunSQL = func(connection, sql string) {
		a.editor.SetSQL(sql)
		a.editor.SetConnection(connection)
		go a.runQuery(connection, sql)
	}
	a.assistant.SetOnShowSettings(a.showAssistantSettings)
}

func (a *App) showAssistantSettings() {
	keyEntry := widget.NewPasswordEntry()
	if key, err := a.store.GetSetting("anthropic_api_key"); err == nil {
		keyEntry.SetText(key)
	}
	modelEntry := widget.NewEntry()
	modelEntry.SetPlaceHolder("default")
	if model, err := a.store.GetSetting("ai_model"); err == nil {
		modelEntry.SetText(model)
	}
	dialog.ShowForm("Assistant Settings", "Save", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("API Key", keyEntry),
			widget.NewFormItem("Model", modelEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			_ = a.store.SetSetting("anthropic_api_key", keyEntry.Text)
			_ = a.store.SetSetting("ai_model", modelEntry.Text)
			a.mu.Lock()
			a.aiClient = nil
			a.mu.Unlock()
		},
		a.window,
	)
}

// loadCatalog fetches (and caches) the schema snapshot for a connection.
func (a *App) loadCatalog(connection string) (*sqltext.Catalog, error) {
	a.mu.Lock()
	if cat, ok := a.catalogs[connection]; ok {
		a.mu.Unlock()
		return cat, nil
	}
	a.mu.Unlock()

	c, err := a.conn(connection)
	if err != nil {
		return nil, err
	}
	cat, err := c.FetchCatalog(a.ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.catalogs[connection] = cat
	a.mu.Unlock()
	return cat, nil
}

// invalidateCatalog drops the cached snapshot so DDL shows up on next load.
func (a *App) invalidateCatalog(connection string) {
	a.mu.Lock()
	delete(a.catalogs, connection)
	a.mu.Unlock()
}

func tableNames(cat *sqltext.Catalog) []string {
	names := make([]string, len(cat.Tables))
	for i, t := range cat.Tables {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}

func (a *App) runQuery(connection, sqlText string) {
	if a.cancelRun != nil {
		a.cancelRun()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelRun = cancel
	defer cancel()

	a.results.SetStatus("Running query...")
	start := time.Now()

	c, err := a.conn(connection)
	if err != nil {
		a.results.SetStatus(fmt.Sprintf("Error: %v", err))
		return
	}

	result, err := c.Execute(ctx, sqlText)
	dur := time.Since(start)

	if err != nil {
		a.results.SetStatus(fmt.Sprintf("Error: %v", err))
		_ = a.store.AddHistory(sqlText, connection, dur, 0, err.Error())
		a.refreshHistory()
		return
	}

	a.results.SetData(result.Columns, result.Rows)
	a.results.SetStatus(fmt.Sprintf("%d rows | %s",
		result.RowCount,
		result.Duration.Round(time.Millisecond),
	))

	_ = a.store.AddHistory(sqlText, connection, dur, result.RowCount, "")
	a.refreshHistory()

	if isSchemaChange(sqlText) {
		a.invalidateCatalog(connection)
	}
}

var schemaChangeRe = regexp.MustCompile(`(?i)^\s*(create|alter|drop)\b`)

func isSchemaChange(sqlText string) bool {
	return schemaChangeRe.MatchString(sqlText)
}

// deleteConnection drops the saved config, closes any open handle and
// forgets the cached catalog before refreshing the sidebar.
func (a *App) deleteConnection(connection string) {
	a.mu.Lock()
	cfg, known := a.configs[connection]
	if c, open := a.conns[connection]; open {
		_ = c.Close()
		delete(a.conns, connection)
	}
	delete(a.catalogs, connection)
	delete(a.configs, connection)
	a.mu.Unlock()

	if !known {
		return
	}
	if err := a.store.DeleteConnection(cfg.ID); err != nil {
		a.showError("Delete Error", err)
		return
	}
	a.refreshConnections()
}

func (a *App) refreshConnections() {
	conns, err := a.store.ListConnections()
	if err != nil {
		return
	}
	names := make([]string, len(conns))
	a.mu.Lock()
	for i, c := range conns {
		names[i] = c.Name
		a.configs[c.Name] = c
	}
	a.mu.Unlock()

	// Recently queried connections float to the top of the sidebar and the
	// editor dropdown; the rest keep their stored order.
	if recent, err := a.store.ListRecentConnections(20); err == nil {
		names = orderByRecency(names, recent)
	}

	a.tree.SetConnections(names)
	a.editor.SetConnections(names)
}

// orderByRecency moves the names that appear in recent (most recent first) to
// the front, preserving the existing order of everything else. Recent names
// with no saved connection are ignored.
func orderByRecency(names, recent []string) []string {
	saved := make(map[string]bool, len(names))
	for _, n := range names {
		saved[n] = true
	}
	out := make([]string, 0, len(names))
	placed := make(map[string]bool, len(recent))
	for _, r := range recent {
		if saved[r] && !placed[r] {
			out = append(out, r)
			placed[r] = true
		}
	}
	for _, n := range names {
		if !placed[n] {
			out = append(out, n)
		}
	}
	return out
}

func (a *App) refreshHistory() {
	entries, err := a.store.ListHistory(200)
	if err != nil {
		return
	}
	uiEntries := make([]ui.HistoryEntry, len(entries))
	for i, e := range entries {
		uiEntries[i] = ui.HistoryEntry{
			ID:         e.ID,
			SQL:        e.SQL,
			Connection: e.Connection,
			Timestamp:  e.Timestamp,
			Duration:   e.Duration,
			RowCount:   e.RowCount,
			Error:      e.Error,
		}
	}
	a.history.SetEntries(uiEntries)
}

func (a *App) refreshFavorites() {
	entries, err := a.store.ListFavorites()
	if err != nil {
		return
	}
	uiEntries := make([]ui.FavoriteEntry, len(entries))
	for i, e := range entries {
		uiEntries[i] = ui.FavoriteEntry{
			ID:         e.ID,
			Name:       e.Name,
			SQL:        e.SQL,
			Connection: e.Connection,
		}
	}
	a.favorites.SetEntries(uiEntries)
}

func (a *App) saveFavorite() {
	sql := a.editor.GetCurrentSQL()
	if sql == "" {
		return
	}
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Favorite name")
	dialog.ShowForm("Save Favorite", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", nameEntry)},
		func(ok bool) {
			if !ok || nameEntry.Text == "" {
				return
			}
			connection := a.editor.GetCurrentConnection()
			if err := a.store.AddFavorite(nameEntry.Text, sql, connection); err != nil {
				a.showError("Save Error", err)
				return
			}
			a.refreshFavorites()
		},
		a.window,
	)
}

// LoadInitial loads saved connections, history and favorites from the local DB.
func (a *App) LoadInitial() {
	go func() {
		a.refreshConnections()
		a.refreshHistory()
		a.refreshFavorites()
	}()
}

func (a *App) toggleTheme() {
	if appTheme.Variant() == theme.VariantDark {
		appTheme.SetVariant(theme.VariantLight)
		_ = a.store.SetSetting("theme_variant", "light")
	} else {
		appTheme.SetVariant(theme.VariantDark)
		_ = a.store.SetSetting("theme_variant", "dark")
	}
	fyne.CurrentApp().Settings().SetTheme(appTheme)
}

// enforceQueryLimit appends a LIMIT clause to SELECT-style statements that do
// not already carry one, so assistant queries stay small.
func enforceQueryLimit(sqlText string, limit int) string {
	trimmed := strings.TrimSpace(sqlText)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return sqlText
	}
	if limitRe.MatchString(trimmed) {
		return sqlText
	}
	trimmed = strings.TrimRight(trimmed, "; \n\t")
	return fmt.Sprintf("%s\nLIMIT %d", trimmed, limit)
}

var limitRe = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// formatResultText renders a query result as plain text for the assistant.
func formatResultText(r *db.Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString("\n")
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "(%d rows)", r.RowCount)
	return b.String()
}

// formatSchemaText renders a table's columns as plain text for the assistant.
func formatSchemaText(tbl *sqltext.Table) string {
	var b strings.Builder
	for _, col := range tbl.Columns {
		b.WriteString(col.Name)
		b.WriteString("  ")
		b.WriteString(col.Type)
		if col.PrimaryKey {
			b.WriteString("  PRIMARY KEY")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

const assistantSystemPrompt = `You are a SQL assistant inside a desktop database client.
The user has saved PostgreSQL and SQLite connections. Use the available tools
to discover connections, tables and schemas before writing queries. When you
propose a final query, put it in a ` + "```sql" + ` code block. Prefer small
exploratory queries; results are limited to a few rows.`

func (a *App) aiClientLazy() (*ai.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.aiClient != nil {
		return a.aiClient, nil
	}
	if key, err := a.store.GetSetting("anthropic_api_key"); err == nil && key != "" {
		a.aiClient = ai.NewWithKey(key)
		return a.aiClient, nil
	}
	c, err := ai.New()
	if err != nil {
		return nil, err
	}
	a.aiClient = c
	return c, nil
}

func (a *App) toolExecutor() ai.ToolExecutor {
	return ai.ToolExecutor{
		ListConnections: func(ctx context.Context) (string, error) {
			conns, err := a.store.ListConnections()
			if err != nil {
				return "", err
			}
			names := make([]string, len(conns))
			for i, c := range conns {
				names[i] = fmt.Sprintf("%s (%s)", c.Name, c.Driver)
			}
			return strings.Join(names, "\n"), nil
		},
		ListTables: func(ctx context.Context, connection string) (string, error) {
			cat, err := a.loadCatalog(connection)
			if err != nil {
				return "", err
			}
			return strings.Join(tableNames(cat), "\n"), nil
		},
		GetTableSchema: func(ctx context.Context, connection, table string) (string, error) {
			cat, err := a.loadCatalog(connection)
			if err != nil {
				return "", err
			}
			tbl := cat.Table(table)
			if tbl == nil {
				return "", fmt.Errorf("table %q not found in %s", table, connection)
			}
			return formatSchemaText(tbl), nil
		},
		RunSQLQuery: func(ctx context.Context, connection, sqlText string) (string, error) {
			c, err := a.conn(connection)
			if err != nil {
				return "", err
			}
			result, err := c.Execute(ctx, enforceQueryLimit(sqlText, aiRowLimit))
			if err != nil {
				return "", err
			}
			return formatResultText(result), nil
		},
	}
}

func (a *App) handleAssistantMessage(userMsg string) {
	client, err := a.aiClientLazy()
	if err != nil {
		a.assistant.SetStatus(fmt.Sprintf("AI unavailable: %v", err))
		return
	}

	a.assistant.AddMessage("user", userMsg, "")

	var transcript []ai.Message
	for _, m := range a.assistant.Messages() {
		transcript = append(transcript, ai.Message{Role: m.Role, Content: m.Content})
	}

	model, _ := a.store.GetSetting("ai_model")

	result, err := client.ChatWithTools(
		a.ctx,
		model,
		assistantSystemPrompt,
		ai.BuildHistory(transcript),
		a.toolExecutor(),
		a.assistant.SetStatus,
		func(info ai.ToolCallInfo, toolResult string, isError bool) {
			a.assistant.AddToolCallMessage(info.Name, info.Input, toolResult, isError)
		},
	)
	if err != nil {
		a.assistant.SetStatus(fmt.Sprintf("Error: %v", err))
		return
	}

	sql := ui.ExtractSQL(result.Response)
	if sql == "" {
		sql = result.LastSQL
	}
	a.assistant.AddMessage("assistant", result.Response, sql)
	a.assistant.SetStatus("")
}

func (a *App) BuildUI() fyne.CanvasObject {
	// Bottom tabs: Results | Schema | History | Favorites | Assistant
	bottomTabs := container.NewAppTabs(
		container.NewTabItem("Results", a.results.Container),
		container.NewTabItem("Schema", a.schema.Container),
		container.NewTabItem("History", a.history.Container),
		container.NewTabItem("Favorites", a.favorites.Container),
		container.NewTabItem("Assistant", a.assistant.Container),
	)

	// Right side: editor (top) | bottom tabs
	rightSplit := container.NewVSplit(a.editor.Container, bottomTabs)
	rightSplit.Offset = 0.4

	// Main: connection tree (left) | right
	mainSplit := container.NewHSplit(a.tree.Container, rightSplit)
	mainSplit.Offset = 0.2

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Save Favorite", theme.Icon(theme.IconNameDocumentSave), a.saveFavorite),
		widget.NewButtonWithIcon("", theme.Icon(theme.IconNameColorPalette), a.toggleTheme),
	)

	return container.NewBorder(toolbar, nil, nil, nil, mainSplit)
}

func (a *App) showError(title string, err error) {
	log.Printf("%s: %v", title, err)
	fyne.Do(func() {
		dialog.ShowError(err, a.window)
	})
}

// Close saves the current draft and shuts down open connections.
func (a *App) Close() {
	if connection := a.editor.GetCurrentConnection(); connection != "" {
		_ = a.store.SaveDraft(connection, a.editor.GetCurrentSQL())
	}
	a.mu.Lock()
	for _, c := range a.conns {
		_ = c.Close()
	}
	a.conns = make(map[string]*db.Conn)
	a.mu.Unlock()
}
