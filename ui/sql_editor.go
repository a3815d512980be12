package ui

import (
	"image/color"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"querydesk/sqltext"
)

const maxACDisplay = 8

// SQLEditor is a custom TextGrid-based SQL editor with syntax highlighting,
// schema-aware autocomplete and block editing.
type SQLEditor struct {
	widget.BaseWidget
	grid      *widget.TextGrid
	lines     []string
	cursorRow int
	cursorCol int
	focused   bool
	blinkOn   bool
	onChanged func(string)
	OnSubmit  func() // called on Cmd+Enter / Ctrl+Enter

	// OnCursorMoved is called after any cursor movement, for the status bar.
	OnCursorMoved func(line, col int)

	// Selection state: anchor is where selection started, cursor is the other end.
	hasSelection bool
	anchorRow    int
	anchorCol    int

	// Shift key tracking for Shift+Arrow selection (via desktop.Keyable).
	shifting bool

	// Mouse drag state.
	dragging bool

	// Undo/redo stacks.
	undoStack []undoEntry
	redoStack []undoEntry

	mu          sync.Mutex
	placeholder string
	stopBlink   chan struct{}

	// Autocomplete state.
	catalog    *sqltext.Catalog
	acTrigger  sqltext.Trigger
	acItems    []sqltext.Suggestion
	acVisible  bool
	acSelected int

	// AC rendering (canvas primitives, created in CreateRenderer).
	acBg         *canvas.Rectangle
	acSelBg      *canvas.Rectangle
	acTexts      [maxACDisplay]*canvas.Text
	acItemHeight float32
	acDropdownX  float32
	acDropdownY  float32
	acDropdownW  float32
	acDropdownH  float32
}

const maxUndoStack = 500

type undoEntry struct {
	lines     []string
	cursorRow int
	cursorCol int
}

// Compile-time interface checks.
var (
	_ fyne.Focusable    = (*SQLEditor)(nil)
	_ fyne.Tappable     = (*SQLEditor)(nil)
	_ fyne.Draggable    = (*SQLEditor)(nil)
	_ fyne.Shortcutable = (*SQLEditor)(nil)
	_ fyne.Tabbable     = (*SQLEditor)(nil)
	_ desktop.Keyable   = (*SQLEditor)(nil)
)

// NewSQLEditor creates a new SQL editor.
func NewSQLEditor() *SQLEditor {
	grid := widget.NewTextGrid()
	grid.TabWidth = 4
	grid.Scroll = fyne.ScrollNone

	e := &SQLEditor{
		grid:  grid,
		lines: []string{""},
	}
	e.ExtendBaseWidget(e)
	return e
}

// Text returns the full editor content.
func (e *SQLEditor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.lines, "\n")
}

// SetText replaces the editor content.
func (e *SQLEditor) SetText(text string) {
	e.mu.Lock()
	if text == "" {
		e.lines = []string{""}
	} else {
		e.lines = strings.Split(text, "\n")
	}
	e.cursorRow = len(e.lines) - 1
	e.cursorCol = len(e.lines[e.cursorRow])
	e.hasSelection = false
	e.mu.Unlock()
	e.refreshContent()
	e.notifyChanged()
}

// SetCatalog replaces the schema snapshot used for autocomplete. Pass nil to
// fall back to dictionary-only suggestions.
func (e *SQLEditor) SetCatalog(cat *sqltext.Catalog) {
	e.mu.Lock()
	e.catalog = cat
	e.mu.Unlock()
	e.updateAutocomplete()
}

// SetOnChanged sets a callback invoked after every edit.
func (e *SQLEditor) SetOnChanged(fn func(string)) {
	e.mu.Lock()
	e.onChanged = fn
	e.mu.Unlock()
}

// SetPlaceHolder sets placeholder text shown when the editor is empty and unfocused.
func (e *SQLEditor) SetPlaceHolder(text string) {
	e.mu.Lock()
	e.placeholder = text
	e.mu.Unlock()
	e.refreshContent()
}

// CursorOffset returns the cursor position as a byte offset into Text().
func (e *SQLEditor) CursorOffset() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offsetLocked(e.cursorRow, e.cursorCol)
}

// CursorLineCol returns the 1-based cursor line and column.
func (e *SQLEditor) CursorLineCol() (int, int) {
	e.mu.Lock()
	text := strings.Join(e.lines, "\n")
	off := e.offsetLocked(e.cursorRow, e.cursorCol)
	e.mu.Unlock()
	return sqltext.LineCol(text, off)
}

// SelectedText returns the current selection, or "" when there is none.
func (e *SQLEditor) SelectedText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasSelection {
		return ""
	}
	return e.selectedTextLocked()
}

func (e *SQLEditor) notifyChanged() {
	e.mu.Lock()
	fn := e.onChanged
	e.mu.Unlock()
	if fn != nil {
		fn(e.Text())
	}
}

func (e *SQLEditor) notifyCursorMoved() {
	fn := e.OnCursorMoved
	if fn == nil {
		return
	}
	line, col := e.CursorLineCol()
	fn(line, col)
}

// offsetLocked converts (row, col) to a byte offset. Caller must hold mu.
func (e *SQLEditor) offsetLocked(row, col int) int {
	off := 0
	for i := 0; i < row; i++ {
		off += len(e.lines[i]) + 1
	}
	return off + col
}

// setOffsetLocked moves the cursor to a byte offset. Caller must hold mu.
func (e *SQLEditor) setOffsetLocked(off int) {
	for i, line := range e.lines {
		if off <= len(line) {
			e.cursorRow = i
			e.cursorCol = off
			return
		}
		off -= len(line) + 1
	}
	e.cursorRow = len(e.lines) - 1
	e.cursorCol = len(e.lines[e.cursorRow])
}

// selectionLocked returns the selection (or the cursor) as byte offsets.
// Caller must hold mu.
func (e *SQLEditor) selectionLocked() sqltext.Selection {
	if !e.hasSelection {
		off := e.offsetLocked(e.cursorRow, e.cursorCol)
		return sqltext.Selection{Start: off, End: off}
	}
	sRow, sCol, eRow, eCol := e.orderedSelection()
	return sqltext.Selection{
		Start: e.offsetLocked(sRow, sCol),
		End:   e.offsetLocked(eRow, eCol),
	}
}

// orderedSelection returns selection bounds with start before end.
func (e *SQLEditor) orderedSelection() (sRow, sCol, eRow, eCol int) {
	if e.anchorRow < e.cursorRow || (e.anchorRow == e.cursorRow && e.anchorCol <= e.cursorCol) {
		return e.anchorRow, e.anchorCol, e.cursorRow, e.cursorCol
	}
	return e.cursorRow, e.cursorCol, e.anchorRow, e.anchorCol
}

// selectedTextLocked returns the text within the selection. Caller must hold mu.
func (e *SQLEditor) selectedTextLocked() string {
	sRow, sCol, eRow, eCol := e.orderedSelection()
	if sRow == eRow {
		return e.lines[sRow][sCol:eCol]
	}
	var parts []string
	parts = append(parts, e.lines[sRow][sCol:])
	for i := sRow + 1; i < eRow; i++ {
		parts = append(parts, e.lines[i])
	}
	parts = append(parts, e.lines[eRow][:eCol])
	return strings.Join(parts, "\n")
}

// deleteSelectionLocked removes selected text and positions cursor. Caller must hold mu.
func (e *SQLEditor) deleteSelectionLocked() {
	if !e.hasSelection {
		return
	}
	sRow, sCol, eRow, eCol := e.orderedSelection()
	before := e.lines[sRow][:sCol]
	after := e.lines[eRow][eCol:]
	e.lines[sRow] = before + after
	if eRow > sRow {
		e.lines = append(e.lines[:sRow+1], e.lines[eRow+1:]...)
	}
	e.cursorRow = sRow
	e.cursorCol = sCol
	e.hasSelection = false
}

// beginSelectionLocked starts a new selection at the current cursor if none exists.
func (e *SQLEditor) beginSelectionLocked() {
	if !e.hasSelection {
		e.anchorRow = e.cursorRow
		e.anchorCol = e.cursorCol
		e.hasSelection = true
	}
}

func (e *SQLEditor) saveUndoLocked() {
	snap := undoEntry{
		lines:     make([]string, len(e.lines)),
		cursorRow: e.cursorRow,
		cursorCol: e.cursorCol,
	}
	copy(snap.lines, e.lines)
	e.undoStack = append(e.undoStack, snap)
	if len(e.undoStack) > maxUndoStack {
		e.undoStack = e.undoStack[1:]
	}
	e.redoStack = e.redoStack[:0]
}

func (e *SQLEditor) doUndo() {
	e.mu.Lock()
	if len(e.undoStack) == 0 {
		e.mu.Unlock()
		return
	}
	// Save current state to redo stack.
	current := undoEntry{
		lines:     make([]string, len(e.lines)),
		cursorRow: e.cursorRow,
		cursorCol: e.cursorCol,
	}
	copy(current.lines, e.lines)
	e.redoStack = append(e.redoStack, current)

	// Pop from undo stack.
	snap := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.lines = snap.lines
	e.cursorRow = snap.cursorRow
	e.cursorCol = snap.cursorCol
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) doRedo() {
	e.mu.Lock()
	if len(e.redoStack) == 0 {
		e.mu.Unlock()
		return
	}
	// Save current state to undo stack.
	current := undoEntry{
		lines:     make([]string, len(e.lines)),
		cursorRow: e.cursorRow,
		cursorCol: e.cursorCol,
	}
	copy(current.lines, e.lines)
	e.undoStack = append(e.undoStack, current)

	// Pop from redo stack.
	snap := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.lines = snap.lines
	e.cursorRow = snap.cursorRow
	e.cursorCol = snap.cursorCol
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

// Columns are byte offsets into the line; cursor movement steps by whole
// runes so the cursor can never land inside a multi-byte character.
func (e *SQLEditor) cursorLeftLocked() {
	if e.cursorCol > 0 {
		_, size := utf8.DecodeLastRuneInString(e.lines[e.cursorRow][:e.cursorCol])
		e.cursorCol -= size
	} else if e.cursorRow > 0 {
		e.cursorRow--
		e.cursorCol = len(e.lines[e.cursorRow])
	}
}

func (e *SQLEditor) cursorRightLocked() {
	line := e.lines[e.cursorRow]
	if e.cursorCol < len(line) {
		_, size := utf8.DecodeRuneInString(line[e.cursorCol:])
		e.cursorCol += size
	} else if e.cursorRow < len(e.lines)-1 {
		e.cursorRow++
		e.cursorCol = 0
	}
}

func (e *SQLEditor) cursorUpLocked() {
	if e.cursorRow > 0 {
		e.cursorRow--
		if e.cursorCol > len(e.lines[e.cursorRow]) {
			e.cursorCol = len(e.lines[e.cursorRow])
		}
		e.cursorCol = snapRuneStart(e.lines[e.cursorRow], e.cursorCol)
	}
}

func (e *SQLEditor) cursorDownLocked() {
	if e.cursorRow < len(e.lines)-1 {
		e.cursorRow++
		if e.cursorCol > len(e.lines[e.cursorRow]) {
			e.cursorCol = len(e.lines[e.cursorRow])
		}
		e.cursorCol = snapRuneStart(e.lines[e.cursorRow], e.cursorCol)
	}
}

// snapRuneStart backs a byte column up to the nearest rune boundary.
func snapRuneStart(line string, col int) int {
	for col > 0 && col < len(line) && !utf8.RuneStart(line[col]) {
		col--
	}
	return col
}

// wordLeftLocked and wordRightLocked move by word boundaries over the whole
// buffer, crossing line breaks. Caller must hold mu.
func (e *SQLEditor) wordLeftLocked() {
	text := strings.Join(e.lines, "\n")
	off := e.offsetLocked(e.cursorRow, e.cursorCol)
	e.setOffsetLocked(sqltext.WordLeft(text, off))
}

func (e *SQLEditor) wordRightLocked() {
	text := strings.Join(e.lines, "\n")
	off := e.offsetLocked(e.cursorRow, e.cursorCol)
	e.setOffsetLocked(sqltext.WordRight(text, off))
}

// applyBlockOpLocked runs a line-block transform over the selection (or the
// cursor line) and restores a sensible cursor. Caller must hold mu.
func (e *SQLEditor) applyBlockOpLocked(op func(string, sqltext.Selection) (string, bool)) bool {
	text := strings.Join(e.lines, "\n")
	sel := e.selectionLocked()
	out, changed := op(text, sel)
	if !changed {
		return false
	}
	e.saveUndoLocked()
	row := e.cursorRow
	e.lines = strings.Split(out, "\n")
	if row >= len(e.lines) {
		row = len(e.lines) - 1
	}
	e.cursorRow = row
	if e.cursorCol > len(e.lines[row]) {
		e.cursorCol = len(e.lines[row])
	}
	e.hasSelection = false
	return true
}

func (e *SQLEditor) doIndent() {
	e.mu.Lock()
	changed := e.applyBlockOpLocked(sqltext.Indent)
	e.mu.Unlock()
	if changed {
		e.resetBlink()
		e.refreshContent()
		e.notifyChanged()
	}
}

func (e *SQLEditor) doOutdent() {
	e.mu.Lock()
	changed := e.applyBlockOpLocked(sqltext.Outdent)
	e.mu.Unlock()
	if changed {
		e.resetBlink()
		e.refreshContent()
		e.notifyChanged()
	}
}

func (e *SQLEditor) doToggleComment() {
	e.mu.Lock()
	changed := e.applyBlockOpLocked(sqltext.ToggleComment)
	e.mu.Unlock()
	if changed {
		e.resetBlink()
		e.refreshContent()
		e.notifyChanged()
	}
}

// doDuplicateLine copies the cursor line below itself.
func (e *SQLEditor) doDuplicateLine() {
	e.mu.Lock()
	e.saveUndoLocked()
	row := e.cursorRow
	line := e.lines[row]
	e.lines = append(e.lines[:row+1], append([]string{line}, e.lines[row+1:]...)...)
	e.cursorRow = row + 1
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) startBlink() {
	e.stopBlinkTimer()
	stop := make(chan struct{})
	e.mu.Lock()
	e.stopBlink = stop
	e.blinkOn = true
	e.mu.Unlock()
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.mu.Lock()
				e.blinkOn = !e.blinkOn
				e.mu.Unlock()
				e.refreshContent()
			}
		}
	}()
}

func (e *SQLEditor) stopBlinkTimer() {
	e.mu.Lock()
	if e.stopBlink != nil {
		close(e.stopBlink)
		e.stopBlink = nil
	}
	e.mu.Unlock()
}

func (e *SQLEditor) resetBlink() {
	e.mu.Lock()
	e.blinkOn = true
	e.mu.Unlock()
	e.startBlink()
	e.notifyCursorMoved()
}

func (e *SQLEditor) KeyDown(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		e.mu.Lock()
		e.shifting = true
		e.mu.Unlock()
	}
}

func (e *SQLEditor) KeyUp(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		e.mu.Lock()
		e.shifting = false
		e.mu.Unlock()
	}
}

func (e *SQLEditor) FocusGained() {
	e.mu.Lock()
	e.focused = true
	e.blinkOn = true
	e.mu.Unlock()
	e.startBlink()
	e.refreshContent()
}

func (e *SQLEditor) FocusLost() {
	e.hideACPopup()
	e.stopBlinkTimer()
	e.mu.Lock()
	e.focused = false
	e.hasSelection = false
	e.shifting = false
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) TypedRune(r rune) {
	e.mu.Lock()
	e.saveUndoLocked()
	if e.hasSelection {
		e.deleteSelectionLocked()
	}
	line := e.lines[e.cursorRow]
	e.lines[e.cursorRow] = line[:e.cursorCol] + string(r) + line[e.cursorCol:]
	e.cursorCol += len(string(r))
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
	e.updateAutocomplete()
}

func (e *SQLEditor) TypedKey(ev *fyne.KeyEvent) {
	// Intercept keys when autocomplete is visible.
	e.mu.Lock()
	acVis := e.acVisible
	e.mu.Unlock()
	if acVis {
		switch ev.Name {
		case fyne.KeyUp:
			e.mu.Lock()
			if e.acSelected > 0 {
				e.acSelected--
			}
			e.mu.Unlock()
			e.refreshAC()
			return
		case fyne.KeyDown, fyne.KeyTab:
			e.mu.Lock()
			maxIdx := len(e.acItems) - 1
			if maxIdx > maxACDisplay-1 {
				maxIdx = maxACDisplay - 1
			}
			if e.acSelected < maxIdx {
				e.acSelected++
			} else {
				e.acSelected = 0
			}
			e.mu.Unlock()
			e.refreshAC()
			return
		case fyne.KeyReturn:
			e.acceptCompletion()
			return
		case fyne.KeyEscape:
			e.hideACPopup()
			return
		}
	}

	// Tab indents or outdents when a selection is active.
	if ev.Name == fyne.KeyTab {
		e.mu.Lock()
		hasSel := e.hasSelection
		shifting := e.shifting
		e.mu.Unlock()
		if shifting {
			e.doOutdent()
			return
		}
		if hasSel {
			e.doIndent()
			return
		}
	}

	e.mu.Lock()
	edited := true
	// Save undo state before destructive operations.
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyBackspace, fyne.KeyDelete, fyne.KeyTab:
		e.saveUndoLocked()
	}
	switch ev.Name {
	case fyne.KeyReturn:
		if e.hasSelection {
			e.deleteSelectionLocked()
		}
		line := e.lines[e.cursorRow]
		before := line[:e.cursorCol]
		after := line[e.cursorCol:]
		e.lines[e.cursorRow] = before
		newLines := make([]string, len(e.lines)+1)
		copy(newLines, e.lines[:e.cursorRow+1])
		newLines[e.cursorRow+1] = after
		copy(newLines[e.cursorRow+2:], e.lines[e.cursorRow+1:])
		e.lines = newLines
		e.cursorRow++
		e.cursorCol = 0

	case fyne.KeyBackspace:
		if e.hasSelection {
			e.deleteSelectionLocked()
		} else if e.cursorCol > 0 {
			line := e.lines[e.cursorRow]
			_, size := utf8.DecodeLastRuneInString(line[:e.cursorCol])
			e.lines[e.cursorRow] = line[:e.cursorCol-size] + line[e.cursorCol:]
			e.cursorCol -= size
		} else if e.cursorRow > 0 {
			prevLen := len(e.lines[e.cursorRow-1])
			e.lines[e.cursorRow-1] += e.lines[e.cursorRow]
			e.lines = append(e.lines[:e.cursorRow], e.lines[e.cursorRow+1:]...)
			e.cursorRow--
			e.cursorCol = prevLen
		}

	case fyne.KeyDelete:
		if e.hasSelection {
			e.deleteSelectionLocked()
		} else {
			line := e.lines[e.cursorRow]
			if e.cursorCol < len(line) {
				_, size := utf8.DecodeRuneInString(line[e.cursorCol:])
				e.lines[e.cursorRow] = line[:e.cursorCol] + line[e.cursorCol+size:]
			} else if e.cursorRow < len(e.lines)-1 {
				e.lines[e.cursorRow] += e.lines[e.cursorRow+1]
				e.lines = append(e.lines[:e.cursorRow+1], e.lines[e.cursorRow+2:]...)
			}
		}

	case fyne.KeyLeft:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorLeftLocked()
		} else if e.hasSelection {
			sRow, sCol, _, _ := e.orderedSelection()
			e.cursorRow, e.cursorCol = sRow, sCol
			e.hasSelection = false
		} else {
			e.cursorLeftLocked()
		}

	case fyne.KeyRight:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorRightLocked()
		} else if e.hasSelection {
			_, _, eRow, eCol := e.orderedSelection()
			e.cursorRow, e.cursorCol = eRow, eCol
			e.hasSelection = false
		} else {
			e.cursorRightLocked()
		}

	case fyne.KeyUp:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorUpLocked()
		} else if e.hasSelection {
			sRow, sCol, _, _ := e.orderedSelection()
			e.cursorRow, e.cursorCol = sRow, sCol
			e.hasSelection = false
		} else {
			e.cursorUpLocked()
		}

	case fyne.KeyDown:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorDownLocked()
		} else if e.hasSelection {
			_, _, eRow, eCol := e.orderedSelection()
			e.cursorRow, e.cursorCol = eRow, eCol
			e.hasSelection = false
		} else {
			e.cursorDownLocked()
		}

	case fyne.KeyHome:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
		} else {
			e.hasSelection = false
		}
		e.cursorCol = 0

	case fyne.KeyEnd:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
		} else {
			e.hasSelection = false
		}
		e.cursorCol = len(e.lines[e.cursorRow])

	case fyne.KeyTab:
		line := e.lines[e.cursorRow]
		e.lines[e.cursorRow] = line[:e.cursorCol] + "  " + line[e.cursorCol:]
		e.cursorCol += 2

	default:
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	if edited {
		e.notifyChanged()
		e.updateAutocomplete()
	}
}

func (e *SQLEditor) clampPositionLocked(row, col int) (int, int) {
	if row < 0 {
		row = 0
	}
	if row >= len(e.lines) {
		row = len(e.lines) - 1
	}
	if col < 0 {
		col = 0
	}
	if col > len(e.lines[row]) {
		col = len(e.lines[row])
	}
	return row, snapRuneStart(e.lines[row], col)
}

func (e *SQLEditor) Tapped(ev *fyne.PointEvent) {
	// Check if tap is on an autocomplete item.
	e.mu.Lock()
	if e.acVisible {
		pos := ev.Position
		if pos.X >= e.acDropdownX && pos.X <= e.acDropdownX+e.acDropdownW &&
			pos.Y >= e.acDropdownY && pos.Y <= e.acDropdownY+e.acDropdownH {
			idx := int((pos.Y - e.acDropdownY) / e.acItemHeight)
			if idx >= 0 && idx < len(e.acItems) && idx < maxACDisplay {
				e.acSelected = idx
				e.mu.Unlock()
				e.acceptCompletion()
				return
			}
		}
	}
	e.mu.Unlock()

	c := fyne.CurrentApp().Driver().CanvasForObject(e)
	if c != nil {
		c.Focus(e)
	}

	e.hideACPopup()

	row, col := e.grid.CursorLocationForPosition(ev.Position)
	e.mu.Lock()
	row, col = e.clampPositionLocked(row, col)
	e.cursorRow = row
	e.cursorCol = col
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
}

func (e *SQLEditor) Dragged(ev *fyne.DragEvent) {
	c := fyne.CurrentApp().Driver().CanvasForObject(e)
	if c != nil {
		c.Focus(e)
	}

	e.mu.Lock()
	if !e.dragging {
		// First drag event: compute start position and set anchor there.
		startPos := fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
		row, col := e.grid.CursorLocationForPosition(startPos)
		row, col = e.clampPositionLocked(row, col)
		e.anchorRow = row
		e.anchorCol = col
		e.hasSelection = true
		e.dragging = true
	}
	// Update cursor to current drag position.
	row, col := e.grid.CursorLocationForPosition(ev.Position)
	row, col = e.clampPositionLocked(row, col)
	e.cursorRow = row
	e.cursorCol = col
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) DragEnd() {
	e.mu.Lock()
	e.dragging = false
	// If anchor == cursor, clear selection (was just a click-drag with no movement).
	if e.hasSelection && e.anchorRow == e.cursorRow && e.anchorCol == e.cursorCol {
		e.hasSelection = false
	}
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) TypedShortcut(s fyne.Shortcut) {
	// Handle CustomShortcut (modifier + key combinations)
	if cs, ok := s.(*desktop.CustomShortcut); ok {
		e.handleCustomShortcut(cs)
		return
	}

	switch s.(type) {
	case *fyne.ShortcutCopy:
		e.doCopy()
	case *fyne.ShortcutPaste:
		e.doPaste()
	case *fyne.ShortcutCut:
		e.doCut()
	case *fyne.ShortcutSelectAll:
		e.doSelectAll()
	case *fyne.ShortcutUndo:
		e.doUndo()
	case *fyne.ShortcutRedo:
		e.doRedo()
	}
}

func (e *SQLEditor) handleCustomShortcut(cs *desktop.CustomShortcut) {
	// Ctrl/Cmd+Enter → run query
	if cs.KeyName == fyne.KeyReturn {
		if e.OnSubmit != nil {
			e.OnSubmit()
		}
		return
	}

	hasWordMod := cs.Modifier&(fyne.KeyModifierSuper|fyne.KeyModifierControl|fyne.KeyModifierAlt) != 0
	hasShift := cs.Modifier&fyne.KeyModifierShift != 0
	hasCmdOrCtrl := cs.Modifier&(fyne.KeyModifierSuper|fyne.KeyModifierControl) != 0

	switch cs.KeyName {
	case fyne.KeyZ:
		if hasCmdOrCtrl {
			if hasShift {
				e.doRedo()
			} else {
				e.doUndo()
			}
			return
		}
	case fyne.KeySlash:
		if hasCmdOrCtrl {
			e.doToggleComment()
			return
		}
	case fyne.KeyD:
		if hasCmdOrCtrl {
			e.doDuplicateLine()
			return
		}
	case fyne.KeyLeftBracket:
		if hasCmdOrCtrl {
			e.doOutdent()
			return
		}
	case fyne.KeyRightBracket:
		if hasCmdOrCtrl {
			e.doIndent()
			return
		}
	case fyne.KeyLeft:
		if hasWordMod {
			e.mu.Lock()
			if hasShift {
				e.beginSelectionLocked()
			} else {
				e.hasSelection = false
			}
			e.wordLeftLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyRight:
		if hasWordMod {
			e.mu.Lock()
			if hasShift {
				e.beginSelectionLocked()
			} else {
				e.hasSelection = false
			}
			e.wordRightLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyUp:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorUpLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyDown:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorDownLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyHome:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorCol = 0
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyEnd:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorCol = len(e.lines[e.cursorRow])
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyBackspace:
		// Cmd+Backspace: delete to start of line; Alt+Backspace: delete previous word
		e.mu.Lock()
		e.saveUndoLocked()
		if e.hasSelection {
			e.deleteSelectionLocked()
		} else if cs.Modifier&(fyne.KeyModifierSuper|fyne.KeyModifierControl) != 0 {
			// Delete to start of line
			line := e.lines[e.cursorRow]
			e.lines[e.cursorRow] = line[e.cursorCol:]
			e.cursorCol = 0
		} else if cs.Modifier&fyne.KeyModifierAlt != 0 {
			// Delete previous word
			oldRow := e.cursorRow
			oldCol := e.cursorCol
			e.wordLeftLocked()
			if e.cursorRow == oldRow {
				line := e.lines[oldRow]
				e.lines[oldRow] = line[:e.cursorCol] + line[oldCol:]
			} else {
				e.cursorRow = oldRow
				e.cursorCol = 0
				line := e.lines[oldRow]
				e.lines[oldRow] = line[oldCol:]
			}
		}
		e.mu.Unlock()
		e.resetBlink()
		e.refreshContent()
		e.notifyChanged()
	}
}

func (e *SQLEditor) doSelectAll() {
	e.mu.Lock()
	if len(e.lines) == 1 && e.lines[0] == "" {
		e.mu.Unlock()
		return
	}
	e.anchorRow = 0
	e.anchorCol = 0
	e.cursorRow = len(e.lines) - 1
	e.cursorCol = len(e.lines[e.cursorRow])
	e.hasSelection = true
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) doCopy() {
	e.mu.Lock()
	var text string
	if e.hasSelection {
		text = e.selectedTextLocked()
	}
	e.mu.Unlock()
	if text != "" {
		fyne.CurrentApp().Clipboard().SetContent(text)
	}
}

func (e *SQLEditor) doCut() {
	e.mu.Lock()
	if !e.hasSelection {
		e.mu.Unlock()
		return
	}
	e.saveUndoLocked()
	text := e.selectedTextLocked()
	e.deleteSelectionLocked()
	e.mu.Unlock()
	if text != "" {
		fyne.CurrentApp().Clipboard().SetContent(text)
	}
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) doPaste() {
	content := fyne.CurrentApp().Clipboard().Content()
	if content == "" {
		return
	}

	pasteLines := strings.Split(content, "\n")

	e.mu.Lock()
	e.saveUndoLocked()
	if e.hasSelection {
		e.deleteSelectionLocked()
	}
	line := e.lines[e.cursorRow]
	before := line[:e.cursorCol]
	after := line[e.cursorCol:]

	if len(pasteLines) == 1 {
		e.lines[e.cursorRow] = before + pasteLines[0] + after
		e.cursorCol += len(pasteLines[0])
	} else {
		e.lines[e.cursorRow] = before + pasteLines[0]
		newLines := make([]string, 0, len(e.lines)+len(pasteLines)-1)
		newLines = append(newLines, e.lines[:e.cursorRow+1]...)
		for i := 1; i < len(pasteLines)-1; i++ {
			newLines = append(newLines, pasteLines[i])
		}
		lastPaste := pasteLines[len(pasteLines)-1]
		newLines = append(newLines, lastPaste+after)
		newLines = append(newLines, e.lines[e.cursorRow+1:]...)
		e.lines = newLines
		e.cursorRow += len(pasteLines) - 1
		e.cursorCol = len(lastPaste)
	}
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) AcceptsTab() bool {
	return true
}

func (e *SQLEditor) refreshContent() {
	e.mu.Lock()
	lines := make([]string, len(e.lines))
	copy(lines, e.lines)
	focused := e.focused
	blinkOn := e.blinkOn
	placeholder := e.placeholder
	curRow := e.cursorRow
	curCol := e.cursorCol
	hasSel := e.hasSelection
	var selSRow, selSCol, selERow, selECol int
	if hasSel {
		selSRow, selSCol, selERow, selECol = e.orderedSelection()
	}
	e.mu.Unlock()

	fullText := strings.Join(lines, "\n")

	if fullText == "" && !focused && placeholder != "" {
		e.showPlaceholder(placeholder)
		return
	}

	rows := e.buildGridRows(fullText, lines, curRow, curCol, focused, blinkOn, hasSel, selSRow, selSCol, selERow, selECol)

	fyne.Do(func() {
		e.grid.Rows = rows
		e.grid.Refresh()
	})
}

func (e *SQLEditor) showPlaceholder(text string) {
	th := fyne.CurrentApp().Settings().Theme()
	v := fyne.CurrentApp().Settings().ThemeVariant()
	placeholderColor := th.Color(theme.ColorNamePlaceHolder, v)
	style := &widget.CustomTextGridStyle{FGColor: placeholderColor}

	phLines := strings.Split(text, "\n")
	rows := make([]widget.TextGridRow, len(phLines))
	for i, line := range phLines {
		var cells []widget.TextGridCell
		for _, r := range line {
			cells = append(cells, widget.TextGridCell{Rune: r, Style: style})
		}
		rows[i] = widget.TextGridRow{Cells: cells}
	}

	fyne.Do(func() {
		e.grid.Rows = rows
		e.grid.Refresh()
	})
}

// spanColorName maps a highlight kind to the theme color name, or "" for
// plain text.
func spanColorName(k sqltext.SpanKind) string {
	switch k {
	case sqltext.KindKeyword:
		return "sqlKeyword"
	case sqltext.KindType:
		return "sqlType"
	case sqltext.KindFunction:
		return "sqlFunction"
	case sqltext.KindString:
		return "sqlString"
	case sqltext.KindQuotedIdent:
		return "sqlQuoted"
	case sqltext.KindNumber:
		return "sqlNumber"
	case sqltext.KindComment:
		return "sqlComment"
	}
	return ""
}

func (e *SQLEditor) buildGridRows(fullText string, lines []string, curRow, curCol int, focused, blinkOn, hasSel bool, selSRow, selSCol, selERow, selECol int) []widget.TextGridRow {
	th := fyne.CurrentApp().Settings().Theme()
	v := fyne.CurrentApp().Settings().ThemeVariant()

	// Theme colors
	syntaxColors := map[string]color.Color{
		"sqlKeyword":  th.Color("sqlKeyword", v),
		"sqlType":     th.Color("sqlType", v),
		"sqlFunction": th.Color("sqlFunction", v),
		"sqlString":   th.Color("sqlString", v),
		"sqlQuoted":   th.Color("sqlQuoted", v),
		"sqlNumber":   th.Color("sqlNumber", v),
		"sqlComment":  th.Color("sqlComment", v),
	}
	selectionColor := th.Color(theme.ColorNameSelection, v)
	cursorColor := th.Color(theme.ColorNamePrimary, v)
	cursorTextColor := th.Color(theme.ColorNameForegroundOnPrimary, v)

	// Map each (row, byte col) to a syntax color name from highlight spans.
	type pos struct{ r, c int }
	syntaxMap := map[pos]string{}
	row, col := 0, 0
	spans := sqltext.Highlight(fullText)
	spanIdx := 0
	for off, ch := range fullText {
		if ch == '\n' {
			row++
			col = 0
			continue
		}
		for spanIdx < len(spans) && off >= spans[spanIdx].End {
			spanIdx++
		}
		if spanIdx < len(spans) {
			if name := spanColorName(spans[spanIdx].Kind); name != "" {
				syntaxMap[pos{row, col}] = name
			}
		}
		col += len(string(ch))
	}

	// Build rows with syntax + selection + cursor styles
	rows := make([]widget.TextGridRow, len(lines))
	for i, line := range lines {
		var cells []widget.TextGridCell
		for j, r := range line {
			cell := widget.TextGridCell{Rune: r}

			var fgColor color.Color
			if name, ok := syntaxMap[pos{i, j}]; ok {
				fgColor = syntaxColors[name]
			}

			inSel := hasSel && inSelection(i, j, selSRow, selSCol, selERow, selECol)
			isCursor := focused && blinkOn && i == curRow && j == curCol && !hasSel

			if isCursor {
				cell.Style = &widget.CustomTextGridStyle{
					FGColor: cursorTextColor,
					BGColor: cursorColor,
				}
			} else if inSel {
				cell.Style = &widget.CustomTextGridStyle{
					FGColor: fgColor,
					BGColor: selectionColor,
				}
			} else if fgColor != nil {
				cell.Style = &widget.CustomTextGridStyle{FGColor: fgColor}
			}

			cells = append(cells, cell)
		}

		// Handle cursor/selection at end of line (past last character)
		if focused && blinkOn && i == curRow && curCol == len(line) && !hasSel {
			cells = append(cells, widget.TextGridCell{
				Rune: ' ',
				Style: &widget.CustomTextGridStyle{
					FGColor: cursorTextColor,
					BGColor: cursorColor,
				},
			})
		} else if hasSel && inSelection(i, len(line), selSRow, selSCol, selERow, selECol) {
			cells = append(cells, widget.TextGridCell{
				Rune:  ' ',
				Style: &widget.CustomTextGridStyle{BGColor: selectionColor},
			})
		}

		rows[i] = widget.TextGridRow{Cells: cells}
	}

	return rows
}

func inSelection(row, col, sRow, sCol, eRow, eCol int) bool {
	if row < sRow || row > eRow {
		return false
	}
	if row == sRow && col < sCol {
		return false
	}
	if row == eRow && col >= eCol {
		return false
	}
	return true
}

// updateAutocomplete extracts the trigger token under the cursor, asks the
// suggestion engine for candidates and shows/hides the popup.
func (e *SQLEditor) updateAutocomplete() {
	e.mu.Lock()
	text := strings.Join(e.lines, "\n")
	off := e.offsetLocked(e.cursorRow, e.cursorCol)
	cat := e.catalog
	e.mu.Unlock()

	tr, ok := sqltext.TriggerWord(text, off)
	if !ok {
		e.hideACPopup()
		return
	}
	items := sqltext.Suggest(tr.Word, cat)
	// Nothing to offer when the only candidate is the word already typed.
	if len(items) == 1 && items[0].Insert == tr.Word {
		items = nil
	}
	if len(items) == 0 {
		e.hideACPopup()
		return
	}

	e.mu.Lock()
	e.acTrigger = tr
	e.acItems = items
	e.acSelected = 0
	e.mu.Unlock()
	e.showACPopup()
}

// showACPopup sets autocomplete visible and computes dropdown geometry.
func (e *SQLEditor) showACPopup() {
	e.mu.Lock()
	e.acVisible = true
	curRow := e.cursorRow
	curCol := e.cursorCol
	wordLen := len(e.acTrigger.Word)
	n := len(e.acItems)
	if n > maxACDisplay {
		n = maxACDisplay
	}
	e.mu.Unlock()

	charSize := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	itemH := charSize.Height + theme.Padding()

	e.mu.Lock()
	e.acDropdownX = float32(curCol-wordLen) * charSize.Width
	e.acDropdownY = float32(curRow+1) * charSize.Height
	e.acDropdownW = float32(260)
	e.acDropdownH = float32(n) * itemH
	e.acItemHeight = itemH
	e.mu.Unlock()

	e.refreshAC()
}

// hideACPopup hides the autocomplete dropdown.
func (e *SQLEditor) hideACPopup() {
	e.mu.Lock()
	e.acVisible = false
	e.mu.Unlock()
	e.refreshAC()
}

// refreshAC updates the autocomplete canvas primitives.
func (e *SQLEditor) refreshAC() {
	e.mu.Lock()
	visible := e.acVisible
	var items []sqltext.Suggestion
	var selected int
	var x, y, w, itemH float32
	if visible {
		items = make([]sqltext.Suggestion, len(e.acItems))
		copy(items, e.acItems)
		selected = e.acSelected
		x = e.acDropdownX
		y = e.acDropdownY
		w = e.acDropdownW
		itemH = e.acItemHeight
	}
	bg := e.acBg
	selBg := e.acSelBg
	texts := e.acTexts
	e.mu.Unlock()

	// Canvas objects not yet created (renderer not initialized).
	if bg == nil {
		return
	}

	fyne.Do(func() {
		if !visible || len(items) == 0 {
			bg.Hide()
			selBg.Hide()
			for i := range texts {
				if texts[i] != nil {
					texts[i].Hide()
				}
			}
			return
		}

		th := fyne.CurrentApp().Settings().Theme()
		v := fyne.CurrentApp().Settings().ThemeVariant()

		n := len(items)
		if n > maxACDisplay {
			n = maxACDisplay
		}
		h := float32(n) * itemH

		// Background
		bg.FillColor = th.Color(theme.ColorNameMenuBackground, v)
		bg.StrokeColor = th.Color(theme.ColorNameSeparator, v)
		bg.StrokeWidth = 1
		bg.Resize(fyne.NewSize(w, h))
		bg.Move(fyne.NewPos(x, y))
		bg.Show()
		bg.Refresh()

		// Selection highlight
		if selected >= 0 && selected < n {
			selBg.FillColor = th.Color(theme.ColorNameSelection, v)
			selBg.Resize(fyne.NewSize(w, itemH))
			selBg.Move(fyne.NewPos(x, y+float32(selected)*itemH))
			selBg.Show()
			selBg.Refresh()
		} else {
			selBg.Hide()
		}

		// Text items: candidate plus its kind tag.
		fgColor := th.Color(theme.ColorNameForeground, v)
		pad := theme.Padding()
		for i := 0; i < maxACDisplay; i++ {
			if texts[i] == nil {
				continue
			}
			if i < n {
				texts[i].Text = items[i].Display + "  " + items[i].Kind.Label()
				texts[i].Color = fgColor
				texts[i].TextSize = theme.TextSize()
				texts[i].Move(fyne.NewPos(x+pad, y+float32(i)*itemH))
				texts[i].Show()
				texts[i].Refresh()
			} else {
				texts[i].Hide()
			}
		}
	})
}

// acceptCompletion replaces the whole trigger token with the selected
// candidate's insertion text.
func (e *SQLEditor) acceptCompletion() {
	e.mu.Lock()
	if !e.acVisible || len(e.acItems) == 0 {
		e.mu.Unlock()
		return
	}
	sel := e.acSelected
	if sel < 0 || sel >= len(e.acItems) {
		sel = 0
	}
	insert := e.acItems[sel].Insert
	tr := e.acTrigger

	e.saveUndoLocked()
	text := strings.Join(e.lines, "\n")
	if tr.Start > len(text) || tr.End > len(text) {
		e.mu.Unlock()
		e.hideACPopup()
		return
	}
	out := text[:tr.Start] + insert + text[tr.End:]
	e.lines = strings.Split(out, "\n")
	e.setOffsetLocked(tr.Start + len(insert))
	e.hasSelection = false
	e.mu.Unlock()

	e.hideACPopup()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

type sqlEditorRenderer struct {
	editor  *SQLEditor
	grid    *widget.TextGrid
	objects []fyne.CanvasObject
}

func (e *SQLEditor) CreateRenderer() fyne.WidgetRenderer {
	e.ExtendBaseWidget(e)

	// Create AC canvas primitives.
	e.acBg = canvas.NewRectangle(color.Transparent)
	e.acBg.Hide()
	e.acSelBg = canvas.NewRectangle(color.Transparent)
	e.acSelBg.Hide()
	for i := range e.acTexts {
		t := canvas.NewText("", color.White)
		t.TextStyle = fyne.TextStyle{Monospace: true}
		t.TextSize = theme.TextSize()
		t.Hide()
		e.acTexts[i] = t
	}

	objects := make([]fyne.CanvasObject, 0, 2+maxACDisplay+1)
	objects = append(objects, e.grid, e.acBg, e.acSelBg)
	for _, t := range e.acTexts {
		objects = append(objects, t)
	}

	return &sqlEditorRenderer{editor: e, grid: e.grid, objects: objects}
}

func (r *sqlEditorRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)
	r.grid.Move(fyne.NewPos(0, 0))
}

func (r *sqlEditorRenderer) MinSize() fyne.Size {
	return r.grid.MinSize()
}

func (r *sqlEditorRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *sqlEditorRenderer) Refresh() {
	r.grid.Refresh()
}

func (r *sqlEditorRenderer) Destroy() {
	r.editor.stopBlinkTimer()
}
