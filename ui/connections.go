package ui

import (
	"image/color"
	"log"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Node ID format:
//   "c:<connection>"
//   "t:<connection>/<table>"

func ConnectionNodeID(connection string) string { return "c:" + connection }
func TableNodeID(connection, table string) string {
	return "t:" + connection + "/" + table
}

func ParseNodeID(id string) (kind string, connection, table string) {
	if len(id) < 2 {
		return "", "", ""
	}
	kind = id[:1]
	rest := id[2:]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) >= 1 {
		connection = parts[0]
	}
	if len(parts) >= 2 {
		table = parts[1]
	}
	return
}

type LoadTablesFunc func(connection string) ([]string, error)
type OnTableSelectedFunc func(connection, table string)

type connNode struct {
	id       string
	label    string
	depth    int // 0=connection, 1=table
	isBranch bool
	expanded bool
}

// ConnectionTree is the sidebar listing saved connections and, once a
// connection has been opened, its tables.
type ConnectionTree struct {
	list        *widget.List
	searchEntry *widget.Entry
	addBtn      *widget.Button
	deleteBtn   *widget.Button

	mu           sync.Mutex
	connections  []string
	visible      []connNode
	children     map[string][]connNode // connection node id -> table nodes
	loading      map[string]bool
	selectedConn string

	searchFilter string

	LoadTables           LoadTablesFunc
	OnTableSelected      OnTableSelectedFunc
	OnConnectionSelected func(connection string)
	OnAddConnection      func()
	OnDeleteConnection   func(connection string)

	Container fyne.CanvasObject
}

func NewConnectionTree() *ConnectionTree {
	e := &ConnectionTree{
		children: make(map[string][]connNode),
		loading:  make(map[string]bool),
	}

	e.searchEntry = widget.NewEntry()
	e.searchEntry.SetPlaceHolder("Filter connections & tables...")
	e.searchEntry.OnChanged = func(text string) {
		e.mu.Lock()
		e.searchFilter = text
		e.mu.Unlock()
		e.rebuildVisible()
	}

	e.addBtn = widget.NewButton("New Connection", func() {
		if e.OnAddConnection != nil {
			e.OnAddConnection()
		}
	})

	e.deleteBtn = widget.NewButton("Delete", func() {
		e.mu.Lock()
		connection := e.selectedConn
		e.mu.Unlock()
		if connection != "" && e.OnDeleteConnection != nil {
			e.OnDeleteConnection(connection)
		}
	})

	e.list = widget.NewList(
		func() int {
			e.mu.Lock()
			defer e.mu.Unlock()
			return len(e.visible)
		},
		func() fyne.CanvasObject {
			spacer := widget.NewLabel("")
			icon := widget.NewIcon(theme.NavigateNextIcon())
			label := canvas.NewText("template", color.White)
			leftGroup := container.NewHBox(spacer, icon)
			return container.NewBorder(nil, nil, leftGroup, nil, label)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			e.mu.Lock()
			if id >= len(e.visible) {
				e.mu.Unlock()
				return
			}
			node := e.visible[id]
			e.mu.Unlock()

			c := obj.(*fyne.Container)
			label := c.Objects[0].(*canvas.Text)
			leftGroup := c.Objects[1].(*fyne.Container)
			spacer := leftGroup.Objects[0].(*widget.Label)
			icon := leftGroup.Objects[1].(*widget.Icon)

			indent := ""
			for i := 0; i < node.depth; i++ {
				indent += "    "
			}
			spacer.SetText(indent)

			label.Text = node.label
			label.Color = connNodeColor(node)
			label.TextSize = theme.Size(theme.SizeNameText)
			label.TextStyle = fyne.TextStyle{}

			if node.isBranch {
				if node.expanded {
					icon.SetResource(theme.MoveDownIcon())
				} else {
					icon.SetResource(theme.NavigateNextIcon())
				}
			} else {
				icon.SetResource(theme.DocumentIcon())
			}
			label.Refresh()
		},
	)

	e.list.OnSelected = func(id widget.ListItemID) {
		e.list.UnselectAll()
		e.mu.Lock()
		if id >= len(e.visible) {
			e.mu.Unlock()
			return
		}
		node := e.visible[id]
		e.mu.Unlock()

		if node.isBranch {
			_, connection, _ := ParseNodeID(node.id)
			e.mu.Lock()
			e.selectedConn = connection
			e.mu.Unlock()
			if e.OnConnectionSelected != nil {
				e.OnConnectionSelected(connection)
			}
			e.toggleBranch(node.id)
		} else {
			kind, connection, table := ParseNodeID(node.id)
			e.mu.Lock()
			e.selectedConn = connection
			e.mu.Unlock()
			if kind == "t" && e.OnTableSelected != nil {
				e.OnTableSelected(connection, table)
			}
		}
	}

	top := container.NewVBox(container.NewGridWithColumns(2, e.addBtn, e.deleteBtn), e.searchEntry)
	e.Container = container.NewBorder(top, nil, nil, nil, e.list)

	return e
}

// rebuildVisible reconstructs the visible list, applying the search filter.
// Must NOT hold e.mu when calling.
func (e *ConnectionTree) rebuildVisible() {
	e.mu.Lock()

	filter := strings.ToLower(e.searchFilter)

	// Preserve expansion across rebuilds.
	expandedSet := make(map[string]bool)
	for _, n := range e.visible {
		if n.expanded {
			expandedSet[n.id] = true
		}
	}

	var nodes []connNode
	for _, name := range e.connections {
		nid := ConnectionNodeID(name)
		tables := e.children[nid]

		if filter != "" {
			nameMatch := strings.Contains(strings.ToLower(name), filter)
			var tblMatches []connNode
			for _, t := range tables {
				if strings.Contains(strings.ToLower(t.label), filter) {
					tblMatches = append(tblMatches, t)
				}
			}
			if !nameMatch && len(tblMatches) == 0 {
				continue
			}
			nodes = append(nodes, connNode{
				id:       nid,
				label:    name,
				isBranch: true,
				expanded: len(tblMatches) > 0,
			})
			nodes = append(nodes, tblMatches...)
			continue
		}

		node := connNode{
			id:       nid,
			label:    name,
			isBranch: true,
			expanded: expandedSet[nid],
		}
		nodes = append(nodes, node)
		if node.expanded {
			nodes = append(nodes, tables...)
		}
	}

	e.visible = nodes
	e.mu.Unlock()
	fyne.Do(func() { e.list.Refresh() })
}

// SetConnections replaces the saved connection list.
func (e *ConnectionTree) SetConnections(names []string) {
	e.mu.Lock()
	e.connections = names
	known := false
	for _, n := range names {
		if n == e.selectedConn {
			known = true
			break
		}
	}
	if !known {
		e.selectedConn = ""
	}
	e.mu.Unlock()
	e.rebuildVisible()
}

// SetTables caches the table list for a connection and refreshes the tree.
func (e *ConnectionTree) SetTables(connection string, tables []string) {
	e.mu.Lock()
	nid := ConnectionNodeID(connection)
	tblNodes := make([]connNode, len(tables))
	for i, t := range tables {
		tblNodes[i] = connNode{
			id:    TableNodeID(connection, t),
			label: t,
			depth: 1,
		}
	}
	e.children[nid] = tblNodes
	e.mu.Unlock()
	e.rebuildVisible()
}

func connNodeColor(node connNode) color.Color {
	t := fyne.CurrentApp().Settings().Theme()
	if node.depth == 1 {
		return t.Color("explorerTable", 0)
	}
	return t.Color("explorerConnection", 0)
}

func (e *ConnectionTree) toggleBranch(id string) {
	e.mu.Lock()

	idx := -1
	for i, n := range e.visible {
		if n.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return
	}

	node := &e.visible[idx]

	if node.expanded {
		// Collapse: remove table rows from the visible list.
		node.expanded = false
		removeCount := e.countDescendants(idx)
		if removeCount > 0 {
			e.visible = append(e.visible[:idx+1], e.visible[idx+1+removeCount:]...)
		}
		e.mu.Unlock()
		fyne.Do(func() { e.list.Refresh() })
		return
	}

	// Expand from cache when we have it.
	if cached, ok := e.children[id]; ok {
		node.expanded = true
		e.insertChildren(idx, cached)
		e.mu.Unlock()
		fyne.Do(func() { e.list.Refresh() })
		return
	}

	// Need to load.
	if e.loading[id] {
		e.mu.Unlock()
		return
	}
	e.loading[id] = true
	e.mu.Unlock()

	if e.LoadTables == nil {
		return
	}

	go func() {
		_, connection, _ := ParseNodeID(id)
		log.Printf("connections: loading tables for %s", connection)
		tables, err := e.LoadTables(connection)

		e.mu.Lock()
		delete(e.loading, id)

		if err != nil {
			e.mu.Unlock()
			log.Printf("connections: error loading tables for %s: %v", connection, err)
			return
		}

		tblNodes := make([]connNode, len(tables))
		for i, t := range tables {
			tblNodes[i] = connNode{
				id:    TableNodeID(connection, t),
				label: t,
				depth: 1,
			}
		}
		e.children[id] = tblNodes

		for i := range e.visible {
			if e.visible[i].id == id {
				e.visible[i].expanded = true
				e.insertChildren(i, tblNodes)
				break
			}
		}

		e.mu.Unlock()
		fyne.Do(func() { e.list.Refresh() })
	}()
}

// countDescendants returns how many items after idx are descendants.
// Must be called with e.mu held.
func (e *ConnectionTree) countDescendants(idx int) int {
	parentDepth := e.visible[idx].depth
	count := 0
	for i := idx + 1; i < len(e.visible); i++ {
		if e.visible[i].depth <= parentDepth {
			break
		}
		count++
	}
	return count
}

// insertChildren inserts childNodes after idx in the visible list.
// Must be called with e.mu held.
func (e *ConnectionTree) insertChildren(idx int, childNodes []connNode) {
	if len(childNodes) == 0 {
		return
	}
	tail := make([]connNode, len(e.visible[idx+1:]))
	copy(tail, e.visible[idx+1:])
	e.visible = append(e.visible[:idx+1], childNodes...)
	e.visible = append(e.visible, tail...)
}
