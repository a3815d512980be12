package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"querydesk/sqltext"
)

type SchemaView struct {
	table    *widget.Table
	titleBar *widget.Label
	columns  []sqltext.Column

	Container fyne.CanvasObject
}

var schemaColumns = []string{"Name", "Type", "Key"}

func NewSchemaView() *SchemaView {
	s := &SchemaView{
		titleBar: widget.NewLabel("Select a table to view schema"),
	}

	s.table = widget.NewTableWithHeaders(
		func() (int, int) {
			return len(s.columns), 3
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row >= len(s.columns) {
				return
			}
			col := s.columns[id.Row]
			switch id.Col {
			case 0:
				label.SetText(col.Name)
			case 1:
				label.SetText(col.Type)
			case 2:
				if col.PrimaryKey {
					label.SetText("PK")
				} else {
					label.SetText("")
				}
			}
		},
	)

	s.table.UpdateHeader = func(id widget.TableCellID, template fyne.CanvasObject) {
		label := template.(*widget.Label)
		if id.Row < 0 && id.Col >= 0 && id.Col < len(schemaColumns) {
			label.SetText(schemaColumns[id.Col])
		} else if id.Col < 0 && id.Row >= 0 {
			label.SetText(fmt.Sprintf("%d", id.Row+1))
		}
	}

	s.table.SetColumnWidth(0, 200)
	s.table.SetColumnWidth(1, 160)
	s.table.SetColumnWidth(2, 60)

	s.Container = container.NewBorder(s.titleBar, nil, nil, nil, s.table)
	return s
}

func (s *SchemaView) SetSchema(connection, table string, columns []sqltext.Column) {
	s.titleBar.SetText(fmt.Sprintf("%s / %s", connection, table))
	s.columns = columns
	s.table.Refresh()
}

func (s *SchemaView) Clear() {
	s.titleBar.SetText("Select a table to view schema")
	s.columns = nil
	s.table.Refresh()
}
