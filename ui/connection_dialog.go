package ui

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ConnectionInput is the form data collected by the connection dialog.
type ConnectionInput struct {
	Name     string
	Driver   string // "postgres" or "sqlite"
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Path     string
}

// ShowConnectionDialog opens the new-connection form. onTest is called from a
// goroutine when the user hits Test Connection; onSave is called with the
// validated input when the user confirms.
func ShowConnectionDialog(win fyne.Window, onTest func(ConnectionInput) error, onSave func(ConnectionInput)) {
	name := widget.NewEntry()
	driver := widget.NewSelect([]string{"postgres", "sqlite"}, nil)
	driver.SetSelected("postgres")
	host := widget.NewEntry()
	host.SetText("localhost")
	port := widget.NewEntry()
	port.SetText("5432")
	user := widget.NewEntry()
	password := widget.NewPasswordEntry()
	database := widget.NewEntry()
	path := widget.NewEntry()
	path.SetPlaceHolder("/path/to/file.db")

	items := []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Driver", driver),
		widget.NewFormItem("Host", host),
		widget.NewFormItem("Port", port),
		widget.NewFormItem("User", user),
		widget.NewFormItem("Password", password),
		widget.NewFormItem("Database", database),
		widget.NewFormItem("File", path),
	}

	if onTest != nil {
		testStatus := widget.NewLabel("")
		testBtn := widget.NewButton("Test Connection", func() {
			input, err := validateConnectionInput(
				name.Text, driver.Selected, host.Text, port.Text,
				user.Text, password.Text, database.Text, path.Text,
			)
			if err != nil {
				testStatus.SetText(err.Error())
				return
			}
			testStatus.SetText("Connecting...")
			go func() {
				err := onTest(input)
				fyne.Do(func() {
					if err != nil {
						testStatus.SetText(fmt.Sprintf("Failed: %v", err))
					} else {
						testStatus.SetText("Connection OK")
					}
				})
			}()
		})
		items = append(items, widget.NewFormItem("",
			container.NewBorder(nil, nil, testBtn, nil, testStatus)))
	}

	d := dialog.NewForm("New Connection", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		input, err := validateConnectionInput(
			name.Text, driver.Selected, host.Text, port.Text,
			user.Text, password.Text, database.Text, path.Text,
		)
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		onSave(input)
	}, win)
	d.Resize(fyne.NewSize(420, d.MinSize().Height))
	d.Show()
}

func validateConnectionInput(name, driver, host, portText, user, password, database, path string) (ConnectionInput, error) {
	if name == "" {
		return ConnectionInput{}, errors.New("connection name is required")
	}
	in := ConnectionInput{
		Name:     name,
		Driver:   driver,
		User:     user,
		Password: password,
	}
	switch driver {
	case "sqlite":
		if path == "" {
			return ConnectionInput{}, errors.New("sqlite connections need a database file")
		}
		in.Path = path
	default:
		if host == "" {
			return ConnectionInput{}, errors.New("host is required")
		}
		port, err := strconv.Atoi(portText)
		if err != nil || port <= 0 || port > 65535 {
			return ConnectionInput{}, errors.New("port must be a number between 1 and 65535")
		}
		if database == "" {
			return ConnectionInput{}, errors.New("database name is required")
		}
		in.Host = host
		in.Port = port
		in.Database = database
	}
	return in, nil
}
