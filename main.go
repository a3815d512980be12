package main

import (
	"context"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"

	"querydesk/store"
)

func main() {
	st, err := store.New()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer st.Close()

	if variant, err := st.GetSetting("theme_variant"); err == nil && variant == "light" {
		appTheme.SetVariant(theme.VariantLight)
	} else {
		appTheme.SetVariant(theme.VariantDark)
	}

	fyneApp := app.New()
	fyneApp.Settings().SetTheme(appTheme)

	window := fyneApp.NewWindow("QueryDesk")
	window.Resize(fyne.NewSize(1280, 800))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application := NewApp(window, st, ctx)
	defer application.Close()

	window.SetContent(application.BuildUI())

	// Load saved connections, history and favorites from the local DB
	application.LoadInitial()

	window.ShowAndRun()
}
