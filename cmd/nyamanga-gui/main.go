package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/display"
	"github.com/oukeidos/nyamanga/internal/language"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/metadata"
	"github.com/oukeidos/nyamanga/internal/pipeline"
	"github.com/oukeidos/nyamanga/internal/version"
)

const (
	previewWidth  = 380
	previewHeight = 400
	pathWidth     = 56
)

// nyamangaTheme pins the light/dark variant chosen in Settings.
type nyamangaTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t nyamangaTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.variant)
}

type localizeView struct {
	imagePath    string
	folder       string
	folderImages []string
	result       []byte

	inputCard     *widget.Card
	outputCard    *widget.Card
	selectBtn     *widget.Button
	folderBtn     *widget.Button
	imageLabel    *widget.Label
	pathEntry     *widget.Entry
	loadBtn       *widget.Button
	folderLabel   *widget.Label
	folderList    *widget.List
	sourceLabel   *widget.Label
	sourceEntry   *widget.Entry
	targetLabel   *widget.Label
	targetSelect  *widget.Select
	toneLabel     *widget.Label
	toneEntry     *widget.Entry
	bubbleEntry   *widget.Entry
	styleEntry    *widget.Entry
	runBtn        *widget.Button
	batchBtn      *widget.Button
	progress      *widget.ProgressBarInfinite
	batchProgress *widget.ProgressBar
	status        *widget.Label
	originalLabel *widget.Label
	resultLabel   *widget.Label
	originalImg   *canvas.Image
	resultImg     *canvas.Image
	resultText    *widget.Label
	saveBtn       *widget.Button
}

type rewriteView struct {
	inputCard    *widget.Card
	outputCard   *widget.Card
	sourceLabel  *widget.Label
	sourceEntry  *widget.Entry
	targetLabel  *widget.Label
	targetSelect *widget.Select
	toneLabel    *widget.Label
	toneEntry    *widget.Entry
	runBtn       *widget.Button
	progress     *widget.ProgressBarInfinite
	resultEntry  *widget.Entry
}

type settingsView struct {
	card              *widget.Card
	form              *widget.Form
	uiLangSelect      *widget.Select
	darkCheck         *widget.Check
	apiKeyEntry       *widget.Entry
	keyStatus         *widget.Label
	geminiKeyEntry    *widget.Entry
	baseURLEntry      *widget.Entry
	chatModelEntry    *widget.SelectEntry
	imageModelEntry   *widget.SelectEntry
	concurrencySelect *widget.Select
	saveBtn           *widget.Button
	deleteBtn         *widget.Button
}

type nyamangaApp struct {
	fyneApp fyne.App
	window  fyne.Window
	config  AppConfig

	// sessionKey is the key typed in Settings this session.
	sessionKey string

	runs            runTracker
	panicNoticeOnce sync.Once

	tabs        *container.AppTabs
	localizeTab *container.TabItem
	rewriteTab  *container.TabItem
	settingsTab *container.TabItem
	loc         localizeView
	rw          rewriteView
	set         settingsView
}

func newNyamangaApp(fa fyne.App, w fyne.Window) *nyamangaApp {
	a := &nyamangaApp{fyneApp: fa, window: w}
	a.config = loadConfig(fa.Preferences())
	a.applyTheme()
	a.setupUI()
	a.applyTexts()
	if a.config.LastFolder != "" {
		a.loadFolder(a.config.LastFolder, false)
	}
	return a
}

func (a *nyamangaApp) t(key string) string { return tr(a.config.UILang, key) }

func (a *nyamangaApp) applyTheme() {
	variant := theme.VariantLight
	if a.config.DarkMode {
		variant = theme.VariantDark
	}
	a.fyneApp.Settings().SetTheme(nyamangaTheme{Theme: theme.DefaultTheme(), variant: variant})
}

func languageLabels() []string {
	out := make([]string, len(language.Supported))
	for i, l := range language.Supported {
		out[i] = l.Label()
	}
	return out
}

func languageLabel(code string) string {
	if l, ok := language.Get(code); ok {
		return l.Label()
	}
	return code
}

func (a *nyamangaApp) setupUI() {
	a.localizeTab = container.NewTabItemWithIcon("", theme.DocumentCreateIcon(), a.buildLocalizeView())
	a.rewriteTab = container.NewTabItemWithIcon("", theme.ContentPasteIcon(), a.buildRewriteView())
	a.settingsTab = container.NewTabItemWithIcon("", theme.SettingsIcon(), a.buildSettingsView())

	a.tabs = container.NewAppTabs(a.localizeTab, a.rewriteTab, a.settingsTab)
	a.tabs.SetTabLocation(container.TabLocationLeading)
	a.window.SetContent(a.tabs)
}

func (a *nyamangaApp) buildLocalizeView() fyne.CanvasObject {
	v := &a.loc
	v.selectBtn = widget.NewButtonWithIcon("", theme.FileImageIcon(), a.showImagePicker)
	v.folderBtn = widget.NewButtonWithIcon("", theme.FolderOpenIcon(), a.showFolderPicker)
	v.imageLabel = widget.NewLabel("")
	v.imageLabel.Truncation = fyne.TextTruncateEllipsis

	v.pathEntry = widget.NewEntry()
	v.loadBtn = widget.NewButton("", func() { a.loadImage(v.pathEntry.Text) })
	v.pathEntry.OnSubmitted = a.loadImage

	v.folderLabel = widget.NewLabel("")
	v.folderList = widget.NewList(
		func() int { return len(v.folderImages) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(display.TruncateMiddle(filepath.Base(v.folderImages[id]), pathWidth))
		},
	)
	v.folderList.OnSelected = func(id widget.ListItemID) {
		if id >= 0 && id < len(v.folderImages) {
			a.loadImage(v.folderImages[id])
		}
	}

	v.sourceLabel = widget.NewLabel("")
	v.sourceEntry = widget.NewMultiLineEntry()
	v.sourceEntry.Wrapping = fyne.TextWrapWord
	v.sourceEntry.SetMinRowsVisible(3)

	v.targetLabel = widget.NewLabel("")
	v.targetSelect = widget.NewSelect(languageLabels(), func(s string) {
		a.config.TargetLang = language.CodeFromLabel(s)
	})
	v.targetSelect.SetSelected(languageLabel(a.config.TargetLang))
	v.toneLabel = widget.NewLabel("")
	v.toneEntry = widget.NewEntry()
	v.toneEntry.SetText(a.config.Tone)
	v.bubbleEntry = widget.NewEntry()
	v.styleEntry = widget.NewMultiLineEntry()
	v.styleEntry.Wrapping = fyne.TextWrapWord
	v.styleEntry.SetMinRowsVisible(2)

	v.runBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.startLocalize)
	v.runBtn.Importance = widget.HighImportance
	v.batchBtn = widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), a.startBatch)
	v.batchBtn.Disable()
	v.progress = widget.NewProgressBarInfinite()
	v.progress.Hide()
	v.batchProgress = widget.NewProgressBar()
	v.batchProgress.Hide()
	v.status = widget.NewLabel("")
	v.status.Wrapping = fyne.TextWrapWord

	v.originalLabel = widget.NewLabel("")
	v.resultLabel = widget.NewLabel("")
	v.originalImg = &canvas.Image{FillMode: canvas.ImageFillContain}
	v.originalImg.SetMinSize(fyne.NewSize(previewWidth, previewHeight))
	v.resultImg = &canvas.Image{FillMode: canvas.ImageFillContain}
	v.resultImg.SetMinSize(fyne.NewSize(previewWidth, previewHeight))
	v.resultText = widget.NewLabel("")
	v.resultText.Wrapping = fyne.TextWrapWord
	v.saveBtn = widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), a.showSaveResult)
	v.saveBtn.Disable()

	input := container.NewVBox(
		container.NewBorder(nil, nil, container.NewHBox(v.selectBtn, v.folderBtn), nil, v.imageLabel),
		container.NewBorder(nil, nil, nil, v.loadBtn, v.pathEntry),
		v.folderLabel,
		container.NewGridWrap(fyne.NewSize(previewWidth*2, 120), v.folderList),
		v.sourceLabel,
		v.sourceEntry,
		container.NewGridWithColumns(2,
			container.NewVBox(v.targetLabel, v.targetSelect),
			container.NewVBox(v.toneLabel, v.toneEntry),
		),
		v.bubbleEntry,
		v.styleEntry,
		container.NewHBox(v.runBtn, v.batchBtn, layout.NewSpacer()),
		v.progress,
		v.batchProgress,
		v.status,
	)
	output := container.NewGridWithColumns(2,
		container.NewBorder(v.originalLabel, nil, nil, nil, v.originalImg),
		container.NewBorder(v.resultLabel, container.NewVBox(v.resultText, v.saveBtn), nil, nil, v.resultImg),
	)
	v.inputCard = widget.NewCard("", "", input)
	v.outputCard = widget.NewCard("", "", output)
	return container.NewVScroll(container.NewPadded(container.NewVBox(v.inputCard, v.outputCard)))
}

func (a *nyamangaApp) buildRewriteView() fyne.CanvasObject {
	v := &a.rw
	v.sourceLabel = widget.NewLabel("")
	v.sourceEntry = widget.NewMultiLineEntry()
	v.sourceEntry.Wrapping = fyne.TextWrapWord
	v.sourceEntry.SetMinRowsVisible(3)
	v.targetLabel = widget.NewLabel("")
	v.targetSelect = widget.NewSelect(languageLabels(), nil)
	v.targetSelect.SetSelected(languageLabel(a.config.TargetLang))
	v.toneLabel = widget.NewLabel("")
	v.toneEntry = widget.NewEntry()
	v.toneEntry.SetText(a.config.Tone)
	v.runBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.startRewrite)
	v.runBtn.Importance = widget.HighImportance
	v.progress = widget.NewProgressBarInfinite()
	v.progress.Hide()
	v.resultEntry = widget.NewMultiLineEntry()
	v.resultEntry.Wrapping = fyne.TextWrapWord
	v.resultEntry.SetMinRowsVisible(6)

	input := container.NewVBox(
		v.sourceLabel,
		v.sourceEntry,
		container.NewGridWithColumns(2,
			container.NewVBox(v.targetLabel, v.targetSelect),
			container.NewVBox(v.toneLabel, v.toneEntry),
		),
		container.NewHBox(v.runBtn, layout.NewSpacer()),
		v.progress,
	)
	v.inputCard = widget.NewCard("", "", input)
	v.outputCard = widget.NewCard("", "", v.resultEntry)
	return container.NewVScroll(container.NewPadded(container.NewVBox(v.inputCard, v.outputCard)))
}

func (a *nyamangaApp) buildSettingsView() fyne.CanvasObject {
	v := &a.set
	names := make([]string, len(uiLanguages))
	for i, l := range uiLanguages {
		names[i] = uiLanguageNames[l]
	}
	v.uiLangSelect = widget.NewSelect(names, nil)
	v.uiLangSelect.SetSelected(uiLanguageNames[a.config.UILang])
	v.darkCheck = widget.NewCheck("", nil)
	v.darkCheck.SetChecked(a.config.DarkMode)

	v.apiKeyEntry = widget.NewPasswordEntry()
	v.keyStatus = widget.NewLabel("")
	v.geminiKeyEntry = widget.NewPasswordEntry()
	v.geminiKeyEntry.SetPlaceHolder(config.EnvGeminiAPIKey + " (" + config.ProviderGemini + ")")
	v.baseURLEntry = widget.NewEntry()
	v.baseURLEntry.SetText(a.config.BaseURL)
	v.baseURLEntry.SetPlaceHolder(config.DefaultBaseURL)
	v.chatModelEntry = widget.NewSelectEntry(metadata.IDs(metadata.CapabilityChat))
	v.chatModelEntry.SetText(a.config.ChatModel)
	v.imageModelEntry = widget.NewSelectEntry(metadata.IDs(metadata.CapabilityImage))
	v.imageModelEntry.SetText(a.config.ImageModel)

	levels := make([]string, 0, pipeline.MaxConcurrency)
	for i := pipeline.MinConcurrency; i <= pipeline.MaxConcurrency; i++ {
		levels = append(levels, strconv.Itoa(i))
	}
	v.concurrencySelect = widget.NewSelect(levels, nil)
	v.concurrencySelect.SetSelected(strconv.Itoa(a.config.Concurrency))

	v.saveBtn = widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), a.saveSettings)
	v.saveBtn.Importance = widget.HighImportance
	v.deleteBtn = widget.NewButtonWithIcon("", theme.DeleteIcon(), a.confirmDeleteKeys)

	v.form = widget.NewForm(
		widget.NewFormItem("", v.uiLangSelect),
		widget.NewFormItem("", v.darkCheck),
		widget.NewFormItem("", container.NewVBox(v.apiKeyEntry, v.keyStatus)),
		widget.NewFormItem("Gemini", v.geminiKeyEntry),
		widget.NewFormItem("", v.baseURLEntry),
		widget.NewFormItem("", v.chatModelEntry),
		widget.NewFormItem("", v.imageModelEntry),
		widget.NewFormItem("", v.concurrencySelect),
	)
	about := widget.NewLabelWithStyle(version.Short(), fyne.TextAlignTrailing, fyne.TextStyle{Italic: true})
	v.card = widget.NewCard("", "", container.NewVBox(v.form, container.NewHBox(v.saveBtn, v.deleteBtn, layout.NewSpacer(), about)))
	return container.NewVScroll(container.NewPadded(v.card))
}

// applyTexts sets every translatable string for the current UI language.
func (a *nyamangaApp) applyTexts() {
	a.window.SetTitle(a.t("app_title"))
	a.localizeTab.Text = a.t("localize")
	a.rewriteTab.Text = a.t("rewrite")
	a.settingsTab.Text = a.t("settings")
	a.tabs.Refresh()

	l := &a.loc
	l.inputCard.SetTitle(a.t("input_group"))
	l.outputCard.SetTitle(a.t("output_group"))
	l.selectBtn.SetText(a.t("select_image"))
	l.folderBtn.SetText(a.t("select_folder"))
	a.refreshImageLabel()
	l.pathEntry.SetPlaceHolder(a.t("path_input"))
	l.loadBtn.SetText(a.t("load_path"))
	l.folderLabel.SetText(a.t("folder_images"))
	l.sourceLabel.SetText(a.t("source_text"))
	l.sourceEntry.SetPlaceHolder(a.t("source_text_hint"))
	l.targetLabel.SetText(a.t("target_lang"))
	l.toneLabel.SetText(a.t("tone"))
	l.bubbleEntry.SetPlaceHolder(a.t("bubble_hint"))
	l.styleEntry.SetPlaceHolder(a.t("extra_prompt"))
	l.runBtn.SetText(a.t("run_localize"))
	l.batchBtn.SetText(a.t("run_batch"))
	l.originalLabel.SetText(a.t("original"))
	l.resultLabel.SetText(a.t("result"))
	l.saveBtn.SetText(a.t("save_result"))

	r := &a.rw
	r.inputCard.SetTitle(a.t("input_group"))
	r.outputCard.SetTitle(a.t("output_group"))
	r.sourceLabel.SetText(a.t("source_text"))
	r.sourceEntry.SetPlaceHolder(a.t("enter_text"))
	r.targetLabel.SetText(a.t("target_lang"))
	r.toneLabel.SetText(a.t("tone"))
	r.runBtn.SetText(a.t("run_rewrite"))
	r.resultEntry.SetPlaceHolder(a.t("result"))

	s := &a.set
	s.card.SetTitle(a.t("settings"))
	labels := []string{"language_switch", "", "api_key", "", "base_url", "chat_model", "image_model", "concurrency"}
	for i, key := range labels {
		if key != "" {
			s.form.Items[i].Text = a.t(key)
		}
	}
	s.form.Refresh()
	s.darkCheck.Text = a.t("theme_switch")
	s.darkCheck.Refresh()
	s.saveBtn.SetText(a.t("save_config"))
	s.deleteBtn.SetText(a.t("delete_key"))
	a.refreshKeyStatus()
}

func (a *nyamangaApp) refreshImageLabel() {
	if a.loc.imagePath == "" {
		a.loc.imageLabel.SetText(a.t("no_image"))
		return
	}
	a.loc.imageLabel.SetText(display.TruncateMiddle(a.loc.imagePath, pathWidth))
}

func main() {
	logger.Init(logger.LevelInfo, nil)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unrecovered GUI panic", "scope", "main", "panic", fmt.Sprint(r))
			os.Exit(1)
		}
	}()
	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("Failed to load .env", "error", err)
	}

	myApp := app.NewWithID("com.nyamanga.app")
	w := myApp.NewWindow(version.Name)
	w.SetMaster()
	w.Resize(fyne.NewSize(1100, 820))
	w.CenterOnScreen()

	na := newNyamangaApp(myApp, w)
	w.SetCloseIntercept(func() {
		na.runs.cancelAll("window closed")
		na.sessionKey = ""
		w.SetCloseIntercept(nil)
		w.Close()
	})

	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		if len(uris) > 0 {
			na.loadImage(uris[0].Path())
		}
	})

	w.ShowAndRun()
}
