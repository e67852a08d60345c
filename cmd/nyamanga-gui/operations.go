package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/auth"
	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/files"
	"github.com/oukeidos/nyamanga/internal/language"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/panels"
	"github.com/oukeidos/nyamanga/internal/pipeline"
)

var (
	newPipeline = func(cfg config.ApiConfig) (*pipeline.TypesettingPipeline, error) {
		return pipeline.New(cfg)
	}
	getEnvKey = config.LookupKey
	getKey    = func() (string, error) { return auth.GetKey(auth.AccountAPI) }
	hasKey    = func() bool { return auth.HasKey(auth.AccountAPI) }
)

var errNoAPIKey = errors.New("no API key")

// runLocalize builds a fresh pipeline from cfg and localizes one panel.
func runLocalize(ctx context.Context, cfg config.ApiConfig, req pipeline.PanelRequest) (*pipeline.PanelResult, []byte, error) {
	p, err := newPipeline(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer p.Close()

	res, err := p.LocalizePanel(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	data, err := res.Decode()
	if err != nil {
		return res, nil, err
	}
	return res, data, nil
}

func runRewrite(ctx context.Context, cfg config.ApiConfig, text string, opts embedder.RewriteOptions) (string, error) {
	p, err := newPipeline(cfg)
	if err != nil {
		return "", err
	}
	defer p.Close()

	res, err := p.Embedder().RewriteDialogue(ctx, text, opts)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// errorText is the user-facing text for err.
func errorText(lang string, err error) string {
	if errors.Is(err, errNoAPIKey) {
		return tr(lang, "no_key")
	}
	return tr(lang, "error") + apperrors.PublicMessage(err)
}

func batchStatus(lang string, s pipeline.BatchSummary) string {
	return fmt.Sprintf(tr(lang, "batch_done"), s.Succeeded, s.Failed, s.Canceled)
}

// snapshot resolves the key and freezes the settings for one run.
func (a *nyamangaApp) snapshot() (config.ApiConfig, error) {
	key, source := resolveKey(a.sessionKey, getEnvKey, getKey)
	if key == "" {
		return config.ApiConfig{}, errNoAPIKey
	}
	logger.Info("Using API Key", "source", source)
	cfg := a.config.apiConfig(key)
	if err := cfg.Validate(); err != nil {
		return config.ApiConfig{}, err
	}
	return cfg, nil
}

func (a *nyamangaApp) showError(view viewID, err error) {
	msg := errorText(a.config.UILang, err)
	if view == viewLocalize {
		a.loc.status.SetText(msg)
	}
	dialog.ShowError(errors.New(msg), a.window)
	if errors.Is(err, errNoAPIKey) {
		a.tabs.Select(a.settingsTab)
	}
}

func (a *nyamangaApp) setBusy(view viewID, busy bool) {
	switch view {
	case viewLocalize:
		if busy {
			a.loc.progress.Show()
		} else {
			a.loc.progress.Hide()
			a.loc.batchProgress.Hide()
		}
	case viewRewrite:
		if busy {
			a.rw.progress.Show()
		} else {
			a.rw.progress.Hide()
		}
	}
}

func (a *nyamangaApp) localizeRequest() pipeline.PanelRequest {
	l := &a.loc
	return pipeline.PanelRequest{
		ImagePath:      l.imagePath,
		SourceText:     l.sourceEntry.Text,
		TargetLanguage: language.CodeFromLabel(l.targetSelect.Selected),
		Tone:           l.toneEntry.Text,
		BubbleHint:     l.bubbleEntry.Text,
		StyleHint:      l.styleEntry.Text,
	}
}

// startLocalize runs the Localize view. Clicking again while a run is in
// flight cancels it and starts over.
func (a *nyamangaApp) startLocalize() {
	if strings.TrimSpace(a.loc.imagePath) == "" {
		a.showError(viewLocalize, errors.New(a.t("select_img_first")))
		return
	}
	cfg, err := a.snapshot()
	if err != nil {
		a.showError(viewLocalize, err)
		return
	}
	req := a.localizeRequest()

	ctx, id := a.runs.start(viewLocalize)
	a.setBusy(viewLocalize, true)
	a.loc.status.SetText(a.t("processing"))
	a.loc.saveBtn.Disable()

	a.safeGo("ops.localize", func() {
		defer a.runs.finish(viewLocalize, id)
		res, data, err := runLocalize(ctx, cfg, req)
		if ctx.Err() != nil {
			logger.Info("Localize run superseded or canceled", "image", req.ImagePath)
			return
		}
		a.safeDo("ops.localize.done", func() {
			a.setBusy(viewLocalize, false)
			if err != nil {
				logger.Error("Localize failed", "error", err)
				a.showError(viewLocalize, err)
				return
			}
			a.showResult(req.ImagePath, data, res.RewrittenText)
			a.loc.status.SetText(a.t("complete"))
		})
	})
}

func (a *nyamangaApp) showResult(imagePath string, data []byte, rewritten string) {
	l := &a.loc
	l.result = data
	l.resultImg.File = ""
	l.resultImg.Resource = fyne.NewStaticResource(filepath.Base(panels.OutputPath(imagePath)), data)
	l.resultImg.Refresh()
	if rewritten != "" {
		l.resultText.SetText(a.t("result") + ": " + rewritten)
	} else {
		l.resultText.SetText("")
	}
	l.saveBtn.Enable()
}

// startBatch auto-localizes every image of the selected folder.
func (a *nyamangaApp) startBatch() {
	l := &a.loc
	if len(l.folderImages) == 0 {
		a.showError(viewLocalize, apperrors.New(apperrors.KindIO, "No images found.", panels.ErrNoImages))
		return
	}
	cfg, err := a.snapshot()
	if err != nil {
		a.showError(viewLocalize, err)
		return
	}
	tmpl := a.localizeRequest()
	tmpl.SourceText = ""
	images := append([]string(nil), l.folderImages...)
	opts := pipeline.BatchOptions{Concurrency: a.config.Concurrency, QPS: pipeline.DefaultQPS}

	ctx, id := a.runs.start(viewLocalize)
	a.setBusy(viewLocalize, true)
	l.batchProgress.SetValue(0)
	l.batchProgress.Show()
	l.status.SetText(a.t("processing"))

	var done atomic.Int32
	opts.OnProgress = func(p pipeline.BatchProgress) {
		if p.State == pipeline.BatchStarted {
			return
		}
		n := done.Add(1)
		a.safeDo("ops.batch.progress", func() {
			l.batchProgress.SetValue(float64(n) / float64(p.Total))
			l.status.SetText(fmt.Sprintf("[%d/%d] %s: %s", n, p.Total, filepath.Base(p.ImagePath), p.State))
		})
	}

	a.safeGo("ops.batch", func() {
		defer a.runs.finish(viewLocalize, id)
		p, err := newPipeline(cfg)
		if err != nil {
			a.safeDo("ops.batch.error", func() {
				a.setBusy(viewLocalize, false)
				a.showError(viewLocalize, err)
			})
			return
		}
		defer p.Close()

		summary := p.LocalizeBatch(ctx, images, tmpl, opts)
		if !a.runs.isCurrent(viewLocalize, id) {
			return
		}
		a.safeDo("ops.batch.done", func() {
			a.setBusy(viewLocalize, false)
			l.status.SetText(batchStatus(a.config.UILang, summary))
			for _, it := range summary.Items {
				if it.State == pipeline.BatchCompleted && it.ImagePath == l.imagePath {
					if data, err := it.Result.Decode(); err == nil {
						a.showResult(it.ImagePath, data, "")
					}
				}
			}
		})
	})
}

func (a *nyamangaApp) startRewrite() {
	r := &a.rw
	text := strings.TrimSpace(r.sourceEntry.Text)
	if text == "" {
		a.showError(viewRewrite, errors.New(a.t("enter_text")))
		return
	}
	cfg, err := a.snapshot()
	if err != nil {
		a.showError(viewRewrite, err)
		return
	}
	opts := embedder.RewriteOptions{
		TargetLanguage: language.CodeFromLabel(r.targetSelect.Selected),
		Tone:           r.toneEntry.Text,
	}

	ctx, id := a.runs.start(viewRewrite)
	a.setBusy(viewRewrite, true)
	a.safeGo("ops.rewrite", func() {
		defer a.runs.finish(viewRewrite, id)
		out, err := runRewrite(ctx, cfg, text, opts)
		if ctx.Err() != nil {
			return
		}
		a.safeDo("ops.rewrite.done", func() {
			a.setBusy(viewRewrite, false)
			if err != nil {
				logger.Error("Rewrite failed", "error", err)
				a.showError(viewRewrite, err)
				return
			}
			r.resultEntry.SetText(out)
		})
	})
}

// loadImage selects path as the current panel and shows its preview.
func (a *nyamangaApp) loadImage(path string) {
	path = strings.TrimSpace(path)
	if err := panels.ValidateImage(path); err != nil {
		a.showError(viewLocalize, err)
		return
	}
	l := &a.loc
	l.imagePath = path
	l.originalImg.Resource = nil
	l.originalImg.File = path
	l.originalImg.Refresh()
	l.result = nil
	l.resultImg.Resource = nil
	l.resultImg.Refresh()
	l.resultText.SetText("")
	l.saveBtn.Disable()
	a.refreshImageLabel()
}

// loadFolder lists the images of dir. Errors are only shown when the user
// picked the folder.
func (a *nyamangaApp) loadFolder(dir string, interactive bool) {
	images, err := panels.ListImages(dir)
	if err != nil {
		if interactive {
			a.showError(viewLocalize, err)
		}
		return
	}
	l := &a.loc
	l.folder = dir
	l.folderImages = images
	l.folderList.UnselectAll()
	l.folderList.Refresh()
	l.batchBtn.Enable()
	if interactive {
		a.config.LastFolder = dir
		saveConfig(a.fyneApp.Preferences(), a.config)
	}
}

func (a *nyamangaApp) showImagePicker() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		a.loadImage(path)
	}, a.window)
	fd.SetFilter(storage.NewExtensionFileFilter(panels.Extensions))
	if a.loc.folder != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(a.loc.folder)); err == nil {
			fd.SetLocation(lister)
		}
	}
	fd.Resize(fyne.NewSize(900, 700))
	fd.Show()
}

func (a *nyamangaApp) showFolderPicker() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		a.loadFolder(uri.Path(), true)
	}, a.window)
	fd.Resize(fyne.NewSize(900, 700))
	fd.Show()
}

// showSaveResult offers {stem}_localized{ext} next to the original.
func (a *nyamangaApp) showSaveResult() {
	l := &a.loc
	if len(l.result) == 0 {
		return
	}
	data := l.result
	suggested := panels.OutputPath(l.imagePath)

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := files.AtomicWrite(path, data, 0o644); err != nil {
			a.showError(viewLocalize, apperrors.Newf(apperrors.KindIO, err, "Failed to write image to %s.", path))
			return
		}
		logger.Info("Result saved", "path", path)
		l.status.SetText(a.t("saved_to") + path)
	}, a.window)
	fd.SetFileName(filepath.Base(suggested))
	if lister, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(suggested))); err == nil {
		fd.SetLocation(lister)
	}
	fd.Resize(fyne.NewSize(900, 700))
	fd.Show()
}

// saveSettings persists preferences and stores typed keys in the keychain.
func (a *nyamangaApp) saveSettings() {
	s := &a.set
	for code, name := range uiLanguageNames {
		if name == s.uiLangSelect.Selected {
			a.config.UILang = code
		}
	}
	a.config.DarkMode = s.darkCheck.Checked
	a.config.BaseURL = strings.TrimSpace(s.baseURLEntry.Text)
	a.config.ChatModel = strings.TrimSpace(s.chatModelEntry.Text)
	a.config.ImageModel = strings.TrimSpace(s.imageModelEntry.Text)
	if n, err := strconv.Atoi(s.concurrencySelect.Selected); err == nil {
		a.config.Concurrency, _ = pipeline.ClampConcurrency(n)
	}
	a.config.Tone = a.loc.toneEntry.Text
	saveConfig(a.fyneApp.Preferences(), a.config)

	apiKey := strings.TrimSpace(s.apiKeyEntry.Text)
	if apiKey != "" {
		a.sessionKey = apiKey
	}
	_, err := saveKeysToKeychain(apiKey, s.geminiKeyEntry.Text, auth.SaveKey)
	s.apiKeyEntry.SetText("")
	s.geminiKeyEntry.SetText("")

	a.applyTheme()
	a.applyTexts()
	if err != nil {
		logger.Error("Failed to save keys", "error", err)
		dialog.ShowError(err, a.window)
		return
	}
	dialog.ShowInformation(a.t("settings"), a.t("save_success"), a.window)
}

func (a *nyamangaApp) confirmDeleteKeys() {
	dialog.ShowConfirm(a.t("delete_key"), a.t("delete_key")+"?", func(ok bool) {
		if !ok {
			return
		}
		a.sessionKey = ""
		if err := resetKeysInKeychain(auth.DeleteKey); err != nil {
			dialog.ShowError(err, a.window)
		}
		a.refreshKeyStatus()
	}, a.window)
}

func (a *nyamangaApp) refreshKeyStatus() {
	_, envName := getEnvKey()
	a.set.keyStatus.SetText(keyStatusText(a.config.UILang, a.sessionKey != "", envName, hasKey()))
}

func keyStatusText(lang string, session bool, envName string, inKeychain bool) string {
	switch {
	case envName != "" && !session:
		return tr(lang, "key_from_env") + envName
	case inKeychain:
		return tr(lang, "key_saved")
	case session:
		return tr(lang, "api_key") + " ✓"
	default:
		return tr(lang, "key_not_saved")
	}
}
