package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/pipeline"
)

type fakeAPI struct {
	server             *httptest.Server
	chatHits, editHits atomic.Int32
	status             int
}

func newFakeAPI(t *testing.T, status int) *fakeAPI {
	t.Helper()
	f := &fakeAPI{status: status}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chatHits.Add(1)
		if f.status != 0 {
			w.WriteHeader(f.status)
			fmt.Fprint(w, "nope")
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"你好！"}}]}`)
	})
	mux.HandleFunc("/v1/images/edits", func(w http.ResponseWriter, r *http.Request) {
		f.editHits.Add(1)
		if f.status != 0 {
			w.WriteHeader(f.status)
			fmt.Fprint(w, "nope")
			return
		}
		fmt.Fprintf(w, `{"data":[{"b64_json":%q}]}`, base64.StdEncoding.EncodeToString([]byte("EDITED")))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) config() config.ApiConfig {
	cfg := config.Default("k")
	cfg.BaseURL = f.server.URL + "/v1"
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func writePanel(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("PNG"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunLocalize(t *testing.T) {
	img := writePanel(t, t.TempDir(), "p01.png")

	t.Run("two_step", func(t *testing.T) {
		api := newFakeAPI(t, 0)
		res, data, err := runLocalize(context.Background(), api.config(), pipeline.PanelRequest{ImagePath: img, SourceText: "Hello!"})
		if err != nil {
			t.Fatalf("runLocalize() error = %v", err)
		}
		if res.Mode != pipeline.ModeTwoStep || res.RewrittenText != "你好！" || string(data) != "EDITED" {
			t.Fatalf("unexpected result %+v data=%q", res, data)
		}
		if api.chatHits.Load() != 1 || api.editHits.Load() != 1 {
			t.Fatalf("hits chat=%d edit=%d", api.chatHits.Load(), api.editHits.Load())
		}
	})

	t.Run("auto_skips_chat", func(t *testing.T) {
		api := newFakeAPI(t, 0)
		res, _, err := runLocalize(context.Background(), api.config(), pipeline.PanelRequest{ImagePath: img})
		if err != nil {
			t.Fatalf("runLocalize() error = %v", err)
		}
		if res.Mode != pipeline.ModeAuto || api.chatHits.Load() != 0 {
			t.Fatalf("mode=%s chat hits=%d", res.Mode, api.chatHits.Load())
		}
	})

	t.Run("server_error", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusInternalServerError)
		_, _, err := runLocalize(context.Background(), api.config(), pipeline.PanelRequest{ImagePath: img})
		if err == nil || !strings.Contains(apperrors.PublicMessage(err), "500") {
			t.Fatalf("expected status in error, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		api := newFakeAPI(t, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := runLocalize(ctx, api.config(), pipeline.PanelRequest{ImagePath: img})
		if !apperrors.IsCanceled(err) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	})

	t.Run("missing_key", func(t *testing.T) {
		_, _, err := runLocalize(context.Background(), config.Default(""), pipeline.PanelRequest{ImagePath: img})
		if !errors.Is(err, config.ErrMissingCredential) {
			t.Fatalf("expected ErrMissingCredential, got %v", err)
		}
	})
}

func TestRunRewrite(t *testing.T) {
	api := newFakeAPI(t, 0)
	out, err := runRewrite(context.Background(), api.config(), "Hello!", embedder.RewriteOptions{TargetLanguage: "zh"})
	if err != nil || out != "你好！" {
		t.Fatalf("runRewrite() = %q, %v", out, err)
	}
	if api.editHits.Load() != 0 {
		t.Fatal("rewrite must not call the image endpoint")
	}
}

func TestErrorText(t *testing.T) {
	if got := errorText(langEN, errNoAPIKey); got != tr(langEN, "no_key") {
		t.Fatalf("no key: %q", got)
	}
	err := apperrors.New(apperrors.KindAuth, "API request failed (401): bad key", nil)
	if got := errorText(langEN, err); got != "Error: API request failed (401): bad key" {
		t.Fatalf("errorText() = %q", got)
	}
}

func TestBatchStatus(t *testing.T) {
	s := pipeline.BatchSummary{Succeeded: 2, Failed: 1, Canceled: 0}
	if got := batchStatus(langEN, s); got != "Batch done: 2 succeeded, 1 failed, 0 canceled" {
		t.Fatalf("batchStatus() = %q", got)
	}
}

func TestKeyStatusText(t *testing.T) {
	tests := []struct {
		name     string
		session  bool
		envName  string
		keychain bool
		want     string
	}{
		{name: "env", envName: config.EnvAPIKey, want: tr(langEN, "key_from_env") + config.EnvAPIKey},
		{name: "keychain", keychain: true, want: tr(langEN, "key_saved")},
		{name: "session over env", session: true, envName: config.EnvAPIKey, want: tr(langEN, "api_key") + " ✓"},
		{name: "none", want: tr(langEN, "key_not_saved")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := keyStatusText(langEN, tc.session, tc.envName, tc.keychain); got != tc.want {
				t.Fatalf("keyStatusText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func newTestApp(t *testing.T) *nyamangaApp {
	t.Helper()
	clearEnv(t)
	prevHas, prevGet := hasKey, getKey
	hasKey = func() bool { return false }
	getKey = func() (string, error) { return "", errors.New("not found") }
	t.Cleanup(func() { hasKey, getKey = prevHas, prevGet })

	fa := test.NewTempApp(t)
	fa.Preferences().SetString(prefUILang, langEN)
	w := fa.NewWindow("test")
	t.Cleanup(w.Close)
	return newNyamangaApp(fa, w)
}

func TestApp_LoadImageAndFolder(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	p1 := writePanel(t, dir, "p01.png")
	writePanel(t, dir, "p02.jpg")
	writePanel(t, dir, "p01_localized.png")

	a.loadImage(p1)
	if a.loc.imagePath != p1 || a.loc.originalImg.File != p1 || !a.loc.saveBtn.Disabled() {
		t.Fatalf("image not loaded: path=%q file=%q", a.loc.imagePath, a.loc.originalImg.File)
	}

	a.loadFolder(dir, true)
	if len(a.loc.folderImages) != 2 || a.loc.batchBtn.Disabled() {
		t.Fatalf("folder images = %v", a.loc.folderImages)
	}
	if got := a.fyneApp.Preferences().String(prefLastFolder); got != dir {
		t.Fatalf("LastFolder = %q", got)
	}
}

func TestApp_StartWithoutKey(t *testing.T) {
	a := newTestApp(t)
	a.loadImage(writePanel(t, t.TempDir(), "p01.png"))

	a.startLocalize()
	if a.loc.status.Text != tr(langEN, "no_key") {
		t.Fatalf("status = %q", a.loc.status.Text)
	}
	if a.tabs.Selected() != a.settingsTab {
		t.Fatal("settings tab should be selected when no key is configured")
	}
}

func TestApp_SnapshotUsesSessionKey(t *testing.T) {
	a := newTestApp(t)
	a.sessionKey = "typed-key"
	a.config.ImageModel = "custom-image"
	cfg, err := a.snapshot()
	if err != nil {
		t.Fatalf("snapshot() error = %v", err)
	}
	if cfg.APIKey != "typed-key" || cfg.ImageModel != "custom-image" {
		t.Fatalf("unexpected snapshot: %+v", cfg)
	}
}
