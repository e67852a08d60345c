package panels

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/oukeidos/nyamanga/internal/apperrors"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/manga/page01.png", "/manga/page01_localized.png"},
		{"/manga/page01.JPG", "/manga/page01_localized.JPG"},
		{"page.v2.webp", "page.v2_localized.webp"},
		{"/manga/scan", "/manga/scan_localized.png"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in); got != filepath.FromSlash(tt.want) && got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeOutputPath_Collision(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "p.png")
	touch(t, img)
	touch(t, filepath.Join(dir, "p_localized.png"))

	got, err := SafeOutputPath(img)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "p_localized_1.png"); got != want {
		t.Fatalf("SafeOutputPath() = %q, want %q", got, want)
	}
}

func TestIsLocalized(t *testing.T) {
	cases := map[string]bool{
		"p_localized.png":   true,
		"p_localized_3.png": true,
		"p.png":             false,
		"localized.png":     false,
		"p_localized_.png":  false,
	}
	for name, want := range cases {
		if got := IsLocalized(name); got != want {
			t.Errorf("IsLocalized(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "c.webp", "notes.txt", "a_localized.jpg"} {
		touch(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.PNG"), filepath.Join(dir, "c.webp")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListImages() = %v, want %v", got, want)
	}
}

func TestListImages_Errors(t *testing.T) {
	if _, err := ListImages(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
	empty := t.TempDir()
	touch(t, filepath.Join(empty, "readme.md"))
	if _, err := ListImages(empty); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
}

func TestValidateImage(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "p.jpeg")
	touch(t, good)
	bad := filepath.Join(dir, "p.gif")
	touch(t, bad)

	if err := ValidateImage(good); err != nil {
		t.Fatalf("ValidateImage(good) = %v", err)
	}
	if err := ValidateImage(bad); !errors.Is(err, ErrNotImage) {
		t.Fatalf("ValidateImage(gif) = %v", err)
	}
	if err := ValidateImage(dir); err == nil {
		t.Fatal("directory should be rejected")
	}
	if err := ValidateImage(filepath.Join(dir, "none.png")); err == nil {
		t.Fatal("missing file should be rejected")
	}
	if err := ValidateImage(" "); err == nil {
		t.Fatal("empty path should be rejected")
	}
}

func TestCheckFile_AnyExtension(t *testing.T) {
	dir := t.TempDir()
	bmp := filepath.Join(dir, "panel.bmp")
	touch(t, bmp)

	if err := CheckFile(bmp); err != nil {
		t.Fatalf("CheckFile(bmp) = %v", err)
	}
	if err := ValidateImage(bmp); !errors.Is(err, ErrNotImage) {
		t.Fatalf("ValidateImage(bmp) = %v, pickers still filter by extension", err)
	}
	if err := CheckFile(dir); !apperrors.Is(err, apperrors.KindIO) {
		t.Fatalf("CheckFile(dir) = %v", err)
	}
	if err := CheckFile(filepath.Join(dir, "none.bmp")); !apperrors.Is(err, apperrors.KindIO) {
		t.Fatalf("CheckFile(missing) = %v", err)
	}
}
