package main

import "testing"

func TestTranslationsHaveSameKeys(t *testing.T) {
	for key := range translations[langZH] {
		if _, ok := translations[langEN][key]; !ok {
			t.Errorf("en is missing %q", key)
		}
	}
	for key := range translations[langEN] {
		if _, ok := translations[langZH][key]; !ok {
			t.Errorf("zh is missing %q", key)
		}
	}
}

func TestTr(t *testing.T) {
	cases := []struct {
		lang, key, want string
	}{
		{langZH, "localize", "一键嵌字"},
		{langEN, "localize", "Localize"},
		{"fr", "settings", "设置"},
		{langEN, "no_such_key", "no_such_key"},
	}
	for _, tc := range cases {
		if got := tr(tc.lang, tc.key); got != tc.want {
			t.Errorf("tr(%q, %q) = %q, want %q", tc.lang, tc.key, got, tc.want)
		}
	}
	if normalizeUILang("en") != langEN || normalizeUILang("") != langZH || normalizeUILang("de") != langZH {
		t.Error("normalizeUILang fallback")
	}
}
