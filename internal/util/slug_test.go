package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"accents", "Café Résumé", "cafe-resume"},
		{"punctuation", "What's New? (2026)", "whats-new-2026"},
		{"multiple spaces", "a  b   c", "a-b-c"},
		{"leading trailing", " -edge- ", "edge"},
		{"cyrillic stripped", "Привет world", "world"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugifyN(t *testing.T) {
	if got := SlugifyN("Hello", 0); got != "hello" {
		t.Errorf("SlugifyN n=0 = %q", got)
	}
	if got := SlugifyN("Hello", 2); got != "hello-2" {
		t.Errorf("SlugifyN n=2 = %q", got)
	}
	if got := SlugifyN("Привет", 0); got != "untitled" {
		t.Errorf("SlugifyN empty slug = %q, want untitled", got)
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"a", "hello-world", "post-2026"}
	invalid := []string{"", "-edge", "edge-", "double--hyphen", "Upper", "with space"}

	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true, want false", s)
		}
	}
}
