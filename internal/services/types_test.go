package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{name: "strips tags", content: "<p>Santri <b>berprestasi</b></p>", max: 150, want: "Santri berprestasi"},
		{name: "truncates", content: "<p>Pendaftaran dibuka</p>", max: 11, want: "Pendaftaran..."},
		{name: "exact length is kept", content: "abcdef", max: 6, want: "abcdef"},
		{name: "counts runes", content: "Qurʾān Ḥadīth", max: 5, want: "Qurʾā..."},
		{name: "no limit", content: "<i>panjang</i>", max: 0, want: "panjang"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.content, tt.max); got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerptProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := rapid.String().Draw(t, "content")
		max := rapid.IntRange(1, 200).Draw(t, "max")

		got := Excerpt(content, max)
		if strings.HasSuffix(got, "...") && utf8.RuneCountInString(got) > max+3 {
			t.Fatalf("excerpt %q is longer than %d runes", got, max+3)
		}
		if !strings.HasSuffix(got, "...") && utf8.RuneCountInString(got) > max {
			t.Fatalf("untruncated excerpt %q is longer than %d runes", got, max)
		}
	})
}

func TestArticleImage(t *testing.T) {
	if got := (Article{}).Image(); got != PlaceholderImage {
		t.Errorf("got %q, want the placeholder", got)
	}
	if got := (Article{ThumbnailURL: "https://cdn.example.com/a.jpg"}).Image(); got != "https://cdn.example.com/a.jpg" {
		t.Errorf("got %q", got)
	}
}
