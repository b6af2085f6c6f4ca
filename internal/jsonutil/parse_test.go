package jsonutil

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Title string `json:"title"`
	N     int    `json:"n"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    sample
		wantErr bool
	}{
		{"bare", `{"title":"a","n":1}`, sample{"a", 1}, false},
		{"fenced", "```json\n{\"title\":\"b\",\"n\":2}\n```", sample{"b", 2}, false},
		{"prose", "Here you go: {\"title\":\"c\",\"n\":3} enjoy", sample{"c", 3}, false},
		{"not json", "I cannot help with that.", sample{}, true},
		{"truncated", `{"title":"d","n":`, sample{}, true},
		{"wrong type", `{"title":5}`, sample{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[sample](tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeNoJSON(t *testing.T) {
	_, err := Decode[sample]("plain text")
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestStripMarkdownFences(t *testing.T) {
	in := "```\n[1,2]\n```"
	if got := StripMarkdownFences(in); got != "[1,2]" {
		t.Errorf("unexpected result %q", got)
	}
	if got := StripMarkdownFences("  {} "); got != "{}" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestMarshalPretty(t *testing.T) {
	out, err := MarshalPretty(sample{Title: "<T&>", N: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\n  \"title\": \"<T&>\",\n  \"n\": 1\n}\n"
	if string(out) != want {
		t.Errorf("MarshalPretty() = %q, want %q", out, want)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview(strings.Repeat("x", 10), 4); got != "xxxx..." {
		t.Errorf("unexpected preview %q", got)
	}
	if got := Preview("short", 10); got != "short" {
		t.Errorf("unexpected preview %q", got)
	}
}
