package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{""}},
		{"single component", "README.md", []string{"README.md"}},
		{"nested path", "src/main/App.java", []string{"src", "main", "App.java"}},
		{"directory entry keeps trailing empty term", "META-INF/", []string{"META-INF", ""}},
		{"leading delimiter", "/etc/hosts", []string{"", "etc", "hosts"}},
		{"duplicate delimiters", "a//b", []string{"a", "", "b"}},
		{"only delimiter", "/", []string{"", ""}},
		{"case is preserved", "Lombok/LOMBOK", []string{"Lombok", "LOMBOK"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeItems(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{"no items", nil, []string{}},
		{"two items in order", []string{"a/b", "c"}, []string{"a", "b", "c"}},
		{"repeats are not deduplicated", []string{"a/a", "a"}, []string{"a", "a", "a"}},
		{"empty item is one empty term", []string{""}, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenizeItems(tt.items)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TokenizeItems(%q) = %q, want %q", tt.items, got, tt.want)
			}
		})
	}
}

func TestQueryTermsFromEntries(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{"no entries", nil, []string{""}},
		{"single file", []string{"README.md"}, []string{"README.md", ""}},
		{
			"directory and files",
			[]string{"lib/", "lib/lombok.jar", "AUTHORS"},
			[]string{"lib", "", "lib", "lombok.jar", "AUTHORS", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueryTermsFromEntries(tt.names)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("QueryTermsFromEntries(%q) = %q, want %q", tt.names, got, tt.want)
			}
		})
	}
}
