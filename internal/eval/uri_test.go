package eval

import "testing"

func TestMatchURI(t *testing.T) {
	tests := []struct {
		pattern string
		uri     string
		wantOK  bool
	}{
		{"/documents/42", "/documents/42", true},
		{"/documents/42", "/documents/43", false},
		{"/documents/{id}", "/documents/42", true},
		{"/documents/{id}", "/documents/42/comments", false},
		{"/documents/{id}/comments/{commentId}", "/documents/42/comments/7", true},
		{"/documents/*", "/documents/42", true},
		{"/documents/*", "/documents/42/comments/7", true},
		{"/documents/*", "/documents", false},
		{"/documents/{id}", "/documents", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.uri, func(t *testing.T) {
			ok, _ := MatchURI(tt.pattern, tt.uri)
			if ok != tt.wantOK {
				t.Errorf("MatchURI(%q, %q) = %v, want %v", tt.pattern, tt.uri, ok, tt.wantOK)
			}
		})
	}
}

func TestMatchURI_Specificity(t *testing.T) {
	_, exact := MatchURI("/documents/42", "/documents/42")
	_, param := MatchURI("/documents/{id}", "/documents/42")
	_, wildcard := MatchURI("/documents/*", "/documents/42")

	if !moreSpecific(exact, param) {
		t.Error("expected exact match to be more specific than parameterized")
	}
	if !moreSpecific(param, wildcard) {
		t.Error("expected parameterized match to be more specific than wildcard")
	}
}
