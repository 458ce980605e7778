package course

import "testing"

func TestShortID(t *testing.T) {
	cases := map[string]string{
		"abc123def456": "abc123",
		"abc123":       "abc123",
		"ab":           "ab",
		"":             "",
	}
	for id, want := range cases {
		c := Course{ID: id}
		if got := c.ShortID(); got != want {
			t.Errorf("ShortID(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestShortIDCutsRunes(t *testing.T) {
	c := Course{ID: "課程日本語講座入門"}
	if got := c.ShortID(); got != "課程日本語講" {
		t.Fatalf("ShortID = %q", got)
	}
}
