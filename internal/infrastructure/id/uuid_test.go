package id

import (
	"regexp"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{32}$`)
	g := NewUUIDGenerator()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := g.NewID()
		if !re.MatchString(id) {
			t.Fatalf("unexpected id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
