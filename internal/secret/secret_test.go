package secret

import (
	"regexp"
	"testing"
)

func TestGenerate(t *testing.T) {
	printable := regexp.MustCompile(`^[a-z2-7]{32}$`)
	seen := map[string]bool{}

	for i := 0; i < 100; i++ {
		pw, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !printable.MatchString(pw) {
			t.Fatalf("password %q is not 32 base32 characters", pw)
		}
		if seen[pw] {
			t.Fatalf("duplicate password %q", pw)
		}
		seen[pw] = true
	}
}
