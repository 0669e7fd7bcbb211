package passage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lexiscore/lexiscore/internal/passage"
)

const sampleSeed = `
passages:
  - id: pangram-01
    title: "Quick Fox"
    kind: typing
    body: "The quick brown fox jumps over the lazy dog."
  - id: moby-01
    title: "Moby Dick, opening"
    kind: dictation
    body: "Call me Ishmael."
`

func TestLoadSeedFromReader(t *testing.T) {
	t.Parallel()

	sf, err := passage.LoadSeedFromReader(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("LoadSeedFromReader: unexpected error: %v", err)
	}
	if len(sf.Passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(sf.Passages))
	}
	if sf.Passages[0].Kind != passage.KindTyping {
		t.Errorf("passages[0].kind = %q, want typing", sf.Passages[0].Kind)
	}
}

func TestLoadSeedFromReader_UnknownKey(t *testing.T) {
	t.Parallel()

	yaml := `
passages:
  - title: "Typo"
    boddy: "text"
`
	_, err := passage.LoadSeedFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestLoadSeedFromReader_EmptyBody(t *testing.T) {
	t.Parallel()

	yaml := `
passages:
  - title: "Empty"
    kind: typing
    body: ""
`
	_, err := passage.LoadSeedFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for empty body, got nil")
	}
	if !strings.Contains(err.Error(), "empty body") {
		t.Errorf("error should mention empty body, got: %v", err)
	}
}

func TestLoadSeedFromReader_InvalidKind(t *testing.T) {
	t.Parallel()

	yaml := `
passages:
  - title: "Bad"
    kind: speedrun
    body: "text"
`
	_, err := passage.LoadSeedFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid kind, got nil")
	}
}

func TestImportSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := passage.NewMemStore()
	sf, err := passage.LoadSeedFromReader(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("LoadSeedFromReader: %v", err)
	}

	n, err := passage.ImportSeed(ctx, s, sf)
	if err != nil {
		t.Fatalf("ImportSeed: unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("ImportSeed: expected 2 added, got %d", n)
	}

	// Re-importing the same seed skips existing IDs.
	n, err = passage.ImportSeed(ctx, s, sf)
	if err != nil {
		t.Fatalf("ImportSeed again: unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("ImportSeed again: expected 0 added, got %d", n)
	}
}

func TestImportSeed_Nil(t *testing.T) {
	t.Parallel()

	_, err := passage.ImportSeed(context.Background(), passage.NewMemStore(), nil)
	if err == nil {
		t.Fatal("expected error for nil seed, got nil")
	}
}
