package passage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the top-level structure of a Lexiscore passage YAML file.
//
// Example:
//
//	passages:
//	  - id: gettysburg-opening
//	    title: "Gettysburg Address, opening"
//	    kind: dictation
//	    body: "Four score and seven years ago our fathers brought forth..."
type SeedFile struct {
	Passages []Passage `yaml:"passages"`
}

// LoadSeedFile reads and parses a passage YAML file from disk.
// Returns a descriptive error if the file cannot be opened or parsed.
func LoadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("passage: open seed file %q: %w", path, err)
	}
	defer f.Close()

	sf, err := LoadSeedFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("passage: parse seed file %q: %w", path, err)
	}
	return sf, nil
}

// LoadSeedFromReader parses passage YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadSeedFromReader(r io.Reader) (*SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("passage: decode seed yaml: %w", err)
	}
	for i, p := range sf.Passages {
		if p.Body == "" {
			return nil, fmt.Errorf("passage: seed passages[%d] (%q) has an empty body", i, p.Title)
		}
		if p.Kind != "" && !p.Kind.IsValid() {
			return nil, fmt.Errorf("passage: seed passages[%d] kind %q is invalid; valid values: dictation, typing", i, p.Kind)
		}
	}
	return &sf, nil
}

// ImportSeed adds all passages from a parsed [SeedFile] into store. Passages
// whose IDs already exist are skipped so the same seed file can be imported
// on every boot. Returns the number of passages actually added.
func ImportSeed(ctx context.Context, store Store, seed *SeedFile) (int, error) {
	if seed == nil {
		return 0, fmt.Errorf("passage: seed must not be nil")
	}
	added := 0
	for i, p := range seed.Passages {
		if _, err := store.AddPassage(ctx, p); err != nil {
			if errors.Is(err, ErrDuplicateID) {
				continue
			}
			return added, fmt.Errorf("passage: import seed at index %d (%q): %w", i, p.Title, err)
		}
		added++
	}
	return added, nil
}
