package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleCollection() Collection {
	c := Defaults()
	c.Set(NoiseSettings{Type: Shape, Channel: R, Seed: 42, Mix: 0.5, FrequencyA: 4, FrequencyB: 8, FrequencyC: 16})
	c.Set(NoiseSettings{Type: Detail, Channel: B, Seed: -9, Mix: 0.25, FrequencyA: 2, FrequencyB: 3, FrequencyC: 64})
	return c
}

func TestValidate(t *testing.T) {
	good := NoiseSettings{Type: Detail, Channel: A, Mix: 1, FrequencyA: 1, FrequencyB: 32, FrequencyC: 64}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []NoiseSettings{
		{Type: 2, FrequencyA: 1, FrequencyB: 1, FrequencyC: 1},
		{Channel: 4, FrequencyA: 1, FrequencyB: 1, FrequencyC: 1},
		{Mix: 1.5, FrequencyA: 1, FrequencyB: 1, FrequencyC: 1},
		{Mix: -0.1, FrequencyA: 1, FrequencyB: 1, FrequencyC: 1},
		{FrequencyA: 0, FrequencyB: 1, FrequencyC: 1},
		{FrequencyA: 1, FrequencyB: 65, FrequencyC: 1},
	}
	for i, s := range bad {
		if err := s.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}

func TestDefaultsAreValidAndIndexed(t *testing.T) {
	c := Defaults()
	for i, s := range c {
		if err := s.Validate(); err != nil {
			t.Fatalf("default %d invalid: %v", i, err)
		}
		if s.Index() != i {
			t.Fatalf("default %d has index %d", i, s.Index())
		}
	}
	if got := c.Get(Detail, G); got.Type != Detail || got.Channel != G {
		t.Fatalf("Get returned %+v", got)
	}
}

func TestDefaultsDifferPerChannel(t *testing.T) {
	c := Defaults()
	seen := make(map[NoiseSettings]bool)
	for _, s := range c {
		key := s
		key.Type, key.Channel = 0, 0
		if seen[key] {
			t.Fatalf("default for %s %s repeats another slot: %+v", s.Type, s.Channel, s)
		}
		seen[key] = true
	}
	if a, r := c.Get(Shape, A), c.Get(Shape, R); a.FrequencyA <= r.FrequencyA {
		t.Fatalf("later channels should use more cells: R=%d A=%d", r.FrequencyA, a.FrequencyA)
	}
}

func TestNextSeedReproducible(t *testing.T) {
	s := NoiseSettings{Seed: 1234}
	a, b := s.NextSeed(), s.NextSeed()
	if a != b {
		t.Fatalf("NextSeed not reproducible: %d vs %d", a, b)
	}
	if a == s.Seed || a < 0 {
		t.Fatalf("unexpected next seed %d", a)
	}
}

func TestFromRecordsFillsGaps(t *testing.T) {
	records := []NoiseSettings{
		{Type: Shape, Channel: G, Seed: 5, Mix: 0.1, FrequencyA: 3, FrequencyB: 3, FrequencyC: 3},
		{Type: Detail, Channel: R, Seed: 6, FrequencyA: 0}, // invalid, replaced by default
	}
	c, missing := FromRecords(records)
	if missing != Count-1 {
		t.Fatalf("missing = %d, want %d", missing, Count-1)
	}
	if c.Get(Shape, G).Seed != 5 {
		t.Fatal("valid record not placed in its slot")
	}
	if c.Get(Detail, R) != Default(Detail, R) {
		t.Fatal("invalid record should be replaced by the default")
	}
}

func TestParse(t *testing.T) {
	if nt, err := ParseNoiseType("detail"); err != nil || nt != Detail {
		t.Fatalf("ParseNoiseType: %v %v", nt, err)
	}
	if _, err := ParseNoiseType("weather"); err == nil {
		t.Fatal("expected error")
	}
	if ch, err := ParseChannel("b"); err != nil || ch != B {
		t.Fatalf("ParseChannel: %v %v", ch, err)
	}
	if Channel(3).String() != "A" || Shape.String() != "shape" {
		t.Fatal("unexpected String output")
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.Load("new-scene"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	c, found, err := Resolve(store, "new-scene")
	if err != nil || found {
		t.Fatalf("Resolve: found=%v err=%v", found, err)
	}
	if c != Defaults() {
		t.Fatal("Resolve should fall back to defaults")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "Settings"))
	want := sampleCollection()
	if err := store.Save("Main Scene", want); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load("Main Scene")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	data, err := os.ReadFile(store.Path("Main Scene"))
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"settings"`, `"frequencyA": 4`, `"mix": 0.5`, `"seed": 42`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("serialized file missing %s", field)
		}
	}

	entries, _ := os.ReadDir(store.Dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the settings file, found %d entries", len(entries))
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if err := os.WriteFile(store.Path("broken"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := store.Load("broken")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt file should be a hard error, got %v", err)
	}
}

func TestFileStoreSanitizesKey(t *testing.T) {
	store := NewFileStore("/tmp/x")
	if got := filepath.Base(store.Path("levels/one")); got != "levels_one.json" {
		t.Fatalf("Path = %s", got)
	}
	if got := filepath.Base(store.Path("  ")); got != "default.json" {
		t.Fatalf("Path = %s", got)
	}
}

func TestFileStoreKeys(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "Settings"))
	keys, err := store.Keys()
	if err != nil || len(keys) != 0 {
		t.Fatalf("missing dir: Keys = %v, %v", keys, err)
	}

	for _, k := range []string{"beta", "alpha"} {
		if err := store.Save(k, Defaults()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(store.Dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	keys, err = store.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "beta" {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.Load("scene"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := sampleCollection()
	if err := store.Save("scene", want); err != nil {
		t.Fatal(err)
	}
	// A second save replaces rather than appends.
	want.Set(NoiseSettings{Type: Shape, Channel: A, Seed: 77, Mix: 1, FrequencyA: 9, FrequencyB: 9, FrequencyC: 9})
	if err := store.Save("scene", want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("scene")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	keys, err := store.Keys()
	if err != nil || len(keys) != 1 || keys[0] != "scene" {
		t.Fatalf("Keys = %v, %v", keys, err)
	}
}
