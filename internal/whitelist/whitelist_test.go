package whitelist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wl.txt")
	content := "# sensors\n/imu\n\n  /gps  \n# trailing comment\n/tf\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	topics, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/imu", "/gps", "/tf"}
	if !reflect.DeepEqual(topics, want) {
		t.Errorf("topics = %v, want %v", topics, want)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wl.txt")
	if err := Save(path, []string{"/tf", "/imu", "/gps"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	topics, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Saved sorted.
	want := []string{"/gps", "/imu", "/tf"}
	if !reflect.DeepEqual(topics, want) {
		t.Errorf("topics = %v, want %v", topics, want)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"sensors.txt", "nav.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("/imu\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"nav", "sensors"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestListMissingDir(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil || names != nil {
		t.Errorf("List = %v, %v; want nil, nil", names, err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "sensors.txt")
	if err := os.WriteFile(full, []byte("/imu\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"sensors", "sensors.txt", full} {
		got, err := Resolve(dir, name)
		if err != nil {
			t.Errorf("Resolve(%q): %v", name, err)
			continue
		}
		if got != full {
			t.Errorf("Resolve(%q) = %q, want %q", name, got, full)
		}
	}

	if _, err := Resolve(dir, "absent"); err == nil {
		t.Error("expected error for unknown name")
	}
}
