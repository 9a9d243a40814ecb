package msgcat

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestEmbeddedCommands(t *testing.T) {
    c := Default()
    got, err := c.Render(KeyMake, map[string]any{"Title": "OWC: (Team A) vs (Team B)"})
    if err != nil { t.Fatalf("Render make: %v", err) }
    if got != "!mp make OWC: (Team A) vs (Team B)" { t.Fatalf("unexpected %q", got) }

    got, err = c.Render(KeySettings, nil)
    if err != nil || got != "!mp settings" { t.Fatalf("settings: %q %v", got, err) }

    got, err = c.Render("mp.set", map[string]any{"TeamMode": 2, "WinCondition": 3, "Size": 8})
    if err != nil || got != "!mp set 2 3 8" { t.Fatalf("set: %q %v", got, err) }

    got, err = c.Render("mp.start", map[string]any{"Seconds": 0})
    if err != nil || got != "!mp start" { t.Fatalf("start: %q %v", got, err) }
}

func TestMissingDataIsError(t *testing.T) {
    c := Default()
    if _, err := c.Render(KeyMake, map[string]any{}); err == nil {
        t.Fatalf("expected missingkey error")
    }
    if _, err := c.Render("mp.nope", nil); err == nil {
        t.Fatalf("expected unknown key error")
    }
}

func TestOverrideDir(t *testing.T) {
    dir := t.TempDir()
    write := func(name, body string) {
        t.Helper()
        if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil { t.Fatal(err) }
    }
    write("a.yaml", "mp:\n  settings: \"!mp settings 1\"\n")
    write("ignored.txt", "mp:\n  settings: nope\n")

    c, err := New(dir)
    if err != nil { t.Fatalf("New: %v", err) }
    if got, _ := c.Render(KeySettings, nil); got != "!mp settings 1" { t.Fatalf("override not applied: %q", got) }
    if !c.Has(KeyMake) { t.Fatalf("embedded key lost after override") }

    write("b.yml", "mp:\n  settings: \"!mp settings 2\"\n")
    if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
        t.Fatalf("expected duplicate key error, got %v", err)
    }
}

func TestKeysSorted(t *testing.T) {
    keys := Default().Keys()
    for i := 1; i < len(keys); i++ {
        if keys[i-1] > keys[i] { t.Fatalf("keys not sorted: %q", keys) }
    }
}
