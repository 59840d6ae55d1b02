package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("pokerlog %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestLiveSessionCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pokerlog.db")

	out := mustRun(t, "--db", db, "start", "--buy-in", "200", "--game", "Pot Limit Omaha", "--table", "6-max")
	if !strings.HasPrefix(out, "started Pot Limit Omaha 1/2") {
		t.Fatalf("unexpected start output: %q", out)
	}

	if _, err := run(t, "--db", db, "start"); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected second start to fail, got %v", err)
	}

	if _, err := run(t, "--db", db, "end"); err == nil {
		t.Fatal("expected end without --cash-out to fail")
	}

	out = mustRun(t, "--db", db, "end", "--cash-out", "260")
	if !strings.Contains(out, ": +60$ over 0h 0m") {
		t.Fatalf("unexpected end output: %q", out)
	}

	if _, err := run(t, "--db", db, "end", "--cash-out", "1"); err == nil || !strings.Contains(err.Error(), "no live session") {
		t.Fatalf("expected end without live session to fail, got %v", err)
	}
}

func TestAddListAndStats(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pokerlog.db")

	out := mustRun(t, "--db", db, "stats")
	if !strings.Contains(out, "Sessions:     0") || !strings.Contains(out, "Profit:       +0$") {
		t.Fatalf("unexpected empty stats: %q", out)
	}
	if out := mustRun(t, "--db", db, "list"); strings.TrimSpace(out) != "no sessions" {
		t.Fatalf("unexpected empty list: %q", out)
	}

	mustRun(t, "--db", db, "add", "--buy-in", "100", "--cash-out", "250",
		"--start", "2026-01-10T18:00:00Z", "--end", "2026-01-10T20:00:00Z")
	mustRun(t, "--db", db, "add", "--buy-in", "100", "--cash-out", "40",
		"--start", "2026-01-12T18:00:00Z", "--end", "2026-01-12T19:00:00Z")

	if _, err := run(t, "--db", db, "add", "--buy-in", "100", "--cash-out", "40",
		"--start", "2026-01-12T18:00:00Z", "--end", "2026-01-12T17:00:00Z"); err == nil {
		t.Fatal("expected end before start to fail")
	}

	for _, amount := range []string{"Inf", "NaN"} {
		if _, err := run(t, "--db", db, "add", "--buy-in", "100", "--cash-out", amount,
			"--start", "2026-01-12T18:00:00Z", "--end", "2026-01-12T19:00:00Z"); err == nil {
			t.Fatalf("expected cash-out %s to be rejected", amount)
		}
	}

	out = mustRun(t, "--db", db, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 listed sessions, got %q", out)
	}
	if !strings.Contains(lines[0], "-60$") || !strings.Contains(lines[1], "+150$") {
		t.Fatalf("expected newest first: %q", out)
	}

	out = mustRun(t, "--db", db, "stats")
	for _, want := range []string{
		"Sessions:     2",
		"Profit:       +90$",
		"Hours:        3.0",
		"Hourly:       +30.00$/h",
		"Win rate:     50.0%",
		"Biggest win:  +150$",
		"Biggest loss: -60$",
		"Avg profit:   +45$",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	file := filepath.Join(dir, "sessions.yaml")

	mustRun(t, "--db", src, "add", "--buy-in", "100", "--cash-out", "180", "--location", "Aria",
		"--start", "2026-01-10T18:00:00Z", "--end", "2026-01-10T22:00:00Z")
	mustRun(t, "--db", src, "start", "--buy-in", "300")

	out := mustRun(t, "--db", src, "export", file)
	if !strings.Contains(out, "exported 2 sessions") {
		t.Fatalf("unexpected export output: %q", out)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	for _, want := range []string{"game_type: NL Hold'em", "location: Aria", "status: live", "cash_out: 180"} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("export missing %q:\n%s", want, raw)
		}
	}

	out = mustRun(t, "--db", dst, "import", file)
	if !strings.Contains(out, "imported 2 of 2 sessions") {
		t.Fatalf("unexpected import output: %q", out)
	}
	out = mustRun(t, "--db", dst, "import", file)
	if !strings.Contains(out, "imported 0 of 2 sessions") || !strings.Contains(out, "session already exists") {
		t.Fatalf("expected re-import to add nothing: %q", out)
	}
	out = mustRun(t, "--db", src, "import", file)
	if !strings.Contains(out, "imported 0 of 2 sessions") {
		t.Fatalf("expected import into the source to add nothing: %q", out)
	}

	srcList := mustRun(t, "--db", src, "list")
	dstList := mustRun(t, "--db", dst, "list")
	if len(strings.Split(strings.TrimSpace(dstList), "\n")) != 2 {
		t.Fatalf("expected 2 imported sessions, got %q", dstList)
	}
	if !strings.Contains(dstList, "+80$") || !strings.Contains(srcList, "+80$") {
		t.Fatalf("unexpected listings:\n%s\n%s", srcList, dstList)
	}

	out = mustRun(t, "--db", dst, "stats")
	if !strings.Contains(out, "Sessions:     1") || !strings.Contains(out, "Profit:       +80$") {
		t.Fatalf("unexpected imported stats: %q", out)
	}
	if !strings.Contains(out, "Live: NL Hold'em 1/2") {
		t.Fatalf("expected imported live session in stats: %q", out)
	}
}
