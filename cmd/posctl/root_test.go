package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, args...)
	if err != nil {
		t.Fatalf("posctl %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestSeedAndListCategories(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "seed")

	out := mustRun(t, dir, "categories", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want header and 5 categories:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "Cà phê") || !strings.HasSuffix(strings.TrimSpace(lines[1]), "3") {
		t.Errorf("first row = %q, want Cà phê with 3 products", lines[1])
	}
}

func TestReorderCategories(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "seed")

	mustRun(t, dir, "categories", "reorder", "3", "1", "2", "4", "5")
	out := mustRun(t, dir, "categories", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.Contains(lines[1], "Sinh tố") {
		t.Errorf("first row = %q, want Sinh tố", lines[1])
	}

	if _, err := run(t, dir, "categories", "reorder", "1", "2"); err == nil {
		t.Error("expected a partial order to be rejected")
	}
}

func TestProductsListFilters(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "seed")

	out := mustRun(t, dir, "products", "list", "--category", "2")
	if !strings.Contains(out, "TS01") || strings.Contains(out, "CF01") {
		t.Errorf("category filter output:\n%s", out)
	}

	out = mustRun(t, dir, "products", "list", "-q", "bạc")
	if !strings.Contains(out, "CF03") || strings.Contains(out, "CF01") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestStaffAdd(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "seed")

	out := mustRun(t, dir, "staff", "add", "--name", "Lan", "--email", "lan@pos.com", "--role", "SERVER")
	if !strings.Contains(out, "username lan") {
		t.Errorf("add output = %q", out)
	}
	if out := mustRun(t, dir, "staff", "list"); !strings.Contains(out, "lan@pos.com") {
		t.Errorf("list output missing new account:\n%s", out)
	}

	if _, err := run(t, dir, "staff", "add", "--name", "Dup", "--email", "lan@pos.com"); err == nil {
		t.Error("expected duplicate e-mail to be rejected")
	}
}

func TestOrdersBoardEmpty(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "orders", "board")
	if strings.TrimSpace(out) != "STATUS  NUMBER  TYPE  TABLE  ITEMS  TOTAL" {
		t.Errorf("board output = %q", out)
	}
}
