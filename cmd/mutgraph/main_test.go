package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, storePath string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--store", storePath,
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
	}, args...))
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute(%v): %v", args, err)
	}
	return out.String()
}

func TestVersionCmd(t *testing.T) {
	out := runCmd(t, filepath.Join(t.TempDir(), "log.db"), "version")
	if !strings.HasPrefix(out, "mutgraph ") {
		t.Fatalf("output = %q, want version line", out)
	}
}

func TestRecordAndLogCmd(t *testing.T) {
	store := filepath.Join(t.TempDir(), "log.db")

	out := runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")
	if !strings.HasPrefix(out, "recorded ") {
		t.Fatalf("record output = %q", out)
	}

	// Re-recording the same successor is a no-op.
	out = runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")
	if !strings.Contains(out, "already recorded") {
		t.Fatalf("replay output = %q", out)
	}

	out = runCmd(t, store, "log")
	if !strings.Contains(out, "bbbb amend <- aaaa") {
		t.Fatalf("log output = %q", out)
	}
}

func TestObsoleteCmd(t *testing.T) {
	store := filepath.Join(t.TempDir(), "log.db")
	runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")

	out := runCmd(t, store, "obsolete", "aaaa", "bbbb")
	if !strings.Contains(out, "aaaa: obsolete") {
		t.Errorf("output = %q, want aaaa obsolete", out)
	}
	if !strings.Contains(out, "bbbb: not obsolete") {
		t.Errorf("output = %q, want bbbb not obsolete", out)
	}
}

func TestSuccsCmd_Closest(t *testing.T) {
	store := filepath.Join(t.TempDir(), "log.db")
	runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")
	runCmd(t, store, "record", "--succ", "cccc", "--pred", "bbbb", "--op", "amend")

	out := runCmd(t, store, "succs", "aaaa")
	if strings.TrimSpace(out) != "cccc" {
		t.Errorf("succs output = %q, want cccc", out)
	}

	out = runCmd(t, store, "succs", "--closest", "aaaa")
	if strings.TrimSpace(out) != "bbbb" {
		t.Errorf("succs --closest output = %q, want bbbb", out)
	}
}

func TestPredsCmd(t *testing.T) {
	store := filepath.Join(t.TempDir(), "log.db")
	runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")

	out := runCmd(t, store, "preds", "bbbb")
	if strings.TrimSpace(out) != "aaaa" {
		t.Errorf("preds output = %q, want aaaa", out)
	}
}

func TestFateCmd(t *testing.T) {
	store := filepath.Join(t.TempDir(), "log.db")
	runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")

	out := runCmd(t, store, "fate", "aaaa")
	if !strings.Contains(out, "rewritten using amend as bbbb") {
		t.Errorf("fate output = %q", out)
	}
}

func TestToposortCmd(t *testing.T) {
	store := filepath.Join(t.TempDir(), "log.db")
	runCmd(t, store, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")

	out := runCmd(t, store, "toposort", "bbbb", "aaaa")
	if strings.TrimSpace(out) != "aaaa\nbbbb" {
		t.Errorf("toposort output = %q, want aaaa then bbbb", out)
	}
}

func TestBundleUnbundleCmd(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.db")
	runCmd(t, src, "record", "--succ", "bbbb", "--pred", "aaaa", "--op", "amend")

	bundlePath := filepath.Join(t.TempDir(), "mutation.bundle")
	out := runCmd(t, src, "bundle", "-o", bundlePath, "bbbb")
	if !strings.Contains(out, "wrote ") {
		t.Fatalf("bundle output = %q", out)
	}

	dst := filepath.Join(t.TempDir(), "dst.db")
	out = runCmd(t, dst, "unbundle", bundlePath)
	if !strings.Contains(out, "recorded 1 new entries") {
		t.Fatalf("unbundle output = %q", out)
	}

	out = runCmd(t, dst, "log")
	if !strings.Contains(out, "bbbb amend <- aaaa") {
		t.Fatalf("log after unbundle = %q", out)
	}
}
