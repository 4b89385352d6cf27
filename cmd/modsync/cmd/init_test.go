package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/manifest"
)

// useProject points the package-level settings at dir for one test.
func useProject(t *testing.T, dir string) {
	t.Helper()
	old := settings
	settings = &config.Settings{ProjectDir: dir, LogLevel: "info", GitBinary: "git"}
	t.Cleanup(func() { settings = old })
}

func TestInitCreatesManifest(t *testing.T) {
	dir := t.TempDir()
	useProject(t, dir)

	initForce, initFormat = false, "yaml"
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := manifest.Load(filepath.Join(dir, "modsync.tracking.yaml")); err != nil {
		t.Fatalf("scaffold should load cleanly: %v", err)
	}
}

func TestInitTOML(t *testing.T) {
	dir := t.TempDir()
	useProject(t, dir)

	initForce, initFormat = false, "toml"
	defer func() { initFormat = "yaml" }()
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := manifest.Load(filepath.Join(dir, "modsync.tracking.toml")); err != nil {
		t.Fatalf("scaffold should load cleanly: %v", err)
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	useProject(t, dir)
	outPath := filepath.Join(dir, "modsync.tracking.yaml")

	if err := os.WriteFile(outPath, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	initForce, initFormat = false, "yaml"
	err := initCmd.RunE(initCmd, nil)
	if err == nil {
		t.Fatal("expected error when file exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error should mention 'already exists': %v", err)
	}
}

func TestInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	useProject(t, dir)
	outPath := filepath.Join(dir, "modsync.tracking.yaml")

	if err := os.WriteFile(outPath, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}

	initForce, initFormat = true, "yaml"
	defer func() { initForce = false }()
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "old content" {
		t.Error("file was not overwritten")
	}
}

func TestInitUnknownFormat(t *testing.T) {
	useProject(t, t.TempDir())

	initForce, initFormat = false, "json"
	defer func() { initFormat = "yaml" }()
	if err := initCmd.RunE(initCmd, nil); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
