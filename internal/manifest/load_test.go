package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exampleYAML = `version: 1
module_dirs:
  - dir: src/modules
    modules:
      - name: stdlib
        source: https://github.com/example/stdlib.git
        ref: main
      - name: concat
        source: https://github.com/example/concat.git
        ref: v1.2.0
        options:
          note: vendored
  - dir: src/assets
    modules:
      - name: stdlib
        source: https://github.com/example/stdlib.git
        ref: develop
`

const exampleTOML = `version = 1

[[module_dirs]]
dir = "src/modules"

  [[module_dirs.modules]]
  name = "stdlib"
  source = "https://github.com/example/stdlib.git"
  ref = "main"

  [[module_dirs.modules]]
  name = "concat"
  source = "https://github.com/example/concat.git"
  ref = "v1.2.0"

    [module_dirs.modules.options]
    note = "vendored"
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	m, err := Load(writeManifest(t, "modsync.tracking.yaml", exampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(m.ModuleDirs) != 2 {
		t.Fatalf("module dirs = %d, want 2", len(m.ModuleDirs))
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d, want 3", m.Len())
	}
	first := m.ModuleDirs[0]
	if first.Dir != "src/modules" || first.Modules[0].Name != "stdlib" || first.Modules[1].Name != "concat" {
		t.Errorf("manifest order not preserved: %+v", first)
	}
	if first.Modules[1].Options["note"] != "vendored" {
		t.Errorf("options = %v", first.Modules[1].Options)
	}
}

func TestLoadTOML(t *testing.T) {
	m, err := Load(writeManifest(t, "modsync.tracking.toml", exampleTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if m.ModuleDirs[0].Modules[1].Ref != "v1.2.0" {
		t.Errorf("ref = %q", m.ModuleDirs[0].Modules[1].Ref)
	}
	if m.ModuleDirs[0].Modules[1].Options["note"] != "vendored" {
		t.Errorf("options = %v", m.ModuleDirs[0].Modules[1].Options)
	}
}

func TestLoadTOMLUnknownKey(t *testing.T) {
	content := strings.Replace(exampleTOML, `ref = "main"`, "ref = \"main\"\n  branch = \"x\"", 1)
	_, err := Load(writeManifest(t, "modsync.tracking.toml", content))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeManifest(t, "modsync.tracking.json", "{}"))
	if err == nil {
		t.Fatal("expected error for .json manifest")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/modsync.tracking.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeManifest(t, "modsync.tracking.yaml", "version: [\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadValidationError(t *testing.T) {
	_, err := Load(writeManifest(t, "modsync.tracking.yaml", "version: 2\nmodule_dirs: []\n"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(vErr.Errors) != 2 {
		t.Errorf("errors = %v, want 2", vErr.Errors)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			src, err := Load(writeManifest(t, "modsync.tracking.yaml", exampleYAML))
			if err != nil {
				t.Fatal(err)
			}

			path := filepath.Join(t.TempDir(), "modsync.stable"+ext)
			if err := Save(path, src); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("temp file should be cleaned up")
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load after Save: %v", err)
			}
			if got.Len() != src.Len() {
				t.Fatalf("Len = %d, want %d", got.Len(), src.Len())
			}
			for i, d := range src.ModuleDirs {
				for j, mod := range d.Modules {
					g := got.ModuleDirs[i].Modules[j]
					if g.Name != mod.Name || g.Source != mod.Source || g.Ref != mod.Ref {
						t.Errorf("module %d/%d = %+v, want %+v", i, j, g, mod)
					}
				}
			}
			if got.ModuleDirs[0].Modules[1].Options["note"] != "vendored" {
				t.Error("options lost in round trip")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Manifest {
		return &Manifest{
			Version: 1,
			ModuleDirs: []ModuleDir{{
				Dir: "modules",
				Modules: []Module{
					{Name: "a", Source: "https://example.com/a.git", Ref: "main"},
				},
			}},
		}
	}

	tests := []struct {
		name   string
		mutate func(m *Manifest)
		want   string
	}{
		{"valid", func(m *Manifest) {}, ""},
		{"bad version", func(m *Manifest) { m.Version = 0 }, "unsupported version"},
		{"no dirs", func(m *Manifest) { m.ModuleDirs = nil }, "at least one"},
		{"missing dir", func(m *Manifest) { m.ModuleDirs[0].Dir = "" }, "'dir' is required"},
		{"duplicate dir", func(m *Manifest) {
			m.ModuleDirs = append(m.ModuleDirs, ModuleDir{Dir: "./modules"})
		}, "duplicate module dir"},
		{"missing name", func(m *Manifest) { m.ModuleDirs[0].Modules[0].Name = "" }, "'name' is required"},
		{"nested name", func(m *Manifest) { m.ModuleDirs[0].Modules[0].Name = "a/b" }, "single path element"},
		{"dot name", func(m *Manifest) { m.ModuleDirs[0].Modules[0].Name = ".." }, "single path element"},
		{"duplicate name", func(m *Manifest) {
			m.ModuleDirs[0].Modules = append(m.ModuleDirs[0].Modules, m.ModuleDirs[0].Modules[0])
		}, "duplicate module name"},
		{"missing source", func(m *Manifest) { m.ModuleDirs[0].Modules[0].Source = "" }, "'source' is required"},
		{"missing ref", func(m *Manifest) { m.ModuleDirs[0].Modules[0].Ref = "" }, "'ref' is required"},
		{"same name in another dir", func(m *Manifest) {
			m.ModuleDirs = append(m.ModuleDirs, ModuleDir{Dir: "other", Modules: m.ModuleDirs[0].Modules})
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			errs := Validate(m)
			if tt.want == "" {
				if len(errs) != 0 {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			joined := strings.Join(errs, "\n")
			if !strings.Contains(joined, tt.want) {
				t.Errorf("errors %q do not mention %q", joined, tt.want)
			}
		})
	}
}
