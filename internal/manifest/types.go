package manifest

// Manifest is a fully resolved list of module dependencies grouped by the
// directory they are checked out into.
type Manifest struct {
	Version    int         `yaml:"version" toml:"version"`
	ModuleDirs []ModuleDir `yaml:"module_dirs" toml:"module_dirs"`
}

// ModuleDir groups sibling modules under one directory.
type ModuleDir struct {
	// Dir is relative to the manifest's directory unless absolute.
	Dir     string   `yaml:"dir" toml:"dir"`
	Modules []Module `yaml:"modules" toml:"modules"`
}

// Module declares one dependency.
type Module struct {
	Name   string `yaml:"name" toml:"name"`
	Source string `yaml:"source" toml:"source"`
	Ref    string `yaml:"ref" toml:"ref"`

	// Options carries any additional settings through load and save untouched.
	Options map[string]string `yaml:"options,omitempty" toml:"options,omitempty"`
}

// Len returns the number of declared modules across all module directories.
func (m *Manifest) Len() int {
	n := 0
	for _, d := range m.ModuleDirs {
		n += len(d.Modules)
	}
	return n
}
