// Package compiler reports which template compiler flavor a project uses.
// Projects on the 2.7 compiler need compiled templates routed through the
// project's own script rules.
package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/mod/semver"
)

// Flavor is the outcome of a probe.
type Flavor struct {
	Version string
	Is27    bool
}

// Probe detects the compiler flavor for a project directory.
type Probe interface {
	Detect(contextDir string) (Flavor, error)
}

// Static is a probe with a fixed answer.
type Static Flavor

func (s Static) Detect(string) (Flavor, error) {
	return Flavor(s), nil
}

// PackageProbe looks for <dir>/node_modules/<Package>/package.json in the
// context directory and its parents and reads the installed version.
type PackageProbe struct {
	Package string
}

const defaultPackage = "vue"

func (p PackageProbe) Detect(contextDir string) (Flavor, error) {
	pkg := p.Package
	if pkg == "" {
		pkg = defaultPackage
	}

	dir, err := filepath.Abs(contextDir)
	if err != nil {
		return Flavor{}, fmt.Errorf("resolve context: %w", err)
	}

	for {
		manifest := filepath.Join(dir, "node_modules", pkg, "package.json")
		version, err := readVersion(manifest)
		switch {
		case err == nil:
			return flavorFor(version)
		case !errors.Is(err, fs.ErrNotExist):
			return Flavor{}, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Flavor{}, nil
		}
		dir = parent
	}
}

func readVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return manifest.Version, nil
}

func flavorFor(version string) (Flavor, error) {
	v := "v" + version
	if !semver.IsValid(v) {
		return Flavor{}, fmt.Errorf("invalid compiler version %q", version)
	}
	is27 := semver.Major(v) == "v2" && semver.Compare(semver.MajorMinor(v), "v2.7") >= 0
	return Flavor{Version: version, Is27: is27}, nil
}

// FromSetting maps the plugin.compiler setting to a probe: "2.6" and "2.7"
// are fixed answers, anything else detects the installed package.
func FromSetting(setting string) Probe {
	switch setting {
	case "2.6":
		return Static{Version: "2.6"}
	case "2.7":
		return Static{Version: "2.7", Is27: true}
	default:
		return PackageProbe{}
	}
}
