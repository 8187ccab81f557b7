package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/OMouta/Jelly/resolver"
)

// shimHeader is preserved verbatim so that regenerated shims diff cleanly
// against previously committed ones.
const shimHeader = "-- Generated by Jelly. Do not edit by hand.\n-- This file redirects to the package's real location in _Index.\n"

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

func sanitizeVersion(v resolver.Version) string {
	return nonAlnum.ReplaceAllString(v.String(), "_")
}

type indexedPackage struct {
	id      resolver.PackageID
	version resolver.Version
	hasVer  bool
	dirName string
}

// emitShims reads the _Index directory once and writes the full shim
// layer in one pass, per spec.md §4.4 step 6 / §5's "reads _Index once,
// writes all shims in one pass" ordering guarantee.
func (inst *Installer) emitShims(packagesPath string) error {
	indexRoot := filepath.Join(packagesPath, "_Index")
	entries, err := os.ReadDir(indexRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	byName := make(map[string][]indexedPackage)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, v, ok := readMarker(filepath.Join(indexRoot, e.Name()))
		if !ok {
			continue
		}
		byName[id.Name] = append(byName[id.Name], indexedPackage{id: id, version: v, hasVer: !v.IsZero(), dirName: e.Name()})
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pkgs := byName[name]
		if err := inst.writeShimsForName(packagesPath, name, pkgs); err != nil {
			return err
		}
	}
	return nil
}

func (inst *Installer) writeShimsForName(packagesPath, name string, pkgs []indexedPackage) error {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].version.LessThan(pkgs[j].version) })

	if len(pkgs) == 1 {
		return writeShim(filepath.Join(packagesPath, name+".lua"), pkgs[0].dirName)
	}

	highest := pkgs[len(pkgs)-1]
	for _, p := range pkgs {
		if !p.hasVer {
			continue
		}
		versioned := fmt.Sprintf("%s_%s.lua", name, sanitizeVersion(p.version))
		if err := writeShim(filepath.Join(packagesPath, versioned), p.dirName); err != nil {
			return err
		}
	}
	return writeShim(filepath.Join(packagesPath, name+".lua"), highest.dirName)
}

func writeShim(path, indexDirName string) error {
	body := shimHeader + fmt.Sprintf("return require(script.Parent._Index[%q])\n", indexDirName)
	return os.WriteFile(path, []byte(body), 0o644)
}

// shimTargetDir reads an existing shim file and returns the _Index
// directory it redirects to, used by the "shim ↔ package" testable
// property checks in the tests.
func shimTargetDir(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	const marker = "_Index["
	s := string(data)
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	s = s[i+len(marker):]
	j := strings.IndexByte(s, ']')
	if j < 0 {
		return "", false
	}
	name := strings.Trim(s[:j], `"`)
	return name, name != ""
}
