package installer

import (
	"encoding/json"
)

// ProjectFileNode is the reified form of a Rojo project file's `tree`:
// spec.md §9 calls out the source's dynamic untyped records ($className,
// tree.$path, heterogeneous nested trees) for re-architecture as a sum
// type. The installer only ever reads the root's $path, so this stays a
// minimal leaf/container split rather than a full Rojo tree model.
type ProjectFileNode struct {
	Path     string                     `json:"-"`
	Children map[string]ProjectFileNode `json:"-"`
}

type rawProjectFile struct {
	Tree rawProjectFileNode `json:"tree"`
}

type rawProjectFileNode struct {
	Path string `json:"$path"`
}

// readProjectFilePath returns the root tree's `$path`, if the project
// file at data declares one, tolerating any other unknown fields.
func readProjectFilePath(data []byte) (string, bool) {
	var raw rawProjectFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", false
	}
	if raw.Tree.Path == "" {
		return "", false
	}
	return raw.Tree.Path, true
}
