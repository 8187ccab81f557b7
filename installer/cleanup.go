package installer

import (
	"os"
	"path/filepath"
)

// nonConsumableEntries lists the well-known, non-Roblox-consumable root
// entries removed by the cleanup step, verbatim from spec.md §4.4 step 4.
var nonConsumableEntries = []string{
	"README.md", "README.txt",
	"LICENSE", "LICENSE.md", "LICENSE.txt",
	".gitignore", ".gitattributes", ".github", ".git",
	"package.json", "package-lock.json", "yarn.lock",
	"wally.toml", "selene.toml", "stylua.toml",
	"docs", "documentation", "examples", "test", "tests",
	".travis.yml", ".vscode", "rotriever.toml",
}

// cleanupTree removes nonConsumableEntries from the package root at dir,
// recursively for directories. It never touches anything outside dir.
func cleanupTree(dir string) error {
	for _, name := range nonConsumableEntries {
		path := filepath.Join(dir, name)
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
