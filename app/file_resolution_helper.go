package app

import "github.com/ludo-technologies/irscn/domain"

// ResolveFilePaths resolves the manifests to process. When every path is
// an existing manifest file the paths are returned as given, skipping the
// include and exclude patterns. Otherwise manifests are collected from the
// paths with the given filters.
func ResolveFilePaths(
	fileReader domain.FileReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := len(paths) > 0
	for _, path := range paths {
		if !fileReader.IsManifestFile(path) {
			allFiles = false
			break
		}

		// FileExists is true only for files, not directories
		exists, err := fileReader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileReader.CollectBodyFiles(paths, recursive, includePatterns, excludePatterns)
}
