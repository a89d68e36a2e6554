package utils

import (
	"path/filepath"
	"runtime"
)

// ResolveFile returns the path of the given file relative to the root
// of the module. For example, if this file currently
// lives in utils/file.go and ./etc/configs/leg.json is passed in,
// the result is <root>/etc/configs/leg.json. Tests use it to share the
// sample configs under etc/ instead of keeping copies next to each package.
func ResolveFile(fn string) string {
	//nolint:dogsled
	_, thisFilePath, _, _ := runtime.Caller(0)
	thisDirPath, err := filepath.Abs(filepath.Dir(thisFilePath))
	if err != nil {
		panic(err)
	}
	return filepath.Join(thisDirPath, "..", fn)
}
