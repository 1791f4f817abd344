package env

import (
	"os"
	"path/filepath"
)

// WorkDir returns the per-user state directory, <UserCacheDir>/.hsbuild.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".hsbuild"), nil
}

// CompilerCacheDir returns the directory holding probed compiler
// descriptions. It creates the directory with 0700 permissions if it
// doesn't exist.
func CompilerCacheDir() (string, error) {
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(workDir, "compilers")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
