// Package validation holds small input checks shared by the CLI commands.
package validation

import (
	"fmt"
	"os"
)

// IsValidPath checks if a given path exists and is accessible.
func IsValidPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}

	// Check if it's a file or directory
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}

	return nil
}

// IsValidWorkbookDir checks that a path exists and is a directory, the shape
// a CSV workbook is stored in.
func IsValidWorkbookDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("workbook directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking workbook directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workbook path is not a directory: %s", path)
	}
	return nil
}
