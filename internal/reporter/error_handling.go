package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gst-reconciler/pkg/errors"
)

// lockFilePrefix marks the owner file an office suite keeps beside a
// workbook while it is open.
const lockFilePrefix = "~$"

// checkDestination verifies that path can be written before any work is
// done on the workbook. A workbook that is open elsewhere, or a destination
// that cannot be written, is reported as a resource-busy error.
func checkDestination(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, dir, err).
				WithSuggestion("create the output folder or choose an existing one")
		}
		return errors.ResourceBusyError(path, err)
	}
	if !info.IsDir() {
		return errors.FileError(errors.CodeFileNotFound, dir, fmt.Errorf("%s is not a directory", dir))
	}

	lock := filepath.Join(dir, lockFilePrefix+filepath.Base(path))
	if _, err := os.Stat(lock); err == nil {
		return errors.ResourceBusyError(path, fmt.Errorf("workbook is locked by %s", lock)).
			WithContext("lock_file", lock)
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return errors.ResourceBusyError(path, fmt.Errorf("%s is a directory", path))
		}
		// Opening for append neither truncates nor creates the file
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			return errors.ResourceBusyError(path, err)
		}
		f.Close()
	}

	return nil
}

// wrapWriteError classifies a failure from saving the workbook
func wrapWriteError(path string, err error) error {
	if err == nil {
		return nil
	}
	if rerr, ok := errors.AsReconcilerError(err); ok {
		return rerr
	}
	if isSpaceError(err) {
		return errors.ResourceBusyError(path, err).
			WithSuggestion("there is not enough disk space for the output file; free some space and try again")
	}
	return errors.ResourceBusyError(path, err)
}

func isSpaceError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no space left") || strings.Contains(msg, "disk full")
}
