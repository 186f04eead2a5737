package preflight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"sitedrift/internal/config"
	"sitedrift/internal/entity"
	"sitedrift/internal/render"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckFileReadable verifies that path is a readable regular file.
func CheckFileReadable(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckTemplateCoverage renders every entity in memory and reports records
// whose fields do not cover the template's placeholders.
func CheckTemplateCoverage(cfg *config.Config) Result {
	const name = "Template coverage"

	tmpl, err := os.ReadFile(cfg.Paths.Template)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("read template: %v", err)}
	}
	records, err := entity.Load(cfg.Paths.Entities)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	var problems []string
	for _, slug := range records.Slugs() {
		_, err := render.Render(string(tmpl), records[slug], render.Options{ListSeparator: cfg.Render.ListSeparator})
		var unresolved *render.UnresolvedPlaceholderError
		switch {
		case err == nil:
		case errors.As(err, &unresolved):
			problems = append(problems, fmt.Sprintf("%s missing %s", slug, strings.Join(unresolved.Tokens, ", ")))
		default:
			return Result{Name: name, Detail: err.Error()}
		}
	}
	if len(problems) > 0 {
		return Result{Name: name, Detail: strings.Join(problems, "; ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d entities render cleanly", len(records))}
}
