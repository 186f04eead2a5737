// Package fileutil holds the filesystem primitives shared by page writes,
// entity saves, and notification drops: atomic replace-by-rename and short
// content digests.
package fileutil
