// Package testsupport builds configs, site fixtures, and stores for tests.
package testsupport
