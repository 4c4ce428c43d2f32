// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, seeded files, and a scripted executor that stands in for the
// external tools.
package testsupport
