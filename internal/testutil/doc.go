// Package testutil holds helpers shared by the package tests: rule file
// fixtures and a concurrent runner.
package testutil
