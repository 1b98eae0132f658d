package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "help"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "abacd — ABAC policy decision engine")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "abacd")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "bogus"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), `unknown command "bogus"`)
}

func TestRun_BundleValidate(t *testing.T) {
	dir := t.TempDir()
	bundleJSON := `{
		"name": "starter",
		"policies": [
			{
				"name": "it-read",
				"effect": "Permit",
				"priority": 100,
				"is_active": true,
				"actions": ["read"],
				"conditions": [
					{"category": "Subject", "key": "department", "operator": "Equals", "expected_value": "IT"}
				]
			}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy_starter.json"), []byte(bundleJSON), 0o600))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "bundle", "validate", "--dir", dir}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "starter")
	assert.Contains(t, stdout.String(), "1 bundle(s) valid")
}

func TestRun_BundleShow(t *testing.T) {
	dir := t.TempDir()
	bundleJSON := `{
		"name": "starter",
		"policies": [
			{
				"name": "it-read",
				"effect": "Permit",
				"priority": 100,
				"is_active": true,
				"actions": ["read"],
				"conditions": [
					{"category": "Subject", "key": "department", "operator": "Equals", "expected_value": "IT"}
				]
			}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy_starter.json"), []byte(bundleJSON), 0o600))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "bundle", "show", "--dir", dir, "--name", "starter"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.True(t, strings.Contains(stdout.String(), `"it-read"`))
}

func TestRun_BundleValidate_MissingDir(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "bundle", "validate"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestRun_ArchiveRequiresBucket(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"abacd", "archive"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "--bucket is required")
}
