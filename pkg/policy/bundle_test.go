package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abacsys/decision-service/pkg/model"
)

const sampleBundleJSON = `{
	"name": "finance-read",
	"policies": [
		{
			"name": "finance can read finance docs",
			"effect": "Permit",
			"priority": 10,
			"is_active": true,
			"actions": ["document.read"],
			"conditions": [
				{"category": "Subject", "key": "department", "operator": "Equals", "expected_value": "Finance"},
				{"category": "Resource", "key": "department", "operator": "Equals", "expected_value": "Finance"}
			]
		}
	]
}`

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finance-read.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleBundleJSON), 0o600))

	l := NewLoader(dir)
	require.NoError(t, l.LoadFile(path))

	b, ok := l.GetBundle("finance-read")
	require.True(t, ok)
	require.Len(t, b.Policies, 1)
	assert.Equal(t, model.Permit, b.Policies[0].Effect)
}

func TestLoader_LoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(sampleBundleJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not json"), 0o600))

	l := NewLoader(dir)
	require.NoError(t, l.LoadAll())
	assert.Len(t, l.AllBundles(), 1)
}

func TestLoader_LoadFile_RejectsBadGrammar(t *testing.T) {
	dir := t.TempDir()
	bad := `{"name": "bad", "policies": [{"name": "x", "effect": "Allow", "actions": ["x"], "conditions": []}]}`
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o600))

	l := NewLoader(dir)
	assert.Error(t, l.LoadFile(path))
}

func TestBundle_ToPolicies_AssignsIDs(t *testing.T) {
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundleJSON), &b))

	policies, err := b.ToPolicies()
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.NotEqual(t, model.ID{}, policies[0].ID)
	assert.Equal(t, "document.read", policies[0].ActionCodes[0])
	assert.Len(t, policies[0].Conditions, 2)
}

func TestExport_RoundTrips(t *testing.T) {
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundleJSON), &b))
	policies, err := b.ToPolicies()
	require.NoError(t, err)

	exported := Export("finance-read", policies)
	require.NoError(t, Validate(exported))
	assert.Equal(t, "finance-read", exported.Name)
	assert.Len(t, exported.Policies, 1)
}
