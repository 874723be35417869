package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = `{
  "products": [
    {"id": "p1", "title": "Blue Oxford Shirt", "category": "Shirts", "gender": "men", "price": 300, "rating": 4.1},
    {"id": "p2", "title": "White Linen Shirt", "category": "Shirts", "gender": "men", "price": "450", "rating": "3.9"},
    {"id": "p3", "title": "Floral Summer Dress", "category": "Dresses", "gender": "women", "price": 1500, "rating": 4.6}
  ],
  "interactions": [
    {"userId": "u1", "productId": "p1", "action": "view"},
    {"userId": "u2", "productId": "p1", "action": "view"},
    {"userId": "u2", "productId": "p2", "action": "purchase"}
  ]
}`

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(dataset), 0o644))

	var search struct {
		Result struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			Status string `json:"status"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--log-level", "disabled", "--data", path, "search", "shirts", "under", "400"), &search))
	assert.Equal(t, "ok", search.Result.Status)
	require.Len(t, search.Result.Items, 1)
	assert.Equal(t, "p1", search.Result.Items[0].ID)

	var rec struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--log-level", "disabled", "--data", path, "recommend", "-u", "u1", "-s", "cf"), &rec))
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "p2", rec.Items[0].ID)

	assert.Empty(t, run(t, "--log-level", "disabled", "--data", path, "index"))

	var debug struct {
		Semantic struct {
			Size       int  `json:"size"`
			IndexBuilt bool `json:"index_built"`
		} `json:"semantic"`
		Content struct {
			PreferredGender string `json:"preferred_gender"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--log-level", "disabled", "--data", path, "debug", "-u", "u1"), &debug))
	assert.True(t, debug.Semantic.IndexBuilt)
	assert.Equal(t, 3, debug.Semantic.Size)
	assert.Equal(t, "men", debug.Content.PreferredGender)
}
