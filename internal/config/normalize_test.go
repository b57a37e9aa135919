package config

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidtab/voidtab/internal/cloudsync"
)

func TestParseDegradesToDefaults(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty input", text: ""},
		{name: "malformed json", text: "{not json"},
		{name: "scalar", text: "42"},
		{name: "null", text: "null"},
		{name: "array", text: "[1,2,3]"},
		{name: "empty object", text: "{}"},
	}

	def := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse([]byte(tt.text))
			assert.Equal(t, CurrentVersion, doc.Version)
			assert.Equal(t, def.Theme, doc.Theme)
			assert.Equal(t, def.SearchEngines, doc.SearchEngines)
			assert.Equal(t, def.CurrentEngineID, doc.CurrentEngineID)
			assert.Equal(t, def.Layout, doc.Layout)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		`{"theme":{"blur":"wrong type"},"layout":[{"items":[{"title":"内网站点","url":"http://192.168.1.1"}]}]}`,
		`{"currentEngineId":"nope","widgets":[{"id":"custom","order":"x"}]}`,
	}

	for _, input := range inputs {
		first := Parse([]byte(input))
		data, err := json.Marshal(first)
		require.NoError(t, err)

		second := Parse(data)
		assert.Equal(t, first, second)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	input := []byte(`{"layout":[{"title":"Work","items":[{"title":"Wiki","url":"http://10.0.0.5"}]}]}`)

	a, err := json.Marshal(Parse(input))
	require.NoError(t, err)
	b, err := json.Marshal(Parse(input))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestNormalizePrivateURLForcesTextBadge(t *testing.T) {
	input := []byte(`{"layout":[{"id":"g1","title":"Home","items":[
		{"id":"s1","title":"内网站点","url":"http://192.168.1.1","iconType":"auto"}
	]}]}`)

	doc := Parse(input)
	require.Len(t, doc.Layout, 1)
	require.Len(t, doc.Layout[0].Items, 1)

	item := doc.Layout[0].Items[0]
	assert.Equal(t, IconText, item.IconType)
	assert.Equal(t, "内网", item.IconValue)
	assert.Equal(t, GenerateColor("内网站点"), item.BgColor)
}

func TestNormalizeRegeneratesPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		bgColor string
	}{
		{name: "placeholder blue", bgColor: "#3b82f6"},
		{name: "placeholder white", bgColor: "#ffffff"},
		{name: "empty", bgColor: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := map[string]any{
				"layout": []any{map[string]any{
					"items": []any{map[string]any{
						"title":    "My Site",
						"url":      "https://example.com",
						"iconType": "text",
						"bgColor":  tt.bgColor,
					}},
				}},
			}
			doc := Normalize(Migrate(input))
			item := doc.Layout[0].Items[0]
			assert.Equal(t, GenerateColor("My Site"), item.BgColor)
		})
	}

	t.Run("real color kept", func(t *testing.T) {
		input := map[string]any{
			"layout": []any{map[string]any{
				"items": []any{map[string]any{
					"title":     "My Site",
					"iconType":  "text",
					"iconValue": "MS",
					"bgColor":   "#123456",
				}},
			}},
		}
		doc := Normalize(Migrate(input))
		assert.Equal(t, "#123456", doc.Layout[0].Items[0].BgColor)
		assert.Equal(t, "MS", doc.Layout[0].Items[0].IconValue)
	})
}

func TestNormalizeShortInitialsRegenerated(t *testing.T) {
	input := map[string]any{
		"layout": []any{map[string]any{
			"items": []any{map[string]any{
				"title":     "GitHub",
				"iconType":  "text",
				"iconValue": "G",
				"bgColor":   "#123456",
			}},
		}},
	}
	doc := Normalize(Migrate(input))
	assert.Equal(t, "GITH", doc.Layout[0].Items[0].IconValue)
}

func TestNormalizeDeterministicIDBackfill(t *testing.T) {
	input := map[string]any{
		"searchEngines": []any{
			map[string]any{"name": "DuckDuckGo", "url": "https://ddg.gg/?q="},
		},
		"layout": []any{map[string]any{
			"title": "Work",
			"items": []any{
				map[string]any{"title": "A", "url": "https://a.example"},
				map[string]any{"title": "B", "url": "https://b.example"},
			},
		}},
	}

	doc := Normalize(Migrate(input))
	assert.Equal(t, "engine-0", doc.SearchEngines[0].ID)
	assert.Equal(t, "group-0", doc.Layout[0].ID)
	assert.Equal(t, "item-0", doc.Layout[0].Items[0].ID)
	assert.Equal(t, "item-1", doc.Layout[0].Items[1].ID)
}

func TestNormalizeCurrentEngineFallback(t *testing.T) {
	t.Run("dangling reference", func(t *testing.T) {
		doc := Parse([]byte(`{"currentEngineId":"gone"}`))
		assert.Equal(t, "baidu", doc.CurrentEngineID)
	})

	t.Run("valid reference kept", func(t *testing.T) {
		doc := Parse([]byte(`{"currentEngineId":"bing"}`))
		assert.Equal(t, "bing", doc.CurrentEngineID)
	})

	t.Run("custom engines replace defaults", func(t *testing.T) {
		doc := Parse([]byte(`{"searchEngines":[{"id":"ddg","name":"DuckDuckGo","url":"https://ddg.gg/?q="}],"currentEngineId":"baidu"}`))
		require.Len(t, doc.SearchEngines, 1)
		assert.Equal(t, "ddg", doc.CurrentEngineID)
	})
}

func TestNormalizeWidgetReconciliation(t *testing.T) {
	input := []byte(`{"widgets":[
		{"id":"rss","visible":true,"order":7,"config":{"feedUrl":"https://example.com/feed"}},
		{"id":"mystery","name":"Mystery"}
	]}`)

	doc := Parse(input)

	byID := make(map[string]WidgetItem, len(doc.Widgets))
	for _, w := range doc.Widgets {
		byID[w.ID] = w
	}

	// Saved widget keeps user values and gains missing default keys.
	rss := byID[WidgetRSS]
	assert.True(t, rss.Visible)
	assert.Equal(t, 7, rss.Order)
	assert.Equal(t, "https://example.com/feed", rss.Config["feedUrl"])
	assert.Equal(t, float64(5), rss.Config["maxItems"])

	// Unknown widget survives with defensive defaults.
	mystery := byID["mystery"]
	assert.Equal(t, "Mystery", mystery.Name)
	assert.Equal(t, 999, mystery.Order)
	assert.Equal(t, 1, mystery.ColSpan)

	// Every registry widget is present.
	for _, id := range []string{WidgetWeather, WidgetGitHub, WidgetSystem, WidgetRSS} {
		_, ok := byID[id]
		assert.True(t, ok, "registry widget %s missing", id)
	}

	// Saved order comes first, registry fills after.
	assert.Equal(t, WidgetRSS, doc.Widgets[0].ID)
	assert.Equal(t, "mystery", doc.Widgets[1].ID)
}

func TestNormalizeEmptyLayoutKept(t *testing.T) {
	// An explicitly empty layout is a user choice, not missing data.
	doc := Parse([]byte(`{"layout":[]}`))
	assert.Empty(t, doc.Layout)

	// A missing layout gets the default group.
	doc = Parse([]byte(`{}`))
	assert.Len(t, doc.Layout, 1)
}

func TestNormalizeWrongTypesFallBack(t *testing.T) {
	input := []byte(`{"theme":{"blur":"loud","opacity":true,"iconSize":"big","showTime":"yes"},"version":"x"}`)

	doc := Parse(input)
	def := Default()
	assert.Equal(t, def.Theme.Blur, doc.Theme.Blur)
	assert.Equal(t, def.Theme.Opacity, doc.Theme.Opacity)
	assert.Equal(t, def.Theme.IconSize, doc.Theme.IconSize)
	assert.Equal(t, def.Theme.ShowTime, doc.Theme.ShowTime)
	assert.Equal(t, CurrentVersion, doc.Version)
}

func TestNormalizeSyncProfile(t *testing.T) {
	input := []byte(`{"sync":{"provider":"webdav","enabled":true,"autoSync":false,"intervalMinutes":0,"url":"https://dav.example.com/dav/files/me","username":"me","password":"secret"}}`)

	doc := Parse(input)
	assert.Equal(t, cloudsync.ProviderWebDAV, doc.Sync.Provider)
	assert.True(t, doc.Sync.Enabled)
	assert.False(t, doc.Sync.AutoSync)
	// Interval clamp happens on read, the stored value stays verbatim.
	assert.Equal(t, 0, doc.Sync.IntervalMinutes)
	assert.Equal(t, cloudsync.DefaultIntervalMinutes, doc.Sync.Interval())
	assert.Equal(t, "voidtab", doc.Sync.Folder)
	assert.Equal(t, "voidtab-backup.json", doc.Sync.Filename)

	t.Run("unknown provider falls back", func(t *testing.T) {
		doc := Parse([]byte(`{"sync":{"provider":"dropbox"}}`))
		assert.Equal(t, cloudsync.ProviderNone, doc.Sync.Provider)
	})
}

func TestMigrate(t *testing.T) {
	t.Run("nil input", func(t *testing.T) {
		out := Migrate(nil)
		assert.Equal(t, CurrentVersion, out["version"])
	})

	t.Run("versionless document", func(t *testing.T) {
		out := Migrate(map[string]any{"theme": map[string]any{}})
		assert.Equal(t, CurrentVersion, out["version"])
		assert.Contains(t, out, "theme")
	})

	t.Run("current version untouched", func(t *testing.T) {
		out := Migrate(map[string]any{"version": float64(CurrentVersion), "custom": "x"})
		assert.Equal(t, CurrentVersion, out["version"])
		assert.Equal(t, "x", out["custom"])
	})

	t.Run("input map not mutated", func(t *testing.T) {
		in := map[string]any{"version": float64(0)}
		Migrate(in)
		assert.Equal(t, float64(0), in["version"])
	})
}
