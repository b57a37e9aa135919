package config

// Widget ids known to the registry. Documents may carry widgets outside
// this set; normalization preserves them with defensive defaults instead
// of dropping them.
const (
	WidgetWeather = "weather"
	WidgetGitHub  = "github"
	WidgetSystem  = "system"
	WidgetRSS     = "rss"
)

// DefaultWidgets returns the registry defaults in display order. Every
// registry id missing from a stored document is appended during
// normalization, so the UI never encounters an unconfigured known widget.
func DefaultWidgets() []WidgetItem {
	return []WidgetItem{
		{
			ID:      WidgetWeather,
			Name:    "Weather",
			Visible: true,
			Order:   0,
			ColSpan: 1,
			Config: map[string]any{
				"city":  "",
				"units": "metric",
			},
		},
		{
			ID:      WidgetGitHub,
			Name:    "GitHub Trends",
			Visible: false,
			Order:   1,
			ColSpan: 2,
			Config: map[string]any{
				"language": "",
				"period":   "daily",
			},
		},
		{
			ID:      WidgetSystem,
			Name:    "System",
			Visible: false,
			Order:   2,
			ColSpan: 1,
			Config:  map[string]any{},
		},
		{
			ID:      WidgetRSS,
			Name:    "RSS",
			Visible: false,
			Order:   3,
			ColSpan: 2,
			Config: map[string]any{
				"feedUrl":  "",
				"maxItems": float64(5),
			},
		},
	}
}

// widgetDefault looks up a registry default by id.
func widgetDefault(id string) (WidgetItem, bool) {
	for _, w := range DefaultWidgets() {
		if w.ID == id {
			return w, true
		}
	}
	return WidgetItem{}, false
}
