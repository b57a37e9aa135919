package config

import (
	"strconv"

	"github.com/voidtab/voidtab/internal/cloudsync"
)

// Normalize converts the output of Migrate into a fully valid Document.
// It is pure, total and deterministic: the compiled-in defaults are the
// base and the input is overlaid field by field, so any input at all
// (nil, a scalar, a half-populated object) produces a document satisfying
// every invariant. Identical input yields byte-identical output; id and
// badge backfill never consult the clock or randomness.
func Normalize(raw any) *Document {
	out := Default()

	input, ok := raw.(map[string]any)
	if !ok || input == nil {
		input = map[string]any{}
	}

	out.Version = CurrentVersion

	normalizeTheme(&out.Theme, toMap(input["theme"]))
	normalizeProfile(&out.Sync, toMap(input["sync"]))

	if engines := toSlice(input["searchEngines"]); len(engines) > 0 {
		out.SearchEngines = make([]SearchEngine, 0, len(engines))
		for i, e := range engines {
			out.SearchEngines = append(out.SearchEngines, normalizeEngine(toMap(e), i))
		}
	}

	// currentEngineId must reference an engine; dangling references fall
	// back to the first engine.
	current := toString(input["currentEngineId"], out.CurrentEngineID)
	found := false
	for _, e := range out.SearchEngines {
		if e.ID == current {
			found = true
			break
		}
	}
	if found {
		out.CurrentEngineID = current
	} else {
		out.CurrentEngineID = out.SearchEngines[0].ID
	}

	out.Widgets = normalizeWidgets(toSlice(input["widgets"]))

	if layout, isSlice := input["layout"].([]any); isSlice {
		out.Layout = make([]Group, 0, len(layout))
		for i, g := range layout {
			out.Layout = append(out.Layout, normalizeGroup(toMap(g), i))
		}
	}

	return out
}

// ApplyThemePatch overlays a partial decoded-JSON theme patch using the
// same field rules as Normalize.
func ApplyThemePatch(t *Theme, patch map[string]any) {
	normalizeTheme(t, patch)
}

// ApplyProfilePatch overlays a partial decoded-JSON sync profile patch
// using the same field rules as Normalize.
func ApplyProfilePatch(p *cloudsync.Profile, patch map[string]any) {
	normalizeProfile(p, patch)
}

func normalizeTheme(t *Theme, in map[string]any) {
	t.Wallpaper = toString(in["wallpaper"], t.Wallpaper)
	if mode := toString(in["mode"], ""); mode == string(ModeDark) || mode == string(ModeLight) {
		t.Mode = ColorMode(mode)
	}
	t.Blur = toFloat(in["blur"], t.Blur)
	t.Opacity = toFloat(in["opacity"], t.Opacity)
	t.IconSize = toInt(in["iconSize"], t.IconSize)
	t.Radius = toInt(in["radius"], t.Radius)
	t.Gap = toInt(in["gap"], t.Gap)
	t.ShowIconName = toBool(in["showIconName"], t.ShowIconName)
	t.IconTextSize = toInt(in["iconTextSize"], t.IconTextSize)
	t.IconTextColor = toString(in["iconTextColor"], t.IconTextColor)
	t.GridMaxWidth = toInt(in["gridMaxWidth"], t.GridMaxWidth)
	if pos := toString(in["sidebarPos"], ""); pos == string(SidebarLeft) || pos == string(SidebarRight) {
		t.SidebarPos = SidebarPosition(pos)
	}
	t.ShowTime = toBool(in["showTime"], t.ShowTime)
	t.EnableAnimations = toBool(in["enableAnimations"], t.EnableAnimations)
	t.DimWallpaper = toBool(in["dimWallpaper"], t.DimWallpaper)
}

func normalizeProfile(p *cloudsync.Profile, in map[string]any) {
	if provider := toString(in["provider"], ""); provider == string(cloudsync.ProviderWebDAV) || provider == string(cloudsync.ProviderNone) {
		p.Provider = cloudsync.ProviderID(provider)
	}
	p.Enabled = toBool(in["enabled"], p.Enabled)
	p.AutoSync = toBool(in["autoSync"], p.AutoSync)
	p.LastSyncTime = int64(toFloat(in["lastSyncTime"], float64(p.LastSyncTime)))
	p.LastRemoteEtag = toString(in["lastRemoteEtag"], p.LastRemoteEtag)
	p.LastRemoteMtime = toString(in["lastRemoteMtime"], p.LastRemoteMtime)
	p.IntervalMinutes = toInt(in["intervalMinutes"], p.IntervalMinutes)
	p.URL = toString(in["url"], p.URL)
	p.Username = toString(in["username"], p.Username)
	p.Password = toString(in["password"], p.Password)
	p.Folder = toString(in["folder"], p.Folder)
	p.Filename = toString(in["filename"], p.Filename)
}

func normalizeEngine(in map[string]any, index int) SearchEngine {
	return SearchEngine{
		ID:   toString(in["id"], "engine-"+strconv.Itoa(index)),
		Name: toString(in["name"], "Engine"),
		URL:  toString(in["url"], ""),
		Icon: toString(in["icon"], "Globe"),
	}
}

func normalizeWidgets(in []any) []WidgetItem {
	result := make([]WidgetItem, 0, len(in)+4)
	seen := make(map[string]bool, len(in))

	// Keep the user's saved order first.
	for _, rawW := range in {
		w := toMap(rawW)
		id := toString(w["id"], "")
		if id == "" {
			continue
		}

		if def, known := widgetDefault(id); known {
			merged := def
			merged.Name = toString(w["name"], def.Name)
			merged.Visible = toBool(w["visible"], def.Visible)
			merged.Order = toInt(w["order"], def.Order)
			merged.ColSpan = toInt(w["colSpan"], def.ColSpan)
			// Shallow-merge the config over the registry default so new
			// default keys survive old saved documents.
			merged.Config = mergeConfig(def.Config, toMap(w["config"]))
			result = append(result, merged)
		} else {
			// Unregistered widget: preserve it with defensive defaults
			// instead of dropping it.
			result = append(result, WidgetItem{
				ID:      id,
				Name:    toString(w["name"], id),
				Visible: toBool(w["visible"], true),
				Order:   toInt(w["order"], 999),
				ColSpan: toInt(w["colSpan"], 1),
				Config:  toMap(w["config"]),
			})
		}
		seen[id] = true
	}

	// Append registry widgets missing from the stored document.
	for _, def := range DefaultWidgets() {
		if !seen[def.ID] {
			result = append(result, def)
		}
	}

	return result
}

func mergeConfig(def, user map[string]any) map[string]any {
	merged := make(map[string]any, len(def)+len(user))
	for k, v := range def {
		merged[k] = v
	}
	for k, v := range user {
		merged[k] = v
	}
	return merged
}

func normalizeGroup(in map[string]any, index int) Group {
	group := Group{
		ID:    toString(in["id"], "group-"+strconv.Itoa(index)),
		Title: toString(in["title"], "Untitled"),
		Icon:  toString(in["icon"], "Folder"),
		Items: []SiteItem{},
	}
	for i, rawItem := range toSlice(in["items"]) {
		group.Items = append(group.Items, normalizeSiteItem(toMap(rawItem), i))
	}
	return group
}

func normalizeSiteItem(in map[string]any, index int) SiteItem {
	item := SiteItem{
		ID:        toString(in["id"], "item-"+strconv.Itoa(index)),
		Title:     toString(in["title"], ""),
		URL:       toString(in["url"], ""),
		IconValue: toString(in["iconValue"], ""),
		BgColor:   toString(in["bgColor"], ""),
		Icon:      toString(in["icon"], ""),
	}

	switch IconType(toString(in["iconType"], "")) {
	case IconGlyph:
		item.IconType = IconGlyph
	case IconText:
		item.IconType = IconText
	default:
		item.IconType = IconAuto
	}

	// Private addresses cannot serve favicons; force the initials badge.
	internal := IsPrivateURL(item.URL)
	if internal {
		item.IconType = IconText
	}

	if item.IconType == IconText || internal {
		if item.BgColor == "" || item.BgColor == placeholderBlue || item.BgColor == placeholderWhite {
			item.BgColor = GenerateColor(item.Title)
		}
		if len([]rune(item.IconValue)) < 2 {
			item.IconValue = SmartInitials(item.Title)
		}
	}

	return item
}
