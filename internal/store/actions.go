package store

import (
	"fmt"

	"github.com/voidtab/voidtab/internal/config"
)

// GroupPatch carries optional group field updates.
type GroupPatch struct {
	Title *string `json:"title,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// SitePatch carries optional site field updates.
type SitePatch struct {
	Title     *string `json:"title,omitempty"`
	URL       *string `json:"url,omitempty"`
	IconType  *string `json:"iconType,omitempty"`
	IconValue *string `json:"iconValue,omitempty"`
	BgColor   *string `json:"bgColor,omitempty"`
}

// AddGroup appends a new empty group and returns it.
func (s *Store) AddGroup(title string) config.Group {
	if title == "" {
		title = "Untitled"
	}
	group := config.Group{
		ID:    newID("g-"),
		Title: title,
		Icon:  "Folder",
		Items: []config.SiteItem{},
	}
	s.mutate(func(doc *config.Document) {
		doc.Layout = append(doc.Layout, group)
	})
	return group
}

// RemoveGroup deletes a group by id.
func (s *Store) RemoveGroup(groupID string) {
	s.mutate(func(doc *config.Document) {
		layout := doc.Layout[:0]
		for _, g := range doc.Layout {
			if g.ID != groupID {
				layout = append(layout, g)
			}
		}
		doc.Layout = layout
	})
}

// UpdateGroup patches a group's title and icon.
func (s *Store) UpdateGroup(groupID string, patch GroupPatch) {
	s.mutate(func(doc *config.Document) {
		for i := range doc.Layout {
			if doc.Layout[i].ID != groupID {
				continue
			}
			if patch.Title != nil {
				doc.Layout[i].Title = *patch.Title
			}
			if patch.Icon != nil {
				doc.Layout[i].Icon = *patch.Icon
			}
			return
		}
	})
}

// AddSite appends a site to a group. The stored item passes through the
// site normalization rules, so private-network URLs come back in text
// mode with a generated badge.
func (s *Store) AddSite(groupID string, item config.SiteItem) (config.SiteItem, error) {
	item.ID = newID("")
	item = normalizeItem(item)

	found := s.tryMutate(func(doc *config.Document) bool {
		for i := range doc.Layout {
			if doc.Layout[i].ID == groupID {
				doc.Layout[i].Items = append(doc.Layout[i].Items, item)
				return true
			}
		}
		return false
	})
	if !found {
		return config.SiteItem{}, fmt.Errorf("group %q not found", groupID)
	}
	return item, nil
}

// RemoveSite deletes a site from a group.
func (s *Store) RemoveSite(groupID, itemID string) {
	s.mutate(func(doc *config.Document) {
		for i := range doc.Layout {
			if doc.Layout[i].ID != groupID {
				continue
			}
			items := doc.Layout[i].Items[:0]
			for _, it := range doc.Layout[i].Items {
				if it.ID != itemID {
					items = append(items, it)
				}
			}
			doc.Layout[i].Items = items
			return
		}
	})
}

// UpdateSite patches a site entry and re-runs the site rules on the
// result.
func (s *Store) UpdateSite(groupID, itemID string, patch SitePatch) {
	s.mutate(func(doc *config.Document) {
		for i := range doc.Layout {
			if doc.Layout[i].ID != groupID {
				continue
			}
			for j := range doc.Layout[i].Items {
				item := &doc.Layout[i].Items[j]
				if item.ID != itemID {
					continue
				}
				if patch.Title != nil {
					item.Title = *patch.Title
				}
				if patch.URL != nil {
					item.URL = *patch.URL
				}
				if patch.IconType != nil {
					item.IconType = config.IconType(*patch.IconType)
				}
				if patch.IconValue != nil {
					item.IconValue = *patch.IconValue
				}
				if patch.BgColor != nil {
					item.BgColor = *patch.BgColor
				}
				*item = normalizeItem(*item)
				return
			}
		}
	})
}

// normalizeItem funnels a single item through the pipeline's site rules.
func normalizeItem(item config.SiteItem) config.SiteItem {
	doc := config.Normalize(map[string]any{
		"layout": []any{
			map[string]any{
				"id":    "g",
				"title": "g",
				"items": []any{map[string]any{
					"id":        item.ID,
					"title":     item.Title,
					"url":       item.URL,
					"iconType":  string(item.IconType),
					"iconValue": item.IconValue,
					"bgColor":   item.BgColor,
					"icon":      item.Icon,
				}},
			},
		},
	})
	return doc.Layout[0].Items[0]
}

// AddEngine appends a search engine.
func (s *Store) AddEngine(name, url string) config.SearchEngine {
	engine := config.SearchEngine{
		ID:   newID("se-"),
		Name: name,
		URL:  url,
		Icon: "Globe",
	}
	s.mutate(func(doc *config.Document) {
		doc.SearchEngines = append(doc.SearchEngines, engine)
	})
	return engine
}

// RemoveEngine deletes an engine, keeping at least one and repointing the
// current selection when it dangles.
func (s *Store) RemoveEngine(engineID string) {
	s.mutate(func(doc *config.Document) {
		if len(doc.SearchEngines) <= 1 {
			return
		}
		engines := doc.SearchEngines[:0]
		for _, e := range doc.SearchEngines {
			if e.ID != engineID {
				engines = append(engines, e)
			}
		}
		doc.SearchEngines = engines
		if doc.CurrentEngineID == engineID {
			doc.CurrentEngineID = doc.SearchEngines[0].ID
		}
	})
}

// SetCurrentEngine selects the active engine; unknown ids are ignored.
func (s *Store) SetCurrentEngine(engineID string) {
	s.mutate(func(doc *config.Document) {
		for _, e := range doc.SearchEngines {
			if e.ID == engineID {
				doc.CurrentEngineID = engineID
				return
			}
		}
	})
}

// UpdateTheme overlays a partial theme patch (decoded JSON) on the
// current theme using the pipeline's field rules.
func (s *Store) UpdateTheme(patch map[string]any) {
	s.mutate(func(doc *config.Document) {
		config.ApplyThemePatch(&doc.Theme, patch)
	})
}

// SetWidgetVisible toggles a widget panel.
func (s *Store) SetWidgetVisible(widgetID string, visible bool) {
	s.mutate(func(doc *config.Document) {
		for i := range doc.Widgets {
			if doc.Widgets[i].ID == widgetID {
				doc.Widgets[i].Visible = visible
				return
			}
		}
	})
}

// UpdateWidgetConfig shallow-merges the given keys into a widget config.
func (s *Store) UpdateWidgetConfig(widgetID string, patch map[string]any) {
	s.mutate(func(doc *config.Document) {
		for i := range doc.Widgets {
			if doc.Widgets[i].ID != widgetID {
				continue
			}
			if doc.Widgets[i].Config == nil {
				doc.Widgets[i].Config = make(map[string]any, len(patch))
			}
			for k, v := range patch {
				doc.Widgets[i].Config[k] = v
			}
			return
		}
	})
}
