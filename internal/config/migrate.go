package config

import json "github.com/goccy/go-json"

// migrationStep upgrades a document from one schema version to the next.
// Steps must be additive and idempotent; they run in order while the
// document version is below CurrentVersion.
type migrationStep struct {
	fromVersion int
	apply       func(cfg map[string]any)
}

// Future schema upgrades slot in here without touching normalization.
var migrations = []migrationStep{
	{
		fromVersion: 0,
		// v0 documents predate the version field entirely. Normalize
		// fills the missing structure, so the step itself is a no-op.
		apply: func(cfg map[string]any) {},
	},
}

// Migrate ratchets arbitrary decoded JSON forward to the current schema
// version. It is pure and total: any input, including nil or a bare
// scalar, yields an object carrying version == CurrentVersion.
func Migrate(raw any) map[string]any {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return map[string]any{"version": CurrentVersion}
	}

	cfg := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		cfg[k] = v
	}

	version := toInt(cfg["version"], 0)
	for _, step := range migrations {
		if version >= CurrentVersion {
			break
		}
		if version == step.fromVersion {
			step.apply(cfg)
			version = step.fromVersion + 1
		}
	}

	cfg["version"] = CurrentVersion
	return cfg
}

// Parse runs raw document bytes through the full pipeline: JSON decode,
// Migrate, Normalize. Malformed input is never an error; it degrades to
// the default document.
func Parse(text []byte) *Document {
	var raw any
	if len(text) > 0 {
		// A decode failure leaves raw nil, which Migrate treats as an
		// empty document.
		_ = json.Unmarshal(text, &raw)
	}
	return Normalize(Migrate(raw))
}
