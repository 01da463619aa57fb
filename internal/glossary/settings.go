package glossary

// Settings scope and keys read by the exporter for the per-entry flags.
const (
	SettingsScope        = "core"
	SettingLinkEntries   = "glossary_linkentries"
	SettingCaseSensitive = "glossary_casesensitive"
	SettingFullMatch     = "glossary_fullmatch"
)

// Settings supplies site-wide configuration values. A missing value is "".
type Settings interface {
	Get(scope, key string) string
}

// StaticSettings is a fixed Settings keyed by setting name in the core scope.
type StaticSettings map[string]string

// Get implements Settings.
func (s StaticSettings) Get(scope, key string) string {
	if scope != SettingsScope {
		return ""
	}
	return s[key]
}
