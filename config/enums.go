package config

// Specification of the bundle layout produced by export.
// ENUM(auto, html, zip, dir)
type BundleFormat int

// Specification of where session cookies come from.
// ENUM(none, header, browser)
type CookieSource int

// Content Builder asset types we know how to export.
// ENUM(htmlemail, templatebasedemail, htmlblock, textonlyemail)
type AssetType int

// ID returns Content Builder numeric asset type id.
func (a AssetType) ID() int {
	switch a {
	case AssetTypeHtmlemail:
		return 208
	case AssetTypeTemplatebasedemail:
		return 207
	case AssetTypeHtmlblock:
		return 197
	case AssetTypeTextonlyemail:
		return 209
	default:
		// this should never happen
		panic("unsupported asset type requested")
	}
}

// AssetTypeIDs converts list of asset types to numeric ids keeping order.
func AssetTypeIDs(types []AssetType) []int {
	ids := make([]int, 0, len(types))
	for _, t := range types {
		ids = append(ids, t.ID())
	}
	return ids
}
