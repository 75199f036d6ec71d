// Package resources embeds migration, translation and web assets.
package resources

import "embed"

//go:embed migrations i18n web
var FS embed.FS
