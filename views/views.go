package views

import "embed"

// FS holds the email templates.
//
//go:embed mail/*.html
var FS embed.FS
