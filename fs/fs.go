package appfs

import "embed"

// FS holds the application's static assets: database migrations and
// email templates.
//go:embed migrations templates templates/email/_base.gohtml templates/email/_base.txt
var FS embed.FS
