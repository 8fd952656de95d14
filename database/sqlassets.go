package sqlassets

import _ "embed"

//go:embed schema/platform/organizations.sql
var OrganizationsSQL string
