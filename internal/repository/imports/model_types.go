package imports

type ModelType string

const (
	ModelTypeCollaborators ModelType = "collaborators"
	ModelTypeCompanies     ModelType = "companies"
	ModelTypeAdminUsers    ModelType = "admin_users"
)

// Record statuses.
const (
	StatusParsed     = "parsed"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Item statuses.
const (
	ItemDone    = "done"
	ItemSkipped = "skipped"
	ItemFailed  = "failed"
)

// ModelTypeForImport maps an import type such as "import_collaborators" to
// the model its rows produce.
func ModelTypeForImport(importType string) (ModelType, bool) {
	switch importType {
	case "import_collaborators":
		return ModelTypeCollaborators, true
	case "import_companies":
		return ModelTypeCompanies, true
	case "import_admin_users":
		return ModelTypeAdminUsers, true
	}
	return "", false
}
