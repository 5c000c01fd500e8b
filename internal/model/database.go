package model

import "fmt"

// DefaultDatabase is the database name used when none is configured.
const DefaultDatabase = "(default)"

// DatabaseID identifies a logical database within a project.
// Equality is structural; compare with == or Equal.
type DatabaseID struct {
	ProjectID string `json:"project_id"`
	Database  string `json:"database"`
}

// NewDatabaseID creates a DatabaseID, substituting DefaultDatabase for an
// empty database name.
func NewDatabaseID(projectID, database string) DatabaseID {
	if database == "" {
		database = DefaultDatabase
	}
	return DatabaseID{ProjectID: projectID, Database: database}
}

// Equal reports whether both identities name the same database.
func (d DatabaseID) Equal(other DatabaseID) bool {
	return d.ProjectID == other.ProjectID && d.Database == other.Database
}

// IsDefault reports whether this is the project's default database.
func (d DatabaseID) IsDefault() bool {
	return d.Database == DefaultDatabase
}

// String returns "project/database".
func (d DatabaseID) String() string {
	return fmt.Sprintf("%s/%s", d.ProjectID, d.Database)
}

// DocumentsPath returns the fixed "projects/{p}/databases/{d}/documents"
// prefix under which every document of this database lives.
func (d DatabaseID) DocumentsPath() ResourcePath {
	return NewResourcePath("projects", d.ProjectID, "databases", d.Database, "documents")
}

// ResourceName returns the fully-qualified resource name of key in this database.
func (d DatabaseID) ResourceName(key DocumentKey) string {
	return d.DocumentsPath().Append(key.Path()).String()
}
