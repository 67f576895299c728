// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, import store adapter
//	├── folders/         # Per-user folder trees
//	├── links/           # Shared canonicals and per-user link instances
//	├── tags/            # Tag management and associations
//	├── jobs/            # Import job lifecycle and progress
//	├── audit/           # Audit event log
//	├── users/           # User management
//	└── sqlerr/          # Driver error classification
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./marked.db")
//
//	// Create domain-specific repositories
//	linksRepo := links.NewRepository(db.DB)
//	jobsRepo := jobs.NewRepository(db.DB)
//
//	// Wire the import pipeline
//	pipeline := importers.NewPipeline(database.NewImportStore(db.DB), jobsRepo, canon, log)
//
// # Interface Implementations
//
//   - ImportStore: implements importers.Store
//   - jobs.Repository: implements importers.JobTracker
//
// # Uniqueness
//
// Idempotent inserts rely on unique indexes rather than read-then-write:
// link_canonicals.url_key, link_instances (user_id, canonical_id, folder_id),
// folders (user_id, parent_id, name) and tags (user_id, name). The root of a
// user's tree is folder id 0 rather than NULL so those indexes stay effective.
package database
