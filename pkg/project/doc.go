// Package project describes the layout of a repository whose development
// environment is managed by devenv, and scaffolds it.
//
// # Project Structure
//
//	repo-root/
//	├── config.yaml             # Local configuration (created on provisioning)
//	├── config.example.yaml     # Template for config.yaml
//	├── sqlc.yaml               # sqlc code generation settings
//	├── devenv/
//	│   ├── docker-compose.yml  # Postgres and MicroCeph services
//	│   ├── bin/                # Project-local tools, searched before PATH
//	│   └── microceph/          # MicroCeph image build context
//	└── internal/metastore/pg/
//	    ├── migrations/         # dbmate migrations
//	    ├── queries/            # sqlc queries
//	    └── schema.sql          # Schema dumped by dbmate
//
// Initialize is idempotent: it only creates missing files and directories and
// never overwrites existing content.
package project
