// Package metastore manages the Postgres database that holds the server's
// metadata.
//
// Connection settings come from the meta_store section of config.yaml and are
// rendered as a postgres:// DSN. Migrations are applied with dbmate, which
// also dumps the schema file; PatchSchema then comments out the psql
// \restrict and \unrestrict directives newer pg_dump versions emit, since
// sqlc cannot parse them. Query code is generated with sqlc.
package metastore
