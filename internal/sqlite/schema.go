package sqlite

// Schema DDL for all tables.
const (
	createRecords = `CREATE TABLE records (
    record_id TEXT PRIMARY KEY,
    schema_name TEXT NOT NULL,
    fields TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createSchemas = `CREATE TABLE schemas (
    schema_name TEXT PRIMARY KEY,
    fields TEXT NOT NULL,
    flags TEXT NOT NULL,
    registered_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxRecordsSchema  = `CREATE INDEX idx_records_schema ON records(schema_name);`
	idxRecordsCreated = `CREATE INDEX idx_records_created ON records(schema_name, created_at);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createSchemas,
	createRecords,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRecordsSchema,
	idxRecordsCreated,
}
