package filters

// Query parameters of the key routes.
type KVQueryParams struct {
	Remote bool `form:"remote"`
}

// Query parameters of the sync route.
type SyncQueryParams struct {
	Force bool `form:"force"`
}

// Query parameters of the routines export.
type ExportQueryParams struct {
	// Bucket uploads the document to the snapshot bucket instead of returning it.
	Bucket bool `form:"bucket"`
}

// Query parameters of the routines import.
type ImportQueryParams struct {
	// Key of a snapshot in the bucket, the request body is used when empty.
	Key string `form:"key"`
}
