package memory

import "errors"

var (
	// ErrEmbedding indicates the embedding provider could not produce a
	// vector (missing credential, upstream failure). Never retried here;
	// retry policy belongs to the caller.
	ErrEmbedding = errors.New("embedding provider failure")

	// ErrStorage indicates the vector store rejected an operation, e.g. a
	// dimensionality mismatch or an unavailable collection.
	ErrStorage = errors.New("vector storage failure")

	// ErrMigration indicates the legacy-format rewrite could not complete.
	// The prior collection is left untouched.
	ErrMigration = errors.New("memory migration failure")
)
