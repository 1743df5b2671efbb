package constants

// FileStatus is the per-file outcome reported for every document in a batch.
type FileStatus string

// Stable values (these exact strings surface in CLI output and logs).
const (
	FileStaged           FileStatus = "STAGED"            // extracted and normalized, awaiting review
	FileDuplicate        FileStatus = "DUPLICATE"         // content hash already known, skipped
	FileReadFailed       FileStatus = "READ_FAILED"       // source bytes could not be read
	FileExtractionFailed FileStatus = "EXTRACTION_FAILED" // every extraction strategy came back empty
	FilePersisted        FileStatus = "PERSISTED"         // upserted during commit
	FilePersistFailed    FileStatus = "PERSIST_FAILED"    // upsert failed during commit
)
