package messages

const (
	BackupExpired        = "backup for %s expired at %s, discarding"
	CorruptedEntry       = "local entry %s is unreadable: %v"
	InvalidRemoteValue   = "remote value for %s failed validation: %v"
	InvalidValue         = "rejected value for %s: %v"
	RemoteFailed         = "remote %s failed for %s: %v"
	RemoteRetryGaveUp    = "remote upsert for %s failed after retry, giving up: %v"
	SerializationFailed  = "couldn't serialize %s: %v"
	StorageNotConfigured = "storage is not configured"
	UnrecoverablePayload = "remote payload for %s is unrecoverable: %q"
)
