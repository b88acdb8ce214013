package routine

import "context"

// Starter is a store that can pull the remote table.
type Starter interface {
	Store
	SyncFromRemote(ctx context.Context, force bool) bool
}

// Startup pulls the remote table and then seeds the missing defaults.
// With a remote configured the defaults are only written after a successful pull, so a fresh
// device never mirrors empty collections over the values of the other devices.
// Returns false when the pull failed.
func Startup(ctx context.Context, store Starter, remote bool) bool {
	if remote && !store.SyncFromRemote(ctx, false) {
		return false
	}

	Seed(store)
	return true
}
