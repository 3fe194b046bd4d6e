package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/semantic"
)

// StoreFactory builds a semantic store.
type StoreFactory func(ctx context.Context) (semantic.Store, error)

// SelectStore builds the remote store and falls back to the local one when
// remote is nil or fails. The boolean reports whether the remote store was
// selected. An error is returned only when no store could be built.
func SelectStore(ctx context.Context, remote, local StoreFactory, log *slog.Logger) (semantic.Store, bool, error) {
	if log == nil {
		log = logger.Nop()
	}

	var remoteErr error
	if remote != nil {
		store, err := remote(ctx)
		if err == nil {
			log.Info("using remote semantic store")
			return store, true, nil
		}
		remoteErr = err
		log.Warn("remote semantic store unavailable, falling back to local store", "error", err)
	}

	if local == nil {
		return nil, false, fmt.Errorf("%w: no semantic store available", errors.Join(ErrNotConfigured, remoteErr))
	}

	store, err := local(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("building local semantic store: %w", errors.Join(err, remoteErr))
	}

	log.Info("using local semantic store")
	return store, false, nil
}
