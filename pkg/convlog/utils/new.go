// Package convlogutils is the conversation log utility package
package convlogutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/keepsake/pkg/convlog"
	"github.com/papercomputeco/keepsake/pkg/convlog/nop"
	"github.com/papercomputeco/keepsake/pkg/convlog/postgres"
	"github.com/papercomputeco/keepsake/pkg/convlog/sqlite"
)

type NewLogOpts struct {
	ProviderType string

	// Target is a SQLite path for "sqlite" and a connection string for
	// "postgres".
	Target string
}

func NewLog(ctx context.Context, o *NewLogOpts) (convlog.Log, error) {
	switch o.ProviderType {
	case "", "none":
		return nop.New(), nil
	case "sqlite":
		if o.Target == "" {
			return nil, fmt.Errorf("sqlite conversation log requires a path")
		}
		return sqlite.NewLog(ctx, o.Target)
	case "postgres":
		if o.Target == "" {
			return nil, fmt.Errorf("postgres conversation log requires a connection string")
		}
		return postgres.NewLog(ctx, o.Target)
	default:
		return nil, fmt.Errorf("unsupported conversation log provider: %s", o.ProviderType)
	}
}
