// Package nop provides a conversation log that discards everything.
package nop

import (
	"context"

	"github.com/papercomputeco/keepsake/pkg/convlog"
)

// Log implements convlog.Log and records nothing.
type Log struct{}

func New() *Log {
	return &Log{}
}

func (*Log) AppendMessage(context.Context, string, string, string, map[string]any) error {
	return nil
}

func (*Log) History(context.Context, string, int) ([]convlog.Entry, error) {
	return []convlog.Entry{}, nil
}

func (*Log) Close() error {
	return nil
}

var _ convlog.Log = (*Log)(nil)
