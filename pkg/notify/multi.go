package notify

import (
	"context"

	"go.uber.org/multierr"
)

// MultiSink fans a message out to every sink and combines their errors.
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, msg Message) error {
	var err error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Send(ctx, msg))
	}
	return err
}
