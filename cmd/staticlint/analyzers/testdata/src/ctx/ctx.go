package ctx

import "context"

func good(ctx context.Context, id string) error { return nil }

func none(id string, n int) {}

func bad(id string, ctx context.Context) error { return nil } // want "context.Context should be the first parameter"

type poller struct{}

func (p poller) Poll(kind, id string, ctx context.Context) {} // want "context.Context should be the first parameter"

var handler = func(n int, ctx context.Context) {} // want "context.Context should be the first parameter"
