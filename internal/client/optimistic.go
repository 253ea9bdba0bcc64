package client

import "context"

// Optimistic applies a local change before the server confirms it and puts
// the captured state back if the call fails.
type Optimistic[S any] struct {
	Capture func() S
	Apply   func()
	Restore func(S)
}

// Run captures, applies, then calls. On a call error the captured state is
// restored and the error returned.
func (o Optimistic[S]) Run(ctx context.Context, call func(context.Context) error) error {
	state := o.Capture()
	o.Apply()
	if err := call(ctx); err != nil {
		o.Restore(state)
		return err
	}
	return nil
}
