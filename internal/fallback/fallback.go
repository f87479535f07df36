// Package fallback makes default-on-failure policies explicit at the call site.
package fallback

import "context"

// OrDefault runs op and returns its result. If op fails, onErr (when non-nil)
// is told about the error and def is returned instead.
func OrDefault[T any](ctx context.Context, op func(context.Context) (T, error), def T, onErr func(error)) T {
	v, err := op(ctx)
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		return def
	}
	return v
}
