// Package shutdown runs cleanup hooks exactly once, on a termination
// signal or when the owner finishes normally.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return engine.Close() })
//	go h.Wait(ctx)
//	...
//	err := h.Shutdown()
package shutdown
