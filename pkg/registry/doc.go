// Package registry tracks a fixed set of backend processes, probes their
// liveness on a timer and hands out the address of a healthy one.
//
// The set of backends is fixed when the Registry is created. Every entry
// starts Alive and only changes state as the result of a probe. After each
// refresh cycle the registry reselects the current backend according to its
// SelectionPolicy; GetServer then returns that backend if it is Alive.
//
// Basic usage:
//
//	reg, err := registry.New([]string{"localhost:3001", "localhost:3002"},
//		registry.NewHTTPProber("/health"), registry.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	if err := reg.Start(ctx); err != nil {
//		return err
//	}
//	defer reg.Stop()
//
//	addr, ok := reg.GetServer()
package registry
