package inspection

import "sync/atomic"

// ConnectivityState is the advisory sync indicator shown in the app
// header. It never gates writes; it only tells inspectors whether their
// taps are landing.
type ConnectivityState string

const (
	ConnectivityOnline  ConnectivityState = "online"
	ConnectivityOffline ConnectivityState = "offline"
	ConnectivitySyncing ConnectivityState = "syncing"
)

type connectivity struct {
	state atomic.Value
}

func newConnectivity() *connectivity {
	c := &connectivity{}
	c.state.Store(ConnectivityOnline)
	return c
}

func (c *connectivity) set(s ConnectivityState) {
	c.state.Store(s)
}

func (c *connectivity) get() ConnectivityState {
	return c.state.Load().(ConnectivityState)
}
