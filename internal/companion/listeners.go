package companion

import "sync"

// listeners is the registry shared by transports. dispatch calls listeners
// without holding the lock so they may deregister from inside a callback.
type listeners struct {
	mu   sync.Mutex
	list []DataListener
}

func (ls *listeners) add(l DataListener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, x := range ls.list {
		if x == l {
			return
		}
	}
	ls.list = append(ls.list, l)
}

func (ls *listeners) remove(l DataListener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for i, x := range ls.list {
		if x == l {
			ls.list = append(ls.list[:i:i], ls.list[i+1:]...)
			return
		}
	}
}

func (ls *listeners) len() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.list)
}

func (ls *listeners) dispatch(events []DataEvent) {
	if len(events) == 0 {
		return
	}
	ls.mu.Lock()
	list := append([]DataListener(nil), ls.list...)
	ls.mu.Unlock()
	for _, l := range list {
		l.OnDataChanged(events)
	}
}

// convert turns wire events into DataEvents, dropping ones with an unknown
// type.
func convert(in []WireEvent) (out []DataEvent, dropped int) {
	for _, w := range in {
		ev, err := w.Event()
		if err != nil {
			dropped++
			continue
		}
		out = append(out, ev)
	}
	return out, dropped
}
