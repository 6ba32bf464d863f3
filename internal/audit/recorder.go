package audit

import (
	"sync"

	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/logging"
)

// pruneEvery is how many writes pass between retention prunes.
const pruneEvery = 100

// Recorder copies route change events from a hub into a Store.
type Recorder struct {
	store  *Store
	hub    *events.Hub
	logger *logging.Logger

	mu     sync.Mutex
	sub    <-chan events.Event
	stop   chan struct{}
	done   chan struct{}
	writes int
}

// NewRecorder creates a recorder. Call Start to begin journaling.
func NewRecorder(store *Store, hub *events.Hub, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		store:  store,
		hub:    hub,
		logger: logger.WithComponent("audit"),
	}
}

// Start subscribes to route events and writes them in the background.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub != nil {
		return
	}
	r.sub = r.hub.Subscribe(1024, events.EventRouteAdded, events.EventRouteDeleted)
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.sub, r.stop, r.done)
}

// Stop unsubscribes, writes any events already queued, and waits for the
// background goroutine to exit.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub == nil {
		return
	}
	r.hub.Unsubscribe(r.sub)
	close(r.stop)
	<-r.done
	r.sub = nil

	if _, err := r.store.Prune(); err != nil {
		r.logger.Warn("Prune failed", "error", err)
	}
}

func (r *Recorder) run(sub <-chan events.Event, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case e := <-sub:
			r.record(e)
		case <-stop:
			for {
				select {
				case e := <-sub:
					r.record(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) record(e events.Event) {
	rec, ok := RecordFromEvent(e)
	if !ok {
		return
	}
	if err := r.store.Write(rec); err != nil {
		r.logger.Error("Failed to journal route change", "error", err, "destination", rec.Route.Destination)
		return
	}

	r.writes++
	if r.writes%pruneEvery == 0 {
		if n, err := r.store.Prune(); err != nil {
			r.logger.Warn("Prune failed", "error", err)
		} else if n > 0 {
			r.logger.Debug("Pruned journal", "rows", n)
		}
	}
}
