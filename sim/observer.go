package sim

// Observer is notified synchronously from the dispatch step. Implementations
// must not schedule events or wait; they see state after each change.
type Observer interface {
	EventProcessed(now int64, ev *Event)
	RequestMade(now int64, req *Request)
	RequestGranted(now int64, req *Request)
	RequestReleased(now int64, req *Request)
	RequestCancelled(now int64, req *Request)
	ProcessTerminated(now int64, p *Process)
}

// BaseObserver implements Observer with no-ops; embed it to override a subset.
type BaseObserver struct{}

func (BaseObserver) EventProcessed(int64, *Event)      {}
func (BaseObserver) RequestMade(int64, *Request)       {}
func (BaseObserver) RequestGranted(int64, *Request)    {}
func (BaseObserver) RequestReleased(int64, *Request)   {}
func (BaseObserver) RequestCancelled(int64, *Request)  {}
func (BaseObserver) ProcessTerminated(int64, *Process) {}
