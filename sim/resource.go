package sim

import (
	"fmt"
	"slices"
	"strings"
)

type requestState int

const (
	requestQueued requestState = iota
	requestGranted
	requestReleased
	requestCancelled
)

// Request is one acquisition attempt on a Resource. Its embedded Event is
// processed when the resource grants it; the event's value is the request.
type Request struct {
	*Event
	resource    *Resource
	process     *Process
	state       requestState
	requestedAt int64
	grantedAt   int64
}

// Resource is a capacity-limited shared entity. Requests are granted strictly
// in arrival order: a later request is never granted while an earlier one is
// still waiting. Release is the caller's obligation; terminating a process
// does not release what it holds.
type Resource struct {
	env      *Environment
	name     string
	capacity int
	users    []*Request // granted, in grant order
	queue    []*Request // FIFO of waiting requests
}

// NewResource creates a resource admitting at most capacity concurrent holders.
func NewResource(env *Environment, name string, capacity int) (*Resource, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %s has capacity %d", ErrInvalidCapacity, name, capacity)
	}
	return &Resource{env: env, name: name, capacity: capacity}, nil
}

// Request appends a new request to the queue. When a slot is free and the
// request is at the head it is granted at the current time.
func (r *Resource) Request() *Request {
	req := &Request{
		Event:       r.env.newEvent("request(" + r.name + ")"),
		resource:    r,
		process:     r.env.active,
		state:       requestQueued,
		requestedAt: r.env.now,
	}
	r.queue = append(r.queue, req)
	for _, o := range r.env.observers {
		o.RequestMade(r.env.now, req)
	}
	r.grant()
	return req
}

// Release frees the slot held by req and grants waiting requests in order.
func (r *Resource) Release(req *Request) error {
	if req == nil || req.resource != r || req.state != requestGranted {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, r.name)
	}
	idx := slices.Index(r.users, req)
	r.users = slices.Delete(r.users, idx, idx+1)
	req.state = requestReleased
	for _, o := range r.env.observers {
		o.RequestReleased(r.env.now, req)
	}
	r.grant()
	return nil
}

// grant admits queue heads while capacity allows.
func (r *Resource) grant() {
	for len(r.users) < r.capacity && len(r.queue) > 0 {
		req := r.queue[0]
		r.queue = slices.Delete(r.queue, 0, 1)
		req.state = requestGranted
		req.grantedAt = r.env.now
		r.users = append(r.users, req)
		if err := req.Succeed(req); err != nil {
			r.env.log.WithError(err).Debugf("[tick %07d] Grant on %s not scheduled", r.env.now, r.name)
		}
		for _, o := range r.env.observers {
			o.RequestGranted(r.env.now, req)
		}
	}
}

// Use acquires r on behalf of p, runs fn while holding it and releases it on
// every exit path, including a panic in fn or the environment being closed.
// A request still waiting when Use returns is cancelled.
func (r *Resource) Use(p *Process, fn func() error) (err error) {
	req := r.Request()
	defer func() {
		switch req.state {
		case requestGranted:
			if rerr := r.Release(req); rerr != nil && err == nil {
				err = rerr
			}
		case requestQueued:
			_ = req.Cancel()
		}
	}()
	if _, err := p.Wait(req.Event); err != nil {
		return err
	}
	return fn()
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Capacity returns the maximum number of concurrent holders.
func (r *Resource) Capacity() int { return r.capacity }

// Count returns the current number of holders.
func (r *Resource) Count() int { return len(r.users) }

// QueueLen returns the number of waiting requests.
func (r *Resource) QueueLen() int { return len(r.queue) }

// Users returns a copy of the granted requests in grant order.
func (r *Resource) Users() []*Request { return slices.Clone(r.users) }

// Queue returns a copy of the waiting requests in arrival order.
func (r *Resource) Queue() []*Request { return slices.Clone(r.queue) }

func (r *Resource) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%d/%d", r.name, len(r.users), r.capacity)
	if len(r.queue) > 0 {
		fmt.Fprintf(&sb, " +%d waiting", len(r.queue))
	}
	sb.WriteString("]")
	return sb.String()
}

// Cancel withdraws a request that has not been granted yet.
func (req *Request) Cancel() error {
	r := req.resource
	if req.state != requestQueued {
		return fmt.Errorf("%w: %s", ErrNotQueued, r.name)
	}
	idx := slices.Index(r.queue, req)
	r.queue = slices.Delete(r.queue, idx, idx+1)
	req.state = requestCancelled
	for _, o := range r.env.observers {
		o.RequestCancelled(r.env.now, req)
	}
	r.grant()
	return nil
}

// Resource returns the resource the request was made on.
func (req *Request) Resource() *Resource { return req.resource }

// Process returns the process that made the request, or nil if it was made
// outside a process body.
func (req *Request) Process() *Process { return req.process }

// Granted reports whether the request currently holds a slot.
func (req *Request) Granted() bool { return req.state == requestGranted }

// Queued reports whether the request is still waiting.
func (req *Request) Queued() bool { return req.state == requestQueued }

// RequestedAt returns the virtual time of the request.
func (req *Request) RequestedAt() int64 { return req.requestedAt }

// GrantedAt returns the virtual time of the grant; meaningful once granted.
func (req *Request) GrantedAt() int64 { return req.grantedAt }
