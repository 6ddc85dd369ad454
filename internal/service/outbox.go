package service

import "sync"

// Opener opens a share intent in a new browsing context. Success of the
// external app is never observed.
type Opener interface {
	Open(link string)
}

// Notifier shows a blocking, modal-style notice to the registrant.
type Notifier interface {
	Notify(message string)
}

// Outbox collects links to open and notices to show until a front end
// drains them. It satisfies both Opener and Notifier.
type Outbox struct {
	mu      sync.Mutex
	links   []string
	notices []string
}

// Open queues link.
func (o *Outbox) Open(link string) {
	o.mu.Lock()
	o.links = append(o.links, link)
	o.mu.Unlock()
}

// Notify queues message.
func (o *Outbox) Notify(message string) {
	o.mu.Lock()
	o.notices = append(o.notices, message)
	o.mu.Unlock()
}

// Drain returns and clears everything queued. Both slices are non-nil.
func (o *Outbox) Drain() (links, notices []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	links = append([]string{}, o.links...)
	notices = append([]string{}, o.notices...)
	o.links, o.notices = nil, nil
	return links, notices
}
