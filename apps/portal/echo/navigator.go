package echoportal

import (
	"sync"

	"github.com/EduardoBullon/SEM16-PC04/core/guard"
	"github.com/EduardoBullon/SEM16-PC04/core/task"
)

// Navigator is the portal's routing and view state: where the user last was and the task
// listing filter they chose. A session invalidation resets it and nothing else.
type Navigator struct {
	mu            sync.Mutex
	location      string
	filter        task.QueryFilter
	invalidations int
}

func NewNavigator() *Navigator {
	return &Navigator{location: guard.LoginPath}
}

func (n *Navigator) Visit(location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = location
}

func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *Navigator) Filter() task.QueryFilter {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.filter
}

func (n *Navigator) SetFilter(qf task.QueryFilter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.filter = qf
}

// SessionInvalidated sends the user to the login page and drops the view state.
// Registered with backend.Client.OnSessionInvalidated.
func (n *Navigator) SessionInvalidated() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = guard.LoginPath
	n.filter = task.QueryFilter{}
	n.invalidations++
}

// Invalidations counts the forced navigations to the login page.
func (n *Navigator) Invalidations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.invalidations
}
