package driver

import "fmt"

// Binding is the outcome of naming an instance on a freshly activated driver.
type Binding int

const (
	// BindingConfirmed means the driver bound the handle to the named instance.
	BindingConfirmed Binding = iota + 1
	// BindingNotApplicable means the driver has no named instances; the
	// default instance is used.
	BindingNotApplicable
	// BindingRejected means the driver does not know the name.
	BindingRejected
)

func (b Binding) String() string {
	switch b {
	case BindingConfirmed:
		return "confirmed"
	case BindingNotApplicable:
		return "not-applicable"
	case BindingRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// BindInstance sends the SetInstanceName selector to d. Only a rejection is
// reported as an error. A driver answering OK implements Future generically
// and is treated like one that does not know the selector.
func BindInstance(d Driver, name string) (Binding, error) {
	switch status := d.Future(SetInstanceName, name); status {
	case Success:
		return BindingConfirmed, nil
	case InvalidParameter, OK:
		return BindingNotApplicable, nil
	case NotPresent:
		return BindingRejected, fmt.Errorf("instance %q: %w", name, NotPresent)
	default:
		return BindingRejected, fmt.Errorf("instance %q: unexpected status: %w", name, status)
	}
}
