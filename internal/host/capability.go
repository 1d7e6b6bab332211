package host

import "fmt"

type Capability string

const (
	CapSlideExport    Capability = "slide-export"
	CapPictureExport  Capability = "picture-export"
	CapGroupTraversal Capability = "group-traversal"
)

// Capabilities maps each capability a host supports to true. Missing keys are
// unavailable; Reasons optionally explains why.
type Capabilities struct {
	Supported map[Capability]bool
	Reasons   map[Capability]string
}

// NewCapabilities marks the given capabilities as supported.
func NewCapabilities(caps ...Capability) Capabilities {
	c := Capabilities{Supported: map[Capability]bool{}, Reasons: map[Capability]string{}}
	for _, name := range caps {
		c.Supported[name] = true
	}
	return c
}

// Without marks name unavailable with a reason.
func (c Capabilities) Without(name Capability, reason string) Capabilities {
	if c.Supported == nil {
		c.Supported = map[Capability]bool{}
	}
	if c.Reasons == nil {
		c.Reasons = map[Capability]string{}
	}
	c.Supported[name] = false
	c.Reasons[name] = reason
	return c
}

type AvailabilityStatus int

const (
	Unavailable AvailabilityStatus = iota
	Available
)

func (s AvailabilityStatus) String() string {
	if s == Available {
		return "available"
	}
	return "unavailable"
}

// Availability is the outcome of negotiating one capability with a host.
type Availability struct {
	Capability Capability
	Status     AvailabilityStatus
	Reason     string
}

func (a Availability) Available() bool { return a.Status == Available }

// Err returns nil when available, otherwise an error wrapping ErrCapabilityUnavailable.
func (a Availability) Err() error {
	if a.Available() {
		return nil
	}
	if a.Reason == "" {
		return fmt.Errorf("%w: %s", ErrCapabilityUnavailable, a.Capability)
	}
	return fmt.Errorf("%w: %s: %s", ErrCapabilityUnavailable, a.Capability, a.Reason)
}

// Probe negotiates name with doc.
func Probe(doc Document, name Capability) Availability {
	caps := doc.Capabilities()
	if caps.Supported[name] {
		return Availability{Capability: name, Status: Available}
	}
	reason := caps.Reasons[name]
	if reason == "" {
		reason = "not supported by this host"
	}
	return Availability{Capability: name, Status: Unavailable, Reason: reason}
}

// ProbeAll negotiates every capability in order and returns the first
// unavailable one as an error.
func ProbeAll(doc Document, caps ...Capability) error {
	for _, name := range caps {
		if err := Probe(doc, name).Err(); err != nil {
			return err
		}
	}
	return nil
}
