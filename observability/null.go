package observability

// NullEmitter discards every event. Use it when observability overhead is
// unwanted, such as in a production deployment without a log or tracing
// backend configured.
type NullEmitter struct{}

// NewNullEmitter returns an Emitter that discards all events.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

func (n *NullEmitter) Emit(event Event) {}
