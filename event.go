package dlhelper

// Event is published by a Registration for observers; handlers and callbacks in Options run first.
type Event interface {
	Registration() RegistrationID
	// The Item this event relates to.
	Item() Item
}

type itemEvent struct {
	registration RegistrationID
	item         Item
}

func (e itemEvent) Registration() RegistrationID {
	return e.registration
}

func (e itemEvent) Item() Item {
	return e.item
}

type ItemStarted struct {
	itemEvent
	// SavePath is the chosen path, even if it was not applied because of Options.SaveAs.
	SavePath string
	Counters ByteCounters
}

type ItemUpdated struct {
	itemEvent
	Progress    Progress
	OldCounters ByteCounters
	NewCounters ByteCounters
	ActiveCount int
}

type ItemDone struct {
	itemEvent
	State ItemState
	// Err is set for interrupted items.
	Err         error
	OldCounters ByteCounters
	NewCounters ByteCounters
	ActiveCount int
}
