package load

// Entry is one row of a lookup table that maps a symbolic name to a numeric id.
type Entry struct {
	Name string
	ID   int64
}

// Counter is a row of the counters table joined with its unit label.
type Counter struct {
	Name string
	ID   int64
	Unit string // Unit label, empty if the counter has no unit
}

// Recipe is a row of the recipes table.
type Recipe struct {
	Name string
	UUID string
}

// Notification is a row of notification_types joined with its class.
type Notification struct {
	ID            int64
	Name          string
	ClassID       int64
	Class         string // Class name, empty if ClassID does not resolve
	Description   string
	ShortInfo     string
	LongInfo      string
	RecoverAction int64 // 1 if the notification offers a recover action
}

// Recoverable reports whether the stored recover_action flag is set.
func (n Notification) Recoverable() bool {
	return n.RecoverAction == 1
}

// Snapshot holds every lookup table consumed by one generation run, each in
// the order the artifacts list it.
type Snapshot struct {
	Version             string
	EventTypes          []Entry        // by name
	NotificationTypes   []Entry        // by name
	NotificationClasses []Entry        // by id
	RecipeModes         []Entry        // by name
	Counters            []Counter      // by name
	Recipes             []Recipe       // storage order
	Notifications       []Notification // by id
}
