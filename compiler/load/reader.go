// Package load reads the lookup tables of the EKX database.
//
// Every read issues exactly one query and returns rows in the order the
// generated artifacts expect them: enums by name, the notification class enum
// and the notification table by id.
package load

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekxhmi/ekxgen"
	"github.com/ekxhmi/ekxgen/dialect"
	"github.com/ekxhmi/ekxgen/dialect/sql"
)

// Lookup table names.
const (
	TableSettings            = "settings"
	TableEventTypes          = "event_types"
	TableNotificationTypes   = "notification_types"
	TableNotificationClasses = "notification_classes"
	TableRecipeModes         = "recipe_modes"
	TableCounters            = "counters"
	TableUnits               = "units"
	TableRecipes             = "recipes"
)

// ErrNoVersion is wrapped in a QueryError when settings holds no Version key.
var ErrNoVersion = errors.New("no Version row in settings")

const (
	eventTypesQuery = "SELECT event_name, event_type_id FROM event_types ORDER BY event_name"

	notificationTypesQuery = "SELECT notification_name, notification_type_id FROM notification_types ORDER BY notification_name"

	notificationClassesQuery = "SELECT notification_class_id, notification_class FROM notification_classes ORDER BY notification_class_id"

	recipeModesQuery = "SELECT recipe_mode_name, recipe_mode_id FROM recipe_modes ORDER BY recipe_mode_name"

	countersQuery = "SELECT counter_name, counter_id, label FROM counters " +
		"LEFT JOIN units ON counters.unit_id = units.unit_id ORDER BY counter_name"

	recipesQuery = "SELECT recipe_name, recipe_uuid FROM recipes"

	// The class is left joined so that a dangling class reference surfaces as
	// a NULL class name instead of silently dropping the notification.
	notificationsSelect = "SELECT notification_type_id, notification_name, notification_types.notification_class_id, " +
		"notification_class, description, short_info, long_info, recover_action FROM notification_types " +
		"LEFT JOIN notification_classes ON notification_types.notification_class_id = notification_classes.notification_class_id"

	notificationsQuery      = notificationsSelect + " ORDER BY notification_type_id"
	notificationReportQuery = notificationsSelect + " ORDER BY notification_name"
)

// versionQuery returns the settings query for the given dialect; "key" is a
// reserved word in MySQL.
func versionQuery(d string) string {
	key := `"key"`
	if d == dialect.MySQL {
		key = "`key`"
	}
	return fmt.Sprintf("SELECT value FROM settings WHERE %s = 'Version'", key)
}

// Reader issues the typed read queries against a lookup database.
type Reader struct {
	drv dialect.Driver
}

// NewReader returns a Reader on top of the given driver. The driver stays
// owned by the caller.
func NewReader(drv dialect.Driver) *Reader {
	return &Reader{drv: drv}
}

// ReadVersion returns the value of the "Version" setting.
func (r *Reader) ReadVersion(ctx context.Context) (string, error) {
	q := versionQuery(r.drv.Dialect())
	values, err := query(ctx, r, TableSettings, q, func(s sql.ColumnScanner) (string, error) {
		var v sql.NullString
		err := s.Scan(&v)
		return v.String, err
	})
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", ekxgen.NewQueryError(TableSettings, q, ErrNoVersion)
	}
	return values[0], nil
}

// ReadEventTypes returns the event types ordered by name.
func (r *Reader) ReadEventTypes(ctx context.Context) ([]Entry, error) {
	return query(ctx, r, TableEventTypes, eventTypesQuery, scanNameID)
}

// ReadNotificationTypes returns the notification type names ordered by name.
func (r *Reader) ReadNotificationTypes(ctx context.Context) ([]Entry, error) {
	return query(ctx, r, TableNotificationTypes, notificationTypesQuery, scanNameID)
}

// ReadNotificationClasses returns the notification classes ordered by id.
func (r *Reader) ReadNotificationClasses(ctx context.Context) ([]Entry, error) {
	return query(ctx, r, TableNotificationClasses, notificationClassesQuery, func(s sql.ColumnScanner) (Entry, error) {
		var e Entry
		err := s.Scan(&e.ID, &e.Name)
		return e, err
	})
}

// ReadRecipeModes returns the recipe modes ordered by name.
func (r *Reader) ReadRecipeModes(ctx context.Context) ([]Entry, error) {
	return query(ctx, r, TableRecipeModes, recipeModesQuery, scanNameID)
}

// ReadCounters returns the counters with their unit label ordered by name.
func (r *Reader) ReadCounters(ctx context.Context) ([]Counter, error) {
	return query(ctx, r, TableCounters, countersQuery, func(s sql.ColumnScanner) (Counter, error) {
		var (
			c    Counter
			unit sql.NullString
		)
		err := s.Scan(&c.Name, &c.ID, &unit)
		c.Unit = unit.String
		return c, err
	})
}

// ReadRecipes returns the recipe names and UUIDs in storage order.
func (r *Reader) ReadRecipes(ctx context.Context) ([]Recipe, error) {
	return query(ctx, r, TableRecipes, recipesQuery, func(s sql.ColumnScanner) (Recipe, error) {
		var rc Recipe
		err := s.Scan(&rc.Name, &rc.UUID)
		return rc, err
	})
}

// ReadNotifications returns the notification definitions ordered by id.
func (r *Reader) ReadNotifications(ctx context.Context) ([]Notification, error) {
	return query(ctx, r, TableNotificationTypes, notificationsQuery, scanNotification)
}

// ReadNotificationReport returns the notification definitions ordered by
// name, as listed in the exported report.
func (r *Reader) ReadNotificationReport(ctx context.Context) ([]Notification, error) {
	return query(ctx, r, TableNotificationTypes, notificationReportQuery, scanNotification)
}

// Load reads every table in the fixed generation sequence: version, event
// types, notification types, notification classes, recipe modes, counters,
// recipes and finally the notification table. The first failure aborts.
func Load(ctx context.Context, r *Reader) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Version, err = r.ReadVersion(ctx); err != nil {
		return nil, err
	}
	if s.EventTypes, err = r.ReadEventTypes(ctx); err != nil {
		return nil, err
	}
	if s.NotificationTypes, err = r.ReadNotificationTypes(ctx); err != nil {
		return nil, err
	}
	if s.NotificationClasses, err = r.ReadNotificationClasses(ctx); err != nil {
		return nil, err
	}
	if s.RecipeModes, err = r.ReadRecipeModes(ctx); err != nil {
		return nil, err
	}
	if s.Counters, err = r.ReadCounters(ctx); err != nil {
		return nil, err
	}
	if s.Recipes, err = r.ReadRecipes(ctx); err != nil {
		return nil, err
	}
	if s.Notifications, err = r.ReadNotifications(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanNameID(s sql.ColumnScanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Name, &e.ID)
	return e, err
}

func scanNotification(s sql.ColumnScanner) (Notification, error) {
	var (
		n                        Notification
		class, desc, short, long sql.NullString
		flag                     sql.NullInt64
	)
	err := s.Scan(&n.ID, &n.Name, &n.ClassID, &class, &desc, &short, &long, &flag)
	n.Class = class.String
	n.Description = desc.String
	n.ShortInfo = short.String
	n.LongInfo = long.String
	n.RecoverAction = flag.Int64
	return n, err
}

// query runs q and scans every row with scan. Failures of the statement, the
// scan or the row iteration are reported as *ekxgen.QueryError for table.
func query[T any](ctx context.Context, r *Reader, table, q string, scan func(sql.ColumnScanner) (T, error)) (_ []T, rerr error) {
	rows := &sql.Rows{}
	if err := r.drv.Query(sql.ReadOnly(ctx, r.drv.Dialect()), q, []any{}, rows); err != nil {
		return nil, ekxgen.NewQueryError(table, q, err)
	}
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = ekxgen.NewQueryError(table, q, err)
		}
	}()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, ekxgen.NewQueryError(table, q, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, ekxgen.NewQueryError(table, q, err)
	}
	return out, nil
}
