package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ekxhmi/ekxgen/compiler/load"
)

// Row is one lookup table row feeding an enum.
type Row struct {
	Name    string
	ID      int64
	Comment string // trailing comment, e.g. "unit [s]"
}

// Constant is one named value of an enum.
type Constant struct {
	Name    string // emitted identifier, prefix included
	Source  string // display name from the database
	Value   int64
	Comment string
	// Sentinel marks the UNKNOWN and LAST constants.
	Sentinel bool
}

// Enum is a named integer enumeration ready to be rendered.
type Enum struct {
	Name      string
	Constants []Constant
	// Register emits the registration directive after the block.
	Register bool
	// Terminated keeps a comma after the last constant.
	Terminated bool
	// Last is the value of the closing sentinel.
	Last int64

	spec EnumSpec
}

// EnumSpec describes how one lookup table becomes an enum.
type EnumSpec struct {
	// Name is the enum type name.
	Name string
	// Table is the source table, used in errors and logs.
	Table string
	// Prefix is prepended to every constant.
	Prefix string
	// ZeroSentinel emits Prefix+"UNKNOWN" = 0 as the first constant.
	ZeroSentinel bool
	// Last is the spelling of the closing sentinel. Defaults to "LAST".
	Last string
	// Verbatim keeps the display names as identifiers instead of sanitizing.
	Verbatim bool
	// GoName is the type name in the Go target.
	GoName string
}

// The enums of the declaration, in emission order.
var (
	EventTypesEnum = EnumSpec{
		Name:         "SqliteEventTypes",
		Table:        load.TableEventTypes,
		Prefix:       "SqliteEventType_",
		ZeroSentinel: true,
		GoName:       "EventType",
	}
	NotificationTypesEnum = EnumSpec{
		Name:         "SqliteNotificationType",
		Table:        load.TableNotificationTypes,
		Prefix:       "SqliteNotificationType_",
		ZeroSentinel: true,
		GoName:       "NotificationType",
	}
	// Downstream code refers to the classes as SqliteNotificationClass::None,
	// so they keep their display names.
	NotificationClassesEnum = EnumSpec{
		Name:     "SqliteNotificationClass",
		Table:    load.TableNotificationClasses,
		Last:     "Last",
		Verbatim: true,
		GoName:   "NotificationClass",
	}
	RecipeModesEnum = EnumSpec{
		Name:   "SqliteRecipeModes",
		Table:  load.TableRecipeModes,
		Prefix: "SqliteRecipeMode_",
		GoName: "RecipeMode",
	}
	CountersEnum = EnumSpec{
		Name:         "SqliteCounters",
		Table:        load.TableCounters,
		Prefix:       "SqliteCounter_",
		ZeroSentinel: true,
		GoName:       "Counter",
	}
)

// Unknown is the name of the zero sentinel.
const Unknown = "UNKNOWN"

func (s EnumSpec) last() string {
	if s.Last != "" {
		return s.Last
	}
	return "LAST"
}

// Symbol returns the constant identifier for a display name.
func (s EnumSpec) Symbol(name string, p IdentifierPolicy) string {
	if s.Verbatim {
		return s.Prefix + name
	}
	return s.Prefix + p.Sanitize(name)
}

// BuildEnum turns rows into an Enum. Rows keep their order. The closing
// sentinel is one past the largest id (at least 0), so an empty table yields
// a LAST of 1.
func BuildEnum(s EnumSpec, rows []Row, p IdentifierPolicy, log zerolog.Logger) (*Enum, error) {
	e := &Enum{Name: s.Name, Register: true, spec: s}
	reserved := []string{s.Prefix + s.last()}
	if s.ZeroSentinel {
		reserved = append(reserved, s.Prefix+Unknown)
		e.Constants = append(e.Constants, Constant{Name: s.Prefix + Unknown, Sentinel: true})
	}
	syms := newSymbols(PhaseSanitize, s.Name, reserved...)
	var last int64
	for _, r := range rows {
		id := s.Symbol(r.Name, p)
		if !ValidIdentifier(id) {
			if s.Verbatim || p == PolicyLegacy {
				log.Warn().Str("enum", s.Name).Str("name", r.Name).Str("identifier", id).Msg("identifier is not a valid C identifier")
			} else {
				return nil, NewGenerationError(PhaseSanitize, s.Name, fmt.Sprintf("cannot derive identifier from %q", r.Name), nil)
			}
		}
		if err := syms.add(id, r.Name); err != nil {
			return nil, err
		}
		e.Constants = append(e.Constants, Constant{Name: id, Source: r.Name, Value: r.ID, Comment: r.Comment})
		last = max(last, r.ID)
	}
	if len(rows) == 0 {
		log.Warn().Str("enum", s.Name).Str("table", s.Table).Msg("table is empty, enum only holds its sentinels")
	}
	e.Last = last + 1
	e.Constants = append(e.Constants, Constant{Name: s.Prefix + s.last(), Value: e.Last, Sentinel: true})
	return e, nil
}

// VersionEnum returns the single-constant version enum. The value must be
// an integer.
func VersionEnum(version string) (*Enum, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(version), 10, 64)
	if err != nil {
		return nil, NewGenerationError(PhaseEnum, "SqliteVersion", fmt.Sprintf("version %q is not an integer", version), err)
	}
	return &Enum{
		Name:       "SqliteVersion",
		Constants:  []Constant{{Name: "SqliteVersionIndex", Value: v}},
		Terminated: true,
		Last:       v,
		spec:       EnumSpec{Name: "SqliteVersion", GoName: "Version"},
	}, nil
}

// Render writes the enum block, followed by its registration directive when
// requested. Trailing comments are aligned one column past the widest
// constant.
func (e *Enum) Render(b *Builder) {
	lines := make([]string, len(e.Constants))
	width := 0
	for i, c := range e.Constants {
		lines[i] = fmt.Sprintf("%s = %d", c.Name, c.Value)
		if i < len(e.Constants)-1 || e.Terminated {
			lines[i] += ","
		}
		width = max(width, len(lines[i]))
	}
	b.Linef("enum %s", e.Name).Open()
	for i, c := range e.Constants {
		if c.Comment != "" {
			b.Linef("%-*s // %s", width, lines[i], c.Comment)
			continue
		}
		b.Line(lines[i])
	}
	b.Close(";")
	if e.Register {
		b.Linef("Q_ENUM_NS( %s )", e.Name)
	}
}

// String renders the enum block on its own.
func (e *Enum) String() string {
	var b Builder
	e.Render(&b)
	return b.String()
}

// Contains reports whether v is the value of a non-sentinel constant.
func (e *Enum) Contains(v int64) bool {
	for _, c := range e.Constants {
		if !c.Sentinel && c.Value == v {
			return true
		}
	}
	return false
}

// GenerateEnum renders the enum block of one lookup table.
func GenerateEnum(s EnumSpec, rows []Row, p IdentifierPolicy) (string, error) {
	e, err := BuildEnum(s, rows, p, zerolog.Nop())
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

// EntryRows adapts name/id entries to enum rows.
func EntryRows(entries []load.Entry) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{Name: e.Name, ID: e.ID}
	}
	return rows
}

// CounterRows adapts counters to enum rows carrying their unit as comment.
// Counters without unit get no comment.
func CounterRows(counters []load.Counter) []Row {
	rows := make([]Row, len(counters))
	for i, c := range counters {
		rows[i] = Row{Name: c.Name, ID: c.ID}
		if c.Unit != "" {
			rows[i].Comment = "unit " + c.Unit
		}
	}
	return rows
}
