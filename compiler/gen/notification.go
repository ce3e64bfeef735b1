package gen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ekxhmi/ekxgen"
	"github.com/ekxhmi/ekxgen/compiler/load"
)

// Names of the notification record type and its table.
const (
	RecordType  = "SqliteNotificationDefinition"
	RecordTable = "m_theNotifications"
)

// recordFields is the layout of RecordType, in initializer order.
var recordFields = []struct{ typ, name string }{
	{NotificationTypesEnum.Name, "m_nTypeId"},
	{"QString", "m_strName"},
	{"QString", "m_strDescription"},
	{"QString", "m_strShortInfo"},
	{"QString", "m_strLongInfo"},
	{"bool", "m_bRecoverAction"},
	{NotificationClassesEnum.Name, "m_nClassId"},
}

// unknownRecord is the placeholder at index 0 of the table.
var unknownRecord = load.Notification{
	Name:        Unknown,
	Description: Unknown,
	ShortInfo:   Unknown,
	LongInfo:    Unknown,
}

// Record is one rendered initializer of the notification table.
type Record struct {
	Type        string // NotificationType constant
	Name        string
	Description string
	ShortInfo   string
	LongInfo    string
	Recover     bool
	Class       string // NotificationClass constant
}

// BuildRecords cross-references notifications with the class enum and
// returns the table initializers, the UNKNOWN placeholder first. A
// notification whose class is not part of the enum is an integrity error.
func BuildRecords(rows []load.Notification, classes *Enum, p IdentifierPolicy) ([]Record, error) {
	byValue := make(map[int64]string, len(classes.Constants))
	for _, c := range classes.Constants {
		if !c.Sentinel {
			byValue[c.Value] = c.Name
		}
	}
	zero, err := placeholderClass(classes, byValue)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows)+1)
	records = append(records, Record{
		Type:        NotificationTypesEnum.Prefix + Unknown,
		Name:        unknownRecord.Name,
		Description: unknownRecord.Description,
		ShortInfo:   unknownRecord.ShortInfo,
		LongInfo:    unknownRecord.LongInfo,
		Class:       zero,
	})
	for _, n := range rows {
		class, ok := byValue[n.ClassID]
		if !ok {
			return nil, ekxgen.NewIntegrityError(load.TableNotificationTypes, n.ID, load.TableNotificationClasses, n.ClassID)
		}
		records = append(records, Record{
			Type:        NotificationTypesEnum.Symbol(n.Name, p),
			Name:        n.Name,
			Description: n.Description,
			ShortInfo:   n.ShortInfo,
			LongInfo:    n.LongInfo,
			Recover:     n.Recoverable(),
			Class:       class,
		})
	}
	return records, nil
}

// placeholderClass returns the class of the UNKNOWN record: the class with
// id 0, as in the legacy tables, or else the class named None.
func placeholderClass(classes *Enum, byValue map[int64]string) (string, error) {
	if c, ok := byValue[0]; ok {
		return c, nil
	}
	for _, c := range classes.Constants {
		if !c.Sentinel && c.Source == "None" {
			return c.Name, nil
		}
	}
	return "", ekxgen.NewIntegrityError(load.TableNotificationTypes, Unknown, load.TableNotificationClasses, int64(0))
}

// Render writes the initializer of one record.
func (r Record) Render(b *Builder) {
	b.Open()
	b.Line(r.Type + ",")
	for _, s := range []string{r.Name, r.Description, r.ShortInfo, r.LongInfo} {
		b.Line(Quote(s) + ",")
	}
	b.Linef("%t,", r.Recover)
	b.Line(NotificationClassesEnum.Name + "::" + r.Class)
	b.Close(",")
}

// RenderRecordTable writes the definition of the notification table.
func RenderRecordTable(b *Builder, records []Record) {
	b.Linef("const %s %s[] =", RecordType, RecordTable).Open()
	for _, r := range records {
		r.Render(b)
	}
	b.Close(";")
}

// RenderRecordStruct writes the struct declaration of the record type, with
// field names aligned one column past the widest type.
func RenderRecordStruct(b *Builder) {
	width := 0
	for _, f := range recordFields {
		width = max(width, len(f.typ))
	}
	b.Line("struct " + RecordType).Open()
	for _, f := range recordFields {
		b.Linef("%-*s %s;", width, f.typ, f.name)
	}
	b.Close(";")
}

// GenerateNotificationTable renders the notification table for the given
// notifications and classes.
func GenerateNotificationTable(rows []load.Notification, classes *Enum, p IdentifierPolicy) (string, error) {
	records, err := BuildRecords(rows, classes, p)
	if err != nil {
		return "", err
	}
	var b Builder
	RenderRecordTable(&b, records)
	return b.String(), nil
}

// Quote returns s as a C++ string literal. Double quotes are escaped and raw
// line breaks, carriage returns and tabs become their escape sequences.
// Other control characters and bytes that are not valid UTF-8 are written
// as octal escapes. Backslashes are kept, so escape sequences authored in
// the database reach the compiler.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&b, `\%03o`, s[i])
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\%03o`, r)
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}
