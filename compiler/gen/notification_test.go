package gen

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekxhmi/ekxgen"
	"github.com/ekxhmi/ekxgen/compiler/load"
)

func classEnum(t *testing.T, names ...string) *Enum {
	t.Helper()
	rows := make([]Row, len(names))
	for i, n := range names {
		rows[i] = Row{Name: n, ID: int64(i)}
	}
	e, err := BuildEnum(NotificationClassesEnum, rows, PolicyLegacy, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestGenerateNotificationTable(t *testing.T) {
	classes := classEnum(t, "None", "Info", "Warning", "Error")

	out, err := GenerateNotificationTable([]load.Notification{
		{ID: 4, Name: "JAM", ClassID: 2, Class: "Warning", Description: "Beans are jammed", ShortInfo: "Jam", LongInfo: `Clear\nthe jam`, RecoverAction: 1},
	}, classes, PolicyLegacy)
	require.NoError(t, err)
	assert.Equal(t, `const SqliteNotificationDefinition m_theNotifications[] =
{
    {
        SqliteNotificationType_UNKNOWN,
        "UNKNOWN",
        "UNKNOWN",
        "UNKNOWN",
        "UNKNOWN",
        false,
        SqliteNotificationClass::None
    },
    {
        SqliteNotificationType_JAM,
        "JAM",
        "Beans are jammed",
        "Jam",
        "Clear\nthe jam",
        true,
        SqliteNotificationClass::Warning
    },
};
`, out)
}

func TestBuildRecords(t *testing.T) {
	classes := classEnum(t, "None", "Info", "Warning", "Error")

	t.Run("placeholder first and order kept", func(t *testing.T) {
		records, err := BuildRecords([]load.Notification{
			{ID: 1, Name: "GRINDER_CHAMBER_OPENED", ClassID: 3},
			{ID: 26, Name: "SW_UPDATE_COMPLETED", ClassID: 1},
		}, classes, PolicyLegacy)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "SqliteNotificationType_UNKNOWN", records[0].Type)
		assert.Equal(t, "None", records[0].Class)
		assert.False(t, records[0].Recover)
		assert.Equal(t, "Error", records[1].Class)
		assert.Equal(t, "Info", records[2].Class)
	})

	t.Run("recover action other than one is false", func(t *testing.T) {
		records, err := BuildRecords([]load.Notification{{ID: 1, Name: "A", RecoverAction: 2}}, classes, PolicyLegacy)
		require.NoError(t, err)
		assert.False(t, records[1].Recover)
	})

	t.Run("unknown class is an integrity error", func(t *testing.T) {
		_, err := BuildRecords([]load.Notification{{ID: 60, Name: "ORPHAN", ClassID: 9}}, classes, PolicyLegacy)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ekxgen.ErrIntegrity))
		var ie *ekxgen.IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, load.TableNotificationTypes, ie.Table)
		assert.Equal(t, int64(60), ie.Row)
		assert.Equal(t, int64(9), ie.Value)
	})

	t.Run("placeholder falls back to the None class", func(t *testing.T) {
		e, err := BuildEnum(NotificationClassesEnum, []Row{{Name: "Info", ID: 1}, {Name: "None", ID: 7}}, PolicyLegacy, zerolog.Nop())
		require.NoError(t, err)
		records, err := BuildRecords(nil, e, PolicyLegacy)
		require.NoError(t, err)
		assert.Equal(t, "None", records[0].Class)
	})

	t.Run("placeholder without class is an integrity error", func(t *testing.T) {
		e, err := BuildEnum(NotificationClassesEnum, []Row{{Name: "Info", ID: 1}, {Name: "Error", ID: 3}}, PolicyLegacy, zerolog.Nop())
		require.NoError(t, err)
		_, err = BuildRecords([]load.Notification{{ID: 1, Name: "A", ClassID: 3}}, e, PolicyLegacy)
		var ie *ekxgen.IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, Unknown, ie.Row)
		assert.Equal(t, int64(0), ie.Value)
	})

	t.Run("closing sentinel is not a class", func(t *testing.T) {
		_, err := BuildRecords([]load.Notification{{ID: 1, Name: "A", ClassID: classes.Last}}, classes, PolicyLegacy)
		assert.True(t, ekxgen.IsIntegrityError(err))
	})

	t.Run("every class reference names an enum constant", func(t *testing.T) {
		records, err := BuildRecords([]load.Notification{
			{ID: 1, Name: "A", ClassID: 0},
			{ID: 2, Name: "B", ClassID: 1},
			{ID: 3, Name: "C", ClassID: 2},
			{ID: 4, Name: "D", ClassID: 3},
		}, classes, PolicyLegacy)
		require.NoError(t, err)
		names := map[string]bool{}
		for _, c := range classes.Constants {
			if !c.Sentinel {
				names[c.Name] = true
			}
		}
		for _, r := range records {
			assert.True(t, names[r.Class], "class %s", r.Class)
		}
	})
}

func TestRenderRecordStruct(t *testing.T) {
	var b Builder
	RenderRecordStruct(&b)
	assert.Equal(t, `struct SqliteNotificationDefinition
{
    SqliteNotificationType  m_nTypeId;
    QString                 m_strName;
    QString                 m_strDescription;
    QString                 m_strShortInfo;
    QString                 m_strLongInfo;
    bool                    m_bRecoverAction;
    SqliteNotificationClass m_nClassId;
};
`, b.String())
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{"two\nlines", `"two\nlines"`},
		{"cr\r\ttab", `"cr\r\ttab"`},
		{`authored\nbreak`, `"authored\nbreak"`},
		{"bell\a", `"bell\007"`},
		{"Grüße", `"Grüße"`},
		{"Gr\xfc\xdfe", `"Gr\374\337e"`},
		{"cut \xe2\x82", `"cut \342\202"`},
		{"", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Quote(tt.in))
		})
	}
}
