package gen

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ekxhmi/ekxgen/compiler/load"
)

// Artifact kinds.
const (
	KindDeclaration = "declaration"
	KindDefinition  = "definition"
	KindGo          = "go"
)

// Artifact is one fully rendered output file.
type Artifact struct {
	Kind    string
	Path    string
	Content []byte
}

// Model is the generated view of one snapshot: every enum, macro and record
// in emission order. It is built before anything is rendered, so a failing
// cross-reference aborts the run before any output exists.
type Model struct {
	Source  string
	Version *Enum
	Enums   []*Enum // event types, notification types, classes, recipe modes, counters
	Classes *Enum
	Defines []Define
	Records []Record
}

// BuildModel derives the Model of a snapshot.
func BuildModel(s *load.Snapshot, cfg *Config, log zerolog.Logger) (*Model, error) {
	m := &Model{Source: cfg.Source()}
	var err error
	if m.Version, err = VersionEnum(s.Version); err != nil {
		return nil, err
	}
	p := cfg.Identifiers
	tables := []struct {
		spec EnumSpec
		rows []Row
	}{
		{EventTypesEnum, EntryRows(s.EventTypes)},
		{NotificationTypesEnum, EntryRows(s.NotificationTypes)},
		{NotificationClassesEnum, EntryRows(s.NotificationClasses)},
		{RecipeModesEnum, EntryRows(s.RecipeModes)},
		{CountersEnum, CounterRows(s.Counters)},
	}
	for _, t := range tables {
		e, err := BuildEnum(t.spec, t.rows, p, log)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("enum", e.Name).Int("rows", len(t.rows)).Int64("last", e.Last).Msg("enum built")
		m.Enums = append(m.Enums, e)
		if t.spec.Name == NotificationClassesEnum.Name {
			m.Classes = e
		}
	}
	if m.Defines, err = BuildUUIDDefines(s.Recipes, p, log); err != nil {
		return nil, err
	}
	if m.Records, err = BuildRecords(s.Notifications, m.Classes, p); err != nil {
		return nil, err
	}
	return m, nil
}

func banner(b *Builder, source string) {
	b.Line("// This file is generated from " + source)
	b.Line("// Don't modify it manually. Run ekxgen instead.")
	b.Blank()
}

// RenderDeclaration renders the declaration header: the version enum, the
// lookup enums, the recipe UUID macros, the record layout and the external
// declaration of the notification table.
func RenderDeclaration(m *Model, cfg *Config) ([]byte, error) {
	var b Builder
	guard := cfg.IncludeGuard()
	banner(&b, m.Source)
	b.Line("#ifndef " + guard)
	b.Line("#define " + guard)
	b.Blank()
	b.Line("#include <QObject>")
	b.Blank()
	b.Line("namespace " + cfg.Namespace).OpenFlat()
	b.Line("Q_NAMESPACE")
	b.Blank()
	m.Version.Render(&b)
	b.Blank()
	for _, e := range m.Enums {
		e.Render(&b)
		b.Blank()
	}
	for _, d := range m.Defines {
		d.Render(&b)
	}
	if len(m.Defines) > 0 {
		b.Blank()
	}
	RenderRecordStruct(&b)
	b.Blank()
	b.Linef("extern const %s %s[];", RecordType, RecordTable)
	b.Blank()
	b.Close(" // end namespace")
	b.Blank()
	b.Line("#endif // " + guard)
	out, err := b.Bytes()
	if err != nil {
		return nil, NewGenerationError(PhaseRender, cfg.DeclarationPath, "", err)
	}
	return out, nil
}

// RenderDefinition renders the definition source holding the notification
// table.
func RenderDefinition(m *Model, cfg *Config) ([]byte, error) {
	var b Builder
	banner(&b, m.Source)
	b.Linef("#include %q", filepath.Base(cfg.DeclarationPath))
	b.Line("#include <QQmlEngine>")
	b.Blank()
	b.Line("namespace " + cfg.Namespace).OpenFlat()
	b.Blank()
	RenderRecordTable(&b, m.Records)
	b.Blank()
	b.Close(" // end namespace")
	out, err := b.Bytes()
	if err != nil {
		return nil, NewGenerationError(PhaseRender, cfg.DefinitionPath, "", err)
	}
	return out, nil
}

// Render renders every configured artifact of the model in memory.
func Render(m *Model, cfg *Config) ([]*Artifact, error) {
	decl, err := RenderDeclaration(m, cfg)
	if err != nil {
		return nil, err
	}
	def, err := RenderDefinition(m, cfg)
	if err != nil {
		return nil, err
	}
	arts := []*Artifact{
		{Kind: KindDeclaration, Path: cfg.DeclarationPath, Content: decl},
		{Kind: KindDefinition, Path: cfg.DefinitionPath, Content: def},
	}
	if cfg.GoPath != "" {
		src, err := RenderGo(m, cfg)
		if err != nil {
			return nil, err
		}
		arts = append(arts, &Artifact{Kind: KindGo, Path: cfg.GoPath, Content: src})
	}
	return arts, nil
}
