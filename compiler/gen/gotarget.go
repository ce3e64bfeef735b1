package gen

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// goEnum is an enum with the Go identifiers of its constants.
type goEnum struct {
	*Enum
	typ    string
	consts map[string]string // C++ constant -> Go constant
	names  []string          // Go constants in emission order
}

func newGoEnum(e *Enum) (*goEnum, error) {
	g := &goEnum{Enum: e, typ: e.spec.GoName, consts: make(map[string]string, len(e.Constants))}
	syms := newSymbols(PhaseRender, g.typ)
	for i, c := range e.Constants {
		var name string
		switch {
		case !c.Sentinel:
			name = g.typ + GoName(c.Source)
		case i == 0 && e.spec.ZeroSentinel:
			name = g.typ + "Unknown"
		default:
			name = g.typ + "Last"
		}
		if err := syms.add(name, c.Name); err != nil {
			return nil, err
		}
		g.consts[c.Name] = name
		g.names = append(g.names, name)
	}
	return g, nil
}

// RenderGo renders the Go target: every enum as a typed constant set with
// a String method, the recipe UUIDs, the notification table and a registry
// of enum names filled at package initialization.
func RenderGo(m *Model, cfg *Config) ([]byte, error) {
	f := jen.NewFile(cfg.GoPackage)
	f.HeaderComment("Code generated by ekxgen from " + m.Source + ". DO NOT EDIT.")

	f.Comment("Version is the version of the lookup database.")
	f.Const().Id("Version").Op("=").Lit(int(m.Version.Last))

	f.Comment("EnumValue is one named value of a generated enum.")
	f.Type().Id("EnumValue").Struct(
		jen.Id("Name").String(),
		jen.Id("Value").Int64(),
	)
	f.Comment("Registry maps every enum type name to its values in declaration order.")
	f.Var().Id("Registry").Op("=").Map(jen.String()).Index().Id("EnumValue").Values()

	var (
		enums   []*goEnum
		byCName = make(map[string]*goEnum)
	)
	for _, e := range m.Enums {
		g, err := newGoEnum(e)
		if err != nil {
			return nil, err
		}
		enums = append(enums, g)
		byCName[e.Name] = g
		genGoEnum(f, g)
	}

	if len(m.Defines) > 0 {
		syms := newSymbols(PhaseRender, "recipe UUIDs")
		names := make([]string, len(m.Defines))
		for i, d := range m.Defines {
			names[i] = "RecipeUUID" + GoName(d.Source)
			if err := syms.add(names[i], d.Name); err != nil {
				return nil, err
			}
		}
		f.Comment("Recipe UUIDs.")
		f.Const().DefsFunc(func(grp *jen.Group) {
			for i, d := range m.Defines {
				grp.Id(names[i]).Op("=").Lit(d.Value)
			}
		})
	}

	types := byCName[NotificationTypesEnum.Name]
	classes := byCName[NotificationClassesEnum.Name]
	f.Comment("NotificationDefinition describes one notification type.")
	f.Type().Id("NotificationDefinition").Struct(
		jen.Id("Type").Id(types.typ),
		jen.Id("Name").String(),
		jen.Id("Description").String(),
		jen.Id("ShortInfo").String(),
		jen.Id("LongInfo").String(),
		jen.Id("RecoverAction").Bool(),
		jen.Id("Class").Id(classes.typ),
	)
	f.Comment("Notifications holds every notification type ordered by id, the unknown placeholder first.")
	f.Var().Id("Notifications").Op("=").Index().Id("NotificationDefinition").ValuesFunc(func(grp *jen.Group) {
		for _, r := range m.Records {
			grp.Values(jen.Dict{
				jen.Id("Type"):          jen.Id(types.consts[r.Type]),
				jen.Id("Name"):          jen.Lit(unquoteC(r.Name)),
				jen.Id("Description"):   jen.Lit(unquoteC(r.Description)),
				jen.Id("ShortInfo"):     jen.Lit(unquoteC(r.ShortInfo)),
				jen.Id("LongInfo"):      jen.Lit(unquoteC(r.LongInfo)),
				jen.Id("RecoverAction"): jen.Lit(r.Recover),
				jen.Id("Class"):         jen.Id(classes.consts[r.Class]),
			})
		}
	})

	f.Func().Id("init").Params().BlockFunc(func(grp *jen.Group) {
		for _, g := range enums {
			grp.Id("Registry").Index(jen.Lit(g.typ)).Op("=").Index().Id("EnumValue").ValuesFunc(func(vals *jen.Group) {
				for _, c := range g.Constants {
					vals.Values(jen.Lit(c.Name), jen.Lit(int(c.Value)))
				}
			})
		}
	})

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError(PhaseRender, cfg.GoPath, "", err)
	}
	// goimports settles the import grouping the same way hand edits would.
	src, err := imports.Process(cfg.GoPath, buf.Bytes(), nil)
	if err != nil {
		return nil, NewGenerationError(PhaseRender, cfg.GoPath, "format go target", err)
	}
	return src, nil
}

func genGoEnum(f *jen.File, g *goEnum) {
	lower := strings.ToLower(g.typ[:1]) + g.typ[1:] + "Names"
	f.Commentf("%s mirrors the %s enum.", g.typ, g.Name)
	f.Type().Id(g.typ).Int64()
	f.Const().DefsFunc(func(grp *jen.Group) {
		for i, c := range g.Constants {
			grp.Id(g.names[i]).Id(g.typ).Op("=").Lit(int(c.Value))
		}
	})
	// Rows win over sentinels when values repeat; the first row wins
	// among rows.
	seen := make(map[int64]bool, len(g.Constants))
	f.Var().Id(lower).Op("=").Map(jen.Id(g.typ)).String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, sentinel := range []bool{false, true} {
			for i, c := range g.Constants {
				if c.Sentinel != sentinel || seen[c.Value] {
					continue
				}
				seen[c.Value] = true
				d[jen.Id(g.names[i])] = jen.Lit(c.Name)
			}
		}
	}))
	f.Func().Params(jen.Id("v").Id(g.typ)).Id("String").Params().String().Block(
		jen.If(jen.List(jen.Id("s"), jen.Id("ok")).Op(":=").Id(lower).Index(jen.Id("v")), jen.Id("ok")).Block(
			jen.Return(jen.Id("s")),
		),
		jen.Return(jen.Lit(g.typ+"(").Op("+").Qual("strconv", "FormatInt").Call(jen.Int64().Call(jen.Id("v")), jen.Lit(10)).Op("+").Lit(")")),
	)
}

// unquoteC resolves the simple escape sequences a C++ compiler would resolve
// in a string literal, so Go strings carry the same text.
func unquoteC(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
