package gen

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ekxhmi/ekxgen/compiler/load"
)

// UUIDPrefix starts every recipe UUID macro.
const UUIDPrefix = "RECIPE_UUID_"

// Define is one preprocessor definition.
type Define struct {
	Name   string
	Source string // recipe display name
	Value  string // unquoted
}

// Render writes the #define line. The value is emitted as a string literal.
func (d Define) Render(b *Builder) {
	b.Linef("#define %s  %s", d.Name, Quote(d.Value))
}

// BuildUUIDDefines derives one macro per recipe, in recipe order. Recipe
// UUIDs that do not parse are kept as they are and logged.
func BuildUUIDDefines(recipes []load.Recipe, p IdentifierPolicy, log zerolog.Logger) ([]Define, error) {
	syms := newSymbols(PhaseUUID, "recipe UUIDs")
	defs := make([]Define, 0, len(recipes))
	for _, r := range recipes {
		name := UUIDPrefix + p.Sanitize(r.Name)
		if !ValidIdentifier(name) {
			if p == PolicyStrict {
				return nil, NewGenerationError(PhaseUUID, "", fmt.Sprintf("cannot derive macro name from %q", r.Name), nil)
			}
			log.Warn().Str("recipe", r.Name).Str("identifier", name).Msg("macro name is not a valid C identifier")
		}
		if err := syms.add(name, r.Name); err != nil {
			return nil, err
		}
		if _, err := uuid.Parse(r.UUID); err != nil {
			log.Warn().Str("recipe", r.Name).Str("uuid", r.UUID).Err(err).Msg("recipe uuid is not a valid UUID")
		}
		defs = append(defs, Define{Name: name, Source: r.Name, Value: r.UUID})
	}
	return defs, nil
}

// GenerateUUIDDefines renders the recipe UUID macros.
func GenerateUUIDDefines(recipes []load.Recipe, p IdentifierPolicy) (string, error) {
	defs, err := BuildUUIDDefines(recipes, p, zerolog.Nop())
	if err != nil {
		return "", err
	}
	var b Builder
	for _, d := range defs {
		d.Render(&b)
	}
	return b.String(), nil
}
