// Package gen turns the lookup tables of an EKX database into the C++ types
// the grinder firmware and its UI compile against.
//
// # Pipeline
//
//	lookup database (sqlite, mysql or postgres)
//	        ↓
//	   load.Snapshot (one query per table)
//	        ↓
//	   Model (enums, UUID defines, notification records)
//	        ↓
//	   Artifacts (declaration header, definition source, optional Go file)
//	        ↓
//	   ArtifactWriter (parallel, atomic, skips unchanged files)
//
// Every artifact is rendered in memory before the first byte is written, so
// a failing run leaves the previous outputs untouched.
//
// # Key Types
//
//   - Config: database, outputs, namespace and identifier policy
//   - Enum: a symbolic constant set built from one lookup table
//   - Record: one entry of the notification table
//   - Define: a recipe UUID macro
//   - Generator: runs the pipeline once, or continuously with Watch
//
// # Usage
//
// Basic generation with the legacy defaults:
//
//	res, err := gen.Generate(ctx,
//	    gen.WithDatabase("EkxSqliteMaster.db"),
//	    gen.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Writes.FilesWritten, "files written")
//
// Strict identifiers and a Go mirror of the enums:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithDatabase("EkxSqliteMaster.db"),
//	    gen.WithIdentifierPolicy(gen.PolicyStrict),
//	    gen.WithGoOutput("lookup/lookup.go", "lookup"),
//	)
//	if err != nil {
//	    return err
//	}
//	err = gen.NewGenerator(cfg).Watch(ctx, gen.DefaultDebounce)
//
// # Identifiers
//
// Enum constants are the table prefix followed by the sanitized row name.
// The legacy policy removes spaces and uppercases; the strict policy also
// maps every character outside [A-Z0-9_] to an underscore. Two rows that
// sanitize to the same constant fail the run with a GenerationError.
//
// # Errors
//
// Database failures surface as the ekxgen ConnectionError, QueryError and
// IntegrityError types. Configuration problems are ConfigError and
// rendering or writing problems are GenerationError:
//
//	if gen.IsGenerationError(err) {
//	    var ge *gen.GenerationError
//	    errors.As(err, &ge)
//	    log.Printf("phase %s failed for %s", ge.Phase, ge.File)
//	}
package gen
