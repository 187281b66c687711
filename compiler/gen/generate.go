package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/facet/compiler/load"
	"github.com/syssam/facet/schema/view"
)

// Import paths of the runtime packages referenced by generated code.
const (
	facetPkg = "github.com/syssam/facet"
	viewPkg  = "github.com/syssam/facet/schema/view"
)

// Generator emits the static metadata provider package for a graph of
// loaded views using Jennifer. Every emitted file is rendered, passed
// through goimports and written to the target directory.
type Generator struct {
	graph   *Graph
	workers int
	outDir  string
	pkg     string
}

// NewGenerator creates a new generator for the given graph.
func NewGenerator(g *Graph, outDir string) *Generator {
	return &Generator{
		graph:   g,
		workers: runtime.GOMAXPROCS(0),
		outDir:  outDir,
		pkg:     filepath.Base(outDir),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *Generator) WithWorkers(n int) *Generator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// WithPackage sets the output package name.
func (g *Generator) WithPackage(pkg string) *Generator {
	if pkg != "" {
		g.pkg = pkg
	}
	return g
}

// Generate generates all code with parallel execution.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return err
	}
	// Remove stale outputs of disabled features from previous runs.
	for _, feat := range AllFeatures {
		if feat.cleanup == nil || g.graph.Config.HasFeature(feat.Name) {
			continue
		}
		if err := feat.cleanup(g.graph.Config); err != nil {
			return NewGenerationError("cleanup", "", feat.Name, err)
		}
	}

	errg, _ := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)

	for _, t := range g.graph.Views {
		errg.Go(func() error {
			return g.writeFile(g.genView(t), "", t.FileName())
		})
		errg.Go(func() error {
			return g.writeFile(g.genPackage(t), t.PackageDir(), t.PackageDir()+".go")
		})
	}

	errg.Go(func() error {
		return g.writeFile(g.genProvider(), "", "provider.go")
	})

	if g.graph.Config.HasFeature(FeatureEntityFields.Name) {
		errg.Go(func() error {
			return g.writeFile(g.genEntityFields(), "internal", "entityfields.go")
		})
	}

	if g.graph.Config.HasFeature(FeatureSnapshot.Name) {
		f, err := g.genSnapshot()
		if err != nil {
			return err
		}
		errg.Go(func() error {
			return g.writeFile(f, "internal", "snapshot.go")
		})
	}

	return errg.Wait()
}

// newFile creates a new Jennifer file with the header comment.
func (g *Generator) newFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	header := g.graph.Config.Header
	if header == "" {
		header = defaultHeader
	}
	f.HeaderComment(header)
	return f
}

// writeFile renders a Jennifer file, formats it with goimports and
// writes it under the target directory.
func (g *Generator) writeFile(f *jen.File, subdir, filename string) error {
	dir := g.outDir
	if subdir != "" {
		dir = filepath.Join(g.outDir, subdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", filename, err)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError("render", filename, "cannot render file", err)
	}

	// goimports prunes qualifiers that ended up unused in the rendered file.
	fullPath := filepath.Join(dir, filename)
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Write unformatted file for debugging.
		debugPath := fullPath + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return fmt.Errorf("format %s: %w (unformatted written to %s)", filename, err, debugPath)
	}

	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// genView generates the metadata constructor for a single view
// ({view_name}.go in the provider package).
func (g *Generator) genView(t *Type) *jen.File {
	f := g.newFile(g.pkg)

	f.Commentf("%s builds the projection metadata for the %s view.", t.MetadataFunc(), t.Name)
	f.Func().Id(t.MetadataFunc()).Params().Params(jen.Op("*").Qual(facetPkg, "Metadata"), jen.Error()).Block(
		jen.Return(jen.Qual(facetPkg, "NewMetadata").Call(
			typeExpr(t.EntityPkg, t.Entity),
			jen.Qual(facetPkg, "MetadataConfig").Values(jen.DictFunc(func(d jen.Dict) {
				if len(t.Fields) > 0 {
					d[jen.Id("Mappings")] = jen.Index().Qual(facetPkg, "DirectMapping").ValuesFunc(func(vals *jen.Group) {
						for _, fd := range t.Fields {
							vals.Add(mappingExpr(fd))
						}
					})
				}
				if len(t.Computed) > 0 {
					d[jen.Id("Computed")] = jen.Index().Qual(facetPkg, "ComputedField").ValuesFunc(func(vals *jen.Group) {
						for _, cf := range t.Computed {
							vals.Add(computedExpr(cf))
						}
					})
				}
			})),
		)),
	)
	return f
}

// genProvider generates the provider entry point (provider.go).
func (g *Generator) genProvider() *jen.File {
	f := g.newFile(g.pkg)

	f.Comment("New builds the projection metadata provider for all generated views.")
	f.Comment("Use it with facet.NewLazyRegistry to defer construction to first use.")
	f.Func().Id("New").Params().Params(jen.Qual(facetPkg, "Provider"), jen.Error()).Block(
		jen.Id("tables").Op(":=").Make(
			jen.Map(jen.Qual("reflect", "Type")).Op("*").Qual(facetPkg, "Metadata"),
			jen.Lit(len(g.graph.Views)),
		),
		jen.For(jen.List(jen.Id("class"), jen.Id("build")).Op(":=").Range().Map(jen.Qual("reflect", "Type")).Func().Params().Params(jen.Op("*").Qual(facetPkg, "Metadata"), jen.Error()).Values(jen.DictFunc(func(d jen.Dict) {
			for _, t := range g.graph.Views {
				d[typeExpr(t.Pkg, t.Name)] = jen.Id(t.MetadataFunc())
			}
		}))).Block(
			jen.List(jen.Id("md"), jen.Err()).Op(":=").Id("build").Call(),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Id("tables").Index(jen.Id("class")).Op("=").Id("md"),
		),
		jen.Return(jen.Qual(facetPkg, "ProviderFunc").Call(jen.Func().Params(jen.Id("class").Qual("reflect", "Type")).Params(jen.Op("*").Qual(facetPkg, "Metadata"), jen.Bool()).Block(
			jen.List(jen.Id("md"), jen.Id("ok")).Op(":=").Id("tables").Index(jen.Id("class")),
			jen.Return(jen.Id("md"), jen.Id("ok")),
		)), jen.Nil()),
	)

	if g.hasMethodRefs() {
		f.Comment("methodRef boxes a method reference for metadata construction.")
		f.Func().Id("methodRef").Params(jen.Id("r").Qual(viewPkg, "MethodRef")).Op("*").Qual(viewPkg, "MethodRef").Block(
			jen.Return(jen.Op("&").Id("r")),
		)
	}
	return f
}

// genPackage generates the per-view constants package
// ({view}/{view}.go). A single const block holds all constants.
func (g *Generator) genPackage(t *Type) *jen.File {
	f := g.newFile(t.PackageDir())

	f.Const().DefsFunc(func(defs *jen.Group) {
		defs.Commentf("Label holds the string label denoting the %s view.", t.Name)
		defs.Id("Label").Op("=").Lit(t.Name)
		defs.Commentf("Entity holds the entity type name the %s view projects.", t.Name)
		defs.Id("Entity").Op("=").Lit(t.Entity)
		for _, fd := range t.Fields {
			defs.Commentf("%s holds the string denoting the %s field in the view.", fieldConstant(fd.Name), fd.Name)
			defs.Id(fieldConstant(fd.Name)).Op("=").Lit(fd.Name)
		}
		for _, cf := range t.Computed {
			defs.Commentf("%s holds the string denoting the %s computed field in the view.", fieldConstant(cf.Name), cf.Name)
			defs.Id(fieldConstant(cf.Name)).Op("=").Lit(cf.Name)
		}
	})

	f.Commentf("Fields holds all DTO field names of the %s view.", t.Name)
	f.Var().Id("Fields").Op("=").Index().String().ValuesFunc(func(vals *jen.Group) {
		for _, fd := range t.Fields {
			vals.Id(fieldConstant(fd.Name))
		}
		for _, cf := range t.Computed {
			vals.Id(fieldConstant(cf.Name))
		}
	})

	f.Comment("ValidField reports if the field name is declared by the view.")
	f.Func().Id("ValidField").Params(jen.Id("field").String()).Bool().Block(
		jen.For(jen.Id("i").Op(":=").Range().Id("Fields")).Block(
			jen.If(jen.Id("field").Op("==").Id("Fields").Index(jen.Id("i"))).Block(
				jen.Return(jen.True()),
			),
		),
		jen.Return(jen.False()),
	)
	return f
}

// genEntityFields generates the precomputed entity field table
// (internal/entityfields.go) for the entityfields feature.
func (g *Generator) genEntityFields() *jen.File {
	f := g.newFile("internal")

	f.Comment("EntityFields maps each view to the entity fields its projection requires.")
	f.Var().Id("EntityFields").Op("=").Map(jen.String()).Index().String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, t := range g.graph.Views {
			fields := make([]jen.Code, 0)
			for _, name := range t.EntityFields() {
				fields = append(fields, jen.Lit(name))
			}
			d[jen.Lit(t.Name)] = jen.Values(fields...)
		}
	}))
	return f
}

// genSnapshot generates a JSON snapshot of the loaded view definitions
// (internal/snapshot.go) for the snapshot feature.
func (g *Generator) genSnapshot() (*jen.File, error) {
	views := make([]*load.Projection, len(g.graph.Views))
	for i, t := range g.graph.Views {
		views[i] = t.projection
	}
	buf, err := json.Marshal(views)
	if err != nil {
		return nil, NewGenerationError("snapshot", "internal/snapshot.go", "cannot encode views", err)
	}

	f := g.newFile("internal")
	f.Comment("Snapshot holds the JSON-encoded view definitions of the last codegen run.")
	f.Const().Id("Snapshot").Op("=").Lit(string(buf))
	return f, nil
}

// hasMethodRefs reports if any computed field in the graph carries a
// method reference.
func (g *Generator) hasMethodRefs() bool {
	for _, t := range g.graph.Views {
		for _, cf := range t.Computed {
			if refExpr(cf.Method) != nil {
				return true
			}
		}
	}
	return false
}

// mappingExpr emits a facet.DirectMapping literal for a loaded field.
func mappingExpr(fd *load.Field) jen.Code {
	return jen.Values(jen.DictFunc(func(d jen.Dict) {
		d[jen.Id("DTOField")] = jen.Lit(fd.Name)
		d[jen.Id("EntityField")] = jen.Lit(fd.Entity)
		if expr := infoExpr(fd.Info); expr != nil {
			d[jen.Id("DTOType")] = expr
		}
		if fd.Collection != nil {
			d[jen.Id("Collection")] = collectionExpr(fd.Collection)
		}
	}))
}

// computedExpr emits a facet.ComputedField literal for a loaded
// computed field.
func computedExpr(cf *load.Computed) jen.Code {
	return jen.Values(jen.DictFunc(func(d jen.Dict) {
		d[jen.Id("DTOField")] = jen.Lit(cf.Name)
		deps := make([]jen.Code, 0, len(cf.Deps))
		for _, dep := range cf.Deps {
			deps = append(deps, jen.Lit(dep))
		}
		d[jen.Id("Dependencies")] = jen.Index().String().Values(deps...)
		if len(cf.Reducers) > 0 {
			reducers := make([]jen.Code, 0, len(cf.Reducers))
			for _, r := range cf.Reducers {
				reducers = append(reducers, reducerExpr(r))
			}
			d[jen.Id("Reducers")] = jen.Index().Qual(viewPkg, "Reducer").Values(reducers...)
		}
		if expr := refExpr(cf.Method); expr != nil {
			d[jen.Id("Ref")] = expr
		}
	}))
}

// refExpr emits a method reference wrapped by the generated methodRef
// helper, or nil if the reference cannot be expressed in code.
func refExpr(m *load.MethodRef) jen.Code {
	if m == nil {
		return nil
	}
	target := m.Target != "" && m.PkgPath != ""
	switch {
	case target && m.Method != "":
		return jen.Id("methodRef").Call(jen.Qual(viewPkg, "By").Call(typeExpr(m.PkgPath, m.Target), jen.Lit(m.Method)))
	case target:
		return jen.Id("methodRef").Call(jen.Qual(viewPkg, "ByType").Call(typeExpr(m.PkgPath, m.Target)))
	case m.Method != "":
		return jen.Id("methodRef").Call(jen.Qual(viewPkg, "ByName").Call(jen.Lit(m.Method)))
	default:
		return nil
	}
}

// infoExpr emits the reflect.Type expression for a field type, or nil
// when the type cannot be referenced from the generated package.
func infoExpr(info *view.TypeInfo) jen.Code {
	if info == nil || info.Ident == "" {
		return nil
	}
	if info.PkgPath == "" && strings.Contains(info.Ident, ".") {
		// Composite idents like "[]pkg.T" carry no import path to qualify.
		return nil
	}
	return typeExpr(info.PkgPath, info.Ident)
}

// typeExpr emits reflect.TypeOf((*T)(nil)).Elem() for the given type.
func typeExpr(pkgPath, ident string) jen.Code {
	var target jen.Code
	if pkgPath == "" {
		target = jen.Id(ident)
	} else {
		name := ident
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		target = jen.Qual(pkgPath, name)
	}
	return jen.Qual("reflect", "TypeOf").Call(
		jen.Parens(jen.Op("*").Add(target)).Call(jen.Nil()),
	).Dot("Elem").Call()
}

// collectionExpr emits a *view.CollectionInfo literal.
func collectionExpr(ci *view.CollectionInfo) jen.Code {
	return jen.Op("&").Qual(viewPkg, "CollectionInfo").Values(jen.Dict{
		jen.Id("Kind"): jen.Qual(viewPkg, kindConstant(ci.Kind)),
		jen.Id("Type"): jen.Qual(viewPkg, typeConstant(ci.Type)),
	})
}

// reducerExpr emits a view.Reducer value, using the named constant for
// the built-in reducers.
func reducerExpr(r view.Reducer) jen.Code {
	switch r {
	case view.Sum:
		return jen.Qual(viewPkg, "Sum")
	case view.Avg:
		return jen.Qual(viewPkg, "Avg")
	case view.Count:
		return jen.Qual(viewPkg, "Count")
	case view.Min:
		return jen.Qual(viewPkg, "Min")
	case view.Max:
		return jen.Qual(viewPkg, "Max")
	default:
		return jen.Qual(viewPkg, "Reducer").Call(jen.Lit(string(r)))
	}
}

// kindConstant returns the view constant name for a collection kind.
func kindConstant(k view.CollectionKind) string {
	switch k {
	case view.KindList:
		return "KindList"
	case view.KindSet:
		return "KindSet"
	case view.KindMap:
		return "KindMap"
	case view.KindCollection:
		return "KindCollection"
	default:
		return "KindUnknown"
	}
}

// typeConstant returns the view constant name for a collection type.
func typeConstant(ct view.CollectionType) string {
	if ct == view.Transient {
		return "Transient"
	}
	return "Persistent"
}

// fieldConstant returns the constant name for a DTO field.
func fieldConstant(name string) string {
	return "Field" + pascal(name)
}

// Generate is a convenience function that generates the provider
// package for the given graph using the configured target directory.
func Generate(g *Graph) error {
	if g.Config == nil || g.Config.Target == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	gen := NewGenerator(g, g.Config.Target)
	if g.Config.Package != "" {
		gen.WithPackage(filepath.Base(g.Config.Package))
	}
	return gen.Generate(context.Background())
}
