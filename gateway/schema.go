package gateway

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var schemaSDL string

// schemaBuilder turns an SDL document into an executable graphql-go schema. Field
// resolvers are looked up by "Type.field"; fields without one use the default
// resolver, which reads struct fields by json tag.
type schemaBuilder struct {
	sdl       *ast.Schema
	resolvers map[string]graphql.FieldResolveFn
	objects   map[string]*graphql.Object
	used      map[string]bool
	err       error
}

func buildSchema(sdl string, resolvers map[string]graphql.FieldResolveFn) (graphql.Schema, error) {
	parsed, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: sdl})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to load schema: %w", err)
	}
	if parsed.Query == nil {
		return graphql.Schema{}, fmt.Errorf("schema has no Query type")
	}

	b := &schemaBuilder{
		sdl:       parsed,
		resolvers: resolvers,
		objects:   make(map[string]*graphql.Object),
		used:      make(map[string]bool),
	}

	query, err := b.object(parsed.Query.Name)
	if err != nil {
		return graphql.Schema{}, err
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: query})
	if b.err != nil {
		return graphql.Schema{}, b.err
	}
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to build schema: %w", err)
	}

	var unused []string
	for key := range resolvers {
		if !b.used[key] {
			unused = append(unused, key)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return graphql.Schema{}, fmt.Errorf("resolvers without a matching field: %s", strings.Join(unused, ", "))
	}

	return schema, nil
}

func (b *schemaBuilder) object(name string) (*graphql.Object, error) {
	if obj, ok := b.objects[name]; ok {
		return obj, nil
	}

	def := b.sdl.Types[name]
	if def == nil || def.Kind != ast.Object {
		return nil, fmt.Errorf("type %q is not an object type", name)
	}

	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:        def.Name,
		Description: def.Description,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields, err := b.fields(def)
			if err != nil && b.err == nil {
				b.err = err
			}
			return fields
		}),
	})
	b.objects[name] = obj

	return obj, nil
}

func (b *schemaBuilder) fields(def *ast.Definition) (graphql.Fields, error) {
	fields := graphql.Fields{}
	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}

		typ, err := b.outputType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
		}

		args := graphql.FieldConfigArgument{}
		for _, a := range f.Arguments {
			argType, err := b.inputType(a.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s(%s): %w", def.Name, f.Name, a.Name, err)
			}
			args[a.Name] = &graphql.ArgumentConfig{Type: argType, Description: a.Description}
		}

		key := def.Name + "." + f.Name
		field := &graphql.Field{
			Name:        f.Name,
			Type:        typ,
			Args:        args,
			Description: f.Description,
		}
		if fn, ok := b.resolvers[key]; ok {
			field.Resolve = fn
			b.used[key] = true
		}
		fields[f.Name] = field
	}

	return fields, nil
}

func (b *schemaBuilder) outputType(t *ast.Type) (graphql.Output, error) {
	var out graphql.Output
	if t.Elem != nil {
		elem, err := b.outputType(t.Elem)
		if err != nil {
			return nil, err
		}
		out = graphql.NewList(elem)
	} else if scalar, ok := builtinScalar(t.NamedType); ok {
		out = scalar
	} else {
		obj, err := b.object(t.NamedType)
		if err != nil {
			return nil, err
		}
		out = obj
	}

	if t.NonNull {
		out = graphql.NewNonNull(out)
	}
	return out, nil
}

func (b *schemaBuilder) inputType(t *ast.Type) (graphql.Input, error) {
	var in graphql.Input
	if t.Elem != nil {
		elem, err := b.inputType(t.Elem)
		if err != nil {
			return nil, err
		}
		in = graphql.NewList(elem)
	} else if scalar, ok := builtinScalar(t.NamedType); ok {
		in = scalar
	} else {
		return nil, fmt.Errorf("unsupported input type %q", t.NamedType)
	}

	if t.NonNull {
		in = graphql.NewNonNull(in)
	}
	return in, nil
}

func builtinScalar(name string) (*graphql.Scalar, bool) {
	switch name {
	case "Int":
		return graphql.Int, true
	case "Float":
		return graphql.Float, true
	case "String":
		return graphql.String, true
	case "Boolean":
		return graphql.Boolean, true
	case "ID":
		return graphql.ID, true
	}
	return nil, false
}
