package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/facet/schema/view"
)

// tagOptions is the parsed form of a `facet` struct tag.
type tagOptions struct {
	name      string
	skip      bool
	transient bool
	mappedBy  string
	orderBy   string
	kind      view.CollectionKind
	hasKind   bool
}

// nonCollection reports an error for options that only make sense on
// collection fields.
func (o tagOptions) nonCollection() error {
	switch {
	case o.mappedBy != "":
		return errors.New(`"mappedBy" is only valid on collection fields`)
	case o.orderBy != "":
		return errors.New(`"orderBy" is only valid on collection fields`)
	case o.hasKind:
		return errors.New(`"kind" is only valid on collection fields`)
	}
	return nil
}

// parseTag parses a `facet` struct tag. The first element renames the
// field, the rest are options.
func parseTag(tag string) (tagOptions, error) {
	var opts tagOptions
	if tag == "" {
		return opts, nil
	}
	if tag == "-" {
		opts.skip = true
		return opts, nil
	}
	parts := strings.Split(tag, ",")
	opts.name = parts[0]
	for _, part := range parts[1:] {
		key, value, _ := strings.Cut(part, "=")
		switch key {
		case "":
			// trailing comma
		case "transient":
			opts.transient = true
		case "mappedBy":
			if value == "" {
				return opts, errors.New(`"mappedBy" requires a field name`)
			}
			opts.mappedBy = value
		case "orderBy":
			if value == "" {
				return opts, errors.New(`"orderBy" requires a field name`)
			}
			opts.orderBy = value
		case "kind":
			kind, err := view.ParseKind(value)
			if err != nil {
				return opts, err
			}
			opts.kind = kind
			opts.hasKind = true
		default:
			return opts, fmt.Errorf("unknown tag option %q", part)
		}
	}
	return opts, nil
}
