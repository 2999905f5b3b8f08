package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/mediachain/internal/ctxlog"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Validate checks that every registered kind has a factory and an argument
// struct whose fields can all be bound from configuration.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range r.Kinds() {
		rc := r.components[kind]
		if rc.New == nil {
			errs = append(errs, fmt.Sprintf("component '%s': no factory", kind))
		}
		if rc.NewArgs == nil {
			errs = append(errs, fmt.Sprintf("component '%s': no argument constructor", kind))
			continue
		}

		args := rc.NewArgs()
		v := reflect.ValueOf(args)
		if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("component '%s': arguments must be a pointer to a struct, got %T", kind, args))
			continue
		}

		argsType := v.Elem().Type()
		for i := 0; i < argsType.NumField(); i++ {
			field := argsType.Field(i)
			if !field.IsExported() {
				continue
			}
			tag := strings.Split(field.Tag.Get("cty"), ",")[0]
			if tag == "" || tag == "-" {
				errs = append(errs, fmt.Sprintf("component '%s': field '%s' has no cty tag", kind, field.Name))
				continue
			}
			if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf("component '%s', argument '%s': could not imply cty type from Go field type %s: %v", kind, tag, field.Type, err))
			}
		}
		logger.Debug("Validated component kind.", "kind", kind, "arguments", argsType.NumField())
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
