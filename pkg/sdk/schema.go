package reteval

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "reteval"

// schemaMeta holds the field positions parsed from reteval struct tags.
type schemaMeta struct {
	typ            reflect.Type
	idIdx          int // -1 if not present
	instructionIdx int
	inputIdx       int
}

// parseSchema reflects on T and extracts reteval struct tag metadata.
//
//	type Persona struct {
//		Key    string `reteval:"key,id"`
//		Prompt string `reteval:"prompt,instruction"`
//		Bio    string `reteval:"bio,input"`
//	}
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("reteval: type parameter must be a struct")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("reteval: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1, instructionIdx: -1, inputIdx: -1}
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	if meta.instructionIdx == -1 || meta.inputIdx == -1 {
		return nil, fmt.Errorf("reteval: %s needs fields tagged instruction and input", t)
	}
	return meta, nil
}

func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	_, modifier, _ := strings.Cut(tag, ",")

	var slot *int
	switch modifier {
	case "id":
		slot = &meta.idIdx
	case "instruction":
		slot = &meta.instructionIdx
	case "input":
		slot = &meta.inputIdx
	case "":
		// Named but unused.
		return nil
	default:
		return fmt.Errorf("reteval: unknown modifier %q on field %s", modifier, f.Name)
	}

	if *slot != -1 {
		return fmt.Errorf("reteval: duplicate %s tag on field %s", modifier, f.Name)
	}
	if modifier != "id" && f.Type.Kind() != reflect.String {
		return fmt.Errorf("reteval: %s field %s must be a string", modifier, f.Name)
	}
	*slot = idx
	return nil
}

func (m *schemaMeta) toPair(item any) Pair {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	p := Pair{
		Instruction: v.Field(m.instructionIdx).String(),
		Input:       v.Field(m.inputIdx).String(),
	}
	if m.idIdx != -1 {
		p.ID = fmt.Sprint(v.Field(m.idIdx).Interface())
	}
	return p
}

// PairsOf converts tagged structs into pairs. Nil pointers are rejected.
func PairsOf[T any](items []T) ([]Pair, error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, len(items))
	for i, item := range items {
		v := reflect.ValueOf(item)
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, fmt.Errorf("reteval: item %d is nil", i)
		}
		pairs[i] = meta.toPair(item)
	}
	return pairs, nil
}

// EvaluateItems is EvaluatePairs for tagged structs.
func EvaluateItems[T any](ctx context.Context, c *Client, items []T, info ModelInfo) (Report, error) {
	pairs, err := PairsOf(items)
	if err != nil {
		return Report{}, fmt.Errorf("evaluate items: %w", err)
	}
	return c.EvaluatePairs(ctx, pairs, info)
}
