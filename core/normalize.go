package core

import (
	"fmt"
	"reflect"
	"strings"
)

// lookupFunc reads a key from a mapping-shaped message.
type lookupFunc func(key string) (any, bool)

// Normalize converts a single message-like value into its canonical Message.
//
// Accepted shapes, checked in order:
//   - Message / *Message
//   - structured messages implementing Typed
//   - string and []byte (user role, bytes decoded as UTF-8)
//   - string-keyed maps with role/type/content keys
//   - any other value exposing Role/Type/Content fields or methods
//
// Normalize never fails. Shapes it cannot read yield a user message with
// empty content; unknown role tags pass through unchanged.
func Normalize(v any) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			msg = Message{Role: RoleUser}
		}
	}()

	if isNil(v) {
		return Message{Role: RoleUser}
	}

	switch m := v.(type) {
	case Message:
		return Message{Role: roleOrUser(m.Role), Content: m.Content}
	case *Message:
		return Message{Role: roleOrUser(m.Role), Content: m.Content}
	case Typed:
		return fromTyped(m)
	case string:
		return NewUserMessage(m)
	case []byte:
		return NewUserMessage(decodeText(m))
	case map[string]any:
		return fromMapping(func(k string) (any, bool) { val, ok := m[k]; return val, ok })
	case map[string]string:
		return fromMapping(func(k string) (any, bool) { val, ok := m[k]; return val, ok })
	}

	if lookup, ok := mappingLookup(v); ok {
		return fromMapping(lookup)
	}

	return fromAttributes(v)
}

// NormalizeAll converts a single message or an ordered sequence of messages
// into canonical form. A non-sequence value is treated as a one-element
// sequence; nil yields an empty result.
func NormalizeAll(v any) []Message {
	if isNil(v) {
		return nil
	}

	switch items := v.(type) {
	case []Message:
		out := make([]Message, len(items))
		for i, m := range items {
			out[i] = Normalize(m)
		}
		return out
	case []any:
		out := make([]Message, len(items))
		for i, item := range items {
			out[i] = Normalize(item)
		}
		return out
	case string, []byte, Message, *Message, Typed:
		return []Message{Normalize(v)}
	}

	rv := reflect.ValueOf(v)
	if isSequence(rv) {
		out := make([]Message, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	}

	return []Message{Normalize(v)}
}

func fromTyped(m Typed) Message {
	return Message{
		Role:    roleOrUser(m.MessageType()),
		Content: toText(m.MessageContent()),
	}
}

func fromMapping(lookup lookupFunc) Message {
	role := RoleUser
	for _, key := range []string{"role", "type"} {
		if raw, ok := lookup(key); ok && !IsEmpty(raw) {
			role = MapRole(toText(raw))
			break
		}
	}

	content, _ := lookup("content")

	return Message{Role: role, Content: toText(content)}
}

// fromAttributes is the best-effort path for loosely-typed values. Role
// extraction tries the Role attribute, then Type, then falls back to user.
func fromAttributes(v any) Message {
	role := RoleUser
	for _, name := range []string{"Role", "Type"} {
		if raw, ok := attribute(v, name); ok && !IsEmpty(raw) {
			role = MapRole(toText(raw))
			break
		}
	}

	content, _ := attribute(v, "Content")

	return Message{Role: role, Content: toText(content)}
}

// attribute probes v for a niladic method (Name or GetName) and then for an
// exported struct field called name. Values whose accessors panic, such as
// promoted members behind a nil embedded pointer, report the attribute as
// absent.
func attribute(v any, name string) (val any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			val, ok = nil, false
		}
	}()

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}

	for _, method := range []string{name, "Get" + name} {
		m := rv.MethodByName(method)
		if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() == 0 {
			continue
		}
		return m.Call(nil)[0].Interface(), true
	}

	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	sf, found := rv.Type().FieldByName(name)
	if !found {
		return nil, false
	}

	f, err := rv.FieldByIndexErr(sf.Index)
	if err != nil || !f.CanInterface() {
		return nil, false
	}

	return f.Interface(), true
}

// mappingLookup adapts any string-keyed map to a lookupFunc.
func mappingLookup(v any) (lookupFunc, bool) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	return func(key string) (any, bool) {
		val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	}, true
}

func roleOrUser(tag string) string {
	if tag == "" {
		return RoleUser
	}
	return MapRole(tag)
}

// toText renders an arbitrary content value as text. nil renders as "".
func toText(v any) string {
	if isNil(v) {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return decodeText(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		return toText(rv.Elem().Interface())
	}

	return fmt.Sprint(v)
}

func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// IsEmpty reports whether v is nil, a nil pointer, or a zero-length string,
// slice, array or map.
func IsEmpty(v any) bool {
	if isNil(v) {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}

	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}

func isSequence(rv reflect.Value) bool {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}

	return rv.Type().Elem().Kind() != reflect.Uint8
}
