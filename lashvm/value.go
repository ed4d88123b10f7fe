package lashvm

import "fmt"

// Type is the dynamic type tag of one stack slot or table entry.
type Type uint8

const (
	TNil Type = iota
	TBool
	TInt
	TFloat
	TString
	TTable
	TFunction
	TUserdata
)

func (t Type) String() string {
	switch t {
	case TNil:
		return "nil"
	case TBool:
		return "bool"
	case TInt:
		return "int"
	case TFloat:
		return "float"
	case TString:
		return "string"
	case TTable:
		return "table"
	case TFunction:
		return "function"
	case TUserdata:
		return "userdata"
	}
	return "invalid"
}

// TypeOf reports the dynamic type of a VM value. Values held by the VM are
// always in canonical form: nil, bool, int64, float64, string, *Table,
// *Native, *Userdata.
func TypeOf(v any) Type {
	switch v.(type) {
	case nil:
		return TNil
	case bool:
		return TBool
	case int64:
		return TInt
	case float64:
		return TFloat
	case string:
		return TString
	case *Table:
		return TTable
	case *Native:
		return TFunction
	case *Userdata:
		return TUserdata
	}
	panic(fmt.Sprintf("non-canonical vm value: %T", v))
}

// ToString renders a value using the runtime's default string conversion,
// consulting a userdata's metatable hook when present.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return x
	case *Table:
		return fmt.Sprintf("table: %p", x)
	case *Native:
		if x.Name != "" {
			return "function: " + x.Name
		}
		return fmt.Sprintf("function: %p", x)
	case *Userdata:
		if x.Meta != nil && x.Meta.ToString != nil {
			return x.Meta.ToString(x)
		}
		name := "userdata"
		if x.Meta != nil && x.Meta.Name != "" {
			name = x.Meta.Name
		}
		return fmt.Sprintf("%s: %p", name, x)
	}
	return fmt.Sprint(v)
}
