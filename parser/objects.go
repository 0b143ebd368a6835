// Package parser reads PDF files at the object level: cross-reference
// tables (classic and stream form), indirect objects, object streams and
// the stream filters the toolkit needs. It makes no attempt to interpret
// page semantics; that is the extractor's job.
package parser

// Object is a raw PDF object. Concrete types are Name, String, Ref, Dict,
// Array, *Stream, int64, float64, bool and nil.
type Object interface{}

// Name is a /Name object.
type Name string

// String is a PDF string (literal or hex), undecoded bytes.
type String []byte

// Ref is an indirect object reference.
type Ref struct {
	Num int
	Gen int
}

// Dict is a dictionary object.
type Dict map[string]Object

// Array is an array object.
type Array []Object

// Stream couples a stream dictionary with its raw (still encoded) data.
type Stream struct {
	Dict Dict
	Raw  []byte
}

// Int returns the integer value of obj if it is numeric.
func Int(obj Object) (int64, bool) {
	switch v := obj.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// Float returns the float value of obj if it is numeric.
func Float(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// DictOf returns obj as a Dict, unwrapping streams.
func DictOf(obj Object) (Dict, bool) {
	switch v := obj.(type) {
	case Dict:
		return v, true
	case *Stream:
		return v.Dict, true
	}
	return nil, false
}
