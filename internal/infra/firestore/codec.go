package firestore

import (
	"strconv"
	"strings"
	"time"
)

// value is the Firestore REST typed-value wrapper. Integers travel as strings
// on the wire, which is why integerValue is *string.
type value struct {
	StringValue    *string  `json:"stringValue,omitempty"`
	IntegerValue   *string  `json:"integerValue,omitempty"`
	DoubleValue    *float64 `json:"doubleValue,omitempty"`
	BooleanValue   *bool    `json:"booleanValue,omitempty"`
	TimestampValue *string  `json:"timestampValue,omitempty"`
}

func strVal(s string) value {
	return value{StringValue: &s}
}

func intVal(i int) value {
	s := strconv.Itoa(i)
	return value{IntegerValue: &s}
}

func doubleVal(f float64) value {
	return value{DoubleValue: &f}
}

// document is a Firestore REST document: a resource name plus typed fields.
// CreateTime stays a raw RFC3339 string so write payloads omit it cleanly.
type document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
}

type documentList struct {
	Documents []document `json:"documents"`
}

func newDocument() document {
	return document{Fields: make(map[string]value)}
}

func (d document) set(field string, v value) document {
	d.Fields[field] = v
	return d
}

// id extracts the document id from the full resource name
// ("projects/p/databases/(default)/documents/products/abc" yields "abc").
func (d document) id() string {
	idx := strings.LastIndex(d.Name, "/")
	if idx < 0 {
		return d.Name
	}
	return d.Name[idx+1:]
}

// createdAt parses the server-set creation timestamp, zero when absent.
func (d document) createdAt() time.Time {
	t, _ := time.Parse(time.RFC3339, d.CreateTime)
	return t
}

func (d document) str(field string) string {
	if v, ok := d.Fields[field]; ok && v.StringValue != nil {
		return *v.StringValue
	}
	return ""
}

// double reads a numeric field, accepting either wire encoding since writers
// are not consistent about doubleValue vs integerValue.
func (d document) double(field string) float64 {
	v, ok := d.Fields[field]
	if !ok {
		return 0
	}
	if v.DoubleValue != nil {
		return *v.DoubleValue
	}
	if v.IntegerValue != nil {
		n, _ := strconv.ParseFloat(*v.IntegerValue, 64)
		return n
	}
	return 0
}

func (d document) integer(field string) int {
	v, ok := d.Fields[field]
	if !ok {
		return 0
	}
	if v.IntegerValue != nil {
		n, _ := strconv.Atoi(*v.IntegerValue)
		return n
	}
	if v.DoubleValue != nil {
		return int(*v.DoubleValue)
	}
	return 0
}
