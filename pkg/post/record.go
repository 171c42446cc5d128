package post

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Field names read from a post.
const (
	FieldDownloads = "downloads"
	FieldLink      = "link"
)

// Record is one element of a post document. It holds the exact JSON text
// the element was read from; selecting a record never rewrites it.
type Record []byte

// Download is one entry of a post's downloads array.
type Download struct {
	// Index is the position of the entry in the downloads array
	Index int
	// Link is the entry's link, or "" when absent or not a string
	Link string
}

// ShapeError reports a JSON value of the wrong kind where an object or an
// array is required.
type ShapeError struct {
	// Path locates the value ("" for the post itself, "downloads[2]", ...)
	Path string
	// Want is the expected kind
	Want string
	// Got is the kind found
	Got string
}

func (e *ShapeError) Error() string {
	where := "record"
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf("%s: expected %s, got %s", where, e.Want, e.Got)
}

// EachDownload calls fn for every download entry of the post, in order,
// until fn returns false. A missing downloads field yields no entries.
//
// Entries are checked as they are reached, so a malformed entry after the
// point where fn stops is never reported.
func (r Record) EachDownload(fn func(d Download) bool) error {
	root := gjson.ParseBytes(r)
	if !root.IsObject() {
		return &ShapeError{Want: "object", Got: Kind(root)}
	}

	field := lookup(root, FieldDownloads)
	if !field.Exists() {
		return nil
	}
	if !field.IsArray() {
		return &ShapeError{Path: FieldDownloads, Want: "array", Got: Kind(field)}
	}

	var shapeErr error
	i := 0
	field.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			shapeErr = &ShapeError{
				Path: fmt.Sprintf("%s[%d]", FieldDownloads, i),
				Want: "object",
				Got:  Kind(entry),
			}
			return false
		}
		d := Download{Index: i}
		if link := lookup(entry, FieldLink); link.Type == gjson.String {
			d.Link = link.Str
		}
		i++
		return fn(d)
	})
	return shapeErr
}

// Kind names the JSON kind of a value the way error messages report it.
func Kind(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		if v.IsArray() {
			return "array"
		}
		return "object"
	}
}

// lookup returns the member named key of an object. A repeated key
// resolves to its last occurrence, as a decoded mapping would.
func lookup(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found = v
		}
		return true
	})
	return found
}
