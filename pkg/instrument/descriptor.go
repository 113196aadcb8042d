package instrument

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Decoder turns the raw bytes a query read back into a structured value.
type Decoder func(raw []byte) (interface{}, error)

// Descriptor binds a human-readable operation name to a literal protocol
// string. The template may carry positional fmt placeholders; its arity is
// fixed when the descriptor is built and checked on every invocation.
// Descriptors are immutable after instrument construction.
type Descriptor struct {
	Name     string
	Template string

	// query fields
	ReadBytes int
	Timeout   time.Duration
	Decode    Decoder

	arity int
}

// NewDescriptor derives the arity from the template's placeholders.
func NewDescriptor(name, template string) Descriptor {
	return Descriptor{
		Name:     name,
		Template: template,
		arity:    countPlaceholders(template),
	}
}

// NewQueryDescriptor builds a query entry; readBytes, timeout, and decode
// may be zero-valued to take the defaults (raw, undecoded bytes).
func NewQueryDescriptor(name, template string, readBytes int, timeout time.Duration, decode Decoder) Descriptor {
	if readBytes <= 0 {
		readBytes = DefaultQueryReadBytes
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return Descriptor{
		Name:      name,
		Template:  template,
		ReadBytes: readBytes,
		Timeout:   timeout,
		Decode:    decode,
		arity:     countPlaceholders(template),
	}
}

// Arity is the number of arguments the template expects.
func (d Descriptor) Arity() int {
	return d.arity
}

// Render substitutes args into the template in order. No bus traffic
// happens here; a mismatched argument count fails before anything is
// written. Placeholders take the argument's plain string form, so "32"
// and 32 both render "*ESE 32"; the typed verbs in a template document
// the expected argument, they do not gate it.
func (d Descriptor) Render(args ...interface{}) (string, error) {
	if len(args) != d.arity {
		return "", &ArityError{Operation: d.Name, Want: d.arity, Got: len(args)}
	}
	if d.arity == 0 {
		return d.Template, nil
	}
	return fmt.Sprintf(generalizeVerbs(d.Template), args...), nil
}

// generalizeVerbs rewrites every placeholder verb to %v, keeping %%
// literals intact.
func generalizeVerbs(template string) string {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		b.WriteByte(template[i])
		if template[i] != '%' {
			continue
		}
		if i+1 < len(template) && template[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		// skip flags, width, and precision up to the verb
		j := i + 1
		for j < len(template) && strings.IndexByte("+-# 0123456789.", template[j]) >= 0 {
			j++
		}
		if j < len(template) {
			b.WriteByte('v')
			i = j
		}
	}
	return b.String()
}

func countPlaceholders(template string) int {
	n := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 < len(template) && template[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

// ArityError reports an operation invoked with the wrong argument count.
type ArityError struct {
	Operation string
	Want      int
	Got       int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("operation %s expects %d arguments, got %d", e.Operation, e.Want, e.Got)
}

// ParseError reports a decoder rejecting a query response. The raw bytes
// stay available to the caller.
type ParseError struct {
	Operation string
	Raw       []byte
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("operation %s response %q: %v", e.Operation, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Set is a read-only named-descriptor registry; CommandSet and QuerySet are
// the two namespaces every instrument carries.
type Set struct {
	descriptors map[string]Descriptor
}

func newSet(ds ...Descriptor) *Set {
	s := &Set{descriptors: make(map[string]Descriptor, len(ds))}
	for _, d := range ds {
		// first registration wins, built-ins are never displaced
		if _, exist := s.descriptors[d.Name]; exist {
			continue
		}
		s.descriptors[d.Name] = d
	}
	return s
}

func (s *Set) Lookup(name string) (Descriptor, bool) {
	d, ok := s.descriptors[name]
	return d, ok
}

// Resolve renders the named descriptor with args.
func (s *Set) Resolve(name string, args ...interface{}) (string, error) {
	d, ok := s.descriptors[name]
	if !ok {
		return "", ErrUnknownOperation
	}
	return d.Render(args...)
}

// ListAll returns the sorted registered operation names.
func (s *Set) ListAll() []string {
	names := make([]string, 0, len(s.descriptors))
	for name := range s.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type CommandSet struct {
	*Set
}

type QuerySet struct {
	*Set
}
