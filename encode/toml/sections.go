package toml

import (
	"fmt"
	"io"
	"maps"
	"strings"
)

// Section is a nested table found by DumpSections. Name is the quoted key
// relative to the level that found it.
type Section struct {
	Name  string
	Table Mapping
	raw   any
}

// =========================
// Public API
// =========================

// Dumps encodes doc as TOML. doc must be a mapping: a *Table, a Go map or
// any Mapping. A nil encoder means NewEncoder().
func Dumps(doc any, enc *Encoder) (string, error) {
	if enc == nil {
		enc = NewEncoder()
	}
	root, ok := asMapping(doc)
	if !ok || isNil(doc) {
		return "", fmt.Errorf("toml: %w: got %T", ErrInvalidDocument, doc)
	}
	enc.claimed = make(map[identity]string)
	enc.inflight = make(map[identity]struct{})
	enc.depth = 0
	defer func() {
		enc.claimed = nil
		enc.inflight = nil
	}()
	if id, ok := identityOf(doc); ok {
		enc.claimed[id] = ""
	}

	var out strings.Builder
	s, sections, err := enc.DumpSections(root, "")
	if err != nil {
		return "", err
	}
	out.WriteString(s)
	if err := enc.writeSections(&out, "", sections); err != nil {
		return "", err
	}
	enc.log.WithField("bytes", out.Len()).Debug("document encoded")
	return out.String(), nil
}

// Dump encodes doc, writes the text to w and returns it.
func Dump(doc any, w io.Writer, enc *Encoder) (string, error) {
	if isNil(w) {
		return "", fmt.Errorf("toml: %w", ErrInvalidWriter)
	}
	s, err := Dumps(doc, enc)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return "", fmt.Errorf("toml: write: %w", err)
	}
	return s, nil
}

// Marshal encodes doc with a base encoder configured by opts.
func Marshal(doc any, opts ...Option) ([]byte, error) {
	s, err := Dumps(doc, NewEncoder(opts...))
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// =========================
// Section Walker
// =========================

// DumpSections renders the key = value lines and arrays of tables of one
// mapping level and returns the nested tables it found, in key order. sup
// is the dotted path of o, empty for the root.
func (e *Encoder) DumpSections(o Mapping, sup string) (string, []Section, error) {
	if sup != "" && !strings.HasSuffix(sup, ".") {
		sup += "."
	}
	var retstr, arraystr strings.Builder
	var retdict []Section
	for _, key := range o.Keys() {
		val, _ := o.Get(key)
		if isNil(val) {
			continue
		}
		qkey := quoteKey(key)

		if it, ok := val.(*InlineTable); ok && e.preserve {
			s, err := e.DumpInlineTable(it)
			if err != nil {
				return "", nil, fmt.Errorf("toml: key %s%s: %w", sup, qkey, err)
			}
			retstr.WriteString(qkey + " = " + s + "\n")
			continue
		}
		if m, ok := asMapping(val); ok {
			retdict = append(retdict, Section{Name: qkey, Table: m, raw: val})
			continue
		}
		if elems, ok := tableArray(val); ok {
			for _, el := range elems {
				if err := e.dumpArrayTable(&arraystr, sup+qkey, el); err != nil {
					return "", nil, err
				}
			}
			continue
		}

		s, err := e.DumpValue(val)
		if err != nil {
			return "", nil, fmt.Errorf("toml: key %s%s: %w", sup, qkey, err)
		}
		retstr.WriteString(qkey + " = " + s + "\n")
	}
	retstr.WriteString(arraystr.String())
	return retstr.String(), retdict, nil
}

// dumpArrayTable writes one [[path]] element: its header, its own lines,
// then its nested tables. The same element may repeat in one array; only
// tables from earlier levels and the element's own ancestors conflict.
func (e *Encoder) dumpArrayTable(out *strings.Builder, path string, el any) error {
	if err := e.conflict(el, path); err != nil {
		return err
	}
	leave, err := e.enter(el)
	if err != nil {
		return fmt.Errorf("toml: [[%s]]: %w", path, err)
	}
	defer leave()

	outer := maps.Clone(e.claimed)
	defer func() { e.claimed = outer }()

	m, _ := asMapping(el)
	e.log.WithField("section", path).Debug("encoding array of tables")
	out.WriteString("[[" + path + "]]\n")
	s, sections, err := e.DumpSections(m, path)
	if err != nil {
		return err
	}
	out.WriteString(s)
	return e.writeSections(out, path, sections)
}

// writeSections emits sections level by level until no nested tables
// remain. A table with nothing but sub-tables gets no header of its own.
func (e *Encoder) writeSections(out *strings.Builder, prefix string, sections []Section) error {
	if e.claimed == nil {
		e.claimed = make(map[identity]string)
	}
	for len(sections) > 0 {
		var next []Section
		level := make(map[identity]string)
		for _, sec := range sections {
			full := sec.Name
			if prefix != "" {
				full = prefix + "." + sec.Name
			}
			if err := e.conflict(sec.raw, full); err != nil {
				return err
			}
			if id, ok := identityOf(sec.raw); ok {
				if _, seen := level[id]; !seen {
					level[id] = full
				}
			}
			e.log.WithField("section", full).Debug("encoding section")
			body, subs, err := e.DumpSections(sec.Table, full)
			if err != nil {
				return err
			}
			if body != "" || len(subs) == 0 {
				if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n\n") {
					out.WriteString("\n")
				}
				e.writeComment(out, full)
				out.WriteString("[" + full + "]\n")
				out.WriteString(body)
			}
			for _, sub := range subs {
				sub.Name = sec.Name + "." + sub.Name
				next = append(next, sub)
			}
		}
		maps.Copy(e.claimed, level)
		sections = next
	}
	return nil
}

func (e *Encoder) writeComment(out *strings.Builder, section string) {
	comment, ok := e.comments[section]
	if !ok {
		return
	}
	for _, line := range strings.Split(strings.Trim(comment, "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			out.WriteString("#\n")
		case strings.HasPrefix(line, "#"):
			out.WriteString(line + "\n")
		default:
			out.WriteString("# " + line + "\n")
		}
	}
}

// conflict reports a table that was already written at an earlier level,
// or one that is being written around it. Either means a cycle or a table
// reachable by two key paths of different depth.
func (e *Encoder) conflict(v any, path string) error {
	id, ok := identityOf(v)
	if !ok {
		return nil
	}
	if prev, dup := e.claimed[id]; dup {
		if prev == "" {
			prev = "<root>"
		}
		return fmt.Errorf("toml: %w: [%s] is the same table as %s", ErrCircularReference, path, prev)
	}
	if _, busy := e.inflight[id]; busy {
		return fmt.Errorf("toml: %w: [%s] contains itself", ErrCircularReference, path)
	}
	return nil
}
