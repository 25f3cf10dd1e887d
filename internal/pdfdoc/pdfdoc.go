// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc splits, merges, and serializes PDF documents so that equal
// input always yields equal bytes.
//
// pdfcpu renumbers and writes objects in map order and stamps every file
// with the current time. The writer here walks the object graph from the
// catalog in sorted key order, numbers objects in visit order, drops the
// Info dictionary, and derives the file ID from the body.
package pdfdoc

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrEncrypted is returned for documents carrying an Encrypt dictionary.
var ErrEncrypted = errors.New("encrypted PDFs are not supported")

var disableConfigDir sync.Once

// Configuration returns a relaxed pdfcpu configuration that never reads
// or writes a user config directory.
func Configuration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), Configuration())
}

// Normalize rewrites data in canonical form.
func Normalize(data []byte) ([]byte, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), Configuration())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Write(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Split returns one canonical single-page document per page of data, in
// page order.
func Split(data []byte) ([][]byte, error) {
	spans, err := api.SplitRaw(bytes.NewReader(data), 1, Configuration())
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(spans))
	for i, s := range spans {
		if s == nil || s.Reader == nil {
			return nil, fmt.Errorf("page %d: missing page data", i+1)
		}
		b, err := io.ReadAll(s.Reader)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		if out[i], err = Normalize(b); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return out, nil
}

// Merge concatenates docs in order into one canonical document.
func Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, errors.New("nothing to merge")
	}

	conf := Configuration()
	conf.Cmd = model.MERGECREATE
	conf.CreateBookmarks = false

	dest, err := api.ReadAndValidate(bytes.NewReader(docs[0]), conf)
	if err != nil {
		return nil, fmt.Errorf("document 1: %w", err)
	}
	for i, d := range docs[1:] {
		src, err := api.ReadAndValidate(bytes.NewReader(d), conf)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+2, err)
		}
		if dest.XRefTable.Version() < model.V20 && src.XRefTable.Version() == model.V20 {
			return nil, pdfcpu.ErrUnsupportedVersion
		}
		if err := pdfcpu.MergeXRefTables(strconv.Itoa(i+2), src, dest, false, false); err != nil {
			return nil, fmt.Errorf("document %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := Write(dest, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes the objects reachable from the catalog of ctx.
func Write(ctx *model.Context, w io.Writer) error {
	if ctx.Encrypt != nil {
		return ErrEncrypted
	}
	if ctx.Root == nil {
		return errors.New("document has no catalog")
	}

	g := &graph{xref: ctx.XRefTable, numbers: map[int]int{}}
	if err := g.visit(*ctx.Root); err != nil {
		return err
	}

	var body bytes.Buffer
	if ctx.XRefTable.Version() == model.V20 {
		body.WriteString("%PDF-2.0\n")
	} else {
		body.WriteString("%PDF-1.7\n")
	}
	body.WriteString("%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(g.objects))
	for i, o := range g.objects {
		offsets[i] = body.Len()
		fmt.Fprintf(&body, "%d 0 obj\n", i+1)
		if err := g.writeObject(&body, o); err != nil {
			return fmt.Errorf("object %d: %w", i+1, err)
		}
		body.WriteString("\nendobj\n")
	}

	sum := md5.Sum(body.Bytes())
	id := types.HexLiteral(hex.EncodeToString(sum[:]))

	xrefOffset := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n", len(offsets)+1)
	body.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&body, "%010d 00000 n\r\n", off)
	}

	trailer := types.NewDict()
	trailer.Insert("Size", types.Integer(len(offsets)+1))
	trailer.Insert("Root", *types.NewIndirectRef(1, 0))
	trailer.Insert("ID", types.Array{id, id})
	fmt.Fprintf(&body, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.PDFString(), xrefOffset)

	_, err := w.Write(body.Bytes())
	return err
}

// graph numbers indirect objects in depth-first visit order.
type graph struct {
	xref    *model.XRefTable
	numbers map[int]int // source object number to output number
	objects []types.Object
}

func (g *graph) visit(o types.Object) error {
	switch o := o.(type) {
	case types.IndirectRef:
		nr := o.ObjectNumber.Value()
		if _, seen := g.numbers[nr]; seen {
			return nil
		}
		target, err := g.xref.Dereference(o)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", o, err)
		}
		if target == nil {
			return nil
		}
		g.objects = append(g.objects, target)
		g.numbers[nr] = len(g.objects)
		return g.visit(target)
	case types.Dict:
		for _, k := range sortedKeys(o) {
			if err := g.visit(o[k]); err != nil {
				return err
			}
		}
	case types.StreamDict:
		for _, k := range sortedKeys(o.Dict) {
			if k == "Length" {
				continue
			}
			if err := g.visit(o.Dict[k]); err != nil {
				return err
			}
		}
	case types.Array:
		for _, e := range o {
			if err := g.visit(e); err != nil {
				return err
			}
		}
	case types.ObjectStreamDict, types.XRefStreamDict:
		return fmt.Errorf("unexpected %T in page content", o)
	}
	return nil
}

// rewrite returns a copy of o with references renumbered. References to
// missing objects become null.
func (g *graph) rewrite(o types.Object) types.Object {
	switch o := o.(type) {
	case types.IndirectRef:
		n, ok := g.numbers[o.ObjectNumber.Value()]
		if !ok {
			return nil
		}
		return *types.NewIndirectRef(n, 0)
	case types.Dict:
		d := make(types.Dict, len(o))
		for k, v := range o {
			d[k] = g.rewrite(v)
		}
		return d
	case types.Array:
		a := make(types.Array, len(o))
		for i, v := range o {
			a[i] = g.rewrite(v)
		}
		return a
	}
	return o
}

func (g *graph) writeObject(buf *bytes.Buffer, o types.Object) error {
	switch o := o.(type) {
	case types.StreamDict:
		d := g.rewrite(o.Dict).(types.Dict)
		d["Length"] = types.Integer(len(o.Raw))
		buf.WriteString(d.PDFString())
		buf.WriteString("\nstream\n")
		buf.Write(o.Raw)
		buf.WriteString("\nendstream")
	case types.ObjectStreamDict, types.XRefStreamDict:
		return fmt.Errorf("unexpected %T", o)
	default:
		r := g.rewrite(o)
		if r == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(r.PDFString())
	}
	return nil
}

func sortedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
