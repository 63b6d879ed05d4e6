// Package frontend turns annotated Go source into raw declarations. It does
// syntax only: struct tags are decoded into structured attribute values and
// positions are mapped onto source spans, while all semantic validation is
// left to the schema passes.
package frontend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"

	"fortio.org/safecast"

	"asngen/internal/decl"
	"asngen/internal/diag"
	"asngen/internal/source"
)

// Result is the outcome of parsing one input file.
type Result struct {
	Package string
	FileID  source.FileID
	Decls   []*decl.TypeDecl
}

// ParseFile loads path into the file set and parses it.
func ParseFile(fs *source.FileSet, path string, r diag.Reporter) (*Result, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return parse(fs, id, r)
}

// ParseSource parses in-memory content registered under name. Used by tests
// and stdin input.
func ParseSource(fs *source.FileSet, name string, content []byte, r diag.Reporter) (*Result, error) {
	id := fs.AddVirtual(name, content)
	return parse(fs, id, r)
}

// ParseLoaded parses a file already present in the set. The driver preloads
// inputs sequentially and parses them in parallel.
func ParseLoaded(fs *source.FileSet, id source.FileID, r diag.Reporter) (*Result, error) {
	return parse(fs, id, r)
}

func parse(fs *source.FileSet, id source.FileID, r diag.Reporter) (*Result, error) {
	f := fs.Get(id)
	tokens := token.NewFileSet()
	parsed, err := parser.ParseFile(tokens, f.Path, f.Content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	tokFile := tokens.File(parsed.Pos())

	p := &fileParser{
		fs:      fs,
		fileID:  id,
		tokFile: tokFile,
		pkg:     parsed.Name.Name,
		rep:     r,
	}

	res := &Result{Package: p.pkg, FileID: id}
	for _, d := range parsed.Decls {
		genDecl, ok := d.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := typeSpec.Doc
			if doc == nil {
				doc = genDecl.Doc
			}
			if td := p.extractType(typeSpec, doc); td != nil {
				res.Decls = append(res.Decls, td)
			}
		}
	}
	return res, nil
}

type fileParser struct {
	fs      *source.FileSet
	fileID  source.FileID
	tokFile *token.File
	pkg     string
	rep     diag.Reporter
}

func (p *fileParser) span(start, end token.Pos) source.Span {
	s, err := safecast.Conv[uint32](p.tokFile.Offset(start))
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](p.tokFile.Offset(end))
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return source.Span{File: p.fileID, Start: s, End: e}
}

// extractType returns nil for type declarations without ASN.1 relevance
// (non-structs and structs whose doc carries an asn1:skip directive).
func (p *fileParser) extractType(spec *ast.TypeSpec, doc *ast.CommentGroup) *decl.TypeDecl {
	structType, ok := spec.Type.(*ast.StructType)
	if !ok {
		return nil
	}

	td := &decl.TypeDecl{
		Package: p.pkg,
		Name:    spec.Name.Name,
		Span:    p.span(spec.Pos(), spec.End()),
	}
	directive, skip := typeDirective(doc)
	if skip {
		return nil
	}
	td.Doc = commentText(doc)
	if directive != "" {
		if !applyTypeDirective(td, directive, p.rep) {
			return td
		}
	}

	for _, f := range structType.Fields.List {
		p.extractFields(td, f)
	}
	return td
}

func (p *fileParser) extractFields(td *decl.TypeDecl, f *ast.Field) {
	expr, exprOK := typeExprFrom(f.Type)
	fieldSpan := p.span(f.Pos(), f.End())
	if !exprOK {
		diag.ReportError(p.rep, diag.SchemaBadKind, fieldSpan,
			fmt.Sprintf("type %s: unsupported field type syntax", td.Name))
		return
	}

	attrs, attrsOK := parseFieldAttrs(tagValue(f.Tag), fieldSpan, p.rep)
	if !attrsOK {
		return
	}

	if len(f.Names) == 0 {
		diag.ReportError(p.rep, diag.SchemaBadKind, fieldSpan,
			fmt.Sprintf("type %s: embedded fields are not supported", td.Name))
		return
	}
	for _, name := range f.Names {
		td.Fields = append(td.Fields, decl.FieldDecl{
			Name:  name.Name,
			Type:  expr,
			Attrs: attrs,
			Span:  fieldSpan,
		})
	}
}

func typeExprFrom(expr ast.Expr) (decl.TypeExpr, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return decl.TypeExpr{Kind: decl.ExprIdent, Name: t.Name}, true
	case *ast.StarExpr:
		elem, ok := typeExprFrom(t.X)
		if !ok {
			return decl.TypeExpr{}, false
		}
		return decl.TypeExpr{Kind: decl.ExprPointer, Elem: &elem}, true
	case *ast.ArrayType:
		if t.Len != nil {
			return decl.TypeExpr{}, false
		}
		elem, ok := typeExprFrom(t.Elt)
		if !ok {
			return decl.TypeExpr{}, false
		}
		return decl.TypeExpr{Kind: decl.ExprSlice, Elem: &elem}, true
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return decl.TypeExpr{}, false
		}
		return decl.TypeExpr{Kind: decl.ExprSelector, Pkg: pkg.Name, Name: t.Sel.Name}, true
	}
	return decl.TypeExpr{}, false
}

func tagValue(lit *ast.BasicLit) string {
	if lit == nil {
		return ""
	}
	raw := strings.Trim(lit.Value, "`")
	v, _ := reflect.StructTag(raw).Lookup("asn1")
	return v
}

// typeDirective extracts the "asn1:..." directive line from a doc comment.
func typeDirective(doc *ast.CommentGroup) (directive string, skip bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		line := strings.TrimSpace(strings.TrimLeft(c.Text, "/ \t"))
		if !strings.HasPrefix(line, "asn1:") {
			continue
		}
		d := strings.TrimPrefix(line, "asn1:")
		if d == "skip" {
			return "", true
		}
		return d, false
	}
	return "", false
}

func applyTypeDirective(td *decl.TypeDecl, directive string, r diag.Reporter) bool {
	for _, part := range strings.Split(directive, ",") {
		switch strings.TrimSpace(part) {
		case "":
		case "choice":
			td.Choice = true
		case "set":
			td.Set = true
		case "sequence":
		case "extensible":
			td.Extensible = true
		case "automatic":
			td.Tagging = decl.TaggingAutomatic
		case "implicit-tags":
			td.Tagging = decl.TaggingImplicit
		case "explicit-tags":
			td.Tagging = decl.TaggingExplicit
		default:
			diag.ReportError(r, diag.SchemaBadTaggingMode, td.Span,
				fmt.Sprintf("type %s: unknown directive %q", td.Name, strings.TrimSpace(part)))
			return false
		}
	}
	return true
}

func commentText(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	return strings.TrimSpace(cg.Text())
}
