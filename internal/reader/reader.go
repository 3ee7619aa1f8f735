/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package reader lifts source text into the Form data model (spec §4.1).
package reader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dangercoder/cljr/internal/symbol"
)

// Reader turns a token stream from a Lexer into a sequence of Forms. Like
// the Lexer it wraps, a Reader holds no state beyond its own scan
// position plus the process-wide symbol/keyword interner (spec §4.1
// "Must be re-entrant").
type Reader struct {
	lx   *Lexer
	path string
	pb   *Token
}

// NewReader builds a Reader over src. path is attributed in error
// messages ("" for REPL input not backed by a file).
func NewReader(path, src string) *Reader {
	return &Reader{lx: NewLexer(path, src), path: path}
}

// ReadAll reads every top-level form in the source, stopping at the first
// error (spec §4.1 "produce a finite ordered sequence of forms").
func ReadAll(path, src string) ([]*Form, error) {
	r := NewReader(path, src)
	var forms []*Form
	for {
		f, err := r.ReadForm()
		if err != nil {
			if err == errEOF {
				return forms, nil
			}
			return forms, err
		}
		forms = append(forms, f)
	}
}

var errEOF = fmt.Errorf("EOF")

func (r *Reader) next() Token {
	if r.pb != nil {
		t := *r.pb
		r.pb = nil
		return t
	}
	return r.lx.NextToken()
}

func (r *Reader) unget(t Token) { r.pb = &t }

// ReadForm reads and returns the next top-level form, or errEOF at end of
// input.
func (r *Reader) ReadForm() (*Form, error) {
	t := r.next()
	if t.Kind == TkEOF {
		return nil, errEOF
	}
	return r.readFrom(t)
}

// readFrom dispatches on the already-consumed token t, recursing through
// readFrom for nested/prefixed forms. This mirrors the teacher's
// token-at-a-time state dispatch in asm/parser.go, generalized from a
// flat line grammar to a recursive one.
func (r *Reader) readFrom(t Token) (*Form, error) {
	switch t.Kind {
	case TkError:
		return nil, r.errorFor(t)
	case TkLParen:
		return r.readSeq(TkRParen, ")", listForm)
	case TkLBracket:
		return r.readSeq(TkRBracket, "]", vectorForm)
	case TkLBrace:
		return r.readMap(t)
	case TkHashBrace:
		return r.readSet(t)
	case TkHashParen:
		return r.readAnonFn(t)
	case TkQuote:
		return r.readWrapped(t, "quote")
	case TkBackquote:
		return r.readWrapped(t, "syntax-quote")
	case TkTilde:
		return r.readWrapped(t, "unquote")
	case TkTildeAt:
		return r.readWrapped(t, "unquote-splicing")
	case TkAt:
		return r.readWrapped(t, "deref")
	case TkHashQuote:
		return r.readWrapped(t, "var")
	case TkCaret:
		return r.readMeta(t)
	case TkSymbol:
		return r.readSymbolOrAtom(t), nil
	case TkKeyword:
		return keywordForm(parseKeyword(t.Text)), nil
	case TkString:
		return stringForm(t.Text), nil
	case TkNumber:
		return r.readNumber(t)
	case TkChar:
		return r.readCharLit(t)
	case TkRParen, TkRBracket, TkRBrace:
		return nil, newError(KindUnbalancedBrackets, t.Line, t.Column, "unexpected "+t.Text)
	default:
		return nil, newError(KindUnexpectedChar, t.Line, t.Column, "unexpected token "+t.String())
	}
}

func (r *Reader) errorFor(t Token) *Error {
	switch {
	case strings.Contains(t.Text, "unterminated string"):
		return newError(KindUnterminatedString, t.Line, t.Column, t.Text)
	case strings.Contains(t.Text, "pipe"):
		return newError(KindUnterminatedPipe, t.Line, t.Column, t.Text)
	default:
		return newError(KindUnexpectedChar, t.Line, t.Column, t.Text)
	}
}

// readSeq reads list/vector-shaped forms: elements until the matching
// close token, wrapped by build.
func (r *Reader) readSeq(close TokenKind, closeText string, build func([]*Form) *Form) (*Form, error) {
	var items []*Form
	for {
		t := r.next()
		if t.Kind == close {
			return build(items), nil
		}
		if t.Kind == TkEOF {
			return nil, newError(KindUnbalancedBrackets, t.Line, t.Column, "unexpected EOF, expected "+closeText)
		}
		item, err := r.readFrom(t)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// readMap reads {k v k v ...}, rejecting an odd element count (spec §4.1
// "(odd count → error)").
func (r *Reader) readMap(open Token) (*Form, error) {
	var items []*Form
	for {
		t := r.next()
		if t.Kind == TkRBrace {
			break
		}
		if t.Kind == TkEOF {
			return nil, newError(KindUnbalancedBrackets, t.Line, t.Column, "unexpected EOF, expected }")
		}
		item, err := r.readFrom(t)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items)%2 != 0 {
		return nil, newError(KindOddMap, open.Line, open.Column, fmt.Sprintf("map literal has odd element count %d", len(items)))
	}
	pairs := make([]MapPair, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		pairs = append(pairs, MapPair{Key: items[i], Val: items[i+1]})
	}
	return mapForm(pairs), nil
}

// readSet reads #{...}, rejecting duplicate elements (spec §4.1 "(duplicates
// → error)"). Equality here is textual (pre-evaluation); structural value
// equality for runtime sets is enforced separately in internal/collections.
func (r *Reader) readSet(open Token) (*Form, error) {
	seq, err := r.readSeq(TkRBrace, "}", func(items []*Form) *Form { return setForm(items) })
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(seq.Items))
	for _, it := range seq.Items {
		text := it.String()
		if seen[text] {
			return nil, newError(KindDuplicateSetElem, open.Line, open.Column, "duplicate set element: "+text)
		}
		seen[text] = true
	}
	return seq, nil
}

// readWrapped implements the one-character reader macros that desugar to
// (name form) (spec §4.1: 'x, `x, ~x, ~@x, @x, #'x).
func (r *Reader) readWrapped(prefix Token, name string) (*Form, error) {
	inner, err := r.ReadForm()
	if err != nil {
		if err == errEOF {
			return nil, newError(KindUnbalancedBrackets, prefix.Line, prefix.Column, "expected a form after "+prefix.Text)
		}
		return nil, err
	}
	return listForm([]*Form{symbolForm(symbol.Intern("", name)), inner}), nil
}

// readMeta implements ^tag form and ^{...} form metadata prefixes (spec
// §4.1 "Metadata"). Multiple prefixes accumulate onto the following form.
func (r *Reader) readMeta(caret Token) (*Form, error) {
	tagForm, err := r.ReadForm()
	if err != nil {
		if err == errEOF {
			return nil, newError(KindUnbalancedBrackets, caret.Line, caret.Column, "expected metadata after ^")
		}
		return nil, err
	}
	meta, err := metaFromTag(tagForm)
	if err != nil {
		return nil, err
	}
	target, err := r.ReadForm()
	if err != nil {
		if err == errEOF {
			return nil, newError(KindUnbalancedBrackets, caret.Line, caret.Column, "expected a form after ^ metadata")
		}
		return nil, err
	}
	// target's own metadata came from ^ prefixes written after this one,
	// so its keys take precedence over this prefix's keys.
	merged := target.WithMeta(meta)
	for k, v := range target.Meta {
		merged.Meta[k] = v
	}
	return merged, nil
}

func metaFromTag(tagForm *Form) (map[string]any, error) {
	switch tagForm.Kind {
	case KindSymbol:
		return map[string]any{"tag": tagForm.Sym.String()}, nil
	case KindString:
		return map[string]any{"tag": tagForm.StringVal}, nil
	case KindKeyword:
		return map[string]any{tagForm.Kw.String(): true}, nil
	case KindMap:
		m := make(map[string]any, len(tagForm.Pairs))
		for _, p := range tagForm.Pairs {
			m[p.Key.String()] = p.Val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("invalid metadata form: %s", tagForm.String())
	}
}

// readAnonFn implements #(...) anonymous-function sugar: implicit params
// %, %1..%n, %& (spec §4.1). It desugars to (fn* [params...] body...).
func (r *Reader) readAnonFn(open Token) (*Form, error) {
	body, err := r.readSeq(TkRParen, ")", func(items []*Form) *Form { return listForm(items) })
	if err != nil {
		return nil, err
	}
	maxN := 0
	variadic := false
	walkAnonParams(body, &maxN, &variadic)
	params := make([]*Form, 0, maxN+1)
	for i := 1; i <= maxN; i++ {
		params = append(params, symbolForm(symbol.Intern("", fmt.Sprintf("%%%d", i))))
	}
	if variadic {
		params = append(params, symbolForm(symbol.Intern("", "&")), symbolForm(symbol.Intern("", "%&")))
	}
	fnSym := symbolForm(symbol.Intern("", "fn*"))
	paramVec := vectorForm(params)
	elems := append([]*Form{fnSym, paramVec}, body.Items...)
	_ = open
	return listForm(elems), nil
}

func walkAnonParams(f *Form, maxN *int, variadic *bool) {
	switch f.Kind {
	case KindSymbol:
		name := f.Sym.Name
		if f.Sym.Namespace != "" {
			return
		}
		if name == "%" {
			if *maxN < 1 {
				*maxN = 1
			}
			return
		}
		if name == "%&" {
			*variadic = true
			return
		}
		if len(name) > 1 && name[0] == '%' {
			if n, err := strconv.Atoi(name[1:]); err == nil && n > *maxN {
				*maxN = n
			}
		}
	case KindList, KindVector, KindSet:
		for _, it := range f.Items {
			walkAnonParams(it, maxN, variadic)
		}
	case KindMap:
		for _, p := range f.Pairs {
			walkAnonParams(p.Key, maxN, variadic)
			walkAnonParams(p.Val, maxN, variadic)
		}
	}
}

// readSymbolOrAtom classifies a TkSymbol token: the reserved atoms
// true/false/nil, or a namespaced/unqualified symbol (spec §4.1 "The
// tokens true, false, nil are recognized reserved atoms").
func (r *Reader) readSymbolOrAtom(t Token) *Form {
	switch t.Text {
	case "true":
		return boolForm(true)
	case "false":
		return boolForm(false)
	case "nil":
		return nilForm()
	}
	ns, name := splitSymbol(t.Text)
	return symbolForm(symbol.Intern(ns, name))
}

func splitSymbol(text string) (ns, name string) {
	if i := strings.LastIndexByte(text, '/'); i > 0 && i < len(text)-1 {
		return text[:i], text[i+1:]
	}
	return "", text
}

func parseKeyword(text string) *symbol.Keyword {
	ns, name := splitSymbol(text)
	return symbol.InternKeyword(ns, name)
}

// readNumber classifies a TkNumber token as integer or floating per spec
// §4.1 ("Digits... begin numeric literals (integer → 64-bit signed; with
// . or exponent → 64-bit floating)").
func (r *Reader) readNumber(t Token) (*Form, error) {
	text := t.Text
	if strings.ContainsAny(text, ".eE") && !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, newError(KindMalformedNumber, t.Line, t.Column, "invalid number: "+text)
		}
		return floatForm(f), nil
	}
	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	n, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return nil, newError(KindMalformedNumber, t.Line, t.Column, "invalid number: "+t.Text)
	}
	return integerForm(n), nil
}

func (r *Reader) readCharLit(t Token) (*Form, error) {
	if len(t.Text) == 1 {
		return charForm([]rune(t.Text)[0]), nil
	}
	if ch, ok := namedChars[t.Text]; ok {
		return charForm(ch), nil
	}
	return nil, newError(KindUnexpectedChar, t.Line, t.Column, "unknown character literal: \\"+t.Text)
}
