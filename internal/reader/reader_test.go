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

package reader

import "testing"

func check(t *testing.T, a1 any, a2 any) {
	if a1 != a2 {
		t.Errorf("%[1]v (a %[1]T) != %[2]v (a %[2]T)", a1, a2)
	}
}

func TestLexerSymbolThenString(t *testing.T) {
	lx := NewLexer(t.Name(), "foo-bar \"hello\"")
	tk := lx.NextToken()
	check(t, TkSymbol, tk.Kind)
	check(t, "foo-bar", tk.Text)
	tk = lx.NextToken()
	check(t, TkString, tk.Kind)
	check(t, "hello", tk.Text)
}

func TestLexerUnterminatedString(t *testing.T) {
	lx := NewLexer(t.Name(), `"oops`)
	tk := lx.NextToken()
	check(t, TkError, tk.Kind)
}

func TestReadIntegerRoundTrip(t *testing.T) {
	f, err := NewReader("", "42").ReadForm()
	check(t, err, nil)
	check(t, KindInteger, f.Kind)
	check(t, int64(42), f.IntVal)
}

func TestReadNegativeInteger(t *testing.T) {
	f, err := NewReader("", "-7").ReadForm()
	check(t, err, nil)
	check(t, KindInteger, f.Kind)
	check(t, int64(-7), f.IntVal)
}

func TestReadFloat(t *testing.T) {
	f, err := NewReader("", "3.5").ReadForm()
	check(t, err, nil)
	check(t, KindFloat, f.Kind)
	check(t, 3.5, f.FloatVal)
}

func TestReadBoolNil(t *testing.T) {
	for _, c := range []struct {
		text string
		kind FormKind
	}{
		{"true", KindBool},
		{"false", KindBool},
		{"nil", KindNil},
	} {
		f, err := NewReader("", c.text).ReadForm()
		check(t, err, nil)
		check(t, c.kind, f.Kind)
	}
}

func TestReadStringRoundTrip(t *testing.T) {
	f, err := NewReader("", `"hi\nthere"`).ReadForm()
	check(t, err, nil)
	check(t, KindString, f.Kind)
	check(t, "hi\nthere", f.StringVal)
}

func TestReadList(t *testing.T) {
	f, err := NewReader("", "(+ 1 2)").ReadForm()
	check(t, err, nil)
	check(t, KindList, f.Kind)
	check(t, 3, len(f.Items))
	check(t, true, f.Items[0].IsSymbolNamed("+"))
}

func TestReadVector(t *testing.T) {
	f, err := NewReader("", "[1 2 3]").ReadForm()
	check(t, err, nil)
	check(t, KindVector, f.Kind)
	check(t, 3, len(f.Items))
}

func TestReadMapOddCountIsError(t *testing.T) {
	_, err := NewReader("", "{:a 1 :b}").ReadForm()
	if err == nil {
		t.Fatalf("expected odd-map error")
	}
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != KindOddMap {
		t.Fatalf("expected KindOddMap, got %v", err)
	}
}

func TestReadSetDuplicateIsError(t *testing.T) {
	_, err := NewReader("", "#{1 2 1}").ReadForm()
	if err == nil {
		t.Fatalf("expected duplicate-set-element error")
	}
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != KindDuplicateSetElem {
		t.Fatalf("expected KindDuplicateSetElem, got %v", err)
	}
}

func TestReadQuoteDesugars(t *testing.T) {
	f, err := NewReader("", "'x").ReadForm()
	check(t, err, nil)
	check(t, KindList, f.Kind)
	check(t, true, f.Items[0].IsSymbolNamed("quote"))
}

func TestReadSyntaxQuoteUnquoteSplicing(t *testing.T) {
	f, err := NewReader("", "`(a ~b ~@c)").ReadForm()
	check(t, err, nil)
	check(t, true, f.Items[0].IsSymbolNamed("syntax-quote"))
	inner := f.Items[1]
	check(t, KindList, inner.Kind)
	check(t, true, inner.Items[1].Items[0].IsSymbolNamed("unquote"))
	check(t, true, inner.Items[2].Items[0].IsSymbolNamed("unquote-splicing"))
}

func TestReadMetaTagSymbol(t *testing.T) {
	f, err := NewReader("", "^Long x").ReadForm()
	check(t, err, nil)
	check(t, KindSymbol, f.Kind)
	check(t, "Long", f.Meta["tag"])
}

func TestReadMetaKeyword(t *testing.T) {
	f, err := NewReader("", "^:private x").ReadForm()
	check(t, err, nil)
	check(t, true, f.Meta[":private"])
}

func TestReadMetaAccumulates(t *testing.T) {
	f, err := NewReader("", "^:a ^:b x").ReadForm()
	check(t, err, nil)
	check(t, true, f.Meta[":a"])
	check(t, true, f.Meta[":b"])
}

func TestReadPipeEscapedSymbol(t *testing.T) {
	f, err := NewReader("", "|a.b<c>|").ReadForm()
	check(t, err, nil)
	check(t, KindSymbol, f.Kind)
	check(t, "a.b<c>", f.Sym.Name)
}

func TestReadAnonFnSugar(t *testing.T) {
	f, err := NewReader("", "#(+ % %2)").ReadForm()
	check(t, err, nil)
	check(t, KindList, f.Kind)
	check(t, true, f.Items[0].IsSymbolNamed("fn*"))
	params := f.Items[1]
	check(t, KindVector, params.Kind)
	check(t, 2, len(params.Items))
}

func TestReadNamespacedSymbol(t *testing.T) {
	f, err := NewReader("", "my.ns/foo").ReadForm()
	check(t, err, nil)
	check(t, "my.ns", f.Sym.Namespace)
	check(t, "foo", f.Sym.Name)
}

func TestReadKeyword(t *testing.T) {
	f, err := NewReader("", ":foo").ReadForm()
	check(t, err, nil)
	check(t, KindKeyword, f.Kind)
	check(t, "foo", f.Kw.Name)
}

func TestReadAllMultipleForms(t *testing.T) {
	forms, err := ReadAll(t.Name(), "1 2 3")
	check(t, err, nil)
	check(t, 3, len(forms))
}

func TestReadUnbalancedParenIsError(t *testing.T) {
	_, err := NewReader("", "(+ 1 2").ReadForm()
	if err == nil {
		t.Fatalf("expected unbalanced-brackets error")
	}
}
