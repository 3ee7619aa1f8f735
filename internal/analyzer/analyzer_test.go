package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dangercoder/cljr/internal/macro"
	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

func analyzeOne(t *testing.T, src string) *Expr {
	t.Helper()
	forms, err := reader.ReadAll("", src)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	ctx := NewContext("user", macro.NewRegistry(), nil)
	e, err := Analyze(forms[0], ctx)
	require.NoError(t, err)
	return e
}

func TestAnalyzeLiteralsAndCollections(t *testing.T) {
	e := analyzeOne(t, `[1 2 3]`)
	require.Equal(t, KVectorLit, e.Kind)
	require.Len(t, e.Items, 3)
	require.Equal(t, KLiteral, e.Items[0].Kind)

	e = analyzeOne(t, `#{1 2}`)
	require.Equal(t, KSetLit, e.Kind)

	e = analyzeOne(t, `{:a 1 :b 2}`)
	require.Equal(t, KMapLit, e.Kind)
	require.Len(t, e.Pairs, 2)
}

func TestAnalyzeIfDoLet(t *testing.T) {
	e := analyzeOne(t, `(if true 1 2)`)
	require.Equal(t, KIf, e.Kind)
	require.NotNil(t, e.Test)
	require.NotNil(t, e.Then)
	require.NotNil(t, e.Else)

	e = analyzeOne(t, `(do 1 2 3)`)
	require.Equal(t, KDo, e.Kind)
	require.Len(t, e.Exprs, 3)

	e = analyzeOne(t, `(let [a 1 b a] b)`)
	require.Equal(t, KLet, e.Kind)
	require.Len(t, e.Bindings, 2)
	require.Len(t, e.Body, 1)
	require.True(t, e.Body[0].IsLocal)
}

func TestAnalyzeFnAndRecur(t *testing.T) {
	e := analyzeOne(t, `(fn [n] (if (= n 0) 0 (recur (- n 1))))`)
	require.Equal(t, KFn, e.Kind)
	require.Len(t, e.Methods, 1)
	require.Equal(t, 1, len(e.Methods[0].Params))

	_, err := Analyze(mustForm(t, `(recur 1)`), NewContext("user", macro.NewRegistry(), nil))
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, KindRecurPosition, aerr.Kind)
}

func TestAnalyzeRecurArityMismatch(t *testing.T) {
	ctx := NewContext("user", macro.NewRegistry(), nil)
	_, err := Analyze(mustForm(t, `(loop [a 1] (recur 1 2))`), ctx)
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, KindArity, aerr.Kind)
}

func TestAnalyzeDefAndDefn(t *testing.T) {
	e := analyzeOne(t, `(def x 42)`)
	require.Equal(t, KDef, e.Kind)
	require.Equal(t, "x", e.DefSymbol.Name)
	require.Equal(t, "user", e.DefSymbol.Namespace)
	require.NotNil(t, e.Init)

	e = analyzeOne(t, `(defn square [x] (* x x))`)
	require.Equal(t, KDef, e.Kind)
	require.Equal(t, KFn, e.Init.Kind)
	require.Equal(t, "square", e.Init.FnName)
}

func TestAnalyzeDefmacroRegistersMacro(t *testing.T) {
	reg := macro.NewRegistry()
	ctx := NewContext("user", reg, nil)
	_, err := Analyze(mustForm(t, `(defmacro unless [test then] (list 'if test nil then))`), ctx)
	require.NoError(t, err)
	_, ok := reg.Lookup("user", symbol.Intern("", "unless"))
	require.True(t, ok)
}

func TestAnalyzeMacroExpansionFixedPoint(t *testing.T) {
	reg := macro.NewRegistry()
	ctx := NewContext("user", reg, nil)
	_, err := Analyze(mustForm(t, `(defmacro my-if [test then else] (list 'if test then else))`), ctx)
	require.NoError(t, err)
	e, err := Analyze(mustForm(t, `(my-if true 1 2)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KIf, e.Kind)
}

func TestAnalyzeHostInterop(t *testing.T) {
	ctx := NewContext("user", macro.NewRegistry(), nil)

	e, err := Analyze(mustForm(t, `(Math/sqrt 4)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KStaticMethod, e.Kind)
	require.Equal(t, "Math", e.HostTypeName)

	e, err = Analyze(mustForm(t, `(Math/PI)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KStaticProperty, e.Kind)

	e, err = Analyze(mustForm(t, `(.-length s)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KInstanceProperty, e.Kind)
	require.Equal(t, "length", e.HostMember)

	e, err = Analyze(mustForm(t, `(.toUpperCase s)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KInstanceMethod, e.Kind)

	e, err = Analyze(mustForm(t, `(new Widget 1 2)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KNew, e.Kind)
	require.Equal(t, "Widget", e.HostTypeName)

	e, err = Analyze(mustForm(t, `(Widget. 1 2)`), ctx)
	require.NoError(t, err)
	require.Equal(t, KNew, e.Kind)
	require.Equal(t, "Widget", e.HostTypeName)
}

func TestAnalyzeTryCatchFinally(t *testing.T) {
	e := analyzeOne(t, `(try (risky) (catch Exception e (handle e)) (finally (cleanup)))`)
	require.Equal(t, KTry, e.Kind)
	require.Len(t, e.Catches, 1)
	require.Equal(t, "Exception", e.Catches[0].ExceptionType)
	require.Len(t, e.Finally, 1)
}

func TestAnalyzeNsRequireImport(t *testing.T) {
	e := analyzeOne(t, `(ns myapp.core (:require [myapp.util :as u :refer [helper]]) (:import [java.util Date]))`)
	require.Equal(t, KNs, e.Kind)
	require.Len(t, e.Requires, 1)
	require.Equal(t, "u", e.Requires[0].Alias)
	require.Equal(t, []string{"helper"}, e.Requires[0].Refer)
	require.Len(t, e.Imports, 1)
	require.Equal(t, []string{"Date"}, e.Imports[0].Types)
}

func TestAnalyzeDeftypeFields(t *testing.T) {
	e := analyzeOne(t, `(deftype Point [x y])`)
	require.Equal(t, KType, e.Kind)
	require.Len(t, e.Fields, 2)
	require.Equal(t, "x", e.Fields[0].Name)
}

func TestAnalyzeFileCollectsAllErrors(t *testing.T) {
	forms, err := reader.ReadAll("", `(def a 1) (recur 1) (def b 2) (recur 2)`)
	require.NoError(t, err)
	require.Len(t, forms, 4)

	ctx := NewContext("user", macro.NewRegistry(), nil)
	exprs, err := AnalyzeFile(forms, ctx)
	require.Error(t, err)
	require.Len(t, exprs, 2)
	require.Equal(t, KDef, exprs[0].Kind)
	require.Equal(t, KDef, exprs[1].Kind)
	require.Contains(t, err.Error(), "recur")
}

func mustForm(t *testing.T, src string) *reader.Form {
	t.Helper()
	forms, err := reader.ReadAll("", src)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	return forms[0]
}
