package reader

import "github.com/dangercoder/cljr/internal/symbol"

// Public Form constructors. The macro engine treats Forms as its runtime
// values (spec §4.2: macro expansion is itself an evaluator over forms),
// so it needs to build every Form variant, not just read one from text.

func NewIntForm(v int64) *Form                     { return integerForm(v) }
func NewFloatForm(v float64) *Form                  { return floatForm(v) }
func NewBoolForm(v bool) *Form                      { return boolForm(v) }
func NewStringForm(v string) *Form                  { return stringForm(v) }
func NewCharForm(v rune) *Form                       { return charForm(v) }
func NewNilForm() *Form                              { return nilForm() }
func NewSymbolForm(s *symbol.Symbol) *Form           { return symbolForm(s) }
func NewKeywordForm(k *symbol.Keyword) *Form         { return keywordForm(k) }
func NewListForm(items []*Form) *Form                { return listForm(items) }
func NewVectorForm(items []*Form) *Form              { return vectorForm(items) }
func NewSetForm(items []*Form) *Form                 { return setForm(items) }
func NewMapForm(pairs []MapPair) *Form                { return mapForm(pairs) }
