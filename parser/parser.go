// Package parser implements the recursive-descent parser and semantic
// analyzer (spec.md component C5): grammar acceptance, symbol-table
// management, type checking, and on-the-fly emission into the code
// generator.
//
// Grounded on skx-math-compiler/compiler/compiler.go for the overall
// three-stage shape (pull tokens, build an internal form, emit), but the
// grammar, scoping, and calling-convention logic come from spec.md §4.5
// and original_source/parser.py (the match(type, value=None) primitive,
// the operator-loop shape of arith_op/term/factor, the error/warning
// split). original_source/parser.py's own grammar is an early draft
// (expressions and assignment only, no procedures/control flow); this
// file implements the fuller grammar spec.md §4.5 specifies, following
// the same primitives and idiom.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bear24rw/EECE6083/codegen"
	"github.com/bear24rw/EECE6083/diag"
	"github.com/bear24rw/EECE6083/scanner"
	"github.com/bear24rw/EECE6083/symtab"
	"github.com/bear24rw/EECE6083/token"
)

// ParseError is a recoverable grammar/semantic failure attributed to a
// token; the nearest resync point logs it and moves on.
type ParseError struct {
	Tok token.Token
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tok.Origin, e.Msg)
}

// ScanError wraps a lex-level failure the scanner already reported (an
// INVALID token): the parser's resync must skip it without logging it a
// second time.
type ScanError struct {
	Tok token.Token
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: lexical error", e.Tok.Origin)
}

// Parser drives the scanner, symbol table, and code generator together
// to accept one source file and emit its target-machine statements.
type Parser struct {
	sc  *scanner.Scanner
	rep *diag.Reporter
	tab *symtab.Table
	gen *codegen.Generator

	cur token.Token

	// frames tracks (argSize, localSize) for each procedure body currently
	// being parsed, innermost last, so a `return` statement mid-body can
	// emit the correct epilogue immediately.
	frames [][2]int
}

// New returns a Parser ready to parse from sc, reporting through rep,
// against tab (expected fresh or pre-populated with builtins), emitting
// into gen.
func New(sc *scanner.Scanner, rep *diag.Reporter, tab *symtab.Table, gen *codegen.Generator) *Parser {
	p := &Parser{sc: sc, rep: rep, tab: tab, gen: gen}
	p.advanceRaw()
	p.skipNoise()
	return p
}

// Parse accepts the `program` grammar and drives the full compilation.
// It returns an error iff the sticky has-errors flag ended up set; the
// individual diagnostics are available from the Reporter passed to New.
func (p *Parser) Parse() error {
	p.program()
	if p.rep.HasErrors() {
		return errors.New("compilation failed: see diagnostics")
	}
	return nil
}

// advanceRaw pulls the next token directly from the scanner, with no
// filtering: comments and end-of-line markers are visible here, which is
// what lets resync treat '\n' as a sync point per spec.md §4.5.
func (p *Parser) advanceRaw() {
	p.cur = p.sc.NextToken()
}

// skipNoise advances past COMMENT and end-of-line tokens, which carry no
// grammar meaning (spec.md §4.2: the newline token is "skipped at a
// higher level").
func (p *Parser) skipNoise() {
	for p.cur.Kind == token.COMMENT || (p.cur.Kind == token.SPECIAL && p.cur.Lexeme == token.Newline) {
		p.advanceRaw()
	}
}

// advance moves to the next grammar-significant token.
func (p *Parser) advance() {
	p.advanceRaw()
	p.skipNoise()
}

// match is the parser's one matching primitive (spec.md §4.5): if the
// current token's kind doesn't match, it reports failure without
// consuming; if value is non-empty the lexeme must equal it too. On
// success the token is returned and consumed.
func (p *Parser) match(kind token.Kind, value string) (token.Token, bool) {
	if p.cur.Kind != kind {
		return token.Token{}, false
	}
	if value != "" && p.cur.Lexeme != value {
		return token.Token{}, false
	}
	tok := p.cur
	p.advance()
	return tok, true
}

// matchValue is match without needing the consumed token back.
func (p *Parser) matchValue(kind token.Kind, value string) bool {
	_, ok := p.match(kind, value)
	return ok
}

// errorAt builds a ParseError attributed to tok, or a ScanError if tok is
// an INVALID token the scanner already reported.
func (p *Parser) errorAt(tok token.Token, format string, args ...any) error {
	if tok.Kind == token.INVALID {
		return &ScanError{Tok: tok}
	}
	return &ParseError{Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// report logs err to the diagnostics reporter, unless it is a ScanError
// (already reported by the scanner).
func (p *Parser) report(err error) {
	if err == nil {
		return
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		p.rep.Errorf(pe.Tok.Origin, "%s", pe.Msg)
	}
}

// resync implements the resync protocol of spec.md §4.5: skip tokens
// until one whose lexeme appears in find, or EOF. A matched ";" is always
// consumed (it terminates the failed declaration/statement); a matched
// newline is skipped along with any following comments and newlines; any
// other sync token (a block keyword like "begin") is left in place for
// the caller's own grammar to match.
func (p *Parser) resync(find []string) {
	for {
		if p.cur.Kind == token.SPECIAL && p.cur.Lexeme == token.EOF {
			return
		}
		for _, f := range find {
			if p.cur.Lexeme == f {
				if f == ";" {
					p.advance()
				} else {
					p.skipNoise()
				}
				return
			}
		}
		p.advanceRaw()
	}
}

var declSync = []string{";", "begin", "\n"}
var stmtSync = []string{";", "\n"}
var listSync = []string{",", ")", "\n"}

// program := "program" IDENT "is" declarations "begin" statements "end" "program"
func (p *Parser) program() {
	if !p.matchValue(token.KEYWORD, "program") {
		p.report(p.errorAt(p.cur, "expected 'program'"))
	}
	if _, ok := p.match(token.IDENTIFIER, ""); !ok {
		p.report(p.errorAt(p.cur, "expected a program name"))
	}
	if !p.matchValue(token.KEYWORD, "is") {
		p.report(p.errorAt(p.cur, "expected 'is'"))
	}

	p.declarations()

	if !p.matchValue(token.KEYWORD, "begin") {
		p.report(p.errorAt(p.cur, "expected 'begin'"))
	}
	p.gen.PutLabel("main")
	p.statements()

	if !p.matchValue(token.KEYWORD, "end") {
		p.report(p.errorAt(p.cur, "expected 'end'"))
	}
	if !p.matchValue(token.KEYWORD, "program") {
		p.report(p.errorAt(p.cur, "expected 'program'"))
	}
}

// declarations := (declaration ";")*
func (p *Parser) declarations() {
	for {
		ok, err := p.declaration()
		if !ok {
			return
		}
		if err != nil {
			p.report(err)
			p.resync(declSync)
			continue
		}
		if !p.matchValue(token.SYMBOL, ";") {
			p.report(p.errorAt(p.cur, "expected ';' after declaration"))
			p.resync(declSync)
		}
	}
}

// declaration := ["global"] ( procedure_decl | variable_decl )
func (p *Parser) declaration() (bool, error) {
	isGlobal := p.matchValue(token.KEYWORD, "global")

	if p.cur.Is(token.KEYWORD, "procedure") {
		return true, p.procedureDecl()
	}

	sym, nameTok, err := p.variableDecl()
	if sym == nil && err == nil {
		if isGlobal {
			return true, p.errorAt(p.cur, "expected a declaration after 'global'")
		}
		return false, nil
	}
	if err != nil {
		return true, err
	}

	if p.tab.DeclaredInInnermost(sym.Name) {
		return true, p.errorAt(nameTok, "duplicate declaration of '%s'", sym.Name)
	}
	p.tab.AddSymbol(sym, isGlobal)
	return true, nil
}

// variable_decl := type_mark IDENT ["[" INTEGER "]"]
// Returns (nil, _, nil) when the current token doesn't start a
// variable_decl at all (not an error, just absent).
func (p *Parser) variableDecl() (*symtab.Symbol, token.Token, error) {
	t, ok := p.typeMark()
	if !ok {
		return nil, token.Token{}, nil
	}

	nameTok, ok := p.match(token.IDENTIFIER, "")
	if !ok {
		return nil, token.Token{}, p.errorAt(p.cur, "expected an identifier after type")
	}

	sym := &symtab.Symbol{Name: nameTok.Lexeme, Type: t, Size: 1}

	if p.matchValue(token.SYMBOL, "[") {
		sizeTok, ok := p.match(token.INTEGER, "")
		if !ok {
			return nil, token.Token{}, p.errorAt(p.cur, "expected an array size")
		}
		if !p.matchValue(token.SYMBOL, "]") {
			return nil, token.Token{}, p.errorAt(p.cur, "expected ']'")
		}
		n, convErr := strconv.Atoi(sizeTok.Lexeme)
		if convErr != nil || n <= 0 {
			return nil, token.Token{}, p.errorAt(sizeTok, "array size must be a positive integer")
		}
		sym.IsArray = true
		sym.Size = n
	}

	return sym, nameTok, nil
}

// type_mark := "integer" | "float" | "bool" | "string"
func (p *Parser) typeMark() (symtab.TypeKind, bool) {
	switch {
	case p.matchValue(token.KEYWORD, "integer"):
		return symtab.Integer, true
	case p.matchValue(token.KEYWORD, "float"):
		return symtab.Float, true
	case p.matchValue(token.KEYWORD, "bool"):
		return symtab.Bool, true
	case p.matchValue(token.KEYWORD, "string"):
		return symtab.String, true
	default:
		return "", false
	}
}

// procedure_decl := "procedure" IDENT "(" [param_list] ")" declarations "begin" statements "end" "procedure"
func (p *Parser) procedureDecl() error {
	p.advance() // consume 'procedure'

	nameTok, ok := p.match(token.IDENTIFIER, "")
	if !ok {
		return p.errorAt(p.cur, "expected a procedure name")
	}

	proc := &symtab.Symbol{Name: nameTok.Lexeme, Type: symtab.Procedure}
	if p.tab.DeclaredInInnermost(proc.Name) {
		p.rep.Errorf(nameTok.Origin, "duplicate declaration of '%s'", proc.Name)
	}
	// Inserted into the parent (enclosing) scope now, before EnterScope,
	// so a sibling declared afterward can call it but a forward call from
	// an earlier sibling cannot (single-pass, no hoisting).
	p.tab.AddToScope(proc)

	if !p.matchValue(token.SYMBOL, "(") {
		return p.errorAt(p.cur, "expected '(' after procedure name")
	}
	var params []*symtab.Symbol
	if !p.cur.Is(token.SYMBOL, ")") {
		params = p.paramList()
	}
	if !p.matchValue(token.SYMBOL, ")") {
		return p.errorAt(p.cur, "expected ')'")
	}
	proc.Params = params

	p.tab.EnterScope()
	label := p.gen.NewLabel(proc.Name + "_start")
	proc.Label = label
	// Inserted again, into the fresh body scope, so the procedure can
	// call itself (spec.md §3: direct recursion).
	p.tab.AddToScope(proc)
	p.tab.AddParams(params)

	p.declarations()
	if !p.matchValue(token.KEYWORD, "begin") {
		p.report(p.errorAt(p.cur, "expected 'begin'"))
	}

	argSize, localSize := p.tab.LocalFrameSize()
	p.frames = append(p.frames, [2]int{argSize, localSize})

	p.gen.PutLabel(label)
	// Callee, on entry, advances SP past its locals (spec.md §4.4) so
	// that any call it makes pushes arguments above its own frame
	// instead of clobbering it.
	p.gen.IncSP(localSize)
	p.statements()

	if !p.matchValue(token.KEYWORD, "end") {
		p.report(p.errorAt(p.cur, "expected 'end'"))
	}
	if !p.matchValue(token.KEYWORD, "procedure") {
		p.report(p.errorAt(p.cur, "expected 'procedure'"))
	}

	// Fall-through safety net: unwind the frame even if the body already
	// executed an explicit `return` (spec.md §4.5).
	p.gen.ReturnToCaller(argSize, localSize)
	p.gen.BlankLine()

	p.frames = p.frames[:len(p.frames)-1]
	return p.tab.ExitScope()
}

// param_list := param ("," param)*
// param      := variable_decl ("in" | "out")
func (p *Parser) paramList() []*symtab.Symbol {
	var params []*symtab.Symbol
	for {
		sym, _, err := p.variableDecl()
		if sym == nil && err == nil {
			return params
		}
		if err != nil {
			p.report(err)
			p.resync(listSync)
			if p.matchValue(token.SYMBOL, ",") {
				continue
			}
			return params
		}

		switch {
		case p.matchValue(token.KEYWORD, "out"):
			sym.Direction = symtab.DirOut
			sym.Indirect = true
		case p.matchValue(token.KEYWORD, "in"):
			sym.Direction = symtab.DirIn
			sym.Used = true
		default:
			p.report(p.errorAt(p.cur, "expected 'in' or 'out' after parameter declaration"))
		}
		sym.IsParam = true
		params = append(params, sym)

		if !p.matchValue(token.SYMBOL, ",") {
			return params
		}
	}
}

// statements := (statement ";")*
func (p *Parser) statements() {
	for {
		ok, err := p.statement()
		if !ok {
			return
		}
		if err != nil {
			p.report(err)
			p.resync(stmtSync)
			continue
		}
		if !p.matchValue(token.SYMBOL, ";") {
			p.report(p.errorAt(p.cur, "expected ';' after statement"))
			p.resync(stmtSync)
		}
	}
}

// statement := if_stmt | loop_stmt | procedure_call | assignment | return_stmt
func (p *Parser) statement() (bool, error) {
	switch {
	case p.cur.Is(token.KEYWORD, "if"):
		return true, p.ifStmt()
	case p.cur.Is(token.KEYWORD, "for"):
		return true, p.loopStmt()
	case p.cur.Is(token.KEYWORD, "return"):
		p.advance()
		return true, p.returnStmt()
	case p.cur.Kind == token.IDENTIFIER:
		nameTok := p.cur
		p.advance()
		if p.matchValue(token.SYMBOL, "(") {
			return true, p.procedureCallTail(nameTok)
		}
		return true, p.assignmentTail(nameTok)
	default:
		return false, nil
	}
}

// return_stmt := "return"
func (p *Parser) returnStmt() error {
	if len(p.frames) == 0 {
		return p.errorAt(p.cur, "'return' outside of a procedure")
	}
	fr := p.frames[len(p.frames)-1]
	p.gen.ReturnToCaller(fr[0], fr[1])
	return nil
}

// if_stmt := "if" "(" expression ")" "then" statements ["else" statements] "end" "if"
func (p *Parser) ifStmt() error {
	p.advance() // consume 'if'
	if !p.matchValue(token.SYMBOL, "(") {
		return p.errorAt(p.cur, "expected '(' after 'if'")
	}
	guardReg, guardType, err := p.expression()
	if err != nil {
		return err
	}
	if guardType != symtab.Bool {
		p.rep.Errorf(p.cur.Origin, "if guard must be BOOL, got '%s'", guardType)
	}
	if !p.matchValue(token.SYMBOL, ")") {
		return p.errorAt(p.cur, "expected ')'")
	}
	if !p.matchValue(token.KEYWORD, "then") {
		return p.errorAt(p.cur, "expected 'then'")
	}

	elseLabel := p.gen.NewLabel("else")
	endLabel := p.gen.NewLabel("endif")
	p.gen.GotoIfZero(guardReg, elseLabel)

	p.statements()

	hasElse := p.matchValue(token.KEYWORD, "else")
	p.gen.GotoLabel(endLabel)
	p.gen.PutLabel(elseLabel)
	if hasElse {
		p.statements()
	}
	p.gen.PutLabel(endLabel)

	if !p.matchValue(token.KEYWORD, "end") {
		return p.errorAt(p.cur, "expected 'end'")
	}
	if !p.matchValue(token.KEYWORD, "if") {
		return p.errorAt(p.cur, "expected 'if'")
	}
	return nil
}

// loop_stmt := "for" "(" assignment ";" expression ")" statements "end" "for"
func (p *Parser) loopStmt() error {
	p.advance() // consume 'for'
	if !p.matchValue(token.SYMBOL, "(") {
		return p.errorAt(p.cur, "expected '(' after 'for'")
	}

	loopLabel := p.gen.NewLabel("loop")
	endLabel := p.gen.NewLabel("endfor")
	p.gen.PutLabel(loopLabel)

	if err := p.assignment(); err != nil {
		return err
	}
	if !p.matchValue(token.SYMBOL, ";") {
		return p.errorAt(p.cur, "expected ';' in 'for' header")
	}

	guardReg, guardType, err := p.expression()
	if err != nil {
		return err
	}
	if guardType != symtab.Bool {
		p.rep.Errorf(p.cur.Origin, "for guard must be BOOL, got '%s'", guardType)
	}
	if !p.matchValue(token.SYMBOL, ")") {
		return p.errorAt(p.cur, "expected ')'")
	}

	p.gen.GotoIfZero(guardReg, endLabel)
	p.statements()
	p.gen.GotoLabel(loopLabel)
	p.gen.PutLabel(endLabel)

	if !p.matchValue(token.KEYWORD, "end") {
		return p.errorAt(p.cur, "expected 'end'")
	}
	if !p.matchValue(token.KEYWORD, "for") {
		return p.errorAt(p.cur, "expected 'for'")
	}
	return nil
}

// assignment := destination ":=" expression
func (p *Parser) assignment() error {
	nameTok, ok := p.match(token.IDENTIFIER, "")
	if !ok {
		return p.errorAt(p.cur, "expected a destination identifier")
	}
	return p.assignmentTail(nameTok)
}

// assignmentTail implements the rest of `assignment` once the leading
// identifier has already been consumed (needed so `statement` can look
// one token ahead to disambiguate assignment from procedure_call).
func (p *Parser) assignmentTail(nameTok token.Token) error {
	sym, err := p.tab.GetSymbol(nameTok.Lexeme)
	if err != nil {
		return p.errorAt(nameTok, "%v", err)
	}

	idxReg := -1
	if p.matchValue(token.SYMBOL, "[") {
		if !sym.IsArray {
			return p.errorAt(nameTok, "'%s' is not an array", sym.Name)
		}
		r, idxType, err := p.expression()
		if err != nil {
			return err
		}
		if idxType != symtab.Integer {
			p.rep.Errorf(nameTok.Origin, "array index must be INTEGER")
		}
		idxReg = r
		if !p.matchValue(token.SYMBOL, "]") {
			return p.errorAt(p.cur, "expected ']'")
		}
	}

	if !p.matchValue(token.SYMBOL, ":=") {
		return p.errorAt(p.cur, "expected ':='")
	}

	valReg, valType, err := p.expression()
	if err != nil {
		return err
	}
	if valType != sym.Type {
		return p.errorAt(nameTok, "cannot assign expression of type '%s' to destination of type '%s'", valType, sym.Type)
	}

	// Marks the destination used on assignment, not just on read — kept
	// as observed source behavior (spec.md §9 open question 1).
	sym.Used = true

	switch {
	case sym.Indirect:
		ptrReg := p.gen.MoveMemToReg(sym.Addr, -1)
		if idxReg >= 0 {
			ptrReg = p.gen.SetNewReg(fmt.Sprintf("R[%d] + R[%d]", ptrReg, idxReg))
		}
		p.gen.MoveRegToMemIndirect(valReg, ptrReg)
	case sym.IsGlobal:
		p.gen.MoveRegToMemGlobal(valReg, sym.Addr, idxReg)
	default:
		p.gen.MoveRegToMem(valReg, sym.Addr, idxReg)
	}
	return nil
}

// procedure_call := IDENT "(" [argument_list] ")"
// argument_list  := expression ("," expression)*
//
// The argument_list loop is folded into this function (rather than given
// its own), since each argument's handling depends on the corresponding
// parameter's direction (spec.md §4.4's calling convention): "in"
// arguments are evaluated as ordinary expressions (with the scalar/array
// expansion of spec.md §4.5), "out" arguments must resolve to an
// addressable destination.
func (p *Parser) procedureCallTail(nameTok token.Token) error {
	sym, err := p.tab.GetSymbol(nameTok.Lexeme)
	if err != nil {
		return p.errorAt(nameTok, "%v", err)
	}
	if sym.Type != symtab.Procedure {
		return p.errorAt(nameTok, "'%s' is not a procedure", nameTok.Lexeme)
	}

	var pushRegs []int
	argCount := 0
	for !p.cur.Is(token.SYMBOL, ")") {
		if argCount > 0 {
			if !p.matchValue(token.SYMBOL, ",") {
				return p.errorAt(p.cur, "expected ',' between arguments")
			}
		}

		var param *symtab.Symbol
		if argCount < len(sym.Params) {
			param = sym.Params[argCount]
		}
		regs, err := p.argument(param)
		if err != nil {
			return err
		}
		pushRegs = append(pushRegs, regs...)
		argCount++
	}
	if !p.matchValue(token.SYMBOL, ")") {
		return p.errorAt(p.cur, "expected ')'")
	}
	if argCount != len(sym.Params) {
		return p.errorAt(nameTok, "procedure '%s' expects %d argument(s), got %d", nameTok.Lexeme, len(sym.Params), argCount)
	}

	retLabel := p.gen.NewLabel(nameTok.Lexeme + "_ret")
	for _, r := range pushRegs {
		p.gen.PushStack(r)
	}
	p.gen.PushReturnAddress(retLabel)
	p.gen.PushFP()
	p.gen.SetFPToSP()
	p.gen.GotoLabel(sym.Label)
	p.gen.PutLabel(retLabel)
	return nil
}

// argument handles one position of an argument_list against param (nil
// past the declared parameter count, in which case it is evaluated as a
// plain expression purely so parsing can continue to the count-mismatch
// check in procedureCallTail).
func (p *Parser) argument(param *symtab.Symbol) ([]int, error) {
	if param != nil && param.Direction == symtab.DirOut {
		return p.outArgument(param)
	}

	if param != nil && !param.IsArray && p.cur.Kind == token.IDENTIFIER {
		if sym, err := p.tab.GetSymbol(p.cur.Lexeme); err == nil && sym.IsArray && sym.Type == param.Type {
			p.advance()
			sym.Used = true
			regs := make([]int, 0, sym.Size)
			for i := 0; i < sym.Size; i++ {
				if sym.IsGlobal {
					regs = append(regs, p.gen.MoveMemToRegGlobal(sym.Addr+i, -1))
				} else {
					regs = append(regs, p.gen.MoveMemToReg(sym.Addr+i, -1))
				}
			}
			return regs, nil
		}
	}

	reg, typ, err := p.expression()
	if err != nil {
		return nil, err
	}
	if param != nil && typ != param.Type {
		return nil, p.errorAt(p.cur, "argument type '%s' does not match parameter type '%s'", typ, param.Type)
	}
	return []int{reg}, nil
}

// outArgument parses the identifier (optionally indexed) destination an
// "out" argument must be, and returns a register holding its address
// rather than its value.
func (p *Parser) outArgument(param *symtab.Symbol) ([]int, error) {
	nameTok, ok := p.match(token.IDENTIFIER, "")
	if !ok {
		return nil, p.errorAt(p.cur, "'out' argument must be an identifier")
	}
	sym, err := p.tab.GetSymbol(nameTok.Lexeme)
	if err != nil {
		return nil, p.errorAt(nameTok, "%v", err)
	}
	if sym.Type != param.Type {
		return nil, p.errorAt(nameTok, "argument type '%s' does not match parameter type '%s'", sym.Type, param.Type)
	}

	idxReg := -1
	if p.matchValue(token.SYMBOL, "[") {
		if !sym.IsArray {
			return nil, p.errorAt(nameTok, "'%s' is not an array", sym.Name)
		}
		r, idxType, err := p.expression()
		if err != nil {
			return nil, err
		}
		if idxType != symtab.Integer {
			p.rep.Errorf(nameTok.Origin, "array index must be INTEGER")
		}
		idxReg = r
		if !p.matchValue(token.SYMBOL, "]") {
			return nil, p.errorAt(p.cur, "expected ']'")
		}
	}
	sym.Used = true

	var addrReg int
	switch {
	case sym.Indirect:
		ptr := p.gen.MoveMemToReg(sym.Addr, -1)
		if idxReg >= 0 {
			addrReg = p.gen.SetNewReg(fmt.Sprintf("R[%d] + R[%d]", ptr, idxReg))
		} else {
			addrReg = ptr
		}
	case sym.IsGlobal:
		if idxReg >= 0 {
			addrReg = p.gen.SetNewReg(fmt.Sprintf("%d + R[%d]", sym.Addr, idxReg))
		} else {
			addrReg = p.gen.SetNewReg(fmt.Sprintf("%d", sym.Addr))
		}
	default:
		if idxReg >= 0 {
			addrReg = p.gen.SetNewReg(fmt.Sprintf("FP + %d + R[%d]", sym.Addr, idxReg))
		} else {
			addrReg = p.gen.SetNewReg(fmt.Sprintf("FP + %d", sym.Addr))
		}
	}
	return []int{addrReg}, nil
}

// expression := ["not"] arith_op (("&" | "|") arith_op)*
func (p *Parser) expression() (int, symtab.TypeKind, error) {
	negate := p.matchValue(token.KEYWORD, "not")

	reg, typ, err := p.arithOp()
	if err != nil {
		return 0, "", err
	}
	if negate {
		reg = p.gen.SetNewReg(fmt.Sprintf("~R[%d]", reg))
	}

	for {
		var op string
		switch {
		case p.matchValue(token.SYMBOL, "&"):
			op = "&"
		case p.matchValue(token.SYMBOL, "|"):
			op = "|"
		default:
			return reg, typ, nil
		}
		rreg, rtyp, err := p.arithOp()
		if err != nil {
			return 0, "", err
		}
		if rtyp != typ {
			p.rep.Errorf(p.cur.Origin, "type mismatch in '%s' expression: '%s' vs '%s'", op, typ, rtyp)
		}
		reg = p.gen.SetNewReg(fmt.Sprintf("R[%d] %s R[%d]", reg, op, rreg))
	}
}

// arith_op := relation (("+" | "-") relation)*
func (p *Parser) arithOp() (int, symtab.TypeKind, error) {
	reg, typ, err := p.relation()
	if err != nil {
		return 0, "", err
	}
	for {
		var op string
		switch {
		case p.matchValue(token.SYMBOL, "+"):
			op = "+"
		case p.matchValue(token.SYMBOL, "-"):
			op = "-"
		default:
			return reg, typ, nil
		}
		rreg, rtyp, err := p.relation()
		if err != nil {
			return 0, "", err
		}
		if rtyp != typ {
			p.rep.Errorf(p.cur.Origin, "type mismatch in '%s' expression: '%s' vs '%s'", op, typ, rtyp)
		}
		reg = p.gen.SetNewReg(fmt.Sprintf("R[%d] %s R[%d]", reg, op, rreg))
	}
}

// relation := term (("<" | ">=" | "<=" | ">" | "==" | "!=") term)*
func (p *Parser) relation() (int, symtab.TypeKind, error) {
	reg, typ, err := p.term()
	if err != nil {
		return 0, "", err
	}
	for {
		op, matched := p.matchRelOp()
		if !matched {
			return reg, typ, nil
		}
		rreg, rtyp, err := p.term()
		if err != nil {
			return 0, "", err
		}
		if rtyp != typ {
			p.rep.Errorf(p.cur.Origin, "type mismatch in '%s' expression: '%s' vs '%s'", op, typ, rtyp)
		}
		reg = p.gen.SetNewReg(fmt.Sprintf("R[%d] %s R[%d]", reg, op, rreg))
		typ = symtab.Bool
	}
}

func (p *Parser) matchRelOp() (string, bool) {
	for _, op := range []string{"<=", ">=", "!=", "==", "<", ">"} {
		if p.matchValue(token.SYMBOL, op) {
			return op, true
		}
	}
	return "", false
}

// term := factor (("*" | "/") factor)*
func (p *Parser) term() (int, symtab.TypeKind, error) {
	reg, typ, err := p.factor()
	if err != nil {
		return 0, "", err
	}
	for {
		var op string
		switch {
		case p.matchValue(token.SYMBOL, "*"):
			op = "*"
		case p.matchValue(token.SYMBOL, "/"):
			op = "/"
		default:
			return reg, typ, nil
		}
		rreg, rtyp, err := p.factor()
		if err != nil {
			return 0, "", err
		}
		if rtyp != typ {
			p.rep.Errorf(p.cur.Origin, "type mismatch in '%s' expression: '%s' vs '%s'", op, typ, rtyp)
		}
		reg = p.gen.SetNewReg(fmt.Sprintf("R[%d] %s R[%d]", reg, op, rreg))
	}
}

// factor := "(" expression ")" | ["-"] IDENT ["[" expression "]"] | ["-"] NUMBER | STRING | "true" | "false"
func (p *Parser) factor() (int, symtab.TypeKind, error) {
	if p.matchValue(token.SYMBOL, "(") {
		reg, typ, err := p.expression()
		if err != nil {
			return 0, "", err
		}
		if !p.matchValue(token.SYMBOL, ")") {
			return 0, "", p.errorAt(p.cur, "expected ')'")
		}
		return reg, typ, nil
	}

	negate := p.matchValue(token.SYMBOL, "-")

	if p.cur.Kind == token.IDENTIFIER {
		return p.identifierFactor(negate)
	}

	if negate {
		if numTok, ok := p.match(token.INTEGER, ""); ok {
			reg := p.gen.SetNewReg(numTok.Lexeme)
			reg = p.gen.SetNewReg(fmt.Sprintf("-1 * R[%d]", reg))
			return reg, symtab.Integer, nil
		}
		if numTok, ok := p.match(token.FLOAT, ""); ok {
			reg := p.gen.SetFloatReg(numTok.Lexeme)
			reg = p.gen.SetNewReg(fmt.Sprintf("-1 * R[%d]", reg))
			return reg, symtab.Float, nil
		}
		return 0, "", p.errorAt(p.cur, "expected a number or identifier after unary '-'")
	}

	if numTok, ok := p.match(token.INTEGER, ""); ok {
		reg := p.gen.SetNewReg(numTok.Lexeme)
		return reg, symtab.Integer, nil
	}
	if numTok, ok := p.match(token.FLOAT, ""); ok {
		reg := p.gen.SetFloatReg(numTok.Lexeme)
		return reg, symtab.Float, nil
	}
	if strTok, ok := p.match(token.STRING, ""); ok {
		return p.stringFactor(strTok)
	}
	if boolTok, ok := p.match(token.BOOL, ""); ok {
		v := "0"
		if boolTok.Lexeme == "true" {
			v = "1"
		}
		reg := p.gen.SetNewReg(v)
		return reg, symtab.Bool, nil
	}

	return 0, "", p.errorAt(p.cur, "expected an expression")
}

// identifierFactor handles the `["-"] IDENT ["[" expression "]"]` factor
// alternative: a read of a variable, parameter, or array element,
// optionally negated (SPEC_FULL.md's SUPPLEMENTED FEATURES: unary minus
// applies uniformly to numbers and identifiers).
func (p *Parser) identifierFactor(negate bool) (int, symtab.TypeKind, error) {
	nameTok := p.cur
	p.advance()

	sym, err := p.tab.GetSymbol(nameTok.Lexeme)
	if err != nil {
		return 0, "", p.errorAt(nameTok, "undefined identifier '%s'", nameTok.Lexeme)
	}
	if sym.Type != symtab.Procedure && !sym.Used && sym.Direction != symtab.DirIn {
		p.rep.Warningf(nameTok.Origin, "variable '%s' is uninitialized when used here", sym.Name)
	}
	sym.Used = true

	idxReg := -1
	if p.matchValue(token.SYMBOL, "[") {
		if !sym.IsArray {
			return 0, "", p.errorAt(nameTok, "'%s' is not an array", sym.Name)
		}
		r, idxType, err := p.expression()
		if err != nil {
			return 0, "", err
		}
		if idxType != symtab.Integer {
			p.rep.Errorf(nameTok.Origin, "array index must be INTEGER")
		}
		idxReg = r
		if !p.matchValue(token.SYMBOL, "]") {
			return 0, "", p.errorAt(p.cur, "expected ']'")
		}
	}

	var reg int
	switch {
	case sym.Indirect:
		reg = p.gen.MoveMemIndirectToReg(sym.Addr, idxReg)
	case sym.IsGlobal:
		reg = p.gen.MoveMemToRegGlobal(sym.Addr, idxReg)
	default:
		reg = p.gen.MoveMemToReg(sym.Addr, idxReg)
	}
	if negate {
		reg = p.gen.SetNewReg(fmt.Sprintf("-1 * R[%d]", reg))
	}
	return reg, sym.Type, nil
}

// stringFactor handles a string-literal factor: it implicitly creates an
// anonymous array Symbol on the current activation frame (spec.md §3)
// holding the character codes plus a trailing NUL, and yields a register
// holding its base address.
func (p *Parser) stringFactor(strTok token.Token) (int, symtab.TypeKind, error) {
	sym := &symtab.Symbol{
		Name:    fmt.Sprintf("$str%d", p.gen.CurrentReg()),
		Type:    symtab.String,
		Size:    len(strTok.Lexeme) + 1,
		IsArray: true,
		Used:    true,
	}
	p.tab.AddSymbol(sym, false)
	p.gen.StoreStringLiteral(sym.Addr, strTok.Lexeme)
	reg := p.gen.SetNewReg(fmt.Sprintf("FP + %d", sym.Addr))
	return reg, symtab.String, nil
}
