// SPDX-License-Identifier: MIT

package parse

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"go.uber.org/zap"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/internal/logger"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

// DefaultSolver is the linear solver plugin named by two-argument solve calls.
const DefaultSolver = "lu"

// DefaultSizeLimit bounds the code points of a parsed expression.
const DefaultSizeLimit = 1 << 16

// Parser converts expression text into expression graphs. A Parser is safe
// for concurrent use.
type Parser struct {
	env    *cel.Env
	solver string
	log    logger.Logger
}

// Option configures a Parser.
type Option func(*config)

type config struct {
	solver    string
	sizeLimit int
	log       logger.Logger
}

// WithSolver sets the solver named by solve(a, b).
func WithSolver(name string) Option { return func(c *config) { c.solver = name } }

// WithSizeLimit bounds the length of parsed text in code points.
func WithSizeLimit(n int) Option { return func(c *config) { c.sizeLimit = n } }

// WithLogger injects a logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Parser.
func New(opts ...Option) (*Parser, error) {
	c := config{solver: DefaultSolver, sizeLimit: DefaultSizeLimit, log: logger.NewNoopLogger()}
	for _, fn := range opts {
		fn(&c)
	}
	env, err := cel.NewEnv(cel.ParserExpressionSizeLimit(c.sizeLimit))
	if err != nil {
		return nil, fmt.Errorf("parse: environment: %w", err)
	}
	return &Parser{env: env, solver: c.solver, log: c.log}, nil
}

// Parse reads src and builds its expression over symbols.
// Errors: ErrSyntax, ErrUnknownSymbol, ErrUnknownFunction, ErrArity,
// ErrLiteral, ErrUnsupported, expr constructor errors.
func (p *Parser) Parse(src string, symbols map[string]*expr.Node) (*expr.Node, error) {
	ast, iss := p.env.ParseSource(common.NewStringSource(src, "expression"))
	if iss.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, iss.Err())
	}
	b := builder{symbols: symbols, solver: p.solver}
	n, err := b.build(ast.NativeRep().Expr())
	if err != nil {
		return nil, err
	}
	p.log.Debug("parsed",
		zap.String("source", src),
		zap.Int("nodes", expr.CountNodes(n)),
		zap.String("shape", n.Sparsity().String()))
	return n, nil
}

// Parse reads src with a default Parser.
func Parse(src string, symbols map[string]*expr.Node) (*expr.Node, error) {
	p, err := New()
	if err != nil {
		return nil, err
	}
	return p.Parse(src, symbols)
}

type builder struct {
	symbols map[string]*expr.Node
	solver  string
}

var constants = map[string]float64{"pi": math.Pi, "e": math.E}

var binaryOperators = map[string]ops.Op{
	operators.Add:           ops.OpAdd,
	operators.Subtract:      ops.OpSub,
	operators.Multiply:      ops.OpMul,
	operators.Divide:        ops.OpDiv,
	operators.Less:          ops.OpLt,
	operators.LessEquals:    ops.OpLe,
	operators.Equals:        ops.OpEq,
	operators.NotEquals:     ops.OpNe,
	operators.Greater:       ops.OpLt,
	operators.GreaterEquals: ops.OpLe,
}

// aliases maps call names that differ from the operation names.
var aliases = map[string]ops.Op{"abs": ops.OpAbs}

func (b *builder) build(e celast.Expr) (*expr.Node, error) {
	switch e.Kind() {
	case celast.LiteralKind:
		v, err := number(e)
		if err != nil {
			return nil, err
		}
		return expr.Scalar(v), nil
	case celast.IdentKind:
		name := e.AsIdent()
		if n, ok := b.symbols[name]; ok {
			return n, nil
		}
		if v, ok := constants[name]; ok {
			return expr.Scalar(v), nil
		}
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownSymbol)
	case celast.ListKind:
		return b.list(e.AsList().Elements())
	case celast.CallKind:
		return b.call(e.AsCall())
	}
	return nil, fmt.Errorf("expression kind %d: %w", e.Kind(), ErrUnsupported)
}

// list builds a column from scalars or a matrix from rows.
func (b *builder) list(elems []celast.Expr) (*expr.Node, error) {
	if len(elems) == 0 {
		return expr.Zeros(sparsity.Zeros(0, 1)), nil
	}
	rows := elems[0].Kind() == celast.ListKind
	parts := make([]*expr.Node, len(elems))
	for i, el := range elems {
		if (el.Kind() == celast.ListKind) != rows {
			return nil, parseErrorf("list", fmt.Errorf("mixed rows and scalars: %w", expr.ErrDimensionMismatch))
		}
		var (
			n   *expr.Node
			err error
		)
		if rows {
			n, err = b.row(el.AsList().Elements())
		} else {
			n, err = b.build(el)
		}
		if err != nil {
			return nil, err
		}
		parts[i] = n
	}
	n, err := expr.Vertcat(parts...)
	if err != nil {
		return nil, parseErrorf("list", err)
	}
	return n, nil
}

func (b *builder) row(elems []celast.Expr) (*expr.Node, error) {
	parts, err := b.all(elems)
	if err != nil {
		return nil, err
	}
	n, err := expr.Horzcat(parts...)
	if err != nil {
		return nil, parseErrorf("row", err)
	}
	return n, nil
}

func (b *builder) all(es []celast.Expr) ([]*expr.Node, error) {
	out := make([]*expr.Node, len(es))
	for i, e := range es {
		n, err := b.build(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (b *builder) call(c celast.CallExpr) (*expr.Node, error) {
	fn := c.FunctionName()
	args := c.Args()
	if c.IsMemberFunction() {
		args = append([]celast.Expr{c.Target()}, args...)
	}
	// 1. Operators
	if op, ok := binaryOperators[fn]; ok {
		x, y, err := b.pair(fn, args)
		if err != nil {
			return nil, err
		}
		if fn == operators.Greater || fn == operators.GreaterEquals {
			x, y = y, x
		}
		return wrap(fn)(expr.Binary(op, x, y))
	}
	switch fn {
	case operators.Negate:
		x, err := b.one(fn, args)
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Neg(x))
	case operators.Index:
		return b.index(args)
	case operators.LogicalAnd, operators.LogicalOr, operators.LogicalNot, operators.Conditional, operators.Modulo:
		return nil, fmt.Errorf("operator %s: %w", fn, ErrUnsupported)
	}
	// 2. Elementwise calls
	op, ok := aliases[fn]
	if !ok {
		op, ok = ops.Lookup(fn)
	}
	switch {
	case ok && op.IsUnary():
		x, err := b.one(fn, args)
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Unary(op, x))
	case ok && op.IsBinary():
		x, y, err := b.pair(fn, args)
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Binary(op, x, y))
	}
	// 3. Matrix calls
	return b.matrixCall(fn, args)
}

func (b *builder) matrixCall(fn string, args []celast.Expr) (*expr.Node, error) {
	switch fn {
	case "transpose":
		x, err := b.one(fn, args)
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Transpose(x))
	case "sum", "norm_fro":
		x, err := b.one(fn, args)
		if err != nil {
			return nil, err
		}
		if fn == "sum" {
			return wrap(fn)(expr.Sum(x))
		}
		return wrap(fn)(expr.NormF(x))
	case "mtimes", "dot":
		x, y, err := b.pair(fn, args)
		if err != nil {
			return nil, err
		}
		if fn == "dot" {
			return wrap(fn)(expr.Dot(x, y))
		}
		return wrap(fn)(expr.Mtimes(x, y))
	case "horzcat", "vertcat", "diagcat":
		xs, err := b.all(args)
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return nil, parseErrorf(fn, ErrArity)
		}
		switch fn {
		case "horzcat":
			return wrap(fn)(expr.Horzcat(xs...))
		case "vertcat":
			return wrap(fn)(expr.Vertcat(xs...))
		}
		return wrap(fn)(expr.Diagcat(xs...))
	case "reshape":
		if len(args) != 3 {
			return nil, parseErrorf(fn, ErrArity)
		}
		x, err := b.build(args[0])
		if err != nil {
			return nil, err
		}
		r, c, err := dims(fn, args[1:])
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Reshape(x, r, c))
	case "solve":
		if len(args) != 2 && len(args) != 3 {
			return nil, parseErrorf(fn, ErrArity)
		}
		solver := b.solver
		if len(args) == 3 {
			s, err := text(fn, args[2])
			if err != nil {
				return nil, err
			}
			solver = s
		}
		a, rhs, err := b.pair(fn, args[:2])
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Solve(a, rhs, solver))
	case "assert":
		if len(args) != 3 {
			return nil, parseErrorf(fn, ErrArity)
		}
		msg, err := text(fn, args[2])
		if err != nil {
			return nil, err
		}
		x, cond, err := b.pair(fn, args[:2])
		if err != nil {
			return nil, err
		}
		return wrap(fn)(expr.Assert(x, cond, msg))
	case "zeros", "ones":
		r, c, err := dims(fn, args)
		if err != nil {
			return nil, err
		}
		if fn == "ones" {
			return expr.Ones(sparsity.Dense(r, c)), nil
		}
		return expr.Zeros(sparsity.Zeros(r, c)), nil
	case "eye":
		if len(args) != 1 {
			return nil, parseErrorf(fn, ErrArity)
		}
		n, err := integer(fn, args[0])
		if err != nil {
			return nil, err
		}
		return expr.Const(matrix.Identity(n)), nil
	}
	return nil, fmt.Errorf("%q: %w", fn, ErrUnknownFunction)
}

// index selects one structural nonzero: x[k].
func (b *builder) index(args []celast.Expr) (*expr.Node, error) {
	if len(args) != 2 {
		return nil, parseErrorf("index", ErrArity)
	}
	x, err := b.build(args[0])
	if err != nil {
		return nil, err
	}
	k, err := integer("index", args[1])
	if err != nil {
		return nil, err
	}
	if k >= x.Nnz() {
		return nil, parseErrorf("index", fmt.Errorf("%d of %d nonzeros: %w", k, x.Nnz(), expr.ErrIndex))
	}
	return wrap("index")(expr.GetNonzeros(x, sparsity.Scalar(), []int{k}))
}

func (b *builder) one(fn string, args []celast.Expr) (*expr.Node, error) {
	if len(args) != 1 {
		return nil, parseErrorf(fn, fmt.Errorf("%d arguments, want 1: %w", len(args), ErrArity))
	}
	return b.build(args[0])
}

func (b *builder) pair(fn string, args []celast.Expr) (*expr.Node, *expr.Node, error) {
	if len(args) != 2 {
		return nil, nil, parseErrorf(fn, fmt.Errorf("%d arguments, want 2: %w", len(args), ErrArity))
	}
	x, err := b.build(args[0])
	if err != nil {
		return nil, nil, err
	}
	y, err := b.build(args[1])
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func wrap(fn string) func(*expr.Node, error) (*expr.Node, error) {
	return func(n *expr.Node, err error) (*expr.Node, error) {
		if err != nil {
			return nil, parseErrorf(fn, err)
		}
		return n, nil
	}
}

// number reads a numeric literal.
func number(e celast.Expr) (float64, error) {
	switch v := e.AsLiteral().(type) {
	case types.Double:
		return float64(v), nil
	case types.Int:
		return float64(v), nil
	case types.Uint:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%v: %w", e.AsLiteral().Type(), ErrLiteral)
}

// integer reads a non-negative integer literal.
func integer(fn string, e celast.Expr) (int, error) {
	if e.Kind() == celast.LiteralKind {
		switch v := e.AsLiteral().(type) {
		case types.Int:
			if v >= 0 {
				return int(v), nil
			}
		case types.Uint:
			return int(v), nil
		}
	}
	return 0, parseErrorf(fn, fmt.Errorf("want a non-negative integer literal: %w", ErrLiteral))
}

func dims(fn string, args []celast.Expr) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, parseErrorf(fn, ErrArity)
	}
	r, err := integer(fn, args[0])
	if err != nil {
		return 0, 0, err
	}
	c, err := integer(fn, args[1])
	if err != nil {
		return 0, 0, err
	}
	return r, c, nil
}

func text(fn string, e celast.Expr) (string, error) {
	if e.Kind() == celast.LiteralKind {
		if s, ok := e.AsLiteral().(types.String); ok {
			return string(s), nil
		}
	}
	return "", parseErrorf(fn, fmt.Errorf("want a string literal: %w", ErrLiteral))
}
