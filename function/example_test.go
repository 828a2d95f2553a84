package function_test

import (
	"fmt"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/function"
	"github.com/katalvlaran/symad/matrix"
)

// ExampleFunction_Jacobian evaluates f(x, y) = sin(x*y) + x^2 and its
// Jacobian at (1, 2).
func ExampleFunction_Jacobian() {
	v := expr.Must(expr.Sym("v", 2, 1))
	parts, _ := expr.Vertsplit(v, []int{0, 1, 2})
	x, y := parts[0], parts[1]
	f := expr.Must(expr.Add(expr.Must(expr.Sin(expr.Must(expr.Mul(x, y)))), expr.Must(expr.Sq(x))))

	fn, err := function.New("f", []*expr.Node{v}, []*expr.Node{f})
	if err != nil {
		fmt.Println(err)
		return
	}
	arg := matrix.Column(1, 2)
	out := fn.MustEval(arg)
	jac, err := fn.NumericJacobian(0, 0, []*matrix.Sparse{arg})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("f = %.4f\n", out[0].Value())
	fmt.Printf("J = [%.4f, %.4f]\n", jac.Nonzeros()[0], jac.Nonzeros()[1])
	// Output:
	// f = 1.9093
	// J = [1.1677, -0.4161]
}
