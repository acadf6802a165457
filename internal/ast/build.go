package ast

// Constructors for building trees in code, without source spans.

func Int(v int32) *IntegerLiteral { return &IntegerLiteral{Value: v} }
func Var(name string) *Identifier { return &Identifier{Name: name} }
func Unary(op UnaryOperator, x Expression) *UnaryExpression {
	return &UnaryExpression{Op: op, Operand: x}
}
func Binary(op BinaryOperator, l, r Expression) *BinaryExpression {
	return &BinaryExpression{Op: op, Left: l, Right: r}
}
func Assign(name string, v Expression) *AssignExpression {
	return &AssignExpression{Name: name, Value: v}
}
func Ternary(c, t, e Expression) *TernaryExpression {
	return &TernaryExpression{Cond: c, Then: t, Else: e}
}

func Decl(name string, init Expression) *DeclarationStatement {
	return &DeclarationStatement{Name: name, Init: init}
}
func Return(v Expression) *ReturnStatement { return &ReturnStatement{Value: v} }
func ExprStmt(e Expression) *ExpressionStatement { return &ExpressionStatement{Expr: e} }
func Block(stmts ...Statement) *BlockStatement { return &BlockStatement{Statements: stmts} }
func If(c Expression, then, els Statement) *IfStatement {
	return &IfStatement{Cond: c, Then: then, Else: els}
}
func DoWhile(body Statement, c Expression) *DoWhileStatement {
	return &DoWhileStatement{Body: body, Cond: c}
}
func For(init Statement, c, update Expression, body Statement) *ForStatement {
	return &ForStatement{Init: init, Cond: c, Update: update, Body: body}
}
func Break() *BreakStatement { return &BreakStatement{} }
func Continue() *ContinueStatement { return &ContinueStatement{} }
func Empty() *EmptyStatement { return &EmptyStatement{} }

// Main wraps body in a program with a single function named "main".
func Main(body ...Statement) *Program {
	return &Program{Function: &Function{Name: "main", Body: body}}
}
