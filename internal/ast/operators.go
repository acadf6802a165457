package ast

import "fmt"

// UnaryOperator enumerates prefix operators.
type UnaryOperator int

const (
	OpNeg        UnaryOperator = iota // -x
	OpBitNot                          // ~x
	OpLogicalNot                      // !x
)

var unaryInfo = [...]struct{ symbol, mnemonic string }{
	OpNeg:        {"-", "neg"},
	OpBitNot:     {"~", "not"},
	OpLogicalNot: {"!", "lnot"},
}

// String returns the source symbol of the operator.
func (op UnaryOperator) String() string {
	if int(op) < 0 || int(op) >= len(unaryInfo) {
		return "unary?"
	}
	return unaryInfo[op].symbol
}

// Mnemonic returns the IR spelling of the operator.
func (op UnaryOperator) Mnemonic() string {
	if int(op) < 0 || int(op) >= len(unaryInfo) {
		return "unary?"
	}
	return unaryInfo[op].mnemonic
}

// ParseUnaryOperator accepts either the symbol or the mnemonic.
func ParseUnaryOperator(s string) (UnaryOperator, error) {
	for i, info := range unaryInfo {
		if s == info.symbol || s == info.mnemonic {
			return UnaryOperator(i), nil
		}
	}
	return 0, fmt.Errorf("unknown unary operator %q", s)
}

// BinaryOperator enumerates infix operators. Comparisons and the logical
// operators yield 0 or 1; && and || evaluate both operands.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpLogicalAnd
	OpLogicalOr
)

var binaryInfo = [...]struct{ symbol, mnemonic string }{
	OpAdd:        {"+", "add"},
	OpSub:        {"-", "sub"},
	OpMul:        {"*", "mul"},
	OpDiv:        {"/", "div"},
	OpMod:        {"%", "mod"},
	OpLt:         {"<", "lt"},
	OpLe:         {"<=", "le"},
	OpGt:         {">", "gt"},
	OpGe:         {">=", "ge"},
	OpEq:         {"==", "eq"},
	OpNe:         {"!=", "ne"},
	OpLogicalAnd: {"&&", "land"},
	OpLogicalOr:  {"||", "lor"},
}

func (op BinaryOperator) String() string {
	if int(op) < 0 || int(op) >= len(binaryInfo) {
		return "binop?"
	}
	return binaryInfo[op].symbol
}

// Mnemonic returns the IR spelling of the operator.
func (op BinaryOperator) Mnemonic() string {
	if int(op) < 0 || int(op) >= len(binaryInfo) {
		return "binop?"
	}
	return binaryInfo[op].mnemonic
}

// ParseBinaryOperator accepts either the symbol or the mnemonic.
func ParseBinaryOperator(s string) (BinaryOperator, error) {
	for i, info := range binaryInfo {
		if s == info.symbol || s == info.mnemonic {
			return BinaryOperator(i), nil
		}
	}
	return 0, fmt.Errorf("unknown binary operator %q", s)
}
