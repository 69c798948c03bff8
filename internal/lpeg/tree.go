package lpeg

type opcode uint8

const (
	opTrue opcode = iota
	opFalse
	opAny
	opLiteral
	opSet
	opSeq
	opChoice
	opRepeat
	opAnd
	opNot
	opBehind
	opOpenCall
	opCall
	opGrammar
	opCapture
	opRuntime
)

type capKind uint8

const (
	capSimple capKind = iota
	capConst
	capPosition
	capArg
	capGroup
	capBack
	capTable
	capSubst
	capString
	capNum
	capQuery
	capFunc
	capFold
	capRuntime
)

// charset is a 256-bit membership set over bytes.
type charset [4]uint64

func (s *charset) add(c byte) {
	s[c>>6] |= 1 << (c & 63)
}

func (s *charset) has(c byte) bool {
	return s[c>>6]&(1<<(c&63)) != 0
}

func (s charset) union(o charset) charset {
	for i := range s {
		s[i] |= o[i]
	}
	return s
}

func (s charset) minus(o charset) charset {
	for i := range s {
		s[i] &^= o[i]
	}
	return s
}

// node is one element of an immutable pattern tree. Patterns are shared
// between Lua values, so a node is never modified once it is reachable from
// a pushed pattern; grammars clone the rules they close over.
type node struct {
	op    opcode
	n     int // byte count, minimum repetitions, lookbehind length or argument index
	max   int // maximum repetitions, -1 when unbounded
	text  string
	set   charset
	left  *node
	right *node
	cap   capKind
	refs  []int
	name  string
	named bool
	rule  *node
}

func newTrue() *node  { return &node{op: opTrue} }
func newFalse() *node { return &node{op: opFalse} }

func newAny(n int) *node {
	if n == 0 {
		return newTrue()
	}
	return &node{op: opAny, n: n}
}

func newLiteral(s string) *node {
	if s == "" {
		return newTrue()
	}
	return &node{op: opLiteral, text: s}
}

func newSet(set charset) *node {
	return &node{op: opSet, set: set}
}

func newSeq(a, b *node) *node {
	switch {
	case a.op == opFalse:
		return a
	case a.op == opTrue:
		return b
	case b.op == opTrue:
		return a
	}
	return &node{op: opSeq, left: a, right: b}
}

func newChoice(a, b *node) *node {
	switch {
	case a.op == opSet && b.op == opSet:
		return newSet(a.set.union(b.set))
	case a.op == opFalse:
		return b
	case b.op == opFalse:
		return a
	}
	return &node{op: opChoice, left: a, right: b}
}

// newDifference matches a only where b does not match.
func newDifference(a, b *node) *node {
	if a.op == opSet && b.op == opSet {
		return newSet(a.set.minus(b.set))
	}
	return newSeq(newNot(b), a)
}

// newRepeat builds p^n: at least n repetitions when n >= 0, at most -n otherwise.
func newRepeat(p *node, n int) *node {
	if n >= 0 {
		return &node{op: opRepeat, left: p, n: n, max: -1}
	}
	return &node{op: opRepeat, left: p, n: 0, max: -n}
}

func newAnd(p *node) *node { return &node{op: opAnd, left: p} }
func newNot(p *node) *node { return &node{op: opNot, left: p} }

func newBehind(p *node, n int) *node {
	return &node{op: opBehind, left: p, n: n}
}

func newCapture(kind capKind, p *node) *node {
	return &node{op: opCapture, cap: kind, left: p}
}

// fixedLen returns the number of bytes p always consumes, or -1.
func fixedLen(p *node) int {
	switch p.op {
	case opTrue, opFalse, opAnd, opNot, opBehind:
		return 0
	case opAny:
		return p.n
	case opLiteral:
		return len(p.text)
	case opSet:
		return 1
	case opSeq:
		a, b := fixedLen(p.left), fixedLen(p.right)
		if a < 0 || b < 0 {
			return -1
		}
		return a + b
	case opChoice:
		a, b := fixedLen(p.left), fixedLen(p.right)
		if a != b {
			return -1
		}
		return a
	case opCapture:
		if p.left == nil {
			return 0
		}
		return fixedLen(p.left)
	default:
		return -1
	}
}

func hasCaptures(p *node) bool {
	if p == nil {
		return false
	}
	switch p.op {
	case opCapture, opRuntime:
		return true
	case opCall, opGrammar, opOpenCall:
		return false
	}
	return hasCaptures(p.left) || hasCaptures(p.right)
}

// cloneOpen copies the parts of p that may hold open calls. Closed grammars
// and resolved calls are shared.
func cloneOpen(p *node) *node {
	if p == nil {
		return nil
	}
	switch p.op {
	case opGrammar, opCall:
		return p
	}
	c := *p
	c.left = cloneOpen(p.left)
	c.right = cloneOpen(p.right)
	return &c
}

// closeCalls binds every open call reachable from p to a rule. It returns
// the name of the first rule that could not be found.
func closeCalls(p *node, rules map[string]*node) (string, bool) {
	if p == nil {
		return "", true
	}
	switch p.op {
	case opGrammar, opCall:
		return "", true
	case opOpenCall:
		rule, ok := rules[p.name]
		if !ok {
			return p.name, false
		}
		p.op = opCall
		p.rule = rule
		return "", true
	}
	if name, ok := closeCalls(p.left, rules); !ok {
		return name, false
	}
	return closeCalls(p.right, rules)
}
