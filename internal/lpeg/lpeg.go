// Package lpeg implements the LPeg parsing expression grammar library for the
// go-lua virtual machine.
//
// Open is a lua.Function: install it with lua.Require(l, "lpeg", lpeg.Open,
// false) and scripts reach it through require "lpeg". Patterns are userdata
// values carrying an immutable node tree; Lua values referenced by captures
// (constants, functions, tables, group names) live in a registry table.
package lpeg

import (
	"strconv"

	"github.com/Shopify/go-lua"
)

const (
	patternTypeName = "lpeg-pattern"
	ktableKey       = "lpeg-ktable"

	// Version is reported by lpeg.version().
	Version = "1.0.2"

	// DefaultMaxStack bounds nested grammar rule calls during a match.
	DefaultMaxStack = 400
)

// Pattern is the userdata value behind every lpeg pattern.
type Pattern struct {
	root *node
}

type library struct {
	maxStack int
}

// Open builds the lpeg module table and leaves it on the stack.
func Open(l *lua.State) int {
	lib := &library{maxStack: DefaultMaxStack}

	l.Field(lua.RegistryIndex, ktableKey)
	if l.IsNil(-1) {
		l.NewTable()
		l.SetField(lua.RegistryIndex, ktableKey)
	}
	l.Pop(1)

	lib.registerPatternType(l)
	lua.NewLibrary(l, lib.functions())
	return 1
}

func (lib *library) registerPatternType(l *lua.State) {
	lua.NewMetaTable(l, patternTypeName)
	lua.SetFunctions(l, lib.metamethods(), 0)
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "match", Function: lib.match},
	}, 0)
	l.SetField(-2, "__index")
	l.Pop(1)
}

func (lib *library) functions() []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "P", Function: lib.pattern},
		{Name: "S", Function: lib.set},
		{Name: "R", Function: lib.rangeSet},
		{Name: "V", Function: lib.openCall},
		{Name: "B", Function: lib.behind},
		{Name: "C", Function: lib.simpleCapture(capSimple)},
		{Name: "Ct", Function: lib.simpleCapture(capTable)},
		{Name: "Cs", Function: lib.simpleCapture(capSubst)},
		{Name: "Cc", Function: lib.constCapture},
		{Name: "Cp", Function: lib.positionCapture},
		{Name: "Carg", Function: lib.argCapture},
		{Name: "Cb", Function: lib.backCapture},
		{Name: "Cg", Function: lib.groupCapture},
		{Name: "Cmt", Function: lib.runtimeCapture},
		{Name: "Cf", Function: lib.foldCapture},
		{Name: "locale", Function: lib.locale},
		{Name: "match", Function: lib.match},
		{Name: "type", Function: lib.patternType},
		{Name: "version", Function: lib.version},
		{Name: "setmaxstack", Function: lib.setMaxStack},
	}
}

func (lib *library) metamethods() []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "__add", Function: func(l *lua.State) int {
			return pushPattern(l, newChoice(lib.toNode(l, 1), lib.toNode(l, 2)))
		}},
		{Name: "__mul", Function: func(l *lua.State) int {
			return pushPattern(l, newSeq(lib.toNode(l, 1), lib.toNode(l, 2)))
		}},
		{Name: "__sub", Function: func(l *lua.State) int {
			return pushPattern(l, newDifference(lib.toNode(l, 1), lib.toNode(l, 2)))
		}},
		{Name: "__pow", Function: func(l *lua.State) int {
			p := lib.toNode(l, 1)
			return pushPattern(l, newRepeat(p, lua.CheckInteger(l, 2)))
		}},
		{Name: "__len", Function: func(l *lua.State) int {
			return pushPattern(l, newAnd(lib.toNode(l, 1)))
		}},
		{Name: "__unm", Function: func(l *lua.State) int {
			return pushPattern(l, newNot(lib.toNode(l, 1)))
		}},
		{Name: "__div", Function: lib.divCapture},
	}
}

func pushPattern(l *lua.State, root *node) int {
	l.PushUserData(&Pattern{root: root})
	lua.SetMetaTableNamed(l, patternTypeName)
	return 1
}

func toPattern(l *lua.State, index int) *Pattern {
	p, _ := lua.TestUserData(l, index, patternTypeName).(*Pattern)
	return p
}

// toNode converts the value at index into a pattern tree, following the
// usual lpeg coercions for strings, numbers, booleans, tables and functions.
func (lib *library) toNode(l *lua.State, index int) *node {
	index = l.AbsIndex(index)
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return newLiteral(s)
	case lua.TypeNumber:
		n, _ := l.ToInteger(index)
		if n >= 0 {
			return newAny(n)
		}
		return newNot(newAny(-n))
	case lua.TypeBoolean:
		if l.ToBoolean(index) {
			return newTrue()
		}
		return newFalse()
	case lua.TypeTable:
		return lib.grammar(l, index)
	case lua.TypeFunction:
		return &node{op: opRuntime, cap: capRuntime, left: newTrue(), refs: []int{ref(l, index)}}
	case lua.TypeUserData:
		if p := toPattern(l, index); p != nil {
			return p.root
		}
	}
	lua.ArgumentError(l, index, "pattern expected, got "+lua.TypeNameOf(l, index))
	return nil
}

// grammar closes the rules of the table at index. The initial rule is named
// by t[1] when it is a string or number, otherwise t[1] is the rule itself.
func (lib *library) grammar(l *lua.State, index int) *node {
	start := "1"
	l.RawGetInt(index, 1)
	namedStart := l.TypeOf(-1) == lua.TypeString || l.TypeOf(-1) == lua.TypeNumber
	if namedStart {
		start, _ = ruleKey(l, -1)
	}
	l.Pop(1)

	rules := map[string]*node{}
	l.PushNil()
	for l.Next(index) {
		if namedStart && l.TypeOf(-2) == lua.TypeNumber {
			if n, _ := l.ToNumber(-2); n == 1 {
				l.Pop(1)
				continue
			}
		}
		key, ok := ruleKey(l, -2)
		if !ok {
			lua.Errorf(l, "%s is not a valid rule name", lua.TypeNameOf(l, -2))
		}
		rules[key] = cloneOpen(lib.toNode(l, -1))
		l.Pop(1)
	}

	initial, ok := rules[start]
	if !ok {
		lua.Errorf(l, "initial rule '%s' is not defined in given grammar", start)
	}
	for _, rule := range rules {
		if name, ok := closeCalls(rule, rules); !ok {
			lua.Errorf(l, "rule '%s' undefined in given grammar", name)
		}
	}
	return &node{op: opGrammar, left: initial}
}

// ruleKey names a rule or group by its string or number key without
// converting the stack slot in place.
func ruleKey(l *lua.State, index int) (string, bool) {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s, true
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return strconv.FormatFloat(n, 'g', -1, 64), true
	}
	return "", false
}

// ref stores the value at index in the registry table and returns its slot.
// Slot 0 stands for nil.
func ref(l *lua.State, index int) int {
	index = l.AbsIndex(index)
	if l.IsNoneOrNil(index) {
		return 0
	}
	l.Field(lua.RegistryIndex, ktableKey)
	slot := l.RawLength(-1) + 1
	l.PushValue(index)
	l.RawSetInt(-2, slot)
	l.Pop(1)
	return slot
}

func pushRef(l *lua.State, slot int) {
	if slot == 0 {
		l.PushNil()
		return
	}
	l.Field(lua.RegistryIndex, ktableKey)
	l.RawGetInt(-1, slot)
	l.Remove(-2)
}

func (lib *library) pattern(l *lua.State) int {
	lua.CheckAny(l, 1)
	return pushPattern(l, lib.toNode(l, 1))
}

func (lib *library) set(l *lua.State) int {
	s := lua.CheckString(l, 1)
	var set charset
	for i := 0; i < len(s); i++ {
		set.add(s[i])
	}
	return pushPattern(l, newSet(set))
}

func (lib *library) rangeSet(l *lua.State) int {
	var set charset
	for i := 1; i <= l.Top(); i++ {
		r := lua.CheckString(l, i)
		lua.ArgumentCheck(l, len(r) == 2, i, "range must have two characters")
		for c := int(r[0]); c <= int(r[1]); c++ {
			set.add(byte(c))
		}
	}
	return pushPattern(l, newSet(set))
}

func (lib *library) openCall(l *lua.State) int {
	lua.ArgumentCheck(l, !l.IsNoneOrNil(1), 1, "non-nil value expected")
	name, ok := ruleKey(l, 1)
	lua.ArgumentCheck(l, ok, 1, "rule name must be a string or number")
	return pushPattern(l, &node{op: opOpenCall, name: name})
}

func (lib *library) behind(l *lua.State) int {
	p := lib.toNode(l, 1)
	n := fixedLen(p)
	lua.ArgumentCheck(l, n >= 0, 1, "pattern may not have fixed length")
	lua.ArgumentCheck(l, !hasCaptures(p), 1, "pattern have captures")
	return pushPattern(l, newBehind(p, n))
}

func (lib *library) simpleCapture(kind capKind) lua.Function {
	return func(l *lua.State) int {
		return pushPattern(l, newCapture(kind, lib.toNode(l, 1)))
	}
}

func (lib *library) constCapture(l *lua.State) int {
	n := &node{op: opCapture, cap: capConst}
	for i := 1; i <= l.Top(); i++ {
		n.refs = append(n.refs, ref(l, i))
	}
	return pushPattern(l, n)
}

func (lib *library) positionCapture(l *lua.State) int {
	return pushPattern(l, &node{op: opCapture, cap: capPosition})
}

func (lib *library) argCapture(l *lua.State) int {
	n := lua.CheckInteger(l, 1)
	lua.ArgumentCheck(l, n >= 1 && n <= 255, 1, "invalid argument index")
	return pushPattern(l, &node{op: opCapture, cap: capArg, n: n})
}

func (lib *library) backCapture(l *lua.State) int {
	name, ok := ruleKey(l, 1)
	lua.ArgumentCheck(l, ok, 1, "group name must be a string or number")
	return pushPattern(l, &node{op: opCapture, cap: capBack, name: name})
}

func (lib *library) groupCapture(l *lua.State) int {
	n := newCapture(capGroup, lib.toNode(l, 1))
	if !l.IsNoneOrNil(2) {
		name, ok := ruleKey(l, 2)
		lua.ArgumentCheck(l, ok, 2, "group name must be a string or number")
		n.name = name
		n.named = true
		n.refs = []int{ref(l, 2)}
	}
	return pushPattern(l, n)
}

func (lib *library) runtimeCapture(l *lua.State) int {
	p := lib.toNode(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	return pushPattern(l, &node{op: opRuntime, cap: capRuntime, left: p, refs: []int{ref(l, 2)}})
}

func (lib *library) foldCapture(l *lua.State) int {
	p := lib.toNode(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	n := newCapture(capFold, p)
	n.refs = []int{ref(l, 2)}
	return pushPattern(l, n)
}

// divCapture implements p / x for string, number, table and function x.
func (lib *library) divCapture(l *lua.State) int {
	p := lib.toNode(l, 1)
	switch l.TypeOf(2) {
	case lua.TypeString:
		n := newCapture(capString, p)
		n.text, _ = l.ToString(2)
		return pushPattern(l, n)
	case lua.TypeNumber:
		index := lua.CheckInteger(l, 2)
		lua.ArgumentCheck(l, index >= 0 && index <= 255, 2, "invalid number")
		n := newCapture(capNum, p)
		n.n = index
		return pushPattern(l, n)
	case lua.TypeTable:
		n := newCapture(capQuery, p)
		n.refs = []int{ref(l, 2)}
		return pushPattern(l, n)
	case lua.TypeFunction:
		n := newCapture(capFunc, p)
		n.refs = []int{ref(l, 2)}
		return pushPattern(l, n)
	}
	lua.ArgumentError(l, 2, "invalid replacement value")
	return 0
}

func (lib *library) patternType(l *lua.State) int {
	lua.CheckAny(l, 1)
	if toPattern(l, 1) != nil {
		l.PushString("pattern")
	} else {
		l.PushNil()
	}
	return 1
}

func (lib *library) version(l *lua.State) int {
	l.PushString(Version)
	return 1
}

func (lib *library) setMaxStack(l *lua.State) int {
	limit := lua.CheckInteger(l, 1)
	lua.ArgumentCheck(l, limit > 0, 1, "positive limit expected")
	lib.maxStack = limit
	return 0
}

// match implements lpeg.match(p, subject [, init, ...]) and p:match.
func (lib *library) match(l *lua.State) int {
	root := lib.toNode(l, 1)
	subject := lua.CheckString(l, 2)
	start := initPosition(l, 3, len(subject))
	argCount := 0
	if top := l.Top(); top > 3 {
		argCount = top - 3
	}

	l.NewTable()
	m := &matcher{
		l:        l,
		subject:  subject,
		maxDepth: lib.maxStack,
		argBase:  4,
		argCount: argCount,
		dyn:      l.Top(),
	}
	var caps []capture
	end, ok := m.match(root, start, &caps)
	if !ok {
		l.PushNil()
		return 1
	}
	if n := m.pushCaptures(caps); n > 0 {
		return n
	}
	l.PushInteger(end + 1)
	return 1
}

// initPosition converts a 1-based, possibly negative, init argument into a
// byte offset clamped to the subject.
func initPosition(l *lua.State, index, length int) int {
	i := lua.OptInteger(l, index, 1)
	if i > 0 {
		if i <= length {
			return i - 1
		}
		return length
	}
	if -i <= length {
		return length + i
	}
	return 0
}
