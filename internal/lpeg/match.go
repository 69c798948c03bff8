package lpeg

import (
	"strings"

	"github.com/Shopify/go-lua"
)

// matcher walks a pattern tree over one subject. Positions are 0-based byte
// offsets; they become 1-based only when pushed to Lua.
type matcher struct {
	l        *lua.State
	subject  string
	maxDepth int
	depth    int
	argBase  int
	argCount int
	dyn      int // stack index of the table holding match-time capture values
	dynCount int
	seen     []*capture
}

// capture records a successful capture node together with the captures
// nested inside it. Values are produced only after the whole match succeeds.
type capture struct {
	node       *node
	start, end int
	children   []capture
	from, to   int // slots in the match-time value table
}

func (m *matcher) match(p *node, i int, caps *[]capture) (int, bool) {
	s := m.subject
	switch p.op {
	case opTrue:
		return i, true
	case opFalse:
		return i, false
	case opAny:
		if len(s)-i >= p.n {
			return i + p.n, true
		}
		return i, false
	case opLiteral:
		if strings.HasPrefix(s[i:], p.text) {
			return i + len(p.text), true
		}
		return i, false
	case opSet:
		if i < len(s) && p.set.has(s[i]) {
			return i + 1, true
		}
		return i, false
	case opSeq:
		j, ok := m.match(p.left, i, caps)
		if !ok {
			return i, false
		}
		return m.match(p.right, j, caps)
	case opChoice:
		mark := len(*caps)
		if j, ok := m.match(p.left, i, caps); ok {
			return j, true
		}
		*caps = (*caps)[:mark]
		return m.match(p.right, i, caps)
	case opRepeat:
		return m.repeat(p, i, caps)
	case opAnd:
		if _, ok := m.match(p.left, i, caps); !ok {
			return i, false
		}
		return i, true
	case opNot:
		mark := len(*caps)
		_, ok := m.match(p.left, i, caps)
		*caps = (*caps)[:mark]
		return i, !ok
	case opBehind:
		if i < p.n {
			return i, false
		}
		mark := len(*caps)
		j, ok := m.match(p.left, i-p.n, caps)
		*caps = (*caps)[:mark]
		return i, ok && j == i
	case opCall:
		m.depth++
		if m.depth > m.maxDepth {
			lua.Errorf(m.l, "backtrack stack overflow (current limit is %d)", m.maxDepth)
		}
		j, ok := m.match(p.rule, i, caps)
		m.depth--
		return j, ok
	case opOpenCall:
		lua.Errorf(m.l, "rule '%s' used outside a grammar", p.name)
	case opGrammar:
		return m.match(p.left, i, caps)
	case opCapture:
		return m.capture(p, i, caps)
	case opRuntime:
		return m.runtime(p, i, caps)
	}
	return i, false
}

func (m *matcher) repeat(p *node, i int, caps *[]capture) (int, bool) {
	count := 0
	for p.max < 0 || count < p.max {
		mark := len(*caps)
		j, ok := m.match(p.left, i, caps)
		if !ok {
			*caps = (*caps)[:mark]
			break
		}
		count++
		if j == i {
			// An empty match repeats forever; it satisfies any minimum.
			count = max(count, p.n)
			break
		}
		i = j
	}
	return i, count >= p.n
}

func (m *matcher) capture(p *node, i int, caps *[]capture) (int, bool) {
	c := capture{node: p, start: i, end: i}
	if p.left != nil {
		j, ok := m.match(p.left, i, &c.children)
		if !ok {
			return i, false
		}
		c.end = j
	}
	*caps = append(*caps, c)
	return c.end, true
}

// runtime evaluates a match-time capture: the function sees the subject, the
// position after p and the values of p's captures, and decides the match.
func (m *matcher) runtime(p *node, i int, caps *[]capture) (int, bool) {
	var nested []capture
	j, ok := m.match(p.left, i, &nested)
	if !ok {
		return i, false
	}

	l := m.l
	top := l.Top()
	m.ensureStack(3)
	pushRef(l, p.refs[0])
	l.PushString(m.subject)
	l.PushInteger(j + 1)
	n := m.pushCaptures(nested)
	l.Call(2+n, lua.MultipleReturns)

	results := l.Top() - top
	if results == 0 {
		return i, false
	}
	next := j
	switch {
	case l.TypeOf(top+1) == lua.TypeNumber:
		pos, _ := l.ToInteger(top + 1)
		if pos < j+1 || pos > len(m.subject)+1 {
			lua.Errorf(l, "invalid position returned by match-time capture")
		}
		next = pos - 1
	case !l.ToBoolean(top + 1):
		l.SetTop(top)
		return i, false
	}

	if results > 1 {
		c := capture{node: p, start: i, end: next, from: m.dynCount + 1}
		for index := top + 2; index <= top+results; index++ {
			l.PushValue(index)
			m.dynCount++
			l.RawSetInt(m.dyn, m.dynCount)
		}
		c.to = m.dynCount + 1
		*caps = append(*caps, c)
	}
	l.SetTop(top)
	return next, true
}

func (m *matcher) ensureStack(n int) {
	if !m.l.CheckStack(n) {
		lua.Errorf(m.l, "too many captures")
	}
}
