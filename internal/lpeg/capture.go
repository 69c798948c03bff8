package lpeg

import (
	"strings"

	"github.com/Shopify/go-lua"
)

func (m *matcher) pushCaptures(caps []capture) int {
	n := 0
	for i := range caps {
		n += m.pushCapture(&caps[i])
	}
	return n
}

// pushNested pushes the values of c's nested captures, or the whole match
// when there are none and whole is set.
func (m *matcher) pushNested(c *capture, whole bool) int {
	n := m.pushCaptures(c.children)
	if n == 0 && whole {
		m.l.PushString(m.text(c))
		n = 1
	}
	return n
}

func (m *matcher) text(c *capture) string {
	return m.subject[c.start:c.end]
}

func (m *matcher) pushCapture(c *capture) int {
	l := m.l
	m.ensureStack(4)
	p := c.node
	switch p.cap {
	case capSimple:
		l.PushString(m.text(c))
		return 1 + m.pushCaptures(c.children)
	case capConst:
		m.ensureStack(len(p.refs))
		for _, slot := range p.refs {
			pushRef(l, slot)
		}
		return len(p.refs)
	case capPosition:
		l.PushInteger(c.start + 1)
		return 1
	case capArg:
		if p.n > m.argCount {
			lua.Errorf(l, "reference to absent extra argument #%d", p.n)
		}
		l.PushValue(m.argBase + p.n - 1)
		return 1
	case capGroup:
		if p.named {
			m.seen = append(m.seen, c)
			return 0
		}
		return m.pushNested(c, true)
	case capBack:
		return m.pushBack(c)
	case capTable:
		return m.pushTable(c)
	case capSubst:
		return m.pushSubst(c)
	case capString:
		return m.pushString(c)
	case capNum:
		return m.pushNum(c)
	case capQuery:
		return m.pushQuery(c)
	case capFunc:
		top := l.Top()
		pushRef(l, p.refs[0])
		n := m.pushNested(c, true)
		l.Call(n, lua.MultipleReturns)
		return l.Top() - top
	case capFold:
		return m.pushFold(c)
	case capRuntime:
		m.ensureStack(c.to - c.from)
		for slot := c.from; slot < c.to; slot++ {
			l.RawGetInt(m.dyn, slot)
		}
		return c.to - c.from
	}
	return 0
}

// pushBack pushes the values of the most recent group with the same name.
func (m *matcher) pushBack(c *capture) int {
	for i := len(m.seen) - 1; i >= 0; i-- {
		if g := m.seen[i]; g.node.name == c.node.name {
			return m.pushNested(g, true)
		}
	}
	lua.Errorf(m.l, "back reference '%s' not found", c.node.name)
	return 0
}

func (m *matcher) pushTable(c *capture) int {
	l := m.l
	l.NewTable()
	t := l.Top()
	next := 0
	for i := range c.children {
		child := &c.children[i]
		if child.node.cap == capGroup && child.node.named {
			m.seen = append(m.seen, child)
			pushRef(l, child.node.refs[0])
			if n := m.pushNested(child, true); n > 0 {
				l.Pop(n - 1)
				l.RawSet(t)
			} else {
				l.Pop(1)
			}
			continue
		}
		n := m.pushCapture(child)
		for j := n; j >= 1; j-- {
			l.RawSetInt(t, next+j)
		}
		next += n
	}
	return 1
}

func (m *matcher) pushSubst(c *capture) int {
	l := m.l
	var b strings.Builder
	cur := c.start
	for i := range c.children {
		child := &c.children[i]
		if child.start > cur {
			b.WriteString(m.subject[cur:child.start])
		}
		top := l.Top()
		n := m.pushCapture(child)
		if n == 0 {
			b.WriteString(m.text(child))
		} else {
			switch l.TypeOf(top + 1) {
			case lua.TypeString, lua.TypeNumber:
				s, _ := l.ToString(top + 1)
				b.WriteString(s)
			case lua.TypeNil:
				b.WriteString(m.text(child))
			case lua.TypeBoolean:
				if l.ToBoolean(top + 1) {
					lua.Errorf(l, "invalid replacement value (a boolean)")
				}
				b.WriteString(m.text(child))
			default:
				lua.Errorf(l, "invalid replacement value (a %s)", lua.TypeNameOf(l, top+1))
			}
		}
		l.SetTop(top)
		if child.end > cur {
			cur = child.end
		}
	}
	if c.end > cur {
		b.WriteString(m.subject[cur:c.end])
	}
	l.PushString(b.String())
	return 1
}

// pushString expands p / "format": %0 is the whole match, %1..%9 the nested
// values, and any other escaped character stands for itself.
func (m *matcher) pushString(c *capture) int {
	l := m.l
	top := l.Top()
	n := m.pushNested(c, true)
	format := c.node.text
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' || i+1 == len(format) {
			b.WriteByte(ch)
			continue
		}
		i++
		d := format[i]
		switch {
		case d == '0':
			b.WriteString(m.text(c))
		case d >= '1' && d <= '9':
			index := int(d - '0')
			if index > n {
				lua.Errorf(l, "invalid capture index (%d in replacement string)", index)
			}
			switch l.TypeOf(top + index) {
			case lua.TypeString, lua.TypeNumber:
				s, _ := l.ToString(top + index)
				b.WriteString(s)
			default:
				lua.Errorf(l, "invalid capture value (a %s)", lua.TypeNameOf(l, top+index))
			}
		default:
			b.WriteByte(d)
		}
	}
	l.SetTop(top)
	l.PushString(b.String())
	return 1
}

func (m *matcher) pushNum(c *capture) int {
	l := m.l
	top := l.Top()
	n := m.pushNested(c, true)
	index := c.node.n
	if index == 0 {
		l.SetTop(top)
		return 0
	}
	if index > n {
		lua.Errorf(l, "no capture '%d'", index)
	}
	l.PushValue(top + index)
	l.Replace(top + 1)
	l.SetTop(top + 1)
	return 1
}

func (m *matcher) pushQuery(c *capture) int {
	l := m.l
	top := l.Top()
	m.pushNested(c, true)
	l.SetTop(top + 1)
	pushRef(l, c.node.refs[0])
	l.PushValue(top + 1)
	l.Table(-2)
	l.Replace(top + 1)
	l.SetTop(top + 1)
	if l.IsNil(-1) {
		l.Pop(1)
		return 0
	}
	return 1
}

func (m *matcher) pushFold(c *capture) int {
	l := m.l
	if len(c.children) == 0 {
		lua.Errorf(l, "no initial value for fold capture")
	}
	top := l.Top()
	if n := m.pushCapture(&c.children[0]); n == 0 {
		lua.Errorf(l, "no initial value for fold capture")
	}
	l.SetTop(top + 1)
	for i := 1; i < len(c.children); i++ {
		pushRef(l, c.node.refs[0])
		l.Insert(-2)
		n := m.pushCapture(&c.children[i])
		l.Call(n+1, 1)
	}
	return 1
}
