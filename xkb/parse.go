package xkb

import (
	"errors"
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokKeyName
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  uint32
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdent(c byte) bool  { return isLetter(c) || isDigit(c) || c == '_' || c == '.' }

func lex(data []byte) ([]token, error) {
	var toks []token
	i, n := 0, len(data)
	for i < n {
		c := data[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '/' && i+1 < n && data[i+1] == '/':
			for i < n && data[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && data[i+1] == '*':
			i += 2
			for i+1 < n && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i += 2

		case c == '#':
			for i < n && data[i] != '\n' {
				i++
			}

		case c == '<':
			j := i + 1
			for j < n && data[j] != '>' {
				j++
			}
			if j >= n {
				return nil, errors.New("unterminated key name")
			}
			toks = append(toks, token{kind: tokKeyName, text: string(data[i+1 : j])})
			i = j + 1

		case c == '"':
			j := i + 1
			for j < n && data[j] != '"' {
				if data[j] == '\\' {
					j++
				}
				j++
			}
			if j >= n {
				return nil, errors.New("unterminated string")
			}
			toks = append(toks, token{kind: tokString, text: string(data[i+1 : j])})
			i = j + 1

		case isDigit(c):
			j := i
			for j < n && (isIdent(data[j])) {
				j++
			}
			text := string(data[i:j])
			v, err := strconv.ParseUint(text, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", text, err)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: uint32(v)})
			i = j

		case isLetter(c) || c == '_':
			j := i
			for j < n && isIdent(data[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(data[i:j])})
			i = j

		default:
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) next() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	tok := p.toks[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) peekPunct(s string) bool {
	tok, ok := p.peek()
	return ok && tok.kind == tokPunct && tok.text == s
}

func (p *parser) acceptPunct(s string) bool {
	if p.peekPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		tok, _ := p.peek()
		return fmt.Errorf("expected %q, found %q", s, tok.text)
	}
	return nil
}

func (p *parser) acceptIdent(s string) bool {
	tok, ok := p.peek()
	if ok && tok.kind == tokIdent && tok.text == s {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptString() {
	if tok, ok := p.peek(); ok && tok.kind == tokString {
		p.pos++
	}
}

func (p *parser) expectKind(kind tokenKind) (token, error) {
	tok, ok := p.next()
	if !ok {
		return token{}, errors.New("unexpected end of keymap")
	}
	if tok.kind != kind {
		return token{}, fmt.Errorf("unexpected token %q", tok.text)
	}
	return tok, nil
}

// skipStatement consumes tokens through the next ';' at bracket depth
// zero.
func (p *parser) skipStatement() error {
	depth := 0
	for {
		tok, ok := p.next()
		if !ok {
			return errors.New("unexpected end of keymap")
		}
		if tok.kind != tokPunct {
			continue
		}
		switch tok.text {
		case "{", "[", "(":
			depth++
		case "}", "]", ")":
			depth--
		case ";":
			if depth == 0 {
				return nil
			}
		}
	}
}

// skipBlock consumes a balanced '{' ... '}' block.
func (p *parser) skipBlock() error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		tok, ok := p.next()
		if !ok {
			return errors.New("unexpected end of keymap")
		}
		if tok.kind != tokPunct {
			continue
		}
		switch tok.text {
		case "{":
			depth++
		case "}":
			depth--
		}
	}
	return nil
}

func parseKeymap(data []byte) (*Keymap, error) {
	toks, err := lex(data)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	if !p.acceptIdent("xkb_keymap") {
		return nil, errors.New("not an xkb_keymap")
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	codes := make(map[string]Keycode)
	aliases := make(map[string]string)
	syms := make(map[string][][]Keysym)

	for !p.peekPunct("}") {
		tok, ok := p.next()
		if !ok {
			return nil, errors.New("unexpected end of keymap")
		}
		if tok.kind != tokIdent {
			continue
		}
		switch tok.text {
		case "xkb_keycodes":
			p.acceptString()
			if err := p.parseKeycodes(codes, aliases); err != nil {
				return nil, fmt.Errorf("keycodes: %w", err)
			}
		case "xkb_symbols":
			p.acceptString()
			if err := p.parseSymbols(syms); err != nil {
				return nil, fmt.Errorf("symbols: %w", err)
			}
		default:
			// xkb_types, xkb_compatibility, xkb_geometry, and
			// anything else a compositor chooses to include.
			p.acceptString()
			if err := p.skipBlock(); err != nil {
				return nil, err
			}
			p.acceptPunct(";")
		}
	}

	km := &Keymap{keys: make(map[Keycode][][]Keysym, len(syms))}
	for name, groups := range syms {
		code, ok := codes[name]
		if !ok {
			target, aliased := aliases[name]
			if !aliased {
				continue
			}
			code, ok = codes[target]
			if !ok {
				continue
			}
		}
		km.keys[code] = groups
	}
	if len(km.keys) == 0 {
		return nil, errors.New("keymap maps no keys")
	}
	return km, nil
}

func (p *parser) parseKeycodes(codes map[string]Keycode, aliases map[string]string) error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.peekPunct("}") {
		tok, ok := p.next()
		if !ok {
			return errors.New("unexpected end of keymap")
		}
		switch {
		case tok.kind == tokKeyName:
			if err := p.expectPunct("="); err != nil {
				return err
			}
			num, err := p.expectKind(tokNumber)
			if err != nil {
				return err
			}
			if err := p.expectPunct(";"); err != nil {
				return err
			}
			codes[tok.text] = Keycode(num.num)

		case tok.kind == tokIdent && tok.text == "alias":
			a, err := p.expectKind(tokKeyName)
			if err != nil {
				return err
			}
			if err := p.expectPunct("="); err != nil {
				return err
			}
			b, err := p.expectKind(tokKeyName)
			if err != nil {
				return err
			}
			if err := p.expectPunct(";"); err != nil {
				return err
			}
			aliases[a.text] = b.text

		default:
			// minimum, maximum, indicator declarations, etc.
			if err := p.skipStatement(); err != nil {
				return err
			}
		}
	}
	p.expectPunct("}")
	p.acceptPunct(";")
	return nil
}

func (p *parser) parseSymbols(syms map[string][][]Keysym) error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.peekPunct("}") {
		tok, ok := p.next()
		if !ok {
			return errors.New("unexpected end of keymap")
		}
		if tok.kind != tokIdent {
			if err := p.skipStatement(); err != nil {
				return err
			}
			continue
		}
		switch tok.text {
		case "key":
			name, err := p.expectKind(tokKeyName)
			if err != nil {
				return err
			}
			groups, err := p.parseKeyBlock()
			if err != nil {
				return fmt.Errorf("key <%v>: %w", name.text, err)
			}
			if err := p.expectPunct(";"); err != nil {
				return err
			}
			syms[name.text] = groups

		case "override", "replace", "augment":
			// Merge-mode prefix; the key statement follows.

		default:
			// name[GroupN], modifier_map, etc.
			if err := p.skipStatement(); err != nil {
				return err
			}
		}
	}
	p.expectPunct("}")
	p.acceptPunct(";")
	return nil
}

// parseKeyBlock parses the '{ ... }' body of a key statement,
// returning its symbol groups.
func (p *parser) parseKeyBlock() ([][]Keysym, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	var groups [][]Keysym
	for !p.peekPunct("}") {
		tok, ok := p.peek()
		if !ok {
			return nil, errors.New("unexpected end of keymap")
		}

		switch {
		case tok.kind == tokPunct && tok.text == "[":
			levels, err := p.parseSymList()
			if err != nil {
				return nil, err
			}
			groups = append(groups, levels)

		case tok.kind == tokIdent && tok.text == "symbols":
			p.pos++
			if err := p.expectPunct("["); err != nil {
				return nil, err
			}
			group, err := p.expectKind(tokIdent)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			levels, err := p.parseSymList()
			if err != nil {
				return nil, err
			}
			idx := groupIndex(group.text, len(groups))
			for len(groups) <= idx {
				groups = append(groups, nil)
			}
			groups[idx] = levels

		default:
			// type=, actions[...], virtualMods=, repeat=, ...
			if err := p.skipItem(); err != nil {
				return nil, err
			}
		}

		if !p.acceptPunct(",") {
			break
		}
	}

	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return groups, nil
}

// skipItem consumes tokens up to, but not including, the next ',' or
// '}' at bracket depth zero.
func (p *parser) skipItem() error {
	depth := 0
	for {
		tok, ok := p.peek()
		if !ok {
			return errors.New("unexpected end of keymap")
		}
		if tok.kind == tokPunct {
			switch tok.text {
			case "{", "[", "(":
				depth++
			case "}", "]", ")":
				if depth == 0 {
					return nil
				}
				depth--
			case ",":
				if depth == 0 {
					return nil
				}
			}
		}
		p.pos++
	}
}

func (p *parser) parseSymList() ([]Keysym, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var levels []Keysym
	for !p.peekPunct("]") {
		tok, ok := p.next()
		if !ok {
			return nil, errors.New("unexpected end of keymap")
		}
		switch tok.kind {
		case tokIdent, tokNumber:
			levels = append(levels, parseKeysym(tok.text))
		case tokPunct:
			if tok.text != "," {
				return nil, fmt.Errorf("unexpected %q in symbol list", tok.text)
			}
		default:
			return nil, fmt.Errorf("unexpected token %q in symbol list", tok.text)
		}
	}
	p.expectPunct("]")
	return levels, nil
}

// groupIndex converts a "Group1"-style name to a zero-based index,
// falling back to next when the name carries no number.
func groupIndex(name string, next int) int {
	i := len(name)
	for i > 0 && isDigit(name[i-1]) {
		i--
	}
	if i == len(name) {
		return next
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil || n < 1 {
		return next
	}
	return n - 1
}
