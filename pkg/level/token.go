package level

import (
	"fmt"
	"strings"

	"github.com/aretw0/mazecode/pkg/domain"
)

// Token is one instruction of a program listing.
type Token struct {
	Kind      domain.Kind
	Condition string
}

// ParseToken parses "kind" or "kind[predicate]".
func ParseToken(s string) (Token, error) {
	s = strings.TrimSpace(s)
	name, cond := s, ""
	if open := strings.IndexByte(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Token{}, fmt.Errorf("unterminated condition in %q", s)
		}
		name, cond = s[:open], strings.TrimSpace(s[open+1:len(s)-1])
		if cond == "" {
			return Token{}, fmt.Errorf("empty condition in %q", s)
		}
	}
	kind, err := domain.ParseKind(strings.TrimSpace(name))
	if err != nil {
		return Token{}, err
	}
	if kind.IsCondition() {
		return Token{}, fmt.Errorf("%w: %s cannot be a top-level instruction", domain.ErrInvalidEdit, kind)
	}
	return Token{Kind: kind, Condition: cond}, nil
}

func (t Token) String() string {
	if t.Condition == "" {
		return t.Kind.String()
	}
	return t.Kind.String() + "[" + t.Condition + "]"
}

// Tokens renders a snapshot program as a token listing.
func Tokens(items []domain.InstructionSnapshot) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = Token{Kind: it.Kind, Condition: it.Condition}.String()
	}
	return out
}
