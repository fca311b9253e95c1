package config

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// ErrInvalidPath is returned when an attribute path cannot be parsed.
var ErrInvalidPath = errors.New("invalid attribute path")

var (
	pathLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
		// Keys may start with digits (`2fa`); all-digit segments lex as Int.
		{Name: "Key", Pattern: `\d*[a-zA-Z_][a-zA-Z0-9_\-]*`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Punct", Pattern: `[.\[\]]`},
	})

	pathParser = participle.MustBuild[pathExpr](
		participle.Lexer(pathLexer),
		participle.Unquote("String"),
	)
)

type (
	pathExpr struct {
		Segments []*pathSegment `parser:"@@ ( '.' @@ )*"`
	}

	pathSegment struct {
		Name    string `parser:"( @Key | @Int | @String )"`
		Indexes []int  `parser:"( '[' @Int ']' )*"`
	}

	// Step is a single hop in an attribute path. A step addresses a mapping key
	// by Name, or a sequence element by Index when ByIndex is set. Bare numeric
	// names (e.g. "keys.0") address sequence elements too when the node being
	// walked is a sequence.
	Step struct {
		Name    string
		Index   int
		ByIndex bool
	}

	// Path is a parsed attribute path such as `object_store.access_key` or
	// `users[0]."display.name"`.
	Path []Step
)

// ParsePath parses a dotted attribute path.
//
// Example:
//
//	p, err := config.ParsePath("meta_store.port")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(p) // meta_store.port
func ParsePath(s string) (Path, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.Wrap(ErrInvalidPath, "path is empty")
	}

	expr, err := pathParser.ParseString("", s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPath, "%s: %v", s, err)
	}

	var path Path
	for _, seg := range expr.Segments {
		path = append(path, Step{Name: seg.Name})
		for _, idx := range seg.Indexes {
			path = append(path, Step{Index: idx, ByIndex: true})
		}
	}

	return path, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for constant paths.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Path) String() string {
	var sb strings.Builder
	for i, step := range p {
		if step.ByIndex {
			sb.WriteString("[" + strconv.Itoa(step.Index) + "]")
			continue
		}

		if i > 0 {
			sb.WriteByte('.')
		}

		if strings.ContainsAny(step.Name, `. []"`) {
			sb.WriteString(strconv.Quote(step.Name))
		} else {
			sb.WriteString(step.Name)
		}
	}

	return sb.String()
}

// sequenceIndex returns the element index addressed by the step when it is
// applied to a sequence node.
func (s Step) sequenceIndex() (int, bool) {
	if s.ByIndex {
		return s.Index, true
	}

	n, err := strconv.Atoi(s.Name)
	if err != nil {
		return 0, false
	}

	return n, true
}
