package svf

import (
	"fmt"
	"iter"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser turns SVF source text into Command values.
type Parser struct {
	parser *participle.Parser[document]
}

// NewParser builds the participle parser for the SVF grammar.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[document](
		participle.Lexer(svfLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("svf: build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Commands returns a lazy, single-use sequence of commands from the
// source text. A syntax error yields exactly one (nil, error) pair; a
// conversion error on a statement terminates iteration at that
// statement. The name is used in error positions.
func (p *Parser) Commands(name, input string) iter.Seq2[Command, error] {
	return func(yield func(Command, error) bool) {
		doc, err := p.parser.ParseString(name, input)
		if err != nil {
			yield(nil, fmt.Errorf("svf: parse: %w", err))
			return
		}
		for i, stmt := range doc.Statements {
			cmd, err := stmt.command()
			if err != nil {
				yield(nil, fmt.Errorf("svf: statement %d: %w", i+1, err))
				return
			}
			if !yield(cmd, nil) {
				return
			}
		}
	}
}

// ParseString parses the whole source text eagerly.
func (p *Parser) ParseString(name, input string) ([]Command, error) {
	var cmds []Command
	for cmd, err := range p.Commands(name, input) {
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ParseFile reads and parses an SVF file.
func (p *Parser) ParseFile(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("svf: read %s: %w", path, err)
	}
	return p.ParseString(path, string(data))
}
