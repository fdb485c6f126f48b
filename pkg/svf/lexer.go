package svf

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// svfLexer defines the token rules for Serial Vector Format revision E.
// Keywords are matched case-insensitively; state names and TRST modes
// lex as plain identifiers and are validated during conversion.
var svfLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Both comment styles the format allows, to end of line.
	{Name: "Comment", Pattern: `(?:!|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	// Statement verbs
	{Name: "KwEndIR", Pattern: `(?i)\bENDIR\b`},
	{Name: "KwEndDR", Pattern: `(?i)\bENDDR\b`},
	{Name: "KwEndState", Pattern: `(?i)\bENDSTATE\b`},
	{Name: "KwState", Pattern: `(?i)\bSTATE\b`},
	{Name: "KwRunTest", Pattern: `(?i)\bRUNTEST\b`},
	{Name: "KwTRST", Pattern: `(?i)\bTRST\b`},
	{Name: "KwFrequency", Pattern: `(?i)\bFREQUENCY\b`},
	{Name: "KwSIR", Pattern: `(?i)\bSIR\b`},
	{Name: "KwSDR", Pattern: `(?i)\bSDR\b`},
	{Name: "KwHIR", Pattern: `(?i)\bHIR\b`},
	{Name: "KwHDR", Pattern: `(?i)\bHDR\b`},
	{Name: "KwTIR", Pattern: `(?i)\bTIR\b`},
	{Name: "KwTDR", Pattern: `(?i)\bTDR\b`},

	// Scan parameter names
	{Name: "KwTDI", Pattern: `(?i)\bTDI\b`},
	{Name: "KwTDO", Pattern: `(?i)\bTDO\b`},
	{Name: "KwSMask", Pattern: `(?i)\bSMASK\b`},
	{Name: "KwMask", Pattern: `(?i)\bMASK\b`},

	// Run-test and frequency units
	{Name: "KwTCK", Pattern: `(?i)\bTCK\b`},
	{Name: "KwSCK", Pattern: `(?i)\bSCK\b`},
	{Name: "KwSec", Pattern: `(?i)\bSEC\b`},
	{Name: "KwMaximum", Pattern: `(?i)\bMAXIMUM\b`},
	{Name: "KwHz", Pattern: `(?i)\bHZ\b`},

	// Parenthesized hex vector; the body may span lines.
	{Name: "HexVector", Pattern: `\(\s*[0-9A-Fa-f][0-9A-Fa-f \t\r\n]*\)`},

	// Integers and reals, with optional exponent (1000000, 1E6, 2.5E-3).
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?`},

	// State names, TRST modes
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_]*`},

	{Name: "Semicolon", Pattern: `;`},
})
