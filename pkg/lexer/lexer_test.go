package lexer

import "testing"

func TestNextTokenBasicTokens(t *testing.T) {
	input := `(){};,.-+*/`

	tests := []struct {
		expectedType   TokenType
		expectedLexeme string
	}{
		{TokenLeftParen, "("},
		{TokenRightParen, ")"},
		{TokenLeftBrace, "{"},
		{TokenRightBrace, "}"},
		{TokenSemicolon, ";"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenMinus, "-"},
		{TokenPlus, "+"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - type wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNextTokenTwoCharOperators(t *testing.T) {
	input := `!= == <= >= ! = < >`
	tests := []TokenType{
		TokenBangEqual, TokenEqualEqual, TokenLessEqual, TokenGreaterEqual,
		TokenBang, TokenEqual, TokenLess, TokenGreater, TokenEOF,
	}
	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected=%s, got=%s", i, want, tok.Type)
		}
	}
}

func TestNextTokenKeywordsAndIdentifiers(t *testing.T) {
	input := `class fun var if else for while nil true false and or this super return print count`
	tests := []TokenType{
		TokenClass, TokenFun, TokenVar, TokenIf, TokenElse, TokenFor, TokenWhile,
		TokenNil, TokenTrue, TokenFalse, TokenAnd, TokenOr, TokenThis, TokenSuper,
		TokenReturn, TokenPrint, TokenIdentifier, TokenEOF,
	}
	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected=%s, got=%s", i, want, tok.Type)
		}
	}
}

func TestNextTokenNumbers(t *testing.T) {
	input := `123 45.67 0`
	want := []string{"123", "45.67", "0"}
	l := New(input)
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != TokenNumber {
			t.Fatalf("tests[%d] - expected NUMBER, got=%s", i, tok.Type)
		}
		if tok.Lexeme != w {
			t.Fatalf("tests[%d] - expected=%q, got=%q", i, w, tok.Lexeme)
		}
	}
}

func TestNextTokenString(t *testing.T) {
	l := New(`"hello world"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("expected STRING, got=%s", tok.Type)
	}
	if tok.Lexeme != `"hello world"` {
		t.Fatalf("expected raw lexeme with quotes, got=%q", tok.Lexeme)
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	l := New(`"unterminated`)
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Fatalf("expected ERROR, got=%s", tok.Type)
	}
}

func TestNextTokenUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closes")
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Fatalf("expected ERROR for unterminated comment, got=%s", tok.Type)
	}
}

func TestNextTokenLineComment(t *testing.T) {
	l := New("1 // ignored\n2")
	first := l.NextToken()
	second := l.NextToken()
	if first.Lexeme != "1" || second.Lexeme != "2" {
		t.Fatalf("line comment not skipped: got %q, %q", first.Lexeme, second.Lexeme)
	}
	if second.Line != 2 {
		t.Fatalf("expected line 2, got %d", second.Line)
	}
}

func TestNextTokenNestedBlockComment(t *testing.T) {
	l := New("/* outer /* inner */ still outer */ 1")
	tok := l.NextToken()
	if tok.Type != TokenNumber || tok.Lexeme != "1" {
		t.Fatalf("expected NUMBER 1 after nested comment, got=%s %q", tok.Type, tok.Lexeme)
	}
}
