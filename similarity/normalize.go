// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package similarity implements the plagiarism analyzer: lexical shingling,
// structural skeleton comparison and temporal suspicion heuristics over a
// per-problem corpus of prior submissions. All functions are deterministic,
// so re-running an analysis against an unchanged corpus reproduces the exact
// same report.
package similarity

import (
	"strings"
	"unicode"
)

// tokens the skeleton keeps verbatim. Everything else that looks like a word
// is abstracted to ID, so renaming identifiers does not evade detection.
var keywords = map[string]struct{}{
	"if": {}, "else": {}, "elif": {}, "for": {}, "while": {}, "do": {},
	"switch": {}, "case": {}, "default": {}, "break": {}, "continue": {},
	"return": {}, "func": {}, "function": {}, "def": {}, "class": {},
	"struct": {}, "interface": {}, "enum": {}, "var": {}, "let": {},
	"const": {}, "new": {}, "try": {}, "catch": {}, "except": {},
	"finally": {}, "throw": {}, "raise": {}, "import": {}, "from": {},
	"package": {}, "public": {}, "private": {}, "protected": {},
	"static": {}, "void": {}, "int": {}, "float": {}, "double": {},
	"string": {}, "bool": {}, "boolean": {}, "true": {}, "false": {},
	"null": {}, "nil": {}, "none": {}, "lambda": {}, "select": {},
	"range": {}, "map": {}, "in": {}, "and": {}, "or": {}, "not": {},
	"go": {}, "defer": {}, "chan": {},
}

const (
	tokenIdent  = "ID"
	tokenNumber = "NUM"
	tokenString = "STR"
)

// Tokenize splits source code into a flat token stream with comments removed.
// Identifiers are lowercased, string literals collapse to a single STR token.
// The tokenizer is language agnostic on purpose: the corpus mixes languages
// and a best-effort shared lexer beats per-language parsers here.
func Tokenize(source string) []string {
	var tokens []string
	runes := []rune(source)
	i := 0
	n := len(runes)

	for i < n {
		c := runes[i]

		switch {
		case unicode.IsSpace(c):
			i++
		case c == '/' && i+1 < n && runes[i+1] == '/':
			i = skipLine(runes, i)
		case c == '#':
			i = skipLine(runes, i)
		case c == '/' && i+1 < n && runes[i+1] == '*':
			i = skipBlockComment(runes, i)
		case c == '"' || c == '\'' || c == '`':
			i = skipStringLiteral(runes, i)
			tokens = append(tokens, tokenString)
		case unicode.IsDigit(c):
			for i < n && (unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == 'x' ||
				(runes[i] >= 'a' && runes[i] <= 'f') || (runes[i] >= 'A' && runes[i] <= 'F')) {
				i++
			}
			tokens = append(tokens, tokenNumber)
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < n && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, strings.ToLower(string(runes[start:i])))
		default:
			tokens = append(tokens, string(c))
			i++
		}
	}
	return tokens
}

// Skeleton abstracts identifiers and literals away from a token stream,
// keeping only keywords, operators and punctuation. Two submissions that
// differ only in naming produce identical skeletons.
func Skeleton(tokens []string) []string {
	skeleton := make([]string, len(tokens))
	for i, token := range tokens {
		switch {
		case token == tokenNumber || token == tokenString:
			skeleton[i] = token
		case isWord(token):
			if _, ok := keywords[token]; ok {
				skeleton[i] = token
			} else {
				skeleton[i] = tokenIdent
			}
		default:
			skeleton[i] = token
		}
	}
	return skeleton
}

func isWord(token string) bool {
	for _, c := range token {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return false
		}
	}
	return len(token) > 0
}

func skipLine(runes []rune, i int) int {
	for i < len(runes) && runes[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(runes []rune, i int) int {
	i += 2
	for i+1 < len(runes) {
		if runes[i] == '*' && runes[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(runes)
}

func skipStringLiteral(runes []rune, i int) int {
	quote := runes[i]
	i++
	for i < len(runes) {
		if runes[i] == '\\' {
			i += 2
			continue
		}
		if runes[i] == quote {
			return i + 1
		}
		i++
	}
	return len(runes)
}
