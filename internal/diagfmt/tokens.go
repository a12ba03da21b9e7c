package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"

	"schemelex/internal/token"
)

// TokenOutput is the serialised form of a token shared by the JSON, YAML and msgpack writers.
type TokenOutput struct {
	Kind   string `json:"kind" yaml:"kind" msgpack:"kind"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`
	Line   uint32 `json:"line" yaml:"line" msgpack:"line"`
	Col    uint32 `json:"col" yaml:"col" msgpack:"col"`
	Offset uint32 `json:"offset" yaml:"offset" msgpack:"offset"`
}

// TokensOutput wraps the token list of one file.
type TokensOutput struct {
	File   string        `json:"file" yaml:"file" msgpack:"file"`
	Tokens []TokenOutput `json:"tokens" yaml:"tokens" msgpack:"tokens"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// BuildTokensOutput converts tokens into their serialisable form. lexErr may be nil.
func BuildTokensOutput(path string, tokens []token.Token, lexErr error) TokensOutput {
	out := TokensOutput{
		File:   path,
		Tokens: make([]TokenOutput, 0, len(tokens)),
	}
	for _, tok := range tokens {
		out.Tokens = append(out.Tokens, TokenOutput{
			Kind:   tok.Kind.String(),
			Text:   tok.Text,
			Line:   tok.Pos.Line,
			Col:    tok.Pos.Col,
			Offset: tok.Pos.Offset,
		})
	}
	if lexErr != nil {
		out.Error = lexErr.Error()
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token) error {
	for i, tok := range tokens {
		if _, err := fmt.Fprintf(w, "%3d: %-10s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			if _, err := fmt.Fprintf(w, " %q", tok.Text); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, " at %d:%d\n", tok.Pos.Line, tok.Pos.Col); err != nil {
			return err
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, outputs []TokensOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(outputs)
}

// FormatTokensYAML writes outputs as a YAML sequence.
func FormatTokensYAML(w io.Writer, outputs []TokensOutput) error {
	data, err := yaml.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// FormatTokensMsgpack writes outputs as a single msgpack array.
func FormatTokensMsgpack(w io.Writer, outputs []TokensOutput) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(outputs); err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	return nil
}

// DecodeTokensMsgpack reads back what FormatTokensMsgpack wrote.
func DecodeTokensMsgpack(r io.Reader) ([]TokensOutput, error) {
	var outputs []TokensOutput
	if err := msgpack.NewDecoder(r).Decode(&outputs); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	return outputs, nil
}
