package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"schemelex/internal/diag"
	"schemelex/internal/lexer"
	"schemelex/internal/source"
	"schemelex/internal/token"
)

// Current schema version - increment when CachePayload format or lexer rules change
const tokenCacheSchemaVersion uint16 = 2

// TokenCache хранит результаты токенизации по хешу содержимого файла.
// Thread-safe for concurrent access.
type TokenCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedToken is the on-disk form of token.Token.
type CachedToken struct {
	Kind   uint8
	Text   string
	Line   uint32
	Col    uint32
	Offset uint32
}

// CachedError is the on-disk form of a lexer error.
type CachedError struct {
	Kind  uint8
	Char  rune
	Text  string
	Start CachedToken
	End   CachedToken
}

// CachedDiagnostic is the on-disk form of a lexer diagnostic; the file is implied by the key.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    CachedToken
	End      CachedToken
}

// CachePayload stores everything Tokenize produces for one file content.
type CachePayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Tokens      []CachedToken
	Err         *CachedError
	Diagnostics []CachedDiagnostic
	// Dropped counts lexer diagnostics the bag limit rejected on the original run.
	Dropped int
}

// OpenTokenCache initializes and returns a token cache at the standard location.
func OpenTokenCache(app string) (*TokenCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewTokenCache(filepath.Join(base, app))
}

// NewTokenCache opens a cache rooted at dir, creating it if needed.
func NewTokenCache(dir string) (*TokenCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &TokenCache{dir: dir}, nil
}

// cacheKey: H(content hash || keep-going flag || diagnostic limit || schema).
// The limit is part of the key because it decides which diagnostics a payload holds.
func cacheKey(contentHash [32]byte, keepGoing bool, maxDiagnostics uint16) [32]byte {
	h := sha256.New()
	_, _ = h.Write(contentHash[:])
	flag := byte(0)
	if keepGoing {
		flag = 1
	}
	_, _ = h.Write([]byte{
		flag,
		byte(maxDiagnostics >> 8), byte(maxDiagnostics),
		byte(tokenCacheSchemaVersion >> 8), byte(tokenCacheSchemaVersion),
	})
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Dir returns the cache root.
func (c *TokenCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *TokenCache) pathFor(key [32]byte) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства читаемости/очистки — подкаталог "tokens".
	return filepath.Join(c.dir, "tokens", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the cache.
func (c *TokenCache) Put(key [32]byte, payload *CachePayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после успешного Rename временного файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the cache.
// A payload written with another schema version is reported as a miss.
func (c *TokenCache) Get(key [32]byte, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == tokenCacheSchemaVersion, nil
}

// DropAll invalidates the cache.
func (c *TokenCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

func cachePos(p source.Position) CachedToken {
	return CachedToken{Line: p.Line, Col: p.Col, Offset: p.Offset}
}

func (t CachedToken) pos() source.Position {
	return source.Position{Line: t.Line, Col: t.Col, Offset: t.Offset}
}

// toPayload converts a scan result for caching. Only lexer diagnostics are stored.
func toPayload(tokens []token.Token, lexErr error, bag *diag.Bag) *CachePayload {
	payload := &CachePayload{
		Schema:  tokenCacheSchemaVersion,
		Tokens:  make([]CachedToken, len(tokens)),
		Dropped: bag.Dropped(),
	}
	for i, tok := range tokens {
		ct := cachePos(tok.Pos)
		ct.Kind = uint8(tok.Kind)
		ct.Text = tok.Text
		payload.Tokens[i] = ct
	}

	var le *lexer.Error
	if errors.As(lexErr, &le) {
		payload.Err = &CachedError{
			Kind:  uint8(le.Kind),
			Char:  le.Char,
			Text:  le.Text,
			Start: cachePos(le.Pos),
			End:   cachePos(le.End),
		}
	}

	for _, d := range bag.Items() {
		if d.Code < diag.LexInfo || d.Code >= diag.IOLoadFileError {
			continue
		}
		payload.Diagnostics = append(payload.Diagnostics, CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    cachePos(d.Primary.Start),
			End:      cachePos(d.Primary.End),
		})
	}
	return payload
}

// fromPayload restores tokens, the lexer error and diagnostics for file.
func fromPayload(payload *CachePayload, file source.FileID, bag *diag.Bag) ([]token.Token, error) {
	tokens := make([]token.Token, len(payload.Tokens))
	for i, ct := range payload.Tokens {
		tokens[i] = token.Token{Kind: token.Kind(ct.Kind), Text: ct.Text, Pos: ct.pos()}
	}

	var lexErr error
	if ce := payload.Err; ce != nil {
		lexErr = &lexer.Error{
			Kind: lexer.ErrorKind(ce.Kind),
			Pos:  ce.Start.pos(),
			End:  ce.End.pos(),
			Char: ce.Char,
			Text: ce.Text,
		}
	}

	for _, cd := range payload.Diagnostics {
		bag.Add(diag.New(
			diag.Severity(cd.Severity),
			diag.Code(cd.Code),
			source.Span{File: file, Start: cd.Start.pos(), End: cd.End.pos()},
			cd.Message,
		))
	}
	bag.AddDropped(payload.Dropped)
	return tokens, lexErr
}
