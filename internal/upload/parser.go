package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

var (
	// ErrStreamFailure wraps any error raised while reading the body
	ErrStreamFailure = errors.New("multipart stream failure")

	// ErrFileTooLarge is returned when the file part exceeds the configured limit
	ErrFileTooLarge = errors.New("uploaded file exceeds size limit")

	// ErrParserUsed is returned when Parse is called twice on one parser
	ErrParserUsed = errors.New("parser already used")
)

const (
	defaultChunkSize = 32 << 10
	maxFieldSize     = 1 << 20
	defaultMimeType  = "application/octet-stream"
)

// State is the lifecycle of one parse.
type State int

const (
	StateIdle State = iota
	StateParsing
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Boundary returns the multipart boundary of a form-data content type.
func Boundary(contentType string) (string, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return "", false
	}
	boundary := params["boundary"]
	return boundary, boundary != ""
}

// Parser drives one multipart body through Idle → Parsing → {Finished, Failed}.
// A Parser is single use and not safe for concurrent use.
type Parser struct {
	maxFileSize int64
	chunkSize   int

	state State
	env   *Envelope
	err   error
}

// NewParser creates a parser that rejects files larger than maxFileSize.
// A non-positive maxFileSize disables the limit.
func NewParser(maxFileSize int64) *Parser {
	return &Parser{
		maxFileSize: maxFileSize,
		chunkSize:   defaultChunkSize,
		state:       StateIdle,
	}
}

// State returns the current state.
func (p *Parser) State() State {
	return p.state
}

// Err returns the failure cause once the parser is in StateFailed.
func (p *Parser) Err() error {
	return p.err
}

// Parse consumes body completely. On success the envelope holds every field
// (last write wins) and at most one file; on failure no envelope is returned.
func (p *Parser) Parse(ctx context.Context, body io.Reader, boundary string) (*Envelope, error) {
	if p.state != StateIdle {
		return nil, ErrParserUsed
	}
	p.state = StateParsing
	p.env = &Envelope{Fields: make(map[string]string)}

	mr := multipart.NewReader(body, boundary)
	for {
		if err := ctx.Err(); err != nil {
			return nil, p.fail(err)
		}

		part, err := mr.NextPart()
		if err == io.EOF {
			return p.finish(), nil
		}
		if err != nil {
			return nil, p.fail(err)
		}

		err = p.consume(ctx, part)
		part.Close()
		if err != nil {
			return nil, p.fail(err)
		}
	}
}

func (p *Parser) consume(ctx context.Context, part *multipart.Part) error {
	name := part.FormName()
	switch {
	case name == "":
		return drain(part)
	case part.FileName() == "":
		return p.onField(name, part)
	case p.env.File != nil:
		// only the first file is retained
		return drain(part)
	default:
		return p.onFile(ctx, name, part)
	}
}

func (p *Parser) onField(name string, part *multipart.Part) error {
	value, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
	if err != nil {
		return err
	}
	if len(value) > maxFieldSize {
		return fmt.Errorf("field %q exceeds %d bytes", name, maxFieldSize)
	}
	p.env.Fields[name] = string(value)
	return nil
}

func (p *Parser) onFile(ctx context.Context, name string, part *multipart.Part) error {
	var buf bytes.Buffer
	chunk := make([]byte, p.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := part.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if p.maxFileSize > 0 && int64(buf.Len()) > p.maxFileSize {
				return ErrFileTooLarge
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	mimeType := strings.TrimSpace(part.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	p.env.File = &File{
		FieldName:    name,
		OriginalName: part.FileName(),
		MimeType:     mimeType,
		Content:      buf.Bytes(),
	}
	return nil
}

func (p *Parser) finish() *Envelope {
	p.state = StateFinished
	return p.env
}

func (p *Parser) fail(err error) error {
	p.state = StateFailed
	p.env = nil
	if errors.Is(err, ErrFileTooLarge) {
		p.err = err
	} else {
		p.err = fmt.Errorf("%w: %w", ErrStreamFailure, err)
	}
	return p.err
}

func drain(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}
