package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

var (
	ErrEmptyBank      = errors.New("question bank has no valid questions")
	ErrMalformedBank  = errors.New("malformed question bank")
	ErrBankPathNotSet = errors.New("question bank path not configured")
)

// Rejected describes a bank record that was quarantined during loading.
type Rejected struct {
	Index  int    // zero-based position in the file
	ID     string // raw id if the record had one
	Reason string
}

// Bank is a validated, read-only question bank.
type Bank struct {
	Path      string
	Questions []entities.Question
	Rejected  []Rejected
}

// LoadBank reads a JSON or YAML array of questions from path.
// Records that fail validation are quarantined rather than failing the load.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}

	records, err := decodeRecords(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedBank, path, err)
	}

	schema, err := questionSchema()
	if err != nil {
		return nil, err
	}

	bank := &Bank{Path: path}
	accepted := make([]int, 0, len(records))
	taken := make(map[string]int, len(records))

	for i, record := range records {
		if err := schema.Validate(record); err != nil {
			bank.reject(i, record, err.Error())
			continue
		}
		q, err := decodeQuestion(record)
		if err != nil {
			bank.reject(i, record, err.Error())
			continue
		}
		if q, err = normalizeQuestion(q); err != nil {
			bank.reject(i, record, err.Error())
			continue
		}
		if q.ID != "" {
			if first, ok := taken[q.ID]; ok {
				bank.reject(i, record, fmt.Sprintf("duplicate id %q (first seen at record %d)", q.ID, first))
				continue
			}
			taken[q.ID] = i
		}
		bank.Questions = append(bank.Questions, q)
		accepted = append(accepted, i)
	}

	// Positional ids are assigned after explicit ids are known so they never collide.
	prefix := bankPrefix(path)
	for n := range bank.Questions {
		if bank.Questions[n].ID != "" {
			continue
		}
		id := fmt.Sprintf("%s-%d", prefix, accepted[n]+1)
		for suffix := 2; ; suffix++ {
			if _, ok := taken[id]; !ok {
				break
			}
			id = fmt.Sprintf("%s-%d-%d", prefix, accepted[n]+1, suffix)
		}
		taken[id] = accepted[n]
		bank.Questions[n].ID = id
	}

	if len(bank.Questions) == 0 {
		return bank, fmt.Errorf("%w: %s", ErrEmptyBank, path)
	}
	return bank, nil
}

func (b *Bank) reject(index int, record any, reason string) {
	id := ""
	if obj, ok := record.(map[string]any); ok {
		if raw, ok := obj["id"]; ok && raw != nil {
			id = fmt.Sprint(raw)
		}
	}
	b.Rejected = append(b.Rejected, Rejected{Index: index, ID: id, Reason: reason})
}

// decodeRecords returns the bank as generic JSON values suitable for schema validation.
func decodeRecords(path string, data []byte) ([]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		data = raw
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("expected an array of questions: %w", err)
	}
	return records, nil
}

func decodeQuestion(record any) (entities.Question, error) {
	obj, ok := record.(map[string]any)
	if !ok {
		return entities.Question{}, errors.New("record is not an object")
	}
	if n, ok := obj["id"].(json.Number); ok {
		obj["id"] = n.String()
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return entities.Question{}, fmt.Errorf("encode record: %w", err)
	}
	var q entities.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return entities.Question{}, fmt.Errorf("decode record: %w", err)
	}
	return q, nil
}

func bankPrefix(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// QuestionRepository provides cached access to the full and short question banks.
type QuestionRepository struct {
	fullPath  string
	shortPath string
	logger    *zap.Logger

	mu    sync.Mutex
	banks map[string]*Bank
}

// NewQuestionRepository creates a repository that loads banks lazily on first use.
func NewQuestionRepository(fullPath, shortPath string, logger *zap.Logger) *QuestionRepository {
	return &QuestionRepository{
		fullPath:  fullPath,
		shortPath: shortPath,
		logger:    logger,
		banks:     make(map[string]*Bank),
	}
}

// Full returns the full-exam question bank.
func (r *QuestionRepository) Full(ctx context.Context) ([]entities.Question, error) {
	return r.questions(ctx, r.fullPath)
}

// Short returns the short/demo question bank.
func (r *QuestionRepository) Short(ctx context.Context) ([]entities.Question, error) {
	return r.questions(ctx, r.shortPath)
}

// Bank returns the cached bank loaded from path, loading it if needed.
func (r *QuestionRepository) Bank(ctx context.Context, path string) (*Bank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrBankPathNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if bank, ok := r.banks[path]; ok {
		return bank, nil
	}

	bank, err := LoadBank(path)
	if bank != nil {
		for _, rej := range bank.Rejected {
			r.logger.Warn("question quarantined",
				zap.String("bank", path),
				zap.Int("index", rej.Index),
				zap.String("id", rej.ID),
				zap.String("reason", rej.Reason),
			)
		}
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info("question bank loaded",
		zap.String("bank", path),
		zap.Int("questions", len(bank.Questions)),
		zap.Int("quarantined", len(bank.Rejected)),
	)
	r.banks[path] = bank
	return bank, nil
}

func (r *QuestionRepository) questions(ctx context.Context, path string) ([]entities.Question, error) {
	bank, err := r.Bank(ctx, path)
	if err != nil {
		return nil, err
	}
	return append([]entities.Question(nil), bank.Questions...), nil
}
