package favorites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/temidaradev/coinwatch/internal/coin"
)

// record is the on-disk shape of one favorite. Thresholds are plain JSON
// numbers or null.
type record struct {
	Color     Color        `json:"color"`
	TextColor *Color       `json:"text_color"`
	Low       *json.Number `json:"low_threshold"`
	High      *json.Number `json:"high_threshold"`
}

// FileStore keeps the collection in a single JSON object keyed by ticker.
// The file is rewritten in full on every save.
type FileStore struct {
	path   string
	logger *logrus.Entry
}

func NewFileStore(path string, logger *logrus.Logger) *FileStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{
		path:   path,
		logger: logger.WithField("component", "favorites"),
	}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file keeping its key order. A missing file is an empty
// collection.
func (s *FileStore) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", s.path).Debug("No favorites file, starting empty")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read favorites file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	entries, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode favorites file %s: %w", s.path, err)
	}
	s.logger.WithFields(logrus.Fields{"path": s.path, "count": len(entries)}).Info("Favorites loaded")
	return entries, nil
}

func (s *FileStore) Save(entries []Entry) error {
	data, err := encodeOrdered(entries)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create favorites dir: %w", err)
		}
	}

	// A failed save leaves the previous file intact.
	file, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create favorites file: %w", err)
	}
	tmp := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close favorites file: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to set favorites file mode: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace favorites file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"path": s.path, "count": len(entries)}).Debug("Favorites saved")
	return nil
}

func decodeOrdered(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var rec record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("favorite %q: %w", key, err)
		}
		e, err := rec.entry(coin.Normalize(key))
		if err != nil {
			return nil, fmt.Errorf("favorite %q: %w", key, err)
		}
		entries = append(entries, e)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeOrdered(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if len(entries) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.Ticker.String())
		if err != nil {
			return nil, err
		}
		body, err := json.MarshalIndent(newRecord(e), "    ", "    ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(body)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func newRecord(e Entry) record {
	text := e.Text
	return record{
		Color:     e.Background,
		TextColor: &text,
		Low:       thresholdNumber(e.Low),
		High:      thresholdNumber(e.High),
	}
}

func (r record) entry(ticker coin.Ticker) (Entry, error) {
	e := Entry{Ticker: ticker, Background: r.Color, Text: DefaultText}
	if r.TextColor != nil {
		e.Text = *r.TextColor
	}
	var err error
	if e.Low, err = thresholdValue(r.Low); err != nil {
		return Entry{}, fmt.Errorf("low_threshold: %w", err)
	}
	if e.High, err = thresholdValue(r.High); err != nil {
		return Entry{}, fmt.Errorf("high_threshold: %w", err)
	}
	return e, nil
}

func thresholdNumber(v decimal.NullDecimal) *json.Number {
	if !v.Valid {
		return nil
	}
	n := json.Number(v.Decimal.String())
	return &n
}

func thresholdValue(n *json.Number) (decimal.NullDecimal, error) {
	if n == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
