package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
)

// SchemaLoader maps a benchmark's raw records into BenchmarkItems purely
// from its BenchmarkConfig.Schema, with no per-benchmark Go code required.
// It is the default Loader registered under the name "schema".
type SchemaLoader struct{}

// NewSchemaLoader returns a ready-to-use SchemaLoader.
func NewSchemaLoader() *SchemaLoader { return &SchemaLoader{} }

func (l *SchemaLoader) Name() string { return "schema" }

func (l *SchemaLoader) Load(ctx context.Context, cfg *config.BenchmarkConfig) ([]model.BenchmarkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := readRawRecords(cfg.DataSource.Path, cfg.DataSource.Format)
	if err != nil {
		return nil, err
	}

	var items []model.BenchmarkItem
	var skipped int
	for i, record := range records {
		if fieldString(record, cfg.Schema.Fields.ID) == "" {
			skipped++
			log.Printf("schema loader: benchmark %q: record %d has no id, skipping", cfg.Name, i)
			continue
		}
		mapped, err := l.mapRecord(cfg, record, i)
		if err != nil {
			return nil, err
		}
		items = append(items, mapped...)
	}
	if skipped > 0 {
		log.Printf("schema loader: benchmark %q: skipped %d of %d records with missing ids", cfg.Name, skipped, len(records))
	}
	return items, nil
}

func readRawRecords(path string, format config.DataFormat) ([]RawRecord, error) {
	switch format {
	case config.FormatRecordArray:
		return readRecordArray(path)
	case config.FormatLineDelimited:
		return readLineDelimited(path)
	case config.FormatTabular:
		return readTabular(path)
	default:
		return nil, newLoaderError("readRawRecords", ErrCodeInvalidConfig, path, fmt.Sprintf("unsupported format %q", format), nil)
	}
}

func readRecordArray(path string) ([]RawRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoaderError("readRecordArray", ErrCodeIOError, path, "", err)
	}
	var records []RawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, newLoaderError("readRecordArray", ErrCodeParseFailed, path, "", err)
	}
	return records, nil
}

func readLineDelimited(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newLoaderError("readLineDelimited", ErrCodeIOError, path, "", err)
	}
	defer f.Close()

	var records []RawRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record RawRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, newLoaderError("readLineDelimited", ErrCodeParseFailed, path, fmt.Sprintf("line %d", lineNo), err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, newLoaderError("readLineDelimited", ErrCodeIOError, path, "", err)
	}
	return records, nil
}

func readTabular(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newLoaderError("readTabular", ErrCodeIOError, path, "", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, newLoaderError("readTabular", ErrCodeParseFailed, path, "", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// mapRecord maps one raw record into one or more BenchmarkItems: one per
// nested question when Schema.Fields.Questions is set, otherwise exactly
// one. Callers must have already verified record has a non-empty id
// (spec §4.3 step 3: records missing ids are skipped with a warning
// before mapRecord is ever called).
func (l *SchemaLoader) mapRecord(cfg *config.BenchmarkConfig, record RawRecord, index int) ([]model.BenchmarkItem, error) {
	fields := cfg.Schema.Fields
	baseID := fieldString(record, fields.ID)

	contexts := l.extractContexts(cfg, record, baseID)
	metadata := l.extractMetadata(fields.Metadata, record)

	if fields.Questions == "" {
		item := model.BenchmarkItem{
			ID:       baseID,
			Question: fieldString(record, fields.Question),
			Answer:   fieldString(record, fields.Answer),
			Contexts: contexts,
			Metadata: metadata,
		}
		item.QuestionType = stringOrEmpty(metadata["question_type"])
		item.Category = l.resolveCategory(cfg, record, metadata)
		return []model.BenchmarkItem{item}, nil
	}

	nested := fieldSlice(record, fields.Questions)
	items := make([]model.BenchmarkItem, 0, len(nested))
	for i, raw := range nested {
		sub, ok := raw.(RawRecord)
		if !ok {
			if asMap, ok2 := raw.(map[string]any); ok2 {
				sub = asMap
			} else {
				continue
			}
		}
		itemMeta := l.extractMetadata(fields.Metadata, sub)
		item := model.BenchmarkItem{
			ID:           fmt.Sprintf("%s-q%d", baseID, i),
			Question:     fieldString(sub, "question"),
			Answer:       fieldString(sub, "answer"),
			Contexts:     contexts,
			Metadata:     itemMeta,
			QuestionType: fieldString(sub, "question_type"),
		}
		item.Category = l.resolveCategory(cfg, sub, itemMeta)
		items = append(items, item)
	}
	return items, nil
}

func (l *SchemaLoader) resolveCategory(cfg *config.BenchmarkConfig, record RawRecord, metadata map[string]any) string {
	if cat, ok := metadata["category"].(string); ok && cat != "" {
		return cat
	}
	v := fieldValue(record, "category")
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if name, ok := cfg.Categories[int(t)]; ok {
			return name
		}
	}
	return ""
}

func (l *SchemaLoader) extractMetadata(fields map[string]string, record RawRecord) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, path := range fields {
		if v := fieldValue(record, path); v != nil {
			out[key] = v
		}
	}
	return out
}

func stringOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}

// extractContexts pulls the ingestible contexts out of record per
// cfg.Schema.Context, dispatching on its declared shape. Every produced
// context id is prefixed with itemID so retrieval labels (qrels, dialog
// ids) survive across runs, per spec §3's PreparedData invariant.
func (l *SchemaLoader) extractContexts(cfg *config.BenchmarkConfig, record RawRecord, itemID string) []model.PreparedData {
	ctxSchema := cfg.Schema.Context
	switch ctxSchema.Type {
	case config.ContextArray:
		return l.extractArrayContexts(ctxSchema, record, itemID)
	case config.ContextObject:
		return l.extractObjectContexts(ctxSchema, record, itemID)
	case config.ContextString:
		return l.extractStringContext(ctxSchema, record, itemID)
	default:
		return nil
	}
}

// extractArrayContexts handles schema.context.type == "array": one context
// per element of the array at ctxSchema.Field. Each element may carry its
// own date (ctxSchema.DateField) or sit at the corresponding index of a
// positional date array ("{field}_dates"); its content is either a single
// field (ItemSchema), a joined "{speaker}: {text}" transcript when the
// element is itself a list of dialog turns, or the element's raw JSON.
func (l *SchemaLoader) extractArrayContexts(ctxSchema config.ContextSchema, record RawRecord, itemID string) []model.PreparedData {
	elements := fieldSlice(record, ctxSchema.Field)
	dates := fieldSlice(record, ctxSchema.Field+"_dates")
	out := make([]model.PreparedData, 0, len(elements))
	for i, raw := range elements {
		var content string
		var meta map[string]any
		if sub, ok := asRawRecord(raw); ok {
			meta = map[string]any(sub)
			switch {
			case ctxSchema.ItemSchema != "":
				content = fieldString(sub, ctxSchema.ItemSchema)
			default:
				content = joinTurns(sub)
			}
			if content == "" {
				if encoded, err := json.Marshal(sub); err == nil {
					content = string(encoded)
				}
			}
		} else if turns, ok := asTurnSlice(raw); ok {
			content = joinTurnSlice(turns)
		} else if s, ok := raw.(string); ok {
			content = s
		}

		corpusKey := corpusKeyFor(meta, i)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["corpusId"] = corpusKey
		if date := dateFor(meta, ctxSchema.DateField, dates, i); date != "" {
			meta["date"] = date
		}
		out = append(out, model.PreparedData{
			ID:       fmt.Sprintf("%s-%s", itemID, corpusKey),
			Content:  content,
			Metadata: meta,
		})
	}
	return out
}

// corpusKeyFor derives the dataset-native corpus identifier for one array
// element: an explicit "corpusId"/"id"/"session_id" field when present,
// otherwise a positional "ctx-{index}" fallback.
func corpusKeyFor(meta map[string]any, index int) string {
	for _, key := range []string{"corpusId", "corpus_id", "id", "session_id"} {
		if s, ok := meta[key].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("ctx-%d", index)
}

// dateFor resolves one array element's date from its own field, falling
// back to the positional "{field}_dates" companion array.
func dateFor(meta map[string]any, dateField string, positional []any, index int) string {
	if dateField != "" {
		if s, ok := meta[dateField].(string); ok {
			return s
		}
	}
	if index < len(positional) {
		if s, ok := positional[index].(string); ok {
			return s
		}
	}
	return ""
}

// extractObjectContexts handles schema.context.type == "object": one
// context per key of the map at ctxSchema.Field whose name matches
// SessionPattern (a regex; an empty pattern matches every key), skipping
// date-companion keys (ending in "_date" or "_dates") and joining dialog
// turns when the value is itself a turn array, extracting per-turn dialog
// ids into metadata for conversational benchmarks.
func (l *SchemaLoader) extractObjectContexts(ctxSchema config.ContextSchema, record RawRecord, itemID string) []model.PreparedData {
	m := fieldMap(record, ctxSchema.Field)
	var pattern *regexp.Regexp
	if ctxSchema.SessionPattern != "" {
		pattern = regexp.MustCompile(ctxSchema.SessionPattern)
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	out := make([]model.PreparedData, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, "_date") || strings.HasSuffix(key, "_dates") {
			continue
		}
		if pattern != nil && !pattern.MatchString(key) {
			continue
		}
		v := m[key]
		content := ""
		var dialogIDs []string
		if turns, ok := asTurnSlice(v); ok {
			content, dialogIDs = joinTurnSliceWithIDs(turns)
		} else if s, ok := v.(string); ok {
			content = s
		} else if encoded, err := json.Marshal(v); err == nil {
			content = string(encoded)
		}
		meta := map[string]any{"corpusId": key}
		if len(dialogIDs) > 0 {
			meta["dialogIds"] = dialogIDs
		}
		if date, ok := m[key+"_date"].(string); ok {
			meta["date"] = date
		}
		out = append(out, model.PreparedData{
			ID:       fmt.Sprintf("%s-%s", itemID, key),
			Content:  content,
			Metadata: meta,
		})
	}
	return out
}

func (l *SchemaLoader) extractStringContext(ctxSchema config.ContextSchema, record RawRecord, itemID string) []model.PreparedData {
	content := fieldString(record, ctxSchema.Field)
	if content == "" {
		return nil
	}
	return []model.PreparedData{{ID: fmt.Sprintf("%s-ctx-0", itemID), Content: content}}
}

// asTurnSlice reports whether raw is a []any of dialog-turn-shaped maps
// (each carrying a speaker/role and text/content field).
func asTurnSlice(raw any) ([]RawRecord, bool) {
	elements, ok := raw.([]any)
	if !ok || len(elements) == 0 {
		return nil, false
	}
	turns := make([]RawRecord, 0, len(elements))
	for _, el := range elements {
		sub, ok := asRawRecord(el)
		if !ok {
			return nil, false
		}
		if speakerOrRole(sub) == "" && turnText(sub) == "" {
			return nil, false
		}
		turns = append(turns, sub)
	}
	return turns, true
}

// joinTurns joins record's own speaker/role + text/content field (a single
// turn) into one "{speaker}: {text}" line, or "" if record is not
// turn-shaped.
func joinTurns(record RawRecord) string {
	speaker := speakerOrRole(record)
	text := turnText(record)
	if speaker == "" && text == "" {
		return ""
	}
	if speaker == "" {
		return text
	}
	return speaker + ": " + text
}

func joinTurnSlice(turns []RawRecord) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, joinTurns(t))
	}
	return strings.Join(lines, "\n")
}

// joinTurnSliceWithIDs is joinTurnSlice plus the dialog/turn ids attached to
// each turn ("dia_id"/"dialog_id"/"id"), used by conversational loaders so
// downstream relevance resolution has dialog ids to match against.
func joinTurnSliceWithIDs(turns []RawRecord) (string, []string) {
	lines := make([]string, 0, len(turns))
	var ids []string
	for _, t := range turns {
		lines = append(lines, joinTurns(t))
		for _, key := range []string{"dia_id", "dialog_id", "id"} {
			if s, ok := t[key].(string); ok && s != "" {
				ids = append(ids, s)
				break
			}
		}
	}
	return strings.Join(lines, "\n"), ids
}

func speakerOrRole(record RawRecord) string {
	if s, ok := record["speaker"].(string); ok {
		return s
	}
	if s, ok := record["role"].(string); ok {
		return s
	}
	return ""
}

func turnText(record RawRecord) string {
	if s, ok := record["text"].(string); ok {
		return s
	}
	if s, ok := record["content"].(string); ok {
		return s
	}
	return ""
}

func asRawRecord(v any) (RawRecord, bool) {
	if m, ok := v.(RawRecord); ok {
		return m, true
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	return nil, false
}
