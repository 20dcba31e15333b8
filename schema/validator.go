package noticeschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"dano.kr/youthscope/internal/db"
)

//go:embed notice_record.schema.json
var noticeRecordSchemaJSON string

// NoticePayload is the wire form of a canonical notice record, the shape
// collectors hand to the writer.
type NoticePayload struct {
	PolicyNumber           *string `json:"policy_number,omitempty"`
	Title                  string  `json:"title"`
	Category               string  `json:"category,omitempty"`
	Source                 string  `json:"source,omitempty"`
	OriginalURL            *string `json:"original_url,omitempty"`
	StartDate              *string `json:"start_date,omitempty"`
	EndDate                *string `json:"end_date,omitempty"`
	ContentSummary         *string `json:"content_summary,omitempty"`
	Description            *string `json:"description,omitempty"`
	SupportContent         *string `json:"support_content,omitempty"`
	AdditionalInfo         *string `json:"additional_info,omitempty"`
	SupervisingInstitution *string `json:"supervising_institution,omitempty"`
	RegisteringInstitution *string `json:"registering_institution,omitempty"`
	OperatingInstitution   *string `json:"operating_institution,omitempty"`
	RegionalInstitution    *string `json:"regional_institution,omitempty"`
	ApplicationMethod      *string `json:"application_method,omitempty"`
	ScreeningMethod        *string `json:"screening_method,omitempty"`
	RequiredDocuments      *string `json:"required_documents,omitempty"`
	ReferenceURL           *string `json:"reference_url,omitempty"`
}

// Record converts the validated payload into the writer's input type.
func (p *NoticePayload) Record() db.NoticeRecord {
	return db.NoticeRecord{
		PolicyNumber:           p.PolicyNumber,
		Title:                  p.Title,
		Category:               p.Category,
		Source:                 p.Source,
		OriginalURL:            p.OriginalURL,
		StartDate:              p.StartDate,
		EndDate:                p.EndDate,
		ContentSummary:         p.ContentSummary,
		Description:            p.Description,
		SupportContent:         p.SupportContent,
		AdditionalInfo:         p.AdditionalInfo,
		SupervisingInstitution: p.SupervisingInstitution,
		RegisteringInstitution: p.RegisteringInstitution,
		OperatingInstitution:   p.OperatingInstitution,
		RegionalInstitution:    p.RegionalInstitution,
		ApplicationMethod:      p.ApplicationMethod,
		ScreeningMethod:        p.ScreeningMethod,
		RequiredDocuments:      p.RequiredDocuments,
		ReferenceURL:           p.ReferenceURL,
	}
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateNoticePayload checks one notice record payload against the schema
// and the semantic rules the schema cannot express.
func ValidateNoticePayload(payload json.RawMessage) (*NoticePayload, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var item NoticePayload
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("notice_record.schema.json", strings.NewReader(noticeRecordSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("notice_record.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(item *NoticePayload) error {
	if item == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if isBlank(item.PolicyNumber) && isBlank(item.OriginalURL) {
		return fmt.Errorf("either policy_number or original_url is required")
	}

	if item.OriginalURL != nil {
		if err := validateURI("original_url", *item.OriginalURL); err != nil {
			return err
		}
	}
	if item.StartDate != nil {
		if err := validateDate("start_date", *item.StartDate); err != nil {
			return err
		}
	}
	if item.EndDate != nil {
		if err := validateDate("end_date", *item.EndDate); err != nil {
			return err
		}
	}

	return nil
}

func validateDate(fieldName, value string) error {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s must be a calendar date: %w", fieldName, err)
	}
	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}

func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}
