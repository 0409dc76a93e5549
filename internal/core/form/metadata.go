package form

import (
	"regexp"
	"strings"

	"dataset-hub-service/internal/core/domain"
)

// Matches every rune unicode.IsSpace accepts.
var whitespaceRun = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)

// FormatName replaces every run of whitespace with a single underscore.
// Leading and trailing underscores are kept.
func FormatName(raw string) string {
	return whitespaceRun.ReplaceAllString(raw, "_")
}

// FormatPromptName applies the same transform as FormatName; prompt names
// are additionally checked against domain.PromptNamePattern on submit.
func FormatPromptName(raw string) string {
	return FormatName(raw)
}

// DatasetForm is the raw input of the dataset upload form. Dimensions is
// kept as typed text and only coerced when the request is built.
type DatasetForm struct {
	Name           string
	Description    string
	Domain         string
	License        string
	FileType       domain.FileType
	ModelName      string
	Dimensions     string
	VectorDatabase string
}

// SetName stores the formatted name and returns it.
func (f *DatasetForm) SetName(raw string) string {
	f.Name = FormatName(raw)
	return f.Name
}

type requiredField struct {
	name  string
	label string
	value func(*DatasetForm) string
}

var baseFields = []requiredField{
	{"name", "Dataset name", func(f *DatasetForm) string { return f.Name }},
	{"description", "Dataset description", func(f *DatasetForm) string { return f.Description }},
	{"domain", "Domain", func(f *DatasetForm) string { return f.Domain }},
}

var vectorFields = []requiredField{
	{"modelName", "Model name", func(f *DatasetForm) string { return f.ModelName }},
	{"dimensions", "Dataset dimensions", func(f *DatasetForm) string { return f.Dimensions }},
	{"vectorDatabase", "Vector database", func(f *DatasetForm) string { return f.VectorDatabase }},
}

// ValidateRequiredFields returns a *domain.MissingFieldError for the first
// empty required field. Vectorization fields are only required when the
// dataset type carries vectorized data.
func ValidateRequiredFields(f *DatasetForm, datasetType domain.DatasetType) error {
	fields := baseFields
	if datasetType.RequiresVectorization() {
		fields = append(append([]requiredField{}, baseFields...), vectorFields...)
	}
	for _, rf := range fields {
		if strings.TrimSpace(rf.value(f)) == "" {
			return &domain.MissingFieldError{Field: rf.name, Label: rf.label}
		}
	}
	return nil
}

// MissingFields lists every empty required field, in form order.
func MissingFields(f *DatasetForm, datasetType domain.DatasetType) []string {
	fields := baseFields
	if datasetType.RequiresVectorization() {
		fields = append(append([]requiredField{}, baseFields...), vectorFields...)
	}
	var missing []string
	for _, rf := range fields {
		if strings.TrimSpace(rf.value(f)) == "" {
			missing = append(missing, rf.name)
		}
	}
	return missing
}

// PromptForm is the raw input of the prompt form.
type PromptForm struct {
	Name   string
	Domain string
	Body   string
}

func (p *PromptForm) SetName(raw string) string {
	p.Name = FormatPromptName(raw)
	return p.Name
}

func ValidatePromptForm(p *PromptForm) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return &domain.MissingFieldError{Field: "name", Label: "Prompt name"}
	case strings.TrimSpace(p.Domain) == "":
		return &domain.MissingFieldError{Field: "domain", Label: "Domain"}
	case strings.TrimSpace(p.Body) == "":
		return &domain.MissingFieldError{Field: "prompt", Label: "Prompt"}
	}
	if !domain.PromptNamePattern.MatchString(strings.TrimSpace(p.Name)) {
		return domain.ErrInvalidPromptName
	}
	return nil
}
