package schema

import (
	"fmt"
	"strings"
)

// ParseDBDefTag parses a dbdef tag string into a map of attributes.
// Format: "type:uuid;primary_key;default:now();not_null"
// Returns: map[string]string{"type": "uuid", "primary_key": "", "default": "now()", "not_null": ""}
// Repeated keys are joined with ";" so table-level tags may list several
// indexes or unique sets.
func ParseDBDefTag(tagValue string) map[string]string {
	attributes := make(map[string]string)

	if tagValue == "" {
		return attributes
	}

	for _, part := range strings.Split(tagValue, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, ":") {
			kv := strings.SplitN(part, ":", 2)
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])

			if existing, exists := attributes[key]; exists {
				attributes[key] = existing + ";" + value
			} else {
				attributes[key] = value
			}
		} else {
			attributes[part] = ""
		}
	}

	return attributes
}

// HasFlag reports whether a flag attribute such as not_null is present.
func HasFlag(attributes map[string]string, flag string) bool {
	_, exists := attributes[flag]
	return exists
}

// ValidateColumnTag checks a column-level dbdef tag for unknown attributes
// and malformed values.
func ValidateColumnTag(tagValue string) error {
	for key, value := range ParseDBDefTag(tagValue) {
		switch key {
		case "type":
			if err := validateType(value); err != nil {
				return fmt.Errorf("invalid type '%s': %w", value, err)
			}
		case "default":
			if value == "" {
				return fmt.Errorf("default value cannot be empty")
			}
		case "foreign_key", "fk":
			if _, _, err := splitReference(value); err != nil {
				return fmt.Errorf("invalid foreign key '%s': %w", value, err)
			}
		case "on_delete", "on_update":
			if err := validateReferenceAction(value); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", key, value, err)
			}
		case "primary_key", "not_null", "unique":
			if value != "" {
				return fmt.Errorf("flag attribute '%s' should not have a value", key)
			}
		default:
			return fmt.Errorf("unknown dbdef attribute '%s'", key)
		}
	}
	return nil
}

func validateType(typeValue string) error {
	if typeValue == "" {
		return fmt.Errorf("type cannot be empty")
	}

	validTypes := map[string]bool{
		"smallint": true, "integer": true, "bigint": true,
		"real": true, "double precision": true, "numeric": true,
		"varchar": true, "text": true,
		"timestamptz": true, "timestamp": true, "date": true,
		"boolean": true,
		"uuid":    true,
		"jsonb":   true,
	}

	baseType := typeValue
	if idx := strings.Index(typeValue, "("); idx != -1 {
		baseType = typeValue[:idx]
	}

	if !validTypes[strings.ToLower(baseType)] {
		return fmt.Errorf("unsupported PostgreSQL type: %s", typeValue)
	}
	return nil
}

func validateReferenceAction(action string) error {
	switch strings.ToUpper(action) {
	case "CASCADE", "RESTRICT", "SET NULL", "SET DEFAULT", "NO ACTION":
		return nil
	}
	return fmt.Errorf("must be one of CASCADE, RESTRICT, SET NULL, SET DEFAULT, NO ACTION")
}

// splitReference splits "table.column".
func splitReference(ref string) (string, string, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected format table.column")
	}
	return parts[0], parts[1], nil
}

// parseNamedColumns parses "idx_name,col1,col2" as used by the table-level
// index and unique attributes.
func parseNamedColumns(value string) (string, []string, error) {
	parts := strings.Split(value, ",")
	if len(parts) < 2 {
		return "", nil, fmt.Errorf("expected name,column[,column...] but got %q", value)
	}
	cols := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", nil, fmt.Errorf("empty column in %q", value)
		}
		cols = append(cols, p)
	}
	return strings.TrimSpace(parts[0]), cols, nil
}
