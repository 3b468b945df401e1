package utils

import (
	"encoding/json"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ParseOptionalUUID returns nil for an empty string.
func ParseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return &id, nil
}

// NormalizePage clamps page to >= 1 and limit to [1, maxLimit].
func NormalizePage(page, limit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// UnmarshalTask decodes an asynq task payload.
func UnmarshalTask(t *asynq.Task, dest interface{}) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	return json.Unmarshal(t.Payload(), dest)
}

func GetEnvVariable(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// NotNilUUID is an ozzo rule; validation.Required cannot see uuid.Nil because uuid.UUID is a driver.Valuer.
func NotNilUUID(value interface{}) error {
	switch id := value.(type) {
	case uuid.UUID:
		if id == uuid.Nil {
			return validation.NewError("validation_nil_uuid", "must be a valid id")
		}
	case *uuid.UUID:
		if id != nil && *id == uuid.Nil {
			return validation.NewError("validation_nil_uuid", "must be a valid id")
		}
	}
	return nil
}
