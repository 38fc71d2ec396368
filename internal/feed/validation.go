package feed

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultLimit     = 30
	MaxLimit         = 30
	MaxContentLength = 255
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

type ListRequest struct {
	Limit    int     `json:"limit" validate:"omitempty,min=1,max=30"` // 0 means DefaultLimit
	Cursor   *string `json:"cursor" validate:"omitempty,min=1"`
	ParentID *string `json:"parentId" validate:"omitempty,min=1"` // nil lists top-level posts
}

type CreateRequest struct {
	Content  string  `json:"content" validate:"required,max=255"`
	ParentID *string `json:"parentId" validate:"omitempty,min=1"`
}

type EditRequest struct {
	ID      string `json:"id" validate:"required"`
	Content string `json:"content" validate:"required,max=255"`
}

// validateRequest runs the struct rules and turns failures into ErrValidation.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			if fe.Kind() == reflect.String {
				msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
			}
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(msgs, "; "))
}

// ContentPolicy is the shape rule applied to post content on create and edit.
type ContentPolicy string

const (
	PolicyAny   ContentPolicy = "any"
	PolicyEmoji ContentPolicy = "emoji" // only emoji and whitespace
)

func ParseContentPolicy(s string) (ContentPolicy, error) {
	switch p := ContentPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyAny:
		return PolicyAny, nil
	case PolicyEmoji:
		return PolicyEmoji, nil
	default:
		return "", fmt.Errorf("unknown content policy %q", s)
	}
}

func (p ContentPolicy) Check(content string) error {
	if p == PolicyEmoji && !isEmojiOnly(content) {
		return fmt.Errorf("%w: only emojis are allowed", models.ErrValidation)
	}
	return nil
}

// isEmojiOnly reports whether s holds at least one emoji and nothing but
// emoji, emoji modifiers and whitespace.
func isEmojiOnly(s string) bool {
	found := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case isEmojiModifier(r):
		case isPictographic(r):
			found = true
		default:
			return false
		}
	}
	return found
}

func isEmojiModifier(r rune) bool {
	return r == 0x200D || // zero width joiner
		r == 0xFE0F || r == 0xFE0E || // variation selectors
		r == 0x20E3 || // combining keycap
		(r >= 0xE0020 && r <= 0xE007F) // tag sequences (subdivision flags)
}

func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, transport, flags, skin tones
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
	case r >= 0x2300 && r <= 0x23FF: // misc technical
	case r >= 0x2B00 && r <= 0x2BFF: // arrows, stars
	case r >= 0x2190 && r <= 0x21FF: // arrows
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139,
		r == 0x24C2, r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
	default:
		return false
	}
	return true
}
