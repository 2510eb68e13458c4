package rows

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/schema"
)

const (
	MsgRequired      = "This field is required."
	MsgNotNull       = "This field may not be null."
	MsgNotBlank      = "This field may not be blank."
	MsgInvalidString = "Not a valid string."
	MsgNullCharacter = "Null characters are not allowed."
	MsgInvalidNumber = "A valid number is required."
	MsgInvalidBool   = "Must be a valid boolean."
)

var (
	trueValues  = map[string]bool{"t": true, "true": true, "y": true, "yes": true, "on": true, "1": true}
	falseValues = map[string]bool{"f": true, "false": true, "n": true, "no": true, "off": true, "0": true}
)

type failure struct {
	kind error
	msg  string
}

// Decode validates and coerces input against columns. Keys that match no
// column, including the row identity, are ignored. Every failing field is
// reported.
func Decode(columns []domain.ColumnDef, input map[string]any) (map[string]domain.Value, error) {
	values := make(map[string]domain.Value, len(columns))
	var errs domain.FieldErrors

	for _, def := range columns {
		spec := schema.MapType(def.Type, def.Nullable, def.Blankable)
		raw, present := input[def.Name]

		v, fail := coerce(spec, raw, present)
		if fail != nil {
			errs.Add(fail.kind, def.Name, fail.msg)
			continue
		}
		values[def.Name] = v
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func coerce(spec schema.PhysicalSpec, raw any, present bool) (domain.Value, *failure) {
	if !present {
		if spec.Nullable {
			return domain.Null(), nil
		}
		return domain.Value{}, &failure{domain.ErrValidation, MsgRequired}
	}
	if raw == nil {
		if spec.Nullable {
			return domain.Null(), nil
		}
		return domain.Value{}, &failure{domain.ErrValidation, MsgNotNull}
	}

	switch spec.Kind {
	case domain.FieldNumber:
		return coerceNumber(spec, raw)
	case domain.FieldBoolean:
		return coerceBool(spec, raw)
	default:
		return coerceString(spec, raw)
	}
}

func coerceString(spec schema.PhysicalSpec, raw any) (domain.Value, *failure) {
	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return domain.Value{}, &failure{domain.ErrTypeMismatch, MsgInvalidString}
	}

	if !utf8.ValidString(s) {
		return domain.Value{}, &failure{domain.ErrTypeMismatch, MsgInvalidString}
	}
	if strings.ContainsRune(s, 0) {
		return domain.Value{}, &failure{domain.ErrTypeMismatch, MsgNullCharacter}
	}
	if s == "" && !spec.AllowEmpty {
		return domain.Value{}, &failure{domain.ErrValidation, MsgNotBlank}
	}
	return domain.StringValue(s), nil
}

func coerceNumber(spec schema.PhysicalSpec, raw any) (domain.Value, *failure) {
	var (
		n   float64
		err error
	)

	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		n, err = v.Float64()
	case string:
		s := strings.TrimSpace(v)
		if s == "" && spec.Nullable {
			return domain.Null(), nil
		}
		n, err = strconv.ParseFloat(s, 64)
	default:
		return domain.Value{}, &failure{domain.ErrTypeMismatch, MsgInvalidNumber}
	}

	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return domain.Value{}, &failure{domain.ErrTypeMismatch, MsgInvalidNumber}
	}
	return domain.NumberValue(n), nil
}

func coerceBool(spec schema.PhysicalSpec, raw any) (domain.Value, *failure) {
	switch v := raw.(type) {
	case bool:
		return domain.BoolValue(v), nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "" && spec.Nullable {
			return domain.Null(), nil
		}
		if trueValues[s] {
			return domain.BoolValue(true), nil
		}
		if falseValues[s] {
			return domain.BoolValue(false), nil
		}
	case int:
		if v == 0 || v == 1 {
			return domain.BoolValue(v == 1), nil
		}
	case float64:
		if v == 0 || v == 1 {
			return domain.BoolValue(v == 1), nil
		}
	case json.Number:
		switch v.String() {
		case "0", "1":
			return domain.BoolValue(v.String() == "1"), nil
		}
	}
	return domain.Value{}, &failure{domain.ErrTypeMismatch, MsgInvalidBool}
}
