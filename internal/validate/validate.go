// Package validate drops malformed raw records before they reach the merger.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/logger"
	"github.com/fbettag/llmdb/internal/provider"
)

// Validator returns the valid subset of records plus the number dropped. Invalid records are
// never fatal.
type Validator interface {
	Providers(records []catalog.Record) ([]catalog.Record, int)
	Models(records []catalog.Record) ([]catalog.Record, int)
}

type providerShape struct {
	ID           string             `json:"id" validate:"required,known_provider"`
	Name         string             `json:"name" validate:"max=256"`
	BaseURL      string             `json:"base_url" validate:"omitempty,startswith=http"`
	Env          []string           `json:"env" validate:"dive,required"`
	ConfigSchema []configFieldShape `json:"config_schema" validate:"dive"`
	Doc          string             `json:"doc" validate:"omitempty,startswith=http"`
}

type configFieldShape struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"omitempty,oneof=string integer number boolean list map"`
}

type modelShape struct {
	ID           string               `json:"id" validate:"required,max=256"`
	Provider     string               `json:"provider" validate:"required,known_provider"`
	Name         string               `json:"name" validate:"max=256"`
	Aliases      []string             `json:"aliases" validate:"dive,required"`
	Tags         []string             `json:"tags" validate:"dive,required"`
	Modalities   modalitiesShape      `json:"modalities"`
	Capabilities catalog.Capabilities `json:"capabilities"`
	Limits       limitsShape          `json:"limits"`
	Cost         *costShape           `json:"cost"`
	Deprecated   bool                 `json:"deprecated"`
	Extra        map[string]any       `json:"extra"`
}

type modalitiesShape struct {
	Input  []string `json:"input" validate:"dive,required"`
	Output []string `json:"output" validate:"dive,required"`
}

type limitsShape struct {
	Context int `json:"context" validate:"gte=0"`
	Output  int `json:"output" validate:"gte=0"`
}

type costShape struct {
	Input      decimal.Decimal  `json:"input" validate:"gte=0"`
	Output     decimal.Decimal  `json:"output" validate:"gte=0"`
	CacheRead  *decimal.Decimal `json:"cache_read" validate:"omitempty,gte=0"`
	CacheWrite *decimal.Decimal `json:"cache_write" validate:"omitempty,gte=0"`
}

// Structs validates records by decoding them into tagged shapes.
type Structs struct {
	validate *validator.Validate
}

// New returns the default struct-tag validator.
func New() *Structs {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	_ = v.RegisterValidation("known_provider", func(fl validator.FieldLevel) bool {
		return provider.IsKnown(provider.ID(fl.Field().String()))
	})
	return &Structs{validate: v}
}

func (s *Structs) Providers(records []catalog.Record) ([]catalog.Record, int) {
	return s.filter("provider", records, func(r catalog.Record) error {
		return s.Check(r, &providerShape{})
	})
}

func (s *Structs) Models(records []catalog.Record) ([]catalog.Record, int) {
	return s.filter("model", records, func(r catalog.Record) error {
		return s.Check(r, &modelShape{})
	})
}

func (s *Structs) filter(kind string, records []catalog.Record, check func(catalog.Record) error) ([]catalog.Record, int) {
	log := logger.With("validate")
	out := make([]catalog.Record, 0, len(records))
	dropped := 0
	for _, r := range records {
		if err := check(r); err != nil {
			dropped++
			log.Warn("dropping invalid record", "kind", kind, "provider", firstNonEmpty(r.Str("provider"), r.Str("id")), "id", r.Str("id"), "err", err)
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}

// Check decodes r into shape and validates it.
func (s *Structs) Check(r catalog.Record, shape any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(data, shape); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	if err := s.validate.Struct(shape); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(parts, "; "))
		}
		return err
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
