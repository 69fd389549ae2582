// AngelaMos | 2026
// entity.go

package override

import (
	"fmt"
	"strconv"
	"time"

	"github.com/angelamos/entitled/internal/core"
)

type Kind string

const (
	KindFeatureEnable  Kind = "feature_enable"
	KindFeatureDisable Kind = "feature_disable"
	KindLimitIncrease  Kind = "limit_increase"
)

// Effect is a closed variant over the three override kinds. The limit value
// exists only for KindLimitIncrease; the constructors make that a
// construction-time invariant instead of a nullable side field.
type Effect struct {
	kind  Kind
	limit int64
}

func FeatureEnable() Effect {
	return Effect{kind: KindFeatureEnable}
}

func FeatureDisable() Effect {
	return Effect{kind: KindFeatureDisable}
}

func LimitIncrease(limit int64) Effect {
	return Effect{kind: KindLimitIncrease, limit: limit}
}

// ParseEffect builds an Effect from the persisted (kind, value) pair. A
// limit_increase requires a numeric, non-negative value; the other kinds
// must not carry one.
func ParseEffect(kind string, value *string) (Effect, error) {
	switch Kind(kind) {
	case KindFeatureEnable, KindFeatureDisable:
		if value != nil {
			return Effect{}, fmt.Errorf(
				"%s does not take a value: %w",
				kind,
				core.ErrInvalidInput,
			)
		}
		if Kind(kind) == KindFeatureEnable {
			return FeatureEnable(), nil
		}
		return FeatureDisable(), nil
	case KindLimitIncrease:
		if value == nil {
			return Effect{}, fmt.Errorf(
				"limit_increase requires a value: %w",
				core.ErrInvalidInput,
			)
		}
		limit, err := strconv.ParseInt(*value, 10, 64)
		if err != nil {
			return Effect{}, fmt.Errorf(
				"limit_increase value %q is not numeric: %w",
				*value,
				core.ErrInvalidInput,
			)
		}
		if limit < 0 {
			return Effect{}, fmt.Errorf(
				"limit_increase value must not be negative: %w",
				core.ErrInvalidInput,
			)
		}
		return LimitIncrease(limit), nil
	default:
		return Effect{}, fmt.Errorf(
			"unknown override kind %q: %w",
			kind,
			core.ErrInvalidInput,
		)
	}
}

func (e Effect) Kind() Kind {
	return e.kind
}

// Limit returns the replacement max and whether the effect carries one.
func (e Effect) Limit() (int64, bool) {
	if e.kind != KindLimitIncrease {
		return 0, false
	}
	return e.limit, true
}

func (e Effect) value() *string {
	if e.kind != KindLimitIncrease {
		return nil
	}
	v := strconv.FormatInt(e.limit, 10)
	return &v
}

type Level string

const (
	LevelUser         Level = "user"
	LevelOrganization Level = "organization"
)

// Override is a time-bounded exception at user or organization scope. A nil
// UserID marks an organization-level override. A nil ExpiresAt means the
// override is permanent; an expired one is inert at resolution time whether
// or not it has been physically deleted.
type Override struct {
	ID             string
	OrganizationID string
	UserID         *string
	FeatureSlug    string
	Effect         Effect
	ExpiresAt      *time.Time
	Reason         *string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (o *Override) Level() Level {
	if o.UserID == nil {
		return LevelOrganization
	}
	return LevelUser
}

func (o *Override) ActiveAt(now time.Time) bool {
	return o.ExpiresAt == nil || o.ExpiresAt.After(now)
}

// row is the persisted shape: kind plus nullable text value.
type row struct {
	ID             string     `db:"id"`
	OrganizationID string     `db:"organization_id"`
	UserID         *string    `db:"user_id"`
	FeatureSlug    string     `db:"feature_slug"`
	Kind           string     `db:"kind"`
	Value          *string    `db:"value"`
	ExpiresAt      *time.Time `db:"expires_at"`
	Reason         *string    `db:"reason"`
	CreatedBy      string     `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r *row) toOverride() (Override, error) {
	effect, err := ParseEffect(r.Kind, r.Value)
	if err != nil {
		return Override{}, fmt.Errorf("override %s: %w", r.ID, err)
	}

	return Override{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID,
		FeatureSlug:    r.FeatureSlug,
		Effect:         effect,
		ExpiresAt:      r.ExpiresAt,
		Reason:         r.Reason,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}
