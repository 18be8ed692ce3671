package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type preferenceRecord struct {
	bun.BaseModel `bun:"table:innovate_preferences,alias:ip"`

	ID        string    `bun:"id,pk"`
	Key       string    `bun:"pref_key,notnull"`
	Value     string    `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
