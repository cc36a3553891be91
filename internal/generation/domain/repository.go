package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, attempt *Attempt) error
	// Update persists the attempt's mutable fields.
	Update(ctx context.Context, db *gorm.DB, attempt *Attempt) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Attempt, error)
}

// Ports to the external capabilities the pipeline calls. The provider
// client satisfies both vision interfaces.

type Describer interface {
	Describe(ctx context.Context, imagePNG []byte) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
