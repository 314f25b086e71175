package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/db/models"
	apperrors "github.com/fluxio-platform/fluxio/pkg/errors"
)

// FallbackNamePart is used when the reserving user has no last name.
const FallbackNamePart = "USER"

// DisplayIDGenerator produces human-readable reservation identifiers of the
// shape {YYMMDD}_{LASTNAME}_{NNNN}. The numeric suffix comes from the
// tenant's daily counter, so identifiers are unique per tenant per UTC day
// and contiguous under concurrent requests.
type DisplayIDGenerator struct {
	now func() time.Time
}

// NewDisplayIDGenerator creates a generator using the real clock.
func NewDisplayIDGenerator() *DisplayIDGenerator {
	return &DisplayIDGenerator{now: time.Now}
}

// Generate produces the next display identifier for a reservation by userID
// through the given tenant-bound scope. Dates are taken in UTC so all server
// instances agree on the counter key regardless of local timezone. The
// counter step is a serialized transaction; on conflict or store failure the
// error propagates and no identifier is returned.
func (g *DisplayIDGenerator) Generate(ctx context.Context, scope *db.Scope, userID uuid.UUID) (string, error) {
	now := g.now().UTC()
	datePart := now.Format("060102")
	dateKey := now.Format("2006-01-02")

	namePart := g.lastNamePart(ctx, scope, userID)

	next, err := scope.IncrementDailyCounter(ctx, dateKey)
	if err != nil {
		return "", apperrors.Wrap(err, "incrementing display id counter")
	}

	return fmt.Sprintf("%s_%s_%04d", datePart, namePart, next), nil
}

// lastNamePart resolves the first word of the user's last name, uppercased.
// The lookup goes through the scope, so only users of the bound tenant are
// visible; anyone else (or a user with no last name) gets the placeholder.
func (g *DisplayIDGenerator) lastNamePart(ctx context.Context, scope *db.Scope, userID uuid.UUID) string {
	var user models.User
	if err := scope.First(ctx, &user, "id = ?", userID); err != nil {
		return FallbackNamePart
	}

	fields := strings.Fields(user.LastName)
	if len(fields) == 0 {
		return FallbackNamePart
	}
	return strings.ToUpper(fields[0])
}
