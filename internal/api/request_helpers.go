package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/api/shared"
	"github.com/phrazzld/taskcal/internal/domain"
)

// feedQuery is the raw query of a feed request.
type feedQuery struct {
	Users []string `validate:"required,min=1,dive,uuid"`
	Start string   `validate:"required"`
	End   string   `validate:"required"`
}

// feedRequest is a parsed and validated feed query.
type feedRequest struct {
	UserIDs []uuid.UUID
	Range   domain.DateRange
}

// parseFeedRequest reads users from users[] or users (repeated or comma
// separated) and the range from start and end. Bounds without an offset are
// read in loc.
func parseFeedRequest(r *http.Request, loc *time.Location) (feedRequest, error) {
	q := feedQuery{
		Users: shared.QueryList(r, "users[]", "users"),
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}
	if err := shared.ValidateRequest(&q); err != nil {
		return feedRequest{}, err
	}

	ids := make([]uuid.UUID, 0, len(q.Users))
	for _, raw := range q.Users {
		id, err := uuid.Parse(raw)
		if err != nil {
			return feedRequest{}, domain.NewValidationError("users", "has invalid format", domain.ErrInvalidID)
		}
		ids = append(ids, id)
	}

	rng, err := domain.ParseDateRange(q.Start, q.End, loc)
	if err != nil {
		return feedRequest{}, err
	}

	return feedRequest{UserIDs: ids, Range: rng}, nil
}
