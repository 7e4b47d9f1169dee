package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskcal/internal/api/shared"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/service"
)

// ICSContentType is the media type of iCalendar responses.
const ICSContentType = "text/calendar; charset=utf-8"

// FeedHandler serves calendar feeds.
type FeedHandler struct {
	feedService service.FeedService
	location    *time.Location
	logger      *slog.Logger
}

// NewFeedHandler creates a FeedHandler. Range bounds without an offset are
// read in loc.
func NewFeedHandler(feedService service.FeedService, loc *time.Location, logger *slog.Logger) *FeedHandler {
	if feedService == nil {
		panic("feed service cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandler{
		feedService: feedService,
		location:    loc,
		logger:      logger.With(slog.String("component", "feed_handler")),
	}
}

// GetFeed handles GET /api/feed and responds with a JSON array of task and
// background events.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, err := parseFeedRequest(r, h.location)
	if err != nil {
		log.Debug("invalid feed request", slog.String("query", r.URL.RawQuery))
		HandleAPIError(w, r, err)
		return
	}

	items, err := h.feedService.GetFeed(r.Context(), req.UserIDs, req.Range)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// GetCalendar handles GET /api/feed.ics and responds with the same feed as
// an iCalendar document.
func (h *FeedHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	req, err := parseFeedRequest(r, h.location)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	// Rendered into a buffer so a failure can still produce an error status.
	var buf bytes.Buffer
	if err := h.feedService.WriteCalendar(r.Context(), &buf, req.UserIDs, req.Range); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", ICSContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Warn("failed to write calendar response",
			slog.String("error", err.Error()))
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
