package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/server/web/middleware"
	"github.com/fluxio-platform/fluxio/pkg/logger"
)

// DefaultPollInterval is how often an open notification stream checks for
// new rows.
const DefaultPollInterval = 5 * time.Second

// NotificationHandler serves the notification list and the SSE feed. The
// feed is poll-based: each open connection periodically queries for rows
// newer than its checkpoint instead of relying on a push broker, so it
// works unchanged across multiple server replicas.
type NotificationHandler struct {
	pollInterval time.Duration
	now          func() time.Time
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(pollInterval time.Duration) *NotificationHandler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &NotificationHandler{
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

// ListNotifications lists the caller's notifications, newest first
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var notifications []models.Notification
	err := scope.FindOrdered(r.Context(), &notifications, "created_at DESC", "recipient_id = ?", claims.UserID)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to list notifications")
		respondError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	var notification models.Notification
	if err := scope.First(r.Context(), &notification, "id = ?", id); err != nil {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if notification.RecipientID.String() != claims.UserID {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}

	now := h.now()
	err = scope.UpdatesByID(r.Context(), &models.Notification{}, id, map[string]interface{}{
		"read":    true,
		"read_at": now,
	})
	if err != nil {
		logger.ErrorEvent().Err(err).Str("notification_id", id.String()).Msg("Failed to mark notification read")
		respondError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked read"})
}

// MarkAllRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	now := h.now()
	err := scope.Transaction(r.Context(), func(tx *db.Scope) error {
		var unread []models.Notification
		if err := tx.Find(r.Context(), &unread, "recipient_id = ? AND read = ?", claims.UserID, false); err != nil {
			return err
		}
		for _, n := range unread {
			err := tx.UpdatesByID(r.Context(), &models.Notification{}, n.ID, map[string]interface{}{
				"read":    true,
				"read_at": now,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to mark notifications read")
		respondError(w, http.StatusInternalServerError, "Failed to mark notifications read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked read"})
}

// feedCursor tracks a stream's position in a recipient's notifications.
// It keeps the newest timestamp sent plus the ids already delivered at
// that exact timestamp, so a row committed later with an equal created_at
// is neither skipped nor re-sent.
type feedCursor struct {
	ts   time.Time
	seen map[uuid.UUID]struct{}
}

func newFeedCursor(ts time.Time) *feedCursor {
	return &feedCursor{ts: ts, seen: make(map[uuid.UUID]struct{})}
}

// advance moves the cursor past a non-empty batch, oldest first.
func (c *feedCursor) advance(batch []models.Notification) {
	last := batch[len(batch)-1].CreatedAt
	seen := make(map[uuid.UUID]struct{})
	if last.Equal(c.ts) {
		for id := range c.seen {
			seen[id] = struct{}{}
		}
	}
	for _, n := range batch {
		if n.CreatedAt.Equal(last) {
			seen[n.ID] = struct{}{}
		}
	}
	c.ts = last
	c.seen = seen
}

// Stream serves the caller's notification feed over SSE. The connection
// starts with a cursor at "now" and on every poll emits the batch of rows
// created at or after the cursor that it has not sent yet, then advances
// the cursor to the newest row it sent. Rows are therefore delivered
// exactly once per connection, in creation order.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	flusher, flushable := w.(http.Flusher)
	if !flushable {
		respondError(w, http.StatusInternalServerError, "Streaming not supported by server")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "data: %s\n\n", `{"type":"connected"}`)
	flusher.Flush()

	cursor := newFeedCursor(h.now())
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			batch, err := h.poll(r.Context(), scope, claims.UserID, cursor)
			if err != nil {
				logger.ErrorEvent().Err(err).Str("user_id", claims.UserID).Msg("Notification poll failed")
				continue
			}
			if len(batch) == 0 {
				// Keepalive comment so proxies do not drop the connection
				fmt.Fprintf(w, ": keepalive\n\n")
				flusher.Flush()
				continue
			}

			data, err := json.Marshal(map[string]interface{}{
				"type": "notifications",
				"data": batch,
			})
			if err != nil {
				logger.ErrorEvent().Err(err).Msg("Failed to marshal notification batch")
				continue
			}

			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

			cursor.advance(batch)

		case <-r.Context().Done():
			return
		}
	}
}

// poll returns the recipient's undelivered notifications at or after the
// cursor, oldest first. The inclusive bound plus the cursor's seen set
// catches rows that commit with a created_at equal to the cursor after an
// earlier poll already ran.
func (h *NotificationHandler) poll(ctx context.Context, scope *db.Scope, userID string, cursor *feedCursor) ([]models.Notification, error) {
	var rows []models.Notification
	err := scope.FindOrdered(ctx, &rows, "created_at ASC", "recipient_id = ? AND created_at >= ?", userID, cursor.ts)
	if err != nil {
		return nil, err
	}

	batch := rows[:0]
	for _, n := range rows {
		if _, delivered := cursor.seen[n.ID]; delivered {
			continue
		}
		batch = append(batch, n)
	}
	return batch, nil
}

// callerScope pulls claims and the tenant scope out of the request context,
// writing the 401 itself when either is missing.
func callerScope(w http.ResponseWriter, r *http.Request) (*middleware.Claims, *db.Scope, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	scope := middleware.GetScopeFromContext(r.Context())
	if claims == nil || scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, nil, false
	}
	return claims, scope, true
}
