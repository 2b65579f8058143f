// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/store/audit"
)

// Config holds audit logging configuration.
// Values per category: "all" (MongoDB + zap), "db", "log", "off".
type Config struct {
	Auth  string // login, logout, verification events
	Admin string // catalog and order administration events
}

// Logger records audit events to MongoDB (via audit.Store) and/or zap.
// A nil *Logger is a no-op, so tests can pass nil.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event per the category's configured destination.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.config.Admin
	if event.Category == audit.CategoryAuth {
		setting = l.config.Auth
	}

	switch setting {
	case "off":
		return
	case "log":
		l.logToZap(event)
	case "db":
		l.logToStore(ctx, event)
	default: // "all" and anything unrecognized
		l.logToZap(event)
		l.logToStore(ctx, event)
	}
}

func (l *Logger) logToStore(ctx context.Context, event audit.Event) {
	if l.store == nil {
		return
	}
	if err := l.store.Insert(ctx, event); err != nil {
		l.zapLog.Error("audit store insert failed", zap.Error(err))
	}
}

/* ------------------------------ auth events ------------------------------ */

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: "login_success",
		Success:   true,
		UserID:    &userID,
		IP:        getClientIP(r),
		Details:   map[string]string{"email": email},
	})
}

func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     "login_failed",
		Success:       false,
		IP:            getClientIP(r),
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: "logout",
		Success:   true,
		IP:        getClientIP(r),
	}
	if id, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		event.UserID = &id
	}
	l.Log(ctx, event)
}

func (l *Logger) VerificationCodeSent(ctx context.Context, r *http.Request, userID primitive.ObjectID, channel string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: "verification_code_sent",
		Success:   true,
		UserID:    &userID,
		IP:        getClientIP(r),
		Details:   map[string]string{"channel": channel},
	})
}

func (l *Logger) VerificationFailed(ctx context.Context, r *http.Request, userID primitive.ObjectID, channel, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     "verification_failed",
		Success:       false,
		UserID:        &userID,
		IP:            getClientIP(r),
		FailureReason: reason,
		Details:       map[string]string{"channel": channel},
	})
}

func (l *Logger) AccountActivated(ctx context.Context, r *http.Request, userID primitive.ObjectID, how string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: "account_activated",
		Success:   true,
		UserID:    &userID,
		IP:        getClientIP(r),
		Details:   map[string]string{"how": how},
	})
}

func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, phoneChanged bool) {
	details := map[string]string{"phone_changed": "false"}
	if phoneChanged {
		details["phone_changed"] = "true"
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: "profile_updated",
		Success:   true,
		UserID:    &userID,
		IP:        getClientIP(r),
		Details:   details,
	})
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: "password_changed",
		Success:   true,
		UserID:    &userID,
		IP:        getClientIP(r),
	})
}

/* ------------------------------ order events ----------------------------- */

func (l *Logger) OrderSubmitted(ctx context.Context, r *http.Request, userID primitive.ObjectID, orderID, total string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryOrder,
		EventType: "order_submitted",
		Success:   true,
		UserID:    &userID,
		IP:        getClientIP(r),
		Details:   map[string]string{"order_id": orderID, "total": total},
	})
}

func (l *Logger) OrderStatusChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, orderID, from, to string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryOrder,
		EventType: "order_status_changed",
		Success:   true,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		Details:   map[string]string{"order_id": orderID, "from": from, "to": to},
	})
}

/* ------------------------------ admin events ----------------------------- */

func (l *Logger) CatalogChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, eventType, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType, // e.g. "product_created", "category_deleted"
		Success:   true,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		Details:   map[string]string{"name": name},
	})
}
